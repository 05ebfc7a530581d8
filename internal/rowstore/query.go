package rowstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/maruel/rowstore/internal/row"
)

// Query selects rows of a table. The zero value returns every row.
//
// Filters combine with AND and apply in order: Exact, then Like, then Limit.
type Query struct {
	// Exact requires each field to be present and equal to the value.
	// Numbers compare by value regardless of integer or float encoding.
	Exact map[string]any
	// Like requires each field to be present and its text form to contain
	// the pattern, case-sensitively.
	Like map[string]string
	// Limit caps the number of rows returned. nil means no limit.
	Limit *int
}

// IsZero reports whether q has no filter and no limit.
func (q *Query) IsZero() bool {
	return len(q.Exact) == 0 && len(q.Like) == 0 && q.Limit == nil
}

// Validate checks q and returns a copy with Exact values normalized.
func (q *Query) Validate() (Query, error) {
	out := Query{Like: q.Like, Limit: q.Limit}
	if q.Limit != nil && *q.Limit < 0 {
		return Query{}, fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, *q.Limit)
	}
	if len(q.Exact) != 0 {
		out.Exact = make(map[string]any, len(q.Exact))
		for k, v := range q.Exact {
			n, err := row.Normalize(v)
			if err != nil {
				return Query{}, fmt.Errorf("%w: field %q: %w", ErrInvalidQuery, k, err)
			}
			out.Exact[k] = n
		}
	}
	return out, nil
}

// Match reports whether r satisfies the Exact and Like filters of q. Exact
// values must already be normalized.
func (q *Query) Match(r row.Row) bool {
	for k, want := range q.Exact {
		got, ok := r[k]
		if !ok || !row.Equal(got, want) {
			return false
		}
	}
	for k, pattern := range q.Like {
		got, ok := r[k]
		if !ok || !strings.Contains(row.Text(got), pattern) {
			return false
		}
	}
	return true
}

// Filter returns the rows matching q in their original order, truncated to
// q.Limit. The returned rows are shared with the input.
func Filter(rows []row.Row, q Query) []row.Row {
	if q.Limit != nil && *q.Limit == 0 {
		return []row.Row{}
	}
	out := []row.Row{}
	for _, r := range rows {
		if !q.Match(r) {
			continue
		}
		out = append(out, r)
		if q.Limit != nil && len(out) == *q.Limit {
			break
		}
	}
	return out
}

// Query returns copies of the rows of table that satisfy q, in insertion
// order.
func (s *Store) Query(ctx context.Context, table string, q Query) ([]row.Row, error) {
	nq, err := q.Validate()
	if err != nil {
		return nil, err
	}
	p, unlock, err := s.acquire(table, false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	rows, err := s.loadRows(ctx, table, p)
	if err != nil {
		return nil, err
	}
	if nq.IsZero() {
		return row.CloneAll(rows), nil
	}
	return row.CloneAll(Filter(rows, nq)), nil
}
