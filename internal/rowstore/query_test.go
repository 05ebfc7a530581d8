// Tests for exact, substring and limit filtering.

package rowstore

import (
	"errors"
	"testing"

	"github.com/maruel/rowstore/internal/row"
)

func limit(n int) *int { return &n }

func TestFilter(t *testing.T) {
	rows := []row.Row{
		{"id": "1", "name": "User100", "age": int64(30), "score": 1.5, "tags": []any{"a"}},
		{"id": "2", "name": "User200", "age": int64(25), "active": true},
		{"id": "3", "name": "Admin", "age": 30.0, "note": nil},
	}
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"zero", Query{}, []string{"1", "2", "3"}},
		{"exact string", Query{Exact: map[string]any{"name": "User200"}}, []string{"2"}},
		{"exact number across encodings", Query{Exact: map[string]any{"age": int64(30)}}, []string{"1", "3"}},
		{"exact float literal", Query{Exact: map[string]any{"age": 30.0}}, []string{"1", "3"}},
		{"exact missing field", Query{Exact: map[string]any{"active": false}}, nil},
		{"exact nil requires presence", Query{Exact: map[string]any{"note": nil}}, []string{"3"}},
		{"exact sequence", Query{Exact: map[string]any{"tags": []any{"a"}}}, []string{"1"}},
		{"exact and", Query{Exact: map[string]any{"age": int64(30), "name": "Admin"}}, []string{"3"}},
		{"like substring", Query{Like: map[string]string{"name": "ser1"}}, []string{"1"}},
		{"like case sensitive", Query{Like: map[string]string{"name": "user"}}, nil},
		{"like number", Query{Like: map[string]string{"age": "3"}}, []string{"1", "3"}},
		{"like float", Query{Like: map[string]string{"score": "1.5"}}, []string{"1"}},
		{"like bool", Query{Like: map[string]string{"active": "tru"}}, []string{"2"}},
		{"like null", Query{Like: map[string]string{"note": "null"}}, []string{"3"}},
		{"like empty pattern needs field", Query{Like: map[string]string{"score": ""}}, []string{"1"}},
		{"exact then like", Query{Exact: map[string]any{"age": int64(30)}, Like: map[string]string{"name": "User"}}, []string{"1"}},
		{"limit", Query{Limit: limit(2)}, []string{"1", "2"}},
		{"limit zero", Query{Limit: limit(0)}, nil},
		{"limit larger than result", Query{Like: map[string]string{"name": "User"}, Limit: limit(10)}, []string{"1", "2"}},
		{"limit after filters", Query{Exact: map[string]any{"age": int64(30)}, Limit: limit(1)}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.q.Validate()
			if err != nil {
				t.Fatal(err)
			}
			got := Filter(rows, q)
			if got == nil {
				t.Fatal("Filter returned nil")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %v", len(got), tt.want)
			}
			for i, r := range got {
				if r.ID() != tt.want[i] {
					t.Errorf("row %d id = %s, want %s", i, r.ID(), tt.want[i])
				}
			}
		})
	}
}

func TestQueryValidate(t *testing.T) {
	q := Query{Limit: limit(-1)}
	if _, err := q.Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("negative limit err = %v, want ErrInvalidQuery", err)
	}
	q = Query{Exact: map[string]any{"f": func() {}}}
	if _, err := q.Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("unsupported exact value err = %v, want ErrInvalidQuery", err)
	}
	q = Query{Exact: map[string]any{"n": 5}}
	nq, err := q.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if nq.Exact["n"] != int64(5) {
		t.Errorf("normalized value = %#v, want int64(5)", nq.Exact["n"])
	}
}

func TestStoreQuery(t *testing.T) {
	ctx := t.Context()
	s := newTestStore(t, Options{})

	id100, err := s.Insert(ctx, "users", map[string]any{"name": "User100", "age": 30})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Insert(ctx, "users", map[string]any{"name": "User200", "age": 30}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.Query(ctx, "users", Query{Like: map[string]string{"name": "ser1"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID() != id100 {
		t.Errorf("like ser1 = %v", rows)
	}

	rows, err = s.Query(ctx, "users", Query{Exact: map[string]any{"age": 30}, Limit: limit(1)})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID() != id100 {
		t.Errorf("exact age limit 1 = %v", rows)
	}

	if _, err := s.Query(ctx, "users", Query{Limit: limit(-3)}); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("negative limit err = %v, want ErrInvalidQuery", err)
	}

	rows, err = s.Query(ctx, "empty", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("empty table = %#v, want empty slice", rows)
	}
}

// TestScenario walks through a full table lifecycle.
func TestScenario(t *testing.T) {
	ctx := t.Context()
	s := newTestStore(t, Options{})

	if err := s.DefineColumns(ctx, "users", []string{"name", "email"}); err != nil {
		t.Fatal(err)
	}
	id, err := s.Insert(ctx, "users", map[string]any{"name": "Ann", "email": "ann@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := s.Query(ctx, "users", Query{Exact: map[string]any{"name": "Ann"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["email"] != "ann@example.com" {
		t.Fatalf("after insert: %v", rows)
	}
	if err := s.Update(ctx, "users", id, map[string]any{"email": "ann@example.org"}); err != nil {
		t.Fatal(err)
	}
	rows, err = s.Query(ctx, "users", Query{Like: map[string]string{"email": ".org"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Ann" {
		t.Fatalf("after update: %v", rows)
	}
	if err := s.Delete(ctx, "users", id); err != nil {
		t.Fatal(err)
	}
	rows, err = s.Query(ctx, "users", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("after delete: %v", rows)
	}
}
