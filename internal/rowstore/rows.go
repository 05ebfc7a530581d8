package rowstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/maruel/rowstore/internal/layout"
	"github.com/maruel/rowstore/internal/row"
)

// Insert appends a new row built from fields and returns its generated id.
// An id present in fields is overwritten.
func (s *Store) Insert(ctx context.Context, table string, fields map[string]any) (string, error) {
	r, err := row.FromFields(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	r[row.IDField] = id

	p, unlock, err := s.acquire(table, true)
	if err != nil {
		return "", err
	}
	defer unlock()
	rows, err := s.loadRows(ctx, table, p)
	if err != nil {
		return "", err
	}
	if err := s.persistRows(ctx, table, p, append(slices.Clip(rows), r)); err != nil {
		return "", err
	}
	s.logger.DebugContext(ctx, "Inserted row", "table", table, "id", id)
	if s.verify {
		s.verifyInsert(ctx, table, p, id)
	}
	return id, nil
}

// verifyInsert reads the collection back and logs when id is missing. It
// never fails the insert.
func (s *Store) verifyInsert(ctx context.Context, table string, p layout.Paths, id string) {
	// Evict so the read back decodes the file just written.
	s.cache.Delete(rowsKey(table))
	rows, err := s.loadRows(ctx, table, p)
	if err != nil {
		s.logger.ErrorContext(ctx, "Insert verification failed", "table", table, "id", id, "err", err)
		return
	}
	if indexOf(rows, id) < 0 {
		s.logger.ErrorContext(ctx, "Inserted row not found on read back", "table", table, "id", id)
	}
}

// Update shallow-merges fields into the row identified by id. The id field is
// never changed.
func (s *Store) Update(ctx context.Context, table, id string, fields map[string]any) error {
	patch, err := row.FromFields(fields)
	if err != nil {
		return err
	}
	p, unlock, err := s.acquire(table, true)
	if err != nil {
		return err
	}
	defer unlock()
	rows, err := s.loadRows(ctx, table, p)
	if err != nil {
		return err
	}
	i := indexOf(rows, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	updated := slices.Clone(rows)
	updated[i] = rows[i].Merge(patch)
	if err := s.persistRows(ctx, table, p, updated); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Updated row", "table", table, "id", id, "fields", len(patch))
	return nil
}

// Delete removes the row identified by id.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	p, unlock, err := s.acquire(table, true)
	if err != nil {
		return err
	}
	defer unlock()
	rows, err := s.loadRows(ctx, table, p)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(rows), func(r row.Row) bool { return id != "" && r.ID() == id })
	if len(kept) == len(rows) {
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	if err := s.persistRows(ctx, table, p, kept); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Deleted row", "table", table, "id", id)
	return nil
}

// Get returns a copy of the row identified by id.
func (s *Store) Get(ctx context.Context, table, id string) (row.Row, error) {
	p, unlock, err := s.acquire(table, false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	rows, err := s.loadRows(ctx, table, p)
	if err != nil {
		return nil, err
	}
	i := indexOf(rows, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	return rows[i].Clone(), nil
}

func indexOf(rows []row.Row, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(rows, func(r row.Row) bool { return r.ID() == id })
}
