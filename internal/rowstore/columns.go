package rowstore

import (
	"context"
	"slices"
)

// DefineColumns replaces the advisory column list of table.
func (s *Store) DefineColumns(ctx context.Context, table string, columns []string) error {
	p, unlock, err := s.acquire(table, true)
	if err != nil {
		return err
	}
	defer unlock()
	cols := slices.Clone(columns)
	if cols == nil {
		cols = []string{}
	}
	if err := s.persistColumns(ctx, table, p, cols); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Defined columns", "table", table, "columns", len(cols))
	return nil
}

// Columns returns the advisory column list of table. A table whose columns
// were never defined returns an empty list.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	p, unlock, err := s.acquire(table, false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	cols, err := s.loadColumns(ctx, table, p)
	if err != nil {
		return nil, err
	}
	return slices.Clone(cols), nil
}
