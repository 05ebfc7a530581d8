package rowstore

import (
	"context"

	"github.com/maruel/rowstore/internal/layout"
)

// Tables lists the tables present in the database directory.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.layout.Tables()
}

// ClearBackups removes every backup of table and returns how many were
// removed. Live artifacts are untouched.
func (s *Store) ClearBackups(ctx context.Context, table string) (int, error) {
	p, unlock, err := s.acquire(table, true)
	if err != nil {
		return 0, err
	}
	defer unlock()
	n, err := s.backups.Clear(p.Dir)
	if err != nil {
		return n, err
	}
	s.logger.InfoContext(ctx, "Cleared backups", "table", table, "removed", n)
	return n, nil
}

// Backups lists the backup files of table, sorted by name.
func (s *Store) Backups(ctx context.Context, table string) ([]string, error) {
	p, unlock, err := s.acquire(table, false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return layout.Backups(p.Dir)
}
