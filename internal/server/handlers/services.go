// Package handlers implements the HTTP API handlers.
//
// Handlers have the signature func(context.Context, *In) (*Out, error) and
// are adapted to http.Handler by server.Wrap. Engine errors are translated to
// dto.APIError values by storeError.
package handlers

import (
	"context"

	"github.com/maruel/rowstore/internal/cache"
	"github.com/maruel/rowstore/internal/row"
	"github.com/maruel/rowstore/internal/rowstore"
)

// Store is the subset of *rowstore.Store used by the handlers.
type Store interface {
	DefineColumns(ctx context.Context, table string, columns []string) error
	Columns(ctx context.Context, table string) ([]string, error)
	Insert(ctx context.Context, table string, fields map[string]any) (string, error)
	Get(ctx context.Context, table, id string) (row.Row, error)
	Update(ctx context.Context, table, id string, fields map[string]any) error
	Delete(ctx context.Context, table, id string) error
	Query(ctx context.Context, table string, q rowstore.Query) ([]row.Row, error)
	Tables(ctx context.Context) ([]string, error)
	Backups(ctx context.Context, table string) ([]string, error)
	ClearBackups(ctx context.Context, table string) (int, error)
	CacheStats() cache.Stats
}

var _ Store = (*rowstore.Store)(nil)
