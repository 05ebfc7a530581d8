package handlers

import (
	"context"
	"path/filepath"

	"github.com/maruel/rowstore/internal/row"
	"github.com/maruel/rowstore/internal/rowstore"
	"github.com/maruel/rowstore/internal/server/dto"
)

// TableHandler handles table, column and row requests.
type TableHandler struct {
	store Store
}

// NewTableHandler creates a new table handler.
func NewTableHandler(store Store) *TableHandler {
	return &TableHandler{store: store}
}

// ListTables returns the table names.
func (h *TableHandler) ListTables(ctx context.Context, _ *dto.ListTablesRequest) (*dto.ListTablesResponse, error) {
	tables, err := h.store.Tables(ctx)
	if err != nil {
		return nil, storeError(err, "")
	}
	return &dto.ListTablesResponse{Tables: tables}, nil
}

// DefineColumns replaces the column list of a table.
func (h *TableHandler) DefineColumns(ctx context.Context, req *dto.DefineColumnsRequest) (*dto.ColumnsResponse, error) {
	if err := h.store.DefineColumns(ctx, req.Table, req.Columns); err != nil {
		return nil, storeError(err, "")
	}
	return &dto.ColumnsResponse{Table: req.Table, Columns: req.Columns}, nil
}

// GetColumns returns the column list of a table.
func (h *TableHandler) GetColumns(ctx context.Context, req *dto.GetColumnsRequest) (*dto.ColumnsResponse, error) {
	cols, err := h.store.Columns(ctx, req.Table)
	if err != nil {
		return nil, storeError(err, "")
	}
	return &dto.ColumnsResponse{Table: req.Table, Columns: cols}, nil
}

// ListBackups returns the backup file names of a table.
func (h *TableHandler) ListBackups(ctx context.Context, req *dto.ListBackupsRequest) (*dto.ListBackupsResponse, error) {
	files, err := h.store.Backups(ctx, req.Table)
	if err != nil {
		return nil, storeError(err, "")
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return &dto.ListBackupsResponse{Backups: names}, nil
}

// ClearBackups removes every backup of a table.
func (h *TableHandler) ClearBackups(ctx context.Context, req *dto.ClearBackupsRequest) (*dto.ClearBackupsResponse, error) {
	n, err := h.store.ClearBackups(ctx, req.Table)
	if err != nil {
		return nil, storeError(err, "")
	}
	return &dto.ClearBackupsResponse{Removed: n}, nil
}

// InsertRow inserts a row and returns its generated id.
func (h *TableHandler) InsertRow(ctx context.Context, req *dto.InsertRowRequest) (*dto.InsertRowResponse, error) {
	id, err := h.store.Insert(ctx, req.Table, req.Fields)
	if err != nil {
		return nil, storeError(err, "")
	}
	return &dto.InsertRowResponse{ID: id}, nil
}

// GetRow returns a single row.
func (h *TableHandler) GetRow(ctx context.Context, req *dto.GetRowRequest) (*dto.RowResponse, error) {
	r, err := h.store.Get(ctx, req.Table, req.ID)
	if err != nil {
		return nil, storeError(err, req.ID)
	}
	return &dto.RowResponse{Row: r}, nil
}

// UpdateRow merges fields into a row.
func (h *TableHandler) UpdateRow(ctx context.Context, req *dto.UpdateRowRequest) (*dto.UpdateRowResponse, error) {
	if err := h.store.Update(ctx, req.Table, req.ID, req.Fields); err != nil {
		return nil, storeError(err, req.ID)
	}
	return &dto.UpdateRowResponse{Ok: true}, nil
}

// DeleteRow deletes a row.
func (h *TableHandler) DeleteRow(ctx context.Context, req *dto.DeleteRowRequest) (*dto.DeleteRowResponse, error) {
	if err := h.store.Delete(ctx, req.Table, req.ID); err != nil {
		return nil, storeError(err, req.ID)
	}
	return &dto.DeleteRowResponse{Ok: true}, nil
}

// ListRows returns every row of a table, optionally limited.
func (h *TableHandler) ListRows(ctx context.Context, req *dto.ListRowsRequest) (*dto.RowsResponse, error) {
	limit, err := req.ParseLimit()
	if err != nil {
		return nil, err
	}
	return h.query(ctx, req.Table, rowstore.Query{Limit: limit})
}

// Query filters the rows of a table.
func (h *TableHandler) Query(ctx context.Context, req *dto.QueryRequest) (*dto.RowsResponse, error) {
	return h.query(ctx, req.Table, rowstore.Query{Exact: req.Where, Like: req.Like, Limit: req.Limit})
}

func (h *TableHandler) query(ctx context.Context, table string, q rowstore.Query) (*dto.RowsResponse, error) {
	rows, err := h.store.Query(ctx, table, q)
	if err != nil {
		return nil, storeError(err, "")
	}
	return &dto.RowsResponse{Rows: toMaps(rows), Count: len(rows)}, nil
}

func toMaps(rows []row.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
