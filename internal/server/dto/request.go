package dto

import "strconv"

// --- Service ---

// HealthRequest is a request to check server health.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

// SchemaRequest is a request for the JSON schema of the API types.
type SchemaRequest struct{}

// Validate is a no-op for SchemaRequest.
func (r *SchemaRequest) Validate() error {
	return nil
}

// --- Tables ---

// ListTablesRequest is a request to list tables.
type ListTablesRequest struct{}

// Validate is a no-op for ListTablesRequest.
func (r *ListTablesRequest) Validate() error {
	return nil
}

// DefineColumnsRequest is a request to replace the column list of a table.
type DefineColumnsRequest struct {
	Table   string   `path:"table" json:"-"`
	Columns []string `json:"columns" jsonschema:"required"`
}

// Validate validates the define columns request fields.
func (r *DefineColumnsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.Columns == nil {
		return MissingField("columns")
	}
	for _, c := range r.Columns {
		if c == "" {
			return InvalidField("columns", "empty column name")
		}
	}
	return nil
}

// GetColumnsRequest is a request for the column list of a table.
type GetColumnsRequest struct {
	Table string `path:"table" json:"-"`
}

// Validate validates the get columns request fields.
func (r *GetColumnsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	return nil
}

// ListBackupsRequest is a request for the backup files of a table.
type ListBackupsRequest struct {
	Table string `path:"table" json:"-"`
}

// Validate validates the list backups request fields.
func (r *ListBackupsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	return nil
}

// ClearBackupsRequest is a request to remove every backup of a table.
type ClearBackupsRequest struct {
	Table string `path:"table" json:"-"`
}

// Validate validates the clear backups request fields.
func (r *ClearBackupsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	return nil
}

// --- Rows ---

// InsertRowRequest is a request to insert a row.
type InsertRowRequest struct {
	Table  string         `path:"table" json:"-"`
	Fields map[string]any `json:"fields"`
}

// Validate validates the insert row request fields.
func (r *InsertRowRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	return nil
}

// GetRowRequest is a request for a single row.
type GetRowRequest struct {
	Table string `path:"table" json:"-"`
	ID    string `path:"id" json:"-"`
}

// Validate validates the get row request fields.
func (r *GetRowRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// UpdateRowRequest is a request to merge fields into a row.
type UpdateRowRequest struct {
	Table  string         `path:"table" json:"-"`
	ID     string         `path:"id" json:"-"`
	Fields map[string]any `json:"fields" jsonschema:"required"`
}

// Validate validates the update row request fields.
func (r *UpdateRowRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	if r.Fields == nil {
		return MissingField("fields")
	}
	return nil
}

// DeleteRowRequest is a request to delete a row.
type DeleteRowRequest struct {
	Table string `path:"table" json:"-"`
	ID    string `path:"id" json:"-"`
}

// Validate validates the delete row request fields.
func (r *DeleteRowRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// ListRowsRequest is a request for every row of a table, optionally limited.
type ListRowsRequest struct {
	Table string `path:"table" json:"-"`
	Limit string `query:"limit" json:"-"`
}

// Validate validates the list rows request fields.
func (r *ListRowsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.Limit != "" {
		if _, err := r.ParseLimit(); err != nil {
			return err
		}
	}
	return nil
}

// ParseLimit returns the limit query parameter, nil when absent.
func (r *ListRowsRequest) ParseLimit() (*int, error) {
	if r.Limit == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(r.Limit)
	if err != nil || n < 0 {
		return nil, InvalidField("limit", "must be a non-negative integer")
	}
	return &n, nil
}

// QueryRequest is a request to filter the rows of a table.
//
// Where requires exact equality, Like requires substring containment of the
// value's text form. Filters apply in that order, then Limit.
type QueryRequest struct {
	Table string            `path:"table" json:"-"`
	Where map[string]any    `json:"where,omitempty"`
	Like  map[string]string `json:"like,omitempty"`
	Limit *int              `json:"limit,omitempty"`
}

// Validate validates the query request fields.
func (r *QueryRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.Limit != nil && *r.Limit < 0 {
		return InvalidField("limit", "must be non-negative")
	}
	return nil
}
