package dto

// --- Common Responses ---

// OkResponse is a simple success response.
type OkResponse struct {
	Ok bool `json:"ok"`
}

// HealthResponse reports server health.
type HealthResponse struct {
	Status  string     `json:"status"`
	Version string     `json:"version"`
	Cache   CacheStats `json:"cache"`
}

// CacheStats mirrors the artifact cache counters.
type CacheStats struct {
	Entries   int    `json:"entries"`
	Bytes     int64  `json:"bytes"`
	Capacity  int64  `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// --- Table Responses ---

// ListTablesResponse is a response containing the table names.
type ListTablesResponse struct {
	Tables []string `json:"tables"`
}

// ColumnsResponse is a response containing the column list of a table.
type ColumnsResponse struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// ListBackupsResponse lists backup file names sorted by name, which orders
// each artifact's backups oldest first.
type ListBackupsResponse struct {
	Backups []string `json:"backups"`
}

// ClearBackupsResponse reports how many backups were removed.
type ClearBackupsResponse struct {
	Removed int `json:"removed"`
}

// --- Row Responses ---

// InsertRowResponse is a response from inserting a row.
type InsertRowResponse struct {
	ID string `json:"id"`
}

// RowResponse is a response containing a single row.
type RowResponse struct {
	Row map[string]any `json:"row"`
}

// RowsResponse is a response containing rows in insertion order.
type RowsResponse struct {
	Rows  []map[string]any `json:"rows"`
	Count int              `json:"count"`
}

// UpdateRowResponse is a response from updating a row.
type UpdateRowResponse = OkResponse

// DeleteRowResponse is a response from deleting a row.
type DeleteRowResponse = OkResponse
