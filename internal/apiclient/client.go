// Package apiclient is a Go client for the rowstore HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maruel/rowstore/internal/row"
	"github.com/maruel/rowstore/internal/rowstore"
	"github.com/maruel/rowstore/internal/server/dto"
)

// Error is an error response returned by the server.
type Error struct {
	StatusCode int
	Code       dto.ErrorCode
	Message    string
	Details    map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client talks to a rowstore server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do performs an HTTP request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var er dto.ErrorResponse
		if err := json.Unmarshal(respBody, &er); err != nil || er.Error.Code == "" {
			return &Error{StatusCode: resp.StatusCode, Code: dto.ErrorCodeInternal, Message: strings.TrimSpace(string(respBody))}
		}
		return &Error{StatusCode: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message, Details: er.Details}
	}
	if out == nil {
		return nil
	}
	d := json.NewDecoder(bytes.NewReader(respBody))
	d.UseNumber()
	if err := d.Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func tablePath(table string) string {
	return "/tables/" + url.PathEscape(table)
}

func rowPath(table, id string) string {
	return tablePath(table) + "/rows/" + url.PathEscape(id)
}

// Tables lists the tables.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	var resp dto.ListTablesResponse
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

// DefineColumns replaces the column list of table.
func (c *Client) DefineColumns(ctx context.Context, table string, columns []string) error {
	if columns == nil {
		columns = []string{}
	}
	return c.do(ctx, http.MethodPut, tablePath(table)+"/columns", &dto.DefineColumnsRequest{Columns: columns}, nil)
}

// Columns returns the column list of table.
func (c *Client) Columns(ctx context.Context, table string) ([]string, error) {
	var resp dto.ColumnsResponse
	if err := c.do(ctx, http.MethodGet, tablePath(table)+"/columns", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Columns, nil
}

// Insert adds a row and returns its id.
func (c *Client) Insert(ctx context.Context, table string, fields map[string]any) (string, error) {
	var resp dto.InsertRowResponse
	if err := c.do(ctx, http.MethodPost, tablePath(table)+"/rows", &dto.InsertRowRequest{Fields: fields}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Get returns one row.
func (c *Client) Get(ctx context.Context, table, id string) (row.Row, error) {
	var resp dto.RowResponse
	if err := c.do(ctx, http.MethodGet, rowPath(table, id), nil, &resp); err != nil {
		return nil, err
	}
	return row.FromFields(resp.Row)
}

// Update merges fields into the row id.
func (c *Client) Update(ctx context.Context, table, id string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	return c.do(ctx, http.MethodPatch, rowPath(table, id), &dto.UpdateRowRequest{Fields: fields}, nil)
}

// Delete removes the row id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	return c.do(ctx, http.MethodDelete, rowPath(table, id), nil, nil)
}

// List returns the rows of table in storage order. A nil limit returns all.
func (c *Client) List(ctx context.Context, table string, limit *int) ([]row.Row, error) {
	path := tablePath(table) + "/rows"
	if limit != nil {
		path += "?limit=" + strconv.Itoa(*limit)
	}
	var resp dto.RowsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return toRows(resp.Rows)
}

// Query filters the rows of table on the server.
func (c *Client) Query(ctx context.Context, table string, q rowstore.Query) ([]row.Row, error) {
	req := &dto.QueryRequest{Where: q.Exact, Like: q.Like, Limit: q.Limit}
	var resp dto.RowsResponse
	if err := c.do(ctx, http.MethodPost, tablePath(table)+"/query", req, &resp); err != nil {
		return nil, err
	}
	return toRows(resp.Rows)
}

// Backups lists the backup file names of table, sorted by name.
func (c *Client) Backups(ctx context.Context, table string) ([]string, error) {
	var resp dto.ListBackupsResponse
	if err := c.do(ctx, http.MethodGet, tablePath(table)+"/backups", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Backups, nil
}

// ClearBackups removes every backup of table and returns how many were removed.
func (c *Client) ClearBackups(ctx context.Context, table string) (int, error) {
	var resp dto.ClearBackupsResponse
	if err := c.do(ctx, http.MethodDelete, tablePath(table)+"/backups", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// toRows normalizes decoded rows so integers come back as int64.
func toRows(in []map[string]any) ([]row.Row, error) {
	out := make([]row.Row, 0, len(in))
	for _, m := range in {
		r, err := row.FromFields(m)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
