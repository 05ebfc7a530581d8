package apiclient

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maruel/rowstore/internal/rowstore"
	"github.com/maruel/rowstore/internal/server"
	"github.com/maruel/rowstore/internal/server/dto"
	"github.com/maruel/rowstore/internal/server/ratelimit"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	store, err := rowstore.New(rowstore.Options{Root: t.TempDir(), Backups: true, Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		t.Fatal(err)
	}
	limiters := ratelimit.New(0, 0)
	srv := httptest.NewServer(server.NewRouter(store, &server.Config{MaxRequestBodyBytes: 1 << 20}, limiters))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithHTTPClient(srv.Client()))
}

func TestClient(t *testing.T) {
	ctx := t.Context()
	c := newTestClient(t)

	if err := c.DefineColumns(ctx, "users", []string{"name", "age"}); err != nil {
		t.Fatal(err)
	}
	cols, err := c.Columns(ctx, "users")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 {
		t.Errorf("Columns = %v", cols)
	}

	id, err := c.Insert(ctx, "users", map[string]any{"name": "User100", "age": 30, "tags": []string{"a"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Insert(ctx, "users", map[string]any{"name": "User200", "age": 31.5}); err != nil {
		t.Fatal(err)
	}

	r, err := c.Get(ctx, "users", id)
	if err != nil {
		t.Fatal(err)
	}
	if r.ID() != id || r["age"] != int64(30) || r["name"] != "User100" {
		t.Errorf("Get = %#v", r)
	}

	if err := c.Update(ctx, "users", id, map[string]any{"age": 40}); err != nil {
		t.Fatal(err)
	}
	rows, err := c.Query(ctx, "users", rowstore.Query{Exact: map[string]any{"age": 40}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID() != id {
		t.Errorf("Query = %v", rows)
	}
	rows, err = c.Query(ctx, "users", rowstore.Query{Like: map[string]string{"age": "31."}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["age"] != 31.5 {
		t.Errorf("Query like = %v", rows)
	}

	one := 1
	rows, err = c.List(ctx, "users", &one)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID() != id {
		t.Errorf("List limit 1 = %v", rows)
	}

	tables, err := c.Tables(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 || tables[0] != "users" {
		t.Errorf("Tables = %v", tables)
	}

	if err := c.Delete(ctx, "users", id); err != nil {
		t.Fatal(err)
	}
	_, err = c.Get(ctx, "users", id)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != dto.ErrorCodeRowNotFound {
		t.Errorf("Get after delete err = %v", err)
	}
	if apiErr != nil && apiErr.Details["id"] != id {
		t.Errorf("Details = %v", apiErr.Details)
	}

	// The first write of each artifact is backed up.
	names, err := c.Backups(ctx, "users")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 {
		t.Fatal("no backups listed")
	}
	for _, name := range names {
		if !strings.HasSuffix(name, ".bak") || strings.ContainsRune(name, '/') {
			t.Errorf("backup name %q", name)
		}
	}
	n, err := c.ClearBackups(ctx, "users")
	if err != nil {
		t.Fatal(err)
	}
	if n != len(names) {
		t.Errorf("removed %d backups, listed %d", n, len(names))
	}
	if names, err = c.Backups(ctx, "users"); err != nil || len(names) != 0 {
		t.Errorf("after clear: %v, %v", names, err)
	}
}

func TestClientErrors(t *testing.T) {
	ctx := t.Context()
	c := newTestClient(t)

	neg := -1
	_, err := c.Query(ctx, "users", rowstore.Query{Limit: &neg})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("negative limit err = %v", err)
	}
	err = c.Update(ctx, "users", "missing", nil)
	if !errors.As(err, &apiErr) || apiErr.Code != dto.ErrorCodeRowNotFound {
		t.Errorf("update missing err = %v", err)
	}
	if _, err := c.Columns(ctx, "a:b"); !errors.As(err, &apiErr) || apiErr.Code != dto.ErrorCodeInvalidTable {
		t.Errorf("invalid table err = %v", err)
	}

	bare := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(bare.Close)
	_, err = New(bare.URL).Tables(ctx)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != dto.ErrorCodeInternal {
		t.Errorf("non-envelope err = %v", err)
	}
}
