// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/maruel/rowstore/internal/server/dto"
	"github.com/maruel/rowstore/internal/server/handlers"
	"github.com/maruel/rowstore/internal/server/ratelimit"
)

// Config holds the server settings used by the handlers and wrappers.
type Config struct {
	// Version is reported by the health endpoint.
	Version string
	// JWTSecret enables HS256 bearer authentication when non-empty.
	JWTSecret []byte
	// MaxRequestBodyBytes limits request bodies. 0 means unlimited.
	MaxRequestBodyBytes int64
}

// NewRouter creates and configures the HTTP router.
// Serves API endpoints at /api/v1/*.
func NewRouter(store handlers.Store, cfg *Config, limiters *ratelimit.Limiters) http.Handler {
	mux := &http.ServeMux{}
	hh := handlers.NewHealthHandler(cfg.Version, store)
	sh := handlers.NewSchemaHandler()
	th := handlers.NewTableHandler(store)

	// Service endpoints
	mux.Handle("GET /api/v1/health", Wrap(hh.Health, cfg, limiters))
	mux.Handle("GET /api/v1/schema", Wrap(sh.Schema, cfg, limiters))

	// Table endpoints
	mux.Handle("GET /api/v1/tables", WrapAuth(th.ListTables, cfg, limiters))
	mux.Handle("GET /api/v1/tables/{table}/columns", WrapAuth(th.GetColumns, cfg, limiters))
	mux.Handle("PUT /api/v1/tables/{table}/columns", WrapAuth(th.DefineColumns, cfg, limiters))
	mux.Handle("GET /api/v1/tables/{table}/backups", WrapAuth(th.ListBackups, cfg, limiters))
	mux.Handle("DELETE /api/v1/tables/{table}/backups", WrapAuth(th.ClearBackups, cfg, limiters))

	// Row endpoints
	mux.Handle("GET /api/v1/tables/{table}/rows", WrapAuth(th.ListRows, cfg, limiters))
	mux.Handle("POST /api/v1/tables/{table}/rows", WrapAuth(th.InsertRow, cfg, limiters))
	mux.Handle("GET /api/v1/tables/{table}/rows/{id}", WrapAuth(th.GetRow, cfg, limiters))
	mux.Handle("PATCH /api/v1/tables/{table}/rows/{id}", WrapAuth(th.UpdateRow, cfg, limiters))
	mux.Handle("DELETE /api/v1/tables/{table}/rows/{id}", WrapAuth(th.DeleteRow, cfg, limiters))
	mux.Handle("POST /api/v1/tables/{table}/query", WrapAuth(th.Query, cfg, limiters))

	// Unknown API paths get the JSON error envelope.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		apiErr := dto.NotFound("endpoint " + r.URL.Path)
		writeErrorResponseWithCode(w, apiErr.StatusCode(), apiErr.Code(), apiErr.Error(), nil)
	})

	return withRequestLog(mux)
}
