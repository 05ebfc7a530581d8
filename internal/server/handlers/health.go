package handlers

import (
	"context"

	"github.com/maruel/rowstore/internal/server/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	store   Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string, store Store) *HealthHandler {
	return &HealthHandler{version: version, store: store}
}

// Health handles health check requests.
func (h *HealthHandler) Health(_ context.Context, _ *dto.HealthRequest) (*dto.HealthResponse, error) {
	resp := &dto.HealthResponse{Status: "ok", Version: h.version}
	if h.store != nil {
		s := h.store.CacheStats()
		resp.Cache = dto.CacheStats{
			Entries:   s.Entries,
			Bytes:     s.Bytes,
			Capacity:  s.Capacity,
			Hits:      s.Hits,
			Misses:    s.Misses,
			Evictions: s.Evictions,
		}
	}
	return resp, nil
}
