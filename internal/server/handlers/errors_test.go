package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"

	"github.com/maruel/rowstore/internal/rowstore"
	"github.com/maruel/rowstore/internal/server/dto"
)

func TestStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"row not found", fmt.Errorf("%w: x", rowstore.ErrRowNotFound), http.StatusNotFound, dto.ErrorCodeRowNotFound},
		{"invalid table", fmt.Errorf("%w: \"..\"", rowstore.ErrInvalidTable), http.StatusBadRequest, dto.ErrorCodeInvalidTable},
		{"invalid query", rowstore.ErrInvalidQuery, http.StatusBadRequest, dto.ErrorCodeInvalidQuery},
		{"invalid value", rowstore.ErrInvalidValue, http.StatusBadRequest, dto.ErrorCodeInvalidFormat},
		{"corrupt", fmt.Errorf("rows: %w", rowstore.ErrCorruptArtifact), http.StatusInternalServerError, dto.ErrorCodeCorruptArtifact},
		{"io", fmt.Errorf("%w: %w", rowstore.ErrIO, fs.ErrPermission), http.StatusInternalServerError, dto.ErrorCodeStorageError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr dto.ErrorWithStatus
			if !errors.As(storeError(tt.err, "x"), &apiErr) {
				t.Fatal("storeError did not return an APIError")
			}
			if apiErr.StatusCode() != tt.status || apiErr.Code() != tt.code {
				t.Errorf("got %d %s, want %d %s", apiErr.StatusCode(), apiErr.Code(), tt.status, tt.code)
			}
		})
	}
	if storeError(nil, "") != nil {
		t.Error("storeError(nil) != nil")
	}
	if err := storeError(fmt.Errorf("%w: %w", rowstore.ErrIO, fs.ErrPermission), ""); !errors.Is(err, fs.ErrPermission) {
		t.Error("cause not reachable through the API error")
	}
}
