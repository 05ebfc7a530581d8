// Maps engine errors onto API errors.

package handlers

import (
	"errors"
	"net/http"

	"github.com/maruel/rowstore/internal/rowstore"
	"github.com/maruel/rowstore/internal/server/dto"
)

// storeError converts an engine error into a dto.APIError carrying the
// matching status and code. Unknown errors become 500 INTERNAL_ERROR.
func storeError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rowstore.ErrRowNotFound):
		return dto.RowNotFound(id)
	case errors.Is(err, rowstore.ErrInvalidTable):
		return dto.NewAPIError(http.StatusBadRequest, dto.ErrorCodeInvalidTable, err.Error())
	case errors.Is(err, rowstore.ErrInvalidQuery):
		return dto.NewAPIError(http.StatusBadRequest, dto.ErrorCodeInvalidQuery, err.Error())
	case errors.Is(err, rowstore.ErrInvalidValue):
		return dto.NewAPIError(http.StatusBadRequest, dto.ErrorCodeInvalidFormat, err.Error())
	case errors.Is(err, rowstore.ErrCorruptArtifact):
		return dto.NewAPIError(http.StatusInternalServerError, dto.ErrorCodeCorruptArtifact, "stored data is corrupt").Wrap(err)
	case errors.Is(err, rowstore.ErrIO):
		return dto.NewAPIError(http.StatusInternalServerError, dto.ErrorCodeStorageError, "storage failure").Wrap(err)
	default:
		return dto.InternalWithError("internal error", err)
	}
}
