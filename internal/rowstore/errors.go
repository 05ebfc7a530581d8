package rowstore

import (
	"errors"

	"github.com/maruel/rowstore/internal/codec"
	"github.com/maruel/rowstore/internal/layout"
	"github.com/maruel/rowstore/internal/row"
)

var (
	// ErrRowNotFound is returned when no row has the requested id.
	ErrRowNotFound = errors.New("row not found")
	// ErrInvalidQuery is returned for malformed query parameters.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrCorruptArtifact is returned when stored bytes fail to decode.
	ErrCorruptArtifact = codec.ErrCorruptArtifact
	// ErrIO is returned when a filesystem operation fails.
	ErrIO = layout.ErrIO
	// ErrInvalidTable is returned for unusable table names.
	ErrInvalidTable = layout.ErrInvalidTable
	// ErrInvalidValue is returned when a field value cannot be stored.
	ErrInvalidValue = row.ErrInvalidValue
)
