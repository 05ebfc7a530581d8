// Publishes the JSON schema of the API request and response types.

package handlers

import (
	"context"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/maruel/rowstore/internal/server/dto"
)

// SchemaResponse maps API type names to their JSON schema.
type SchemaResponse struct {
	Schemas map[string]*jsonschema.Schema `json:"schemas"`
}

// SchemaHandler serves the API schema. It is computed once.
type SchemaHandler struct {
	resp SchemaResponse
}

// apiTypes lists the types published by the schema endpoint.
var apiTypes = []any{
	dto.DefineColumnsRequest{},
	dto.InsertRowRequest{},
	dto.UpdateRowRequest{},
	dto.QueryRequest{},
	dto.ListTablesResponse{},
	dto.ColumnsResponse{},
	dto.InsertRowResponse{},
	dto.RowResponse{},
	dto.RowsResponse{},
	dto.ListBackupsResponse{},
	dto.ClearBackupsResponse{},
	dto.OkResponse{},
	dto.HealthResponse{},
	dto.ErrorResponse{},
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler() *SchemaHandler {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	schemas := make(map[string]*jsonschema.Schema, len(apiTypes))
	for _, v := range apiTypes {
		t := reflect.TypeOf(v)
		schemas[t.Name()] = r.ReflectFromType(t)
	}
	return &SchemaHandler{resp: SchemaResponse{Schemas: schemas}}
}

// Schema returns the API schema.
func (h *SchemaHandler) Schema(_ context.Context, _ *dto.SchemaRequest) (*SchemaResponse, error) {
	return &h.resp, nil
}
