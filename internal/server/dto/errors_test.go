package dto

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		status int
		code   ErrorCode
	}{
		{"not found", NotFound("table"), http.StatusNotFound, ErrorCodeNotFound},
		{"row not found", RowNotFound("abc"), http.StatusNotFound, ErrorCodeRowNotFound},
		{"missing field", MissingField("table"), http.StatusBadRequest, ErrorCodeMissingField},
		{"invalid field", InvalidField("limit", "negative"), http.StatusBadRequest, ErrorCodeInvalidFormat},
		{"unauthorized", Unauthorized(), http.StatusUnauthorized, ErrorCodeUnauthorized},
		{"internal", Internal("x"), http.StatusInternalServerError, ErrorCodeInternal},
		{"too large", PayloadTooLarge(10), http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge},
		{"rate limit", RateLimitExceeded(3), http.StatusTooManyRequests, ErrorCodeRateLimitExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode() != tt.status {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.status)
			}
			if tt.err.Code() != tt.code {
				t.Errorf("Code() = %s, want %s", tt.err.Code(), tt.code)
			}
		})
	}
	if RowNotFound("abc").Details()["id"] != "abc" {
		t.Error("RowNotFound lacks the id detail")
	}
	if PayloadTooLarge(10).Details()["limit"] != int64(10) {
		t.Error("PayloadTooLarge lacks the limit detail")
	}
}

func TestAPIError_Wrap(t *testing.T) {
	cause := errors.New("disk full")
	err := InternalWithError("write failed", cause)
	if err.Error() != "write failed: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
	var ews ErrorWithStatus = err
	if ews.Code() != ErrorCodeInternal {
		t.Errorf("Code() = %s", ews.Code())
	}
	e := (&APIError{}).WithDetail("a", 1).WithDetails(map[string]any{"b": 2})
	if len(e.Details()) != 2 {
		t.Errorf("Details() = %v", e.Details())
	}
}

func TestValidate(t *testing.T) {
	neg := -1
	tests := []struct {
		name string
		req  Validatable
		code ErrorCode
	}{
		{"columns missing table", &DefineColumnsRequest{Columns: []string{}}, ErrorCodeMissingField},
		{"columns nil", &DefineColumnsRequest{Table: "t"}, ErrorCodeMissingField},
		{"columns empty name", &DefineColumnsRequest{Table: "t", Columns: []string{""}}, ErrorCodeInvalidFormat},
		{"get row id", &GetRowRequest{Table: "t"}, ErrorCodeMissingField},
		{"update fields", &UpdateRowRequest{Table: "t", ID: "x"}, ErrorCodeMissingField},
		{"list limit", &ListRowsRequest{Table: "t", Limit: "-2"}, ErrorCodeInvalidFormat},
		{"list limit text", &ListRowsRequest{Table: "t", Limit: "ten"}, ErrorCodeInvalidFormat},
		{"query limit", &QueryRequest{Table: "t", Limit: &neg}, ErrorCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ews ErrorWithStatus
			if err := tt.req.Validate(); !errors.As(err, &ews) || ews.Code() != tt.code {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
	valid := []Validatable{
		&DefineColumnsRequest{Table: "t", Columns: []string{}},
		&InsertRowRequest{Table: "t"},
		&ListRowsRequest{Table: "t", Limit: "0"},
		&QueryRequest{Table: "t"},
	}
	for _, v := range valid {
		if err := v.Validate(); err != nil {
			t.Errorf("%T: %v", v, err)
		}
	}
}
