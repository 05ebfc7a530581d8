// Package codec encodes and decodes table artifacts.
//
// Two documents exist: the columns document {columns: [...]} and the rows
// document {rows: [...]}. Both are stored as MessagePack maps. Map keys are
// sorted on encode so identical values always produce identical bytes.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/maruel/rowstore/internal/row"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrCorruptArtifact is returned when stored bytes cannot be decoded.
var ErrCorruptArtifact = errors.New("corrupt artifact")

// Document fields are pointers so a missing key is told apart from an empty
// list.
type columnsDoc struct {
	Columns *[]string `msgpack:"columns"`
}

type rowsDoc struct {
	Rows *[]map[string]any `msgpack:"rows"`
}

// EncodeColumns serializes a column list.
func EncodeColumns(columns []string) ([]byte, error) {
	if columns == nil {
		columns = []string{}
	}
	return encode(&columnsDoc{Columns: &columns})
}

// DecodeColumns deserializes a column list.
func DecodeColumns(data []byte) ([]string, error) {
	var doc columnsDoc
	if err := decode(data, &doc); err != nil {
		return nil, err
	}
	if doc.Columns == nil {
		return nil, fmt.Errorf("%w: missing columns", ErrCorruptArtifact)
	}
	if *doc.Columns == nil {
		return []string{}, nil
	}
	return *doc.Columns, nil
}

// EncodeRows serializes a row collection.
func EncodeRows(rows []row.Row) ([]byte, error) {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return encode(&rowsDoc{Rows: &out})
}

// DecodeRows deserializes a row collection. Values are normalized.
func DecodeRows(data []byte) ([]row.Row, error) {
	var doc rowsDoc
	if err := decode(data, &doc); err != nil {
		return nil, err
	}
	if doc.Rows == nil {
		return nil, fmt.Errorf("%w: missing rows", ErrCorruptArtifact)
	}
	rows := make([]row.Row, 0, len(*doc.Rows))
	for i, m := range *doc.Rows {
		r, err := row.FromFields(m)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCorruptArtifact, i, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.UseLooseInterfaceDecoding(true)
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptArtifact, r.Len())
	}
	return nil
}
