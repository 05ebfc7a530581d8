// Package row defines the schema-less record stored in a table and the closed
// set of values its fields are normalized to.
//
// A normalized value is one of nil, bool, int64, float64, string, []any or
// map[string]any, recursively. Normalizing at the boundary (HTTP decoding,
// codec decoding, engine input) lets equality, text coercion and the binary
// codec agree on a single representation.
package row

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
)

// IDField is the system-assigned field carried by every row.
const IDField = "id"

// ErrInvalidValue is returned when a field value cannot be represented.
var ErrInvalidValue = errors.New("invalid field value")

// Row is a single record: field name to normalized value.
type Row map[string]any

// ID returns the row's identifier, or "" if missing.
func (r Row) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = cloneValue(v)
	}
	return c
}

// Merge returns a copy of r with fields shallow-merged on top. The id field
// of r is never replaced.
func (r Row) Merge(fields Row) Row {
	c := make(Row, len(r)+len(fields))
	maps.Copy(c, r)
	for k, v := range fields {
		if k == IDField {
			continue
		}
		c[k] = v
	}
	return c
}

// FromFields normalizes an arbitrary field map into a new Row.
func FromFields(fields map[string]any) (Row, error) {
	r := make(Row, len(fields))
	for k, v := range fields {
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		r[k] = n
	}
	return r, nil
}

// CloneAll deep-copies a row collection.
func CloneAll(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// Normalize converts v into the canonical value set.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, int64:
		return t, nil
	case float64:
		return finite(t)
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return normalizeUint(uint64(t)), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return normalizeUint(t), nil
	case float32:
		return finite(float64(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrInvalidValue, t.String())
		}
		return finite(f)
	case []byte:
		return string(t), nil
	case Row:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: map key of type %T", ErrInvalidValue, k)
			}
			m[ks] = e
		}
		return normalizeMap(m)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return normalizeReflect(v)
}

// finite rejects NaN and infinities, which JSON cannot represent.
func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number %v", ErrInvalidValue, f)
	}
	return f, nil
}

func normalizeUint(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, e := range m {
		n, err := Normalize(e)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

// normalizeReflect handles typed slices and string-keyed maps, e.g. []string.
func normalizeReflect(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			n, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key of type %s", ErrInvalidValue, rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			n, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = n
		}
		return out, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
