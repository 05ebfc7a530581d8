package row

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int", 42, int64(42)},
		{"int8", int8(-3), int64(-3)},
		{"uint32", uint32(7), int64(7)},
		{"uint64 large", uint64(math.MaxUint64), float64(math.MaxUint64)},
		{"float32", float32(0.5), 0.5},
		{"json int", json.Number("12"), int64(12)},
		{"json float", json.Number("1.25"), 1.25},
		{"bytes", []byte("hi"), "hi"},
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"nested", map[string]any{"x": []int{1}}, map[string]any{"x": []any{int64(1)}}},
		{"any keys", map[any]any{"k": uint8(1)}, map[string]any{"k": int64(1)}},
		{"typed map", map[string]int{"k": 2}, map[string]any{"k": int64(2)}},
		{"pointer", new(int), int64(0)},
		{"nil pointer", (*int)(nil), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("Normalize(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}

	for _, bad := range []any{
		make(chan int), map[int]any{1: 1}, map[any]any{1: "x"}, json.Number("x"),
		math.NaN(), math.Inf(1), float32(math.Inf(-1)), json.Number("1e999"),
		[]any{math.NaN()}, map[string]float64{"x": math.Inf(1)},
	} {
		if _, err := Normalize(bad); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Normalize(%T) err = %v, want ErrInvalidValue", bad, err)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{nil, "", false},
		{int64(5), 5.0, true},
		{5.0, int64(5), true},
		{int64(5), 5.5, false},
		{1e300, int64(math.MaxInt64), false},
		{"5", int64(5), false},
		{true, true, true},
		{true, int64(1), false},
		{[]any{int64(1), "a"}, []any{1.0, "a"}, true},
		{[]any{int64(1)}, []any{int64(1), int64(2)}, false},
		{map[string]any{"a": int64(1)}, map[string]any{"a": 1.0}, true},
		{map[string]any{"a": nil}, map[string]any{"b": nil}, false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"User100", "User100"},
		{int64(-12), "-12"},
		{1.5, "1.5"},
		{1e21, "1000000000000000000000"},
		{30.0, "30"},
		{true, "true"},
		{nil, "null"},
		{[]any{"a", int64(1)}, `["a",1]`},
		{map[string]any{"b": int64(2), "a": "x"}, `{"a":"x","b":2}`},
	}
	for _, tt := range tests {
		if got := Text(tt.in); got != tt.want {
			t.Errorf("Text(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRow(t *testing.T) {
	r := Row{"id": "abc", "list": []any{"x"}, "m": map[string]any{"k": "v"}}
	if r.ID() != "abc" {
		t.Errorf("ID = %q", r.ID())
	}
	if (Row{"id": int64(1)}).ID() != "" {
		t.Error("non-string id should read as empty")
	}

	c := r.Clone()
	c["list"].([]any)[0] = "changed"
	c["m"].(map[string]any)["k"] = "changed"
	if r["list"].([]any)[0] != "x" || r["m"].(map[string]any)["k"] != "v" {
		t.Error("Clone shares nested values")
	}

	m := r.Merge(Row{"id": "other", "new": int64(1)})
	if m.ID() != "abc" || m["new"] != int64(1) {
		t.Errorf("Merge = %v", m)
	}
	if _, ok := r["new"]; ok {
		t.Error("Merge mutated the receiver")
	}

	if _, err := FromFields(map[string]any{"bad": make(chan int)}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("FromFields err = %v, want ErrInvalidValue", err)
	}
	all := CloneAll([]Row{r})
	all[0]["id"] = "z"
	if r.ID() != "abc" {
		t.Error("CloneAll shares rows")
	}
}
