package runtime

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// RenderText converts a backend result into the text piped to the next step.
// Structured values render as YAML so a following prompt can read them.
func RenderText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	}

	rv := reflect.ValueOf(v)
	switch kindOf(rv) {
	case reflect.Map, reflect.Struct:
		return renderYAML(v)
	case reflect.Slice, reflect.Array:
		if rv.Len() > 0 && isStructured(rv.Index(0)) {
			return renderYAML(v)
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, fmt.Sprint(rv.Index(i).Interface()))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(v)
	}
}

// NormalizeState converts a backend result into the shape stored in shared
// state: structs become plain mappings, mappings and sequences are
// deep-copied so later steps cannot mutate a prior step's stored output, and
// scalars pass through unchanged.
func NormalizeState(v any) any {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	case []byte:
		return v
	}

	rv := reflect.ValueOf(v)
	switch kindOf(rv) {
	case reflect.Struct:
		if m, ok := structToMap(v); ok {
			return m
		}
		return v
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = NormalizeState(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, NormalizeState(rv.Index(i).Interface()))
		}
		return out
	default:
		return v
	}
}

func renderYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(string(data), "\n")
}

// structToMap flattens a struct through a YAML round trip. Structs that do
// not encode to a mapping (time.Time encodes to a scalar) are left alone.
func structToMap(v any) (map[string]any, bool) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}

func kindOf(rv reflect.Value) reflect.Kind {
	if !rv.IsValid() {
		return reflect.Invalid
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Invalid
		}
		rv = rv.Elem()
	}
	return rv.Kind()
}

func isStructured(rv reflect.Value) bool {
	if rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch kindOf(rv) {
	case reflect.Map, reflect.Struct:
		return true
	default:
		return false
	}
}
