package runtime

import (
	"reflect"
	"strings"
	"testing"
)

type record struct {
	Title string `yaml:"title"`
	Count int    `yaml:"count"`
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"bytes", []byte("raw"), "raw"},
		{"int", 7, "7"},
		{"scalar slice", []any{"a", 1}, "a\n1"},
		{"string slice", []string{"x", "y"}, "x\ny"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderText(tt.in); got != tt.want {
				t.Fatalf("RenderText(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderTextMapping(t *testing.T) {
	got := RenderText(map[string]any{"title": "x"})
	if !strings.Contains(got, "title: x") {
		t.Fatalf("expected yaml rendering, got %q", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Fatalf("expected trimmed rendering, got %q", got)
	}
}

func TestRenderTextRecordSequence(t *testing.T) {
	got := RenderText([]record{{Title: "a", Count: 1}, {Title: "b", Count: 2}})
	if !strings.Contains(got, "title: a") || !strings.Contains(got, "title: b") {
		t.Fatalf("expected yaml list rendering, got %q", got)
	}
}

func TestNormalizeStateStruct(t *testing.T) {
	got := NormalizeState(record{Title: "x", Count: 3})
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if m["title"] != "x" || m["count"] != 3 {
		t.Fatalf("unexpected mapping: %v", m)
	}
}

func TestNormalizeStateDeepCopiesMappings(t *testing.T) {
	original := map[string]any{"outer": map[string]any{"inner": "before"}}
	stored := NormalizeState(original).(map[string]any)
	original["outer"].(map[string]any)["inner"] = "after"
	if stored["outer"].(map[string]any)["inner"] != "before" {
		t.Fatalf("stored state shares memory with the input")
	}
}

func TestNormalizeStateRecordSequence(t *testing.T) {
	got := NormalizeState([]record{{Title: "a"}, {Title: "b"}})
	seq, ok := got.([]any)
	if !ok || len(seq) != 2 {
		t.Fatalf("expected []any of 2, got %#v", got)
	}
	first, ok := seq[0].(map[string]any)
	if !ok || first["title"] != "a" {
		t.Fatalf("expected plain mapping element, got %#v", seq[0])
	}
}

func TestNormalizeStateScalarsUntouched(t *testing.T) {
	for _, v := range []any{"s", 42, 3.5, true, nil} {
		if got := NormalizeState(v); !reflect.DeepEqual(got, v) {
			t.Fatalf("NormalizeState(%v) = %v", v, got)
		}
	}
}
