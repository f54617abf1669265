package command

import (
	"strings"
	"testing"
)

func TestRenderDefaultBracketStyles(t *testing.T) {
	values := map[string]any{"name": "Ada"}

	got, err := renderBody("Hello {{{name}}} ${name} {name}", values, TemplateDefault)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada Ada Ada" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestRenderDefaultUnknownKeysIntact(t *testing.T) {
	got, err := renderBody("keep {missing} and ${missing}", map[string]any{"name": "Ada"}, "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "keep {missing} and ${missing}" {
		t.Fatalf("unknown keys were touched: %q", got)
	}
}

func TestRenderDefaultStringifiesValues(t *testing.T) {
	got, err := renderBody("n={n} nil={z}", map[string]any{"n": 7, "z": nil}, TemplateDefault)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "n=7 nil=" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestRenderGoTemplate(t *testing.T) {
	got, err := renderBody("{{upper .name}}{{.absent}}!", map[string]any{"name": "Ada"}, TemplateGo)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestRenderGoTemplateParseError(t *testing.T) {
	_, err := renderBody("{{upper", nil, TemplateGo)
	if err == nil || !strings.Contains(err.Error(), "parse template") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestRenderUnknownEngine(t *testing.T) {
	if _, err := renderBody("x", nil, "jinja"); err == nil {
		t.Fatalf("expected unknown engine error")
	}
}
