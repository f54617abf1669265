package command

import "testing"

func TestResolveDottedPath(t *testing.T) {
	r := NewStateResolver(nil)
	state := map[string]any{"a": map[string]any{"b": 7}}

	if got := r.Resolve("${a.b}", state, nil); got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
	if got := r.Resolve("$a.b", state, nil); got != 7 {
		t.Fatalf("expected 7 without braces, got %v", got)
	}
}

func TestResolveDottedMissReturnsLiteral(t *testing.T) {
	r := NewStateResolver(nil)
	state := map[string]any{"a": map[string]any{"b": 7}}

	if got := r.Resolve("${a.c}", state, nil); got != "${a.c}" {
		t.Fatalf("missing segment must keep the literal, got %v", got)
	}
	if got := r.Resolve("$a.b.c", state, nil); got != "$a.b.c" {
		t.Fatalf("walking past a scalar must keep the literal, got %v", got)
	}
}

func TestResolveBareNameOrder(t *testing.T) {
	r := NewStateResolver([]string{"REGION=eu-west"})
	state := map[string]any{"who": "state"}
	params := map[string]any{"who": "param", "only": "param"}

	if got := r.Resolve("$who", state, params); got != "state" {
		t.Fatalf("state must win, got %v", got)
	}
	if got := r.Resolve("$only", state, params); got != "param" {
		t.Fatalf("params must back state, got %v", got)
	}
	if got := r.Resolve("$REGION", state, params); got != "eu-west" {
		t.Fatalf("environment must back params, got %v", got)
	}
	if got := r.Resolve("$nope", state, params); got != "$nope" {
		t.Fatalf("unknown names must keep the literal, got %v", got)
	}
}

func TestResolvePassthrough(t *testing.T) {
	r := NewStateResolver(nil)

	for _, text := range []string{"plain", "", "$", "${}"} {
		if got := r.Resolve(text, nil, nil); got != text {
			t.Fatalf("%q must pass through, got %v", text, got)
		}
	}
}
