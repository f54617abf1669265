package runtime

import (
	"errors"
	"testing"
)

func TestStorePipesTextForward(t *testing.T) {
	rc := NewContext("ada", WithMessage("seed"))
	rc.Store("step", map[string]any{"n": 1}, "rendered")
	if rc.Message != "rendered" {
		t.Fatalf("rolling message not overwritten: %q", rc.Message)
	}
	if rc.PromptOutput != "rendered" {
		t.Fatalf("prompt output not set: %q", rc.PromptOutput)
	}
	v, ok := rc.Lookup("step")
	if !ok {
		t.Fatalf("expected stored result")
	}
	if v.(map[string]any)["n"] != 1 {
		t.Fatalf("unexpected stored value: %v", v)
	}
}

func TestStoreOverwritesButNeverRemoves(t *testing.T) {
	rc := NewContext("ada")
	rc.Store("a", "first", "first")
	rc.Store("b", "second", "second")
	rc.Store("a", "third", "third")
	if v, _ := rc.Lookup("a"); v != "third" {
		t.Fatalf("expected overwrite, got %v", v)
	}
	if _, ok := rc.Lookup("b"); !ok {
		t.Fatalf("entries must never be removed")
	}
}

func TestInvokeUnbound(t *testing.T) {
	rc := NewContext("ada")
	if _, err := rc.Invoke("x", nil, nil); !errors.Is(err, ErrInvokeUnbound) {
		t.Fatalf("expected ErrInvokeUnbound, got %v", err)
	}
}

func TestNewContextOptions(t *testing.T) {
	rc := NewContext("ada",
		WithCwd("/tmp/w"),
		WithCommandArgs([]string{"x", "y"}),
		WithSessionState(map[string]any{"mood": "calm"}),
	)
	if rc.RunID == "" {
		t.Fatalf("expected generated run id")
	}
	if rc.Cwd != "/tmp/w" || len(rc.CommandArgs) != 2 {
		t.Fatalf("options not applied: %+v", rc)
	}
	if rc.SessionState["mood"] != "calm" {
		t.Fatalf("session state not applied")
	}
}
