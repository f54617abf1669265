package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewExecRequiresCommand(t *testing.T) {
	if _, err := NewExec(nil, 0); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

func TestExecInvokePipesMessageAndPath(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "task.md")
	if err := os.WriteFile(doc, []byte("do the thing"), 0o644); err != nil {
		t.Fatal(err)
	}
	// $0 is the appended document path; stdin is the piped message.
	eng, err := NewExec([]string{"sh", "-c", `printf '%s|' "$0"; cat -`}, 0)
	if err != nil {
		t.Fatal(err)
	}
	result, err := eng.Invoke(context.Background(), Request{
		Path:    doc,
		Message: "hello",
		Dir:     dir,
	})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	text, ok := result.(string)
	if !ok {
		t.Fatalf("expected string result, got %T", result)
	}
	if !strings.HasPrefix(text, doc+"|") || !strings.HasSuffix(text, "hello") {
		t.Fatalf("unexpected result: %q", text)
	}
}

func TestExecInvokeExportsParams(t *testing.T) {
	eng, err := NewExec([]string{"sh", "-c", `printf '%s' "$TOPIC"`}, 0)
	if err != nil {
		t.Fatal(err)
	}
	result, err := eng.Invoke(context.Background(), Request{
		Path:   "unused",
		Params: map[string]any{"TOPIC": "tides"},
	})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if result != "tides" {
		t.Fatalf("expected param in environment, got %v", result)
	}
}

func TestExecInvokeInlineDocument(t *testing.T) {
	eng, err := NewExec([]string{"sh", "-c", `cat "$0"`}, 0)
	if err != nil {
		t.Fatal(err)
	}
	result, err := eng.Invoke(context.Background(), Request{
		Path:   "synthetic/does-not-exist.md",
		Inline: map[string]any{"prompt": "inline body"},
	})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if result != "inline body" {
		t.Fatalf("expected inline body, got %v", result)
	}
}

func TestExecInvokeTimeout(t *testing.T) {
	eng, err := NewExec([]string{"sleep", "5"}, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Invoke(context.Background(), Request{Path: "unused"}); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestExecInvokeNonZeroExit(t *testing.T) {
	eng, err := NewExec([]string{"sh", "-c", `echo nope >&2; exit 3`}, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.Invoke(context.Background(), Request{Path: "unused"})
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
