package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordAppendsEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "failures.log")
	j, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	j.Record("dev", "ticket", errors.New("engine exploded"))
	j.Record("ops", "scheduled", errors.New("script exited 2"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "actor=dev source=ticket engine exploded") {
		t.Fatalf("missing first entry: %q", content)
	}
	if !strings.Contains(content, "actor=ops source=scheduled script exited 2") {
		t.Fatalf("missing second entry: %q", content)
	}
	if got := strings.Count(content, "\n"); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
}

func TestRecordIgnoresNilError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failures.log")
	j, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	j.Record("dev", "ticket", nil)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("nil error must not create the journal file")
	}
}

func TestTailReturnsMostRecent(t *testing.T) {
	dir := t.TempDir()
	j, err := New(filepath.Join(dir, "failures.log"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, msg := range []string{"one", "two", "three", "four"} {
		j.Record("dev", "ticket", errors.New(msg))
	}

	lines := j.Tail(2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %#v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "three") || !strings.Contains(lines[1], "four") {
		t.Fatalf("expected the last two entries in order, got %#v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	dir := t.TempDir()
	j, err := New(filepath.Join(dir, "failures.log"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if lines := j.Tail(5); lines != nil {
		t.Fatalf("expected nil for missing file, got %#v", lines)
	}
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	j.Record("dev", "ticket", errors.New("boom"))
	if lines := j.Tail(3); lines != nil {
		t.Fatalf("nil journal must return nothing, got %#v", lines)
	}
	if j.Path() != "" {
		t.Fatalf("nil journal path must be empty")
	}
}
