package frontmatter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseHeaderAndBody(t *testing.T) {
	meta, body, err := Parse([]byte("---\nengine: none\ncount: 2\n---\nHello there.\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta["engine"] != "none" {
		t.Fatalf("expected engine none, got %#v", meta["engine"])
	}
	if meta["count"] != 2 {
		t.Fatalf("expected count 2, got %#v", meta["count"])
	}
	if string(body) != "Hello there.\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestParseNoHeader(t *testing.T) {
	meta, body, err := Parse([]byte("Just a plain document.\n--- not a fence\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta != nil {
		t.Fatalf("expected nil meta, got %#v", meta)
	}
	if string(body) != "Just a plain document.\n--- not a fence\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestParseEmptyHeader(t *testing.T) {
	meta, body, err := Parse([]byte("---\n---\nBody only.\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta != nil {
		t.Fatalf("expected nil meta for empty header, got %#v", meta)
	}
	if string(body) != "Body only.\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestParseHeaderWithoutBody(t *testing.T) {
	meta, body, err := Parse([]byte("---\ntitle: bare\n---"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta["title"] != "bare" {
		t.Fatalf("expected title, got %#v", meta)
	}
	if len(body) != 0 {
		t.Fatalf("expected empty body, got %q", body)
	}
}

func TestParseUnclosedFence(t *testing.T) {
	_, _, err := Parse([]byte("---\nkey: value\nno closing fence\n"))
	if !errors.Is(err, ErrMalformedFrontMatter) {
		t.Fatalf("expected ErrMalformedFrontMatter, got %v", err)
	}
}

func TestParseNonMappingHeader(t *testing.T) {
	_, _, err := Parse([]byte("---\n- one\n- two\n---\nbody\n"))
	if err == nil {
		t.Fatalf("expected error for sequence header")
	}
}

func TestParseWindowsNewlines(t *testing.T) {
	meta, body, err := Parse([]byte("---\r\nengine: none\r\n---\r\nCRLF body.\r\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta["engine"] != "none" {
		t.Fatalf("expected engine none, got %#v", meta)
	}
	if string(body) != "CRLF body.\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte("---\nname: doc\n---\ncontent\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	meta, body, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if meta["name"] != "doc" || string(body) != "content\n" {
		t.Fatalf("unexpected result: %#v %q", meta, body)
	}

	if _, _, err := ParseFile(filepath.Join(dir, "missing.md")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
