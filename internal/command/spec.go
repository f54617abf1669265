// internal/command/spec.go
//
// Command nodes. A Spec is the normalized, mutable description of one
// executable step: where its backing file lives, what kind of backend runs
// it, and the inputs it carries. Specs are built by the Builder, expanded
// lazily by the Runner, and owned by exactly one run.

package command

import (
	"path/filepath"
	"strings"
)

// Kind selects the backend that executes a node.
type Kind string

const (
	KindMarkdown    Kind = "markdown"
	KindNative      Kind = "native"
	KindScript      Kind = "script"
	KindNoop        Kind = "noop"
	KindUnsupported Kind = "unsupported"
)

// kindForPath derives the kind from the path suffix. Suffix-less files are
// treated as executables.
func kindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return KindMarkdown
	case ".go":
		return KindNative
	case ".sh", "":
		return KindScript
	case ".yaml", ".yml":
		return KindNoop
	default:
		return KindUnsupported
	}
}

// Spec describes one command node.
type Spec struct {
	// Name keys the node in the run registry and in shared state.
	Name string
	// Path is the backing file; synthetic (nonexistent) for inline nodes.
	Path string
	// Kind selects the backend.
	Kind Kind
	// Params is the merged parameter mapping: ancestor params, declared
	// params, then positional-derived params, last wins.
	Params map[string]any
	// Args are the positional arguments, substituted and stringified just
	// before dispatch.
	Args []any
	// Stdin overrides the rolling message when non-nil (extracted from a
	// `message` param).
	Stdin *string
	// Metadata is the lazily loaded header mapping; nil until Loaded.
	Metadata map[string]any
	// Children are populated exactly once, in declared order, for composable
	// kinds only.
	Children []*Spec
	// Cwd is inherited from the root node.
	Cwd string
	// Config is the normalized declarative entry this node was built from.
	// For inline nodes it doubles as the metadata source.
	Config map[string]any

	loaded    bool
	index     int
	inline    bool
	inlineKey string
	body      string
}

// Dir returns the directory anchoring relative references in child entries.
func (s *Spec) Dir() string {
	return filepath.Dir(s.Path)
}

// Loaded reports whether metadata and children have been populated.
func (s *Spec) Loaded() bool {
	return s.loaded
}

// Inline reports whether this node was declared inline rather than backed by
// a real file.
func (s *Spec) Inline() bool {
	return s.inline
}

// Body returns the loaded document body for markdown nodes.
func (s *Spec) Body() string {
	return s.body
}

// markLoaded caches metadata, body and children. Idempotent by way of the
// Loaded check in the runner; once set, these never change.
func (s *Spec) markLoaded(metadata map[string]any, body string, children []*Spec) {
	s.Metadata = metadata
	s.body = body
	s.Children = children
	s.loaded = true
}

// nextIndex advances the per-parent child counter used for default naming
// and inline-script identifiers.
func (s *Spec) nextIndex() int {
	s.index++
	return s.index
}

// metaString reads a string-ish field from loaded metadata.
func (s *Spec) metaString(key string) string {
	if s.Metadata == nil {
		return ""
	}
	v, ok := s.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	str, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(str)
}
