package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMalformedFrontMatter indicates an opening fence without a matching
// closing fence, or a header that is not a YAML mapping.
var ErrMalformedFrontMatter = errors.New("frontmatter: malformed header")

// Parse splits a document into its YAML header and body. Documents that do
// not open with a `---` fence have no header: the whole content is body and
// the returned mapping is nil.
func Parse(content []byte) (map[string]any, []byte, error) {
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, normalized, nil
	}
	// Keep the newline of the opening fence so an immediately following
	// closing fence (an empty header) still matches.
	rest := normalized[3:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	var header, body []byte
	switch {
	case len(parts) == 2:
		header, body = parts[0], parts[1]
	case bytes.HasSuffix(rest, []byte("\n---")):
		header = bytes.TrimSuffix(rest, []byte("\n---"))
	default:
		return nil, nil, ErrMalformedFrontMatter
	}

	var meta map[string]any
	if err := yaml.Unmarshal(header, &meta); err != nil {
		return nil, nil, fmt.Errorf("frontmatter: parse header: %w", err)
	}
	if meta == nil && len(bytes.TrimSpace(header)) > 0 {
		// Non-empty header that decoded to something other than a mapping.
		return nil, nil, ErrMalformedFrontMatter
	}
	return meta, body, nil
}

// ParseFile reads path and parses it like Parse.
func ParseFile(path string) (map[string]any, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("frontmatter: read %s: %w", path, err)
	}
	meta, body, parseErr := Parse(content)
	if parseErr != nil {
		return nil, nil, fmt.Errorf("frontmatter: %s: %w", path, parseErr)
	}
	return meta, body, nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
