package command

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolver turns a path-like reference into an existing backing file.
// Resolution rules, in order:
//
//  1. Absolute references must exist as-is.
//  2. References with an explicit suffix are tried at anchorDir/ref.
//  3. Suffix-less references probe the supported extensions in backend
//     registration order against anchorDir/ref; if none match but the bare
//     path exists, it is accepted (suffix-less executables).
//  4. Named lookup across the configured search roots, with the same
//     extension probing.
//
// Exhausting every rule fails with ErrMissingReference naming the original
// input. Directories never satisfy a probe.
type Resolver struct {
	roots []string
	exts  []string
}

// NewResolver builds a resolver over the given search roots. Extensions
// follow the registry's backend registration order.
func NewResolver(registry *Registry, roots []string) *Resolver {
	return &Resolver{
		roots: append([]string{}, roots...),
		exts:  registry.Extensions(),
	}
}

// Resolve maps ref to an existing file, anchored at anchorDir.
func (r *Resolver) Resolve(anchorDir, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrMissingReference)
	}

	if filepath.IsAbs(ref) {
		if fileExists(ref) {
			return filepath.Clean(ref), nil
		}
		return "", fmt.Errorf("%w: %q", ErrMissingReference, ref)
	}

	hasSuffix := filepath.Ext(ref) != ""
	if anchorDir != "" {
		if path, ok := r.probe(anchorDir, ref, hasSuffix); ok {
			return path, nil
		}
	}
	for _, root := range r.roots {
		if path, ok := r.probe(root, ref, hasSuffix); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMissingReference, ref)
}

// probe tries ref under base: exact match for suffixed references, extension
// probing then the bare path for suffix-less ones.
func (r *Resolver) probe(base, ref string, hasSuffix bool) (string, bool) {
	if hasSuffix {
		path := filepath.Join(base, ref)
		if fileExists(path) {
			return path, true
		}
		return "", false
	}
	for _, ext := range r.exts {
		path := filepath.Join(base, ref+ext)
		if fileExists(path) {
			return path, true
		}
	}
	bare := filepath.Join(base, ref)
	if fileExists(bare) {
		return bare, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
