package command

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// Builder turns raw declarative entries into Specs. One Builder serves one
// runner; it carries no per-run state of its own.
type Builder struct {
	registry *Registry
	resolver *Resolver
}

// NewBuilder wires a builder over the backend registry and path resolver.
func NewBuilder(registry *Registry, resolver *Resolver) *Builder {
	return &Builder{registry: registry, resolver: resolver}
}

// ParseCommandLine tokenizes a shell-like command string into its path,
// positional args and `key=value` params.
func ParseCommandLine(line string) (string, []any, map[string]any, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", nil, nil, fmt.Errorf("%w: empty command string", ErrMalformedEntry)
	}
	words, err := shlex.Split(trimmed)
	if err != nil {
		return "", nil, nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	if len(words) == 0 {
		return "", nil, nil, fmt.Errorf("%w: empty command string", ErrMalformedEntry)
	}
	path := words[0]
	var args []any
	params := map[string]any{}
	for _, word := range words[1:] {
		if key, value, ok := splitKeyValue(word); ok {
			params[key] = value
			continue
		}
		args = append(args, word)
	}
	return path, args, params, nil
}

// Build constructs a child Spec from a declarative entry, anchored at an
// existing node: the anchor's directory roots relative references, its
// params seed the merge, and its child counter names anonymous entries.
func (b *Builder) Build(anchor *Spec, entry any) (*Spec, error) {
	index := anchor.nextIndex()

	data, err := normalizeEntry(entry)
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		Cwd:    anchor.Cwd,
		Config: data,
	}

	// Inline declarations fabricate a synthetic path; everything else goes
	// through the resolver.
	if backend, key, ok := b.registry.InlineMatch(data); ok {
		if _, isString := data[key].(string); !isString {
			return nil, fmt.Errorf("%w: %q must be a string", ErrMalformedEntry, key)
		}
		ext := backend.Extensions()[0]
		spec.Path = filepath.Join(anchor.Dir(), fmt.Sprintf("%s__%d%s", anchor.Name, index, ext))
		spec.inline = true
		spec.inlineKey = key
	} else {
		ref, ok := stringField(data, "path")
		if !ok {
			ref, ok = stringField(data, "name")
		}
		if !ok || strings.TrimSpace(ref) == "" {
			return nil, fmt.Errorf("%w: entry requires a path, name or inline script", ErrMalformedEntry)
		}
		resolved, err := b.resolver.Resolve(anchor.Dir(), strings.TrimSpace(ref))
		if err != nil {
			return nil, err
		}
		spec.Path = resolved
	}
	spec.Kind = kindForPath(spec.Path)

	// Name: explicit, else path stem, else anchored default.
	if name, ok := stringField(data, "name"); ok && strings.TrimSpace(name) != "" {
		spec.Name = strings.TrimSpace(name)
	} else if !spec.inline {
		spec.Name = pathStem(spec.Path)
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("%s__%d", anchor.Name, index)
	}

	args, err := normalizeArgs(data["args"])
	if err != nil {
		return nil, err
	}
	positional, derived := deriveArgParams(args, spec.Kind)
	spec.Args = positional

	declared, err := declaredParams(data)
	if err != nil {
		return nil, err
	}
	spec.Params = mergeParams(anchor.Params, declared, derived)
	extractStdin(spec)

	return spec, nil
}

// MainSpec builds the root node for a named top-level command. The path must
// already be resolved.
func (b *Builder) MainSpec(path, name string, args []string, cwd string) *Spec {
	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}
	kind := kindForPath(path)
	positional, derived := deriveArgParams(anyArgs, kind)
	if strings.TrimSpace(name) == "" {
		name = pathStem(path)
	}
	spec := &Spec{
		Name:   name,
		Path:   path,
		Kind:   kind,
		Args:   positional,
		Params: mergeParams(nil, nil, derived),
		Cwd:    cwd,
	}
	extractStdin(spec)
	return spec
}

// normalizeEntry coerces an entry into a mapping. String entries parse like
// a command line; a `command` field inside a mapping parses the same way and
// is overridden by explicit sibling keys.
func normalizeEntry(entry any) (map[string]any, error) {
	switch value := entry.(type) {
	case string:
		path, args, params, err := ParseCommandLine(value)
		if err != nil {
			return nil, err
		}
		return map[string]any{"path": path, "args": args, "params": params}, nil
	default:
		mapping, ok := asMapping(entry)
		if !ok {
			return nil, fmt.Errorf("%w: entry must be a string or mapping, got %T", ErrMalformedEntry, entry)
		}
		if command, ok := stringField(mapping, "command"); ok {
			path, args, params, err := ParseCommandLine(command)
			if err != nil {
				return nil, err
			}
			merged := map[string]any{"path": path, "args": args, "params": params}
			for k, v := range mapping {
				if k == "command" {
					continue
				}
				merged[k] = v
			}
			return merged, nil
		}
		return mapping, nil
	}
}

func declaredParams(data map[string]any) (map[string]any, error) {
	raw, ok := data["params"]
	if !ok || raw == nil {
		return nil, nil
	}
	mapping, ok := asMapping(raw)
	if !ok {
		return nil, fmt.Errorf("%w: params must be a mapping, got %T", ErrMalformedEntry, raw)
	}
	return mapping, nil
}

func normalizeArgs(raw any) ([]any, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		return append([]any{}, value...), nil
	case []string:
		args := make([]any, len(value))
		for i, s := range value {
			args[i] = s
		}
		return args, nil
	case string, bool, int, int64, float64:
		return []any{value}, nil
	default:
		return nil, fmt.Errorf("%w: args must be a sequence or scalar, got %T", ErrMalformedEntry, raw)
	}
}

// deriveArgParams splits `key=value` tokens out of the args into named
// params and numbers the remaining positional ones. Script nodes number
// theirs arg1…argN so the keys stay valid environment names and never shadow
// $1…$N; every other kind numbers 1…N.
func deriveArgParams(args []any, kind Kind) ([]any, map[string]any) {
	derived := map[string]any{}
	var positional []any
	for _, arg := range args {
		if s, ok := arg.(string); ok {
			if key, value, found := splitKeyValue(s); found {
				derived[key] = value
				continue
			}
		}
		positional = append(positional, arg)
		n := len(positional)
		if kind == KindScript {
			derived["arg"+strconv.Itoa(n)] = arg
		} else {
			derived[strconv.Itoa(n)] = arg
		}
	}
	return positional, derived
}

func mergeParams(layers ...map[string]any) map[string]any {
	merged := map[string]any{}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// extractStdin pops the `message` param into the stdin override.
func extractStdin(spec *Spec) {
	value, ok := spec.Params["message"]
	if !ok {
		return
	}
	delete(spec.Params, "message")
	if value == nil {
		return
	}
	text := fmt.Sprint(value)
	spec.Stdin = &text
}

func splitKeyValue(token string) (string, string, bool) {
	i := strings.IndexByte(token, '=')
	if i <= 0 {
		return "", "", false
	}
	key := token[:i]
	if !isParamKey(key) {
		return "", "", false
	}
	return key, token[i+1:], true
}

// isParamKey accepts bare identifier-like keys, so flag tokens such as
// `--opt=value` stay positional.
func isParamKey(key string) bool {
	for i, r := range key {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(key) > 0
}

func pathStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}

func stringField(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func asMapping(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}
