package command

import (
	"strings"
)

// StateResolver resolves `$name` / `${a.b.c}` references in params and args
// against a run's shared state. The process environment is captured once at
// construction; nothing here reads globals at resolution time.
type StateResolver struct {
	env map[string]string
}

// NewStateResolver snapshots the given environment ("KEY=value" pairs, as
// returned by os.Environ).
func NewStateResolver(environ []string) *StateResolver {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return &StateResolver{env: env}
}

// Resolve maps a reference to its value. Non-references pass through
// untouched. A dotted path walks nested shared-state mappings and returns
// the navigated value, or the original literal when any segment is missing.
// A bare name consults shared state, then the node's merged params, then the
// environment snapshot, else the original literal.
func (r *StateResolver) Resolve(text string, state, params map[string]any) any {
	if !strings.HasPrefix(text, "$") {
		return text
	}
	name := text[1:]
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = strings.TrimSpace(name[1 : len(name)-1])
	}
	if name == "" {
		return text
	}

	if strings.Contains(name, ".") {
		value, ok := walkState(state, strings.Split(name, "."))
		if !ok {
			return text
		}
		return value
	}

	if value, ok := state[name]; ok {
		return value
	}
	if value, ok := params[name]; ok {
		return value
	}
	if value, ok := r.env[name]; ok {
		return value
	}
	return text
}

func walkState(state map[string]any, segments []string) (any, bool) {
	var current any = state
	for _, segment := range segments {
		mapping, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = mapping[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
