package command

import (
	"context"
	"fmt"
	"sync"
)

// Options carries the per-node invocation inputs prepared by the runner just
// before dispatch: stdin text resolved, params and args placeholder
// substituted.
type Options struct {
	// Message is the stdin text: the node's override when declared, else the
	// run's current rolling message.
	Message string
	// Params is a substituted copy of the node's merged params. Values keep
	// the native type a placeholder resolved to.
	Params map[string]any
	// Args are the substituted, stringified positional arguments.
	Args []string
}

// Outcome is what a backend produced. Nil means the node produced nothing
// and shared state stays untouched.
type Outcome struct {
	// Result is the native value stored (normalized) in shared state.
	Result any
	// Text is the string rendering piped to the next step.
	Text string
}

// Backend executes nodes of one kind.
type Backend interface {
	// Kind is the node kind this backend serves.
	Kind() Kind
	// Extensions lists the path suffixes this backend owns, probe order
	// first. The first entry also names synthetic inline paths.
	Extensions() []string
	// InlineKeys lists entry keys that mark an inline declaration of this
	// backend, probed in order.
	InlineKeys() []string
	// Run executes one node.
	Run(ctx context.Context, run *Runner, spec *Spec, opts Options) (*Outcome, error)
}

// Registry holds the backends in registration order. Order matters twice:
// it fixes the resolver's extension probing and the builder's inline-key
// probing.
type Registry struct {
	mu     sync.RWMutex
	order  []Backend
	byKind map[Kind]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[Kind]Backend)}
}

// defaultRegistry wires the four standard backends.
func defaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(&markdownBackend{})
	r.MustRegister(&nativeBackend{})
	r.MustRegister(&scriptBackend{})
	r.MustRegister(&noopBackend{})
	return r
}

// Register adds a backend. Registering a kind twice is a programming error.
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return fmt.Errorf("command: nil backend")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKind[b.Kind()]; exists {
		return fmt.Errorf("command: backend for kind %q already registered", b.Kind())
	}
	r.byKind[b.Kind()] = b
	r.order = append(r.order, b)
	return nil
}

// MustRegister is Register that panics on error; for wiring at startup.
func (r *Registry) MustRegister(b Backend) {
	if err := r.Register(b); err != nil {
		panic(err)
	}
}

// ForKind returns the backend serving a kind.
func (r *Registry) ForKind(kind Kind) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byKind[kind]
	return b, ok
}

// Extensions returns every non-empty extension in registration order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var exts []string
	for _, b := range r.order {
		for _, ext := range b.Extensions() {
			if ext != "" {
				exts = append(exts, ext)
			}
		}
	}
	return exts
}

// InlineMatch finds the first backend owning an inline key present in the
// entry. Returns the backend, the matched key, and whether one matched.
func (r *Registry) InlineMatch(entry map[string]any) (Backend, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.order {
		for _, key := range b.InlineKeys() {
			if _, ok := entry[key]; ok {
				return b, key, true
			}
		}
	}
	return nil, "", false
}
