// internal/runtime/context.go
//
// Per-run execution state. A Context is created for one top-level command
// invocation, owned by exactly one executor, and discarded when the run
// completes. Nothing here is safe for concurrent use; isolation between
// actors comes from never sharing a Context.

package runtime

import (
	"errors"

	"github.com/google/uuid"
)

// InvokeFunc triggers an ad-hoc sub-execution by command name. Bound by the
// executor before native-function nodes run.
type InvokeFunc func(name string, args []any, params map[string]any) (any, error)

// ErrInvokeUnbound is returned when a native function calls Invoke outside a
// running executor.
var ErrInvokeUnbound = errors.New("runtime: invoke capability not bound")

// Context threads state between the nodes of one command tree.
type Context struct {
	// RunID identifies this invocation in logs.
	RunID string
	// Actor is the id of the member the run executes as.
	Actor string
	// Cwd is the working directory commands inherit.
	Cwd string
	// Message is the rolling piped text, overwritten after each node.
	Message string
	// PromptOutput is the last rendered text output.
	PromptOutput string
	// CommandArgs holds the root invocation's positional arguments.
	CommandArgs []string
	// SessionState is injected into engine-disabled template rendering.
	SessionState map[string]any

	sharedState map[string]any
	invoke      InvokeFunc
}

// Option customizes context construction.
type Option func(*Context)

// WithCwd sets the working directory commands inherit.
func WithCwd(cwd string) Option {
	return func(c *Context) { c.Cwd = cwd }
}

// WithMessage seeds the rolling message.
func WithMessage(message string) Option {
	return func(c *Context) { c.Message = message }
}

// WithCommandArgs records the root invocation's positional arguments.
func WithCommandArgs(args []string) Option {
	return func(c *Context) { c.CommandArgs = append([]string{}, args...) }
}

// WithSessionState attaches the actor's session mapping.
func WithSessionState(state map[string]any) Option {
	return func(c *Context) { c.SessionState = state }
}

// NewContext creates a fresh per-run context for the given actor.
func NewContext(actor string, opts ...Option) *Context {
	c := &Context{
		RunID:       uuid.NewString(),
		Actor:       actor,
		sharedState: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State exposes the shared-state mapping for lookups and template merges.
// Callers must treat it as read-only; Store is the only writer.
func (c *Context) State() map[string]any {
	return c.sharedState
}

// Lookup returns the stored result for a command name.
func (c *Context) Lookup(name string) (any, bool) {
	v, ok := c.sharedState[name]
	return v, ok
}

// Store records a node's outcome: the normalized result under the node name,
// and the text as both prompt output and the rolling message. This is the
// sole mechanism by which sequential steps pipe output forward.
func (c *Context) Store(name string, result any, text string) {
	c.sharedState[name] = NormalizeState(result)
	c.PromptOutput = text
	c.Message = text
}

// BindInvoke installs the executor's invoke capability.
func (c *Context) BindInvoke(fn InvokeFunc) {
	c.invoke = fn
}

// Invoke runs a named command as an ad-hoc child of the current run and
// returns its native result.
func (c *Context) Invoke(name string, args []any, params map[string]any) (any, error) {
	if c.invoke == nil {
		return nil, ErrInvokeUnbound
	}
	return c.invoke(name, args, params)
}
