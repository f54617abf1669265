package command

import "context"

// noopBackend backs pure container documents: the node itself produces no
// outcome, its children do the work.
type noopBackend struct{}

func (noopBackend) Kind() Kind { return KindNoop }

func (noopBackend) Extensions() []string { return []string{".yaml", ".yml"} }

func (noopBackend) InlineKeys() []string { return nil }

func (noopBackend) Run(context.Context, *Runner, *Spec, Options) (*Outcome, error) {
	return nil, nil
}
