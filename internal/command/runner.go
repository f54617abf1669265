// internal/command/runner.go
//
// Runner executes command trees: it lazily loads each node's document,
// builds its children, runs them depth-first before the node itself, and
// threads results through the run's shared state. One Runner serves one run
// on one goroutine.

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/steward/internal/engine"
	"github.com/kingrea/steward/internal/frontmatter"
	"github.com/kingrea/steward/internal/logging"
	"github.com/kingrea/steward/internal/runtime"
)

// Runner drives one command-tree execution.
type Runner struct {
	rc             *runtime.Context
	roots          []string
	registry       *Registry
	resolver       *Resolver
	builder        *Builder
	engine         engine.Engine
	templateEngine string
	messageFilter  func(string) (string, bool)
	environ        []string
	states         *StateResolver
	log            zerolog.Logger

	specs     map[string]*Spec
	callStack []string
	root      *Spec
	ctx       context.Context
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithEngine sets the reasoning engine used by markdown nodes.
func WithEngine(e engine.Engine) RunnerOption {
	return func(r *Runner) { r.engine = e }
}

// WithTemplateEngine sets the default template engine for rendered nodes.
func WithTemplateEngine(name string) RunnerOption {
	return func(r *Runner) { r.templateEngine = name }
}

// WithMessageFilter installs a hook that may rewrite or reject the message
// handed to the reasoning engine; a rejected message degrades to the empty
// string. Local rendering and non-markdown nodes bypass the hook.
func WithMessageFilter(fn func(string) (string, bool)) RunnerOption {
	return func(r *Runner) { r.messageFilter = fn }
}

// WithEnviron replaces the process-environment snapshot used for placeholder
// lookups and subprocess inheritance.
func WithEnviron(environ []string) RunnerOption {
	return func(r *Runner) { r.environ = append([]string{}, environ...) }
}

// NewRunner wires a runner over a run context and the command search roots.
func NewRunner(rc *runtime.Context, roots []string, opts ...RunnerOption) *Runner {
	r := &Runner{
		rc:             rc,
		roots:          append([]string{}, roots...),
		templateEngine: TemplateDefault,
		environ:        os.Environ(),
		specs:          map[string]*Spec{},
		log:            logging.GetLogger("command"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registry = defaultRegistry()
	r.resolver = NewResolver(r.registry, r.roots)
	r.builder = NewBuilder(r.registry, r.resolver)
	r.states = NewStateResolver(r.environ)
	rc.BindInvoke(r.invoke)
	return r
}

// Run resolves and executes a top-level command and returns the rolling
// message the tree leaves behind.
func (r *Runner) Run(ctx context.Context, ref string, args []string) (string, error) {
	path, err := r.resolver.Resolve(r.rc.Cwd, ref)
	if err != nil {
		return "", err
	}
	spec := r.builder.MainSpec(path, "", args, r.rc.Cwd)
	r.root = spec
	r.ctx = ctx
	defer func() { r.ctx = nil }()

	r.log.Info().Str("command", spec.Name).Str("path", path).Str("run_id", r.rc.RunID).Msg("run command")
	if _, err := r.runWithChildren(ctx, spec); err != nil {
		return r.rc.Message, err
	}
	return r.rc.Message, nil
}

// Registered reports the spec most recently executed under name.
func (r *Runner) Registered(name string) (*Spec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// runWithChildren registers the node, loads it, runs its children in order
// and then the node itself. It returns the node's own outcome.
func (r *Runner) runWithChildren(ctx context.Context, spec *Spec) (*Outcome, error) {
	for _, active := range r.callStack {
		if active == spec.Name {
			chain := append(append([]string{}, r.callStack...), spec.Name)
			return nil, &CycleError{Chain: chain}
		}
	}
	r.callStack = append(r.callStack, spec.Name)
	defer func() { r.callStack = r.callStack[:len(r.callStack)-1] }()

	r.specs[spec.Name] = spec
	if err := r.load(spec); err != nil {
		return nil, err
	}
	for _, child := range spec.Children {
		if _, err := r.runWithChildren(ctx, child); err != nil {
			return nil, err
		}
	}
	return r.runNode(ctx, spec)
}

// load parses the node's backing document and, for composable kinds, builds
// its children. Inline nodes carry their document in the entry itself.
func (r *Runner) load(spec *Spec) error {
	if spec.Loaded() {
		return nil
	}

	var meta map[string]any
	var body string
	switch {
	case spec.Inline():
		meta = spec.Config
		if s, ok := spec.Config[spec.inlineKey].(string); ok {
			body = s
		}
	case spec.Kind == KindMarkdown:
		fileMeta, rest, err := frontmatter.ParseFile(spec.Path)
		if err != nil {
			return err
		}
		meta = overlay(fileMeta, spec.Config)
		body = strings.TrimSpace(string(rest))
	case spec.Kind == KindNoop:
		fileMeta, err := loadYAMLDocument(spec.Path)
		if err != nil {
			return err
		}
		meta = overlay(fileMeta, spec.Config)
	default:
		meta = spec.Config
	}

	var children []*Spec
	if spec.Kind == KindMarkdown || spec.Kind == KindNoop {
		built, err := r.buildChildren(spec, meta)
		if err != nil {
			return err
		}
		children = built
	}
	spec.markLoaded(meta, body, children)
	return nil
}

// buildChildren materializes the ordered `commands` list.
func (r *Runner) buildChildren(spec *Spec, meta map[string]any) ([]*Spec, error) {
	raw, ok := meta["commands"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: commands must be a sequence, got %T", ErrMalformedEntry, spec.Name, raw)
	}
	children := make([]*Spec, 0, len(list))
	for _, entry := range list {
		child, err := r.builder.Build(spec, entry)
		if err != nil {
			return nil, fmt.Errorf("command: %s: %w", spec.Name, err)
		}
		children = append(children, child)
	}
	return children, nil
}

// runNode dispatches the node to its backend and stores the outcome.
func (r *Runner) runNode(ctx context.Context, spec *Spec) (*Outcome, error) {
	backend, ok := r.registry.ForKind(spec.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, spec.Path)
	}

	opts := r.prepareOptions(spec)
	outcome, err := backend.Run(ctx, r, spec, opts)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, nil
	}

	text := outcome.Text
	if text == "" && outcome.Result != nil {
		text = runtime.RenderText(outcome.Result)
	}
	r.rc.Store(spec.Name, outcome.Result, text)
	return outcome, nil
}

// prepareOptions resolves the node's stdin, params and args just before
// dispatch. Params keep the substituted value's native type; args are
// stringified after substitution.
func (r *Runner) prepareOptions(spec *Spec) Options {
	message := r.rc.Message
	if spec.Stdin != nil {
		message = *spec.Stdin
	}

	state := r.rc.State()
	params := make(map[string]any, len(spec.Params))
	for k, v := range spec.Params {
		if s, ok := v.(string); ok {
			params[k] = r.states.Resolve(s, state, spec.Params)
			continue
		}
		params[k] = v
	}

	args := make([]string, 0, len(spec.Args))
	for _, a := range spec.Args {
		if s, ok := a.(string); ok {
			resolved := r.states.Resolve(s, state, spec.Params)
			args = append(args, runtime.RenderText(resolved))
			continue
		}
		args = append(args, fmt.Sprint(a))
	}

	return Options{Message: message, Params: params, Args: args}
}

// invoke services runtime invocations from native functions: the named
// command becomes a fresh child of the run's root, executes immediately,
// and hands back its raw result.
func (r *Runner) invoke(name string, args []any, params map[string]any) (any, error) {
	if r.root == nil || r.ctx == nil {
		return nil, fmt.Errorf("command: invoke outside an active run")
	}
	entry := map[string]any{"name": name}
	if len(args) > 0 {
		entry["args"] = args
	}
	if len(params) > 0 {
		entry["params"] = params
	}
	spec, err := r.builder.Build(r.root, entry)
	if err != nil {
		return nil, err
	}
	outcome, err := r.runWithChildren(r.ctx, spec)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, nil
	}
	return outcome.Result, nil
}

func overlay(base, over map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}

func loadYAMLDocument(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("command: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	var meta map[string]any
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, path, err)
	}
	return meta, nil
}
