package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kingrea/steward/internal/engine"
	"github.com/kingrea/steward/internal/runtime"
)

// engineDisabledValues are the `engine` header values that turn the external
// engine off and fall back to plain template rendering.
var engineDisabledValues = map[string]bool{
	"none":     true,
	"-":        true,
	"null":     true,
	"disabled": true,
}

// markdownBackend executes document commands: the body either renders
// locally through the template engine or ships to the reasoning engine.
// The `print` inline key selects forced rendering, which never calls the
// engine and always uses the rich template engine.
type markdownBackend struct{}

func (markdownBackend) Kind() Kind { return KindMarkdown }

func (markdownBackend) Extensions() []string { return []string{".md"} }

func (markdownBackend) InlineKeys() []string { return []string{"prompt", "print"} }

func (markdownBackend) Run(ctx context.Context, run *Runner, spec *Spec, opts Options) (*Outcome, error) {
	body := spec.Body()
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	params := overlay(run.rc.State(), opts.Params)

	forced := spec.inlineKey == "print"
	if forced || engineDisabled(spec.metaString("engine")) {
		rendered, err := renderLocal(run, spec, params, forced)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: rendered, Text: rendered}, nil
	}

	if run.engine == nil {
		return nil, fmt.Errorf("%w: command %q: no engine configured", ErrEngineFailure, spec.Name)
	}
	message := opts.Message
	if run.messageFilter != nil {
		rewritten, ok := run.messageFilter(message)
		if !ok {
			rewritten = ""
		}
		message = rewritten
	}
	req := engine.Request{
		Path:    spec.Path,
		Message: message,
		Params:  params,
		Dir:     spec.Cwd,
	}
	if spec.Inline() {
		req.Inline = inlineDocument(spec)
	}
	result, err := run.engine.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: command %q: %w", ErrEngineFailure, spec.Name, err)
	}
	return &Outcome{Result: result, Text: runtime.RenderText(result)}, nil
}

func engineDisabled(selector string) bool {
	return engineDisabledValues[strings.ToLower(strings.TrimSpace(selector))]
}

// renderLocal substitutes the body with the template engine. The actor's
// session state folds into the merged values; session entries win.
func renderLocal(run *Runner, spec *Spec, values map[string]any, forced bool) (string, error) {
	if len(run.rc.SessionState) > 0 {
		values = overlay(values, run.rc.SessionState)
	}

	engineName := spec.metaString("template_engine")
	if engineName == "" {
		engineName = run.templateEngine
	}
	if forced {
		engineName = TemplateGo
	}
	rendered, err := renderBody(spec.Body(), values, engineName)
	if err != nil {
		return "", fmt.Errorf("%w: command %q: %w", ErrEngineFailure, spec.Name, err)
	}
	return rendered, nil
}

// inlineDocument hands the engine the loaded inline metadata with the body
// guaranteed under the "prompt" key.
func inlineDocument(spec *Spec) map[string]any {
	doc := make(map[string]any, len(spec.Config)+1)
	for k, v := range spec.Config {
		doc[k] = v
	}
	delete(doc, spec.inlineKey)
	doc["prompt"] = spec.Body()
	return doc
}
