// internal/engine/engine.go
//
// Reasoning-engine collaborator. Markdown commands that do not disable the
// engine hand their document to an implementation of Engine; the executor
// treats the result as opaque. Exec is the default implementation: it shells
// out to a configured agent command line (any LLM CLI that reads a prompt
// file and writes its answer to stdout).

package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kingrea/steward/internal/logging"
)

// Request carries everything a markdown node hands to the engine. Inline is
// nil for file-backed documents; for inline entries it is the already-loaded
// metadata, with the document body under the "prompt" key.
type Request struct {
	Path    string
	Message string
	Params  map[string]any
	Dir     string
	Inline  map[string]any
}

// Engine turns a document plus context into a result.
type Engine interface {
	Invoke(ctx context.Context, req Request) (any, error)
}

// Func adapts a plain function to the Engine interface.
type Func func(ctx context.Context, req Request) (any, error)

// Invoke implements Engine.
func (f Func) Invoke(ctx context.Context, req Request) (any, error) {
	return f(ctx, req)
}

// Exec runs a configured command line per request. The document path is
// appended as the final argument, the piped message is written to stdin,
// params are exported into the child environment, and stdout becomes the
// result.
type Exec struct {
	command []string
	timeout time.Duration
}

// NewExec builds the exec adapter. The command must not be empty.
func NewExec(command []string, timeout time.Duration) (*Exec, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("engine: no engine command configured")
	}
	return &Exec{command: append([]string{}, command...), timeout: timeout}, nil
}

// Invoke implements Engine.
func (e *Exec) Invoke(ctx context.Context, req Request) (any, error) {
	log := logging.GetLogger("engine")

	path := req.Path
	if req.Inline != nil {
		inlinePath, cleanup, err := writeInlineDocument(req.Inline)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = inlinePath
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, e.command...), path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = req.Dir
	cmd.Stdin = strings.NewReader(req.Message)
	cmd.Env = append(os.Environ(), paramEnv(req.Params)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().Strs("argv", argv).Str("dir", req.Dir).Msg("engine call")
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("engine: %s: %w: %s", argv[0], err, detail)
		}
		return nil, fmt.Errorf("engine: %s: %w", argv[0], err)
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

func paramEnv(params map[string]any) []string {
	env := make([]string, 0, len(params))
	for k, v := range params {
		env = append(env, fmt.Sprintf("%s=%v", k, v))
	}
	return env
}

// writeInlineDocument materializes inline metadata as a temporary markdown
// file so file-oriented agent CLIs can read it.
func writeInlineDocument(inline map[string]any) (string, func(), error) {
	body, _ := inline["prompt"].(string)
	file, err := os.CreateTemp("", "steward-inline-*.md")
	if err != nil {
		return "", nil, fmt.Errorf("engine: inline document: %w", err)
	}
	if _, err := file.WriteString(body); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("engine: write inline document: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("engine: close inline document: %w", err)
	}
	return file.Name(), func() { os.Remove(file.Name()) }, nil
}
