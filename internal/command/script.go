package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// scriptBackend runs executable files and inline shell snippets. Params are
// exported as environment variables, the piped message feeds stdin, and the
// started process always runs to completion: cancellation never kills a
// child mid-write.
type scriptBackend struct{}

func (scriptBackend) Kind() Kind { return KindScript }

func (scriptBackend) Extensions() []string { return []string{".sh", ""} }

func (scriptBackend) InlineKeys() []string { return []string{"script"} }

func (scriptBackend) Run(_ context.Context, run *Runner, spec *Spec, opts Options) (*Outcome, error) {
	target := spec.Path
	if spec.Inline() {
		tmp, cleanup, err := writeInlineScript(spec.Body())
		if err != nil {
			return nil, err
		}
		defer cleanup()
		target = tmp
	}

	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotExecutable, spec.Path)
	}

	// Executables run directly; anything else goes through the shell.
	var argv []string
	if info.Mode().Perm()&0o111 != 0 {
		argv = append([]string{target}, opts.Args...)
	} else {
		argv = append([]string{"/bin/sh", target}, opts.Args...)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = spec.Cwd
	cmd.Stdin = strings.NewReader(opts.Message)
	cmd.Env = append(append([]string{}, run.environ...), scriptEnv(opts.Params)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	run.log.Debug().Strs("argv", argv).Str("dir", spec.Cwd).Msg("run script")
	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return nil, &ExitError{
				Path:   spec.Path,
				Code:   exit.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("command: %s: %w", spec.Path, err)
	}

	text := stdout.String()
	return &Outcome{Result: text, Text: text}, nil
}

func scriptEnv(params map[string]any) []string {
	env := make([]string, 0, len(params))
	for k, v := range params {
		env = append(env, fmt.Sprintf("%s=%v", k, v))
	}
	return env
}

func writeInlineScript(body string) (string, func(), error) {
	file, err := os.CreateTemp("", "steward-script-*.sh")
	if err != nil {
		return "", nil, fmt.Errorf("command: inline script: %w", err)
	}
	if _, err := file.WriteString(body); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("command: write inline script: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("command: close inline script: %w", err)
	}
	return file.Name(), func() { os.Remove(file.Name()) }, nil
}
