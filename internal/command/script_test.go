package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScriptStdoutByteForByte(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "emit.sh"), `printf 'a\nb\n'`)

	_, runner := newTestRun(t, dir)
	message, err := runner.Run(context.Background(), "emit.sh", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if message != "a\nb\n" {
		t.Fatalf("stdout was altered: %q", message)
	}
}

func TestScriptParamsBecomeEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "emit.sh"), `printf '%s' "$GREETING"`)

	_, runner := newTestRun(t, dir)
	message, err := runner.Run(context.Background(), "emit.sh", []string{"GREETING=hello"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if message != "hello" {
		t.Fatalf("param not exported to environment: %q", message)
	}
}

func TestScriptStdinAndArgs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "emit.sh"), `printf '<%s>%s-%s:%s' "$(cat)" "$1" "$2" "$arg1"`)

	_, runner := newTestRun(t, dir)
	message, err := runner.Run(context.Background(), "emit.sh", []string{"x", "y"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if message != "<ping>x-y:x" {
		t.Fatalf("unexpected output %q", message)
	}
}

func TestScriptExitCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fail.sh"), "echo 'boom' >&2\nexit 3\n")

	_, runner := newTestRun(t, dir)
	_, err := runner.Run(context.Background(), "fail.sh", nil)
	if !errors.Is(err, ErrScriptFailure) {
		t.Fatalf("expected script failure, got %v", err)
	}
	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exit.Code != 3 || exit.Stderr != "boom" {
		t.Fatalf("unexpected exit detail %+v", exit)
	}
}

func TestScriptExecutableRunsDirectly(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "direct")
	writeFile(t, target, "#!/bin/sh\nprintf 'direct'\n")
	if err := os.Chmod(target, 0755); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	_, runner := newTestRun(t, dir)
	message, err := runner.Run(context.Background(), "direct", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if message != "direct" {
		t.Fatalf("unexpected output %q", message)
	}
}

func TestScriptNotExecutable(t *testing.T) {
	dir := t.TempDir()
	_, runner := newTestRun(t, dir)

	spec := &Spec{Name: "bad", Path: dir, Kind: KindScript, Cwd: dir}
	_, err := (scriptBackend{}).Run(context.Background(), runner, spec, Options{})
	if !errors.Is(err, ErrScriptNotExecutable) {
		t.Fatalf("expected not-executable error, got %v", err)
	}
}

func TestScriptInlineBody(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "container.yaml"), `commands:
  - {script: "printf 'inline-ok'"}
`)

	_, runner := newTestRun(t, dir)
	message, err := runner.Run(context.Background(), "container.yaml", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if message != "inline-ok" {
		t.Fatalf("unexpected output %q", message)
	}
}
