package command

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Shape and lookup problems wrap the matching sentinel so
// callers can branch with errors.Is; data-carrying failures use the typed
// errors below and still answer Is against their sentinel.
var (
	// ErrMalformedEntry: a declarative entry with the wrong shape.
	ErrMalformedEntry = errors.New("command: malformed entry")
	// ErrMissingReference: no resolution rule produced an existing file.
	ErrMissingReference = errors.New("command: missing reference")
	// ErrUnknownKind: the node's suffix maps to no registered backend.
	ErrUnknownKind = errors.New("command: unknown command kind")
	// ErrCyclicInvocation: a name re-entered the active call stack.
	ErrCyclicInvocation = errors.New("command: cyclic invocation")
	// ErrEngineFailure: the reasoning engine call or body rendering failed.
	ErrEngineFailure = errors.New("command: engine execution failed")
	// ErrNativeContract: a native command file broke the entry contract.
	ErrNativeContract = errors.New("command: native function contract violation")
	// ErrScriptFailure: a subprocess exited non-zero.
	ErrScriptFailure = errors.New("command: subprocess failed")
	// ErrScriptNotExecutable: the subprocess target is missing or not runnable.
	ErrScriptNotExecutable = errors.New("command: subprocess not executable")
)

// CycleError reports the full in-flight chain, ending with the name that
// re-entered it.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("command: cyclic invocation detected: %s", strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicInvocation
}

// ExitError reports a subprocess that ran but exited non-zero.
type ExitError struct {
	Path   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command: subprocess %s exited with code %d", e.Path, e.Code)
	}
	return fmt.Sprintf("command: subprocess %s exited with code %d: %s", e.Path, e.Code, e.Stderr)
}

func (e *ExitError) Is(target error) bool {
	return target == ErrScriptFailure
}
