package command

import (
	"context"
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const nativeEntryName = "Main"

// Call is the handle passed to interpreted entry functions. Interpreted
// files import it as `steward` and receive it as the first parameter of
// Main; named params ride here since interpreted Go has no keyword
// arguments.
type Call struct {
	// Message is the piped text the node received on stdin.
	Message string
	// Args are the node's resolved positional arguments.
	Args []string
	// Params are the node's merged, placeholder-resolved params.
	Params map[string]any
	// State is a snapshot of the run's shared state.
	State map[string]any

	invoke func(name string, args []any, params map[string]any) (any, error)
}

// Invoke runs another command by name as a child of the run's root and
// returns its raw result.
func (c *Call) Invoke(name string, args []any, params map[string]any) (any, error) {
	if c.invoke == nil {
		return nil, fmt.Errorf("command: invoke is not bound")
	}
	return c.invoke(name, args, params)
}

// Symbols exposes the handle types to interpreted command files.
var Symbols = interp.Exports{
	"steward/steward": {
		"Call": reflect.ValueOf((*Call)(nil)),
	},
}

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// nativeBackend interprets a Go source file and calls its Main function.
// Entry shapes: Main(), Main(*steward.Call) or Main(*steward.Call, ...T),
// returning nothing, a value, an error, or a value and an error.
type nativeBackend struct{}

func (nativeBackend) Kind() Kind { return KindNative }

func (nativeBackend) Extensions() []string { return []string{".go"} }

func (nativeBackend) InlineKeys() []string { return nil }

func (nativeBackend) Run(ctx context.Context, run *Runner, spec *Spec, opts Options) (*Outcome, error) {
	fn, err := loadNativeEntry(spec.Path)
	if err != nil {
		return nil, err
	}

	call := &Call{
		Message: opts.Message,
		Args:    append([]string{}, opts.Args...),
		Params:  opts.Params,
		State:   run.rc.State(),
		invoke:  run.rc.Invoke,
	}
	in, err := nativeCallArgs(fn.Type(), call, opts.Args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNativeContract, spec.Path, err)
	}

	results := fn.Call(in)
	value, callErr, err := nativeReturn(results)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNativeContract, spec.Path, err)
	}
	if callErr != nil {
		return nil, fmt.Errorf("command: %s: %w", spec.Name, callErr)
	}
	if value == nil {
		return nil, nil
	}
	return &Outcome{Result: value}, nil
}

// loadNativeEntry interprets the file and extracts its Main function.
func loadNativeEntry(path string) (reflect.Value, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s: %w", ErrNativeContract, path, err)
	}
	if err := i.Use(Symbols); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s: %w", ErrNativeContract, path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: interpret %s: %w", ErrNativeContract, path, err)
	}
	fn, err := i.Eval(nativeEntryName)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s must define %s: %w", ErrNativeContract, path, nativeEntryName, err)
	}
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("%w: %s: %s is not a function", ErrNativeContract, path, nativeEntryName)
	}
	return fn, nil
}

// nativeCallArgs maps the call handle and positional args onto the entry
// signature.
func nativeCallArgs(fnType reflect.Type, call *Call, args []string) ([]reflect.Value, error) {
	switch {
	case fnType.NumIn() == 0:
		return nil, nil
	case fnType.NumIn() == 1 && !fnType.IsVariadic():
		if !reflect.TypeOf(call).AssignableTo(fnType.In(0)) {
			return nil, fmt.Errorf("%s must accept *steward.Call, got %s", nativeEntryName, fnType.In(0))
		}
		return []reflect.Value{reflect.ValueOf(call)}, nil
	case fnType.NumIn() == 2 && fnType.IsVariadic():
		if !reflect.TypeOf(call).AssignableTo(fnType.In(0)) {
			return nil, fmt.Errorf("%s must accept *steward.Call, got %s", nativeEntryName, fnType.In(0))
		}
		elem := fnType.In(1).Elem()
		in := make([]reflect.Value, 0, len(args)+1)
		in = append(in, reflect.ValueOf(call))
		for _, arg := range args {
			value := reflect.ValueOf(arg)
			if !value.Type().AssignableTo(elem) {
				return nil, fmt.Errorf("%s variadic args must accept string, got %s", nativeEntryName, elem)
			}
			in = append(in, value)
		}
		return in, nil
	default:
		return nil, fmt.Errorf("%s has unsupported signature %s", nativeEntryName, fnType)
	}
}

// nativeReturn validates the entry's return shape and splits it into a
// value and an error.
func nativeReturn(results []reflect.Value) (any, error, error) {
	switch len(results) {
	case 0:
		return nil, nil, nil
	case 1:
		if results[0].Type().Implements(errorInterface) {
			return nil, asError(results[0]), nil
		}
		return results[0].Interface(), nil, nil
	case 2:
		if !results[1].Type().Implements(errorInterface) {
			return nil, nil, fmt.Errorf("%s second return value must be error, got %s", nativeEntryName, results[1].Type())
		}
		return results[0].Interface(), asError(results[1]), nil
	default:
		return nil, nil, fmt.Errorf("%s must return at most two values, got %d", nativeEntryName, len(results))
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	err, _ := v.Interface().(error)
	return err
}
