// Package script builds indigo reducers and listeners from Lua source.
//
// Field values and actions cross into Lua in their JSON shape: structs and
// maps become tables, numbers become Lua numbers. A reducer script defines
// a global reduce function that returns the new field value:
//
//	function reduce(state, action)
//	    if action == 1 then
//	        return state + 1
//	    end
//	    return state
//	end
//
// A listener script defines a global listen function:
//
//	function listen(value)
//	    print("count is", value)
//	end
//
// Each call runs in a fresh sandboxed Lua state, so scripts cannot keep
// state between dispatches.
//
// Lua numbers are float64. Integers survive a round trip through a script
// only up to 2^53 in magnitude; larger int64 or uint64 values lose their low
// bits. Keep such values in strings if a script must carry them.
package script

import (
	"errors"
	"fmt"
	"io"

	"github.com/Shopify/go-lua"
)

var (
	// ErrMissingFunction is returned when a script does not define the
	// function its role requires.
	ErrMissingFunction = errors.New("script: required function not found")

	// ErrSyntax is returned when a script fails to compile.
	ErrSyntax = errors.New("script: syntax error")
)

const (
	reduceFunc = "reduce"
	listenFunc = "listen"
)

type options struct {
	name    string
	onError func(error)
	output  io.Writer
}

// Option configures a scripted reducer or listener.
type Option func(*options)

// WithName labels the script in error messages.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithErrorHandler receives runtime script errors. Reducers and listeners
// cannot fail a dispatch, so without a handler such errors are dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithOutput enables print inside the script, writing to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

func newOptions(opts []Option) options {
	o := options{name: "script", onError: func(error) {}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Validate checks that source compiles and defines the global function fn.
func Validate(source, fn string) error {
	l := newSandbox(nil)

	if err := lua.LoadString(l, source); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	l.Pop(1)

	if err := lua.DoString(l, source); err != nil {
		return fmt.Errorf("script execution failed: %w", err)
	}

	l.Global(fn)
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeFunction {
		return fmt.Errorf("%w: %s", ErrMissingFunction, fn)
	}
	return nil
}

// Reducer compiles a script into a reducer for field T and action A. The
// script's reduce(state, action) result replaces the field; returning nil
// leaves it unchanged. When the script fails at runtime or its result does
// not decode into T, the field is left unchanged and the error goes to the
// error handler.
func Reducer[T, A any](source string, opts ...Option) (func(state *T, action A), error) {
	o := newOptions(opts)
	if err := Validate(source, reduceFunc); err != nil {
		return nil, fmt.Errorf("%s: %w", o.name, err)
	}

	return func(state *T, action A) {
		shape, err := toGeneric(*state)
		if err != nil {
			o.onError(fmt.Errorf("%s: encode state: %w", o.name, err))
			return
		}

		result, err := call(source, reduceFunc, o.output, shape, action)
		if err != nil {
			o.onError(fmt.Errorf("%s: %w", o.name, err))
			return
		}
		if result == nil {
			return
		}

		next, err := fromGeneric[T](reshape(result, shape))
		if err != nil {
			o.onError(fmt.Errorf("%s: decode result: %w", o.name, err))
			return
		}
		*state = next
	}, nil
}

// Listener compiles a script into a listener for field T.
func Listener[T any](source string, opts ...Option) (func(value T), error) {
	o := newOptions(opts)
	if err := Validate(source, listenFunc); err != nil {
		return nil, fmt.Errorf("%s: %w", o.name, err)
	}

	return func(value T) {
		if _, err := call(source, listenFunc, o.output, value); err != nil {
			o.onError(fmt.Errorf("%s: %w", o.name, err))
		}
	}, nil
}

// call runs source in a fresh sandbox and invokes the global fn with args.
func call(source, fn string, output io.Writer, args ...any) (any, error) {
	l := newSandbox(output)

	if err := lua.DoString(l, source); err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}

	l.Global(fn)
	for _, arg := range args {
		generic, err := toGeneric(arg)
		if err != nil {
			return nil, fmt.Errorf("encode argument: %w", err)
		}
		pushValue(l, generic)
	}

	if err := l.ProtectedCall(len(args), 1, 0); err != nil {
		return nil, fmt.Errorf("%s error: %w", fn, err)
	}

	result := pullValue(l, -1)
	l.Pop(1)
	return result, nil
}
