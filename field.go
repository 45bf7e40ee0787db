package indigo

import (
	"fmt"
	"reflect"

	"github.com/agentstation/indigo/typemap"
)

// Field exposes a T-typed part of a state value S for reading and for
// mutation. Each implementation decides how access can fail: Direct fields
// never fail, Extension fields fail with typemap.ErrNotFound when the entry
// is absent.
//
// An implementation must always resolve T to the same storage location for
// the life of a given state value.
type Field[S, T any] interface {
	// Get returns the current value of the field.
	Get(state *S) (T, error)

	// GetMut returns a pointer to the field for in-place mutation.
	GetMut(state *S) (*T, error)
}

// Extensible is implemented by state types that carry an extension map.
// Field types not declared with WithField are looked up in it.
type Extensible interface {
	Extensions() *typemap.TypeMap
}

// Direct declares a field that is a member of the state struct.
//
//	indigo.Direct(func(s *State) *Name { return &s.Name })
func Direct[S, T any](fn func(state *S) *T) Field[S, T] {
	return directField[S, T]{member: fn}
}

// Extension declares a field that lives in a TypeMap owned by the state.
//
//	indigo.Extension[State, Count](func(s *State) *typemap.TypeMap { return &s.Extras })
func Extension[S, T any](fn func(state *S) *typemap.TypeMap) Field[S, T] {
	return extensionField[S, T]{extensions: fn}
}

type directField[S, T any] struct {
	member func(*S) *T
}

func (f directField[S, T]) Get(state *S) (T, error) {
	return *f.member(state), nil
}

func (f directField[S, T]) GetMut(state *S) (*T, error) {
	return f.member(state), nil
}

type extensionField[S, T any] struct {
	extensions func(*S) *typemap.TypeMap
}

func (f extensionField[S, T]) Get(state *S) (T, error) {
	return typemap.Get[T](f.extensions(state))
}

func (f extensionField[S, T]) GetMut(state *S) (*T, error) {
	return typemap.GetMut[T](f.extensions(state))
}

// fieldBinding is a Field with its type parameters erased so it can travel
// through a non-generic Option.
type fieldBinding struct {
	state reflect.Type
	field reflect.Type
	impl  any
}

// Get reads field T of the store's state outside the dispatch flow.
func Get[T, S any](s *Store[S]) (T, error) {
	t := reflect.TypeFor[T]()

	if impl, ok := s.fields[t]; ok {
		return impl.(Field[S, T]).Get(&s.state)
	}
	if ext, ok := any(&s.state).(Extensible); ok {
		return typemap.Get[T](ext.Extensions())
	}

	var zero T
	return zero, fmt.Errorf("%w: %s", ErrUnknownField, t)
}

// GetMut returns a pointer to field T of the store's state. Writes through it
// do not notify listeners; use Dispatch for observable changes.
func GetMut[T, S any](s *Store[S]) (*T, error) {
	t := reflect.TypeFor[T]()

	if impl, ok := s.fields[t]; ok {
		return impl.(Field[S, T]).GetMut(&s.state)
	}
	if ext, ok := any(&s.state).(Extensible); ok {
		return typemap.GetMut[T](ext.Extensions())
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownField, t)
}
