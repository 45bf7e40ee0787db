// Package typemap provides a heterogeneous container that holds at most one
// value per distinct Go type.
//
// Values are looked up by their type rather than by a key:
//
//	m := typemap.MustNew(Count(0), Theme("dark"))
//
//	count, err := typemap.GetMut[Count](m)
//	if err != nil {
//	    return err
//	}
//	*count++
//
// A TypeMap is not safe for concurrent use.
package typemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	// ErrNotFound is returned when no value of the requested type is stored.
	ErrNotFound = errors.New("typemap: type not found")

	// ErrDuplicateType is returned when New receives two values of the same type.
	ErrDuplicateType = errors.New("typemap: duplicate type")

	// ErrNilValue is returned when New receives an untyped nil.
	ErrNilValue = errors.New("typemap: nil value")

	// ErrKeyCollision is returned by MarshalJSON when two stored types have
	// the same name.
	ErrKeyCollision = errors.New("typemap: duplicate type name")
)

// NotFoundError reports the type that was missing from a TypeMap.
type NotFoundError struct {
	Type reflect.Type
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNotFound, e.Type)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TypeMap stores one boxed value per type. The zero value is an empty map
// ready for use.
type TypeMap struct {
	// entries maps T to a *T.
	entries map[reflect.Type]any
}

// New builds a TypeMap from a set of values of distinct types. Each value is
// keyed by its dynamic type. Passing two values of the same type fails with
// ErrDuplicateType instead of silently dropping one.
func New(values ...any) (*TypeMap, error) {
	m := &TypeMap{entries: make(map[reflect.Type]any, len(values))}

	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("value %d: %w", i, ErrNilValue)
		}

		t := reflect.TypeOf(v)
		if _, exists := m.entries[t]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateType, t)
		}

		box := reflect.New(t)
		box.Elem().Set(reflect.ValueOf(v))
		m.entries[t] = box.Interface()
	}

	return m, nil
}

// MustNew is like New but panics on error. It is meant for package-level
// state literals where a duplicate type is a programming error.
func MustNew(values ...any) *TypeMap {
	m, err := New(values...)
	if err != nil {
		panic(err)
	}
	return m
}

// Insert stores v under its type T, replacing any existing T.
func Insert[T any](m *TypeMap, v T) {
	if m.entries == nil {
		m.entries = make(map[reflect.Type]any)
	}

	box := new(T)
	*box = v
	m.entries[reflect.TypeFor[T]()] = box
}

// Get returns a copy of the stored T.
func Get[T any](m *TypeMap) (T, error) {
	ptr, err := GetMut[T](m)
	if err != nil {
		var zero T
		return zero, err
	}
	return *ptr, nil
}

// GetMut returns a pointer to the stored T. Writes through the pointer are
// visible to later lookups.
func GetMut[T any](m *TypeMap) (*T, error) {
	t := reflect.TypeFor[T]()
	if m == nil {
		return nil, &NotFoundError{Type: t}
	}

	boxed, ok := m.entries[t]
	if !ok {
		return nil, &NotFoundError{Type: t}
	}

	// Boxes are only created as *T for key T.
	return boxed.(*T), nil
}

// Remove deletes the stored T and reports whether it was present.
func Remove[T any](m *TypeMap) bool {
	if m == nil {
		return false
	}
	t := reflect.TypeFor[T]()
	if _, ok := m.entries[t]; !ok {
		return false
	}
	delete(m.entries, t)
	return true
}

// Contains reports whether a T is stored.
func Contains[T any](m *TypeMap) bool {
	if m == nil {
		return false
	}
	_, ok := m.entries[reflect.TypeFor[T]()]
	return ok
}

// Len returns the number of stored types.
func (m *TypeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Types returns the stored types ordered by their string form.
func (m *TypeMap) Types() []reflect.Type {
	if m == nil {
		return nil
	}
	types := make([]reflect.Type, 0, len(m.entries))
	for t := range m.entries {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})

	return types
}

// Each calls fn with every stored type and its current value, in Types order.
func (m *TypeMap) Each(fn func(t reflect.Type, value any)) {
	for _, t := range m.Types() {
		fn(t, reflect.ValueOf(m.entries[t]).Elem().Interface())
	}
}

// MarshalJSON encodes the map as an object keyed by type name. It has a value
// receiver so maps embedded by value in a state struct encode the same way.
//
// Type names carry the package name, not the import path, so two distinct
// types can share a key. Encoding fails with ErrKeyCollision rather than
// dropping one of them.
func (m TypeMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.entries))
	owners := make(map[string]reflect.Type, len(m.entries))

	var err error
	m.Each(func(t reflect.Type, value any) {
		key := t.String()
		if prev, ok := owners[key]; ok {
			if err == nil {
				err = fmt.Errorf("%w: %q names %s and %s", ErrKeyCollision, key, typeID(prev), typeID(t))
			}
			return
		}
		owners[key] = t
		out[key] = value
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// typeID is the import-path qualified name of t, or its string form for
// unnamed types.
func typeID(t reflect.Type) string {
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
