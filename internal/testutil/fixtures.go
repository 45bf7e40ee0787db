package testutil

import (
	"github.com/agentstation/indigo"
	"github.com/agentstation/indigo/typemap"
)

// Name is a direct field of State.
type Name string

// Count is an extension field of State.
type Count int

// Label is a field type that State never stores.
type Label string

// State has one direct member and an extension map.
type State struct {
	Name   Name
	Extras typemap.TypeMap
}

// CountAction changes Count.
type CountAction int

const (
	Incremented CountAction = iota + 1
	Decremented
)

// NameAction renames or clears Name.
type NameAction struct {
	Clear bool
	Name  string
}

// Renamed returns a NameAction that sets Name.
func Renamed(name string) NameAction {
	return NameAction{Name: name}
}

// Cleared returns a NameAction that empties Name.
func Cleared() NameAction {
	return NameAction{Clear: true}
}

// CountReducer applies a CountAction.
func CountReducer(c *Count, a CountAction) {
	switch a {
	case Incremented:
		*c++
	case Decremented:
		*c--
	}
}

// NameReducer applies a NameAction.
func NameReducer(n *Name, a NameAction) {
	if a.Clear {
		*n = ""
		return
	}
	*n = Name(a.Name)
}

// NameField declares State.Name.
func NameField() indigo.Field[State, Name] {
	return indigo.Direct(func(s *State) *Name { return &s.Name })
}

// CountField declares Count inside State.Extras.
func CountField() indigo.Field[State, Count] {
	return indigo.Extension[State, Count](func(s *State) *typemap.TypeMap { return &s.Extras })
}

// LabelField declares Label inside State.Extras. Stores built by NewStore
// never hold a Label, so it always fails to resolve.
func LabelField() indigo.Field[State, Label] {
	return indigo.Extension[State, Label](func(s *State) *typemap.TypeMap { return &s.Extras })
}

// NewStore builds a store over State with Name, Count and Label declared.
// The extension map holds extras, typically a Count.
func NewStore(name string, extras []any, opts ...indigo.Option) *indigo.Store[State] {
	state := State{
		Name:   Name(name),
		Extras: *typemap.MustNew(extras...),
	}

	opts = append([]indigo.Option{
		indigo.WithField(NameField()),
		indigo.WithField(CountField()),
		indigo.WithField(LabelField()),
	}, opts...)

	return indigo.New(state, opts...)
}
