/*
Package indigo provides a typed application-state store built on the
reducer/listener pattern.

A state value is owned by a Store. Some of its fields are ordinary struct
members; others live in a typemap.TypeMap so they can be attached without
changing the state's definition. Code reaches either kind through a Field.

Key features:
  - One mutation entry point: Dispatch
  - Reducers routed by field type and action type, checked at compile time
  - Per-field listeners notified after each successful reducer
  - Missing extension fields skip a reducer instead of failing the dispatch

Basic usage:

	type State struct {
	    Name   Name
	    Extras typemap.TypeMap
	}

	store := indigo.New(State{Name: "Alice", Extras: *typemap.MustNew(Count(0))},
	    indigo.WithField(indigo.Direct(func(s *State) *Name { return &s.Name })),
	    indigo.WithField(indigo.Extension[State, Count](func(s *State) *typemap.TypeMap {
	        return &s.Extras
	    })),
	)

	indigo.AddReducer(store, func(c *Count, a CountAction) {
	    if a == Incremented {
	        *c++
	    }
	})
	indigo.AddListener(store, func(c Count) {
	    fmt.Println("count is now", c)
	})

	store.Dispatch(ctx, Incremented)

Direct access:

Get and GetMut read and write a field outside the action pipeline, for setup
code and tests. Writes made through GetMut do not notify listeners.

	count, err := indigo.Get[Count](store)
	if errors.Is(err, typemap.ErrNotFound) {
	    // the extension field is absent
	}

Extensible states:

A state whose pointer implements Extensible resolves every undeclared field
type through its extension map, so only direct members need WithField.
*/
package indigo
