package indigo

import "reflect"

// reducerEntry is a reducer with its field and action types erased.
type reducerEntry[S any] struct {
	field reflect.Type

	// apply mutates the field for action and returns the field's value after
	// the mutation.
	apply func(s *Store[S], action any) (any, error)
}

// reducerRegistry holds reducers keyed by action type, in registration order.
type reducerRegistry[S any] struct {
	byAction map[reflect.Type][]reducerEntry[S]
	count    int
}

func (r *reducerRegistry[S]) add(action reflect.Type, entry reducerEntry[S]) {
	if r.byAction == nil {
		r.byAction = make(map[reflect.Type][]reducerEntry[S])
	}
	r.byAction[action] = append(r.byAction[action], entry)
	r.count++
}

func (r *reducerRegistry[S]) forAction(action reflect.Type) []reducerEntry[S] {
	return r.byAction[action]
}

// AddReducer registers fn to run whenever an action of type A is dispatched.
// fn receives a pointer to field T of the state and mutates it in place.
//
// A must be a concrete type: Dispatch matches on the action's dynamic type
// exactly, so a reducer declared for an interface type never runs.
func AddReducer[S, T, A any](s *Store[S], fn func(state *T, action A)) {
	s.reducers.add(reflect.TypeFor[A](), reducerEntry[S]{
		field: reflect.TypeFor[T](),
		apply: func(s *Store[S], action any) (any, error) {
			ptr, err := GetMut[T](s)
			if err != nil {
				return nil, err
			}

			fn(ptr, action.(A))

			value, err := Get[T](s)
			if err != nil {
				return nil, err
			}
			return value, nil
		},
	})
}
