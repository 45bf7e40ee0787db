package indigo

import "reflect"

// listenerRegistry holds listeners keyed by field type, in registration order.
type listenerRegistry struct {
	byField map[reflect.Type][]func(value any)
	count   int
}

func (r *listenerRegistry) add(field reflect.Type, fn func(value any)) {
	if r.byField == nil {
		r.byField = make(map[reflect.Type][]func(value any))
	}
	r.byField[field] = append(r.byField[field], fn)
	r.count++
}

// notify calls every listener for field with value and returns how many ran.
func (r *listenerRegistry) notify(field reflect.Type, value any) int {
	listeners := r.byField[field]
	for _, fn := range listeners {
		fn(value)
	}
	return len(listeners)
}

// AddListener registers fn to observe field T. It runs after every reducer
// that successfully mutates T during Dispatch, with the new value.
func AddListener[S, T any](s *Store[S], fn func(value T)) {
	s.listeners.add(reflect.TypeFor[T](), func(value any) {
		// comma-ok keeps a nil interface-typed field from panicking
		v, _ := value.(T)
		fn(v)
	})
}
