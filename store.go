package indigo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Common errors.
var (
	// ErrUnknownField is returned when no accessor exists for a field type:
	// it was not declared with WithField and the state is not Extensible.
	ErrUnknownField = errors.New("indigo: unknown field")
)

// Store owns a state value and mutates it only through registered reducers.
//
// A Store is not safe for concurrent use. Applications sharing one across
// goroutines must serialize access themselves, for example behind a
// sync.Mutex held around Dispatch.
type Store[S any] struct {
	id        string
	state     S
	fields    map[reflect.Type]any
	reducers  reducerRegistry[S]
	listeners listenerRegistry
	logger    Logger
}

// options holds configuration for a Store.
type options struct {
	id     string
	logger Logger
	fields []fieldBinding
}

// Option configures a Store.
type Option func(*options)

// WithField declares how field T is found in state S. Declaring the same
// field type twice keeps the last declaration.
func WithField[S, T any](field Field[S, T]) Option {
	return func(o *options) {
		o.fields = append(o.fields, fieldBinding{
			state: reflect.TypeFor[S](),
			field: reflect.TypeFor[T](),
			impl:  field,
		})
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithID overrides the generated store id used in log records.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// New creates a Store that takes ownership of state.
//
// New panics if a field passed to WithField was declared for a state type
// other than S.
func New[S any](state S, opts ...Option) *Store[S] {
	o := options{logger: NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.logger == nil {
		o.logger = NopLogger{}
	}

	s := &Store[S]{
		id:     o.id,
		state:  state,
		fields: make(map[reflect.Type]any, len(o.fields)),
		logger: o.logger,
	}

	want := reflect.TypeFor[S]()
	for _, b := range o.fields {
		if b.state != want {
			panic(fmt.Sprintf("indigo: field %s declared for state %s, store holds %s", b.field, b.state, want))
		}
		s.fields[b.field] = b.impl
	}

	return s
}

// ID returns the store's id.
func (s *Store[S]) ID() string {
	return s.id
}

// State returns the owned state. Changes made through it bypass reducers and
// listeners.
func (s *Store[S]) State() *S {
	return &s.state
}

// Reducers returns the number of registered reducers.
func (s *Store[S]) Reducers() int {
	return s.reducers.count
}

// Listeners returns the number of registered listeners.
func (s *Store[S]) Listeners() int {
	return s.listeners.count
}

// Outcome summarizes a Dispatch call.
type Outcome struct {
	// Action is the dynamic type of the dispatched action.
	Action reflect.Type

	// Matched counts reducers registered for Action.
	Matched int

	// Applied counts reducers whose field resolved and ran.
	Applied int

	// Notified counts listener invocations.
	Notified int

	// Skipped holds one field resolution error per reducer that did not run.
	Skipped []error
}

// Dispatch runs every reducer registered for the action's exact type, in
// registration order. A reducer whose field cannot be resolved is skipped and
// the rest still run. After each successful reducer, listeners for its field
// type are called with the new value. Dispatch returns when all of them have
// finished; a nil action matches nothing.
func (s *Store[S]) Dispatch(ctx context.Context, action any) Outcome {
	var out Outcome
	if action == nil {
		return out
	}

	out.Action = reflect.TypeOf(action)
	reducers := s.reducers.forAction(out.Action)
	out.Matched = len(reducers)

	s.logger.Debug(ctx, "dispatch starting",
		"store", s.id,
		"action", out.Action.String(),
		"reducers", out.Matched)

	for _, r := range reducers {
		value, err := r.apply(s, action)
		if err != nil {
			err = fmt.Errorf("reducer on %s: %w", r.field, err)
			out.Skipped = append(out.Skipped, err)

			s.logger.Debug(ctx, "reducer skipped",
				"store", s.id,
				"action", out.Action.String(),
				"field", r.field.String(),
				"error", err)
			continue
		}

		out.Applied++
		out.Notified += s.listeners.notify(r.field, value)
	}

	s.logger.Debug(ctx, "dispatch completed",
		"store", s.id,
		"action", out.Action.String(),
		"applied", out.Applied,
		"skipped", len(out.Skipped),
		"notified", out.Notified)

	return out
}
