package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/agentstation/indigo"
	"github.com/agentstation/indigo/batch"
	"github.com/agentstation/indigo/inspect"
	"github.com/agentstation/indigo/script"
	"github.com/agentstation/indigo/typemap"
)

// ErrExpectationFailed is returned by Report.Err when an expectation does not
// hold.
var ErrExpectationFailed = errors.New("scenario: expectation failed")

// Name is the demo store's direct field.
type Name string

// Count is the demo store's extension field.
type Count int

// State is the demo store's state.
type State struct {
	Name   Name            `json:"name"`
	Extras typemap.TypeMap `json:"extras"`
}

// CountAction changes Count. Scripts see it as 1 for increment and 2 for
// decrement.
type CountAction int

const (
	Increment CountAction = iota + 1
	Decrement
)

// NameAction renames or clears Name.
type NameAction struct {
	Clear bool   `json:"clear"`
	Name  string `json:"name"`
}

func reduceCount(c *Count, a CountAction) {
	switch a {
	case Increment:
		*c++
	case Decrement:
		*c--
	}
}

func reduceName(n *Name, a NameAction) {
	if a.Clear {
		*n = ""
		return
	}
	*n = Name(a.Name)
}

// Report is the outcome of a scenario run. Expectation paths are evaluated
// against its JSON shape, so $.count and $.name address the final values.
type Report struct {
	Scenario   string   `json:"scenario" yaml:"scenario"`
	Store      string   `json:"store" yaml:"store"`
	Name       string   `json:"name" yaml:"name"`
	Count      int      `json:"count" yaml:"count"`
	History    []int    `json:"history" yaml:"history"`
	Dispatched int      `json:"dispatched" yaml:"dispatched"`
	Applied    int      `json:"applied" yaml:"applied"`
	Notified   int      `json:"notified" yaml:"notified"`
	Skipped    []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failures   []string `json:"failures,omitempty" yaml:"failures,omitempty"`
	ScriptErrs []string `json:"script_errors,omitempty" yaml:"script_errors,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

// Err returns ErrExpectationFailed with the failures when the run did not
// pass.
func (r *Report) Err() error {
	if r.Passed() {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrExpectationFailed, r.Scenario, strings.Join(r.Failures, "; "))
}

type options struct {
	logger indigo.Logger
	output io.Writer
}

// Option configures a scenario run.
type Option func(*options)

// WithLogger sets the store logger.
func WithLogger(logger indigo.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScriptOutput enables print in the scenario script.
func WithScriptOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// NewStore builds the demo store for def without dispatching anything.
func NewStore(def *Definition, opts ...Option) (*indigo.Store[State], *Report, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	extras, err := typemap.New(Count(def.State.Count))
	if err != nil {
		return nil, nil, err
	}

	storeOpts := []indigo.Option{
		indigo.WithField(indigo.Direct(func(s *State) *Name { return &s.Name })),
		indigo.WithField(indigo.Extension[State, Count](func(s *State) *typemap.TypeMap { return &s.Extras })),
	}
	if o.logger != nil {
		storeOpts = append(storeOpts, indigo.WithLogger(o.logger))
	}

	store := indigo.New(State{Name: Name(def.State.Name), Extras: *extras}, storeOpts...)
	report := &Report{Scenario: def.Name, Store: store.ID()}

	if def.Script != "" {
		reducer, err := script.Reducer[Count, CountAction](def.Script,
			script.WithName(def.Name),
			script.WithOutput(o.output),
			script.WithErrorHandler(func(err error) {
				report.ScriptErrs = append(report.ScriptErrs, err.Error())
			}),
		)
		if err != nil {
			return nil, nil, err
		}
		indigo.AddReducer(store, reducer)
	} else {
		indigo.AddReducer(store, reduceCount)
	}
	indigo.AddReducer(store, reduceName)

	indigo.AddListener(store, func(c Count) {
		report.History = append(report.History, int(c))
	})

	return store, report, nil
}

// StoreActions converts the definition's actions into store actions.
func (d *Definition) StoreActions() []any {
	actions := make([]any, 0, len(d.Actions))
	for _, a := range d.Actions {
		switch a.Type {
		case CountIncrement:
			actions = append(actions, Increment)
		case CountDecrement:
			actions = append(actions, Decrement)
		case NameRename:
			actions = append(actions, NameAction{Name: a.Value})
		case NameClear:
			actions = append(actions, NameAction{Clear: true})
		}
	}
	return actions
}

// Run replays def against a fresh demo store and checks its expectations.
// The returned error covers setup failures only; failed expectations are
// recorded in the report.
func Run(ctx context.Context, def *Definition, opts ...Option) (*Report, error) {
	store, report, err := NewStore(def, opts...)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	summaries, err := batch.Replay(ctx, []batch.Dispatcher{store}, def.StoreActions(), batch.WithConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	sum := summaries[0]
	report.Dispatched = sum.Dispatched
	report.Applied = sum.Applied
	report.Notified = sum.Notified
	for _, err := range sum.Skipped {
		report.Skipped = append(report.Skipped, err.Error())
	}

	name, err := indigo.Get[Name](store)
	if err != nil {
		return nil, err
	}
	count, err := indigo.Get[Count](store)
	if err != nil {
		return nil, err
	}
	report.Name = string(name)
	report.Count = int(count)

	for _, e := range def.Expect {
		if msg := check(report, e); msg != "" {
			report.Failures = append(report.Failures, msg)
		}
	}

	return report, nil
}

// check evaluates e against report and returns a failure message, or "" if
// it holds. A single match is compared directly; several matches are
// compared as a list.
func check(report *Report, e Expectation) string {
	got, err := inspect.Query(report, e.Path)
	if err != nil {
		return err.Error()
	}
	if len(got) == 0 {
		return fmt.Sprintf("%s: no match", e.Path)
	}

	want, err := inspect.Snapshot(e.Equals)
	if err != nil {
		return fmt.Sprintf("%s: %v", e.Path, err)
	}

	var actual any = got
	if len(got) == 1 {
		actual = got[0]
	}
	if !reflect.DeepEqual(normalize(actual), normalize(want)) {
		return fmt.Sprintf("%s: got %v, want %v", e.Path, actual, want)
	}
	return ""
}

// normalize routes a value through a snapshot so both sides of a
// comparison use the same number and container types.
func normalize(v any) any {
	snap, err := inspect.Snapshot(v)
	if err != nil {
		return v
	}
	return snap
}
