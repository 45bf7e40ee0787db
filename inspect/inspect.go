// Package inspect reads indigo state from the outside: JSON snapshots,
// JSONPath queries and JSON Schema checks.
//
// Every function works on the JSON shape of its argument, so it accepts a
// plain state struct, a *typemap.TypeMap, or a store's State().
package inspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidPath is returned when a JSONPath expression does not parse.
var ErrInvalidPath = errors.New("inspect: invalid JSONPath expression")

// Failure is one schema violation.
type Failure struct {
	Field       string
	Type        string
	Description string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Description)
}

// ValidationError reports every schema violation in a snapshot.
type ValidationError struct {
	Failures []Failure
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return "state validation failed: " + strings.Join(parts, "; ")
}

// Snapshot returns the JSON shape of v: maps, slices, int64, float64,
// string, bool and nil.
func Snapshot(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	snap, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}

// Query evaluates a JSONPath expression against the snapshot of v. No
// match yields an empty result, not an error.
func Query(v any, path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
	}

	snap, err := Snapshot(v)
	if err != nil {
		return nil, err
	}
	return expr.Get(snap), nil
}

// Validate checks the snapshot of v against a JSON Schema document. A
// snapshot that does not conform yields a *ValidationError.
func Validate(v any, schema []byte) error {
	snap, err := Snapshot(v)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewGoLoader(snap),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, re := range result.Errors() {
		verr.Failures = append(verr.Failures, Failure{
			Field:       re.Field(),
			Type:        re.Type(),
			Description: re.Description(),
		})
	}
	return verr
}
