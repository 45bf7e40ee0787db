// Package scenario loads action scripts from YAML and replays them against a
// demo store.
//
// A scenario file looks like:
//
//	name: rename-and-count
//	description: Alice becomes Bob
//	state:
//	  name: Alice
//	  count: 0
//	actions:
//	  - type: count.increment
//	  - type: name.rename
//	    value: Bob
//	expect:
//	  - path: $.name
//	    equals: Bob
//	  - path: $.count
//	    equals: 1
//
// The optional script key holds Lua source whose reduce function replaces
// the built-in count reducer.
package scenario

import (
	"fmt"
	"os"

	goyaml "github.com/goccy/go-yaml"

	"github.com/agentstation/indigo/script"
)

// Action types understood by the demo store.
const (
	CountIncrement = "count.increment"
	CountDecrement = "count.decrement"
	NameRename     = "name.rename"
	NameClear      = "name.clear"
)

// Definition is a parsed scenario file.
type Definition struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	State       StateDef      `yaml:"state" json:"state"`
	Actions     []ActionDef   `yaml:"actions" json:"actions"`
	Script      string        `yaml:"script,omitempty" json:"script,omitempty"`
	Expect      []Expectation `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// StateDef is the initial demo state.
type StateDef struct {
	Name  string `yaml:"name" json:"name"`
	Count int    `yaml:"count" json:"count"`
}

// ActionDef is one action to dispatch.
type ActionDef struct {
	Type  string `yaml:"type" json:"type"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Expectation checks a JSONPath query against the final report.
type Expectation struct {
	Path   string `yaml:"path" json:"path"`
	Equals any    `yaml:"equals" json:"equals"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-provided scenario file
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a scenario document, checks it against the document
// schema, and validates it.
func Parse(data []byte) (*Definition, error) {
	if err := checkDocument(data); err != nil {
		return nil, err
	}

	var def Definition
	if err := goyaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &def, nil
}

// Validate checks that the definition can be run.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(d.Actions) == 0 {
		return fmt.Errorf("at least one action is required")
	}

	for i, a := range d.Actions {
		switch a.Type {
		case CountIncrement, CountDecrement, NameClear:
		case NameRename:
			if a.Value == "" {
				return fmt.Errorf("action %d: %s requires a value", i, a.Type)
			}
		case "":
			return fmt.Errorf("action %d: type is required", i)
		default:
			return fmt.Errorf("action %d: unknown action type %q", i, a.Type)
		}
	}

	for i, e := range d.Expect {
		if e.Path == "" {
			return fmt.Errorf("expectation %d: path is required", i)
		}
	}

	if d.Script != "" {
		if err := script.Validate(d.Script, "reduce"); err != nil {
			return fmt.Errorf("script: %w", err)
		}
	}

	return nil
}
