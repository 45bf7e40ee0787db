package scenario_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agentstation/indigo/internal/testutil"
	"github.com/agentstation/indigo/scenario"
)

func TestLoadAndRun(t *testing.T) {
	tests := []struct {
		file      string
		wantName  string
		wantCount int
		history   []int
	}{
		{file: "testdata/rename.yaml", wantName: "Bob", wantCount: 1, history: []int{1, 2, 1}},
		{file: "testdata/scripted.yaml", wantName: "", wantCount: 15, history: []int{20, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			def, err := scenario.Load(tt.file)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			report, err := scenario.Run(context.Background(), def)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			a := testutil.NewAssert(t)
			a.NoError(report.Err())
			a.Equal(tt.wantName, report.Name)
			a.Equal(tt.wantCount, report.Count)
			a.Equal(tt.history, report.History)
			a.Equal(len(def.Actions), report.Dispatched)
			a.Len(report.ScriptErrs, 0)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := scenario.Load("testdata/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "not yaml",
			doc:     "name: [unclosed",
			wantMsg: "parse YAML",
		},
		{
			name:    "unknown key",
			doc:     "name: x\nactions:\n  - type: count.increment\nstates: {}\n",
			wantMsg: "scenario document invalid",
		},
		{
			name:    "missing actions",
			doc:     "name: x\n",
			wantMsg: "scenario document invalid",
		},
		{
			name:    "empty name",
			doc:     "name: \"\"\nactions:\n  - type: count.increment\n",
			wantMsg: "scenario name is required",
		},
		{
			name:    "unknown action",
			doc:     "name: x\nactions:\n  - type: count.reset\n",
			wantMsg: "unknown action type",
		},
		{
			name:    "rename without value",
			doc:     "name: x\nactions:\n  - type: name.rename\n",
			wantMsg: "requires a value",
		},
		{
			name:    "script without reduce",
			doc:     "name: x\nscript: \"function other() end\"\nactions:\n  - type: count.increment\n",
			wantMsg: "required function not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestFailedExpectations(t *testing.T) {
	def, err := scenario.Parse([]byte(`
name: wrong
state: {name: Alice, count: 0}
actions:
  - type: count.increment
expect:
  - path: $.count
    equals: 5
  - path: $.nothing
    equals: 1
  - path: $.name
    equals: Alice
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	report, err := scenario.Run(context.Background(), def)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a := testutil.NewAssert(t)
	a.False(report.Passed())
	a.Len(report.Failures, 2)
	a.True(errors.Is(report.Err(), scenario.ErrExpectationFailed))
	a.Contains(report.Failures[0], "$.count")
	a.Contains(report.Failures[1], "no match")
}

func TestScriptErrorsAreReported(t *testing.T) {
	def, err := scenario.Parse([]byte(`
name: broken
state: {name: Alice, count: 3}
script: |
  function reduce(state, action)
      print("before", state)
      error("nope")
  end
actions:
  - type: count.increment
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var out bytes.Buffer
	logger := testutil.NewMockLogger()
	report, err := scenario.Run(context.Background(), def,
		scenario.WithScriptOutput(&out),
		scenario.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a := testutil.NewAssert(t)
	a.Equal(3, report.Count)
	a.Len(report.ScriptErrs, 1)
	a.Contains(report.ScriptErrs[0], "nope")
	a.Equal("before\t3\n", out.String())
	a.True(len(logger.Find("debug", "dispatch completed")) > 0)
}
