package inspect_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agentstation/indigo"
	"github.com/agentstation/indigo/inspect"
	"github.com/agentstation/indigo/internal/testutil"
)

func newStore() *indigo.Store[testutil.State] {
	store := testutil.NewStore("Alice", []any{testutil.Count(0)})
	indigo.AddReducer(store, testutil.CountReducer)
	indigo.AddReducer(store, testutil.NameReducer)

	ctx := context.Background()
	store.Dispatch(ctx, testutil.Incremented)
	store.Dispatch(ctx, testutil.Incremented)
	store.Dispatch(ctx, testutil.Renamed("Bob"))
	return store
}

func TestSnapshot(t *testing.T) {
	snap, err := inspect.Snapshot(newStore().State())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	want := map[string]any{
		"Name": "Bob",
		"Extras": map[string]any{
			"testutil.Count": int64(2),
		},
	}
	testutil.NewAssert(t).Equal(want, snap)
}

func TestSnapshotUnsupported(t *testing.T) {
	_, err := inspect.Snapshot(func() {})
	if err == nil {
		t.Error("expected error for a value with no JSON shape")
	}
}

func TestQuery(t *testing.T) {
	state := newStore().State()

	tests := []struct {
		name    string
		path    string
		want    []any
		wantErr error
	}{
		{name: "direct field", path: "$.Name", want: []any{"Bob"}},
		{name: "extension field", path: "$.Extras['testutil.Count']", want: []any{int64(2)}},
		{name: "no match", path: "$.Missing", want: []any{}},
		{name: "invalid path", path: "$[?(@.Name ==", wantErr: inspect.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inspect.Query(state, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Query() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Query() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Query()[%d] = %#v, want %#v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

const stateSchema = `{
  "type": "object",
  "required": ["Name", "Extras"],
  "properties": {
    "Name": {"type": "string", "minLength": 1},
    "Extras": {
      "type": "object",
      "properties": {
        "testutil.Count": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

func TestValidate(t *testing.T) {
	store := newStore()
	if err := inspect.Validate(store.State(), []byte(stateSchema)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	ctx := context.Background()
	store.Dispatch(ctx, testutil.Cleared())
	for range 3 {
		store.Dispatch(ctx, testutil.Decremented)
	}

	err := inspect.Validate(store.State(), []byte(stateSchema))
	var verr *inspect.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if len(verr.Failures) != 2 {
		t.Errorf("got %d failures, want 2: %v", len(verr.Failures), verr)
	}
}

func TestValidateBadSchema(t *testing.T) {
	err := inspect.Validate(newStore().State(), []byte(`{not json`))
	if err == nil {
		t.Fatal("expected error for malformed schema")
	}
	var verr *inspect.ValidationError
	if errors.As(err, &verr) {
		t.Error("malformed schema should not be reported as a validation failure")
	}
}
