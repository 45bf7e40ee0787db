package indigo_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/agentstation/indigo"
	"github.com/agentstation/indigo/internal/testutil"
)

func TestSlogLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  slog.Level
		log       func(l indigo.Logger)
		expectLog bool
	}{
		{
			name:      "debug at debug handler",
			minLevel:  slog.LevelDebug,
			log:       func(l indigo.Logger) { l.Debug(context.Background(), "msg") },
			expectLog: true,
		},
		{
			name:      "debug at info handler",
			minLevel:  slog.LevelInfo,
			log:       func(l indigo.Logger) { l.Debug(context.Background(), "msg") },
			expectLog: false,
		},
		{
			name:      "info at info handler",
			minLevel:  slog.LevelInfo,
			log:       func(l indigo.Logger) { l.Info(context.Background(), "msg") },
			expectLog: true,
		},
		{
			name:      "error at error handler",
			minLevel:  slog.LevelError,
			log:       func(l indigo.Logger) { l.Error(context.Background(), "msg") },
			expectLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := indigo.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
				Level: tt.minLevel,
			})))

			tt.log(logger)

			if hasOutput := buf.Len() > 0; hasOutput != tt.expectLog {
				t.Errorf("log output = %v, want %v (buf: %q)", hasOutput, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogLogger_DispatchAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := indigo.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	store := testutil.NewStore("Alice", []any{Count(0)}, indigo.WithLogger(logger), indigo.WithID("s1"))
	indigo.AddReducer(store, testutil.CountReducer)
	store.Dispatch(context.Background(), testutil.Incremented)

	output := buf.String()
	for _, want := range []string{"dispatch completed", "store=s1", "action=testutil.CountAction", "applied=1"} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q: %s", want, output)
		}
	}
}

func TestNopLoggerIsDefault(t *testing.T) {
	store := indigo.New(State{}, indigo.WithLogger(nil))
	store.Dispatch(context.Background(), testutil.Incremented)
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	store := testutil.NewStore("Alice", []any{Count(0)}, indigo.WithLogger(indigo.NewLogrusLogger(l)), indigo.WithID("s2"))
	indigo.AddReducer(store, testutil.CountReducer)
	indigo.AddReducer(store, func(*Label, CountAction) {})
	store.Dispatch(context.Background(), testutil.Incremented)

	output := buf.String()
	for _, want := range []string{`msg="dispatch completed"`, "store=s2", "applied=1", "skipped=1", `msg="reducer skipped"`} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q: %s", want, output)
		}
	}

	buf.Reset()
	l.SetLevel(logrus.InfoLevel)
	store.Dispatch(context.Background(), testutil.Incremented)
	if buf.Len() != 0 {
		t.Errorf("debug records leaked at info level: %s", buf.String())
	}
}

func TestLogrusLoggerOddKeys(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	indigo.NewLogrusLogger(l).Error(context.Background(), "boom", 7, "seven", "dangling")

	if got := buf.String(); !strings.Contains(got, "7=seven") || strings.Contains(got, "dangling") {
		t.Errorf("unexpected output: %s", got)
	}
}

func TestDispatchLogOrder(t *testing.T) {
	logger := testutil.NewMockLogger()
	store := testutil.NewStore("Alice", []any{Count(0)}, indigo.WithLogger(logger))
	indigo.AddReducer(store, func(*Label, CountAction) {})
	indigo.AddReducer(store, testutil.CountReducer)

	store.Dispatch(context.Background(), testutil.Incremented)

	entries := logger.Entries()
	var messages []string
	for _, e := range entries {
		if e.Level != "debug" {
			t.Errorf("entry %q logged at %s, want debug", e.Message, e.Level)
		}
		messages = append(messages, e.Message)
	}

	a := testutil.NewAssert(t)
	a.Equal([]string{"dispatch starting", "reducer skipped", "dispatch completed"}, messages)
	a.Equal(2, entries[0].Fields["reducers"])
	a.Equal(1, entries[2].Fields["applied"])
	a.Equal(1, entries[2].Fields["skipped"])
}
