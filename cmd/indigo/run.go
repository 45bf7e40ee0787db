package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goyaml "github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentstation/indigo"
	"github.com/agentstation/indigo/batch"
	"github.com/agentstation/indigo/inspect"
	"github.com/agentstation/indigo/scenario"
)

// RunConfig holds configuration for the run command.
type RunConfig struct {
	Files       []string
	Query       string
	SchemaPath  string
	Concurrency int
	Format      string
	Verbose     bool
	LogOutput   io.Writer
}

var runFlags RunConfig

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>...",
	Short: "Replay scenarios and check their expectations",
	Long: `Load one or more scenario files, dispatch their actions against a fresh
store each, and report the final state. Files run concurrently; the command
fails if any expectation does not hold.`,
	Example: `  # Run a scenario
  indigo run rename.yaml

  # Run several and print only the final counts
  indigo run a.yaml b.yaml --query '$.count'

  # Check each report against a JSON Schema
  indigo run rename.yaml --schema report.schema.json --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := runFlags
		cfg.Files = args
		cfg.Format = output
		cfg.Verbose = verbose
		cfg.LogOutput = cmd.ErrOrStderr()
		return runScenarios(cmd.Context(), &cfg, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.Query, "query", "", "JSONPath query to print instead of the full report")
	runCmd.Flags().StringVar(&runFlags.SchemaPath, "schema", "", "JSON Schema file each report must satisfy")
	runCmd.Flags().IntVar(&runFlags.Concurrency, "concurrency", defaultConcurrency, "Maximum scenarios run at once")
	rootCmd.AddCommand(runCmd)
}

// queryResult is the output of --query for one scenario.
type queryResult struct {
	Scenario string `json:"scenario" yaml:"scenario"`
	Matches  []any  `json:"matches" yaml:"matches"`
}

// runScenarios loads and runs every file in cfg, writes the results to w,
// and returns an error if any scenario failed.
func runScenarios(ctx context.Context, cfg *RunConfig, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var schema []byte
	if cfg.SchemaPath != "" {
		path, err := expandPath(cfg.SchemaPath)
		if err != nil {
			return fmt.Errorf("expand path: %w", err)
		}
		schema, err = os.ReadFile(path) // #nosec G304 - user-provided schema file
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
	}

	var opts []scenario.Option
	if cfg.Verbose {
		logOut := cfg.LogOutput
		if logOut == nil {
			logOut = os.Stderr
		}
		logger := logrus.New()
		logger.SetOutput(logOut)
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.StampMilli})
		opts = append(opts,
			scenario.WithLogger(indigo.NewLogrusLogger(logger)),
			scenario.WithScriptOutput(logOut),
		)
	}

	reports, err := batch.Map(ctx, cfg.Files, func(ctx context.Context, file string) (*scenario.Report, error) {
		path, err := expandPath(file)
		if err != nil {
			return nil, fmt.Errorf("expand path: %w", err)
		}

		def, err := scenario.Load(filepath.Clean(path))
		if err != nil {
			return nil, err
		}

		report, err := scenario.Run(ctx, def, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name, err)
		}

		if schema != nil {
			if err := inspect.Validate(report, schema); err != nil {
				return nil, fmt.Errorf("%s: %w", def.Name, err)
			}
		}
		return report, nil
	}, batch.WithConcurrency(cfg.Concurrency))
	if err != nil {
		return err
	}

	if cfg.Query != "" {
		results := make([]queryResult, 0, len(reports))
		for _, r := range reports {
			matches, err := inspect.Query(r, cfg.Query)
			if err != nil {
				return err
			}
			results = append(results, queryResult{Scenario: r.Scenario, Matches: matches})
		}
		if err := writeQueryResults(w, cfg.Format, results); err != nil {
			return err
		}
	} else if err := writeReports(w, cfg.Format, reports); err != nil {
		return err
	}

	var errs []error
	for _, r := range reports {
		if err := r.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeReports(w io.Writer, format string, reports []*scenario.Report) error {
	switch format {
	case jsonFormat, yamlFormat:
		return writeStructured(w, format, reports)
	case textFormat, "":
		for _, r := range reports {
			status := "PASS"
			if !r.Passed() {
				status = "FAIL"
			}
			fmt.Fprintf(w, "%s %s: name=%q count=%d dispatched=%d applied=%d notified=%d\n",
				status, r.Scenario, r.Name, r.Count, r.Dispatched, r.Applied, r.Notified)
			for _, f := range r.Failures {
				fmt.Fprintf(w, "  expectation: %s\n", f)
			}
			for _, s := range r.Skipped {
				fmt.Fprintf(w, "  skipped: %s\n", s)
			}
			for _, e := range r.ScriptErrs {
				fmt.Fprintf(w, "  script: %s\n", e)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeQueryResults(w io.Writer, format string, results []queryResult) error {
	switch format {
	case jsonFormat, yamlFormat:
		return writeStructured(w, format, results)
	case textFormat, "":
		for _, r := range results {
			parts := make([]string, len(r.Matches))
			for i, m := range r.Matches {
				parts[i] = fmt.Sprint(m)
			}
			fmt.Fprintf(w, "%s: %s\n", r.Scenario, strings.Join(parts, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeStructured(w io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)
	if format == jsonFormat {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = goyaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}
