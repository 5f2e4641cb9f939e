package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"resume-filler/internal/config"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"
	"resume-filler/pkg/logger"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	backend string
	output  string
	timeout time.Duration
	verbose bool
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "resumectl",
	Short: "Run the resume fill pipeline step by step",
	Long: `resumectl exposes each stage of the pipeline on its own so a file can be
inspected without running the server.

Generator settings come from the same environment and CONFIG_FILE as the
server; --backend overrides AI_BACKEND.

Example:
  resumectl load resume.pdf
  resumectl extract resume.docx -o record.json
  resumectl template original.pdf -o template.html
  resumectl fill --record record.json --template template.html -o filled.html
  resumectl fallback record.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		log, err := logger.New(os.Stderr, level, "pretty")
		if err != nil {
			return err
		}
		slog.SetDefault(log)
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Generator backend (service, gemini, openai); default from AI_BACKEND")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Write the result to this file instead of stdout")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline for generator calls")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline decisions to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig returns the shared configuration with the --backend override
// applied.
func loadConfig() (*config.Config, error) {
	if backend != "" {
		if err := os.Setenv("AI_BACKEND", backend); err != nil {
			return nil, errors.Wrap(err, "set backend")
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return cfg, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (ai.Generator, error) {
	gen, err := ai.New(ctx, cfg.AIOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "create %s generator", cfg.AIBackend)
	}
	return gen, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// readRecord decodes and validates a record JSON file; "-" reads stdin.
func readRecord(path string) (model.ResumeRecord, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return model.ResumeRecord{}, errors.Wrapf(err, "read record %s", path)
	}
	rec, problems, err := model.DecodeRecord(raw)
	if err != nil {
		return model.ResumeRecord{}, errors.Wrapf(err, "decode record %s", path)
	}
	if len(problems) > 0 {
		return model.ResumeRecord{}, errors.Errorf("record %s does not match the schema: %v", path, problems)
	}
	return rec, nil
}

func writeText(s string) error {
	if output == "" {
		_, err := fmt.Fprintln(os.Stdout, s)
		return err
	}
	if err := os.WriteFile(output, []byte(s), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", output)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", output)
	return nil
}

func writeJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	return writeText(string(b))
}
