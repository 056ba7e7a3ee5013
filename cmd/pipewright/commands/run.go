package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imamik/pipewright/internal/pipeline"
	"github.com/imamik/pipewright/internal/runs"
)

// Run returns the command that executes one pipeline run from an event
// file, without starting the HTTP service.
func Run() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run <event.json>",
		Short: "Execute one pipeline run from an event file",
		Long: `Execute one pipeline run from an event file.

Reads a repository event from the given JSON file, runs the configured
agent chain synchronously, and prints the run report.

Examples:
  pipewright run event.json
  pipewright run -c production.yaml event.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: pipewright.yaml)")

	return cmd
}

func runOnce(ctx context.Context, configPath, eventPath string) error {
	log := newLogger(0)

	data, err := os.ReadFile(eventPath)
	if err != nil {
		return fmt.Errorf("failed to read event file: %w", err)
	}
	var event pipeline.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to parse event file: %w", err)
	}
	if err := event.Validate(); err != nil {
		return err
	}

	comp, err := compose(ctx, configPath, log)
	if err != nil {
		return err
	}

	run := comp.runner.Registry().Create(event)
	comp.runner.Execute(ctx, run.ID)

	result := comp.runner.Registry().Get(run.ID)
	report, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render run report: %w", err)
	}
	fmt.Println(string(report))

	if result.Status != runs.StatusSucceeded {
		return fmt.Errorf("run %s %s: %s", result.ID, result.Status, result.Error)
	}
	return nil
}
