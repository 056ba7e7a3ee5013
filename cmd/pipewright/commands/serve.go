package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imamik/pipewright/internal/server"
)

// Serve returns the command that runs the HTTP service.
//
// Environment variables select the real platform clients; without
// credentials the corresponding capability runs offline:
//
//	PIPEWRIGHT_WEBHOOK_SECRET: shared webhook secret (optional)
//	OPENAI_API_KEY:            LLM completions
//	GITHUB_TOKEN:              change sets and PR comments
//	HCLOUD_TOKEN:              cluster provisioning
//	REGISTRY_PASSWORD:         image push auth
func Serve() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline HTTP service",
		Long: `Run the pipeline HTTP service.

Listens for repository events and executes the configured agent chain for
each one. Run status is available under /api/runs.

Examples:
  # Start with pipewright.yaml in the current directory
  pipewright serve

  # Start with a specific config file
  pipewright serve -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: pipewright.yaml)")

	return cmd
}

func serve(ctx context.Context, configPath string) error {
	log := newLogger(0)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comp, err := compose(ctx, configPath, log)
	if err != nil {
		return err
	}

	srv := server.New(comp.runner, comp.secret, log.WithName("http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(comp.cfg.Server.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), comp.timeouts.Shutdown)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
