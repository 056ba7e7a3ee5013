// Package commands defines the CLI command structure and flag bindings.
//
// Command execution wires configuration, credentials and platform clients
// together; the agents themselves only see interfaces.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the pipewright CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipewright",
		Short: "Agent-chain CI/CD service",
	}

	cmd.AddCommand(Serve())
	cmd.AddCommand(Run())
	cmd.AddCommand(Version())

	return cmd
}
