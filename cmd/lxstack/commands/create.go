package commands

import (
	"github.com/spf13/cobra"

	"github.com/lxstack/lxstack/pkg/engine"
)

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create every resource declared in the stack",
		Long: `Create the stack's storage pools, networks, profiles and containers, in
that order. Resources that already exist are skipped.`,
		Example: `  # Create the stack held under the default "lxd-stack" key
  lxstack create --url https://config.example.com

  # Create a staging variant
  lxstack create --url https://config.example.com --levels myproject,staging`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLifecycle(cmd.Context(), engine.CommandCreate)
		},
	}
}
