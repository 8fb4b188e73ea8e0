package commands

import (
	"github.com/spf13/cobra"

	"github.com/lxstack/lxstack/pkg/engine"
)

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete every resource declared in the stack",
		Long: `Delete the stack's containers, profiles, networks and storage pools, in
that order (the reverse of creation). Resources that are already gone are
skipped. Running containers must be stopped first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLifecycle(cmd.Context(), engine.CommandDelete)
		},
	}
}
