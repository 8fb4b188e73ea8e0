package commands

import (
	"github.com/spf13/cobra"

	"github.com/lxstack/lxstack/pkg/engine"
)

func newStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the stack's containers",
		Long: `Start every container declared in the stack, in declaration order.
Containers that are already running are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLifecycle(cmd.Context(), engine.CommandStart)
		},
	}
}
