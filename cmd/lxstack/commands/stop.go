package commands

import (
	"github.com/spf13/cobra"

	"github.com/lxstack/lxstack/pkg/engine"
)

func newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the stack's containers",
		Long: `Stop every container declared in the stack, in declaration order.
Containers that are not running are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLifecycle(cmd.Context(), engine.CommandStop)
		},
	}
}
