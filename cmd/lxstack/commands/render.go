package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Fetch and print the resolved stack document",
		Long: `Fetch the stack document from the configuration service, parse it, and
print the result to stdout. Useful to inspect exactly what create would
apply, including which lookup level answered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			rendered, err := yaml.Marshal(rt.stack)
			if err != nil {
				return fmt.Errorf("render stack: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(rendered))
			return nil
		},
	}
}
