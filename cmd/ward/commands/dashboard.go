package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Rewrite Dashboard.md and print the rendered summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rendered, err := c.app.Dashboard(cmd.Context())
			if rendered != "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
			}
			return err
		},
	}
}
