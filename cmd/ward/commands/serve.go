package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run processing cycles continuously until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			return c.app.Serve(cmd.Context(), interval)
		},
	}
	cmd.Flags().DurationP("interval", "i", 0, "Cycle interval (0 uses the configured value)")
	return cmd
}
