package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single processing cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.TickOnce(cmd.Context())
			if report != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			}
			if err != nil {
				return err
			}
			if report.Fatal() {
				return zerr.With(domain.ErrTickFailed, "failures", report.Failures)
			}
			return nil
		},
	}
}
