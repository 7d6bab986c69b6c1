package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the vault layout and platform requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			problems := c.app.Verify(cmd.Context())
			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				_, _ = fmt.Fprintln(out, "vault OK")
				return nil
			}
			for _, p := range problems {
				_, _ = fmt.Fprintln(out, "FAIL: "+p)
			}
			return zerr.With(domain.ErrVaultLayout, "problems", len(problems))
		},
	}
}
