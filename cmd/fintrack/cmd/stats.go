package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/present"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per account category and transaction counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.service().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), stats, func(w io.Writer) error {
				return present.Stats(w, stats)
			})
		},
	}
}
