package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/present"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly reports for the --user account",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "summary",
			Short: "Income, expenses and net per month",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				u, err := a.currentUser(cmd.Context())
				if err != nil {
					return err
				}
				summary, err := a.service().MonthlySummary(cmd.Context(), u.ID)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), summary, func(w io.Writer) error {
					return present.SummaryReport(w, summary)
				})
			},
		},
		&cobra.Command{
			Use:   "detailed",
			Short: "Every transaction grouped by month and kind",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				u, err := a.currentUser(cmd.Context())
				if err != nil {
					return err
				}
				report, err := a.service().DetailedReport(cmd.Context(), u.ID)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), report, func(w io.Writer) error {
					return present.DetailedReport(w, report)
				})
			},
		},
	)
	return cmd
}
