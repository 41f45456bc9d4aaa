package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/log"
	"fintrack/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load accounts, categories and transactions from a YAML file",
		Long: `Seed validates the whole file before writing anything.

Example file:
  users:
    - name: John Doe
      email: john.doe@example.com
      categories: [Salary]
      transactions:
        - {amount: "3500.00", kind: income, description: Salary, category: Salary, created_at: "2024-01-05"}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), a.service(), file, a.loc)
			if err != nil {
				return err
			}
			a.logger.Info("Seed applied",
				log.FieldOperation, log.OpSeed,
				"users", res.Users,
				"categories", res.Categories,
				"transactions", res.Transactions)
			return a.render(cmd.OutOrStdout(), res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Seeded %d users, %d categories, %d transactions.\n",
					res.Users, res.Categories, res.Transactions)
				return err
			})
		},
	}
}
