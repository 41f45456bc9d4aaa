package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/input"
	"fintrack/internal/present"
	"fintrack/internal/services"
)

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Manage the --user account's transactions",
	}
	cmd.AddCommand(
		newTxAddCmd(a),
		newTxListCmd(a),
		newTxFindCmd(a),
		newTxEditCmd(a),
		newTxDeleteCmd(a),
		newTxSearchCmd(a),
	)
	return cmd
}

func newTxAddCmd(a *app) *cobra.Command {
	var amount, kind, description, category, at string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nt := services.NewTransaction{Category: category}
			var err error
			if nt.Amount, err = input.Amount(amount); err != nil {
				return err
			}
			if nt.Kind, err = input.Kind(kind); err != nil {
				return err
			}
			if nt.Description, err = input.Required("description", description); err != nil {
				return err
			}
			if at != "" {
				if nt.CreatedAt, err = input.ParseTimestamp("at", at, a.loc); err != nil {
					return err
				}
			}

			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			nt.OwnerID = u.ID
			t, err := a.service().CreateTransaction(cmd.Context(), nt)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), t, func(w io.Writer) error {
				fmt.Fprintf(w, "Transaction added.\n")
				return present.Transaction(w, t)
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "positive amount, dot or comma decimal separator")
	cmd.Flags().StringVar(&kind, "kind", "", "income or expense")
	cmd.Flags().StringVar(&description, "description", "", "what the transaction was for")
	cmd.Flags().StringVar(&category, "category", "", "category name (optional)")
	cmd.Flags().StringVar(&at, "at", "", "timestamp, YYYY-MM-DD[ HH:MM] or RFC 3339 (default now)")
	return cmd
}

func newTxListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions newest first with the balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := a.service().ListTransactions(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), txs, func(w io.Writer) error {
				return present.Transactions(w, txs)
			})
		},
	}
}

func newTxFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <description>",
		Short: "Find the first transaction with a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			t, err := a.service().FindTransaction(cmd.Context(), u.ID, args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), t, func(w io.Writer) error {
				return present.Transaction(w, t)
			})
		},
	}
}

func newTxEditCmd(a *app) *cobra.Command {
	var amount, kind, description, category string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch services.TransactionPatch
			flags := cmd.Flags()
			if flags.Changed("amount") {
				d, err := input.Amount(amount)
				if err != nil {
					return err
				}
				patch.Amount = &d
			}
			if flags.Changed("kind") {
				k, err := input.Kind(kind)
				if err != nil {
					return err
				}
				patch.Kind = &k
			}
			if flags.Changed("description") {
				d, err := input.Required("description", description)
				if err != nil {
					return err
				}
				patch.Description = &d
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if patch.IsZero() {
				return errors.New("nothing to change: pass --amount, --kind, --description or --category")
			}

			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			t, err := a.service().EditTransaction(cmd.Context(), u.ID, id, patch)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), t, func(w io.Writer) error {
				fmt.Fprintf(w, "Transaction updated.\n")
				return present.Transaction(w, t)
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&kind, "kind", "", "new kind, income or expense")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&category, "category", "", `new category name, "" to clear`)
	return cmd
}

func newTxDeleteCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a transaction by id or by --description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (description != "") {
				return errors.New("pass either an id or --description")
			}
			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if description != "" {
				t, err := a.service().DeleteTransactionByDescription(cmd.Context(), u.ID, description)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "Transaction #%d '%s' deleted.\n", t.ID, t.Description)
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.service().DeleteTransaction(cmd.Context(), u.ID, id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "Transaction #%d deleted.\n", id)
			return err
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "delete the first transaction with this description")
	return cmd
}

func newTxSearchCmd(a *app) *cobra.Command {
	var params input.SearchParams
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search transactions by date and amount range",
		Long: `Search returns the transactions matching every bound given, newest first.
All bounds are inclusive. A date-only --end covers that whole day.

Example:
  fintrack --user john@example.com tx search --start 2024-01-01 --end 2024-01-31 --min 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := input.ParseFilter(params, a.loc)
			if err != nil {
				return err
			}
			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := a.service().SearchTransactions(cmd.Context(), u.ID, f)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), txs, func(w io.Writer) error {
				return present.Transactions(w, txs)
			})
		},
	}
	cmd.Flags().StringVar(&params.Start, "start", "", "earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.End, "end", "", "latest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.MinAmount, "min", "", "smallest amount")
	cmd.Flags().StringVar(&params.MaxAmount, "max", "", "largest amount")
	return cmd
}
