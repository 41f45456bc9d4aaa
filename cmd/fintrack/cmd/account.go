package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/input"
	"fintrack/internal/present"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(
		newAccountCreateCmd(a),
		newAccountLoginCmd(a),
		newAccountDeleteCmd(a),
		newAccountInfoCmd(a),
	)
	return cmd
}

func newAccountCreateCmd(a *app) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := input.Required("name", name)
			if err != nil {
				return err
			}
			email, err := input.Email(email)
			if err != nil {
				return err
			}
			u, err := a.service().CreateAccount(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), u, func(w io.Writer) error {
				fmt.Fprintf(w, "Account created for %s.\n", u.Name)
				return present.UserInfo(w, u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "account holder name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newAccountLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Record a login for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.service().Login(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), u, func(w io.Writer) error {
				fmt.Fprintf(w, "Welcome back, %s!\n", u.Name)
				return nil
			})
		},
	}
}

func newAccountDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the --user account with its categories and transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.service().DeleteAccount(cmd.Context(), u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s deleted.\n", u.Email)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func newAccountInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the --user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), u, func(w io.Writer) error {
				return present.UserInfo(w, u)
			})
		},
	}
}
