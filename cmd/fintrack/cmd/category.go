package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fintrack/internal/input"
	"fintrack/internal/present"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage the --user account's categories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := input.Required("name", args[0])
				if err != nil {
					return err
				}
				u, err := a.currentUser(cmd.Context())
				if err != nil {
					return err
				}
				c, err := a.service().CreateCategory(cmd.Context(), u.ID, name)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Category '%s' created.\n", c.Name)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories by name",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				u, err := a.currentUser(cmd.Context())
				if err != nil {
					return err
				}
				cats, err := a.service().ListCategories(cmd.Context(), u.ID)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), cats, func(w io.Writer) error {
					return present.Categories(w, cats)
				})
			},
		},
		&cobra.Command{
			Use:   "find <name>",
			Short: "Look up a category by name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := a.currentUser(cmd.Context())
				if err != nil {
					return err
				}
				c, err := a.service().FindCategory(cmd.Context(), u.ID, args[0])
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Category found: %s\n", c.Name)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a category; its transactions become uncategorized",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := a.currentUser(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.service().DeleteCategory(cmd.Context(), u.ID, args[0]); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Category '%s' deleted.\n", args[0])
				return err
			},
		},
	)
	return cmd
}
