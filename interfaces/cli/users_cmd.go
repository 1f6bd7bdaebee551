package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage local accounts",
	}
	cmd.AddCommand(newUsersAddCmd(app))
	return cmd
}

func newUsersAddCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a local account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Users == nil {
				return errors.New("accounts are managed by the hosted auth provider")
			}
			user, err := app.Users.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "account password, at least 6 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
