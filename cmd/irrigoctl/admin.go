package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irrigo/irrigo/internal/auth"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage back-office accounts",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account, or reset its password when it exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := auth.NewService(auth.NewRepository(e.pool)).SaveAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s saved (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "password (at least 8 characters)")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
