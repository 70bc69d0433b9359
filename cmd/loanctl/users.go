package main

import (
	"context"
	"fmt"

	"loanportal/internal/core/services"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage accounts"}

	var input services.StaffInput
	create := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a verified staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(ctx context.Context, rt *runtime) error {
				user, created, err := rt.auth.EnsureStaffUser(ctx, input)
				if err != nil {
					return err
				}
				if !created {
					fmt.Printf("⚠️ %s already exists (id %d), nothing changed\n", user.Email, user.ID)
					return nil
				}
				fmt.Printf("✅ Staff account %s created (id %d)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&input.FullName, "name", "Administrator", "full name")
	create.Flags().StringVar(&input.Email, "email", "", "email address")
	create.Flags().StringVar(&input.Phone, "phone", "", "mobile number")
	create.Flags().StringVar(&input.Password, "password", "", "password (min 8 characters)")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("phone")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
