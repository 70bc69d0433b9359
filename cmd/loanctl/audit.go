package main

import (
	"context"
	"fmt"

	"loanportal/internal/core/services"
	"loanportal/internal/pkg/pagination"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Inspect the audit trail"}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(ctx context.Context, rt *runtime) error {
				p, err := rt.staff(ctx)
				if err != nil {
					return err
				}
				params := pagination.New(page, size)
				entries, total, err := rt.admin.ListAuditLogs(ctx, p, params)
				if err != nil {
					return err
				}
				return printJSON(pagination.NewResponse(entries, params, total))
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&size, "limit", pagination.DefaultLimit, "page size")

	cmd.AddCommand(list)
	return cmd
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sessions", Short: "Session housekeeping"}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(ctx context.Context, rt *runtime) error {
				janitor := services.NewCronService(rt.Repos.Sessions, rt.Config.Jobs.SessionCleanupCron, rt.Log)
				n, err := janitor.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("🗑️ %d expired sessions deleted\n", n)
				return nil
			})
		},
	})
	return cmd
}
