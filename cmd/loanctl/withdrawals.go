package main

import (
	"context"
	"strings"

	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/pagination"

	"github.com/spf13/cobra"
)

func newWithdrawalsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "withdrawals", Short: "Review withdrawal requests"}

	var (
		status     string
		loanID     uint
		page, size int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List withdrawal requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(ctx context.Context, rt *runtime) error {
				p, err := rt.staff(ctx)
				if err != nil {
					return err
				}
				params := pagination.New(page, size)
				items, total, err := rt.admin.ListWithdrawals(ctx, p, repositories.WithdrawalFilter{
					LoanID: loanID,
					Status: strings.ToUpper(status),
				}, params)
				if err != nil {
					return err
				}
				return printJSON(pagination.NewResponse(items, params, total))
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status")
	list.Flags().UintVar(&loanID, "loan", 0, "filter by loan id")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&size, "limit", pagination.DefaultLimit, "page size")

	cmd.AddCommand(
		list,
		bulkCmd("approve", "Approve PENDING withdrawals", func(ctx context.Context, rt *runtime, p *domain.Principal, ids []uint) (*services.BulkResult, error) {
			return rt.admin.ApproveWithdrawals(ctx, p, ids)
		}),
		bulkCmd("reject", "Reject PENDING withdrawals", func(ctx context.Context, rt *runtime, p *domain.Principal, ids []uint) (*services.BulkResult, error) {
			return rt.admin.RejectWithdrawals(ctx, p, ids)
		}),
	)
	return cmd
}
