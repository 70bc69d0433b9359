package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type bulkFunc func(ctx context.Context, rt *runtime, p *domain.Principal, ids []uint) (*services.BulkResult, error)

func newLoansCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "loans", Short: "Review loan applications"}

	var (
		status     string
		userID     uint
		page, size int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(ctx context.Context, rt *runtime) error {
				p, err := rt.staff(ctx)
				if err != nil {
					return err
				}
				params := pagination.New(page, size)
				loans, total, err := rt.admin.ListLoans(ctx, p, repositories.LoanFilter{
					UserID: userID,
					Status: strings.ToUpper(status),
				}, params)
				if err != nil {
					return err
				}
				return printJSON(pagination.NewResponse(loans, params, total))
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status")
	list.Flags().UintVar(&userID, "user", 0, "filter by account id")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&size, "limit", pagination.DefaultLimit, "page size")

	var amounts []string
	approve := bulkCmd("approve", "Approve PENDING loans", func(ctx context.Context, rt *runtime, p *domain.Principal, ids []uint) (*services.BulkResult, error) {
		parsed, err := parseAmounts(amounts)
		if err != nil {
			return nil, err
		}
		return rt.admin.ApproveLoans(ctx, p, ids, parsed)
	})
	approve.Flags().StringSliceVar(&amounts, "amount", nil, "approved amount per loan as id=value (defaults to the requested amount)")

	cmd.AddCommand(
		list,
		approve,
		bulkCmd("reject", "Reject PENDING loans", func(ctx context.Context, rt *runtime, p *domain.Principal, ids []uint) (*services.BulkResult, error) {
			return rt.admin.RejectLoans(ctx, p, ids)
		}),
		bulkCmd("activate", "Move APPROVED loans to ACTIVE", func(ctx context.Context, rt *runtime, p *domain.Principal, ids []uint) (*services.BulkResult, error) {
			return rt.admin.ActivateLoans(ctx, p, ids)
		}),
		bulkCmd("close", "Close APPROVED or ACTIVE loans", func(ctx context.Context, rt *runtime, p *domain.Principal, ids []uint) (*services.BulkResult, error) {
			return rt.admin.CloseLoans(ctx, p, ids)
		}),
	)
	return cmd
}

// bulkCmd builds a "<verb> ID..." command around a staff bulk action
func bulkCmd(verb, short string, action bulkFunc) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withRuntime(func(ctx context.Context, rt *runtime) error {
				p, err := rt.staff(ctx)
				if err != nil {
					return err
				}
				result, err := action(ctx, rt, p, ids)
				if err != nil {
					return err
				}
				fmt.Printf("✅ %s: %d processed, %d skipped\n", verb, len(result.Processed), len(result.Skipped))
				return printJSON(result)
			})
		},
	}
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// parseAmounts reads id=value pairs
func parseAmounts(pairs []string) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal, len(pairs))
	for _, pair := range pairs {
		idPart, amountPart, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --amount %q, expected id=value", pair)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid loan id in %q", pair)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(amountPart))
		if err != nil || !amount.IsPositive() {
			return nil, fmt.Errorf("invalid amount in %q", pair)
		}
		out[uint(id)] = amount
	}
	return out, nil
}
