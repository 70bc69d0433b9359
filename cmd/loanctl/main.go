// Command loanctl runs staff operations against the lending database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/bootstrap"
	"loanportal/internal/config"
	"loanportal/internal/core/domain"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// runtime is what every subcommand works with
type runtime struct {
	*bootstrap.Runtime
	auth  *services.AuthService
	admin *services.AdminService
}

var staffEmail string

func main() {
	root := &cobra.Command{
		Use:           "loanctl",
		Short:         "Staff operations for the lending portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&staffEmail, "as", os.Getenv("LOANCTL_STAFF_EMAIL"), "email of the staff account performing the action")

	root.AddCommand(
		newUsersCmd(),
		newLoansCmd(),
		newWithdrawalsCmd(),
		newAuditCmd(),
		newSessionsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// withRuntime opens storage for the duration of fn
func withRuntime(fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Output: os.Stderr})

	base, err := bootstrap.Open(cfg, log)
	if err != nil {
		return err
	}
	defer base.Close()

	notify := services.NewNotificationService(base.Mailer, base.Fallback, cfg, log)
	rt := &runtime{
		Runtime: base,
		auth:    services.NewAuthService(base.Repos.Users, base.Repos.Sessions, notify, cfg, log),
		admin:   services.NewAdminService(base.Repos, log),
	}
	return fn(context.Background(), rt)
}

// staff resolves --as to a staff principal
func (rt *runtime) staff(ctx context.Context) (*domain.Principal, error) {
	if staffEmail == "" {
		return nil, errors.New("--as is required (or set LOANCTL_STAFF_EMAIL)")
	}

	user, err := rt.Repos.Users.GetByEmail(ctx, services.NormalizeEmail(staffEmail))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("no account for %s", staffEmail)
		}
		return nil, err
	}
	if !user.IsStaff || !user.IsActive {
		return nil, fmt.Errorf("%s is not an active staff account", staffEmail)
	}

	return &domain.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     domain.Role(user.Role),
		Staff:    true,
	}, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
