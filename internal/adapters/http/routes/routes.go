package routes

import (
	"loanportal/internal/adapters/http/handlers"
	"loanportal/internal/adapters/http/middleware"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/config"
	"loanportal/internal/core/services"
	"loanportal/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the pieces built by main before routes are registered
type Deps struct {
	Config   *config.Config
	Repos    *repositories.Set
	Mailer   services.Mailer
	Fallback services.Mailer
	Log      logrus.FieldLogger
	// DB is nil with the memory driver
	DB *gorm.DB
}

// Services exposes the services built by Setup
type Services struct {
	Auth         *services.AuthService
	Onboarding   *services.OnboardingService
	Loans        *services.LoanService
	Admin        *services.AdminService
	Notification *services.NotificationService
}

// NewServices builds every service from the repository set
func NewServices(d Deps) *Services {
	notifyService := services.NewNotificationService(d.Mailer, d.Fallback, d.Config, d.Log)
	onboardingService := services.NewOnboardingService(d.Repos.Users, d.Repos.Profiles, d.Repos.BankDetails, d.Log)

	return &Services{
		Auth:         services.NewAuthService(d.Repos.Users, d.Repos.Sessions, notifyService, d.Config, d.Log),
		Onboarding:   onboardingService,
		Loans:        services.NewLoanService(d.Repos, onboardingService, d.Log),
		Admin:        services.NewAdminService(d.Repos, d.Log),
		Notification: notifyService,
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, d Deps) *Services {
	cfg := d.Config
	svc := NewServices(d)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, d.DB)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg, d.Log)
	onboardingHandler := handlers.NewOnboardingHandler(svc.Onboarding, d.Log)
	loanHandler := handlers.NewLoanHandler(svc.Loans, d.Log)
	adminHandler := handlers.NewAdminHandler(svc.Admin, d.Log)
	inviteHandler := handlers.NewInviteHandler(svc.Notification, cfg, d.Log)

	// ============================================================
	// Public
	// ============================================================
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", metrics.Handler())
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Every route below knows about the session, if any
	app.Use(middleware.LoadSession(svc.Auth, cfg))

	authLimiter := middleware.AuthRateLimiter()
	app.Post("/register/", middleware.StrictRateLimiter(), authHandler.Register)
	app.Get("/verify-email/:uid/:token/", authLimiter, authHandler.VerifyEmail)
	app.Post("/login/", authLimiter, authHandler.Login)
	app.Post("/logout/", authHandler.Logout)
	app.Get("/logout/", authHandler.Logout)

	// ============================================================
	// Authenticated, outside onboarding
	// ============================================================
	noCache := middleware.NoCacheHeaders()
	requireAuth := middleware.RequireAuth()
	gatekeeper := middleware.Gatekeeper(svc.Onboarding, d.Log)

	app.Post("/logout-all/", noCache, requireAuth, authHandler.LogoutAll)
	app.Get("/me/", noCache, requireAuth, authHandler.Me)
	app.Post("/invite/", noCache, requireAuth, middleware.StrictRateLimiter(), inviteHandler.SendInvite)

	// ============================================================
	// Onboarding steps and loan features (gatekeeper)
	// ============================================================
	profileRoutes := app.Group("/profile", noCache, requireAuth, gatekeeper)
	profileRoutes.Get("/complete/", onboardingHandler.GetProfile)
	profileRoutes.Post("/complete/", onboardingHandler.CompleteProfile)

	bankRoutes := app.Group("/bank-detail", noCache, requireAuth, gatekeeper)
	bankRoutes.Get("/", onboardingHandler.GetBankDetail)
	bankRoutes.Post("/", onboardingHandler.SaveBankDetail)

	loanRoutes := app.Group("/loan", noCache, requireAuth, gatekeeper)
	loanRoutes.Get("/apply/", loanHandler.ApplyForm)
	loanRoutes.Post("/apply/", loanHandler.Apply)
	loanRoutes.Get("/dashboard/", loanHandler.Dashboard)
	loanRoutes.Post("/:id/agreement/", loanHandler.SignAgreement)
	loanRoutes.Get("/agreement/:id/view/", loanHandler.ViewAgreement)

	withdrawalRoutes := app.Group("/withdrawal", noCache, requireAuth, gatekeeper)
	withdrawalRoutes.Get("/request/", loanHandler.WithdrawalForm)
	withdrawalRoutes.Post("/request/", loanHandler.RequestWithdrawal)

	// ============================================================
	// Staff
	// ============================================================
	adminRoutes := app.Group("/admin", noCache, middleware.StaffOnly())
	adminRoutes.Get("/loans/", adminHandler.ListLoans)
	adminRoutes.Post("/loans/approve/", adminHandler.ApproveLoans)
	adminRoutes.Post("/loans/reject/", adminHandler.RejectLoans)
	adminRoutes.Post("/loans/activate/", adminHandler.ActivateLoans)
	adminRoutes.Post("/loans/close/", adminHandler.CloseLoans)
	adminRoutes.Get("/withdrawals/", adminHandler.ListWithdrawals)
	adminRoutes.Post("/withdrawals/approve/", adminHandler.ApproveWithdrawals)
	adminRoutes.Post("/withdrawals/reject/", adminHandler.RejectWithdrawals)
	adminRoutes.Get("/audit-logs/", adminHandler.ListAuditLogs)

	return svc
}
