package repositories

import (
	"context"
	"time"

	"loanportal/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every repository when no row matches.
var ErrNotFound = gorm.ErrRecordNotFound

// Transactor runs fn inside one database transaction. Repository calls made
// with the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetWithOnboarding(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	MarkEmailVerified(ctx context.Context, id uint, at time.Time) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}

// SessionRepository defines the server-side session store
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ProfileRepository defines profile repository interface
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
}

// BankDetailRepository defines bank detail repository interface
type BankDetailRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.BankDetail, error)
	Save(ctx context.Context, detail *models.BankDetail) error
}

// LoanFilter narrows loan listings
type LoanFilter struct {
	UserID uint
	Status string
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	GetLatestByUserID(ctx context.Context, userID uint) (*models.Loan, error)
	ExistsOpenByUserID(ctx context.Context, userID uint) (bool, error)
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error)
}

// WithdrawalFilter narrows withdrawal listings
type WithdrawalFilter struct {
	LoanID uint
	Status string
}

// WithdrawalRepository defines withdrawal request repository interface
type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	GetByIDForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	Update(ctx context.Context, w *models.WithdrawalRequest) error
	ListByLoanID(ctx context.Context, loanID uint) ([]*models.WithdrawalRequest, error)
	SumApprovedByLoanID(ctx context.Context, loanID uint) (decimal.Decimal, error)
	List(ctx context.Context, filter WithdrawalFilter, offset, limit int) ([]*models.WithdrawalRequest, int64, error)
}

// AuditLogRepository is append-only: there is no update or delete.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, offset, limit int) ([]*models.AuditLog, int64, error)
}

// AgreementRepository defines loan agreement repository interface
type AgreementRepository interface {
	Create(ctx context.Context, agreement *models.LoanAgreement) error
	GetByID(ctx context.Context, id uint) (*models.LoanAgreement, error)
}

// Set bundles every repository behind one backend
type Set struct {
	Tx          Transactor
	Users       UserRepository
	Sessions    SessionRepository
	Profiles    ProfileRepository
	BankDetails BankDetailRepository
	Loans       LoanRepository
	Withdrawals WithdrawalRepository
	AuditLogs   AuditLogRepository
	Agreements  AgreementRepository
}

// NewGormSet wires the gorm implementations
func NewGormSet(db *gorm.DB) *Set {
	return &Set{
		Tx:          NewTransactor(db),
		Users:       NewUserRepository(db),
		Sessions:    NewSessionRepository(db),
		Profiles:    NewProfileRepository(db),
		BankDetails: NewBankDetailRepository(db),
		Loans:       NewLoanRepository(db),
		Withdrawals: NewWithdrawalRepository(db),
		AuditLogs:   NewAuditLogRepository(db),
		Agreements:  NewAgreementRepository(db),
	}
}
