package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/metrics"
	"loanportal/internal/pkg/validation"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Field messages for the withdrawal form
const (
	msgAmountNotPositive = "Amount must be greater than zero."
	msgAmountExceeds     = "Amount exceeds available balance."
)

// OnboardingChecker reports the first unmet onboarding step as an error
type OnboardingChecker interface {
	RequireOnboarded(ctx context.Context, userID uint) error
}

// LoanService handles applications, balances and withdrawal requests
type LoanService struct {
	tx          repositories.Transactor
	users       repositories.UserRepository
	banks       repositories.BankDetailRepository
	loans       repositories.LoanRepository
	withdrawals repositories.WithdrawalRepository
	agreements  repositories.AgreementRepository
	onboarding  OnboardingChecker
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(repos *repositories.Set, onboarding OnboardingChecker, log logrus.FieldLogger) *LoanService {
	return &LoanService{
		tx:          repos.Tx,
		users:       repos.Users,
		banks:       repos.BankDetails,
		loans:       repos.Loans,
		withdrawals: repos.Withdrawals,
		agreements:  repos.Agreements,
		onboarding:  onboarding,
		log:         log,
		now:         time.Now,
	}
}

// LoanApplicationInput represents the loan application form
type LoanApplicationInput struct {
	RequestedAmount string `json:"requested_amount" form:"requested_amount" validate:"required"`
	Purpose         string `json:"loan_purpose" form:"loan_purpose" validate:"required,max=255"`
	TermMonths      int    `json:"term_months" form:"term_months" validate:"required,min=1,max=12"`
	MonthlyIncome   string `json:"monthly_income" form:"monthly_income" validate:"required"`
	Note            string `json:"note" form:"note" validate:"max=2000"`
}

// WithdrawalInput represents the withdrawal request form
type WithdrawalInput struct {
	Amount string `json:"amount" form:"amount" validate:"required"`
	Note   string `json:"note" form:"note" validate:"max=2000"`
}

// AgreementInput represents the loan agreement signature form
type AgreementInput struct {
	SignatureText string `json:"signature_text" form:"signature_text" validate:"required,max=255"`
	TermsVersion  string `json:"terms_version" form:"terms_version" validate:"max=64"`
	AcceptTerms   bool   `json:"accept_terms" form:"accept_terms"`
}

// Balance is the withdrawable position of a loan
type Balance struct {
	ApprovedAmount      decimal.Decimal `json:"approved_amount"`
	ApprovedWithdrawals decimal.Decimal `json:"approved_withdrawals_total"`
	Available           decimal.Decimal `json:"available_balance"`
}

// Eligibility tells the applicant whether a new application is accepted
type Eligibility struct {
	CanApply bool         `json:"can_apply"`
	Reason   string       `json:"reason,omitempty"`
	OpenLoan *models.Loan `json:"open_loan,omitempty"`
}

// Dashboard is the borrower's view of the current loan
type Dashboard struct {
	Loan        *models.Loan                `json:"loan"`
	Balance     *Balance                    `json:"balance,omitempty"`
	CanWithdraw bool                        `json:"can_withdraw"`
	Withdrawals []*models.WithdrawalRequest `json:"withdrawals"`
}

// WithdrawalContext is shown alongside the withdrawal form
type WithdrawalContext struct {
	Loan    *models.Loan `json:"loan"`
	Balance *Balance     `json:"balance"`
}

// Eligibility reports whether the principal may submit an application
func (s *LoanService) Eligibility(ctx context.Context, principal *domain.Principal) (*Eligibility, error) {
	if err := s.onboarding.RequireOnboarded(ctx, principal.UserID); err != nil {
		return nil, err
	}

	loan, err := s.currentLoan(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if loan != nil && domain.LoanStatus(loan.Status).IsOpen() {
		return &Eligibility{CanApply: false, Reason: "You already have a loan in progress.", OpenLoan: loan}, nil
	}
	return &Eligibility{CanApply: true}, nil
}

// Apply creates a PENDING loan. The account row is locked while checking for
// an open loan so two concurrent applications cannot both pass.
func (s *LoanService) Apply(ctx context.Context, principal *domain.Principal, input *LoanApplicationInput) (*models.Loan, error) {
	if err := s.onboarding.RequireOnboarded(ctx, principal.UserID); err != nil {
		return nil, err
	}

	input.Purpose = strings.TrimSpace(input.Purpose)
	input.Note = strings.TrimSpace(input.Note)

	verr := domain.NewValidationError()
	verr.Merge(validation.Struct(input))

	requested, ok := parseAmount(verr, "requested_amount", input.RequestedAmount)
	if ok && !requested.IsPositive() {
		verr.Add("requested_amount", "Ensure this value is greater than or equal to 0.01.")
	}
	income, ok := parseAmount(verr, "monthly_income", input.MonthlyIncome)
	if ok && income.IsNegative() {
		verr.Add("monthly_income", "Ensure this value is greater than or equal to 0.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		UserID:          principal.UserID,
		RequestedAmount: requested,
		TermMonths:      input.TermMonths,
		Status:          string(domain.LoanPending),
		Purpose:         input.Purpose,
		MonthlyIncome:   income,
		Note:            input.Note,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByIDForUpdate(ctx, principal.UserID); err != nil {
			return err
		}
		open, err := s.loans.ExistsOpenByUserID(ctx, principal.UserID)
		if err != nil {
			return err
		}
		if open {
			return domain.ErrLoanAlreadyOpen
		}
		return s.loans.Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": principal.UserID,
		"loan_id": loan.ID,
		"amount":  loan.RequestedAmount.StringFixed(2),
	}).Info("💰 Loan application submitted")
	return loan, nil
}

// Dashboard returns the current loan with its balance and withdrawal history
func (s *LoanService) Dashboard(ctx context.Context, principal *domain.Principal) (*Dashboard, error) {
	loan, err := s.currentLoan(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{Loan: loan, Withdrawals: []*models.WithdrawalRequest{}}
	if loan == nil {
		return dash, nil
	}

	dash.Withdrawals, err = s.withdrawals.ListByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, err
	}

	if domain.LoanStatus(loan.Status).Withdrawable() {
		dash.Balance, err = s.balance(ctx, loan)
		if err != nil {
			return nil, err
		}
		dash.CanWithdraw = dash.Balance.Available.IsPositive()
	}
	return dash, nil
}

// WithdrawalContext returns the loan and balance a withdrawal would draw on
func (s *LoanService) WithdrawalContext(ctx context.Context, principal *domain.Principal) (*WithdrawalContext, error) {
	loan, err := s.currentLoan(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if loan == nil || !domain.LoanStatus(loan.Status).Withdrawable() {
		return nil, domain.ErrNoWithdrawableLoan
	}

	balance, err := s.balance(ctx, loan)
	if err != nil {
		return nil, err
	}
	return &WithdrawalContext{Loan: loan, Balance: balance}, nil
}

// RequestWithdrawal records a PENDING withdrawal when 0 < amount <= available.
// The balance is read and the request inserted while the loan row is locked.
func (s *LoanService) RequestWithdrawal(ctx context.Context, principal *domain.Principal, input *WithdrawalInput) (*models.WithdrawalRequest, error) {
	current, err := s.currentLoan(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if current == nil || !domain.LoanStatus(current.Status).Withdrawable() {
		return nil, domain.ErrNoWithdrawableLoan
	}

	input.Note = strings.TrimSpace(input.Note)
	verr := domain.NewValidationError()
	verr.Merge(validation.Struct(input))
	amount, ok := parseAmount(verr, "amount", input.Amount)
	if ok && !amount.IsPositive() {
		verr.Add("amount", msgAmountNotPositive)
	}
	if err := verr.OrNil(); err != nil {
		metrics.RecordWithdrawal("invalid")
		return nil, err
	}

	withdrawal := &models.WithdrawalRequest{
		UserID: principal.UserID,
		LoanID: current.ID,
		Amount: amount,
		Status: string(domain.WithdrawalPending),
		Note:   input.Note,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		loan, err := s.loans.GetByIDForUpdate(ctx, current.ID)
		if err != nil {
			return err
		}
		if !domain.LoanStatus(loan.Status).Withdrawable() {
			return domain.ErrNoWithdrawableLoan
		}

		balance, err := s.balance(ctx, loan)
		if err != nil {
			return err
		}
		if amount.GreaterThan(balance.Available) {
			return domain.FieldError("amount", msgAmountExceeds)
		}
		return s.withdrawals.Create(ctx, withdrawal)
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordWithdrawal("exceeds_balance")
		}
		return nil, err
	}

	metrics.RecordWithdrawal("accepted")
	s.log.WithFields(logrus.Fields{
		"user_id":       principal.UserID,
		"loan_id":       current.ID,
		"withdrawal_id": withdrawal.ID,
		"amount":        amount.StringFixed(2),
	}).Info("💸 Withdrawal requested")
	return withdrawal, nil
}

// SignAgreement records the borrower's signature on one of their loans
func (s *LoanService) SignAgreement(ctx context.Context, principal *domain.Principal, loanID uint, input *AgreementInput, meta ClientMeta) (*models.LoanAgreement, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	if loan.UserID != principal.UserID {
		return nil, domain.ErrLoanNotFound
	}

	input.SignatureText = strings.TrimSpace(input.SignatureText)
	input.TermsVersion = strings.TrimSpace(input.TermsVersion)

	verr := domain.NewValidationError()
	verr.Merge(validation.Struct(input))
	if !input.AcceptTerms {
		verr.Add("accept_terms", "You must accept the terms to continue.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	last4 := ""
	if bank, err := s.banks.GetByUserID(ctx, principal.UserID); err == nil {
		last4 = bank.AccountLast4()
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	agreement := &models.LoanAgreement{
		LoanID:          loan.ID,
		UserID:          principal.UserID,
		BorrowerName:    user.FullName,
		RequestedAmount: loan.RequestedAmount,
		AccountLast4:    last4,
		SignatureText:   input.SignatureText,
		SignedAt:        &now,
		IPAddress:       meta.IP,
		UserAgent:       meta.UserAgent,
		TermsVersion:    input.TermsVersion,
	}
	if err := s.agreements.Create(ctx, agreement); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": principal.UserID,
		"loan_id": loan.ID,
	}).Info("✍️ Loan agreement signed")
	return agreement, nil
}

// GetAgreement returns an agreement to its signer or to staff
func (s *LoanService) GetAgreement(ctx context.Context, principal *domain.Principal, id uint) (*models.LoanAgreement, error) {
	agreement, err := s.agreements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domain.ErrAgreementNotFound
		}
		return nil, err
	}
	if agreement.UserID != principal.UserID && !principal.IsStaff() {
		return nil, domain.ErrAgreementNotFound
	}
	return agreement, nil
}

// currentLoan returns the most recent loan of the user, or nil
func (s *LoanService) currentLoan(ctx context.Context, userID uint) (*models.Loan, error) {
	loan, err := s.loans.GetLatestByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return loan, err
}

// balance computes available = approved (or requested) - sum(APPROVED withdrawals)
func (s *LoanService) balance(ctx context.Context, loan *models.Loan) (*Balance, error) {
	withdrawn, err := s.withdrawals.SumApprovedByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	principal := loan.Principal()
	return &Balance{
		ApprovedAmount:      principal,
		ApprovedWithdrawals: withdrawn,
		Available:           principal.Sub(withdrawn),
	}, nil
}
