package services

import (
	"context"
	"errors"
	"time"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/core/domain"
	"loanportal/internal/pkg/metrics"
	"loanportal/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AdminService runs the staff decision workflow over loans and withdrawals
type AdminService struct {
	tx          repositories.Transactor
	loans       repositories.LoanRepository
	withdrawals repositories.WithdrawalRepository
	audits      repositories.AuditLogRepository
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(repos *repositories.Set, log logrus.FieldLogger) *AdminService {
	return &AdminService{
		tx:          repos.Tx,
		loans:       repos.Loans,
		withdrawals: repos.Withdrawals,
		audits:      repos.AuditLogs,
		log:         log,
		now:         time.Now,
	}
}

// BulkResult lists which ids a bulk action changed and which it left alone
type BulkResult struct {
	Processed []uint `json:"processed"`
	Skipped   []uint `json:"skipped"`
}

// loanTransition moves a locked loan to its next state. It returns false when
// the loan is not in a state the action applies to.
type loanTransition func(loan *models.Loan, now time.Time) bool

// ApproveLoans approves PENDING loans. approved_amount is taken from amounts
// when present, otherwise it defaults to the requested amount.
func (s *AdminService) ApproveLoans(ctx context.Context, principal *domain.Principal, ids []uint, amounts map[uint]decimal.Decimal) (*BulkResult, error) {
	return s.applyLoans(ctx, principal, ids, domain.AuditLoanApproved, func(loan *models.Loan, now time.Time) bool {
		if domain.LoanStatus(loan.Status) != domain.LoanPending {
			return false
		}
		if amount, ok := amounts[loan.ID]; ok && amount.IsPositive() {
			loan.ApprovedAmount = decimal.NewNullDecimal(amount.Round(2))
		} else if !loan.ApprovedAmount.Valid {
			loan.ApprovedAmount = decimal.NewNullDecimal(loan.RequestedAmount)
		}
		loan.Status = string(domain.LoanApproved)
		loan.ApprovedAt = &now
		return true
	})
}

// RejectLoans rejects PENDING loans
func (s *AdminService) RejectLoans(ctx context.Context, principal *domain.Principal, ids []uint) (*BulkResult, error) {
	return s.applyLoans(ctx, principal, ids, domain.AuditLoanRejected, func(loan *models.Loan, now time.Time) bool {
		if domain.LoanStatus(loan.Status) != domain.LoanPending {
			return false
		}
		loan.Status = string(domain.LoanRejected)
		return true
	})
}

// ActivateLoans moves APPROVED loans to ACTIVE
func (s *AdminService) ActivateLoans(ctx context.Context, principal *domain.Principal, ids []uint) (*BulkResult, error) {
	return s.applyLoans(ctx, principal, ids, domain.AuditLoanActivated, func(loan *models.Loan, now time.Time) bool {
		if domain.LoanStatus(loan.Status) != domain.LoanApproved {
			return false
		}
		loan.Status = string(domain.LoanActive)
		return true
	})
}

// CloseLoans closes APPROVED or ACTIVE loans
func (s *AdminService) CloseLoans(ctx context.Context, principal *domain.Principal, ids []uint) (*BulkResult, error) {
	return s.applyLoans(ctx, principal, ids, domain.AuditLoanClosed, func(loan *models.Loan, now time.Time) bool {
		if !domain.LoanStatus(loan.Status).Withdrawable() {
			return false
		}
		loan.Status = string(domain.LoanClosed)
		loan.ClosedAt = &now
		return true
	})
}

func (s *AdminService) applyLoans(ctx context.Context, principal *domain.Principal, ids []uint, action string, transition loanTransition) (*BulkResult, error) {
	if !principal.IsStaff() {
		return nil, domain.ErrPermissionDenied
	}

	result := &BulkResult{Processed: []uint{}, Skipped: []uint{}}
	for _, id := range uniqueIDs(ids) {
		changed := false
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			loan, err := s.loans.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}

			now := s.now()
			if !transition(loan, now) {
				return nil
			}
			if err := s.loans.Update(ctx, loan); err != nil {
				return err
			}
			changed = true
			return s.audit(ctx, principal, action, domain.EntityLoan, loan.ID, now)
		})
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return result, err
		}

		if !changed {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Processed = append(result.Processed, id)
		metrics.RecordDecision(domain.EntityLoan, action)
	}

	s.log.WithFields(logrus.Fields{
		"admin_id":  principal.UserID,
		"action":    action,
		"processed": len(result.Processed),
		"skipped":   len(result.Skipped),
	}).Info("🏦 Loan bulk action applied")
	return result, nil
}

// ApproveWithdrawals approves PENDING withdrawal requests. The available
// balance is not re-checked; an approval that overdraws the loan is logged.
func (s *AdminService) ApproveWithdrawals(ctx context.Context, principal *domain.Principal, ids []uint) (*BulkResult, error) {
	return s.applyWithdrawals(ctx, principal, ids, domain.WithdrawalApproved, domain.AuditWithdrawalApproved)
}

// RejectWithdrawals rejects PENDING withdrawal requests
func (s *AdminService) RejectWithdrawals(ctx context.Context, principal *domain.Principal, ids []uint) (*BulkResult, error) {
	return s.applyWithdrawals(ctx, principal, ids, domain.WithdrawalRejected, domain.AuditWithdrawalRejected)
}

func (s *AdminService) applyWithdrawals(ctx context.Context, principal *domain.Principal, ids []uint, to domain.WithdrawalStatus, action string) (*BulkResult, error) {
	if !principal.IsStaff() {
		return nil, domain.ErrPermissionDenied
	}

	result := &BulkResult{Processed: []uint{}, Skipped: []uint{}}
	for _, id := range uniqueIDs(ids) {
		changed := false
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			w, err := s.withdrawals.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if domain.WithdrawalStatus(w.Status) != domain.WithdrawalPending {
				return nil
			}

			if to == domain.WithdrawalApproved {
				s.warnIfOverdrawn(ctx, w)
			}

			now := s.now()
			w.Status = string(to)
			w.ProcessedAt = &now
			if err := s.withdrawals.Update(ctx, w); err != nil {
				return err
			}
			changed = true
			return s.audit(ctx, principal, action, domain.EntityWithdrawal, w.ID, now)
		})
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return result, err
		}

		if !changed {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Processed = append(result.Processed, id)
		metrics.RecordDecision(domain.EntityWithdrawal, action)
	}

	s.log.WithFields(logrus.Fields{
		"admin_id":  principal.UserID,
		"action":    action,
		"processed": len(result.Processed),
		"skipped":   len(result.Skipped),
	}).Info("💸 Withdrawal bulk action applied")
	return result, nil
}

// warnIfOverdrawn logs when approving w would take the loan below zero. The
// loan row stays locked until the approval commits.
func (s *AdminService) warnIfOverdrawn(ctx context.Context, w *models.WithdrawalRequest) {
	loan, err := s.loans.GetByIDForUpdate(ctx, w.LoanID)
	if err != nil {
		s.log.WithError(err).WithField("withdrawal_id", w.ID).Warn("⚠️ Could not load loan for balance check")
		return
	}
	withdrawn, err := s.withdrawals.SumApprovedByLoanID(ctx, w.LoanID)
	if err != nil {
		s.log.WithError(err).WithField("withdrawal_id", w.ID).Warn("⚠️ Could not sum approved withdrawals")
		return
	}

	available := loan.Principal().Sub(withdrawn)
	if w.Amount.GreaterThan(available) {
		s.log.WithFields(logrus.Fields{
			"withdrawal_id": w.ID,
			"loan_id":       w.LoanID,
			"amount":        w.Amount.StringFixed(2),
			"available":     available.StringFixed(2),
		}).Warn("⚠️ Approving withdrawal beyond available balance")
	}
}

func (s *AdminService) audit(ctx context.Context, principal *domain.Principal, action, entity string, entityID uint, at time.Time) error {
	return s.audits.Create(ctx, &models.AuditLog{
		AdminID:    principal.UserID,
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		Timestamp:  at,
	})
}

// ListLoans returns loans for the staff changelist
func (s *AdminService) ListLoans(ctx context.Context, principal *domain.Principal, filter repositories.LoanFilter, params *pagination.Params) ([]*models.Loan, int64, error) {
	if !principal.IsStaff() {
		return nil, 0, domain.ErrPermissionDenied
	}
	return s.loans.List(ctx, filter, params.Offset, params.Limit)
}

// ListWithdrawals returns withdrawal requests for the staff changelist
func (s *AdminService) ListWithdrawals(ctx context.Context, principal *domain.Principal, filter repositories.WithdrawalFilter, params *pagination.Params) ([]*models.WithdrawalRequest, int64, error) {
	if !principal.IsStaff() {
		return nil, 0, domain.ErrPermissionDenied
	}
	return s.withdrawals.List(ctx, filter, params.Offset, params.Limit)
}

// ListAuditLogs returns the audit trail, newest first
func (s *AdminService) ListAuditLogs(ctx context.Context, principal *domain.Principal, params *pagination.Params) ([]*models.AuditLog, int64, error) {
	if !principal.IsStaff() {
		return nil, 0, domain.ErrPermissionDenied
	}
	return s.audits.List(ctx, params.Offset, params.Limit)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
