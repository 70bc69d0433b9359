package memory

import (
	"context"
	"time"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/core/domain"

	"github.com/shopspring/decimal"
)

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(_ context.Context, loan *models.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loan.ID = r.s.nextID("loans")
	r.s.stamp(&loan.CreatedAt)
	loan.UpdatedAt = loan.CreatedAt
	row := *loan
	row.User = nil
	r.s.loans[loan.ID] = row
	return nil
}

func (r *loanRepo) GetByID(_ context.Context, id uint) (*models.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	loan, ok := r.s.loans[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &loan, nil
}

func (r *loanRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *loanRepo) GetLatestByUserID(_ context.Context, userID uint) (*models.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var mine []models.Loan
	for _, loan := range r.s.loans {
		if loan.UserID == userID {
			mine = append(mine, loan)
		}
	}
	if len(mine) == 0 {
		return nil, repositories.ErrNotFound
	}
	newestFirst(mine, func(l models.Loan) (time.Time, uint) { return l.CreatedAt, l.ID })
	return &mine[0], nil
}

func (r *loanRepo) ExistsOpenByUserID(_ context.Context, userID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, loan := range r.s.loans {
		if loan.UserID == userID && domain.LoanStatus(loan.Status).IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r *loanRepo) Update(_ context.Context, loan *models.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.loans[loan.ID]; !ok {
		return repositories.ErrNotFound
	}
	loan.UpdatedAt = r.s.now()
	row := *loan
	row.User = nil
	r.s.loans[loan.ID] = row
	return nil
}

func (r *loanRepo) List(_ context.Context, filter repositories.LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []models.Loan
	for _, loan := range r.s.loans {
		if filter.UserID != 0 && loan.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		matched = append(matched, loan)
	}
	newestFirst(matched, func(l models.Loan) (time.Time, uint) { return l.CreatedAt, l.ID })

	out := make([]*models.Loan, 0, limit)
	for _, loan := range page(matched, offset, limit) {
		if u, ok := r.s.users[loan.UserID]; ok {
			loan.User = &u
		}
		out = append(out, &loan)
	}
	return out, int64(len(matched)), nil
}

type withdrawalRepo struct{ s *Store }

func (r *withdrawalRepo) Create(_ context.Context, w *models.WithdrawalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w.ID = r.s.nextID("withdrawal_requests")
	r.s.stamp(&w.CreatedAt)
	row := *w
	row.Loan = nil
	r.s.withdrawals[w.ID] = row
	return nil
}

func (r *withdrawalRepo) GetByIDForUpdate(_ context.Context, id uint) (*models.WithdrawalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &w, nil
}

func (r *withdrawalRepo) Update(_ context.Context, w *models.WithdrawalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.withdrawals[w.ID]; !ok {
		return repositories.ErrNotFound
	}
	row := *w
	row.Loan = nil
	r.s.withdrawals[w.ID] = row
	return nil
}

func (r *withdrawalRepo) ListByLoanID(_ context.Context, loanID uint) ([]*models.WithdrawalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []models.WithdrawalRequest
	for _, w := range r.s.withdrawals {
		if w.LoanID == loanID {
			matched = append(matched, w)
		}
	}
	newestFirst(matched, func(w models.WithdrawalRequest) (time.Time, uint) { return w.CreatedAt, w.ID })

	out := make([]*models.WithdrawalRequest, 0, len(matched))
	for _, w := range matched {
		out = append(out, &w)
	}
	return out, nil
}

func (r *withdrawalRepo) SumApprovedByLoanID(_ context.Context, loanID uint) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := decimal.Zero
	for _, w := range r.s.withdrawals {
		if w.LoanID == loanID && w.Status == string(domain.WithdrawalApproved) {
			total = total.Add(w.Amount)
		}
	}
	return total, nil
}

func (r *withdrawalRepo) List(_ context.Context, filter repositories.WithdrawalFilter, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []models.WithdrawalRequest
	for _, w := range r.s.withdrawals {
		if filter.LoanID != 0 && w.LoanID != filter.LoanID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		matched = append(matched, w)
	}
	newestFirst(matched, func(w models.WithdrawalRequest) (time.Time, uint) { return w.CreatedAt, w.ID })

	out := make([]*models.WithdrawalRequest, 0, limit)
	for _, w := range page(matched, offset, limit) {
		out = append(out, &w)
	}
	return out, int64(len(matched)), nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry.ID = r.s.nextID("audit_logs")
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.s.now()
	}
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

func (r *auditRepo) List(_ context.Context, offset, limit int) ([]*models.AuditLog, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]models.AuditLog, len(r.s.audits))
	copy(all, r.s.audits)
	newestFirst(all, func(a models.AuditLog) (time.Time, uint) { return a.Timestamp, a.ID })

	out := make([]*models.AuditLog, 0, limit)
	for _, entry := range page(all, offset, limit) {
		out = append(out, &entry)
	}
	return out, int64(len(all)), nil
}

type agreementRepo struct{ s *Store }

func (r *agreementRepo) Create(_ context.Context, agreement *models.LoanAgreement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	agreement.ID = r.s.nextID("loan_agreements")
	r.s.stamp(&agreement.CreatedAt)
	row := *agreement
	row.Loan = nil
	r.s.agreements[agreement.ID] = row
	return nil
}

func (r *agreementRepo) GetByID(_ context.Context, id uint) (*models.LoanAgreement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	agreement, ok := r.s.agreements[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &agreement, nil
}
