package repositories

import (
	"context"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// withdrawalRepository implements WithdrawalRepository interface
type withdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

// Create creates a new withdrawal request
func (r *withdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	return conn(ctx, r.db).Omit("Loan").Create(w).Error
}

// GetByIDForUpdate gets a withdrawal request and locks its row
func (r *withdrawalRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := forUpdate(conn(ctx, r.db)).Where("id = ?", id).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Update updates a withdrawal request
func (r *withdrawalRepository) Update(ctx context.Context, w *models.WithdrawalRequest) error {
	return conn(ctx, r.db).Omit("Loan").Save(w).Error
}

// ListByLoanID lists withdrawal requests of a loan, newest first
func (r *withdrawalRepository) ListByLoanID(ctx context.Context, loanID uint) ([]*models.WithdrawalRequest, error) {
	var list []*models.WithdrawalRequest
	err := conn(ctx, r.db).
		Where("loan_id = ?", loanID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	return list, err
}

// SumApprovedByLoanID sums the APPROVED withdrawal amounts of a loan
func (r *withdrawalRepository) SumApprovedByLoanID(ctx context.Context, loanID uint) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := conn(ctx, r.db).
		Model(&models.WithdrawalRequest{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("loan_id = ?", loanID).
		Where("status = ?", string(domain.WithdrawalApproved)).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// List lists withdrawal requests with pagination, newest first
func (r *withdrawalRepository) List(ctx context.Context, filter WithdrawalFilter, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	var list []*models.WithdrawalRequest
	var total int64

	query := func() *gorm.DB {
		q := conn(ctx, r.db).Model(&models.WithdrawalRequest{})
		if filter.LoanID != 0 {
			q = q.Where("loan_id = ?", filter.LoanID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error

	return list, total, err
}
