package repositories

import (
	"context"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return conn(ctx, r.db).Omit("User").Create(loan).Error
}

// GetByID gets a loan by ID
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := conn(ctx, r.db).Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByIDForUpdate gets a loan and locks its row until the transaction ends
func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := forUpdate(conn(ctx, r.db)).Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetLatestByUserID gets the most recent loan of a user
func (r *loanRepository) GetLatestByUserID(ctx context.Context, userID uint) (*models.Loan, error) {
	var loan models.Loan
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ExistsOpenByUserID checks for a PENDING, APPROVED or ACTIVE loan
func (r *loanRepository) ExistsOpenByUserID(ctx context.Context, userID uint) (bool, error) {
	statuses := make([]string, 0, len(domain.OpenLoanStatuses))
	for _, s := range domain.OpenLoanStatuses {
		statuses = append(statuses, string(s))
	}

	var count int64
	err := conn(ctx, r.db).
		Model(&models.Loan{}).
		Where("user_id = ?", userID).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count > 0, err
}

// Update updates a loan
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return conn(ctx, r.db).Omit("User").Save(loan).Error
}

// List lists loans with pagination, newest first
func (r *loanRepository) List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := func() *gorm.DB {
		q := conn(ctx, r.db).Model(&models.Loan{})
		if filter.UserID != 0 {
			q = q.Where("user_id = ?", filter.UserID)
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
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}
