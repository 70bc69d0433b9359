package repositories

import (
	"context"

	"loanportal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// auditLogRepository implements AuditLogRepository interface
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Create appends an audit entry
func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return conn(ctx, r.db).Create(entry).Error
}

// List lists audit entries with pagination, newest first
func (r *auditLogRepository) List(ctx context.Context, offset, limit int) ([]*models.AuditLog, int64, error) {
	var entries []*models.AuditLog
	var total int64

	if err := conn(ctx, r.db).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := conn(ctx, r.db).
		Order("timestamp DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error

	return entries, total, err
}

// agreementRepository implements AgreementRepository interface
type agreementRepository struct {
	db *gorm.DB
}

// NewAgreementRepository creates a new loan agreement repository
func NewAgreementRepository(db *gorm.DB) AgreementRepository {
	return &agreementRepository{db: db}
}

// Create stores a signed agreement
func (r *agreementRepository) Create(ctx context.Context, agreement *models.LoanAgreement) error {
	return conn(ctx, r.db).Omit("Loan").Create(agreement).Error
}

// GetByID gets an agreement by ID
func (r *agreementRepository) GetByID(ctx context.Context, id uint) (*models.LoanAgreement, error) {
	var agreement models.LoanAgreement
	err := conn(ctx, r.db).Where("id = ?", id).First(&agreement).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}
