package repositories

import (
	"context"

	"loanportal/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// profileRepository implements ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetByUserID gets the profile owned by a user
func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := conn(ctx, r.db).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save inserts or updates a profile
func (r *profileRepository) Save(ctx context.Context, profile *models.Profile) error {
	return conn(ctx, r.db).Save(profile).Error
}

// bankDetailRepository implements BankDetailRepository interface
type bankDetailRepository struct {
	db *gorm.DB
}

// NewBankDetailRepository creates a new bank detail repository
func NewBankDetailRepository(db *gorm.DB) BankDetailRepository {
	return &bankDetailRepository{db: db}
}

// GetByUserID gets the bank detail owned by a user
func (r *bankDetailRepository) GetByUserID(ctx context.Context, userID uint) (*models.BankDetail, error) {
	var detail models.BankDetail
	err := conn(ctx, r.db).Where("user_id = ?", userID).First(&detail).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// Save inserts or updates a bank detail
func (r *bankDetailRepository) Save(ctx context.Context, detail *models.BankDetail) error {
	return conn(ctx, r.db).Save(detail).Error
}
