package repositories

import (
	"context"
	"time"

	"loanportal/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate gets a user by ID and locks the row until the transaction ends
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := forUpdate(conn(ctx, r.db)).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetWithOnboarding gets a user with profile and bank detail loaded
func (r *userRepository) GetWithOnboarding(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).
		Preload("Profile").
		Preload("BankDetail").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user (relations are saved through their own repositories)
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(user).Error
}

// MarkEmailVerified flags the email as verified and activates the account
func (r *userRepository) MarkEmailVerified(ctx context.Context, id uint, at time.Time) error {
	return conn(ctx, r.db).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email_verified":    true,
			"email_verified_at": at,
			"is_active":         true,
		}).Error
}

// TouchLastLogin stamps the last successful login
func (r *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return conn(ctx, r.db).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Unscoped().Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ExistsByPhone checks if a normalized phone number exists
func (r *userRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Unscoped().Where("phone = ?", phone).Count(&count).Error
	return count > 0, err
}
