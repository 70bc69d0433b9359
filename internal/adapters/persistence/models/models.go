package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Accounts & Sessions
// ============================================================

// User represents users table
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	FullName        string         `gorm:"size:255;not null" json:"full_name"`
	Email           string         `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Phone           string         `gorm:"uniqueIndex;size:32;not null" json:"phone"`
	Password        string         `gorm:"size:255;not null" json:"-"`
	Role            string         `gorm:"size:20;not null" json:"role"`
	IsActive        bool           `gorm:"not null" json:"is_active"`
	IsStaff         bool           `gorm:"not null" json:"is_staff"`
	EmailVerified   bool           `gorm:"not null" json:"email_verified"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"`
	LastLoginAt     *time.Time     `json:"last_login_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Optional one-to-one relations; nil means the step was never completed.
	Profile    *Profile    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	BankDetail *BankDetail `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"bank_detail,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID              uint       `json:"id"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"is_active"`
	IsStaff         bool       `json:"is_staff"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:              u.ID,
		FullName:        u.FullName,
		Email:           u.Email,
		Phone:           u.Phone,
		Role:            u.Role,
		IsActive:        u.IsActive,
		IsStaff:         u.IsStaff,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
	}
}

// Session represents sessions table. Only the SHA-256 of the opaque token is stored.
type Session struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	IPAddress string     `gorm:"size:64" json:"ip_address"`
	UserAgent string     `gorm:"size:255" json:"user_agent"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// ============================================================
// Onboarding
// ============================================================

// Profile represents profiles table
type Profile struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	StreetAddress    string          `gorm:"size:255" json:"street_address"`
	City             string          `gorm:"size:100" json:"city"`
	State            string          `gorm:"size:100" json:"state"`
	PostalCode       string          `gorm:"size:20" json:"postal_code"`
	Nationality      string          `gorm:"size:100" json:"nationality"`
	MaritalStatus    string          `gorm:"size:20" json:"marital_status"`
	HousingStatus    string          `gorm:"size:20" json:"housing_status"`
	DateOfBirth      *time.Time      `gorm:"type:date" json:"dob"`
	EmploymentStatus string          `gorm:"size:100" json:"employment_status"`
	MonthlyIncome    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_income"`
	Completed        bool            `gorm:"not null" json:"completed"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// BankDetail represents bank_details table
type BankDetail struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	BankName      string    `gorm:"size:100;not null" json:"bank_name"`
	AccountName   string    `gorm:"size:100;not null" json:"account_name"`
	AccountNumber string    `gorm:"size:64;not null" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BankDetail) TableName() string {
	return "bank_details"
}

// AccountLast4 returns the trailing four characters of the account number
func (b *BankDetail) AccountLast4() string {
	if len(b.AccountNumber) <= 4 {
		return b.AccountNumber
	}
	return b.AccountNumber[len(b.AccountNumber)-4:]
}

// BankDetailResponse DTO (account number masked)
type BankDetailResponse struct {
	ID           uint      `json:"id"`
	BankName     string    `json:"bank_name"`
	AccountName  string    `json:"account_name"`
	AccountLast4 string    `json:"account_last4"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (b *BankDetail) ToResponse() *BankDetailResponse {
	return &BankDetailResponse{
		ID:           b.ID,
		BankName:     b.BankName,
		AccountName:  b.AccountName,
		AccountLast4: b.AccountLast4(),
		UpdatedAt:    b.UpdatedAt,
	}
}

// ============================================================
// Loans & Withdrawals
// ============================================================

// Loan represents loans table
type Loan struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	UserID          uint                `gorm:"index;not null" json:"user_id"`
	RequestedAmount decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"requested_amount"`
	ApprovedAmount  decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"approved_amount"`
	TermMonths      int                 `gorm:"not null" json:"term_months"`
	Status          string              `gorm:"size:20;not null;index" json:"status"`
	Purpose         string              `gorm:"column:loan_purpose;size:255" json:"loan_purpose"`
	MonthlyIncome   decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"monthly_income"`
	Note            string              `gorm:"type:text" json:"note"`
	ApprovedAt      *time.Time          `json:"approved_at"`
	ClosedAt        *time.Time          `json:"closed_at"`
	CreatedAt       time.Time           `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// Principal is the amount withdrawals are drawn against: the approved
// amount when set, the requested amount otherwise.
func (l *Loan) Principal() decimal.Decimal {
	if l.ApprovedAmount.Valid {
		return l.ApprovedAmount.Decimal
	}
	return l.RequestedAmount
}

// WithdrawalRequest represents withdrawal_requests table
type WithdrawalRequest struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	LoanID      uint            `gorm:"index;not null" json:"loan_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      string          `gorm:"size:20;not null;index" json:"status"`
	Note        string          `gorm:"type:text" json:"note"`
	ProcessedAt *time.Time      `json:"processed_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Loan *Loan `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// LoanAgreement represents loan_agreements table
type LoanAgreement struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	LoanID          uint            `gorm:"index;not null" json:"loan_id"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	BorrowerName    string          `gorm:"size:255;not null" json:"borrower_name"`
	RequestedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"requested_amount"`
	AccountLast4    string          `gorm:"size:8" json:"account_last4"`
	SignatureText   string          `gorm:"size:255" json:"signature_text"`
	SignedAt        *time.Time      `json:"signed_at"`
	IPAddress       string          `gorm:"size:64" json:"ip_address"`
	UserAgent       string          `gorm:"type:text" json:"user_agent"`
	TermsVersion    string          `gorm:"size:64" json:"terms_version"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Loan *Loan `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
}

func (LoanAgreement) TableName() string {
	return "loan_agreements"
}

// ============================================================
// Audit
// ============================================================

// AuditLog represents audit_logs table. Rows are never updated or deleted.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminID    uint      `gorm:"index;not null" json:"admin_id"`
	Action     string    `gorm:"size:50;not null" json:"action"`
	EntityType string    `gorm:"size:50;not null" json:"entity_type"`
	EntityID   uint      `gorm:"not null" json:"entity_id"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AutoMigrate creates or updates every table used by the application
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Session{},
		&Profile{},
		&BankDetail{},
		&Loan{},
		&WithdrawalRequest{},
		&LoanAgreement{},
		&AuditLog{},
	)
}
