package domain

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanPending  LoanStatus = "PENDING"
	LoanApproved LoanStatus = "APPROVED"
	LoanActive   LoanStatus = "ACTIVE"
	LoanClosed   LoanStatus = "CLOSED"
	LoanRejected LoanStatus = "REJECTED"
)

// OpenLoanStatuses are the states that block a new application.
var OpenLoanStatuses = []LoanStatus{LoanPending, LoanApproved, LoanActive}

// IsOpen reports whether the loan still counts against the one-open-loan rule.
func (s LoanStatus) IsOpen() bool {
	for _, open := range OpenLoanStatuses {
		if s == open {
			return true
		}
	}
	return false
}

// Withdrawable reports whether withdrawals may be requested against a loan in this state.
func (s LoanStatus) Withdrawable() bool {
	return s == LoanApproved || s == LoanActive
}

// WithdrawalStatus is the state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// Audit actions and entity types written by staff decisions
const (
	AuditLoanApproved       = "APPROVED"
	AuditLoanRejected       = "REJECTED"
	AuditLoanActivated      = "ACTIVATED"
	AuditLoanClosed         = "CLOSED"
	AuditWithdrawalApproved = "APPROVED_WITHDRAWAL"
	AuditWithdrawalRejected = "REJECTED_WITHDRAWAL"

	EntityLoan       = "Loan"
	EntityWithdrawal = "WithdrawalRequest"
)

// Choice lists accepted by the profile form
var (
	MaritalStatuses    = []string{"SINGLE", "MARRIED", "PARTNERED", "DIVORCED", "WIDOWED"}
	HousingStatuses    = []string{"OWN", "RENT", "FAMILY", "MILITARY", "OTHER"}
	EmploymentStatuses = []string{"FULL_TIME", "PART_TIME", "SELF_EMPLOYED", "CONTRACTOR", "UNEMPLOYED", "RETIRED", "STUDENT"}
)

// Principal is the authenticated caller of a request. It is resolved from
// the session store and handed explicitly to every service call.
type Principal struct {
	UserID    uint
	Email     string
	FullName  string
	Role      Role
	Staff     bool
	SessionID uint
}

// IsStaff reports whether the principal may perform staff-only actions.
func (p *Principal) IsStaff() bool {
	return p != nil && p.Staff
}

// EmailMessage is an outbound transactional email.
type EmailMessage struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}
