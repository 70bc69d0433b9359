package domain

import (
	"errors"
	"sort"
	"strings"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Account errors
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrEmailNotVerified        = errors.New("email address not verified")
	ErrUserInactive            = errors.New("user account is inactive")
	ErrSessionInvalid          = errors.New("session invalid or expired")
	ErrInvalidVerificationLink = errors.New("verification link is invalid or has expired")
)

// Onboarding and loan errors
var (
	ErrProfileIncomplete  = errors.New("profile incomplete")
	ErrBankDetailMissing  = errors.New("bank detail missing")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrLoanAlreadyOpen    = errors.New("loan already in progress")
	ErrNoWithdrawableLoan = errors.New("no approved or active loan")
	ErrAgreementNotFound  = errors.New("loan agreement not found")
)

// Notification errors
var (
	ErrDeliveryFailed = errors.New("email delivery failed")
)

// ValidationError carries field-level messages. Nothing is persisted when
// one is returned.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty validation error
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// FieldError is a shortcut for a single-field validation error.
func FieldError(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// Add records a message for field, keeping the first one reported.
func (v *ValidationError) Add(field, message string) {
	if _, exists := v.Fields[field]; exists {
		return
	}
	v.Fields[field] = message
}

// Merge copies messages from a plain field map.
func (v *ValidationError) Merge(fields map[string]string) {
	for field, message := range fields {
		v.Add(field, message)
	}
}

// HasErrors reports whether any field failed.
func (v *ValidationError) HasErrors() bool {
	return len(v.Fields) > 0
}

// OrNil returns v when it carries errors, nil otherwise.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
