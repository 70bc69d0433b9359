package services

import (
	"strings"

	"loanportal/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Amounts are stored as decimal(12,2)
var maxAmount = decimal.New(1, 10)

// parseAmount parses a user-supplied decimal into field, recording a
// validation message on failure.
func parseAmount(verr *domain.ValidationError, field, raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.Add(field, "This field is required.")
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		verr.Add(field, "Enter a number.")
		return decimal.Zero, false
	}
	if !d.Equal(d.Round(2)) {
		verr.Add(field, "Ensure that there are no more than 2 decimal places.")
		return decimal.Zero, false
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		verr.Add(field, "Ensure that there are no more than 12 digits in total.")
		return decimal.Zero, false
	}
	return d.Round(2), true
}
