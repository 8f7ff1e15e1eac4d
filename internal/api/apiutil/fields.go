package apiutil

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sysora/frontdesk/internal/pricing"
)

// ParseAmountQuery reads a money amount from the query string. A missing
// value is zero; anything else must be a non-negative decimal.
func ParseAmountQuery(r *http.Request, field string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(field))
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, FieldError{Field: field, Reason: "must be a non-negative amount"}
	}
	return amount, nil
}

// ParseDateQuery reads a required YYYY-MM-DD date from the query string.
func ParseDateQuery(r *http.Request, field string) (pricing.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(field))
	if raw == "" {
		return pricing.Date{}, FieldError{Field: field, Reason: "is required"}
	}
	d, err := pricing.ParseDate(raw)
	if err != nil {
		return pricing.Date{}, FieldError{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return d, nil
}
