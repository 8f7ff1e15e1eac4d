// Package reservations implements the front-desk reservation form: its
// defaults and validation, the price quote shown while it is filled in, and
// the submission to the hotel backend.
package reservations

import (
	"fmt"
	"strings"

	"github.com/sysora/frontdesk/internal/pricing"
)

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"

	DefaultSource = "direct"
)

var paymentMethods = []string{PaymentCash, PaymentCard, PaymentTransfer}

// Form is the reservation form as entered. PaidAmount accepts a number or a
// half-typed string. PaymentStatus is the client's own guess; the status is
// always derived from the quote, so whatever arrives there is dropped.
type Form struct {
	GuestID         string `json:"guestId"`
	RoomID          string `json:"roomId"`
	CheckInDate     string `json:"checkInDate"`
	CheckOutDate    string `json:"checkOutDate"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
	SpecialRequests string `json:"specialRequests"`
	Source          string `json:"source"`
	PaymentMethod   string `json:"paymentMethod"`
	PaidAmount      Amount `json:"paidAmount"`
	PaymentStatus   string `json:"paymentStatus,omitempty"`
}

// NewForm returns the form as it opens: one adult, checking in today and
// out tomorrow, paying cash.
func NewForm(today pricing.Date) Form {
	return Form{
		CheckInDate:   today.String(),
		CheckOutDate:  today.AddDays(1).String(),
		Adults:        1,
		Source:        DefaultSource,
		PaymentMethod: PaymentCash,
	}
}

// WithCheckIn moves the check-in date and puts check-out on the next day.
func (f Form) WithCheckIn(date string) Form {
	f.CheckInDate = date
	f.CheckOutDate = pricing.NextDayISO(date)
	return f
}

// withDefaults fills the fields a client may omit.
func (f Form) withDefaults() Form {
	f.GuestID = strings.TrimSpace(f.GuestID)
	f.RoomID = strings.TrimSpace(f.RoomID)
	f.CheckInDate = strings.TrimSpace(f.CheckInDate)
	f.CheckOutDate = strings.TrimSpace(f.CheckOutDate)
	if strings.TrimSpace(f.Source) == "" {
		f.Source = DefaultSource
	}
	if strings.TrimSpace(f.PaymentMethod) == "" {
		f.PaymentMethod = PaymentCash
	}
	f.PaymentMethod = strings.ToLower(strings.TrimSpace(f.PaymentMethod))
	f.PaymentStatus = ""
	if f.Children < 0 {
		f.Children = 0
	}
	return f
}

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// FieldErrors holds at most one error per field, in form order.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return "invalid reservation: " + strings.Join(parts, "; ")
}

// Field returns the reason recorded for field, or "".
func (e FieldErrors) Field(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Reason
		}
	}
	return ""
}

func (e *FieldErrors) add(field, reason string) {
	if e.Field(field) != "" {
		return
	}
	*e = append(*e, FieldError{Field: field, Reason: reason})
}

// Validate checks the form against today's date. It returns nil when the
// form can be submitted.
func Validate(f Form, today pricing.Date) FieldErrors {
	f = f.withDefaults()
	var errs FieldErrors

	if f.GuestID == "" {
		errs.add("guestId", "is required")
	}
	if f.RoomID == "" {
		errs.add("roomId", "is required")
	}

	checkIn, inErr := parseFormDate(f.CheckInDate)
	checkOut, outErr := parseFormDate(f.CheckOutDate)
	if inErr != nil {
		errs.add("checkInDate", inErr.Error())
	}
	if outErr != nil {
		errs.add("checkOutDate", outErr.Error())
	}
	if inErr == nil && outErr == nil {
		if !checkOut.After(checkIn) {
			errs.add("checkOutDate", "must be after checkInDate")
		}
		if checkIn.Before(today) {
			errs.add("checkInDate", "cannot be in the past")
		}
	}

	if f.Adults < 1 {
		errs.add("adults", "must be at least 1")
	}
	if !knownPaymentMethod(f.PaymentMethod) {
		errs.add("paymentMethod", "must be one of "+strings.Join(paymentMethods, ", "))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func parseFormDate(raw string) (pricing.Date, error) {
	if raw == "" {
		return pricing.Date{}, fmt.Errorf("is required")
	}
	d, err := pricing.ParseDate(raw)
	if err != nil {
		return pricing.Date{}, fmt.Errorf("must be a valid date")
	}
	return d, nil
}

func knownPaymentMethod(method string) bool {
	for _, m := range paymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
