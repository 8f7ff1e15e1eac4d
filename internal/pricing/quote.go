// Package pricing derives reservation quotes and payment status from a room
// rate, a stay range and the amount already paid. Every function here is
// total: bad input produces a zero quote, never an error.
package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var taxRate = decimal.RequireFromString("0.10")

// TaxRate is the fixed lodging tax applied to every subtotal.
func TaxRate() decimal.Decimal {
	return taxRate
}

type PaymentStatus string

const (
	StatusUnpaid   PaymentStatus = "unpaid"
	StatusPartial  PaymentStatus = "partial"
	StatusPaid     PaymentStatus = "paid"
	StatusOverpaid PaymentStatus = "overpaid"
)

// WireValue is the value the reservations backend accepts for the status.
// The backend names an unpaid reservation "pending".
func (s PaymentStatus) WireValue() string {
	if s == StatusUnpaid {
		return "pending"
	}
	return string(s)
}

// Quote is a derived value; it is recomputed on every input change.
type Quote struct {
	Nights      int             `json:"nights"`
	NightlyRate decimal.Decimal `json:"nightlyRate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	Status      PaymentStatus   `json:"status"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// ComputeQuote prices a stay. nightlyRate and paidAmount below zero are
// treated as zero; dates that fail to parse, or a check-out on or before
// check-in, give a zero quote.
func ComputeQuote(nightlyRate decimal.Decimal, checkIn, checkOut string, paidAmount decimal.Decimal) Quote {
	nightlyRate = nonNegative(nightlyRate)
	paidAmount = nonNegative(paidAmount)

	nights := 0
	in, inErr := ParseDate(checkIn)
	out, outErr := ParseDate(checkOut)
	if inErr == nil && outErr == nil {
		nights = Nights(in, out)
	}

	return quoteFor(nights, nightlyRate, paidAmount)
}

// ComputeQuoteForDates is ComputeQuote over already-parsed dates.
func ComputeQuoteForDates(nightlyRate decimal.Decimal, checkIn, checkOut Date, paidAmount decimal.Decimal) Quote {
	return quoteFor(Nights(checkIn, checkOut), nonNegative(nightlyRate), nonNegative(paidAmount))
}

func quoteFor(nights int, nightlyRate, paidAmount decimal.Decimal) Quote {
	subtotal := nightlyRate.Mul(decimal.NewFromInt(int64(nights)))
	tax := subtotal.Mul(taxRate)
	total := subtotal.Add(tax)

	return Quote{
		Nights:      nights,
		NightlyRate: nightlyRate,
		Subtotal:    subtotal,
		TaxRate:     taxRate,
		Tax:         tax,
		Total:       total,
		PaidAmount:  paidAmount,
		Status:      ClassifyPayment(paidAmount, total),
		Remaining:   total.Sub(paidAmount),
	}
}

// ClassifyPayment compares paid against total. Checks run in priority order:
// overpaid, paid, partial, unpaid. Nothing due and nothing paid is paid.
func ClassifyPayment(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThan(total):
		return StatusOverpaid
	case paid.Equal(total):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// CoerceAmount turns a raw form value into a non-negative amount. Empty,
// unparseable and negative input all become zero.
func CoerceAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return nonNegative(amount)
}

// AmountFromFloat converts a JSON number into an amount. NaN, infinities and
// negatives become zero.
func AmountFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// PriceChange compares a reservation's booked total against a new quote for
// edited dates or room.
type PriceChange struct {
	OriginalTotal decimal.Decimal `json:"originalTotal"`
	NewTotal      decimal.Decimal `json:"newTotal"`
	Difference    decimal.Decimal `json:"difference"`
	Nights        int             `json:"nights"`
	RoomRate      decimal.Decimal `json:"roomRate"`
}

// ComputePriceChange reprices an edited reservation. It reports false when
// the edited range has no nights, in which case there is nothing to compare.
func ComputePriceChange(originalTotal, nightlyRate decimal.Decimal, checkIn, checkOut string) (PriceChange, bool) {
	return PriceChangeFor(originalTotal, ComputeQuote(nightlyRate, checkIn, checkOut, decimal.Zero))
}

// PriceChangeFor compares originalTotal against an already computed quote.
func PriceChangeFor(originalTotal decimal.Decimal, q Quote) (PriceChange, bool) {
	if q.Nights <= 0 {
		return PriceChange{}, false
	}
	originalTotal = nonNegative(originalTotal)
	return PriceChange{
		OriginalTotal: originalTotal,
		NewTotal:      q.Total,
		Difference:    q.Total.Sub(originalTotal),
		Nights:        q.Nights,
		RoomRate:      q.NightlyRate,
	}, true
}
