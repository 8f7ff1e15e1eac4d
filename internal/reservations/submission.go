package reservations

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/sysora/frontdesk/internal/pricing"
)

// Submission is the body POSTed to the backend's reservations endpoint.
// Amounts are sent as bare JSON numbers carrying the exact decimal text.
type Submission struct {
	GuestID         string      `json:"guestId"`
	RoomID          string      `json:"roomId"`
	CheckInDate     string      `json:"checkInDate"`
	CheckOutDate    string      `json:"checkOutDate"`
	Adults          int         `json:"adults"`
	Children        int         `json:"children"`
	Infants         int         `json:"infants"`
	RoomRate        json.Number `json:"roomRate"`
	SpecialRequests string      `json:"specialRequests"`
	Notes           string      `json:"notes"`
	Source          string      `json:"source"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaidAmount      json.Number `json:"paidAmount"`
	PaymentStatus   string      `json:"paymentStatus"`
}

// QuoteForm prices the form against room's nightly rate.
func QuoteForm(f Form, room Room) pricing.Quote {
	f = f.withDefaults()
	return pricing.ComputeQuote(room.BasePrice, f.CheckInDate, f.CheckOutDate, f.PaidAmount.Decimal())
}

// BuildSubmission packages a validated form for the backend together with
// the quote it was priced at.
func BuildSubmission(f Form, room Room) (Submission, pricing.Quote) {
	f = f.withDefaults()
	quote := QuoteForm(f, room)

	checkIn, _ := pricing.ParseDate(f.CheckInDate)
	checkOut, _ := pricing.ParseDate(f.CheckOutDate)

	return Submission{
		GuestID:         f.GuestID,
		RoomID:          room.ID,
		CheckInDate:     checkIn.String(),
		CheckOutDate:    checkOut.String(),
		Adults:          max(f.Adults, 1),
		Children:        f.Children,
		Infants:         0,
		RoomRate:        number(quote.NightlyRate),
		SpecialRequests: f.SpecialRequests,
		Notes:           "",
		Source:          f.Source,
		PaymentMethod:   f.PaymentMethod,
		PaidAmount:      number(quote.PaidAmount),
		PaymentStatus:   quote.Status.WireValue(),
	}, quote
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
