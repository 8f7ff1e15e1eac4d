package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sysora/frontdesk/internal/currency"
	"github.com/sysora/frontdesk/internal/pricing"
)

type Message struct {
	Subject string
	Body    string
}

type ReservationDetails struct {
	HotelName     string
	GuestName     string
	RoomNumber    string
	RoomType      string
	CheckIn       string
	CheckOut      string
	Adults        int
	Children      int
	Quote         pricing.Quote
	Currency      string
	PaymentMethod string
}

// FormatStayDate renders a YYYY-MM-DD date for a guest to read. Unparseable
// input is returned trimmed.
func FormatStayDate(iso string) string {
	d, err := pricing.ParseDate(iso)
	if err != nil {
		return strings.TrimSpace(iso)
	}
	return d.In(time.UTC).Format("Monday, Jan 2, 2006")
}

func BuildReservationConfirmation(details ReservationDetails) Message {
	hotelName := strings.TrimSpace(details.HotelName)
	if hotelName == "" {
		hotelName = "our hotel"
	}
	guestName := strings.TrimSpace(details.GuestName)
	if guestName == "" {
		guestName = "Guest"
	}
	room := strings.TrimSpace(details.RoomNumber)
	if room == "" {
		room = "TBD"
	}
	if roomType := strings.TrimSpace(details.RoomType); roomType != "" {
		room = fmt.Sprintf("%s (%s)", room, roomType)
	}
	q := details.Quote

	lines := []string{
		fmt.Sprintf("Dear %s,", guestName),
		"",
		fmt.Sprintf("Your reservation at %s is confirmed.", hotelName),
		"",
		fmt.Sprintf("Room: %s", room),
		fmt.Sprintf("Check-in: %s", FormatStayDate(details.CheckIn)),
		fmt.Sprintf("Check-out: %s", FormatStayDate(details.CheckOut)),
		fmt.Sprintf("Nights: %d", q.Nights),
		fmt.Sprintf("Guests: %s", guestCount(details.Adults, details.Children)),
		"",
		fmt.Sprintf("Total: %s", money(q.Total, details.Currency)),
		fmt.Sprintf("Paid: %s", money(q.PaidAmount, details.Currency)),
	}
	if q.Remaining.IsPositive() {
		lines = append(lines, fmt.Sprintf("Balance due at check-in: %s", money(q.Remaining, details.Currency)))
	}
	if method := strings.TrimSpace(details.PaymentMethod); method != "" {
		lines = append(lines, fmt.Sprintf("Payment method: %s", method))
	}

	return Message{
		Subject: fmt.Sprintf("Reservation Confirmed - %s", hotelName),
		Body:    strings.Join(lines, "\n"),
	}
}

func guestCount(adults, children int) string {
	out := plural(adults, "adult", "adults")
	if children > 0 {
		out += ", " + plural(children, "child", "children")
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func money(amount decimal.Decimal, code string) string {
	return currency.Format(amount, code)
}
