package email

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sysora/frontdesk/internal/reservations"
)

const confirmationEmailTimeout = 5 * time.Second

var ErrNoRecipient = errors.New("guest has no email address")

// ReservationMailer emails guests when their reservation is accepted.
type ReservationMailer struct {
	sender    Sender
	hotelName string
	currency  string
}

func NewReservationMailer(sender Sender, hotelName, currencyCode string) *ReservationMailer {
	return &ReservationMailer{sender: sender, hotelName: hotelName, currency: currencyCode}
}

// ReservationConfirmed sends the confirmation for c. It is called off the
// request path; the send gets its own timeout.
func (m *ReservationMailer) ReservationConfirmed(ctx context.Context, c reservations.Confirmation) error {
	if m == nil || m.sender == nil {
		return nil
	}
	recipient := strings.TrimSpace(c.Guest.Email)
	if recipient == "" {
		return ErrNoRecipient
	}

	msg := BuildReservationConfirmation(ReservationDetails{
		HotelName:     m.hotelName,
		GuestName:     c.Guest.FullName(),
		RoomNumber:    c.Room.Number,
		RoomType:      c.Room.Type,
		CheckIn:       c.Submission.CheckInDate,
		CheckOut:      c.Submission.CheckOutDate,
		Adults:        c.Submission.Adults,
		Children:      c.Submission.Children,
		Quote:         c.Quote,
		Currency:      m.currency,
		PaymentMethod: c.Submission.PaymentMethod,
	})

	sendCtx, cancel := newEmailContext(ctx, confirmationEmailTimeout)
	defer cancel()
	return m.sender.Send(sendCtx, recipient, msg.Subject, msg.Body)
}
