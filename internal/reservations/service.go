package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sysora/frontdesk/internal/pricing"
)

var ErrNoBackend = errors.New("reservations backend not configured")

// Preview is what the form shows while it is being filled in: the quote for
// the selected room and the errors that still block submission.
type Preview struct {
	Form   Form          `json:"form"`
	Room   *Room         `json:"room,omitempty"`
	Quote  pricing.Quote `json:"quote"`
	Errors FieldErrors   `json:"errors,omitempty"`
}

func (p Preview) Valid() bool { return len(p.Errors) == 0 }

type Result struct {
	Reservation json.RawMessage `json:"reservation"`
	Submission  Submission      `json:"submission"`
	Quote       pricing.Quote   `json:"quote"`
}

const confirmTimeout = 15 * time.Second

// Confirmation is what a Confirmer learns about an accepted reservation.
type Confirmation struct {
	Guest      Guest
	Room       Room
	Submission Submission
	Quote      pricing.Quote
}

// Confirmer is told about each reservation the backend accepts, off the
// request path.
type Confirmer interface {
	ReservationConfirmed(ctx context.Context, c Confirmation) error
}

type Service struct {
	backend   Backend
	clock     clockwork.Clock
	location  *time.Location
	logger    zerolog.Logger
	confirmer Confirmer
	pending   sync.WaitGroup
}

type Option func(*Service)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the hotel's time zone, which decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfirmer(c Confirmer) Option {
	return func(s *Service) {
		s.confirmer = c
	}
}

func NewService(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		clock:    clockwork.NewRealClock(),
		location: time.Local,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "reservations").Logger()
	return s
}

// Today is the current civil date at the hotel.
func (s *Service) Today() pricing.Date {
	return pricing.DateOf(s.clock.Now().In(s.location))
}

// NewForm is the empty form for today.
func (s *Service) NewForm() Form {
	return NewForm(s.Today())
}

func (s *Service) Guests(ctx context.Context) ([]Guest, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	return s.backend.ListGuests(ctx)
}

func (s *Service) AvailableRooms(ctx context.Context, checkIn, checkOut string) ([]Room, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	return s.backend.ListAvailableRooms(ctx, checkIn, checkOut)
}

// Quote validates the form and prices it against the selected room, which
// must be among the rooms available for the stay.
func (s *Service) Quote(ctx context.Context, f Form) (Preview, error) {
	f = f.withDefaults()
	preview := Preview{Form: f, Errors: Validate(f, s.Today())}

	if f.RoomID != "" && preview.Errors.Field("checkInDate") == "" && preview.Errors.Field("checkOutDate") == "" {
		rooms, err := s.AvailableRooms(ctx, f.CheckInDate, f.CheckOutDate)
		if err != nil {
			return Preview{}, err
		}
		if room, ok := findRoom(rooms, f.RoomID); ok {
			preview.Room = &room
			preview.Quote = QuoteForm(f, room)
		} else {
			preview.Errors.add("roomId", "is not available for the selected dates")
		}
	}
	if preview.Room == nil {
		preview.Quote = pricing.ComputeQuote(decimal.Zero, f.CheckInDate, f.CheckOutDate, f.PaidAmount.Decimal())
	}
	return preview, nil
}

// Create validates, prices and submits the form. Validation failures come
// back as FieldErrors without contacting the reservations endpoint.
func (s *Service) Create(ctx context.Context, f Form) (*Result, error) {
	preview, err := s.Quote(ctx, f)
	if err != nil {
		return nil, err
	}
	if !preview.Valid() {
		return nil, preview.Errors
	}

	sub, quote := BuildSubmission(preview.Form, *preview.Room)
	created, err := s.backend.CreateReservation(ctx, sub)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("guest_id", sub.GuestID).
			Str("room_id", sub.RoomID).
			Msg("Reservation submission failed")
		return nil, err
	}

	s.logger.Info().
		Str("guest_id", sub.GuestID).
		Str("room_id", sub.RoomID).
		Str("check_in", sub.CheckInDate).
		Str("check_out", sub.CheckOutDate).
		Str("total", quote.Total.String()).
		Str("payment_status", sub.PaymentStatus).
		Msg("Reservation created")

	s.confirm(ctx, Confirmation{Room: *preview.Room, Submission: sub, Quote: quote})
	return &Result{Reservation: created, Submission: sub, Quote: quote}, nil
}

// confirm resolves the guest and hands c to the confirmer in the background.
// Failures are logged only; the reservation already exists.
func (s *Service) confirm(ctx context.Context, c Confirmation) {
	if s.confirmer == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
		defer cancel()

		logger := s.logger.With().Str("guest_id", c.Submission.GuestID).Logger()
		guests, err := s.backend.ListGuests(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load guest for confirmation")
			return
		}
		guest, ok := findGuest(guests, c.Submission.GuestID)
		if !ok {
			logger.Warn().Msg("Guest not found for confirmation")
			return
		}
		c.Guest = guest
		if err := s.confirmer.ReservationConfirmed(ctx, c); err != nil {
			logger.Warn().Err(err).Msg("Reservation confirmation failed")
			return
		}
		logger.Debug().Msg("Reservation confirmation sent")
	}()
}

// Wait blocks until background confirmations have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}
