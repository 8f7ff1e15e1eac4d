package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sysora/frontdesk/internal/hotelapi"
)

type fakeBackend struct {
	rooms      []Room
	guests     []Guest
	roomsErr   error
	createErr  error
	submitted  []Submission
	roomsQuery [2]string
}

func (b *fakeBackend) ListGuests(ctx context.Context) ([]Guest, error) {
	return b.guests, nil
}

func (b *fakeBackend) ListAvailableRooms(ctx context.Context, checkIn, checkOut string) ([]Room, error) {
	b.roomsQuery = [2]string{checkIn, checkOut}
	return b.rooms, b.roomsErr
}

func (b *fakeBackend) CreateReservation(ctx context.Context, sub Submission) (json.RawMessage, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	b.submitted = append(b.submitted, sub)
	return json.RawMessage(`{"_id":"res-1"}`), nil
}

func newTestService(backend Backend) *Service {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 14, 22, 0, 0, 0, time.UTC))
	return NewService(backend, WithClock(clock), WithLocation(time.UTC), WithLogger(zerolog.Nop()))
}

func TestService_Today(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 14, 23, 30, 0, 0, time.UTC))
	algiers := time.FixedZone("CET", 3600)
	svc := NewService(nil, WithClock(clock), WithLocation(algiers), WithLogger(zerolog.Nop()))

	if got := svc.Today().String(); got != "2026-10-15" {
		t.Errorf("Today = %s, want 2026-10-15 in hotel zone", got)
	}
	if f := svc.NewForm(); f.CheckInDate != "2026-10-15" {
		t.Errorf("NewForm check-in = %s", f.CheckInDate)
	}
}

func TestService_QuoteUsesAvailableRoom(t *testing.T) {
	backend := &fakeBackend{rooms: []Room{{ID: "r1", Number: "101", BasePrice: decimal.NewFromInt(12500)}}}
	svc := newTestService(backend)

	f := validForm()
	f.CheckOutDate = "2026-10-17"
	preview, err := svc.Quote(context.Background(), f)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !preview.Valid() {
		t.Fatalf("Errors = %v", preview.Errors)
	}
	if preview.Room == nil || preview.Room.Number != "101" {
		t.Fatalf("Room = %+v", preview.Room)
	}
	if !preview.Quote.Total.Equal(decimal.NewFromInt(41250)) {
		t.Errorf("Total = %s, want 41250", preview.Quote.Total)
	}
	if backend.roomsQuery != [2]string{"2026-10-14", "2026-10-17"} {
		t.Errorf("rooms query = %v", backend.roomsQuery)
	}
}

func TestService_QuoteRoomNotAvailable(t *testing.T) {
	svc := newTestService(&fakeBackend{rooms: []Room{{ID: "other"}}})

	preview, err := svc.Quote(context.Background(), validForm())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if got := preview.Errors.Field("roomId"); got != "is not available for the selected dates" {
		t.Errorf("roomId reason = %q", got)
	}
	if preview.Quote.Nights != 1 || !preview.Quote.Total.IsZero() {
		t.Errorf("Quote = %+v, want one night at zero", preview.Quote)
	}
}

func TestService_QuoteSkipsRoomLookupForBadDates(t *testing.T) {
	backend := &fakeBackend{roomsErr: errors.New("should not be called")}
	svc := newTestService(backend)

	f := validForm()
	f.CheckInDate = "not-a-date"
	preview, err := svc.Quote(context.Background(), f)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if preview.Errors.Field("checkInDate") == "" {
		t.Error("missing checkInDate error")
	}
}

func TestService_QuoteBackendError(t *testing.T) {
	svc := newTestService(&fakeBackend{roomsErr: hotelapi.ErrUnavailable})
	if _, err := svc.Quote(context.Background(), validForm()); !errors.Is(err, hotelapi.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestService_Create(t *testing.T) {
	backend := &fakeBackend{rooms: []Room{{ID: "r1", BasePrice: decimal.NewFromInt(10000)}}}
	svc := newTestService(backend)

	f := validForm()
	f.PaidAmount = AmountOf("11000")
	result, err := svc.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if string(result.Reservation) != `{"_id":"res-1"}` {
		t.Errorf("Reservation = %s", result.Reservation)
	}
	if len(backend.submitted) != 1 {
		t.Fatalf("submitted %d reservations", len(backend.submitted))
	}
	if got := backend.submitted[0].PaymentStatus; got != "paid" {
		t.Errorf("PaymentStatus = %q, want paid", got)
	}
}

func TestService_CreateInvalidDoesNotSubmit(t *testing.T) {
	backend := &fakeBackend{rooms: []Room{{ID: "r1", BasePrice: decimal.NewFromInt(10000)}}}
	svc := newTestService(backend)

	f := validForm()
	f.Adults = 0
	_, err := svc.Create(context.Background(), f)

	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) || fieldErrs.Field("adults") == "" {
		t.Fatalf("err = %v, want FieldErrors on adults", err)
	}
	if len(backend.submitted) != 0 {
		t.Error("invalid form was submitted")
	}
}

func TestService_NoBackend(t *testing.T) {
	svc := newTestService(nil)
	if _, err := svc.Guests(context.Background()); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Guests err = %v", err)
	}
	if _, err := svc.Create(context.Background(), validForm()); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Create err = %v", err)
	}
}

func TestRemoteBackend(t *testing.T) {
	var gotQuery string
	var gotBody Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case guestsPath:
			_, _ = io.WriteString(w, `{"success":true,"data":{"guests":[{"_id":"g1","firstName":"Amina","lastName":"Benali","phone":"0555123456"}]}}`)
		case roomsPath:
			gotQuery = r.URL.RawQuery
			_, _ = io.WriteString(w, `{"success":true,"data":{"rooms":[{"_id":"r1","number":"101","type":"double","basePrice":12500}]}}`)
		case reservationsPath:
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"res-1"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := hotelapi.New(srv.URL, hotelapi.WithToken("t"), hotelapi.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("hotelapi.New: %v", err)
	}
	backend := NewRemoteBackend(client)
	ctx := context.Background()

	guests, err := backend.ListGuests(ctx)
	if err != nil || len(guests) != 1 || guests[0].FullName() != "Amina Benali" {
		t.Fatalf("ListGuests = %+v, %v", guests, err)
	}

	rooms, err := backend.ListAvailableRooms(ctx, "2026-10-14", "2026-10-15")
	if err != nil || len(rooms) != 1 || !rooms[0].BasePrice.Equal(decimal.NewFromInt(12500)) {
		t.Fatalf("ListAvailableRooms = %+v, %v", rooms, err)
	}
	if gotQuery != "available=true&checkIn=2026-10-14&checkOut=2026-10-15" {
		t.Errorf("rooms query = %q", gotQuery)
	}

	sub, _ := BuildSubmission(validForm(), rooms[0])
	created, err := backend.CreateReservation(ctx, sub)
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if string(created) != `{"_id":"res-1"}` {
		t.Errorf("created = %s", created)
	}
	if gotBody.RoomID != "r1" || gotBody.RoomRate.String() != "12500" {
		t.Errorf("server received %+v", gotBody)
	}
}

type recordingConfirmer struct {
	mu   sync.Mutex
	got  []Confirmation
	fail error
}

func (c *recordingConfirmer) ReservationConfirmed(ctx context.Context, conf Confirmation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, conf)
	return c.fail
}

func TestService_CreateConfirmsGuest(t *testing.T) {
	backend := &fakeBackend{
		rooms:  []Room{{ID: "r1", Number: "204", BasePrice: decimal.NewFromInt(8000)}},
		guests: []Guest{{ID: "g2"}, {ID: "g1", FirstName: "Karim", Email: "karim@example.com"}},
	}
	confirmer := &recordingConfirmer{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC))
	svc := NewService(backend, WithClock(clock), WithLocation(time.UTC), WithLogger(zerolog.Nop()), WithConfirmer(confirmer))

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := svc.Create(ctx, validForm()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cancel()
	svc.Wait()

	if len(confirmer.got) != 1 {
		t.Fatalf("confirmations = %d, want 1", len(confirmer.got))
	}
	got := confirmer.got[0]
	if got.Guest.Email != "karim@example.com" || got.Room.Number != "204" || got.Submission.RoomRate != "8000" {
		t.Errorf("confirmation = %+v", got)
	}
}

func TestService_CreateSkipsConfirmationForUnknownGuest(t *testing.T) {
	backend := &fakeBackend{rooms: []Room{{ID: "r1", BasePrice: decimal.NewFromInt(8000)}}}
	confirmer := &recordingConfirmer{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC))
	svc := NewService(backend, WithClock(clock), WithLocation(time.UTC), WithLogger(zerolog.Nop()), WithConfirmer(confirmer))

	if _, err := svc.Create(context.Background(), validForm()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.Wait()
	if len(confirmer.got) != 0 {
		t.Errorf("confirmations = %d, want 0", len(confirmer.got))
	}
}
