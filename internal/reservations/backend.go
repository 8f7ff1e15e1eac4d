package reservations

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/sysora/frontdesk/internal/hotelapi"
)

const (
	guestsPath       = "/api/guests"
	roomsPath        = "/api/rooms"
	reservationsPath = "/api/reservations"
)

// Backend is the slice of the hotel backend the reservation form needs.
type Backend interface {
	ListGuests(ctx context.Context) ([]Guest, error)
	ListAvailableRooms(ctx context.Context, checkIn, checkOut string) ([]Room, error)
	CreateReservation(ctx context.Context, sub Submission) (json.RawMessage, error)
}

// RemoteBackend talks to the hotel backend over hotelapi.
type RemoteBackend struct {
	client *hotelapi.Client
}

func NewRemoteBackend(client *hotelapi.Client) *RemoteBackend {
	return &RemoteBackend{client: client}
}

func (b *RemoteBackend) ListGuests(ctx context.Context) ([]Guest, error) {
	var data struct {
		Guests []Guest `json:"guests"`
	}
	if err := b.client.Get(ctx, guestsPath, nil, &data); err != nil {
		return nil, err
	}
	if data.Guests == nil {
		data.Guests = []Guest{}
	}
	return data.Guests, nil
}

// ListAvailableRooms lists rooms free for the stay. Empty dates ask for
// every available room.
func (b *RemoteBackend) ListAvailableRooms(ctx context.Context, checkIn, checkOut string) ([]Room, error) {
	query := url.Values{}
	query.Set("available", "true")
	if checkIn != "" && checkOut != "" {
		query.Set("checkIn", checkIn)
		query.Set("checkOut", checkOut)
	}

	var data struct {
		Rooms []Room `json:"rooms"`
	}
	if err := b.client.Get(ctx, roomsPath, query, &data); err != nil {
		return nil, err
	}
	if data.Rooms == nil {
		data.Rooms = []Room{}
	}
	return data.Rooms, nil
}

// CreateReservation posts sub and returns the backend's reservation record
// untouched.
func (b *RemoteBackend) CreateReservation(ctx context.Context, sub Submission) (json.RawMessage, error) {
	var created json.RawMessage
	if err := b.client.Post(ctx, reservationsPath, sub, &created); err != nil {
		return nil, err
	}
	return created, nil
}
