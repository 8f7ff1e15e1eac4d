package reservations

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/shopspring/decimal"
)

// DefaultPhoneRegion is used to read guest numbers stored without a country
// code.
const DefaultPhoneRegion = "DZ"

type Guest struct {
	ID          string `json:"_id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality,omitempty"`
}

func (g Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// DisplayPhone formats the guest's number in international form, reading
// national numbers in region. Numbers that do not parse are returned as
// stored.
func (g Guest) DisplayPhone(region string) string {
	raw := strings.TrimSpace(g.Phone)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

type Room struct {
	ID           string          `json:"_id"`
	Number       string          `json:"number"`
	Type         string          `json:"type"`
	Floor        int             `json:"floor,omitempty"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	MaxOccupancy int             `json:"maxOccupancy,omitempty"`
	Status       string          `json:"status,omitempty"`
}

func findRoom(rooms []Room, id string) (Room, bool) {
	for _, room := range rooms {
		if room.ID == id {
			return room, true
		}
	}
	return Room{}, false
}

func findGuest(guests []Guest, id string) (Guest, bool) {
	for _, g := range guests {
		if g.ID == id {
			return g, true
		}
	}
	return Guest{}, false
}
