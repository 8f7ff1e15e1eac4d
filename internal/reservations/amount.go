package reservations

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/sysora/frontdesk/internal/pricing"
)

// Amount is a money field as a client sends it: a JSON number, a numeric
// string, empty or null. Anything unusable reads as zero.
type Amount struct {
	value decimal.Decimal
}

// AmountOf coerces a raw form value.
func AmountOf(raw string) Amount {
	return Amount{value: pricing.CoerceAmount(raw)}
}

func (a Amount) Decimal() decimal.Decimal { return a.value }

func (a Amount) String() string { return a.value.String() }

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value.String())
}

// UnmarshalJSON never fails on a well-formed JSON value; a value that is not
// a usable amount becomes zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	a.value = decimal.Zero
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		a.value = pricing.CoerceAmount(s)
	default:
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			a.value = pricing.AmountFromFloat(f)
		}
	}
	return nil
}
