// internal/api/quotes/handlers.go
package quotes

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sysora/frontdesk/internal/api/apiutil"
	"github.com/sysora/frontdesk/internal/currency"
	"github.com/sysora/frontdesk/internal/pricing"
)

type Handlers struct {
	defaultCurrency string
}

func NewHandlers(defaultCurrency string) *Handlers {
	if _, ok := currency.Lookup(defaultCurrency); !ok {
		defaultCurrency = currency.DefaultCode
	}
	return &Handlers{defaultCurrency: strings.ToUpper(defaultCurrency)}
}

type formattedQuote struct {
	NightlyRate string `json:"nightlyRate"`
	Subtotal    string `json:"subtotal"`
	Tax         string `json:"tax"`
	Total       string `json:"total"`
	PaidAmount  string `json:"paidAmount"`
	Remaining   string `json:"remaining"`
}

type quoteResponse struct {
	pricing.Quote
	Currency      string               `json:"currency"`
	PaymentStatus string               `json:"paymentStatus"`
	Formatted     formattedQuote       `json:"formatted"`
	PriceChange   *pricing.PriceChange `json:"priceChange,omitempty"`
}

func newQuoteResponse(q pricing.Quote, code string) quoteResponse {
	format := func(d decimal.Decimal) string { return currency.Format(d, code) }
	return quoteResponse{
		Quote:         q,
		Currency:      code,
		PaymentStatus: q.Status.WireValue(),
		Formatted: formattedQuote{
			NightlyRate: format(q.NightlyRate),
			Subtotal:    format(q.Subtotal),
			Tax:         format(q.Tax),
			Total:       format(q.Total),
			PaidAmount:  format(q.PaidAmount),
			Remaining:   format(q.Remaining),
		},
	}
}

// GET /api/v1/quote?rate=&checkIn=&checkOut=&paid=&currency=&originalTotal=
//
// originalTotal reprices an edited reservation and adds a priceChange.
func (h *Handlers) HandleQuote(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}

	rate, err := apiutil.ParseAmountQuery(r, "rate")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	paid, err := apiutil.ParseAmountQuery(r, "paid")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	checkIn, err := apiutil.ParseDateQuery(r, "checkIn")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	checkOut, err := apiutil.ParseDateQuery(r, "checkOut")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	code := h.defaultCurrency
	if raw := strings.TrimSpace(r.URL.Query().Get("currency")); raw != "" {
		c, ok := currency.Lookup(raw)
		if !ok {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "currency", Reason: "is not supported"})
			return
		}
		code = c.Code
	}

	quote := pricing.ComputeQuoteForDates(rate, checkIn, checkOut, paid)
	resp := newQuoteResponse(quote, code)
	if r.URL.Query().Has("originalTotal") {
		original, err := apiutil.ParseAmountQuery(r, "originalTotal")
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
		if change, ok := pricing.PriceChangeFor(original, quote); ok {
			resp.PriceChange = &change
		}
	}
	apiutil.WriteData(w, r, http.StatusOK, resp)
}

// GET /api/v1/dates/next?date=
func (h *Handlers) HandleNextDate(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "date", Reason: "is required"})
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, map[string]string{
		"date": date,
		"next": pricing.NextDayISO(date),
	})
}

type currenciesResponse struct {
	Default       string              `json:"default"`
	Codes         []string            `json:"codes"`
	Arab          []currency.Currency `json:"arab"`
	International []currency.Currency `json:"international"`
}

// GET /api/v1/currencies
func (h *Handlers) HandleCurrencies(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	groups := currency.ByRegion()
	apiutil.WriteData(w, r, http.StatusOK, currenciesResponse{
		Default:       h.defaultCurrency,
		Codes:         currency.Codes(),
		Arab:          groups[currency.RegionArab],
		International: groups[currency.RegionInternational],
	})
}
