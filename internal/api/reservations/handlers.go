// internal/api/reservations/handlers.go
package reservations

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sysora/frontdesk/internal/api/apiutil"
	"github.com/sysora/frontdesk/internal/pricing"
	reservationsvc "github.com/sysora/frontdesk/internal/reservations"
)

type Handlers struct {
	service     *reservationsvc.Service
	phoneRegion string
}

func NewHandlers(service *reservationsvc.Service, phoneRegion string) *Handlers {
	if strings.TrimSpace(phoneRegion) == "" {
		phoneRegion = reservationsvc.DefaultPhoneRegion
	}
	return &Handlers{service: service, phoneRegion: phoneRegion}
}

type guestResponse struct {
	reservationsvc.Guest
	FullName     string `json:"fullName"`
	DisplayPhone string `json:"displayPhone"`
}

// GET /api/v1/guests
func (h *Handlers) HandleGuests(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	guests, err := h.service.Guests(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]guestResponse, 0, len(guests))
	for _, g := range guests {
		out = append(out, guestResponse{Guest: g, FullName: g.FullName(), DisplayPhone: g.DisplayPhone(h.phoneRegion)})
	}
	apiutil.WriteData(w, r, http.StatusOK, map[string]any{"guests": out})
}

// GET /api/v1/rooms?checkIn=&checkOut=
func (h *Handlers) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	checkIn := strings.TrimSpace(r.URL.Query().Get("checkIn"))
	checkOut := strings.TrimSpace(r.URL.Query().Get("checkOut"))
	if (checkIn == "") != (checkOut == "") {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "checkOut", Reason: "must be given together with checkIn"})
		return
	}
	if checkIn != "" {
		in, errIn := pricing.ParseDate(checkIn)
		out, errOut := pricing.ParseDate(checkOut)
		if errIn != nil || errOut != nil {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "checkIn", Reason: "must be a YYYY-MM-DD date"})
			return
		}
		checkIn, checkOut = in.String(), out.String()
	}

	rooms, err := h.service.AvailableRooms(r.Context(), checkIn, checkOut)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, map[string]any{"rooms": rooms})
}

// GET /api/v1/reservations/new
func (h *Handlers) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	f := h.service.NewForm()
	if checkIn := strings.TrimSpace(r.URL.Query().Get("checkIn")); checkIn != "" {
		f = f.WithCheckIn(checkIn)
	}
	apiutil.WriteData(w, r, http.StatusOK, f)
}

// POST /api/v1/reservations/quote
func (h *Handlers) HandleQuote(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodPost) {
		return
	}
	var form reservationsvc.Form
	if err := apiutil.DecodeJSON(r, &form); err != nil {
		apiutil.WriteFailure(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	preview, err := h.service.Quote(r.Context(), form)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, preview)
}

// POST /api/v1/reservations
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodPost) {
		return
	}
	logger := log.Ctx(r.Context())

	var form reservationsvc.Form
	if err := apiutil.DecodeJSON(r, &form); err != nil {
		apiutil.WriteFailure(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	result, err := h.service.Create(r.Context(), form)
	if err != nil {
		var fieldErrs reservationsvc.FieldErrors
		if errors.As(err, &fieldErrs) {
			logger.Debug().Int("errors", len(fieldErrs)).Msg("Reservation form rejected")
			apiutil.WriteFailure(w, r, http.StatusBadRequest, "Invalid reservation", fieldErrs)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusCreated, result)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, reservationsvc.ErrNoBackend) {
		err = apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Reservations are not available", Err: err}
	}
	apiutil.WriteError(w, r, err)
}
