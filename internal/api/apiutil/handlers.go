package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sysora/frontdesk/internal/hotelapi"
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// Envelope is the response shape shared with the hotel backend.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteData writes a success envelope around data.
func WriteData(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := WriteJSON(w, status, Envelope{Success: true, Data: data}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// WriteFailure writes a failure envelope. data carries optional details such
// as field errors.
func WriteFailure(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	if err := WriteJSON(w, status, Envelope{Success: false, Error: message, Data: data}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// WriteError maps err to a status and writes a failure envelope. Backend
// failures keep the backend's message where it has one.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var handlerErr HandlerError
	var fieldErr FieldError
	var apiErr *hotelapi.APIError
	switch {
	case errors.As(err, &handlerErr):
		if handlerErr.Status >= http.StatusInternalServerError {
			logger.Error().Err(err).Msg(handlerErr.Message)
		}
		WriteFailure(w, r, handlerErr.Status, handlerErr.Message, nil)
	case errors.As(err, &fieldErr):
		WriteFailure(w, r, http.StatusBadRequest, fieldErr.Error(), []FieldError{fieldErr})
	case errors.Is(err, hotelapi.ErrNoToken):
		WriteFailure(w, r, http.StatusUnauthorized, "Authentication required", nil)
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if apiErr.Rejected() {
			status = http.StatusBadRequest
		}
		message := apiErr.Message
		if message == "" {
			message = http.StatusText(status)
		}
		logger.Warn().Err(err).Int("backend_status", apiErr.StatusCode).Msg("Backend rejected request")
		WriteFailure(w, r, status, message, apiErr.Data)
	case errors.Is(err, hotelapi.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Msg("Backend unavailable")
		WriteFailure(w, r, http.StatusBadGateway, "Hotel backend unavailable", nil)
	case errors.Is(err, hotelapi.ErrMalformed):
		logger.Error().Err(err).Msg("Backend returned malformed response")
		WriteFailure(w, r, http.StatusBadGateway, "Hotel backend returned an invalid response", nil)
	default:
		logger.Error().Err(err).Msg("Request failed")
		WriteFailure(w, r, http.StatusInternalServerError, "Internal Server Error", nil)
	}
}

// RequireMethod answers 405 unless r uses one of methods.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	for _, m := range methods {
		w.Header().Add("Allow", m)
	}
	WriteFailure(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	return false
}
