// internal/api/dashboard/handlers.go
package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sysora/frontdesk/internal/api/apiutil"
	"github.com/sysora/frontdesk/internal/dashboard"
	"github.com/sysora/frontdesk/internal/ratelimit"
)

const (
	defaultHeartbeat = 25 * time.Second
	refreshAction    = "dashboard_refresh"
	streamBuffer     = 4
)

type Handlers struct {
	service    *dashboard.Service
	limiter    *ratelimit.Limiter
	trustProxy bool
	heartbeat  time.Duration

	done     chan struct{}
	doneOnce sync.Once
}

type Option func(*Handlers)

// WithRefreshLimiter throttles forced refreshes per client IP.
func WithRefreshLimiter(limiter *ratelimit.Limiter, trustProxy bool) Option {
	return func(h *Handlers) {
		h.limiter = limiter
		h.trustProxy = trustProxy
	}
}

// WithHeartbeat sets how often an idle stream sends a keep-alive comment.
func WithHeartbeat(d time.Duration) Option {
	return func(h *Handlers) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

func NewHandlers(service *dashboard.Service, opts ...Option) *Handlers {
	h := &Handlers{service: service, heartbeat: defaultHeartbeat, done: make(chan struct{})}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type statusResponse struct {
	State          dashboard.State `json:"state"`
	LastUpdate     *time.Time      `json:"lastUpdate,omitempty"`
	AutoRefresh    bool            `json:"autoRefresh"`
	LiveSimulation bool            `json:"liveSimulation"`
	Listeners      int             `json:"listeners"`
}

// Shutdown ends every open stream. Register it with
// http.Server.RegisterOnShutdown; Shutdown does not cancel request contexts.
func (h *Handlers) Shutdown() {
	h.doneOnce.Do(func() { close(h.done) })
}

// GET /api/v1/dashboard
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, h.service.GetData(r.Context()))
}

// GET /api/v1/dashboard/status
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	resp := statusResponse{
		State:          h.service.State(),
		AutoRefresh:    h.service.AutoRefreshActive(),
		LiveSimulation: h.service.LiveSimulationActive(),
		Listeners:      h.service.ListenerCount(),
	}
	if last := h.service.LastUpdate(); !last.IsZero() {
		resp.LastUpdate = &last
	}
	apiutil.WriteData(w, r, http.StatusOK, resp)
}

// POST /api/v1/dashboard/refresh
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.limiter != nil {
		ip := ratelimit.GetClientIP(r, h.trustProxy)
		if result := h.limiter.Allow(ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(refreshAction, ip, result)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
			apiutil.WriteFailure(w, r, http.StatusTooManyRequests, "Too many refresh requests", nil)
			return
		}
	}

	h.service.Refresh(r.Context())
	apiutil.WriteData(w, r, http.StatusOK, h.service.GetData(r.Context()))
}

func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}

// POST /api/v1/dashboard/alerts/{id}/read
func (h *Handlers) HandleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodPost) {
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "id", Reason: "is required"})
		return
	}

	snap := h.service.GetData(r.Context())
	found := false
	for _, alert := range snap.Alerts {
		if alert.ID == id {
			found = true
			break
		}
	}
	if !found {
		apiutil.WriteFailure(w, r, http.StatusNotFound, "Alert not found", nil)
		return
	}

	h.service.Apply(dashboard.MarkAlertRead(id))
	apiutil.WriteData(w, r, http.StatusOK, map[string]any{
		"id":           id,
		"unreadAlerts": h.service.GetData(r.Context()).UnreadAlerts(),
	})
}

// GET /api/v1/dashboard/stream
//
// Server-Sent Events: the current snapshot first, then one "dashboard" event
// per update. Slow clients skip intermediate snapshots.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	logger := log.Ctx(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		apiutil.WriteFailure(w, r, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	initial := h.service.GetData(r.Context())
	updates := make(chan dashboard.Snapshot, streamBuffer)
	unsubscribe := h.service.AddListener(func(s dashboard.Snapshot) {
		select {
		case updates <- s:
		default:
			// Drop the oldest queued snapshot so the newest always gets through.
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, initial); err != nil {
		logger.Debug().Err(err).Msg("Dashboard stream closed before first event")
		return
	}
	flusher.Flush()
	logger.Debug().Msg("Dashboard stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Msg("Dashboard stream closed by client")
			return
		case <-h.done:
			logger.Debug().Msg("Dashboard stream closed for shutdown")
			return
		case snap := <-updates:
			if err := writeEvent(w, snap); err != nil {
				logger.Debug().Err(err).Msg("Dashboard stream write failed")
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap dashboard.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", payload)
	return err
}
