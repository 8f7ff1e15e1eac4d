// cmd/server/server.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sysora/frontdesk/internal/api"
	dashboardapi "github.com/sysora/frontdesk/internal/api/dashboard"
	"github.com/sysora/frontdesk/internal/api/quotes"
	reservationsapi "github.com/sysora/frontdesk/internal/api/reservations"
	"github.com/sysora/frontdesk/internal/config"
	"github.com/sysora/frontdesk/internal/dashboard"
	"github.com/sysora/frontdesk/internal/email"
	"github.com/sysora/frontdesk/internal/hotelapi"
	"github.com/sysora/frontdesk/internal/ratelimit"
	"github.com/sysora/frontdesk/internal/reservations"
)

type app struct {
	server    *http.Server
	dashboard *dashboard.Service
	bookings  *reservations.Service
	limiter   *ratelimit.Limiter
	closeOnce sync.Once
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := hotelapi.New(cfg.Backend.BaseURL,
		hotelapi.WithToken(cfg.Backend.Token),
		hotelapi.WithTimeout(cfg.Backend.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	dash, err := dashboard.New(dashboard.NewRemoteFetcher(client),
		dashboard.WithMetrics(dashboard.NewMetrics(registry)),
		dashboard.WithStaleAfter(cfg.Dashboard.StaleAfter),
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard service: %w", err)
	}
	if cfg.Dashboard.AutoRefresh {
		if err := dash.StartAutoRefresh(cfg.Dashboard.RefreshInterval); err != nil {
			_ = dash.Close()
			return nil, fmt.Errorf("dashboard auto-refresh: %w", err)
		}
	}
	if cfg.Dashboard.LiveSimulation {
		if err := dash.StartLiveSimulation(); err != nil {
			_ = dash.Close()
			return nil, fmt.Errorf("dashboard live simulation: %w", err)
		}
	}

	bookingOpts := []reservations.Option{reservations.WithLocation(loc)}
	if cfg.Email.Enabled {
		ses, err := email.NewSESClient(ctx, email.SESConfig{
			Region:          cfg.Email.Region,
			Sender:          cfg.Email.Sender,
			AccessKeyID:     cfg.Email.AccessKeyID,
			SecretAccessKey: cfg.Email.SecretAccessKey,
		})
		if err != nil {
			_ = dash.Close()
			return nil, fmt.Errorf("email client: %w", err)
		}
		mailer := email.NewReservationMailer(ses, cfg.Email.HotelName, cfg.Pricing.Currency)
		bookingOpts = append(bookingOpts, reservations.WithConfirmer(mailer))
	}
	bookings := reservations.NewService(reservations.NewRemoteBackend(client), bookingOpts...)

	limiter := ratelimit.New(&ratelimit.Config{
		Cooldown:   cfg.RateLimit.RefreshCooldown,
		MaxPerHour: cfg.RateLimit.MaxRefreshesPerHour(),
	})

	handlers := routeHandlers{
		dashboard:    dashboardapi.NewHandlers(dash, dashboardapi.WithRefreshLimiter(limiter, cfg.RateLimit.TrustProxy)),
		quotes:       quotes.NewHandlers(cfg.Pricing.Currency),
		reservations: reservationsapi.NewHandlers(bookings, reservations.DefaultPhoneRegion),
	}

	router := http.NewServeMux()
	registerRoutes(router, handlers)
	if cfg.Features.EnableMetrics {
		router.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithMetrics(api.NewHTTPMetrics(registry)),
		api.WithBackendToken,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	server := &http.Server{
		Addr:        ":" + strconv.Itoa(cfg.App.Port),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// The dashboard stream holds its response open.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	server.RegisterOnShutdown(handlers.dashboard.Shutdown)

	return &app{
		server:    server,
		dashboard: dash,
		bookings:  bookings,
		limiter:   limiter,
	}, nil
}

// Close stops background jobs and waits for pending confirmation mail. It
// is safe to call more than once.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		a.bookings.Wait()
		if err := a.dashboard.Close(); err != nil {
			log.Warn().Err(err).Msg("Dashboard shutdown failed")
		}
		a.limiter.Close()
	})
}

type routeHandlers struct {
	dashboard    *dashboardapi.Handlers
	quotes       *quotes.Handlers
	reservations *reservationsapi.Handlers
}

func registerRoutes(mux *http.ServeMux, h routeHandlers) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Dashboard routes
	mux.HandleFunc("/api/v1/dashboard", h.dashboard.HandleDashboard)
	mux.HandleFunc("/api/v1/dashboard/status", h.dashboard.HandleStatus)
	mux.HandleFunc("/api/v1/dashboard/refresh", h.dashboard.HandleRefresh)
	mux.HandleFunc("/api/v1/dashboard/stream", h.dashboard.HandleStream)
	mux.HandleFunc("/api/v1/dashboard/alerts/{id}/read", h.dashboard.HandleMarkAlertRead)

	// Pricing routes
	mux.HandleFunc("/api/v1/quote", h.quotes.HandleQuote)
	mux.HandleFunc("/api/v1/dates/next", h.quotes.HandleNextDate)
	mux.HandleFunc("/api/v1/currencies", h.quotes.HandleCurrencies)

	// Reservation routes
	mux.HandleFunc("/api/v1/guests", h.reservations.HandleGuests)
	mux.HandleFunc("/api/v1/rooms", h.reservations.HandleRooms)
	mux.HandleFunc("/api/v1/reservations", h.reservations.HandleCreate)
	mux.HandleFunc("/api/v1/reservations/new", h.reservations.HandleNewForm)
	mux.HandleFunc("/api/v1/reservations/quote", h.reservations.HandleQuote)
}
