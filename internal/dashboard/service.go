// Package dashboard keeps the live dashboard snapshot: loaded from the hotel
// backend, replaced by a built-in fallback whenever the backend cannot serve
// it, optionally refreshed and nudged on timers, and pushed to listeners on
// every change.
package dashboard

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sysora/frontdesk/internal/scheduler"
)

const (
	DefaultStaleAfter       = 5 * time.Minute
	DefaultRefreshInterval  = 60 * time.Second
	LiveSimulationInterval  = 30 * time.Second
	scheduledRefreshTimeout = 30 * time.Second
	refreshJobName          = "dashboard_auto_refresh"
	simulationJobName       = "dashboard_live_simulation"
	sourceRemote            = "remote"
	sourceFallback          = "fallback"
)

var ErrClosed = errors.New("dashboard service closed")

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
)

// Listener receives a private copy of the snapshot after every update.
type Listener func(Snapshot)

type Service struct {
	fetcher    Fetcher
	clock      clockwork.Clock
	logger     zerolog.Logger
	metrics    *Metrics
	staleAfter time.Duration
	sched      *scheduler.Service
	ownsSched  bool

	mu           sync.Mutex
	data         *Snapshot
	lastUpdate   time.Time
	inflight     int
	rng          *rand.Rand
	listeners    map[uint64]Listener
	nextListener uint64

	// jobsMu guards job handles. It is never held while mu is, so a job
	// blocked on mu cannot stall a Start/Stop call.
	jobsMu        sync.Mutex
	refreshJob    *scheduler.Handle
	simulationJob *scheduler.Handle
	closed        bool

	// notifyMu serializes notification rounds so listeners never run
	// concurrently with each other.
	notifyMu sync.Mutex
}

type Option func(*Service)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithStaleAfter sets how old a snapshot may get before GetData refreshes.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithRand seeds the live simulation.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithScheduler runs the timers on a caller-owned scheduler. Close will not
// stop it.
func WithScheduler(sched *scheduler.Service) Option {
	return func(s *Service) {
		s.sched = sched
	}
}

// New builds a service around fetcher. A nil fetcher always serves the
// fallback snapshot.
func New(fetcher Fetcher, opts ...Option) (*Service, error) {
	s := &Service{
		fetcher:    fetcher,
		clock:      clockwork.NewRealClock(),
		logger:     log.Logger,
		staleAfter: DefaultStaleAfter,
		listeners:  make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "dashboard").Logger()
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.rng == nil {
		seed := uint64(s.clock.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if s.sched == nil {
		sched, err := scheduler.New(scheduler.WithClock(s.clock), scheduler.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.sched = sched
		s.ownsSched = true
	}
	return s, nil
}

// GetData returns the current snapshot, loading it first when there is none
// or it has gone stale. It always returns a populated snapshot.
func (s *Service) GetData(ctx context.Context) Snapshot {
	s.mu.Lock()
	needsRefresh := s.data == nil || s.isStaleLocked()
	s.mu.Unlock()

	if needsRefresh {
		s.Refresh(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Refresh loads a new snapshot now, substituting the fallback on any
// failure, and notifies listeners. Overlapping refreshes are allowed; the
// last one to finish wins.
func (s *Service) Refresh(ctx context.Context) {
	start := s.clock.Now()
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	snap, source, reason := s.load(ctx)

	s.mu.Lock()
	s.inflight--
	s.data = &snap
	s.lastUpdate = s.clock.Now()
	end := s.lastUpdate
	s.mu.Unlock()

	s.metrics.observeRefresh(source, reason, start, end)
	s.notify()
}

func (s *Service) load(ctx context.Context) (Snapshot, string, string) {
	if s.fetcher == nil {
		s.logger.Debug().Msg("No dashboard fetcher configured, serving fallback data")
		return FallbackSnapshot(s.clock.Now()), sourceFallback, reasonNoFetcher
	}

	snap, err := s.fetcher.FetchDashboard(ctx)
	if err == nil {
		snap.normalize()
		if snap.LastUpdated.IsZero() {
			snap.LastUpdated = s.clock.Now()
		}
		return snap, sourceRemote, reasonNone
	}

	reason, expected := classifyFailure(err)
	if expected {
		s.logger.Warn().Err(err).Str("reason", reason).Msg("Dashboard backend unavailable, serving fallback data")
	} else {
		s.logger.Error().Err(err).Str("reason", reason).Msg("Dashboard backend returned unusable data, serving fallback data")
	}
	return FallbackSnapshot(s.clock.Now()), sourceFallback, reason
}

func (s *Service) isStaleLocked() bool {
	if s.lastUpdate.IsZero() {
		return true
	}
	return s.clock.Since(s.lastUpdate) > s.staleAfter
}

// State reports where the service is in its load cycle.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.data != nil:
		return StateReady
	case s.inflight > 0:
		return StateLoading
	default:
		return StateUninitialized
	}
}

// LastUpdate is when the snapshot was last loaded; zero before the first load.
func (s *Service) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

// AddListener registers fn for every update and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (s *Service) AddListener(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	count := len(s.listeners)
	s.mu.Unlock()
	s.metrics.Listeners.Set(float64(count))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			count := len(s.listeners)
			s.mu.Unlock()
			s.metrics.Listeners.Set(float64(count))
		})
	}
}

func (s *Service) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Service) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return
	}
	snap := s.data.Clone()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		s.callListener(fn, snap.Clone())
	}
}

func (s *Service) callListener(fn Listener, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ListenerPanics.Inc()
			s.logger.Error().Interface("panic", r).Msg("Dashboard listener panicked")
		}
	}()
	fn(snap)
}

// Apply writes a typed patch into the cached snapshot and notifies
// listeners. It reports false, and does nothing, before the first load or
// for an empty patch.
func (s *Service) Apply(p Patch) bool {
	if p.IsEmpty() {
		return false
	}
	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return false
	}
	p.applyTo(s.data)
	s.mu.Unlock()

	s.notify()
	return true
}

// simulate nudges one random field of the cached snapshot.
func (s *Service) simulate() {
	s.mu.Lock()
	if s.data == nil {
		s.mu.Unlock()
		return
	}
	field, p := simulatedPatch(*s.data, s.rng)
	p.applyTo(s.data)
	s.mu.Unlock()

	s.metrics.Simulations.WithLabelValues(field).Inc()
	s.logger.Debug().Str("field", field).Msg("Simulated dashboard update")
	s.notify()
}

// StartAutoRefresh refreshes every interval (DefaultRefreshInterval when
// interval is not positive). Starting again replaces the running job.
func (s *Service) StartAutoRefresh(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.sched.Remove(s.refreshJob); err != nil {
		return err
	}
	s.refreshJob = nil

	h, err := s.sched.AddIntervalJob(refreshJobName, interval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRefreshTimeout)
		defer cancel()
		s.Refresh(s.logger.WithContext(ctx))
	})
	if err != nil {
		return err
	}
	s.refreshJob = h
	s.logger.Info().Dur("interval", interval).Msg("Dashboard auto refresh started")
	return nil
}

// StopAutoRefresh cancels the refresh job. Safe to call when not running.
func (s *Service) StopAutoRefresh() {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	s.stopJobLocked(&s.refreshJob)
}

func (s *Service) AutoRefreshActive() bool {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return s.refreshJob != nil
}

// StartLiveSimulation nudges the snapshot every LiveSimulationInterval.
// Starting again replaces the running job.
func (s *Service) StartLiveSimulation() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.sched.Remove(s.simulationJob); err != nil {
		return err
	}
	s.simulationJob = nil

	h, err := s.sched.AddIntervalJob(simulationJobName, LiveSimulationInterval, s.simulate)
	if err != nil {
		return err
	}
	s.simulationJob = h
	s.logger.Info().Msg("Dashboard live simulation started")
	return nil
}

// StopLiveSimulation cancels the simulation job. Safe to call when not
// running.
func (s *Service) StopLiveSimulation() {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	s.stopJobLocked(&s.simulationJob)
}

func (s *Service) LiveSimulationActive() bool {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return s.simulationJob != nil
}

func (s *Service) stopJobLocked(h **scheduler.Handle) {
	if *h == nil {
		return
	}
	name := (*h).Name()
	if err := s.sched.Remove(*h); err != nil {
		s.logger.Error().Err(err).Str("job_name", name).Msg("Failed to remove dashboard job")
	}
	*h = nil
	s.logger.Info().Str("job_name", name).Msg("Dashboard job stopped")
}

// Close stops both timers, drops every listener and, when the service
// created its own scheduler, shuts it down. Close is idempotent.
func (s *Service) Close() error {
	s.jobsMu.Lock()
	if s.closed {
		s.jobsMu.Unlock()
		return nil
	}
	s.closed = true
	s.stopJobLocked(&s.refreshJob)
	s.stopJobLocked(&s.simulationJob)
	s.jobsMu.Unlock()

	s.mu.Lock()
	s.listeners = make(map[uint64]Listener)
	s.mu.Unlock()
	s.metrics.Listeners.Set(0)

	if s.ownsSched {
		return s.sched.Stop()
	}
	return nil
}
