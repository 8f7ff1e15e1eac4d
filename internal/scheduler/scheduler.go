package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInitialized  = errors.New("scheduler not initialized")
	ErrEmptyJobName    = errors.New("job name is required")
	ErrInvalidInterval = errors.New("job interval must be positive")
)

// Service wraps a gocron scheduler owned by a single component. Each owner
// builds its own Service so tests get isolated schedulers.
type Service struct {
	scheduler gocron.Scheduler
	logger    zerolog.Logger
	stopOnce  sync.Once
	stopErr   error
}

// Handle identifies a registered job so its owner can cancel it.
type Handle struct {
	id   uuid.UUID
	name string
}

func (h *Handle) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

type options struct {
	clock  clockwork.Clock
	logger zerolog.Logger
}

type Option func(*options)

// WithClock drives job timing from clock. Tests pass a clockwork fake.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates and starts a scheduler.
func New(opts ...Option) (*Service, error) {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With().Str("component", "scheduler").Logger()

	schedOpts := []gocron.SchedulerOption{
		gocron.WithLogger(gocronLogger{logger: logger}),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					logger.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduler job panicked")
				}),
			),
		),
	}
	if o.clock != nil {
		schedOpts = append(schedOpts, gocron.WithClock(o.clock))
	}

	sched, err := gocron.NewScheduler(schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Service{scheduler: sched, logger: logger}
	s.scheduler.Start()
	logger.Debug().Msg("Scheduler started")
	return s, nil
}

// Stop shuts down the scheduler and prevents new jobs from running.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		s.logger.Debug().Msg("Scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// AddIntervalJob runs task every interval, first run one interval from now.
// A run that is still in progress when the next one is due is skipped.
func (s *Service) AddIntervalJob(name string, interval time.Duration, task func()) (*Handle, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	jobLogger := s.logger.With().Str("job_name", name).Dur("interval", interval).Logger()

	wrappedTask := func() {
		jobLogger.Debug().Msg("Scheduler job started")
		task()
		jobLogger.Debug().Msg("Scheduler job completed")
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(wrappedTask),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register scheduler job")
		return nil, err
	}
	jobLogger.Debug().Str("job_id", job.ID().String()).Msg("Scheduler job registered")
	return &Handle{id: job.ID(), name: name}, nil
}

// Remove cancels the job behind h. Removing a nil or already removed handle
// is a no-op.
func (s *Service) Remove(h *Handle) error {
	if s == nil {
		return ErrNotInitialized
	}
	if h == nil {
		return nil
	}
	if err := s.scheduler.RemoveJob(h.id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return fmt.Errorf("remove job %s: %w", h.name, err)
	}
	s.logger.Debug().Str("job_name", h.name).Msg("Scheduler job removed")
	return nil
}

// JobCount reports how many jobs are registered.
func (s *Service) JobCount() int {
	if s == nil {
		return 0
	}
	return len(s.scheduler.Jobs())
}

// gocronLogger forwards gocron's internal logging to zerolog.
type gocronLogger struct {
	logger zerolog.Logger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.logger.Debug().Fields(args).Msg(msg) }
func (l gocronLogger) Info(msg string, args ...any)  { l.logger.Info().Fields(args).Msg(msg) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.logger.Warn().Fields(args).Msg(msg) }
func (l gocronLogger) Error(msg string, args ...any) { l.logger.Error().Fields(args).Msg(msg) }
