// Package scheduler runs periodic background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/zodiachr/pkg/logger"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages background jobs.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    logger.Logger
}

// Option configures a Scheduler.
type Option func(*settings)

type settings struct {
	loc *time.Location
	log logger.Logger
}

// WithLocation evaluates schedules in loc instead of time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a scheduler using standard five-field cron expressions.
func New(opts ...Option) *Scheduler {
	st := settings{loc: time.Local}
	for _, opt := range opts {
		opt(&st)
	}
	if st.log == nil {
		st.log = logger.Get().Named("scheduler")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(st.loc)),
		ctx:    ctx,
		cancel: cancel,
		log:    st.log,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info(s.ctx, "scheduler started", logger.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs, at most until ctx
// ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()
	select {
	case <-done.Done():
		s.log.Info(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// AddJob registers job under a cron schedule, e.g. "0 8 * * *" or "@daily".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(s.ctx, job); err != nil {
			s.log.Error(s.ctx, "job failed", logger.String("job", job.Name()), logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", job.Name(), schedule, err)
	}
	s.log.Info(s.ctx, "job registered", logger.String("job", job.Name()), logger.String("schedule", schedule))
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	s.log.Debug(ctx, "job ran",
		logger.String("job", job.Name()),
		logger.Duration("took", time.Since(start)),
		logger.Bool("ok", err == nil),
	)
	return err
}
