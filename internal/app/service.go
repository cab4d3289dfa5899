// Package service implements the member directory operations consumed by the
// HTTP API: members, imports, birthdays, dashboard and zodiac analysis.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/zodiachr/internal/adapters/mq/queue"
	"github.com/okian/zodiachr/internal/adapters/mq/worker"
	"github.com/okian/zodiachr/internal/adapters/repository"
	"github.com/okian/zodiachr/internal/domain/idempotency"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/okian/zodiachr/pkg/metrics"
)

const (
	defaultQueueSize       = 10_000
	defaultIdempotencyKeys = 10_000
	defaultMaxImportRows   = 1_000
	defaultUpcomingDays    = 30
	maxUpcomingDays        = 366
	maxGroupSize           = 200
)

// Service implements the API dependencies for the member directory.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	keys    idempotency.Keys
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	imports *importTracker

	workerCount     int
	queueSize       int
	idempotencyKeys int
	maxImportRows   int
	upcomingDays    int

	now func() time.Time
	loc *time.Location

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the member store. The service closes it on Stop.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithWorkerCount sets the number of import workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the import queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithIdempotencyKeys bounds the Idempotency-Key cache.
func WithIdempotencyKeys(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencyKeys = size
		}
	}
}

// WithMaxImportRows caps the rows of a single import request.
func WithMaxImportRows(rows int) Option {
	return func(s *Service) {
		if rows > 0 {
			s.maxImportRows = rows
		}
	}
}

// WithUpcomingDays sets the default upcoming-birthday window.
func WithUpcomingDays(days int) Option {
	return func(s *Service) {
		if days > 0 && days <= maxUpcomingDays {
			s.upcomingDays = days
		}
	}
}

// WithClock overrides the clock used for birthdays.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the timezone birthdays are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Member operations work immediately; imports are
// queued but only processed after Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		idempotencyKeys: defaultIdempotencyKeys,
		maxImportRows:   defaultMaxImportRows,
		upcomingDays:    defaultUpcomingDays,
		now:             time.Now,
		loc:             time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithLogger(s.logger))
	}
	s.keys = idempotency.NewInMemoryKeys(idempotency.WithMaxSize(s.idempotencyKeys))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.imports = newImportTracker(s.now)
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	return s
}

// Start launches the import workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.pool.Start(ctx)
	s.started = true
	s.logger.Info(ctx, "member service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("idempotencyKeys", s.idempotencyKeys),
	)
	return nil
}

// Stop drains the import queue and closes the store. The service cannot be
// restarted afterwards.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info(ctx, "stopping member service...")
	err := s.pool.Shutdown(ctx)
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.started = false
	s.logger.Info(ctx, "member service stopped")
	return err
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]any{
		"started":         started,
		"workerCount":     s.pool.Size(),
		"queueCapacity":   s.queueSize,
		"queueLength":     s.queue.Len(ctx),
		"idempotencyKeys": s.keys.Size(),
		"importBatches":   s.imports.len(),
	}
	if total, active, err := s.memberCounts(ctx); err == nil {
		stats["totalMembers"] = total
		stats["activeMembers"] = active
	} else {
		s.logger.Warn(ctx, "member counts unavailable", logger.Error(err))
	}
	metrics.UpdateQueueSize(s.queue.Len(ctx))
	return stats
}

// memberCounts refreshes and returns the total and active gauges.
func (s *Service) memberCounts(ctx context.Context) (total, active int, err error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, m := range all {
		if m.Active() {
			active++
		}
	}
	metrics.UpdateMembersTotal(len(all))
	metrics.UpdateMembersActive(active)
	return len(all), active, nil
}
