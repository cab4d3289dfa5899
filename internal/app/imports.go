package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/zodiachr/internal/adapters/mq/queue"
	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/okian/zodiachr/pkg/metrics"
)

// maxTrackedImports bounds how many batches are remembered; the oldest
// finished batches are forgotten first.
const maxTrackedImports = 256

type importTracker struct {
	mu      sync.Mutex
	now     func() time.Time
	batches map[string]*model.ImportStatus
	order   []string
}

func newImportTracker(now func() time.Time) *importTracker {
	return &importTracker{now: now, batches: make(map[string]*model.ImportStatus)}
}

func (t *importTracker) start(total int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := uuid.NewString()
	t.batches[id] = &model.ImportStatus{
		ID:        id,
		Total:     total,
		Errors:    []model.ImportRowError{},
		CreatedAt: t.now().UTC(),
	}
	t.order = append(t.order, id)
	t.evict()
	return id
}

// Must be called with t.mu held.
func (t *importTracker) evict() {
	for len(t.order) > maxTrackedImports {
		victim := -1
		for i, id := range t.order {
			if t.batches[id].Done {
				victim = i
				break
			}
		}
		if victim < 0 {
			return
		}
		delete(t.batches, t.order[victim])
		t.order = append(t.order[:victim], t.order[victim+1:]...)
	}
}

func (t *importTracker) record(batch string, row int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.batches[batch]
	if !ok {
		return
	}
	if err != nil {
		st.Failed++
		st.Errors = append(st.Errors, model.ImportRowError{Row: row, Message: err.Error()})
	} else {
		st.Succeeded++
	}
	st.Done = st.Succeeded+st.Failed >= st.Total
}

func (t *importTracker) get(id string) (model.ImportStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.batches[id]
	if !ok {
		return model.ImportStatus{}, false
	}
	out := *st
	out.Errors = append([]model.ImportRowError(nil), st.Errors...)
	return out, true
}

func (t *importTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.batches)
}

// ImportMembers registers a batch and queues one job per row. The whole
// batch is refused with ErrBusy when the queue cannot hold it.
func (s *Service) ImportMembers(ctx context.Context, rows []model.CreateMemberInput) (model.ImportStatus, error) {
	switch {
	case len(rows) == 0:
		return model.ImportStatus{}, fmt.Errorf("%w: import has no rows", ErrInvalidArgument)
	case len(rows) > s.maxImportRows:
		return model.ImportStatus{}, fmt.Errorf("%w: import exceeds %d rows", ErrInvalidArgument, s.maxImportRows)
	case s.queue.Free() < len(rows):
		metrics.RecordErrorByComponent("service", "import_backpressure")
		return model.ImportStatus{}, ErrBusy
	}

	batch := s.imports.start(len(rows))
	for i, in := range rows {
		row := i + 1
		if err := s.queue.Enqueue(ctx, queue.Job{BatchID: batch, Row: row, Input: in}); err != nil {
			if errors.Is(err, queue.ErrFull) {
				err = ErrBusy
			}
			s.imports.record(batch, row, err)
		}
	}
	s.logger.Info(ctx, "import queued", logger.String("batch", batch), logger.Int("rows", len(rows)))
	st, _ := s.imports.get(batch)
	return st, nil
}

// Import returns the progress of a batch.
func (s *Service) Import(_ context.Context, id string) (model.ImportStatus, error) {
	st, ok := s.imports.get(id)
	if !ok {
		return model.ImportStatus{}, ErrImportNotFound
	}
	return st, nil
}

// Process stores one queued import row. It is run by the worker pool.
func (s *Service) Process(ctx context.Context, j queue.Job) error {
	m, err := j.Input.Member()
	if err == nil {
		m, err = s.store.Create(ctx, m)
	}
	s.imports.record(j.BatchID, j.Row, err)
	if err != nil {
		if errors.Is(err, zodiac.ErrInvalidInput) {
			metrics.RecordClassificationFailure()
		}
		return err
	}
	metrics.RecordClassification(string(m.ZodiacSign))
	return nil
}
