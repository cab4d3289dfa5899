package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/zodiachr/internal/adapters/mq/queue"
	"github.com/okian/zodiachr/internal/adapters/mq/worker"
	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingProcessor struct {
	mu   sync.Mutex
	rows []int
	fail map[int]bool
}

func (p *recordingProcessor) Process(_ context.Context, j queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[j.Row] {
		return errors.New("bad row")
	}
	p.rows = append(p.rows, j.Row)
	return nil
}

func fill(q *queue.InMemoryQueue, n int) {
	for i := 0; i < n; i++ {
		convey.So(q.Enqueue(context.Background(), model.ImportJob{BatchID: "b", Row: i}), convey.ShouldBeNil)
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue with jobs", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		proc := &recordingProcessor{fail: map[int]bool{2: true}}
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("w0"), worker.WithLogger(logger.Nop()))
		fill(q, 5)
		_ = q.Close()

		convey.Convey("When it runs to completion", func() {
			w.Run(context.Background())

			convey.Convey("Then every good row should be processed and the failure skipped", func() {
				convey.So(proc.rows, convey.ShouldResemble, []int{0, 1, 3, 4})
				select {
				case <-w.Done():
				default:
					convey.So("worker not done", convey.ShouldBeEmpty)
				}
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(func(context.Context, queue.Job) error { return nil }))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then it should stop without the queue closing", func() {
			select {
			case <-w.Done():
			case <-time.After(2 * time.Second):
				convey.So("timed out", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(200))
		var processed atomic.Int32
		pool := worker.NewPool(4, q, worker.ProcessorFunc(func(context.Context, queue.Job) error {
			processed.Add(1)
			return nil
		}))
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When jobs are queued and the pool is shut down", func() {
			pool.Start(context.Background())
			fill(q, 150)
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue should be drained before returning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(processed.Load(), convey.ShouldEqual, 150)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the pool is shut down without being started", func() {
			err := pool.Shutdown(context.Background())

			convey.Convey("Then it should return immediately", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), worker.ProcessorFunc(func(context.Context, queue.Job) error { return nil }))

		convey.Convey("Then it should default to one worker per CPU", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
