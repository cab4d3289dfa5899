package seed

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/logger"
)

// Submission outcomes.
const (
	resultCreated  = "created"
	resultReplayed = "replayed"
	resultFailed   = "failed"
)

const (
	progressInterval = time.Second
	maxAttempts      = 3
	retryBackoff     = 200 * time.Millisecond
)

// submitMembers posts members with a pool of workers. Each member carries
// its own Idempotency-Key, reused across retries, so a retried create never
// duplicates a member.
func submitMembers(ctx context.Context, cfg *Config, c *client, inputs []model.CreateMemberInput, stats *Stats) []created {
	log := logger.Get()
	log.Info(ctx, "submitting members", logger.Int("members", len(inputs)), logger.Int("workers", cfg.Workers))

	var (
		submitted, ok, replayed, failed atomic.Int64

		mu      sync.Mutex
		results = make([]created, 0, len(inputs))

		lastReport atomic.Int64
	)

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				m, result := submitOne(ctx, c, inputs[i], uuid.NewString())
				submitted.Add(1)
				switch result {
				case resultCreated:
					ok.Add(1)
				case resultReplayed:
					replayed.Add(1)
				default:
					failed.Add(1)
				}
				if result != resultFailed {
					mu.Lock()
					results = append(results, created{index: i, member: m})
					mu.Unlock()
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if cfg.Verbose && now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int64("submitted", submitted.Load()),
						logger.Int("total", len(inputs)),
						logger.Int64("failed", failed.Load()))
				}
			}
		}()
	}

feed:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Created = int(ok.Load())
	stats.Replayed = int(replayed.Load())
	stats.Failed = int(failed.Load())

	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })
	log.Info(ctx, "member submission completed",
		logger.Int("created", stats.Created),
		logger.Int("replayed", stats.Replayed),
		logger.Int("failed", stats.Failed))
	return results
}

// submitOne creates one member, retrying retryable failures with the same
// key.
func submitOne(ctx context.Context, c *client, in model.CreateMemberInput, key string) (model.Member, string) {
	header := http.Header{idempotencyHeader: []string{key}}
	for attempt := 1; ; attempt++ {
		var env envelope[model.Member]
		_, h, err := c.do(ctx, http.MethodPost, "/api/members", in, header, &env)
		switch {
		case err == nil && h.Get(replayedHeader) == "true":
			return env.Data, resultReplayed
		case err == nil:
			return env.Data, resultCreated
		case !retryable(err):
			logger.Get().Debug(ctx, "member rejected", logger.String("email", in.Email), logger.Error(err))
			return model.Member{}, resultFailed
		}
		if attempt == maxAttempts {
			logger.Get().Warn(ctx, "member submission gave up", logger.String("email", in.Email), logger.Error(err))
			return model.Member{}, resultFailed
		}
		select {
		case <-ctx.Done():
			return model.Member{}, resultFailed
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
}
