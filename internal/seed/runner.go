// Package seed fills a running member directory with generated members and
// reports how the resulting team looks through the zodiac endpoints.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	service "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percentMultiplier   = 100
)

// Run executes a complete seeding run and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting member seeding",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("members", cfg.Members),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := c.health(ctx); err != nil {
		return stats, err
	}

	// Step 2: Log in when credentials are given
	if cfg.Username != "" && cfg.Password != "" {
		if err := c.login(ctx, cfg.Username, cfg.Password); err != nil {
			return stats, fmt.Errorf("login: %w", err)
		}
		log.Info(ctx, "logged in", logger.String("username", cfg.Username))
	}

	// Step 3: Generate and submit members
	inputs := generateMembers(ctx, cfg.Members, cfg.Seed, stats.StartTime)
	stats.Generated = len(inputs)
	results := submitMembers(ctx, cfg, c, inputs, stats)

	// Step 4: Read back the dashboard
	var err error
	if stats.Overview, err = get[service.Overview](ctx, c, "/api/dashboard/overview"); err != nil {
		return stats, fmt.Errorf("overview: %w", err)
	}
	if stats.Distribution, err = get[[]service.SignCount](ctx, c, "/api/dashboard/zodiac-distribution"); err != nil {
		return stats, fmt.Errorf("zodiac distribution: %w", err)
	}

	// Step 5: Score the first members as one team
	if ids := teamIDs(results, cfg.TeamSize); len(ids) >= 2 {
		report, err := post[service.GroupReport](ctx, c, "/api/compatibility/group", map[string]any{"memberIds": ids})
		if err != nil {
			return stats, fmt.Errorf("team compatibility: %w", err)
		}
		stats.Team = &report
	}

	// Step 6: Save generated members
	if cfg.OutputFile != "" {
		if err := saveMembers(cfg.OutputFile, results); err != nil {
			log.Warn(ctx, "failed to save members to file", logger.Error(err))
		} else {
			log.Info(ctx, "members saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func teamIDs(results []created, size int) []int64 {
	if size > len(results) {
		size = len(results)
	}
	ids := make([]int64, 0, size)
	for _, r := range results[:max(size, 0)] {
		ids = append(ids, r.member.ID)
	}
	return ids
}

// saveMembers writes the created members as a JSON array.
func saveMembers(filename string, results []created) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	members := make([]model.Member, len(results))
	for i, r := range results {
		members[i] = r.member
	}
	raw, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	return os.WriteFile(filename, raw, filePermission)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Created+stats.Replayed) / float64(stats.Submitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	fields := []logger.Field{
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("replayed", stats.Replayed),
		logger.Int("failed", stats.Failed),
		logger.Int("totalMembers", stats.Overview.TotalMembers),
		logger.String("mostCommonSign", string(stats.Overview.MostCommonSign)),
		logger.String("mostCommonElement", string(stats.Overview.MostCommonElement)),
		logger.Bool("balanced", stats.Overview.ElementBalance.Balanced),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("membersPerSecond", perSecond),
	}
	if stats.Team != nil {
		fields = append(fields,
			logger.Int("teamSize", stats.Team.Size),
			logger.Float64("teamScore", stats.Team.OverallScore),
			logger.String("teamLevel", string(stats.Team.Level)),
			logger.Int("teamConflicts", stats.Team.ConflictCount))
	}
	logger.Get().Info(ctx, "final statistics", fields...)
}
