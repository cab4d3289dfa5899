package seed

import (
	"time"

	service "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL string        // Base URL of the service
	Members int           // Number of members to generate
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Seed    uint64        // Generator seed; equal seeds produce equal members

	// Credentials are only used when both are set.
	Username string
	Password string

	// TeamSize is how many created members are scored as one team.
	TeamSize int

	OutputFile string // Output file for generated members; empty skips saving
	Verbose    bool
}

// Stats holds run statistics.
type Stats struct {
	Generated int
	Submitted int
	Created   int
	Replayed  int
	Failed    int

	Overview     service.Overview
	Distribution []service.SignCount
	Team         *service.GroupReport

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// created is one successful submission.
type created struct {
	index  int
	member model.Member
}
