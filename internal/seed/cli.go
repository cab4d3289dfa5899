package seed

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/zodiachr/pkg/logger"
)

const logFilePermission = 0o600

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging logs to stdout and, when logFile is set, to that file too.
// The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	out := io.Writer(os.Stdout)
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = io.MultiWriter(os.Stdout, f), f
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)
	return closer, nil
}

// ShowHelp prints usage information for the seeder.
func ShowHelp() {
	os.Stdout.WriteString(`Zodiac HR Member Seeder
=======================

Fills a running member directory with generated members, then reads back
the dashboard and scores the first members as a team.

Usage:
  go run ./cmd/seed-members [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -members int
        Number of members to generate (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -seed uint
        Generator seed (default: current time)
  -team int
        Number of created members scored as one team (default 8)
  -user / -password string
        Log in first; needed when the service requires auth
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the created members to this JSON file
  -log string
        Also write log output to this file
  -verbose
        Enable debug logging and progress reports
  -help
        Show this help message

Examples:
  go run ./cmd/seed-members -members 1000 -workers 16
  go run ./cmd/seed-members -user admin -password password123 -seed 42
`)
}
