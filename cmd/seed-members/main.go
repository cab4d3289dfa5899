package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/zodiachr/internal/seed"
)

// Default configuration constants.
const (
	defaultMembers  = 200
	defaultTeamSize = 8
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		members  = flag.Int("members", defaultMembers, "Number of members to generate")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		seedVal  = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		team     = flag.Int("team", defaultTeamSize, "Number of created members scored as one team")
		user     = flag.String("user", "", "Username to log in with")
		password = flag.String("password", "", "Password to log in with")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		output   = flag.String("output", "", "Write the created members to this JSON file")
		logFile  = flag.String("log", "", "Also write log output to this file")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return 0
	}

	closer, err := seed.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		Members:    *members,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seedVal,
		Username:   *user,
		Password:   *password,
		TeamSize:   *team,
		OutputFile: *output,
		Verbose:    *verbose,
	}
	if _, err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
