package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/remex-io/remex/internal/cli"
	"github.com/remex-io/remex/internal/version"
)

// Version information, set by ldflags during release builds.
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

func main() {
	// A .env in the working directory may carry REMEX_AGENT_URL and
	// REMEX_API_KEY; a missing file is fine.
	_ = godotenv.Load()

	version.Version = Version
	version.BuildTime = BuildTime

	// The failed command already logged its error; main only maps it to
	// the exit code.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
