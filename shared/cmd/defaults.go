package cmd

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultProgramID is the hex-encoded owner identity stamped into record
// envelopes when no --program-id flag is supplied. Local development only,
// real deployments always pass their own identity.
const DefaultProgramID = "7265736f6c7665722d70726f6772616d00000000000000000000000000000001"

// DefaultDataDir is the default data directory to use for the databases and other
// persistence requirements.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := homeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Resolver")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Local", "Resolver")
		} else {
			return filepath.Join(home, ".resolver")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return ""
}
