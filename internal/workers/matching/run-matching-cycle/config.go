// internal/workers/matching/run-matching-cycle/config.go
package runmatchingcycle

import "time"

type Config struct {
	// Timeout bounds one full run: snapshot load, scoring, optimization,
	// and persistence. Populations in the low thousands finish well inside
	// the default.
	Timeout time.Duration

	RunLockTTL     time.Duration
	DiagnosticsTTL time.Duration
	ArchiveIndex   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        5 * time.Minute,
		RunLockTTL:     10 * time.Minute,
		DiagnosticsTTL: 24 * time.Hour,
		ArchiveIndex:   "matching-run-diagnostics",
	}
}
