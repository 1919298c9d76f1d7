// internal/workers/matching/run-matching-cycle/models.go
package runmatchingcycle

type Input struct {
	PopulationID string `json:"populationId"`
	// DryRun executes the full pipeline but persists nothing; the summary
	// and cached diagnostics still reflect what a real run would produce.
	DryRun      bool   `json:"dryRun,omitempty"`
	TriggeredBy string `json:"triggeredBy,omitempty"`
}

type Output struct {
	RunID        string `json:"runId"`
	PopulationID string `json:"populationId"`
	DryRun       bool   `json:"dryRun"`

	ParticipantCount   int     `json:"participantCount"`
	MatchesCreated     int     `json:"matchesCreated"`
	UnmatchedCount     int     `json:"unmatchedCount"`
	PerfectionistCount int     `json:"perfectionistCount"`
	MeanPairScore      float64 `json:"meanPairScore"`

	MatchRowsWritten     int `json:"matchRowsWritten"`
	UnmatchedRowsWritten int `json:"unmatchedRowsWritten"`

	DurationMs int64 `json:"durationMs"`
}
