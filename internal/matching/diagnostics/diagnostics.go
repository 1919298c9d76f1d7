// internal/matching/diagnostics/diagnostics.go
package diagnostics

import (
	"math"
	"sort"
	"time"

	"matching-workers/internal/models"
)

// Phase identifies one pipeline stage for timing purposes.
type Phase string

const (
	PhaseValidate    Phase = "validate"
	PhaseHardFilter  Phase = "hard_filter"
	PhaseScore       Phase = "score"
	PhaseEligibility Phase = "eligibility"
	PhaseMatch       Phase = "match"
)

// Collector accumulates the diagnostics document for one matching run. It is
// driven by the pipeline in phase order and is not safe for concurrent use.
type Collector struct {
	startedAt time.Time
	phaseAt   time.Time
	diag      models.RunDiagnostics
}

// NewCollector starts a collector for a run over the given population size.
func NewCollector(participantCount int) *Collector {
	now := time.Now()
	return &Collector{
		startedAt: now,
		phaseAt:   now,
		diag: models.RunDiagnostics{
			ParticipantCount:  participantCount,
			UnmatchedByReason: make(map[models.UnmatchedReason]int),
		},
	}
}

// EndPhase records the elapsed time since the previous phase boundary against
// the given phase and starts timing the next one.
func (c *Collector) EndPhase(phase Phase) {
	elapsed := time.Since(c.phaseAt).Milliseconds()
	switch phase {
	case PhaseValidate:
		c.diag.Timings.ValidateMs = elapsed
	case PhaseHardFilter:
		c.diag.Timings.HardFilterMs = elapsed
	case PhaseScore:
		c.diag.Timings.ScoreMs = elapsed
	case PhaseEligibility:
		c.diag.Timings.EligibilityMs = elapsed
	case PhaseMatch:
		c.diag.Timings.MatchMs = elapsed
	}
	c.phaseAt = time.Now()
}

// SetHardFilter stores the hard-filter breakdown.
func (c *Collector) SetHardFilter(breakdown models.HardFilterBreakdown) {
	c.diag.HardFilter = breakdown
}

// SetScores summarizes the scored pair distribution.
func (c *Collector) SetScores(scores []float64) {
	c.diag.Scores = Summarize(scores)
}

// SetEligibility stores the eligibility breakdown.
func (c *Collector) SetEligibility(breakdown models.EligibilityBreakdown) {
	c.diag.Eligibility = breakdown
}

// SetOutcome records the final matching outcome and tallies unmatched
// participants by reason.
func (c *Collector) SetOutcome(matches []models.Match, unmatched []models.UnmatchedRecord) {
	c.diag.MatchesCreated = len(matches)
	for _, u := range unmatched {
		c.diag.UnmatchedByReason[u.Reason]++
	}
}

// Finish stamps the total duration and completion time and returns the
// assembled document. RunID and PopulationID are left for the caller.
func (c *Collector) Finish() models.RunDiagnostics {
	c.diag.Timings.TotalMs = time.Since(c.startedAt).Milliseconds()
	c.diag.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	return c.diag
}

// Summarize computes distribution statistics over pair scores. The standard
// deviation is the population form, matching the relative-floor computation.
func Summarize(scores []float64) models.ScoreStats {
	if len(scores) == 0 {
		return models.ScoreStats{}
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	sum := 0.0
	for _, s := range sorted {
		sum += s
	}
	mean := sum / float64(len(sorted))

	variance := 0.0
	for _, s := range sorted {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return models.ScoreStats{
		Count:  len(sorted),
		Mean:   mean,
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(variance),
	}
}
