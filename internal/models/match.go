// internal/models/match.go
package models

// PairScore is the symmetric compatibility score for one unordered candidate
// pair. It is always built from both directional scores even though only the
// combined value is kept.
type PairScore struct {
	AID   string  `json:"participantAId"`
	BID   string  `json:"participantBId"`
	Score float64 `json:"score"`
}

// Involves reports whether the pair includes the given participant.
func (p PairScore) Involves(participantID string) bool {
	return p.AID == participantID || p.BID == participantID
}

// Other returns the pair's counterpart of the given participant.
func (p PairScore) Other(participantID string) string {
	if p.AID == participantID {
		return p.BID
	}
	return p.AID
}

// Match is one selected pairing. A participant appears in at most one Match
// per run.
type Match struct {
	AID   string  `json:"participantAId"`
	BID   string  `json:"participantBId"`
	Score float64 `json:"score"`
}

// UnmatchedReason explains why a participant ended a run without a partner.
type UnmatchedReason string

const (
	// UnmatchedNoEligiblePairs means no candidate pair involving the
	// participant survived the hard filter and both eligibility floors.
	UnmatchedNoEligiblePairs UnmatchedReason = "no_eligible_pairs"

	// UnmatchedLostInOptimization means at least one eligible pair existed
	// but every potential partner was claimed by a higher-value pairing.
	UnmatchedLostInOptimization UnmatchedReason = "lost_in_optimization"
)

// UnmatchedRecord captures one unmatched participant together with the best
// pair they could theoretically have had, so operators can tell "nobody fit"
// apart from "somebody fit but was taken".
type UnmatchedRecord struct {
	ParticipantID string          `json:"participantId"`
	Reason        UnmatchedReason `json:"reason"`
	BestScore     *float64        `json:"bestPossibleScore,omitempty"`
	BestPartnerID string          `json:"bestPossiblePartnerId,omitempty"`
}

// RunResult is the complete outcome of one matching run. Every participant
// of the input snapshot appears in exactly one of Matches or Unmatched.
type RunResult struct {
	Matches     []Match           `json:"matches"`
	Unmatched   []UnmatchedRecord `json:"unmatched"`
	Diagnostics RunDiagnostics    `json:"diagnostics"`
}

// ScoreStats summarizes the distribution of scored pairs.
type ScoreStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

// HardFilterBreakdown counts pair exclusions per hard-filter gate. A pair is
// attributed to the first gate that rejected it.
type HardFilterBreakdown struct {
	PairsChecked        int            `json:"pairsChecked"`
	PairsExcluded       int            `json:"pairsExcluded"`
	Gender              int            `json:"gender"`
	Age                 int            `json:"age"`
	Dealbreaker         int            `json:"dealbreaker"`
	DealbreakerQuestion map[string]int `json:"dealbreakerByQuestion,omitempty"`
}

// EligibilityBreakdown counts pair rejections by floor and carries the
// per-participant diagnostic lists.
type EligibilityBreakdown struct {
	EligiblePairs    int      `json:"eligiblePairs"`
	RejectedAbsolute int      `json:"rejectedAbsolute"`
	RejectedRelative int      `json:"rejectedRelative"`
	NoPairAboveFloor []string `json:"noPairAboveFloor,omitempty"`
	Perfectionists   []string `json:"perfectionists,omitempty"`
}

// PhaseTimings records wall-clock duration per pipeline phase in
// milliseconds.
type PhaseTimings struct {
	ValidateMs    int64 `json:"validateMs"`
	HardFilterMs  int64 `json:"hardFilterMs"`
	ScoreMs       int64 `json:"scoreMs"`
	EligibilityMs int64 `json:"eligibilityMs"`
	MatchMs       int64 `json:"matchMs"`
	TotalMs       int64 `json:"totalMs"`
}

// RunDiagnostics is the observability document produced alongside every run.
// RunID and PopulationID are filled in by the caller that owns the run.
type RunDiagnostics struct {
	RunID             string                  `json:"runId,omitempty"`
	PopulationID      string                  `json:"populationId,omitempty"`
	ParticipantCount  int                     `json:"participantCount"`
	HardFilter        HardFilterBreakdown     `json:"hardFilter"`
	Scores            ScoreStats              `json:"scores"`
	Eligibility       EligibilityBreakdown    `json:"eligibility"`
	MatchesCreated    int                     `json:"matchesCreated"`
	UnmatchedByReason map[UnmatchedReason]int `json:"unmatchedByReason"`
	Timings           PhaseTimings            `json:"timings"`
	CompletedAt       string                  `json:"completedAt,omitempty"`
}
