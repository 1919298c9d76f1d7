// internal/matching/eligibility/eligibility.go
package eligibility

import (
	"math"
	"sort"

	"matching-workers/internal/models"
)

// Config carries the two acceptance floors. AbsoluteFloor is the global
// minimum pair score; RelativeStdDevFactor is the k in each participant's
// own floor of mean − k·stddev over their scored candidate pool.
type Config struct {
	AbsoluteFloor        float64
	RelativeStdDevFactor float64
}

// DefaultConfig requires a pair to reach 40 of 100 and to sit no more than
// one standard deviation below either participant's personal mean.
func DefaultConfig() Config {
	return Config{AbsoluteFloor: 40, RelativeStdDevFactor: 1}
}

// Result is the outcome of the eligibility phase. Eligible pairs keep their
// input order; the participant lists are sorted by id.
type Result struct {
	Eligible         []models.PairScore
	RejectedAbsolute int
	RejectedRelative int

	// NoPairAboveFloor lists participants with scored pairs of which none
	// cleared the absolute floor.
	NoPairAboveFloor []string

	// Perfectionists lists participants with at least one pair above the
	// absolute floor, every one of which was rejected by the relative
	// criterion. Their pool cleared the global bar but the floors around
	// them were stricter than their spread admits.
	Perfectionists []string

	// Floors holds each participant's relative floor for inspection.
	Floors map[string]float64
}

// Apply filters scored pairs through both floors. A pair survives only when
// it clears the absolute floor and both participants' relative floors, so a
// pair far below what is typical for either side never reaches the matcher.
func Apply(pairs []models.PairScore, cfg Config) *Result {
	res := &Result{Floors: make(map[string]float64)}

	scoresByParticipant := make(map[string][]float64)
	for _, p := range pairs {
		scoresByParticipant[p.AID] = append(scoresByParticipant[p.AID], p.Score)
		scoresByParticipant[p.BID] = append(scoresByParticipant[p.BID], p.Score)
	}
	for id, scores := range scoresByParticipant {
		res.Floors[id] = relativeFloor(scores, cfg.RelativeStdDevFactor)
	}

	hasAbsolute := make(map[string]bool, len(scoresByParticipant))
	hasEligible := make(map[string]bool, len(scoresByParticipant))

	for _, p := range pairs {
		if p.Score < cfg.AbsoluteFloor {
			res.RejectedAbsolute++
			continue
		}
		hasAbsolute[p.AID] = true
		hasAbsolute[p.BID] = true

		if p.Score < res.Floors[p.AID] || p.Score < res.Floors[p.BID] {
			res.RejectedRelative++
			continue
		}
		res.Eligible = append(res.Eligible, p)
		hasEligible[p.AID] = true
		hasEligible[p.BID] = true
	}

	for id := range scoresByParticipant {
		if !hasAbsolute[id] {
			res.NoPairAboveFloor = append(res.NoPairAboveFloor, id)
		} else if !hasEligible[id] {
			res.Perfectionists = append(res.Perfectionists, id)
		}
	}
	sort.Strings(res.NoPairAboveFloor)
	sort.Strings(res.Perfectionists)

	return res
}

// relativeFloor computes mean − k·stddev over a participant's scored pool.
// A single-pair pool yields a floor equal to that pair's score, which the
// pair itself always meets.
func relativeFloor(scores []float64, k float64) float64 {
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))

	return mean - k*math.Sqrt(variance)
}
