// internal/matching/engine.go
package matching

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"matching-workers/internal/common/errors"
	"matching-workers/internal/matching/diagnostics"
	"matching-workers/internal/matching/eligibility"
	"matching-workers/internal/matching/hardfilter"
	"matching-workers/internal/matching/pairing"
	"matching-workers/internal/matching/score"
	"matching-workers/internal/matching/similarity"
	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// minPopulation is the smallest snapshot that can produce a candidate pair.
const minPopulation = 2

// Config carries the tunable knobs of a matching run. Zero values fall back
// to the defaults applied in NewEngine and the downstream packages.
type Config struct {
	// AgeQuestionID names the hard-filter question holding each
	// participant's age and acceptable partner age range. Empty disables
	// the age gate.
	AgeQuestionID string

	ImportanceWeights score.Weights
	SectionWeights    map[catalog.Section]float64
	Combiner          score.Combiner

	AbsoluteFloor        float64
	RelativeStdDevFactor float64

	// MaxScoringWorkers bounds the goroutines scoring candidate pairs.
	MaxScoringWorkers int

	// VerifyMatching re-checks the optimizer's output against the eligible
	// pair set before results are returned.
	VerifyMatching bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	elig := eligibility.DefaultConfig()
	return Config{
		AgeQuestionID:        "partner_age",
		ImportanceWeights:    score.DefaultWeights(),
		SectionWeights:       score.DefaultSections(),
		Combiner:             score.CombinerMean,
		AbsoluteFloor:        elig.AbsoluteFloor,
		RelativeStdDevFactor: elig.RelativeStdDevFactor,
		MaxScoringWorkers:    runtime.NumCPU(),
		VerifyMatching:       true,
	}
}

// Engine runs the matching pipeline over one population snapshot: validate,
// hard-filter, score, apply eligibility floors, optimize, and derive the
// unmatched records. The engine holds no mutable state and never touches
// storage; persistence and locking are the caller's concern, which is what
// makes dry runs possible.
type Engine struct {
	catalog *catalog.Catalog
	filter  *hardfilter.Filter
	sims    *similarity.Calculator
	scorer  *score.Scorer
	elig    eligibility.Config
	workers int
	verify  bool
}

// NewEngine builds an engine over the given catalog.
func NewEngine(cat *catalog.Catalog, cfg Config) *Engine {
	workers := cfg.MaxScoringWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		catalog: cat,
		filter:  hardfilter.New(cat, cfg.AgeQuestionID),
		sims:    similarity.NewCalculator(cat),
		scorer: score.NewScorer(cat, score.Config{
			Importance: cfg.ImportanceWeights,
			Sections:   cfg.SectionWeights,
			Combiner:   cfg.Combiner,
		}),
		elig: eligibility.Config{
			AbsoluteFloor:        cfg.AbsoluteFloor,
			RelativeStdDevFactor: cfg.RelativeStdDevFactor,
		},
		workers: workers,
		verify:  cfg.VerifyMatching,
	}
}

// Run executes one matching run. The input snapshot is never mutated, and
// identical snapshots produce identical results. Every input participant
// appears in exactly one of Matches or Unmatched; a violation of that
// accounting aborts the run instead of returning a partial result.
func (e *Engine) Run(ctx context.Context, participants []models.Participant) (*models.RunResult, error) {
	collector := diagnostics.NewCollector(len(participants))

	if issues := ValidatePopulation(e.catalog, participants); len(issues) > 0 {
		return nil, errors.NewParticipantValidationFailedError(formatIssues(issues))
	}
	if len(participants) < minPopulation {
		return nil, errors.NewInsufficientPopulationError(len(participants))
	}
	collector.EndPhase(diagnostics.PhaseValidate)

	// Sort a copy so pair generation order, and with it every downstream
	// tie-break, is independent of snapshot load order.
	sorted := make([]models.Participant, len(participants))
	copy(sorted, participants)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	candidates, breakdown := e.hardFilter(sorted)
	collector.EndPhase(diagnostics.PhaseHardFilter)
	collector.SetHardFilter(breakdown)

	pairs, err := e.scorePairs(ctx, sorted, candidates)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(pairs))
	for k := range pairs {
		scores[k] = pairs[k].Score
	}
	collector.EndPhase(diagnostics.PhaseScore)
	collector.SetScores(scores)

	elig := eligibility.Apply(pairs, e.elig)
	collector.EndPhase(diagnostics.PhaseEligibility)
	collector.SetEligibility(models.EligibilityBreakdown{
		EligiblePairs:    len(elig.Eligible),
		RejectedAbsolute: elig.RejectedAbsolute,
		RejectedRelative: elig.RejectedRelative,
		NoPairAboveFloor: elig.NoPairAboveFloor,
		Perfectionists:   elig.Perfectionists,
	})

	matches, err := pairing.Optimize(ctx, elig.Eligible)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewMatchingInvariantViolationError(err.Error())
	}
	if e.verify {
		if err := pairing.Verify(elig.Eligible, matches); err != nil {
			return nil, errors.NewMatchingInvariantViolationError(err.Error())
		}
	}
	collector.EndPhase(diagnostics.PhaseMatch)

	unmatched := deriveUnmatched(sorted, pairs, elig.Eligible, matches)

	if 2*len(matches)+len(unmatched) != len(sorted) {
		return nil, errors.NewMatchingInvariantViolationError(fmt.Sprintf(
			"participant accounting broken: %d matches and %d unmatched for %d participants",
			len(matches), len(unmatched), len(sorted)))
	}

	collector.SetOutcome(matches, unmatched)
	return &models.RunResult{
		Matches:     matches,
		Unmatched:   unmatched,
		Diagnostics: collector.Finish(),
	}, nil
}

// candidate indexes one surviving pair into the sorted participant slice.
type candidate struct {
	i, j int
}

func (e *Engine) hardFilter(sorted []models.Participant) ([]candidate, models.HardFilterBreakdown) {
	var candidates []candidate
	breakdown := models.HardFilterBreakdown{
		DealbreakerQuestion: make(map[string]int),
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			breakdown.PairsChecked++
			ok, cause := e.filter.Allow(&sorted[i], &sorted[j])
			if ok {
				candidates = append(candidates, candidate{i: i, j: j})
				continue
			}
			breakdown.PairsExcluded++
			switch cause.Gate {
			case hardfilter.GateGender:
				breakdown.Gender++
			case hardfilter.GateAge:
				breakdown.Age++
			case hardfilter.GateDealbreaker:
				breakdown.Dealbreaker++
				breakdown.DealbreakerQuestion[cause.QuestionID]++
			}
		}
	}

	return candidates, breakdown
}

// scorePairs scores the surviving candidates concurrently. Each task writes
// to its own slot, so the output order matches the candidate order no matter
// how the scheduler interleaves the work.
func (e *Engine) scorePairs(ctx context.Context, sorted []models.Participant, candidates []candidate) ([]models.PairScore, error) {
	pairs := make([]models.PairScore, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for k := range candidates {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a := &sorted[candidates[k].i]
			b := &sorted[candidates[k].j]
			sims := e.sims.Vector(a, b)
			pairs[k] = models.PairScore{
				AID:   a.ID,
				BID:   b.ID,
				Score: e.scorer.Pair(a, b, sims),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return pairs, nil
}

// deriveUnmatched classifies every participant absent from the matching.
// Participants with at least one eligible pair lost it to the optimizer;
// the record carries their best eligible pair. Participants with no eligible
// pair carry their best scored pair when one exists, so operators can see
// how close they came to the floors.
func deriveUnmatched(sorted []models.Participant, scored, eligible []models.PairScore, matches []models.Match) []models.UnmatchedRecord {
	matched := make(map[string]bool, 2*len(matches))
	for _, m := range matches {
		matched[m.AID] = true
		matched[m.BID] = true
	}

	bestEligible := bestByParticipant(eligible)
	bestScored := bestByParticipant(scored)

	var unmatched []models.UnmatchedRecord
	for i := range sorted {
		id := sorted[i].ID
		if matched[id] {
			continue
		}

		rec := models.UnmatchedRecord{
			ParticipantID: id,
			Reason:        models.UnmatchedNoEligiblePairs,
		}
		if best, ok := bestEligible[id]; ok {
			rec.Reason = models.UnmatchedLostInOptimization
			s := best.Score
			rec.BestScore = &s
			rec.BestPartnerID = best.Other(id)
		} else if best, ok := bestScored[id]; ok {
			s := best.Score
			rec.BestScore = &s
			rec.BestPartnerID = best.Other(id)
		}
		unmatched = append(unmatched, rec)
	}

	return unmatched
}

// bestByParticipant keeps each participant's highest-scoring pair. Ties keep
// the earliest pair in slice order, which is deterministic because pair
// generation is.
func bestByParticipant(pairs []models.PairScore) map[string]models.PairScore {
	best := make(map[string]models.PairScore, len(pairs))
	for _, p := range pairs {
		for _, id := range [2]string{p.AID, p.BID} {
			cur, ok := best[id]
			if !ok || p.Score > cur.Score {
				best[id] = p
			}
		}
	}
	return best
}

func formatIssues(issues []ValidationIssue) string {
	const maxListed = 10
	parts := make([]string, 0, maxListed+1)
	for i, issue := range issues {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("... and %d more", len(issues)-maxListed))
			break
		}
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}
