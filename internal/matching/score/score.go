// internal/matching/score/score.go
package score

import (
	"math"

	"matching-workers/internal/matching/similarity"
	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// Weights maps importance buckets to multiplicative question weights. The
// mapping must be monotonic in the bucket order.
type Weights map[models.Importance]float64

// DefaultWeights spreads the buckets wide enough that a very-important
// question dominates a handful of unimportant ones.
func DefaultWeights() Weights {
	return Weights{
		models.ImportanceNotImportant:      1,
		models.ImportanceSomewhatImportant: 3,
		models.ImportanceImportant:         10,
		models.ImportanceVeryImportant:     25,
	}
}

// Combiner selects the policy for merging the two directional scores of a
// pair into one symmetric score.
type Combiner string

const (
	// CombinerMean is the unweighted average. Strong one-sided interest is
	// treated as equally informative as mutual moderate interest.
	CombinerMean Combiner = "mean"

	// CombinerGeometric penalizes asymmetric pairs: one near-zero direction
	// pulls the combined score toward zero.
	CombinerGeometric Combiner = "geometric"

	// CombinerMin scores a pair by its least satisfied side.
	CombinerMin Combiner = "min"
)

// Config carries the scoring knobs. Zero values fall back to the defaults
// in NewScorer.
type Config struct {
	Importance Weights
	Sections   map[catalog.Section]float64
	Combiner   Combiner
}

// DefaultSections weights lifestyle agreement above personality agreement.
func DefaultSections() map[catalog.Section]float64 {
	return map[catalog.Section]float64{
		catalog.SectionLifestyle:   0.65,
		catalog.SectionPersonality: 0.35,
	}
}

// Scorer turns per-question similarity vectors into directional scores and
// symmetric pair scores.
type Scorer struct {
	questions []*catalog.QuestionSpec
	weights   Weights
	sections  map[catalog.Section]float64
	combiner  Combiner
	baseline  float64
}

// NewScorer builds a scorer over the catalog's scorable questions.
func NewScorer(cat *catalog.Catalog, cfg Config) *Scorer {
	weights := cfg.Importance
	if len(weights) == 0 {
		weights = DefaultWeights()
	}
	sections := cfg.Sections
	if len(sections) == 0 {
		sections = DefaultSections()
	}
	combiner := cfg.Combiner
	if combiner == "" {
		combiner = CombinerMean
	}

	baseline := math.Inf(1)
	for _, w := range weights {
		if w < baseline {
			baseline = w
		}
	}

	return &Scorer{
		questions: cat.Scorable(),
		weights:   weights,
		sections:  sections,
		combiner:  combiner,
		baseline:  baseline,
	}
}

// Directional computes how well the scored pair satisfies the rater's own
// stated preferences, in [0,100]. The rater's importance governs the
// weighting; the other side's importance never enters. Each section is
// normalized by its own importance-weight sum before the section averages
// are blended, so a section dense with high-importance questions cannot
// silently drown out the other. Sections with no scorable questions drop
// out and the remaining section weights renormalize.
func (s *Scorer) Directional(rater *models.Participant, sims similarity.Vector) float64 {
	type accum struct{ num, den float64 }
	bySection := make(map[catalog.Section]*accum, len(s.sections))

	for _, q := range s.questions {
		sim, ok := sims[q.ID]
		if !ok {
			continue
		}
		w := s.questionWeight(q, rater)
		acc := bySection[q.Section]
		if acc == nil {
			acc = &accum{}
			bySection[q.Section] = acc
		}
		acc.num += sim * w
		acc.den += w
	}

	blended, active := 0.0, 0.0
	for section, sectionWeight := range s.sections {
		acc := bySection[section]
		if acc == nil || acc.den == 0 {
			continue
		}
		blended += sectionWeight * (acc.num / acc.den)
		active += sectionWeight
	}
	if active == 0 {
		return 0
	}
	return 100 * blended / active
}

// questionWeight resolves the rater's importance weight for one question.
// A missing or unknown importance defaults to the lowest weight rather than
// zero, so an unanswered importance still counts the question.
func (s *Scorer) questionWeight(q *catalog.QuestionSpec, rater *models.Participant) float64 {
	if !q.ImportanceApplies {
		return s.baseline
	}
	r, ok := rater.Responses[q.ID]
	if !ok || r.Importance == nil {
		return s.baseline
	}
	if w, ok := s.weights[*r.Importance]; ok {
		return w
	}
	return s.baseline
}

// Combine merges the two directional scores of a pair per the configured
// policy.
func (s *Scorer) Combine(ab, ba float64) float64 {
	switch s.combiner {
	case CombinerGeometric:
		return math.Sqrt(ab * ba)
	case CombinerMin:
		return math.Min(ab, ba)
	default:
		return (ab + ba) / 2
	}
}

// Pair computes the symmetric pair score from one shared similarity vector:
// both directions independently, then combined. Symmetric by construction.
func (s *Scorer) Pair(a, b *models.Participant, sims similarity.Vector) float64 {
	return s.Combine(s.Directional(a, sims), s.Directional(b, sims))
}
