// internal/matching/comparator/comparator.go
package comparator

import (
	"math"

	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// Similarity computes the direction-agnostic similarity in [0,1] for one
// question given both participants' responses. The boolean is false when the
// question cannot be scored for this pair, which happens whenever either side
// is missing the answer fields the question kind requires; such questions are
// skipped rather than defaulted, so a silent gap never drags a score down.
func Similarity(q *catalog.QuestionSpec, a, b models.QuestionResponse) (float64, bool) {
	switch q.Kind {
	case catalog.KindScale:
		return scaleSimilarity(q, a.Answer, b.Answer)
	case catalog.KindChoice:
		return choiceSimilarity(q, a, b)
	case catalog.KindChoiceSet:
		return setSimilarity(a.Answer, b.Answer)
	case catalog.KindMatrix:
		return matrixSimilarity(q, a.Answer, b.Answer)
	case catalog.KindCompound:
		return compoundSimilarity(q, a.Answer, b.Answer)
	}
	return 0, false
}

// Accepts reports whether a stated preference admits the given answer. It is
// the single acceptance rule shared by choice scoring and dealbreaker
// checks: a wildcard answer satisfies every preference, a wildcard preference
// admits every answer, and an empty preference payload imposes no constraint.
// A missing answer is never admitted, so dealbreakers fail closed.
func Accepts(q *catalog.QuestionSpec, pref, ans *models.AnswerValue) bool {
	if pref == nil {
		return true
	}
	if ans == nil {
		return false
	}
	switch q.Kind {
	case catalog.KindChoice:
		if ans.Choice == "" {
			return false
		}
		return acceptsChoice(q, pref, ans.Choice)
	case catalog.KindScale:
		if ans.Scale == nil {
			return false
		}
		if pref.Range == nil {
			return true
		}
		return pref.Range.Contains(float64(*ans.Scale))
	}
	return false
}

func acceptsChoice(q *catalog.QuestionSpec, pref *models.AnswerValue, choice string) bool {
	if q.Wildcard != "" && choice == q.Wildcard {
		return true
	}
	if pref.Choice != "" {
		if q.Wildcard != "" && pref.Choice == q.Wildcard {
			return true
		}
		return pref.Choice == choice
	}
	if len(pref.Choices) > 0 {
		for _, p := range pref.Choices {
			if q.Wildcard != "" && p == q.Wildcard {
				return true
			}
			if p == choice {
				return true
			}
		}
		return false
	}
	return true
}

// scaleSimilarity maps the distance between two ordinal answers linearly
// onto [0,1]: identical answers score 1, answers at opposite ends score 0.
func scaleSimilarity(q *catalog.QuestionSpec, a, b *models.AnswerValue) (float64, bool) {
	if a == nil || b == nil || a.Scale == nil || b.Scale == nil {
		return 0, false
	}
	span := float64(q.ScaleMax - q.ScaleMin)
	sim := 1 - math.Abs(float64(*a.Scale)-float64(*b.Scale))/span
	return clamp01(sim), true
}

// choiceSimilarity scores single-category answers. When either side states a
// preference, acceptance governs: the pair scores 1 only if every stated
// preference admits the other side's answer. Without preferences the rule
// degrades to plain equality. A wildcard answer on either side scores 1
// against anything.
func choiceSimilarity(q *catalog.QuestionSpec, a, b models.QuestionResponse) (float64, bool) {
	if a.Answer == nil || b.Answer == nil || a.Answer.Choice == "" || b.Answer.Choice == "" {
		return 0, false
	}
	av, bv := a.Answer.Choice, b.Answer.Choice

	if q.Wildcard != "" && (av == q.Wildcard || bv == q.Wildcard) {
		return 1, true
	}

	aStates := statesPreference(a.Preference)
	bStates := statesPreference(b.Preference)
	if aStates || bStates {
		if aStates && !acceptsChoice(q, a.Preference, bv) {
			return 0, true
		}
		if bStates && !acceptsChoice(q, b.Preference, av) {
			return 0, true
		}
		return 1, true
	}

	if av == bv {
		return 1, true
	}
	return 0, true
}

func statesPreference(pref *models.AnswerValue) bool {
	return pref != nil && (pref.Choice != "" || len(pref.Choices) > 0)
}

// setSimilarity is the fractional overlap between two selections, using the
// Dice coefficient 2|A∩B| / (|A|+|B|). Two empty selections agree vacuously.
func setSimilarity(a, b *models.AnswerValue) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return diceOverlap(a.Choices, b.Choices), true
}

func diceOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inA := make(map[string]bool, len(a))
	for _, v := range a {
		inA[v] = true
	}
	seen := make(map[string]bool, len(b))
	shared := 0
	for _, v := range b {
		if inA[v] && !seen[v] {
			shared++
			seen[v] = true
		}
	}
	return 2 * float64(shared) / float64(len(inA)+distinct(b))
}

func distinct(vals []string) int {
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		seen[v] = true
	}
	return len(seen)
}

// matrixSimilarity reads the similarity from the question's compatibility
// table. Catalog validation guarantees the table is complete over the legal
// options, so a missing entry means an answer outside the catalog and the
// question is skipped.
func matrixSimilarity(q *catalog.QuestionSpec, a, b *models.AnswerValue) (float64, bool) {
	if a == nil || b == nil || a.Choice == "" || b.Choice == "" {
		return 0, false
	}
	row, ok := q.Matrix[a.Choice]
	if !ok {
		return 0, false
	}
	sim, ok := row[b.Choice]
	if !ok {
		return 0, false
	}
	return sim, true
}

// compoundSimilarity multiplies the set-overlap similarity of the selection
// component with the linear distance similarity of the frequency component,
// so a pair must agree on both axes to score high.
func compoundSimilarity(q *catalog.QuestionSpec, a, b *models.AnswerValue) (float64, bool) {
	if a == nil || b == nil || a.Scale == nil || b.Scale == nil {
		return 0, false
	}
	setPart := diceOverlap(a.Choices, b.Choices)
	span := float64(q.ScaleMax - q.ScaleMin)
	freqPart := clamp01(1 - math.Abs(float64(*a.Scale)-float64(*b.Scale))/span)
	return setPart * freqPart, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
