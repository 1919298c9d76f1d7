// internal/matching/score/score_test.go
package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-workers/internal/matching/similarity"
	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// ==========================
// Test Helpers
// ==========================

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.FromSpecs("test", []catalog.QuestionSpec{
		{
			ID:                "tidiness",
			Text:              "How tidy do you keep your home?",
			Section:           catalog.SectionLifestyle,
			Kind:              catalog.KindScale,
			ScaleMin:          1,
			ScaleMax:          5,
			ImportanceApplies: true,
		},
		{
			ID:                "smoking",
			Text:              "Do you smoke?",
			Section:           catalog.SectionLifestyle,
			Kind:              catalog.KindChoice,
			Options:           []string{"never", "socially", "regularly"},
			ImportanceApplies: true,
		},
		{
			ID:                "introversion",
			Text:              "How introverted are you?",
			Section:           catalog.SectionPersonality,
			Kind:              catalog.KindScale,
			ScaleMin:          1,
			ScaleMax:          5,
			ImportanceApplies: true,
		},
	})
	require.NoError(t, err)
	return cat
}

func imp(i models.Importance) *models.Importance { return &i }

func rater(importances map[string]models.Importance) *models.Participant {
	p := &models.Participant{
		ID:           "rater",
		Gender:       models.GenderFemale,
		InterestedIn: []models.Gender{models.GenderMale},
		Responses:    map[string]models.QuestionResponse{},
	}
	for q, i := range importances {
		p.Responses[q] = models.QuestionResponse{Importance: imp(i)}
	}
	return p
}

// ==========================
// Directional Scorer Tests
// ==========================

func TestDirectionalPerfectAgreement(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	sims := similarity.Vector{"tidiness": 1, "smoking": 1, "introversion": 1}
	p := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceVeryImportant,
		"smoking":      models.ImportanceImportant,
		"introversion": models.ImportanceSomewhatImportant,
	})

	assert.InDelta(t, 100.0, s.Directional(p, sims), 1e-9)
}

func TestDirectionalImportanceWeighting(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	sims := similarity.Vector{"tidiness": 0.5, "smoking": 1, "introversion": 1}

	p := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceVeryImportant,
		"smoking":      models.ImportanceNotImportant,
		"introversion": models.ImportanceImportant,
	})

	// lifestyle: (0.5*25 + 1*1) / (25+1) = 13.5/26
	// personality: 1
	// blended: 0.65*(13.5/26) + 0.35*1 = 0.3375 + 0.35 = 0.6875
	assert.InDelta(t, 68.75, s.Directional(p, sims), 1e-9)
}

func TestDirectionalAsymmetry(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	sims := similarity.Vector{"tidiness": 0.5, "smoking": 1, "introversion": 1}

	a := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceVeryImportant,
		"smoking":      models.ImportanceNotImportant,
		"introversion": models.ImportanceImportant,
	})
	b := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceNotImportant,
		"smoking":      models.ImportanceVeryImportant,
		"introversion": models.ImportanceSomewhatImportant,
	})

	// a weights the disagreement heavily, b barely notices it.
	// b lifestyle: (0.5*1 + 1*25) / 26 = 25.5/26, blended 0.6375 + 0.35 = 0.9875
	scoreA := s.Directional(a, sims)
	scoreB := s.Directional(b, sims)

	assert.InDelta(t, 68.75, scoreA, 1e-9)
	assert.InDelta(t, 98.75, scoreB, 1e-9)
	assert.Greater(t, scoreB, scoreA)
}

func TestDirectionalMissingImportanceUsesLowestWeight(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	sims := similarity.Vector{"tidiness": 0.5, "smoking": 1}

	// No importance stated anywhere: both questions weigh 1.
	p := rater(map[string]models.Importance{})

	// lifestyle: (0.5 + 1) / 2 = 0.75, personality absent so lifestyle
	// renormalizes to full weight.
	assert.InDelta(t, 75.0, s.Directional(p, sims), 1e-9)
}

func TestDirectionalSectionRenormalization(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})

	// Only the personality section has a scorable question; its 0.35
	// section weight must renormalize to 1.
	sims := similarity.Vector{"introversion": 0.75}
	p := rater(map[string]models.Importance{
		"introversion": models.ImportanceImportant,
	})

	assert.InDelta(t, 75.0, s.Directional(p, sims), 1e-9)
}

func TestDirectionalEmptyVectorScoresZero(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	p := rater(map[string]models.Importance{})

	assert.Equal(t, 0.0, s.Directional(p, similarity.Vector{}))
}

func TestDirectionalMonotonicity(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})

	t.Run("raising importance on a satisfied question cannot lower the score", func(t *testing.T) {
		sims := similarity.Vector{"tidiness": 1, "smoking": 0.4}

		low := rater(map[string]models.Importance{
			"tidiness": models.ImportanceNotImportant,
			"smoking":  models.ImportanceImportant,
		})
		high := rater(map[string]models.Importance{
			"tidiness": models.ImportanceVeryImportant,
			"smoking":  models.ImportanceImportant,
		})

		assert.GreaterOrEqual(t, s.Directional(high, sims), s.Directional(low, sims))
	})

	t.Run("degrading an answer cannot raise the score", func(t *testing.T) {
		p := rater(map[string]models.Importance{
			"tidiness": models.ImportanceImportant,
			"smoking":  models.ImportanceImportant,
		})

		agree := similarity.Vector{"tidiness": 1, "smoking": 1}
		drift := similarity.Vector{"tidiness": 0.5, "smoking": 1}

		assert.LessOrEqual(t, s.Directional(p, drift), s.Directional(p, agree))
	})
}

func TestDirectionalStaysInRange(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	p := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceVeryImportant,
		"smoking":      models.ImportanceNotImportant,
		"introversion": models.ImportanceImportant,
	})

	for _, sim := range []float64{0, 0.25, 0.5, 0.75, 1} {
		sims := similarity.Vector{"tidiness": sim, "smoking": sim, "introversion": sim}
		got := s.Directional(p, sims)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}

// ==========================
// Pair Combiner Tests
// ==========================

func TestCombinePolicies(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name     string
		combiner Combiner
		ab       float64
		ba       float64
		expected float64
	}{
		{name: "mean averages", combiner: CombinerMean, ab: 68.75, ba: 98.75, expected: 83.75},
		{name: "mean of equal scores", combiner: CombinerMean, ab: 80, ba: 80, expected: 80},
		{name: "geometric penalizes asymmetry", combiner: CombinerGeometric, ab: 68.75, ba: 98.75, expected: math.Sqrt(68.75 * 98.75)},
		{name: "geometric zeroes on one cold side", combiner: CombinerGeometric, ab: 0, ba: 100, expected: 0},
		{name: "min takes the least satisfied side", combiner: CombinerMin, ab: 68.75, ba: 98.75, expected: 68.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(cat, Config{Combiner: tt.combiner})
			assert.InDelta(t, tt.expected, s.Combine(tt.ab, tt.ba), 1e-9)
		})
	}
}

func TestPairIsSymmetric(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	sims := similarity.Vector{"tidiness": 0.5, "smoking": 1, "introversion": 0.25}

	a := rater(map[string]models.Importance{
		"tidiness": models.ImportanceVeryImportant,
		"smoking":  models.ImportanceNotImportant,
	})
	b := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceSomewhatImportant,
		"introversion": models.ImportanceVeryImportant,
	})

	assert.InDelta(t, s.Pair(a, b, sims), s.Pair(b, a, sims), 1e-9)
}

func TestPairCombinesBothDirections(t *testing.T) {
	s := NewScorer(testCatalog(t), Config{})
	sims := similarity.Vector{"tidiness": 0.5, "smoking": 1, "introversion": 1}

	a := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceVeryImportant,
		"smoking":      models.ImportanceNotImportant,
		"introversion": models.ImportanceImportant,
	})
	b := rater(map[string]models.Importance{
		"tidiness":     models.ImportanceNotImportant,
		"smoking":      models.ImportanceVeryImportant,
		"introversion": models.ImportanceSomewhatImportant,
	})

	// (68.75 + 98.75) / 2
	assert.InDelta(t, 83.75, s.Pair(a, b, sims), 1e-9)
}
