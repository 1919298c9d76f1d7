// internal/matching/comparator/comparator_test.go
package comparator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// ==========================
// Test Helpers
// ==========================

func scaleQuestion() *catalog.QuestionSpec {
	return &catalog.QuestionSpec{
		ID:                "tidiness",
		Text:              "How tidy do you keep your home?",
		Section:           catalog.SectionLifestyle,
		Kind:              catalog.KindScale,
		ScaleMin:          1,
		ScaleMax:          5,
		ImportanceApplies: true,
	}
}

func choiceQuestion() *catalog.QuestionSpec {
	return &catalog.QuestionSpec{
		ID:                "smoking",
		Text:              "Do you smoke?",
		Section:           catalog.SectionLifestyle,
		Kind:              catalog.KindChoice,
		Options:           []string{"never", "socially", "regularly"},
		ImportanceApplies: true,
		AllowDealbreaker:  true,
	}
}

func wildcardQuestion() *catalog.QuestionSpec {
	return &catalog.QuestionSpec{
		ID:                "schedule",
		Text:              "Are you a morning or an evening person?",
		Section:           catalog.SectionLifestyle,
		Kind:              catalog.KindChoice,
		Options:           []string{"morning", "evening", "flexible"},
		Wildcard:          "flexible",
		ImportanceApplies: true,
	}
}

func setQuestion() *catalog.QuestionSpec {
	return &catalog.QuestionSpec{
		ID:                "weekend_style",
		Text:              "Pick your two favorite ways to spend a weekend",
		Section:           catalog.SectionLifestyle,
		Kind:              catalog.KindChoiceSet,
		Options:           []string{"outdoors", "culture", "sports", "social", "quiet"},
		ImportanceApplies: true,
	}
}

func matrixQuestion() *catalog.QuestionSpec {
	return &catalog.QuestionSpec{
		ID:                "conflict_style",
		Text:              "How do you handle disagreements?",
		Section:           catalog.SectionPersonality,
		Kind:              catalog.KindMatrix,
		Options:           []string{"talk", "cool_off", "avoid"},
		ImportanceApplies: true,
		Matrix: map[string]map[string]float64{
			"talk":     {"talk": 1, "cool_off": 0.7, "avoid": 0.2},
			"cool_off": {"talk": 0.7, "cool_off": 1, "avoid": 0.5},
			"avoid":    {"talk": 0.2, "cool_off": 0.5, "avoid": 1},
		},
	}
}

func compoundQuestion() *catalog.QuestionSpec {
	return &catalog.QuestionSpec{
		ID:                "travel",
		Text:              "How do you like to travel and how often?",
		Section:           catalog.SectionLifestyle,
		Kind:              catalog.KindCompound,
		Options:           []string{"beach", "city", "adventure", "roadtrip"},
		ScaleMin:          1,
		ScaleMax:          5,
		ImportanceApplies: true,
	}
}

func scaleResponse(v int) models.QuestionResponse {
	return models.QuestionResponse{Answer: &models.AnswerValue{Scale: &v}}
}

func choiceResponse(v string) models.QuestionResponse {
	return models.QuestionResponse{Answer: &models.AnswerValue{Choice: v}}
}

func choiceResponseWithPrefs(v string, prefs ...string) models.QuestionResponse {
	return models.QuestionResponse{
		Answer:     &models.AnswerValue{Choice: v},
		Preference: &models.AnswerValue{Choices: prefs},
	}
}

func setResponse(vals ...string) models.QuestionResponse {
	return models.QuestionResponse{Answer: &models.AnswerValue{Choices: vals}}
}

func compoundResponse(freq int, vals ...string) models.QuestionResponse {
	return models.QuestionResponse{Answer: &models.AnswerValue{Choices: vals, Scale: &freq}}
}

// ==========================
// Scale Comparator Tests
// ==========================

func TestScaleSimilarity(t *testing.T) {
	q := scaleQuestion()

	tests := []struct {
		name     string
		a        models.QuestionResponse
		b        models.QuestionResponse
		expected float64
		scorable bool
	}{
		{
			name:     "identical answers score 1",
			a:        scaleResponse(3),
			b:        scaleResponse(3),
			expected: 1.0,
			scorable: true,
		},
		{
			name:     "opposite ends score 0",
			a:        scaleResponse(1),
			b:        scaleResponse(5),
			expected: 0.0,
			scorable: true,
		},
		{
			name:     "two steps apart on a four step range",
			a:        scaleResponse(2),
			b:        scaleResponse(4),
			expected: 0.5,
			scorable: true,
		},
		{
			name:     "adjacent answers",
			a:        scaleResponse(3),
			b:        scaleResponse(4),
			expected: 0.75,
			scorable: true,
		},
		{
			name:     "missing answer is not scorable",
			a:        models.QuestionResponse{},
			b:        scaleResponse(2),
			scorable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ok := Similarity(q, tt.a, tt.b)
			assert.Equal(t, tt.scorable, ok)
			if tt.scorable {
				assert.InDelta(t, tt.expected, sim, 1e-9)
			}
		})
	}
}

// ==========================
// Choice Comparator Tests
// ==========================

func TestChoiceSimilarity(t *testing.T) {
	q := choiceQuestion()

	tests := []struct {
		name     string
		a        models.QuestionResponse
		b        models.QuestionResponse
		expected float64
		scorable bool
	}{
		{
			name:     "equal answers with no preferences",
			a:        choiceResponse("never"),
			b:        choiceResponse("never"),
			expected: 1.0,
			scorable: true,
		},
		{
			name:     "different answers with no preferences",
			a:        choiceResponse("never"),
			b:        choiceResponse("regularly"),
			expected: 0.0,
			scorable: true,
		},
		{
			name:     "preference set admits the other answer",
			a:        choiceResponseWithPrefs("never", "never", "socially"),
			b:        choiceResponse("socially"),
			expected: 1.0,
			scorable: true,
		},
		{
			name:     "preference set rejects the other answer",
			a:        choiceResponseWithPrefs("never", "never"),
			b:        choiceResponse("regularly"),
			expected: 0.0,
			scorable: true,
		},
		{
			name:     "both preferences must admit",
			a:        choiceResponseWithPrefs("never", "never", "socially"),
			b:        choiceResponseWithPrefs("socially", "regularly"),
			expected: 0.0,
			scorable: true,
		},
		{
			name:     "single sided preference overrides equality",
			a:        choiceResponseWithPrefs("never", "socially"),
			b:        choiceResponse("socially"),
			expected: 1.0,
			scorable: true,
		},
		{
			name:     "missing answer is not scorable",
			a:        models.QuestionResponse{},
			b:        choiceResponse("never"),
			scorable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ok := Similarity(q, tt.a, tt.b)
			assert.Equal(t, tt.scorable, ok)
			if tt.scorable {
				assert.InDelta(t, tt.expected, sim, 1e-9)
			}
		})
	}
}

func TestWildcardAnswerMatchesEverything(t *testing.T) {
	q := wildcardQuestion()

	for _, counterpart := range q.Options {
		sim, ok := Similarity(q, choiceResponse("flexible"), choiceResponse(counterpart))
		assert.True(t, ok)
		assert.Equal(t, 1.0, sim, "flexible should be fully compatible with %s", counterpart)
	}

	// Wildcard beats even a hostile preference on the other side.
	sim, ok := Similarity(q, choiceResponseWithPrefs("morning", "morning"), choiceResponse("flexible"))
	assert.True(t, ok)
	assert.Equal(t, 1.0, sim)
}

func TestWildcardPreferenceAdmitsEverything(t *testing.T) {
	q := wildcardQuestion()

	sim, ok := Similarity(q, choiceResponseWithPrefs("morning", "flexible"), choiceResponse("evening"))
	assert.True(t, ok)
	assert.Equal(t, 1.0, sim)
}

// ==========================
// Set Overlap Comparator Tests
// ==========================

func TestSetSimilarity(t *testing.T) {
	q := setQuestion()

	tests := []struct {
		name     string
		a        models.QuestionResponse
		b        models.QuestionResponse
		expected float64
		scorable bool
	}{
		{
			name:     "identical selections",
			a:        setResponse("outdoors", "culture"),
			b:        setResponse("culture", "outdoors"),
			expected: 1.0,
			scorable: true,
		},
		{
			name:     "disjoint selections",
			a:        setResponse("outdoors", "culture"),
			b:        setResponse("sports", "quiet"),
			expected: 0.0,
			scorable: true,
		},
		{
			name: "one shared of two each",
			a:    setResponse("outdoors", "culture"),
			b:    setResponse("outdoors", "sports"),
			// 2*1 / (2+2) = 0.5
			expected: 0.5,
			scorable: true,
		},
		{
			name: "uneven selection sizes",
			a:    setResponse("outdoors"),
			b:    setResponse("outdoors", "sports"),
			// 2*1 / (1+2) = 0.666...
			expected: 2.0 / 3.0,
			scorable: true,
		},
		{
			name:     "both empty agree vacuously",
			a:        setResponse(),
			b:        setResponse(),
			expected: 1.0,
			scorable: true,
		},
		{
			name:     "one empty scores zero",
			a:        setResponse(),
			b:        setResponse("outdoors"),
			expected: 0.0,
			scorable: true,
		},
		{
			name:     "duplicates count once",
			a:        setResponse("outdoors", "outdoors"),
			b:        setResponse("outdoors"),
			expected: 1.0,
			scorable: true,
		},
		{
			name:     "missing answer is not scorable",
			a:        models.QuestionResponse{},
			b:        setResponse("outdoors"),
			scorable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ok := Similarity(q, tt.a, tt.b)
			assert.Equal(t, tt.scorable, ok)
			if tt.scorable {
				assert.InDelta(t, tt.expected, sim, 1e-9)
			}
		})
	}
}

// ==========================
// Matrix Comparator Tests
// ==========================

func TestMatrixSimilarity(t *testing.T) {
	q := matrixQuestion()

	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{name: "diagonal entry", a: "talk", b: "talk", expected: 1.0},
		{name: "off diagonal entry", a: "talk", b: "cool_off", expected: 0.7},
		{name: "symmetric lookup", a: "cool_off", b: "talk", expected: 0.7},
		{name: "low compatibility entry", a: "talk", b: "avoid", expected: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ok := Similarity(q, choiceResponse(tt.a), choiceResponse(tt.b))
			assert.True(t, ok)
			assert.InDelta(t, tt.expected, sim, 1e-9)
		})
	}

	t.Run("answer outside the table is not scorable", func(t *testing.T) {
		_, ok := Similarity(q, choiceResponse("shout"), choiceResponse("talk"))
		assert.False(t, ok)
	})
}

// ==========================
// Compound Comparator Tests
// ==========================

func TestCompoundSimilarity(t *testing.T) {
	q := compoundQuestion()

	tests := []struct {
		name     string
		a        models.QuestionResponse
		b        models.QuestionResponse
		expected float64
		scorable bool
	}{
		{
			name:     "same styles and same frequency",
			a:        compoundResponse(3, "beach", "city"),
			b:        compoundResponse(3, "city", "beach"),
			expected: 1.0,
			scorable: true,
		},
		{
			name: "half style overlap and half frequency distance",
			a:    compoundResponse(1, "beach", "city"),
			b:    compoundResponse(3, "beach", "adventure"),
			// set 0.5 * freq 0.5 = 0.25
			expected: 0.25,
			scorable: true,
		},
		{
			name:     "disjoint styles zero out the product",
			a:        compoundResponse(3, "beach"),
			b:        compoundResponse(3, "city"),
			expected: 0.0,
			scorable: true,
		},
		{
			name:     "missing frequency is not scorable",
			a:        setResponse("beach"),
			b:        compoundResponse(3, "beach"),
			scorable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ok := Similarity(q, tt.a, tt.b)
			assert.Equal(t, tt.scorable, ok)
			if tt.scorable {
				assert.InDelta(t, tt.expected, sim, 1e-9)
			}
		})
	}
}

// ==========================
// Acceptance Rule Tests
// ==========================

func TestAccepts(t *testing.T) {
	choice := choiceQuestion()
	wildcard := wildcardQuestion()
	three := 3
	seven := 7

	politics := &catalog.QuestionSpec{
		ID:                "politics",
		Text:              "Where do you sit politically?",
		Section:           catalog.SectionPersonality,
		Kind:              catalog.KindScale,
		ScaleMin:          1,
		ScaleMax:          10,
		ImportanceApplies: true,
		AllowDealbreaker:  true,
	}

	tests := []struct {
		name     string
		q        *catalog.QuestionSpec
		pref     *models.AnswerValue
		ans      *models.AnswerValue
		expected bool
	}{
		{
			name:     "nil preference imposes no constraint",
			q:        choice,
			pref:     nil,
			ans:      &models.AnswerValue{Choice: "regularly"},
			expected: true,
		},
		{
			name:     "missing answer fails closed",
			q:        choice,
			pref:     &models.AnswerValue{Choices: []string{"never"}},
			ans:      nil,
			expected: false,
		},
		{
			name:     "single preference equality",
			q:        choice,
			pref:     &models.AnswerValue{Choice: "never"},
			ans:      &models.AnswerValue{Choice: "never"},
			expected: true,
		},
		{
			name:     "preference set membership",
			q:        choice,
			pref:     &models.AnswerValue{Choices: []string{"never", "socially"}},
			ans:      &models.AnswerValue{Choice: "socially"},
			expected: true,
		},
		{
			name:     "preference set rejection",
			q:        choice,
			pref:     &models.AnswerValue{Choices: []string{"never"}},
			ans:      &models.AnswerValue{Choice: "regularly"},
			expected: false,
		},
		{
			name:     "wildcard answer satisfies a strict preference",
			q:        wildcard,
			pref:     &models.AnswerValue{Choices: []string{"morning"}},
			ans:      &models.AnswerValue{Choice: "flexible"},
			expected: true,
		},
		{
			name:     "wildcard preference admits anything",
			q:        wildcard,
			pref:     &models.AnswerValue{Choices: []string{"flexible"}},
			ans:      &models.AnswerValue{Choice: "evening"},
			expected: true,
		},
		{
			name:     "scale range preference contains answer",
			q:        politics,
			pref:     &models.AnswerValue{Range: &models.NumRange{Min: 2, Max: 5}},
			ans:      &models.AnswerValue{Scale: &three},
			expected: true,
		},
		{
			name:     "scale range preference excludes answer",
			q:        politics,
			pref:     &models.AnswerValue{Range: &models.NumRange{Min: 2, Max: 5}},
			ans:      &models.AnswerValue{Scale: &seven},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Accepts(tt.q, tt.pref, tt.ans))
		})
	}
}

// ==========================
// Range Invariant Tests
// ==========================

func TestSimilarityStaysInUnitInterval(t *testing.T) {
	q := scaleQuestion()
	for a := 1; a <= 5; a++ {
		for b := 1; b <= 5; b++ {
			sim, ok := Similarity(q, scaleResponse(a), scaleResponse(b))
			assert.True(t, ok)
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0)
		}
	}

	m := matrixQuestion()
	for _, a := range m.Options {
		for _, b := range m.Options {
			sim, ok := Similarity(m, choiceResponse(a), choiceResponse(b))
			assert.True(t, ok)
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0)
		}
	}
}
