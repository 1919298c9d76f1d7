// internal/matching/hardfilter/hardfilter_test.go
package hardfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
			ID:         "partner_age",
			Text:       "Your age and the age range you would accept in a partner",
			Section:    catalog.SectionProfile,
			Kind:       catalog.KindNumber,
			HardFilter: true,
		},
		{
			ID:                "smoking",
			Text:              "Do you smoke?",
			Section:           catalog.SectionLifestyle,
			Kind:              catalog.KindChoice,
			Options:           []string{"never", "socially", "regularly"},
			ImportanceApplies: true,
			AllowDealbreaker:  true,
		},
		{
			ID:                "politics",
			Text:              "Where do you sit politically?",
			Section:           catalog.SectionPersonality,
			Kind:              catalog.KindScale,
			ScaleMin:          1,
			ScaleMax:          10,
			ImportanceApplies: true,
			AllowDealbreaker:  true,
		},
	})
	require.NoError(t, err)
	return cat
}

func testFilter(t *testing.T) *Filter {
	t.Helper()
	return New(testCatalog(t), "partner_age")
}

func testParticipant(id string, gender models.Gender, interestedIn ...models.Gender) *models.Participant {
	return &models.Participant{
		ID:           id,
		Gender:       gender,
		InterestedIn: interestedIn,
		Responses:    map[string]models.QuestionResponse{},
	}
}

func withAge(p *models.Participant, age float64, acceptMin, acceptMax float64) *models.Participant {
	p.Responses["partner_age"] = models.QuestionResponse{
		Answer:     &models.AnswerValue{Number: &age},
		Preference: &models.AnswerValue{Range: &models.NumRange{Min: acceptMin, Max: acceptMax}},
	}
	return p
}

func withChoice(p *models.Participant, questionID, answer string) *models.Participant {
	p.Responses[questionID] = models.QuestionResponse{
		Answer: &models.AnswerValue{Choice: answer},
	}
	return p
}

func withDealbreaker(p *models.Participant, questionID, answer string, accepted ...string) *models.Participant {
	p.Responses[questionID] = models.QuestionResponse{
		Answer:      &models.AnswerValue{Choice: answer},
		Preference:  &models.AnswerValue{Choices: accepted},
		Dealbreaker: true,
	}
	return p
}

// compatiblePair returns two participants that clear every gate.
func compatiblePair() (*models.Participant, *models.Participant) {
	a := withAge(testParticipant("a", models.GenderMale, models.GenderFemale), 30, 25, 35)
	b := withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 31, 26, 36)
	return a, b
}

// ==========================
// Gender Gate Tests
// ==========================

func TestGenderGate(t *testing.T) {
	f := testFilter(t)

	tests := []struct {
		name    string
		a       *models.Participant
		b       *models.Participant
		allowed bool
	}{
		{
			name:    "mutual interest passes",
			a:       withAge(testParticipant("a", models.GenderMale, models.GenderFemale), 30, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 30, 25, 35),
			allowed: true,
		},
		{
			name:    "one sided interest is excluded",
			a:       withAge(testParticipant("a", models.GenderMale, models.GenderFemale), 30, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderFemale), 30, 25, 35),
			allowed: false,
		},
		{
			name:    "open to multiple genders passes",
			a:       withAge(testParticipant("a", models.GenderNonBinary, models.GenderMale, models.GenderFemale, models.GenderNonBinary), 30, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderNonBinary), 30, 25, 35),
			allowed: true,
		},
		{
			name:    "missing gender fails closed",
			a:       withAge(testParticipant("a", "", models.GenderFemale), 30, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 30, 25, 35),
			allowed: false,
		},
		{
			name:    "empty interest list fails closed",
			a:       withAge(testParticipant("a", models.GenderMale), 30, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 30, 25, 35),
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, cause := f.Allow(tt.a, tt.b)
			assert.Equal(t, tt.allowed, allowed)
			if !tt.allowed {
				assert.Equal(t, GateGender, cause.Gate)
			}
		})
	}
}

// ==========================
// Age Gate Tests
// ==========================

func TestAgeGate(t *testing.T) {
	f := testFilter(t)

	tests := []struct {
		name    string
		a       *models.Participant
		b       *models.Participant
		allowed bool
	}{
		{
			name:    "both ages inside both ranges",
			a:       withAge(testParticipant("a", models.GenderMale, models.GenderFemale), 30, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 28, 27, 33),
			allowed: true,
		},
		{
			name:    "partner too old for stated range",
			a:       withAge(testParticipant("a", models.GenderMale, models.GenderFemale), 30, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 40, 25, 45),
			allowed: false,
		},
		{
			name:    "own age outside partner range",
			a:       withAge(testParticipant("a", models.GenderMale, models.GenderFemale), 24, 20, 40),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 30, 28, 35),
			allowed: false,
		},
		{
			name:    "boundary ages are inclusive",
			a:       withAge(testParticipant("a", models.GenderMale, models.GenderFemale), 35, 25, 35),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 25, 25, 35),
			allowed: true,
		},
		{
			name:    "missing age response fails closed",
			a:       testParticipant("a", models.GenderMale, models.GenderFemale),
			b:       withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 30, 25, 35),
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, cause := f.Allow(tt.a, tt.b)
			assert.Equal(t, tt.allowed, allowed)
			if !tt.allowed {
				assert.Equal(t, GateAge, cause.Gate)
			}
		})
	}

	t.Run("missing preference range fails closed", func(t *testing.T) {
		a := testParticipant("a", models.GenderMale, models.GenderFemale)
		age := 30.0
		a.Responses["partner_age"] = models.QuestionResponse{
			Answer: &models.AnswerValue{Number: &age},
		}
		b := withAge(testParticipant("b", models.GenderFemale, models.GenderMale), 30, 25, 35)

		allowed, cause := f.Allow(a, b)
		assert.False(t, allowed)
		assert.Equal(t, GateAge, cause.Gate)
	})
}

// ==========================
// Dealbreaker Gate Tests
// ==========================

func TestDealbreakerGate(t *testing.T) {
	f := testFilter(t)

	t.Run("violated dealbreaker excludes the pair", func(t *testing.T) {
		a, b := compatiblePair()
		withDealbreaker(a, "smoking", "never", "never")
		withChoice(b, "smoking", "regularly")

		allowed, cause := f.Allow(a, b)
		assert.False(t, allowed)
		assert.Equal(t, GateDealbreaker, cause.Gate)
		assert.Equal(t, "smoking", cause.QuestionID)
	})

	t.Run("satisfied dealbreaker passes", func(t *testing.T) {
		a, b := compatiblePair()
		withDealbreaker(a, "smoking", "never", "never", "socially")
		withChoice(b, "smoking", "socially")

		allowed, _ := f.Allow(a, b)
		assert.True(t, allowed)
	})

	t.Run("dealbreaker against missing answer fails closed", func(t *testing.T) {
		a, b := compatiblePair()
		withDealbreaker(a, "smoking", "never", "never")

		allowed, cause := f.Allow(a, b)
		assert.False(t, allowed)
		assert.Equal(t, GateDealbreaker, cause.Gate)
		assert.Equal(t, "smoking", cause.QuestionID)
	})

	t.Run("preference without dealbreaker flag does not exclude", func(t *testing.T) {
		a, b := compatiblePair()
		a.Responses["smoking"] = models.QuestionResponse{
			Answer:     &models.AnswerValue{Choice: "never"},
			Preference: &models.AnswerValue{Choices: []string{"never"}},
		}
		withChoice(b, "smoking", "regularly")

		allowed, _ := f.Allow(a, b)
		assert.True(t, allowed)
	})

	t.Run("scale range dealbreaker", func(t *testing.T) {
		a, b := compatiblePair()
		three, nine := 3, 9
		a.Responses["politics"] = models.QuestionResponse{
			Answer:      &models.AnswerValue{Scale: &three},
			Preference:  &models.AnswerValue{Range: &models.NumRange{Min: 1, Max: 5}},
			Dealbreaker: true,
		}
		b.Responses["politics"] = models.QuestionResponse{
			Answer: &models.AnswerValue{Scale: &nine},
		}

		allowed, cause := f.Allow(a, b)
		assert.False(t, allowed)
		assert.Equal(t, GateDealbreaker, cause.Gate)
		assert.Equal(t, "politics", cause.QuestionID)
	})
}

// ==========================
// Symmetry Tests
// ==========================

func TestAllowIsSymmetric(t *testing.T) {
	f := testFilter(t)

	a, b := compatiblePair()
	withDealbreaker(a, "smoking", "never", "never")
	withChoice(b, "smoking", "regularly")

	allowedAB, causeAB := f.Allow(a, b)
	allowedBA, causeBA := f.Allow(b, a)

	assert.Equal(t, allowedAB, allowedBA)
	assert.Equal(t, causeAB.Gate, causeBA.Gate)
	assert.Equal(t, causeAB.QuestionID, causeBA.QuestionID)
}

func TestAgeGateDisabledWithoutQuestion(t *testing.T) {
	cat, err := catalog.FromSpecs("test", []catalog.QuestionSpec{
		{
			ID:                "smoking",
			Text:              "Do you smoke?",
			Section:           catalog.SectionLifestyle,
			Kind:              catalog.KindChoice,
			Options:           []string{"never", "socially", "regularly"},
			ImportanceApplies: true,
		},
	})
	require.NoError(t, err)
	f := New(cat, "partner_age")

	// No age question in the catalog, so the age gate never fires.
	a := testParticipant("a", models.GenderMale, models.GenderFemale)
	b := testParticipant("b", models.GenderFemale, models.GenderMale)
	allowed, _ := f.Allow(a, b)
	assert.True(t, allowed)
}
