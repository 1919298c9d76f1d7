// internal/matching/hardfilter/hardfilter.go
package hardfilter

import (
	"matching-workers/internal/matching/comparator"
	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// Gate names the hard-filter rule that excluded a pair.
type Gate string

const (
	GateNone        Gate = ""
	GateGender      Gate = "gender"
	GateAge         Gate = "age"
	GateDealbreaker Gate = "dealbreaker"
)

// Cause identifies the first gate that rejected a pair. QuestionID is set
// only for dealbreaker rejections.
type Cause struct {
	Gate       Gate
	QuestionID string
}

// Filter decides whether a candidate pair may be scored at all. It never
// returns errors: missing gender, age, or answer data excludes the pair,
// so incomplete participants can only shrink the candidate set, never slip
// through a constraint.
type Filter struct {
	ageQuestion   *catalog.QuestionSpec
	dealbreakable []*catalog.QuestionSpec
}

// New builds a filter from the catalog. ageQuestionID names the hard-filter
// question whose answer carries the participant's own age and whose
// preference carries the acceptable partner age range; an empty id disables
// the age gate.
func New(cat *catalog.Catalog, ageQuestionID string) *Filter {
	f := &Filter{}
	if ageQuestionID != "" {
		if q, ok := cat.Question(ageQuestionID); ok && q.HardFilter {
			f.ageQuestion = q
		}
	}
	for _, q := range cat.Scorable() {
		if q.AllowDealbreaker {
			f.dealbreakable = append(f.dealbreakable, q)
		}
	}
	return f
}

// Allow evaluates the gender, age, and dealbreaker gates in that order and
// reports the first one that rejects the pair. The predicate is symmetric:
// Allow(a, b) and Allow(b, a) always agree on the verdict.
func (f *Filter) Allow(a, b *models.Participant) (bool, Cause) {
	if !genderCompatible(a, b) {
		return false, Cause{Gate: GateGender}
	}
	if f.ageQuestion != nil && !f.agesCompatible(a, b) {
		return false, Cause{Gate: GateAge}
	}
	for _, q := range f.dealbreakable {
		if f.dealbreakerViolated(q, a, b) {
			return false, Cause{Gate: GateDealbreaker, QuestionID: q.ID}
		}
	}
	return true, Cause{}
}

func genderCompatible(a, b *models.Participant) bool {
	if !a.Gender.IsValid() || !b.Gender.IsValid() {
		return false
	}
	return a.AcceptsGender(b.Gender) && b.AcceptsGender(a.Gender)
}

// agesCompatible requires both participants to state their age and an
// acceptable partner range, and each age to fall inside the other's range.
func (f *Filter) agesCompatible(a, b *models.Participant) bool {
	ageA, rangeA, ok := f.ageAndRange(a)
	if !ok {
		return false
	}
	ageB, rangeB, ok := f.ageAndRange(b)
	if !ok {
		return false
	}
	return rangeA.Contains(ageB) && rangeB.Contains(ageA)
}

func (f *Filter) ageAndRange(p *models.Participant) (float64, models.NumRange, bool) {
	r, ok := p.Responses[f.ageQuestion.ID]
	if !ok || r.Answer == nil || r.Answer.Number == nil || r.Preference == nil || r.Preference.Range == nil {
		return 0, models.NumRange{}, false
	}
	return *r.Answer.Number, *r.Preference.Range, true
}

// dealbreakerViolated checks both directions of one question: whoever
// flagged the dealbreaker must have their preference satisfied by the other
// side's answer. A flagged preference against a missing answer is a
// violation.
func (f *Filter) dealbreakerViolated(q *catalog.QuestionSpec, a, b *models.Participant) bool {
	ra := a.Responses[q.ID]
	rb := b.Responses[q.ID]

	if ra.Dealbreaker && !comparator.Accepts(q, ra.Preference, rb.Answer) {
		return true
	}
	if rb.Dealbreaker && !comparator.Accepts(q, rb.Preference, ra.Answer) {
		return true
	}
	return false
}
