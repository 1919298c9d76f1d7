// internal/models/participant.go
package models

// Gender is a participant's declared gender.
type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non_binary"
)

// IsValid reports whether g is one of the declared gender values.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNonBinary:
		return true
	}
	return false
}

// Importance is the weight bucket a participant assigns to a question.
type Importance string

const (
	ImportanceNotImportant      Importance = "not_important"
	ImportanceSomewhatImportant Importance = "somewhat_important"
	ImportanceImportant         Importance = "important"
	ImportanceVeryImportant     Importance = "very_important"
)

// IsValid reports whether i is one of the declared importance buckets.
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceNotImportant, ImportanceSomewhatImportant, ImportanceImportant, ImportanceVeryImportant:
		return true
	}
	return false
}

// NumRange is an inclusive numeric interval.
type NumRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the interval.
func (r NumRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// AnswerValue carries one answer or preference payload. Which fields are
// populated depends on the question kind: scale questions use Scale, choice
// questions use Choice (answers) and Choice or Choices (preferences),
// multi-select questions use Choices, numeric questions use Number, and
// range preferences use Range. Compound questions populate both Choices
// and Scale.
type AnswerValue struct {
	Scale   *int      `json:"scale,omitempty"`
	Choice  string    `json:"choice,omitempty"`
	Choices []string  `json:"choices,omitempty"`
	Number  *float64  `json:"number,omitempty"`
	Range   *NumRange `json:"range,omitempty"`
}

// QuestionResponse is one participant's response to one question. Preference
// and Importance are optional; Dealbreaker marks the stated preference as a
// hard exclusion rule rather than a scoring input.
type QuestionResponse struct {
	Answer      *AnswerValue `json:"answer,omitempty"`
	Preference  *AnswerValue `json:"preference,omitempty"`
	Importance  *Importance  `json:"importance,omitempty"`
	Dealbreaker bool         `json:"dealbreaker,omitempty"`
}

// Participant is one member of a population snapshot. Snapshots are loaded
// once per run and never mutated while a run is in flight.
type Participant struct {
	ID           string                      `json:"id"`
	Gender       Gender                      `json:"gender"`
	InterestedIn []Gender                    `json:"interestedIn"`
	Responses    map[string]QuestionResponse `json:"responses"`
}

// Response returns the participant's response to the given question.
func (p *Participant) Response(questionID string) (QuestionResponse, bool) {
	r, ok := p.Responses[questionID]
	return r, ok
}

// AcceptsGender reports whether g is among the genders the participant is
// open to matching with.
func (p *Participant) AcceptsGender(g Gender) bool {
	for _, accepted := range p.InterestedIn {
		if accepted == g {
			return true
		}
	}
	return false
}
