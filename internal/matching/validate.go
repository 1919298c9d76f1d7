// internal/matching/validate.go
package matching

import (
	"fmt"

	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// ValidationIssue names one structural problem in a population snapshot.
type ValidationIssue struct {
	ParticipantID string `json:"participantId"`
	Field         string `json:"field"`
	Message       string `json:"message"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("participant %q, field %q: %s", i.ParticipantID, i.Field, i.Message)
}

// ValidatePopulation checks every participant for structural problems:
// malformed identities, unknown questions, and answer payloads whose shape
// does not fit the question kind. It does not check completeness; a missing
// answer is legal and handled downstream (the hard filter excludes
// incomplete pairs, scoring skips one-sided questions).
func ValidatePopulation(cat *catalog.Catalog, participants []models.Participant) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[string]bool, len(participants))

	for idx := range participants {
		p := &participants[idx]

		if p.ID == "" {
			issues = append(issues, ValidationIssue{
				Field:   "id",
				Message: fmt.Sprintf("participant at index %d has an empty id", idx),
			})
			continue
		}
		if seen[p.ID] {
			issues = append(issues, ValidationIssue{
				ParticipantID: p.ID,
				Field:         "id",
				Message:       "duplicate participant id",
			})
			continue
		}
		seen[p.ID] = true

		if !p.Gender.IsValid() {
			issues = append(issues, ValidationIssue{
				ParticipantID: p.ID,
				Field:         "gender",
				Message:       fmt.Sprintf("unknown gender %q", p.Gender),
			})
		}

		if len(p.InterestedIn) == 0 {
			issues = append(issues, ValidationIssue{
				ParticipantID: p.ID,
				Field:         "interestedIn",
				Message:       "no accepted genders declared",
			})
		}
		for _, g := range p.InterestedIn {
			if !g.IsValid() {
				issues = append(issues, ValidationIssue{
					ParticipantID: p.ID,
					Field:         "interestedIn",
					Message:       fmt.Sprintf("unknown gender %q", g),
				})
			}
		}

		issues = append(issues, validateResponses(cat, p)...)
	}

	return issues
}

func validateResponses(cat *catalog.Catalog, p *models.Participant) []ValidationIssue {
	var issues []ValidationIssue

	add := func(field, format string, args ...interface{}) {
		issues = append(issues, ValidationIssue{
			ParticipantID: p.ID,
			Field:         field,
			Message:       fmt.Sprintf(format, args...),
		})
	}

	for questionID, r := range p.Responses {
		q, ok := cat.Question(questionID)
		if !ok {
			add("responses."+questionID, "question not in catalog")
			continue
		}

		if r.Answer != nil {
			for _, msg := range answerShapeIssues(q, r.Answer) {
				add(fmt.Sprintf("responses.%s.answer", questionID), "%s", msg)
			}
		}
		if r.Preference != nil {
			for _, msg := range preferenceShapeIssues(q, r.Preference) {
				add(fmt.Sprintf("responses.%s.preference", questionID), "%s", msg)
			}
		}

		if r.Importance != nil && !r.Importance.IsValid() {
			add(fmt.Sprintf("responses.%s.importance", questionID), "unknown importance %q", *r.Importance)
		}

		if r.Dealbreaker {
			if !q.AllowDealbreaker {
				add(fmt.Sprintf("responses.%s.dealbreaker", questionID), "question does not allow dealbreakers")
			}
			if r.Preference == nil {
				add(fmt.Sprintf("responses.%s.dealbreaker", questionID), "dealbreaker flagged without a stated preference")
			}
		}
	}

	return issues
}

// answerShapeIssues checks that a present answer carries the payload the
// question kind expects.
func answerShapeIssues(q *catalog.QuestionSpec, ans *models.AnswerValue) []string {
	var msgs []string

	switch q.Kind {
	case catalog.KindScale:
		if ans.Scale == nil {
			msgs = append(msgs, "scale answer missing a scale value")
		} else if *ans.Scale < q.ScaleMin || *ans.Scale > q.ScaleMax {
			msgs = append(msgs, fmt.Sprintf("scale answer %d outside [%d, %d]", *ans.Scale, q.ScaleMin, q.ScaleMax))
		}

	case catalog.KindChoice, catalog.KindMatrix:
		if ans.Choice == "" {
			msgs = append(msgs, "choice answer missing a choice value")
		} else if !q.HasOption(ans.Choice) {
			msgs = append(msgs, fmt.Sprintf("choice %q is not an option", ans.Choice))
		}

	case catalog.KindChoiceSet:
		if len(ans.Choices) == 0 {
			msgs = append(msgs, "multi-select answer has no choices")
		}
		for _, c := range ans.Choices {
			if !q.HasOption(c) {
				msgs = append(msgs, fmt.Sprintf("choice %q is not an option", c))
			}
		}

	case catalog.KindCompound:
		for _, c := range ans.Choices {
			if !q.HasOption(c) {
				msgs = append(msgs, fmt.Sprintf("choice %q is not an option", c))
			}
		}
		if ans.Scale != nil && (*ans.Scale < q.ScaleMin || *ans.Scale > q.ScaleMax) {
			msgs = append(msgs, fmt.Sprintf("frequency %d outside [%d, %d]", *ans.Scale, q.ScaleMin, q.ScaleMax))
		}

	case catalog.KindNumber:
		if ans.Number == nil {
			msgs = append(msgs, "numeric answer missing a number value")
		}

	case catalog.KindFreeText:
		// Free text carries no structured payload to check.
	}

	return msgs
}

// preferenceShapeIssues checks a stated preference against the question kind.
// Preferences are sparser than answers: a choice preference may name one
// option or a set, a scale or numeric preference is a range.
func preferenceShapeIssues(q *catalog.QuestionSpec, pref *models.AnswerValue) []string {
	var msgs []string

	switch q.Kind {
	case catalog.KindChoice, catalog.KindMatrix:
		if pref.Choice != "" && !q.HasOption(pref.Choice) {
			msgs = append(msgs, fmt.Sprintf("preferred choice %q is not an option", pref.Choice))
		}
		for _, c := range pref.Choices {
			if !q.HasOption(c) {
				msgs = append(msgs, fmt.Sprintf("preferred choice %q is not an option", c))
			}
		}

	case catalog.KindScale, catalog.KindNumber:
		if pref.Range != nil && pref.Range.Min > pref.Range.Max {
			msgs = append(msgs, fmt.Sprintf("preference range [%v, %v] is inverted", pref.Range.Min, pref.Range.Max))
		}
	}

	return msgs
}
