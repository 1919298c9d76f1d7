// internal/workers/matching/validate-population/models.go
package validatepopulation

type Input struct {
	PopulationID string `json:"populationId"`
}

// Issue mirrors one snapshot problem for the process model. Field uses
// dotted paths into the participant's responses.
type Issue struct {
	ParticipantID string `json:"participantId,omitempty"`
	Field         string `json:"field"`
	Message       string `json:"message"`
}

type Output struct {
	PopulationID     string  `json:"populationId"`
	Valid            bool    `json:"valid"`
	ParticipantCount int     `json:"participantCount"`
	Issues           []Issue `json:"issues,omitempty"`
}
