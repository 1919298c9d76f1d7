// internal/workers/matching/discard-matches/models.go
package discardmatches

type Input struct {
	PopulationID string `json:"populationId"`
	TriggeredBy  string `json:"triggeredBy,omitempty"`
}

type Output struct {
	PopulationID         string `json:"populationId"`
	MatchRowsDeleted     int64  `json:"matchRowsDeleted"`
	UnmatchedRowsDeleted int64  `json:"unmatchedRowsDeleted"`
}
