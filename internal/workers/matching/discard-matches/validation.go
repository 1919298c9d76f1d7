// internal/workers/matching/discard-matches/validation.go
package discardmatches

import "matching-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"populationId"},
		Properties: map[string]validation.Property{
			"populationId": {
				Type:        "string",
				Description: "Population whose stored results are discarded",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(100),
			},
			"triggeredBy": {
				Type:        "string",
				Description: "Operator or process that requested the discard",
				MaxLength:   intPtr(200),
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"populationId": {
				Type:        "string",
				Description: "Population the discard ran over",
			},
			"matchRowsDeleted": {
				Type:        "integer",
				Description: "Directed match rows removed",
			},
			"unmatchedRowsDeleted": {
				Type:        "integer",
				Description: "Unmatched records removed",
			},
		},
	}
}

func intPtr(i int) *int {
	return &i
}
