// internal/workers/matching/run-matching-cycle/validation.go
package runmatchingcycle

import "matching-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"populationId"},
		Properties: map[string]validation.Property{
			"populationId": {
				Type:        "string",
				Description: "Population whose snapshot the run matches over",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(100),
			},
			"dryRun": {
				Type:        "boolean",
				Description: "Run the full pipeline without persisting results",
				Default:     false,
			},
			"triggeredBy": {
				Type:        "string",
				Description: "Operator or process that triggered the run",
				MaxLength:   intPtr(200),
			},
		},
		// Jobs arrive with whatever process variables the workflow carries.
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"runId": {
				Type:        "string",
				Description: "Identifier assigned to this run",
			},
			"populationId": {
				Type:        "string",
				Description: "Population the run matched over",
			},
			"dryRun": {
				Type:        "boolean",
				Description: "Whether persistence was skipped",
			},
			"participantCount": {
				Type:        "integer",
				Description: "Participants in the snapshot",
			},
			"matchesCreated": {
				Type:        "integer",
				Description: "Pairs selected by the optimizer",
			},
			"unmatchedCount": {
				Type:        "integer",
				Description: "Participants left without a partner",
			},
			"perfectionistCount": {
				Type:        "integer",
				Description: "Participants whose relative floor rejected every candidate",
			},
			"meanPairScore": {
				Type:        "number",
				Description: "Mean score over all scored pairs",
			},
			"matchRowsWritten": {
				Type:        "integer",
				Description: "Directed match rows persisted",
			},
			"unmatchedRowsWritten": {
				Type:        "integer",
				Description: "Unmatched records persisted",
			},
			"durationMs": {
				Type:        "integer",
				Description: "Wall-clock duration of the run",
			},
		},
	}
}

func intPtr(i int) *int {
	return &i
}
