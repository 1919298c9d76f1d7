// internal/workers/matching/validate-population/validation.go
package validatepopulation

import "matching-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"populationId"},
		Properties: map[string]validation.Property{
			"populationId": {
				Type:        "string",
				Description: "Population whose snapshot is checked",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(100),
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
				Description: "Population the check ran over",
			},
			"valid": {
				Type:        "boolean",
				Description: "Whether the snapshot can be matched as-is",
			},
			"participantCount": {
				Type:        "integer",
				Description: "Participants in the snapshot",
			},
			"issues": {
				Type:        "array",
				Description: "Structural problems found, one per participant and field",
			},
		},
	}
}

func intPtr(i int) *int {
	return &i
}
