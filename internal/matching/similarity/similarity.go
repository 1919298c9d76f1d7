// internal/matching/similarity/similarity.go
package similarity

import (
	"matching-workers/internal/matching/comparator"
	"matching-workers/internal/models"
	"matching-workers/pkg/catalog"
)

// Vector maps question id to the pair's similarity on that question. Only
// questions both participants answered in a scorable way appear; everything
// else is skipped, never defaulted.
type Vector map[string]float64

// Calculator produces per-question similarity vectors for candidate pairs.
// The vector is direction-agnostic and computed once per pair; both
// directional scores consume the same values, only the importance weighting
// differs per direction.
type Calculator struct {
	questions []*catalog.QuestionSpec
}

// NewCalculator builds a calculator over the catalog's scorable questions.
func NewCalculator(cat *catalog.Catalog) *Calculator {
	return &Calculator{questions: cat.Scorable()}
}

// Vector computes the similarity vector for one pair.
func (c *Calculator) Vector(a, b *models.Participant) Vector {
	vec := make(Vector, len(c.questions))
	for _, q := range c.questions {
		ra, ok := a.Responses[q.ID]
		if !ok {
			continue
		}
		rb, ok := b.Responses[q.ID]
		if !ok {
			continue
		}
		if sim, ok := comparator.Similarity(q, ra, rb); ok {
			vec[q.ID] = sim
		}
	}
	return vec
}
