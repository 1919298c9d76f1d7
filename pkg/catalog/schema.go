// pkg/catalog/schema.go
package catalog

// Section groups questions for section-weighted scoring. Lifestyle and
// personality sections are scored; profile questions are either hard filters
// or excluded free text.
type Section string

const (
	SectionLifestyle   Section = "lifestyle"
	SectionPersonality Section = "personality"
	SectionProfile     Section = "profile"
)

// IsValid reports whether s is a known section.
func (s Section) IsValid() bool {
	switch s {
	case SectionLifestyle, SectionPersonality, SectionProfile:
		return true
	}
	return false
}

// Kind selects the comparator used to score a question. The set is closed:
// every question in a catalog carries exactly one kind, and the similarity
// dispatch switches on it.
type Kind string

const (
	// KindScale compares 1..N ordinal answers by linear distance.
	KindScale Kind = "scale"

	// KindChoice compares single-category answers by equality, or by
	// preference-set membership when either side states a preference. A
	// question-level wildcard value, when configured, is fully compatible
	// with every counterpart value.
	KindChoice Kind = "choice"

	// KindChoiceSet compares multi-select answers by fractional overlap,
	// independent of order.
	KindChoiceSet Kind = "choice_set"

	// KindMatrix reads similarity from a fixed symmetric compatibility
	// table keyed by the two answer categories.
	KindMatrix Kind = "matrix"

	// KindCompound bundles a multi-select component and a frequency scale
	// component; similarity is the product of the two partial similarities.
	KindCompound Kind = "compound"

	// KindNumber is a numeric answer paired with a range preference. Number
	// questions are only meaningful as hard filters and are never scored.
	KindNumber Kind = "number"

	// KindFreeText is prose collected for human reviewers. Free-text
	// questions are excluded from scoring entirely.
	KindFreeText Kind = "free_text"
)

// IsValid reports whether k is a known comparator kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindScale, KindChoice, KindChoiceSet, KindMatrix, KindCompound, KindNumber, KindFreeText:
		return true
	}
	return false
}

// QuestionSpec is the static metadata for one questionnaire question. The
// catalog file supplies the full set once per deployment; participants refer
// to questions by ID only.
type QuestionSpec struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Section Section `json:"section"`
	Kind    Kind    `json:"kind"`

	// Options enumerates the legal category values for choice, choice_set,
	// matrix, and compound questions.
	Options []string `json:"options,omitempty"`

	// ScaleMin and ScaleMax bound scale answers and the frequency component
	// of compound answers.
	ScaleMin int `json:"scaleMin,omitempty"`
	ScaleMax int `json:"scaleMax,omitempty"`

	// Wildcard names the option that is fully compatible with every other
	// value. Only choice questions may configure one.
	Wildcard string `json:"wildcard,omitempty"`

	// Matrix holds the pairwise compatibility table for matrix questions,
	// keyed by answer category on both axes. Values are in [0,1] and the
	// table is symmetric and complete over Options.
	Matrix map[string]map[string]float64 `json:"matrix,omitempty"`

	// ImportanceApplies marks questions whose responses carry an importance
	// bucket. Hard-filter and free-text questions never ask for one.
	ImportanceApplies bool `json:"importanceApplies"`

	// AllowDealbreaker marks questions whose preference may be flagged as a
	// hard exclusion rule.
	AllowDealbreaker bool `json:"allowDealbreaker,omitempty"`

	// HardFilter marks questions consumed by the hard filter instead of the
	// scorer, such as the acceptable-age question.
	HardFilter bool `json:"hardFilter,omitempty"`
}

// Scorable reports whether the question contributes to pair scores.
// Hard-filter, free-text, and plain numeric questions never do.
func (q *QuestionSpec) Scorable() bool {
	if q.HardFilter {
		return false
	}
	switch q.Kind {
	case KindFreeText, KindNumber:
		return false
	}
	return true
}

// HasOption reports whether v is one of the question's legal categories.
func (q *QuestionSpec) HasOption(v string) bool {
	for _, opt := range q.Options {
		if opt == v {
			return true
		}
	}
	return false
}

// fileSchema is the JSON Schema the raw catalog document must satisfy before
// semantic validation runs. Structural problems (wrong types, missing
// required keys) are caught here; cross-field rules live in Validate.
const fileSchema = `{
  "type": "object",
  "required": ["version", "questions"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "text", "section", "kind"],
        "properties": {
          "id": {"type": "string", "minLength": 1, "pattern": "^[a-z][a-z0-9_]*$"},
          "text": {"type": "string", "minLength": 1},
          "section": {"type": "string", "enum": ["lifestyle", "personality", "profile"]},
          "kind": {"type": "string", "enum": ["scale", "choice", "choice_set", "matrix", "compound", "number", "free_text"]},
          "options": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "scaleMin": {"type": "integer"},
          "scaleMax": {"type": "integer"},
          "wildcard": {"type": "string"},
          "matrix": {
            "type": "object",
            "additionalProperties": {
              "type": "object",
              "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
            }
          },
          "importanceApplies": {"type": "boolean"},
          "allowDealbreaker": {"type": "boolean"},
          "hardFilter": {"type": "boolean"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
