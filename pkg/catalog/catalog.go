// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Catalog is the validated question set a matching run scores against.
type Catalog struct {
	Version   string         `json:"version"`
	Questions []QuestionSpec `json:"questions"`

	byID map[string]*QuestionSpec
}

// Load reads, schema-checks, and semantically validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON. The document is checked against the
// file schema first so semantic validation can assume well-formed shapes.
func Parse(data []byte) (*Catalog, error) {
	schemaLoader := gojsonschema.NewStringLoader(fileSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("catalog schema validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("catalog document is invalid: %v", errs)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := c.init(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromSpecs builds a catalog directly from question specs, running the same
// semantic validation as Parse. Intended for tests and programmatic callers.
func FromSpecs(version string, questions []QuestionSpec) (*Catalog, error) {
	c := &Catalog{Version: version, Questions: questions}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init() error {
	c.byID = make(map[string]*QuestionSpec, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		if _, dup := c.byID[q.ID]; dup {
			return fmt.Errorf("catalog question %q: duplicate id", q.ID)
		}
		c.byID[q.ID] = q
	}
	return c.Validate()
}

// Question returns the spec for the given question id.
func (c *Catalog) Question(id string) (*QuestionSpec, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Scorable returns the questions that contribute to pair scores, in a stable
// order so score arithmetic is deterministic run to run.
func (c *Catalog) Scorable() []*QuestionSpec {
	out := make([]*QuestionSpec, 0, len(c.Questions))
	for i := range c.Questions {
		if c.Questions[i].Scorable() {
			out = append(out, &c.Questions[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HardFilterQuestions returns the questions consumed by the hard filter.
func (c *Catalog) HardFilterQuestions() []*QuestionSpec {
	var out []*QuestionSpec
	for i := range c.Questions {
		if c.Questions[i].HardFilter {
			out = append(out, &c.Questions[i])
		}
	}
	return out
}

// Validate enforces the cross-field rules the file schema cannot express.
// A catalog that passes Validate is safe to score against without further
// metadata checks.
func (c *Catalog) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("catalog version must not be empty")
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("catalog must contain at least one question")
	}

	for i := range c.Questions {
		q := &c.Questions[i]
		if err := validateQuestion(q); err != nil {
			return fmt.Errorf("catalog question %q: %w", q.ID, err)
		}
	}
	return nil
}

func validateQuestion(q *QuestionSpec) error {
	if q.ID == "" {
		return fmt.Errorf("id must not be empty")
	}
	if q.Text == "" {
		return fmt.Errorf("text must not be empty")
	}
	if !q.Section.IsValid() {
		return fmt.Errorf("unknown section %q", q.Section)
	}
	if !q.Kind.IsValid() {
		return fmt.Errorf("unknown kind %q", q.Kind)
	}

	if q.Scorable() && q.Section == SectionProfile {
		return fmt.Errorf("profile section questions cannot be scored")
	}
	if !q.Scorable() && q.Section != SectionProfile {
		return fmt.Errorf("non-scorable questions belong in the profile section")
	}
	if q.HardFilter && q.Kind == KindFreeText {
		return fmt.Errorf("free-text questions cannot act as hard filters")
	}
	if q.ImportanceApplies && !q.Scorable() {
		return fmt.Errorf("importance only applies to scorable questions")
	}

	switch q.Kind {
	case KindScale:
		if err := validateScaleBounds(q); err != nil {
			return err
		}
		if len(q.Options) > 0 {
			return fmt.Errorf("scale questions do not take options")
		}
	case KindChoice:
		if err := validateOptions(q); err != nil {
			return err
		}
		if q.Wildcard != "" && !q.HasOption(q.Wildcard) {
			return fmt.Errorf("wildcard %q is not one of the options", q.Wildcard)
		}
	case KindChoiceSet:
		if err := validateOptions(q); err != nil {
			return err
		}
	case KindMatrix:
		if err := validateOptions(q); err != nil {
			return err
		}
		if err := validateMatrix(q); err != nil {
			return err
		}
	case KindCompound:
		if err := validateOptions(q); err != nil {
			return err
		}
		if err := validateScaleBounds(q); err != nil {
			return err
		}
	case KindNumber:
		if !q.HardFilter {
			return fmt.Errorf("number questions are only supported as hard filters")
		}
	case KindFreeText:
		// No structural config.
	}

	if q.Wildcard != "" && q.Kind != KindChoice {
		return fmt.Errorf("only choice questions may configure a wildcard")
	}
	if q.AllowDealbreaker {
		switch q.Kind {
		case KindChoice, KindScale:
			// Dealbreakers require a preference shape the hard filter can
			// evaluate; only single-category and scale-range preferences
			// qualify.
		default:
			return fmt.Errorf("kind %q does not support dealbreakers", q.Kind)
		}
		if !q.Scorable() {
			return fmt.Errorf("hard-filter questions exclude pairs on their own and cannot also carry dealbreakers")
		}
	}
	return nil
}

func validateOptions(q *QuestionSpec) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("kind %q requires at least two options", q.Kind)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("options must not be empty strings")
		}
		if seen[opt] {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = true
	}
	return nil
}

func validateScaleBounds(q *QuestionSpec) error {
	if q.ScaleMin >= q.ScaleMax {
		return fmt.Errorf("scaleMin %d must be below scaleMax %d", q.ScaleMin, q.ScaleMax)
	}
	return nil
}

// validateMatrix requires a complete, symmetric table over the question's
// options with every entry in [0,1].
func validateMatrix(q *QuestionSpec) error {
	if len(q.Matrix) == 0 {
		return fmt.Errorf("matrix questions require a compatibility table")
	}
	for _, row := range q.Options {
		cols, ok := q.Matrix[row]
		if !ok {
			return fmt.Errorf("matrix is missing row %q", row)
		}
		for _, col := range q.Options {
			v, ok := cols[col]
			if !ok {
				return fmt.Errorf("matrix is missing entry [%q][%q]", row, col)
			}
			if v < 0 || v > 1 {
				return fmt.Errorf("matrix entry [%q][%q] = %v is outside [0,1]", row, col, v)
			}
			if q.Matrix[col][row] != v {
				return fmt.Errorf("matrix entry [%q][%q] is not symmetric", row, col)
			}
		}
	}
	for row := range q.Matrix {
		if !q.HasOption(row) {
			return fmt.Errorf("matrix row %q is not one of the options", row)
		}
		for col := range q.Matrix[row] {
			if !q.HasOption(col) {
				return fmt.Errorf("matrix column %q is not one of the options", col)
			}
		}
	}
	return nil
}
