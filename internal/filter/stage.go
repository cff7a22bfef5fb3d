package filter

import (
	"fmt"

	"github.com/matsen/litrev/internal/record"
)

// Stage is one filter step over a single field.
type Stage struct {
	Kind  Kind
	Field string
	Terms []string

	compiled *Terms
}

// NewStage validates a stage and compiles its terms.
func NewStage(kind Kind, field string, terms []string) (Stage, error) {
	if !record.IsField(field) {
		return Stage{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if len(terms) == 0 {
		return Stage{}, fmt.Errorf("%s filter on %q has no terms", kind, field)
	}

	s := Stage{Kind: kind, Field: field, Terms: terms}
	switch kind {
	case KindPositive:
	case KindNegative:
		compiled, err := CompileTerms(terms)
		if err != nil {
			return Stage{}, err
		}
		s.compiled = compiled
	default:
		return Stage{}, fmt.Errorf("unknown filter kind %q (valid: %s, %s)", kind, KindPositive, KindNegative)
	}
	return s, nil
}

// Apply runs the stage over records.
func (s Stage) Apply(records []record.Record) ([]record.Record, error) {
	switch s.Kind {
	case KindPositive:
		return Positive(records, s.Field, s.Terms)
	case KindNegative:
		terms := s.compiled
		if terms == nil {
			var err error
			if terms, err = CompileTerms(s.Terms); err != nil {
				return nil, err
			}
		}
		return Negative(records, s.Field, terms)
	}
	return nil, fmt.Errorf("unknown filter kind %q", s.Kind)
}

func (s Stage) String() string {
	return fmt.Sprintf("%s(%s)", s.Kind, s.Field)
}

// Apply runs stages in order, each on the output of the previous one.
func Apply(records []record.Record, stages []Stage) ([]record.Record, error) {
	for _, s := range stages {
		var err error
		records, err = s.Apply(records)
		if err != nil {
			return nil, fmt.Errorf("%s filter: %w", s, err)
		}
	}
	return records, nil
}
