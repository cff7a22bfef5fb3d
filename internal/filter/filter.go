// Package filter applies keyword inclusion and title/abstract exclusion
// rules to parsed records.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/litrev/internal/record"
)

// Wildcard marks a term that matches any suffix.
const Wildcard = "*"

// ErrEmptyField is returned when a stage reads a field that is null for some
// record. Stages must only target fields the dialect always provides, so this
// is a configuration error rather than a reason to skip the record.
var ErrEmptyField = errors.New("filter applied to null field")

// ErrUnknownField is returned for a stage on a field records do not have.
var ErrUnknownField = errors.New("unknown field")

// Kind selects inclusion or exclusion semantics.
type Kind string

const (
	// KindPositive keeps records whose ";"-separated field tokens include one
	// of the terms exactly.
	KindPositive Kind = "positive"
	// KindNegative drops records with any whitespace token that starts with
	// one of the terms.
	KindNegative Kind = "negative"
)

// Terms is a compiled set of negative filter terms.
type Terms struct {
	raw      []string
	patterns []*regexp.Regexp
}

// CompileTerms compiles filter terms into prefix-anchored patterns. Terms are
// lower-cased; "*" matches any (possibly empty) run of characters and every
// other character is literal.
func CompileTerms(terms []string) (*Terms, error) {
	t := &Terms{raw: append([]string(nil), terms...)}
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || term == Wildcard {
			return nil, fmt.Errorf("filter term %q matches every token", term)
		}

		parts := strings.Split(term, Wildcard)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		re, err := regexp.Compile("^" + strings.Join(parts, ".*"))
		if err != nil {
			return nil, fmt.Errorf("compiling filter term %q: %w", term, err)
		}
		t.patterns = append(t.patterns, re)
	}
	return t, nil
}

// MustCompileTerms is like CompileTerms but panics on error.
func MustCompileTerms(terms ...string) *Terms {
	t, err := CompileTerms(terms)
	if err != nil {
		panic(err)
	}
	return t
}

// Strings returns the terms as given.
func (t *Terms) Strings() []string {
	return t.raw
}

// MatchToken reports whether token starts with any of the terms.
func (t *Terms) MatchToken(token string) bool {
	for _, re := range t.patterns {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// MatchText lower-cases text, splits it on whitespace and reports whether any
// token matches any term.
func (t *Terms) MatchText(text string) bool {
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if t.MatchToken(token) {
			return true
		}
	}
	return false
}

// fieldValue returns the non-null value of field or an error.
func fieldValue(r record.Record, field string) (string, error) {
	v, ok := r.Get(field)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if v == nil {
		return "", fmt.Errorf("%w: %q is null for %q", ErrEmptyField, field, r.Title)
	}
	return *v, nil
}

// Positive keeps the records whose field, lower-cased and split on ";",
// shares at least one token with accepted. Accepted terms are lower-cased too;
// otherwise tokens are compared exactly.
func Positive(records []record.Record, field string, accepted []string) ([]record.Record, error) {
	acceptedSet := make(map[string]struct{}, len(accepted))
	for _, a := range accepted {
		acceptedSet[strings.ToLower(a)] = struct{}{}
	}

	var pass []record.Record
	for _, r := range records {
		v, err := fieldValue(r, field)
		if err != nil {
			return nil, err
		}
		for _, token := range strings.Split(strings.ToLower(v), ";") {
			if _, ok := acceptedSet[token]; ok {
				pass = append(pass, r)
				break
			}
		}
	}
	return pass, nil
}

// Negative drops the records whose field contains a whitespace token matching
// any of the terms.
func Negative(records []record.Record, field string, terms *Terms) ([]record.Record, error) {
	var pass []record.Record
	for _, r := range records {
		v, err := fieldValue(r, field)
		if err != nil {
			return nil, err
		}
		if !terms.MatchText(v) {
			pass = append(pass, r)
		}
	}
	return pass, nil
}
