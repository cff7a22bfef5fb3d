// Package bib parses bibliography export files into records.
//
// Two export dialects are supported and must be chosen explicitly; the
// format is never sniffed from the content:
//
//   - IEEE: unspaced key={value} fields, entries concatenated without blank
//     lines.
//   - ACM: spaced key = {value} fields, entries separated by a blank line.
//
// Field values are captured up to the first closing brace, so a value
// cannot itself contain an unescaped "}".
package bib

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/litrev/internal/record"
)

var (
	// ErrMalformedEntry indicates required fields are absent or out of order.
	ErrMalformedEntry = errors.New("malformed entry")

	// ErrUnclassifiedType indicates an entry that is neither a conference
	// paper nor a journal article.
	ErrUnclassifiedType = errors.New("unclassified entry type")

	// ErrUnknownDialect is returned by Lookup for an unsupported name.
	ErrUnknownDialect = errors.New("unknown dialect")
)

// EntryError describes why one entry was skipped.
type EntryError struct {
	Index int    // 0-based position of the entry in the file
	Title string // Best-effort title, empty if not extracted
	Err   error
}

func (e *EntryError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("entry %d (%s): %v", e.Index+1, e.Title, e.Err)
	}
	return fmt.Sprintf("entry %d: %v", e.Index+1, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Dialect splits and parses one bibliography export format.
type Dialect interface {
	// Name returns the configuration name of the dialect.
	Name() string
	// SplitEntries splits a raw export into entry texts in source order.
	SplitEntries(blob string) []string
	// ParseEntry extracts a record from one entry text.
	ParseEntry(entry string) (record.Record, error)
	// ExtractJournal derives the venue from the entry for the given type.
	ExtractJournal(entry, entryType string) (string, error)
}

// Dialect names as used in configuration.
const (
	DialectIEEE = "ieee"
	DialectACM  = "acm"
)

// Dialects lists the supported dialect names.
var Dialects = []string{DialectIEEE, DialectACM}

// Lookup returns the dialect with the given case-insensitive name.
func Lookup(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DialectIEEE:
		return IEEE{}, nil
	case DialectACM:
		return ACM{}, nil
	}
	return nil, fmt.Errorf("%w: %q (valid: %v)", ErrUnknownDialect, name, Dialects)
}

// Parse splits blob with the dialect and extracts every entry. Entries that
// fail extraction are skipped and reported as *EntryError values; parsing
// always continues with the next entry.
func Parse(blob string, d Dialect) ([]record.Record, []error) {
	var records []record.Record
	var errs []error

	for i, entry := range d.SplitEntries(blob) {
		r, err := d.ParseEntry(entry)
		if err != nil {
			errs = append(errs, &EntryError{Index: i, Title: r.Title, Err: err})
			continue
		}
		records = append(records, r)
	}

	return records, errs
}

// normalizeNewlines converts CRLF and CR line endings to LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// stripLeadingMarker removes the "@" that precedes the first entry, which no
// boundary token consumed.
func stripLeadingMarker(entries []string) []string {
	if len(entries) == 0 {
		return entries
	}
	entries[0] = strings.TrimPrefix(strings.TrimLeft(entries[0], " \t\n\ufeff"), "@")
	return entries
}

// dropBlank removes entries that contain only whitespace.
func dropBlank(entries []string) []string {
	out := entries[:0]
	for _, e := range entries {
		if strings.TrimSpace(e) != "" {
			out = append(out, e)
		}
	}
	return out
}

// fieldAfter returns the text between the first occurrence of marker and the
// next closing brace.
func fieldAfter(entry, marker string) (string, bool) {
	_, rest, found := strings.Cut(entry, marker)
	if !found {
		return "", false
	}
	value, _, _ := strings.Cut(rest, "}")
	return value, true
}

// venueKind classifies a lower-cased entry type.
type venueKind int

const (
	venueUnknown venueKind = iota
	venueConference
	venueJournal
)

func classifyType(entryType string) venueKind {
	switch strings.ToLower(strings.TrimSpace(entryType)) {
	case "inproceedings", "conference":
		return venueConference
	case "article":
		return venueJournal
	}
	return venueUnknown
}

// extractJournal implements journal derivation for both dialects, which differ
// only in the spacing around "=".
func extractJournal(entry, entryType, sep string) (string, error) {
	var marker string
	switch classifyType(entryType) {
	case venueConference:
		marker = "booktitle" + sep + "{"
	case venueJournal:
		marker = "journal" + sep + "{"
	default:
		return "", fmt.Errorf("%w: type %q is neither a journal article nor a conference paper", ErrUnclassifiedType, entryType)
	}

	journal, ok := fieldAfter(entry, marker)
	if !ok {
		return "", fmt.Errorf("%w: %s entry has no %q field", ErrMalformedEntry, entryType, strings.TrimSuffix(marker, "{"))
	}
	return journal, nil
}

// cleanDOI turns a captured doi value into an optional field. A value
// containing "ISSN" comes from an empty doi={} whose match ran into the
// following ISSN field.
func cleanDOI(doi string) *string {
	if strings.Contains(doi, "ISSN") {
		return nil
	}
	return record.String(doi)
}
