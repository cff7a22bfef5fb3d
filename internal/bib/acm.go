package bib

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/litrev/internal/record"
)

var (
	// ACM entries always carry type, title and year; everything else is
	// optional. Fields are written as key = {value}.
	acmEntryRegex    = regexp.MustCompile(`(.+?)\{.*title = \{(.+?)\}.*year = \{(.+?)\}`)
	acmDOIRegex      = regexp.MustCompile(`.*doi = \{(.+?)\}`)
	acmAbstractRegex = regexp.MustCompile(`.*abstract = \{(.+?)\}`)
	acmKeywordsRegex = regexp.MustCompile(`.*keywords = \{(.+?)\}`)
	acmTitleRegex    = regexp.MustCompile(`\btitle = \{(.+?)\}`)
)

// ACM parses ACM Digital Library BibTeX exports.
type ACM struct{}

// Name implements Dialect.
func (ACM) Name() string { return DialectACM }

// SplitEntries splits on a blank line followed by "@" and then removes the
// remaining line breaks inside each entry.
func (ACM) SplitEntries(blob string) []string {
	entries := strings.Split(normalizeNewlines(blob), "\n\n@")
	for i, e := range entries {
		entries[i] = strings.ReplaceAll(e, "\n", "")
	}
	return dropBlank(stripLeadingMarker(entries))
}

// ParseEntry implements Dialect.
func (d ACM) ParseEntry(entry string) (record.Record, error) {
	m := acmEntryRegex.FindStringSubmatch(entry)
	if m == nil {
		r := record.Record{Title: firstSubmatch(acmTitleRegex, entry)}
		return r, fmt.Errorf("%w: need type, title and year", ErrMalformedEntry)
	}

	r := record.Record{
		Type:     m[1],
		Title:    m[2],
		Year:     m[3],
		Abstract: optionalField(acmAbstractRegex, entry),
		Keywords: optionalField(acmKeywordsRegex, entry),
	}
	if doi := optionalField(acmDOIRegex, entry); doi != nil {
		r.DOI = cleanDOI(*doi)
	}

	journal, err := d.ExtractJournal(entry, r.Type)
	if err != nil {
		return r, err
	}
	r.Journal = journal

	return r, nil
}

// ExtractJournal reads booktitle = {...} for conference papers and
// journal = {...} for journal articles.
func (ACM) ExtractJournal(entry, entryType string) (string, error) {
	return extractJournal(entry, entryType, " = ")
}

// optionalField returns the first capture group of re in entry, or nil.
func optionalField(re *regexp.Regexp, entry string) *string {
	if m := re.FindStringSubmatch(entry); m != nil {
		return record.String(m[1])
	}
	return nil
}
