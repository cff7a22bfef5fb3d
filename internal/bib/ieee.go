package bib

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/litrev/internal/record"
)

var (
	// IEEE entries always carry type, title, year, abstract and keywords, in
	// that order, with no spaces around "=".
	ieeeEntryRegex = regexp.MustCompile(`(.+?)\{.*title=\{(.+?)\}.*year=\{(.+?)\}.*abstract=\{(.+?)\}.*keywords=\{(.+?)\}`)
	ieeeDOIRegex   = regexp.MustCompile(`.*doi=\{(.+?)\}`)
	ieeeTitleRegex = regexp.MustCompile(`\btitle=\{(.+?)\}`)
)

// IEEE parses IEEE Xplore BibTeX exports.
type IEEE struct{}

// Name implements Dialect.
func (IEEE) Name() string { return DialectIEEE }

// SplitEntries removes all line breaks and splits on "}@".
func (IEEE) SplitEntries(blob string) []string {
	flat := strings.ReplaceAll(normalizeNewlines(blob), "\n", "")
	return dropBlank(stripLeadingMarker(strings.Split(flat, "}@")))
}

// ParseEntry implements Dialect.
func (d IEEE) ParseEntry(entry string) (record.Record, error) {
	m := ieeeEntryRegex.FindStringSubmatch(entry)
	if m == nil {
		r := record.Record{Title: firstSubmatch(ieeeTitleRegex, entry)}
		return r, fmt.Errorf("%w: need type, title, year, abstract and keywords in that order", ErrMalformedEntry)
	}

	r := record.Record{
		Type:     m[1],
		Title:    m[2],
		Year:     m[3],
		Abstract: record.String(m[4]),
		Keywords: record.String(m[5]),
	}

	// Not every IEEE entry has a DOI
	if dm := ieeeDOIRegex.FindStringSubmatch(entry); dm != nil {
		r.DOI = cleanDOI(dm[1])
	}

	journal, err := d.ExtractJournal(entry, r.Type)
	if err != nil {
		return r, err
	}
	r.Journal = journal

	return r, nil
}

// ExtractJournal reads booktitle={...} for conference papers and
// journal={...} for journal articles.
func (IEEE) ExtractJournal(entry, entryType string) (string, error) {
	return extractJournal(entry, entryType, "=")
}

// firstSubmatch returns the first capture group of re in s, or "".
func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
