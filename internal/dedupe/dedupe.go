// Package dedupe merges article tables from several databases and removes
// duplicate titles and DOIs.
package dedupe

import (
	"strings"

	"github.com/matsen/litrev/internal/record"
)

// Columns are the columns kept in the merged table.
var Columns = []string{record.FieldTitle, record.FieldYear, record.FieldDOI}

// Stats summarizes a merge.
type Stats struct {
	Inputs          []int `json:"inputs"` // Rows per input table, in argument order
	Total           int   `json:"total"`
	DuplicateTitles int   `json:"duplicate_titles"`
	DuplicateDOIs   int   `json:"duplicate_dois"`
	Unique          int   `json:"unique"`
}

// Merge concatenates tables restricted to title, year and doi, lower-cases
// titles, keeps the first row of each title and then drops rows whose
// non-null DOI was already kept. Null titles compare equal to each other;
// null DOIs never count as duplicates.
func Merge(tables ...record.Table) (record.Table, Stats) {
	var stats Stats
	for _, t := range tables {
		stats.Inputs = append(stats.Inputs, t.Len())
	}

	all := record.Concat(Columns, tables...)
	stats.Total = all.Len()

	titles := all.Column(record.FieldTitle)
	for i, v := range titles {
		if v != nil {
			titles[i] = record.String(strings.ToLower(*v))
		}
	}

	uniqueTitles := record.NewTable(Columns...)
	seenTitle := make(map[string]bool)
	seenNullTitle := false
	for i := 0; i < all.Len(); i++ {
		if t := titles[i]; t == nil {
			if seenNullTitle {
				stats.DuplicateTitles++
				continue
			}
			seenNullTitle = true
		} else {
			if seenTitle[*t] {
				stats.DuplicateTitles++
				continue
			}
			seenTitle[*t] = true
		}
		_ = uniqueTitles.AppendRow(all.Row(i))
	}

	out := record.NewTable(Columns...)
	seenDOI := make(map[string]bool)
	dois := uniqueTitles.Column(record.FieldDOI)
	for i := 0; i < uniqueTitles.Len(); i++ {
		if d := dois[i]; d != nil {
			if seenDOI[*d] {
				stats.DuplicateDOIs++
				continue
			}
			seenDOI[*d] = true
		}
		_ = out.AppendRow(uniqueTitles.Row(i))
	}

	stats.Unique = out.Len()
	return out, stats
}
