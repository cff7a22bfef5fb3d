// Package record defines the bibliographic record and the column-oriented
// table that every stage of the literature-review pipeline exchanges.
package record

// Field names, in output column order.
const (
	FieldTitle    = "title"
	FieldAbstract = "abstract"
	FieldKeywords = "keywords"
	FieldType     = "type"
	FieldYear     = "year"
	FieldJournal  = "journal"
	FieldDOI      = "doi"
)

// Columns is the fixed column set of a parsed bibliography table.
var Columns = []string{FieldTitle, FieldAbstract, FieldKeywords, FieldType, FieldYear, FieldJournal, FieldDOI}

// Record is one parsed bibliography entry.
type Record struct {
	// Always present for a successfully parsed entry
	Title   string `json:"title"`
	Type    string `json:"type"`
	Year    string `json:"year"`
	Journal string `json:"journal"` // booktitle for conference papers

	// Optional (nil = null)
	Abstract *string `json:"abstract"`
	Keywords *string `json:"keywords"`
	DOI      *string `json:"doi"`
}

// Get returns the value of the named field. The value is nil when the field
// is null; ok is false for an unknown field name.
func (r Record) Get(field string) (value *string, ok bool) {
	switch field {
	case FieldTitle:
		return &r.Title, true
	case FieldAbstract:
		return r.Abstract, true
	case FieldKeywords:
		return r.Keywords, true
	case FieldType:
		return &r.Type, true
	case FieldYear:
		return &r.Year, true
	case FieldJournal:
		return &r.Journal, true
	case FieldDOI:
		return r.DOI, true
	}
	return nil, false
}

// IsField reports whether name is one of the record fields.
func IsField(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

// String returns a pointer to s. Convenience for building optional fields.
func String(s string) *string {
	return &s
}

// Value dereferences an optional field, returning "" for null.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
