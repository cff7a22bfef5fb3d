package pubmed

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MEDLINE tags read by this package.
const (
	TagPMID     = "PMID"
	TagTitle    = "TI"
	TagAbstract = "AB"
	TagArticle  = "AID"
)

// Medline is one MEDLINE record: tag to values, in file order.
type Medline map[string][]string

// First returns the first value of tag.
func (m Medline) First(tag string) (string, bool) {
	v := m[tag]
	if len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// PMID returns the record's PubMed identifier.
func (m Medline) PMID() string {
	v, _ := m.First(TagPMID)
	return v
}

// Abstract returns the abstract, or nil when the record has none.
func (m Medline) Abstract() *string {
	v, ok := m.First(TagAbstract)
	if !ok {
		return nil
	}
	return &v
}

// ParseMedline reads MEDLINE-format text. Each field line is a tag padded to
// four columns, "- " and a value; lines starting with six spaces continue the
// previous value and are joined to it with a single space. Blank lines
// separate records.
func ParseMedline(r io.Reader) ([]Medline, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		records []Medline
		cur     Medline
		lastTag string
		lineNum int
	)
	flush := func() {
		if len(cur) > 0 {
			records = append(records, cur)
		}
		cur = nil
		lastTag = ""
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if strings.HasPrefix(line, "      ") {
			if lastTag == "" {
				return nil, fmt.Errorf("%w: line %d: continuation without a field", ErrInvalidResponse, lineNum)
			}
			vals := cur[lastTag]
			vals[len(vals)-1] += " " + strings.TrimSpace(line)
			continue
		}

		if len(line) < 6 || line[4:6] != "- " {
			return nil, fmt.Errorf("%w: line %d: not a MEDLINE field: %q", ErrInvalidResponse, lineNum, truncate(line, 40))
		}
		tag := strings.TrimSpace(line[:4])
		if cur == nil {
			cur = make(Medline)
		}
		cur[tag] = append(cur[tag], strings.TrimSpace(line[6:]))
		lastTag = tag
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MEDLINE: %w", err)
	}
	flush()

	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
