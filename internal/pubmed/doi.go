package pubmed

import "strings"

// doiSuffix marks the DOI entry of a MEDLINE AID list, e.g. "10.1/x [doi]".
const doiSuffix = " [doi]"

// DOIFromArticleIDs returns the DOI from a MEDLINE article-identifier list.
// The first identifier mentioning "doi" wins and its " [doi]" suffix is
// removed. Returns nil when no identifier is a DOI.
func DOIFromArticleIDs(aids []string) *string {
	for _, aid := range aids {
		if !strings.Contains(aid, "doi") {
			continue
		}
		doi := aid
		if len(doi) >= len(doiSuffix) {
			doi = doi[:len(doi)-len(doiSuffix)]
		}
		return &doi
	}
	return nil
}

// DOI returns the record's DOI from its AID field.
func (m Medline) DOI() *string {
	return DOIFromArticleIDs(m[TagArticle])
}
