// Package ldcontext implements the JSON-LD active-context engine: context
// parsing and merging, term-definition construction, IRI expansion, and
// inverse-index-driven IRI compaction.
package ldcontext

import "regexp"

// JSON-LD keywords.
const (
	kwBase      = "@base"
	kwContainer = "@container"
	kwContext   = "@context"
	kwDirection = "@direction"
	kwGraph     = "@graph"
	kwID        = "@id"
	kwImport    = "@import"
	kwIncluded  = "@included"
	kwIndex     = "@index"
	kwJSON      = "@json"
	kwLanguage  = "@language"
	kwList      = "@list"
	kwNest      = "@nest"
	kwNone      = "@none"
	kwPrefix    = "@prefix"
	kwPreserve  = "@preserve"
	kwPropagate = "@propagate"
	kwProtected = "@protected"
	kwReverse   = "@reverse"
	kwSet       = "@set"
	kwType      = "@type"
	kwValue     = "@value"
	kwVersion   = "@version"
	kwVocab     = "@vocab"
)

// keywords is the fixed JSON-LD 1.1 keyword set.
var keywords = map[string]struct{}{
	kwBase: {}, kwContainer: {}, kwContext: {}, kwDirection: {}, kwGraph: {},
	kwID: {}, kwImport: {}, kwIncluded: {}, kwIndex: {}, kwJSON: {},
	kwLanguage: {}, kwList: {}, kwNest: {}, kwNone: {}, kwPrefix: {},
	kwPreserve: {}, kwPropagate: {}, kwProtected: {}, kwReverse: {},
	kwSet: {}, kwType: {}, kwValue: {}, kwVersion: {}, kwVocab: {},
}

// keywordFormRe matches strings shaped like keywords (@ followed by letters).
// Unrecognized matches are reserved for future revisions and are dropped
// rather than treated as terms.
var keywordFormRe = regexp.MustCompile(`^@[A-Za-z]+$`)

// IsKeyword reports whether value is a JSON-LD keyword.
func IsKeyword(value string) bool {
	_, ok := keywords[value]
	return ok
}

// hasKeywordForm reports whether value looks like a keyword without being one.
func hasKeywordForm(value string) bool {
	return !IsKeyword(value) && keywordFormRe.MatchString(value)
}
