package ldcontext

import (
	"sort"
)

// typeLanguageMap is one inverse-index bucket: candidate terms keyed by
// language tag, type IRI, or "any".
type typeLanguageMap struct {
	language map[string]string
	typ      map[string]string
	any      map[string]string
}

// Inverse-index bucket selectors.
const (
	selLanguage = kwLanguage
	selType     = kwType
	selAny      = "@any"
)

// inverseContext is the reverse index IRI → container signature →
// (type|language|any) → term used for fast compaction lookup.
type inverseContext struct {
	entries map[string]map[string]*typeLanguageMap
}

// inverse returns the memoized inverse index, building it on first use.
func (c *Context) inverse() *inverseContext {
	c.invOnce.Do(func() {
		c.inv = buildInverse(c)
	})
	return c.inv
}

// buildInverse constructs the inverse index. Terms are visited shortest
// first, ties lexicographic, and only the first term wins each slot, so the
// shortest/earliest term is always selected.
func buildInverse(c *Context) *inverseContext {
	inv := &inverseContext{entries: make(map[string]map[string]*typeLanguageMap)}

	terms := make([]string, 0, len(c.terms))
	for term := range c.terms {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) < len(terms[j])
		}
		return terms[i] < terms[j]
	})

	defaultLangDir := c.defaultLanguageKey()

	for _, term := range terms {
		td := c.terms[term]
		if td == nil || td.IRI == nil {
			continue
		}
		iri := *td.IRI
		container := td.containerKey()

		containerMap, ok := inv.entries[iri]
		if !ok {
			containerMap = make(map[string]*typeLanguageMap)
			inv.entries[iri] = containerMap
		}
		tl, ok := containerMap[container]
		if !ok {
			tl = &typeLanguageMap{
				language: make(map[string]string),
				typ:      make(map[string]string),
				any:      make(map[string]string),
			}
			containerMap[container] = tl
		}

		setDefault(tl.any, kwNone, term)

		switch {
		case td.Reverse:
			setDefault(tl.typ, kwReverse, term)
		case td.TypeMapping == kwNone:
			setDefault(tl.language, selAny, term)
			setDefault(tl.typ, selAny, term)
		case td.TypeMapping != "":
			setDefault(tl.typ, td.TypeMapping, term)
		case td.Language.Defined() && td.Direction.Defined():
			setDefault(tl.language, langDirKey(td.Language, td.Direction), term)
		case td.Language.Defined():
			key := "@null"
			if lang, ok := td.Language.Get(); ok {
				key = lang
			}
			setDefault(tl.language, key, term)
		case td.Direction.Defined():
			key := kwNone
			if dir, ok := td.Direction.Get(); ok {
				key = "_" + dir
			}
			setDefault(tl.language, key, term)
		case c.defaultDirection != nil:
			setDefault(tl.language, defaultLangDir, term)
			setDefault(tl.language, kwNone, term)
			setDefault(tl.typ, kwNone, term)
		default:
			setDefault(tl.language, defaultLangDir, term)
			setDefault(tl.language, kwNone, term)
			setDefault(tl.typ, kwNone, term)
		}
	}
	return inv
}

// defaultLanguageKey combines the context defaults into an inverse-index
// language key.
func (c *Context) defaultLanguageKey() string {
	lang := kwNone
	if c.defaultLanguage != nil {
		lang = *c.defaultLanguage
	}
	if c.defaultDirection != nil {
		return lang + "_" + *c.defaultDirection
	}
	return lang
}

// langDirKey combines a term's language and direction tri-states into an
// inverse-index key.
func langDirKey(language, direction Nullable) string {
	lang, hasLang := language.Get()
	dir, hasDir := direction.Get()
	switch {
	case hasLang && hasDir:
		return lang + "_" + dir
	case hasLang:
		return lang
	case hasDir:
		return "_" + dir
	default:
		return "@null"
	}
}

// setDefault writes m[key] = term only when key is unset, preserving the
// shortest-then-lexicographic winner.
func setDefault(m map[string]string, key, term string) {
	if _, exists := m[key]; !exists {
		m[key] = term
	}
}

// selectTerm walks the candidate containers in preference order and, for
// the first container present, the preferred type/language values in
// order, returning the first term hit or "".
func (inv *inverseContext) selectTerm(iri string, containers []string, typeLanguage string, preferredValues []string) string {
	containerMap, ok := inv.entries[iri]
	if !ok {
		return ""
	}
	for _, container := range containers {
		tl, ok := containerMap[container]
		if !ok {
			continue
		}
		var valueMap map[string]string
		switch typeLanguage {
		case selLanguage:
			valueMap = tl.language
		case selType:
			valueMap = tl.typ
		default:
			valueMap = tl.any
		}
		for _, preferred := range preferredValues {
			if term, ok := valueMap[preferred]; ok {
				return term
			}
		}
	}
	return ""
}

// hasIRI reports whether any term maps to iri.
func (inv *inverseContext) hasIRI(iri string) bool {
	_, ok := inv.entries[iri]
	return ok
}
