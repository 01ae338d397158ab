package ldcontext

import (
	"strings"

	"github.com/c360/semld/errors"
)

// CompactOption adjusts one CompactIRI call.
type CompactOption func(*compactOpts)

type compactOpts struct {
	value   any
	vocab   bool
	reverse bool
	base    string
}

// CompactValue supplies the value the IRI is being compacted for; its shape
// drives container and type/language preferences.
func CompactValue(value any) CompactOption {
	return func(o *compactOpts) { o.value = value }
}

// CompactVocab prefers terms and vocabulary-relative forms.
func CompactVocab() CompactOption {
	return func(o *compactOpts) { o.vocab = true }
}

// CompactReverse marks the IRI as used in a reverse-property position.
func CompactReverse() CompactOption {
	return func(o *compactOpts) { o.reverse = true }
}

// CompactBase overrides the base IRI used for relative-IRI output.
func CompactBase(base string) CompactOption {
	return func(o *compactOpts) { o.base = base }
}

// valueShape classifies the compaction value. The closed union keeps the
// container/type/language preference derivation exhaustive.
type valueShape int

const (
	shapePlain valueShape = iota // non-map values, including absent
	shapeList                    // {"@list": ...}
	shapeGraph                   // {"@graph": ...}
	shapeTagged                  // {"@value": ...}
	shapeNode                    // any other map (node object or reference)
)

func shapeOf(value any) valueShape {
	m, ok := value.(map[string]any)
	if !ok {
		return shapePlain
	}
	if _, ok := m[kwList]; ok {
		return shapeList
	}
	if _, ok := m[kwGraph]; ok {
		return shapeGraph
	}
	if _, ok := m[kwValue]; ok {
		return shapeTagged
	}
	return shapeNode
}

// CompactIRI picks the most specific term, compact IRI, vocabulary-relative
// suffix, or relative IRI that expands back to iri.
func (c *Context) CompactIRI(iri string, opts ...CompactOption) (string, error) {
	var o compactOpts
	for _, opt := range opts {
		opt(&o)
	}
	if iri == "" {
		return "", nil
	}

	if o.vocab {
		if term := c.selectCompactionTerm(iri, o); term != "" {
			return term, nil
		}
		// A proper, non-colliding suffix of the vocabulary mapping.
		if c.vocab != nil && strings.HasPrefix(iri, *c.vocab) && len(iri) > len(*c.vocab) {
			suffix := iri[len(*c.vocab):]
			if _, taken := c.terms[suffix]; !taken {
				return suffix, nil
			}
		}
	}

	if candidate := c.compactIRICandidate(iri, o); candidate != "" {
		return candidate, nil
	}

	if err := c.checkPrefixConfusion(iri); err != nil {
		return "", err
	}

	if o.vocab {
		return iri, nil
	}

	base := o.base
	if base == "" {
		base = c.Base()
	}
	return relativize(base, iri), nil
}

// selectCompactionTerm runs the inverse-index term selection when the IRI
// has candidate terms at all.
func (c *Context) selectCompactionTerm(iri string, o compactOpts) string {
	inv := c.inverse()
	if !inv.hasIRI(iri) {
		return ""
	}

	valueMap, valueIsMap := o.value.(map[string]any)
	shape := shapeOf(o.value)
	hasIndex := false
	if valueIsMap {
		_, hasIndex = valueMap[kwIndex]
	}

	var containers []string
	typeLanguage := selLanguage
	typeLanguageValue := "@null"

	if hasIndex && shape != shapeGraph {
		containers = append(containers, kwIndex, kwIndex+kwSet)
	}

	switch {
	case o.reverse:
		typeLanguage = selType
		typeLanguageValue = kwReverse
		containers = append(containers, kwSet)

	case shape == shapeList:
		if !hasIndex {
			containers = append(containers, kwList)
		}
		list, _ := valueMap[kwList].([]any)
		typeLanguage, typeLanguageValue = listPreference(c, list)

	case shape == shapeGraph:
		_, hasID := valueMap[kwID]
		if hasIndex {
			containers = append(containers, kwGraph+kwIndex, kwGraph+kwIndex+kwSet)
		}
		if hasID {
			containers = append(containers, kwGraph+kwID, kwGraph+kwID+kwSet)
		}
		containers = append(containers, kwGraph, kwGraph+kwSet, kwSet)
		if !hasIndex {
			containers = append(containers, kwGraph+kwIndex, kwGraph+kwIndex+kwSet)
		}
		if !hasID {
			containers = append(containers, kwGraph+kwID, kwGraph+kwID+kwSet)
		}
		typeLanguage = selType
		typeLanguageValue = kwID

	case shape == shapeTagged:
		lang, hasLang := stringEntry(valueMap, kwLanguage)
		dir, hasDir := stringEntry(valueMap, kwDirection)
		typ, hasType := stringEntry(valueMap, kwType)
		switch {
		case hasLang && !hasIndex:
			if hasDir {
				typeLanguageValue = strings.ToLower(lang) + "_" + dir
			} else {
				typeLanguageValue = strings.ToLower(lang)
			}
			containers = append(containers, kwLanguage, kwLanguage+kwSet)
		case hasDir && !hasIndex:
			typeLanguageValue = "_" + dir
		case hasType:
			typeLanguage = selType
			typeLanguageValue = typ
		}
		containers = append(containers, kwSet)

	case shape == shapeNode:
		typeLanguage = selType
		typeLanguageValue = kwID
		containers = append(containers, kwID, kwID+kwSet, kwType, kwSet+kwType, kwSet)

	default: // shapePlain
		containers = append(containers, kwSet)
	}

	containers = append(containers, kwNone)
	if c.mode11() && !hasIndex {
		containers = append(containers, kwIndex, kwIndex+kwSet)
	}
	if c.mode11() && shape == shapeTagged && len(valueMap) == 1 {
		containers = append(containers, kwLanguage, kwLanguage+kwSet)
	}
	if typeLanguageValue == "" {
		typeLanguageValue = "@null"
	}

	var preferred []string
	if typeLanguageValue == kwReverse {
		preferred = append(preferred, kwReverse)
	}
	idValue, hasIDEntry := "", false
	if valueIsMap {
		idValue, hasIDEntry = stringEntry(valueMap, kwID)
	}
	if (typeLanguageValue == kwID || typeLanguageValue == kwReverse) && hasIDEntry {
		// Upgrade to @vocab preference when a term's own IRI re-derives the
		// identical node reference.
		if compacted, err := c.CompactIRI(idValue, CompactVocab()); err == nil {
			if td, ok := c.terms[compacted]; ok && td.IRIValue() == idValue {
				preferred = append(preferred, kwVocab, kwID)
			} else {
				preferred = append(preferred, kwID, kwVocab)
			}
		} else {
			preferred = append(preferred, kwID, kwVocab)
		}
	} else {
		if shape == shapeList {
			if list, _ := valueMap[kwList].([]any); len(list) == 0 {
				typeLanguage = selAny
			}
		}
		preferred = append(preferred, typeLanguageValue)
		// Direction-tagged values also accept a bare-direction bucket.
		if idx := strings.IndexByte(typeLanguageValue, '_'); idx > 0 {
			preferred = append(preferred, typeLanguageValue[idx:])
		}
	}
	preferred = append(preferred, kwNone)

	return c.inverse().selectTerm(iri, containers, typeLanguage, preferred)
}

// listPreference derives the type/language preference from a list's items:
// a type or language common to every item, else @none.
func listPreference(c *Context, list []any) (string, string) {
	commonType := ""
	commonLanguage := ""
	if len(list) == 0 {
		commonLanguage = c.defaultLanguageKey()
	}

	for _, item := range list {
		itemLanguage, itemType := kwNone, kwNone
		isValue := false
		if m, ok := item.(map[string]any); ok {
			if _, isValue = m[kwValue]; isValue {
				lang, hasLang := stringEntry(m, kwLanguage)
				dir, hasDir := stringEntry(m, kwDirection)
				typ, hasType := stringEntry(m, kwType)
				switch {
				case hasLang && hasDir:
					itemLanguage = strings.ToLower(lang) + "_" + dir
				case hasLang:
					itemLanguage = strings.ToLower(lang)
				case hasDir:
					itemLanguage = "_" + dir
				default:
					itemLanguage = "@null"
				}
				if hasType {
					itemType = typ
				}
			}
		}
		if !isValue {
			itemType = kwID
		}

		if commonLanguage == "" {
			commonLanguage = itemLanguage
		} else if commonLanguage != itemLanguage && isValue {
			commonLanguage = kwNone
		}
		if commonType == "" {
			commonType = itemType
		} else if commonType != itemType {
			commonType = kwNone
		}
		if commonLanguage == kwNone && commonType == kwNone {
			break
		}
	}

	if commonLanguage == "" {
		commonLanguage = kwNone
	}
	if commonType == "" {
		commonType = kwNone
	}
	if commonType != kwNone {
		return selType, commonType
	}
	return selLanguage, commonLanguage
}

// compactIRICandidate forms prefix:suffix candidates from prefix-eligible
// terms and returns the shortest (then lexicographically smallest)
// non-colliding one.
func (c *Context) compactIRICandidate(iri string, o compactOpts) string {
	best := ""
	for term, td := range c.terms {
		if td == nil || td.IRI == nil || !td.Prefix {
			continue
		}
		prefix := *td.IRI
		if prefix == "" || prefix == iri || !strings.HasPrefix(iri, prefix) {
			continue
		}
		candidate := term + ":" + iri[len(prefix):]

		// A candidate collides when it is itself a term mapped elsewhere.
		if existing, ok := c.terms[candidate]; ok {
			if o.value != nil || existing.IRIValue() != iri {
				continue
			}
		}
		if best == "" || len(candidate) < len(best) || (len(candidate) == len(best) && candidate < best) {
			best = candidate
		}
	}
	return best
}

// checkPrefixConfusion rejects IRIs that would be misread as compact IRIs:
// the scheme matches a prefix term that expands the remainder elsewhere.
func (c *Context) checkPrefixConfusion(iri string) error {
	idx := strings.Index(iri, ":")
	if idx <= 0 {
		return nil
	}
	scheme, suffix := iri[:idx], iri[idx+1:]
	td, ok := c.terms[scheme]
	if !ok || !td.Prefix || td.IRI == nil {
		return nil
	}
	if *td.IRI+suffix != iri {
		return errors.NewValue(errors.IRIConfusedWithPrefix, iri, "IRI would be misread as a compact IRI with prefix %q", scheme)
	}
	return nil
}

// stringEntry fetches a string-typed entry from a map.
func stringEntry(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
