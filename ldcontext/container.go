package ldcontext

import (
	"sort"

	"github.com/c360/semld/errors"
)

// containerTokens is the full 1.1 container vocabulary.
var containerTokens = map[string]struct{}{
	kwList: {}, kwSet: {}, kwIndex: {}, kwLanguage: {}, kwType: {}, kwID: {}, kwGraph: {},
}

// containers10 are the tokens JSON-LD 1.0 accepts, single string form only.
var containers10 = map[string]struct{}{
	kwList: {}, kwSet: {}, kwIndex: {}, kwLanguage: {},
}

// validateContainer checks a @container value against the grammar and
// returns the sorted token set.
//
// @set combines with any single other token except @list; everything else
// pairs only as the table in the processing spec allows: @index with
// @graph, @id with @graph. Array form, @graph, @id, @type, and the
// @index+@set combination all require 1.1.
func validateContainer(c *Context, term string, raw any) ([]string, error) {
	var tokens []string
	switch v := raw.(type) {
	case string:
		tokens = []string{v}
	case []any:
		if !c.mode11() {
			return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "@container arrays require json-ld-1.1")
		}
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "@container entries must be strings")
			}
			tokens = append(tokens, s)
		}
	default:
		return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "@container must be a string or array of strings")
	}

	if len(tokens) == 0 {
		return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "@container must not be empty")
	}

	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, ok := containerTokens[tok]; !ok {
			return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "unknown container %q", tok)
		}
		if _, dup := seen[tok]; dup {
			return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "duplicate container %q", tok)
		}
		seen[tok] = struct{}{}
	}

	if !c.mode11() {
		if len(tokens) != 1 {
			return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "@container combinations require json-ld-1.1")
		}
		if _, ok := containers10[tokens[0]]; !ok {
			return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "container %q requires json-ld-1.1", tokens[0])
		}
		sorted := append([]string(nil), tokens...)
		return sorted, nil
	}

	_, hasSet := seen[kwSet]
	_, hasList := seen[kwList]
	_, hasGraph := seen[kwGraph]

	switch {
	case hasList && len(tokens) > 1:
		return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "@list does not combine with other containers")
	case hasSet && len(tokens) == 2:
		// @set combines with any one non-@list token.
	case hasGraph && len(tokens) == 2:
		if _, ok := seen[kwID]; !ok {
			if _, ok := seen[kwIndex]; !ok {
				return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "@graph combines only with @id or @index")
			}
		}
	case len(tokens) == 3:
		// Only @graph plus @id or @index plus @set.
		if !hasGraph || !hasSet {
			return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "invalid container combination")
		}
		if _, ok := seen[kwID]; !ok {
			if _, ok := seen[kwIndex]; !ok {
				return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "invalid container combination")
			}
		}
	case len(tokens) > 3:
		return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "too many container entries")
	case len(tokens) == 2:
		return nil, errors.NewTerm(errors.InvalidContainerMapping, term, "invalid container combination")
	}

	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return sorted, nil
}
