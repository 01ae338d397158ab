package ldcontext

import (
	"sort"
	"strings"

	"github.com/c360/semld/errors"
)

// defineState is the tri-state cycle-tracking marker shared by all term
// definitions of one context object.
type defineState int

const (
	stateUnseen defineState = iota
	stateInProgress
	stateDone
)

// defineOpts carries the per-object parameters of term definition.
type defineOpts struct {
	baseURL           string
	protected         bool
	overrideProtected bool
	state             *parseState
}

// termKeys11 are the entries allowed in a 1.1 term definition object.
var termKeys11 = map[string]struct{}{
	kwID: {}, kwReverse: {}, kwType: {}, kwContainer: {}, kwLanguage: {},
	kwDirection: {}, kwIndex: {}, kwContext: {}, kwNest: {}, kwPrefix: {},
	kwProtected: {},
}

// termKeys10 are the entries allowed in a 1.0 term definition object.
var termKeys10 = map[string]struct{}{
	kwID: {}, kwReverse: {}, kwType: {}, kwContainer: {}, kwLanguage: {},
}

// createTermDefinition builds the definition for term from localCtx and
// commits it into result. Recursion through expandIRI resolves term
// dependencies; the shared defined map makes the recursion cycle-safe.
func createTermDefinition(result *Context, localCtx map[string]any, term string, defined map[string]defineState, dopts defineOpts) error {
	switch defined[term] {
	case stateDone:
		return nil
	case stateInProgress:
		return errors.NewTerm(errors.CyclicIRIMapping, term, "term definition depends on itself")
	}
	defined[term] = stateInProgress

	if term == "" {
		return errors.New(errors.InvalidTermDefinition, "the empty string is not a valid term")
	}

	raw := localCtx[term]

	// Keywords cannot be redefined, with one 1.1 exception for @type.
	if IsKeyword(term) {
		if term == kwType && result.mode11() && isTypeContainerException(raw) {
			// fall through and define @type normally
		} else {
			return errors.NewTerm(errors.KeywordRedefinition, term, "keywords cannot be redefined")
		}
	} else if hasKeywordForm(term) {
		result.processor.logger.Warn("ignoring term that looks like a keyword", "term", term)
		defined[term] = stateDone
		return nil
	}

	prev := result.terms[term]
	delete(result.terms, term)

	simple := false
	var value map[string]any
	switch v := raw.(type) {
	case nil:
		value = map[string]any{kwID: nil}
	case string:
		value = map[string]any{kwID: v}
		simple = true
	case map[string]any:
		value = v
	default:
		return errors.NewTerm(errors.InvalidTermDefinition, term, "definition must be a string, object, or null")
	}

	allowed := termKeys11
	if !result.mode11() {
		allowed = termKeys10
	}
	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := allowed[k]; !ok {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "unexpected entry %q", k)
		}
	}

	td := &TermDefinition{Term: term, Simple: simple, Protected: dopts.protected}

	if raw, ok := value[kwProtected]; ok {
		flag, ok := raw.(bool)
		if !ok {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "@protected must be a boolean")
		}
		td.Protected = flag
	}

	if raw, ok := value[kwType]; ok {
		t, ok := raw.(string)
		if !ok {
			return errors.NewTerm(errors.InvalidTypeMapping, term, "@type must be a string")
		}
		expanded, ok, err := expandIRI(result, t, true, false, "", localCtx, defined, &dopts)
		if err != nil {
			return err
		}
		switch {
		case !ok:
			return errors.NewTerm(errors.InvalidTypeMapping, term, "@type %q does not expand to an IRI", t)
		case expanded == kwID || expanded == kwVocab:
			// valid in any mode
		case expanded == kwJSON || expanded == kwNone:
			if !result.mode11() {
				return errors.NewTerm(errors.InvalidTypeMapping, term, "%s requires json-ld-1.1", expanded)
			}
		case isAbsoluteIRI(expanded) || isBlankNode(expanded):
			// valid
		default:
			return errors.NewTerm(errors.InvalidTypeMapping, term, "@type %q does not expand to an absolute IRI", t)
		}
		td.TypeMapping = expanded
	}

	if raw, ok := value[kwReverse]; ok {
		return defineReverse(result, localCtx, term, raw, value, td, prev, defined, dopts)
	}

	if err := defineIdentity(result, localCtx, term, value, td, simple, defined, &dopts); err != nil {
		return err
	}

	if raw, ok := value[kwContainer]; ok {
		containers, err := validateContainer(result, term, raw)
		if err != nil {
			return err
		}
		td.Containers = containers
		if td.HasContainer(kwType) {
			switch td.TypeMapping {
			case "":
				td.TypeMapping = kwID
			case kwID, kwVocab:
				// compatible
			default:
				return errors.NewTerm(errors.InvalidTypeMapping, term, "@container: @type requires @type of @id or @vocab")
			}
		}
	}

	if raw, ok := value[kwIndex]; ok {
		if !result.mode11() {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "@index in a term definition requires json-ld-1.1")
		}
		if !td.HasContainer(kwIndex) {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "@index requires an @index container")
		}
		idx, ok := raw.(string)
		if !ok {
			return errors.NewTerm(errors.InvalidIndexValue, term, "@index must be a string")
		}
		expanded, ok, err := expandIRI(result, idx, true, false, "", localCtx, defined, &dopts)
		if err != nil {
			return err
		}
		if !ok || !isAbsoluteIRI(expanded) {
			return errors.NewTerm(errors.InvalidIndexValue, term, "@index %q does not expand to an IRI", idx)
		}
		td.Index = idx
	}

	if rawCtx, ok := value[kwContext]; ok {
		if !result.mode11() {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "scoped contexts require json-ld-1.1")
		}
		// Eager validation parse; the raw value is retained for lazy
		// re-activation when the term becomes an active property.
		validation := parseOpts{
			base:              dopts.baseURL,
			overrideProtected: true,
			propagate:         true,
			state:             dopts.state.fork(),
		}
		if _, err := result.parse(rawCtx, validation); err != nil {
			return errors.Wrap(errors.InvalidContextEntry, err, "invalid scoped context on term %q", term)
		}
		td.Context = rawCtx
		td.HasContext = true
		td.ContextBase = dopts.baseURL
	}

	if raw, ok := value[kwLanguage]; ok {
		if _, hasType := value[kwType]; !hasType {
			switch v := raw.(type) {
			case nil:
				td.Language = ExplicitNull()
			case string:
				if !isWellFormedLanguageTag(v) {
					result.processor.logger.Warn("@language is not well-formed BCP 47", "term", term, "language", v)
				}
				td.Language = NullableOf(strings.ToLower(v))
			default:
				return errors.NewTerm(errors.InvalidLanguageMapping, term, "@language must be a string or null")
			}
		}
	}

	if raw, ok := value[kwDirection]; ok {
		if _, hasType := value[kwType]; !hasType {
			switch v := raw.(type) {
			case nil:
				td.Direction = ExplicitNull()
			case string:
				if v != "ltr" && v != "rtl" {
					return errors.NewTerm(errors.InvalidBaseDirection, term, `@direction must be "ltr", "rtl", or null`)
				}
				td.Direction = NullableOf(v)
			default:
				return errors.NewTerm(errors.InvalidBaseDirection, term, `@direction must be "ltr", "rtl", or null`)
			}
		}
	}

	if raw, ok := value[kwNest]; ok {
		if !result.mode11() {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "@nest requires json-ld-1.1")
		}
		nest, ok := raw.(string)
		if !ok {
			return errors.NewTerm(errors.InvalidNestValue, term, "@nest must be a string")
		}
		if nest != kwNest && (IsKeyword(nest) || hasKeywordForm(nest)) {
			return errors.NewTerm(errors.InvalidNestValue, term, "@nest cannot be the keyword %q", nest)
		}
		td.Nest = nest
	}

	if raw, ok := value[kwPrefix]; ok {
		if !result.mode11() {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "@prefix requires json-ld-1.1")
		}
		if strings.Contains(term, ":") || strings.Contains(term, "/") {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "@prefix is not allowed on compact or relative IRI terms")
		}
		flag, ok := raw.(bool)
		if !ok {
			return errors.NewTerm(errors.InvalidPrefixValue, term, "@prefix must be a boolean")
		}
		if flag && IsKeyword(td.IRIValue()) {
			return errors.NewTerm(errors.InvalidTermDefinition, term, "a keyword alias cannot be a prefix")
		}
		td.Prefix = flag
	}

	return commitDefinition(result, term, td, prev, defined, dopts)
}

// isTypeContainerException reports whether raw is the one allowed 1.1
// redefinition of @type: {"@container": "@set"} optionally with @protected.
func isTypeContainerException(raw any) bool {
	obj, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	container, ok := obj[kwContainer].(string)
	if !ok || container != kwSet {
		return false
	}
	for k := range obj {
		if k != kwContainer && k != kwProtected {
			return false
		}
	}
	return true
}

// defineReverse finishes a @reverse term definition.
func defineReverse(result *Context, localCtx map[string]any, term string, raw any, value map[string]any, td *TermDefinition, prev *TermDefinition, defined map[string]defineState, dopts defineOpts) error {
	if _, ok := value[kwID]; ok {
		return errors.NewTerm(errors.InvalidTermDefinition, term, "@reverse and @id are mutually exclusive")
	}
	if _, ok := value[kwNest]; ok {
		return errors.NewTerm(errors.InvalidTermDefinition, term, "@reverse and @nest are mutually exclusive")
	}
	ref, ok := raw.(string)
	if !ok {
		return errors.NewTerm(errors.InvalidIRIMapping, term, "@reverse must be a string")
	}
	if hasKeywordForm(ref) {
		result.processor.logger.Warn("ignoring @reverse value that looks like a keyword", "term", term, "value", ref)
		defined[term] = stateDone
		return nil
	}
	expanded, ok, err := expandIRI(result, ref, true, false, "", localCtx, defined, &dopts)
	if err != nil {
		return err
	}
	if !ok || (!isAbsoluteIRI(expanded) && !isBlankNode(expanded)) {
		return errors.NewTerm(errors.InvalidIRIMapping, term, "@reverse %q does not expand to an absolute IRI", ref)
	}
	td.IRI = &expanded
	td.Reverse = true

	if rawContainer, ok := value[kwContainer]; ok {
		container, isString := rawContainer.(string)
		if rawContainer != nil && (!isString || (container != kwSet && container != kwIndex)) {
			return errors.NewTerm(errors.InvalidContainerMapping, term, "reverse terms allow only @set or @index containers")
		}
		if isString {
			td.Containers = []string{container}
		}
	}

	return commitDefinition(result, term, td, prev, defined, dopts)
}

// defineIdentity resolves the term's IRI mapping: explicit @id, compact-IRI
// prefix, slash-relative expansion, the @type exception, or vocab fallback.
func defineIdentity(result *Context, localCtx map[string]any, term string, value map[string]any, td *TermDefinition, simple bool, defined map[string]defineState, dopts *defineOpts) error {
	rawID, hasID := value[kwID]
	idString, idIsString := rawID.(string)

	switch {
	case hasID && (!idIsString || idString != term):
		if rawID == nil {
			// Explicitly decoupled: the term is known but expands to nothing.
			td.IRI = nil
			break
		}
		if !idIsString {
			return errors.NewTerm(errors.InvalidIRIMapping, term, "@id must be a string or null")
		}
		if !IsKeyword(idString) && hasKeywordForm(idString) {
			result.processor.logger.Warn("ignoring term whose @id looks like a keyword", "term", term, "id", idString)
			defined[term] = stateDone
			return nil
		}
		expanded, ok, err := expandIRI(result, idString, true, false, "", localCtx, defined, dopts)
		if err != nil {
			return err
		}
		if !ok || (!IsKeyword(expanded) && !isAbsoluteIRI(expanded) && !isBlankNode(expanded)) {
			return errors.NewTerm(errors.InvalidIRIMapping, term, "@id %q does not expand to an IRI, blank node, or keyword", idString)
		}
		if expanded == kwContext {
			return errors.NewTerm(errors.InvalidKeywordAlias, term, "@context cannot be aliased")
		}
		td.IRI = &expanded

		// Terms shaped like compact or relative IRIs must round-trip: the
		// bare term has to re-expand to the declared IRI.
		if strings.Contains(term[1:], ":") || strings.Contains(term, "/") {
			defined[term] = stateDone
			reExpanded, _, err := expandIRI(result, term, true, false, "", localCtx, defined, dopts)
			if err != nil {
				return err
			}
			if reExpanded != expanded {
				return errors.NewTerm(errors.InvalidIRIMapping, term, "term expands to %q but declares %q", reExpanded, expanded)
			}
		}

		if !strings.Contains(term, ":") && !strings.Contains(term, "/") && simple &&
			(endsInGenDelim(expanded) || isBlankNode(expanded)) {
			td.Prefix = true
		}

	case strings.Contains(term[1:], ":"):
		// Compact-IRI-shaped term without an overriding @id.
		idx := strings.Index(term[1:], ":") + 1
		prefix, suffix := term[:idx], term[idx+1:]
		if _, ok := localCtx[prefix]; ok {
			if err := createTermDefinition(result, localCtx, prefix, defined, *dopts); err != nil {
				return err
			}
		}
		if prefixDef, ok := result.terms[prefix]; ok && prefixDef.IRI != nil {
			iri := *prefixDef.IRI + suffix
			td.IRI = &iri
		} else {
			// No prefix definition: the term is taken as already absolute.
			iri := term
			td.IRI = &iri
		}

	case strings.Contains(term, "/"):
		expanded, ok, err := expandIRI(result, term, true, false, "", localCtx, defined, dopts)
		if err != nil {
			return err
		}
		if !ok || !isAbsoluteIRI(expanded) {
			return errors.NewTerm(errors.InvalidIRIMapping, term, "relative term does not expand to an absolute IRI")
		}
		td.IRI = &expanded

	case term == kwType:
		iri := kwType
		td.IRI = &iri

	default:
		if result.vocab == nil {
			return errors.NewTerm(errors.InvalidIRIMapping, term, "no @id and no vocabulary mapping")
		}
		iri := *result.vocab + term
		td.IRI = &iri
	}
	return nil
}

// commitDefinition enforces protected-term immutability and stores the
// definition.
func commitDefinition(result *Context, term string, td *TermDefinition, prev *TermDefinition, defined map[string]defineState, dopts defineOpts) error {
	if prev != nil && prev.Protected && !dopts.overrideProtected {
		if !prev.Equal(td) {
			return errors.NewTerm(errors.ProtectedTermRedefinition, term, "redefinition differs from protected definition")
		}
		// Identical redefinition keeps the prior instance.
		result.terms[term] = prev
		defined[term] = stateDone
		return nil
	}
	result.terms[term] = td
	defined[term] = stateDone
	return nil
}
