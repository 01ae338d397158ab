package ldcontext

import (
	"regexp"
	"strings"
)

// absoluteIRIRe accepts scheme:rest with no whitespace or delimiters that
// are illegal in IRIs. Deliberately permissive: full IRI grammar validation
// is a non-goal, the engine only needs to tell absolute references from
// relative ones without mangling what it was given.
var absoluteIRIRe = regexp.MustCompile("^[A-Za-z][A-Za-z0-9+.\\-]*:[^\\x00-\\x20<>\"{}|\\\\^`]*$")

// languageTagRe is a lenient BCP-47 shape check. Malformed-but-parseable
// tags warn rather than reject.
var languageTagRe = regexp.MustCompile(`^[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*$`)

// isAbsoluteIRI reports whether value is a syntactically absolute IRI.
func isAbsoluteIRI(value string) bool {
	return absoluteIRIRe.MatchString(value)
}

// isBlankNode reports whether value is a blank node identifier.
func isBlankNode(value string) bool {
	return strings.HasPrefix(value, "_:")
}

// isWellFormedLanguageTag reports whether tag has valid BCP-47 shape.
func isWellFormedLanguageTag(tag string) bool {
	return languageTagRe.MatchString(tag)
}

// genDelims are the RFC 3986 generic delimiters. A simple term definition is
// only prefix-eligible when its IRI ends in one of these (or is a blank node
// prefix), because only then does appending a suffix produce a sensible IRI.
const genDelims = ":/?#[]@"

// endsInGenDelim reports whether iri ends with a generic delimiter.
func endsInGenDelim(iri string) bool {
	if iri == "" {
		return false
	}
	return strings.ContainsRune(genDelims, rune(iri[len(iri)-1]))
}

// iriParts holds the five RFC 3986 components. The has* flags distinguish
// absent components from empty ones; the distinction is observable (e.g.
// "http://a/b?" keeps its empty query).
type iriParts struct {
	scheme       string
	hasScheme    bool
	authority    string
	hasAuthority bool
	path         string
	query        string
	hasQuery     bool
	fragment     string
	hasFragment  bool
}

// iriPartsRe is the component regexp from RFC 3986 appendix B.
var iriPartsRe = regexp.MustCompile(`^(([^:/?#]+):)?(//([^/?#]*))?([^?#]*)(\?([^#]*))?(#(.*))?$`)

// parseIRI splits an IRI reference into components without normalizing.
func parseIRI(value string) iriParts {
	m := iriPartsRe.FindStringSubmatch(value)
	if m == nil {
		return iriParts{path: value}
	}
	return iriParts{
		scheme:       m[2],
		hasScheme:    m[1] != "",
		authority:    m[4],
		hasAuthority: m[3] != "",
		path:         m[5],
		query:        m[7],
		hasQuery:     m[6] != "",
		fragment:     m[9],
		hasFragment:  m[8] != "",
	}
}

// recompose rebuilds an IRI from components per RFC 3986 section 5.3.
func (p iriParts) recompose() string {
	var sb strings.Builder
	if p.hasScheme {
		sb.WriteString(p.scheme)
		sb.WriteByte(':')
	}
	if p.hasAuthority {
		sb.WriteString("//")
		sb.WriteString(p.authority)
	}
	sb.WriteString(p.path)
	if p.hasQuery {
		sb.WriteByte('?')
		sb.WriteString(p.query)
	}
	if p.hasFragment {
		sb.WriteByte('#')
		sb.WriteString(p.fragment)
	}
	return sb.String()
}

// resolveIRI resolves ref against base using the RFC 3986 section 5.2 basic
// algorithm: path merging and dot-segment removal only, no percent-encoding
// or case normalization, so IRIs round-trip byte-identically.
func resolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}

	r := parseIRI(ref)
	if r.hasScheme {
		r.path = removeDotSegments(r.path)
		return r.recompose()
	}

	b := parseIRI(base)
	t := iriParts{scheme: b.scheme, hasScheme: b.hasScheme}

	switch {
	case r.hasAuthority:
		t.authority = r.authority
		t.hasAuthority = true
		t.path = removeDotSegments(r.path)
		t.query, t.hasQuery = r.query, r.hasQuery
	case r.path == "":
		t.authority, t.hasAuthority = b.authority, b.hasAuthority
		t.path = b.path
		if r.hasQuery {
			t.query, t.hasQuery = r.query, true
		} else {
			t.query, t.hasQuery = b.query, b.hasQuery
		}
	default:
		t.authority, t.hasAuthority = b.authority, b.hasAuthority
		if strings.HasPrefix(r.path, "/") {
			t.path = removeDotSegments(r.path)
		} else {
			t.path = removeDotSegments(mergePaths(b, r.path))
		}
		t.query, t.hasQuery = r.query, r.hasQuery
	}

	t.fragment, t.hasFragment = r.fragment, r.hasFragment
	return t.recompose()
}

// mergePaths implements RFC 3986 section 5.3 path merging.
func mergePaths(base iriParts, refPath string) string {
	if base.hasAuthority && base.path == "" {
		return "/" + refPath
	}
	if idx := strings.LastIndex(base.path, "/"); idx >= 0 {
		return base.path[:idx+1] + refPath
	}
	return refPath
}

// removeDotSegments implements RFC 3986 section 5.2.4.
func removeDotSegments(path string) string {
	var output []string
	input := path
	for input != "" {
		switch {
		case strings.HasPrefix(input, "../"):
			input = input[3:]
		case strings.HasPrefix(input, "./"):
			input = input[2:]
		case strings.HasPrefix(input, "/./"):
			input = "/" + input[3:]
		case input == "/.":
			input = "/"
		case strings.HasPrefix(input, "/../"):
			input = "/" + input[4:]
			if len(output) > 0 {
				output = output[:len(output)-1]
			}
		case input == "/..":
			input = "/"
			if len(output) > 0 {
				output = output[:len(output)-1]
			}
		case input == "." || input == "..":
			input = ""
		default:
			segEnd := strings.Index(input[1:], "/")
			if segEnd < 0 {
				output = append(output, input)
				input = ""
			} else {
				output = append(output, input[:segEnd+1])
				input = input[segEnd+1:]
			}
		}
	}
	return strings.Join(output, "")
}

// relativize makes iri relative to base, walking up parent segments with
// "../" prefixes. Returns iri unchanged when the two share no scheme and
// authority. Results that would read as keywords are escaped with "./".
func relativize(base, iri string) string {
	if base == "" {
		return iri
	}

	b := parseIRI(base)
	r := parseIRI(iri)
	if !r.hasScheme || b.scheme != r.scheme || b.hasAuthority != r.hasAuthority || b.authority != r.authority {
		return iri
	}

	baseSegs := strings.Split(b.path, "/")
	baseSegs = baseSegs[:len(baseSegs)-1] // drop the document segment
	iriSegs := strings.Split(r.path, "/")

	common := 0
	for common < len(baseSegs) && common < len(iriSegs)-1 && baseSegs[common] == iriSegs[common] {
		common++
	}

	var sb strings.Builder
	for i := common; i < len(baseSegs); i++ {
		sb.WriteString("../")
	}
	sb.WriteString(strings.Join(iriSegs[common:], "/"))
	if r.hasQuery {
		sb.WriteByte('?')
		sb.WriteString(r.query)
	}
	if r.hasFragment {
		sb.WriteByte('#')
		sb.WriteString(r.fragment)
	}

	rel := sb.String()
	if rel == "" {
		return "./"
	}
	return escapeKeywordForm(rel)
}

// escapeKeywordForm prefixes "./" when a relative IRI would read as a keyword.
func escapeKeywordForm(rel string) string {
	if IsKeyword(rel) || keywordFormRe.MatchString(rel) {
		return "./" + rel
	}
	return rel
}

// canonicalURL canonicalizes a remote context URL for cache and cycle keys
// by stripping any fragment.
func canonicalURL(url string) string {
	if idx := strings.Index(url, "#"); idx >= 0 {
		return url[:idx]
	}
	return url
}
