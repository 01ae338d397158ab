package ldcontext

import (
	"strings"

	"github.com/c360/semld/errors"
)

// ExpandOption adjusts one ExpandIRI call.
type ExpandOption func(*expandOpts)

type expandOpts struct {
	vocab   bool
	docRel  bool
	base    string
}

// ExpandVocab expands against term definitions and the vocabulary mapping.
func ExpandVocab() ExpandOption {
	return func(o *expandOpts) { o.vocab = true }
}

// ExpandDocumentRelative resolves relative references against the base IRI.
func ExpandDocumentRelative() ExpandOption {
	return func(o *expandOpts) { o.docRel = true }
}

// ExpandBase overrides the base IRI used for document-relative resolution.
func ExpandBase(base string) ExpandOption {
	return func(o *expandOpts) { o.base = base }
}

// ExpandIRI expands a term, keyword, compact IRI, or IRI reference into an
// absolute IRI or keyword. Returns "" (and no error) when the value
// deliberately expands to nothing: an unrecognized keyword-shaped string or
// a term explicitly mapped to null.
func (c *Context) ExpandIRI(value string, opts ...ExpandOption) (string, error) {
	var o expandOpts
	for _, opt := range opts {
		opt(&o)
	}
	iri, ok, err := expandIRI(c, value, o.vocab, o.docRel, o.base, nil, nil, nil)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return iri, nil
}

// expandIRI is the IRI expansion algorithm. localCtx and defined are
// non-nil only during term definition, where pending terms are defined on
// demand so cross-term references are order-independent. The boolean result
// is false when the value expands to null.
func expandIRI(active *Context, value string, vocab, docRel bool, base string, localCtx map[string]any, defined map[string]defineState, dopts *defineOpts) (string, bool, error) {
	if IsKeyword(value) {
		return value, true, nil
	}
	// Keyword-shaped but unrecognized: reserved for future revisions.
	if hasKeywordForm(value) {
		return "", false, nil
	}

	// Define pending local-context terms on first reference.
	if localCtx != nil {
		if _, pending := localCtx[value]; pending && defined[value] != stateDone {
			if err := createTermDefinition(active, localCtx, value, defined, *dopts); err != nil {
				return "", false, err
			}
		}
	}

	if td, ok := active.terms[value]; ok {
		if IsKeyword(td.IRIValue()) {
			return *td.IRI, true, nil
		}
		if vocab {
			if td.IRI == nil {
				return "", false, nil
			}
			return *td.IRI, true, nil
		}
	}

	if idx := strings.Index(value, ":"); idx > 0 {
		prefix, suffix := value[:idx], value[idx+1:]

		if prefix == "_" {
			return value, true, nil // blank node identifier
		}
		if strings.HasPrefix(suffix, "//") {
			return value, true, nil // scheme://... is already absolute
		}

		if localCtx != nil {
			if _, pending := localCtx[prefix]; pending && defined[prefix] != stateDone {
				if err := createTermDefinition(active, localCtx, prefix, defined, *dopts); err != nil {
					return "", false, err
				}
			}
		}
		if td, ok := active.terms[prefix]; ok && td.IRI != nil && td.Prefix {
			return *td.IRI + suffix, true, nil
		}
		if isAbsoluteIRI(value) {
			return value, true, nil
		}
	}

	if vocab && active.vocab != nil {
		return *active.vocab + value, true, nil
	}

	if docRel {
		b := base
		if b == "" {
			b = active.Base()
		}
		return resolveIRI(b, value), true, nil
	}

	if localCtx != nil && !isAbsoluteIRI(value) {
		return "", false, errors.NewValue(errors.InvalidIRIMapping, value, "value does not expand to an absolute IRI")
	}

	return value, true, nil
}
