package ldcontext

import (
	"sort"
	"sync"

	"github.com/c360/semld/errors"
)

// Context is an active context: the resolved term definitions and global
// settings in effect at one point of a document. Values are immutable once
// returned from Parse; every mutation produces a new Context, so prior
// snapshots stay valid and callers may share them freely across goroutines.
type Context struct {
	processor *Processor
	id        uint64

	// terms maps term name to definition. Definitions are immutable, so
	// clones share them and only copy the map (copy-on-write).
	terms map[string]*TermDefinition

	// base is the current base IRI; nil after @base:null.
	base *string

	// docBase is the IRI of the context document itself, used to resolve
	// relative remote context references.
	docBase string

	// vocab is the vocabulary mapping; nil when unset.
	vocab *string

	defaultLanguage  *string
	defaultDirection *string

	// mode is "" until a processing mode is observed; then write-once.
	mode string

	// previous links the context that was active before a non-propagated
	// context took effect.
	previous *Context

	// inverse index, built lazily on first compaction.
	invOnce sync.Once
	inv     *inverseContext
}

// clone returns a copy with a fresh identity, a fresh term map sharing the
// immutable definitions, and no memoized inverse index.
func (c *Context) clone() *Context {
	terms := make(map[string]*TermDefinition, len(c.terms))
	for k, v := range c.terms {
		terms[k] = v
	}
	return &Context{
		processor:        c.processor,
		id:               ctxIDCounter.Add(1),
		terms:            terms,
		base:             c.base,
		docBase:          c.docBase,
		vocab:            c.vocab,
		defaultLanguage:  c.defaultLanguage,
		defaultDirection: c.defaultDirection,
		mode:             c.mode,
		previous:         c.previous,
	}
}

// Term returns the definition for the given term.
func (c *Context) Term(name string) (*TermDefinition, bool) {
	td, ok := c.terms[name]
	return td, ok
}

// Terms returns all defined term names, sorted.
func (c *Context) Terms() []string {
	names := make([]string, 0, len(c.terms))
	for name := range c.terms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Base returns the current base IRI, or "" when nullified or unset.
func (c *Context) Base() string {
	if c.base == nil {
		return ""
	}
	return *c.base
}

// Vocab returns the vocabulary mapping, or "" when unset.
func (c *Context) Vocab() string {
	if c.vocab == nil {
		return ""
	}
	return *c.vocab
}

// DefaultLanguage returns the default language, or "" when unset.
func (c *Context) DefaultLanguage() string {
	if c.defaultLanguage == nil {
		return ""
	}
	return *c.defaultLanguage
}

// DefaultDirection returns the default base direction, or "" when unset.
func (c *Context) DefaultDirection() string {
	if c.defaultDirection == nil {
		return ""
	}
	return *c.defaultDirection
}

// ProcessingMode returns the effective processing mode.
func (c *Context) ProcessingMode() string {
	if c.mode != "" {
		return c.mode
	}
	if c.processor != nil {
		return c.processor.opts.ProcessingMode
	}
	return ModeJSONLD11
}

// mode11 reports whether 1.1 features are permitted.
func (c *Context) mode11() bool {
	return c.ProcessingMode() != ModeJSONLD10
}

// observeVersion records an observed @version. The mode is write-once:
// conflicting observations error.
func (c *Context) observeVersion(version string) error {
	if c.mode == ModeJSONLD10 && version == ModeJSONLD11 {
		return errors.New(errors.ProcessingModeConflict, "@version 1.1 in %s mode", ModeJSONLD10)
	}
	if c.mode == "" || c.mode == version {
		c.mode = version
		return nil
	}
	return errors.New(errors.ProcessingModeConflict, "mode %s conflicts with %s", version, c.mode)
}

// PreviousContext returns the context that was active before a
// non-propagated context took effect, if any.
func (c *Context) PreviousContext() *Context {
	return c.previous
}

// Revert restores the previous context when this one was introduced with
// @propagate:false; otherwise it returns the receiver.
func (c *Context) Revert() *Context {
	if c.previous != nil {
		return c.previous
	}
	return c
}

// Language returns the effective language for a term: the term's own
// mapping when defined (with explicit null reading as ""), falling back to
// the context default.
func (c *Context) Language(term string) string {
	if td, ok := c.terms[term]; ok && td.Language.Defined() {
		lang, _ := td.Language.Get()
		return lang
	}
	return c.DefaultLanguage()
}

// Direction returns the effective base direction for a term, falling back
// to the context default.
func (c *Context) Direction(term string) string {
	if td, ok := c.terms[term]; ok && td.Direction.Defined() {
		dir, _ := td.Direction.Get()
		return dir
	}
	return c.DefaultDirection()
}

// Containers returns the container mapping for a term, or nil.
func (c *Context) Containers(term string) []string {
	if td, ok := c.terms[term]; ok {
		return td.Containers
	}
	return nil
}

// TypeMapping returns the type mapping for a term, or "".
func (c *Context) TypeMapping(term string) string {
	if td, ok := c.terms[term]; ok {
		return td.TypeMapping
	}
	return ""
}

// Nest returns the @nest target for a term. The value is validated here,
// lazily: it must be @nest itself or a term whose IRI mapping is @nest.
func (c *Context) Nest(term string) (string, error) {
	td, ok := c.terms[term]
	if !ok || td.Nest == "" {
		return "", nil
	}
	if td.Nest == kwNest {
		return kwNest, nil
	}
	target, ok := c.terms[td.Nest]
	if !ok || target.IRIValue() != kwNest {
		return "", errors.NewTerm(errors.InvalidNestValue, term, "%q does not resolve to @nest", td.Nest)
	}
	return td.Nest, nil
}

// hasProtectedTerms reports whether any term definition is protected.
func (c *Context) hasProtectedTerms() bool {
	for _, td := range c.terms {
		if td.Protected {
			return true
		}
	}
	return false
}

// merge folds other's settings and terms into a clone of c. Scalar fields
// take other's value when set; term entries from other override. Protected
// terms in c must survive field-identical or the merge errors, unless
// overrideProtected.
func (c *Context) merge(other *Context, overrideProtected bool) (*Context, error) {
	result := c.clone()

	for term, prev := range c.terms {
		if !prev.Protected || overrideProtected {
			continue
		}
		next, ok := other.terms[term]
		if ok && !prev.Equal(next) {
			return nil, errors.NewTerm(errors.ProtectedTermRedefinition, term, "merge would change protected term")
		}
	}

	for term, td := range other.terms {
		if prev, ok := result.terms[term]; ok && prev.Protected && prev.Equal(td) {
			continue // keep the prior instance
		}
		result.terms[term] = td
	}

	if other.base != nil {
		result.base = other.base
	}
	if other.vocab != nil {
		result.vocab = other.vocab
	}
	if other.defaultLanguage != nil {
		result.defaultLanguage = other.defaultLanguage
	}
	if other.defaultDirection != nil {
		result.defaultDirection = other.defaultDirection
	}
	if other.mode != "" {
		if err := result.observeVersion(other.mode); err != nil {
			return nil, err
		}
	}
	return result, nil
}
