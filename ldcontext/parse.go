package ldcontext

import (
	"sort"
	"strings"

	"github.com/c360/semld/errors"
	"github.com/c360/semld/remote"
)

// ParseOption adjusts one Parse call.
type ParseOption func(*parseOpts)

type parseOpts struct {
	base              string
	overrideProtected bool
	propagate         bool
	remote            bool
	state             *parseState
}

// parseState tracks remote-context fetches for one top-level Parse call:
// the in-flight URL set for cycle rejection and the fetch counter for the
// overflow ceiling.
type parseState struct {
	visited map[string]bool
	fetches int
}

func (s *parseState) fork() *parseState {
	visited := make(map[string]bool, len(s.visited))
	for k, v := range s.visited {
		visited[k] = v
	}
	return &parseState{visited: visited, fetches: s.fetches}
}

// WithBaseURL sets the base URL used to resolve relative remote context
// references for this call.
func WithBaseURL(base string) ParseOption {
	return func(po *parseOpts) { po.base = base }
}

// OverrideProtected allows redefinition of protected terms. Used when
// activating term-scoped contexts.
func OverrideProtected() ParseOption {
	return func(po *parseOpts) { po.overrideProtected = true }
}

// WithoutPropagation marks the parsed context as non-propagating: the
// receiver is remembered as the previous context and can be restored with
// Revert. An explicit @propagate entry overrides this.
func WithoutPropagation() ParseOption {
	return func(po *parseOpts) { po.propagate = false }
}

// Parse folds a local context value into a new active context. The receiver
// is never modified. Accepted values: nil, false, *Context, a raw document
// (map containing @context), an IRI-reference string, an inline context
// object, or an array of any of these.
func (c *Context) Parse(local any, opts ...ParseOption) (*Context, error) {
	po := parseOpts{propagate: true}
	for _, opt := range opts {
		opt(&po)
	}
	if po.state == nil {
		po.state = &parseState{visited: make(map[string]bool)}
	}
	return c.parse(local, po)
}

// parse is the recursive worker behind Parse.
func (c *Context) parse(local any, po parseOpts) (*Context, error) {
	result := c.clone()

	// A raw document stands in for its own @context.
	if doc, ok := local.(map[string]any); ok {
		if inner, ok := doc[kwContext]; ok {
			local = inner
		}
	}

	entries, ok := local.([]any)
	if !ok {
		entries = []any{local}
	}

	for _, entry := range entries {
		var err error
		switch v := entry.(type) {
		case nil:
			result, err = result.nullify(po)
		case bool:
			if v {
				return nil, errors.NewValue(errors.InvalidLocalContext, v, "true is not a context")
			}
			result, err = result.nullify(po)
		case *Context:
			result, err = result.merge(v, po.overrideProtected)
		case string:
			result, err = result.parseRemote(v, po)
		case map[string]any:
			result, err = result.parseObject(v, po)
		default:
			return nil, errors.NewValue(errors.InvalidLocalContext, entry, "unexpected context entry type %T", entry)
		}
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// nullify resets to an empty context, guarding protected terms and keeping
// the previous-context link for non-propagated scopes.
func (c *Context) nullify(po parseOpts) (*Context, error) {
	if !po.overrideProtected && c.hasProtectedTerms() {
		return nil, errors.New(errors.InvalidContextNullification, "cannot nullify a context with protected terms")
	}
	fresh := c.processor.NewContext()
	fresh.docBase = c.docBase
	if !po.propagate {
		fresh.previous = c
	}
	return fresh, nil
}

// parseRemote handles a string context entry: resolve, guard against cycles
// and overflow, consult the preloaded registry and document cache, fetch,
// and fold the fetched @context in.
func (c *Context) parseRemote(ref string, po parseOpts) (*Context, error) {
	p := c.processor

	base := po.base
	if base == "" {
		base = c.docBase
	}
	if base == "" {
		base = c.Base()
	}
	url := canonicalURL(resolveIRI(base, ref))

	if !isAbsoluteIRI(url) {
		if !p.opts.Validate {
			p.logger.Warn("skipping unresolvable context reference", "ref", ref)
			return c, nil
		}
		return nil, errors.NewValue(errors.LoadingRemoteContextFailed, ref, "cannot resolve relative context reference without a base")
	}

	if po.state.visited[url] {
		return nil, errors.NewValue(errors.RecursiveContextInclusion, url, "context includes itself")
	}
	po.state.fetches++
	if po.state.fetches > p.opts.MaxRemoteContexts {
		return nil, errors.New(errors.ContextOverflow, "more than %d remote contexts in one parse", p.opts.MaxRemoteContexts)
	}

	// Preloaded contexts bypass the loader entirely.
	if factory := preloadedFor(url); factory != nil {
		pre := factory(p)
		if pre == nil {
			return nil, errors.NewValue(errors.InvalidRemoteContext, url, "preloaded context factory returned nil")
		}
		return c.merge(pre, po.overrideProtected)
	}

	doc, err := p.fetchDocument(url)
	if err != nil {
		if !p.opts.Validate {
			p.logger.Warn("skipping unloadable remote context", "url", url, "error", err)
			return c, nil
		}
		return nil, err
	}

	// A plain-JSON response may point at its real context via Link header.
	if doc.ContextURL != "" {
		po2 := po
		po2.base = doc.URL
		return c.parseRemote(doc.ContextURL, po2)
	}

	if memoized, ok := p.memoGet(url, doc.Tag, c.id); ok {
		return memoized, nil
	}

	content, ok := doc.Content.(map[string]any)
	if !ok {
		return nil, errors.NewValue(errors.InvalidRemoteContext, url, "remote context document is not an object")
	}
	ctxValue, ok := content[kwContext]
	if !ok {
		return nil, errors.NewValue(errors.InvalidRemoteContext, url, "remote document has no @context entry")
	}

	po.state.visited[url] = true
	po2 := po
	po2.base = doc.URL
	po2.remote = true

	requestingID := c.id
	result, err := c.parse(ctxValue, po2)
	if err != nil {
		return nil, err
	}
	p.memoSet(url, doc.Tag, requestingID, result)
	return result, nil
}

// fetchDocument retrieves a document through the cache, falling back to the
// loader and populating the cache on success.
func (p *Processor) fetchDocument(url string) (*remote.Document, error) {
	if p.opts.Cache != nil {
		if doc, ok := p.opts.Cache.Get(url); ok {
			return doc, nil
		}
	}
	if p.opts.Loader == nil {
		return nil, errors.NewValue(errors.LoadingRemoteContextFailed, url, "no document loader configured")
	}
	doc, err := p.opts.Loader.Load(url)
	if err != nil {
		if errors.CodeOf(err) == "" {
			err = errors.Wrap(errors.LoadingRemoteContextFailed, err, "fetching %s", url)
		}
		return nil, err
	}
	if p.opts.Cache != nil {
		if cacheErr := p.opts.Cache.Set(url, doc); cacheErr != nil {
			p.logger.Warn("failed to cache remote context", "url", url, "error", cacheErr)
		}
	}
	return doc, nil
}

// contextGlobalKeys are the inline-object entries that are not term
// definitions, in processing order.
var contextGlobalKeys = []string{kwVersion, kwImport, kwBase, kwDirection, kwLanguage, kwPropagate, kwVocab}

// parseObject processes one inline context object: the global entries in
// fixed order, then a term definition for every remaining key, all keys
// sharing a single cycle-tracking map.
func (c *Context) parseObject(obj map[string]any, po parseOpts) (*Context, error) {
	result := c.clone()

	// An entry-local @propagate overrides the call parameter.
	if raw, ok := obj[kwPropagate]; ok {
		if !result.mode11() {
			return nil, errors.New(errors.InvalidContextEntry, "@propagate requires json-ld-1.1")
		}
		flag, ok := raw.(bool)
		if !ok {
			return nil, errors.NewValue(errors.InvalidContextEntry, raw, "@propagate must be a boolean")
		}
		po.propagate = flag
	}
	if !po.propagate && result.previous == nil {
		snapshot := c.clone()
		result.previous = snapshot
	}

	// @import contributes entries underneath the importing object.
	if raw, ok := obj[kwImport]; ok {
		merged, err := result.applyImport(raw, obj, po)
		if err != nil {
			return nil, err
		}
		obj = merged
	}

	for _, key := range contextGlobalKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var err error
		switch key {
		case kwVersion:
			err = result.applyVersion(raw)
		case kwBase:
			if !po.remote {
				err = result.applyBase(raw)
			}
		case kwDirection:
			err = result.applyDirection(raw)
		case kwLanguage:
			err = result.applyLanguage(raw)
		case kwPropagate:
			// handled above
		case kwVocab:
			err = result.applyVocab(raw)
		}
		if err != nil {
			return nil, err
		}
	}

	protected := false
	if raw, ok := obj[kwProtected]; ok {
		if !result.mode11() {
			return nil, errors.New(errors.InvalidContextEntry, "@protected requires json-ld-1.1")
		}
		flag, ok := raw.(bool)
		if !ok {
			return nil, errors.NewValue(errors.InvalidContextEntry, raw, "@protected must be a boolean")
		}
		protected = flag
	}

	defined := make(map[string]defineState, len(obj))
	dopts := defineOpts{
		baseURL:           po.base,
		protected:         protected,
		overrideProtected: po.overrideProtected,
		state:             po.state,
	}

	// Terms resolve out of object order through lazy dependency recursion;
	// a sorted walk keeps warnings deterministic.
	terms := make([]string, 0, len(obj))
	for key := range obj {
		if isContextGlobalKey(key) {
			continue
		}
		terms = append(terms, key)
	}
	sort.Strings(terms)

	for _, term := range terms {
		if err := createTermDefinition(result, obj, term, defined, dopts); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func isContextGlobalKey(key string) bool {
	switch key {
	case kwVersion, kwImport, kwBase, kwDirection, kwLanguage, kwPropagate, kwVocab, kwProtected:
		return true
	}
	return false
}

// applyImport fetches an external context object and layers the importing
// object's entries over it.
func (c *Context) applyImport(raw any, obj map[string]any, po parseOpts) (map[string]any, error) {
	if !c.mode11() {
		return nil, errors.New(errors.InvalidContextEntry, "@import requires json-ld-1.1")
	}
	ref, ok := raw.(string)
	if !ok {
		return nil, errors.NewValue(errors.InvalidContextEntry, raw, "@import must be a string")
	}

	base := po.base
	if base == "" {
		base = c.docBase
	}
	if base == "" {
		base = c.Base()
	}
	url := canonicalURL(resolveIRI(base, ref))
	if !isAbsoluteIRI(url) {
		return nil, errors.NewValue(errors.LoadingRemoteContextFailed, ref, "cannot resolve @import reference without a base")
	}

	po.state.fetches++
	if po.state.fetches > c.processor.opts.MaxRemoteContexts {
		return nil, errors.New(errors.ContextOverflow, "more than %d remote contexts in one parse", c.processor.opts.MaxRemoteContexts)
	}

	doc, err := c.processor.fetchDocument(url)
	if err != nil {
		return nil, err
	}
	content, ok := doc.Content.(map[string]any)
	if !ok {
		return nil, errors.NewValue(errors.InvalidRemoteContext, url, "imported document is not an object")
	}
	imported, ok := content[kwContext].(map[string]any)
	if !ok {
		return nil, errors.NewValue(errors.InvalidRemoteContext, url, "imported @context is not a context object")
	}
	if _, ok := imported[kwImport]; ok {
		return nil, errors.NewValue(errors.InvalidContextEntry, url, "imported context must not contain @import")
	}

	merged := make(map[string]any, len(imported)+len(obj))
	for k, v := range imported {
		merged[k] = v
	}
	for k, v := range obj {
		if k == kwImport {
			continue
		}
		merged[k] = v
	}
	return merged, nil
}

// applyVersion validates @version and pins the processing mode.
func (c *Context) applyVersion(raw any) error {
	// Only the number 1.1 is a valid @version; the string form is not.
	if v, ok := raw.(float64); !ok || v != 1.1 {
		return errors.NewValue(errors.InvalidVersionValue, raw, "@version must be the number 1.1")
	}
	if c.processor.opts.ProcessingMode == ModeJSONLD10 {
		return errors.New(errors.ProcessingModeConflict, "@version 1.1 under a json-ld-1.0 processor")
	}
	return c.observeVersion(ModeJSONLD11)
}

// applyBase sets or clears the base IRI.
func (c *Context) applyBase(raw any) error {
	switch v := raw.(type) {
	case nil:
		c.base = nil
	case string:
		resolved := v
		if !isAbsoluteIRI(v) {
			if c.base == nil {
				return errors.NewValue(errors.InvalidBaseIRI, v, "relative @base with no current base")
			}
			resolved = resolveIRI(*c.base, v)
		}
		if !isAbsoluteIRI(resolved) {
			return errors.NewValue(errors.InvalidBaseIRI, v, "@base did not resolve to an absolute IRI")
		}
		c.base = &resolved
	default:
		return errors.NewValue(errors.InvalidBaseIRI, raw, "@base must be an IRI or null")
	}
	return nil
}

// applyDirection sets or clears the default base direction.
func (c *Context) applyDirection(raw any) error {
	if !c.mode11() {
		return errors.New(errors.InvalidContextEntry, "@direction requires json-ld-1.1")
	}
	switch v := raw.(type) {
	case nil:
		c.defaultDirection = nil
	case string:
		if v != "ltr" && v != "rtl" {
			return errors.NewValue(errors.InvalidBaseDirection, v, `@direction must be "ltr", "rtl", or null`)
		}
		c.defaultDirection = &v
	default:
		return errors.NewValue(errors.InvalidBaseDirection, raw, `@direction must be "ltr", "rtl", or null`)
	}
	return nil
}

// applyLanguage sets or clears the default language.
func (c *Context) applyLanguage(raw any) error {
	switch v := raw.(type) {
	case nil:
		c.defaultLanguage = nil
	case string:
		if !isWellFormedLanguageTag(v) {
			c.processor.logger.Warn("@language is not well-formed BCP 47", "language", v)
		}
		lang := strings.ToLower(v)
		c.defaultLanguage = &lang
	default:
		return errors.NewValue(errors.InvalidDefaultLanguage, raw, "@language must be a string or null")
	}
	return nil
}

// applyVocab sets or clears the vocabulary mapping.
func (c *Context) applyVocab(raw any) error {
	switch v := raw.(type) {
	case nil:
		c.vocab = nil
	case string:
		if v == "" {
			// An empty vocabulary mapping makes the base the vocabulary.
			if c.base == nil {
				return errors.NewValue(errors.InvalidVocabMapping, v, "empty @vocab with no base IRI")
			}
			c.vocab = c.base
			return nil
		}
		expanded, ok, err := expandIRI(c, v, true, true, "", nil, nil, nil)
		if err != nil {
			return err
		}
		if !ok || (!isAbsoluteIRI(expanded) && !isBlankNode(expanded)) {
			return errors.NewValue(errors.InvalidVocabMapping, v, "@vocab must expand to an IRI or blank node")
		}
		c.vocab = &expanded
	default:
		return errors.NewValue(errors.InvalidVocabMapping, raw, "@vocab must be a string or null")
	}
	return nil
}
