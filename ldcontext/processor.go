package ldcontext

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/c360/semld/errors"
	"github.com/c360/semld/remote"
)

// Processing modes.
const (
	ModeJSONLD10 = "json-ld-1.0"
	ModeJSONLD11 = "json-ld-1.1"
)

// Options configures a Processor.
type Options struct {
	// Base is the document base IRI used for document-relative expansion
	// and @base resolution.
	Base string

	// ProcessingMode is the initial mode. The default is json-ld-1.1; a
	// context carrying 1.1 features then conflicts only with an explicit
	// 1.0 mode.
	ProcessingMode string

	// MaxRemoteContexts is the fetch ceiling per top-level Parse call.
	MaxRemoteContexts int

	// Loader fetches remote context documents. Nil disables remote
	// contexts: any string context entry fails (or, when Validate is
	// false, is skipped).
	Loader remote.Loader

	// Cache stores fetched documents keyed by canonical URL. Nil disables
	// document caching; parsed-result memoization still applies.
	Cache remote.DocumentCache

	// Validate controls strictness of loading and parsing failures.
	// When false, some errors degrade to silent fallback.
	Validate bool

	// Logger receives non-fatal warnings. Defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultOptions returns production defaults: 1.1 mode, strict validation,
// a fetch ceiling of 8, and no loader (remote contexts disabled).
func DefaultOptions() Options {
	return Options{
		ProcessingMode:    ModeJSONLD11,
		MaxRemoteContexts: 8,
		Validate:          true,
	}
}

// Processor owns the cross-context state of the engine: options, the
// parsed-result memo for remote contexts, and the logger. Context values it
// produces are immutable and may outlive it.
type Processor struct {
	opts   Options
	logger *slog.Logger

	// memo caches parsed remote contexts keyed by (url, freshness tag,
	// requesting-context identity).
	memoMu sync.RWMutex
	memo   map[memoKey]*Context
}

type memoKey struct {
	url   string
	tag   string
	ctxID uint64
}

// NewProcessor creates a Processor with the given options.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.ProcessingMode == "" {
		opts.ProcessingMode = ModeJSONLD11
	}
	if opts.ProcessingMode != ModeJSONLD10 && opts.ProcessingMode != ModeJSONLD11 {
		return nil, errors.New(errors.InvalidVersionValue, "unknown processing mode %q", opts.ProcessingMode)
	}
	if opts.MaxRemoteContexts <= 0 {
		opts.MaxRemoteContexts = DefaultOptions().MaxRemoteContexts
	}
	if opts.Base != "" && !isAbsoluteIRI(opts.Base) {
		return nil, errors.NewValue(errors.InvalidBaseIRI, opts.Base, "base must be an absolute IRI")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		opts:   opts,
		logger: logger.With("component", "ldcontext"),
		memo:   make(map[memoKey]*Context),
	}, nil
}

// Options returns a copy of the processor's options.
func (p *Processor) Options() Options { return p.opts }

// ctxIDCounter hands out context identities for memo keys.
var ctxIDCounter atomic.Uint64

// NewContext returns an empty active context bound to this processor, with
// the configured document base and processing mode.
func (p *Processor) NewContext() *Context {
	ctx := &Context{
		processor: p,
		id:        ctxIDCounter.Add(1),
		terms:     map[string]*TermDefinition{},
		mode:      "",
	}
	if p.opts.Base != "" {
		base := p.opts.Base
		ctx.base = &base
		ctx.docBase = p.opts.Base
	}
	if p.opts.ProcessingMode == ModeJSONLD10 {
		// An explicit 1.0 option pins the mode up front; 1.1 is observed
		// lazily so that @version can still set it.
		ctx.mode = ModeJSONLD10
	}
	return ctx
}

// memoGet looks up a previously parsed remote context.
func (p *Processor) memoGet(url, tag string, ctxID uint64) (*Context, bool) {
	if tag == "" {
		return nil, false
	}
	p.memoMu.RLock()
	defer p.memoMu.RUnlock()
	ctx, ok := p.memo[memoKey{url: url, tag: tag, ctxID: ctxID}]
	return ctx, ok
}

// memoSet records a parsed remote context.
func (p *Processor) memoSet(url, tag string, ctxID uint64, ctx *Context) {
	if tag == "" {
		return
	}
	p.memoMu.Lock()
	defer p.memoMu.Unlock()
	p.memo[memoKey{url: url, tag: tag, ctxID: ctxID}] = ctx
}
