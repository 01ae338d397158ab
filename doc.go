// Package semld provides a JSON-LD context engine: it resolves @context
// declarations into active contexts and offers IRI expansion and compaction
// against them.
//
// # Philosophy: Context First
//
// Every other JSON-LD operation (expansion, compaction, framing, RDF
// conversion) is a tree-walk that consumes an active context. SemLD
// implements the hard part once, the context engine, and leaves the
// tree-walkers to callers:
//
//   - Active contexts: immutable snapshots of term mappings and global
//     settings (base, vocabulary, language, direction, processing mode)
//   - Term definitions: recursive, cycle-safe construction with protected
//     term immutability and scoped-context support
//   - IRI expansion: terms, keywords, compact IRIs, and relative references
//   - IRI compaction: inverse-index-driven selection of the most specific
//     term, compact IRI, or relative IRI
//   - Remote contexts: fetching with cycle and overflow protection, LRU and
//     NATS KV caching, and a preloaded-context registry
//
// # Architecture
//
// SemLD is layered so that transport and policy stay out of the algorithms:
//
//	┌─────────────────────────────────────┐
//	│           cmd/semld                 │  CLI: lint, expand, compact
//	└─────────────────────────────────────┘
//	           ↓ assembles via
//	┌─────────────────────────────────────┐
//	│            config                   │  YAML + schema validation
//	└─────────────────────────────────────┘
//	           ↓ configures
//	┌─────────────────────────────────────┐
//	│           ldcontext                 │  Parse / Define / Expand / Compact
//	└─────────────────────────────────────┘
//	           ↓ fetches through
//	┌─────────────────────────────────────┐
//	│            remote                   │  Loader, LRU cache, NATS KV cache
//	└─────────────────────────────────────┘
//
// The ldcontext package never opens a network connection itself; it consumes
// an injected remote.Loader and remote.DocumentCache. Errors across all
// packages use the closed code set in the errors package so callers can
// distinguish, for example, a cyclic IRI mapping from a failed remote fetch.
//
// # Quick Start
//
//	proc, err := ldcontext.NewProcessor(ldcontext.DefaultOptions())
//	if err != nil { ... }
//	ctx, err := proc.NewContext().Parse(map[string]any{
//	    "@vocab": "http://schema.org/",
//	    "ex":     "http://example.org/",
//	})
//	iri, err := ctx.ExpandIRI("ex:foo", ldcontext.ExpandVocab())
//	// iri == "http://example.org/foo"
//
// # Concurrency
//
// Context values are immutable once returned from Parse; callers may hold
// and reuse multiple snapshots concurrently without locking. The remote
// document cache is the only shared mutable structure and the bundled
// implementations are thread-safe.
package semld
