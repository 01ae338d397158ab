// Package remote provides document loading and caching for remote JSON-LD
// contexts.
//
// The ldcontext package consumes two small interfaces from here: Loader,
// which fetches a context document from a URL, and DocumentCache, which
// stores fetched documents keyed by canonical URL. Three implementations
// are bundled:
//
//   - HTTPLoader: net/http based loader with JSON-LD content negotiation,
//     Link-header alternate context discovery, ETag freshness tags, and
//     optional rate limiting
//   - LRUCache: in-process least-recently-used cache with always-on
//     statistics and optional Prometheus metrics
//   - KVCache: NATS JetStream key-value backed cache for sharing fetched
//     contexts across processes
//
// Cycle detection and fetch-ceiling enforcement stay in ldcontext; this
// package is transport and storage only.
package remote
