package ldcontext

import "sync"

// PreloadFactory builds the parsed form of a preloaded context for a
// processor. Returning nil signals that the preload could not be built.
type PreloadFactory func(*Processor) *Context

// Global preloaded-context registry. Well-known context URLs registered here
// are served without any network access, typically from init functions of
// vocabulary packages.
var (
	preloadMu       sync.RWMutex
	preloadRegistry = make(map[string]PreloadFactory)
)

// RegisterPreloaded registers a factory for url. The URL is canonicalized
// (fragment stripped) before storage; a later registration for the same URL
// overwrites the earlier one.
func RegisterPreloaded(url string, factory PreloadFactory) {
	preloadMu.Lock()
	defer preloadMu.Unlock()
	preloadRegistry[canonicalURL(url)] = factory
}

// RegisterPreloadedDocument registers a raw context document for url. The
// document must carry an @context entry or be a bare context object; it is
// parsed on first use against each processor's own options.
func RegisterPreloadedDocument(url string, document any) {
	RegisterPreloaded(url, func(p *Processor) *Context {
		parsed, err := p.NewContext().Parse(document, WithBaseURL(url))
		if err != nil {
			return nil
		}
		return parsed
	})
}

// preloadedFor looks up the factory registered for url, or nil.
func preloadedFor(url string) PreloadFactory {
	preloadMu.RLock()
	defer preloadMu.RUnlock()
	return preloadRegistry[canonicalURL(url)]
}

// PreloadedURLs lists the registered context URLs.
func PreloadedURLs() []string {
	preloadMu.RLock()
	defer preloadMu.RUnlock()
	urls := make([]string, 0, len(preloadRegistry))
	for url := range preloadRegistry {
		urls = append(urls, url)
	}
	return urls
}

// UnregisterPreloaded removes the registration for url, if any.
func UnregisterPreloaded(url string) {
	preloadMu.Lock()
	defer preloadMu.Unlock()
	delete(preloadRegistry, canonicalURL(url))
}

// ClearPreloaded removes every registration. Primarily useful for tests.
func ClearPreloaded() {
	preloadMu.Lock()
	defer preloadMu.Unlock()
	preloadRegistry = make(map[string]PreloadFactory)
}
