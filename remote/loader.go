package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/c360/semld/errors"
)

// Document is a fetched remote document together with the metadata the
// context engine needs.
type Document struct {
	// URL is the final document URL after redirects.
	URL string `json:"url"`

	// ContextURL is set when an alternate context location was advertised
	// via an HTTP Link header on a non-JSON-LD response.
	ContextURL string `json:"context_url,omitempty"`

	// Content is the parsed JSON body.
	Content any `json:"content"`

	// Tag is a freshness tag (typically the ETag) used to key parsed-result
	// memoization; an empty tag disables memoization for this document.
	Tag string `json:"tag,omitempty"`

	// FetchedAt records when the document was retrieved.
	FetchedAt time.Time `json:"fetched_at"`
}

// Loader fetches a remote document. Implementations must return an error
// satisfying errors.IsCode(err, errors.LoadingRemoteContextFailed) for any
// retrieval failure so callers can distinguish transport problems from
// invalid content.
type Loader interface {
	Load(url string) (*Document, error)
}

// DocumentCache stores fetched documents keyed by canonical URL. The context
// engine consults it before the Loader. Implementations must be safe for
// concurrent use if shared across goroutines.
type DocumentCache interface {
	Get(url string) (*Document, bool)
	Set(url string, doc *Document) error
}

// linkRelContext is the link relation advertising an alternate JSON-LD
// context for a plain JSON response.
const linkRelContext = "http://www.w3.org/ns/json-ld#context"

// acceptHeader prefers JSON-LD but accepts plain JSON.
const acceptHeader = `application/ld+json, application/json;q=0.9, */*;q=0.1`

// HTTPLoaderConfig configures an HTTPLoader.
type HTTPLoaderConfig struct {
	// Timeout bounds a single fetch. Zero means no timeout; the engine
	// itself never imposes one.
	Timeout time.Duration

	// RateLimit caps outbound fetches per second. Zero disables limiting.
	RateLimit float64

	// Burst is the rate limiter burst size. Ignored when RateLimit is zero.
	Burst int

	// MaxBodyBytes bounds the response body size read into memory.
	MaxBodyBytes int64
}

// DefaultHTTPLoaderConfig returns sensible defaults for production use.
func DefaultHTTPLoaderConfig() HTTPLoaderConfig {
	return HTTPLoaderConfig{
		Timeout:      10 * time.Second,
		RateLimit:    0,
		Burst:        1,
		MaxBodyBytes: 8 << 20, // 8 MiB
	}
}

// HTTPLoader fetches JSON-LD context documents over HTTP(S).
type HTTPLoader struct {
	client  *http.Client
	limiter *rate.Limiter
	maxBody int64
	logger  *slog.Logger
}

// NewHTTPLoader creates an HTTPLoader with the given configuration.
func NewHTTPLoader(cfg HTTPLoaderConfig) *HTTPLoader {
	l := &HTTPLoader{
		client:  &http.Client{Timeout: cfg.Timeout},
		maxBody: cfg.MaxBodyBytes,
		logger:  slog.Default().With("component", "remote-loader"),
	}
	if l.maxBody <= 0 {
		l.maxBody = DefaultHTTPLoaderConfig().MaxBodyBytes
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return l
}

// SetClient replaces the underlying HTTP client. Useful for tests and for
// callers that need custom transports.
func (l *HTTPLoader) SetClient(client *http.Client) {
	l.client = client
}

// Load fetches and parses the document at url.
func (l *HTTPLoader) Load(url string) (*Document, error) {
	requestID := uuid.NewString()
	log := l.logger.With("url", url, "request_id", requestID)

	if l.limiter != nil {
		reservation := l.limiter.Reserve()
		if !reservation.OK() {
			return nil, errors.New(errors.LoadingRemoteContextFailed, "rate limiter rejected fetch of %s", url)
		}
		if delay := reservation.Delay(); delay > 0 {
			log.Debug("rate limiting remote context fetch", "delay", delay)
			time.Sleep(delay)
		}
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.LoadingRemoteContextFailed, err, "building request for %s", url)
	}
	req.Header.Set("Accept", acceptHeader)

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.LoadingRemoteContextFailed, err, "fetching %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.LoadingRemoteContextFailed, "fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBody))
	if err != nil {
		return nil, errors.Wrap(errors.LoadingRemoteContextFailed, err, "reading body of %s", url)
	}

	var content any
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, errors.Wrap(errors.LoadingRemoteContextFailed, err, "parsing body of %s", url)
	}

	doc := &Document{
		URL:       finalURL(resp, url),
		Content:   content,
		Tag:       strings.Trim(resp.Header.Get("ETag"), `"`),
		FetchedAt: time.Now(),
	}

	// A plain-JSON response may advertise its context through a Link header.
	if !isJSONLDContentType(resp.Header.Get("Content-Type")) {
		if alt := contextLink(resp.Header.Values("Link")); alt != "" {
			doc.ContextURL = alt
		}
	}

	log.Debug("fetched remote context",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
		"context_url", doc.ContextURL)

	return doc, nil
}

// finalURL returns the URL after any redirects.
func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}

// isJSONLDContentType reports whether the Content-Type is application/ld+json.
func isJSONLDContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/ld+json"
}

// contextLink extracts the first Link target with the JSON-LD context
// relation from the given Link header values.
func contextLink(links []string) string {
	for _, header := range links {
		for _, link := range strings.Split(header, ",") {
			target, params, ok := splitLink(link)
			if !ok {
				continue
			}
			if strings.EqualFold(params["rel"], linkRelContext) {
				return target
			}
		}
	}
	return ""
}

// splitLink parses a single RFC 8288 link-value into its target and params.
func splitLink(link string) (string, map[string]string, bool) {
	parts := strings.Split(strings.TrimSpace(link), ";")
	target := strings.TrimSpace(parts[0])
	if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
		return "", nil, false
	}
	params := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(p), "=")
		if !found {
			continue
		}
		params[strings.ToLower(key)] = strings.Trim(value, `"`)
	}
	return strings.Trim(target, "<>"), params, true
}

// StaticLoader serves documents from an in-memory map. It is intended for
// tests and for fully offline deployments with a fixed context set.
type StaticLoader struct {
	docs map[string]*Document
}

// NewStaticLoader creates a StaticLoader over the given documents keyed by URL.
func NewStaticLoader(docs map[string]*Document) *StaticLoader {
	return &StaticLoader{docs: docs}
}

// Load returns the document registered for url.
func (l *StaticLoader) Load(url string) (*Document, error) {
	doc, ok := l.docs[url]
	if !ok {
		return nil, errors.New(errors.LoadingRemoteContextFailed, "no document registered for %s", url)
	}
	return doc, nil
}

var _ Loader = (*HTTPLoader)(nil)
var _ Loader = (*StaticLoader)(nil)

// String implements fmt.Stringer for logging.
func (d *Document) String() string {
	return fmt.Sprintf("Document(%s tag=%s)", d.URL, d.Tag)
}
