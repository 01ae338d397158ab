package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// KVCacheConfig configures a NATS JetStream KV-backed document cache.
type KVCacheConfig struct {
	// Bucket is the KV bucket name.
	Bucket string

	// TTL expires cached documents. Zero keeps them until replaced.
	TTL time.Duration

	// OpTimeout bounds individual KV operations.
	OpTimeout time.Duration
}

// DefaultKVCacheConfig returns sensible defaults.
func DefaultKVCacheConfig() KVCacheConfig {
	return KVCacheConfig{
		Bucket:    "semld_contexts",
		TTL:       24 * time.Hour,
		OpTimeout: 5 * time.Second,
	}
}

// KVCache caches fetched context documents in a NATS JetStream KV bucket,
// sharing them across processes. Keys are URL-safe encodings of the
// canonical document URL.
type KVCache struct {
	kv        jetstream.KeyValue
	opTimeout time.Duration
	logger    *slog.Logger
}

// NewKVCache creates (or binds to) the configured KV bucket.
func NewKVCache(ctx context.Context, js jetstream.JetStream, cfg KVCacheConfig) (*KVCache, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("KV cache bucket name is required")
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultKVCacheConfig().OpTimeout
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "SemLD remote context document cache",
		TTL:         cfg.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating KV bucket %q: %w", cfg.Bucket, err)
	}

	return &KVCache{
		kv:        kv,
		opTimeout: cfg.OpTimeout,
		logger:    slog.Default().With("component", "remote-kvcache", "bucket", cfg.Bucket),
	}, nil
}

// Get retrieves a cached document by URL.
func (c *KVCache) Get(url string) (*Document, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	entry, err := c.kv.Get(ctx, kvKey(url))
	if err != nil {
		// Missing keys are the common case; anything else is worth a log
		// line. jetstream may wrap the sentinel, so match with errors.Is.
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			c.logger.Warn("KV get failed", "url", url, "error", err)
		}
		return nil, false
	}

	var doc Document
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "url", url, "error", err)
		return nil, false
	}
	return &doc, true
}

// Set stores a document by URL.
func (c *KVCache) Set(url string, doc *Document) error {
	if url == "" {
		return fmt.Errorf("empty cache key")
	}
	if doc == nil {
		return fmt.Errorf("nil document for %s", url)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", url, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	if _, err := c.kv.Put(ctx, kvKey(url), payload); err != nil {
		return fmt.Errorf("storing document %s: %w", url, err)
	}
	return nil
}

// kvKey encodes a URL into the NATS KV key character set.
func kvKey(url string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(url))
}

var _ DocumentCache = (*KVCache)(nil)
