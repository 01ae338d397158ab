package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semld/ldcontext"
	"github.com/c360/semld/remote"
)

// EngineOptions builds processor options from cfg: the HTTP loader, the
// in-process document cache, and the processing parameters. The NATS KV
// cache is wired separately by callers that hold a JetStream connection.
func (c *Config) EngineOptions(logger *slog.Logger) (ldcontext.Options, error) {
	opts := ldcontext.Options{
		Base:              c.Processor.Base,
		ProcessingMode:    c.Processor.ProcessingMode,
		MaxRemoteContexts: c.Processor.MaxRemoteContexts,
		Validate:          c.Processor.Validate,
		Logger:            logger,
	}

	if c.Loader.Enabled {
		opts.Loader = remote.NewHTTPLoader(remote.HTTPLoaderConfig{
			Timeout:      c.Loader.Timeout.Std(),
			RateLimit:    c.Loader.RateLimit,
			Burst:        c.Loader.Burst,
			MaxBodyBytes: c.Loader.MaxBodyBytes,
		})
	}

	if c.Cache.Size > 0 {
		var cacheOpts []remote.LRUCacheOption
		if c.Cache.MetricsPrefix != "" {
			cacheOpts = append(cacheOpts, remote.WithMetrics(prometheus.DefaultRegisterer, c.Cache.MetricsPrefix))
		}
		cache, err := remote.NewLRUCache(c.Cache.Size, cacheOpts...)
		if err != nil {
			return ldcontext.Options{}, fmt.Errorf("building document cache: %w", err)
		}
		opts.Cache = cache
	}

	return opts, nil
}

// RegisterPreloads loads each configured preload file and registers its
// document for the mapped context URL.
func (c *Config) RegisterPreloads() error {
	for url, path := range c.Preload {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading preload %s: %w", path, err)
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing preload %s: %w", path, err)
		}
		ldcontext.RegisterPreloadedDocument(url, doc)
	}
	return nil
}

// BuildLogger constructs the process logger from the logging section.
func (c *Config) BuildLogger() *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	return slog.New(handler)
}
