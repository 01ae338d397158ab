package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema is the JSON Schema (draft-07) the merged configuration must
// satisfy. Structural constraints live here; cross-field rules are checked
// in code below.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "processor": {
      "type": "object",
      "properties": {
        "base": {"type": "string"},
        "processing_mode": {"type": "string", "enum": ["json-ld-1.0", "json-ld-1.1"]},
        "max_remote_contexts": {"type": "integer", "minimum": 1},
        "validate": {"type": "boolean"}
      },
      "required": ["processing_mode", "max_remote_contexts"]
    },
    "loader": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "timeout": {"type": "string"},
        "rate_limit": {"type": "number", "minimum": 0},
        "burst": {"type": "integer", "minimum": 0},
        "max_body_bytes": {"type": "integer", "minimum": 1}
      }
    },
    "cache": {
      "type": "object",
      "properties": {
        "size": {"type": "integer", "minimum": 0},
        "metrics_prefix": {"type": "string"}
      }
    },
    "nats": {
      "type": "object",
      "properties": {
        "url": {"type": "string"},
        "bucket": {"type": "string"},
        "ttl": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "format": {"type": "string", "enum": ["text", "json"]}
      }
    },
    "preload": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// Validate checks cfg against the configuration schema plus the cross-field
// rules the schema cannot express.
func Validate(cfg *Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	if cfg.NATS.URL != "" && cfg.NATS.Bucket == "" {
		return fmt.Errorf("invalid configuration: nats.bucket is required when nats.url is set")
	}
	if cfg.Loader.Enabled && cfg.Loader.Timeout <= 0 {
		return fmt.Errorf("invalid configuration: loader.timeout must be positive when the loader is enabled")
	}
	return nil
}
