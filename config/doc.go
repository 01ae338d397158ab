// Package config loads the engine configuration from layered YAML files
// with SEMLD_* environment overrides and JSON-schema validation.
//
// Configuration is resolved in three layers, each overriding the last:
//
//  1. Built-in defaults (DefaultConfig)
//  2. YAML file layers, in the order they were added
//  3. SEMLD_* environment variables
//
// Example:
//
//	loader := config.NewLoader()
//	loader.AddLayer("/etc/semld/config.yaml")
//	loader.EnableValidation(true)
//	cfg, err := loader.Load()
package config
