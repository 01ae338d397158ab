package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Base        string
	Concurrency int
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("SEMLD_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: SEMLD_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("SEMLD_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: SEMLD_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SEMLD_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SEMLD_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SEMLD_LOG_FORMAT", "text"),
		"Log format: json, text (env: SEMLD_LOG_FORMAT)")

	flag.StringVar(&cfg.Base, "base",
		getEnv("SEMLD_BASE", ""),
		"Document base IRI override (env: SEMLD_BASE)")

	flag.IntVar(&cfg.Concurrency, "concurrency",
		getEnvInt("SEMLD_CONCURRENCY", runtime.NumCPU()),
		"Parallel workers for lint (env: SEMLD_CONCURRENCY)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printDetailedHelp

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d", cfg.Concurrency)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - JSON-LD context tooling

Usage: %s [options] <command> [args]

Commands:
  lint <file>...                 Parse each context document and report errors
  expand <file> <value>...       Expand values against the context in <file>
  compact <file> <iri>...        Compact IRIs against the context in <file>
  serialize <file>               Print the normalized form of a context

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Check a set of published contexts
  %s lint contexts/*.jsonld

  # Expand a term and a compact IRI
  %s expand schema.jsonld name schema:Person

  # Compact with a document base
  %s --base=http://example.org/doc compact schema.jsonld http://schema.org/name

  # Validate configuration only
  %s --config=/etc/semld/config.yaml --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
