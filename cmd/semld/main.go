// Package main implements the semld command line tool. It parses JSON-LD
// context documents through the shared processing engine and exposes lint,
// expand, compact, and serialize operations over them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/c360/semld/config"
	"github.com/c360/semld/ldcontext"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semld"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := loadConfig(cliCfg)
	if err != nil {
		return err
	}

	logger := cfg.BuildLogger().With("service", appName, "version", Version)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		if err := config.Validate(cfg); err != nil {
			return err
		}
		slog.Info("Configuration is valid")
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		printDetailedHelp()
		return fmt.Errorf("no command given")
	}

	if err := cfg.RegisterPreloads(); err != nil {
		return fmt.Errorf("register preloads: %w", err)
	}

	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return err
	}
	proc, err := ldcontext.NewProcessor(opts)
	if err != nil {
		return fmt.Errorf("create processor: %w", err)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "lint":
		return runLint(context.Background(), proc, rest, cliCfg.Concurrency)
	case "expand":
		return runExpand(proc, rest)
	case "compact":
		return runCompact(proc, rest)
	case "serialize":
		return runSerialize(proc, rest)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// loadConfig loads configuration, falling back to defaults plus environment
// overrides when no file is given.
func loadConfig(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// CLI flags win over config file and environment.
	cfg.Logging.Level = cliCfg.LogLevel
	cfg.Logging.Format = cliCfg.LogFormat
	if cliCfg.Base != "" {
		cfg.Processor.Base = cliCfg.Base
	}
	return cfg, nil
}

// runLint parses every file, in parallel, and reports each failure. The
// exit status reflects whether all documents parsed cleanly.
func runLint(ctx context.Context, proc *ldcontext.Processor, files []string, concurrency int) error {
	if len(files) == 0 {
		return fmt.Errorf("lint: no files given")
	}

	results := make([]error, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			results[i] = lintFile(proc, path)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range results {
		if err != nil {
			failed++
			slog.Error("Context document failed", "file", files[i], "error", err)
		} else {
			slog.Info("Context document ok", "file", files[i])
		}
	}
	if failed > 0 {
		return fmt.Errorf("lint: %d of %d context documents failed", failed, len(files))
	}
	return nil
}

func lintFile(proc *ldcontext.Processor, path string) error {
	_, err := parseContextFile(proc, path)
	return err
}

// runExpand expands each value against the context document and prints one
// value-IRI pair per line.
func runExpand(proc *ldcontext.Processor, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("expand: usage: expand <file> <value>...")
	}
	ctx, err := parseContextFile(proc, args[0])
	if err != nil {
		return err
	}
	for _, value := range args[1:] {
		iri, err := ctx.ExpandIRI(value, ldcontext.ExpandVocab(), ldcontext.ExpandDocumentRelative())
		if err != nil {
			return fmt.Errorf("expand %q: %w", value, err)
		}
		fmt.Printf("%s\t%s\n", value, iri)
	}
	return nil
}

// runCompact compacts each IRI against the context document and prints one
// IRI-term pair per line.
func runCompact(proc *ldcontext.Processor, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("compact: usage: compact <file> <iri>...")
	}
	ctx, err := parseContextFile(proc, args[0])
	if err != nil {
		return err
	}
	for _, iri := range args[1:] {
		term, err := ctx.CompactIRI(iri, ldcontext.CompactVocab())
		if err != nil {
			return fmt.Errorf("compact %q: %w", iri, err)
		}
		fmt.Printf("%s\t%s\n", iri, term)
	}
	return nil
}

// runSerialize prints the normalized form of the context document.
func runSerialize(proc *ldcontext.Processor, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("serialize: usage: serialize <file>")
	}
	ctx, err := parseContextFile(proc, args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", args[0], err)
	}
	fmt.Println(string(out))
	return nil
}

// parseContextFile reads a JSON document, unwraps a top-level @context
// entry when present, and parses it against a fresh context. Relative
// references inside the document resolve against its file URL unless a
// base IRI was configured.
func parseContextFile(proc *ldcontext.Processor, path string) (*ldcontext.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if obj, ok := doc.(map[string]any); ok {
		if wrapped, ok := obj["@context"]; ok {
			doc = wrapped
		}
	}

	base := proc.Options().Base
	if base == "" {
		if abs, err := filepath.Abs(path); err == nil {
			base = "file://" + filepath.ToSlash(abs)
		}
	}
	return proc.NewContext().Parse(doc, ldcontext.WithBaseURL(base))
}
