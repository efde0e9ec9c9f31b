// Command bridle rewrites JSON Schema documents into the strict
// dialect used for model structured output.
//
// Rewrite schema files (JSON or YAML), optionally watching for
// changes:
//
//	bridle -schema 'schemas/**/*.yaml' -out build/ -mapping -watch
//
// Or extract a schema from an OpenAPI document first:
//
//	bridle -openapi api.json -component Article
//	bridle -openapi api.json -operation createArticle -status 200
//
// With -mapping, every output schema gets a <name>.mapping.json
// sidecar recording sanitized enum values so consumers can restore
// the originals.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/i2y/bridle/openapi"
	"github.com/i2y/bridle/schemafile"
	"github.com/i2y/bridle/strict"
)

type options struct {
	schema    string
	doc       string
	component string
	operation string
	status    string
	outDir    string
	sidecar   bool
	watch     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.schema, "schema", "", "schema file or doublestar glob (.json, .yaml, .yml)")
	flag.StringVar(&opts.doc, "openapi", "", "OpenAPI document to extract a schema from")
	flag.StringVar(&opts.component, "component", "", "component schema name (with -openapi)")
	flag.StringVar(&opts.operation, "operation", "", "operation ID whose response schema to extract (with -openapi)")
	flag.StringVar(&opts.status, "status", "200", "response status for -operation")
	flag.StringVar(&opts.outDir, "out", "", "output directory (stdout if empty)")
	flag.BoolVar(&opts.sidecar, "mapping", false, "write <name>.mapping.json sidecars (requires -out)")
	flag.BoolVar(&opts.watch, "watch", false, "rebuild when inputs change (requires -out)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("bridle failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	switch {
	case opts.schema == "" && opts.doc == "":
		return errors.New("nothing to do: pass -schema or -openapi (see -help)")
	case opts.schema != "" && opts.doc != "":
		return errors.New("-schema and -openapi are mutually exclusive")
	case opts.sidecar && opts.outDir == "":
		return errors.New("-mapping requires -out")
	case opts.watch && opts.outDir == "":
		return errors.New("-watch requires -out")
	}

	build := func(ctx context.Context) error {
		if opts.doc != "" {
			return buildFromOpenAPI(ctx, logger, opts)
		}
		return buildFromGlob(logger, opts)
	}

	if err := build(ctx); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}
	return watch(ctx, logger, opts, build)
}

func buildFromGlob(logger *slog.Logger, opts options) error {
	paths, err := expand(opts.schema)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := buildFile(logger, path, opts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// expand resolves a literal path or a doublestar glob pattern relative
// to the working directory.
func expand(pattern string) ([]string, error) {
	if _, err := os.Stat(pattern); err == nil {
		return []string{pattern}, nil
	}
	matches, err := doublestar.Glob(os.DirFS("."), filepath.ToSlash(pattern))
	if err != nil {
		return nil, fmt.Errorf("bad glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no schema files match %q", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

func buildFile(logger *slog.Logger, path string, opts options) error {
	raw, err := schemafile.Load(path)
	if err != nil {
		return err
	}

	m := strict.Mapping{}
	stricted, err := strict.StrictifyJSON(raw, m)
	if err != nil {
		return fmt.Errorf("strictifying: %w", err)
	}
	logger.Debug("schema rewritten",
		slog.String("path", path),
		slog.Int("mapped_values", len(m)))

	return emit(logger, opts, outName(path), stricted, m)
}

// outName converts an input path to its output-relative name, always
// with a .json extension.
func outName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}

func buildFromOpenAPI(ctx context.Context, logger *slog.Logger, opts options) error {
	doc, err := os.ReadFile(opts.doc)
	if err != nil {
		return fmt.Errorf("reading OpenAPI document: %w", err)
	}

	var raw json.RawMessage
	var name string
	switch {
	case opts.component != "" && opts.operation != "":
		return errors.New("-component and -operation are mutually exclusive")
	case opts.component != "":
		raw, err = openapi.ExtractComponent(ctx, doc, opts.component)
		name = opts.component
	case opts.operation != "":
		raw, err = openapi.ExtractResponse(ctx, doc, opts.operation, opts.status)
		name = opts.operation + "_" + opts.status
	default:
		return errors.New("-openapi requires -component or -operation")
	}
	if err != nil {
		return err
	}

	m := strict.Mapping{}
	stricted, err := strict.StrictifyJSON(raw, m)
	if err != nil {
		return fmt.Errorf("strictifying: %w", err)
	}
	logger.Debug("schema extracted",
		slog.String("name", name),
		slog.Int("mapped_values", len(m)))

	return emit(logger, opts, name+".json", stricted, m)
}

func emit(logger *slog.Logger, opts options, name string, schema []byte, m strict.Mapping) error {
	if opts.outDir == "" {
		fmt.Println(string(schema))
		return nil
	}

	target := filepath.Join(opts.outDir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(target, schema, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	logger.Info("wrote strict schema", slog.String("path", target))

	if !opts.sidecar {
		return nil
	}
	sidecarPath := strings.TrimSuffix(target, ".json") + ".mapping.json"
	encoded, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mapping: %w", err)
	}
	if err := os.WriteFile(sidecarPath, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	logger.Info("wrote mapping sidecar",
		slog.String("path", sidecarPath),
		slog.Int("entries", len(m)))
	return nil
}

// watch rebuilds whenever a watched input changes, until the context
// is canceled.
func watch(ctx context.Context, logger *slog.Logger, opts options, build func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dirs, err := watchDirs(opts)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	logger.Info("watching for changes", slog.Any("dirs", dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !relevant(opts, ev.Name) {
				continue
			}
			logger.Debug("input changed", slog.String("path", ev.Name))
			if err := build(ctx); err != nil {
				logger.Error("rebuild failed", slog.String("error", err.Error()))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Debug("watcher error", slog.String("error", err.Error()))
		}
	}
}

// watchDirs lists the directories holding the current inputs.
func watchDirs(opts options) ([]string, error) {
	if opts.doc != "" {
		return []string{filepath.Dir(opts.doc)}, nil
	}
	paths, err := expand(opts.schema)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var dirs []string
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// relevant reports whether a changed path affects the current inputs.
func relevant(opts options, name string) bool {
	if opts.doc != "" {
		return filepath.Clean(name) == filepath.Clean(opts.doc)
	}
	if _, err := os.Stat(opts.schema); err == nil {
		return filepath.Clean(name) == filepath.Clean(opts.schema)
	}
	ok, err := doublestar.Match(filepath.ToSlash(opts.schema), filepath.ToSlash(name))
	return err == nil && ok
}
