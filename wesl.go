// Package wesl links WESL shader modules into a single WGSL module.
//
// Link loads a root module, follows its imports through the module tree,
// keeps the declarations reachable from the root's entry points and
// override constants, renames everything that came from another module to
// a collision-free mangled name, and writes one WGSL translation unit.
//
//	res, err := wesl.Link(ctx, "main",
//	    wesl.WithSource(wesl.MustDir("./shaders")),
//	    wesl.WithLogger(slog.Default()),
//	)
//
// Projects described by a wesl.toml file can be linked with WithConfig:
//
//	cfg, err := wesl.LoadConfig("wesl.toml")
//	res, err := wesl.Link(ctx, "main", wesl.WithConfig(cfg))
package wesl

import (
	"errors"
	"log/slog"

	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/reach"
)

// ErrNoSources is returned when Link is called without any source.
var ErrNoSources = errors.New("no WESL sources provided")

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-item iteration logging (tokens, bindings, worklist steps).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = slog.Level(-8)

// CycleMode selects how a declaration that depends on itself is handled.
type CycleMode = reach.CycleMode

const (
	// CycleError fails the link with a cyclic-value-dependency error.
	CycleError = reach.CycleError
	// CycleIgnore emits the cyclic declarations unchanged and leaves the
	// rejection to the WGSL compiler.
	CycleIgnore = reach.CycleIgnore
)

// Parser turns module text into a syntax model.
type Parser = module.Parser

// ParserFunc adapts a function to the Parser interface.
type ParserFunc = module.ParserFunc

// LinkOption configures Link.
type LinkOption func(*linkConfig)

type linkConfig struct {
	logger      *slog.Logger
	sources     []Source
	packages    []string
	configs     []*Config
	parser      Parser
	concurrency int
	maxDepth    int
	cycles      CycleMode
	keepRoot    bool
	sourceMap   bool
	searchPath  bool
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) LinkOption {
	return func(c *linkConfig) { c.logger = logger }
}

// WithSource adds a module source. Sources are consulted in the order they
// were added; the first one that has a module wins.
func WithSource(src Source) LinkOption {
	return func(c *linkConfig) { c.sources = append(c.sources, src) }
}

// WithPackages declares external package names. Sources built with
// AsPackage declare their package themselves; this option is for custom
// Source implementations.
func WithPackages(names ...string) LinkOption {
	return func(c *linkConfig) { c.packages = append(c.packages, names...) }
}

// WithConfig adds the sources and packages described by a wesl.toml file.
func WithConfig(cfg *Config) LinkOption {
	return func(c *linkConfig) { c.configs = append(c.configs, cfg) }
}

// WithParser replaces the built-in parser.
func WithParser(p Parser) LinkOption {
	return func(c *linkConfig) { c.parser = p }
}

// WithConcurrency bounds the number of modules loaded in parallel.
// Zero or negative means runtime.NumCPU().
func WithConcurrency(n int) LinkOption {
	return func(c *linkConfig) { c.concurrency = n }
}

// WithMaxDepth bounds module nesting and re-export chains. Zero means the
// default of 64.
func WithMaxDepth(n int) LinkOption {
	return func(c *linkConfig) { c.maxDepth = n }
}

// WithCycleCheck selects how cyclic declarations are handled.
// The default is CycleError.
func WithCycleCheck(mode CycleMode) LinkOption {
	return func(c *linkConfig) { c.cycles = mode }
}

// WithKeepRoot keeps every root module declaration, not only entry points
// and overrides. Useful when linking a library module for inspection.
func WithKeepRoot() LinkOption {
	return func(c *linkConfig) { c.keepRoot = true }
}

// WithSourceMap records where each emitted declaration came from.
func WithSourceMap() LinkOption {
	return func(c *linkConfig) { c.sourceMap = true }
}
