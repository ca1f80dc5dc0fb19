package module

import (
	"cmp"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// DefaultMaxDepth bounds module path length and re-export chains.
const DefaultMaxDepth = 64

// Config configures a Table.
type Config struct {
	Source Source
	Parser Parser
	// Packages lists external package names. A path whose first segment
	// names one of them is rooted at that package.
	Packages []string
	// Concurrency bounds parallel loads in Preload. Zero means NumCPU.
	Concurrency int
	// MaxDepth bounds module path length. Zero means DefaultMaxDepth.
	MaxDepth int
}

type entry struct {
	mod *Module
	err error
}

// Table is the memoized set of modules loaded during one link.
type Table struct {
	source      Source
	parser      Parser
	packages    map[string]bool
	concurrency int
	maxDepth    int

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	types.Logger
}

// New returns an empty Table.
func New(cfg Config, logger *slog.Logger) *Table {
	t := &Table{
		source:      cfg.Source,
		parser:      cfg.Parser,
		packages:    make(map[string]bool, len(cfg.Packages)),
		concurrency: cfg.Concurrency,
		maxDepth:    cfg.MaxDepth,
		entries:     make(map[string]entry),
		Logger:      types.Logger{L: logger},
	}
	for _, p := range cfg.Packages {
		t.packages[p] = true
	}
	if t.concurrency <= 0 {
		t.concurrency = runtime.NumCPU()
	}
	if t.maxDepth <= 0 {
		t.maxDepth = DefaultMaxDepth
	}
	return t
}

// MaxDepth returns the configured depth bound.
func (t *Table) MaxDepth() int {
	return t.maxDepth
}

// IsPackage reports whether name is the current package or a configured
// external package.
func (t *Table) IsPackage(name string) bool {
	return name == syntax.PackageRoot || t.packages[name]
}

// Load returns the module at path, fetching and parsing it on first use.
// A path without source yields an empty module with Missing set. Parse and
// read failures are memoized and returned on every call for that path.
func (t *Table) Load(ctx context.Context, path syntax.ModulePath) (*Module, error) {
	key := path.Key()
	if e, ok := t.lookup(key); ok {
		return e.mod, e.err
	}
	if path.Depth() > t.maxDepth {
		return nil, types.Errorf(types.CodeDepthLimitExceeded, key, "",
			"module path is deeper than the limit of %d", t.maxDepth)
	}

	v, err, shared := t.group.Do(key, func() (any, error) {
		if e, ok := t.lookup(key); ok {
			return e.mod, e.err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mod, err := t.fetch(path)
		t.mu.Lock()
		t.entries[key] = entry{mod: mod, err: err}
		t.mu.Unlock()
		return mod, err
	})
	if shared && t.TraceEnabled() {
		t.Trace("load coalesced", slog.String("module", key))
	}
	mod, _ := v.(*Module)
	return mod, err
}

// Lookup returns an already loaded module without loading it.
func (t *Table) Lookup(path syntax.ModulePath) (*Module, bool) {
	e, ok := t.lookup(path.Key())
	if !ok || e.err != nil {
		return nil, false
	}
	return e.mod, true
}

func (t *Table) lookup(key string) (entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

func (t *Table) fetch(path syntax.ModulePath) (*Module, error) {
	key := path.Key()
	rc, file, err := t.source.Find(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.Log(slog.LevelDebug, "module has no source",
				slog.String("module", key))
			return emptyModule(path, !path.IsPackageRoot()), nil
		}
		return nil, &types.Error{
			Kind:    types.KindSourceNotFound,
			Code:    types.CodeSourceUnreadable,
			Module:  key,
			File:    file,
			Message: "cannot open source",
			Err:     err,
		}
	}
	content, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, &types.Error{
			Kind:    types.KindSourceNotFound,
			Code:    types.CodeSourceUnreadable,
			Module:  key,
			File:    file,
			Message: "cannot read source",
			Err:     err,
		}
	}

	parsed, err := t.parser.Parse(path, file, content)
	if err != nil {
		var linkErr *types.Error
		if errors.As(err, &linkErr) {
			return nil, err
		}
		return nil, &types.Error{
			Kind:    types.KindParse,
			Code:    types.CodeParseError,
			Module:  key,
			File:    file,
			Message: "parse failed",
			Err:     err,
		}
	}
	parsed.Path = path
	if parsed.File == "" {
		parsed.File = file
	}

	t.Log(slog.LevelDebug, "module loaded",
		slog.String("module", key),
		slog.String("file", file),
		slog.Int("decls", len(parsed.Decls)))
	return &Module{Module: parsed, fromSource: true}, nil
}

// Modules returns every module that was parsed from source, sorted by
// path key.
func (t *Table) Modules() []*Module {
	t.mu.RLock()
	mods := make([]*Module, 0, len(t.entries))
	for _, e := range t.entries {
		if e.err == nil && e.mod.fromSource {
			mods = append(mods, e.mod)
		}
	}
	t.mu.RUnlock()
	slices.SortFunc(mods, func(a, b *Module) int {
		return cmp.Compare(a.Key(), b.Key())
	})
	return mods
}

// Len returns the number of memoized paths, including missing modules.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
