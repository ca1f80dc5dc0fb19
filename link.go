package wesl

import (
	"context"
	"log/slog"
	"slices"

	"github.com/wgsl-tooling-wg/wesl-go/internal/emit"
	"github.com/wgsl-tooling-wg/wesl-go/internal/mangle"
	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/parser"
	"github.com/wgsl-tooling-wg/wesl-go/internal/reach"
	"github.com/wgsl-tooling-wg/wesl-go/internal/resolver"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Result is the output of a successful link.
type Result struct {
	// Code is the linked WGSL source.
	Code string
	// SourceMap is set when WithSourceMap was given.
	SourceMap *SourceMap
	// Modules lists the keys of the modules that contributed code, in
	// emission order.
	Modules []string
}

// Link links the module at root, such as "main" or "package::util::main",
// and every module it depends on into one WGSL module. A root whose first
// segment names a registered package, such as "shapes::circle", is looked up
// in that package.
//
// Link either returns a complete result or an error; partial output is
// never produced. Errors are *Error values and can be matched with
// errors.Is against the Err* sentinels.
func Link(ctx context.Context, root string, opts ...LinkOption) (*Result, error) {
	var cfg linkConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	l := types.Logger{L: cfg.logger}

	src, packages, err := cfg.source()
	if err != nil {
		return nil, err
	}
	p := cfg.parser
	if p == nil {
		parserLog := types.Component(cfg.logger, "parser")
		p = module.ParserFunc(func(path syntax.ModulePath, file string, text []byte) (*syntax.Module, error) {
			return parser.Parse(path, file, text, parserLog)
		})
	}
	table := module.New(module.Config{
		Source:      src,
		Parser:      p,
		Packages:    packages,
		Concurrency: cfg.concurrency,
		MaxDepth:    cfg.maxDepth,
	}, types.Component(cfg.logger, "table"))

	rootPath := syntax.ParseModulePath(root, packages...)
	done := l.Phase("load")
	if err := table.Preload(ctx, rootPath); err != nil {
		return nil, err
	}
	rootMod, err := table.Load(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	if !rootMod.HasSource() {
		return nil, types.Errorf(types.CodeSourceNotFound, rootPath.Key(), "",
			"no source for root module %s", rootPath.Key())
	}
	done(slog.Int("modules", table.Len()))

	done = l.Phase("imports")
	r := resolver.New(table, types.Component(cfg.logger, "resolver"))
	linked, err := r.Link(ctx, rootMod)
	if err != nil {
		return nil, err
	}
	done(slog.Int("modules", len(linked)))

	done = l.Phase("reach")
	res, err := reach.Analyze(ctx, r, rootMod, reach.Config{
		KeepRoot: cfg.keepRoot,
		Cycles:   cfg.cycles,
	}, types.Component(cfg.logger, "reach"))
	if err != nil {
		return nil, err
	}
	if err := reach.CheckDirectives(rootMod, append(linked, res.Modules...)); err != nil {
		return nil, err
	}
	done(slog.Int("decls", len(res.Decls)))

	done = l.Phase("mangle")
	scope, err := r.Scope(ctx, rootMod)
	if err != nil {
		return nil, err
	}
	names, err := mangle.Assign(rootMod, scope, res.Decls, types.Component(cfg.logger, "mangle"))
	if err != nil {
		return nil, err
	}
	if err := emit.CheckShadowing(res, names); err != nil {
		return nil, err
	}
	done(slog.Int("names", names.Len()))

	done = l.Phase("emit")
	out := emit.Emit(res, names, types.Component(cfg.logger, "emit"))
	done(slog.Int("bytes", len(out.Code)))

	result := &Result{Code: out.Code}
	for _, m := range res.EmitOrder() {
		result.Modules = append(result.Modules, m.Key())
	}
	if cfg.sourceMap {
		result.SourceMap = &SourceMap{Root: rootPath.Key(), Mappings: out.Mappings}
	}

	l.Log(slog.LevelInfo, "link complete",
		slog.String("root", rootPath.Key()),
		slog.Int("modules", len(result.Modules)),
		slog.Int("decls", len(res.Decls)),
		slog.Int("bytes", len(result.Code)))
	return result, nil
}

// source combines the configured sources into one and collects the
// external package names they serve.
func (c *linkConfig) source() (Source, []string, error) {
	sources := slices.Clone(c.sources)
	packages := slices.Clone(c.packages)
	for _, pc := range c.configs {
		src, err := pc.Source()
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	if c.searchPath {
		sources = append(sources, discoverSearchPathSources(types.Logger{L: c.logger})...)
	}
	if len(sources) == 0 {
		return nil, nil, ErrNoSources
	}

	var src Source
	if len(sources) == 1 {
		src = sources[0]
	} else {
		src = Multi(sources...)
	}
	packages = append(packages, packagesOf(src)...)
	slices.Sort(packages)
	return src, slices.Compact(packages), nil
}
