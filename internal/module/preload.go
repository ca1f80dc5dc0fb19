package module

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Preload loads root and then, level by level, every module path that an
// import statement or inline qualified reference could name. Each level is
// loaded in parallel, bounded by the configured concurrency.
//
// Speculative loads may fail or find nothing; those outcomes are memoized
// and only matter if resolution later uses the path. Preload returns an
// error only when root itself cannot be loaded or ctx is done.
func (t *Table) Preload(ctx context.Context, root syntax.ModulePath) error {
	if _, err := t.Load(ctx, root); err != nil {
		return err
	}

	seen := map[string]bool{root.Key(): true}
	frontier := []syntax.ModulePath{root}
	levels := 0
	for len(frontier) > 0 {
		levels++
		var next []syntax.ModulePath
		for _, mod := range t.loadBatch(ctx, frontier) {
			for _, cand := range t.candidates(mod) {
				if key := cand.Key(); !seen[key] {
					seen[key] = true
					next = append(next, cand)
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		frontier = next
	}

	t.Log(slog.LevelInfo, "preload complete",
		slog.String("root", root.Key()),
		slog.Int("paths", len(seen)),
		slog.Int("levels", levels))
	return nil
}

// loadBatch loads paths in parallel and returns the modules that loaded
// with source.
func (t *Table) loadBatch(ctx context.Context, paths []syntax.ModulePath) []*Module {
	results := make(chan *Module, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, t.concurrency)

	for _, path := range paths {
		wg.Add(1)
		go func(path syntax.ModulePath) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			mod, err := t.Load(ctx, path)
			if err != nil {
				if t.TraceEnabled() {
					t.Trace("speculative load failed",
						slog.String("module", path.Key()),
						slog.String("error", err.Error()))
				}
				return
			}
			if !mod.Missing {
				results <- mod
			}
		}(path)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var mods []*Module
	for mod := range results {
		mods = append(mods, mod)
	}
	return mods
}

// candidates returns every module path that mod's imports and qualified
// references could name: the base of each path and each prefix below it.
func (t *Table) candidates(mod *Module) []syntax.ModulePath {
	var out []syntax.ModulePath
	add := func(segs []string) {
		base, rest, err := t.ResolveBase(mod.Path, segs)
		if err != nil {
			return
		}
		out = append(out, base)
		cur := base
		for _, seg := range rest {
			if cur.Depth() >= t.maxDepth {
				return
			}
			cur = cur.Child(seg)
			out = append(out, cur)
		}
	}
	for _, imp := range mod.FlatImports() {
		add(imp.Segments)
	}
	for _, d := range mod.Decls {
		for _, ref := range d.Refs {
			if ref.Qualified {
				add(ref.Segments)
			}
		}
	}
	return out
}
