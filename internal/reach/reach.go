// Package reach computes which declarations survive linking.
//
// Analysis starts from the root module's entry points and override
// constants and follows every resolved identifier reference with a FIFO
// worklist. Each declaration moves from pending to expanded exactly once,
// so the walk terminates on any input, cyclic or not.
//
// const_asserts cannot be referenced by name. After the worklist drains,
// every const_assert of a module that contributed at least one reachable
// declaration is added and its references expanded; this repeats until no
// module gains a new declaration.
//
// The references resolved during the walk are kept in the Result so that
// the emitter can rewrite them without resolving anything again.
package reach

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/graph"
	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/resolver"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// CycleMode selects how a cyclic dependency between reachable
// declarations is handled.
type CycleMode uint8

const (
	// CycleError fails the analysis with a cyclic-value-dependency error.
	CycleError CycleMode = iota
	// CycleIgnore keeps the cyclic declarations and leaves rejection to
	// the downstream WGSL compiler.
	CycleIgnore
)

func (m CycleMode) String() string {
	if m == CycleIgnore {
		return "ignore"
	}
	return "error"
}

// Config configures an analysis.
type Config struct {
	// KeepRoot seeds every root declaration, not only entry points and
	// overrides.
	KeepRoot bool
	Cycles   CycleMode
}

// Use is one reference inside a reachable declaration together with what
// it resolved to.
type Use struct {
	Ref    syntax.Ref
	Target resolver.Target
	// Consumed is the number of leading segments that name Target.
	Consumed int
}

// Span returns the source span the emitter replaces for this use.
func (u Use) Span() syntax.Span {
	return u.Ref.SpanOf(u.Consumed)
}

// Result is the frozen outcome of one analysis.
type Result struct {
	Root *module.Module
	// Decls lists reachable declarations, const_asserts included, in the
	// order they were first reached.
	Decls []resolver.Target
	// Modules lists modules with at least one reachable declaration, in
	// the order they first contributed one.
	Modules []*module.Module
	// Refs graphs reachable declarations by reference.
	Refs *graph.Graph
	// Deps graphs modules by use. Nodes carry only the module key.
	Deps *graph.Graph

	reachable map[*syntax.Decl]bool
	uses      map[*syntax.Decl][]Use
	modules   map[string]*module.Module
}

// Reachable reports whether d survives.
func (r *Result) Reachable(d *syntax.Decl) bool {
	return r.reachable[d]
}

// Uses returns the resolved references of a reachable declaration in
// source order. Built-in identifiers are not included.
func (r *Result) Uses(d *syntax.Decl) []Use {
	return r.uses[d]
}

// Module returns the contributing module with the given key.
func (r *Result) Module(key string) (*module.Module, bool) {
	m, ok := r.modules[key]
	return m, ok
}

// EmitOrder returns the contributing modules with every module placed
// before the modules that use it and the root last. Modules that use each
// other keep first-use order.
func (r *Result) EmitOrder() []*module.Module {
	var out []*module.Module
	for _, sym := range r.Deps.PostOrder(moduleNode(r.Root)) {
		if m, ok := r.modules[sym.Module]; ok {
			out = append(out, m)
		}
	}
	return out
}

func moduleNode(m *module.Module) graph.Symbol {
	return graph.Symbol{Module: m.Key()}
}

func declNode(t resolver.Target) graph.Symbol {
	return graph.Symbol{Module: t.Module.Key(), Name: t.Decl.Name}
}

type analyzer struct {
	res     *resolver.Resolver
	cfg     Config
	result  *Result
	pending []resolver.Target
	types.Logger
}

// Analyze computes the reachable declarations of a link rooted at root.
func Analyze(ctx context.Context, res *resolver.Resolver, root *module.Module, cfg Config, logger *slog.Logger) (*Result, error) {
	a := &analyzer{
		res: res,
		cfg: cfg,
		result: &Result{
			Root:      root,
			Refs:      graph.New(len(root.Decls)),
			Deps:      graph.New(8),
			reachable: make(map[*syntax.Decl]bool),
			uses:      make(map[*syntax.Decl][]Use),
			modules:   make(map[string]*module.Module),
		},
		Logger: types.Logger{L: logger},
	}
	a.result.Deps.AddNode(moduleNode(root))

	a.seed()
	if err := a.drain(ctx); err != nil {
		return nil, err
	}
	rounds, err := a.constAsserts(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.checkCycles(); err != nil {
		return nil, err
	}

	a.Log(slog.LevelDebug, "reachability complete",
		slog.Int("decls", len(a.result.Decls)),
		slog.Int("modules", len(a.result.Modules)),
		slog.Int("const_assert_rounds", rounds))
	return a.result, nil
}

func (a *analyzer) seed() {
	root := a.result.Root
	for _, d := range root.Decls {
		switch {
		case d.Kind == syntax.DeclConstAssert:
			// added by the const_assert pass
		case a.cfg.KeepRoot, d.IsEntryPoint(), d.Kind == syntax.DeclOverride:
			a.add(resolver.Target{Module: root, Decl: d})
		}
	}
	a.Log(slog.LevelDebug, "worklist seeded",
		slog.String("root", root.Key()),
		slog.Int("seeds", len(a.pending)))
}

// add marks t reachable and queues it for expansion. It reports whether t
// was new.
func (a *analyzer) add(t resolver.Target) bool {
	r := a.result
	if r.reachable[t.Decl] {
		return false
	}
	r.reachable[t.Decl] = true
	r.Decls = append(r.Decls, t)
	if t.Decl.Name != "" {
		r.Refs.AddNode(declNode(t))
	}
	if _, ok := r.modules[t.Module.Key()]; !ok {
		r.modules[t.Module.Key()] = t.Module
		r.Modules = append(r.Modules, t.Module)
	}
	a.pending = append(a.pending, t)
	return true
}

func (a *analyzer) drain(ctx context.Context) error {
	for len(a.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := a.pending[0]
		a.pending = a.pending[1:]
		if err := a.expand(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) expand(ctx context.Context, t resolver.Target) error {
	r := a.result
	var uses []Use
	for _, ref := range t.Decl.Refs {
		resolved, err := a.res.ResolveRef(ctx, t.Module, ref)
		if err != nil {
			return err
		}
		if !resolved.Found {
			continue
		}
		target := resolved.Target
		uses = append(uses, Use{Ref: ref, Target: target, Consumed: resolved.Consumed})

		if t.Decl.Name != "" {
			r.Refs.AddEdge(declNode(t), declNode(target))
		}
		if target.Module != t.Module {
			r.Deps.AddEdge(moduleNode(t.Module), moduleNode(target.Module))
		}
		if a.add(target) && a.TraceEnabled() {
			a.Trace("reached",
				slog.String("decl", target.Key()),
				slog.String("from", t.Key()))
		}
	}
	r.uses[t.Decl] = uses
	return nil
}

// constAsserts pulls in the const_asserts of contributing modules until a
// round adds nothing new.
func (a *analyzer) constAsserts(ctx context.Context) (int, error) {
	rounds := 0
	done := make(map[string]bool)
	for {
		added := 0
		// Modules may grow while expanding; index to see new entries.
		for i := 0; i < len(a.result.Modules); i++ {
			mod := a.result.Modules[i]
			if done[mod.Key()] {
				continue
			}
			done[mod.Key()] = true
			for _, d := range mod.ConstAsserts() {
				if a.add(resolver.Target{Module: mod, Decl: d}) {
					added++
				}
			}
			if err := a.drain(ctx); err != nil {
				return rounds, err
			}
		}
		if added == 0 {
			return rounds, nil
		}
		rounds++
	}
}

func (a *analyzer) checkCycles() error {
	cycles := a.result.Refs.FindCycles()
	if len(cycles) == 0 {
		return nil
	}
	if a.cfg.Cycles == CycleIgnore {
		a.Log(slog.LevelWarn, "cyclic declarations left for the WGSL compiler",
			slog.Int("cycles", len(cycles)))
		return nil
	}

	cycle := cycles[0]
	chain := make([]string, 0, len(cycle)+1)
	for _, sym := range cycle {
		chain = append(chain, sym.String())
	}
	chain = append(chain, cycle[0].String())

	first := cycle[0]
	err := &types.Error{
		Kind:    types.KindReachability,
		Code:    types.CodeCyclicValueDependency,
		Module:  first.Module,
		Ident:   first.Name,
		Chain:   chain,
		Message: "declaration depends on itself: " + strings.Join(chain, " -> "),
	}
	if mod, ok := a.result.modules[first.Module]; ok {
		if d := mod.Lookup(first.Name); d != nil {
			err.At(mod.Module, d.NameSpan)
		}
	}
	return err
}
