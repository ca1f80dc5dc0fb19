// Package resolver binds import statements and identifier references to
// the declarations and modules they name.
//
// Every path is resolved one segment at a time by LookupSegment, which
// tries, in order, a declaration of the current module, a name the module
// itself imports (so imports are re-exported), and finally the child module
// at current/segment. Preferring declarations lets `a::b` mean "item b of
// module a" without a separate module declaration keyword.
//
// Import bindings are resolved lazily per (module, name) and memoized, so
// resolving the same import twice always yields the same Binding. Chains of
// re-exports are followed with cycle detection and bounded by the table's
// maximum depth.
package resolver

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Resolver resolves paths and references over the modules of one Table.
// It is not safe for concurrent use.
type Resolver struct {
	table  *module.Table
	scopes map[string]*scope
	// stack holds the "module::alias" keys of bindings being resolved.
	stack []string
	types.Logger
}

type scope struct {
	imports  map[string][]syntax.FlatImport
	names    []string
	bindings map[string]bindingResult
}

type bindingResult struct {
	binding Binding
	err     error
}

// New returns a Resolver over table.
func New(table *module.Table, logger *slog.Logger) *Resolver {
	return &Resolver{
		table:  table,
		scopes: make(map[string]*scope),
		Logger: types.Logger{L: logger},
	}
}

func (r *Resolver) scopeOf(mod *module.Module) *scope {
	key := mod.Key()
	if s, ok := r.scopes[key]; ok {
		return s
	}
	s := &scope{
		imports:  make(map[string][]syntax.FlatImport),
		bindings: make(map[string]bindingResult),
	}
	for _, imp := range mod.FlatImports() {
		name := imp.LocalName()
		if _, seen := s.imports[name]; !seen {
			s.names = append(s.names, name)
		}
		s.imports[name] = append(s.imports[name], imp)
	}
	r.scopes[key] = s
	return s
}

// Binding returns what alias is bound to by mod's imports. The second
// result is false when mod imports nothing under that name.
func (r *Resolver) Binding(ctx context.Context, mod *module.Module, alias string) (Binding, bool, error) {
	s := r.scopeOf(mod)
	imps, ok := s.imports[alias]
	if !ok {
		return Binding{}, false, nil
	}
	if res, done := s.bindings[alias]; done {
		return res.binding, res.err == nil, res.err
	}

	key := mod.Key() + "::" + alias
	if i := slices.Index(r.stack, key); i >= 0 {
		chain := append(slices.Clone(r.stack[i:]), key)
		return Binding{}, false, &types.Error{
			Kind:    types.KindImportBinding,
			Code:    types.CodeImportResolution,
			Module:  mod.Key(),
			Ident:   alias,
			Chain:   chain,
			Message: "import cycle: " + strings.Join(chain, " -> "),
		}
	}
	if len(r.stack) >= r.table.MaxDepth() {
		return Binding{}, false, types.Errorf(types.CodeDepthLimitExceeded, mod.Key(), alias,
			"re-export chain for %q is longer than %d", alias, r.table.MaxDepth())
	}

	r.stack = append(r.stack, key)
	b, err := r.resolveAlias(ctx, mod, alias, imps)
	r.stack = r.stack[:len(r.stack)-1]

	s.bindings[alias] = bindingResult{binding: b, err: err}
	if err != nil {
		return Binding{}, false, err
	}
	if r.TraceEnabled() {
		r.Trace("import bound",
			slog.String("module", mod.Key()),
			slog.String("alias", alias),
			slog.String("kind", b.Kind.String()),
			slog.String("target", b.String()))
	}
	return b, true, nil
}

// Scope resolves every import of mod and returns the bindings in the order
// their names first appear.
func (r *Resolver) Scope(ctx context.Context, mod *module.Module) ([]Alias, error) {
	s := r.scopeOf(mod)
	aliases := make([]Alias, 0, len(s.names))
	for _, name := range s.names {
		b, _, err := r.Binding(ctx, mod, name)
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, Alias{Name: name, Binding: b})
	}
	return aliases, nil
}

func (r *Resolver) resolveAlias(ctx context.Context, mod *module.Module, alias string, imps []syntax.FlatImport) (Binding, error) {
	var first Binding
	for i, imp := range imps {
		b, err := r.resolveImport(ctx, mod, imp)
		if err != nil {
			return Binding{}, err
		}
		if i == 0 {
			first = b
			continue
		}
		if !b.Equal(first) {
			return Binding{}, locate(&types.Error{
				Kind:    types.KindImportBinding,
				Code:    types.CodeAmbiguousImport,
				Module:  mod.Key(),
				Ident:   alias,
				Chain:   []string{first.String(), b.String()},
				Message: "\"" + alias + "\" is imported from both " + first.String() + " and " + b.String(),
			}, mod, imp.Span)
		}
	}
	return first, nil
}

func (r *Resolver) resolveImport(ctx context.Context, mod *module.Module, imp syntax.FlatImport) (Binding, error) {
	path := strings.Join(imp.Segments, "::")
	seg, err := r.ResolvePath(ctx, mod, imp.Segments)
	if err != nil {
		return Binding{}, locate(err, mod, imp.Span)
	}
	switch seg.Kind {
	case SegDecl:
		decl := seg.Decl.Decl
		if imp.Wildcard {
			return Binding{}, locate(types.Errorf(types.CodeImportResolution, mod.Key(), path,
				"%s is a %s declaration, not a module", path, decl.Kind), mod, imp.Span)
		}
		if !decl.IsImportable() {
			return Binding{}, locate(notImportable(mod, seg.Decl, path), mod, imp.Span)
		}
		return Item(seg.Decl.Module.Path, decl.Name), nil
	case SegModule:
		return Namespace(seg.Module.Path), nil
	}
	return Binding{}, locate(types.Errorf(types.CodeImportResolution, mod.Key(), path,
		"%s does not name a declaration or module", path), mod, imp.Span)
}

// LookupSegment resolves one path segment relative to mod.
func (r *Resolver) LookupSegment(ctx context.Context, mod *module.Module, seg string) (Segment, error) {
	if d := mod.Lookup(seg); d != nil {
		return Segment{Kind: SegDecl, Decl: Target{Module: mod, Decl: d}}, nil
	}
	b, ok, err := r.Binding(ctx, mod, seg)
	if err != nil {
		return Segment{}, err
	}
	if ok {
		return r.follow(ctx, b)
	}
	child, err := r.table.Load(ctx, mod.Path.Child(seg))
	if err != nil {
		return Segment{}, err
	}
	if child.Missing {
		return Segment{Kind: SegNotFound, Module: child}, nil
	}
	return Segment{Kind: SegModule, Module: child}, nil
}

func (r *Resolver) follow(ctx context.Context, b Binding) (Segment, error) {
	mod, err := r.table.Load(ctx, b.Module)
	if err != nil {
		return Segment{}, err
	}
	if b.Kind == BindNamespace {
		return Segment{Kind: SegModule, Module: mod}, nil
	}
	d := mod.Lookup(b.Name)
	if d == nil {
		return Segment{}, types.Errorf(types.CodeImportResolution, b.Module.Key(), b.Name,
			"bound declaration %s no longer exists", b)
	}
	return Segment{Kind: SegDecl, Decl: Target{Module: mod, Decl: d}}, nil
}

// ResolvePath resolves a path written in module from to a declaration or a
// module. A bare first segment that from imports starts at the imported
// module; otherwise relative markers are interpreted by the table. Each
// remaining segment goes through LookupSegment.
func (r *Resolver) ResolvePath(ctx context.Context, from *module.Module, segs []string) (Segment, error) {
	path := strings.Join(segs, "::")
	cur, rest, ok, err := r.importedBase(ctx, from, segs)
	if err != nil {
		return Segment{}, err
	}
	firstMissing := ""
	if !ok {
		basePath, baseRest, err := r.table.ResolveBase(from.Path, segs)
		if err != nil {
			return Segment{}, err
		}
		base, err := r.table.Load(ctx, basePath)
		if err != nil {
			return Segment{}, err
		}
		cur, rest = Segment{Kind: SegModule, Module: base}, baseRest
		if base.Missing {
			cur.Kind = SegNotFound
			firstMissing = basePath[len(basePath)-1]
		}
	}

	for i, seg := range rest {
		if cur.Kind == SegDecl {
			prev := cur.Decl.Decl
			return Segment{}, types.Errorf(types.CodeNotAModule, from.Key(), prev.Name,
				"in %s: %s is a %s declaration in %s, not a module", path, prev.Name, prev.Kind, cur.Decl.Module.Key())
		}
		next, err := r.LookupSegment(ctx, cur.Module, seg)
		if err != nil {
			return Segment{}, err
		}
		if next.Kind == SegNotFound {
			if i == len(rest)-1 && cur.Kind == SegModule {
				return Segment{}, types.Errorf(types.CodeItemNotFound, from.Key(), seg,
					"module %s has no declaration or module named %q", cur.Module.Key(), seg)
			}
			if firstMissing == "" {
				firstMissing = seg
			}
		}
		cur = next
	}
	if cur.Kind == SegNotFound {
		return Segment{}, types.Errorf(types.CodePathSegmentNotFound, from.Key(), firstMissing,
			"in %s: no declaration or module named %q", path, firstMissing)
	}
	return cur, nil
}

// importedBase starts a path at an import binding of from when the first
// segment is a plain name that from imports. A binding that is still being
// resolved is ignored, so `import util::util;` looks for a sibling module.
func (r *Resolver) importedBase(ctx context.Context, from *module.Module, segs []string) (Segment, []string, bool, error) {
	if len(segs) < 2 || isMarker(segs[0]) || r.table.IsPackage(segs[0]) {
		return Segment{}, nil, false, nil
	}
	if slices.Contains(r.stack, from.Key()+"::"+segs[0]) {
		return Segment{}, nil, false, nil
	}
	b, ok, err := r.Binding(ctx, from, segs[0])
	if err != nil || !ok {
		return Segment{}, nil, false, err
	}
	seg, err := r.follow(ctx, b)
	if err != nil {
		return Segment{}, nil, false, err
	}
	return seg, segs[1:], true, nil
}

func isMarker(seg string) bool {
	return seg == syntax.SelfSegment || seg == syntax.SuperSegment || seg == syntax.PackageRoot
}

// ResolveRef resolves an identifier reference found in mod. References to
// names that exist nowhere in the module graph are reported with Found
// false; they are built-ins and are left untouched.
func (r *Resolver) ResolveRef(ctx context.Context, mod *module.Module, ref syntax.Ref) (Resolved, error) {
	if ref.Qualified {
		path := strings.Join(ref.Segments, "::")
		seg, err := r.ResolvePath(ctx, mod, ref.Segments)
		if err != nil {
			return Resolved{}, locate(err, mod, ref.SpanOf(len(ref.Segments)))
		}
		if seg.Kind != SegDecl {
			return Resolved{}, locate(types.Errorf(types.CodeNamespaceNotValue, mod.Key(), path,
				"%s names a module, not a declaration", path), mod, ref.SpanOf(len(ref.Segments)))
		}
		if seg.Decl.Module != mod && !seg.Decl.Decl.IsImportable() {
			return Resolved{}, locate(notImportable(mod, seg.Decl, path), mod, ref.SpanOf(len(ref.Segments)))
		}
		return Resolved{Target: seg.Decl, Consumed: len(ref.Segments), Found: true}, nil
	}

	name := ref.Name()
	if d := mod.Lookup(name); d != nil {
		return Resolved{Target: Target{Module: mod, Decl: d}, Consumed: 1, Found: true}, nil
	}
	b, ok, err := r.Binding(ctx, mod, name)
	if err != nil {
		return Resolved{}, err
	}
	if !ok {
		return Resolved{}, nil
	}
	seg, err := r.follow(ctx, b)
	if err != nil {
		return Resolved{}, err
	}
	if seg.Kind == SegDecl {
		return Resolved{Target: seg.Decl, Consumed: 1, Found: true}, nil
	}

	// Namespace member access: look the member up in the bound module now.
	cur := seg.Module
	for i := 1; i < len(ref.Segments); i++ {
		member := ref.Segments[i]
		next, err := r.LookupSegment(ctx, cur, member)
		if err != nil {
			return Resolved{}, locate(err, mod, ref.Spans[i])
		}
		switch next.Kind {
		case SegDecl:
			if !next.Decl.Decl.IsImportable() {
				return Resolved{}, locate(notImportable(mod, next.Decl, strings.Join(ref.Segments[:i+1], ".")), mod, ref.Spans[i])
			}
			return Resolved{Target: next.Decl, Consumed: i + 1, Found: true}, nil
		case SegModule:
			cur = next.Module
		default:
			return Resolved{}, locate(types.Errorf(types.CodeItemNotFound, mod.Key(), member,
				"module %s has no declaration named %q", cur.Key(), member), mod, ref.Spans[i])
		}
	}
	return Resolved{}, locate(types.Errorf(types.CodeNamespaceNotValue, mod.Key(), name,
		"%q is the module %s and cannot be used as a value", name, cur.Key()), mod, ref.SpanOf(len(ref.Segments)))
}

func notImportable(mod *module.Module, target Target, path string) *types.Error {
	what := "const_assert"
	if target.Decl.IsEntryPoint() {
		what = "@" + target.Decl.Stage() + " entry point"
	}
	return types.Errorf(types.CodeNotImportable, mod.Key(), path,
		"%s is a %s and cannot be imported", path, what)
}

// locate returns err with the position of span in mod attached, when err
// was raised for mod and has no position yet. The original is not modified
// because errors may be memoized and shared.
func locate(err error, mod *module.Module, span syntax.Span) error {
	linkErr, ok := err.(*types.Error)
	if !ok || linkErr.Line > 0 || linkErr.Module != mod.Key() {
		return err
	}
	located := *linkErr
	return located.At(mod.Module, span)
}
