// Package mangle assigns output names to reachable declarations.
//
// A mangled name is built from a declaration's fully qualified path:
// every underscore inside a segment is doubled and the segments are
// joined with single underscores. The first segment is always the package
// name: `package` for the project being linked, or the name of an external
// package. So `package::util::f` becomes `package_util_f`, and draw_now in
// sphere.wesl under geom/ of external package my becomes
// `my_geom_sphere_draw__now`. Unmangle reverses the scheme.
//
// Root module declarations keep their names, as do declarations the root
// imports by name; those keep the local alias.
package mangle

import (
	"log/slog"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/resolver"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
)

// Mangle returns the mangled form of a fully qualified path.
func Mangle(segments []string) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strings.ReplaceAll(seg, "_", "__"))
	}
	return b.String()
}

// Unmangle splits a mangled name back into path segments. Scanning left to
// right, "__" is a literal underscore and a single "_" ends a segment.
func Unmangle(name string) []string {
	var (
		segs []string
		cur  strings.Builder
	)
	for i := 0; i < len(name); i++ {
		if name[i] != '_' {
			cur.WriteByte(name[i])
			continue
		}
		if i+1 < len(name) && name[i+1] == '_' {
			cur.WriteByte('_')
			i++
			continue
		}
		segs = append(segs, cur.String())
		cur.Reset()
	}
	return append(segs, cur.String())
}

// Names maps reachable declarations to their output names.
type Names struct {
	byKey map[string]string
}

// Name returns the output name of t. Unassigned targets keep their
// declared name.
func (n *Names) Name(t resolver.Target) string {
	if name, ok := n.byKey[t.Key()]; ok {
		return name
	}
	return t.Decl.Name
}

// Len returns the number of named declarations.
func (n *Names) Len() int {
	return len(n.byKey)
}

// Assign computes output names for decls. Root declarations keep their
// names; a declaration bound by an item import in rootScope takes the
// first alias it is bound under; every other declaration is mangled from
// its module path and name. Two declarations ending up with the same
// output name is a name-collision error.
func Assign(root *module.Module, rootScope []resolver.Alias, decls []resolver.Target, logger *slog.Logger) (*Names, error) {
	log := types.Logger{L: logger}
	aliases := make(map[string]string)
	for _, a := range rootScope {
		b := a.Binding
		if b.Kind != resolver.BindItem || b.Module.Equal(root.Path) {
			continue
		}
		if _, ok := aliases[b.String()]; !ok {
			aliases[b.String()] = a.Name
		}
	}

	n := &Names{byKey: make(map[string]string, len(decls))}
	owner := make(map[string]string, len(decls))
	mangled := 0
	for _, t := range decls {
		if t.Decl.Name == "" {
			continue
		}
		key := t.Key()
		var name string
		switch alias, imported := aliases[key]; {
		case t.Module == root:
			name = t.Decl.Name
		case imported:
			name = alias
		default:
			segs := make([]string, 0, len(t.Module.Path)+1)
			segs = append(segs, t.Module.Path...)
			name = Mangle(append(segs, t.Decl.Name))
			mangled++
		}
		if prev, taken := owner[name]; taken {
			return nil, &types.Error{
				Kind:    types.KindMangleCollision,
				Code:    types.CodeNameCollision,
				Module:  t.Module.Key(),
				Ident:   name,
				Chain:   []string{prev, key},
				Message: "output name " + name + " is used by both " + prev + " and " + key,
			}
		}
		owner[name] = key
		n.byKey[key] = name
		if log.TraceEnabled() && name != t.Decl.Name {
			log.Trace("renamed", slog.String("decl", key), slog.String("name", name))
		}
	}
	log.Log(slog.LevelDebug, "names assigned",
		slog.Int("decls", len(n.byKey)),
		slog.Int("mangled", mangled))
	return n, nil
}
