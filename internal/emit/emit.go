// Package emit writes the linked WGSL translation unit.
//
// Modules are written in dependency order with the root last. Within a
// module, reachable declarations keep their source order and source text;
// only declared names and resolved references are replaced with their
// output names. Imports and directives are dropped from every module and
// the root's directives, deduplicated, head the output.
package emit

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/mangle"
	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/reach"
	"github.com/wgsl-tooling-wg/wesl-go/internal/resolver"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// Mapping ties one emitted declaration to its origin.
type Mapping struct {
	Name        string `yaml:"name,omitempty"`
	Output      Range  `yaml:"output"`
	Module      string `yaml:"module"`
	File        string `yaml:"file,omitempty"`
	Source      Range  `yaml:"source"`
	Declaration string `yaml:"declaration,omitempty"`
}

// Range is a byte range with the 1-based line it starts on.
type Range struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
	Line  int `yaml:"line"`
}

// Output is the emitted text and one mapping per emitted declaration.
type Output struct {
	Code     string
	Mappings []Mapping
}

type edit struct {
	span syntax.Span
	text string
}

// Emit writes the reachable declarations of res using names for every
// declaration and reference.
func Emit(res *reach.Result, names *mangle.Names, logger *slog.Logger) *Output {
	log := types.Logger{L: logger}
	var (
		b     strings.Builder
		out   = &Output{}
		lines = 1
	)
	write := func(s string) {
		b.WriteString(s)
		lines += strings.Count(s, "\n")
	}

	directives := reach.RootDirectives(res.Root)
	for _, d := range directives {
		write(d.Span.Text(res.Root.Source))
		write("\n")
	}

	decls := 0
	for _, mod := range res.EmitOrder() {
		for _, d := range mod.Decls {
			if !res.Reachable(d) {
				continue
			}
			if b.Len() > 0 {
				write("\n")
			}
			text := rewrite(mod, d, res.Uses(d), names)

			start, line := b.Len(), lines
			write(text)
			srcLine, _ := mod.Lines.Position(d.Span.Start)
			m := Mapping{
				Output: Range{Start: start, End: b.Len(), Line: line},
				Module: mod.Key(),
				File:   mod.File,
				Source: Range{Start: int(d.Span.Start), End: int(d.Span.End), Line: srcLine},
			}
			if d.Name != "" {
				m.Name = names.Name(targetFor(mod, d))
				m.Declaration = d.Name
			}
			out.Mappings = append(out.Mappings, m)
			write("\n")
			decls++
		}
	}
	out.Code = b.String()

	log.Log(slog.LevelDebug, "emitted",
		slog.Int("directives", len(directives)),
		slog.Int("decls", decls),
		slog.Int("bytes", len(out.Code)))
	return out
}

// CheckShadowing fails with a name-collision error when a reference would
// be rewritten to an output name that a parameter or local of the same
// declaration also uses. The rewritten reference would bind to the local.
func CheckShadowing(res *reach.Result, names *mangle.Names) error {
	for _, t := range res.Decls {
		d := t.Decl
		if len(d.Locals) == 0 {
			continue
		}
		for _, u := range res.Uses(d) {
			name := names.Name(u.Target)
			span := u.Span()
			if span.Text(t.Module.Source) == name || !slices.Contains(d.Locals, name) {
				continue
			}
			owner := t.Module.Key()
			if d.Name != "" {
				owner = t.Key()
			}
			err := &types.Error{
				Kind:    types.KindMangleCollision,
				Code:    types.CodeNameCollision,
				Module:  t.Module.Key(),
				Ident:   name,
				Chain:   []string{u.Target.Key(), owner},
				Message: "output name " + name + " of " + u.Target.Key() + " is shadowed by a local in " + owner,
			}
			return err.At(t.Module.Module, span)
		}
	}
	return nil
}

func targetFor(mod *module.Module, d *syntax.Decl) resolver.Target {
	return resolver.Target{Module: mod, Decl: d}
}

// rewrite returns the source text of d with its name and every resolved
// reference replaced by output names.
func rewrite(mod *module.Module, d *syntax.Decl, uses []reach.Use, names *mangle.Names) string {
	var edits []edit
	if d.Name != "" {
		if name := names.Name(targetFor(mod, d)); name != d.Name {
			edits = append(edits, edit{span: d.NameSpan, text: name})
		}
	}
	for _, u := range uses {
		span := u.Span()
		name := names.Name(u.Target)
		if span.Text(mod.Source) == name {
			continue
		}
		edits = append(edits, edit{span: span, text: name})
	}
	slices.SortFunc(edits, func(a, b edit) int {
		return cmp.Compare(a.span.Start, b.span.Start)
	})

	var b strings.Builder
	b.Grow(int(d.Span.Len()))
	pos := d.Span.Start
	for _, e := range edits {
		if e.span.Start < pos || e.span.End > d.Span.End {
			continue
		}
		b.WriteString(mod.Source[pos:e.span.Start])
		b.WriteString(e.text)
		pos = e.span.End
	}
	b.WriteString(mod.Source[pos:d.Span.End])
	return b.String()
}
