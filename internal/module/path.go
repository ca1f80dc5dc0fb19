package module

import (
	"strings"

	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

func isMarker(seg string) bool {
	return seg == syntax.PackageRoot || seg == syntax.SelfSegment || seg == syntax.SuperSegment
}

// ResolveBase interprets the leading segments of a path written in module
// from. It returns the canonical module the path starts at and the segments
// that remain to be looked up from there.
//
//   - `package::a` starts at the root of from's package.
//   - `self::a` starts at from.
//   - `super::a` starts at from's parent, one level per repetition.
//   - `pkg::a` starts at the root of a configured external package.
//   - a bare `a` is looked up next to from, in from's parent.
func (t *Table) ResolveBase(from syntax.ModulePath, segs []string) (syntax.ModulePath, []string, error) {
	if len(segs) == 0 {
		return nil, nil, types.Errorf(types.CodeInvalidPath, from.Key(), "", "empty path")
	}

	var base syntax.ModulePath
	i := 0
	switch first := segs[0]; {
	case first == syntax.PackageRoot:
		base = syntax.NewModulePath(from.Package())
		if len(base) == 0 || base[0] == "" {
			base = syntax.NewModulePath(syntax.PackageRoot)
		}
		i = 1
	case first == syntax.SelfSegment:
		base = from
		i = 1
	case first == syntax.SuperSegment:
		base = from
		for i < len(segs) && segs[i] == syntax.SuperSegment {
			parent, ok := base.Parent()
			if !ok {
				return nil, nil, types.Errorf(types.CodeRelativeEscapesRoot, from.Key(), strings.Join(segs, "::"),
					"%s climbs above the package root", strings.Join(segs[:i+1], "::"))
			}
			base = parent
			i++
		}
	case t.packages[first]:
		base = syntax.NewModulePath(first)
		i = 1
	default:
		if parent, ok := from.Parent(); ok {
			base = parent
		} else {
			base = from
		}
	}

	rest := segs[i:]
	for _, seg := range rest {
		if isMarker(seg) {
			return nil, nil, types.Errorf(types.CodeInvalidPath, from.Key(), seg,
				"%q may only appear at the start of a path", seg)
		}
		if seg == "" {
			return nil, nil, types.Errorf(types.CodeInvalidPath, from.Key(), "", "empty path segment")
		}
	}
	return base, rest, nil
}
