package reach

import (
	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
	"github.com/wgsl-tooling-wg/wesl-go/internal/types"
	"github.com/wgsl-tooling-wg/wesl-go/syntax"
)

// CheckDirectives verifies that the root enables every extension, language
// requirement and diagnostic filter that any other module in mods declares.
// Directives do not take part in reachability: a module counts as soon as
// it is linked, whether or not any of its declarations survive.
func CheckDirectives(root *module.Module, mods []*module.Module) error {
	have := make(map[string]bool)
	for _, d := range root.Directives {
		for _, k := range d.Keys() {
			have[k] = true
		}
	}
	seen := map[string]bool{root.Key(): true}
	for _, mod := range mods {
		if seen[mod.Key()] {
			continue
		}
		seen[mod.Key()] = true
		for _, d := range mod.Directives {
			for _, k := range d.Keys() {
				if have[k] {
					continue
				}
				err := types.Errorf(types.CodeDirectiveConflict, mod.Key(), k,
					"%q is not declared by the root module %s", k, root.Key())
				return err.At(mod.Module, d.Span)
			}
		}
	}
	return nil
}

// RootDirectives returns the root's directives with repeated requirements
// removed. A directive whose every key was already emitted is dropped;
// the rest are kept verbatim in source order.
func RootDirectives(root *module.Module) []syntax.Directive {
	seen := make(map[string]bool)
	var out []syntax.Directive
	for _, d := range root.Directives {
		fresh := false
		for _, k := range d.Keys() {
			if !seen[k] {
				seen[k] = true
				fresh = true
			}
		}
		if fresh {
			out = append(out, d)
		}
	}
	return out
}
