package resolver

import (
	"context"
	"log/slog"

	"github.com/wgsl-tooling-wg/wesl-go/internal/module"
)

// Link resolves every import of root and, transitively, the imports of each
// module that one of those bindings points into. It returns the visited
// modules in breadth-first order, root first.
//
// Any import that cannot be bound fails the walk, even when nothing uses
// the imported name.
func (r *Resolver) Link(ctx context.Context, root *module.Module) ([]*module.Module, error) {
	seen := map[string]bool{root.Key(): true}
	order := []*module.Module{root}
	for i := 0; i < len(order); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mod := order[i]
		aliases, err := r.Scope(ctx, mod)
		if err != nil {
			return nil, err
		}
		for _, a := range aliases {
			key := a.Binding.Module.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			target, err := r.table.Load(ctx, a.Binding.Module)
			if err != nil {
				return nil, err
			}
			order = append(order, target)
		}
		r.Log(slog.LevelDebug, "module imports bound",
			slog.String("module", mod.Key()),
			slog.Int("bindings", len(aliases)))
	}
	return order, nil
}
