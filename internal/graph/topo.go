package graph

// PostOrder returns the nodes reachable from start in depth-first
// post-order: every node appears after all nodes it reaches, except where a
// cycle makes that impossible, and start comes last. Edges are followed in
// first-use order.
func (g *Graph) PostOrder(start Symbol) []Symbol {
	if !g.HasNode(start) {
		return nil
	}
	type frame struct {
		node Symbol
		next int
	}
	visited := map[Symbol]bool{start: true}
	calls := []frame{{node: start}}
	var order []Symbol
	for len(calls) > 0 {
		top := len(calls) - 1
		deps := g.edges[calls[top].node]
		if calls[top].next < len(deps) {
			dep := deps[calls[top].next]
			calls[top].next++
			if !visited[dep] {
				visited[dep] = true
				calls = append(calls, frame{node: dep})
			}
			continue
		}
		order = append(order, calls[top].node)
		calls = calls[:top]
	}
	return order
}
