package graph

import "slices"

// FindCycles returns one cycle per strongly connected component that has
// more than one node or a self-loop, found with an iterative Tarjan pass.
// Each cycle is a chain in edge order starting at the component's earliest
// inserted node; the edge from the last element back to the first closes it.
func (g *Graph) FindCycles() [][]Symbol {
	var cycles [][]Symbol
	for _, scc := range g.components() {
		if len(scc) == 1 && !slices.Contains(g.edges[scc[0]], scc[0]) {
			continue
		}
		cycles = append(cycles, g.chain(scc))
	}
	return cycles
}

// components returns the strongly connected components in the order Tarjan's
// algorithm completes them. An explicit frame stack replaces recursion so
// that long reference chains cannot exhaust the goroutine stack.
func (g *Graph) components() [][]Symbol {
	type frame struct {
		node Symbol
		next int
	}
	var (
		index    int
		stack    []Symbol
		calls    []frame
		onStack  = make(map[Symbol]bool, len(g.order))
		indices  = make(map[Symbol]int, len(g.order))
		lowlinks = make(map[Symbol]int, len(g.order))
		sccs     [][]Symbol
	)
	visit := func(sym Symbol) {
		indices[sym] = index
		lowlinks[sym] = index
		index++
		stack = append(stack, sym)
		onStack[sym] = true
		calls = append(calls, frame{node: sym})
	}

	for _, start := range g.order {
		if _, seen := indices[start]; seen {
			continue
		}
		visit(start)
		for len(calls) > 0 {
			top := len(calls) - 1
			sym := calls[top].node
			deps := g.edges[sym]
			if calls[top].next < len(deps) {
				dep := deps[calls[top].next]
				calls[top].next++
				if _, seen := indices[dep]; !seen {
					visit(dep)
				} else if onStack[dep] {
					lowlinks[sym] = min(lowlinks[sym], indices[dep])
				}
				continue
			}

			if lowlinks[sym] == indices[sym] {
				var scc []Symbol
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == sym {
						break
					}
				}
				sccs = append(sccs, scc)
			}
			calls = calls[:top]
			if top > 0 {
				parent := calls[top-1].node
				lowlinks[parent] = min(lowlinks[parent], lowlinks[sym])
			}
		}
	}
	return sccs
}

// chain finds the shortest cycle through the component's earliest inserted
// member by breadth-first search restricted to the component.
func (g *Graph) chain(scc []Symbol) []Symbol {
	members := make(map[Symbol]bool, len(scc))
	for _, s := range scc {
		members[s] = true
	}
	var start Symbol
	for _, s := range g.order {
		if members[s] {
			start = s
			break
		}
	}

	prev := map[Symbol]Symbol{}
	queue := []Symbol{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.edges[cur] {
			if !members[dep] {
				continue
			}
			if dep == start {
				path := []Symbol{cur}
				for path[len(path)-1] != start {
					path = append(path, prev[path[len(path)-1]])
				}
				slices.Reverse(path)
				return path
			}
			if _, seen := prev[dep]; !seen {
				prev[dep] = cur
				queue = append(queue, dep)
			}
		}
	}
	return scc
}
