// Package graph provides the directed dependency graphs used by the linker:
// declaration references for cycle detection and module dependencies for
// emission order.
package graph

import "slices"

// Symbol identifies a node: a declaration (Module, Name) or, with an empty
// Name, a whole module.
type Symbol struct {
	Module string
	Name   string
}

// String returns "module::name", or the module key alone for module nodes.
func (s Symbol) String() string {
	if s.Name == "" {
		return s.Module
	}
	return s.Module + "::" + s.Name
}

// Graph is a directed graph with forward edges. Nodes and edges keep
// insertion order so that every traversal is deterministic.
type Graph struct {
	nodes map[Symbol]struct{}
	order []Symbol
	edges map[Symbol][]Symbol
}

// New returns an empty graph. sizeHint preallocates room for that many nodes.
func New(sizeHint int) *Graph {
	return &Graph{
		nodes: make(map[Symbol]struct{}, sizeHint),
		order: make([]Symbol, 0, sizeHint),
		edges: make(map[Symbol][]Symbol, sizeHint),
	}
}

// AddNode registers a symbol. Duplicate calls are no-ops.
func (g *Graph) AddNode(sym Symbol) {
	if _, ok := g.nodes[sym]; ok {
		return
	}
	g.nodes[sym] = struct{}{}
	g.order = append(g.order, sym)
}

// AddEdge records that "from" uses "to". Missing nodes are created
// implicitly and duplicate edges are ignored.
func (g *Graph) AddEdge(from, to Symbol) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.edges[from], to) {
		return
	}
	g.edges[from] = append(g.edges[from], to)
}

// HasNode reports whether the symbol exists in the graph.
func (g *Graph) HasNode(sym Symbol) bool {
	_, ok := g.nodes[sym]
	return ok
}

