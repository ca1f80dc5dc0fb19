package graph

import (
	"fmt"
	"slices"
	"testing"
)

func sym(name string) Symbol {
	return Symbol{Module: "package::m", Name: name}
}

func TestGraphBasic(t *testing.T) {
	g := New(0)

	a, b := sym("a"), sym("b")
	g.AddNode(a)
	g.AddNode(b)
	g.AddEdge(a, b)

	if !g.HasNode(a) || !g.HasNode(b) {
		t.Error("graph should have nodes a and b")
	}
	if g.HasNode(sym("c")) {
		t.Error("graph should not have node c")
	}
	if got, want := g.PostOrder(a), []Symbol{b, a}; !slices.Equal(got, want) {
		t.Errorf("PostOrder(a) = %v, want %v", got, want)
	}
	if got, want := g.PostOrder(b), []Symbol{b}; !slices.Equal(got, want) {
		t.Errorf("PostOrder(b) = %v, want %v", got, want)
	}
}

func TestAddEdgeCreatesNodes(t *testing.T) {
	g := New(0)
	a, b := sym("a"), sym("b")

	// No AddNode calls, only AddEdge.
	g.AddEdge(a, b)

	if !g.HasNode(a) {
		t.Error("AddEdge should create 'from' node")
	}
	if !g.HasNode(b) {
		t.Error("AddEdge should create 'to' node")
	}
}

func TestDuplicateEdges(t *testing.T) {
	g := New(0)
	a, b, c := sym("a"), sym("b"), sym("c")

	g.AddEdge(a, b)
	g.AddEdge(a, b)
	g.AddEdge(a, c)
	g.AddEdge(a, b)

	if got, want := g.PostOrder(a), []Symbol{b, c, a}; !slices.Equal(got, want) {
		t.Errorf("PostOrder(a) = %v, want %v", got, want)
	}
	if cycles := g.FindCycles(); len(cycles) != 0 {
		t.Errorf("acyclic graph reported cycles %v", cycles)
	}
}

func TestCyclesFollowInsertionOrder(t *testing.T) {
	// Each component's chain starts at its earliest inserted node.
	g := New(4)
	for _, n := range []string{"z", "a", "m", "a"} {
		g.AddNode(sym(n))
	}
	g.AddEdge(sym("a"), sym("z"))
	g.AddEdge(sym("z"), sym("a"))

	cycles := g.FindCycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	if want := []Symbol{sym("z"), sym("a")}; !slices.Equal(cycles[0], want) {
		t.Errorf("chain = %v, want %v", cycles[0], want)
	}
}

func TestSymbolString(t *testing.T) {
	if got := sym("a").String(); got != "package::m::a" {
		t.Errorf("String() = %q", got)
	}
	if got := (Symbol{Module: "package::m"}).String(); got != "package::m" {
		t.Errorf("module String() = %q", got)
	}
}

func TestFindCyclesNone(t *testing.T) {
	g := New(0)
	g.AddEdge(sym("a"), sym("b"))
	g.AddEdge(sym("b"), sym("c"))
	g.AddEdge(sym("a"), sym("c"))
	if cycles := g.FindCycles(); len(cycles) != 0 {
		t.Errorf("cycles = %v, want none", cycles)
	}
}

func TestFindCyclesSimple(t *testing.T) {
	g := New(0)
	a, b := Symbol{Module: "package::foo", Name: "a"}, Symbol{Module: "package::bar", Name: "b"}
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	cycles := g.FindCycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	if want := []Symbol{a, b}; !slices.Equal(cycles[0], want) {
		t.Errorf("chain = %v, want %v", cycles[0], want)
	}
}

func TestFindCyclesTriangleChainOrder(t *testing.T) {
	g := New(0)
	a, b, c := sym("a"), sym("b"), sym("c")
	g.AddEdge(a, b)
	g.AddEdge(b, c)
	g.AddEdge(c, a)

	cycles := g.FindCycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	if want := []Symbol{a, b, c}; !slices.Equal(cycles[0], want) {
		t.Errorf("chain = %v, want %v", cycles[0], want)
	}
}

func TestFindCyclesShortestChain(t *testing.T) {
	// a -> b -> c -> d -> a and a -> d: the shortest cycle through a is a, d.
	g := New(0)
	a, b, c, d := sym("a"), sym("b"), sym("c"), sym("d")
	g.AddEdge(a, b)
	g.AddEdge(b, c)
	g.AddEdge(c, d)
	g.AddEdge(d, a)
	g.AddEdge(a, d)

	cycles := g.FindCycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	if want := []Symbol{a, d}; !slices.Equal(cycles[0], want) {
		t.Errorf("chain = %v, want %v", cycles[0], want)
	}
}

func TestSelfLoop(t *testing.T) {
	g := New(0)
	a, b := sym("a"), sym("b")
	g.AddEdge(a, a)
	g.AddEdge(b, a)

	cycles := g.FindCycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	if len(cycles[0]) != 1 || cycles[0][0] != a {
		t.Errorf("self-loop chain = %v, want [%v]", cycles[0], a)
	}
}

func TestFindCyclesSeparateComponents(t *testing.T) {
	g := New(0)
	g.AddEdge(sym("a"), sym("b"))
	g.AddEdge(sym("b"), sym("a"))
	g.AddEdge(sym("c"), sym("d"))
	g.AddEdge(sym("d"), sym("c"))
	g.AddEdge(sym("b"), sym("c"))

	if cycles := g.FindCycles(); len(cycles) != 2 {
		t.Errorf("cycles = %d, want 2", len(cycles))
	}
}

func TestFindCyclesDeepChainIsIterative(t *testing.T) {
	g := New(100000)
	const n = 100000
	for i := 0; i < n; i++ {
		g.AddEdge(sym(fmt.Sprint(i)), sym(fmt.Sprint(i+1)))
	}
	g.AddEdge(sym(fmt.Sprint(n)), sym("0"))

	cycles := g.FindCycles()
	if len(cycles) != 1 || len(cycles[0]) != n+1 {
		t.Fatalf("expected one cycle of %d nodes", n+1)
	}
}

func TestPostOrder(t *testing.T) {
	// main uses foo then util; foo uses util.
	g := New(0)
	mod := func(k string) Symbol { return Symbol{Module: k} }
	g.AddEdge(mod("main"), mod("foo"))
	g.AddEdge(mod("main"), mod("util"))
	g.AddEdge(mod("foo"), mod("util"))
	g.AddNode(mod("unrelated"))

	got := g.PostOrder(mod("main"))
	want := []Symbol{mod("util"), mod("foo"), mod("main")}
	if !slices.Equal(got, want) {
		t.Errorf("PostOrder() = %v, want %v", got, want)
	}
}

func TestPostOrderCycleTerminates(t *testing.T) {
	g := New(0)
	mod := func(k string) Symbol { return Symbol{Module: k} }
	g.AddEdge(mod("main"), mod("foo"))
	g.AddEdge(mod("foo"), mod("bar"))
	g.AddEdge(mod("bar"), mod("foo"))

	got := g.PostOrder(mod("main"))
	want := []Symbol{mod("bar"), mod("foo"), mod("main")}
	if !slices.Equal(got, want) {
		t.Errorf("PostOrder() = %v, want %v", got, want)
	}
	if g.PostOrder(mod("absent")) != nil {
		t.Error("PostOrder of unknown node should be nil")
	}
}
