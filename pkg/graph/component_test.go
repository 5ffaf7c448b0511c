package graph

import "testing"

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	for i := range uint32(5) {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}

	uf.Union(0, 1)
	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 should be in same set")
	}

	uf.Union(2, 3)
	if uf.Find(2) != uf.Find(3) {
		t.Error("2 and 3 should be in same set")
	}

	if uf.Find(0) == uf.Find(2) {
		t.Error("0 and 2 should be in different sets")
	}

	uf.Union(1, 3)
	if uf.Find(0) != uf.Find(3) {
		t.Error("0 and 3 should now be in same set")
	}
}

func buildComponentFixture(t *testing.T) *InputGraph {
	t.Helper()
	ig := NewInputGraph()
	edges := [][3]NodeID{
		// Component 1: 0 <-> 1 <-> 2
		{0, 1, 100}, {1, 0, 100},
		{1, 2, 200}, {2, 1, 200},
		// Component 2: 3 <-> 4
		{3, 4, 300}, {4, 3, 300},
	}
	for _, e := range edges {
		if err := ig.AddEdge(e[0], e[1], e[2]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	ig.Freeze()
	return ig
}

func TestLargestComponent(t *testing.T) {
	ig := buildComponentFixture(t)
	nodes := LargestComponent(ig)
	if len(nodes) != 3 {
		t.Fatalf("LargestComponent has %d nodes, want 3", len(nodes))
	}
}

func TestFilterToComponent(t *testing.T) {
	ig := NewInputGraph()
	edges := [][3]NodeID{
		// Component 1: triangle
		{0, 1, 100}, {1, 2, 200}, {2, 0, 300},
		// Component 2: isolated pair
		{3, 4, 400},
	}
	for _, e := range edges {
		if err := ig.AddEdge(e[0], e[1], e[2]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	ig.Freeze()

	nodes := LargestComponent(ig)
	filtered := FilterToComponent(ig, nodes)

	if filtered.NumNodes() != 3 {
		t.Fatalf("filtered NumNodes = %d, want 3", filtered.NumNodes())
	}
	if filtered.NumEdges() != 3 {
		t.Fatalf("filtered NumEdges = %d, want 3", filtered.NumEdges())
	}

	var total uint32
	filtered.Edges(func(tail, head NodeID, weight Weight) {
		total += weight
		if tail >= filtered.NumNodes() || head >= filtered.NumNodes() {
			t.Errorf("edge (%d,%d) out of range for NumNodes %d", tail, head, filtered.NumNodes())
		}
	})
	if total != 600 {
		t.Errorf("total weight = %d, want 600 (100+200+300)", total)
	}
}

func TestFilterToComponentEmptyGraph(t *testing.T) {
	ig := NewInputGraph()
	ig.Freeze()

	nodes := LargestComponent(ig)
	if nodes != nil {
		t.Errorf("expected nil for empty graph, got %v", nodes)
	}

	filtered := FilterToComponent(ig, nil)
	if filtered.NumNodes() != 0 || filtered.NumEdges() != 0 {
		t.Errorf("expected empty graph, got %d nodes, %d edges", filtered.NumNodes(), filtered.NumEdges())
	}
}
