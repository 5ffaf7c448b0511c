package ch

import (
	"errors"
	"testing"

	"github.com/easbar/fast-paths/pkg/graph"
	"github.com/easbar/fast-paths/pkg/prep"
)

// buildTestGraph builds a small fixture graph:
//
//	0 ---100--- 1 ---200--- 2
//	|                       |
//	300                    400
//	|                       |
//	3 ---500--- 4 ---600--- 5
//
// All edges are bidirectional.
func buildTestGraph(t *testing.T) *prep.Graph {
	t.Helper()
	ig := graph.NewInputGraph()
	edges := [][3]uint32{
		{0, 1, 100}, {1, 0, 100},
		{1, 2, 200}, {2, 1, 200},
		{0, 3, 300}, {3, 0, 300},
		{2, 5, 400}, {5, 2, 400},
		{3, 4, 500}, {4, 3, 500},
		{4, 5, 600}, {5, 4, 600},
	}
	for _, e := range edges {
		if err := ig.AddEdge(e[0], e[1], e[2]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	ig.Freeze()
	return prep.Build(ig)
}

func TestContractAllProducesPermutation(t *testing.T) {
	g := buildTestGraph(t)
	rank, _ := ContractAll(g, Config{MaxSettledNodes: DefaultMaxSettledNodes})

	seen := make([]bool, len(rank))
	for _, r := range rank {
		if int(r) >= len(rank) {
			t.Fatalf("rank %d out of range [0,%d)", r, len(rank))
		}
		if seen[r] {
			t.Fatalf("rank %d assigned twice", r)
		}
		seen[r] = true
	}
}

// TestShortcutSoundness verifies that every shortcut (u,w,d,v) satisfies
// d == weight(u,v) + weight(v,w) in the PreparationGraph at the moment of
// insertion.
func TestShortcutSoundness(t *testing.T) {
	g := buildTestGraph(t)

	ws := NewWitnessSearch(g, DefaultMaxSettledNodes)
	nc := NewNodeContractor(g, ws)

	for v := graph.NodeID(0); v < g.NumNodes(); v++ {
		var incoming, outgoing []prep.Entry
		g.InEdges(v, func(e prep.Entry) { incoming = append(incoming, e) })
		g.OutEdges(v, func(e prep.Entry) { outgoing = append(outgoing, e) })

		shortcuts := nc.Shortcuts(v)
		for _, sc := range shortcuts {
			var inWeight, outWeight graph.Weight
			foundIn, foundOut := false, false
			for _, in := range incoming {
				if in.Node == sc.From {
					inWeight = in.Weight
					foundIn = true
				}
			}
			for _, out := range outgoing {
				if out.Node == sc.To {
					outWeight = out.Weight
					foundOut = true
				}
			}
			if !foundIn || !foundOut {
				t.Fatalf("shortcut (%d,%d via %d) references a non-live neighbor", sc.From, sc.To, v)
			}
			if sc.Weight != inWeight+outWeight {
				t.Errorf("shortcut (%d,%d via %d): weight %d != %d+%d", sc.From, sc.To, v, sc.Weight, inWeight, outWeight)
			}
		}
		nc.Contract(v)
	}
}

func TestContractWithOrderRejectsBadPermutation(t *testing.T) {
	g := buildTestGraph(t)
	cfg := Config{MaxSettledNodes: DefaultMaxSettledNodes}

	_, _, err := ContractWithOrder(g, cfg, []graph.NodeID{0, 1, 2}) // too short
	if !errors.Is(err, ErrBadOrder) {
		t.Errorf("short order: got %v, want ErrBadOrder", err)
	}
}

func TestContractWithOrderRejectsDuplicate(t *testing.T) {
	g := buildTestGraph(t)
	cfg := Config{MaxSettledNodes: DefaultMaxSettledNodes}

	bad := []graph.NodeID{0, 1, 2, 3, 4, 4} // duplicate 4, missing 5
	_, _, err := ContractWithOrder(g, cfg, bad)
	if !errors.Is(err, ErrBadOrder) {
		t.Errorf("duplicate order: got %v, want ErrBadOrder", err)
	}
}
