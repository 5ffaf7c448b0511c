package graph

import (
	"errors"
	"testing"
)

func TestAddEdgeRejectsZeroWeight(t *testing.T) {
	ig := NewInputGraph()
	if err := ig.AddEdge(0, 1, 0); !errors.Is(err, ErrInvalidEdge) {
		t.Errorf("AddEdge with weight 0: got %v, want ErrInvalidEdge", err)
	}
}

func TestAddEdgeRejectedAfterFreeze(t *testing.T) {
	ig := NewInputGraph()
	ig.Freeze()
	if err := ig.AddEdge(0, 1, 1); !errors.Is(err, ErrMutateAfterFreeze) {
		t.Errorf("AddEdge after freeze: got %v, want ErrMutateAfterFreeze", err)
	}
	ig.Thaw()
	if err := ig.AddEdge(0, 1, 1); err != nil {
		t.Errorf("AddEdge after thaw: got %v, want nil", err)
	}
}

func TestFreezeDropsSelfLoops(t *testing.T) {
	ig := NewInputGraph()
	must(t, ig.AddEdge(0, 0, 5))
	must(t, ig.AddEdge(0, 1, 3))
	ig.Freeze()

	if ig.NumEdges() != 1 {
		t.Fatalf("NumEdges = %d, want 1", ig.NumEdges())
	}
	ig.Edges(func(tail, head NodeID, weight Weight) {
		if tail == head {
			t.Errorf("self-loop survived freeze: (%d,%d)", tail, head)
		}
	})
}

func TestFreezeKeepsMinimumWeightForDuplicates(t *testing.T) {
	ig := NewInputGraph()
	must(t, ig.AddEdge(0, 1, 5))
	must(t, ig.AddEdge(0, 1, 2))
	must(t, ig.AddEdge(0, 1, 9))
	ig.Freeze()

	if ig.NumEdges() != 1 {
		t.Fatalf("NumEdges = %d, want 1", ig.NumEdges())
	}
	var gotWeight Weight
	ig.Edges(func(tail, head NodeID, weight Weight) { gotWeight = weight })
	if gotWeight != 2 {
		t.Errorf("kept weight = %d, want 2 (minimum)", gotWeight)
	}
}

func TestFreezeNumNodesIsMaxIDPlusOne(t *testing.T) {
	ig := NewInputGraph()
	must(t, ig.AddEdge(2, 7, 1))
	ig.Freeze()
	if ig.NumNodes() != 8 {
		t.Errorf("NumNodes = %d, want 8", ig.NumNodes())
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
