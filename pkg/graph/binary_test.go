package graph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/easbar/fast-paths/pkg/fastpaths"
	"github.com/easbar/fast-paths/pkg/graph"
)

func buildTestFastGraph(t *testing.T) *graph.FastGraph {
	t.Helper()
	ig := fastpaths.NewInputGraph()
	edges := [][3]uint32{
		{0, 1, 100}, {1, 0, 100},
		{1, 2, 200}, {2, 1, 200},
		{0, 3, 300}, {3, 0, 300},
	}
	for _, e := range edges {
		if err := ig.AddEdge(e[0], e[1], e[2]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	fg, err := fastpaths.Prepare(ig, fastpaths.DefaultConfig())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return fg
}

func TestBinaryRoundTrip(t *testing.T) {
	original := buildTestFastGraph(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.graph.bin")

	if err := graph.SaveToDisk(path, original); err != nil {
		t.Fatalf("SaveToDisk: %v", err)
	}
	loaded, err := graph.LoadFromDisk(path)
	if err != nil {
		t.Fatalf("LoadFromDisk: %v", err)
	}

	if loaded.NumNodes != original.NumNodes {
		t.Fatalf("NumNodes: got %d, want %d", loaded.NumNodes, original.NumNodes)
	}
	if len(loaded.FwdHead) != len(original.FwdHead) {
		t.Fatalf("FwdHead length: got %d, want %d", len(loaded.FwdHead), len(original.FwdHead))
	}
	for i := range original.FwdHead {
		if loaded.FwdHead[i] != original.FwdHead[i] ||
			loaded.FwdWeight[i] != original.FwdWeight[i] ||
			loaded.FwdMiddle[i] != original.FwdMiddle[i] {
			t.Errorf("FwdEdge[%d]: got (%d,%d,%d), want (%d,%d,%d)", i,
				loaded.FwdHead[i], loaded.FwdWeight[i], loaded.FwdMiddle[i],
				original.FwdHead[i], original.FwdWeight[i], original.FwdMiddle[i])
		}
	}
	if len(loaded.BwdHead) != len(original.BwdHead) {
		t.Fatalf("BwdHead length: got %d, want %d", len(loaded.BwdHead), len(original.BwdHead))
	}
	for i := range original.BwdHead {
		if loaded.BwdHead[i] != original.BwdHead[i] ||
			loaded.BwdWeight[i] != original.BwdWeight[i] ||
			loaded.BwdMiddle[i] != original.BwdMiddle[i] {
			t.Errorf("BwdEdge[%d]: got (%d,%d,%d), want (%d,%d,%d)", i,
				loaded.BwdHead[i], loaded.BwdWeight[i], loaded.BwdMiddle[i],
				original.BwdHead[i], original.BwdWeight[i], original.BwdMiddle[i])
		}
	}

	// The loaded graph must answer every query identically to the original.
	for s := graph.NodeID(0); s < original.NumNodes; s++ {
		for tg := graph.NodeID(0); tg < original.NumNodes; tg++ {
			if s == tg {
				continue
			}
			want, err := fastpaths.CalcPath(original, s, tg)
			if err != nil {
				t.Fatalf("CalcPath(original,%d,%d): %v", s, tg, err)
			}
			got, err := fastpaths.CalcPath(loaded, s, tg)
			if err != nil {
				t.Fatalf("CalcPath(loaded,%d,%d): %v", s, tg, err)
			}
			if (want == nil) != (got == nil) {
				t.Errorf("(%d,%d): presence mismatch, want %v, got %v", s, tg, want, got)
				continue
			}
			if want != nil && want.Weight != got.Weight {
				t.Errorf("(%d,%d): weight mismatch, want %d, got %d", s, tg, want.Weight, got.Weight)
			}
		}
	}
}

func TestLoadFromDiskRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(path, []byte("not a fastpaths graph file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := graph.LoadFromDisk(path); err == nil {
		t.Error("LoadFromDisk on a non-fastpaths file: want error, got nil")
	}
}
