package osmgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDatasetRoundTrip(t *testing.T) {
	original := buildRouterFixture(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "singapore.bin")

	if err := SaveDataset(path, original); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}

	loaded, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}

	if loaded.NumNodes() != original.NumNodes() {
		t.Errorf("NumNodes: got %d, want %d", loaded.NumNodes(), original.NumNodes())
	}
	if loaded.NumFwdEdges() != original.NumFwdEdges() {
		t.Errorf("NumFwdEdges: got %d, want %d", loaded.NumFwdEdges(), original.NumFwdEdges())
	}
	if loaded.NumBwdEdges() != original.NumBwdEdges() {
		t.Errorf("NumBwdEdges: got %d, want %d", loaded.NumBwdEdges(), original.NumBwdEdges())
	}

	if len(loaded.nodeLat) != len(original.nodeLat) {
		t.Fatalf("nodeLat length: got %d, want %d", len(loaded.nodeLat), len(original.nodeLat))
	}
	for i := range original.nodeLat {
		if loaded.nodeLat[i] != original.nodeLat[i] {
			t.Errorf("nodeLat[%d]: got %f, want %f", i, loaded.nodeLat[i], original.nodeLat[i])
		}
		if loaded.nodeLon[i] != original.nodeLon[i] {
			t.Errorf("nodeLon[%d]: got %f, want %f", i, loaded.nodeLon[i], original.nodeLon[i])
		}
	}

	for i := range original.head {
		if loaded.head[i] != original.head[i] || loaded.weight[i] != original.weight[i] {
			t.Errorf("edge[%d]: got (head=%d,weight=%d), want (head=%d,weight=%d)",
				i, loaded.head[i], loaded.weight[i], original.head[i], original.weight[i])
		}
	}

	// A loaded Dataset must still be able to route and snap, exercising the
	// rebuilt spatial index.
	r := NewRouter(loaded)
	route, err := r.Route(context.Background(), LatLng{Lat: 1.000, Lng: 103.000}, LatLng{Lat: 1.002, Lng: 103.000})
	if err != nil {
		t.Fatalf("Route on loaded dataset: %v", err)
	}
	if route.TotalDistanceMeters != 3.0 {
		t.Errorf("TotalDistanceMeters = %f, want 3.0", route.TotalDistanceMeters)
	}
}

func TestLoadDatasetInvalidMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	os.WriteFile(path, []byte("NOTVALIDxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"), 0644)
	os.WriteFile(path+sidecarSuffix, []byte("NOT_THE_RIGHT_MAGIC_BYTES_AT_ALL_PADDING_PADDING"), 0644)

	_, err := LoadDataset(path)
	if err == nil {
		t.Fatal("expected error for invalid fastgraph magic bytes")
	}
}

func TestLoadDatasetMissingSidecar(t *testing.T) {
	ds := buildRouterFixture(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nosidecar.bin")

	if err := SaveDataset(path, ds); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}
	if err := os.Remove(path + sidecarSuffix); err != nil {
		t.Fatalf("remove sidecar: %v", err)
	}

	_, err := LoadDataset(path)
	if err == nil {
		t.Fatal("expected error when sidecar file is missing")
	}
}
