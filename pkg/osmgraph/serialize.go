package osmgraph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"github.com/easbar/fast-paths/pkg/graph"
)

// Sidecar format for the domain extras a Dataset carries beyond the core
// FastGraph: the core graph package only persists the CH overlay, so the
// original adjacency and node coordinates used for snapping and route
// geometry live here instead (the spatial index is not stored; it is
// rebuilt from them on load), using the same
// magic-bytes/CRC32/unsafe.Slice technique as pkg/graph/binary.go.
const (
	sidecarMagic   = "OSMGREXT"
	sidecarVersion = uint32(1)
	sidecarSuffix  = ".osm"
)

type sidecarHeader struct {
	Magic        [8]byte
	Version      uint32
	NumNodes     uint32
	NumOrigEdges uint32
}

// SaveDataset writes ds to disk as two files: basePath (the prepared
// FastGraph, via graph.SaveToDisk) and basePath+".osm" (the original
// adjacency and node coordinates needed to rebuild the spatial index on
// load).
func SaveDataset(basePath string, ds *Dataset) error {
	if err := graph.SaveToDisk(basePath, ds.fg); err != nil {
		return fmt.Errorf("osmgraph: save fastgraph: %w", err)
	}

	sidecarPath := basePath + sidecarSuffix
	tmpPath := sidecarPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("osmgraph: create sidecar: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	cw := &crc32Writer{w: f, hash: crc32.NewIEEE()}

	hdr := sidecarHeader{
		Version:      sidecarVersion,
		NumNodes:     uint32(len(ds.nodeLat)),
		NumOrigEdges: uint32(len(ds.head)),
	}
	copy(hdr.Magic[:], sidecarMagic)
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("osmgraph: write sidecar header: %w", err)
	}

	if err := writeUint32Slice(cw, ds.firstOut); err != nil {
		return fmt.Errorf("osmgraph: write firstOut: %w", err)
	}
	if err := writeUint32Slice(cw, ds.head); err != nil {
		return fmt.Errorf("osmgraph: write head: %w", err)
	}
	if err := writeUint32Slice(cw, ds.weight); err != nil {
		return fmt.Errorf("osmgraph: write weight: %w", err)
	}
	if err := writeFloat64Slice(cw, ds.nodeLat); err != nil {
		return fmt.Errorf("osmgraph: write nodeLat: %w", err)
	}
	if err := writeFloat64Slice(cw, ds.nodeLon); err != nil {
		return fmt.Errorf("osmgraph: write nodeLon: %w", err)
	}

	checksum := cw.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("osmgraph: write sidecar CRC32: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("osmgraph: close sidecar: %w", err)
	}
	if err := os.Rename(tmpPath, sidecarPath); err != nil {
		return fmt.Errorf("osmgraph: rename sidecar: %w", err)
	}
	return nil
}

// LoadDataset reads back a Dataset written by SaveDataset, rebuilding the
// in-memory spatial index from the sidecar's node coordinates and original
// adjacency.
func LoadDataset(basePath string) (*Dataset, error) {
	fg, err := graph.LoadFromDisk(basePath)
	if err != nil {
		return nil, fmt.Errorf("osmgraph: load fastgraph: %w", err)
	}

	f, err := os.Open(basePath + sidecarSuffix)
	if err != nil {
		return nil, fmt.Errorf("osmgraph: open sidecar: %w", err)
	}
	defer f.Close()

	cr := &crc32Reader{r: f, hash: crc32.NewIEEE()}

	var hdr sidecarHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("osmgraph: read sidecar header: %w", err)
	}
	if string(hdr.Magic[:]) != sidecarMagic {
		return nil, fmt.Errorf("osmgraph: invalid sidecar magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != sidecarVersion {
		return nil, fmt.Errorf("osmgraph: unsupported sidecar version: %d", hdr.Version)
	}

	firstOut, err := readUint32Slice(cr, int(hdr.NumNodes+1))
	if err != nil {
		return nil, fmt.Errorf("osmgraph: read firstOut: %w", err)
	}
	head, err := readUint32Slice(cr, int(hdr.NumOrigEdges))
	if err != nil {
		return nil, fmt.Errorf("osmgraph: read head: %w", err)
	}
	weight, err := readUint32Slice(cr, int(hdr.NumOrigEdges))
	if err != nil {
		return nil, fmt.Errorf("osmgraph: read weight: %w", err)
	}
	nodeLat, err := readFloat64Slice(cr, int(hdr.NumNodes))
	if err != nil {
		return nil, fmt.Errorf("osmgraph: read nodeLat: %w", err)
	}
	nodeLon, err := readFloat64Slice(cr, int(hdr.NumNodes))
	if err != nil {
		return nil, fmt.Errorf("osmgraph: read nodeLon: %w", err)
	}

	expectedCRC := cr.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("osmgraph: read sidecar CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("osmgraph: sidecar CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	return &Dataset{
		fg:       fg,
		firstOut: firstOut,
		head:     head,
		weight:   weight,
		nodeLat:  nodeLat,
		nodeLon:  nodeLon,
		snap:     newSnapIndex(firstOut, head, nodeLat, nodeLon),
	}, nil
}

// NumNodes returns the number of nodes in the prepared graph.
func (ds *Dataset) NumNodes() uint32 { return ds.fg.NumNodes }

// NumFwdEdges returns the number of upward edges (original and shortcut)
// in the CH overlay.
func (ds *Dataset) NumFwdEdges() int { return len(ds.fg.FwdHead) }

// NumBwdEdges returns the number of downward edges (original and shortcut)
// in the CH overlay.
func (ds *Dataset) NumBwdEdges() int { return len(ds.fg.BwdHead) }

// Zero-copy I/O helpers, same technique as pkg/graph/binary.go but kept
// local since that file's helpers are unexported.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
