package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes = "FASTPTHS"
	version    = uint32(1)
	maxNodes   = 10_000_000
	maxEdges   = 50_000_000
)

type fileHeader struct {
	Magic       [8]byte
	Version     uint32
	NumNodes    uint32
	NumFwdEdges uint32
	NumBwdEdges uint32
}

// SaveToDisk serializes fg to path using a magic-bytes/CRC32/unsafe.Slice
// binary format, generalized off the OSM-specific geometry and
// original-graph fields a CH overlay never needs.
func SaveToDisk(path string, fg *FastGraph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("graph: create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	cw := &crc32Writer{w: f, hash: crc32.NewIEEE()}

	hdr := fileHeader{
		Version:     version,
		NumNodes:    fg.NumNodes,
		NumFwdEdges: uint32(len(fg.FwdHead)),
		NumBwdEdges: uint32(len(fg.BwdHead)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("graph: write header: %w", err)
	}

	if err := writeUint32Slice(cw, fg.RankToID); err != nil {
		return fmt.Errorf("graph: write RankToID: %w", err)
	}
	if err := writeUint32Slice(cw, fg.IDToRank); err != nil {
		return fmt.Errorf("graph: write IDToRank: %w", err)
	}

	if err := writeUint32Slice(cw, fg.FwdFirstOut); err != nil {
		return fmt.Errorf("graph: write FwdFirstOut: %w", err)
	}
	if err := writeUint32Slice(cw, fg.FwdHead); err != nil {
		return fmt.Errorf("graph: write FwdHead: %w", err)
	}
	if err := writeUint32Slice(cw, fg.FwdWeight); err != nil {
		return fmt.Errorf("graph: write FwdWeight: %w", err)
	}
	if err := writeInt32Slice(cw, fg.FwdMiddle); err != nil {
		return fmt.Errorf("graph: write FwdMiddle: %w", err)
	}

	if err := writeUint32Slice(cw, fg.BwdFirstOut); err != nil {
		return fmt.Errorf("graph: write BwdFirstOut: %w", err)
	}
	if err := writeUint32Slice(cw, fg.BwdHead); err != nil {
		return fmt.Errorf("graph: write BwdHead: %w", err)
	}
	if err := writeUint32Slice(cw, fg.BwdWeight); err != nil {
		return fmt.Errorf("graph: write BwdWeight: %w", err)
	}
	if err := writeInt32Slice(cw, fg.BwdMiddle); err != nil {
		return fmt.Errorf("graph: write BwdMiddle: %w", err)
	}

	checksum := cw.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("graph: write CRC32: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("graph: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("graph: rename: %w", err)
	}
	return nil
}

// LoadFromDisk deserializes a FastGraph written by SaveToDisk, verifying
// the CRC32 trailer and basic CSR invariants.
func LoadFromDisk(path string) (*FastGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("graph: open: %w", err)
	}
	defer f.Close()

	cr := &crc32Reader{r: f, hash: crc32.NewIEEE()}

	var hdr fileHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("graph: read header: %w", err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("graph: invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("graph: unsupported version: %d", hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("graph: NumNodes %d exceeds limit %d", hdr.NumNodes, maxNodes)
	}
	if hdr.NumFwdEdges > maxEdges || hdr.NumBwdEdges > maxEdges {
		return nil, fmt.Errorf("graph: edge count exceeds limit %d", maxEdges)
	}

	fg := &FastGraph{NumNodes: hdr.NumNodes}

	if fg.RankToID, err = readUint32Slice(cr, int(hdr.NumNodes)); err != nil {
		return nil, fmt.Errorf("graph: read RankToID: %w", err)
	}
	if fg.IDToRank, err = readUint32Slice(cr, int(hdr.NumNodes)); err != nil {
		return nil, fmt.Errorf("graph: read IDToRank: %w", err)
	}

	if fg.FwdFirstOut, err = readUint32Slice(cr, int(hdr.NumNodes+1)); err != nil {
		return nil, fmt.Errorf("graph: read FwdFirstOut: %w", err)
	}
	if fg.FwdHead, err = readUint32Slice(cr, int(hdr.NumFwdEdges)); err != nil {
		return nil, fmt.Errorf("graph: read FwdHead: %w", err)
	}
	if fg.FwdWeight, err = readUint32Slice(cr, int(hdr.NumFwdEdges)); err != nil {
		return nil, fmt.Errorf("graph: read FwdWeight: %w", err)
	}
	if fg.FwdMiddle, err = readInt32Slice(cr, int(hdr.NumFwdEdges)); err != nil {
		return nil, fmt.Errorf("graph: read FwdMiddle: %w", err)
	}

	if fg.BwdFirstOut, err = readUint32Slice(cr, int(hdr.NumNodes+1)); err != nil {
		return nil, fmt.Errorf("graph: read BwdFirstOut: %w", err)
	}
	if fg.BwdHead, err = readUint32Slice(cr, int(hdr.NumBwdEdges)); err != nil {
		return nil, fmt.Errorf("graph: read BwdHead: %w", err)
	}
	if fg.BwdWeight, err = readUint32Slice(cr, int(hdr.NumBwdEdges)); err != nil {
		return nil, fmt.Errorf("graph: read BwdWeight: %w", err)
	}
	if fg.BwdMiddle, err = readInt32Slice(cr, int(hdr.NumBwdEdges)); err != nil {
		return nil, fmt.Errorf("graph: read BwdMiddle: %w", err)
	}

	expectedCRC := cr.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("graph: read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("graph: CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := validateCSR(fg.FwdFirstOut, fg.FwdHead, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("graph: forward CSR invalid: %w", err)
	}
	if err := validateCSR(fg.BwdFirstOut, fg.BwdHead, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("graph: backward CSR invalid: %w", err)
	}

	return fg, nil
}

func validateCSR(firstOut, head []uint32, numNodes uint32) error {
	if uint32(len(firstOut)) != numNodes+1 {
		return fmt.Errorf("FirstOut length %d != NumNodes+1 %d", len(firstOut), numNodes+1)
	}
	numEdges := firstOut[numNodes]
	if uint32(len(head)) != numEdges {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes] %d", len(head), numEdges)
	}
	for i := uint32(1); i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, h := range head {
		if h >= numNodes {
			return fmt.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, numNodes)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt32Slice(w io.Writer, s []int32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
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

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
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
