package rasterio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"

	"mmu-filter/internal/conncomp"
)

// Label dumps hold a label grid and its size table:
//
//	magic   [4]byte "MMUL"
//	version uint16
//	rows    uint32
//	cols    uint32
//	count   uint32
//	zstd( labels [rows*cols]int32 | sizes [count]uint32 )
//
// All integers are little endian.
const (
	labelMagic   = "MMUL"
	labelVersion = 1
)

// ErrLabelDump is returned for files that are not label dumps.
var ErrLabelDump = errors.New("rasterio: not a label dump")

type labelHeader struct {
	Magic   [4]byte
	Version uint16
	Rows    uint32
	Cols    uint32
	Count   uint32
}

// WriteLabels stores a label grid and its size table at path.
func WriteLabels(path string, labels *conncomp.Labels, sizes conncomp.SizeTable) error {
	if len(sizes) != labels.Count+1 {
		return fmt.Errorf("rasterio: size table holds %d entries for %d labels", len(sizes), labels.Count)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rasterio: create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := encodeLabels(bw, labels, sizes); err != nil {
		return fmt.Errorf("rasterio: write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("rasterio: write %s: %w", path, err)
	}
	return f.Close()
}

func encodeLabels(w io.Writer, labels *conncomp.Labels, sizes conncomp.SizeTable) error {
	h := labelHeader{
		Version: labelVersion,
		Rows:    uint32(labels.Rows),
		Cols:    uint32(labels.Cols),
		Count:   uint32(labels.Count),
	}
	copy(h.Magic[:], labelMagic)
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := binary.Write(enc, binary.LittleEndian, labels.Pix); err != nil {
		enc.Close()
		return err
	}
	counts := make([]uint32, labels.Count)
	for i, n := range sizes.Sizes() {
		counts[i] = uint32(n)
	}
	if err := binary.Write(enc, binary.LittleEndian, counts); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadLabels loads a dump written by WriteLabels.
func ReadLabels(path string) (*conncomp.Labels, conncomp.SizeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("rasterio: open %s: %w", path, err)
	}
	defer f.Close()

	labels, sizes, err := decodeLabels(bufio.NewReader(f))
	if err != nil {
		return nil, nil, fmt.Errorf("rasterio: read %s: %w", path, err)
	}
	return labels, sizes, nil
}

func decodeLabels(r io.Reader) (*conncomp.Labels, conncomp.SizeTable, error) {
	var h labelHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, nil, err
	}
	if string(h.Magic[:]) != labelMagic {
		return nil, nil, ErrLabelDump
	}
	if h.Version != labelVersion {
		return nil, nil, fmt.Errorf("%w: version %d", ErrLabelDump, h.Version)
	}
	cells := uint64(h.Rows) * uint64(h.Cols)
	if cells > math.MaxInt32 {
		return nil, nil, fmt.Errorf("%w: %d x %d grid too large", ErrLabelDump, h.Rows, h.Cols)
	}
	if uint64(h.Count) > cells {
		return nil, nil, fmt.Errorf("%w: %d labels for %d pixels", ErrLabelDump, h.Count, cells)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer dec.Close()

	labels := &conncomp.Labels{
		Rows:  int(h.Rows),
		Cols:  int(h.Cols),
		Pix:   make([]int32, int(h.Rows)*int(h.Cols)),
		Count: int(h.Count),
	}
	if err := binary.Read(dec, binary.LittleEndian, labels.Pix); err != nil {
		return nil, nil, err
	}

	counts := make([]uint32, h.Count)
	if err := binary.Read(dec, binary.LittleEndian, counts); err != nil {
		return nil, nil, err
	}
	sizes := make(conncomp.SizeTable, h.Count+1)
	for i, n := range counts {
		sizes[i+1] = int(n)
	}
	return labels, sizes, nil
}
