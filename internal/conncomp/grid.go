package conncomp

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is returned when a grid's pixel slice does not match its dimensions,
	// or when a mask and a label grid disagree on size.
	ErrShape = errors.New("conncomp: grid shape mismatch")

	// ErrLabelOverflow is returned when a mask holds more components than int32 labels can number.
	ErrLabelOverflow = errors.New("conncomp: label counter overflow")

	// ErrMinSize is returned for a minimum object size below 1.
	ErrMinSize = errors.New("conncomp: minimum size must be >= 1")
)

// Mask is a row-major boolean raster. True marks a foreground (object) pixel.
type Mask struct {
	Rows int
	Cols int
	Pix  []bool
}

// NewMask allocates an all-background mask.
func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Pix: make([]bool, rows*cols)}
}

// At reports whether the pixel at (row, col) is foreground.
func (m *Mask) At(row, col int) bool {
	return m.Pix[row*m.Cols+col]
}

// Set marks the pixel at (row, col).
func (m *Mask) Set(row, col int, v bool) {
	m.Pix[row*m.Cols+col] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	out := &Mask{Rows: m.Rows, Cols: m.Cols, Pix: make([]bool, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

func (m *Mask) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mask", ErrShape)
	}
	if m.Rows < 0 || m.Cols < 0 || len(m.Pix) != m.Rows*m.Cols {
		return fmt.Errorf("%w: mask %dx%d holds %d pixels", ErrShape, m.Rows, m.Cols, len(m.Pix))
	}
	return nil
}

// Labels is the label grid produced by Label. Pix holds 0 for background and
// 1..Count for the component each foreground pixel belongs to.
type Labels struct {
	Rows  int
	Cols  int
	Pix   []int32
	Count int
}

// At returns the label at (row, col).
func (l *Labels) At(row, col int) int32 {
	return l.Pix[row*l.Cols+col]
}

func (l *Labels) matches(m *Mask) error {
	if l == nil {
		return fmt.Errorf("%w: nil label grid", ErrShape)
	}
	if l.Rows != m.Rows || l.Cols != m.Cols || len(l.Pix) != len(m.Pix) {
		return fmt.Errorf("%w: labels %dx%d, mask %dx%d", ErrShape, l.Rows, l.Cols, m.Rows, m.Cols)
	}
	return nil
}
