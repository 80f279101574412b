package raster

import (
	"errors"
	"fmt"
	"math"

	"mmu-filter/internal/conncomp"
)

// ErrNoData is returned when a raster carries no no-data value to classify against.
var ErrNoData = errors.New("raster: no nodata value")

// epsilon32 is FLT_EPSILON, the gap between 1 and the next float32.
const epsilon32 = 0x1p-23

// Equal reports whether a and b are equal up to a float32 epsilon scaled by
// the larger magnitude.
func Equal(a, b float32) bool {
	diff := math.Abs(float64(a - b))
	m := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	return float32(diff) <= float32(m)*epsilon32
}

// Foreground classifies every sample that is not approximately equal to the
// no-data value as foreground.
func Foreground(r *Raster) (*conncomp.Mask, error) {
	if !r.HasNoData {
		return nil, ErrNoData
	}
	if len(r.Data) != r.Cells() {
		return nil, fmt.Errorf("raster: %dx%d raster holds %d samples", r.Rows, r.Cols, len(r.Data))
	}

	nodata := float32(r.NoData)
	m := conncomp.NewMask(r.Rows, r.Cols)
	for i, v := range r.Data {
		m.Pix[i] = !Equal(v, nodata)
	}
	return m, nil
}

// ClearRemoved writes the no-data value into every sample that was foreground
// in before and is background in after. It returns the number of samples written.
func ClearRemoved(r *Raster, before, after *conncomp.Mask) int {
	nodata := float32(r.NoData)
	n := 0
	for i, fg := range before.Pix {
		if fg && !after.Pix[i] {
			r.Data[i] = nodata
			n++
		}
	}
	return n
}
