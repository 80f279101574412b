package conncomp

import (
	"math"

	"github.com/rs/zerolog"
)

// Labeler assigns component labels with the contour-tracing algorithm of
// Chang, Chen & Lu (2004), "A linear-time component-labeling algorithm using
// contour tracing technique", CVIU 93(2).
//
// The zero value is ready to use and logs nothing.
type Labeler struct {
	Log zerolog.Logger

	// maxLabel caps the label counter; zero means math.MaxInt32.
	maxLabel int32
}

// NewLabeler returns a Labeler that reports counter warnings to log.
func NewLabeler(log zerolog.Logger) Labeler {
	return Labeler{Log: log}
}

// Label is shorthand for Labeler{}.Label.
func Label(m *Mask) (*Labels, error) {
	return Labeler{Log: zerolog.Nop()}.Label(m)
}

// Label segments every 8-connected foreground region of m in one raster scan.
// Labels run from 1 in the order regions are first met, top to bottom and left
// to right. Only region boundaries are walked, so the cost is linear in the
// pixel count plus the total contour length.
func (lb Labeler) Label(m *Mask) (*Labels, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	limit := lb.maxLabel
	if limit <= 0 {
		limit = math.MaxInt32
	}
	warnAt := limit - limit/10

	s := &scan{
		mask:   m,
		labels: make([]int32, len(m.Pix)),
		probed: make([]bool, len(m.Pix)),
	}

	var count int32
	for row, p := 0, 0; row < m.Rows; row++ {
		var run int32
		for col := 0; col < m.Cols; col, p = col+1, p+1 {
			if m.Pix[p] {
				if run != 0 {
					s.labels[p] = run
					continue
				}

				run = s.labels[p]
				if run != 0 {
					continue
				}

				if count == limit {
					return nil, ErrLabelOverflow
				}
				count++
				if count == warnAt {
					lb.Log.Warn().
						Int32("label", count).
						Int32("limit", limit).
						Msg("label counter approaching limit")
				}
				run = count
				s.traceContour(point{row, col}, run, east)
				s.labels[p] = run
				continue
			}

			if run != 0 {
				// Unprobed background right after a run is the first pixel of a hole.
				if !s.probed[p] {
					s.traceContour(point{row, col - 1}, run, southEast)
				}
				run = 0
			}
		}
	}

	lb.Log.Debug().Int32("objects", count).Msg("labeling done")

	return &Labels{Rows: m.Rows, Cols: m.Cols, Pix: s.labels, Count: int(count)}, nil
}
