package conncomp

import (
	"math/rand"
	"testing"
)

// maskOf builds a mask from rows of '#' (foreground) and '.' (background).
func maskOf(t *testing.T, rows ...string) *Mask {
	t.Helper()
	if len(rows) == 0 {
		return NewMask(0, 0)
	}
	m := NewMask(len(rows), len(rows[0]))
	for r, line := range rows {
		if len(line) != m.Cols {
			t.Fatalf("row %d has %d columns, want %d", r, len(line), m.Cols)
		}
		for c, ch := range line {
			m.Set(r, c, ch == '#')
		}
	}
	return m
}

func randomMask(rng *rand.Rand, rows, cols int, density float64) *Mask {
	m := NewMask(rows, cols)
	for i := range m.Pix {
		m.Pix[i] = rng.Float64() < density
	}
	return m
}

// floodLabels is a breadth-first 8-connected reference labeling. Components are
// numbered in row-major order of their first pixel.
func floodLabels(m *Mask) ([]int32, int) {
	labels := make([]int32, len(m.Pix))
	var next int32
	queue := make([]int, 0, 64)

	for start, fg := range m.Pix {
		if !fg || labels[start] != 0 {
			continue
		}
		next++
		labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			cr, cc := cur/m.Cols, cur%m.Cols
			for _, o := range offsets {
				r, c := cr+o.row, cc+o.col
				if r < 0 || r >= m.Rows || c < 0 || c >= m.Cols {
					continue
				}
				ni := r*m.Cols + c
				if m.Pix[ni] && labels[ni] == 0 {
					labels[ni] = next
					queue = append(queue, ni)
				}
			}
		}
	}
	return labels, int(next)
}
