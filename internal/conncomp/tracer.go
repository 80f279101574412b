package conncomp

// direction indexes the 8-neighborhood clockwise, starting at east.
type direction int

const (
	east direction = 0
	// southEast is where internal contours start: the hole pixel lies east of the seed.
	southEast direction = 1
)

type point struct {
	row, col int
}

// offsets holds the (row, col) step for each direction.
var offsets = [8]point{
	{0, 1},   // E
	{1, 1},   // SE
	{1, 0},   // S
	{1, -1},  // SW
	{0, -1},  // W
	{-1, -1}, // NW
	{-1, 0},  // N
	{-1, 1},  // NE
}

func (d direction) next() direction {
	return (d + 1) % 8
}

// back2 turns two steps counter-clockwise, toward the outward side of the
// boundary pixel just left behind.
func (d direction) back2() direction {
	return (d + 6) % 8
}

// scan is the per-call state of one labeling pass.
type scan struct {
	mask   *Mask
	labels []int32
	// probed marks background pixels the tracer has already looked at.
	// Together with labels it gives every cell one of three states:
	// unvisited, probed background, or labeled.
	probed []bool
}

func (s *scan) inside(p point) bool {
	return p.row >= 0 && p.row < s.mask.Rows && p.col >= 0 && p.col < s.mask.Cols
}

func (s *scan) index(p point) int {
	return p.row*s.mask.Cols + p.col
}

// trace looks for the next foreground pixel around p, rotating clockwise from d
// through at most seven neighbors. Background neighbors inside the raster are
// marked probed. It returns the neighbor found and the direction that reached it;
// an isolated pixel comes back unchanged.
func (s *scan) trace(p point, d direction) (point, direction) {
	for i := 0; i < 7; i++ {
		q := point{p.row + offsets[d].row, p.col + offsets[d].col}
		if s.inside(q) {
			idx := s.index(q)
			if s.mask.Pix[idx] {
				return q, d
			}
			s.probed[idx] = true
		}
		d = d.next()
	}
	return p, d
}

// traceContour walks the contour through seed and gives every pixel on it the
// label. The walk is closed once it comes back to seed and the step after that
// lands on the first pixel visited; touching seed alone is not enough for
// contours with one-pixel-wide spurs.
func (s *scan) traceContour(seed point, label int32, d direction) {
	p, d := s.trace(seed, d)
	if p == seed {
		return
	}
	first := p

	returnedToSeed := false
	for {
		d = d.back2()
		s.labels[s.index(p)] = label
		p, d = s.trace(p, d)

		switch {
		case p == seed:
			returnedToSeed = true
		case returnedToSeed:
			if p == first {
				return
			}
			returnedToSeed = false
		}
	}
}
