package conncomp

import "fmt"

// SizeTable maps a component label to its pixel count. Index 0 is unused.
type SizeTable []int

// Objects returns the number of labeled components.
func (t SizeTable) Objects() int {
	if len(t) == 0 {
		return 0
	}
	return len(t) - 1
}

// Total returns the number of labeled pixels.
func (t SizeTable) Total() int {
	n := 0
	for _, v := range t[min(1, len(t)):] {
		n += v
	}
	return n
}

// Sizes returns the component sizes without the unused zero slot.
func (t SizeTable) Sizes() []int {
	if len(t) == 0 {
		return nil
	}
	return t[1:]
}

// CountSizes counts the foreground pixels carrying each label.
func CountSizes(m *Mask, l *Labels) (SizeTable, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if err := l.matches(m); err != nil {
		return nil, err
	}

	sizes := make(SizeTable, l.Count+1)
	for p, fg := range m.Pix {
		if fg {
			sizes[l.Pix[p]]++
		}
	}
	return sizes, nil
}

// Removal summarizes what RemoveSmall cleared.
type Removal struct {
	Objects int
	Pixels  int
}

// RemoveSmall clears, in place, every foreground pixel of m whose component is
// smaller than minSize. Components of minSize pixels or more are left alone and
// the label grid is not modified.
func RemoveSmall(m *Mask, l *Labels, sizes SizeTable, minSize int) (Removal, error) {
	if minSize < 1 {
		return Removal{}, ErrMinSize
	}
	if err := m.validate(); err != nil {
		return Removal{}, err
	}
	if err := l.matches(m); err != nil {
		return Removal{}, err
	}
	if len(sizes) != l.Count+1 {
		return Removal{}, fmt.Errorf("%w: %d sizes for %d labels", ErrShape, len(sizes), l.Count)
	}

	var r Removal
	for _, n := range sizes.Sizes() {
		if n > 0 && n < minSize {
			r.Objects++
		}
	}

	for p, fg := range m.Pix {
		if !fg {
			continue
		}
		id := l.Pix[p]
		if id == 0 {
			continue
		}
		if sizes[id] < minSize {
			m.Pix[p] = false
			r.Pixels++
		}
	}
	return r, nil
}

// Result bundles the outputs of Filter.
type Result struct {
	// Mask is the filtered copy of the input mask.
	Mask    *Mask
	Labels  *Labels
	Sizes   SizeTable
	Removed Removal
}

// Filter labels m and returns a copy with all components under minSize pixels
// cleared. The input mask is not modified.
func (lb Labeler) Filter(m *Mask, minSize int) (*Result, error) {
	if minSize < 1 {
		return nil, ErrMinSize
	}

	labels, err := lb.Label(m)
	if err != nil {
		return nil, err
	}
	sizes, err := CountSizes(m, labels)
	if err != nil {
		return nil, err
	}

	out := m.Clone()
	removed, err := RemoveSmall(out, labels, sizes, minSize)
	if err != nil {
		return nil, err
	}

	return &Result{Mask: out, Labels: labels, Sizes: sizes, Removed: removed}, nil
}

// Filter is shorthand for Labeler{}.Filter.
func Filter(m *Mask, minSize int) (*Result, error) {
	return Labeler{}.Filter(m, minSize)
}
