package postprocess

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoObjects is returned when there is nothing to plot.
var ErrNoObjects = errors.New("postprocess: no objects")

// SaveSizeHistogram plots the distribution of log10 object sizes with the
// minimum mapping unit marked. The image format follows the file extension
// (png, svg, pdf, ...).
func SaveSizeHistogram(path string, sizes []int, minSize int, bins int) error {
	if len(sizes) == 0 {
		return ErrNoObjects
	}
	if bins <= 0 {
		bins = 30
	}

	values := make(plotter.Values, len(sizes))
	for i, n := range sizes {
		values[i] = math.Log10(float64(n))
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Object sizes (%d objects, MMU %d px)", len(sizes), minSize)
	p.X.Label.Text = "log10(size in pixels)"
	p.Y.Label.Text = "objects"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return fmt.Errorf("postprocess: histogram: %w", err)
	}
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		top = math.Max(top, b.Weight)
	}
	mmu := math.Log10(float64(minSize))
	line, err := plotter.NewLine(plotter.XYs{{X: mmu, Y: 0}, {X: mmu, Y: top}})
	if err != nil {
		return fmt.Errorf("postprocess: threshold line: %w", err)
	}
	line.Width = vg.Points(1.5)
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(line)
	p.Legend.Add("MMU", line)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("postprocess: save %s: %w", path, err)
	}
	return nil
}
