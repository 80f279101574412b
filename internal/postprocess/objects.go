package postprocess

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"mmu-filter/internal/conncomp"
	"mmu-filter/internal/raster"
)

// Description is written into every filtered raster.
const Description = "MMU-filtered image"

// ErrMinSize is returned for a minimum mapping unit below one pixel.
var ErrMinSize = errors.New("postprocess: minimum size must be >= 1")

// Options configures RemoveSmallObjects.
type Options struct {
	// MinSize is the minimum mapping unit in pixels. Objects with fewer
	// pixels are replaced with no-data.
	MinSize int

	// ForceCorner treats pixel (0,0) as background before labeling. Its value
	// is left as it was, so a valid corner pixel is never removed.
	ForceCorner bool

	Log zerolog.Logger
}

// Result holds the filtered raster and what was done to it.
type Result struct {
	Raster *raster.Raster

	// Before is the foreground mask that was labeled, After the mask that survived.
	Before *conncomp.Mask
	After  *conncomp.Mask

	// Labels and Sizes describe the objects before filtering.
	Labels *conncomp.Labels
	Sizes  conncomp.SizeTable

	Report Report
}

// Report counts objects and pixels on both sides of the threshold.
type Report struct {
	MinSize        int   `json:"min_size"`
	Objects        int   `json:"objects"`
	RemovedObjects int   `json:"removed_objects"`
	RemovedPixels  int   `json:"removed_pixels"`
	KeptObjects    int   `json:"kept_objects"`
	KeptPixels     int   `json:"kept_pixels"`
	Stats          Stats `json:"size_stats"`
}

// RemoveSmallObjects replaces every 8-connected object smaller than
// opts.MinSize with the raster's no-data value. The input raster is not
// modified.
func RemoveSmallObjects(r *raster.Raster, opts Options) (*Result, error) {
	if opts.MinSize < 1 {
		return nil, ErrMinSize
	}

	before, err := raster.Foreground(r)
	if err != nil {
		return nil, err
	}
	if opts.ForceCorner && len(before.Pix) > 0 {
		before.Pix[0] = false
	}

	res, err := conncomp.NewLabeler(opts.Log).Filter(before, opts.MinSize)
	if err != nil {
		return nil, fmt.Errorf("postprocess: label: %w", err)
	}
	opts.Log.Info().Int("objects", res.Labels.Count).Msg("objects detected")

	out := r.Clone()
	out.Description = Description
	cleared := raster.ClearRemoved(out, before, res.Mask)

	rep := Report{
		MinSize:        opts.MinSize,
		Objects:        res.Labels.Count,
		RemovedObjects: res.Removed.Objects,
		RemovedPixels:  cleared,
		KeptObjects:    res.Labels.Count - res.Removed.Objects,
		KeptPixels:     res.Mask.Count(),
		Stats:          SizeStats(res.Sizes.Sizes()),
	}

	opts.Log.Debug().
		Int("removed_objects", rep.RemovedObjects).
		Int("removed_pixels", rep.RemovedPixels).
		Int("kept_objects", rep.KeptObjects).
		Msg("small objects removed")

	return &Result{
		Raster: out,
		Before: before,
		After:  res.Mask,
		Labels: res.Labels,
		Sizes:  res.Sizes,
		Report: rep,
	}, nil
}

// Objects relabels the surviving mask so that object IDs are dense again
// after filtering.
func (res *Result) Objects() (*conncomp.Labels, conncomp.SizeTable, error) {
	labels, err := conncomp.Label(res.After)
	if err != nil {
		return nil, nil, err
	}
	sizes, err := conncomp.CountSizes(res.After, labels)
	if err != nil {
		return nil, nil, err
	}
	return labels, sizes, nil
}
