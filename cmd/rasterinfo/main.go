package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mmu-filter/internal/conncomp"
	"mmu-filter/internal/postprocess"
	"mmu-filter/internal/raster"
	"mmu-filter/internal/rasterio"
)

func main() {
	band := flag.Int("b", 1, "Band to inspect")
	minSize := flag.Int("min-size", 0, "Also count objects smaller than this many pixels")
	var nodata *float64
	flag.Func("nodata", "No-data value, overrides the input metadata", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		nodata = &v
		return nil
	})
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: rasterinfo [-b band] [-min-size n] [-nodata v] <raster|labels.mmul>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	if strings.EqualFold(filepath.Ext(path), ".mmul") {
		if err := inspectLabels(path); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ds, err := rasterio.Open(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Driver: %s\n", ds.Format)
	fmt.Printf("Size: %d x %d, Bands: %d, Type: %s\n", ds.Cols, ds.Rows, ds.Bands, ds.Type)

	r, err := ds.Band(*band)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if nodata != nil {
		r.NoData, r.HasNoData = *nodata, true
	}

	ox, oy := r.Origin()
	rx, ry := r.Resolution()
	fmt.Printf("Projection: %q\n", r.Projection)
	fmt.Printf("Origin: (%.6f, %.6f)\n", ox, oy)
	fmt.Printf("Pixel Size: (%.6f, %.6f)\n", rx, ry)
	if r.Description != "" {
		fmt.Printf("Description: %s\n", r.Description)
	}

	vals := make([]float64, len(r.Data))
	for i, v := range r.Data {
		vals[i] = float64(v)
	}
	fmt.Printf("Band %d:\n", *band)
	if len(vals) > 0 {
		mean, std := stat.MeanStdDev(vals, nil)
		fmt.Printf("  Min=%.3f Max=%.3f Mean=%.3f StdDev=%.3f\n", floats.Min(vals), floats.Max(vals), mean, std)
	}
	if !r.HasNoData {
		fmt.Println("  NoData: none (objects not counted)")
		return
	}
	fmt.Printf("  NoData Value=%g\n", r.NoData)

	mask, err := raster.Foreground(r)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Foreground: %d of %d pixels\n", mask.Count(), r.Cells())

	if *minSize < 1 {
		labels, err := conncomp.Label(mask)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		sizes, err := conncomp.CountSizes(mask, labels)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printObjects(sizes)
		return
	}

	res, err := conncomp.Filter(mask, *minSize)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printObjects(res.Sizes)
	fmt.Printf("  Below %d pixels: %d objects, %d pixels\n", *minSize, res.Removed.Objects, res.Removed.Pixels)
}

func printObjects(sizes conncomp.SizeTable) {
	s := postprocess.SizeStats(sizes.Sizes())
	fmt.Printf("  Objects: %d\n", s.Count)
	if s.Count > 0 {
		fmt.Printf("  Object size: min=%d max=%d mean=%.1f median=%.1f p90=%.1f\n",
			int(s.Min), int(s.Max), s.Mean, s.Median, s.P90)
	}
}

func inspectLabels(path string) error {
	labels, sizes, err := rasterio.ReadLabels(path)
	if err != nil {
		return err
	}
	fmt.Printf("Label dump: %d x %d\n", labels.Cols, labels.Rows)
	printObjects(sizes)
	fmt.Printf("  Labeled pixels: %d\n", sizes.Total())
	return nil
}
