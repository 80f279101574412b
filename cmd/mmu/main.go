package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"mmu-filter/internal/batch"
	"mmu-filter/internal/config"
	"mmu-filter/internal/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: mmu [-b band] [-t binary|multi] [flags] <input-path> <output-path> <min-size>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Replaces every 8-connected object smaller than <min-size> pixels with no-data.")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	flag.Usage()
	os.Exit(1)
}

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	band := flag.Int("b", 0, "Input band (default: 1)")
	objType := flag.String("t", "", "Object type: binary or multi (default: binary)")
	keepCorner := flag.Bool("keep-corner", false, "Do not force pixel (0,0) to background before labeling")
	compression := flag.String("compression", "", "TIFF compression: deflate or none (default: deflate)")
	overwrite := flag.Bool("overwrite", false, "Replace an existing output image")
	preview := flag.String("preview", "", "Write a WebP preview of kept (white) and removed (red) pixels (path or auto)")
	histogram := flag.String("histogram", "", "Write a PNG histogram of object sizes (path or auto)")
	objects := flag.String("objects", "", "Write the relabeled objects of the filtered image, .mmul (path or auto)")
	report := flag.String("report", "", "Write the filter report as JSON (path or auto)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (default: info)")
	logJSON := flag.Bool("log-json", false, "Log as JSON lines instead of console text")

	var nodata *float64
	flag.Func("nodata", "No-data value, overrides the input metadata", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		nodata = &v
		return nil
	})

	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 3 {
		fail("expected <input-path> <output-path> <min-size>, got %d arguments", flag.NArg())
	}
	input, output := flag.Arg(0), flag.Arg(1)
	minSize, err := strconv.Atoi(flag.Arg(2))
	if err != nil {
		fail("minimum size must be an integer, got %q", flag.Arg(2))
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		MinSize:     minSize,
		Band:        *band,
		Type:        *objType,
		NoData:      nodata,
		KeepCorner:  *keepCorner,
		Compression: *compression,
		Overwrite:   *overwrite,
		Preview:     *preview,
		Histogram:   *histogram,
		Objects:     *objects,
		Report:      *report,
		LogLevel:    *logLevel,
		LogJSON:     *logJSON,
	})
	if minSize < 1 {
		fail("minimum size must be >= 1, got %d", minSize)
	}
	if err := cfg.Validate(); err != nil {
		fail("%v", err)
	}

	log, err := logger.Setup(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fail("%v", err)
	}
	log = logger.Component(log, "mmu")

	if cfg.Type == config.TypeMulti {
		log.Warn().Msg("multi-value objects are not supported, treating input as binary")
		cfg.Type = config.TypeBinary
	}

	if _, err := os.Stat(input); err != nil {
		fail("input image does not exist: %s", input)
	}
	if !cfg.Overwrite {
		if _, err := os.Stat(output); err == nil {
			fail("output image already exists: %s", output)
		}
	}

	res := batch.Process(batch.Config{Settings: cfg, Log: log}, batch.NewJob(cfg, input, output))
	if !res.Success {
		fmt.Fprintf(os.Stderr, "Error: %s\n", res.Error)
		os.Exit(1)
	}

	log.Info().
		Int("objects", res.Report.Objects).
		Int("removed_objects", res.Report.RemovedObjects).
		Int("removed_pixels", res.Report.RemovedPixels).
		Dur("elapsed", res.Elapsed).
		Msg("done")
}
