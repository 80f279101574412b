package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mmu-filter/internal/batch"
	"mmu-filter/internal/config"
	"mmu-filter/internal/logger"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	inputDir := flag.String("input", "", "Directory of input rasters")
	outputDir := flag.String("output", "", "Output directory (default: <input>/mmu)")
	minSize := flag.Int("min-size", 0, "Minimum mapping unit in pixels")
	band := flag.Int("b", 0, "Input band (default: 1)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: 1)")
	overwrite := flag.Bool("overwrite", false, "Replace existing outputs instead of skipping them")
	preview := flag.Bool("preview", false, "Write a WebP preview next to each output")
	histogram := flag.Bool("histogram", false, "Write a PNG histogram of object sizes next to each output")
	objects := flag.Bool("objects", false, "Write the relabeled objects of each output (.mmul)")
	report := flag.Bool("report", false, "Write a JSON report next to each output")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (default: info)")
	logJSON := flag.Bool("log-json", false, "Log as JSON lines instead of console text")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		MinSize:   *minSize,
		Band:      *band,
		InputDir:  *inputDir,
		OutputDir: *outputDir,
		Workers:   *workers,
		Overwrite: *overwrite,
		Preview:   auto(*preview),
		Histogram: auto(*histogram),
		Objects:   auto(*objects),
		Report:    auto(*report),
		LogLevel:  *logLevel,
		LogJSON:   *logJSON,
	})

	if cfg.InputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: no input directory. Use -input flag or config.json.")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Setup(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log = logger.Component(log, "batch")

	if cfg.Type == config.TypeMulti {
		log.Warn().Msg("multi-value objects are not supported, treating inputs as binary")
		cfg.Type = config.TypeBinary
	}

	jobs, err := batch.Discover(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(jobs) == 0 {
		fmt.Println("No rasters to filter.")
		os.Exit(0)
	}
	if err := batch.PrepareOutputs(jobs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("MMU filter: %d rasters, min size %d, band %d, workers %d\n",
		len(jobs), cfg.MinSize, cfg.Band, cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	batchCfg := batch.Config{Settings: cfg, Log: log}
	results := batch.Run(ctx, batchCfg, jobs)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	m := batch.NewManifest(batchCfg, start, results)
	fmt.Printf("Filtered: %d/%d, skipped: %d\n", m.Succeeded, len(jobs), m.Skipped)

	if m.Failed > 0 {
		fmt.Printf("\nFailed (%d):\n", m.Failed)
		shown := 0
		for _, r := range results {
			if r.Success || r.Skipped {
				continue
			}
			fmt.Printf("  %s: %s\n", r.Input, r.Error)
			if shown++; shown == 20 {
				break
			}
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, m); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s (run %s)\n", manifestPath, m.RunID)
	}

	if m.Failed > 0 {
		os.Exit(1)
	}
}

// auto turns an enable flag into an artifact setting.
func auto(on bool) string {
	if on {
		return config.Auto
	}
	return ""
}
