package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"mmu-filter/internal/config"
	"mmu-filter/internal/postprocess"
	"mmu-filter/internal/raster"
	"mmu-filter/internal/rasterio"
)

// ErrOutputExists is returned when the output raster is already on disk and
// overwriting is off.
var ErrOutputExists = errors.New("batch: output image already exists")

// Config holds all shared settings for a batch run.
type Config struct {
	Settings config.Config
	Log      zerolog.Logger
}

// Job is one raster to filter. Empty artifact paths are skipped.
type Job struct {
	Input     string `json:"input"`
	Output    string `json:"output"`
	Preview   string `json:"preview,omitempty"`
	Histogram string `json:"histogram,omitempty"`
	Objects   string `json:"objects,omitempty"`
	Report    string `json:"report,omitempty"`
}

// Result holds the outcome of processing one job.
type Result struct {
	Job
	Success bool                `json:"success"`
	Skipped bool                `json:"skipped,omitempty"`
	Error   string              `json:"error,omitempty"`
	Report  *postprocess.Report `json:"report,omitempty"`
	Elapsed time.Duration       `json:"elapsed_ns"`
}

// Run processes all jobs using a worker pool. Each raster is filtered by a
// single worker; jobs not started before ctx is done are reported as failed.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()
	workers := max(1, cfg.Settings.Workers)

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					cfg.Log.Info().
						Int64("done", p).
						Int("total", total).
						Float64("rasters_per_sec", rate).
						Msg("progress")
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Job: jobs[idx], Error: err.Error()}
				} else {
					results[idx] = Process(cfg, jobs[idx])
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

// Process filters one raster and writes its output and artifacts.
func Process(cfg Config, job Job) Result {
	start := time.Now()
	log := cfg.Log.With().Str("input", job.Input).Logger()

	rep, err := processJob(cfg.Settings, job, log)
	res := Result{Job: job, Elapsed: time.Since(start)}
	switch {
	case errors.Is(err, ErrOutputExists) && !cfg.Settings.Overwrite:
		res.Skipped = true
		res.Error = err.Error()
		log.Warn().Str("output", job.Output).Msg("output exists, skipped")
	case err != nil:
		res.Error = err.Error()
		log.Error().Err(err).Msg("filter failed")
	default:
		res.Success = true
		res.Report = rep
	}
	return res
}

func processJob(s config.Config, job Job, log zerolog.Logger) (*postprocess.Report, error) {
	if _, err := os.Stat(job.Input); err != nil {
		return nil, fmt.Errorf("batch: input image does not exist: %s", job.Input)
	}
	if !s.Overwrite {
		if _, err := os.Stat(job.Output); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, job.Output)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("batch: stat %s: %w", job.Output, err)
		}
	}

	r, err := Load(s, job.Input, log)
	if err != nil {
		return nil, err
	}

	res, err := postprocess.RemoveSmallObjects(r, postprocess.Options{
		MinSize:     s.MinSize,
		ForceCorner: s.ForceCorner == nil || *s.ForceCorner,
		Log:         log,
	})
	if err != nil {
		return nil, err
	}

	if err := rasterio.Write(job.Output, res.Raster, s.WriteOptions()); err != nil {
		return nil, err
	}

	if err := writeArtifacts(s, job, res, log); err != nil {
		return nil, err
	}

	log.Info().
		Str("output", job.Output).
		Int("removed_objects", res.Report.RemovedObjects).
		Int("removed_pixels", res.Report.RemovedPixels).
		Msg("written")
	return &res.Report, nil
}

// Load opens the input band, applies the no-data override and logs the
// raster summary.
func Load(s config.Config, path string, log zerolog.Logger) (*raster.Raster, error) {
	ds, err := rasterio.Open(path)
	if err != nil {
		return nil, err
	}
	if err := ds.CheckType(); err != nil {
		return nil, fmt.Errorf("batch: %s: %w", path, err)
	}

	r, err := ds.Band(s.Band)
	if err != nil {
		return nil, err
	}
	if s.NoData != nil {
		r.NoData = *s.NoData
		r.HasNoData = true
	}
	if !r.HasNoData {
		return nil, fmt.Errorf("%w: %s", raster.ErrNoData, path)
	}

	ox, oy := r.Origin()
	rx, ry := r.Resolution()
	log.Info().
		Str("format", string(ds.Format)).
		Str("projection", r.Projection).
		Str("origin", fmt.Sprintf("%.6f %.6f", ox, oy)).
		Str("resolution", fmt.Sprintf("%.6f %.6f", rx, ry)).
		Str("dimensions", fmt.Sprintf("%d x %d = %d pixels", r.Rows, r.Cols, r.Cells())).
		Float64("nodata", r.NoData).
		Str("datatype", r.Type.String()).
		Int("band", s.Band).
		Msg("input")
	return r, nil
}

func writeArtifacts(s config.Config, job Job, res *postprocess.Result, log zerolog.Logger) error {
	if job.Preview != "" {
		f, err := os.Create(job.Preview)
		if err != nil {
			return fmt.Errorf("batch: create %s: %w", job.Preview, err)
		}
		img := postprocess.Preview(res.Before, res.After, s.PreviewSize)
		if err := postprocess.EncodePreview(f, img); err != nil {
			f.Close()
			return fmt.Errorf("batch: encode %s: %w", job.Preview, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if job.Histogram != "" {
		err := postprocess.SaveSizeHistogram(job.Histogram, res.Sizes.Sizes(), s.MinSize, 0)
		if errors.Is(err, postprocess.ErrNoObjects) {
			log.Warn().Msg("no objects, histogram skipped")
		} else if err != nil {
			return err
		}
	}

	if job.Objects != "" {
		labels, sizes, err := res.Objects()
		if err != nil {
			return err
		}
		if err := rasterio.WriteLabels(job.Objects, labels, sizes); err != nil {
			return err
		}
	}

	if job.Report != "" {
		data, err := json.MarshalIndent(res.Report, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(job.Report, data, 0644); err != nil {
			return fmt.Errorf("batch: write %s: %w", job.Report, err)
		}
	}
	return nil
}
