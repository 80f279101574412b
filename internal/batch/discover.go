package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mmu-filter/internal/config"
	"mmu-filter/internal/rasterio"
)

// Discover walks s.InputDir for rasters with one of s.Formats and maps each
// to an output under s.OutputDir, keeping the relative directory layout.
// Outputs are named <stem><suffix><ext>, falling back to .tif for formats
// without an encoder; artifact paths hang off the same
// stem when the matching setting is non-empty. The output directory itself
// is never scanned, and files already named with the suffix are skipped.
func Discover(s config.Config) ([]Job, error) {
	exts := make(map[string]bool, len(s.Formats))
	for _, e := range s.Formats {
		exts[strings.ToLower(e)] = true
	}

	outAbs, _ := filepath.Abs(s.OutputDir)

	var jobs []Job
	err := filepath.WalkDir(s.InputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); abs == outAbs && path != s.InputDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !exts[ext] {
			return nil
		}
		// Outputs of an earlier run, when they share the input tree.
		if s.Suffix != "" && strings.HasSuffix(strings.TrimSuffix(d.Name(), filepath.Ext(path)), s.Suffix) {
			return nil
		}

		rel, err := filepath.Rel(s.InputDir, path)
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(rel, filepath.Ext(rel)) + s.Suffix
		base := filepath.Join(s.OutputDir, stem)

		outExt := filepath.Ext(path)
		if f, _ := rasterio.FormatOf(path); !f.Writable() {
			outExt = ".tif"
		}
		jobs = append(jobs, withArtifacts(Job{Input: path, Output: base + outExt}, s, base, false))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", s.InputDir, err)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Input < jobs[j].Input })
	return jobs, nil
}

// NewJob builds the job of a single-file run. Artifact settings are used as
// paths, except config.Auto, which names the artifact after output.
func NewJob(s config.Config, input, output string) Job {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return withArtifacts(Job{Input: input, Output: output}, s, base, true)
}

// withArtifacts fills the artifact paths enabled in s. Derived names hang off
// base; configured paths are kept only when fixed is set.
func withArtifacts(job Job, s config.Config, base string, fixed bool) Job {
	job.Preview = artifact(s.Preview, base+".preview.webp", fixed)
	job.Histogram = artifact(s.Histogram, base+".sizes.png", fixed)
	job.Objects = artifact(s.Objects, base+".mmul", fixed)
	job.Report = artifact(s.Report, base+".report.json", fixed)
	return job
}

func artifact(setting, derived string, fixed bool) string {
	switch {
	case setting == "":
		return ""
	case fixed && setting != config.Auto:
		return setting
	}
	return derived
}

// PrepareOutputs creates the output directories of all jobs.
func PrepareOutputs(jobs []Job) error {
	seen := make(map[string]bool)
	for _, j := range jobs {
		dir := filepath.Dir(j.Output)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("batch: mkdir %s: %w", dir, err)
		}
	}
	return nil
}
