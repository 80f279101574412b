package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmu-filter/internal/config"
	"mmu-filter/internal/postprocess"
	"mmu-filter/internal/raster"
	"mmu-filter/internal/rasterio"
)

// writeInput stores rows of digits as a Byte PNG with no-data 0.
func writeInput(t *testing.T, path string, nodata bool, rows ...string) {
	t.Helper()
	r := raster.New(len(rows), len(rows[0]), raster.Byte)
	r.HasNoData = nodata
	for i, line := range rows {
		for j, ch := range line {
			r.Set(i, j, float32(ch-'0'))
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, rasterio.Write(path, r, rasterio.DefaultWriteOptions()))
}

func settings(minSize int) config.Config {
	s := config.Config{MinSize: minSize}
	s.Resolve(config.Flags{})
	return s
}

var scene = []string{
	"0000000",
	"0330007",
	"0330000",
	"0000550",
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeInput(t, in, true, scene...)

	job := Job{
		Input:     in,
		Output:    filepath.Join(dir, "out.tif"),
		Preview:   filepath.Join(dir, "out.webp"),
		Histogram: filepath.Join(dir, "out.sizes.png"),
		Objects:   filepath.Join(dir, "out.mmul"),
		Report:    filepath.Join(dir, "out.json"),
	}
	res := Process(Config{Settings: settings(3), Log: zerolog.Nop()}, job)
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.Report)
	assert.Equal(t, 2, res.Report.RemovedObjects)
	assert.Equal(t, 3, res.Report.RemovedPixels)

	ds, err := rasterio.Open(job.Output)
	require.NoError(t, err)
	out, err := ds.Band(1)
	require.NoError(t, err)
	assert.Equal(t, postprocess.Description, out.Description)
	assert.True(t, out.HasNoData)
	assert.Equal(t, []float32{
		0, 0, 0, 0, 0, 0, 0,
		0, 3, 3, 0, 0, 0, 0,
		0, 3, 3, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0,
	}, out.Data)

	for _, p := range []string{job.Preview, job.Histogram, job.Objects, job.Report} {
		assert.FileExists(t, p)
	}

	labels, sizes, err := rasterio.ReadLabels(job.Objects)
	require.NoError(t, err)
	assert.Equal(t, 1, labels.Count)
	assert.Equal(t, []int{4}, sizes.Sizes())

	data, err := os.ReadFile(job.Report)
	require.NoError(t, err)
	var rep postprocess.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, *res.Report, rep)
}

func TestProcess_OutputExists(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeInput(t, in, true, scene...)
	require.NoError(t, os.WriteFile(out, []byte("keep"), 0644))

	res := Process(Config{Settings: settings(3), Log: zerolog.Nop()}, Job{Input: in, Output: out})
	assert.False(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Contains(t, res.Error, "already exists")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	s := settings(3)
	s.Overwrite = true
	res = Process(Config{Settings: s, Log: zerolog.Nop()}, Job{Input: in, Output: out})
	assert.True(t, res.Success, res.Error)
}

func TestProcess_Errors(t *testing.T) {
	dir := t.TempDir()
	noNoData := filepath.Join(dir, "plain.png")
	writeInput(t, noNoData, false, scene...)

	tests := []struct {
		name  string
		setup func(*config.Config)
		input string
		want  string
	}{
		{"missing input", nil, filepath.Join(dir, "nope.png"), "does not exist"},
		{"no nodata", nil, noNoData, "nodata"},
		{"bad band", func(s *config.Config) { s.Band = 2 }, noNoData, "band"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings(3)
			if tt.setup != nil {
				tt.setup(&s)
			}
			out := filepath.Join(dir, "out"+string(rune('a'+i))+".tif")
			res := Process(Config{Settings: s, Log: zerolog.Nop()}, Job{Input: tt.input, Output: out})
			assert.False(t, res.Success)
			assert.False(t, res.Skipped)
			assert.Contains(t, res.Error, tt.want)
			assert.NoFileExists(t, out)
		})
	}
}

func TestLoad_NoDataOverride(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plain.png")
	writeInput(t, in, false, scene...)

	s := settings(3)
	nodata := 7.0
	s.NoData = &nodata
	r, err := Load(s, in, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, r.HasNoData)
	assert.Equal(t, 7.0, r.NoData)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var jobs []Job
	for _, name := range []string{"a", "b", "c", "d"} {
		in := filepath.Join(dir, name+".png")
		writeInput(t, in, true, scene...)
		jobs = append(jobs, Job{Input: in, Output: filepath.Join(dir, name+"_mmu.png")})
	}
	jobs = append(jobs, Job{Input: filepath.Join(dir, "missing.png"), Output: filepath.Join(dir, "x.png")})

	s := settings(3)
	s.Workers = 3
	results := Run(context.Background(), Config{Settings: s, Log: zerolog.Nop()}, jobs)
	require.Len(t, results, len(jobs))
	for i, r := range results[:4] {
		assert.Equal(t, jobs[i], r.Job)
		assert.True(t, r.Success, r.Error)
	}
	assert.False(t, results[4].Success)

	m := NewManifest(Config{Settings: s}, time.Now(), results)
	assert.Equal(t, 4, m.Succeeded)
	assert.Equal(t, 1, m.Failed)
	assert.Equal(t, 0, m.Skipped)
	_, err := uuid.Parse(m.RunID)
	assert.NoError(t, err)

	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(path, m))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m.RunID, got.RunID)
	assert.Len(t, got.Results, len(jobs))
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	writeInput(t, in, true, scene...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, Config{Settings: settings(3), Log: zerolog.Nop()},
		[]Job{{Input: in, Output: filepath.Join(dir, "out.png")}})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, context.Canceled.Error(), results[0].Error)
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}
