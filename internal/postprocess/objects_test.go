package postprocess

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmu-filter/internal/conncomp"
	"mmu-filter/internal/raster"
)

// rasterOf builds a Byte raster with no-data 0 from rows of digits.
func rasterOf(t *testing.T, rows ...string) *raster.Raster {
	t.Helper()
	r := raster.New(len(rows), len(rows[0]), raster.Byte)
	r.HasNoData = true
	for i, line := range rows {
		require.Len(t, line, r.Cols)
		for j, ch := range line {
			r.Set(i, j, float32(ch-'0'))
		}
	}
	return r
}

func TestRemoveSmallObjects(t *testing.T) {
	r := rasterOf(t,
		"0000000",
		"0330007",
		"0330000",
		"0000550",
	)

	res, err := RemoveSmallObjects(r, Options{MinSize: 3, Log: zerolog.Nop()})
	require.NoError(t, err)

	want := rasterOf(t,
		"0000000",
		"0330000",
		"0330000",
		"0000000",
	)
	assert.Equal(t, want.Data, res.Raster.Data)
	assert.Equal(t, Description, res.Raster.Description)

	assert.Equal(t, Report{
		MinSize:        3,
		Objects:        3,
		RemovedObjects: 2,
		RemovedPixels:  3,
		KeptObjects:    1,
		KeptPixels:     4,
		Stats:          SizeStats([]int{4, 1, 2}),
	}, res.Report)

	// Input is untouched.
	assert.Equal(t, float32(7), r.At(1, 6))
}

func TestRemoveSmallObjects_KeepsValues(t *testing.T) {
	r := rasterOf(t,
		"012",
		"345",
	)
	res, err := RemoveSmallObjects(r, Options{MinSize: 5})
	require.NoError(t, err)
	assert.Equal(t, r.Data, res.Raster.Data)
	assert.Equal(t, 1, res.Report.KeptObjects)
}

func TestRemoveSmallObjects_ForceCorner(t *testing.T) {
	r := rasterOf(t,
		"900",
		"000",
		"008",
	)

	res, err := RemoveSmallObjects(r, Options{MinSize: 2, ForceCorner: true})
	require.NoError(t, err)
	// The corner is excluded from labeling, so its value survives.
	assert.Equal(t, float32(9), res.Raster.At(0, 0))
	assert.Equal(t, float32(0), res.Raster.At(2, 2))
	assert.Equal(t, 1, res.Report.Objects)
	assert.False(t, res.Before.At(0, 0))

	res, err = RemoveSmallObjects(r, Options{MinSize: 2})
	require.NoError(t, err)
	assert.Equal(t, float32(0), res.Raster.At(0, 0))
	assert.Equal(t, 2, res.Report.Objects)
}

func TestRemoveSmallObjects_Errors(t *testing.T) {
	r := rasterOf(t, "1")

	_, err := RemoveSmallObjects(r, Options{MinSize: 0})
	assert.ErrorIs(t, err, ErrMinSize)

	r.HasNoData = false
	_, err = RemoveSmallObjects(r, Options{MinSize: 1})
	assert.ErrorIs(t, err, raster.ErrNoData)
}

func TestRemoveSmallObjects_LogsObjectCount(t *testing.T) {
	var buf bytes.Buffer
	r := rasterOf(t, "101")

	_, err := RemoveSmallObjects(r, Options{MinSize: 1, Log: zerolog.New(&buf)})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"objects":2`)
	assert.Contains(t, buf.String(), "objects detected")
}

func TestResult_Objects(t *testing.T) {
	r := rasterOf(t,
		"1100100",
		"1100000",
		"0000011",
	)
	res, err := RemoveSmallObjects(r, Options{MinSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, res.Labels.Count)

	labels, sizes, err := res.Objects()
	require.NoError(t, err)
	assert.Equal(t, 2, labels.Count)
	assert.Equal(t, conncomp.SizeTable{0, 4, 2}, sizes)
	assert.Equal(t, int32(0), labels.At(0, 4))
	assert.Equal(t, int32(2), labels.At(2, 6))
}

func TestSizeStats(t *testing.T) {
	s := SizeStats([]int{1, 2, 3, 4, 10})
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
	assert.InDelta(t, 4.0, s.Mean, 1e-9)
	assert.Equal(t, 3.0, s.Median)
	assert.Greater(t, s.StdDev, 0.0)

	assert.Equal(t, Stats{}, SizeStats(nil))
	one := SizeStats([]int{7})
	assert.Equal(t, 7.0, one.Median)
	assert.Zero(t, one.StdDev)
}

func TestSaveSizeHistogram(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sizes.png")

	require.NoError(t, SaveSizeHistogram(path, []int{1, 1, 2, 5, 40, 300}, 10, 0))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	err = SaveSizeHistogram(filepath.Join(dir, "none.png"), nil, 10, 0)
	assert.ErrorIs(t, err, ErrNoObjects)
}

func TestPreview(t *testing.T) {
	before := &conncomp.Mask{Rows: 1, Cols: 3, Pix: []bool{true, true, false}}
	after := &conncomp.Mask{Rows: 1, Cols: 3, Pix: []bool{true, false, false}}

	img := Preview(before, after, 0)
	require.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, []uint8{255, 255, 255, 255}, img.Pix[0:4])
	assert.Equal(t, []uint8{220, 40, 40, 255}, img.Pix[4:8])
	assert.Equal(t, []uint8{0, 0, 0, 0}, img.Pix[8:12])

	var buf bytes.Buffer
	require.NoError(t, EncodePreview(&buf, img))
	assert.Positive(t, buf.Len())
}

func TestDownsample(t *testing.T) {
	src := conncomp.NewMask(40, 100)
	for i := range src.Pix {
		src.Pix[i] = true
	}
	img := Preview(src, src, 50)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
	// Uniform input stays uniform.
	assert.Equal(t, uint8(255), img.Pix[img.PixOffset(25, 10)+3])
}
