package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmu-filter/internal/conncomp"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b float32
		want bool
	}{
		{"identical", 3, 3, true},
		{"zero", 0, 0, true},
		{"one ulp at 1", 1, math.Nextafter32(1, 2), true},
		{"two ulps at 1", 1, math.Nextafter32(math.Nextafter32(1, 2), 2), false},
		{"scaled magnitude", 1e6, 1e6 + 0.0625, true},
		{"clearly different", 0, 1, false},
		{"negative", -9999, -9999, true},
		{"sign", -1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestForeground(t *testing.T) {
	r := New(2, 3, UInt16)
	r.HasNoData = true
	r.NoData = 0
	copy(r.Data, []float32{0, 5, 0, 7, 0, 65535})

	m, err := Foreground(r)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, true, false, true}, m.Pix)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 3, m.Cols)
}

func TestForeground_NonZeroNoData(t *testing.T) {
	r := New(1, 4, Byte)
	r.HasNoData = true
	r.NoData = 255
	copy(r.Data, []float32{255, 0, 254, 255})

	m, err := Foreground(r)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, m.Pix)
}

func TestForeground_RequiresNoData(t *testing.T) {
	_, err := Foreground(New(1, 1, Byte))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestClearRemoved(t *testing.T) {
	r := New(1, 4, Byte)
	r.HasNoData = true
	r.NoData = 9
	copy(r.Data, []float32{1, 2, 3, 4})

	before := &conncomp.Mask{Rows: 1, Cols: 4, Pix: []bool{true, true, false, true}}
	after := &conncomp.Mask{Rows: 1, Cols: 4, Pix: []bool{true, false, false, false}}

	n := ClearRemoved(r, before, after)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float32{1, 9, 3, 9}, r.Data)
}

func TestRasterAccessors(t *testing.T) {
	r := New(2, 2, Byte)
	r.GeoTransform = [6]float64{500000, 30, 0, 4200000, 0, -30}
	r.Set(1, 0, 42)

	assert.Equal(t, float32(42), r.At(1, 0))
	assert.Equal(t, 4, r.Cells())

	x, y := r.Origin()
	assert.Equal(t, 500000.0, x)
	assert.Equal(t, 4200000.0, y)
	rx, ry := r.Resolution()
	assert.Equal(t, 30.0, rx)
	assert.Equal(t, -30.0, ry)

	c := r.Clone()
	c.Set(1, 0, 1)
	assert.Equal(t, float32(42), r.At(1, 0))
}

func TestDataType(t *testing.T) {
	for _, dt := range []DataType{Byte, UInt16} {
		got, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}
	_, err := ParseDataType("Float64")
	assert.Error(t, err)
	assert.Equal(t, 255.0, Byte.Max())
	assert.Equal(t, "Unknown", Unknown.String())
}
