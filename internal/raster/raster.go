package raster

import "fmt"

// DataType is the sample type a raster band was stored with.
type DataType int

const (
	Unknown DataType = iota
	Byte
	UInt16
)

// String returns the GDAL-style type name.
func (t DataType) String() string {
	switch t {
	case Byte:
		return "Byte"
	case UInt16:
		return "UInt16"
	}
	return "Unknown"
}

// Max returns the largest value the type can hold.
func (t DataType) Max() float64 {
	switch t {
	case Byte:
		return 255
	case UInt16:
		return 65535
	}
	return 0
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "Byte":
		return Byte, nil
	case "UInt16":
		return UInt16, nil
	}
	return Unknown, fmt.Errorf("raster: unknown data type %q", s)
}

// IdentityTransform maps pixel (col, row) to (x, y) unchanged, with y growing downward.
var IdentityTransform = [6]float64{0, 1, 0, 0, 0, 1}

// Raster is one band of samples held as float32, row-major, together with
// the georeferencing that travels with it.
type Raster struct {
	Rows int
	Cols int
	Data []float32
	Type DataType

	NoData    float64
	HasNoData bool

	// GeoTransform follows the GDAL affine layout:
	// x = gt[0] + col*gt[1] + row*gt[2], y = gt[3] + col*gt[4] + row*gt[5].
	GeoTransform [6]float64
	Projection   string
	Description  string
}

// New allocates a zeroed raster with an identity geotransform.
func New(rows, cols int, t DataType) *Raster {
	return &Raster{
		Rows:         rows,
		Cols:         cols,
		Data:         make([]float32, rows*cols),
		Type:         t,
		GeoTransform: IdentityTransform,
	}
}

// At returns the sample at (row, col).
func (r *Raster) At(row, col int) float32 {
	return r.Data[row*r.Cols+col]
}

// Set stores a sample at (row, col).
func (r *Raster) Set(row, col int, v float32) {
	r.Data[row*r.Cols+col] = v
}

// Cells returns rows*cols.
func (r *Raster) Cells() int {
	return r.Rows * r.Cols
}

// Origin returns the map coordinates of the top-left corner.
func (r *Raster) Origin() (x, y float64) {
	return r.GeoTransform[0], r.GeoTransform[3]
}

// Resolution returns the pixel width and (usually negative) pixel height.
func (r *Raster) Resolution() (x, y float64) {
	return r.GeoTransform[1], r.GeoTransform[5]
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := *r
	out.Data = make([]float32, len(r.Data))
	copy(out.Data, r.Data)
	return &out
}
