package rasterio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"mmu-filter/internal/raster"
)

// Dataset is a decoded raster file with its sidecar metadata.
type Dataset struct {
	Path   string
	Format Format
	Rows   int
	Cols   int
	Bands  int
	Type   raster.DataType
	Meta   Metadata

	img image.Image
}

// Open decodes the raster at path and reads its sidecar.
func Open(path string) (*Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rasterio: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := decode(format, bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("rasterio: decode %s: %w", path, err)
	}

	md, err := ReadMetadata(path)
	if err != nil {
		return nil, err
	}

	return newDataset(path, format, img, md), nil
}

func newDataset(path string, format Format, img image.Image, md Metadata) *Dataset {
	b := img.Bounds()
	bands, dt := layout(img)
	return &Dataset{
		Path:   path,
		Format: format,
		Rows:   b.Dy(),
		Cols:   b.Dx(),
		Bands:  bands,
		Type:   dt,
		Meta:   md,
		img:    img,
	}
}

// CheckType rejects datasets whose samples are not Byte or UInt16.
func (d *Dataset) CheckType() error {
	if d.Type != raster.Byte && d.Type != raster.UInt16 {
		return fmt.Errorf("%w: %s (%T)", ErrUnsupportedType, d.Type, d.img)
	}
	return nil
}

func decode(format Format, r io.Reader) (image.Image, error) {
	switch format {
	case TIFF:
		return tiff.Decode(r)
	case PNG:
		return png.Decode(r)
	case BMP:
		return bmp.Decode(r)
	case WebP:
		return webp.Decode(r)
	case TGA:
		return tga.Decode(r)
	case JPEG:
		return jpeg.Decode(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// layout returns the band count and sample type an image decodes to.
// Image types without a known sample layout report raster.Unknown.
func layout(img image.Image) (int, raster.DataType) {
	switch img.(type) {
	case *image.Gray, *image.Paletted:
		return 1, raster.Byte
	case *image.Gray16:
		return 1, raster.UInt16
	case *image.RGBA, *image.NRGBA, *image.NYCbCrA:
		return 4, raster.Byte
	case *image.RGBA64, *image.NRGBA64:
		return 4, raster.UInt16
	case *image.YCbCr, *image.CMYK:
		return 3, raster.Byte
	}
	return 4, raster.Unknown
}

// Band extracts band n (1-based) as a raster carrying the sidecar georeferencing.
func (d *Dataset) Band(n int) (*raster.Raster, error) {
	if n < 1 || n > d.Bands {
		return nil, fmt.Errorf("%w (%d of %d bands requested)", ErrBandRange, n, d.Bands)
	}

	r := raster.New(d.Rows, d.Cols, d.Type)
	d.Meta.apply(r)

	b := d.img.Bounds()
	i := 0
	switch img := d.img.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, y):]
			for x := 0; x < d.Cols; x++ {
				r.Data[i] = float32(row[x])
				i++
			}
		}
	case *image.Paletted:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, y):]
			for x := 0; x < d.Cols; x++ {
				r.Data[i] = float32(row[x])
				i++
			}
		}
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, y):]
			for x := 0; x < d.Cols; x++ {
				r.Data[i] = float32(row[x*4+n-1])
				i++
			}
		}
	case *image.Gray16:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r.Data[i] = float32(img.Gray16At(x, y).Y)
				i++
			}
		}
	default:
		wide := d.Type == raster.UInt16
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r.Data[i] = channel(d.img.At(x, y), n, wide)
				i++
			}
		}
	}
	return r, nil
}

// channel returns one non-premultiplied channel (1=R, 2=G, 3=B, 4=A) of c,
// at 16-bit depth when wide is set and 8-bit otherwise.
func channel(c color.Color, n int, wide bool) float32 {
	nc := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	var v uint16
	switch n {
	case 1:
		v = nc.R
	case 2:
		v = nc.G
	case 3:
		v = nc.B
	default:
		v = nc.A
	}
	if wide {
		return float32(v)
	}
	return float32(v >> 8)
}
