package rasterio

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"mmu-filter/internal/raster"
)

// WriteOptions controls how Write encodes a raster.
type WriteOptions struct {
	// Compress selects Deflate for TIFF output.
	Compress bool
	// Predictor enables the TIFF horizontal differencing predictor.
	Predictor bool
	// Overwrite allows replacing an existing file.
	Overwrite bool
}

// DefaultWriteOptions compresses TIFF output with Deflate and a predictor.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Compress: true, Predictor: true}
}

// Write encodes r as a single-band image in the format picked from the path
// extension, then writes its sidecar metadata.
func Write(path string, r *raster.Raster, opts WriteOptions) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if !format.Writable() {
		return fmt.Errorf("%w: no encoder for %s", ErrUnsupportedFormat, format)
	}

	img, err := Image(r)
	if err != nil {
		return err
	}
	if format == BMP || format == WebP {
		if _, ok := img.(*image.Gray); !ok {
			return fmt.Errorf("%w: %s cannot store %s", ErrUnsupportedType, format, r.Type)
		}
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !opts.Overwrite {
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		// A leftover sidecar would otherwise be replaced after the raster is written.
		if _, err := os.Stat(SidecarPath(path)); err == nil {
			return fmt.Errorf("rasterio: create %s: %w", SidecarPath(path), fs.ErrExist)
		}
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return fmt.Errorf("rasterio: create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := encode(w, format, img, opts); err != nil {
		f.Close()
		return fmt.Errorf("rasterio: encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("rasterio: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("rasterio: close %s: %w", path, err)
	}

	return writeMetadata(path, MetadataOf(r), opts.Overwrite)
}

func encode(w io.Writer, format Format, img image.Image, opts WriteOptions) error {
	switch format {
	case TIFF:
		to := &tiff.Options{Compression: tiff.Uncompressed, Predictor: opts.Predictor}
		if opts.Compress {
			to.Compression = tiff.Deflate
		}
		return tiff.Encode(w, img, to)
	case PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, grayToNRGBA(img.(*image.Gray)), nil)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Image converts r to a grayscale image at the raster's sample depth.
func Image(r *raster.Raster) (image.Image, error) {
	rect := image.Rect(0, 0, r.Cols, r.Rows)
	switch r.Type {
	case raster.Byte:
		img := image.NewGray(rect)
		for i, v := range r.Data {
			img.Pix[i] = uint8(quantize(v, 255))
		}
		return img, nil
	case raster.UInt16:
		img := image.NewGray16(rect)
		for i, v := range r.Data {
			q := quantize(v, 65535)
			img.Pix[2*i] = uint8(q >> 8)
			img.Pix[2*i+1] = uint8(q)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, r.Type)
}

func quantize(v float32, limit float64) uint32 {
	f := math.Round(float64(v))
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	if f > limit {
		return uint32(limit)
	}
	return uint32(f)
}

func grayToNRGBA(g *image.Gray) *image.NRGBA {
	out := image.NewNRGBA(g.Bounds())
	for i, v := range g.Pix {
		out.Pix[4*i] = v
		out.Pix[4*i+1] = v
		out.Pix[4*i+2] = v
		out.Pix[4*i+3] = 255
	}
	return out
}
