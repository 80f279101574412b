package postprocess

import (
	"image"
	"image/color"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"mmu-filter/internal/conncomp"
)

var (
	keptColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	removedColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// Preview paints kept objects white and removed objects red on a transparent
// background, scaled so the longer side is at most maxSize pixels.
func Preview(before, after *conncomp.Mask, maxSize int) *image.NRGBA {
	full := image.NewRGBA(image.Rect(0, 0, before.Cols, before.Rows))
	for i, fg := range before.Pix {
		if !fg {
			continue
		}
		c := removedColor
		if after.Pix[i] {
			c = keptColor
		}
		o := 4 * i
		full.Pix[o], full.Pix[o+1], full.Pix[o+2], full.Pix[o+3] = c.R, c.G, c.B, c.A
	}
	return Downsample(full, maxSize)
}

// Downsample shrinks a premultiplied image so neither side exceeds maxSize and
// returns it un-premultiplied. Smaller images are only converted.
func Downsample(src *image.RGBA, maxSize int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		src = dst
	}

	// Unpremultiply alpha
	result := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y)
			di := result.PixOffset(x, y)
			a := float64(src.Pix[si+3])
			if a > 1 {
				inv := 255.0 / a
				result.Pix[di] = clamp8(float64(src.Pix[si]) * inv)
				result.Pix[di+1] = clamp8(float64(src.Pix[si+1]) * inv)
				result.Pix[di+2] = clamp8(float64(src.Pix[si+2]) * inv)
			}
			result.Pix[di+3] = src.Pix[si+3]
		}
	}
	return result
}

// EncodePreview writes img as lossless WebP.
func EncodePreview(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
