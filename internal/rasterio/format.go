package rasterio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without a codec.
	ErrUnsupportedFormat = errors.New("rasterio: unsupported format")

	// ErrUnsupportedType is returned when a format cannot store a band's data type.
	ErrUnsupportedType = errors.New("rasterio: unsupported data type")

	// ErrBandRange is returned for a band number outside 1..Bands.
	ErrBandRange = errors.New("rasterio: illegal band number")
)

// Format names a raster codec.
type Format string

const (
	TIFF Format = "GTiff"
	PNG  Format = "PNG"
	BMP  Format = "BMP"
	WebP Format = "WEBP"
	TGA  Format = "TGA"
	JPEG Format = "JPEG"
)

// FormatOf picks the codec from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return TIFF, nil
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	case ".webp":
		return WebP, nil
	case ".tga":
		return TGA, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Writable reports whether the format has an encoder.
func (f Format) Writable() bool {
	switch f {
	case TIFF, PNG, BMP, WebP:
		return true
	}
	return false
}

// Extensions lists the readable file extensions, lower case with the dot.
func Extensions() []string {
	return []string{".tif", ".tiff", ".png", ".bmp", ".webp", ".tga", ".jpg", ".jpeg"}
}
