package rasterio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"mmu-filter/internal/raster"
)

// SidecarSuffix is appended to a raster path to name its metadata file.
const SidecarSuffix = ".aux.json"

// Metadata is the georeferencing that image formats cannot carry themselves.
// It lives in a JSON file next to the raster.
type Metadata struct {
	NoData       *float64    `json:"nodata,omitempty"`
	GeoTransform *[6]float64 `json:"geotransform,omitempty"`
	Projection   string      `json:"projection,omitempty"`
	Description  string      `json:"description,omitempty"`
	DataType     string      `json:"data_type,omitempty"`
}

// SidecarPath returns the metadata path for a raster.
func SidecarPath(rasterPath string) string {
	return rasterPath + SidecarSuffix
}

// ReadMetadata loads the sidecar of rasterPath. A missing sidecar yields an
// empty Metadata and no error.
func ReadMetadata(rasterPath string) (Metadata, error) {
	path := SidecarPath(rasterPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("rasterio: read %s: %w", path, err)
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, fmt.Errorf("rasterio: parse %s: %w", path, err)
	}
	return md, nil
}

// WriteMetadata writes the sidecar of rasterPath, replacing any existing one.
func WriteMetadata(rasterPath string, md Metadata) error {
	return writeMetadata(rasterPath, md, true)
}

func writeMetadata(rasterPath string, md Metadata, overwrite bool) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return err
	}
	path := SidecarPath(rasterPath)
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return fmt.Errorf("rasterio: create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("rasterio: write %s: %w", path, err)
	}
	return f.Close()
}

// MetadataOf captures the georeferencing of r.
func MetadataOf(r *raster.Raster) Metadata {
	gt := r.GeoTransform
	md := Metadata{
		GeoTransform: &gt,
		Projection:   r.Projection,
		Description:  r.Description,
		DataType:     r.Type.String(),
	}
	if r.HasNoData {
		nd := r.NoData
		md.NoData = &nd
	}
	return md
}

// apply copies the sidecar fields onto r.
func (md Metadata) apply(r *raster.Raster) {
	if md.NoData != nil {
		r.NoData = *md.NoData
		r.HasNoData = true
	}
	if md.GeoTransform != nil {
		r.GeoTransform = *md.GeoTransform
	}
	r.Projection = md.Projection
	r.Description = md.Description
}
