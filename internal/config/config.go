package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mmu-filter/internal/rasterio"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Object types accepted by -t. Only binary is implemented.
const (
	TypeBinary = "binary"
	TypeMulti  = "multi"
)

// Auto as an artifact setting names the artifact after the output raster.
const Auto = "auto"

// Config holds all filter and output settings.
//
// Preview, Histogram, Objects and Report are artifact paths for single-file
// runs, or Auto. Batch runs name every artifact after its output and only
// check that the setting is non-empty.
type Config struct {
	// Filter
	MinSize     int      `json:"min_size"`
	Band        int      `json:"band"`
	Type        string   `json:"type"`
	NoData      *float64 `json:"nodata,omitempty"`
	ForceCorner *bool    `json:"force_corner,omitempty"`

	// Output
	Compression string `json:"compression"`
	Predictor   *bool  `json:"predictor,omitempty"`
	Overwrite   bool   `json:"overwrite"`
	Preview     string `json:"preview"`
	PreviewSize int    `json:"preview_size"`
	Histogram   string `json:"histogram"`
	Objects     string `json:"objects"`
	Report      string `json:"report"`

	// Batch
	InputDir  string   `json:"input_dir"`
	OutputDir string   `json:"output_dir"`
	Suffix    string   `json:"suffix"`
	Formats   []string `json:"formats"`
	Workers   int      `json:"workers"`

	// Logging
	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the file setting alone.
type Flags struct {
	MinSize     int
	Band        int
	Type        string
	NoData      *float64
	KeepCorner  bool
	Compression string
	Overwrite   bool
	Preview     string
	Histogram   string
	Objects     string
	Report      string
	InputDir    string
	OutputDir   string
	Workers     int
	LogLevel    string
	LogJSON     bool
}

// Resolve applies flag overrides and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.MinSize > 0 {
		c.MinSize = flags.MinSize
	}
	if flags.Band > 0 {
		c.Band = flags.Band
	}
	if flags.Type != "" {
		c.Type = flags.Type
	}
	if flags.NoData != nil {
		c.NoData = flags.NoData
	}
	if flags.KeepCorner {
		c.ForceCorner = ptrBool(false)
	}
	if flags.Compression != "" {
		c.Compression = flags.Compression
	}
	if flags.Overwrite {
		c.Overwrite = true
	}
	if flags.Preview != "" {
		c.Preview = flags.Preview
	}
	if flags.Histogram != "" {
		c.Histogram = flags.Histogram
	}
	if flags.Objects != "" {
		c.Objects = flags.Objects
	}
	if flags.Report != "" {
		c.Report = flags.Report
	}
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.LogJSON {
		c.LogJSON = true
	}

	// Defaults
	if c.Band <= 0 {
		c.Band = 1
	}
	if c.Type == "" {
		c.Type = TypeBinary
	}
	if c.ForceCorner == nil {
		c.ForceCorner = ptrBool(true)
	}
	if c.Compression == "" {
		c.Compression = "deflate"
	}
	if c.Predictor == nil {
		c.Predictor = ptrBool(true)
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 1024
	}
	if c.Suffix == "" {
		c.Suffix = "_mmu"
	}
	if len(c.Formats) == 0 {
		c.Formats = rasterio.Extensions()
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.InputDir != "" && c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, "mmu")
	}
}

// Validate checks a resolved config.
func (c *Config) Validate() error {
	if c.MinSize < 1 {
		return fmt.Errorf("%w: minimum size must be >= 1", ErrInvalid)
	}
	if c.Band < 1 {
		return fmt.Errorf("%w: input band must be >= 1", ErrInvalid)
	}
	switch c.Type {
	case TypeBinary, TypeMulti:
	default:
		return fmt.Errorf("%w: unknown type %q, use `binary` or `multi`", ErrInvalid, c.Type)
	}
	switch strings.ToLower(c.Compression) {
	case "deflate", "none":
	default:
		return fmt.Errorf("%w: compression must be deflate or none, got %q", ErrInvalid, c.Compression)
	}
	if c.PreviewSize < 16 {
		return fmt.Errorf("%w: preview size must be >= 16, got %d", ErrInvalid, c.PreviewSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	}
	for _, ext := range c.Formats {
		if _, err := rasterio.FormatOf("x" + ext); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

// WriteOptions translates the output settings for rasterio.
func (c *Config) WriteOptions() rasterio.WriteOptions {
	return rasterio.WriteOptions{
		Compress:  strings.EqualFold(c.Compression, "deflate"),
		Predictor: c.Predictor == nil || *c.Predictor,
		Overwrite: c.Overwrite,
	}
}

func ptrBool(v bool) *bool { return &v }
