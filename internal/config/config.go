// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/geousd/internal/geo"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration that cannot drive a run.
var ErrInvalid = errors.New("invalid configuration")

// Output formats.
const (
	FormatUSDA    = "usda"
	FormatJSON    = "json"
	FormatCBOR    = "cbor"
	FormatMsgpack = "msgpack"
	FormatSVG     = "svg"
	FormatWebP    = "webp"
)

// Formats lists every supported output format.
var Formats = []string{FormatUSDA, FormatJSON, FormatCBOR, FormatMsgpack, FormatSVG, FormatWebP}

// Config represents the root configuration file structure.
type Config struct {
	Projection Projection `yaml:"projection" json:"projection"`
	Attributes Attributes `yaml:"attributes" json:"attributes"`
	Output     Output     `yaml:"output" json:"output"`
	Preview    Preview    `yaml:"preview" json:"preview"`
}

// Projection selects the coordinate strategy for a whole run.
type Projection struct {
	Strategy  string  `yaml:"strategy" json:"strategy"`
	Radius    float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
	MapWidth  float64 `yaml:"map_width,omitempty" json:"map_width,omitempty"`
	MapHeight float64 `yaml:"map_height,omitempty" json:"map_height,omitempty"`
}

// Attributes controls which feature properties are exported.
type Attributes struct {
	// empty means export all
	Allowlist []string `yaml:"allowlist,omitempty" json:"allowlist,omitempty"`
}

// Output holds values consumed by the sink, not the walk.
type Output struct {
	Format        string  `yaml:"format,omitempty" json:"format,omitempty"`
	UpAxis        string  `yaml:"up_axis,omitempty" json:"up_axis,omitempty"`
	MetersPerUnit float64 `yaml:"meters_per_unit,omitempty" json:"meters_per_unit,omitempty"`
	ScaleFactor   float64 `yaml:"scale_factor,omitempty" json:"scale_factor,omitempty"`
}

// Preview configures the raster and vector previews.
type Preview struct {
	Size     int     `yaml:"size,omitempty" json:"size,omitempty"`
	TileSize int     `yaml:"tile_size,omitempty" json:"tile_size,omitempty"`
	Zoom     int     `yaml:"zoom,omitempty" json:"zoom,omitempty"`
	Quality  float32 `yaml:"quality,omitempty" json:"quality,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Projection: Projection{
			Strategy: geo.StrategyUnitSphere,
			Radius:   1,
		},
		Output: Output{
			UpAxis:        "Y",
			MetersPerUnit: 1,
			ScaleFactor:   1,
		},
		Preview: Preview{
			Size:     2048,
			TileSize: 256,
			Quality:  85,
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// The file is decoded over the defaults, so only keys present in the file
// change a value. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()

	return cfg, nil
}

// ApplyDefaults restores preview settings that cannot produce an image.
// Projection and output values are left alone for Validate to judge.
func (c *Config) ApplyDefaults() {
	d := Default().Preview
	if c.Preview.Size <= 0 {
		c.Preview.Size = d.Size
	}
	if c.Preview.TileSize <= 0 {
		c.Preview.TileSize = d.TileSize
	}
	if c.Preview.Quality <= 0 {
		c.Preview.Quality = d.Quality
	}
}

// Validate reports settings that make a run impossible.
func (c *Config) Validate() error {
	p := c.Projection
	switch p.Strategy {
	case geo.StrategyUnitSphere:
		if !(p.Radius > 0) {
			return fmt.Errorf("%w: radius must be > 0, got %g", ErrInvalid, p.Radius)
		}
	case geo.StrategyWebMercator:
		if !(p.MapWidth > 0) {
			return fmt.Errorf("%w: map_width must be > 0 for %s, got %g", ErrInvalid, p.Strategy, p.MapWidth)
		}
		if p.MapHeight < 0 {
			return fmt.Errorf("%w: map_height must not be negative, got %g", ErrInvalid, p.MapHeight)
		}
	default:
		return fmt.Errorf("%w: unknown projection strategy %q", ErrInvalid, p.Strategy)
	}

	if c.Output.Format != "" && !IsFormat(c.Output.Format) {
		return fmt.Errorf("%w: unknown output format %q", ErrInvalid, c.Output.Format)
	}
	if !(c.Output.MetersPerUnit > 0) {
		return fmt.Errorf("%w: meters_per_unit must be > 0", ErrInvalid)
	}
	if !(c.Output.ScaleFactor > 0) {
		return fmt.Errorf("%w: scale_factor must be > 0", ErrInvalid)
	}
	switch strings.ToUpper(c.Output.UpAxis) {
	case "Y", "Z":
	default:
		return fmt.Errorf("%w: up_axis must be Y or Z, got %q", ErrInvalid, c.Output.UpAxis)
	}
	if c.Preview.Zoom < 0 || c.Preview.Zoom > 6 {
		return fmt.Errorf("%w: preview zoom must be within 0..6", ErrInvalid)
	}

	return nil
}

// Projector builds the projector for the configured strategy.
// The map height defaults to half the map width.
func (c *Config) Projector() (geo.Projector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := c.Projection
	if p.Strategy == geo.StrategyWebMercator {
		height := p.MapHeight
		if height == 0 {
			height = p.MapWidth / 2
		}
		return geo.WebMercator{Width: p.MapWidth, Height: height}, nil
	}

	return geo.Sphere{Radius: p.Radius}, nil
}

// ResolveFormat returns the configured format, or one inferred from the
// output file extension, falling back to usda.
func (c *Config) ResolveFormat(outputPath string) string {
	if c.Output.Format != "" {
		return c.Output.Format
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
	switch ext {
	case "mpk":
		return FormatMsgpack
	case "usd":
		return FormatUSDA
	}
	if IsFormat(ext) {
		return ext
	}

	return FormatUSDA
}

// IsFormat reports whether name is a supported output format.
func IsFormat(name string) bool {
	for _, f := range Formats {
		if f == name {
			return true
		}
	}

	return false
}
