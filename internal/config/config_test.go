package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/geousd/internal/geo"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, geo.StrategyUnitSphere, cfg.Projection.Strategy)
	assert.Equal(t, 1.0, cfg.Projection.Radius)
	assert.Equal(t, 1.0, cfg.Output.MetersPerUnit)
	assert.Equal(t, 1.0, cfg.Output.ScaleFactor)
	assert.Equal(t, "Y", cfg.Output.UpAxis)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geousd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
projection:
  strategy: web-mercator
  map_width: 2048
attributes:
  allowlist: [id, ":created_at"]
output:
  format: json
  up_axis: Z
  meters_per_unit: 0.01
preview:
  zoom: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", ":created_at"}, cfg.Attributes.Allowlist)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, 0.01, cfg.Output.MetersPerUnit)
	assert.Equal(t, 3, cfg.Preview.Zoom)

	p, err := cfg.Projector()
	require.NoError(t, err)
	assert.Equal(t, geo.WebMercator{Width: 2048, Height: 1024}, p)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projection: [oops"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadValidatesExplicitZeros(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"radius", "projection: {strategy: unit-sphere, radius: 0}"},
		{"meters per unit", "output: {meters_per_unit: 0}"},
		{"map width", "projection: {strategy: web-mercator, map_width: 0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "geousd.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)

			_, err = cfg.Projector()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geousd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projection: {strategy: unit-sphere}\npreview: {size: 0}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Projection.Radius)
	assert.Equal(t, 2048, cfg.Preview.Size)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.Projection.Strategy = "polar" }},
		{"negative radius", func(c *Config) { c.Projection.Radius = -1 }},
		{"zero radius", func(c *Config) { c.Projection.Radius = 0 }},
		{"zero scale", func(c *Config) { c.Output.ScaleFactor = 0 }},
		{"mercator without width", func(c *Config) { c.Projection.Strategy = geo.StrategyWebMercator }},
		{"negative height", func(c *Config) {
			c.Projection.Strategy = geo.StrategyWebMercator
			c.Projection.MapWidth = 10
			c.Projection.MapHeight = -1
		}},
		{"unknown format", func(c *Config) { c.Output.Format = "obj" }},
		{"up axis", func(c *Config) { c.Output.UpAxis = "X" }},
		{"zoom", func(c *Config) { c.Preview.Zoom = 7 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

			_, err := cfg.Projector()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestProjectorSphere(t *testing.T) {
	cfg := Default()
	cfg.Projection.Radius = 6371

	p, err := cfg.Projector()
	require.NoError(t, err)
	assert.Equal(t, geo.Sphere{Radius: 6371}, p)
}

func TestResolveFormat(t *testing.T) {
	cfg := Default()

	for path, want := range map[string]string{
		"":              FormatUSDA,
		"out.usda":      FormatUSDA,
		"out.usd":       FormatUSDA,
		"out.JSON":      FormatJSON,
		"out.cbor":      FormatCBOR,
		"out.mpk":       FormatMsgpack,
		"out.msgpack":   FormatMsgpack,
		"preview.svg":   FormatSVG,
		"preview.webp":  FormatWebP,
		"out.unknown":   FormatUSDA,
		"dir.json/file": FormatUSDA,
	} {
		assert.Equal(t, want, cfg.ResolveFormat(path), path)
	}

	cfg.Output.Format = FormatCBOR
	assert.Equal(t, FormatCBOR, cfg.ResolveFormat("out.json"))
}
