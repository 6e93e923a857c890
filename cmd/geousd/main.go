package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/logger"
	"github.com/woozymasta/geousd/internal/processor"
	"github.com/woozymasta/geousd/internal/sink"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input         string  `short:"i" long:"input"           env:"GEOUSD_INPUT"        description:"GeoJSON file path or http(s) URL. Reads from stdin if empty or -"`
	Output        string  `short:"o" long:"output"          env:"GEOUSD_OUTPUT"       description:"Output file path. Writes to stdout if empty"`
	ConfigFile    string  `short:"c" long:"config"          env:"CONFIG_FILE"         description:"Path to configuration file"`
	Strategy      string  `short:"s" long:"strategy"        env:"GEOUSD_STRATEGY"     description:"Coordinate strategy" choice:"unit-sphere" choice:"web-mercator"`
	Radius        float64 `short:"r" long:"radius"          env:"GEOUSD_RADIUS"       description:"Sphere radius for unit-sphere" default:"-1"`
	MapWidth      float64 `long:"map-width"                 env:"GEOUSD_MAP_WIDTH"    description:"Map width for web-mercator"`
	MapHeight     float64 `long:"map-height"                env:"GEOUSD_MAP_HEIGHT"   description:"Map height for web-mercator (default map-width / 2)"`
	MetersPerUnit float64 `short:"m" long:"meters-per-unit" env:"GEOUSD_METERS"       description:"How many meters each stage unit represents"`
	ScaleFactor   float64 `long:"scale-factor"              env:"GEOUSD_SCALE"        description:"Scales the final geometry on all axes"`
	AttrNames     string  `short:"a" long:"attr-names"      env:"GEOUSD_ATTR_NAMES"   description:"Only export attributes in this comma-separated list (e.g. \"id,created_at\")"`
	Format        string  `short:"f" long:"format"          env:"GEOUSD_FORMAT"       description:"Output format, inferred from the output extension if empty" choice:"usda" choice:"json" choice:"cbor" choice:"msgpack" choice:"svg" choice:"webp"`
	TilesDir      string  `long:"tiles-dir"                 env:"GEOUSD_TILES_DIR"    description:"Also write a z/x/y WebP preview pyramid to this directory"`
	Zoom          int     `short:"z" long:"zoom"            env:"GEOUSD_ZOOM"         description:"Preview tiles zoom limit" default:"-1"`
	Force         bool    `long:"force"                     description:"Overwrite existing preview tiles"`
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	opts.apply(cfg)

	projector, err := cfg.Projector()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	format := cfg.ResolveFormat(opts.Output)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	client := &http.Client{Timeout: 60 * time.Second}
	in, err := processor.Open(ctx, client, opts.Input)
	if err != nil {
		log.Fatal().Err(err).Str("input", opts.Input).Msg("Failed to open input")
	}

	obj, err := processor.Parse(in)
	_ = in.Close()
	if err != nil {
		log.Fatal().Err(err).Str("input", opts.Input).Msg("Failed to parse GeoJSON")
	}

	log.Info().
		Str("type", obj.Type).
		Str("projection", projector.Name()).
		Str("format", format).
		Msg("Converting")

	walker := processor.NewWalker(projector, cfg.Attributes.Allowlist)
	res, err := walker.Walk(ctx, obj)
	if errors.Is(err, context.Canceled) {
		log.Warn().Msg("Interrupted, writing partial result")
	} else if err != nil {
		log.Fatal().Err(err).Msg("Conversion failed")
	}

	out, err := sink.Export(format, cfg, &res.Data)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to materialize geometry")
	}

	if err := write(opts.Output, out); err != nil {
		log.Fatal().Err(err).Str("output", opts.Output).Msg("Failed to write output")
	}

	if opts.TilesDir != "" {
		raster := sink.NewRaster(cfg.Preview)
		if _, err := sink.Materialize(raster, &res.Data); err != nil {
			log.Fatal().Err(err).Msg("Failed to draw preview")
		}
		if err := raster.WriteTiles(opts.TilesDir, opts.Force); err != nil {
			log.Fatal().Err(err).Str("dir", opts.TilesDir).Msg("Failed to write preview tiles")
		}
	}

	log.Info().
		Int("points", res.Data.Points.Len()).
		Int("lines", res.Data.Lines.Len()).
		Int("outlines", res.Data.Outlines.Len()).
		Str("output", opts.Output).
		Msg("Export finished successfully")
}

// apply overrides configuration values with the flags that were set.
func (o *Options) apply(cfg *config.Config) {
	if o.Strategy != "" {
		cfg.Projection.Strategy = o.Strategy
	}
	// -1 means unset, an explicit 0 must reach Validate
	if o.Radius != -1 {
		cfg.Projection.Radius = o.Radius
	}
	if o.MapWidth != 0 {
		cfg.Projection.MapWidth = o.MapWidth
	}
	if o.MapHeight != 0 {
		cfg.Projection.MapHeight = o.MapHeight
	}
	if o.MetersPerUnit != 0 {
		cfg.Output.MetersPerUnit = o.MetersPerUnit
	}
	if o.ScaleFactor != 0 {
		cfg.Output.ScaleFactor = o.ScaleFactor
	}
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.Zoom >= 0 {
		cfg.Preview.Zoom = o.Zoom
	}
	if o.AttrNames != "" {
		cfg.Attributes.Allowlist = nil
		for _, name := range strings.Split(o.AttrNames, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Attributes.Allowlist = append(cfg.Attributes.Allowlist, name)
			}
		}
	}
}

func write(path string, out io.WriterTo) error {
	if path == "" {
		_, err := out.WriteTo(os.Stdout)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := out.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}

	// We care about write errors on close
	return f.Close()
}
