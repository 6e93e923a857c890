package processor

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/woozymasta/geousd/internal/geo"
	"github.com/woozymasta/geousd/internal/geometry"
)

// Result is the outcome of a walk. It is valid even when the walk was canceled.
type Result struct {
	Diagnostics *Diagnostics
	Data        geometry.GeometryData
}

// Walker converts GeoJSON objects into geometry data with one projector and
// one attribute allowlist. A Walker holds no per-run state and may be reused.
type Walker struct {
	projector geo.Projector
	allowlist []string
}

// NewWalker returns a walker using the given projector.
func NewWalker(projector geo.Projector, allowlist []string) *Walker {
	return &Walker{projector: projector, allowlist: allowlist}
}

// Convert parses r and walks it.
func (w *Walker) Convert(ctx context.Context, r io.Reader) (*Result, error) {
	obj, err := Parse(r)
	if err != nil {
		return nil, err
	}

	return w.Walk(ctx, obj)
}

// Walk visits every feature or geometry of obj. Malformed entries are skipped
// and reported in the diagnostics. Cancellation is checked between entries;
// on cancellation the partial result is returned along with ctx.Err().
func (w *Walker) Walk(ctx context.Context, obj *geo.Object) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	diag := newDiagnostics()
	acc := geometry.NewAccumulator(w.allowlist)

	logger.Debug().
		Str("run_id", diag.RunID.String()).
		Str("type", obj.Type).
		Str("projection", w.projector.Name()).
		Msg("Walk started")

	var err error
	switch obj.Type {
	case geo.TypeFeatureCollection:
		err = w.walkFeatures(ctx, obj.Features, acc, diag, logger)

	case geo.TypeFeature:
		diag.Features = 1
		props, warnings := acc.Prepare(obj.Properties)

		o := &outcome{}
		o.warn("feature", warnings)
		if g, gerr := geo.DecodeGeometry(obj.Geometry); gerr != nil {
			o.skip(SkipFeature, "feature", "", fmt.Sprintf("malformed geometry: %v", gerr))
		} else if g == nil {
			o.skip(SkipFeature, "feature", "", "missing geometry")
		} else {
			w.dispatcher(acc, diag, o).dispatch(g, props, "feature.geometry", 0)
		}
		diag.merge(o, logger)

	case geo.GeometryCollection.String():
		err = w.walkGeometries(ctx, obj.Geometries, acc, diag, logger)

	default:
		diag.Features = 1
		o := &outcome{}
		w.dispatcher(acc, diag, o).dispatch(obj.AsGeometry(), nil, "geometry", 0)
		diag.merge(o, logger)
	}

	if err != nil {
		diag.Canceled = true
	}
	diag.Log(*logger)

	return &Result{Data: acc.Data(), Diagnostics: diag}, err
}

func (w *Walker) walkFeatures(ctx context.Context, features []json.RawMessage, acc *geometry.Accumulator, diag *Diagnostics, logger *zerolog.Logger) error {
	for i, raw := range features {
		if err := ctx.Err(); err != nil {
			return err
		}
		diag.Features++

		path := fmt.Sprintf("features[%d]", i)
		o := &outcome{feature: i}

		f, err := geo.DecodeFeature(raw)
		switch {
		case err != nil:
			o.skip(SkipFeature, path, "", fmt.Sprintf("malformed feature: %v", err))
		case f.Geometry == nil:
			o.skip(SkipFeature, path, "", "missing geometry")
		default:
			props, warnings := acc.Prepare(f.Properties)
			o.warn(path, warnings)
			w.dispatcher(acc, diag, o).dispatch(f.Geometry, props, path+".geometry", 0)
		}

		diag.merge(o, logger)
	}

	return nil
}

func (w *Walker) walkGeometries(ctx context.Context, geometries []json.RawMessage, acc *geometry.Accumulator, diag *Diagnostics, logger *zerolog.Logger) error {
	diag.Processed[geo.GeometryCollection.String()]++

	for i, raw := range geometries {
		if err := ctx.Err(); err != nil {
			return err
		}
		diag.Features++

		path := fmt.Sprintf("geometries[%d]", i)
		o := &outcome{feature: i}

		g, err := geo.DecodeGeometry(raw)
		switch {
		case err != nil:
			o.skip(SkipGeometry, path, "", fmt.Sprintf("malformed geometry: %v", err))
		case g == nil:
			o.skip(SkipGeometry, path, "", "missing geometry")
		default:
			w.dispatcher(acc, diag, o).dispatch(g, nil, path, 1)
		}

		diag.merge(o, logger)
	}

	return nil
}

func (w *Walker) dispatcher(acc *geometry.Accumulator, diag *Diagnostics, o *outcome) *dispatcher {
	return &dispatcher{projector: w.projector, acc: acc, diag: diag, out: o}
}
