package processor

import (
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/woozymasta/geousd/internal/geometry"
)

// SkipKind tells what a skip dropped.
type SkipKind uint8

// Skip kinds, from coarsest to finest.
const (
	SkipFeature SkipKind = iota
	SkipGeometry
	SkipCoordinate
)

func (k SkipKind) String() string {
	switch k {
	case SkipFeature:
		return "feature"
	case SkipGeometry:
		return "geometry"
	default:
		return "coordinate"
	}
}

// Skip records one dropped feature, geometry or coordinate.
type Skip struct {
	Path    string
	Type    string
	Reason  string
	Feature int
	Kind    SkipKind
}

// Warning is a data-quality warning tied to the feature that raised it.
type Warning struct {
	Path string
	geometry.Warning
	Feature int
}

// Diagnostics is the per-run report of a walk.
type Diagnostics struct {
	// Processed counts handled geometries per type tag.
	Processed map[string]int
	Skipped   []Skip
	Warnings  []Warning

	// Bounds is the lon/lat extent of every projected position.
	Bounds   orb.Bound
	RunID    xid.ID
	Features int
	HasBound bool
	Canceled bool
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{
		RunID:     xid.New(),
		Processed: make(map[string]int),
	}
}

// SkippedCount returns the number of skips of the given kind.
func (d *Diagnostics) SkippedCount(kind SkipKind) int {
	n := 0
	for _, s := range d.Skipped {
		if s.Kind == kind {
			n++
		}
	}

	return n
}

func (d *Diagnostics) extend(p orb.Point) {
	if !d.HasBound {
		d.Bounds = p.Bound()
		d.HasBound = true
		return
	}
	d.Bounds = d.Bounds.Extend(p)
}

// merge folds a dispatch outcome into the report and logs each entry.
func (d *Diagnostics) merge(o *outcome, logger *zerolog.Logger) {
	for _, t := range o.processed {
		d.Processed[t]++
	}

	for _, s := range o.skips {
		logger.Debug().
			Int("feature", s.Feature).
			Str("path", s.Path).
			Str("type", s.Type).
			Stringer("kind", s.Kind).
			Str("reason", s.Reason).
			Msg("Skipped")
	}
	d.Skipped = append(d.Skipped, o.skips...)

	for _, w := range o.warnings {
		logger.Warn().
			Int("feature", w.Feature).
			Str("path", w.Path).
			Str("column", w.Column).
			Str("raw", w.Raw).
			Stringer("want", w.Want).
			Stringer("got", w.Got).
			Msg(warningMessage(w.Kind))
	}
	d.Warnings = append(d.Warnings, o.warnings...)
}

// Log writes the run summary.
func (d *Diagnostics) Log(logger zerolog.Logger) {
	types := make([]string, 0, len(d.Processed))
	for t := range d.Processed {
		types = append(types, t)
	}
	sort.Strings(types)

	counts := zerolog.Dict()
	for _, t := range types {
		counts.Int(t, d.Processed[t])
	}

	ev := logger.Info().
		Str("run_id", d.RunID.String()).
		Int("features", d.Features).
		Dict("processed", counts).
		Int("skipped_features", d.SkippedCount(SkipFeature)).
		Int("skipped_geometries", d.SkippedCount(SkipGeometry)).
		Int("skipped_coordinates", d.SkippedCount(SkipCoordinate)).
		Int("warnings", len(d.Warnings)).
		Bool("canceled", d.Canceled)

	if d.HasBound {
		ev = ev.Str("bounds", formatBound(d.Bounds))
	}

	ev.Msg("Walk finished")
}

func formatBound(b orb.Bound) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return f(b.Min.Lon()) + "," + f(b.Min.Lat()) + "," + f(b.Max.Lon()) + "," + f(b.Max.Lat())
}

func warningMessage(k geometry.WarningKind) string {
	if k == geometry.WarnNameCollision {
		return "Property name collides after sanitizing, dropped"
	}

	return "Attribute value does not match column type"
}
