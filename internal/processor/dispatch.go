package processor

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"

	"github.com/woozymasta/geousd/internal/geo"
	"github.com/woozymasta/geousd/internal/geometry"
)

// maxDepth bounds GeometryCollection nesting.
const maxDepth = 32

// outcome collects what happened while handling one walk entry.
type outcome struct {
	processed []string
	skips     []Skip
	warnings  []Warning
	feature   int
}

func (o *outcome) skip(kind SkipKind, path, typ, reason string) {
	o.skips = append(o.skips, Skip{Kind: kind, Feature: o.feature, Path: path, Type: typ, Reason: reason})
}

func (o *outcome) warn(path string, warnings []geometry.Warning) {
	for _, w := range warnings {
		o.warnings = append(o.warnings, Warning{Warning: w, Feature: o.feature, Path: path})
	}
}

// dispatcher routes one geometry to its handler by type tag.
type dispatcher struct {
	projector geo.Projector
	acc       *geometry.Accumulator
	diag      *Diagnostics
	out       *outcome
}

func (d *dispatcher) dispatch(g *geo.Geometry, props []geometry.Property, path string, depth int) {
	t := geo.ParseGeometryType(g.Type)
	if t == geo.Unknown {
		d.out.skip(SkipGeometry, path, g.Type, fmt.Sprintf("unsupported geometry type %q", g.Type))
		return
	}

	if t == geo.GeometryCollection {
		d.collection(g, props, path, depth)
		return
	}

	if !g.HasCoordinates() {
		d.out.skip(SkipGeometry, path, g.Type, "missing coordinates")
		return
	}

	var err error
	switch t {
	case geo.Point:
		var p orb.Point
		if p, err = g.Position(); err == nil {
			d.point(p, props, path)
		}

	case geo.MultiPoint:
		var ls orb.LineString
		if ls, err = g.Positions(); err == nil {
			if len(ls) == 0 {
				err = errEmpty
				break
			}
			for i, p := range ls {
				d.point(p, props, fmt.Sprintf("%s.coordinates[%d]", path, i))
			}
		}

	case geo.LineString:
		var ls orb.LineString
		if ls, err = g.Positions(); err == nil {
			if len(ls) == 0 {
				err = errEmpty
				break
			}
			d.line(ls, props, path+".coordinates", false)
		}

	case geo.MultiLineString:
		var lines orb.Polygon
		if lines, err = g.Rings(); err == nil {
			if len(lines) == 0 {
				err = errEmpty
				break
			}
			for i, ls := range lines {
				d.line(orb.LineString(ls), props, fmt.Sprintf("%s.coordinates[%d]", path, i), false)
			}
		}

	case geo.Polygon:
		var poly orb.Polygon
		if poly, err = g.Rings(); err == nil {
			if len(poly) == 0 {
				err = errEmpty
				break
			}
			d.polygon(poly, props, path+".coordinates")
		}

	case geo.MultiPolygon:
		var mp orb.MultiPolygon
		if mp, err = g.Polygons(); err == nil {
			if len(mp) == 0 {
				err = errEmpty
				break
			}
			for i, poly := range mp {
				d.polygon(poly, props, fmt.Sprintf("%s.coordinates[%d]", path, i))
			}
		}
	}

	if err != nil {
		d.out.skip(SkipGeometry, path, g.Type, err.Error())
		return
	}
	d.out.processed = append(d.out.processed, t.String())
}

var errEmpty = errors.New("empty coordinates")

func (d *dispatcher) collection(g *geo.Geometry, props []geometry.Property, path string, depth int) {
	if depth >= maxDepth {
		d.out.skip(SkipGeometry, path, g.Type, "geometry collection nested too deep")
		return
	}
	if len(g.Geometries) == 0 {
		d.out.skip(SkipGeometry, path, g.Type, "empty geometry collection")
		return
	}

	d.out.processed = append(d.out.processed, g.Type)
	for i, raw := range g.Geometries {
		d.member(raw, props, fmt.Sprintf("%s.geometries[%d]", path, i), depth+1)
	}
}

func (d *dispatcher) member(raw json.RawMessage, props []geometry.Property, path string, depth int) {
	child, err := geo.DecodeGeometry(raw)
	switch {
	case err != nil:
		d.out.skip(SkipGeometry, path, "", fmt.Sprintf("malformed geometry: %v", err))
	case child == nil:
		d.out.skip(SkipGeometry, path, "", "missing geometry")
	default:
		d.dispatch(child, props, path, depth)
	}
}

// project converts one position. Failures are recorded per coordinate.
func (d *dispatcher) project(p orb.Point, path string) (geo.Vec3, bool) {
	v, err := d.projector.Project(p)
	if err != nil {
		d.out.skip(SkipCoordinate, path, "", err.Error())
		return geo.Vec3{}, false
	}
	d.diag.extend(p)

	return v, true
}

func (d *dispatcher) point(p orb.Point, props []geometry.Property, path string) {
	v, ok := d.project(p, path)
	if !ok {
		return
	}
	d.out.warn(path, d.acc.AddPoint(v, props))
}

func (d *dispatcher) line(ls orb.LineString, props []geometry.Property, path string, closed bool) {
	positions := make([]geo.Vec3, 0, len(ls))
	for i, p := range ls {
		if v, ok := d.project(p, fmt.Sprintf("%s[%d]", path, i)); ok {
			positions = append(positions, v)
		}
	}
	d.appendLine(positions, props, path, closed)
}

// polygon flattens every ring, holes included, into one closed line.
func (d *dispatcher) polygon(poly orb.Polygon, props []geometry.Property, path string) {
	positions := make([]geo.Vec3, 0)
	for r, ring := range poly {
		for i, p := range ring {
			if v, ok := d.project(p, fmt.Sprintf("%s[%d][%d]", path, r, i)); ok {
				positions = append(positions, v)
			}
		}
	}
	d.appendLine(positions, props, path, true)
}

func (d *dispatcher) appendLine(positions []geo.Vec3, props []geometry.Property, path string, closed bool) {
	if len(positions) == 0 {
		d.out.skip(SkipGeometry, path, "", "no projectable coordinates")
		return
	}
	d.out.warn(path, d.acc.AddLine(positions, props, closed))
}
