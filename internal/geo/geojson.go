// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
)

// ErrInvalidPosition is reported for a position with fewer than two numbers
// or a null longitude or latitude.
var ErrInvalidPosition = errors.New("position needs at least two numbers")

// Object is a top-level GeoJSON object. Members are kept raw and decoded one
// at a time, so a broken feature does not poison the whole document.
type Object struct {
	Type        string            `json:"type"`
	Features    []json.RawMessage `json:"features,omitempty"`
	Geometries  []json.RawMessage `json:"geometries,omitempty"`
	Coordinates json.RawMessage   `json:"coordinates,omitempty"`
	Geometry    json.RawMessage   `json:"geometry,omitempty"`
	Properties  Properties        `json:"properties,omitempty"`
	ID          json.RawMessage   `json:"id,omitempty"`
}

// Feature represents a single geographic feature with geometry and properties.
type Feature struct {
	ID         json.RawMessage `json:"id,omitempty"`
	Properties Properties      `json:"properties"`
	Type       string          `json:"type"`
	Geometry   *Geometry       `json:"geometry"`
}

// Geometry represents the geometry of a feature (Point, Polygon, etc.).
// Coordinates stay raw until the type tag tells how deep they nest.
type Geometry struct {
	Type        string            `json:"type"`
	Coordinates json.RawMessage   `json:"coordinates,omitempty"`
	Geometries  []json.RawMessage `json:"geometries,omitempty"`
}

// AsGeometry returns the object viewed as a bare geometry.
func (o *Object) AsGeometry() *Geometry {
	return &Geometry{Type: o.Type, Coordinates: o.Coordinates, Geometries: o.Geometries}
}

// DecodeFeature decodes one member of a FeatureCollection.
func DecodeFeature(raw json.RawMessage) (*Feature, error) {
	var f Feature
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// DecodeGeometry decodes a geometry object. A JSON null yields nil.
func DecodeGeometry(raw json.RawMessage) (*Geometry, error) {
	if isNull(raw) {
		return nil, nil
	}

	var g Geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}

	return &g, nil
}

// HasCoordinates reports whether the coordinates member is present and not null.
func (g *Geometry) HasCoordinates() bool {
	return !isNull(g.Coordinates)
}

// Position decodes the coordinates of a Point.
func (g *Geometry) Position() (orb.Point, error) {
	var raw []*float64
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return orb.Point{}, fmt.Errorf("decode %s coordinates: %w", g.Type, err)
	}
	if len(raw) == 0 {
		return orb.Point{}, fmt.Errorf("%s has no coordinates", g.Type)
	}

	return toPoint(raw), nil
}

// Positions decodes a list of positions (MultiPoint, LineString).
func (g *Geometry) Positions() (orb.LineString, error) {
	var raw [][]*float64
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return nil, fmt.Errorf("decode %s coordinates: %w", g.Type, err)
	}

	return toLineString(raw), nil
}

// Rings decodes a list of position lists (MultiLineString, Polygon).
func (g *Geometry) Rings() (orb.Polygon, error) {
	var raw [][][]*float64
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return nil, fmt.Errorf("decode %s coordinates: %w", g.Type, err)
	}

	poly := make(orb.Polygon, 0, len(raw))
	for _, ring := range raw {
		poly = append(poly, orb.Ring(toLineString(ring)))
	}

	return poly, nil
}

// Polygons decodes the coordinates of a MultiPolygon.
func (g *Geometry) Polygons() (orb.MultiPolygon, error) {
	var raw [][][][]*float64
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return nil, fmt.Errorf("decode %s coordinates: %w", g.Type, err)
	}

	mp := make(orb.MultiPolygon, 0, len(raw))
	for _, polygon := range raw {
		poly := make(orb.Polygon, 0, len(polygon))
		for _, ring := range polygon {
			poly = append(poly, orb.Ring(toLineString(ring)))
		}
		mp = append(mp, poly)
	}

	return mp, nil
}

// ValidPosition reports whether p came from a well-formed position.
func ValidPosition(p orb.Point) bool {
	return !math.IsNaN(p.Lon()) && !math.IsNaN(p.Lat())
}

func toLineString(raw [][]*float64) orb.LineString {
	ls := make(orb.LineString, 0, len(raw))
	for _, pos := range raw {
		ls = append(ls, toPoint(pos))
	}

	return ls
}

// toPoint keeps [lon, lat] order and drops altitude. Short positions and
// null members become NaN so the projector rejects them per coordinate.
func toPoint(pos []*float64) orb.Point {
	if len(pos) < 2 || pos[0] == nil || pos[1] == nil {
		return orb.Point{math.NaN(), math.NaN()}
	}

	return orb.Point{*pos[0], *pos[1]}
}

func isNull(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case 'n':
			return true
		default:
			return false
		}
	}

	return true
}
