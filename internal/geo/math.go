package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ErrOutOfDomain is returned when a coordinate cannot be projected.
var ErrOutOfDomain = errors.New("coordinate outside projection domain")

// Projection strategy names.
const (
	StrategyUnitSphere  = "unit-sphere"
	StrategyWebMercator = "web-mercator"
)

// Vec3 is a projected position.
type Vec3 [3]float64

// X returns the first component.
func (v Vec3) X() float64 { return v[0] }

// Y returns the second component.
func (v Vec3) Y() float64 { return v[1] }

// Z returns the third component.
func (v Vec3) Z() float64 { return v[2] }

// Projector converts a (lon, lat) point in degrees into a 3D position.
type Projector interface {
	Project(p orb.Point) (Vec3, error)
	Name() string
}

// Sphere places coordinates on a sphere of the given radius, z up.
type Sphere struct {
	Radius float64
}

// Name implements Projector.
func (s Sphere) Name() string { return StrategyUnitSphere }

// Project implements Projector.
//
// Latitude is measured from the equator:
// x = cos(lat)cos(lon)r, y = cos(lat)sin(lon)r, z = sin(lat)r.
func (s Sphere) Project(p orb.Point) (Vec3, error) {
	if !ValidPosition(p) {
		return Vec3{}, ErrInvalidPosition
	}

	return SphereToCartesian(p.Lon(), p.Lat(), s.Radius), nil
}

// SphereToCartesian converts degrees to a cartesian point on a sphere.
func SphereToCartesian(lon, lat, radius float64) Vec3 {
	latRad := lat * (math.Pi / 180.0)
	lonRad := lon * (math.Pi / 180.0)

	return Vec3{
		math.Cos(latRad) * math.Cos(lonRad) * radius,
		math.Cos(latRad) * math.Sin(lonRad) * radius,
		math.Sin(latRad) * radius,
	}
}

// WebMercator projects coordinates onto a flat map of Width x Height units.
type WebMercator struct {
	Width  float64
	Height float64
}

// Name implements Projector.
func (m WebMercator) Name() string { return StrategyWebMercator }

// Project implements Projector. The poles are singular and return ErrOutOfDomain.
func (m WebMercator) Project(p orb.Point) (Vec3, error) {
	if !ValidPosition(p) {
		return Vec3{}, ErrInvalidPosition
	}

	x, y, err := LonLatToMercator(p.Lon(), p.Lat(), m.Width, m.Height)
	if err != nil {
		return Vec3{}, err
	}

	return Vec3{x, y, 0}, nil
}

// LonLatToMercator maps lon [-180..180] to x [0..width] and applies the
// forward Mercator projection for latitude, centred on height/2.
func LonLatToMercator(lon, lat, width, height float64) (x, y float64, err error) {
	if !(lat > -90 && lat < 90) {
		return 0, 0, fmt.Errorf("%w: latitude %g", ErrOutOfDomain, lat)
	}

	x = (lon + 180.0) * (width / 360.0)

	latRad := lat * (math.Pi / 180.0)
	t := math.Tan(math.Pi/4 + latRad/2)
	if t <= 0 || math.IsInf(t, 0) || math.IsNaN(t) {
		return 0, 0, fmt.Errorf("%w: latitude %g", ErrOutOfDomain, lat)
	}
	mercatorN := math.Log(t)

	y = height/2 - width*mercatorN/(2*math.Pi)
	if math.IsInf(y, 0) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsNaN(x) {
		return 0, 0, fmt.Errorf("%w: lon %g lat %g", ErrOutOfDomain, lon, lat)
	}

	return x, y, nil
}
