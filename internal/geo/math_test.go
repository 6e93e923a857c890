package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-12

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func TestSphereKeepsLonLatOrder(t *testing.T) {
	v, err := Sphere{Radius: 1}.Project(orb.Point{10, 20})
	require.NoError(t, err)

	assert.InDelta(t, math.Cos(rad(20))*math.Cos(rad(10)), v.X(), tolerance)
	assert.InDelta(t, math.Cos(rad(20))*math.Sin(rad(10)), v.Y(), tolerance)
	assert.InDelta(t, math.Sin(rad(20)), v.Z(), tolerance)
}

func TestSphereAxes(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Point
		want Vec3
	}{
		{"origin", orb.Point{0, 0}, Vec3{5, 0, 0}},
		{"east", orb.Point{90, 0}, Vec3{0, 5, 0}},
		{"north pole", orb.Point{0, 90}, Vec3{0, 0, 5}},
		{"south pole", orb.Point{123, -90}, Vec3{0, 0, -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Sphere{Radius: 5}.Project(tt.in)
			require.NoError(t, err)
			for i := range v {
				assert.InDelta(t, tt.want[i], v[i], 1e-9)
			}
		})
	}
}

func TestSphereRejectsInvalidPosition(t *testing.T) {
	_, err := Sphere{Radius: 1}.Project(orb.Point{math.NaN(), math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestWebMercator(t *testing.T) {
	m := WebMercator{Width: 360, Height: 180}

	v, err := m.Project(orb.Point{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 180, v.X(), tolerance)
	assert.InDelta(t, 90, v.Y(), tolerance)
	assert.Zero(t, v.Z())

	v, err = m.Project(orb.Point{-180, 45})
	require.NoError(t, err)
	assert.InDelta(t, 0, v.X(), tolerance)
	wantY := 90 - 360*math.Log(math.Tan(math.Pi/4+rad(45)/2))/(2*math.Pi)
	assert.InDelta(t, wantY, v.Y(), tolerance)
	assert.Less(t, v.Y(), 90.0, "north maps above the centre line")
}

func TestWebMercatorPoles(t *testing.T) {
	m := WebMercator{Width: 1024, Height: 512}

	for _, lat := range []float64{90, -90, 91, -120} {
		_, err := m.Project(orb.Point{10, lat})
		assert.ErrorIs(t, err, ErrOutOfDomain, "lat %g", lat)
	}

	_, err := m.Project(orb.Point{10, 89.999})
	assert.NoError(t, err)
}

func TestProjectorNames(t *testing.T) {
	assert.Equal(t, StrategyUnitSphere, Sphere{}.Name())
	assert.Equal(t, StrategyWebMercator, WebMercator{}.Name())
}
