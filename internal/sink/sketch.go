package sink

import (
	"math"

	"github.com/woozymasta/geousd/internal/geo"
)

// shape is one drawable primitive in projected x/y.
type shape struct {
	points []geo.Vec3
	dot    bool
	closed bool
}

// sketch collects primitives for the 2D previews. Only x and y are drawn,
// image y grows downwards like web-mercator map y.
type sketch struct {
	shapes []shape
	minX   float64
	minY   float64
	maxX   float64
	maxY   float64
}

func newSketch() sketch {
	return sketch{
		minX: math.Inf(1),
		minY: math.Inf(1),
		maxX: math.Inf(-1),
		maxY: math.Inf(-1),
	}
}

func (s *sketch) addPoints(name string, positions []geo.Vec3) Handle {
	for _, p := range positions {
		s.shapes = append(s.shapes, shape{points: []geo.Vec3{p}, dot: true})
		s.extend(p)
	}

	return Handle(name)
}

func (s *sketch) addLines(name string, positions []geo.Vec3, lengths []int, closed bool) Handle {
	start := 0
	for _, n := range lengths {
		line := positions[start : start+n]
		s.shapes = append(s.shapes, shape{points: line, closed: closed})
		for _, p := range line {
			s.extend(p)
		}
		start += n
	}

	return Handle(name)
}

func (s *sketch) extend(p geo.Vec3) {
	s.minX = math.Min(s.minX, p.X())
	s.minY = math.Min(s.minY, p.Y())
	s.maxX = math.Max(s.maxX, p.X())
	s.maxY = math.Max(s.maxY, p.Y())
}

// layout fits the extent into size pixels on the long side, keeping aspect
// ratio, and returns the canvas dimensions and a position mapper.
func (s *sketch) layout(size int, margin float64) (w, h int, toPx func(geo.Vec3) (float64, float64)) {
	if len(s.shapes) == 0 {
		return size, size, func(geo.Vec3) (float64, float64) { return 0, 0 }
	}

	spanX := s.maxX - s.minX
	spanY := s.maxY - s.minY
	span := math.Max(spanX, spanY)
	if span == 0 {
		span = 1
	}

	inner := float64(size) - 2*margin
	scale := inner / span
	w = int(math.Ceil(spanX*scale + 2*margin))
	h = int(math.Ceil(spanY*scale + 2*margin))
	w = max(w, 1)
	h = max(h, 1)

	minX, minY := s.minX, s.minY
	toPx = func(p geo.Vec3) (float64, float64) {
		return (p.X()-minX)*scale + margin, (p.Y()-minY)*scale + margin
	}

	return w, h, toPx
}
