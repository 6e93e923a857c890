package sink

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/woozymasta/geousd/internal/geo"
	"github.com/woozymasta/geousd/internal/geometry"
)

const svgMime = "image/svg+xml"

// SVG is a sink that draws a minified 2D preview.
type SVG struct {
	sketch sketch
	size   int
}

// NewSVG returns an SVG preview fitting the data into size units.
func NewSVG(size int) *SVG {
	return &SVG{sketch: newSketch(), size: size}
}

// CreatePointPrimitive implements Sink.
func (s *SVG) CreatePointPrimitive(name string, positions []geo.Vec3, _ []*geometry.Column) (Handle, error) {
	return s.sketch.addPoints(name, positions), nil
}

// CreateLinePrimitive implements Sink.
func (s *SVG) CreateLinePrimitive(name string, positions []geo.Vec3, lengths []int, _ []*geometry.Column, closed bool) (Handle, error) {
	return s.sketch.addLines(name, positions, lengths, closed), nil
}

// WriteTo renders and minifies the document.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	width, height, toPx := s.sketch.layout(s.size, 4)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	sb.WriteString(`<g fill="none" stroke="#1e5aa8" stroke-width="1">`)

	for _, sh := range s.sketch.shapes {
		if sh.dot {
			x, y := toPx(sh.points[0])
			fmt.Fprintf(&sb, `<circle cx="%s" cy="%s" r="1.5" fill="#c0392b" stroke="none"/>`, svgNum(x), svgNum(y))
			continue
		}

		tag := "polyline"
		if sh.closed {
			tag = "polygon"
		}
		sb.WriteString("<" + tag + ` points="`)
		for i, p := range sh.points {
			if i > 0 {
				sb.WriteByte(' ')
			}
			x, y := toPx(p)
			sb.WriteString(svgNum(x) + "," + svgNum(y))
		}
		sb.WriteString(`"/>`)
	}
	sb.WriteString("</g></svg>")

	m := minify.New()
	m.AddFunc(svgMime, svg.Minify)
	out, err := m.String(svgMime, sb.String())
	if err != nil {
		return 0, fmt.Errorf("minify svg: %w", err)
	}

	n, err := io.WriteString(w, out)
	return int64(n), err
}

func svgNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
