// Package sink turns geometry data into concrete primitives: a USD stage,
// serialized documents, and 2D previews.
package sink

import (
	"fmt"
	"io"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/geo"
	"github.com/woozymasta/geousd/internal/geometry"
)

// Primitive names used by Materialize.
const (
	PointsName   = "points"
	LinesName    = "lines"
	OutlinesName = "outlines"
)

// Handle identifies a created primitive within its sink.
type Handle string

// Sink creates renderable primitives. Columns arrive with sanitized names
// and one value per vertex. A sink must not modify what it is given.
type Sink interface {
	CreatePointPrimitive(name string, positions []geo.Vec3, columns []*geometry.Column) (Handle, error)
	CreateLinePrimitive(name string, positions []geo.Vec3, lengths []int, columns []*geometry.Column, closed bool) (Handle, error)
}

// Writer is a sink that persists its primitives to a stream.
type Writer interface {
	Sink
	WriteTo(w io.Writer) (int64, error)
}

// Materialize creates one primitive per non-empty bundle of data.
func Materialize(s Sink, data *geometry.GeometryData) ([]Handle, error) {
	var handles []Handle

	if len(data.Points.Positions) > 0 {
		h, err := s.CreatePointPrimitive(PointsName, data.Points.Positions, data.Points.Columns)
		if err != nil {
			return handles, fmt.Errorf("create %s: %w", PointsName, err)
		}
		handles = append(handles, h)
	}

	lines := []struct {
		data   *geometry.LineStringData
		name   string
		closed bool
	}{
		{&data.Lines, LinesName, false},
		{&data.Outlines, OutlinesName, true},
	}
	for _, l := range lines {
		if len(l.data.Positions) == 0 {
			continue
		}
		h, err := s.CreateLinePrimitive(l.name, l.data.Positions, l.data.Lengths, l.data.Columns, l.closed)
		if err != nil {
			return handles, fmt.Errorf("create %s: %w", l.name, err)
		}
		handles = append(handles, h)
	}

	return handles, nil
}

// New returns the writer for a format.
func New(format string, cfg *config.Config) (Writer, error) {
	switch format {
	case config.FormatUSDA:
		return NewStage(cfg.Output), nil
	case config.FormatJSON, config.FormatCBOR, config.FormatMsgpack:
		return NewDocument(format)
	case config.FormatSVG:
		return NewSVG(cfg.Preview.Size), nil
	case config.FormatWebP:
		return NewRaster(cfg.Preview), nil
	default:
		return nil, fmt.Errorf("%w: unknown output format %q", config.ErrInvalid, format)
	}
}

// ContentType returns the media type of a format's output.
func ContentType(format string) string {
	switch format {
	case config.FormatUSDA:
		return "model/vnd.usda"
	case config.FormatJSON:
		return "application/json"
	case config.FormatCBOR:
		return "application/cbor"
	case config.FormatMsgpack:
		return "application/msgpack"
	case config.FormatSVG:
		return "image/svg+xml"
	case config.FormatWebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Export builds the writer for format and materializes data into it.
func Export(format string, cfg *config.Config, data *geometry.GeometryData) (Writer, error) {
	w, err := New(format, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := Materialize(w, data); err != nil {
		return nil, err
	}

	return w, nil
}
