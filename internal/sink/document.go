package sink

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/geo"
	"github.com/woozymasta/geousd/internal/geometry"
)

// Primitive kinds in a Document.
const (
	KindPoints = "points"
	KindCurves = "curves"
)

// Document is a sink that serializes its primitives as JSON, CBOR or MessagePack.
type Document struct {
	format     string
	Primitives []Primitive `json:"primitives" msgpack:"primitives"`
}

// Primitive is one serialized primitive.
type Primitive struct {
	Name       string      `json:"name" msgpack:"name"`
	Kind       string      `json:"kind" msgpack:"kind"`
	Positions  []geo.Vec3  `json:"positions" msgpack:"positions"`
	Lengths    []int       `json:"lengths,omitempty" msgpack:"lengths,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
	Closed     bool        `json:"closed,omitempty" msgpack:"closed,omitempty"`
}

// Attribute is a typed column. Exactly one of the value slices is set.
type Attribute struct {
	Name    string    `json:"name" msgpack:"name"`
	Type    string    `json:"type" msgpack:"type"`
	Ints    []int64   `json:"ints,omitempty" msgpack:"ints,omitempty"`
	Floats  []float64 `json:"floats,omitempty" msgpack:"floats,omitempty"`
	Strings []string  `json:"strings,omitempty" msgpack:"strings,omitempty"`
}

// NewDocument returns an empty document for json, cbor or msgpack.
func NewDocument(format string) (*Document, error) {
	switch format {
	case config.FormatJSON, config.FormatCBOR, config.FormatMsgpack:
		return &Document{format: format, Primitives: []Primitive{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a document format", config.ErrInvalid, format)
	}
}

// CreatePointPrimitive implements Sink.
func (d *Document) CreatePointPrimitive(name string, positions []geo.Vec3, columns []*geometry.Column) (Handle, error) {
	d.Primitives = append(d.Primitives, Primitive{
		Name:       name,
		Kind:       KindPoints,
		Positions:  positions,
		Attributes: attributes(columns),
	})

	return Handle(name), nil
}

// CreateLinePrimitive implements Sink.
func (d *Document) CreateLinePrimitive(name string, positions []geo.Vec3, lengths []int, columns []*geometry.Column, closed bool) (Handle, error) {
	d.Primitives = append(d.Primitives, Primitive{
		Name:       name,
		Kind:       KindCurves,
		Positions:  positions,
		Lengths:    lengths,
		Attributes: attributes(columns),
		Closed:     closed,
	})

	return Handle(name), nil
}

// WriteTo encodes the document in its format.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var data []byte
	var err error

	switch d.format {
	case config.FormatCBOR:
		data, err = cbor.Marshal(d)
	case config.FormatMsgpack:
		data, err = msgpack.Marshal(d)
	default:
		data, err = json.MarshalIndent(d, "", "  ")
	}
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", d.format, err)
	}

	n, err := w.Write(data)
	return int64(n), err
}

func attributes(columns []*geometry.Column) []Attribute {
	if len(columns) == 0 {
		return nil
	}

	out := make([]Attribute, 0, len(columns))
	for _, c := range columns {
		a := Attribute{Name: c.Name, Type: c.ExportKind().String()}
		switch c.ExportKind() {
		case geo.KindInt:
			a.Ints = c.Ints()
		case geo.KindFloat:
			a.Floats = c.Floats()
		default:
			a.Strings = c.Strings()
		}
		out = append(out, a)
	}

	return out
}
