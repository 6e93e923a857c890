// Package processor walks GeoJSON documents and converts them into geometry data.
package processor

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/woozymasta/geousd/internal/geo"
)

// Fatal input errors.
var (
	ErrSyntax        = errors.New("invalid JSON")
	ErrUnknownObject = errors.New("unrecognized GeoJSON object type")
)

// Parse decodes a GeoJSON document and checks its top-level type.
func Parse(r io.Reader) (*geo.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) (*geo.Object, error) {
	var obj geo.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w at offset %d: %v", ErrSyntax, syntaxErr.Offset, err)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: field %q at offset %d: %v", ErrUnknownObject, typeErr.Field, typeErr.Offset, err)
		}

		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	switch obj.Type {
	case geo.TypeFeatureCollection, geo.TypeFeature:
	default:
		if geo.ParseGeometryType(obj.Type) == geo.Unknown {
			if obj.Type == "" {
				return nil, fmt.Errorf("%w: missing top-level \"type\"", ErrUnknownObject)
			}
			return nil, fmt.Errorf("%w: %q", ErrUnknownObject, obj.Type)
		}
	}

	return &obj, nil
}
