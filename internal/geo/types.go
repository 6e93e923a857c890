package geo

// GeometryType is the closed set of GeoJSON geometry type tags.
type GeometryType uint8

// Geometry type tags in RFC 7946 order.
const (
	Unknown GeometryType = iota
	Point
	MultiPoint
	LineString
	MultiLineString
	Polygon
	MultiPolygon
	GeometryCollection
)

// Top-level object tags that are not geometries.
const (
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

var geometryTypeNames = [...]string{
	Unknown:            "Unknown",
	Point:              "Point",
	MultiPoint:         "MultiPoint",
	LineString:         "LineString",
	MultiLineString:    "MultiLineString",
	Polygon:            "Polygon",
	MultiPolygon:       "MultiPolygon",
	GeometryCollection: "GeometryCollection",
}

// ParseGeometryType maps a type tag to its GeometryType, or Unknown.
func ParseGeometryType(tag string) GeometryType {
	for i, name := range geometryTypeNames {
		if i > 0 && name == tag {
			return GeometryType(i)
		}
	}

	return Unknown
}

func (t GeometryType) String() string {
	if int(t) < len(geometryTypeNames) {
		return geometryTypeNames[t]
	}

	return geometryTypeNames[Unknown]
}
