// Package geometry holds the host-agnostic intermediate representation
// produced by a walk: point and line bundles with per-vertex attribute columns.
package geometry

import (
	"fmt"
	"slices"

	"github.com/woozymasta/geousd/internal/geo"
)

// Column is a named per-vertex attribute array.
type Column struct {
	Name   string
	Values []geo.Value

	// Kind is fixed by the first non-null value written to the column.
	Kind geo.Kind
}

// ExportKind is the kind used to encode the column. Columns that never saw a
// non-null value export as strings.
func (c *Column) ExportKind() geo.Kind {
	if c.Kind == geo.KindNull {
		return geo.KindString
	}

	return c.Kind
}

// Ints returns the column coerced to integers.
func (c *Column) Ints() []int64 {
	out := make([]int64, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.AsInt()
	}

	return out
}

// Floats returns the column coerced to floats.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.AsFloat()
	}

	return out
}

// Strings returns the column stringified.
func (c *Column) Strings() []string {
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		out[i] = v.String()
	}

	return out
}

func (c *Column) clone() *Column {
	return &Column{Name: c.Name, Kind: c.Kind, Values: slices.Clone(c.Values)}
}

// PointsData aggregates every Point-derived primitive.
type PointsData struct {
	Positions []geo.Vec3
	Columns   []*Column
}

// Column returns the named column or nil.
func (p *PointsData) Column(name string) *Column {
	return findColumn(p.Columns, name)
}

// Len returns the number of points.
func (p *PointsData) Len() int { return len(p.Positions) }

// Validate checks that every column has one value per position.
func (p *PointsData) Validate() error {
	for _, c := range p.Columns {
		if len(c.Values) != len(p.Positions) {
			return fmt.Errorf("points column %q has %d values for %d positions", c.Name, len(c.Values), len(p.Positions))
		}
	}

	return nil
}

// LineStringData aggregates lines sharing one flat position buffer.
// Lengths holds the vertex count of each line in order.
type LineStringData struct {
	Positions []geo.Vec3
	Lengths   []int
	Columns   []*Column
}

// Column returns the named column or nil.
func (l *LineStringData) Column(name string) *Column {
	return findColumn(l.Columns, name)
}

// Len returns the number of lines.
func (l *LineStringData) Len() int { return len(l.Lengths) }

// Line returns the positions of line i.
func (l *LineStringData) Line(i int) []geo.Vec3 {
	start := 0
	for _, n := range l.Lengths[:i] {
		start += n
	}

	return l.Positions[start : start+l.Lengths[i]]
}

// Validate checks sum(lengths) == len(positions), one value per vertex in
// every column, and that each line carries a single broadcast value.
func (l *LineStringData) Validate() error {
	total := 0
	for _, n := range l.Lengths {
		total += n
	}
	if total != len(l.Positions) {
		return fmt.Errorf("line lengths sum to %d for %d positions", total, len(l.Positions))
	}

	for _, c := range l.Columns {
		if len(c.Values) != len(l.Positions) {
			return fmt.Errorf("lines column %q has %d values for %d positions", c.Name, len(c.Values), len(l.Positions))
		}

		start := 0
		for line, n := range l.Lengths {
			for i := start + 1; i < start+n; i++ {
				if c.Values[i] != c.Values[start] {
					return fmt.Errorf("lines column %q is not uniform on line %d", c.Name, line)
				}
			}
			start += n
		}
	}

	return nil
}

// GeometryData is the finished handoff object. Lines are open, Outlines are
// closed polygon boundaries.
type GeometryData struct {
	Points   PointsData
	Lines    LineStringData
	Outlines LineStringData
}

// Empty reports whether no primitive was produced.
func (g *GeometryData) Empty() bool {
	return len(g.Points.Positions) == 0 && len(g.Lines.Positions) == 0 && len(g.Outlines.Positions) == 0
}

// Validate checks the invariants of every bundle.
func (g *GeometryData) Validate() error {
	if err := g.Points.Validate(); err != nil {
		return err
	}
	if err := g.Lines.Validate(); err != nil {
		return fmt.Errorf("lines: %w", err)
	}
	if err := g.Outlines.Validate(); err != nil {
		return fmt.Errorf("outlines: %w", err)
	}

	return nil
}

func findColumn(columns []*Column, name string) *Column {
	for _, c := range columns {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func cloneColumns(columns []*Column) []*Column {
	out := make([]*Column, len(columns))
	for i, c := range columns {
		out[i] = c.clone()
	}

	return out
}
