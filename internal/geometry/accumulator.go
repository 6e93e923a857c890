package geometry

import (
	"slices"
	"strings"

	"github.com/woozymasta/geousd/internal/geo"
)

// Property is a filtered, sanitized property ready to be written.
type Property struct {
	Name  string
	Value geo.Value
}

// WarningKind classifies a data-quality warning.
type WarningKind uint8

// Warning kinds.
const (
	// WarnMismatch: a value disagrees with its column's kind.
	WarnMismatch WarningKind = iota
	// WarnNameCollision: two raw names of one feature sanitize to the same key.
	WarnNameCollision
)

// Warning is a data-quality problem that did not drop any data.
type Warning struct {
	Column string
	Raw    string
	Kind   WarningKind
	Want   geo.Kind
	Got    geo.Kind
}

// Accumulator collects positions and attribute columns in lockstep.
// It is owned by a single walk and is not safe for concurrent use.
type Accumulator struct {
	allow    map[string]struct{}
	points   bundle
	lines    bundle
	outlines bundle
}

// NewAccumulator returns an empty accumulator. A non-empty allowlist keeps
// only properties whose raw name is listed.
func NewAccumulator(allowlist []string) *Accumulator {
	a := &Accumulator{
		points:   newBundle(),
		lines:    newBundle(),
		outlines: newBundle(),
	}
	if len(allowlist) > 0 {
		a.allow = make(map[string]struct{}, len(allowlist))
		for _, name := range allowlist {
			a.allow[name] = struct{}{}
		}
	}

	return a
}

// Prepare filters and sanitizes the properties of one feature. The result is
// in sorted raw-name order; on a sanitized name collision the first wins.
func (a *Accumulator) Prepare(props geo.Properties) ([]Property, []Warning) {
	if len(props) == 0 {
		return nil, nil
	}

	var warnings []Warning
	out := make([]Property, 0, len(props))
	seen := make(map[string]struct{}, len(props))

	for _, raw := range props.Keys() {
		if a.allow != nil {
			if _, ok := a.allow[raw]; !ok {
				continue
			}
		}

		name := SanitizeName(raw)
		if _, dup := seen[name]; dup {
			warnings = append(warnings, Warning{Kind: WarnNameCollision, Column: name, Raw: raw})
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Property{Name: name, Value: props[raw]})
	}

	return out, warnings
}

// AddPoint appends one point with its properties.
func (a *Accumulator) AddPoint(pos geo.Vec3, props []Property) []Warning {
	a.points.positions = append(a.points.positions, pos)
	return a.points.append(props, 1)
}

// AddLine appends one line and broadcasts its properties to every vertex.
// Closed lines go to the outline bundle. Empty lines are ignored.
func (a *Accumulator) AddLine(positions []geo.Vec3, props []Property, closed bool) []Warning {
	if len(positions) == 0 {
		return nil
	}

	b := &a.lines
	if closed {
		b = &a.outlines
	}
	b.positions = append(b.positions, positions...)
	b.lengths = append(b.lengths, len(positions))

	return b.append(props, len(positions))
}

// Data returns a snapshot of everything accumulated so far. The snapshot
// shares nothing with the accumulator.
func (a *Accumulator) Data() GeometryData {
	return GeometryData{
		Points: PointsData{
			Positions: slices.Clone(a.points.positions),
			Columns:   cloneColumns(a.points.columns),
		},
		Lines:    a.lines.lineData(),
		Outlines: a.outlines.lineData(),
	}
}

// bundle keeps the columns of one primitive class padded to the same row count.
type bundle struct {
	index     map[string]int
	positions []geo.Vec3
	lengths   []int
	columns   []*Column
	rows      int
}

func newBundle() bundle {
	return bundle{index: make(map[string]int)}
}

func (b *bundle) append(props []Property, n int) []Warning {
	var warnings []Warning
	written := make(map[int]struct{}, len(props))

	for _, p := range props {
		i, ok := b.index[p.Name]
		if !ok {
			i = len(b.columns)
			b.index[p.Name] = i
			b.columns = append(b.columns, &Column{
				Name:   p.Name,
				Values: repeat(nil, geo.Null, b.rows),
			})
		}

		col := b.columns[i]
		if k := p.Value.Kind(); k != geo.KindNull {
			switch {
			case col.Kind == geo.KindNull:
				col.Kind = k
			case col.Kind != k:
				warnings = append(warnings, Warning{Kind: WarnMismatch, Column: col.Name, Want: col.Kind, Got: k})
			}
		}

		col.Values = repeat(col.Values, p.Value, n)
		written[i] = struct{}{}
	}

	for i, col := range b.columns {
		if _, ok := written[i]; !ok {
			col.Values = repeat(col.Values, geo.Null, n)
		}
	}
	b.rows += n

	return warnings
}

func (b *bundle) lineData() LineStringData {
	return LineStringData{
		Positions: slices.Clone(b.positions),
		Lengths:   slices.Clone(b.lengths),
		Columns:   cloneColumns(b.columns),
	}
}

func repeat(dst []geo.Value, v geo.Value, n int) []geo.Value {
	for range n {
		dst = append(dst, v)
	}

	return dst
}

// SanitizeName makes a property name a valid attribute identifier: runes
// outside [A-Za-z0-9_] become '_' and a leading digit gets a '_' prefix.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}

	var sb strings.Builder
	sb.Grow(len(name) + 1)
	for i, r := range name {
		if i == 0 && r >= '0' && r <= '9' {
			sb.WriteByte('_')
		}
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}

	return sb.String()
}
