package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/geousd/internal/geo"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{":id", "_id"},
		{"@computed_region", "_computed_region"},
		{"created_at", "created_at"},
		{"1st", "_1st"},
		{"a b-c", "a_b_c"},
		{"héllo", "h_llo"},
		{"", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestPrepareAllowlist(t *testing.T) {
	acc := NewAccumulator([]string{"id", ":created_at"})

	props, warnings := acc.Prepare(geo.Properties{
		"id":          geo.Int(1),
		":created_at": geo.String("2024"),
		"name":        geo.String("x"),
		"_id":         geo.Int(2),
	})
	require.Empty(t, warnings)

	assert.Equal(t, []Property{
		{Name: "_created_at", Value: geo.String("2024")},
		{Name: "id", Value: geo.Int(1)},
	}, props)
}

func TestPrepareCollision(t *testing.T) {
	acc := NewAccumulator(nil)

	props, warnings := acc.Prepare(geo.Properties{
		":id": geo.Int(1),
		"@id": geo.Int(2),
	})

	require.Len(t, props, 1)
	assert.Equal(t, Property{Name: "_id", Value: geo.Int(1)}, props[0])
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnNameCollision, warnings[0].Kind)
	assert.Equal(t, "@id", warnings[0].Raw)
}

func TestPointColumnsArePadded(t *testing.T) {
	acc := NewAccumulator(nil)

	add := func(props geo.Properties) {
		p, _ := acc.Prepare(props)
		acc.AddPoint(geo.Vec3{1, 2, 3}, p)
	}
	add(geo.Properties{"a": geo.Int(1)})
	add(geo.Properties{"b": geo.String("x")})
	add(nil)

	data := acc.Data()
	require.NoError(t, data.Validate())
	assert.Equal(t, 3, data.Points.Len())

	a := data.Points.Column("a")
	require.NotNil(t, a)
	assert.Equal(t, []geo.Value{geo.Int(1), geo.Null, geo.Null}, a.Values)

	b := data.Points.Column("b")
	require.NotNil(t, b)
	assert.Equal(t, []geo.Value{geo.Null, geo.String("x"), geo.Null}, b.Values)
	assert.Equal(t, []string{"", "x", ""}, b.Strings())
}

func TestLinePropertiesBroadcast(t *testing.T) {
	acc := NewAccumulator(nil)

	p, _ := acc.Prepare(geo.Properties{"id": geo.Int(7)})
	acc.AddLine([]geo.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}, p, false)
	p, _ = acc.Prepare(geo.Properties{"id": geo.Int(8)})
	acc.AddLine([]geo.Vec3{{0, 1, 0}, {1, 1, 0}}, p, false)
	acc.AddLine(nil, p, false)

	data := acc.Data()
	require.NoError(t, data.Validate())

	assert.Equal(t, []int{3, 2}, data.Lines.Lengths)
	assert.Len(t, data.Lines.Positions, 5)
	assert.Equal(t, []int64{7, 7, 7, 8, 8}, data.Lines.Column("id").Ints())
	assert.Equal(t, []geo.Vec3{{0, 1, 0}, {1, 1, 0}}, data.Lines.Line(1))
	assert.Zero(t, data.Outlines.Len())
}

func TestClosedLinesGoToOutlines(t *testing.T) {
	acc := NewAccumulator(nil)

	acc.AddLine([]geo.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 0}}, nil, true)

	data := acc.Data()
	assert.Zero(t, data.Lines.Len())
	assert.Equal(t, []int{3}, data.Outlines.Lengths)
}

func TestFirstKindWins(t *testing.T) {
	acc := NewAccumulator(nil)

	var warnings []Warning
	for _, v := range []geo.Value{geo.Null, geo.Int(3), geo.Float(2.5), geo.String("s"), geo.Int(4)} {
		p, _ := acc.Prepare(geo.Properties{"v": v})
		warnings = append(warnings, acc.AddPoint(geo.Vec3{}, p)...)
	}

	data := acc.Data()
	col := data.Points.Column("v")
	require.NotNil(t, col)
	assert.Equal(t, geo.KindInt, col.Kind)
	assert.Equal(t, []int64{0, 3, 2, 0, 4}, col.Ints())

	require.Len(t, warnings, 2)
	assert.Equal(t, Warning{Kind: WarnMismatch, Column: "v", Want: geo.KindInt, Got: geo.KindFloat}, warnings[0])
	assert.Equal(t, Warning{Kind: WarnMismatch, Column: "v", Want: geo.KindInt, Got: geo.KindString}, warnings[1])
}

func TestNullOnlyColumnExportsAsString(t *testing.T) {
	acc := NewAccumulator(nil)

	p, _ := acc.Prepare(geo.Properties{"empty": geo.Null})
	acc.AddPoint(geo.Vec3{}, p)

	data := acc.Data()
	col := data.Points.Column("empty")
	require.NotNil(t, col)
	assert.Equal(t, geo.KindNull, col.Kind)
	assert.Equal(t, geo.KindString, col.ExportKind())
}

func TestDataIsSnapshot(t *testing.T) {
	acc := NewAccumulator(nil)

	p, _ := acc.Prepare(geo.Properties{"id": geo.Int(1)})
	acc.AddPoint(geo.Vec3{1, 1, 1}, p)
	first := acc.Data()

	first.Points.Positions[0] = geo.Vec3{9, 9, 9}
	first.Points.Columns[0].Values[0] = geo.Int(99)

	acc.AddPoint(geo.Vec3{2, 2, 2}, p)
	second := acc.Data()

	assert.Equal(t, []geo.Vec3{{1, 1, 1}, {2, 2, 2}}, second.Points.Positions)
	assert.Equal(t, []int64{1, 1}, second.Points.Column("id").Ints())
	assert.Len(t, first.Points.Positions, 1)
}

func TestValidateDetectsBrokenBundles(t *testing.T) {
	lines := LineStringData{
		Positions: make([]geo.Vec3, 3),
		Lengths:   []int{2},
	}
	assert.Error(t, lines.Validate())

	lines.Lengths = []int{3}
	lines.Columns = []*Column{{Name: "id", Values: []geo.Value{geo.Int(1), geo.Int(1), geo.Int(2)}, Kind: geo.KindInt}}
	assert.Error(t, lines.Validate(), "not uniform")

	points := PointsData{
		Positions: make([]geo.Vec3, 2),
		Columns:   []*Column{{Name: "id", Values: []geo.Value{geo.Int(1)}}},
	}
	assert.Error(t, points.Validate())
}
