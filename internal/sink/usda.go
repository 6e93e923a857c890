package sink

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/geo"
	"github.com/woozymasta/geousd/internal/geometry"
)

const worldPath = "/world"

// Stage writes primitives as a USD ASCII layer under a /world Xform.
type Stage struct {
	buf    bytes.Buffer
	names  map[string]struct{}
	output config.Output
}

// NewStage returns an empty stage.
func NewStage(output config.Output) *Stage {
	return &Stage{output: output, names: make(map[string]struct{})}
}

// CreatePointPrimitive implements Sink as a UsdGeom Points prim.
func (s *Stage) CreatePointPrimitive(name string, positions []geo.Vec3, columns []*geometry.Column) (Handle, error) {
	if err := s.claim(name); err != nil {
		return "", err
	}

	fmt.Fprintf(&s.buf, "    def Points %s\n    {\n", quote(name))
	writePoints(&s.buf, positions)
	writePrimvars(&s.buf, columns)
	s.buf.WriteString("    }\n")

	return Handle(worldPath + "/" + name), nil
}

// CreateLinePrimitive implements Sink as a linear UsdGeom BasisCurves prim.
// Closed lines are written as periodic curves.
func (s *Stage) CreateLinePrimitive(name string, positions []geo.Vec3, lengths []int, columns []*geometry.Column, closed bool) (Handle, error) {
	if err := s.claim(name); err != nil {
		return "", err
	}

	wrap := "nonperiodic"
	if closed {
		wrap = "periodic"
	}

	fmt.Fprintf(&s.buf, "    def BasisCurves %s\n    {\n", quote(name))
	s.buf.WriteString("        uniform token type = \"linear\"\n")
	fmt.Fprintf(&s.buf, "        uniform token wrap = %s\n", quote(wrap))

	s.buf.WriteString("        int[] curveVertexCounts = [")
	for i, n := range lengths {
		if i > 0 {
			s.buf.WriteString(", ")
		}
		s.buf.WriteString(strconv.Itoa(n))
	}
	s.buf.WriteString("]\n")

	writePoints(&s.buf, positions)
	writePrimvars(&s.buf, columns)
	s.buf.WriteString("    }\n")

	return Handle(worldPath + "/" + name), nil
}

// WriteTo writes the complete layer.
func (s *Stage) WriteTo(w io.Writer) (int64, error) {
	var out bytes.Buffer

	scale := formatFloat(s.output.ScaleFactor)
	out.WriteString("#usda 1.0\n(\n")
	out.WriteString("    defaultPrim = \"world\"\n")
	fmt.Fprintf(&out, "    metersPerUnit = %s\n", formatFloat(s.output.MetersPerUnit))
	fmt.Fprintf(&out, "    upAxis = %s\n", quote(strings.ToUpper(s.output.UpAxis)))
	out.WriteString(")\n\n")
	out.WriteString("def Xform \"world\"\n{\n")
	fmt.Fprintf(&out, "    float3 xformOp:scale = (%s, %s, %s)\n", scale, scale, scale)
	out.WriteString("    uniform token[] xformOpOrder = [\"xformOp:scale\"]\n")
	if s.buf.Len() > 0 {
		out.WriteString("\n")
		out.Write(s.buf.Bytes())
	}
	out.WriteString("}\n")

	return out.WriteTo(w)
}

func (s *Stage) claim(name string) error {
	if geometry.SanitizeName(name) != name {
		return fmt.Errorf("invalid prim name %q", name)
	}
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("prim %q already exists", name)
	}
	s.names[name] = struct{}{}

	return nil
}

func writePoints(buf *bytes.Buffer, positions []geo.Vec3) {
	buf.WriteString("        point3f[] points = [")
	for i, p := range positions {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(buf, "(%s, %s, %s)", formatFloat32(p.X()), formatFloat32(p.Y()), formatFloat32(p.Z()))
	}
	buf.WriteString("]\n")
}

// writePrimvars writes one vertex-interpolated primvar per column, typed by
// the column's export kind.
func writePrimvars(buf *bytes.Buffer, columns []*geometry.Column) {
	for _, c := range columns {
		var typ string
		var items []string

		switch c.ExportKind() {
		case geo.KindInt:
			ints := c.Ints()
			typ = "int[]"
			items = make([]string, len(ints))
			for i, v := range ints {
				if v > math.MaxInt32 || v < math.MinInt32 {
					typ = "int64[]"
				}
				items[i] = strconv.FormatInt(v, 10)
			}
		case geo.KindFloat:
			typ = "float[]"
			floats := c.Floats()
			items = make([]string, len(floats))
			for i, v := range floats {
				items[i] = formatFloat32(v)
			}
		default:
			typ = "string[]"
			strs := c.Strings()
			items = make([]string, len(strs))
			for i, v := range strs {
				items[i] = quote(v)
			}
		}

		fmt.Fprintf(buf, "        %s primvars:%s = [%s] (\n", typ, c.Name, strings.Join(items, ", "))
		buf.WriteString("            interpolation = \"vertex\"\n")
		buf.WriteString("        )\n")
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloat32(v float64) string {
	return strconv.FormatFloat(float64(float32(v)), 'g', -1, 32)
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
