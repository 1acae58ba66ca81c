package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/mesh"
)

// MeshRenderer draws a polygon mesh as shaded triangles and wire edges.
// Geometry is converted once in Set; drawing does no mesh traversal.
type MeshRenderer struct {
	tris  [][3]rl.Vector3
	shade []rl.Color
	edges [][2]rl.Vector3

	fill rl.Color
	wire rl.Color
}

// NewMeshRenderer creates a renderer with the given fill and wire colors.
func NewMeshRenderer(fill, wire rl.Color) *MeshRenderer {
	return &MeshRenderer{fill: fill, wire: wire}
}

// Set replaces the drawn geometry. A nil mesh clears it.
func (r *MeshRenderer) Set(m *mesh.Mesh) {
	r.tris = r.tris[:0]
	r.shade = r.shade[:0]
	r.edges = r.edges[:0]
	if m == nil {
		return
	}

	for _, e := range m.Edges() {
		r.edges = append(r.edges, [2]rl.Vector3{vec3(m.Verts[e[0]]), vec3(m.Verts[e[1]])})
	}

	// Fan each polygon, shaded by its normal.
	light := r3.Unit(r3.Vec{X: 0.3, Y: -0.5, Z: 1})
	for _, f := range m.Faces {
		n := m.FaceNormal(f)
		k := 0.35
		if r3.Norm(n) > 0 {
			k += 0.65 * abs(r3.Dot(r3.Unit(n), light))
		}
		c := rl.Color{
			R: uint8(float64(r.fill.R) * k),
			G: uint8(float64(r.fill.G) * k),
			B: uint8(float64(r.fill.B) * k),
			A: r.fill.A,
		}
		for i := 1; i+1 < len(f); i++ {
			r.tris = append(r.tris, [3]rl.Vector3{vec3(m.Verts[f[0]]), vec3(m.Verts[f[i]]), vec3(m.Verts[f[i+1]])})
			r.shade = append(r.shade, c)
		}
	}
}

// Empty reports whether there is nothing to draw.
func (r *MeshRenderer) Empty() bool {
	return len(r.edges) == 0
}

// DrawFill renders both sides of every triangle. Must be called inside
// BeginMode3D.
func (r *MeshRenderer) DrawFill() {
	for i, t := range r.tris {
		rl.DrawTriangle3D(t[0], t[1], t[2], r.shade[i])
		rl.DrawTriangle3D(t[0], t[2], t[1], r.shade[i])
	}
}

// DrawWire renders every edge once. Must be called inside BeginMode3D.
func (r *MeshRenderer) DrawWire() {
	for _, e := range r.edges {
		rl.DrawLine3D(e[0], e[1], r.wire)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
