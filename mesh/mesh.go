// Package mesh provides the indexed polygon mesh handed between the host and
// the reconstructor, together with the editing operations it needs.
package mesh

import (
	"errors"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDegenerateFace is returned when a face has fewer than 3 distinct vertices.
	ErrDegenerateFace = errors.New("mesh: degenerate face")
	// ErrFaceExists is returned when a face with the same vertex set is already present.
	ErrFaceExists = errors.New("mesh: face already exists")
)

// Edge is an undirected edge stored with the lower vertex index first.
type Edge [2]int

// NewEdge returns the canonical edge between a and b.
func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// Mesh is a polygon mesh: vertex positions plus faces as vertex index loops.
// Face loops are counter-clockwise when seen from the side their normal points to.
type Mesh struct {
	Verts   []r3.Vec
	Faces   [][]int
	Normals []r3.Vec // Per-face unit normals, valid after RecalcNormals

	keys map[string]struct{} // face vertex sets, rebuilt lazily
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Verts:   append([]r3.Vec(nil), m.Verts...),
		Faces:   make([][]int, len(m.Faces)),
		Normals: append([]r3.Vec(nil), m.Normals...),
	}
	for i, f := range m.Faces {
		c.Faces[i] = append([]int(nil), f...)
	}
	return c
}

// Vertices returns the vertex positions.
func (m *Mesh) Vertices() []r3.Vec { return m.Verts }

// Polygons returns the face vertex loops.
func (m *Mesh) Polygons() [][]int { return m.Faces }

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(p r3.Vec) int {
	m.Verts = append(m.Verts, p)
	return len(m.Verts) - 1
}

// AddFace appends a face. Faces with repeated vertices, out of range indices
// or a vertex set identical to an existing face are rejected.
func (m *Mesh) AddFace(vs ...int) error {
	if len(vs) < 3 {
		return ErrDegenerateFace
	}
	seen := make(map[int]struct{}, len(vs))
	for _, v := range vs {
		if v < 0 || v >= len(m.Verts) {
			return ErrDegenerateFace
		}
		if _, dup := seen[v]; dup {
			return ErrDegenerateFace
		}
		seen[v] = struct{}{}
	}

	m.ensureKeys()
	key := faceKey(vs)
	if _, ok := m.keys[key]; ok {
		return ErrFaceExists
	}
	m.keys[key] = struct{}{}
	m.Faces = append(m.Faces, append([]int(nil), vs...))
	m.Normals = nil
	return nil
}

func (m *Mesh) ensureKeys() {
	if m.keys != nil {
		return
	}
	m.keys = make(map[string]struct{}, len(m.Faces))
	for _, f := range m.Faces {
		m.keys[faceKey(f)] = struct{}{}
	}
}

// setFaces replaces the face list and drops cached data.
func (m *Mesh) setFaces(faces [][]int) {
	m.Faces = faces
	m.Normals = nil
	m.keys = nil
}

func faceKey(vs []int) string {
	sorted := append([]int(nil), vs...)
	sort.Ints(sorted)
	buf := make([]byte, 0, len(sorted)*6)
	for i, v := range sorted {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	return string(buf)
}

// Edges returns every edge once, in order of first appearance in the face list.
func (m *Mesh) Edges() []Edge {
	seen := make(map[Edge]struct{})
	var edges []Edge
	for _, f := range m.Faces {
		for i := range f {
			e := NewEdge(f[i], f[(i+1)%len(f)])
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

// EdgeFaces maps each edge to the faces using it.
func (m *Mesh) EdgeFaces() map[Edge][]int {
	ef := make(map[Edge][]int)
	for fi, f := range m.Faces {
		for i := range f {
			e := NewEdge(f[i], f[(i+1)%len(f)])
			ef[e] = append(ef[e], fi)
		}
	}
	return ef
}

// Neighbors returns, per vertex, the vertices sharing an edge with it.
func (m *Mesh) Neighbors() [][]int {
	adj := make([][]int, len(m.Verts))
	for _, e := range m.Edges() {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	return adj
}

// Degrees returns the number of edges incident to each vertex.
func (m *Mesh) Degrees() []int {
	deg := make([]int, len(m.Verts))
	for _, e := range m.Edges() {
		deg[e[0]]++
		deg[e[1]]++
	}
	return deg
}

// RemoveVertices deletes the given vertices and every face using them.
// Remaining vertices are compacted; the returned slice maps old indices to
// new ones, with -1 for removed vertices.
func (m *Mesh) RemoveVertices(vs []int) []int {
	removed := make([]bool, len(m.Verts))
	for _, v := range vs {
		if v >= 0 && v < len(m.Verts) {
			removed[v] = true
		}
	}

	remap := make([]int, len(m.Verts))
	verts := m.Verts[:0:0]
	for i, p := range m.Verts {
		if removed[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(verts)
		verts = append(verts, p)
	}

	faces := make([][]int, 0, len(m.Faces))
outer:
	for _, f := range m.Faces {
		nf := make([]int, len(f))
		for i, v := range f {
			if removed[v] {
				continue outer
			}
			nf[i] = remap[v]
		}
		faces = append(faces, nf)
	}

	m.Verts = verts
	m.setFaces(faces)
	return remap
}

// Bounds returns the axis aligned bounding box of the vertices.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Verts) == 0 {
		return r3.Box{}
	}
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range m.Verts {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return r3.Box{Min: lo, Max: hi}
}

// FaceNormal returns the unit Newell normal of a vertex loop.
func (m *Mesh) FaceNormal(f []int) r3.Vec {
	return newell(m.Verts, f)
}

func newell(verts []r3.Vec, f []int) r3.Vec {
	var n r3.Vec
	for i := range f {
		a := verts[f[i]]
		b := verts[f[(i+1)%len(f)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}
