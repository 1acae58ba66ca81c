package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/mesh"
	"github.com/pthm-cable/tessellator/spatial"
)

// candidateTriangles is how many triangles, by centroid distance, are tested
// exactly for each query.
const candidateTriangles = 8

// MeshSampler projects points onto a triangulated mesh. Normals are
// interpolated from angle weighted vertex normals; curvature and the frame
// direction come from the normal variation around each vertex.
type MeshSampler struct {
	verts     []r3.Vec
	tris      [][3]int
	normals   []r3.Vec // per vertex
	curvature []float64
	direction []r3.Vec // per vertex direction of strongest normal change
	centroids *spatial.Index
	bounds    r3.Box
}

// NewMeshSampler builds a sampler over a copy of m. Polygons are triangulated.
// gain scales the raw normal deviation before it is clamped to [0, 1].
func NewMeshSampler(m *mesh.Mesh, gain float64) *MeshSampler {
	src := m.Clone()
	src.Triangulate()

	s := &MeshSampler{
		verts:     src.Verts,
		tris:      make([][3]int, len(src.Faces)),
		normals:   make([]r3.Vec, len(src.Verts)),
		curvature: make([]float64, len(src.Verts)),
		direction: make([]r3.Vec, len(src.Verts)),
		bounds:    src.Bounds(),
	}

	centroids := make([]r3.Vec, len(src.Faces))
	for i, f := range src.Faces {
		s.tris[i] = [3]int{f[0], f[1], f[2]}
		a, b, c := s.verts[f[0]], s.verts[f[1]], s.verts[f[2]]
		centroids[i] = r3.Scale(1.0/3, r3.Add(a, r3.Add(b, c)))

		n := newellTri(a, b, c)
		for j := 0; j < 3; j++ {
			p := s.verts[f[j]]
			e1 := r3.Sub(s.verts[f[(j+1)%3]], p)
			e2 := r3.Sub(s.verts[f[(j+2)%3]], p)
			if r3.Norm(e1) == 0 || r3.Norm(e2) == 0 {
				continue
			}
			alpha := math.Acos(math.Max(-1, math.Min(1, r3.Cos(e1, e2))))
			s.normals[f[j]] = r3.Add(s.normals[f[j]], r3.Scale(alpha, n))
		}
	}
	for i, n := range s.normals {
		if r3.Norm(n) > 0 {
			s.normals[i] = r3.Unit(n)
		}
	}

	for v, nbrs := range src.Neighbors() {
		minDot := 1.0
		var best r3.Vec
		bestRate := -1.0
		for _, w := range nbrs {
			dot := r3.Dot(s.normals[v], s.normals[w])
			minDot = math.Min(minDot, dot)
			edge := r3.Sub(s.verts[w], s.verts[v])
			l := r3.Norm(edge)
			if l == 0 {
				continue
			}
			if rate := (1 - dot) / l; rate > bestRate {
				bestRate = rate
				best = edge
			}
		}
		s.curvature[v] = ClampCurvature((1 - minDot) * gain)
		s.direction[v] = best
	}

	s.centroids = spatial.Build(centroids)
	return s
}

// VertexCount returns the number of sampler vertices.
func (s *MeshSampler) VertexCount() int { return len(s.verts) }

// Vertex returns a vertex position.
func (s *MeshSampler) Vertex(i int) r3.Vec { return s.verts[i] }

// VertexCurvature returns the clamped curvature estimate at a vertex.
func (s *MeshSampler) VertexCurvature(i int) float64 { return s.curvature[i] }

// Sample implements Sampler.
func (s *MeshSampler) Sample(q r3.Vec) Hit {
	if len(s.tris) == 0 {
		return Hit{Position: q, Normal: r3.Vec{Z: 1}, Frame: NewFrame(r3.Vec{Z: 1}, r3.Vec{X: 1})}
	}

	bestDist := math.Inf(1)
	var bestTri [3]int
	var bestPos r3.Vec
	var bestBary [3]float64
	for _, nb := range s.centroids.KNearest(q, candidateTriangles) {
		t := s.tris[nb.ID]
		p, bary := closestOnTriangle(q, s.verts[t[0]], s.verts[t[1]], s.verts[t[2]])
		if d := r3.Norm2(r3.Sub(p, q)); d < bestDist {
			bestDist, bestTri, bestPos, bestBary = d, t, p, bary
		}
	}

	var normal r3.Vec
	var curvature float64
	major := 0
	for j := 0; j < 3; j++ {
		normal = r3.Add(normal, r3.Scale(bestBary[j], s.normals[bestTri[j]]))
		curvature += bestBary[j] * s.curvature[bestTri[j]]
		if bestBary[j] > bestBary[major] {
			major = j
		}
	}
	if r3.Norm(normal) == 0 {
		normal = newellTri(s.verts[bestTri[0]], s.verts[bestTri[1]], s.verts[bestTri[2]])
	}
	normal = r3.Unit(normal)

	return Hit{
		Position:  bestPos,
		Normal:    normal,
		Curvature: ClampCurvature(curvature),
		Frame:     NewFrame(normal, s.direction[bestTri[major]]),
	}
}

// Bounds implements Sampler.
func (s *MeshSampler) Bounds() r3.Box { return s.bounds }

func newellTri(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(n) == 0 {
		return r3.Vec{Z: 1}
	}
	return r3.Unit(n)
}

// closestOnTriangle returns the point of triangle abc nearest to p and its
// barycentric weights.
func closestOnTriangle(p, a, b, c r3.Vec) (r3.Vec, [3]float64) {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)
	d1, d2 := r3.Dot(ab, ap), r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a, [3]float64{1, 0, 0}
	}

	bp := r3.Sub(p, b)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b, [3]float64{0, 1, 0}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab)), [3]float64{1 - v, v, 0}
	}

	cp := r3.Sub(p, c)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c, [3]float64{0, 0, 1}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac)), [3]float64{1 - w, 0, w}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b))), [3]float64{0, 1 - w, w}
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac))), [3]float64{1 - v - w, v, w}
}
