package mesh

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangulate splits every polygon with more than three vertices.
// Quads are cut along their shorter diagonal, larger polygons are ear clipped.
func (m *Mesh) Triangulate() {
	faces := make([][]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		switch {
		case len(f) == 3:
			faces = append(faces, f)
		case len(f) == 4:
			d02 := r3.Norm2(r3.Sub(m.Verts[f[0]], m.Verts[f[2]]))
			d13 := r3.Norm2(r3.Sub(m.Verts[f[1]], m.Verts[f[3]]))
			if d02 <= d13 {
				faces = append(faces, []int{f[0], f[1], f[2]}, []int{f[0], f[2], f[3]})
			} else {
				faces = append(faces, []int{f[0], f[1], f[3]}, []int{f[1], f[2], f[3]})
			}
		case len(f) > 4:
			faces = append(faces, m.earClip(f)...)
		}
	}
	m.setFaces(faces)
}

// earClip triangulates a polygon projected onto its Newell plane.
func (m *Mesh) earClip(f []int) [][]int {
	n := newell(m.Verts, f)
	if r3.Norm(n) == 0 {
		return fan(f)
	}
	// Build a 2D basis in the polygon plane
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	u := r3.Unit(r3.Cross(ref, n))
	v := r3.Cross(n, u)
	type pt struct{ x, y float64 }
	proj := make(map[int]pt, len(f))
	for _, vi := range f {
		p := m.Verts[vi]
		proj[vi] = pt{r3.Dot(p, u), r3.Dot(p, v)}
	}
	cross := func(a, b, c pt) float64 {
		return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
	}
	inside := func(p, a, b, c pt) bool {
		return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
	}

	poly := append([]int(nil), f...)
	var tris [][]int
	for guard := 0; len(poly) > 3 && guard < len(f)*len(f); guard++ {
		clipped := false
		for i := range poly {
			ia, ib, ic := poly[(i+len(poly)-1)%len(poly)], poly[i], poly[(i+1)%len(poly)]
			a, b, c := proj[ia], proj[ib], proj[ic]
			if cross(a, b, c) <= 0 {
				continue
			}
			ear := true
			for _, other := range poly {
				if other == ia || other == ib || other == ic {
					continue
				}
				if inside(proj[other], a, b, c) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			tris = append(tris, []int{ia, ib, ic})
			poly = append(poly[:i:i], poly[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break
		}
	}
	if len(poly) > 3 {
		return append(tris, fan(poly)...)
	}
	return append(tris, poly)
}

func fan(f []int) [][]int {
	tris := make([][]int, 0, len(f)-2)
	for i := 1; i+1 < len(f); i++ {
		tris = append(tris, []int{f[0], f[i], f[i+1]})
	}
	return tris
}

// SubdivideEdges inserts one midpoint on each given edge and re-triangulates
// the faces touching them. Non-triangle faces are triangulated first.
func (m *Mesh) SubdivideEdges(edges []Edge) {
	for _, f := range m.Faces {
		if len(f) != 3 {
			m.Triangulate()
			break
		}
	}

	mid := make(map[Edge]int, len(edges))
	for _, e := range edges {
		if _, ok := mid[e]; ok {
			continue
		}
		p := r3.Scale(0.5, r3.Add(m.Verts[e[0]], m.Verts[e[1]]))
		mid[e] = m.AddVertex(p)
	}

	faces := make([][]int, 0, len(m.Faces)*2)
	for _, t := range m.Faces {
		var ms [3]int
		count := 0
		for i := 0; i < 3; i++ {
			ms[i] = -1
			if v, ok := mid[NewEdge(t[i], t[(i+1)%3])]; ok {
				ms[i] = v
				count++
			}
		}

		switch count {
		case 0:
			faces = append(faces, t)
		case 1:
			i := 0
			for ms[i] < 0 {
				i++
			}
			a, b, c := t[i], t[(i+1)%3], t[(i+2)%3]
			m0 := ms[i]
			faces = append(faces, []int{a, m0, c}, []int{m0, b, c})
		case 2:
			// Rotate so the unsplit edge is (c, a)
			i := 0
			for ms[i] >= 0 {
				i++
			}
			c, a, b := t[i], t[(i+1)%3], t[(i+2)%3]
			m0, m1 := ms[(i+1)%3], ms[(i+2)%3]
			faces = append(faces, []int{m0, b, m1})
			if r3.Norm2(r3.Sub(m.Verts[a], m.Verts[m1])) <= r3.Norm2(r3.Sub(m.Verts[m0], m.Verts[c])) {
				faces = append(faces, []int{a, m0, m1}, []int{a, m1, c})
			} else {
				faces = append(faces, []int{a, m0, c}, []int{m0, m1, c})
			}
		case 3:
			a, b, c := t[0], t[1], t[2]
			m0, m1, m2 := ms[0], ms[1], ms[2]
			faces = append(faces,
				[]int{a, m0, m2},
				[]int{m0, b, m1},
				[]int{m2, m1, c},
				[]int{m0, m1, m2},
			)
		}
	}
	m.setFaces(faces)
}

// FillHoles closes boundary loops with a single polygon. Loops longer than
// maxSides are left open; maxSides <= 0 closes loops of any length.
// Returns the number of faces added.
func (m *Mesh) FillHoles(maxSides int) int {
	ef := m.EdgeFaces()

	type halfEdge struct{ from, to int }
	var boundary []halfEdge
	outgoing := make(map[int][]int)
	for _, f := range m.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if len(ef[NewEdge(a, b)]) != 1 {
				continue
			}
			// The hole runs against the face winding
			boundary = append(boundary, halfEdge{b, a})
			outgoing[b] = append(outgoing[b], a)
		}
	}

	used := make(map[halfEdge]bool, len(boundary))
	added := 0
	for _, h := range boundary {
		if used[h] {
			continue
		}
		used[h] = true
		loop := []int{h.from}
		cur := h.to
		closed := false
		for len(loop) <= len(boundary) {
			if cur == h.from {
				closed = true
				break
			}
			loop = append(loop, cur)
			next := -1
			for _, to := range outgoing[cur] {
				if !used[halfEdge{cur, to}] {
					next = to
					break
				}
			}
			if next < 0 {
				break
			}
			used[halfEdge{cur, next}] = true
			cur = next
		}
		if !closed || len(loop) < 3 {
			continue
		}
		if maxSides > 0 && len(loop) > maxSides {
			continue
		}
		if err := m.AddFace(loop...); err == nil {
			added++
		}
	}
	return added
}

// RecalcNormals makes face winding consistent across shared edges, orients
// closed components outward and recomputes per-face normals.
func (m *Mesh) RecalcNormals() {
	ef := m.EdgeFaces()
	visited := make([]bool, len(m.Faces))

	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		component := []int{seed}
		visited[seed] = true
		for q := 0; q < len(component); q++ {
			fi := component[q]
			f := m.Faces[fi]
			for i := range f {
				a, b := f[i], f[(i+1)%len(f)]
				for _, nj := range ef[NewEdge(a, b)] {
					if visited[nj] {
						continue
					}
					visited[nj] = true
					if hasDirected(m.Faces[nj], a, b) {
						reverse(m.Faces[nj])
					}
					component = append(component, nj)
				}
			}
		}
		m.orientOutward(component)
	}

	m.Normals = make([]r3.Vec, len(m.Faces))
	for i, f := range m.Faces {
		m.Normals[i] = newell(m.Verts, f)
	}
}

// orientOutward flips a component whose signed volume about its centroid is negative.
func (m *Mesh) orientOutward(component []int) {
	var centroid r3.Vec
	count := 0
	for _, fi := range component {
		for _, v := range m.Faces[fi] {
			centroid = r3.Add(centroid, m.Verts[v])
			count++
		}
	}
	if count == 0 {
		return
	}
	centroid = r3.Scale(1/float64(count), centroid)

	var volume float64
	for _, fi := range component {
		f := m.Faces[fi]
		a := r3.Sub(m.Verts[f[0]], centroid)
		for i := 1; i+1 < len(f); i++ {
			b := r3.Sub(m.Verts[f[i]], centroid)
			c := r3.Sub(m.Verts[f[i+1]], centroid)
			volume += r3.Dot(a, r3.Cross(b, c))
		}
	}
	if volume < -1e-12 {
		for _, fi := range component {
			reverse(m.Faces[fi])
		}
	}
}

func hasDirected(f []int, a, b int) bool {
	for i := range f {
		if f[i] == a && f[(i+1)%len(f)] == b {
			return true
		}
	}
	return false
}

func reverse(f []int) {
	for i, j := 0, len(f)-1; i < j; i, j = i+1, j-1 {
		f[i], f[j] = f[j], f[i]
	}
}

// JoinTriangles merges adjacent triangle pairs into quads when the angle
// between their normals is at most faceAngle and the summed deviation of the
// quad corners from 90 degrees is at most shapeAngle. Best scoring pairs are
// joined first. Returns the number of quads created.
func (m *Mesh) JoinTriangles(faceAngle, shapeAngle float64) int {
	type candidate struct {
		f1, f2 int
		quad   []int
		score  float64
		order  int
	}

	ef := m.EdgeFaces()
	var candidates []candidate
	for order, e := range m.Edges() {
		fs := ef[e]
		if len(fs) != 2 || len(m.Faces[fs[0]]) != 3 || len(m.Faces[fs[1]]) != 3 {
			continue
		}
		f1, f2 := fs[0], fs[1]
		quad := m.joinedQuad(f1, f2, e)
		if quad == nil {
			continue
		}
		n1 := newell(m.Verts, m.Faces[f1])
		n2 := newell(m.Verts, m.Faces[f2])
		normalAngle := math.Acos(clampUnit(r3.Dot(n1, n2)))
		if normalAngle > faceAngle {
			continue
		}
		shape, convex := m.quadShape(quad, r3.Add(n1, n2))
		if !convex || shape > shapeAngle {
			continue
		}
		candidates = append(candidates, candidate{f1, f2, quad, normalAngle + shape, order})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	joined := make([]bool, len(m.Faces))
	dropped := make([]bool, len(m.Faces))
	count := 0
	for _, c := range candidates {
		if joined[c.f1] || joined[c.f2] {
			continue
		}
		joined[c.f1], joined[c.f2] = true, true
		m.Faces[c.f1] = c.quad
		dropped[c.f2] = true
		count++
	}

	faces := make([][]int, 0, len(m.Faces)-count)
	for i, f := range m.Faces {
		if !dropped[i] {
			faces = append(faces, f)
		}
	}
	m.setFaces(faces)
	m.Normals = make([]r3.Vec, len(faces))
	for i, f := range faces {
		m.Normals[i] = newell(m.Verts, f)
	}
	return count
}

// joinedQuad returns the quad loop formed by two triangles sharing edge e,
// or nil if their winding disagrees.
func (m *Mesh) joinedQuad(f1, f2 int, e Edge) []int {
	t1, t2 := m.Faces[f1], m.Faces[f2]
	var p, q, r int
	found := false
	for i := 0; i < 3; i++ {
		a, b := t1[i], t1[(i+1)%3]
		if NewEdge(a, b) == e {
			p, q, r = a, b, t1[(i+2)%3]
			found = true
			break
		}
	}
	if !found || !hasDirected(t2, q, p) {
		return nil
	}
	s := -1
	for _, v := range t2 {
		if v != p && v != q {
			s = v
		}
	}
	if s < 0 || s == r {
		return nil
	}
	return []int{p, s, q, r}
}

// quadShape returns the summed corner deviation from a right angle and
// whether the quad is convex with respect to the reference normal.
func (m *Mesh) quadShape(quad []int, ref r3.Vec) (float64, bool) {
	var dev float64
	for i := range quad {
		cur := m.Verts[quad[i]]
		next := m.Verts[quad[(i+1)%4]]
		prev := m.Verts[quad[(i+3)%4]]
		e1 := r3.Sub(next, cur)
		e0 := r3.Sub(prev, cur)
		if r3.Dot(r3.Cross(e1, e0), ref) <= 0 {
			return 0, false
		}
		if r3.Norm(e1) == 0 || r3.Norm(e0) == 0 {
			return 0, false
		}
		angle := math.Acos(clampUnit(r3.Cos(e1, e0)))
		dev += math.Abs(angle - math.Pi/2)
	}
	return dev, true
}

func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
