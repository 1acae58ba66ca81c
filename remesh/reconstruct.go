// Package remesh turns a converged particle set into a polygon mesh by
// growing ownership regions over a dense proxy of the surface.
package remesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/config"
	"github.com/pthm-cable/tessellator/mesh"
	"github.com/pthm-cable/tessellator/spatial"
)

// Proxy is the dense surface the reconstruction samples ownership on.
// Reconstruct triangulates and subdivides it in place.
type Proxy interface {
	Vertices() []r3.Vec
	Polygons() [][]int
	Edges() []mesh.Edge
	Triangulate()
	SubdivideEdges(edges []mesh.Edge)
}

// Site is one particle as seen by the reconstruction.
type Site struct {
	Location r3.Vec
	Radius   float64
}

// Options controls refinement and cleanup.
type Options struct {
	TriangleMode    bool    // skip merging triangle pairs into quads
	MaxRefinePasses int     // cap on adaptive refinement passes, <= 0 for no cap
	FillHoleSides   int     // longest boundary loop filled, <= 0 for any
	JoinFaceAngle   float64 // radians
	JoinShapeAngle  float64 // radians
}

// DefaultOptions returns the cleanup thresholds of the original tool.
func DefaultOptions() Options {
	return Options{
		MaxRefinePasses: 16,
		FillHoleSides:   8,
		JoinFaceAngle:   1.0,
		JoinShapeAngle:  3.14,
	}
}

// OptionsFromConfig reads Options from the remesh section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TriangleMode:    cfg.Particles.TriangleMode,
		MaxRefinePasses: cfg.Remesh.MaxRefinePasses,
		FillHoleSides:   cfg.Remesh.FillHoleSides,
		JoinFaceAngle:   cfg.Remesh.JoinFaceAngle,
		JoinShapeAngle:  cfg.Remesh.JoinShapeAngle,
	}
}

// Ownership records which site a proxy vertex belongs to.
type Ownership struct {
	Site   int
	DistSq float64
	Valid  bool // connected to the site's seed vertex through same-owner edges
}

// Result is the reconstructed mesh and how it maps back to the sites.
type Result struct {
	Mesh       *mesh.Mesh
	VertexSite []int // output vertex -> site
	SiteVertex []int // site -> output vertex, -1 when culled

	Ownership    []Ownership // per proxy vertex after refinement
	RefinePasses int
	Emitted      int // triangles emitted before cleanup
	Culled       int // output vertices removed for low degree
	Filled       int // faces added by hole filling
	Joined       int // triangle pairs merged into quads
}

// Reconstruct builds the output mesh. sites are usually the particle
// snapshot; their order fixes the order of output vertices.
func Reconstruct(sites []Site, proxy Proxy, opts Options) Result {
	points := make([]r3.Vec, len(sites))
	for i, s := range sites {
		points[i] = s.Location
	}
	siteIndex := spatial.Build(points)

	res := Result{Mesh: mesh.New()}
	res.RefinePasses = refine(proxy, sites, siteIndex, opts.MaxRefinePasses)
	res.Ownership = assignOwners(proxy, siteIndex)
	validate(proxy, sites, res.Ownership)

	for _, s := range sites {
		res.Mesh.AddVertex(s.Location)
	}
	res.Emitted = emitFaces(res.Mesh, proxy, res.Ownership)

	res.VertexSite = make([]int, len(sites))
	for i := range sites {
		res.VertexSite[i] = i
	}
	res.Culled = cullLowDegree(res.Mesh, &res.VertexSite)

	res.SiteVertex = make([]int, len(sites))
	for i := range res.SiteVertex {
		res.SiteVertex[i] = -1
	}
	for v, s := range res.VertexSite {
		res.SiteVertex[s] = v
	}

	m := res.Mesh
	res.Filled = m.FillHoles(opts.FillHoleSides)
	m.Triangulate()
	m.RecalcNormals()
	if !opts.TriangleMode {
		res.Joined = m.JoinTriangles(opts.JoinFaceAngle, opts.JoinShapeAngle)
		m.RecalcNormals()
	}
	return res
}

// refine triangulates the proxy and splits every edge longer than the radius
// of the site nearest its midpoint, until the number of such edges stops
// shrinking. Returns the number of subdivision passes.
func refine(proxy Proxy, sites []Site, siteIndex *spatial.Index, maxPasses int) int {
	proxy.Triangulate()
	if siteIndex.IsEmpty() {
		return 0
	}
	last := -1
	passes := 0
	for maxPasses <= 0 || passes < maxPasses {
		verts := proxy.Vertices()
		var long []mesh.Edge
		for _, e := range proxy.Edges() {
			a, b := verts[e[0]], verts[e[1]]
			nb, _ := siteIndex.Nearest(r3.Scale(0.5, r3.Add(a, b)))
			r := sites[nb.ID].Radius
			if r*r < r3.Norm2(r3.Sub(a, b)) {
				long = append(long, e)
			}
		}
		if len(long) == 0 || (last >= 0 && len(long) >= last) {
			break
		}
		last = len(long)
		proxy.SubdivideEdges(long)
		proxy.Triangulate()
		passes++
	}
	return passes
}

// assignOwners records the nearest site of every proxy vertex.
func assignOwners(proxy Proxy, siteIndex *spatial.Index) []Ownership {
	verts := proxy.Vertices()
	owners := make([]Ownership, len(verts))
	for i, p := range verts {
		nb, ok := siteIndex.Nearest(p)
		if !ok {
			owners[i] = Ownership{Site: -1}
			continue
		}
		owners[i] = Ownership{Site: nb.ID, DistSq: nb.DistSq}
	}
	return owners
}

// validate seeds each site at its nearest proxy vertex, if the site owns it,
// then grows the seeds across proxy edges joining vertices of the same owner.
// Ownerships never reached stay invalid.
func validate(proxy Proxy, sites []Site, owners []Ownership) {
	verts := proxy.Vertices()
	if len(verts) == 0 {
		return
	}
	vertIndex := spatial.Build(verts)

	var front []int
	for si, s := range sites {
		nb, ok := vertIndex.Nearest(s.Location)
		if !ok {
			continue
		}
		if o := &owners[nb.ID]; o.Site == si && !o.Valid {
			o.Valid = true
			front = append(front, nb.ID)
		}
	}

	adj := make([][]int, len(verts))
	for _, e := range proxy.Edges() {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}

	for len(front) > 0 {
		var next []int
		for _, v := range front {
			for _, w := range adj[v] {
				if owners[w].Valid || owners[w].Site != owners[v].Site {
					continue
				}
				owners[w].Valid = true
				next = append(next, w)
			}
		}
		front = next
	}
}

// emitFaces adds a triangle for every proxy face whose vertices have exactly
// three distinct valid owners, wound to agree with that proxy face.
// Rejected faces are skipped.
func emitFaces(m *mesh.Mesh, proxy Proxy, owners []Ownership) int {
	verts := proxy.Vertices()
	emitted := 0
	for _, f := range proxy.Polygons() {
		var tri [3]int
		n := 0
		for _, v := range f {
			o := owners[v]
			if !o.Valid {
				continue
			}
			dup := false
			for _, t := range tri[:min(n, 3)] {
				if t == o.Site {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			if n < 3 {
				tri[n] = o.Site
			}
			n++
		}
		if n != 3 {
			continue
		}
		if r3.Dot(triNormal(m.Verts, tri), triNormal(verts, [3]int{f[0], f[1], f[2]})) < 0 {
			tri[1], tri[2] = tri[2], tri[1]
		}
		if err := m.AddFace(tri[0], tri[1], tri[2]); err == nil {
			emitted++
		}
	}
	return emitted
}

func triNormal(verts []r3.Vec, t [3]int) r3.Vec {
	return r3.Cross(r3.Sub(verts[t[1]], verts[t[0]]), r3.Sub(verts[t[2]], verts[t[0]]))
}

// cullLowDegree repeatedly deletes vertices with fewer than three incident
// edges, keeping vertexSite aligned with the compacted vertex list.
func cullLowDegree(m *mesh.Mesh, vertexSite *[]int) int {
	culled := 0
	for {
		var low []int
		for v, d := range m.Degrees() {
			if d < 3 {
				low = append(low, v)
			}
		}
		if len(low) == 0 {
			return culled
		}
		remap := m.RemoveVertices(low)
		kept := make([]int, len(m.Verts))
		for old, nv := range remap {
			if nv >= 0 {
				kept[nv] = (*vertexSite)[old]
			}
		}
		*vertexSite = kept
		culled += len(low)
	}
}
