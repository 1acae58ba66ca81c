package systems

import (
	"math"
	"sort"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/surface"
)

// FeatureVertex is a candidate seed with a sharpness score.
type FeatureVertex struct {
	Position  r3.Vec
	Sharpness float64
}

// TargetSpacing returns the spacing that fits resolution particles across the
// largest dimension of the surface.
func (s *ParticleSystem) TargetSpacing(resolution float64) float64 {
	if resolution <= 0 {
		return components.DefaultTargetResolution
	}
	scale := surface.MaxDimension(s.sampler)
	if scale <= 0 {
		return components.DefaultTargetResolution
	}
	return scale / resolution
}

// spacingAt returns a spacing whose radius is adjusted to the curvature of hit.
func spacingAt(hit surface.Hit, target, adaptive float64) components.Spacing {
	sp := components.Spacing{TargetResolution: target, Adaptive: adaptive}
	sp.Radius = sp.RadiusAt(hit.Curvature)
	return sp
}

// SeedFromStrokes walks each polyline and drops a particle whenever the walk
// is at least twice the last particle's radius away from it. Returns the
// number of particles created.
func (s *ParticleSystem) SeedFromStrokes(strokes [][]r3.Vec, resolution, adaptive float64) int {
	target := s.TargetSpacing(resolution)
	created := 0
	for _, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		place := func(co r3.Vec) Particle {
			hit := s.sampler.Sample(co)
			e := s.create(co, hit, spacingAt(hit, target, adaptive), components.TagActive)
			created++
			return s.read(e)
		}
		last := place(stroke[0])
		for _, co := range stroke[1:] {
			if r3.Norm(r3.Sub(co, last.Location())) >= last.Radius()*2 {
				last = place(co)
			}
		}
	}
	s.rebuild()
	return created
}

// SeedFromFeatures places particles at the count sharpest vertices, each at
// the fixed target spacing.
func (s *ParticleSystem) SeedFromFeatures(features []FeatureVertex, resolution, adaptive float64, count int) int {
	target := s.TargetSpacing(resolution)
	sorted := append([]FeatureVertex(nil), features...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sharpness > sorted[j].Sharpness
	})
	if count > len(sorted) {
		count = len(sorted)
	}
	for _, f := range sorted[:count] {
		s.CreateParticle(f.Position, components.Spacing{
			Radius:           target,
			TargetResolution: target,
			Adaptive:         adaptive,
		})
	}
	s.rebuild()
	return count
}

// SeedFromVertices places one default particle per point.
func (s *ParticleSystem) SeedFromVertices(points []r3.Vec, adaptive float64) int {
	for _, p := range points {
		sp := components.DefaultSpacing()
		sp.Adaptive = adaptive
		s.CreateParticle(p, sp)
	}
	s.rebuild()
	return len(points)
}

// gridCell is a lattice coordinate.
type gridCell struct {
	x, y, z int
}

// SeedGrid buckets points into a lattice of cell size TargetSpacing(resolution)
// and seeds one particle per occupied cell, at the cell's lattice point
// projected onto the surface. With mirror only cells on the +x side are used
// and each seed gets a twin at -x.
func (s *ParticleSystem) SeedGrid(points []r3.Vec, resolution float64, mirror bool, adaptive float64) int {
	cell := s.TargetSpacing(resolution)
	seen := make(map[gridCell]struct{})
	var cells []gridCell
	for _, p := range points {
		c := gridCell{
			x: int(math.Floor(p.X / cell)),
			y: int(math.Floor(p.Y / cell)),
			z: int(math.Floor(p.Z / cell)),
		}
		if mirror && c.x <= 0 {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cells = append(cells, c)
	}

	created := 0
	for _, c := range cells {
		co := r3.Vec{X: float64(c.x) * cell, Y: float64(c.y) * cell, Z: float64(c.z) * cell}
		hit := s.sampler.Sample(co)
		a := s.create(co, hit, spacingAt(hit, cell, adaptive), components.TagActive)
		created++
		if !mirror {
			continue
		}
		twinAt := mirrorX(hit.Position)
		twinHit := s.sampler.Sample(twinAt)
		b := s.create(twinAt, twinHit, spacingAt(twinHit, cell, adaptive), components.TagActive)
		s.Pair(a, b)
		created++
	}
	s.rebuild()
	return created
}

// MirrorParticles reclassifies the set against the x = 0 plane. Particles
// more than a radius on the +x side (every particle with anySide) get a twin
// at -x. Particles within half a radius of the plane are kept and locked to
// it. Everything else is discarded.
func (s *ParticleSystem) MirrorParticles(anySide bool) {
	order := make([]ecs.Entity, 0, 2*len(s.order))
	for _, e := range append([]ecs.Entity(nil), s.order...) {
		p := s.read(e)
		x, r := p.Location().X, p.Radius()
		switch {
		case x > r || anySide:
			at := mirrorX(p.Location())
			twin := s.create(at, s.sampler.Sample(at), p.Spacing, p.Tag)
			s.Pair(e, twin)
			order = append(order, twin, e)
		case math.Abs(x) < r*0.5:
			s.mirrorMap.Get(e).LockX = true
			order = append(order, e)
		default:
			s.destroy(e)
		}
	}
	s.order = order
	s.rebuild()
}
