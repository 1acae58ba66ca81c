package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/config"
	"github.com/pthm-cable/tessellator/debugdraw"
	"github.com/pthm-cable/tessellator/spatial"
	"github.com/pthm-cable/tessellator/surface"
)

// Params holds the force and growth constants of a ParticleSystem.
type Params struct {
	Neighbors       int     // k of the relaxation query, self included
	RadiusDivisor   float64 // radius = mean neighbor distance / RadiusDivisor
	SpreadNeighbors int     // k of the merge query, self included
	MergeFactor     float64
	SpawnFactor     float64
	SpawnDistance   float64 // in radii
	Jitter          float64
	DiagonalWeight  float64
	TriangleMode    bool
}

// DefaultParams returns the constants the algorithm was tuned with.
func DefaultParams() Params {
	return Params{
		Neighbors:       9,
		RadiusDivisor:   2.1,
		SpreadNeighbors: 2,
		MergeFactor:     1.5,
		SpawnFactor:     1.5,
		SpawnDistance:   2,
		Jitter:          16,
		DiagonalWeight:  0.2,
	}
}

// ParamsFromConfig reads Params from the particles section.
func ParamsFromConfig(cfg *config.Config) Params {
	p := cfg.Particles
	return Params{
		Neighbors:       p.Neighbors,
		RadiusDivisor:   p.RadiusDivisor,
		SpreadNeighbors: p.SpreadNeighbors,
		MergeFactor:     p.MergeFactor,
		SpawnFactor:     p.SpawnFactor,
		SpawnDistance:   p.SpawnDistance,
		Jitter:          p.Jitter,
		DiagonalWeight:  p.DiagonalWeight,
		TriangleMode:    p.TriangleMode,
	}
}

// Particle is a read-only copy of one particle's components.
type Particle struct {
	Entity  ecs.Entity
	Surface components.Surface
	Spacing components.Spacing
	Mirror  components.Mirror
	Tag     components.GrowthTag
}

// Location returns the particle's position on the surface.
func (p Particle) Location() r3.Vec { return p.Surface.Location }

// Radius returns half the particle's desired spacing.
func (p Particle) Radius() float64 { return p.Spacing.Radius }

// ParticleSystem owns the particle table and the spatial index built over it.
// Every phase reads a frozen snapshot and applies its writes at the end.
type ParticleSystem struct {
	world        *ecs.World
	mapper       *ecs.Map4[components.Surface, components.Spacing, components.Mirror, components.Growth]
	mirrorMap    *ecs.Map1[components.Mirror]
	growthFilter *ecs.Filter1[components.Growth]

	sampler surface.Sampler
	params  Params
	rng     *rand.Rand

	order     []ecs.Entity // creation order, drives snapshot order
	snapshot  []Particle
	slot      map[ecs.Entity]int // entity -> snapshot position
	maxRadius float64
	index     *spatial.Index
	dirty     bool

	sink debugdraw.Sink
}

// NewParticleSystem creates an empty system sampling the given surface.
// seed drives the jitter applied to coincident particles.
func NewParticleSystem(sampler surface.Sampler, params Params, seed int64) *ParticleSystem {
	world := ecs.NewWorld()
	s := &ParticleSystem{
		world:        world,
		mapper:       ecs.NewMap4[components.Surface, components.Spacing, components.Mirror, components.Growth](world),
		mirrorMap:    ecs.NewMap1[components.Mirror](world),
		growthFilter: ecs.NewFilter1[components.Growth](world),
		sampler:      sampler,
		params:       params,
		rng:          rand.New(rand.NewSource(seed)),
		slot:         make(map[ecs.Entity]int),
	}
	s.rebuild()
	return s
}

// Sampler returns the surface the particles live on.
func (s *ParticleSystem) Sampler() surface.Sampler { return s.sampler }

// Params returns the active constants.
func (s *ParticleSystem) Params() Params { return s.params }

// SetTriangleMode switches between triangle and quad packing.
func (s *ParticleSystem) SetTriangleMode(on bool) { s.params.TriangleMode = on }

// Sink returns the debug line list regenerated by every phase.
func (s *ParticleSystem) Sink() *debugdraw.Sink { return &s.sink }

// Len returns the number of live particles.
func (s *ParticleSystem) Len() int { return len(s.order) }

// CreateParticle samples the surface at location and adds a particle there
// with the given spacing. The index is rebuilt lazily before the next query.
func (s *ParticleSystem) CreateParticle(location r3.Vec, spacing components.Spacing) ecs.Entity {
	return s.create(location, s.sampler.Sample(location), spacing, components.TagActive)
}

// RestoreParticle re-creates a saved particle with its growth tag and plane
// lock. The surface is resampled at location.
func (s *ParticleSystem) RestoreParticle(location r3.Vec, spacing components.Spacing, tag components.GrowthTag, lockX bool) ecs.Entity {
	e := s.create(location, s.sampler.Sample(location), spacing, tag)
	s.mirrorMap.Get(e).LockX = lockX
	return e
}

func (s *ParticleSystem) create(requested r3.Vec, hit surface.Hit, spacing components.Spacing, tag components.GrowthTag) ecs.Entity {
	if spacing.Radius <= 0 {
		spacing.Radius = components.DefaultRadius
	}
	surf := components.NewSurface(requested, hit)
	mirror := components.Mirror{}
	growth := components.Growth{Tag: tag}
	e := s.mapper.NewEntity(&surf, &spacing, &mirror, &growth)
	s.order = append(s.order, e)
	s.dirty = true
	return e
}

// RemoveParticle destroys a particle and clears its partner's mirror handle.
func (s *ParticleSystem) RemoveParticle(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	s.destroy(e)
	order := s.order[:0]
	for _, o := range s.order {
		if o != e {
			order = append(order, o)
		}
	}
	s.order = order
	s.dirty = true
}

// destroy removes the entity from the world without touching s.order.
func (s *ParticleSystem) destroy(e ecs.Entity) {
	partner := s.mirrorMap.Get(e).Partner
	if !partner.IsZero() && s.world.Alive(partner) {
		pm := s.mirrorMap.Get(partner)
		if pm.Partner == e {
			pm.Partner = ecs.Entity{}
		}
	}
	s.world.RemoveEntity(e)
}

// Pair links a and b as mirror twins. Any previous partner of either is
// unlinked first so back references stay symmetric.
func (s *ParticleSystem) Pair(a, b ecs.Entity) {
	for _, e := range [2]ecs.Entity{a, b} {
		old := s.mirrorMap.Get(e).Partner
		if !old.IsZero() && s.world.Alive(old) {
			s.mirrorMap.Get(old).Partner = ecs.Entity{}
		}
	}
	s.mirrorMap.Get(a).Partner = b
	s.mirrorMap.Get(b).Partner = a
	s.dirty = true
}

// Get returns a copy of a live particle.
func (s *ParticleSystem) Get(e ecs.Entity) (Particle, bool) {
	if e.IsZero() || !s.world.Alive(e) {
		return Particle{}, false
	}
	return s.read(e), true
}

func (s *ParticleSystem) read(e ecs.Entity) Particle {
	surf, spacing, mirror, growth := s.mapper.Get(e)
	return Particle{
		Entity:  e,
		Surface: *surf,
		Spacing: *spacing,
		Mirror:  *mirror,
		Tag:     growth.Tag,
	}
}

// Snapshot returns the frozen particle state the index was built from.
// Positions in the slice are the IDs the index reports.
func (s *ParticleSystem) Snapshot() []Particle {
	s.ensureIndex()
	return s.snapshot
}

// Index returns the spatial index over Snapshot.
func (s *ParticleSystem) Index() *spatial.Index {
	s.ensureIndex()
	return s.index
}

// Nearest returns the particle closest to q.
func (s *ParticleSystem) Nearest(q r3.Vec) (Particle, float64, bool) {
	s.ensureIndex()
	nb, ok := s.index.Nearest(q)
	if !ok {
		return Particle{}, 0, false
	}
	return s.snapshot[nb.ID], nb.DistSq, true
}

// NeighborDistances returns the distance from every particle to its nearest
// other particle, in snapshot order. Particles alone in the system are skipped.
func (s *ParticleSystem) NeighborDistances() []float64 {
	s.ensureIndex()
	out := make([]float64, 0, len(s.snapshot))
	for i, p := range s.snapshot {
		for _, nb := range s.index.KNearest(p.Location(), 2) {
			if nb.ID != i {
				out = append(out, math.Sqrt(nb.DistSq))
				break
			}
		}
	}
	return out
}

// CountByTag counts live particles per growth tag.
func (s *ParticleSystem) CountByTag() map[components.GrowthTag]int {
	counts := make(map[components.GrowthTag]int, components.GrowthTagCount())
	query := s.growthFilter.Query()
	for query.Next() {
		g := query.Get()
		counts[g.Tag]++
	}
	return counts
}

func (s *ParticleSystem) ensureIndex() {
	if s.dirty {
		s.rebuild()
	}
}

// rebuild takes a new snapshot in creation order and indexes it.
func (s *ParticleSystem) rebuild() {
	snap := make([]Particle, 0, len(s.order))
	points := make([]r3.Vec, 0, len(s.order))
	slot := make(map[ecs.Entity]int, len(s.order))
	s.maxRadius = 0
	for _, e := range s.order {
		p := s.read(e)
		slot[e] = len(snap)
		snap = append(snap, p)
		points = append(points, p.Location())
		if p.Radius() > s.maxRadius {
			s.maxRadius = p.Radius()
		}
	}
	s.snapshot = snap
	s.slot = slot
	s.index = spatial.Build(points)
	s.dirty = false
}

// Draw regenerates the debug lines for the current snapshot.
func (s *ParticleSystem) Draw() {
	s.ensureIndex()
	s.sink.Clear()
	for _, p := range s.snapshot {
		s.drawParticle(p)
	}
}

// drawParticle adds the two frame axes of p, lifted off the surface.
func (s *ParticleSystem) drawParticle(p Particle) {
	f := p.Surface.Hit.Frame
	r := p.Radius()
	lift := r3.Add(p.Location(), r3.Scale(0.3*r, p.Surface.Normal))
	at := func(local r3.Vec) r3.Vec {
		return r3.Add(lift, r3.Scale(r, f.ToWorld(local)))
	}
	s.sink.Add(at(r3.Vec{X: -1}), at(r3.Vec{X: 1}), debugdraw.DarkOrange)
	s.sink.Add(at(r3.Vec{Y: -1}), at(r3.Vec{Y: 1}), debugdraw.DarkRed)
}
