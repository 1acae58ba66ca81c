package systems

import (
	"math"
	"sort"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/surface"
)

// SpreadStats summarizes one growth phase.
type SpreadStats struct {
	Created int
	Merged  int // particles removed by merging into a neighbor
	Done    int // particles that finished spreading this phase
	Active  int // particles still active after the phase
}

// spawnIntent is a particle accepted for creation at phase end.
type spawnIntent struct {
	requested r3.Vec
	hit       surface.Hit
	spacing   components.Spacing
}

// spreadState is the write buffer of one growth phase.
type spreadState struct {
	removed []bool
	moves   map[int]r3.Vec // survivor snapshot position -> merge midpoint
	done    []int
	spawns  []spawnIntent
}

// Spread runs one growth phase and returns the number of particles created.
func (s *ParticleSystem) Spread() int {
	return s.SpreadWithStats().Created
}

// SpreadWithStats runs one growth phase. Every Active particle either merges
// into an overcrowding neighbor or tries to spawn along its four frame axes
// and becomes Done.
func (s *ParticleSystem) SpreadWithStats() SpreadStats {
	s.ensureIndex()
	snap := s.snapshot
	st := &spreadState{
		removed: make([]bool, len(snap)),
		moves:   make(map[int]r3.Vec),
	}

	for i := range snap {
		if snap[i].Tag != components.TagActive || st.removed[i] {
			continue
		}
		if s.mergeOne(i, st) {
			continue
		}
		s.spawnFrom(i, st)
		st.done = append(st.done, i)
	}

	return s.applySpread(st)
}

// mergeOne removes particle i if a neighbor crowds it, moving the neighbor
// to their midpoint. Reports whether i was removed.
func (s *ParticleSystem) mergeOne(i int, st *spreadState) bool {
	self := &s.snapshot[i]
	for _, nb := range s.index.KNearest(self.Location(), s.params.SpreadNeighbors) {
		if nb.ID == i || st.removed[nb.ID] {
			continue
		}
		other := &s.snapshot[nb.ID]
		limit := (self.Radius() + other.Radius()) / 2 * s.params.MergeFactor
		if nb.DistSq < limit*limit {
			st.removed[i] = true
			st.moves[nb.ID] = r3.Scale(0.5, r3.Add(self.Location(), other.Location()))
			return true
		}
	}
	return false
}

// spawnFrom tries the four frame directions of particle i.
func (s *ParticleSystem) spawnFrom(i int, st *spreadState) {
	self := &s.snapshot[i]
	f := self.Surface.Hit.Frame
	step := self.Radius() * s.params.SpawnDistance
	for _, dir := range [4]r3.Vec{f.U, f.V, negate(f.U), negate(f.V)} {
		requested := r3.Add(self.Location(), r3.Scale(step, dir))
		hit := s.sampler.Sample(requested)
		spacing := components.Spacing{
			TargetResolution: self.Spacing.TargetResolution,
			Adaptive:         self.Spacing.Adaptive,
		}
		spacing.Radius = spacing.RadiusAt(hit.Curvature)
		if !s.spawnFree(hit.Position, self.Radius(), spacing.Radius, st) {
			continue
		}
		st.spawns = append(st.spawns, spawnIntent{requested: requested, hit: hit, spacing: spacing})
	}
}

// spawnFree reports whether a candidate at pos keeps clear of every live
// snapshot particle and every spawn accepted earlier in the phase.
// The clearance to a particle of radius r is
// SpawnFactor * max(parent, (parent+r)/2, (child+r)/2).
func (s *ParticleSystem) spawnFree(pos r3.Vec, parent, child float64, st *spreadState) bool {
	clearance := func(r float64) float64 {
		return s.params.SpawnFactor * math.Max(parent, (math.Max(parent, child)+r)/2)
	}

	for _, nb := range s.index.Within(pos, clearance(s.maxRadius)) {
		if st.removed[nb.ID] {
			continue
		}
		c := clearance(s.snapshot[nb.ID].Radius())
		if nb.DistSq < c*c {
			return false
		}
	}
	for _, sp := range st.spawns {
		c := clearance(sp.spacing.Radius)
		if r3.Norm2(r3.Sub(pos, sp.hit.Position)) < c*c {
			return false
		}
	}
	return true
}

// applySpread commits the phase: merge moves, tag changes, removals and
// spawns, then rebuilds the index.
func (s *ParticleSystem) applySpread(st *spreadState) SpreadStats {
	snap := s.snapshot
	stats := SpreadStats{Created: len(st.spawns), Done: len(st.done)}

	survivors := make([]int, 0, len(st.moves))
	for id := range st.moves {
		survivors = append(survivors, id)
	}
	sort.Ints(survivors)
	for _, id := range survivors {
		if st.removed[id] {
			continue
		}
		surf, _, _, _ := s.mapper.Get(snap[id].Entity)
		surf.Adopt(s.sampler.Sample(st.moves[id]))
	}

	for _, id := range st.done {
		_, _, _, growth := s.mapper.Get(snap[id].Entity)
		growth.Advance(components.TagDone)
	}

	order := make([]ecs.Entity, 0, len(s.order)+len(st.spawns))
	for id, p := range snap {
		if !st.removed[id] {
			order = append(order, p.Entity)
			continue
		}
		_, _, _, growth := s.mapper.Get(p.Entity)
		growth.Advance(components.TagRemoved)
		s.destroy(p.Entity)
		stats.Merged++
	}
	s.order = order

	for _, sp := range st.spawns {
		s.create(sp.requested, sp.hit, sp.spacing, components.TagActive)
	}

	s.rebuild()
	s.Draw()
	for _, p := range s.snapshot {
		if p.Tag == components.TagActive {
			stats.Active++
		}
	}
	return stats
}
