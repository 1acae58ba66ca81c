package systems

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/tessellator/surface"
)

// coincident is the distance under which a neighbor counts as on top of a particle.
const coincident = 1e-12

// cancelTolerance treats a summed force as zero when it is this small
// relative to the summed force magnitudes.
const cancelTolerance = 1e-9

// RelaxStats summarizes one relaxation phase.
type RelaxStats struct {
	Particles  int
	Isolated   int     // particles left unchanged for lack of neighbors
	MeanMove   float64 // mean displacement
	MaxMove    float64
	MeanRadius float64
}

// relaxIntent is the buffered outcome of one particle's relaxation.
type relaxIntent struct {
	hit    surface.Hit
	radius float64
	moved  bool
}

// Relax runs one relaxation phase. Each particle is pushed by its nearest
// neighbors and resampled onto the surface at most speed radii away.
// All reads come from the start-of-phase snapshot.
func (s *ParticleSystem) Relax(speed float64) RelaxStats {
	s.ensureIndex()
	snap := s.snapshot
	intents := make([]relaxIntent, len(snap))
	stats := RelaxStats{Particles: len(snap)}

	for i := range snap {
		intents[i] = s.relaxOne(i, speed)
		if !intents[i].moved {
			stats.Isolated++
		}
	}
	s.constrainMirror(intents)

	moves := make([]float64, len(snap))
	radii := make([]float64, len(snap))
	for i := range snap {
		in := intents[i]
		radii[i] = snap[i].Radius()
		if !in.moved {
			continue
		}
		surf, spacing, _, _ := s.mapper.Get(snap[i].Entity)
		moves[i] = r3.Norm(r3.Sub(in.hit.Position, surf.Location))
		surf.Adopt(in.hit)
		spacing.Radius = in.radius
		radii[i] = in.radius
	}

	if len(snap) > 0 {
		stats.MeanMove = stat.Mean(moves, nil)
		stats.MaxMove = floats.Max(moves)
		stats.MeanRadius = stat.Mean(radii, nil)
	}

	s.rebuild()
	s.Draw()
	return stats
}

// relaxOne computes the new state of snapshot particle i.
func (s *ParticleSystem) relaxOne(i int, speed float64) relaxIntent {
	self := &s.snapshot[i]
	results := s.index.KNearest(self.Location(), s.params.Neighbors)

	var movement, push r3.Vec
	var magnitude, distSum float64
	count := 0
	for _, nb := range results {
		if nb.ID == i {
			continue
		}
		dist := math.Sqrt(nb.DistSq)
		if dist < coincident {
			push = r3.Add(push, jitter(s.rng, self.Surface.Normal, s.params.Jitter, self.Radius()))
			continue
		}
		f := quadForce(self, &s.snapshot[nb.ID], &s.params)
		movement = r3.Add(movement, f)
		magnitude += r3.Norm(f)
		distSum += dist
		count++
	}

	radius := self.Radius()
	switch {
	case count > 0:
		radius = distSum / float64(len(results)) / s.params.RadiusDivisor
		if radius <= 0 {
			radius = self.Radius()
		}
	case r3.Norm(push) == 0:
		return relaxIntent{}
	}

	step := relaxStep(movement, magnitude, push)
	target := r3.Add(self.Location(), r3.Scale(radius*speed, step))
	return relaxIntent{hit: s.sampler.Sample(target), radius: radius, moved: true}
}

// relaxStep is the movement direction scaled by how much of the summed force
// magnitude survives in the net force. Balanced neighborhoods give a zero
// step. Jitter is added as a unit push and the result is capped at unit length.
func relaxStep(net r3.Vec, magnitude float64, push r3.Vec) r3.Vec {
	var step r3.Vec
	if magnitude > 0 && r3.Norm(net) > cancelTolerance*magnitude {
		step = r3.Scale(1/magnitude, net)
	}
	if l := r3.Norm(push); l > 0 {
		step = r3.Add(step, r3.Scale(1/l, push))
	}
	if l := r3.Norm(step); l > 1 {
		step = r3.Scale(1/l, step)
	}
	return step
}

// constrainMirror enforces the plane constraints on the buffered intents.
// Of each pair the particle earlier in the snapshot leads and its partner
// takes the leader's position reflected across x = 0. Locked particles are
// pinned to x = 0.
func (s *ParticleSystem) constrainMirror(intents []relaxIntent) {
	for i := range s.snapshot {
		p := &s.snapshot[i]
		if p.Mirror.Paired() {
			j, ok := s.slot[p.Mirror.Partner]
			if ok && j > i {
				lead := s.resolved(i, intents)
				follow := s.resolved(j, intents)
				follow.hit = s.mirrorHit(lead.hit)
				intents[j] = follow
			}
		}
	}
	for i := range s.snapshot {
		if s.snapshot[i].Mirror.LockX {
			in := s.resolved(i, intents)
			in.hit.Position.X = 0
			intents[i] = in
		}
	}
}

// mirrorHit samples the surface at the reflection of h and pins the
// position to the exact reflection.
func (s *ParticleSystem) mirrorHit(h surface.Hit) surface.Hit {
	at := mirrorX(h.Position)
	out := s.sampler.Sample(at)
	out.Position = at
	return out
}

// resolved returns the intent for i, turning a no-op into an explicit write
// of the current state so constraints can be applied to it.
func (s *ParticleSystem) resolved(i int, intents []relaxIntent) relaxIntent {
	if intents[i].moved {
		return intents[i]
	}
	p := &s.snapshot[i]
	return relaxIntent{hit: p.Surface.Hit, radius: p.Radius(), moved: true}
}
