package runner

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/remesh"
	"github.com/pthm-cable/tessellator/systems"
	"github.com/pthm-cable/tessellator/telemetry"
)

// Sites converts the particle snapshot into reconstruction sites, keeping
// snapshot order.
func Sites(sys *systems.ParticleSystem) []remesh.Site {
	snap := sys.Snapshot()
	sites := make([]remesh.Site, len(snap))
	for i, p := range snap {
		sites[i] = remesh.Site{Location: p.Location(), Radius: p.Radius()}
	}
	return sites
}

// SnapshotOf captures the particle set. Mirror partners become indices into
// the particle list.
func SnapshotOf(sys *systems.ParticleSystem, seed int64, step int, surfaceName string) *telemetry.Snapshot {
	snap := sys.Snapshot()
	index := make(map[ecs.Entity]int, len(snap))
	for i, p := range snap {
		index[p.Entity] = i
	}

	out := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		RNGSeed:   seed,
		Surface:   surfaceName,
		Step:      step,
		Particles: make([]telemetry.ParticleState, len(snap)),
	}
	for i, p := range snap {
		partner := -1
		if p.Mirror.Paired() {
			if j, ok := index[p.Mirror.Partner]; ok {
				partner = j
			}
		}
		loc := p.Location()
		out.Particles[i] = telemetry.ParticleState{
			X:                loc.X,
			Y:                loc.Y,
			Z:                loc.Z,
			Radius:           p.Spacing.Radius,
			TargetResolution: p.Spacing.TargetResolution,
			Adaptive:         p.Spacing.Adaptive,
			Tag:              p.Tag.String(),
			Partner:          partner,
			LockX:            p.Mirror.LockX,
		}
	}
	return out
}

// Restore adds the particles of a snapshot to sys, re-linking mirror twins.
// Locations are resampled onto the system's surface.
func Restore(sys *systems.ParticleSystem, snap *telemetry.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tags := make([]components.GrowthTag, len(snap.Particles))
	for i, ps := range snap.Particles {
		tag, ok := components.ParseGrowthTag(ps.Tag)
		if !ok || tag == components.TagRemoved {
			return fmt.Errorf("particle %d: unusable tag %q", i, ps.Tag)
		}
		tags[i] = tag
	}

	entities := make([]ecs.Entity, len(snap.Particles))
	for i, ps := range snap.Particles {
		spacing := components.Spacing{
			Radius:           ps.Radius,
			TargetResolution: ps.TargetResolution,
			Adaptive:         ps.Adaptive,
		}
		entities[i] = sys.RestoreParticle(r3.Vec{X: ps.X, Y: ps.Y, Z: ps.Z}, spacing, tags[i], ps.LockX)
	}
	for i, ps := range snap.Particles {
		if ps.Partner > i {
			sys.Pair(entities[i], entities[ps.Partner])
		}
	}
	return nil
}
