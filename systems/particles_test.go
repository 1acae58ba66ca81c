package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/config"
	"github.com/pthm-cable/tessellator/surface"
)

func newPlaneSystem(size float64, triangle bool) *ParticleSystem {
	p := DefaultParams()
	p.TriangleMode = triangle
	return NewParticleSystem(surface.NewSquarePlane(size), p, 1)
}

func spacing(radius, target, adaptive float64) components.Spacing {
	return components.Spacing{Radius: radius, TargetResolution: target, Adaptive: adaptive}
}

func mustGet(t *testing.T, s *ParticleSystem, e ecs.Entity) Particle {
	t.Helper()
	p, ok := s.Get(e)
	if !ok {
		t.Fatalf("particle %v is not alive", e)
	}
	return p
}

// checkPartners verifies mirror back references are symmetric.
func checkPartners(t *testing.T, s *ParticleSystem) {
	t.Helper()
	for _, p := range s.Snapshot() {
		if !p.Mirror.Paired() {
			continue
		}
		q, ok := s.Get(p.Mirror.Partner)
		if !ok {
			t.Errorf("particle %v points at dead partner %v", p.Entity, p.Mirror.Partner)
			continue
		}
		if q.Mirror.Partner != p.Entity {
			t.Errorf("partner of %v points back at %v", p.Entity, q.Mirror.Partner)
		}
	}
}

// ---------- Params ----------

func TestParamsFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := ParamsFromConfig(cfg); got != DefaultParams() {
		t.Errorf("default config params = %+v, want %+v", got, DefaultParams())
	}
}

// ---------- Lifecycle ----------

func TestCreateParticle_ProjectsAndDefaults(t *testing.T) {
	s := newPlaneSystem(4, false)
	e := s.CreateParticle(r3.Vec{X: 0.5, Y: 0.25, Z: 3}, components.Spacing{})

	p := mustGet(t, s, e)
	if p.Location() != (r3.Vec{X: 0.5, Y: 0.25}) {
		t.Errorf("location = %v, want projected onto the plane", p.Location())
	}
	if p.Location() != p.Surface.Hit.Position {
		t.Errorf("location %v differs from hit %v", p.Location(), p.Surface.Hit.Position)
	}
	if p.Radius() != components.DefaultRadius {
		t.Errorf("radius = %v, want default %v", p.Radius(), components.DefaultRadius)
	}
	if p.Tag != components.TagActive {
		t.Errorf("tag = %v, want Active", p.Tag)
	}
	if p.Surface.History[0] != (r3.Vec{X: 0.5, Y: 0.25, Z: 3}) {
		t.Errorf("history = %v, want the requested location", p.Surface.History)
	}
	if s.Len() != 1 || s.Index().Len() != 1 {
		t.Errorf("Len = %d, index Len = %d, want 1", s.Len(), s.Index().Len())
	}
}

func TestRemoveParticle_ClearsPartner(t *testing.T) {
	s := newPlaneSystem(4, false)
	a := s.CreateParticle(r3.Vec{X: 1}, spacing(0.1, 0.1, 0))
	b := s.CreateParticle(r3.Vec{X: -1}, spacing(0.1, 0.1, 0))
	s.Pair(a, b)
	checkPartners(t, s)

	s.RemoveParticle(a)
	if _, ok := s.Get(a); ok {
		t.Error("removed particle is still alive")
	}
	if p := mustGet(t, s, b); p.Mirror.Paired() {
		t.Errorf("survivor still points at %v", p.Mirror.Partner)
	}
	if s.Len() != 1 || s.Index().Len() != 1 {
		t.Errorf("Len = %d, index Len = %d, want 1", s.Len(), s.Index().Len())
	}

	// Removing twice is a no-op.
	s.RemoveParticle(a)
	if s.Len() != 1 {
		t.Errorf("Len after second removal = %d, want 1", s.Len())
	}
}

func TestPair_UnlinksPreviousPartner(t *testing.T) {
	s := newPlaneSystem(4, false)
	a := s.CreateParticle(r3.Vec{X: 1}, spacing(0.1, 0.1, 0))
	b := s.CreateParticle(r3.Vec{X: -1}, spacing(0.1, 0.1, 0))
	c := s.CreateParticle(r3.Vec{X: -1, Y: 1}, spacing(0.1, 0.1, 0))
	s.Pair(a, b)
	s.Pair(a, c)

	if p := mustGet(t, s, b); p.Mirror.Paired() {
		t.Errorf("old partner still linked to %v", p.Mirror.Partner)
	}
	checkPartners(t, s)
}

func TestEmptySystem(t *testing.T) {
	s := newPlaneSystem(4, false)
	if !s.Index().IsEmpty() {
		t.Error("index of an empty system should be empty")
	}
	if st := s.Relax(0.3); st.Particles != 0 {
		t.Errorf("Relax on empty system = %+v", st)
	}
	if n := s.Spread(); n != 0 {
		t.Errorf("Spread on empty system created %d", n)
	}
	if _, _, ok := s.Nearest(r3.Vec{}); ok {
		t.Error("Nearest on empty system should report false")
	}
}

func TestCountByTag(t *testing.T) {
	s := newPlaneSystem(10, false)
	s.CreateParticle(r3.Vec{}, spacing(0.1, 0.1, 0))
	s.Spread()

	counts := s.CountByTag()
	if counts[components.TagDone] != 1 {
		t.Errorf("Done = %d, want 1", counts[components.TagDone])
	}
	if counts[components.TagActive] != 4 {
		t.Errorf("Active = %d, want 4", counts[components.TagActive])
	}
	if counts[components.TagRemoved] != 0 {
		t.Errorf("Removed = %d, want 0", counts[components.TagRemoved])
	}
}

func TestDraw_TwoLinesPerParticle(t *testing.T) {
	s := newPlaneSystem(4, false)
	e := s.CreateParticle(r3.Vec{}, spacing(0.2, 0.1, 0))
	s.CreateParticle(r3.Vec{X: 1}, spacing(0.2, 0.1, 0))
	s.Draw()

	if s.Sink().Len() != 4 {
		t.Fatalf("got %d lines, want 4", s.Sink().Len())
	}

	p := mustGet(t, s, e)
	first := s.Sink().Lines()[0]
	mid := r3.Scale(0.5, r3.Add(first.Start, first.End))
	want := r3.Add(p.Location(), r3.Scale(0.3*p.Radius(), p.Surface.Normal))
	if r3.Norm(r3.Sub(mid, want)) > 1e-12 {
		t.Errorf("line center = %v, want %v", mid, want)
	}
	if l := r3.Norm(r3.Sub(first.End, first.Start)); math.Abs(l-2*p.Radius()) > 1e-12 {
		t.Errorf("line length = %v, want %v", l, 2*p.Radius())
	}

	s.Relax(0.1)
	if s.Sink().Len() != 4 {
		t.Errorf("sink should be regenerated, has %d lines", s.Sink().Len())
	}
}

func TestNeighborDistances(t *testing.T) {
	s := newPlaneSystem(4, false)
	if d := s.NeighborDistances(); len(d) != 0 {
		t.Errorf("empty system gave %v", d)
	}
	s.CreateParticle(r3.Vec{}, spacing(0.2, 0.1, 0))
	if d := s.NeighborDistances(); len(d) != 0 {
		t.Errorf("single particle gave %v", d)
	}
	s.CreateParticle(r3.Vec{X: 0.5}, spacing(0.2, 0.1, 0))
	s.CreateParticle(r3.Vec{X: 1.5}, spacing(0.2, 0.1, 0))

	want := []float64{0.5, 0.5, 1}
	got := s.NeighborDistances()
	if len(got) != len(want) {
		t.Fatalf("got %d distances, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("distance %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRestoreParticle(t *testing.T) {
	s := newPlaneSystem(4, false)
	e := s.RestoreParticle(r3.Vec{X: 0.01, Z: 3}, spacing(0.2, 0.1, 0), components.TagDone, true)

	p := mustGet(t, s, e)
	if p.Tag != components.TagDone || !p.Mirror.LockX {
		t.Errorf("restored tag %v lock %v", p.Tag, p.Mirror.LockX)
	}
	if p.Location().Z != 0 {
		t.Errorf("restored location %v not projected", p.Location())
	}
	if n := s.Spread(); n != 0 {
		t.Errorf("restored Done particle spawned %d", n)
	}
}
