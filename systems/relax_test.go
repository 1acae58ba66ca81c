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

// seedLattice places a 5x5 grid with unit spacing filling a 4x4 plane.
func seedLattice(s *ParticleSystem) []ecs.Entity {
	var es []ecs.Entity
	for j := -2; j <= 2; j++ {
		for i := -2; i <= 2; i++ {
			es = append(es, s.CreateParticle(r3.Vec{X: float64(i), Y: float64(j)}, spacing(0.5, 0.5, 0.1)))
		}
	}
	return es
}

// interiorSpacing returns the distances from every particle not on the
// lattice border to its four nearest neighbors.
func interiorSpacing(s *ParticleSystem) []float64 {
	var out []float64
	for i, p := range s.Snapshot() {
		loc := p.Location()
		if math.Abs(loc.X) > 1.5 || math.Abs(loc.Y) > 1.5 {
			continue
		}
		for _, nb := range s.Index().KNearest(loc, 5) {
			if nb.ID != i {
				out = append(out, math.Sqrt(nb.DistSq))
			}
		}
	}
	return out
}

// ---------- Lattice convergence ----------

// configuredSpeed is the relaxation speed from the embedded defaults.
func configuredSpeed(t *testing.T) float64 {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg.Particles.Speed
}

func TestRelax_LatticeHoldsSpacing(t *testing.T) {
	speed := configuredSpeed(t)
	tests := []struct {
		name     string
		triangle bool
	}{
		{"triangle mode", true},
		{"quad mode", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPlaneSystem(4, tt.triangle)
			seedLattice(s)
			for i := 0; i < 50; i++ {
				s.Relax(speed)
				dists := interiorSpacing(s)
				if len(dists) != 36 {
					t.Fatalf("phase %d: got %d interior distances, want 36", i, len(dists))
				}
				for _, d := range dists {
					if math.Abs(d-1) > 0.05 {
						t.Fatalf("phase %d: interior spacing %v not within 5%% of 1", i, d)
					}
				}
			}
		})
	}
}

func TestRelax_LatticeSettles(t *testing.T) {
	s := newPlaneSystem(4, true)
	seedLattice(s)
	speed := configuredSpeed(t)
	var st RelaxStats
	for i := 0; i < 50; i++ {
		st = s.Relax(speed)
	}
	if st.MaxMove > 1e-4 {
		t.Errorf("max move after 50 phases = %v, want the lattice at rest", st.MaxMove)
	}
}

func TestRelaxStep(t *testing.T) {
	tests := []struct {
		name      string
		net       r3.Vec
		magnitude float64
		push      r3.Vec
		want      r3.Vec
	}{
		{"no forces", r3.Vec{}, 0, r3.Vec{}, r3.Vec{}},
		{"balanced", r3.Vec{X: 1e-15}, 4, r3.Vec{}, r3.Vec{}},
		{"single neighbor", r3.Vec{X: -2}, 2, r3.Vec{}, r3.Vec{X: -1}},
		{"partly cancelled", r3.Vec{Y: 1}, 4, r3.Vec{}, r3.Vec{Y: 0.25}},
		{"jitter only", r3.Vec{}, 0, r3.Vec{X: 3}, r3.Vec{X: 1}},
		{"capped", r3.Vec{X: 1}, 1, r3.Vec{X: 5}, r3.Vec{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := relaxStep(tt.net, tt.magnitude, tt.push)
			if r3.Norm(r3.Sub(got, tt.want)) > 1e-12 {
				t.Errorf("relaxStep = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRelax_RadiusTracksDensity(t *testing.T) {
	s := newPlaneSystem(4, true)
	es := seedLattice(s)
	s.Relax(0.3)

	// Center particle: four neighbors at 1, four at sqrt 2, self at 0.
	center := mustGet(t, s, es[12])
	want := (4 + 4*math.Sqrt2) / 9 / 2.1
	if math.Abs(center.Radius()-want) > 1e-9 {
		t.Errorf("center radius = %v, want %v", center.Radius(), want)
	}
}

// ---------- Isolated particle ----------

func TestRelax_IsolatedParticleUnchanged(t *testing.T) {
	s := newPlaneSystem(4, false)
	e := s.CreateParticle(r3.Vec{X: 0.3, Y: -0.2}, spacing(0.5, 0.5, 0.1))
	before := mustGet(t, s, e)

	st := s.Relax(0.3)
	after := mustGet(t, s, e)
	if after.Location() != before.Location() || after.Radius() != before.Radius() {
		t.Errorf("isolated particle changed: %+v -> %+v", before.Spacing, after.Spacing)
	}
	if st.Isolated != 1 || st.MeanMove != 0 {
		t.Errorf("stats = %+v, want one isolated particle and no movement", st)
	}
}

// ---------- Mirror constraints ----------

func TestRelax_MirrorPairStaysMirrored(t *testing.T) {
	s := newPlaneSystem(4, false)
	a := s.CreateParticle(r3.Vec{X: 0.6}, spacing(0.3, 0.3, 0.1))
	b := s.CreateParticle(r3.Vec{X: -0.6}, spacing(0.3, 0.3, 0.1))
	s.Pair(a, b)

	s.Relax(0.3)
	pa, pb := mustGet(t, s, a), mustGet(t, s, b)
	if math.Abs(pa.Location().X+pb.Location().X) > 1e-9 {
		t.Errorf("x not mirrored: %v vs %v", pa.Location().X, pb.Location().X)
	}
	if pa.Location().X <= 0.6 {
		t.Errorf("pair should repel, a.x = %v", pa.Location().X)
	}
	if pb.Location() != pb.Surface.Hit.Position {
		t.Errorf("follower location %v differs from its hit %v", pb.Location(), pb.Surface.Hit.Position)
	}
	checkPartners(t, s)
}

func TestRelax_FollowerTakesMirroredPosition(t *testing.T) {
	s := newPlaneSystem(4, false)
	a := s.CreateParticle(r3.Vec{X: 0.6, Y: 0.3}, spacing(0.3, 0.3, 0.1))
	b := s.CreateParticle(r3.Vec{X: -0.5, Y: -0.4}, spacing(0.3, 0.3, 0.1))
	s.CreateParticle(r3.Vec{X: 0.2, Y: 0.9}, spacing(0.3, 0.3, 0.1))
	s.Pair(a, b)

	s.Relax(0.3)
	pa, pb := mustGet(t, s, a), mustGet(t, s, b)
	want := r3.Vec{X: -pa.Location().X, Y: pa.Location().Y, Z: pa.Location().Z}
	if r3.Norm(r3.Sub(pb.Location(), want)) > 1e-12 {
		t.Errorf("follower at %v, want leader %v reflected to %v", pb.Location(), pa.Location(), want)
	}
	if pb.Surface.Normal != pb.Surface.Hit.Normal {
		t.Errorf("follower normal %v differs from its hit %v", pb.Surface.Normal, pb.Surface.Hit.Normal)
	}
}

func TestRelax_MirrorInvariantOnNoise(t *testing.T) {
	sampler := surface.NewNoise(surface.NoiseParams{Size: 4, Amplitude: 0.3, Frequency: 0.5, Octaves: 2, Seed: 11})
	s := NewParticleSystem(sampler, DefaultParams(), 5)
	s.SeedGrid(surface.Tessellate(sampler, 16).Vertices(), 6, true, 0.1)
	checkPartners(t, s)

	for i := 0; i < 5; i++ {
		s.Relax(0.3)
	}
	checked := 0
	for _, p := range s.Snapshot() {
		if !p.Mirror.Paired() {
			continue
		}
		q := mustGet(t, s, p.Mirror.Partner)
		if r3.Norm(r3.Sub(mirrorX(p.Location()), q.Location())) > 1e-9 {
			t.Errorf("pair %v/%v at %v, %v", p.Entity, q.Entity, p.Location(), q.Location())
		}
		checked++
	}
	if checked == 0 {
		t.Fatal("grid seeding with mirror produced no pairs")
	}
}

func TestRelax_LockedParticleStaysOnPlane(t *testing.T) {
	s := newPlaneSystem(4, false)
	locked := s.CreateParticle(r3.Vec{X: 0.01}, spacing(0.1, 0.1, 0.1))
	s.CreateParticle(r3.Vec{X: 0.25, Y: 0.1}, spacing(0.1, 0.1, 0.1))
	s.MirrorParticles(false)

	if p := mustGet(t, s, locked); !p.Mirror.LockX {
		t.Fatal("particle near the plane should be locked")
	}
	for i := 0; i < 3; i++ {
		s.Relax(0.3)
		if x := mustGet(t, s, locked).Location().X; math.Abs(x) > 1e-12 {
			t.Fatalf("locked particle left the plane: x = %v", x)
		}
	}
}

// ---------- Invariants ----------

func TestRelax_RadiusStaysPositive(t *testing.T) {
	sampler := surface.NewNoise(surface.NoiseParams{Size: 4, Amplitude: 0.4, Frequency: 0.5, Octaves: 3, Seed: 2})
	s := NewParticleSystem(sampler, DefaultParams(), 9)
	s.SeedGrid(surface.Tessellate(sampler, 16).Vertices(), 5, false, 0.5)

	for phase := 0; phase < 6; phase++ {
		s.Spread()
		s.Relax(0.3)
		for _, p := range s.Snapshot() {
			if !(p.Radius() > 0) {
				t.Fatalf("phase %d: particle %v radius %v", phase, p.Entity, p.Radius())
			}
		}
	}
}

func TestRelax_CoincidentParticlesSeparate(t *testing.T) {
	s := newPlaneSystem(4, false)
	a := s.CreateParticle(r3.Vec{}, spacing(0.1, 0.1, 0))
	b := s.CreateParticle(r3.Vec{}, spacing(0.1, 0.1, 0))

	s.Relax(0.3)
	pa, pb := mustGet(t, s, a), mustGet(t, s, b)
	if r3.Norm(r3.Sub(pa.Location(), pb.Location())) == 0 {
		t.Error("coincident particles should be pushed apart")
	}
	if pa.Location().Z != 0 || pb.Location().Z != 0 {
		t.Error("jitter should stay on the surface")
	}
}

func TestRelax_SnapshotOrderIndependent(t *testing.T) {
	points := []r3.Vec{{X: 0.1}, {X: 0.5, Y: 0.2}, {X: -0.3, Y: 0.4}, {X: 0.2, Y: -0.6}, {X: -0.5, Y: -0.1}}

	run := func(order []int) map[r3.Vec]r3.Vec {
		s := newPlaneSystem(4, false)
		ids := make(map[ecs.Entity]r3.Vec)
		for _, i := range order {
			ids[s.CreateParticle(points[i], spacing(0.2, 0.2, 0.1))] = points[i]
		}
		s.Relax(0.3)
		out := make(map[r3.Vec]r3.Vec)
		for e, start := range ids {
			out[start] = mustGet(t, s, e).Location()
		}
		return out
	}

	forward := run([]int{0, 1, 2, 3, 4})
	backward := run([]int{4, 3, 2, 1, 0})
	for start, loc := range forward {
		if r3.Norm(r3.Sub(loc, backward[start])) > 1e-12 {
			t.Errorf("particle from %v: %v forward, %v backward", start, loc, backward[start])
		}
	}
}

func TestRelax_TagsUntouched(t *testing.T) {
	s := newPlaneSystem(4, false)
	seedLattice(s)
	s.Relax(0.3)
	if c := s.CountByTag(); c[components.TagActive] != 25 {
		t.Errorf("relaxation changed tags: %v", c)
	}
}
