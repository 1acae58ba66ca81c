package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/surface"
)

func particleAt(loc, normal r3.Vec, radius float64) Particle {
	hit := surface.Hit{
		Position: loc,
		Normal:   normal,
		Frame:    surface.NewFrame(normal, r3.Vec{X: 1}),
	}
	return Particle{
		Surface: components.NewSurface(loc, hit),
		Spacing: spacing(radius, 0.1, 0),
	}
}

func TestForceVector(t *testing.T) {
	tests := []struct {
		name         string
		from, target r3.Vec
		want         r3.Vec
	}{
		{"coincident", r3.Vec{X: 1}, r3.Vec{X: 1}, r3.Vec{}},
		{"unit", r3.Vec{X: 1}, r3.Vec{}, r3.Vec{X: 1}},
		{"inverse cube", r3.Vec{X: 2}, r3.Vec{}, r3.Vec{X: 0.125}},
		{"points away from target", r3.Vec{}, r3.Vec{Y: 0.5}, r3.Vec{Y: -8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := forceVector(tt.from, tt.target)
			if r3.Norm(r3.Sub(got, tt.want)) > 1e-12 {
				t.Errorf("forceVector = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuadForce_IgnoresOpposingNormals(t *testing.T) {
	p := DefaultParams()
	self := particleAt(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	other := particleAt(r3.Vec{X: 1}, r3.Vec{Z: -1}, 0.5)
	if f := quadForce(&self, &other, &p); f != (r3.Vec{}) {
		t.Errorf("force across a fold = %v, want zero", f)
	}
}

func TestQuadForce_TriangleModeIsPureRepulsion(t *testing.T) {
	p := DefaultParams()
	p.TriangleMode = true
	self := particleAt(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	other := particleAt(r3.Vec{X: 1}, r3.Vec{Z: 1}, 0.5)

	f := quadForce(&self, &other, &p)
	if math.Abs(f.X+2) > 1e-12 || f.Y != 0 || f.Z != 0 {
		t.Errorf("triangle force = %v, want (-2, 0, 0)", f)
	}
}

func TestQuadForce_DiagonalsAddAlongAxis(t *testing.T) {
	p := DefaultParams()
	self := particleAt(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	other := particleAt(r3.Vec{X: 1}, r3.Vec{Z: 1}, 0.5)

	f := quadForce(&self, &other, &p)
	if f.X >= -2 {
		t.Errorf("quad force x = %v, want stronger than plain repulsion", f.X)
	}
	if math.Abs(f.Y) > 1e-12 {
		t.Errorf("quad force y = %v, want symmetric diagonals to cancel", f.Y)
	}
}

func TestQuadForce_DiagonalsUsePairRadius(t *testing.T) {
	p := DefaultParams()
	small := particleAt(r3.Vec{}, r3.Vec{Z: 1}, 0.3)
	large := particleAt(r3.Vec{X: 1}, r3.Vec{Z: 1}, 0.7)
	f1 := quadForce(&small, &large, &p)

	small.Spacing.Radius, large.Spacing.Radius = 0.7, 0.3
	f2 := quadForce(&small, &large, &p)
	if r3.Norm(r3.Sub(f1, f2)) > 1e-12 {
		t.Errorf("swapping radii changed the force: %v vs %v", f1, f2)
	}

	even := particleAt(r3.Vec{X: 1}, r3.Vec{Z: 1}, 0.5)
	mid := particleAt(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	if f3 := quadForce(&mid, &even, &p); r3.Norm(r3.Sub(f1, f3)) > 1e-12 {
		t.Errorf("force %v, want the mean radius force %v", f1, f3)
	}
}

func TestQuadForce_StiffnessFromNeighborCurvature(t *testing.T) {
	p := DefaultParams()
	self := particleAt(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	stiff := particleAt(r3.Vec{X: 1}, r3.Vec{Z: 1}, 0.5)
	stiff.Spacing.Adaptive = 1
	stiff.Surface.Hit.Curvature = 1
	soft := stiff
	soft.Surface.Hit.Curvature = 0.5

	f1 := quadForce(&self, &stiff, &p)
	f2 := quadForce(&self, &soft, &p)
	if math.Abs(f2.X-2*f1.X) > 1e-9 {
		t.Errorf("half stiffness should double the force: %v vs %v", f2.X, f1.X)
	}
}

func TestJitter_TangentAndScaled(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := r3.Vec{Z: 1}
	for i := 0; i < 20; i++ {
		j := jitter(rng, n, 16, 0.1)
		if math.Abs(r3.Dot(j, n)) > 1e-12 {
			t.Errorf("jitter %v leaves the tangent plane", j)
		}
		if math.Abs(r3.Norm(j)-1.6) > 1e-9 {
			t.Errorf("jitter length = %v, want 1.6", r3.Norm(j))
		}
	}
}
