package surface

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/mesh"
)

const eps = 1e-6

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestNewFrameOrthonormal(t *testing.T) {
	tests := []struct {
		name string
		n    r3.Vec
		ref  r3.Vec
	}{
		{"z up", r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{"tilted", r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 1}},
		{"ref parallel to normal", r3.Vec{X: 1}, r3.Vec{X: 2}},
		{"zero normal", r3.Vec{}, r3.Vec{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(tt.n, tt.ref)
			for _, v := range []r3.Vec{f.U, f.V, f.N} {
				if math.Abs(r3.Norm(v)-1) > eps {
					t.Errorf("axis %v is not unit length", v)
				}
			}
			if math.Abs(r3.Dot(f.U, f.V)) > eps || math.Abs(r3.Dot(f.U, f.N)) > eps || math.Abs(r3.Dot(f.V, f.N)) > eps {
				t.Errorf("frame %+v is not orthogonal", f)
			}
		})
	}
}

func TestNearestAxis(t *testing.T) {
	f := Frame{U: r3.Vec{X: 1}, V: r3.Vec{Y: 1}, N: r3.Vec{Z: 1}}
	tests := []struct {
		d    r3.Vec
		want r3.Vec
	}{
		{r3.Vec{X: 0.9, Y: 0.1}, r3.Vec{X: 1}},
		{r3.Vec{X: 0.1, Y: 0.9}, r3.Vec{Y: 1}},
		{r3.Vec{X: -2, Y: 1}, r3.Vec{X: -1}},
		{r3.Vec{X: 0.3, Y: -0.5}, r3.Vec{Y: -1}},
	}
	for _, tt := range tests {
		if got := f.NearestAxis(tt.d); !vecNear(got, tt.want, eps) {
			t.Errorf("NearestAxis(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestFrameToWorld(t *testing.T) {
	f := NewFrame(r3.Vec{X: 1}, r3.Vec{Y: 1})
	got := f.ToWorld(r3.Vec{X: 2, Z: 3})
	want := r3.Add(r3.Scale(2, f.U), r3.Scale(3, f.N))
	if !vecNear(got, want, eps) {
		t.Errorf("ToWorld = %v, want %v", got, want)
	}
}

func TestPlaneSampleClamps(t *testing.T) {
	p := NewSquarePlane(2)
	h := p.Sample(r3.Vec{X: 5, Y: -0.5, Z: 3})
	if !vecNear(h.Position, r3.Vec{X: 1, Y: -0.5}, eps) {
		t.Errorf("Position = %v, want (1, -0.5, 0)", h.Position)
	}
	if h.Curvature != 0 {
		t.Errorf("Curvature = %v, want 0", h.Curvature)
	}
	if !vecNear(h.Normal, r3.Vec{Z: 1}, eps) {
		t.Errorf("Normal = %v, want +Z", h.Normal)
	}
	if MaxDimension(p) != 2 {
		t.Errorf("MaxDimension = %v, want 2", MaxDimension(p))
	}
}

func TestClampCurvature(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{math.NaN(), 0},
		{0.4, 0.4},
		{7, 1},
	}
	for _, tt := range tests {
		if got := ClampCurvature(tt.in); got != tt.want {
			t.Errorf("ClampCurvature(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNoiseSample(t *testing.T) {
	n := NewNoise(NoiseParams{Size: 4, Amplitude: 0.4, Frequency: 0.5, Octaves: 3, Seed: 7})
	for _, q := range []r3.Vec{{}, {X: 1.2, Y: -0.7}, {X: -1.9, Y: 1.9}, {X: 9, Y: 9}} {
		h := n.Sample(q)
		if math.Abs(h.Position.Z-n.Height(h.Position.X, h.Position.Y)) > eps {
			t.Errorf("sample %v is off the heightfield", h.Position)
		}
		if h.Normal.Z <= 0 || math.Abs(r3.Norm(h.Normal)-1) > eps {
			t.Errorf("normal %v should be unit and upward", h.Normal)
		}
		if h.Curvature < 0 || h.Curvature > 1 {
			t.Errorf("curvature %v out of [0, 1]", h.Curvature)
		}
		if math.Abs(r3.Dot(h.Frame.U, h.Normal)) > 1e-6 {
			t.Errorf("frame U %v not tangent to normal %v", h.Frame.U, h.Normal)
		}
	}
	if h := n.Sample(r3.Vec{X: 9, Y: -9}); h.Position.X != 2 || h.Position.Y != -2 {
		t.Errorf("out of footprint sample not clamped: %v", h.Position)
	}
}

func TestNoiseDeterministic(t *testing.T) {
	p := NoiseParams{Size: 4, Amplitude: 0.4, Frequency: 0.5, Octaves: 2, Seed: 3}
	a, b := NewNoise(p), NewNoise(p)
	q := r3.Vec{X: 0.3, Y: 0.8}
	if a.Sample(q) != b.Sample(q) {
		t.Error("same parameters should sample identically")
	}
}

func TestTessellatePlane(t *testing.T) {
	m := Tessellate(NewSquarePlane(2), 4)
	if len(m.Verts) != 25 {
		t.Errorf("got %d vertices, want 25", len(m.Verts))
	}
	if len(m.Faces) != 16 {
		t.Errorf("got %d faces, want 16", len(m.Faces))
	}
	for i := range m.Faces {
		if n := m.FaceNormal(m.Faces[i]); n.Z <= 0 {
			t.Errorf("face %d normal %v should point up", i, n)
		}
	}
}

func TestMeshSamplerFlatGrid(t *testing.T) {
	s := NewMeshSampler(Tessellate(NewSquarePlane(2), 6), 1)

	tests := []struct {
		name string
		q    r3.Vec
		want r3.Vec
	}{
		{"above interior", r3.Vec{X: 0.13, Y: -0.42, Z: 0.5}, r3.Vec{X: 0.13, Y: -0.42}},
		{"below interior", r3.Vec{X: -0.7, Y: 0.25, Z: -1}, r3.Vec{X: -0.7, Y: 0.25}},
		{"outside edge", r3.Vec{X: 1.5, Y: 0.2}, r3.Vec{X: 1, Y: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := s.Sample(tt.q)
			if !vecNear(h.Position, tt.want, 1e-9) {
				t.Errorf("Position = %v, want %v", h.Position, tt.want)
			}
			if !vecNear(h.Normal, r3.Vec{Z: 1}, 1e-9) {
				t.Errorf("Normal = %v, want +Z", h.Normal)
			}
			if h.Curvature != 0 {
				t.Errorf("Curvature = %v, want 0 on a flat grid", h.Curvature)
			}
		})
	}
}

func TestMeshSamplerCurvatureAtCrease(t *testing.T) {
	// Two quads folded 90 degrees along the Y axis.
	m := mesh.New()
	for _, p := range []r3.Vec{
		{X: -1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: -1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: -1}, {X: 0, Y: 1, Z: -1},
	} {
		m.AddVertex(p)
	}
	m.AddFace(0, 1, 2, 3)
	m.AddFace(1, 4, 5, 2)

	s := NewMeshSampler(m, 1)
	if c := s.VertexCurvature(1); c <= 0 {
		t.Errorf("crease vertex curvature = %v, want > 0", c)
	}
	h := s.Sample(r3.Vec{X: 0.2, Y: 0.5, Z: 0.2})
	if h.Curvature <= 0 {
		t.Errorf("sample near crease curvature = %v, want > 0", h.Curvature)
	}
}
