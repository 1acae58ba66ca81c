// Package surface provides the surface sampling oracle consumed by the
// particle system: nearest point, normal, curvature and tangent frame.
package surface

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hit is the result of projecting a point onto the surface.
// It is immutable and replaced wholesale on every resample.
type Hit struct {
	Position  r3.Vec
	Normal    r3.Vec
	Curvature float64 // >= 0, normalized so that 1 is the sharpest feature
	Frame     Frame
}

// Frame is an orthonormal tangent basis attached to a surface point.
type Frame struct {
	U, V, N r3.Vec
}

// NewFrame builds a frame with normal n whose U axis is the projection of
// ref onto the tangent plane. A ref parallel to n falls back to a world axis.
func NewFrame(n, ref r3.Vec) Frame {
	if r3.Norm(n) == 0 {
		n = r3.Vec{Z: 1}
	}
	n = r3.Unit(n)
	u := r3.Sub(ref, r3.Scale(r3.Dot(ref, n), n))
	if r3.Norm(u) < 1e-9 {
		ref = r3.Vec{X: 1}
		if math.Abs(n.X) > 0.9 {
			ref = r3.Vec{Y: 1}
		}
		u = r3.Sub(ref, r3.Scale(r3.Dot(ref, n), n))
	}
	u = r3.Unit(u)
	return Frame{U: u, V: r3.Cross(n, u), N: n}
}

// NearestAxis returns whichever of U, V, -U, -V points most along d.
func (f Frame) NearestAxis(d r3.Vec) r3.Vec {
	best := f.U
	bestDot := r3.Dot(d, f.U)
	for _, axis := range []r3.Vec{f.V, r3.Scale(-1, f.U), r3.Scale(-1, f.V)} {
		if dot := r3.Dot(d, axis); dot > bestDot {
			best, bestDot = axis, dot
		}
	}
	return best
}

// Matrix returns the 3x3 orientation matrix with U, V and N as columns.
func (f Frame) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		f.U.X, f.V.X, f.N.X,
		f.U.Y, f.V.Y, f.N.Y,
		f.U.Z, f.V.Z, f.N.Z,
	})
}

// ToWorld maps frame-local coordinates to a world direction.
func (f Frame) ToWorld(local r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(f.Matrix(), mat.NewVecDense(3, []float64{local.X, local.Y, local.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Sampler projects arbitrary points near the surface onto it.
// Implementations must be deterministic for a fixed surface.
type Sampler interface {
	Sample(p r3.Vec) Hit
	Bounds() r3.Box
}

// MaxDimension returns the largest extent of a sampler's bounding box.
func MaxDimension(s Sampler) float64 {
	b := s.Bounds()
	size := r3.Sub(b.Max, b.Min)
	return math.Max(size.X, math.Max(size.Y, size.Z))
}

// ClampCurvature maps a raw curvature estimate into [0, 1].
func ClampCurvature(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
