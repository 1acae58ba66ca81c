package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is a bounded flat rectangle at z = Z. Points are projected straight
// down and clamped to the rectangle.
type Plane struct {
	MinX, MaxX float64
	MinY, MaxY float64
	Z          float64
}

// NewSquarePlane returns a plane of the given side length centered on the origin.
func NewSquarePlane(size float64) Plane {
	h := size / 2
	return Plane{MinX: -h, MaxX: h, MinY: -h, MaxY: h}
}

// Sample implements Sampler.
func (p Plane) Sample(q r3.Vec) Hit {
	pos := r3.Vec{
		X: math.Max(p.MinX, math.Min(p.MaxX, q.X)),
		Y: math.Max(p.MinY, math.Min(p.MaxY, q.Y)),
		Z: p.Z,
	}
	n := r3.Vec{Z: 1}
	return Hit{
		Position: pos,
		Normal:   n,
		Frame:    Frame{U: r3.Vec{X: 1}, V: r3.Vec{Y: 1}, N: n},
	}
}

// Bounds implements Sampler.
func (p Plane) Bounds() r3.Box {
	return r3.Box{
		Min: r3.Vec{X: p.MinX, Y: p.MinY, Z: p.Z},
		Max: r3.Vec{X: p.MaxX, Y: p.MaxY, Z: p.Z},
	}
}
