// Package camera provides an orbit camera for the 3D preview.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// maxPitch keeps the view direction away from the world up axis.
const maxPitch = 1.5

// worldUp is +z; surfaces are height fields over XY.
var worldUp = r3.Vec{Z: 1}

// Camera orbits a target point. Yaw is measured around +z from +x, pitch
// from the XY plane.
type Camera struct {
	// Target is the point the camera looks at.
	Target r3.Vec

	// Orbit angles in radians
	Yaw, Pitch float64

	// Distance from target to eye
	Distance float64

	// Vertical field of view in degrees
	FovY float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Distance constraints
	MinDistance, MaxDistance float64

	home pose
}

// pose is the state Reset returns to.
type pose struct {
	Target     r3.Vec
	Yaw, Pitch float64
	Distance   float64
}

// New creates a camera framing bounds.
func New(viewportW, viewportH float32, bounds r3.Box) *Camera {
	c := &Camera{
		FovY:      45,
		ViewportW: viewportW,
		ViewportH: viewportH,
	}
	c.Fit(bounds)
	return c
}

// Fit centers the camera on bounds at a distance that shows all of it and
// makes that the home pose.
func (c *Camera) Fit(bounds r3.Box) {
	center := r3.Scale(0.5, r3.Add(bounds.Min, bounds.Max))
	radius := r3.Norm(r3.Sub(bounds.Max, bounds.Min)) / 2
	if radius <= 0 {
		radius = 1
	}
	half := c.FovY / 2 * math.Pi / 180

	c.Target = center
	c.Yaw = -math.Pi / 4
	c.Pitch = 0.6
	c.Distance = radius / math.Sin(half) * 1.1
	c.MinDistance = radius * 0.05
	c.MaxDistance = radius * 20
	c.home = pose{Target: c.Target, Yaw: c.Yaw, Pitch: c.Pitch, Distance: c.Distance}
}

// Position returns the eye position.
func (c *Camera) Position() r3.Vec {
	cp := math.Cos(c.Pitch)
	dir := r3.Vec{
		X: cp * math.Cos(c.Yaw),
		Y: cp * math.Sin(c.Yaw),
		Z: math.Sin(c.Pitch),
	}
	return r3.Add(c.Target, r3.Scale(c.Distance, dir))
}

// Basis returns the unit forward, right and up vectors of the view.
func (c *Camera) Basis() (forward, right, up r3.Vec) {
	forward = r3.Unit(r3.Sub(c.Target, c.Position()))
	right = r3.Unit(r3.Cross(forward, worldUp))
	up = r3.Cross(right, forward)
	return forward, right, up
}

// Up returns the world up axis the view is oriented against.
func (c *Camera) Up() r3.Vec { return worldUp }

// focal returns the projection scale in pixels per unit at depth 1.
func (c *Camera) focal() float64 {
	return float64(c.ViewportH) / 2 / math.Tan(c.FovY/2*math.Pi/180)
}

// WorldToScreen projects p. visible is false when p is behind the eye or
// outside the viewport.
func (c *Camera) WorldToScreen(p r3.Vec) (sx, sy float32, visible bool) {
	forward, right, up := c.Basis()
	d := r3.Sub(p, c.Position())
	z := r3.Dot(d, forward)
	if z <= 1e-9 {
		return 0, 0, false
	}
	f := c.focal()
	sx = c.ViewportW/2 + float32(r3.Dot(d, right)/z*f)
	sy = c.ViewportH/2 - float32(r3.Dot(d, up)/z*f)
	visible = sx >= 0 && sy >= 0 && sx <= c.ViewportW && sy <= c.ViewportH
	return sx, sy, visible
}

// Pick returns the index of the point drawn closest to (sx, sy), within
// maxPx pixels, or -1. Ties go to the point nearer the eye.
func (c *Camera) Pick(points []r3.Vec, sx, sy, maxPx float32) int {
	best := -1
	var bestD2 float32
	var bestDepth float64
	eye := c.Position()
	for i, p := range points {
		px, py, ok := c.WorldToScreen(p)
		if !ok {
			continue
		}
		dx, dy := px-sx, py-sy
		d2 := dx*dx + dy*dy
		if d2 > maxPx*maxPx {
			continue
		}
		depth := r3.Norm(r3.Sub(p, eye))
		if best < 0 || d2 < bestD2 || (d2 == bestD2 && depth < bestDepth) {
			best, bestD2, bestDepth = i, d2, depth
		}
	}
	return best
}

// Orbit rotates around the target by a mouse delta in screen pixels.
func (c *Camera) Orbit(dx, dy float32) {
	c.Yaw -= float64(dx) * 0.01
	c.Pitch = clamp(c.Pitch+float64(dy)*0.01, -maxPitch, maxPitch)
}

// Pan moves the target in the view plane by the given delta in screen
// pixels. Points under the cursor stay under it at the target's depth.
func (c *Camera) Pan(dx, dy float32) {
	_, right, up := c.Basis()
	scale := c.Distance / c.focal()
	move := r3.Add(r3.Scale(-float64(dx)*scale, right), r3.Scale(float64(dy)*scale, up))
	c.Target = r3.Add(c.Target, move)
}

// SetDistance sets the eye distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy moves the eye closer by the given factor (2 halves the distance).
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the pose of the last Fit.
func (c *Camera) Reset() {
	c.Target = c.home.Target
	c.Yaw = c.home.Yaw
	c.Pitch = c.home.Pitch
	c.Distance = c.home.Distance
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
