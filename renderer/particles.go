package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/debugdraw"
	"github.com/pthm-cable/tessellator/systems"
)

// vec3 converts a world vector for raylib.
func vec3(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// toColor converts a linear debug color to 8-bit RGBA.
func toColor(c debugdraw.Color) rl.Color {
	return rl.Color{R: unit8(c.R), G: unit8(c.G), B: unit8(c.B), A: unit8(c.A)}
}

func unit8(x float32) uint8 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 255
	}
	return uint8(x*255 + 0.5)
}

// ParticleRenderer renders particles and the debug line sink.
type ParticleRenderer struct {
	active   rl.Color
	done     rl.Color
	locked   rl.Color
	selected rl.Color
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{
		active:   rl.Color{R: 120, G: 220, B: 120, A: 255},
		done:     rl.Color{R: 200, G: 200, B: 210, A: 255},
		locked:   rl.Color{R: 90, G: 160, B: 255, A: 255},
		selected: rl.Yellow,
	}
}

// DrawLines renders debug lines. Must be called inside BeginMode3D.
func (r *ParticleRenderer) DrawLines(lines []debugdraw.Line) {
	for i := range lines {
		l := &lines[i]
		rl.DrawLine3D(vec3(l.Start), vec3(l.End), toColor(l.Color))
	}
}

// DrawPoints renders one small sphere per particle, colored by growth tag.
// selected is a snapshot index or -1. Must be called inside BeginMode3D.
func (r *ParticleRenderer) DrawPoints(particles []systems.Particle, selected int) {
	for i := range particles {
		p := &particles[i]

		color := r.done
		switch {
		case p.Mirror.LockX:
			color = r.locked
		case p.Tag == components.TagActive:
			color = r.active
		}

		size := float32(p.Radius() * 0.12)
		if i == selected {
			color = r.selected
			size *= 2
		}
		rl.DrawSphereEx(vec3(p.Location()), size, 4, 4, color)
	}
}

// DrawMirrorPlane renders the x = 0 plane across bounds as a translucent
// quad. Must be called inside BeginMode3D.
func (r *ParticleRenderer) DrawMirrorPlane(bounds r3.Box) {
	c := rl.Color{R: 90, G: 160, B: 255, A: 60}
	a := rl.Vector3{X: 0, Y: float32(bounds.Min.Y), Z: float32(bounds.Min.Z)}
	b := rl.Vector3{X: 0, Y: float32(bounds.Max.Y), Z: float32(bounds.Min.Z)}
	d := rl.Vector3{X: 0, Y: float32(bounds.Max.Y), Z: float32(bounds.Max.Z)}
	e := rl.Vector3{X: 0, Y: float32(bounds.Min.Y), Z: float32(bounds.Max.Z)}

	// Both windings so the plane shows from either side.
	rl.DrawTriangle3D(a, b, d, c)
	rl.DrawTriangle3D(a, d, e, c)
	rl.DrawTriangle3D(a, d, b, c)
	rl.DrawTriangle3D(a, e, d, c)
	rl.DrawLine3D(a, b, c)
	rl.DrawLine3D(b, d, c)
	rl.DrawLine3D(d, e, c)
	rl.DrawLine3D(e, a, c)
}
