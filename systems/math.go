package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/components"
)

// Force functions

// forceVector is the repulsion target exerts on a particle at from:
// direction from - target, magnitude 1/distance^3. Zero at zero distance.
func forceVector(from, target r3.Vec) r3.Vec {
	d := r3.Sub(from, target)
	l := r3.Norm2(d)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/(l*l), d)
}

// quadForce is the force neighbor exerts on self. Neighbors facing away
// (normals more than 90 degrees apart) exert nothing.
func quadForce(self, neighbor *Particle, p *Params) r3.Vec {
	angle := r3.Dot(neighbor.Surface.Normal, self.Surface.Normal)
	if angle < 0 {
		return r3.Vec{}
	}
	d := r3.Scale(2, forceVector(self.Location(), neighbor.Location()))

	var stiffness float64
	if p.TriangleMode {
		stiffness = components.Stiffness(angle, self.Spacing.Adaptive)
	} else {
		// Virtual repulsors on the diagonals of the neighbor's frame pull
		// the pair toward axis alignment. They sit at the pair's mean radius
		// so both particles of a pair see the same offset.
		frame := neighbor.Surface.Hit.Frame
		reach := (self.Radius() + neighbor.Radius()) / 2
		u := r3.Scale(reach, frame.NearestAxis(d))
		v := r3.Cross(u, frame.N)
		for _, corner := range [2]r3.Vec{r3.Add(u, v), r3.Sub(u, v)} {
			f := forceVector(self.Location(), r3.Add(corner, neighbor.Location()))
			d = r3.Add(d, r3.Scale(p.DiagonalWeight*angle, f))
		}
		stiffness = components.Stiffness(neighbor.Surface.Hit.Curvature, neighbor.Spacing.Adaptive)
	}
	return r3.Scale(1/stiffness, d)
}

// jitter returns a random push in the tangent plane of normal, used when a
// neighbor sits exactly on top of a particle.
func jitter(rng *rand.Rand, normal r3.Vec, weight, radius float64) r3.Vec {
	for i := 0; i < 8; i++ {
		dir := r3.Vec{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5}
		t := r3.Cross(dir, normal)
		if r3.Norm(t) > 1e-9 {
			return r3.Scale(weight*radius, r3.Unit(t))
		}
	}
	return r3.Vec{}
}

// Vector helpers

func negate(v r3.Vec) r3.Vec {
	return r3.Vec{X: -v.X, Y: -v.Y, Z: -v.Z}
}

func mirrorX(v r3.Vec) r3.Vec {
	return r3.Vec{X: -v.X, Y: v.Y, Z: v.Z}
}
