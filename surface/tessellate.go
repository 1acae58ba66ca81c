package surface

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/mesh"
)

// Tessellate builds a dense quad proxy for a height-like surface by sampling
// a cells x cells lattice over the XY footprint of its bounds.
func Tessellate(s Sampler, cells int) *mesh.Mesh {
	if cells < 1 {
		cells = 1
	}
	b := s.Bounds()
	m := mesh.New()
	dx := (b.Max.X - b.Min.X) / float64(cells)
	dy := (b.Max.Y - b.Min.Y) / float64(cells)
	zMid := (b.Min.Z + b.Max.Z) / 2

	for j := 0; j <= cells; j++ {
		for i := 0; i <= cells; i++ {
			q := r3.Vec{X: b.Min.X + float64(i)*dx, Y: b.Min.Y + float64(j)*dy, Z: zMid}
			m.AddVertex(s.Sample(q).Position)
		}
	}

	row := cells + 1
	for j := 0; j < cells; j++ {
		for i := 0; i < cells; i++ {
			v := j*row + i
			m.AddFace(v, v+1, v+row+1, v+row)
		}
	}
	return m
}
