package surface

import (
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoiseParams configures a Noise heightfield.
type NoiseParams struct {
	Size      float64 // Side length of the square footprint centered on the origin
	Amplitude float64
	Frequency float64
	Octaves   int
	Seed      int64
}

// Noise is a heightfield z = h(x, y) built from fractal opensimplex noise.
// Its tangent frame follows the principal curvature directions of h.
type Noise struct {
	params    NoiseParams
	noise     opensimplex.Noise
	half      float64
	step      float64 // finite difference step
	curvScale float64 // maps Hessian eigenvalues into [0, 1]
}

// NewNoise creates a heightfield sampler.
func NewNoise(p NoiseParams) *Noise {
	if p.Octaves < 1 {
		p.Octaves = 1
	}
	if p.Frequency <= 0 {
		p.Frequency = 1
	}
	n := &Noise{
		params: p,
		noise:  opensimplex.New(p.Seed),
		half:   p.Size / 2,
		step:   1e-3 / p.Frequency,
	}
	if p.Amplitude > 0 {
		n.curvScale = 1 / (p.Amplitude * p.Frequency * p.Frequency * 8)
	}
	return n
}

// Height returns h(x, y).
func (n *Noise) Height(x, y float64) float64 {
	var h float64
	amp := n.params.Amplitude
	freq := n.params.Frequency
	for o := 0; o < n.params.Octaves; o++ {
		h += amp * n.noise.Eval2(x*freq, y*freq)
		amp *= 0.5
		freq *= 2
	}
	return h
}

// Sample implements Sampler. Points are projected along z, which is the
// nearest point for the gentle slopes this sampler is used with.
func (n *Noise) Sample(q r3.Vec) Hit {
	x := math.Max(-n.half, math.Min(n.half, q.X))
	y := math.Max(-n.half, math.Min(n.half, q.Y))
	e := n.step

	h := n.Height(x, y)
	hx1, hx0 := n.Height(x+e, y), n.Height(x-e, y)
	hy1, hy0 := n.Height(x, y+e), n.Height(x, y-e)
	hx := (hx1 - hx0) / (2 * e)
	hy := (hy1 - hy0) / (2 * e)
	hxx := (hx1 - 2*h + hx0) / (e * e)
	hyy := (hy1 - 2*h + hy0) / (e * e)
	hxy := (n.Height(x+e, y+e) - n.Height(x+e, y-e) - n.Height(x-e, y+e) + n.Height(x-e, y-e)) / (4 * e * e)

	normal := r3.Unit(r3.Vec{X: -hx, Y: -hy, Z: 1})

	dir, k := principalDirection(hxx, hxy, hyy)
	tangent := r3.Vec{X: dir[0], Y: dir[1], Z: hx*dir[0] + hy*dir[1]}

	return Hit{
		Position:  r3.Vec{X: x, Y: y, Z: h},
		Normal:    normal,
		Curvature: ClampCurvature(k * n.curvScale),
		Frame:     NewFrame(normal, tangent),
	}
}

// principalDirection returns the eigenvector of the 2x2 Hessian with the
// largest absolute eigenvalue, and that magnitude.
func principalDirection(hxx, hxy, hyy float64) ([2]float64, float64) {
	hess := mat.NewSymDense(2, []float64{hxx, hxy, hxy, hyy})
	var es mat.EigenSym
	if !es.Factorize(hess, true) {
		return [2]float64{1, 0}, 0
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	col := 0
	if math.Abs(vals[1]) > math.Abs(vals[0]) {
		col = 1
	}
	return [2]float64{vecs.At(0, col), vecs.At(1, col)}, math.Abs(vals[col])
}

// Bounds implements Sampler.
func (n *Noise) Bounds() r3.Box {
	a := n.params.Amplitude * 2
	return r3.Box{
		Min: r3.Vec{X: -n.half, Y: -n.half, Z: -a},
		Max: r3.Vec{X: n.half, Y: n.half, Z: a},
	}
}
