package components

import "github.com/pthm-cable/tessellator/surface"

// Defaults for a freshly created particle.
const (
	DefaultRadius           = 0.05
	DefaultAdaptive         = 0.1
	DefaultTargetResolution = 0.1
)

// minStiffness keeps spacing finite on degenerate curvature input.
const minStiffness = 1e-3

// Spacing controls how far apart a particle wants its neighbors.
type Spacing struct {
	Radius           float64 // half the local spacing, always > 0
	TargetResolution float64 // spacing at Adaptive = 0
	Adaptive         float64 // blend between curvature driven and fixed spacing
}

// DefaultSpacing returns the spacing of a new particle.
func DefaultSpacing() Spacing {
	return Spacing{
		Radius:           DefaultRadius,
		TargetResolution: DefaultTargetResolution,
		Adaptive:         DefaultAdaptive,
	}
}

// Stiffness blends curvature with the adaptive factor:
// curvature*adaptive + (1-adaptive), inputs clamped to [0, 1].
func Stiffness(curvature, adaptive float64) float64 {
	c := surface.ClampCurvature(curvature)
	a := surface.ClampCurvature(adaptive)
	s := c*a + (1 - a)
	if s < minStiffness {
		return minStiffness
	}
	return s
}

// RadiusAt returns the radius a particle with this spacing should take at a
// point of the given curvature.
func (s Spacing) RadiusAt(curvature float64) float64 {
	return s.TargetResolution / Stiffness(curvature, s.Adaptive)
}
