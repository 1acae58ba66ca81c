package components

import "github.com/mlange-42/ark/ecs"

// Mirror links a particle to its twin across the x = 0 plane.
// Partner is a weak handle: the zero entity means unpaired, and a dead
// partner must be cleared by whoever removes it.
type Mirror struct {
	Partner ecs.Entity
	LockX   bool // pinned to the plane
}

// Paired reports whether a partner handle is set.
func (m Mirror) Paired() bool {
	return !m.Partner.IsZero()
}
