// Package components defines the ECS components that make up a particle.
package components

// GrowthTag is the lifecycle state of a particle.
type GrowthTag uint8

const (
	TagActive  GrowthTag = iota // May still spawn neighbors
	TagDone                     // Finished spreading, still relaxes
	TagRemoved                  // Merged away, excluded from every query
)

// CanTransition reports whether a particle may move from t to next.
// Allowed: Active->Done, Active->Removed, Done->Removed.
func (t GrowthTag) CanTransition(next GrowthTag) bool {
	switch t {
	case TagActive:
		return next == TagDone || next == TagRemoved
	case TagDone:
		return next == TagRemoved
	default:
		return false
	}
}

// Growth holds the particle's lifecycle tag.
type Growth struct {
	Tag GrowthTag
}

// Advance moves the tag to next if the transition is allowed and reports
// whether it changed.
func (g *Growth) Advance(next GrowthTag) bool {
	if !g.Tag.CanTransition(next) {
		return false
	}
	g.Tag = next
	return true
}

// Live reports whether the particle still takes part in queries.
func (g Growth) Live() bool {
	return g.Tag != TagRemoved
}
