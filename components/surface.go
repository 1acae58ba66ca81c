package components

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/surface"
)

// HistoryLen is the number of past locations a particle keeps.
const HistoryLen = 3

// Surface is where a particle sits on the target surface.
// Location and Normal always mirror Hit.
type Surface struct {
	Location r3.Vec
	Normal   r3.Vec
	Hit      surface.Hit
	History  [HistoryLen]r3.Vec // oldest first
}

// NewSurface builds the component from a fresh hit. The history is filled
// with the requested location, not the projected one.
func NewSurface(requested r3.Vec, hit surface.Hit) Surface {
	s := Surface{Location: hit.Position, Normal: hit.Normal, Hit: hit}
	for i := range s.History {
		s.History[i] = requested
	}
	return s
}

// Adopt replaces the hit and pushes the new location onto the history.
func (s *Surface) Adopt(hit surface.Hit) {
	copy(s.History[:], s.History[1:])
	s.History[HistoryLen-1] = hit.Position
	s.Hit = hit
	s.Location = hit.Position
	s.Normal = hit.Normal
}
