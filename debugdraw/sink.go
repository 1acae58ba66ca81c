// Package debugdraw holds the line list the particle system regenerates every
// phase for an external renderer to consume.
package debugdraw

import "gonum.org/v1/gonum/spatial/r3"

// DefaultWidth is the line width used by Add.
const DefaultWidth = 1.5

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Palette used for particle frames.
var (
	Red        = Color{R: 1, A: 1}
	DarkRed    = Color{R: 0.9, G: 0.1, A: 1}
	DarkOrange = Color{R: 1, G: 0.5, A: 1}
)

// Line is a world space segment.
type Line struct {
	Start, End r3.Vec
	Width      float32
	Color      Color
}

// Sink is an ordered, clearable list of lines. The zero value is ready to use.
type Sink struct {
	lines []Line
}

// Add appends a line with the default width.
func (s *Sink) Add(start, end r3.Vec, c Color) {
	s.AddWidth(start, end, DefaultWidth, c)
}

// AddWidth appends a line.
func (s *Sink) AddWidth(start, end r3.Vec, width float32, c Color) {
	s.lines = append(s.lines, Line{Start: start, End: end, Width: width, Color: c})
}

// Clear drops all lines, keeping capacity.
func (s *Sink) Clear() {
	s.lines = s.lines[:0]
}

// Lines returns the current lines in insertion order. The slice is only valid
// until the next Add or Clear.
func (s *Sink) Lines() []Line {
	return s.lines
}

// Len returns the number of lines.
func (s *Sink) Len() int {
	return len(s.lines)
}
