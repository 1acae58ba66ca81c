package components

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/surface"
)

func TestGrowthTransitions(t *testing.T) {
	tests := []struct {
		from, to GrowthTag
		want     bool
	}{
		{TagActive, TagDone, true},
		{TagActive, TagRemoved, true},
		{TagDone, TagRemoved, true},
		{TagDone, TagActive, false},
		{TagRemoved, TagActive, false},
		{TagRemoved, TagDone, false},
		{TagActive, TagActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			g := Growth{Tag: tt.from}
			if got := g.Advance(tt.to); got != tt.want {
				t.Errorf("Advance = %v, want %v", got, tt.want)
			}
			if tt.want && g.Tag != tt.to {
				t.Errorf("Tag = %v, want %v", g.Tag, tt.to)
			}
			if !tt.want && g.Tag != tt.from {
				t.Errorf("rejected transition changed tag to %v", g.Tag)
			}
		})
	}
}

func TestStiffness(t *testing.T) {
	tests := []struct {
		name                string
		curvature, adaptive float64
		want                float64
	}{
		{"fixed spacing", 0.7, 0, 1},
		{"fully adaptive", 0.5, 1, 0.5},
		{"blend", 0.5, 0.1, 0.95},
		{"curvature clamped", 4, 0.5, 1},
		{"floor", 0, 1, minStiffness},
		{"nan curvature", math.NaN(), 1, minStiffness},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stiffness(tt.curvature, tt.adaptive); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Stiffness(%v, %v) = %v, want %v", tt.curvature, tt.adaptive, got, tt.want)
			}
		})
	}
}

func TestSurfaceHistory(t *testing.T) {
	requested := r3.Vec{X: 1, Z: 2}
	s := NewSurface(requested, surface.Hit{Position: r3.Vec{X: 1}})
	for i, h := range s.History {
		if h != requested {
			t.Errorf("History[%d] = %v, want %v", i, h, requested)
		}
	}

	next := r3.Vec{X: 2}
	s.Adopt(surface.Hit{Position: next, Normal: r3.Vec{Z: 1}})
	if s.Location != next || s.History[HistoryLen-1] != next {
		t.Errorf("Adopt did not update location: %+v", s)
	}
	if s.History[0] != requested {
		t.Errorf("History[0] = %v, want %v", s.History[0], requested)
	}
}

func TestTagNames(t *testing.T) {
	if GrowthTagCount() != int(TagRemoved)+1 {
		t.Errorf("GrowthTagCount = %d", GrowthTagCount())
	}
	if GrowthTag(9).String() != "Unknown" {
		t.Errorf("out of range tag = %q", GrowthTag(9).String())
	}
}

func TestParseGrowthTag(t *testing.T) {
	tests := []struct {
		name string
		want GrowthTag
		ok   bool
	}{
		{"Active", TagActive, true},
		{"done", TagDone, true},
		{"REMOVED", TagRemoved, true},
		{"dormant", TagActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseGrowthTag(tt.name)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseGrowthTag(%q) = %v, %v", tt.name, got, ok)
			}
		})
	}
}
