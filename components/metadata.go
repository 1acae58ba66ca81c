package components

import "strings"

// FieldDescriptor describes a component field for UI display.
type FieldDescriptor struct {
	ID     string  // Unique identifier
	Label  string  // Display name
	Format string  // Printf format (e.g., "%.2f")
	Min    float32 // Minimum value (for bars)
	Max    float32 // Maximum value (for bars)
	IsBar  bool    // True to render as progress bar
}

// String returns the display name for a GrowthTag.
func (t GrowthTag) String() string {
	names := GrowthTagNames()
	if int(t) < len(names) {
		return names[t]
	}
	return "Unknown"
}

// GrowthTagNames returns the display names for all tags.
// The order matches the GrowthTag constants.
func GrowthTagNames() []string {
	return []string{"Active", "Done", "Removed"}
}

// ParseGrowthTag returns the tag with the given display name, ignoring case.
func ParseGrowthTag(name string) (GrowthTag, bool) {
	for i, n := range GrowthTagNames() {
		if strings.EqualFold(n, name) {
			return GrowthTag(i), true
		}
	}
	return TagActive, false
}

// GrowthTagCount returns the number of growth tags.
func GrowthTagCount() int {
	return len(GrowthTagNames())
}

// ParticleFieldDescriptors returns metadata for the per-particle HUD.
func ParticleFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "tag", Label: "Tag"},
		{ID: "radius", Label: "Radius", Format: "%.4f"},
		{ID: "target", Label: "Target", Format: "%.4f"},
		{ID: "adaptive", Label: "Adaptive", Format: "%.2f", Min: 0, Max: 1, IsBar: true},
		{ID: "curvature", Label: "Curvature", Format: "%.2f", Min: 0, Max: 1, IsBar: true},
		{ID: "mirror", Label: "Mirror"},
	}
}
