package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the particle set of a run so it can be resumed or remeshed
// later.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Surface string `json:"surface"` // description of the sampled surface
	Step    int    `json:"step"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle. Partner is the index of the mirror twin
// within Particles, or -1.
type ParticleState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	Radius           float64 `json:"radius"`
	TargetResolution float64 `json:"target_resolution"`
	Adaptive         float64 `json:"adaptive"`

	Tag     string `json:"tag"`
	Partner int    `json:"partner"`
	LockX   bool   `json:"lock_x,omitempty"`
}

// Validate checks partner references for range and symmetry.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	for i, p := range s.Particles {
		if p.Partner < 0 {
			continue
		}
		if p.Partner >= len(s.Particles) || p.Partner == i {
			return fmt.Errorf("particle %d: partner %d out of range", i, p.Partner)
		}
		if back := s.Particles[p.Partner].Partner; back != i {
			return fmt.Errorf("particle %d: partner %d points back at %d", i, p.Partner, back)
		}
	}
	return nil
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("particles_%d.json", snapshot.Step))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads and validates a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	return &snapshot, nil
}
