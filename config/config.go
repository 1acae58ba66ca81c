// Package config provides configuration loading and access for the remesher.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all remesher configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Particles ParticlesConfig `yaml:"particles"`
	Mirror    MirrorConfig    `yaml:"mirror"`
	Run       RunConfig       `yaml:"run"`
	Remesh    RemeshConfig    `yaml:"remesh"`
	Surface   SurfaceConfig   `yaml:"surface"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds preview window settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ParticlesConfig holds the particle force and growth parameters.
type ParticlesConfig struct {
	Resolution      float64 `yaml:"resolution"`       // Cells across the largest object dimension
	Adaptive        float64 `yaml:"adaptive"`         // 0 = fixed spacing, 1 = fully curvature driven
	Speed           float64 `yaml:"speed"`            // Step length in radii per relaxation phase
	Neighbors       int     `yaml:"neighbors"`        // k for the relaxation query (self included)
	RadiusDivisor   float64 `yaml:"radius_divisor"`   // radius = mean neighbor distance / this
	SpreadNeighbors int     `yaml:"spread_neighbors"` // k for the merge check (self included)
	MergeFactor     float64 `yaml:"merge_factor"`     // Merge when closer than this * mean radius
	SpawnFactor     float64 `yaml:"spawn_factor"`     // Spawn rejected when closer than this * radius
	SpawnDistance   float64 `yaml:"spawn_distance"`   // Spawn offset in radii along the frame axes
	Jitter          float64 `yaml:"jitter"`           // Weight of the random push for coincident neighbors
	DiagonalWeight  float64 `yaml:"diagonal_weight"`  // Weight of the virtual diagonal repulsions
	FeatureCount    int     `yaml:"feature_count"`    // Particles seeded from sharp features
	TriangleMode    bool    `yaml:"triangle_mode"`    // Pure triangle packing (no orthogonality bias)
}

// MirrorConfig holds symmetry plane settings. The plane is fixed at local x = 0.
type MirrorConfig struct {
	Enabled bool `yaml:"enabled"`
	AnySide bool `yaml:"any_side"` // Twin every particle instead of only the +x side
}

// RunConfig holds the convergence policy used by the runner.
type RunConfig struct {
	Seeding              string  `yaml:"seeding"`               // grid, vertices or features
	MaxSpreadPhases      int     `yaml:"max_spread_phases"`     // Cap on growth phases
	RelaxPerSpread       int     `yaml:"relax_per_spread"`      // Relaxation phases after each growth phase
	RelaxIterations      int     `yaml:"relax_iterations"`      // Final relaxation budget
	ConvergenceThreshold float64 `yaml:"convergence_threshold"` // Stop when mean move / mean radius falls below
}

// RemeshConfig holds mesh reconstruction parameters.
type RemeshConfig struct {
	MaxRefinePasses int     `yaml:"max_refine_passes"` // Safety cap on adaptive refinement
	FillHoleSides   int     `yaml:"fill_hole_sides"`   // Largest boundary loop closed by fill (0 = any)
	JoinFaceAngle   float64 `yaml:"join_face_angle"`   // Radians between normals for triangle pairs
	JoinShapeAngle  float64 `yaml:"join_shape_angle"`  // Radians of corner deviation tolerated in joined quads
}

// SurfaceConfig holds the surface to retopologize: a procedural plane or
// heightfield, or an OBJ mesh.
type SurfaceConfig struct {
	Kind          string  `yaml:"kind"` // plane, noise or mesh
	Path          string  `yaml:"path"` // OBJ file for kind mesh
	Size          float64 `yaml:"size"`
	Amplitude     float64 `yaml:"amplitude"`
	Frequency     float64 `yaml:"frequency"`
	Octaves       int     `yaml:"octaves"`
	Seed          int64   `yaml:"seed"`
	ProxyGrid     int     `yaml:"proxy_grid"`     // Cells per side of the tessellated proxy
	CurvatureGain float64 `yaml:"curvature_gain"` // Scales mesh normal deviation into [0, 1]
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogPhases           bool `yaml:"log_phases"`
	PerfCollectorWindow int  `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32
	ScreenH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the particle system cannot run with.
func (c *Config) validate() error {
	p := c.Particles
	if p.Resolution <= 0 {
		return fmt.Errorf("particles.resolution must be positive, got %v", p.Resolution)
	}
	if p.Adaptive < 0 || p.Adaptive > 1 {
		return fmt.Errorf("particles.adaptive must be in [0, 1], got %v", p.Adaptive)
	}
	if p.Neighbors < 2 || p.SpreadNeighbors < 2 {
		return fmt.Errorf("particles.neighbors and particles.spread_neighbors must be at least 2")
	}
	if p.RadiusDivisor <= 0 {
		return fmt.Errorf("particles.radius_divisor must be positive, got %v", p.RadiusDivisor)
	}
	switch c.Run.Seeding {
	case "grid", "vertices", "features":
	default:
		return fmt.Errorf("run.seeding must be grid, vertices or features, got %q", c.Run.Seeding)
	}
	switch c.Surface.Kind {
	case "plane", "noise":
	case "mesh":
		if c.Surface.Path == "" {
			return fmt.Errorf("surface.path is required for surface.kind mesh")
		}
	default:
		return fmt.Errorf("surface.kind must be plane, noise or mesh, got %q", c.Surface.Kind)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
