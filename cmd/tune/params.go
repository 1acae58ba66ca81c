package main

import (
	"github.com/pthm-cable/tessellator/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable particle parameters.
// Resolution, adaptive and the seeding mode are user choices and stay fixed.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Relaxation
			{Name: "speed", Path: "particles.speed", Min: 0.05, Max: 1.0, Default: 0.3},
			{Name: "radius_divisor", Path: "particles.radius_divisor", Min: 1.5, Max: 3.0, Default: 2.1},
			{Name: "diagonal_weight", Path: "particles.diagonal_weight", Min: 0, Max: 0.6, Default: 0.2},
			// Growth
			{Name: "merge_factor", Path: "particles.merge_factor", Min: 1.0, Max: 2.0, Default: 1.5},
			{Name: "spawn_factor", Path: "particles.spawn_factor", Min: 1.0, Max: 2.0, Default: 1.5},
			{Name: "spawn_distance", Path: "particles.spawn_distance", Min: 1.5, Max: 3.0, Default: 2.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	p := &cfg.Particles
	p.Speed = clamped[0]
	p.RadiusDivisor = clamped[1]
	p.DiagonalWeight = clamped[2]
	p.MergeFactor = clamped[3]
	p.SpawnFactor = clamped[4]
	p.SpawnDistance = clamped[5]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	p := cfg.Particles
	return []float64{
		p.Speed,
		p.RadiusDivisor,
		p.DiagonalWeight,
		p.MergeFactor,
		p.SpawnFactor,
		p.SpawnDistance,
	}
}
