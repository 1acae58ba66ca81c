package main

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/tessellator/config"
	"github.com/pthm-cable/tessellator/mesh"
	"github.com/pthm-cable/tessellator/runner"
	"github.com/pthm-cable/tessellator/systems"
	"github.com/pthm-cable/tessellator/telemetry"
)

// FitnessEvaluator runs headless remeshes and scores the resulting meshes.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	maxSpread  int

	mu          sync.Mutex
	bestFitness float64
	bestMesh    *mesh.Mesh
	lastQuality Quality
}

// NewFitnessEvaluator creates a new evaluator. maxSpread caps growth phases
// per run; zero keeps the config value.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, maxSpread int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		seeds:       seeds,
		baseConfig:  baseCfg,
		maxSpread:   maxSpread,
		bestFitness: math.Inf(1),
	}
}

// BestMesh returns the mesh from the best evaluation.
func (fe *FitnessEvaluator) BestMesh() *mesh.Mesh {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestMesh
}

// LastQuality returns the averaged quality from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() Quality {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Quality component weights.
const (
	qualityWeightShape   = 0.35
	qualityWeightValence = 0.40
	qualityWeightSpacing = 0.25
)

// Quality scores one reconstructed mesh. Every component is in [0, 1].
type Quality struct {
	Shape   float64 // fraction of faces with the target side count
	Valence float64 // fraction of interior vertices with the regular degree
	Spacing float64 // exp(-cv) of nearest neighbor distances
	Faces   int
}

// Score combines the components.
func (q Quality) Score() float64 {
	return qualityWeightShape*q.Shape + qualityWeightValence*q.Valence + qualityWeightSpacing*q.Spacing
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	quality Quality
	mesh    *mesh.Mesh
	ok      bool
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean quality score; failed runs score zero.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runRemesh(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	scores := make([]float64, len(results))
	var avg Quality
	bestSeed := -1
	for i, r := range results {
		if !r.ok {
			continue
		}
		scores[i] = r.quality.Score()
		avg.Shape += r.quality.Shape
		avg.Valence += r.quality.Valence
		avg.Spacing += r.quality.Spacing
		avg.Faces += r.quality.Faces
		if bestSeed < 0 || scores[i] > scores[bestSeed] {
			bestSeed = i
		}
	}
	n := float64(len(results))
	avg.Shape /= n
	avg.Valence /= n
	avg.Spacing /= n
	avg.Faces /= len(results)

	fitness := -stat.Mean(scores, nil)

	fe.mu.Lock()
	if fitness < fe.bestFitness && bestSeed >= 0 {
		fe.bestFitness = fitness
		fe.bestMesh = results[bestSeed].mesh
	}
	fe.lastQuality = avg
	fe.mu.Unlock()

	return fitness
}

// runRemesh executes one headless run from seeding to reconstruction.
func (fe *FitnessEvaluator) runRemesh(cfg *config.Config, seed int64) seedResult {
	scene, err := runner.SceneFromConfig(cfg.Surface)
	if err != nil {
		return seedResult{}
	}
	sys := systems.NewParticleSystem(scene.Sampler, systems.ParamsFromConfig(cfg), seed)

	opts := runner.OptionsFromConfig(cfg)
	opts.Seed = seed
	opts.LogPhases = false
	if fe.maxSpread > 0 {
		opts.MaxSpreadPhases = fe.maxSpread
	}

	r, err := runner.New(sys, scene, opts)
	if err != nil {
		return seedResult{}
	}
	defer r.Close()

	res, err := r.Run(context.Background())
	if err != nil || res == nil || len(res.Mesh.Faces) == 0 {
		return seedResult{}
	}

	q := meshQuality(res.Mesh, cfg.Particles.TriangleMode)
	if last, ok := r.Collector().Last(telemetry.KindRelax); ok && last.SpacingMean > 0 {
		q.Spacing = math.Exp(-last.SpacingStd / last.SpacingMean)
	}
	return seedResult{quality: q, mesh: res.Mesh, ok: true}
}

// meshQuality scores face shapes and interior valences. Quads and valence 4
// are regular unless triangles were requested, then triangles and valence 6.
func meshQuality(m *mesh.Mesh, triangles bool) Quality {
	sides, degree := 4, 4
	if triangles {
		sides, degree = 3, 6
	}

	q := Quality{Faces: len(m.Faces)}
	if len(m.Faces) == 0 {
		return q
	}
	regularFaces := 0
	for _, f := range m.Faces {
		if len(f) == sides {
			regularFaces++
		}
	}
	q.Shape = float64(regularFaces) / float64(len(m.Faces))

	boundary := make([]bool, len(m.Verts))
	for e, faces := range m.EdgeFaces() {
		if len(faces) == 1 {
			boundary[e[0]] = true
			boundary[e[1]] = true
		}
	}
	interior, regular := 0, 0
	for v, d := range m.Degrees() {
		if boundary[v] || d == 0 {
			continue
		}
		interior++
		if d == degree {
			regular++
		}
	}
	if interior > 0 {
		q.Valence = float64(regular) / float64(interior)
	}
	return q
}

// copyConfig creates a copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
