// Package runner drives a particle system from seeding to a reconstructed
// mesh: growth until saturation, relaxation until convergence, then remesh.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/config"
	"github.com/pthm-cable/tessellator/remesh"
	"github.com/pthm-cable/tessellator/systems"
	"github.com/pthm-cable/tessellator/telemetry"
)

// Stage is the part of the run the next Step executes.
type Stage uint8

const (
	StageSeed Stage = iota
	StageGrow
	StageRelax
	StageRemesh
	StageDone
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageSeed:
		return "seed"
	case StageGrow:
		return "grow"
	case StageRelax:
		return "relax"
	case StageRemesh:
		return "remesh"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Options controls one run.
type Options struct {
	Seed         int64  // recorded in snapshots
	Seeding      string // grid, vertices or features
	Resolution   float64
	Adaptive     float64
	Speed        float64
	FeatureCount int

	Mirror        bool
	MirrorAnySide bool

	MaxSpreadPhases      int
	RelaxPerSpread       int
	RelaxIterations      int
	ConvergenceThreshold float64

	Remesh remesh.Options

	LogPhases  bool
	PerfWindow int
	OutputDir  string // empty disables file output
}

// OptionsFromConfig reads Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Seeding:              cfg.Run.Seeding,
		Resolution:           cfg.Particles.Resolution,
		Adaptive:             cfg.Particles.Adaptive,
		Speed:                cfg.Particles.Speed,
		FeatureCount:         cfg.Particles.FeatureCount,
		Mirror:               cfg.Mirror.Enabled,
		MirrorAnySide:        cfg.Mirror.AnySide,
		MaxSpreadPhases:      cfg.Run.MaxSpreadPhases,
		RelaxPerSpread:       cfg.Run.RelaxPerSpread,
		RelaxIterations:      cfg.Run.RelaxIterations,
		ConvergenceThreshold: cfg.Run.ConvergenceThreshold,
		Remesh:               remesh.OptionsFromConfig(cfg),
		LogPhases:            cfg.Telemetry.LogPhases,
		PerfWindow:           cfg.Telemetry.PerfCollectorWindow,
	}
}

// Runner steps a particle system through a run. It is not safe for
// concurrent use; the preview calls Step once per frame.
type Runner struct {
	sys   *systems.ParticleSystem
	scene *Scene
	opts  Options

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager

	stage        Stage
	steps        int
	spreadPhases int
	relaxPhases  int
	result       *remesh.Result
}

// New creates a runner for sys over scene. When opts.OutputDir is set the
// output directory is created immediately.
func New(sys *systems.ParticleSystem, scene *Scene, opts Options) (*Runner, error) {
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	window := opts.PerfWindow
	if window < 1 {
		window = 60
	}
	return &Runner{
		sys:       sys,
		scene:     scene,
		opts:      opts,
		collector: telemetry.NewCollector(window),
		perf:      telemetry.NewPerfCollector(window),
		bookmarks: telemetry.NewBookmarkDetector(5, opts.ConvergenceThreshold),
		output:    output,
	}, nil
}

// System returns the particle system being driven.
func (r *Runner) System() *systems.ParticleSystem { return r.sys }

// Scene returns the surface of the run.
func (r *Runner) Scene() *Scene { return r.scene }

// Stage returns the stage the next Step executes.
func (r *Runner) Stage() Stage { return r.stage }

// Collector returns the phase history.
func (r *Runner) Collector() *telemetry.Collector { return r.collector }

// Perf returns the step timing collector.
func (r *Runner) Perf() *telemetry.PerfCollector { return r.perf }

// Result returns the reconstruction, or nil before the remesh stage ran.
func (r *Runner) Result() *remesh.Result { return r.result }

// Output returns the output manager, nil when output is disabled.
func (r *Runner) Output() *telemetry.OutputManager { return r.output }

// WriteConfig snapshots cfg into the output directory.
func (r *Runner) WriteConfig(cfg *config.Config) error {
	return r.output.WriteConfig(cfg)
}

// Resume replaces seeding with a saved particle set. It must be called
// before the first Step.
func (r *Runner) Resume(snap *telemetry.Snapshot) error {
	if r.stage != StageSeed || r.sys.Len() != 0 {
		return fmt.Errorf("resume: particles already seeded")
	}
	start := time.Now()
	if err := Restore(r.sys, snap); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	stats := r.collector.Begin(telemetry.KindSeed)
	stats.Created = r.sys.Len()
	r.finishPhase(&stats, start)

	r.stage = StageRelax
	if r.sys.CountByTag()[components.TagActive] > 0 {
		r.stage = StageGrow
	}
	slog.Info("resumed", "particles", r.sys.Len(), "step", snap.Step, "stage", r.stage.String())
	return nil
}

// Step executes one unit of the current stage: seeding, a growth phase with
// its relaxation phases, one relaxation phase, or the reconstruction.
// Reports whether the run is done.
func (r *Runner) Step() (bool, error) {
	if r.stage == StageDone {
		return true, nil
	}

	r.perf.StartStep()
	var err error
	switch r.stage {
	case StageSeed:
		r.seed()
	case StageGrow:
		r.grow()
	case StageRelax:
		r.relax()
	case StageRemesh:
		err = r.remesh()
	}
	r.perf.EndStep()
	r.steps++

	if r.steps%r.perf.WindowSize() == 0 || r.stage == StageDone {
		r.flushPerf()
	}
	return r.stage == StageDone, err
}

// Run steps until the run is done or ctx is cancelled between phases.
func (r *Runner) Run(ctx context.Context) (*remesh.Result, error) {
	slog.Info("run started",
		"seeding", r.opts.Seeding,
		"resolution", r.opts.Resolution,
		"mirror", r.opts.Mirror,
		"surface", r.scene.Name,
	)
	for {
		if err := ctx.Err(); err != nil {
			slog.Info("run cancelled", "stage", r.stage.String(), "particles", r.sys.Len())
			return r.result, err
		}
		done, err := r.Step()
		if err != nil {
			return r.result, err
		}
		if done {
			return r.result, nil
		}
	}
}

// SpreadOnce runs a single growth phase outside the staged schedule, as the
// preview's Spread button does. Seeds first if nothing was seeded yet.
func (r *Runner) SpreadOnce() {
	r.manual(func() error {
		start := time.Now()
		r.perf.StartPhase(telemetry.PhaseSpread)
		st := r.sys.SpreadWithStats()
		stats := r.collector.Begin(telemetry.KindSpread)
		stats.Created = st.Created
		stats.Removed = st.Merged
		r.finishPhase(&stats, start)
		return nil
	})
}

// RelaxOnce runs a single relaxation phase outside the staged schedule.
func (r *Runner) RelaxOnce() {
	r.manual(func() error {
		r.relaxOnce()
		return nil
	})
}

// Remesh reconstructs the mesh from the current particles without ending
// the run.
func (r *Runner) Remesh() error {
	return r.manual(r.reconstruct)
}

// manual times fn as one step, seeding first when needed.
func (r *Runner) manual(fn func() error) error {
	if r.stage == StageSeed {
		if _, err := r.Step(); err != nil {
			return err
		}
	}
	r.perf.StartStep()
	err := fn()
	r.perf.EndStep()
	r.steps++
	return err
}

// TriangleMode reports whether relaxation and reconstruction target a
// triangle-only layout.
func (r *Runner) TriangleMode() bool {
	return r.opts.Remesh.TriangleMode
}

// SetTriangleMode switches both relaxation forces and reconstruction between
// triangle-only and quad-dominant layouts.
func (r *Runner) SetTriangleMode(on bool) {
	r.opts.Remesh.TriangleMode = on
	r.sys.SetTriangleMode(on)
}

// Close flushes and closes the output files.
func (r *Runner) Close() error {
	return r.output.Close()
}

// seed places the initial particles and applies the mirror.
func (r *Runner) seed() {
	start := time.Now()
	r.perf.StartPhase(telemetry.PhaseSeed)

	points := r.scene.Proxy.Vertices()
	var created int
	mirrorAfter := r.opts.Mirror
	switch r.opts.Seeding {
	case "vertices":
		created = r.sys.SeedFromVertices(points, r.opts.Adaptive)
	case "features":
		created = r.sys.SeedFromFeatures(r.scene.Features, r.opts.Resolution, r.opts.Adaptive, r.opts.FeatureCount)
	default:
		// SeedGrid twins +x cells itself; any-side mirroring is applied after.
		gridMirror := r.opts.Mirror && !r.opts.MirrorAnySide
		created = r.sys.SeedGrid(points, r.opts.Resolution, gridMirror, r.opts.Adaptive)
		mirrorAfter = r.opts.Mirror && r.opts.MirrorAnySide
	}

	stats := r.collector.Begin(telemetry.KindSeed)
	stats.Created = created
	r.finishPhase(&stats, start)

	if mirrorAfter {
		start = time.Now()
		before := r.sys.Len()
		r.sys.MirrorParticles(r.opts.MirrorAnySide)
		stats := r.collector.Begin(telemetry.KindMirror)
		if d := r.sys.Len() - before; d > 0 {
			stats.Created = d
		} else {
			stats.Removed = -d
		}
		r.finishPhase(&stats, start)
	}

	r.stage = StageGrow
}

// grow runs one growth phase followed by RelaxPerSpread relaxation phases.
func (r *Runner) grow() {
	start := time.Now()
	r.perf.StartPhase(telemetry.PhaseSpread)
	st := r.sys.SpreadWithStats()
	r.spreadPhases++

	stats := r.collector.Begin(telemetry.KindSpread)
	stats.Created = st.Created
	stats.Removed = st.Merged
	r.finishPhase(&stats, start)

	for i := 0; i < r.opts.RelaxPerSpread; i++ {
		r.relaxOnce()
	}

	if st.Created == 0 || (r.opts.MaxSpreadPhases > 0 && r.spreadPhases >= r.opts.MaxSpreadPhases) {
		slog.Info("growth finished",
			"spread_phases", r.spreadPhases,
			"particles", r.sys.Len(),
			"saturated", st.Created == 0,
		)
		r.stage = StageRelax
	}
}

// relax runs one final relaxation phase and checks convergence.
func (r *Runner) relax() {
	r.relaxOnce()
	r.relaxPhases++
	if r.collector.Converged(r.opts.ConvergenceThreshold) || r.relaxPhases >= r.opts.RelaxIterations {
		last, _ := r.collector.Last(telemetry.KindRelax)
		slog.Info("relaxation finished",
			"relax_phases", r.relaxPhases,
			"rel_move", last.RelMove,
			"converged", r.collector.Converged(r.opts.ConvergenceThreshold),
		)
		r.stage = StageRemesh
	}
}

func (r *Runner) relaxOnce() {
	start := time.Now()
	r.perf.StartPhase(telemetry.PhaseRelax)
	st := r.sys.Relax(r.opts.Speed)

	stats := r.collector.Begin(telemetry.KindRelax)
	stats.Isolated = st.Isolated
	stats.SetMovement(st.MeanMove, st.MaxMove, st.MeanRadius)
	r.finishPhase(&stats, start)
}

// remesh reconstructs the mesh and ends the run.
func (r *Runner) remesh() error {
	err := r.reconstruct()
	r.stage = StageDone
	return err
}

// reconstruct builds the mesh from the particle snapshot and writes the
// result files.
func (r *Runner) reconstruct() error {
	start := time.Now()
	r.perf.StartPhase(telemetry.PhaseRemesh)
	res := remesh.Reconstruct(Sites(r.sys), r.scene.Proxy.Clone(), r.opts.Remesh)
	r.result = &res

	stats := r.collector.Begin(telemetry.KindRemesh)
	stats.Created = len(res.Mesh.Faces)
	stats.Removed = res.Culled
	r.finishPhase(&stats, start)

	slog.Info("remeshed",
		"vertices", len(res.Mesh.Verts),
		"faces", len(res.Mesh.Faces),
		"refine_passes", res.RefinePasses,
		"emitted", res.Emitted,
		"culled", res.Culled,
		"filled", res.Filled,
		"joined", res.Joined,
	)

	r.perf.StartPhase(telemetry.PhaseOutput)
	if r.output == nil {
		return nil
	}
	path, err := r.output.WriteMesh("remesh", res.Mesh)
	if err != nil {
		return fmt.Errorf("writing mesh: %w", err)
	}
	snapPath, err := r.output.WriteSnapshot(SnapshotOf(r.sys, r.opts.Seed, r.collector.Step(), r.scene.Name))
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	slog.Info("output written", "mesh", path, "snapshot", snapPath)
	return nil
}

// finishPhase completes stats with the population and spacing at phase end,
// then logs, records and exports it.
func (r *Runner) finishPhase(stats *telemetry.PhaseStats, start time.Time) {
	r.perf.StartPhase(telemetry.PhaseMetrics)
	counts := r.sys.CountByTag()
	stats.Particles = r.sys.Len()
	stats.Active = counts[components.TagActive]
	stats.Done = counts[components.TagDone]
	stats.SetSpacing(r.sys.NeighborDistances())
	stats.SetDuration(time.Since(start))
	r.collector.Record(*stats)

	if r.opts.LogPhases {
		stats.LogStats()
	}
	r.perf.StartPhase(telemetry.PhaseOutput)
	if err := r.output.WritePhase(*stats); err != nil {
		slog.Error("failed to write phase", "error", err)
	}

	for _, bm := range r.bookmarks.Check(*stats) {
		bm.LogBookmark()
		if err := r.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

func (r *Runner) flushPerf() {
	perfStats := r.perf.Stats()
	if r.opts.LogPhases {
		perfStats.LogStats()
	}
	if err := r.output.WritePerf(perfStats, r.steps); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
