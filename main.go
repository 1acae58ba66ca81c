package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/tessellator/config"
	"github.com/pthm-cable/tessellator/renderer"
	"github.com/pthm-cable/tessellator/runner"
	"github.com/pthm-cable/tessellator/systems"
	"github.com/pthm-cable/tessellator/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run to completion without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, snapshots and the remeshed OBJ")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	meshPath := flag.String("mesh", "", "OBJ surface to retopologize (overrides surface.kind)")
	resumePath := flag.String("resume", "", "Particle snapshot to resume from instead of seeding")
	logPhases := flag.Bool("log-phases", false, "Log every phase via slog")
	autoRun := flag.Bool("run", false, "Start the staged run immediately in the preview")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(options{
		configPath: *configPath,
		headless:   *headless,
		outputDir:  *outputDir,
		seed:       *seed,
		meshPath:   *meshPath,
		resumePath: *resumePath,
		logPhases:  *logPhases,
		autoRun:    *autoRun,
	}); err != nil {
		slog.Error("tessellator failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	headless   bool
	outputDir  string
	seed       int64
	meshPath   string
	resumePath string
	logPhases  bool
	autoRun    bool
}

func run(o options) error {
	// Initialize config before anything else
	if err := config.Init(o.configPath); err != nil {
		return err
	}
	cfg := config.Cfg()

	rngSeed := o.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var scene *runner.Scene
	var err error
	if o.meshPath != "" {
		scene, err = runner.LoadMeshScene(o.meshPath, cfg.Surface.CurvatureGain)
	} else {
		scene, err = runner.SceneFromConfig(cfg.Surface)
	}
	if err != nil {
		return err
	}

	sys := systems.NewParticleSystem(scene.Sampler, systems.ParamsFromConfig(cfg), rngSeed)

	opts := runner.OptionsFromConfig(cfg)
	opts.Seed = rngSeed
	opts.OutputDir = o.outputDir
	opts.LogPhases = opts.LogPhases || o.logPhases

	r, err := runner.New(sys, scene, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.WriteConfig(cfg); err != nil {
		return err
	}

	if o.resumePath != "" {
		snap, err := telemetry.LoadSnapshot(o.resumePath)
		if err != nil {
			return err
		}
		if err := r.Resume(snap); err != nil {
			return err
		}
	}

	if o.headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("starting headless run",
			"seed", rngSeed,
			"surface", scene.Name,
			"output_dir", o.outputDir,
		)
		res, err := r.Run(ctx)
		if err != nil {
			return err
		}
		slog.Info("run finished",
			"particles", sys.Len(),
			"faces", len(res.Mesh.Faces),
			"output_dir", r.Output().Dir(),
		)
		return nil
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Tessellator")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	p := renderer.NewPreview(r, int32(cfg.Screen.Width), int32(cfg.Screen.Height))
	p.SetRunning(o.autoRun)

	for !rl.WindowShouldClose() {
		if err := p.Update(); err != nil {
			slog.Error("preview step failed", "error", err, "stage", r.Stage().String())
		}
		p.Draw()
	}
	return nil
}
