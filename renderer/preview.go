package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/camera"
	"github.com/pthm-cable/tessellator/components"
	"github.com/pthm-cable/tessellator/remesh"
	"github.com/pthm-cable/tessellator/runner"
	"github.com/pthm-cable/tessellator/systems"
	"github.com/pthm-cable/tessellator/telemetry"
	"github.com/pthm-cable/tessellator/ui"
)

// pickRadius is how close, in pixels, the cursor must be to a particle to
// inspect it.
const pickRadius = 10

const controlsLegend = "Space: run | N: step | S: spread | R: relax | E: remesh | T: tri/quad | Tab: overlays | RMB: orbit | MMB: pan | Wheel: zoom"

// Preview is the interactive window. It steps a runner, draws the particle
// system with its debug lines and the reconstructed mesh, and exposes the
// manual operations as buttons and keys.
type Preview struct {
	runner *runner.Runner

	camera     *camera.Camera
	background *BackgroundRenderer
	particles  *ParticleRenderer
	proxy      *MeshRenderer
	result     *MeshRenderer
	shown      *remesh.Result

	overlays  *ui.OverlayRegistry
	controls  *ui.ControlsPanel
	actions   *ui.ActionBar
	hud       *ui.HUD
	inspector *ui.Inspector
	perfPanel *ui.PerfPanel

	running       bool
	stepsPerFrame int
	pending       ui.Action
	hovered       int
	snapshot      []systems.Particle

	screenWidth, screenHeight float32
}

// NewPreview creates the preview for r. The raylib window must be open.
func NewPreview(r *runner.Runner, width, height int32) *Preview {
	bounds := r.Scene().Proxy.Bounds()
	p := &Preview{
		runner:        r,
		camera:        camera.New(float32(width), float32(height), bounds),
		background:    NewBackgroundRenderer(width, height),
		particles:     NewParticleRenderer(),
		proxy:         NewMeshRenderer(rl.Color{R: 110, G: 120, B: 135, A: 255}, rl.Color{R: 70, G: 78, B: 90, A: 255}),
		result:        NewMeshRenderer(rl.Color{R: 200, G: 170, B: 120, A: 255}, rl.Color{R: 250, G: 240, B: 210, A: 255}),
		overlays:      ui.NewOverlayRegistry(),
		controls:      ui.NewControlsPanel(10, 140, 220),
		actions:       ui.NewActionBar(10, float32(height)-60),
		hud:           ui.NewHUD(),
		inspector:     ui.NewInspector(width-250, 10, 240),
		perfPanel:     ui.NewPerfPanel(width-250, 200),
		stepsPerFrame: 1,
		hovered:       -1,
		screenWidth:   float32(width),
		screenHeight:  float32(height),
	}
	p.proxy.Set(r.Scene().Proxy)
	return p
}

// Running reports whether the staged run advances every frame.
func (p *Preview) Running() bool {
	return p.running
}

// SetRunning starts or pauses the staged run.
func (p *Preview) SetRunning(on bool) {
	p.running = on
}

// Update processes input, applies the pending action and advances the run.
func (p *Preview) Update() error {
	p.handleInput()

	action := p.pending
	p.pending = ui.ActionNone
	err := p.apply(action)

	if err == nil && p.running {
		for i := 0; i < p.stepsPerFrame; i++ {
			done, stepErr := p.runner.Step()
			if stepErr != nil {
				err = stepErr
			}
			if done || stepErr != nil {
				p.running = false
				break
			}
		}
	}
	if err != nil {
		p.running = false
	}

	p.snapshot = p.runner.System().Snapshot()
	p.updateHover()
	p.syncResult()
	p.runner.Perf().RecordFrame()
	return err
}

// apply executes one action from the action bar or the keyboard.
func (p *Preview) apply(a ui.Action) error {
	switch a {
	case ui.ActionToggleRun:
		p.running = !p.running && p.runner.Stage() != runner.StageDone
	case ui.ActionStep:
		_, err := p.runner.Step()
		return err
	case ui.ActionSpread:
		p.runner.SpreadOnce()
	case ui.ActionRelax:
		p.runner.RelaxOnce()
	case ui.ActionRemesh:
		return p.runner.Remesh()
	case ui.ActionTriangleMode:
		p.runner.SetTriangleMode(!p.runner.TriangleMode())
	}
	return nil
}

// syncResult uploads a new reconstruction when the runner produced one.
func (p *Preview) syncResult() {
	res := p.runner.Result()
	if res == p.shown {
		return
	}
	p.shown = res
	if res == nil {
		p.result.Set(nil)
		return
	}
	p.result.Set(res.Mesh)
}

// updateHover picks the particle under the cursor.
func (p *Preview) updateHover() {
	p.hovered = -1
	if !p.overlays.IsEnabled(ui.OverlayInspect) {
		return
	}
	points := make([]r3.Vec, len(p.snapshot))
	for i, q := range p.snapshot {
		points[i] = q.Location()
	}
	mouse := rl.GetMousePosition()
	p.hovered = p.camera.Pick(points, mouse.X, mouse.Y, pickRadius)
}

// camera3D converts the orbit camera for raylib.
func (p *Preview) camera3D() rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(p.camera.Position()),
		Target:     vec3(p.camera.Target),
		Up:         vec3(p.camera.Up()),
		Fovy:       float32(p.camera.FovY),
		Projection: rl.CameraPerspective,
	}
}

// Draw renders one frame.
func (p *Preview) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	p.background.Draw()

	rl.BeginMode3D(p.camera3D())
	p.drawScene()
	rl.EndMode3D()

	p.drawUI()
	rl.EndDrawing()
}

// drawScene draws the 3D content according to the enabled overlays.
func (p *Preview) drawScene() {
	showResult := p.overlays.IsEnabled(ui.OverlayMesh) && !p.result.Empty()

	if p.overlays.IsEnabled(ui.OverlaySurface) && !showResult {
		p.proxy.DrawFill()
	}
	if p.overlays.IsEnabled(ui.OverlayProxy) {
		p.proxy.DrawWire()
	}
	if showResult {
		p.result.DrawFill()
		p.result.DrawWire()
	}
	if p.overlays.IsEnabled(ui.OverlayFrames) {
		p.particles.DrawLines(p.runner.System().Sink().Lines())
	}
	if p.overlays.IsEnabled(ui.OverlayPoints) {
		p.particles.DrawPoints(p.snapshot, p.hovered)
	}
	if p.overlays.IsEnabled(ui.OverlayMirror) {
		p.particles.DrawMirrorPlane(p.runner.Scene().Proxy.Bounds())
	}
}

// drawUI draws the 2D panels on top of the scene.
func (p *Preview) drawUI() {
	p.hud.Draw(p.hudData())

	if p.overlays.IsEnabled(ui.OverlayInspect) {
		if p.hovered >= 0 && p.hovered < len(p.snapshot) {
			p.inspector.Draw(ui.InspectorData{
				Index:  p.hovered,
				Fields: components.ParticleFieldDescriptors(),
				Values: particleValues(p.snapshot[p.hovered]),
			})
		} else {
			p.inspector.DrawEmpty("Hover a particle to inspect it")
		}
	}
	if p.overlays.IsEnabled(ui.OverlayPerfPane) {
		p.perfPanel.Draw(p.runner.Perf().Stats(), telemetry.PerfPhases())
	}
	p.controls.Draw(p.overlays)

	action := p.actions.Draw(ui.ActionBarState{
		Running:      p.running,
		Done:         p.runner.Stage() == runner.StageDone,
		TriangleMode: p.runner.TriangleMode(),
	})
	if action != ui.ActionNone {
		p.pending = action
	}

	p.hud.DrawControls(int32(p.screenWidth), int32(p.screenHeight), controlsLegend)
}

// hudData gathers the HUD values from the runner.
func (p *Preview) hudData() ui.HUDData {
	sys := p.runner.System()
	counts := sys.CountByTag()
	data := ui.HUDData{
		Title:        "Tessellator",
		Surface:      p.runner.Scene().Name,
		Stage:        p.runner.Stage().String(),
		Step:         p.runner.Collector().Step(),
		Particles:    sys.Len(),
		Active:       counts[components.TagActive],
		Done:         counts[components.TagDone],
		FPS:          int32(rl.GetFPS()),
		Running:      p.running,
		TriangleMode: p.runner.TriangleMode(),
	}
	if h := p.runner.Collector().History(); len(h) > 0 {
		last := h[len(h)-1]
		data.SpacingMean = last.SpacingMean
		data.SpacingStd = last.SpacingStd
	}
	if last, ok := p.runner.Collector().Last(telemetry.KindRelax); ok {
		data.RelMove = last.RelMove
	}
	if p.shown != nil {
		data.Faces = len(p.shown.Mesh.Faces)
	}
	return data
}

// particleValues fills the inspector fields for one particle.
func particleValues(q systems.Particle) ui.FieldValues {
	mirror := "none"
	switch {
	case q.Mirror.LockX:
		mirror = "on plane"
	case q.Mirror.Paired():
		mirror = fmt.Sprintf("twin %v", q.Mirror.Partner)
	}
	return ui.FieldValues{
		Numbers: map[string]float64{
			"radius":    q.Spacing.Radius,
			"target":    q.Spacing.TargetResolution,
			"adaptive":  q.Spacing.Adaptive,
			"curvature": q.Surface.Hit.Curvature,
		},
		Text: map[string]string{
			"tag":    q.Tag.String(),
			"mirror": mirror,
		},
	}
}
