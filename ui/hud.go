package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/tessellator/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Surface      string
	Stage        string
	Step         int
	Particles    int
	Active       int
	Done         int
	SpacingMean  float64
	SpacingStd   float64
	RelMove      float64
	Faces        int // result faces, 0 before remesh
	FPS          int32
	Running      bool
	TriangleMode bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	// Title
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(data.Surface, 10, 33, 14, rl.Gray)

	// Population counts
	rl.DrawText(
		fmt.Sprintf("Particles: %d | Active: %d | Done: %d", data.Particles, data.Active, data.Done),
		10, 52, 16, rl.LightGray,
	)

	// Spacing and convergence
	rl.DrawText(
		fmt.Sprintf("Spacing: %.4f +/- %.4f | Rel move: %.4f", data.SpacingMean, data.SpacingStd, data.RelMove),
		10, 72, 16, rl.LightGray,
	)

	mode := "quads"
	if data.TriangleMode {
		mode = "triangles"
	}
	info := fmt.Sprintf("Stage: %s | Step: %d | Mode: %s | FPS: %d", data.Stage, data.Step, mode, data.FPS)
	if data.Faces > 0 {
		info += fmt.Sprintf(" | Faces: %d", data.Faces)
	}
	rl.DrawText(info, 10, 92, 16, rl.LightGray)

	// Status
	statusText := "Paused"
	if data.Running {
		statusText = "Running"
	}
	rl.DrawText(statusText, 10, 112, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the step timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel. phases fixes the row order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, phases []string) {
	x := p.x
	y := p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("Avg: %s | Steps/s: %.1f", stats.AvgStepDuration.Round(time.Microsecond), stats.StepsPerSecond),
		x, y, 14, rl.Yellow,
	)
	y += 16

	for _, name := range phases {
		pct := stats.PhasePct[name]
		if pct == 0 {
			continue
		}

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-8s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
