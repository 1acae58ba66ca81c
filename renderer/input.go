package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/tessellator/ui"
)

// handleInput processes keyboard and mouse input.
func (p *Preview) handleInput() {
	p.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// Actions mirror the action bar buttons.
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		p.pending = ui.ActionToggleRun
	case rl.IsKeyPressed(rl.KeyN):
		p.pending = ui.ActionStep
	case rl.IsKeyPressed(rl.KeyS):
		p.pending = ui.ActionSpread
	case rl.IsKeyPressed(rl.KeyR):
		p.pending = ui.ActionRelax
	case rl.IsKeyPressed(rl.KeyE):
		p.pending = ui.ActionRemesh
	case rl.IsKeyPressed(rl.KeyT):
		p.pending = ui.ActionTriangleMode
	}

	// Steps-per-frame control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && p.stepsPerFrame > 1 {
		p.stepsPerFrame--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && p.stepsPerFrame < 10 {
		p.stepsPerFrame++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		p.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		p.camera.Reset()
	}

	if key := rl.GetKeyPressed(); key != 0 {
		p.overlays.HandleKeyPress(key)
	}

	p.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (p *Preview) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == p.screenWidth && h == p.screenHeight {
		return
	}
	p.screenWidth = w
	p.screenHeight = h

	p.camera.Resize(w, h)
	p.background.Resize(int32(w), int32(h))
	p.inspector.SetPosition(int32(w)-p.inspector.Width()-10, 10)
	p.perfPanel.SetPosition(int32(w)-p.inspector.Width()-10, 200)
	p.actions.SetPosition(10, h-60)
}

// handleCameraInput processes orbit, pan and zoom controls.
func (p *Preview) handleCameraInput() {
	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		p.camera.Orbit(delta.X, delta.Y)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		p.camera.Pan(delta.X, delta.Y)
	}

	// Arrow keys orbit in fixed steps
	if rl.IsKeyDown(rl.KeyLeft) {
		p.camera.Orbit(-4, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		p.camera.Orbit(4, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		p.camera.Orbit(0, -4)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		p.camera.Orbit(0, 4)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		p.camera.ZoomBy(float64(1 + wheel*0.1))
	}
}
