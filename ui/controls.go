package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsPanel renders the left-side controls panel with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	// Calculate panel height based on content
	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight // Extra for title

	// Draw panel background
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding

	// Title
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	// Draw overlays by category
	for _, category := range categories {
		// Category header
		catLabel := categoryLabel(category)
		rl.DrawText(catLabel, c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		// Overlays in this category
		for _, desc := range overlays.ByCategory(category) {
			enabled := overlays.IsEnabled(desc.ID)
			c.drawToggle(c.x+padding, y, desc, enabled, c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "particles":
		return "Particles"
	case "surface":
		return "Surface"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

// Action is a command issued from the action bar.
type Action int

const (
	ActionNone Action = iota
	ActionToggleRun
	ActionStep
	ActionSpread
	ActionRelax
	ActionRemesh
	ActionTriangleMode
)

// ActionBarState is what the action bar needs to label its buttons.
type ActionBarState struct {
	Running      bool
	Done         bool
	TriangleMode bool
}

// ActionBar renders the raygui command buttons along the bottom edge.
type ActionBar struct {
	x, y    float32
	buttonW float32
	buttonH float32
	gap     float32
}

// NewActionBar creates an action bar whose first button is at (x, y).
func NewActionBar(x, y float32) *ActionBar {
	return &ActionBar{x: x, y: y, buttonW: 96, buttonH: 24, gap: 6}
}

// SetPosition updates the bar position.
func (a *ActionBar) SetPosition(x, y float32) {
	a.x = x
	a.y = y
}

// Draw renders the buttons and returns the action clicked this frame.
func (a *ActionBar) Draw(state ActionBarState) Action {
	runLabel := "Run"
	if state.Running {
		runLabel = "Pause"
	}
	modeLabel := "Quads"
	if state.TriangleMode {
		modeLabel = "Triangles"
	}

	buttons := []struct {
		label  string
		action Action
	}{
		{runLabel, ActionToggleRun},
		{"Step", ActionStep},
		{"Spread", ActionSpread},
		{"Relax", ActionRelax},
		{"Remesh", ActionRemesh},
		{modeLabel, ActionTriangleMode},
	}

	clicked := ActionNone
	x := a.x
	for _, b := range buttons {
		bounds := rl.Rectangle{X: x, Y: a.y, Width: a.buttonW, Height: a.buttonH}
		if b.action == ActionToggleRun && state.Done {
			gui.Disable()
		}
		if gui.Button(bounds, b.label) {
			clicked = b.action
		}
		gui.Enable()
		x += a.buttonW + a.gap
	}
	return clicked
}
