package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/tessellator/components"
)

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Index  int // position in the particle snapshot
	Fields []components.FieldDescriptor
	Values FieldValues
}

// Inspector renders the particle inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Width returns the panel width.
func (ins *Inspector) Width() int32 {
	return ins.width
}

// Draw renders the inspector panel for the given data and returns the Y
// position below it.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	panelHeight := padding*2 + r.Theme.LineHeight + int32(len(data.Fields))*(r.Theme.LineHeight+2)
	r.DrawPanel(ins.x, ins.y, ins.width, panelHeight)

	y := ins.y + padding
	y = r.DrawSectionHeader(ins.x+padding, y, fmt.Sprintf("Particle #%d", data.Index))

	contentWidth := ins.width - padding*2
	for _, fd := range data.Fields {
		y = r.DrawField(ins.x+padding, y, fd, data.Values, contentWidth)
	}
	return ins.y + panelHeight
}

// DrawEmpty renders the panel with a hint when nothing is hovered.
func (ins *Inspector) DrawEmpty(hint string) {
	r := ins.renderer
	height := r.Theme.Padding*2 + r.Theme.LineHeight
	r.DrawPanel(ins.x, ins.y, ins.width, height)
	rl.DrawText(hint, ins.x+r.Theme.Padding, ins.y+r.Theme.Padding, r.Theme.FontSize, r.Theme.LabelColor)
}
