package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayDefaults(t *testing.T) {
	reg := NewOverlayRegistry()

	want := map[OverlayID]bool{
		OverlayFrames:   true,
		OverlayPoints:   true,
		OverlayMirror:   false,
		OverlaySurface:  true,
		OverlayProxy:    false,
		OverlayMesh:     true,
		OverlayInspect:  true,
		OverlayPerfPane: false,
	}
	for id, on := range want {
		if got := reg.IsEnabled(id); got != on {
			t.Errorf("%s enabled = %v, want %v", id, got, on)
		}
	}
	if got := len(reg.EnabledOverlays()); got != 5 {
		t.Errorf("EnabledOverlays() has %d entries, want 5", got)
	}
}

func TestOverlayHandleKeyPress(t *testing.T) {
	reg := NewOverlayRegistry()

	tests := []struct {
		name    string
		key     int32
		wantID  OverlayID
		wantOn  bool
		handled bool
	}{
		{"mirror on", rl.KeyX, OverlayMirror, true, true},
		{"mirror off", rl.KeyX, OverlayMirror, false, true},
		{"perf on", rl.KeyF3, OverlayPerfPane, true, true},
		{"unbound", rl.KeyZ, "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, on, ok := reg.HandleKeyPress(tt.key)
			if id != tt.wantID || on != tt.wantOn || ok != tt.handled {
				t.Errorf("HandleKeyPress = (%q, %v, %v), want (%q, %v, %v)", id, on, ok, tt.wantID, tt.wantOn, tt.handled)
			}
		})
	}
}

func TestOverlayExclusive(t *testing.T) {
	reg := NewOverlayRegistry()
	reg.Register(OverlayDescriptor{
		ID:        "solo",
		Name:      "Solo",
		Category:  "surface",
		Exclusive: []OverlayID{OverlaySurface, OverlayMesh},
	})

	if !reg.Toggle("solo") {
		t.Fatal("toggle should enable solo")
	}
	if reg.IsEnabled(OverlaySurface) || reg.IsEnabled(OverlayMesh) {
		t.Error("enabling solo should disable its exclusive overlays")
	}

	reg.SetEnabled("missing", true)
	if reg.IsEnabled("missing") {
		t.Error("unknown overlay reported enabled")
	}
}

func TestOverlayCategories(t *testing.T) {
	reg := NewOverlayRegistry()

	cats := reg.Categories()
	if len(cats) != 3 || cats[0] != "particles" || cats[1] != "surface" || cats[2] != "panels" {
		t.Errorf("Categories() = %v", cats)
	}
	if got := len(reg.ByCategory("surface")); got != 3 {
		t.Errorf("surface category has %d overlays, want 3", got)
	}
	if categoryLabel("panels") != "Panels" || categoryLabel("other") != "other" {
		t.Error("unexpected category labels")
	}
}
