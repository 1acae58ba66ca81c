package runner

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/tessellator/config"
)

func r3Vec(x, y float64) r3.Vec {
	return r3.Vec{X: x, Y: y}
}

func TestSceneFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		sc        config.SurfaceConfig
		wantVerts int
		wantErr   bool
	}{
		{"plane", config.SurfaceConfig{Kind: "plane", Size: 2, ProxyGrid: 4}, 25, false},
		{"noise", config.SurfaceConfig{Kind: "noise", Size: 2, Amplitude: 0.2, Frequency: 1, Octaves: 1, ProxyGrid: 6}, 49, false},
		{"missing mesh", config.SurfaceConfig{Kind: "mesh", Path: "does-not-exist.obj"}, 0, true},
		{"unknown", config.SurfaceConfig{Kind: "torus"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, err := SceneFromConfig(tt.sc)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(scene.Proxy.Verts) != tt.wantVerts || len(scene.Features) != tt.wantVerts {
				t.Errorf("proxy %d verts, %d features, want %d", len(scene.Proxy.Verts), len(scene.Features), tt.wantVerts)
			}
			if scene.Name == "" {
				t.Error("scene has no name")
			}
		})
	}
}

func TestLoadMeshScene(t *testing.T) {
	// A ridge: two quads folded along x = 0.
	obj := `v -1 -1 0
v 0 -1 0.5
v 1 -1 0
v -1 1 0
v 0 1 0.5
v 1 1 0
f 1 2 5 4
f 2 3 6 5
`
	path := filepath.Join(t.TempDir(), "ridge.obj")
	if err := os.WriteFile(path, []byte(obj), 0644); err != nil {
		t.Fatal(err)
	}

	scene, err := LoadMeshScene(path, 1)
	if err != nil {
		t.Fatalf("LoadMeshScene: %v", err)
	}
	if len(scene.Proxy.Faces) != 2 {
		t.Errorf("proxy has %d faces, want the 2 input quads", len(scene.Proxy.Faces))
	}
	if len(scene.Features) != 6 {
		t.Fatalf("got %d features, want 6", len(scene.Features))
	}
	// Ridge vertices bend the normal the most.
	if scene.Features[1].Sharpness <= 0 {
		t.Errorf("ridge sharpness = %v, want > 0", scene.Features[1].Sharpness)
	}
	if hit := scene.Sampler.Sample(r3.Vec{X: 0, Y: 0, Z: 2}); hit.Position.Z > 0.5+1e-9 {
		t.Errorf("sample above the ridge landed at %v", hit.Position)
	}

	empty := filepath.Join(t.TempDir(), "empty.obj")
	if err := os.WriteFile(empty, []byte("v 0 0 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMeshScene(empty, 1); err == nil {
		t.Error("mesh without faces should be rejected")
	}
}
