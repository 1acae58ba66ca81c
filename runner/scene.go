package runner

import (
	"fmt"
	"os"

	"github.com/pthm-cable/tessellator/config"
	"github.com/pthm-cable/tessellator/mesh"
	"github.com/pthm-cable/tessellator/surface"
	"github.com/pthm-cable/tessellator/systems"
)

// Scene is the surface a run retopologizes: the sampler particles live on,
// the dense proxy the reconstruction grows regions over, and the feature
// candidates used by feature seeding.
type Scene struct {
	Name     string
	Sampler  surface.Sampler
	Proxy    *mesh.Mesh
	Features []systems.FeatureVertex
}

// SceneFromConfig builds the scene described by the surface section.
func SceneFromConfig(sc config.SurfaceConfig) (*Scene, error) {
	switch sc.Kind {
	case "plane":
		p := surface.NewSquarePlane(sc.Size)
		return proceduralScene(fmt.Sprintf("plane size=%g", sc.Size), p, sc.ProxyGrid), nil
	case "noise":
		n := surface.NewNoise(surface.NoiseParams{
			Size:      sc.Size,
			Amplitude: sc.Amplitude,
			Frequency: sc.Frequency,
			Octaves:   sc.Octaves,
			Seed:      sc.Seed,
		})
		name := fmt.Sprintf("noise size=%g amplitude=%g seed=%d", sc.Size, sc.Amplitude, sc.Seed)
		return proceduralScene(name, n, sc.ProxyGrid), nil
	case "mesh":
		return LoadMeshScene(sc.Path, sc.CurvatureGain)
	default:
		return nil, fmt.Errorf("unknown surface kind %q", sc.Kind)
	}
}

// proceduralScene tessellates s and scores every proxy vertex by the
// curvature sampled there.
func proceduralScene(name string, s surface.Sampler, cells int) *Scene {
	proxy := surface.Tessellate(s, cells)
	features := make([]systems.FeatureVertex, len(proxy.Verts))
	for i, v := range proxy.Verts {
		features[i] = systems.FeatureVertex{Position: v, Sharpness: s.Sample(v).Curvature}
	}
	return &Scene{Name: name, Sampler: s, Proxy: proxy, Features: features}
}

// LoadMeshScene reads an OBJ file. The mesh is both the sampled surface and
// the reconstruction proxy.
func LoadMeshScene(path string, gain float64) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mesh: %w", err)
	}
	defer f.Close()

	m, err := mesh.ReadOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("reading %s: mesh has no faces", path)
	}
	return MeshScene(path, m, gain), nil
}

// MeshScene wraps an in-memory mesh.
func MeshScene(name string, m *mesh.Mesh, gain float64) *Scene {
	if gain <= 0 {
		gain = 1
	}
	s := surface.NewMeshSampler(m, gain)
	features := make([]systems.FeatureVertex, s.VertexCount())
	for i := range features {
		features[i] = systems.FeatureVertex{Position: s.Vertex(i), Sharpness: s.VertexCurvature(i)}
	}
	return &Scene{Name: name, Sampler: s, Proxy: m.Clone(), Features: features}
}
