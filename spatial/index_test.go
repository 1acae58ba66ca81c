package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestEmptyIndex(t *testing.T) {
	ix := Build(nil)
	if !ix.IsEmpty() {
		t.Error("index over no points should be empty")
	}
	if got := ix.KNearest(r3.Vec{}, 3); len(got) != 0 {
		t.Errorf("KNearest on empty index = %v", got)
	}
	if _, ok := ix.Nearest(r3.Vec{}); ok {
		t.Error("Nearest on empty index should report false")
	}
}

func TestKNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := make([]r3.Vec, 300)
	for i := range points {
		points[i] = r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
	}
	ix := Build(points)

	for q := 0; q < 20; q++ {
		query := r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		got := ix.KNearest(query, 9)

		ids := make([]int, len(points))
		for i := range ids {
			ids[i] = i
		}
		sort.Slice(ids, func(a, b int) bool {
			return r3.Norm2(r3.Sub(points[ids[a]], query)) < r3.Norm2(r3.Sub(points[ids[b]], query))
		})

		if len(got) != 9 {
			t.Fatalf("got %d neighbors, want 9", len(got))
		}
		for i := range got {
			if got[i].ID != ids[i] {
				t.Errorf("query %d rank %d: id %d, want %d", q, i, got[i].ID, ids[i])
			}
		}
	}
}

func TestKNearestFewerPointsThanK(t *testing.T) {
	ix := Build([]r3.Vec{{X: 1}, {X: 2}})
	got := ix.KNearest(r3.Vec{}, 9)
	if len(got) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(got))
	}
	if got[0].ID != 0 || got[0].DistSq != 1 {
		t.Errorf("first = %+v, want id 0 at distance 1", got[0])
	}
}

func TestTiesBrokenBySnapshotOrder(t *testing.T) {
	points := []r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}

	// Every point is at distance 1, so each cutoff falls inside a tie.
	// Tree layout varies between builds; rebuild to cover several.
	for build := 0; build < 20; build++ {
		ix := Build(points)
		for k := 1; k <= len(points); k++ {
			got := ix.KNearest(r3.Vec{}, k)
			if len(got) != k {
				t.Fatalf("build %d k=%d: got %d neighbors", build, k, len(got))
			}
			for i, n := range got {
				if n.ID != i {
					t.Errorf("build %d k=%d rank %d: id %d, want %d", build, k, i, n.ID, i)
				}
			}
		}
		if n, _ := ix.Nearest(r3.Vec{}); n.ID != 0 {
			t.Errorf("build %d: Nearest id %d, want 0", build, n.ID)
		}
	}
}

func TestKNearestTieAtCutoff(t *testing.T) {
	// One clear nearest, then three tied at distance 2.
	points := []r3.Vec{{Y: 2}, {X: 2}, {X: 0.5}, {Z: 2}, {X: 5}}

	for build := 0; build < 20; build++ {
		got := Build(points).KNearest(r3.Vec{}, 3)
		want := []int{2, 0, 1}
		for i := range want {
			if got[i].ID != want[i] {
				t.Errorf("build %d rank %d: id %d, want %d", build, i, got[i].ID, want[i])
			}
		}
	}
}

func TestWithin(t *testing.T) {
	points := []r3.Vec{{X: 0.5}, {X: 1.5}, {Y: 0.9}, {Z: 3}}
	ix := Build(points)

	tests := []struct {
		name   string
		radius float64
		want   []int
	}{
		{"none", 0.1, nil},
		{"inner", 1.0, []int{0, 2}},
		{"boundary inclusive", 1.5, []int{0, 2, 1}},
		{"all", 10, []int{0, 2, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.Within(r3.Vec{}, tt.radius)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d points, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("rank %d: id %d, want %d", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}
