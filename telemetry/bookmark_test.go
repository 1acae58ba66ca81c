package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_GrowthSaturated(t *testing.T) {
	bd := NewBookmarkDetector(5, 0.01)

	growing := PhaseStats{Kind: KindSpread, Created: 12, Active: 12, Particles: 20}
	if bms := bd.Check(growing); hasBookmark(bms, BookmarkGrowthSaturated) {
		t.Error("saturation reported while growing")
	}

	done := PhaseStats{Kind: KindSpread, Step: 9, Iteration: 4, Particles: 32}
	bms := bd.Check(done)
	if !hasBookmark(bms, BookmarkGrowthSaturated) {
		t.Fatal("expected growth_saturated bookmark")
	}
	if bms[len(bms)-1].Step != 9 {
		t.Errorf("bookmark step = %d, want 9", bms[len(bms)-1].Step)
	}

	if bms := bd.Check(done); hasBookmark(bms, BookmarkGrowthSaturated) {
		t.Error("saturation should fire once")
	}
}

func TestBookmarkDetector_MergeBurst(t *testing.T) {
	bd := NewBookmarkDetector(5, 0.01)

	for i := 0; i < 4; i++ {
		bd.Check(PhaseStats{Kind: KindSpread, Created: 10, Active: 10, Removed: 1})
	}
	if bms := bd.Check(PhaseStats{Kind: KindSpread, Created: 10, Active: 10, Removed: 2}); hasBookmark(bms, BookmarkMergeBurst) {
		t.Error("2 merges against an average of 1 is not a burst")
	}
	if bms := bd.Check(PhaseStats{Kind: KindSpread, Created: 10, Active: 10, Removed: 9}); !hasBookmark(bms, BookmarkMergeBurst) {
		t.Error("expected merge_burst bookmark")
	}
}

func TestBookmarkDetector_Converged(t *testing.T) {
	bd := NewBookmarkDetector(5, 0.05)

	moving := PhaseStats{Kind: KindRelax, Particles: 10}
	moving.SetMovement(0.1, 0.2, 0.5)
	if bms := bd.Check(moving); hasBookmark(bms, BookmarkConverged) {
		t.Error("converged reported while moving")
	}

	still := PhaseStats{Kind: KindRelax, Particles: 10}
	still.SetMovement(0.001, 0.002, 0.5)
	if bms := bd.Check(still); !hasBookmark(bms, BookmarkConverged) {
		t.Error("expected converged bookmark")
	}
	if bms := bd.Check(still); hasBookmark(bms, BookmarkConverged) {
		t.Error("convergence should fire once")
	}
}

func TestBookmarkDetector_SpacingStable(t *testing.T) {
	bd := NewBookmarkDetector(3, 0)

	for i, mean := range []float64{0.2, 0.25, 0.3} {
		if bms := bd.Check(PhaseStats{Kind: KindRelax, Particles: 10, SpacingMean: mean}); hasBookmark(bms, BookmarkSpacingStable) {
			t.Errorf("phase %d: unstable spacing reported stable", i)
		}
	}

	var fired int
	for i := 0; i < 4; i++ {
		bms := bd.Check(PhaseStats{Kind: KindRelax, Particles: 10, SpacingMean: 0.3})
		if hasBookmark(bms, BookmarkSpacingStable) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("spacing_stable fired %d times, want 1", fired)
	}
}
