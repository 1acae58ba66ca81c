package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkGrowthSaturated BookmarkType = "growth_saturated"
	BookmarkMergeBurst      BookmarkType = "merge_burst"
	BookmarkConverged       BookmarkType = "converged"
	BookmarkSpacingStable   BookmarkType = "spacing_stable"
)

// Bookmark marks a notable moment of a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Step        int          `csv:"step"`
	Particles   int          `csv:"particles"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"particles", b.Particles,
		"description", b.Description,
	)
}

// BookmarkDetector watches phase stats for milestones. Saturation and
// convergence fire once per run; bursts fire whenever they occur.
type BookmarkDetector struct {
	threshold float64 // relative move regarded as converged

	// Rolling history of relaxation phases (circular buffer)
	history     []PhaseStats
	historySize int
	historyIdx  int
	historyFull bool

	removedSum   int // removals over recorded spread phases
	spreadPhases int

	saturated bool
	converged bool
	stable    bool
}

// NewBookmarkDetector creates a detector. historySize relaxation phases are
// inspected for spacing stability.
func NewBookmarkDetector(historySize int, threshold float64) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		threshold:   threshold,
		history:     make([]PhaseStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest phase and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats PhaseStats) []Bookmark {
	var bookmarks []Bookmark

	switch stats.Kind {
	case KindSpread:
		if b := bd.checkMergeBurst(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSaturated(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		bd.removedSum += stats.Removed
		bd.spreadPhases++
	case KindRelax:
		bd.addToHistory(stats)
		if b := bd.checkConverged(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSpacingStable(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats PhaseStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []PhaseStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkSaturated fires the first time a growth phase creates nothing and
// leaves no particle active.
func (bd *BookmarkDetector) checkSaturated(stats PhaseStats) *Bookmark {
	if bd.saturated || stats.Created > 0 || stats.Active > 0 {
		return nil
	}
	bd.saturated = true
	return &Bookmark{
		Type:        BookmarkGrowthSaturated,
		Step:        stats.Step,
		Particles:   stats.Particles,
		Description: fmt.Sprintf("growth stopped after %d spread phases", stats.Iteration+1),
	}
}

// checkMergeBurst fires when a growth phase removes more than twice the
// running average and at least three particles.
func (bd *BookmarkDetector) checkMergeBurst(stats PhaseStats) *Bookmark {
	if bd.spreadPhases < 2 || stats.Removed < 3 {
		return nil
	}
	avg := float64(bd.removedSum) / float64(bd.spreadPhases)
	if float64(stats.Removed) <= 2*avg {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkMergeBurst,
		Step:        stats.Step,
		Particles:   stats.Particles,
		Description: fmt.Sprintf("%d merges vs %.1f average", stats.Removed, avg),
	}
}

// checkConverged fires the first time relaxation moves particles less than
// the threshold.
func (bd *BookmarkDetector) checkConverged(stats PhaseStats) *Bookmark {
	if bd.converged || stats.Particles == 0 || stats.RelMove >= bd.threshold {
		return nil
	}
	bd.converged = true
	return &Bookmark{
		Type:        BookmarkConverged,
		Step:        stats.Step,
		Particles:   stats.Particles,
		Description: fmt.Sprintf("mean move %.4f radii", stats.RelMove),
	}
}

// checkSpacingStable fires once when the mean neighbor spacing has varied by
// less than 1% over a full history window.
func (bd *BookmarkDetector) checkSpacingStable(stats PhaseStats) *Bookmark {
	if bd.stable || !bd.historyFull {
		return nil
	}
	lo, hi := stats.SpacingMean, stats.SpacingMean
	for _, h := range bd.history {
		lo = min(lo, h.SpacingMean)
		hi = max(hi, h.SpacingMean)
	}
	if lo <= 0 || (hi-lo)/lo >= 0.01 {
		return nil
	}
	bd.stable = true
	return &Bookmark{
		Type:        BookmarkSpacingStable,
		Step:        stats.Step,
		Particles:   stats.Particles,
		Description: fmt.Sprintf("spacing %.4f over %d relax phases", stats.SpacingMean, bd.historySize),
	}
}
