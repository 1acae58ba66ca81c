package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase kinds recorded in PhaseStats.Kind.
const (
	KindSeed   = "seed"
	KindMirror = "mirror"
	KindSpread = "spread"
	KindRelax  = "relax"
	KindRemesh = "remesh"
)

// PhaseStats holds the statistics of one particle system phase.
type PhaseStats struct {
	Step      int    `csv:"step"`
	Kind      string `csv:"kind"`
	Iteration int    `csv:"iteration"` // index within the kind

	// Population at phase end
	Particles int `csv:"particles"`
	Active    int `csv:"active"`
	Done      int `csv:"done"`

	// Events during the phase
	Created  int `csv:"created"`
	Removed  int `csv:"removed"`
	Isolated int `csv:"isolated"`

	// Nearest neighbor distance distribution (sampled at phase end)
	SpacingMean float64 `csv:"spacing_mean"`
	SpacingStd  float64 `csv:"spacing_std"`
	SpacingP10  float64 `csv:"spacing_p10"`
	SpacingP50  float64 `csv:"spacing_p50"`
	SpacingP90  float64 `csv:"spacing_p90"`

	// Movement
	MeanMove   float64 `csv:"mean_move"`
	MaxMove    float64 `csv:"max_move"`
	MeanRadius float64 `csv:"mean_radius"`
	RelMove    float64 `csv:"rel_move"` // MeanMove / MeanRadius

	Duration   time.Duration `csv:"-"`
	DurationUS int64         `csv:"duration_us"`
}

// Percentile returns the p-th quantile of a sorted slice using the empirical
// distribution. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSpacingStats calculates mean, standard deviation and percentiles of
// neighbor distances.
func ComputeSpacingStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n == 1 {
		mean = sorted[0]
	} else {
		mean, std = stat.MeanStdDev(sorted, nil)
	}

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// SetSpacing fills the spacing fields from neighbor distances.
func (s *PhaseStats) SetSpacing(distances []float64) {
	s.SpacingMean, s.SpacingStd, s.SpacingP10, s.SpacingP50, s.SpacingP90 = ComputeSpacingStats(distances)
}

// SetMovement fills the movement fields and the relative move.
func (s *PhaseStats) SetMovement(meanMove, maxMove, meanRadius float64) {
	s.MeanMove = meanMove
	s.MaxMove = maxMove
	s.MeanRadius = meanRadius
	s.RelMove = 0
	if meanRadius > 0 {
		s.RelMove = meanMove / meanRadius
	}
}

// SetDuration records the wall time of the phase.
func (s *PhaseStats) SetDuration(d time.Duration) {
	s.Duration = d
	s.DurationUS = d.Microseconds()
}

// LogValue implements slog.LogValuer for structured logging.
func (s PhaseStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.String("kind", s.Kind),
		slog.Int("iteration", s.Iteration),
		slog.Int("particles", s.Particles),
		slog.Int("active", s.Active),
		slog.Int("done", s.Done),
		slog.Int("created", s.Created),
		slog.Int("removed", s.Removed),
		slog.Int("isolated", s.Isolated),
		slog.Float64("spacing_mean", s.SpacingMean),
		slog.Float64("spacing_std", s.SpacingStd),
		slog.Float64("spacing_p10", s.SpacingP10),
		slog.Float64("spacing_p50", s.SpacingP50),
		slog.Float64("spacing_p90", s.SpacingP90),
		slog.Float64("mean_move", s.MeanMove),
		slog.Float64("max_move", s.MaxMove),
		slog.Float64("mean_radius", s.MeanRadius),
		slog.Float64("rel_move", s.RelMove),
		slog.Int64("duration_us", s.DurationUS),
	)
}

// LogStats logs the phase stats using slog.
func (s PhaseStats) LogStats() {
	slog.Info("phase",
		"step", s.Step,
		"kind", s.Kind,
		"iteration", s.Iteration,
		"particles", s.Particles,
		"active", s.Active,
		"created", s.Created,
		"removed", s.Removed,
		"spacing_mean", s.SpacingMean,
		"spacing_std", s.SpacingStd,
		"mean_move", s.MeanMove,
		"rel_move", s.RelMove,
		"duration_us", s.DurationUS,
	)
}
