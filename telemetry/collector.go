package telemetry

// Collector numbers phases and keeps a rolling history of their stats.
type Collector struct {
	step       int
	iterations map[string]int
	keep       int
	history    []PhaseStats

	// Totals over the whole run
	created int
	removed int
}

// NewCollector creates a collector that remembers the last keep phases.
func NewCollector(keep int) *Collector {
	if keep < 1 {
		keep = 1
	}
	return &Collector{
		iterations: make(map[string]int),
		keep:       keep,
	}
}

// Begin returns a PhaseStats numbered for the next phase of the given kind.
// Nothing is recorded until Record is called.
func (c *Collector) Begin(kind string) PhaseStats {
	return PhaseStats{
		Step:      c.step,
		Kind:      kind,
		Iteration: c.iterations[kind],
	}
}

// Record stores a finished phase and advances the counters.
func (c *Collector) Record(s PhaseStats) {
	c.step++
	c.iterations[s.Kind]++
	c.created += s.Created
	c.removed += s.Removed

	if len(c.history) == c.keep {
		copy(c.history, c.history[1:])
		c.history = c.history[:len(c.history)-1]
	}
	c.history = append(c.history, s)
}

// Step returns the number of phases recorded.
func (c *Collector) Step() int {
	return c.step
}

// Iterations returns the number of phases recorded of one kind.
func (c *Collector) Iterations(kind string) int {
	return c.iterations[kind]
}

// History returns the remembered phases, oldest first.
func (c *Collector) History() []PhaseStats {
	return c.history
}

// Last returns the most recent remembered phase of the given kind.
func (c *Collector) Last(kind string) (PhaseStats, bool) {
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].Kind == kind {
			return c.history[i], true
		}
	}
	return PhaseStats{}, false
}

// Totals returns particles created and removed over the run.
func (c *Collector) Totals() (created, removed int) {
	return c.created, c.removed
}

// Converged reports whether the latest relaxation moved particles less than
// threshold radii on average.
func (c *Collector) Converged(threshold float64) bool {
	last, ok := c.Last(KindRelax)
	return ok && last.Particles > 0 && last.RelMove < threshold
}
