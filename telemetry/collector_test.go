package telemetry

import "testing"

func TestCollector_Numbering(t *testing.T) {
	c := NewCollector(10)

	kinds := []string{KindSeed, KindSpread, KindRelax, KindRelax, KindSpread, KindRelax}
	for i, kind := range kinds {
		s := c.Begin(kind)
		if s.Step != i {
			t.Errorf("phase %d numbered step %d", i, s.Step)
		}
		c.Record(s)
	}

	tests := []struct {
		kind string
		want int
	}{
		{KindSeed, 1},
		{KindSpread, 2},
		{KindRelax, 3},
		{KindRemesh, 0},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			if got := c.Iterations(tt.kind); got != tt.want {
				t.Errorf("Iterations(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}

	if s := c.Begin(KindRelax); s.Iteration != 3 {
		t.Errorf("next relax iteration = %d, want 3", s.Iteration)
	}
}

func TestCollector_HistoryRolls(t *testing.T) {
	c := NewCollector(3)
	for i := 0; i < 5; i++ {
		s := c.Begin(KindSpread)
		s.Created = i
		c.Record(s)
	}

	h := c.History()
	if len(h) != 3 {
		t.Fatalf("history has %d entries, want 3", len(h))
	}
	if h[0].Step != 2 || h[2].Step != 4 {
		t.Errorf("history steps %d..%d, want 2..4", h[0].Step, h[2].Step)
	}
	if created, _ := c.Totals(); created != 0+1+2+3+4 {
		t.Errorf("created total = %d, want 10", created)
	}
}

func TestCollector_Converged(t *testing.T) {
	c := NewCollector(5)
	if c.Converged(0.1) {
		t.Error("converged before any relaxation")
	}

	s := c.Begin(KindRelax)
	s.Particles = 10
	s.SetMovement(0.05, 0.1, 0.5)
	c.Record(s)
	if c.Converged(0.05) {
		t.Error("rel move 0.1 should not pass threshold 0.05")
	}

	s = c.Begin(KindRelax)
	s.Particles = 10
	s.SetMovement(0.01, 0.02, 0.5)
	c.Record(s)
	if !c.Converged(0.05) {
		t.Error("rel move 0.02 should pass threshold 0.05")
	}

	// A later spread phase does not hide the last relaxation.
	c.Record(c.Begin(KindSpread))
	if last, ok := c.Last(KindRelax); !ok || last.Iteration != 1 {
		t.Errorf("Last(relax) = %+v, %v", last, ok)
	}
}
