package metric

import (
	"math"
	"testing"
)

func euclidean(a, b float64) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d
}

func TestVerifyPassesGoodValues(t *testing.T) {
	d := Verify[float64](euclidean)
	if got := d(3, 5); got != 2 {
		t.Errorf("got %v, want 2", got)
	}
}

func TestVerifyPanicsOnNaN(t *testing.T) {
	bad := func(a, b float64) float64 { return math.NaN() }
	d := Verify[float64](bad)
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic on NaN distance")
		}
	}()
	d(1, 2)
}

func TestVerifyPanicsOnNegative(t *testing.T) {
	bad := func(a, b float64) float64 { return -1 }
	d := Verify[float64](bad)
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic on negative distance")
		}
	}()
	d(1, 2)
}

func TestCountingCountsCalls(t *testing.T) {
	c := NewCounting[float64](euclidean)
	for i := 0; i < 5; i++ {
		c.Distance(float64(i), 0)
	}
	if got := c.Count(); got != 5 {
		t.Errorf("got %d calls, want 5", got)
	}
}

func TestSeedFallsBackToWallClock(t *testing.T) {
	t.Setenv("SPHERETREE_SEED", "")
	if Seed() == 0 {
		t.Errorf("wall-clock seed should essentially never be exactly 0")
	}
}

func TestSeedHonorsEnv(t *testing.T) {
	t.Setenv("SPHERETREE_SEED", "42")
	if got := Seed(); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}
