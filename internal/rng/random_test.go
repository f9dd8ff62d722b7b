package rng

import (
	"math"
	"testing"
)

func TestDeterministicStreamsAreStable(t *testing.T) {
	a := New("seed", LabelAgents)
	b := New("seed", LabelAgents)
	for i := 0; i < 10; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("expected identical streams, got %f and %f at %d", x, y, i)
		}
	}
}

func TestLabelsProduceIndependentSeeds(t *testing.T) {
	if DeterministicSeedValue("seed", LabelZone) == DeterministicSeedValue("seed", LabelHazards) {
		t.Fatalf("expected distinct seeds per label")
	}
}

func TestBetweenStaysInRange(t *testing.T) {
	r := New("range", "between")
	for i := 0; i < 1000; i++ {
		v := Between(r, 10, 30)
		if v < 10 || v >= 30 {
			t.Fatalf("expected value in [10, 30), got %f", v)
		}
	}
	if got := Between(r, 5, 5); got != 5 {
		t.Fatalf("expected degenerate range to return min, got %f", got)
	}
}

func TestPointInDiscRespectsRadius(t *testing.T) {
	r := New("disc", "points")
	for i := 0; i < 500; i++ {
		x, y := PointInDisc(r, 100, 200, 50)
		if d := math.Hypot(x-100, y-200); d >= 50 {
			t.Fatalf("expected point inside radius 50, got distance %f", d)
		}
	}
}

func TestNilGeneratorFallsBack(t *testing.T) {
	if v := Float(nil); v < 0 || v >= 1 {
		t.Fatalf("expected fallback value in [0, 1), got %f", v)
	}
	if got := Intn(nil, 0); got != 0 {
		t.Fatalf("expected zero for empty range, got %d", got)
	}
}
