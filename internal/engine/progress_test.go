package engine

import "testing"

func target(v float64) *float64 { return &v }

func TestComputeProgress_ClampsToRange(t *testing.T) {
	cases := []struct {
		value  float64
		target float64
		want   float64
	}{
		{0, 100, 0},
		{100, 100, 100},
		{200, 100, 100}, // above target caps at 100
		{-5, 100, 0},    // negative clamps to 0, never negative
		{75, 100, 75},
		{150, 200, 75},
		{1, 3, 1.0 / 3 * 100}, // matches value/target*100 evaluation order
	}
	for _, c := range cases {
		got := ComputeProgress(c.value, target(c.target))
		if got.NoTarget {
			t.Errorf("ComputeProgress(%v, %v): unexpected NoTarget", c.value, c.target)
		}
		if got.Percentage != c.want {
			t.Errorf("ComputeProgress(%v, %v) = %v, want %v", c.value, c.target, got.Percentage, c.want)
		}
	}
}

func TestComputeProgress_NoTarget(t *testing.T) {
	for _, tgt := range []*float64{nil, target(0)} {
		got := ComputeProgress(50, tgt)
		if !got.NoTarget {
			t.Errorf("target %v: expected NoTarget", tgt)
		}
		if got.Percentage != 0 {
			t.Errorf("target %v: expected 0%%, got %v", tgt, got.Percentage)
		}
	}
}

func TestComputeGroupProgress_NoTargetCountsAsZero(t *testing.T) {
	// An unset indicator still counts as 0% toward its goal's average.
	results := []PercentageResult{
		{Percentage: 50},
		{NoTarget: true},
		{Percentage: 100},
	}
	got := ComputeGroupProgress(results)
	if got != 50 {
		t.Errorf("expected 50.0, got %v", got)
	}
}

func TestComputeGroupProgress_EmptyGroup(t *testing.T) {
	if got := ComputeGroupProgress(nil); got != 0 {
		t.Errorf("expected 0 for empty group, got %v", got)
	}
}
