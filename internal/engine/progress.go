package engine

// PercentageResult is a target-relative progress percentage, always in
// [0, 100] after clamping. NoTarget marks bindings with no target set;
// they report 0% but should read as "no target", not "0% progress".
type PercentageResult struct {
	Percentage float64 `json:"percentage"`
	NoTarget   bool    `json:"no_target"`
}

// ComputeProgress converts a computed value and target into a clamped
// percentage. Values above target cap at 100, negative values clamp to 0.
// A nil or zero target yields a NoTarget result at 0%.
func ComputeProgress(value float64, target *float64) PercentageResult {
	if target == nil || *target == 0 {
		return PercentageResult{NoTarget: true}
	}
	pct := value / *target * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return PercentageResult{Percentage: pct}
}

// ComputeGroupProgress averages clamped percentages across a group of
// nodes, such as all indicators under a goal. NoTarget and failed entries
// are expected to arrive as 0% results and count toward the denominator;
// an unconfigured indicator deliberately drags its goal's average down.
// Callers wanting "average of configured indicators only" pre-filter.
func ComputeGroupProgress(results []PercentageResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Percentage
	}
	return sum / float64(len(results))
}
