package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoRuleDefined means a binding has no computation rule yet. Presentation
// layers show this as "not yet configured", not as a computation error.
var ErrNoRuleDefined = errors.New("no computation rule defined")

// ErrNoTemporalData means a series had zero observations to bucket.
var ErrNoTemporalData = errors.New("no temporal data")

// CycleDetectedError means a sub-indicator's parent chain loops back on
// itself. This is corrupt hierarchy data, not a formula problem, and is
// surfaced distinctly so operators can tell the two apart.
type CycleDetectedError struct {
	NodeID uint
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected in sub-indicator hierarchy at node %d", e.NodeID)
}

// NodeKind says which binding table a node's ids live in. The binding
// tables each have their own auto-increment sequence, so a bare uint is
// ambiguous across them; every id carried by a Node is interpreted
// relative to its kind.
type NodeKind int

const (
	// KindGoalIndicator is a hierarchy root: a goal_indicators binding
	// whose identity id is an indicators row.
	KindGoalIndicator NodeKind = iota
	// KindGoalSubIndicator is any deeper node: a goal_sub_indicators
	// binding whose identity id is a sub_indicators row.
	KindGoalSubIndicator
	// KindProjectIndicator is a flat project_indicators binding.
	KindProjectIndicator
)

// Node identifies one resolvable position in a goal's indicator hierarchy.
type Node struct {
	// Kind disambiguates which tables BindingID and IndicatorID refer to.
	Kind NodeKind
	// BindingID is the goal-indicator, goal-sub-indicator, or
	// project-indicator row the targets/rule/observations hang off.
	BindingID uint
	// IndicatorID is the underlying indicator or sub-indicator identity,
	// used for child lookup and cycle detection.
	IndicatorID uint
	// Name is the display name; its normalized form is the variable a
	// parent formula uses to reference this node's computed value.
	Name string
}

// Rule is a binding's computation rule.
type Rule struct {
	Formula              string
	IncludeSubIndicators bool
}

// RequiredDataField is a named raw data field a binding declares it needs.
type RequiredDataField struct {
	ID   uint
	Name string
}

// Observation is one timestamped numeric measurement.
type Observation struct {
	Value      float64
	MeasuredAt time.Time
}

// NodeResult is the outcome of resolving one node. Exactly one of Value or
// Err is meaningful; failures are per-node and never abort siblings.
type NodeResult struct {
	Node     Node
	Value    float64
	Err      error
	Children []*NodeResult
}

// Flatten returns the result tree in depth-first order for list display.
func (r *NodeResult) Flatten() []*NodeResult {
	out := []*NodeResult{r}
	for _, c := range r.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}
