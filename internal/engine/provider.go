package engine

import (
	"context"
	"time"
)

// DataProvider is the engine's only view of the outside world. The engine
// never reads cached computed values through this interface; every
// resolution starts from raw observations.
//
// Methods take the full Node rather than a bare binding id: the binding
// tables have independent id sequences, so providers need the node's kind
// to know which tables its ids refer to.
type DataProvider interface {
	// DeclaredRequiredData lists the raw data fields a binding declares.
	DeclaredRequiredData(ctx context.Context, node Node) ([]RequiredDataField, error)

	// LatestObservation returns the newest observation for a field under a
	// binding: latest by measurement date, ties broken by most recent
	// insertion. Returns nil when the field has no observations.
	LatestObservation(ctx context.Context, requiredDataID uint, node Node) (*Observation, error)

	// ObservationSeries returns all observations for a field under a
	// binding within [from, to], in measurement-date order.
	ObservationSeries(ctx context.Context, requiredDataID uint, node Node, from, to time.Time) ([]Observation, error)

	// Rule returns the binding's computation rule, or nil if none is set.
	Rule(ctx context.Context, node Node) (*Rule, error)

	// Children returns the direct child sub-indicator nodes of a node,
	// bound in the same goal or project context.
	Children(ctx context.Context, node Node) ([]Node, error)

	// Target returns the binding's target value, or nil when unset.
	// "Target is 0" and "target is unset" are distinct states.
	Target(ctx context.Context, node Node) (*float64, error)
}
