package engine

import (
	"context"
	"fmt"

	"sdgtrack/internal/formula"
)

// Resolver computes the current value of a single node from its rule, its
// latest observations, and (when the rule asks for them) its children's
// already-computed values.
type Resolver struct {
	provider DataProvider
}

// NewResolver creates a resolver over the given data provider.
func NewResolver(provider DataProvider) *Resolver {
	return &Resolver{provider: provider}
}

// ResolveNode computes the value for one node. childValues maps each
// resolved child's normalized name to its computed value; the aggregator
// supplies it, and it is only consulted when the rule's
// IncludeSubIndicators flag is set. Passing nil is valid for leaf nodes.
//
// Declared fields with zero observations are simply absent from the binding
// map. A formula referencing such a field fails with UndefinedVariable; the
// engine never defaults a missing observation to zero, which would silently
// report false progress.
func (r *Resolver) ResolveNode(ctx context.Context, node Node, childValues map[string]float64) (float64, error) {
	rule, err := r.provider.Rule(ctx, node)
	if err != nil {
		return 0, fmt.Errorf("fetch rule for binding %d: %w", node.BindingID, err)
	}
	if rule == nil {
		return 0, ErrNoRuleDefined
	}

	fields, err := r.provider.DeclaredRequiredData(ctx, node)
	if err != nil {
		return 0, fmt.Errorf("fetch required data for binding %d: %w", node.BindingID, err)
	}

	vars := make(map[string]float64, len(fields)+len(childValues))
	for _, field := range fields {
		obs, err := r.provider.LatestObservation(ctx, field.ID, node)
		if err != nil {
			return 0, fmt.Errorf("fetch latest observation for field %d: %w", field.ID, err)
		}
		if obs == nil {
			continue
		}
		vars[formula.Normalize(field.Name)] = obs.Value
	}

	if rule.IncludeSubIndicators {
		for name, value := range childValues {
			vars[name] = value
		}
	}

	return formula.Evaluate(rule.Formula, vars)
}
