package engine

import (
	"context"
	"sync"

	"sdgtrack/internal/formula"
)

// Aggregator resolves an entire indicator subtree bottom-up. Sibling
// subtrees have no data dependency on each other and are resolved
// concurrently; every external fetch, the child enumeration included,
// passes through a shared semaphore so a wide or deep hierarchy cannot
// overwhelm the data store.
type Aggregator struct {
	resolver *Resolver
	provider DataProvider
	sem      chan struct{}
}

// NewAggregator creates an aggregator. maxConcurrency bounds the number of
// node resolutions in flight at once; values below 1 are treated as 1.
func NewAggregator(provider DataProvider, maxConcurrency int) *Aggregator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Aggregator{
		resolver: NewResolver(provider),
		provider: provider,
		sem:      make(chan struct{}, maxConcurrency),
	}
}

// ResolveHierarchy resolves the subtree rooted at root in post-order and
// returns a result tree mirroring the hierarchy. Node failures are recorded
// per node and never abort siblings; only cancellation or a failure to even
// enumerate the hierarchy aborts the whole call.
func (a *Aggregator) ResolveHierarchy(ctx context.Context, root Node) (*NodeResult, error) {
	ancestors := map[pathKey]struct{}{}
	result := a.resolveSubtree(ctx, root, ancestors)
	if err := ctx.Err(); err != nil {
		// Partial results from a cancelled resolution are discarded.
		return nil, err
	}
	return result, nil
}

// pathKey identifies a node on the root-to-leaf path. The root indicator
// and sub-indicators come from different id sequences, so the key carries
// the node kind alongside the identity id; an indicator and a sub-indicator
// that happen to share a numeric id are distinct path entries.
type pathKey struct {
	kind NodeKind
	id   uint
}

// resolveSubtree resolves one node and everything under it. ancestors holds
// the identity keys on the path from the root to this node's parent; a
// child whose key is already on the path is a cycle and fails that subtree
// immediately instead of recursing forever.
func (a *Aggregator) resolveSubtree(ctx context.Context, node Node, ancestors map[pathKey]struct{}) *NodeResult {
	result := &NodeResult{Node: node}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	key := pathKey{kind: node.Kind, id: node.IndicatorID}
	if _, seen := ancestors[key]; seen {
		result.Err = &CycleDetectedError{NodeID: node.IndicatorID}
		return result
	}

	a.sem <- struct{}{}
	children, err := a.provider.Children(ctx, node)
	<-a.sem
	if err != nil {
		result.Err = err
		return result
	}

	path := make(map[pathKey]struct{}, len(ancestors)+1)
	for k := range ancestors {
		path[k] = struct{}{}
	}
	path[key] = struct{}{}

	result.Children = make([]*NodeResult, len(children))
	switch {
	case len(children) == 1:
		// A single-child chain recurses inline; hierarchies are unbounded
		// in depth and a goroutine per level would buy nothing.
		result.Children[0] = a.resolveSubtree(ctx, children[0], path)
	case len(children) > 1:
		var wg sync.WaitGroup
		for i, child := range children {
			wg.Add(1)
			go func(i int, child Node) {
				defer wg.Done()
				result.Children[i] = a.resolveSubtree(ctx, child, path)
			}(i, child)
		}
		wg.Wait()
	}

	// Children are fully settled (success or failure) before the parent's
	// own resolution begins. Only successful children become variables; a
	// formula referencing a failed child fails as UndefinedVariable, which
	// is how failure stays contagious through data dependency alone.
	childValues := make(map[string]float64, len(result.Children))
	for _, c := range result.Children {
		if c.Err == nil {
			childValues[formula.Normalize(c.Node.Name)] = c.Value
		}
	}

	a.sem <- struct{}{}
	value, err := a.resolver.ResolveNode(ctx, node, childValues)
	<-a.sem

	if err != nil {
		result.Err = err
	} else {
		result.Value = value
	}
	return result
}
