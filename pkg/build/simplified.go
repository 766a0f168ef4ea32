package build

import (
	"fmt"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/expr"
	"github.com/matzehuels/availdep/pkg/graph"
)

// Simplified builds the flattened dependency graph: one node per activity
// and, for every completion leaf in an activity's expression, one edge from
// the leaf's resolved source to the activity. Duplicate edges are kept.
//
// Every leaf source must be present in acts; run activity.ResolveReferences
// first. An unresolved source yields an error wrapping
// graph.ErrUnknownSourceNode.
func Simplified(acts []activity.Activity, opts Options) (*graph.Graph, error) {
	g := graph.New()
	if err := addActivities(g, acts); err != nil {
		return nil, err
	}

	for _, a := range acts {
		for _, leaf := range expr.Leaves(a.Dependency) {
			src := a.Source(leaf)
			if _, err := g.AddEdge(activity.NodeID(src), a.NodeID()); err != nil {
				return nil, fmt.Errorf("activity %d: leaf %d: %w", a.ID, src, err)
			}
		}
	}

	assignWeights(g, opts.maxWeight())
	return g, nil
}
