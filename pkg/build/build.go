package build

import (
	"fmt"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/graph"
)

// DefaultMaxWeight caps the weight layout hint.
const DefaultMaxWeight = 5

// Options configures graph construction.
type Options struct {
	// MaxWeight caps Meta["weight"]. Zero means DefaultMaxWeight.
	MaxWeight int
}

func (o Options) maxWeight() int {
	if o.MaxWeight <= 0 {
		return DefaultMaxWeight
	}
	return o.MaxWeight
}

// addActivities pre-creates one activity node per activity, in input order.
func addActivities(g *graph.Graph, acts []activity.Activity) error {
	for _, a := range acts {
		n := graph.Node{ID: a.NodeID(), Label: a.Name, Kind: graph.NodeKindActivity}
		if err := g.AddNode(n); err != nil {
			return fmt.Errorf("activity %d: %w", a.ID, err)
		}
	}
	return nil
}

// assignWeights stores the capped in-degree of every node.
func assignWeights(g *graph.Graph, limit int) {
	for _, n := range g.Nodes() {
		n.Meta[graph.MetaWeight] = min(g.InDegree(n.ID), limit)
	}
}
