package build

import (
	"fmt"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/expr"
	"github.com/matzehuels/availdep/pkg/graph"
)

// Full builds the dependency graph with explicit operator nodes.
//
// Starting from each activity, the expression is walked top down. An
// operator with at least one interpretable child becomes a node labeled with
// its symbol, connected to whatever it gates, and its children connect to
// it. A completion leaf with a positive state connects its source directly;
// a negated leaf (state 0) connects through a fresh NOT node. Unknown
// conditions, and operators made only of them, add nothing.
//
// As with [Simplified], references must be resolved beforehand.
func Full(acts []activity.Activity, opts Options) (*graph.Graph, error) {
	g := graph.New()
	if err := addActivities(g, acts); err != nil {
		return nil, err
	}

	b := &fullBuilder{g: g, ids: newIDGen(g.Nodes())}
	for _, a := range acts {
		if a.Dependency == nil {
			continue
		}
		if err := b.add(a, a.Dependency, a.NodeID()); err != nil {
			return nil, fmt.Errorf("activity %d: %w", a.ID, err)
		}
	}

	assignWeights(g, opts.maxWeight())
	return g, nil
}

type fullBuilder struct {
	g   *graph.Graph
	ids *idGen
}

// add materializes e so that it feeds into the node target.
func (b *fullBuilder) add(owner activity.Activity, e *expr.Expr, target string) error {
	switch e.Kind {
	case expr.KindOperator:
		if !e.HasInterpretableChild() {
			return nil
		}
		id, err := b.operator(e.Op, target)
		if err != nil {
			return err
		}
		for _, c := range e.Children {
			if err := b.add(owner, c, id); err != nil {
				return err
			}
		}
		return nil

	case expr.KindCompletion:
		if e.State.Negated() {
			id, err := b.operator(expr.OpNot, target)
			if err != nil {
				return err
			}
			target = id
		}
		src := owner.Source(e)
		if _, err := b.g.AddEdge(activity.NodeID(src), target); err != nil {
			return fmt.Errorf("leaf %d: %w", src, err)
		}
		return nil
	}
	return nil
}

// operator adds a new operator node labeled op with an edge into target,
// and returns its id.
func (b *fullBuilder) operator(op expr.Op, target string) (string, error) {
	id := b.ids.next()
	if err := b.g.AddNode(graph.Node{ID: id, Label: string(op), Kind: graph.NodeKindOperator}); err != nil {
		return "", err
	}
	if _, err := b.g.AddEdge(id, target); err != nil {
		return "", err
	}
	return id, nil
}
