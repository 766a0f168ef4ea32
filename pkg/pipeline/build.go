package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/build"
	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/graph"
)

// Build runs the parse, resolve, filter, build and analyze stages.
//
// Malformed records abort the run with a coded error and no partial graph.
// Dangling references are not errors: they are redirected to a single
// placeholder activity and Result.Repaired is set.
func Build(records []activity.Record, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()

	acts, err := activity.FromRecords(records, opts.MaxDepth)
	if err != nil {
		return nil, err
	}

	redirected := activity.Dangling(acts)
	acts, repaired := activity.ResolveReferences(acts, opts.MissingLabel)
	if opts.Mode == ModeSimplified {
		acts = activity.RemoveIsolated(acts)
	}

	bopts := build.Options{MaxWeight: opts.MaxWeight}
	var g *graph.Graph
	if opts.Mode == ModeFull {
		g, err = build.Full(acts, bopts)
	} else {
		g, err = build.Simplified(acts, bopts)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build %s graph", opts.Mode)
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "validate %s graph", opts.Mode)
	}

	res := newResult(opts.Mode, g)
	res.Activities = acts
	res.Repaired = repaired
	res.Stats.Activities = len(acts)
	res.Stats.Redirected = redirected
	res.Stats.BuildTime = time.Since(start)

	opts.Logger.Debug("built graph",
		"mode", opts.Mode,
		"activities", len(acts),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"redirected", redirected)
	return res, nil
}

// FromGraph wraps an already built graph, for example one read back from a
// cache or a file, and runs the analyze stage over it.
func FromGraph(mode Mode, g *graph.Graph) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "graph")
	}
	res := newResult(mode, g)
	missing := activity.NodeID(activity.MissingID)
	_, res.Repaired = g.Node(missing)
	res.Stats.Redirected = g.OutDegree(missing)
	res.Stats.Activities = g.CountKind(graph.NodeKindActivity)
	return res, nil
}

func newResult(mode Mode, g *graph.Graph) *Result {
	return &Result{
		Mode:      mode,
		Graph:     g,
		Ancestors: graph.NewAncestorIndex(g),
		Artifacts: make(map[string][]byte),
		Stats: Stats{
			Nodes:     g.NodeCount(),
			Operators: g.CountKind(graph.NodeKindOperator),
			Edges:     g.EdgeCount(),
			Cyclic:    g.HasCycle(),
		},
	}
}

// Summary describes the result in one line, for logs and terminal output.
func (r *Result) Summary() string {
	s := fmt.Sprintf("%s graph: %d nodes, %d edges", r.Mode, r.Stats.Nodes, r.Stats.Edges)
	if r.Stats.Operators > 0 {
		s += fmt.Sprintf(", %d operators", r.Stats.Operators)
	}
	if r.Repaired {
		s += fmt.Sprintf(", %d references to missing activities", r.Stats.Redirected)
	}
	if r.Stats.Cyclic {
		s += ", contains a cycle"
	}
	return s
}
