package build

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/expr"
	"github.com/matzehuels/availdep/pkg/graph"
)

func leaf(cm, e int) *expr.Expr { return expr.Completion(cm, expr.State(e)) }

func act(id int, dep *expr.Expr, pred int) activity.Activity {
	return activity.Activity{ID: id, Name: "act" + activity.NodeID(id), Dependency: dep, Predecessor: pred}
}

func edgeList(g *graph.Graph) []string {
	var out []string
	for _, e := range g.Edges() {
		out = append(out, e.From+"->"+e.To)
	}
	return out
}

func TestSimplifiedFlattening(t *testing.T) {
	acts := []activity.Activity{
		act(2, nil, 0),
		act(3, nil, 2),
		act(4, nil, 3),
		act(5, expr.And(leaf(2, 1), expr.Or(leaf(3, 1), leaf(4, 1))), 4),
	}
	g, err := Simplified(acts, Options{})
	if err != nil {
		t.Fatalf("Simplified() error: %v", err)
	}
	if got, want := edgeList(g), []string{"2->5", "3->5", "4->5"}; !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
	if g.NodeCount() != 4 || g.CountKind(graph.NodeKindOperator) != 0 {
		t.Errorf("nodes = %d (operators %d), want 4 activities", g.NodeCount(), g.CountKind(graph.NodeKindOperator))
	}
}

func TestSimplifiedSelfReference(t *testing.T) {
	acts := []activity.Activity{
		act(7, nil, 0),
		act(9, expr.And(leaf(activity.PredecessorRef, 1)), 7),
	}
	g, err := Simplified(acts, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := edgeList(g); !slices.Equal(got, []string{"7->9"}) {
		t.Errorf("edges = %v, want [7->9]", got)
	}
}

func TestSimplifiedIgnoresNegationAndKeepsDuplicates(t *testing.T) {
	acts := []activity.Activity{
		act(1, nil, 0),
		act(2, expr.Or(leaf(1, 0), leaf(1, 1)), 1),
	}
	g, err := Simplified(acts, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := edgeList(g); !slices.Equal(got, []string{"1->2", "1->2"}) {
		t.Errorf("edges = %v, want two 1->2 edges", got)
	}
}

func TestSimplifiedUnresolved(t *testing.T) {
	acts := []activity.Activity{act(2, expr.And(leaf(99, 1)), 0)}
	if _, err := Simplified(acts, Options{}); !errors.Is(err, graph.ErrUnknownSourceNode) {
		t.Errorf("error = %v, want ErrUnknownSourceNode", err)
	}
}

func TestFullOperatorMaterialization(t *testing.T) {
	acts := []activity.Activity{
		act(2, nil, 0),
		act(3, nil, 2),
		act(5, expr.And(leaf(2, 1), leaf(3, 0)), 3),
	}
	g, err := Full(acts, Options{})
	if err != nil {
		t.Fatalf("Full() error: %v", err)
	}

	want := []string{"op1->5", "2->op1", "op2->op1", "3->op2"}
	if got := edgeList(g); !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}

	and, ok := g.Node("op1")
	if !ok || and.Label != "&" || !and.IsOperator() {
		t.Errorf("op1 = %+v, want AND operator", and)
	}
	not, ok := g.Node("op2")
	if !ok || not.Label != "!" || !not.IsOperator() {
		t.Errorf("op2 = %+v, want NOT operator", not)
	}

	kinds := map[string]graph.NodeKind{}
	for _, e := range g.Edges() {
		kinds[e.From+"->"+e.To] = e.Kind
	}
	if kinds["op1->5"] != graph.NodeKindActivity || kinds["2->op1"] != graph.NodeKindOperator {
		t.Errorf("edge kinds = %v", kinds)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFullSkipsUnknown(t *testing.T) {
	grade := expr.Unknown(json.RawMessage(`{"type":"grade","id":4}`))
	acts := []activity.Activity{
		act(1, nil, 0),
		act(2, expr.And(leaf(1, 1), expr.Or(grade, grade), grade), 1),
		act(3, expr.Or(grade), 2),
	}
	g, err := Full(acts, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.CountKind(graph.NodeKindOperator); got != 1 {
		t.Errorf("operators = %d, want 1", got)
	}
	if got := edgeList(g); !slices.Equal(got, []string{"op1->2", "1->op1"}) {
		t.Errorf("edges = %v", got)
	}
}

func TestFullNestedAndSelfReference(t *testing.T) {
	acts := []activity.Activity{
		act(7, nil, 0),
		act(8, nil, 7),
		act(9, expr.Operator(expr.OpNotOr, leaf(activity.PredecessorRef, 2), expr.And(leaf(7, 3))), 8),
	}
	g, err := Full(acts, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"op1->9", "8->op1", "op2->op1", "7->op2"}
	if got := edgeList(g); !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
	if n, _ := g.Node("op1"); n.Label != "!|" {
		t.Errorf("op1 label = %q, want !|", n.Label)
	}
}

func TestFullIDsPerCall(t *testing.T) {
	acts := []activity.Activity{
		act(1, nil, 0),
		act(2, expr.And(leaf(1, 1)), 1),
	}
	for i := 0; i < 2; i++ {
		g, err := Full(acts, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := g.Node("op1"); !ok {
			t.Errorf("build %d: op1 missing, counter leaked across calls", i)
		}
	}
}

func TestWeights(t *testing.T) {
	var leaves []*expr.Expr
	for i := 0; i < 8; i++ {
		leaves = append(leaves, leaf(1, 1))
	}
	acts := []activity.Activity{
		act(1, nil, 0),
		act(2, expr.And(leaves...), 1),
	}

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"default cap", Options{}, DefaultMaxWeight},
		{"custom cap", Options{MaxWeight: 3}, 3},
		{"above degree", Options{MaxWeight: 20}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Simplified(acts, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			n, _ := g.Node("2")
			if got := n.Weight(); got != tt.want {
				t.Errorf("weight = %d, want %d", got, tt.want)
			}
			if g.EdgeCount() != 8 {
				t.Errorf("weights must not change topology: %d edges", g.EdgeCount())
			}
		})
	}
}
