package graph_test

import (
	"fmt"

	"github.com/matzehuels/availdep/pkg/graph"
)

func Example() {
	g := graph.New()
	_ = g.AddNode(graph.Node{ID: "1", Label: "Intro quiz"})
	_ = g.AddNode(graph.Node{ID: "2", Label: "Lesson"})
	_ = g.AddNode(graph.Node{ID: "3", Label: "Final exam"})
	_, _ = g.AddEdge("1", "2")
	_, _ = g.AddEdge("2", "3")

	idx := graph.NewAncestorIndex(g)
	a, _ := idx.Of("3")
	fmt.Println(a.Nodes)
	fmt.Println(a.Includes("1"))
	// Output:
	// [3 2 1]
	// true
}

func ExampleGraph_HasCycle() {
	g := graph.New()
	_ = g.AddNode(graph.Node{ID: "a"})
	_ = g.AddNode(graph.Node{ID: "b"})
	_, _ = g.AddEdge("a", "b")
	_, _ = g.AddEdge("b", "a")
	fmt.Println(g.HasCycle(), g.Validate() == nil)
	// Output: true true
}
