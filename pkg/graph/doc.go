// Package graph provides the dependency graph handed to layout and rendering:
// activity and operator nodes joined by directed edges, plus the ancestor
// analysis used for "what leads here" highlighting.
//
// # Overview
//
// A [Graph] is built once per request by the builders in the build package
// and is not modified after [NewAncestorIndex] has run over it. Nodes keep
// their insertion order and edges keep theirs, so identical input always
// yields identical output.
//
// # Integrity
//
// [Graph.AddEdge] refuses edges whose endpoints are not already nodes of the
// graph, so an edge can never dangle. [Graph.Validate] re-checks the whole
// structure. Unlike a DAG, the graph accepts cycles: course data can contain
// authored inconsistencies that should be displayed, not rejected.
// [Graph.HasCycle] reports them.
//
// # Ancestors
//
//	idx := graph.NewAncestorIndex(g)
//	a, ok := idx.Of("12")
//	if ok && a.Includes("7") {
//	    // activity 7 leads to activity 12
//	}
//
// Ancestors are found by breadth-first search over reversed edges with a
// visited set, which terminates on cyclic graphs.
//
// # Concurrency
//
// Graph instances are not safe for concurrent modification. A realized graph
// and its AncestorIndex can be read from many goroutines.
package graph
