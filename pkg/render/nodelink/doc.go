// Package nodelink renders dependency graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz.
// Activities appear as rounded boxes, operators as small circles labeled
// with their symbol, and arrows run from a prerequisite to what it unlocks.
// Edges that feed an operator are dashed.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Title: "Course 42"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Highlighting
//
// Setting [Options.Highlight] together with the node's ancestry draws the
// selected node and everything upstream of it normally and greys out the
// rest of the diagram:
//
//	a, _ := idx.Of("12")
//	dot := nodelink.ToDOT(g, nodelink.Options{Highlight: "12", Ancestry: &a})
//
// # Layout Hints
//
// The weight hint stored on each node widens its outline, so activities
// that many conditions point at stand out.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
