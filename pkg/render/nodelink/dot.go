package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/availdep/pkg/graph"
)

// MissingID is the node id of the placeholder for deleted activities.
const MissingID = "-2"

const (
	dimColor     = "gainsboro"
	dimFontColor = "darkgray"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Title is drawn above the diagram. Empty means no title.
	Title string

	// Highlight is the id of the selected node. When set, Ancestry must hold
	// that node's ancestry and everything outside it is dimmed.
	Highlight string
	Ancestry  *graph.Ancestry
}

func (o Options) dimmed(id string) bool {
	return o.Highlight != "" && o.Ancestry != nil && !o.Ancestry.Includes(id)
}

func (o Options) dimmedEdge(index int) bool {
	return o.Highlight != "" && o.Ancestry != nil && !o.Ancestry.IncludesEdge(index)
}

// ToDOT converts a graph to Graphviz DOT format for node-link visualization.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Nodes and edges are emitted in graph insertion order, so equal graphs
// produce byte-identical DOT.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=gray40, arrowsize=0.8];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n  fontsize=18;\n", opts.Title)
	}
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(*n, opts), ", "))
	}

	buf.WriteString("\n")
	for i, e := range g.Edges() {
		attrs := edgeAttrs(e, opts.dimmedEdge(i))
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.Label)}
	switch {
	case n.IsOperator():
		attrs = append(attrs, "shape=circle", "fixedsize=true", "width=0.45", "fontsize=12", "fillcolor=lightyellow")
	case n.ID == MissingID:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=mistyrose", "color=firebrick")
	}
	if w := n.Weight(); w > 1 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%.1f", 1+0.5*float64(w-1)))
	}
	if n.ID == opts.Highlight {
		attrs = append(attrs, "color=royalblue", "penwidth=3")
	}
	if opts.dimmed(n.ID) {
		attrs = append(attrs, "color="+dimColor, "fontcolor="+dimFontColor, "fillcolor=whitesmoke")
	}
	return attrs
}

func edgeAttrs(e graph.Edge, dimmed bool) []string {
	var attrs []string
	if e.Kind == graph.NodeKindOperator {
		attrs = append(attrs, "style=dashed")
	}
	if dimmed {
		attrs = append(attrs, "color="+dimColor)
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one whose
// viewBox starts at the origin, so the SVG scales when embedded in a page.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
