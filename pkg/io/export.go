package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/availdep/pkg/graph"
)

type simplifiedGraph struct {
	Nodes []simplifiedNode `json:"nodes"`
	Edges []simplifiedEdge `json:"edges"`
}

type simplifiedNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type simplifiedEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Name   string `json:"name"`
}

type fullGraph struct {
	Nodes []fullNode `json:"nodes"`
	Edges []fullEdge `json:"edges"`
}

type fullNode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Genus  string `json:"genus"`
	Weight int    `json:"weight"`
}

type fullEdge struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	ToGenus string `json:"toGenus"`
}

type ancestry struct {
	Nodes []string  `json:"nodes"`
	Edges []edgeRef `json:"edges"`
}

type edgeRef struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// WriteSimplified encodes g in the simplified format. Each edge is named
// after its target node.
func WriteSimplified(g *graph.Graph, w io.Writer) error {
	out := simplifiedGraph{
		Nodes: make([]simplifiedNode, 0, g.NodeCount()),
		Edges: make([]simplifiedEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, simplifiedNode{ID: n.ID, Name: n.Label})
	}
	for _, e := range g.Edges() {
		var name string
		if n, ok := g.Node(e.To); ok {
			name = n.Label
		}
		out.Edges = append(out.Edges, simplifiedEdge{Source: e.From, Target: e.To, Name: name})
	}
	return encode(w, out)
}

// WriteFull encodes g in the full format.
func WriteFull(g *graph.Graph, w io.Writer) error {
	out := fullGraph{
		Nodes: make([]fullNode, 0, g.NodeCount()),
		Edges: make([]fullEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, fullNode{
			ID:     n.ID,
			Name:   n.Label,
			Genus:  n.Kind.String(),
			Weight: n.Weight(),
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, fullEdge{Source: e.From, Target: e.To, ToGenus: e.Kind.String()})
	}
	return encode(w, out)
}

// WriteGraph encodes g in the full format when full is set and in the
// simplified format otherwise.
func WriteGraph(g *graph.Graph, full bool, w io.Writer) error {
	if full {
		return WriteFull(g, w)
	}
	return WriteSimplified(g, w)
}

// WriteAncestors encodes the ancestry of every node in idx as an object
// keyed by node id.
func WriteAncestors(idx *graph.AncestorIndex, w io.Writer) error {
	out := make(map[string]ancestry, idx.Len())
	for _, id := range idx.IDs() {
		a, _ := idx.Of(id)
		out[id] = toAncestry(a)
	}
	return encode(w, out)
}

// WriteAncestry encodes a single node's ancestry.
func WriteAncestry(a graph.Ancestry, w io.Writer) error {
	return encode(w, toAncestry(a))
}

func toAncestry(a graph.Ancestry) ancestry {
	out := ancestry{
		Nodes: append([]string{}, a.Nodes...),
		Edges: make([]edgeRef, len(a.Edges)),
	}
	for i, e := range a.Edges {
		out.Edges[i] = edgeRef{Index: e.Index, Source: e.From, Target: e.To}
	}
	return out
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
