package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/graph"
)

type anyGraph struct {
	Nodes []anyNode `json:"nodes"`
	Edges []anyEdge `json:"edges"`
}

type anyNode struct {
	ID     nodeID `json:"id"`
	Name   string `json:"name"`
	Genus  string `json:"genus,omitempty"`
	Weight *int   `json:"weight,omitempty"`
}

type anyEdge struct {
	Source nodeID `json:"source"`
	Target nodeID `json:"target"`
}

// nodeID accepts node ids written as JSON strings or numbers.
type nodeID string

func (id *nodeID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = nodeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("node id must be a string or number: %s", data)
	}
	*id = nodeID(n.String())
	return nil
}

// ReadGraph decodes a graph in either wire format from r.
//
// Node ids may be JSON strings or numbers. The genus, if present, must be
// "activity" or "operator". Edge kinds are derived from the target node, so
// a toGenus field in the input is not trusted. Every edge must reference
// nodes declared in the same document.
//
// Errors carry the INVALID_INPUT code and wrap the graph sentinel errors,
// so errors.Is(err, graph.ErrUnknownSourceNode) works.
func ReadGraph(r io.Reader) (*graph.Graph, error) {
	var data anyGraph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph")
	}

	g := graph.New()
	for _, n := range data.Nodes {
		kind := graph.NodeKindActivity
		if n.Genus != "" {
			k, ok := graph.ParseNodeKind(n.Genus)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput, "node %s: unknown genus %q", n.ID, n.Genus)
			}
			kind = k
		}
		nd := graph.Node{ID: string(n.ID), Label: n.Name, Kind: kind}
		if n.Weight != nil {
			nd.Meta = graph.Metadata{graph.MetaWeight: *n.Weight}
		}
		if err := g.AddNode(nd); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s", n.ID)
		}
	}
	for _, e := range data.Edges {
		if _, err := g.AddEdge(string(e.Source), string(e.Target)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s->%s", e.Source, e.Target)
		}
	}
	return g, nil
}

// ImportGraph reads a graph file at path.
func ImportGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}
