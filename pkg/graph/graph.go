package graph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrEdgeKindMismatch is returned by [Graph.Validate] when an edge's Kind
	// differs from the kind of its target node.
	ErrEdgeKindMismatch = errors.New("edge kind does not match target node kind")
)

// Metadata stores layout hints attached to nodes. Hints are for the layout
// collaborator only and never influence topology.
type Metadata map[string]any

// MetaWeight is the metadata key of the bounded in-degree hint.
const MetaWeight = "weight"

// NodeKind distinguishes activity nodes from synthesized operator nodes.
type NodeKind int

const (
	// NodeKindActivity is a course activity (including the missing placeholder).
	NodeKindActivity NodeKind = iota
	// NodeKindOperator is a boolean connective materialized by the full builder.
	NodeKindOperator
)

// String returns the wire name of the kind: "activity" or "operator".
func (k NodeKind) String() string {
	if k == NodeKindOperator {
		return "operator"
	}
	return "activity"
}

// ParseNodeKind is the inverse of [NodeKind.String]. The second result is
// false for unrecognized names.
func ParseNodeKind(s string) (NodeKind, bool) {
	switch s {
	case "activity":
		return NodeKindActivity, true
	case "operator":
		return NodeKindOperator, true
	}
	return NodeKindActivity, false
}

// Node is a vertex of the dependency graph.
type Node struct {
	ID    string   // Unique identifier: activity id or generated operator id
	Label string   // Activity name or operator symbol
	Kind  NodeKind // Activity or operator
	Meta  Metadata // Layout hints (never nil after AddNode)
}

// IsOperator reports whether the node materializes a boolean connective.
func (n Node) IsOperator() bool { return n.Kind == NodeKindOperator }

// Weight returns the node's weight hint, or 0 when none is set.
func (n Node) Weight() int {
	w, _ := n.Meta[MetaWeight].(int)
	return w
}

// Edge is a directed connection from a prerequisite to what it unlocks.
// Kind records the kind of the target node so renderers can style edges
// into operators differently.
type Edge struct {
	From string
	To   string
	Kind NodeKind
}

// Graph is a directed graph of activities and operators.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    []*Node
	index    map[string]*Node
	edges    []Edge
	outgoing map[string][]int // nodeID -> indices into edges
	incoming map[string][]int // nodeID -> indices into edges
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:    make(map[string]*Node),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists. The node's Meta field is
// automatically initialized to an empty map if nil.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.index[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes = append(g.nodes, node)
	g.index[node.ID] = node
	return nil
}

// AddEdge adds a directed edge between two existing nodes and returns its
// index. Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist. Kind is taken from the
// target node. Multiple edges between the same nodes are allowed.
func (g *Graph) AddEdge(from, to string) (int, error) {
	if _, ok := g.index[from]; !ok {
		return -1, ErrUnknownSourceNode
	}
	target, ok := g.index[to]
	if !ok {
		return -1, ErrUnknownTargetNode
	}
	i := len(g.edges)
	g.edges = append(g.edges, Edge{From: from, To: to, Kind: target.Kind})
	g.outgoing[from] = append(g.outgoing[from], i)
	g.incoming[to] = append(g.incoming[to], i)
	return i, nil
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// CountKind returns the number of nodes of the given kind.
func (g *Graph) CountKind(k NodeKind) int {
	n := 0
	for _, node := range g.nodes {
		if node.Kind == k {
			n++
		}
	}
	return n
}

// Parents returns the IDs of nodes that have edges to this node (its
// prerequisites), one entry per edge.
func (g *Graph) Parents(id string) []string {
	var out []string
	for _, i := range g.incoming[id] {
		out = append(out, g.edges[i].From)
	}
	return out
}

// InDegree returns the number of incoming edges to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// OutDegree returns the number of outgoing edges from the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// Validate checks graph integrity and returns nil if valid: every edge
// connects existing nodes and carries its target's kind. Cycles are
// permitted; use HasCycle to detect them.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		_, okS := g.index[e.From]
		dst, okD := g.index[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if dst.Kind != e.Kind {
			return ErrEdgeKindMismatch
		}
	}
	return nil
}

// HasCycle reports whether the graph contains a directed cycle, using
// depth-first search with white/gray/black coloring in O(N+E).
func (g *Graph) HasCycle() bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, i := range g.outgoing[id] {
			child := g.edges[i].To
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, n := range g.nodes {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return true
			}
		}
	}
	return false
}
