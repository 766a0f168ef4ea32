package graph

// EdgeRef identifies an edge in an [Ancestry] by its position in
// [Graph.Edges] together with its endpoints.
type EdgeRef struct {
	Index int
	From  string
	To    string
}

// Ancestry is everything upstream of one node: the node itself, every node
// with a directed path into it, and every edge traversed on the way.
type Ancestry struct {
	Nodes []string  // BFS discovery order, starting with the node itself
	Edges []EdgeRef // BFS traversal order

	nodeSet map[string]bool
	edgeSet map[int]bool
}

// Includes reports whether the node is part of the ancestry.
func (a Ancestry) Includes(id string) bool { return a.nodeSet[id] }

// IncludesEdge reports whether the edge with the given index was traversed.
func (a Ancestry) IncludesEdge(index int) bool { return a.edgeSet[index] }

// Ancestors walks the reversed edges breadth-first from id. The visited set
// is seeded with id, so cycles through id terminate and id appears exactly
// once. Each edge is recorded the first time it is seen.
// Returns false if id is not a node of g.
func Ancestors(g *Graph, id string) (Ancestry, bool) {
	if _, ok := g.index[id]; !ok {
		return Ancestry{}, false
	}

	a := Ancestry{
		Nodes:   []string{id},
		nodeSet: map[string]bool{id: true},
		edgeSet: map[int]bool{},
	}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, i := range g.incoming[cur] {
			e := g.edges[i]
			if !a.edgeSet[i] {
				a.edgeSet[i] = true
				a.Edges = append(a.Edges, EdgeRef{Index: i, From: e.From, To: e.To})
			}
			if !a.nodeSet[e.From] {
				a.nodeSet[e.From] = true
				a.Nodes = append(a.Nodes, e.From)
				queue = append(queue, e.From)
			}
		}
	}
	return a, true
}

// AncestorIndex holds the ancestry of every node of a realized graph.
// It is computed once, after the graph is complete, and is read-only
// afterwards.
type AncestorIndex struct {
	order []string
	byID  map[string]Ancestry
}

// NewAncestorIndex computes the ancestry of every node in g.
func NewAncestorIndex(g *Graph) *AncestorIndex {
	idx := &AncestorIndex{
		order: make([]string, 0, len(g.nodes)),
		byID:  make(map[string]Ancestry, len(g.nodes)),
	}
	for _, n := range g.nodes {
		a, _ := Ancestors(g, n.ID)
		idx.order = append(idx.order, n.ID)
		idx.byID[n.ID] = a
	}
	return idx
}

// Of returns the ancestry of the node, or false if it is not in the graph.
func (idx *AncestorIndex) Of(id string) (Ancestry, bool) {
	a, ok := idx.byID[id]
	return a, ok
}

// IDs returns the indexed node ids in graph insertion order.
func (idx *AncestorIndex) IDs() []string { return idx.order }

// Len returns the number of indexed nodes.
func (idx *AncestorIndex) Len() int { return len(idx.order) }
