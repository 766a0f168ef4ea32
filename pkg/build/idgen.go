package build

import (
	"strconv"

	"github.com/matzehuels/availdep/pkg/graph"
)

// idGen hands out operator node ids that do not collide with any node
// already in the graph.
type idGen struct {
	n    int
	used map[string]struct{}
}

func newIDGen(nodes []*graph.Node) *idGen {
	m := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next() string {
	for {
		gen.n++
		id := "op" + strconv.Itoa(gen.n)
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
	}
}
