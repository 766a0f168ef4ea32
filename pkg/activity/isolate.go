package activity

import "github.com/matzehuels/availdep/pkg/expr"

// RemoveIsolated keeps only the activities that take part in at least one
// dependency: those with a completion leaf anywhere in their expression, and
// every activity such a leaf refers to. Order is preserved.
//
// An activity that nothing depends on and that depends on nothing would be a
// lone node in the simplified view, so it is dropped. Activities that are
// only ever a source are kept. Applying the filter twice yields the same
// collection as applying it once.
func RemoveIsolated(acts []Activity) []Activity {
	connected := Connected(acts)
	out := make([]Activity, 0, len(connected))
	for _, a := range acts {
		if connected[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

// Connected returns the ids of activities that are the target or the source
// of a completion dependency.
func Connected(acts []Activity) map[int]bool {
	connected := make(map[int]bool)
	for _, a := range acts {
		leaves := expr.Leaves(a.Dependency)
		if len(leaves) == 0 {
			continue
		}
		connected[a.ID] = true
		for _, leaf := range leaves {
			connected[a.Source(leaf)] = true
		}
	}
	return connected
}
