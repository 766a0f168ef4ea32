package activity

import "github.com/matzehuels/availdep/pkg/expr"

// ResolveReferences repairs completion leaves that point at activities not
// present in acts.
//
// A leaf dangles when its target, after substituting the owning activity's
// predecessor for [PredecessorRef], is not the id of an activity in acts.
// Dangling leaves are redirected to [MissingID], and if any were found one
// placeholder activity named missingLabel is appended, no matter how many
// leaves were redirected. The second result reports whether that happened.
//
// The returned collection shares no expression nodes with acts: rewritten
// trees are fresh copies, so acts is left untouched.
func ResolveReferences(acts []Activity, missingLabel string) ([]Activity, bool) {
	if missingLabel == "" {
		missingLabel = DefaultMissingLabel
	}
	ids := IDs(acts)

	out := make([]Activity, len(acts), len(acts)+1)
	repaired := false
	for i, a := range acts {
		out[i] = a
		if a.Dependency == nil {
			continue
		}
		out[i].Dependency = expr.Rewrite(a.Dependency, func(leaf expr.Expr) expr.Expr {
			if !ids[a.Source(&leaf)] {
				leaf.Target = MissingID
				repaired = true
			}
			return leaf
		})
	}

	if repaired && !ids[MissingID] {
		out = append(out, Activity{
			ID:          MissingID,
			Name:        missingLabel,
			Predecessor: NoPredecessor,
		})
	}
	return out, repaired
}

// Dangling counts the completion leaves of acts whose target does not
// resolve to a present activity.
func Dangling(acts []Activity) int {
	ids := IDs(acts)
	n := 0
	for _, a := range acts {
		for _, leaf := range expr.Leaves(a.Dependency) {
			if !ids[a.Source(leaf)] {
				n++
			}
		}
	}
	return n
}
