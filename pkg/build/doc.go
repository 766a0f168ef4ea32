// Package build turns prepared activities into dependency graphs.
//
// Two builders share the same input, a collection of activities whose
// references have already been repaired by activity.ResolveReferences:
//
//   - [Simplified] emits one node per activity and one edge per completion
//     leaf. Operators and negation are flattened away, so AND and OR
//     conditions look the same and a leaf requiring "not completed" draws the
//     same edge as one requiring "completed".
//   - [Full] keeps the boolean structure. Every operator with at least one
//     interpretable child becomes an operator node, and every negated leaf is
//     routed through a synthetic NOT node.
//
// In both graphs an edge runs from the prerequisite to what it unlocks.
//
// # Operator IDs
//
// Operator nodes get ids "op1", "op2", ... from a counter owned by a single
// [Full] call. The ids are unique within one graph and carry no meaning
// across builds.
//
// # Layout Hints
//
// Each node's Meta["weight"] holds its in-degree, capped at
// [Options.MaxWeight]. Renderers may scale nodes by it. It never changes
// which nodes or edges exist.
//
// # Unknown Conditions
//
// Conditions other than activity completion produce nothing. An operator
// whose children are all such conditions is dropped together with its
// subtree, leaving no trace in the graph.
package build
