// Package expr models availability expressions: the boolean condition trees
// that decide when a course activity becomes available.
//
// # Shape
//
// An expression is a tree of three node kinds:
//
//   - [KindOperator]: a boolean connective ([OpAnd], [OpOr], [OpNotAnd],
//     [OpNotOr]) with ordered children
//   - [KindCompletion]: a leaf requiring another activity to be in a given
//     completion [State]
//   - [KindUnknown]: any condition this package does not interpret (dates,
//     grades, group membership, future condition types); the raw JSON is kept
//
// The unknown variant is explicit so that callers can observe and count what
// they skip, instead of conditions silently vanishing during parsing.
//
// # Wire format
//
// [Parse] reads the JSON stored by the course system:
//
//	{"op": "&", "c": [
//	    {"type": "completion", "cm": 12, "e": 1},
//	    {"op": "|", "c": [
//	        {"type": "completion", "cm": -1, "e": 2},
//	        {"type": "date", "d": ">=", "t": 1700000000}
//	    ]}
//	]}
//
// A completion target of -1 means "the owning activity's predecessor"; it is
// resolved by the activity package, not here.
//
// Nesting depth is bounded: input deeper than the configured maximum fails
// with a DEPTH_EXCEEDED error instead of recursing without limit.
//
// # Traversal
//
// [Walk] visits nodes depth-first with operator children in order. [Leaves]
// collects completion leaves in that order. [Rewrite] produces a transformed
// copy of a tree and never modifies its input, so subtrees shared between
// activities cannot be corrupted by a rewrite.
package expr
