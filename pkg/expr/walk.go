package expr

// Walk visits e depth-first: the node itself, then each operator child in
// order. If fn returns false the children of that node are skipped.
// A nil expression is not visited.
func Walk(e *Expr, fn func(*Expr) bool) {
	if e == nil {
		return
	}
	if !fn(e) || e.Kind != KindOperator {
		return
	}
	for _, c := range e.Children {
		Walk(c, fn)
	}
}

// Leaves returns every completion leaf of e in traversal order, descending
// through operators regardless of their connective.
func Leaves(e *Expr) []*Expr {
	var leaves []*Expr
	Walk(e, func(n *Expr) bool {
		if n.Kind == KindCompletion {
			leaves = append(leaves, n)
		}
		return true
	})
	return leaves
}

// Rewrite returns a copy of e in which every completion leaf has been
// replaced by the result of fn. Operators and unknown conditions are copied
// unchanged. The input tree is never modified.
func Rewrite(e *Expr, fn func(leaf Expr) Expr) *Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindCompletion:
		out := fn(*e)
		return &out
	case KindOperator:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			children[i] = Rewrite(c, fn)
		}
		return Operator(e.Op, children...)
	default:
		return e.Clone()
	}
}
