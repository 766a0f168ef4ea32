package expr

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the variants of an expression node.
type Kind int

const (
	// KindUnknown is a condition this package does not interpret.
	KindUnknown Kind = iota
	// KindCompletion is a leaf referencing another activity's completion state.
	KindCompletion
	// KindOperator is a boolean connective over child expressions.
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindCompletion:
		return "completion"
	case KindOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// Op is a boolean connective, spelled the way the course system stores it.
type Op string

const (
	OpAnd    Op = "&"
	OpOr     Op = "|"
	OpNotAnd Op = "!&"
	OpNotOr  Op = "!|"

	// OpNot never appears in stored expressions. It labels the negation
	// node the full graph builder inserts for negated completion leaves.
	OpNot Op = "!"
)

// Valid reports whether op is one of the four stored connectives.
func (op Op) Valid() bool {
	switch op {
	case OpAnd, OpOr, OpNotAnd, OpNotOr:
		return true
	}
	return false
}

// Name returns the spelled-out connective, e.g. "NOT-AND".
func (op Op) Name() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNotAnd:
		return "NOT-AND"
	case OpNotOr:
		return "NOT-OR"
	case OpNot:
		return "NOT"
	}
	return string(op)
}

// State is the completion state a leaf expects from its target activity.
type State int

const (
	StateIncomplete State = 0 // must NOT be completed
	StateComplete   State = 1 // must be completed
	StatePass       State = 2 // must be completed and passed
	StateFail       State = 3 // must be completed and failed
)

// Valid reports whether s is one of the four known states.
func (s State) Valid() bool { return s >= StateIncomplete && s <= StateFail }

// Negated reports whether the leaf requires the target NOT to be completed.
func (s State) Negated() bool { return s == StateIncomplete }

// Expr is one node of an availability expression tree.
//
// Which fields are meaningful depends on Kind: Op and Children for operators,
// Target and State for completion leaves, Raw for unknown conditions.
type Expr struct {
	Kind     Kind
	Op       Op
	Children []*Expr
	Target   int
	State    State
	Raw      json.RawMessage
}

// Operator returns an operator node over children.
func Operator(op Op, children ...*Expr) *Expr {
	return &Expr{Kind: KindOperator, Op: op, Children: children}
}

// And returns an AND operator over children.
func And(children ...*Expr) *Expr { return Operator(OpAnd, children...) }

// Or returns an OR operator over children.
func Or(children ...*Expr) *Expr { return Operator(OpOr, children...) }

// Completion returns a completion leaf on target expecting state.
func Completion(target int, state State) *Expr {
	return &Expr{Kind: KindCompletion, Target: target, State: state}
}

// Unknown returns an uninterpreted condition holding raw.
func Unknown(raw json.RawMessage) *Expr {
	return &Expr{Kind: KindUnknown, Raw: raw}
}

// IsOperator reports whether e is an operator node.
func (e *Expr) IsOperator() bool { return e != nil && e.Kind == KindOperator }

// IsCompletion reports whether e is a completion leaf.
func (e *Expr) IsCompletion() bool { return e != nil && e.Kind == KindCompletion }

// Interpretable reports whether e contributes to a dependency graph, i.e. it
// is a completion leaf or an operator.
func (e *Expr) Interpretable() bool { return e.IsCompletion() || e.IsOperator() }

// HasInterpretableChild reports whether an operator has at least one child
// that is a completion leaf or a nested operator.
func (e *Expr) HasInterpretableChild() bool {
	if !e.IsOperator() {
		return false
	}
	for _, c := range e.Children {
		if c.Interpretable() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of e.
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	out := *e
	if e.Raw != nil {
		out.Raw = append(json.RawMessage(nil), e.Raw...)
	}
	if e.Children != nil {
		out.Children = make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindCompletion:
		return fmt.Sprintf("completion(cm=%d,e=%d)", e.Target, e.State)
	case KindOperator:
		return fmt.Sprintf("%s%v", e.Op.Name(), e.Children)
	default:
		return "unknown"
	}
}
