package expr

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/availdep/pkg/errors"
)

// DefaultMaxDepth bounds expression nesting when the caller passes no limit.
// The course authoring UI produces a handful of levels at most.
const DefaultMaxDepth = 32

// typeCompletion is the condition type of completion leaves.
const typeCompletion = "completion"

// Parse decodes a stored availability expression.
//
// Empty input and the JSON literal null mean "always available" and return
// a nil expression. Syntactically invalid JSON fails with an
// INVALID_EXPRESSION error. Well-formed JSON that is neither an operator
// nor a completion leaf becomes a [KindUnknown] node. Nesting deeper than
// maxDepth (or [DefaultMaxDepth] when maxDepth <= 0) fails with
// DEPTH_EXCEEDED.
func Parse(data []byte, maxDepth int) (*Expr, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, errors.New(errors.ErrCodeInvalidExpression, "malformed JSON: %.60q", data)
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return parseNode(json.RawMessage(data), 1, maxDepth)
}

// ParseString is a convenience wrapper around [Parse].
func ParseString(s string, maxDepth int) (*Expr, error) {
	return Parse([]byte(s), maxDepth)
}

func parseNode(raw json.RawMessage, depth, maxDepth int) (*Expr, error) {
	if depth > maxDepth {
		return nil, errors.New(errors.ErrCodeDepthExceeded, "expression nested deeper than %d levels", maxDepth)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Unknown(raw), nil
	}

	if opRaw, ok := fields["op"]; ok {
		return parseOperator(raw, opRaw, fields["c"], depth, maxDepth)
	}
	return parseLeaf(raw, fields), nil
}

func parseOperator(raw, opRaw, childrenRaw json.RawMessage, depth, maxDepth int) (*Expr, error) {
	var op Op
	if err := json.Unmarshal(opRaw, &op); err != nil || !op.Valid() {
		return Unknown(raw), nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(childrenRaw, &items); err != nil {
		return Unknown(raw), nil
	}

	children := make([]*Expr, 0, len(items))
	for _, item := range items {
		child, err := parseNode(item, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return Operator(op, children...), nil
}

func parseLeaf(raw json.RawMessage, fields map[string]json.RawMessage) *Expr {
	var typ string
	if err := json.Unmarshal(fields["type"], &typ); err != nil || typ != typeCompletion {
		return Unknown(raw)
	}
	var target int
	if err := json.Unmarshal(fields["cm"], &target); err != nil {
		return Unknown(raw)
	}
	var state int
	if err := json.Unmarshal(fields["e"], &state); err != nil || !State(state).Valid() {
		return Unknown(raw)
	}
	return Completion(target, State(state))
}

type wireOperator struct {
	Op       Op      `json:"op"`
	Children []*Expr `json:"c"`
}

type wireCompletion struct {
	Type   string `json:"type"`
	Target int    `json:"cm"`
	State  State  `json:"e"`
}

// MarshalJSON encodes e in the course system's storage format. Unknown
// conditions keep their original content.
//
// Encoders with HTML escaping enabled, json.Marshal included, rewrite the
// "&" connective as \u0026; [Marshal] does not.
func (e *Expr) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindOperator:
		children := e.Children
		if children == nil {
			children = []*Expr{}
		}
		return encode(wireOperator{Op: e.Op, Children: children})
	case KindCompletion:
		return encode(wireCompletion{Type: typeCompletion, Target: e.Target, State: e.State})
	default:
		if len(e.Raw) == 0 {
			return []byte("{}"), nil
		}
		return e.Raw, nil
	}
}

// Marshal encodes e as the course system stores it, with connectives
// written literally. A nil expression encodes as null.
func Marshal(e *Expr) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	return encode(e)
}

// encode is json.Marshal without HTML escaping.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
