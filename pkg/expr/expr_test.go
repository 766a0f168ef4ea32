package expr

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/availdep/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, e *Expr)
	}{
		{
			name:  "Empty",
			input: "",
			check: func(t *testing.T, e *Expr) {
				if e != nil {
					t.Errorf("got %v, want nil", e)
				}
			},
		},
		{
			name:  "Null",
			input: " null ",
			check: func(t *testing.T, e *Expr) {
				if e != nil {
					t.Errorf("got %v, want nil", e)
				}
			},
		},
		{
			name:  "NestedOperators",
			input: `{"op":"&","c":[{"type":"completion","cm":2,"e":1},{"op":"|","c":[{"type":"completion","cm":3,"e":1},{"type":"completion","cm":-1,"e":0}]}],"showc":[true,true]}`,
			check: func(t *testing.T, e *Expr) {
				if !e.IsOperator() || e.Op != OpAnd || len(e.Children) != 2 {
					t.Fatalf("root = %v, want AND with 2 children", e)
				}
				if c := e.Children[0]; !c.IsCompletion() || c.Target != 2 || c.State != StateComplete {
					t.Errorf("child 0 = %v", c)
				}
				inner := e.Children[1]
				if inner.Op != OpOr || len(inner.Children) != 2 {
					t.Fatalf("child 1 = %v, want OR with 2 children", inner)
				}
				if c := inner.Children[1]; c.Target != -1 || !c.State.Negated() {
					t.Errorf("inner child 1 = %v, want negated self-reference", c)
				}
			},
		},
		{
			name:  "NegatedOperators",
			input: `{"op":"!|","c":[{"op":"!&","c":[]}]}`,
			check: func(t *testing.T, e *Expr) {
				if e.Op != OpNotOr || e.Children[0].Op != OpNotAnd {
					t.Errorf("got %v", e)
				}
			},
		},
		{
			name:  "OtherConditionType",
			input: `{"op":"&","c":[{"type":"date","d":">=","t":1700000000}]}`,
			check: func(t *testing.T, e *Expr) {
				c := e.Children[0]
				if c.Kind != KindUnknown {
					t.Fatalf("kind = %v, want unknown", c.Kind)
				}
				if !strings.Contains(string(c.Raw), `"date"`) {
					t.Errorf("raw = %s, want original condition", c.Raw)
				}
			},
		},
		{
			name:  "UnknownOperator",
			input: `{"op":"^","c":[{"type":"completion","cm":2,"e":1}]}`,
			check: func(t *testing.T, e *Expr) {
				if e.Kind != KindUnknown {
					t.Errorf("kind = %v, want unknown", e.Kind)
				}
			},
		},
		{
			name:  "CompletionWithBadFields",
			input: `{"op":"&","c":[{"type":"completion","cm":"x","e":1},{"type":"completion","cm":4,"e":9},{"type":"completion","e":1}]}`,
			check: func(t *testing.T, e *Expr) {
				for i, c := range e.Children {
					if c.Kind != KindUnknown {
						t.Errorf("child %d kind = %v, want unknown", i, c.Kind)
					}
				}
			},
		},
		{
			name:  "NonObject",
			input: `[1,2,3]`,
			check: func(t *testing.T, e *Expr) {
				if e.Kind != KindUnknown {
					t.Errorf("kind = %v, want unknown", e.Kind)
				}
			},
		},
		{
			name:  "BareLeaf",
			input: `{"type":"completion","cm":9,"e":3}`,
			check: func(t *testing.T, e *Expr) {
				if !e.IsCompletion() || e.Target != 9 || e.State != StateFail {
					t.Errorf("got %v", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseString(tt.input, 0)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.check(t, e)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{`{"op":"&","c":[`, `{op:&}`, `{"type":"completion"`} {
		_, err := ParseString(input, 0)
		if !errors.Is(err, errors.ErrCodeInvalidExpression) {
			t.Errorf("Parse(%q) error = %v, want INVALID_EXPRESSION", input, err)
		}
	}
}

func TestParseDepthLimit(t *testing.T) {
	nest := func(levels int) string {
		s := `{"type":"completion","cm":1,"e":1}`
		for i := 0; i < levels; i++ {
			s = `{"op":"&","c":[` + s + `]}`
		}
		return s
	}

	if _, err := ParseString(nest(3), 4); err != nil {
		t.Fatalf("depth 4 with limit 4: %v", err)
	}
	_, err := ParseString(nest(4), 4)
	if !errors.Is(err, errors.ErrCodeDepthExceeded) {
		t.Fatalf("depth 5 with limit 4: error = %v, want DEPTH_EXCEEDED", err)
	}
	_, err = ParseString(nest(DefaultMaxDepth+1), 0)
	if !errors.Is(err, errors.ErrCodeDepthExceeded) {
		t.Fatalf("default limit: error = %v, want DEPTH_EXCEEDED", err)
	}
}

func TestLeaves(t *testing.T) {
	e := And(
		Completion(2, StateComplete),
		Unknown(json.RawMessage(`{"type":"grade"}`)),
		Or(Completion(3, StateComplete), Completion(4, StateIncomplete)),
	)
	var got []int
	for _, l := range Leaves(e) {
		got = append(got, l.Target)
	}
	want := []int{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Leaves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Leaves[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if Leaves(nil) != nil {
		t.Error("Leaves(nil) should be nil")
	}
}

func TestWalkPrune(t *testing.T) {
	e := And(Or(Completion(1, StateComplete)), Completion(2, StateComplete))
	var visited int
	Walk(e, func(n *Expr) bool {
		visited++
		return n.Op != OpOr
	})
	// AND, OR (pruned), leaf 2
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
}

func TestRewriteDoesNotMutate(t *testing.T) {
	shared := Completion(7, StateComplete)
	e := And(shared, Or(shared))

	out := Rewrite(e, func(leaf Expr) Expr {
		leaf.Target = -2
		return leaf
	})

	if shared.Target != 7 {
		t.Fatalf("input leaf mutated: target = %d", shared.Target)
	}
	for _, l := range Leaves(out) {
		if l.Target != -2 {
			t.Errorf("rewritten leaf target = %d, want -2", l.Target)
		}
	}
	if out.Children[0] == shared {
		t.Error("rewritten tree aliases input leaf")
	}
}

func TestHasInterpretableChild(t *testing.T) {
	tests := []struct {
		name string
		e    *Expr
		want bool
	}{
		{"completion child", And(Completion(1, StateComplete)), true},
		{"operator child", And(Or(Unknown(nil))), true},
		{"only unknown", And(Unknown(nil), Unknown(nil)), false},
		{"empty", Or(), false},
		{"leaf", Completion(1, StateComplete), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.HasInterpretableChild(); got != tt.want {
				t.Errorf("HasInterpretableChild() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"and with unknown", `{"op":"&","c":[{"type":"completion","cm":-1,"e":2},{"type":"date","t":5}]}`},
		{"nested", `{"op":"!&","c":[{"op":"|","c":[{"type":"completion","cm":4,"e":0}]},{"op":"&","c":[]}]}`},
		{"leaf", `{"type":"completion","cm":7,"e":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseString(tt.input, 0)
			if err != nil {
				t.Fatal(err)
			}
			data, err := Marshal(e)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != tt.input {
				t.Errorf("Marshal = %s, want %s", data, tt.input)
			}
		})
	}

	if data, _ := Marshal(nil); string(data) != "null" {
		t.Errorf("Marshal(nil) = %s, want null", data)
	}
}

func TestOpName(t *testing.T) {
	for op, want := range map[Op]string{OpAnd: "AND", OpOr: "OR", OpNotAnd: "NOT-AND", OpNotOr: "NOT-OR", OpNot: "NOT"} {
		if got := op.Name(); got != want {
			t.Errorf("%q.Name() = %q, want %q", op, got, want)
		}
	}
	if OpNot.Valid() {
		t.Error("OpNot must not be a valid stored connective")
	}
}
