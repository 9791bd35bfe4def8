package volt

import (
	"bytes"
	"strings"
	"testing"
)

func Test_Spans_Get_By_Path(t *testing.T) {
	src := `f(1, 22);`
	ast, si, err := ParseWithSpans(src)
	if err != nil {
		t.Fatal(err)
	}
	// Root program span covers the statement.
	sp, ok := si.Get(nil)
	if !ok {
		t.Fatal("no root span")
	}
	if sp.StartByte != 0 || sp.EndByte < 8 {
		t.Fatalf("root span %+v", sp)
	}

	// program -> call -> second argument.
	call := ast[1].(S)
	if Tag(call) != "call" {
		t.Fatalf("tag %q", Tag(call))
	}
	sp, ok = si.Get(NodePath{0, 2})
	if !ok {
		t.Fatal("no span for argument")
	}
	if src[sp.StartByte:sp.EndByte] != "22" {
		t.Fatalf("argument span text %q", src[sp.StartByte:sp.EndByte])
	}
}

func Test_Spans_Nil_Index_Resolves_Nothing(t *testing.T) {
	var si *SpanIndex
	if _, ok := si.Get(NodePath{0}); ok {
		t.Fatal("nil index must report false")
	}
}

func Test_Spans_Partial_Postorder(t *testing.T) {
	ast, err := Parse(`1 + 2;`)
	if err != nil {
		t.Fatal(err)
	}
	// Only two spans for a tree with more nodes: the earliest post-order
	// nodes get bound, the rest stay unindexed. ("binop", op, l, r) puts
	// the left operand at child slot S[2], so its path element is 1.
	si := BuildSpanIndexPostOrder(ast, []Span{{0, 1}, {4, 5}})
	if _, ok := si.Get(NodePath{0, 1}); !ok {
		t.Fatal("first leaf should be bound")
	}
	if sp, ok := si.Get(NodePath{0, 2}); !ok || (sp != Span{4, 5}) {
		t.Fatal("second leaf should carry the second span")
	}
	if _, ok := si.Get(nil); ok {
		t.Fatal("root should be unbound when spans run short")
	}
}

func Test_Spans_Verify_Detects_Missing_Binding(t *testing.T) {
	src := `var x = 1;`
	ast, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	si := BuildSpanIndexPostOrder(ast, []Span{{8, 9}}) // one span only
	_, verr := VerifySpanIndexPostOrder(ast, si, src, 0, nil)
	if verr == nil {
		t.Fatal("verification should fail")
	}
	if !strings.Contains(verr.Error(), "no span bound") {
		t.Fatalf("error %v", verr)
	}
}

func Test_Spans_Verify_Counts_All_Nodes(t *testing.T) {
	src := `while (a < 3) { a = a + 1; }`
	ast, si, err := ParseWithSpans(src)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, verr := VerifySpanIndexPostOrder(ast, si, src, 2, &buf)
	if verr != nil {
		t.Fatal(verr)
	}
	if n < 8 {
		t.Fatalf("visited %d nodes", n)
	}
}

func Test_Spans_Are_Nested_Within_Parents(t *testing.T) {
	src := `g(h(1));`
	ast, si, err := ParseWithSpans(src)
	if err != nil {
		t.Fatal(err)
	}
	outer, ok1 := si.Get(NodePath{0})
	inner, ok2 := si.Get(NodePath{0, 1})
	if !ok1 || !ok2 {
		t.Fatal("spans missing")
	}
	if inner.StartByte < outer.StartByte || inner.EndByte > outer.EndByte {
		t.Fatalf("inner %+v escapes outer %+v", inner, outer)
	}
	_ = ast
}
