package volt

import (
	"strings"
	"testing"
)

func parseOne(t *testing.T, src string) S {
	t.Helper()
	ast, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v\nsource: %s", err, src)
	}
	if Tag(ast) != "program" {
		t.Fatalf("root tag %q", Tag(ast))
	}
	if len(ast) != 2 {
		t.Fatalf("want a single statement, got %d", len(ast)-1)
	}
	st, ok := ast[1].(S)
	if !ok {
		t.Fatalf("statement is %T, not a node", ast[1])
	}
	return st
}

func nthChild(t *testing.T, n S, i int) S {
	t.Helper()
	child, ok := n[i].(S)
	if !ok {
		t.Fatalf("child %d of %q is %T, not a node", i, Tag(n), n[i])
	}
	return child
}

func Test_Parser_Var_Declaration(t *testing.T) {
	st := parseOne(t, `var x = 1, y;`)
	if Tag(st) != "var" {
		t.Fatalf("tag %q", Tag(st))
	}
	if st[1].(string) != "x" || st[3].(string) != "y" {
		t.Fatalf("names: %v", st)
	}
	if Tag(nthChild(t, st, 2)) != "num" {
		t.Fatalf("x init: %v", st[2])
	}
	if Tag(nthChild(t, st, 4)) != "undef" {
		t.Fatalf("y init: %v", st[4])
	}
}

func Test_Parser_Precedence(t *testing.T) {
	// 1 + 2 * 3 parses with * bound tighter.
	st := parseOne(t, `1 + 2 * 3;`)
	if Tag(st) != "binop" || st[1].(string) != "+" {
		t.Fatalf("root: %v", st)
	}
	right := nthChild(t, st, 3)
	if Tag(right) != "binop" || right[1].(string) != "*" {
		t.Fatalf("rhs: %v", right)
	}
}

func Test_Parser_Assignment_Is_Right_Associative(t *testing.T) {
	st := parseOne(t, `a = b = 1;`)
	if Tag(st) != "assign" {
		t.Fatalf("root: %v", st)
	}
	inner := nthChild(t, st, 2)
	if Tag(inner) != "assign" {
		t.Fatalf("rhs: %v", inner)
	}
}

func Test_Parser_Member_Index_Call_Chain(t *testing.T) {
	st := parseOne(t, `a.b[0](1);`)
	if Tag(st) != "call" {
		t.Fatalf("root: %v", st)
	}
	idx := nthChild(t, st, 1)
	if Tag(idx) != "index" {
		t.Fatalf("callee: %v", idx)
	}
	mem := nthChild(t, idx, 1)
	if Tag(mem) != "member" || mem[2].(string) != "b" {
		t.Fatalf("object: %v", mem)
	}
}

func Test_Parser_New_Binds_Tighter_Than_Call(t *testing.T) {
	st := parseOne(t, `new A().m();`)
	if Tag(st) != "call" {
		t.Fatalf("root: %v", st)
	}
	mem := nthChild(t, st, 1)
	if Tag(mem) != "member" || mem[2].(string) != "m" {
		t.Fatalf("member: %v", mem)
	}
	if Tag(nthChild(t, mem, 1)) != "new" {
		t.Fatalf("receiver: %v", mem[1])
	}
}

func Test_Parser_Object_Literal_Entries(t *testing.T) {
	st := parseOne(t, `({ a: 1, "b-c": 2, 3: 4, get x() { return 1; }, set x(v) {} });`)
	if Tag(st) != "obj" {
		t.Fatalf("root: %v", Tag(st))
	}
	tags := []string{}
	for i := 1; i < len(st); i++ {
		tags = append(tags, Tag(nthChild(t, st, i)))
	}
	want := []string{"prop", "prop", "prop", "getter", "setter"}
	if strings.Join(tags, ",") != strings.Join(want, ",") {
		t.Fatalf("entries: %v", tags)
	}
}

func Test_Parser_Arrow_Functions(t *testing.T) {
	st := parseOne(t, `x => x + 1;`)
	if Tag(st) != "arrow" {
		t.Fatalf("root: %v", Tag(st))
	}
	if st[3].(bool) != true {
		t.Fatal("expression body should be flagged")
	}

	st = parseOne(t, `(a, b) => { return a; };`)
	if Tag(st) != "arrow" || st[3].(bool) != false {
		t.Fatalf("block-body arrow: %v", st)
	}
	params := nthChild(t, st, 1)
	if Tag(params) != "params" || len(params) != 3 {
		t.Fatalf("params: %v", params)
	}
}

func Test_Parser_ForIn_Vs_For(t *testing.T) {
	st := parseOne(t, `for (var k in o) {}`)
	if Tag(st) != "forin" || st[1].(string) != "var" || st[2].(string) != "k" {
		t.Fatalf("forin: %v", st)
	}

	st = parseOne(t, `for (;;) break;`)
	if Tag(st) != "for" {
		t.Fatalf("for: %v", Tag(st))
	}
	for i := 1; i <= 3; i++ {
		if Tag(nthChild(t, st, i)) != "nop" {
			t.Fatalf("part %d should be nop: %v", i, st[i])
		}
	}
}

func Test_Parser_Labeled_Statement(t *testing.T) {
	st := parseOne(t, `loop: while (true) break loop;`)
	if Tag(st) != "label" || st[1].(string) != "loop" {
		t.Fatalf("label: %v", st)
	}
	body := nthChild(t, st, 2)
	if Tag(body) != "while" {
		t.Fatalf("body: %v", Tag(body))
	}
}

func Test_Parser_Try_Shapes(t *testing.T) {
	st := parseOne(t, `try { f(); } catch (e) { g(); }`)
	if Tag(st) != "try" || st[2].(string) != "e" {
		t.Fatalf("try/catch: %v", st)
	}
	if Tag(nthChild(t, st, 4)) != "nop" {
		t.Fatal("missing finally should be nop")
	}

	st = parseOne(t, `try { f(); } finally { h(); }`)
	if Tag(nthChild(t, st, 3)) != "nop" {
		t.Fatal("missing catch should be nop")
	}
	if Tag(nthChild(t, st, 4)) != "block" {
		t.Fatal("finally should be a block")
	}
}

func Test_Parser_ASI_Splits_On_Newline(t *testing.T) {
	ast, err := Parse("a = 1\nb = 2")
	if err != nil {
		t.Fatal(err)
	}
	if len(ast) != 3 {
		t.Fatalf("want 2 statements, got %d", len(ast)-1)
	}
}

func Test_Parser_Return_Is_Newline_Restricted(t *testing.T) {
	ast, err := Parse("function f() {\n\treturn\n\t1\n}")
	if err != nil {
		t.Fatal(err)
	}
	fn := ast[1].(S)
	block := fn[3].(S)
	ret := block[1].(S)
	if Tag(ret) != "return" || Tag(ret[1].(S)) != "undef" {
		t.Fatalf("return should carry undef: %v", ret)
	}
}

func Test_Parser_Errors_Report_Position(t *testing.T) {
	_, err := Parse("var x = ;")
	if err == nil {
		t.Fatal("expected error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("want *ParseError, got %T", err)
	}
	if pe.Line != 1 {
		t.Fatalf("line %d", pe.Line)
	}
	if pe.Incomplete {
		t.Fatal("a hard syntax error is not incomplete")
	}
}

func Test_Parser_Interactive_Incomplete(t *testing.T) {
	incomplete := []string{
		`function f() {`,
		`if (x) {`,
		`var o = {`,
		`[1, 2,`,
		`f(1,`,
	}
	for _, src := range incomplete {
		_, err := ParseInteractive(src)
		if !IsIncomplete(err) {
			t.Fatalf("%q should be incomplete, got %v", src, err)
		}
	}

	// Complete input and hard errors are not flagged.
	if _, err := ParseInteractive(`1 + 2`); err != nil {
		t.Fatalf("complete input errored: %v", err)
	}
	if _, err := ParseInteractive(`var = 1`); IsIncomplete(err) {
		t.Fatal("hard error misreported as incomplete")
	}

	// Non-interactive parsing never reports incomplete.
	if _, err := Parse(`function f() {`); IsIncomplete(err) {
		t.Fatal("Parse should not flag incomplete")
	}
}

func Test_Parser_Const_Requires_Initializer(t *testing.T) {
	if _, err := Parse(`const x;`); err == nil {
		t.Fatal("const without initializer should fail")
	}
}

func Test_Parser_Spans_Cover_Every_Node(t *testing.T) {
	src := `
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		var out = [];
		for (var i = 0; i < 5; i++) out.push(fib(i));
	`
	ast, si, err := ParseWithSpans(src)
	if err != nil {
		t.Fatal(err)
	}
	if si == nil {
		t.Fatal("no span index")
	}
	n, err := VerifySpanIndexPostOrder(ast, si, src, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n < 20 {
		t.Fatalf("suspiciously few nodes visited: %d", n)
	}
}
