package volt

import (
	"testing"
)

func Test_Env_Lookup_Walks_Parent_Chain(t *testing.T) {
	h := NewHeap()
	outer := NewEnv(h, nil)
	inner := NewEnv(h, outer)

	outer.Declare(h, "x", Num(1), true)
	b, _, ok := inner.Lookup("x")
	if !ok || b == nil || b.value.numVal() != 1 {
		t.Fatal("inner scope should see outer binding")
	}
	if _, _, ok := inner.Lookup("missing"); ok {
		t.Fatal("unbound name resolved")
	}
}

func Test_Env_Shadowing(t *testing.T) {
	h := NewHeap()
	outer := NewEnv(h, nil)
	inner := NewEnv(h, outer)
	outer.Declare(h, "x", Num(1), true)
	inner.Declare(h, "x", Num(2), true)

	b, _, _ := inner.Lookup("x")
	if b.value.numVal() != 2 {
		t.Fatal("inner declaration should shadow")
	}
	b, _, _ = outer.Lookup("x")
	if b.value.numVal() != 1 {
		t.Fatal("outer binding untouched")
	}
}

func Test_Env_Shared_Cells(t *testing.T) {
	// Two child records see writes through the same cell.
	h := NewHeap()
	outer := NewEnv(h, nil)
	outer.Declare(h, "n", Num(0), true)
	a := NewEnv(h, outer)
	b := NewEnv(h, outer)

	cellA, _, _ := a.Lookup("n")
	cellB, _, _ := b.Lookup("n")
	if cellA != cellB {
		t.Fatal("both scopes must resolve to one cell")
	}
	cellA.value = Num(7)
	if cellB.value.numVal() != 7 {
		t.Fatal("write not visible through sibling lookup")
	}
}

func Test_Env_Const_Redeclaration_Rejected(t *testing.T) {
	h := NewHeap()
	e := NewEnv(h, nil)
	if !e.Declare(h, "k", Num(1), false) {
		t.Fatal("first declaration should succeed")
	}
	if e.Declare(h, "k", Num(2), false) {
		t.Fatal("const redeclaration should fail")
	}
	if e.Declare(h, "k", Num(2), true) {
		t.Fatal("let over const should fail too")
	}
}

func Test_Env_Global_Record_Is_Object_Backed(t *testing.T) {
	ip := NewInterpreter()
	env := NewGlobalEnv(ip.heap, ip.GlobalObject())

	env.DeclareVar(ip.heap, "setting", Str("on"))
	if p, ok := ip.GlobalObject().getOwn("setting"); !ok || p.Value.strVal() != "on" {
		t.Fatal("var should land on the global object")
	}

	// let stays in the record's own table, invisible on the object.
	env.Declare(ip.heap, "hidden", Num(1), true)
	if _, ok := ip.GlobalObject().getOwn("hidden"); ok {
		t.Fatal("let must not touch the global object")
	}
	if _, _, ok := env.Lookup("hidden"); !ok {
		t.Fatal("let still resolves through the record")
	}

	// Properties set on the object resolve through the environment.
	ip.GlobalObject().SetOwn("fromHost", Num(9))
	_, owner, ok := env.Lookup("fromHost")
	if !ok || owner != ip.GlobalObject() {
		t.Fatal("object property should resolve with the object as owner")
	}
}

func Test_Env_Program_Record_Forwards_Vars(t *testing.T) {
	ip := NewInterpreter()
	global := NewGlobalEnv(ip.heap, ip.GlobalObject())
	prog := NewProgramEnv(ip.heap, global)

	prog.DeclareVar(ip.heap, "counter", Num(3))
	if p, ok := ip.GlobalObject().getOwn("counter"); !ok || p.Value.numVal() != 3 {
		t.Fatal("program-level var should land on the global object")
	}
	// Hoisting consults LookupLocal; the forwarded var must count as bound.
	if _, _, ok := prog.LookupLocal("counter"); !ok {
		t.Fatal("forwarded var invisible to local lookup")
	}

	// Lexical declarations stay in the program record.
	prog.Declare(ip.heap, "tmp", Num(1), true)
	if _, ok := ip.GlobalObject().getOwn("tmp"); ok {
		t.Fatal("lexical binding must not reach the global object")
	}
}

func Test_Env_LookupLocal_Ignores_Parents(t *testing.T) {
	h := NewHeap()
	outer := NewEnv(h, nil)
	inner := NewEnv(h, outer)
	outer.Declare(h, "x", Num(1), true)
	if _, _, ok := inner.LookupLocal("x"); ok {
		t.Fatal("local lookup must not climb")
	}
	if _, _, ok := outer.LookupLocal("x"); !ok {
		t.Fatal("local lookup misses own binding")
	}
}
