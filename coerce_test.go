package volt

import (
	"math"
	"testing"
)

func Test_Coerce_ToBoolean(t *testing.T) {
	falsy := []Value{Undefined, Null, Bool(false), Num(0), Num(math.NaN()), Str("")}
	for _, v := range falsy {
		if ToBoolean(v) {
			t.Fatalf("%s should be falsy", PrintValue(v))
		}
	}
	ip := NewInterpreter()
	truthy := []Value{Bool(true), Num(1), Num(-1), Str("0"), Str("false"), ObjVal(ip.NewObject())}
	for _, v := range truthy {
		if !ToBoolean(v) {
			t.Fatalf("%s should be truthy", PrintValue(v))
		}
	}
}

func Test_Coerce_StringToNumber(t *testing.T) {
	cases := map[string]float64{
		"":          0,
		"   ":       0,
		"42":        42,
		"  42  ":    42,
		"-3.5":      -3.5,
		"+7":        7,
		"0x1f":      31,
		"1e2":       100,
		".5":        0.5,
		"Infinity":  math.Inf(1),
		"-Infinity": math.Inf(-1),
	}
	for s, want := range cases {
		if got := stringToNumber(s); got != want {
			t.Fatalf("stringToNumber(%q) = %v, want %v", s, got, want)
		}
	}
	for _, s := range []string{"abc", "1x", "1 2", "0xgg", "--1"} {
		if got := stringToNumber(s); !math.IsNaN(got) {
			t.Fatalf("stringToNumber(%q) = %v, want NaN", s, got)
		}
	}
}

func Test_Coerce_NumberToString(t *testing.T) {
	cases := map[float64]string{
		0:            "0",
		1:            "1",
		-1:           "-1",
		1.5:          "1.5",
		100:          "100",
		1e21:         "1e+21",
		1e-7:         "1e-7",
		0.1:          "0.1",
		math.Inf(1):  "Infinity",
		math.Inf(-1): "-Infinity",
	}
	for f, want := range cases {
		if got := numberToString(f); got != want {
			t.Fatalf("numberToString(%v) = %q, want %q", f, got, want)
		}
	}
	if got := numberToString(math.NaN()); got != "NaN" {
		t.Fatalf("NaN prints %q", got)
	}
	// Negative zero prints like zero.
	if got := numberToString(math.Copysign(0, -1)); got != "0" {
		t.Fatalf("-0 prints %q", got)
	}
}

func Test_Coerce_ToNumber_Values(t *testing.T) {
	ip := NewInterpreter()
	check := func(v Value, want float64) {
		t.Helper()
		got, sig := ip.toNumber(v)
		if sig != nil {
			t.Fatalf("toNumber(%s) threw", PrintValue(v))
		}
		if math.IsNaN(want) {
			if !math.IsNaN(got) {
				t.Fatalf("toNumber(%s) = %v, want NaN", PrintValue(v), got)
			}
			return
		}
		if got != want {
			t.Fatalf("toNumber(%s) = %v, want %v", PrintValue(v), got, want)
		}
	}
	check(Undefined, math.NaN())
	check(Null, 0)
	check(Bool(true), 1)
	check(Bool(false), 0)
	check(Str("12"), 12)
	check(Str("oops"), math.NaN())
	check(ObjVal(ip.NewArray(nil)), 0)             // [] -> "" -> 0
	check(ObjVal(ip.NewArray([]Value{Num(7)})), 7) // [7] -> "7" -> 7
	check(ObjVal(ip.NewObject()), math.NaN())      // {} -> "[object Object]"
}

func Test_Coerce_ToString_Values(t *testing.T) {
	ip := NewInterpreter()
	check := func(v Value, want string) {
		t.Helper()
		got, sig := ip.toString(v)
		if sig != nil {
			t.Fatalf("toString threw for %v", v.Tag)
		}
		if got != want {
			t.Fatalf("toString = %q, want %q", got, want)
		}
	}
	check(Undefined, "undefined")
	check(Null, "null")
	check(Bool(true), "true")
	check(Num(3.5), "3.5")
	check(ObjVal(ip.NewArray([]Value{Num(1), Num(2)})), "1,2")
	check(ObjVal(ip.NewObject()), "[object Object]")
}

func Test_Coerce_ToPrimitive_Uses_ValueOf_Then_ToString(t *testing.T) {
	ip := NewInterpreter()
	v := mustEvalPersistent(t, ip, `
		var o = { valueOf: function() { return 6; }, toString: function() { return "nope"; } };
		o * 7;
	`)
	wantNum(t, v, 42)

	v = mustEvalPersistent(t, ip, `
		var p = { valueOf: function() { return {}; }, toString: function() { return "9"; } };
		p * 2;
	`)
	wantNum(t, v, 18)
}

func Test_Coerce_Integer_Conversions(t *testing.T) {
	if toInteger(4.9) != 4 || toInteger(-4.9) != -4 {
		t.Fatal("toInteger should truncate toward zero")
	}
	if toInteger(math.NaN()) != 0 {
		t.Fatal("toInteger(NaN) should be 0")
	}
	if toInt32(math.Pow(2, 31)) != math.MinInt32 {
		t.Fatal("toInt32 wraps at 2^31")
	}
	if toUint32(-1) != math.MaxUint32 {
		t.Fatal("toUint32(-1) wraps to 2^32-1")
	}
	if toUint32(math.Pow(2, 32)+5) != 5 {
		t.Fatal("toUint32 reduces mod 2^32")
	}
}

func Test_Coerce_StrictEquals(t *testing.T) {
	if !strictEquals(Num(1), Num(1)) || strictEquals(Num(1), Str("1")) {
		t.Fatal("strict equality mixes types")
	}
	if strictEquals(Num(math.NaN()), Num(math.NaN())) {
		t.Fatal("NaN must not equal itself")
	}
	if !strictEquals(Num(0), Num(math.Copysign(0, -1))) {
		t.Fatal("+0 and -0 are strictly equal")
	}
	ip := NewInterpreter()
	o := ObjVal(ip.NewObject())
	if !strictEquals(o, o) || strictEquals(o, ObjVal(ip.NewObject())) {
		t.Fatal("object equality is identity")
	}
}

func Test_Coerce_LooseEquals_Table(t *testing.T) {
	ip := NewInterpreter()
	check := func(a, b Value, want bool) {
		t.Helper()
		got, sig := ip.looseEquals(a, b)
		if sig != nil {
			t.Fatal("looseEquals threw")
		}
		if got != want {
			t.Fatalf("%s == %s: got %v, want %v", PrintValue(a), PrintValue(b), got, want)
		}
	}
	check(Null, Undefined, true)
	check(Undefined, Null, true)
	check(Null, Num(0), false)
	check(Num(1), Str("1"), true)
	check(Bool(true), Num(1), true)
	check(Bool(false), Str(""), true)
	check(Num(math.NaN()), Num(math.NaN()), false)

	arr := ObjVal(ip.NewArray([]Value{Num(5)}))
	check(arr, Num(5), true) // [5] -> "5" -> 5
	check(arr, Str("5"), true)
}
