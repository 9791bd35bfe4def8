package volt

import (
	"strings"
	"testing"
)

func printOf(t *testing.T, src string) string {
	t.Helper()
	ip := NewInterpreter()
	v, err := ip.EvalSource(src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return PrintValue(v)
}

func Test_Printer_Primitives(t *testing.T) {
	cases := map[string]string{
		`undefined;`: "undefined",
		`null;`:      "null",
		`true;`:      "true",
		`42;`:        "42",
		`-1.5;`:      "-1.5",
		`0/0;`:       "NaN",
		`1/0;`:       "Infinity",
		`"hi";`:      "'hi'",
		`"it's";`:    `'it\'s'`,
	}
	for src, want := range cases {
		if got := printOf(t, src); got != want {
			t.Fatalf("%s -> %q, want %q", src, got, want)
		}
	}
}

func Test_Printer_Display_Strings_Are_Raw(t *testing.T) {
	if got := DisplayValue(Str("plain")); got != "plain" {
		t.Fatalf("display %q", got)
	}
	if got := PrintValue(Str("plain")); got != "'plain'" {
		t.Fatalf("print %q", got)
	}
}

func Test_Printer_Inline_Array_And_Object(t *testing.T) {
	if got := printOf(t, `[1, "two", [3]];`); got != `[ 1, 'two', [ 3 ] ]` {
		t.Fatalf("array %q", got)
	}
	if got := printOf(t, `({ a: 1, "b c": 2 });`); got != `{ a: 1, 'b c': 2 }` {
		t.Fatalf("object %q", got)
	}
	if got := printOf(t, `[];`); got != "[]" {
		t.Fatalf("empty array %q", got)
	}
	if got := printOf(t, `({});`); got != "{}" {
		t.Fatalf("empty object %q", got)
	}
}

func Test_Printer_Wide_Values_Go_Multiline(t *testing.T) {
	got := printOf(t, `
		var o = {};
		for (var i = 0; i < 12; i++) o["key_number_" + i] = "some filler text";
		o;
	`)
	if !strings.Contains(got, "\n") {
		t.Fatalf("wide object should wrap:\n%s", got)
	}
	if !strings.Contains(got, "key_number_0") {
		t.Fatalf("missing key:\n%s", got)
	}
}

func Test_Printer_Functions(t *testing.T) {
	if got := printOf(t, `(function named() {});`); got != "[Function: named]" {
		t.Fatalf("named %q", got)
	}
	if got := printOf(t, `(function() {});`); got != "[Function (anonymous)]" {
		t.Fatalf("anonymous %q", got)
	}
	if got := printOf(t, `Math.abs;`); got != "[Function: abs]" {
		t.Fatalf("native %q", got)
	}
}

func Test_Printer_Cycles(t *testing.T) {
	got := printOf(t, `var o = { name: "x" }; o.self = o; o;`)
	if !strings.Contains(got, "[Circular]") {
		t.Fatalf("cycle marker missing: %q", got)
	}
	got = printOf(t, `var a = [1]; a.push(a); a;`)
	if !strings.Contains(got, "[Circular]") {
		t.Fatalf("array cycle: %q", got)
	}
	// Re-printing after a cycle probe still works.
	if got := printOf(t, `[ [1], [1] ];`); strings.Contains(got, "Circular") {
		t.Fatalf("sibling arrays are not a cycle: %q", got)
	}
}

func Test_Printer_Errors(t *testing.T) {
	got := printOf(t, `new TypeError("oops");`)
	if !strings.Contains(got, "TypeError: oops") {
		t.Fatalf("error %q", got)
	}
	got = printOf(t, `var e = new Error("m"); e.code = 7; e;`)
	if !strings.Contains(got, "Error: m") || !strings.Contains(got, "code") {
		t.Fatalf("error extras %q", got)
	}
}

func Test_Printer_Accessors_Are_Not_Invoked(t *testing.T) {
	got := printOf(t, `
		var o = {};
		Object.defineProperty(o, "boom", {
			get: function() { throw new Error("never"); },
			enumerable: true
		});
		o;
	`)
	if !strings.Contains(got, "[Getter]") {
		t.Fatalf("getter placeholder missing: %q", got)
	}
}

func Test_Printer_RegExp(t *testing.T) {
	got := printOf(t, `new RegExp("a+", "gi");`)
	if got != "/a+/gi" {
		t.Fatalf("regexp %q", got)
	}
}

func Test_Printer_Nested_Depth(t *testing.T) {
	got := printOf(t, `({ a: { b: { c: [1, 2] } } });`)
	if !strings.Contains(got, "c") || !strings.Contains(got, "1") {
		t.Fatalf("nested %q", got)
	}
}
