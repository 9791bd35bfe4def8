package volt

import (
	"bytes"
	"strings"
	"testing"
)

func withConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldErr := ConsoleOut, ConsoleErr
	ConsoleOut, ConsoleErr = &buf, &buf
	t.Cleanup(func() { ConsoleOut, ConsoleErr = oldOut, oldErr })
	return &buf
}

func Test_Console_Log_Joins_Arguments(t *testing.T) {
	buf := withConsole(t)
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `console.log("a", 1, true, null);`)
	if got := buf.String(); got != "a 1 true null\n" {
		t.Fatalf("console output %q", got)
	}
}

func Test_Console_Log_Renders_Objects(t *testing.T) {
	buf := withConsole(t)
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `console.log([1, 2], { a: 1 });`)
	out := buf.String()
	if !strings.Contains(out, "[ 1, 2 ]") || !strings.Contains(out, "{ a: 1 }") {
		t.Fatalf("console output %q", out)
	}
}

func Test_Console_Error_Warn_Info_Exist(t *testing.T) {
	buf := withConsole(t)
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `console.error("e"); console.warn("w"); console.info("i");`)
	if got := buf.String(); got != "e\nw\ni\n" {
		t.Fatalf("console output %q", got)
	}
}

func Test_Error_Hierarchy(t *testing.T) {
	ip := NewInterpreter()
	wantBool(t, mustEvalPersistent(t, ip, `
		var e = new TypeError("bad");
		e instanceof TypeError && e instanceof Error;
	`), true)
	wantBool(t, mustEvalPersistent(t, ip, `new Error("x") instanceof TypeError;`), false)
	wantStr(t, mustEvalPersistent(t, ip, `new RangeError("r").name;`), "RangeError")
	wantStr(t, mustEvalPersistent(t, ip, `new Error("msg").message;`), "msg")
	wantStr(t, mustEvalPersistent(t, ip, `new Error().message;`), "")
}

func Test_Error_ToString(t *testing.T) {
	wantStr(t, evalSrc(t, `new Error("broke").toString();`), "Error: broke")
	wantStr(t, evalSrc(t, `new TypeError().toString();`), "TypeError")
	wantStr(t, evalSrc(t, `"" + new RangeError("r");`), "RangeError: r")
}

func Test_Error_Works_Without_New(t *testing.T) {
	wantBool(t, evalSrc(t, `Error("m") instanceof Error;`), true)
	wantStr(t, evalSrc(t, `TypeError("m").message;`), "m")
}

func Test_Runtime_Errors_Use_Builtin_Types(t *testing.T) {
	cases := map[string]string{
		`nope;`:          "ReferenceError",
		`null.x;`:        "TypeError",
		`undefined();`:   "TypeError",
		`(1)();`:         "TypeError",
		`new Array(-1);`: "RangeError",
	}
	for src, name := range cases {
		v := evalSrc(t, `var kind; try { `+src+` } catch (e) { kind = e.name; } kind;`)
		wantStr(t, v, name)
	}
}

func Test_GlobalThis_And_Locked_Globals(t *testing.T) {
	ip := NewInterpreter()
	wantBool(t, mustEvalPersistent(t, ip, `globalThis === this;`), true)
	// undefined/NaN/Infinity cannot be reassigned.
	mustEvalPersistent(t, ip, `undefined = 5; NaN = 5; Infinity = 5;`)
	wantBool(t, mustEvalPersistent(t, ip, `
		undefined === void 0 && NaN !== NaN && Infinity === 1/0;
	`), true)
}

func Test_Builtins_Are_Not_Enumerable(t *testing.T) {
	wantNum(t, evalSrc(t, `
		var n = 0;
		for (var k in globalThis) {
			if (k === "parseInt" || k === "Object" || k === "Math") n++;
		}
		n;
	`), 0)
	wantNum(t, evalSrc(t, `
		var n = 0;
		for (var k in []) n++;
		n;
	`), 0)
}

func Test_Builtins_Are_Replaceable(t *testing.T) {
	ip := NewInterpreter()
	wantNum(t, mustEvalPersistent(t, ip, `
		var realAbs = Math.abs;
		Math.abs = function() { return 99; };
		var out = Math.abs(-5);
		Math.abs = realAbs;
		out;
	`), 99)
	wantNum(t, mustEvalPersistent(t, ip, `Math.abs(-5);`), 5)
}

func Test_Two_Interpreters_Are_Isolated(t *testing.T) {
	a := NewInterpreter()
	b := NewInterpreter()
	mustEvalPersistent(t, a, `var shared = "a"; Object.prototype.tainted = 1;`)
	wantStr(t, mustEvalPersistent(t, b, `typeof shared;`), "undefined")
	wantUndefined(t, mustEvalPersistent(t, b, `({}).tainted;`))
	wantNum(t, mustEvalPersistent(t, a, `({}).tainted;`), 1)
}
