package volt

import (
	"strings"
	"testing"
)

func Test_JSON_Stringify_Scalars(t *testing.T) {
	ip := NewInterpreter()
	cases := map[string]string{
		`JSON.stringify(1);`:           "1",
		`JSON.stringify("s");`:         `"s"`,
		`JSON.stringify(true);`:        "true",
		`JSON.stringify(null);`:        "null",
		`JSON.stringify(NaN);`:         "null",
		`JSON.stringify(1/0);`:         "null",
		`JSON.stringify("q\"q");`:      `"q\"q"`,
		`JSON.stringify([1, "a"]);`:    `[1,"a"]`,
		`JSON.stringify({a:1,b:[2]});`: `{"a":1,"b":[2]}`,
	}
	for src, want := range cases {
		wantStr(t, mustEvalPersistent(t, ip, src), want)
	}
	wantUndefined(t, mustEvalPersistent(t, ip, `JSON.stringify(undefined);`))
	wantUndefined(t, mustEvalPersistent(t, ip, `JSON.stringify(function(){});`))
}

func Test_JSON_Stringify_Drops_Undefined_And_Functions(t *testing.T) {
	wantStr(t, evalSrc(t, `JSON.stringify({ a: undefined, b: function(){}, c: 1 });`), `{"c":1}`)
	// In arrays those become null instead.
	wantStr(t, evalSrc(t, `JSON.stringify([undefined, function(){}, 1]);`), `[null,null,1]`)
}

func Test_JSON_Stringify_Wrappers_And_ToJSON(t *testing.T) {
	wantStr(t, evalSrc(t, `JSON.stringify(new Number(5));`), "5")
	wantStr(t, evalSrc(t, `JSON.stringify(new String("s"));`), `"s"`)
	wantStr(t, evalSrc(t, `
		JSON.stringify({ when: { toJSON: function() { return "then"; } } });
	`), `{"when":"then"}`)
}

func Test_JSON_Stringify_Cycle_Is_TypeError(t *testing.T) {
	err := evalErr(t, `var o = {}; o.self = o; JSON.stringify(o);`)
	if !strings.Contains(err.Error(), "TypeError") || !strings.Contains(err.Error(), "circular") {
		t.Fatalf("want circular TypeError, got %v", err)
	}
	// Sibling references to the same object are fine.
	wantStr(t, evalSrc(t, `
		var shared = { v: 1 };
		JSON.stringify({ a: shared, b: shared });
	`), `{"a":{"v":1},"b":{"v":1}}`)
}

func Test_JSON_Stringify_Space(t *testing.T) {
	wantStr(t, evalSrc(t, `JSON.stringify({ a: [1] }, null, 2);`),
		"{\n  \"a\": [\n    1\n  ]\n}")
	wantStr(t, evalSrc(t, `JSON.stringify({ a: 1 }, null, "\t");`),
		"{\n\t\"a\": 1\n}")
	wantStr(t, evalSrc(t, `JSON.stringify([], null, 2);`), "[]")
	wantStr(t, evalSrc(t, `JSON.stringify({}, null, 2);`), "{}")
}

func Test_JSON_Stringify_Replacer(t *testing.T) {
	wantStr(t, evalSrc(t, `
		JSON.stringify({ a: 1, b: 2, c: 3 }, function(k, v) {
			return k === "b" ? undefined : v;
		});
	`), `{"a":1,"c":3}`)
	wantStr(t, evalSrc(t, `JSON.stringify({ a: 1, b: 2, c: 3 }, ["a", "c"]);`), `{"a":1,"c":3}`)
}

func Test_JSON_Parse_Values(t *testing.T) {
	ip := NewInterpreter()
	wantNum(t, mustEvalPersistent(t, ip, `JSON.parse("42");`), 42)
	wantStr(t, mustEvalPersistent(t, ip, `JSON.parse('"s"');`), "s")
	wantBool(t, mustEvalPersistent(t, ip, `JSON.parse("true");`), true)
	wantBool(t, mustEvalPersistent(t, ip, `JSON.parse("null") === null;`), true)
	wantStr(t, mustEvalPersistent(t, ip, `JSON.parse('[1,[2,3]]')[1].join(",");`), "2,3")
	wantNum(t, mustEvalPersistent(t, ip, `JSON.parse('{"a":{"b":7}}').a.b;`), 7)
}

func Test_JSON_Parse_Preserves_Key_Order(t *testing.T) {
	wantStr(t, evalSrc(t, `Object.keys(JSON.parse('{"z":1,"a":2,"m":3}')).join(",");`), "z,a,m")
}

func Test_JSON_Parse_Errors(t *testing.T) {
	for _, src := range []string{
		`JSON.parse("");`,
		`JSON.parse("{");`,
		`JSON.parse("[1,]");`,
		`JSON.parse("1 2");`,
		`JSON.parse("'single'");`,
	} {
		err := evalErr(t, src)
		if !strings.Contains(err.Error(), "SyntaxError") {
			t.Fatalf("%s: want SyntaxError, got %v", src, err)
		}
	}
}

func Test_JSON_Parse_Reviver(t *testing.T) {
	wantNum(t, evalSrc(t, `
		JSON.parse('{"a":1,"b":2}', function(k, v) {
			return typeof v === "number" ? v * 10 : v;
		}).b;
	`), 20)
	// Returning undefined removes the key.
	wantStr(t, evalSrc(t, `
		var o = JSON.parse('{"keep":1,"drop":2}', function(k, v) {
			return k === "drop" ? undefined : v;
		});
		Object.keys(o).join(",");
	`), "keep")
	// Revival is bottom-up.
	wantStr(t, evalSrc(t, `
		var order = [];
		JSON.parse('{"outer":{"inner":1}}', function(k, v) { order.push(k); return v; });
		order.join(",");
	`), "inner,outer,")
}

func Test_JSON_Roundtrip(t *testing.T) {
	wantBool(t, evalSrc(t, `
		var v = { list: [1, 2.5, "x"], flag: true, nothing: null };
		var back = JSON.parse(JSON.stringify(v));
		back.list[1] === 2.5 && back.flag === true && back.nothing === null &&
			back.list.length === 3;
	`), true)
}
