package volt

import (
	"math"
	"strings"
	"testing"
)

func Test_String_CharAt_And_CharCodeAt(t *testing.T) {
	wantStr(t, evalSrc(t, `"hello".charAt(1);`), "e")
	wantStr(t, evalSrc(t, `"hello".charAt(99);`), "")
	wantNum(t, evalSrc(t, `"A".charCodeAt(0);`), 65)
	wantNum(t, evalSrc(t, `"é".charCodeAt(0);`), 0xe9)
	wantNum(t, evalSrc(t, `"x".charCodeAt(5);`), math.NaN())
	// Astral characters occupy two units.
	wantNum(t, evalSrc(t, `"𝄞".charCodeAt(0);`), 0xd834)
	wantNum(t, evalSrc(t, `"𝄞".charCodeAt(1);`), 0xdd1e)
}

func Test_String_FromCharCode(t *testing.T) {
	wantStr(t, evalSrc(t, `String.fromCharCode(72, 105);`), "Hi")
	wantStr(t, evalSrc(t, `String.fromCharCode(0xd834, 0xdd1e);`), "𝄞")
}

func Test_String_IndexOf_Includes(t *testing.T) {
	wantNum(t, evalSrc(t, `"banana".indexOf("an");`), 1)
	wantNum(t, evalSrc(t, `"banana".indexOf("an", 2);`), 3)
	wantNum(t, evalSrc(t, `"banana".indexOf("zz");`), -1)
	wantNum(t, evalSrc(t, `"banana".lastIndexOf("an");`), 3)
	wantBool(t, evalSrc(t, `"banana".includes("nan");`), true)
	wantBool(t, evalSrc(t, `"banana".includes("xyz");`), false)
}

func Test_String_Slice_Substring(t *testing.T) {
	wantStr(t, evalSrc(t, `"abcdef".slice(1, 4);`), "bcd")
	wantStr(t, evalSrc(t, `"abcdef".slice(-2);`), "ef")
	wantStr(t, evalSrc(t, `"abcdef".substring(4, 1);`), "bcd") // swaps
	wantStr(t, evalSrc(t, `"abcdef".substring(-3, 2);`), "ab")
}

func Test_String_Split(t *testing.T) {
	wantStr(t, evalSrc(t, `"a,b,c".split(",").join("|");`), "a|b|c")
	wantNum(t, evalSrc(t, `"abc".split("").length;`), 3)
	wantStr(t, evalSrc(t, `"abc".split(undefined).join("");`), "abc")
	wantNum(t, evalSrc(t, `"a,b,c".split(",", 2).length;`), 2)
	wantStr(t, evalSrc(t, `"a1b22c".split(new RegExp("\\d+")).join(",");`), "a,b,c")
}

func Test_String_Replace(t *testing.T) {
	wantStr(t, evalSrc(t, `"aaa".replace("a", "b");`), "baa")
	wantStr(t, evalSrc(t, `"hello world".replace("world", "there");`), "hello there")
	wantStr(t, evalSrc(t, `"abc".replace("x", "y");`), "abc")
	wantStr(t, evalSrc(t, `
		"total: 5".replace(new RegExp("\\d+"), function(m) { return m * 2; });
	`), "total: 10")
}

func Test_String_Trim_Case_Repeat(t *testing.T) {
	wantStr(t, evalSrc(t, `"  pad  ".trim();`), "pad")
	wantStr(t, evalSrc(t, `"\t\n x  ".trim();`), "x")
	wantStr(t, evalSrc(t, `"MiXeD".toLowerCase();`), "mixed")
	wantStr(t, evalSrc(t, `"MiXeD".toUpperCase();`), "MIXED")
	wantStr(t, evalSrc(t, `"ab".repeat(3);`), "ababab")
	wantStr(t, evalSrc(t, `"ab".repeat(0);`), "")
	err := evalErr(t, `"a".repeat(-1);`)
	if !strings.Contains(err.Error(), "RangeError") {
		t.Fatalf("want RangeError, got %v", err)
	}
}

func Test_String_Concat_And_Wrapper(t *testing.T) {
	wantStr(t, evalSrc(t, `"a".concat("b", 1);`), "ab1")
	wantStr(t, evalSrc(t, `String(42);`), "42")
	wantStr(t, evalSrc(t, `String(null);`), "null")
	wantStr(t, evalSrc(t, `String();`), "")
	// Boxed strings delegate to the primitive.
	wantNum(t, evalSrc(t, `new String("abc").length;`), 3)
	wantStr(t, evalSrc(t, `new String("abc").charAt(1);`), "b")
	wantStr(t, evalSrc(t, `typeof new String("x");`), "object")
	wantStr(t, evalSrc(t, `new String("x").valueOf();`), "x")
}

func Test_String_Methods_On_Nullish_Throw(t *testing.T) {
	err := evalErr(t, `String.prototype.charAt.call(null, 0);`)
	if !strings.Contains(err.Error(), "TypeError") {
		t.Fatalf("want TypeError, got %v", err)
	}
}

func Test_String_LocaleCompare(t *testing.T) {
	wantNum(t, evalSrc(t, `"a".localeCompare("b");`), -1)
	wantNum(t, evalSrc(t, `"b".localeCompare("a");`), 1)
	wantNum(t, evalSrc(t, `"a".localeCompare("a");`), 0)
	// Collation orders accented letters near their base letter, unlike a
	// plain code-unit comparison.
	wantNum(t, evalSrc(t, `"é".localeCompare("z");`), -1)
}

func Test_String_Match_And_Search(t *testing.T) {
	wantStr(t, evalSrc(t, `"a1b2".match(new RegExp("\\d"))[0];`), "1")
	wantNum(t, evalSrc(t, `"a1b2".match(new RegExp("\\d", "g")).length;`), 2)
	wantBool(t, evalSrc(t, `"abc".match(new RegExp("z")) === null;`), true)
	wantNum(t, evalSrc(t, `"abc def".search(new RegExp("def"));`), 4)
	wantNum(t, evalSrc(t, `"abc".search(new RegExp("z"));`), -1)
}
