package volt

import (
	"strings"
	"testing"
)

func Test_Array_Push_Pop_Shift_Unshift(t *testing.T) {
	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `var a = [2, 3];`)
	wantNum(t, mustEvalPersistent(t, ip, `a.push(4, 5);`), 4)
	wantNum(t, mustEvalPersistent(t, ip, `a.unshift(1);`), 5)
	wantStr(t, mustEvalPersistent(t, ip, `a.join(",");`), "1,2,3,4,5")
	wantNum(t, mustEvalPersistent(t, ip, `a.pop();`), 5)
	wantNum(t, mustEvalPersistent(t, ip, `a.shift();`), 1)
	wantStr(t, mustEvalPersistent(t, ip, `a.join(",");`), "2,3,4")
	wantUndefined(t, mustEvalPersistent(t, ip, `[].pop();`))
	wantUndefined(t, mustEvalPersistent(t, ip, `[].shift();`))
}

func Test_Array_Slice_And_Splice(t *testing.T) {
	wantStr(t, evalSrc(t, `[0, 1, 2, 3, 4].slice(1, 3).join(",");`), "1,2")
	wantStr(t, evalSrc(t, `[0, 1, 2, 3, 4].slice(-2).join(",");`), "3,4")
	wantStr(t, evalSrc(t, `[0, 1, 2].slice().join(",");`), "0,1,2")

	ip := NewInterpreter()
	mustEvalPersistent(t, ip, `var a = [0, 1, 2, 3, 4];`)
	wantStr(t, mustEvalPersistent(t, ip, `a.splice(1, 2, "x").join(",");`), "1,2")
	wantStr(t, mustEvalPersistent(t, ip, `a.join(",");`), "0,x,3,4")
	wantStr(t, mustEvalPersistent(t, ip, `a.splice(-1).join(",");`), "4")
	wantStr(t, mustEvalPersistent(t, ip, `a.join(",");`), "0,x,3")
}

func Test_Array_Concat_Flattens_One_Level(t *testing.T) {
	wantStr(t, evalSrc(t, `[1].concat([2, 3], 4, [[5]]).length + "";`), "5")
	wantStr(t, evalSrc(t, `[1].concat([2, [3]])[2].join("");`), "3")
}

func Test_Array_IndexOf_Uses_Strict_Equality(t *testing.T) {
	wantNum(t, evalSrc(t, `[1, 2, 3, 2].indexOf(2);`), 1)
	wantNum(t, evalSrc(t, `[1, 2, 3, 2].indexOf(2, 2);`), 3)
	wantNum(t, evalSrc(t, `[1, 2, 3].indexOf("2");`), -1)
	wantNum(t, evalSrc(t, `[NaN].indexOf(NaN);`), -1)
	wantNum(t, evalSrc(t, `[1, 2, 3, 2].lastIndexOf(2);`), 3)
}

func Test_Array_Iteration_Methods(t *testing.T) {
	wantStr(t, evalSrc(t, `[1, 2, 3].map(function(x) { return x * x; }).join(",");`), "1,4,9")
	wantStr(t, evalSrc(t, `[1, 2, 3, 4].filter(function(x) { return x % 2 === 0; }).join(",");`), "2,4")
	wantNum(t, evalSrc(t, `[1, 2, 3, 4].reduce(function(a, b) { return a + b; });`), 10)
	wantNum(t, evalSrc(t, `[1, 2, 3].reduce(function(a, b) { return a + b; }, 10);`), 16)
	wantBool(t, evalSrc(t, `[1, 2, 3].some(function(x) { return x > 2; });`), true)
	wantBool(t, evalSrc(t, `[1, 2, 3].every(function(x) { return x > 0; });`), true)
	wantBool(t, evalSrc(t, `[1, -2, 3].every(function(x) { return x > 0; });`), false)

	// Callback receives (element, index, array) and honors thisArg.
	wantStr(t, evalSrc(t, `
		var got = [];
		["a", "b"].forEach(function(v, i, arr) {
			got.push(v + i + (arr.length) + this.tag);
		}, { tag: "!" });
		got.join("|");
	`), "a02!|b12!")
}

func Test_Array_Reduce_Empty_No_Initial_Throws(t *testing.T) {
	err := evalErr(t, `[].reduce(function(a, b) { return a + b; });`)
	if !strings.Contains(err.Error(), "TypeError") {
		t.Fatalf("want TypeError, got %v", err)
	}
}

func Test_Array_Sort(t *testing.T) {
	// Default sorting is by string comparison.
	wantStr(t, evalSrc(t, `[10, 9, 1].sort().join(",");`), "1,10,9")
	wantStr(t, evalSrc(t, `[10, 9, 1].sort(function(a, b) { return a - b; }).join(",");`), "1,9,10")
	// undefined sinks to the end.
	wantStr(t, evalSrc(t, `[undefined, 2, 1].sort().join(",");`), "1,2,")
	// sort returns the receiver.
	wantBool(t, evalSrc(t, `var a = [2, 1]; a.sort() === a;`), true)

	err := evalErr(t, `[1, 2].sort("nope");`)
	if !strings.Contains(err.Error(), "TypeError") {
		t.Fatalf("want TypeError, got %v", err)
	}
}

func Test_Array_Sort_Comparator_Throw_Propagates(t *testing.T) {
	err := evalErr(t, `[3, 1, 2].sort(function() { throw new Error("cmp"); });`)
	if !strings.Contains(err.Error(), "cmp") {
		t.Fatalf("comparator throw lost: %v", err)
	}
}

func Test_Array_Reverse_And_Join(t *testing.T) {
	wantStr(t, evalSrc(t, `[1, 2, 3].reverse().join("-");`), "3-2-1")
	wantBool(t, evalSrc(t, `var a = [1, 2]; a.reverse() === a;`), true)
	wantStr(t, evalSrc(t, `[1, null, undefined, 2].join(",");`), "1,,,2")
	wantStr(t, evalSrc(t, `[1, 2].join();`), "1,2")
}

func Test_Array_IsArray_And_Ctor(t *testing.T) {
	wantBool(t, evalSrc(t, `Array.isArray([]);`), true)
	wantBool(t, evalSrc(t, `Array.isArray({});`), false)
	wantBool(t, evalSrc(t, `Array.isArray("abc");`), false)
	wantNum(t, evalSrc(t, `new Array(3).length;`), 3)
	wantStr(t, evalSrc(t, `new Array(1, 2, 3).join(",");`), "1,2,3")
	wantNum(t, evalSrc(t, `Array(3).length;`), 3)

	err := evalErr(t, `new Array(2.5);`)
	if !strings.Contains(err.Error(), "RangeError") {
		t.Fatalf("want RangeError, got %v", err)
	}
}

func Test_Array_Methods_Reject_Non_Array_Receivers(t *testing.T) {
	err := evalErr(t, `Array.prototype.push.call({}, 1);`)
	if !strings.Contains(err.Error(), "TypeError") {
		t.Fatalf("want TypeError, got %v", err)
	}
}

func Test_Array_ToString_Matches_Join(t *testing.T) {
	wantStr(t, evalSrc(t, `[1, [2, 3]].toString();`), "1,2,3")
	wantStr(t, evalSrc(t, `"" + [1, 2];`), "1,2")
}
