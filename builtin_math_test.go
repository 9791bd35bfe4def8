package volt

import (
	"math"
	"testing"
)

func Test_Math_Constants(t *testing.T) {
	wantNum(t, evalSrc(t, `Math.PI;`), math.Pi)
	wantNum(t, evalSrc(t, `Math.E;`), math.E)
	wantNum(t, evalSrc(t, `Math.SQRT2;`), math.Sqrt2)
	wantNum(t, evalSrc(t, `Math.LN2;`), math.Ln2)
}

func Test_Math_Rounding(t *testing.T) {
	wantNum(t, evalSrc(t, `Math.floor(4.9);`), 4)
	wantNum(t, evalSrc(t, `Math.floor(-4.1);`), -5)
	wantNum(t, evalSrc(t, `Math.ceil(4.1);`), 5)
	wantNum(t, evalSrc(t, `Math.ceil(-4.9);`), -4)
	wantNum(t, evalSrc(t, `Math.round(4.5);`), 5)
	wantNum(t, evalSrc(t, `Math.round(-4.5);`), -4) // halves round toward +Infinity
	wantNum(t, evalSrc(t, `Math.trunc(-4.7);`), -4)
	wantNum(t, evalSrc(t, `Math.trunc(4.7);`), 4)
}

func Test_Math_Basic_Functions(t *testing.T) {
	wantNum(t, evalSrc(t, `Math.abs(-3);`), 3)
	wantNum(t, evalSrc(t, `Math.sqrt(16);`), 4)
	wantNum(t, evalSrc(t, `Math.sqrt(-1);`), math.NaN())
	wantNum(t, evalSrc(t, `Math.cbrt(27);`), 3)
	wantNum(t, evalSrc(t, `Math.pow(2, 10);`), 1024)
	wantNum(t, evalSrc(t, `Math.exp(0);`), 1)
	wantNum(t, evalSrc(t, `Math.log(Math.E);`), 1)
	wantNum(t, evalSrc(t, `Math.log2(8);`), 3)
	wantNum(t, evalSrc(t, `Math.log10(1000);`), 3)
	wantNum(t, evalSrc(t, `Math.sign(-7);`), -1)
	wantNum(t, evalSrc(t, `Math.sign(0);`), 0)
	wantNum(t, evalSrc(t, `Math.atan2(1, 1);`), math.Pi/4)
}

func Test_Math_MinMax(t *testing.T) {
	wantNum(t, evalSrc(t, `Math.max(1, 3, 2);`), 3)
	wantNum(t, evalSrc(t, `Math.min(1, -3, 2);`), -3)
	wantNum(t, evalSrc(t, `Math.max();`), math.Inf(-1))
	wantNum(t, evalSrc(t, `Math.min();`), math.Inf(1))
	wantNum(t, evalSrc(t, `Math.max(1, NaN, 2);`), math.NaN())
	wantNum(t, evalSrc(t, `Math.max("2", 1);`), 2) // arguments coerce
}

func Test_Math_Random_Range(t *testing.T) {
	ip := NewInterpreter()
	for i := 0; i < 50; i++ {
		v := mustEvalPersistent(t, ip, `Math.random();`)
		f := v.numVal()
		if f < 0 || f >= 1 {
			t.Fatalf("Math.random() out of range: %v", f)
		}
	}
}

func Test_Math_Is_Not_Callable(t *testing.T) {
	if err := evalErr(t, `Math();`); err == nil {
		t.Fatal("Math is a namespace, not a function")
	}
	wantStr(t, evalSrc(t, `Object.prototype.toString.call(Math);`), "[object Math]")
}
