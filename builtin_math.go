package volt

import (
	"math"
	"math/rand"
)

// The Math namespace object. One function per entry; variadic min/max and
// random are the only ones that are not thin wrappers over package math.

func registerMathBuiltins(ip *Interpreter) {
	m := newRawObject(ip.heap, ClassMath, ip.realm.ObjectProto)
	defData(ip.realm.GlobalObj, "Math", ObjVal(m))

	defConst(m, "PI", Num(math.Pi))
	defConst(m, "E", Num(math.E))
	defConst(m, "LN2", Num(math.Ln2))
	defConst(m, "LN10", Num(math.Log(10)))
	defConst(m, "LOG2E", Num(1/math.Ln2))
	defConst(m, "LOG10E", Num(1/math.Log(10)))
	defConst(m, "SQRT2", Num(math.Sqrt2))
	defConst(m, "SQRT1_2", Num(math.Sqrt(0.5)))

	unary := func(name string, fn func(float64) float64) {
		ip.method(m, name, 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
			f, sig := ip.toNumber(ctx.Arg(0))
			if sig != nil {
				return Undefined, sig
			}
			return Num(fn(f)), nil
		})
	}

	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("exp", math.Exp)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)
	unary("trunc", math.Trunc)
	unary("sign", func(f float64) float64 {
		switch {
		case math.IsNaN(f) || f == 0:
			return f
		case f < 0:
			return -1
		default:
			return 1
		}
	})
	unary("round", func(f float64) float64 {
		// Halfway cases round toward positive infinity: round(-0.5) is -0.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return f
		}
		return math.Floor(f + 0.5)
	})

	ip.method(m, "atan2", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		y, sig := ip.toNumber(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		x, sig := ip.toNumber(ctx.Arg(1))
		if sig != nil {
			return Undefined, sig
		}
		return Num(math.Atan2(y, x)), nil
	})

	ip.method(m, "pow", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		base, sig := ip.toNumber(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		exp, sig := ip.toNumber(ctx.Arg(1))
		if sig != nil {
			return Undefined, sig
		}
		return Num(math.Pow(base, exp)), nil
	})

	ip.method(m, "min", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		out := math.Inf(1)
		for _, a := range ctx.Args {
			f, sig := ip.toNumber(a)
			if sig != nil {
				return Undefined, sig
			}
			if math.IsNaN(f) {
				return NaN(), nil
			}
			if f < out {
				out = f
			}
		}
		return Num(out), nil
	})

	ip.method(m, "max", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		out := math.Inf(-1)
		for _, a := range ctx.Args {
			f, sig := ip.toNumber(a)
			if sig != nil {
				return Undefined, sig
			}
			if math.IsNaN(f) {
				return NaN(), nil
			}
			if f > out {
				out = f
			}
		}
		return Num(out), nil
	})

	ip.method(m, "random", 0, func(_ *Interpreter, _ *CallCtx) (Value, *signal) {
		return Num(rand.Float64()), nil
	})
}
