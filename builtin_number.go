package volt

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Number and Boolean constructors and prototypes.

func registerNumberBuiltins(ip *Interpreter) {
	r := ip.realm

	numberCtor := ip.ctor("Number", 1, r.NumberProto, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		f := 0.0
		if len(ctx.Args) > 0 {
			var sig *signal
			if f, sig = ip.toNumber(ctx.Arg(0)); sig != nil {
				return Undefined, sig
			}
		}
		if o := ctx.This.Obj(); o != nil && o != r.NumberProto && o.Proto == r.NumberProto {
			o.Primitive = Num(f)
		}
		return Num(f), nil
	})

	defConst(numberCtor, "MAX_VALUE", Num(math.MaxFloat64))
	defConst(numberCtor, "MIN_VALUE", Num(5e-324))
	defConst(numberCtor, "MAX_SAFE_INTEGER", Num(9007199254740991))
	defConst(numberCtor, "MIN_SAFE_INTEGER", Num(-9007199254740991))
	defConst(numberCtor, "EPSILON", Num(2.220446049250313e-16))
	defConst(numberCtor, "POSITIVE_INFINITY", Num(math.Inf(1)))
	defConst(numberCtor, "NEGATIVE_INFINITY", Num(math.Inf(-1)))
	defConst(numberCtor, "NaN", NaN())

	ip.method(numberCtor, "isInteger", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v := ctx.Arg(0)
		if v.Tag != VTNum {
			return Bool(false), nil
		}
		f := v.numVal()
		return Bool(!math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)), nil
	})
	ip.method(numberCtor, "isNaN", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v := ctx.Arg(0)
		return Bool(v.Tag == VTNum && math.IsNaN(v.numVal())), nil
	})
	ip.method(numberCtor, "isFinite", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v := ctx.Arg(0)
		return Bool(v.Tag == VTNum && !math.IsNaN(v.numVal()) && !math.IsInf(v.numVal(), 0)), nil
	})

	p := r.NumberProto

	ip.method(p, "valueOf", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		return numberPrimitive(ip, ctx, "valueOf")
	})

	ip.method(p, "toString", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v, sig := numberPrimitive(ip, ctx, "toString")
		if sig != nil {
			return Undefined, sig
		}
		f := v.numVal()
		if ctx.Arg(0).IsUndefined() {
			return Str(numberToString(f)), nil
		}
		radix, sig := ip.intArg(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		if radix < 2 || radix > 36 {
			return Undefined, ip.throwRangeError("toString() radix must be between 2 and 36")
		}
		if radix == 10 {
			return Str(numberToString(f)), nil
		}
		return Str(formatRadix(f, radix)), nil
	})

	ip.method(p, "toFixed", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v, sig := numberPrimitive(ip, ctx, "toFixed")
		if sig != nil {
			return Undefined, sig
		}
		digits, sig := ip.intArg(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		if digits < 0 || digits > 100 {
			return Undefined, ip.throwRangeError("toFixed() digits argument must be between 0 and 100")
		}
		f := v.numVal()
		if math.IsNaN(f) {
			return Str("NaN"), nil
		}
		if math.Abs(f) >= 1e21 {
			return Str(numberToString(f)), nil
		}
		return Str(strconv.FormatFloat(f, 'f', digits, 64)), nil
	})

	ip.method(p, "toPrecision", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v, sig := numberPrimitive(ip, ctx, "toPrecision")
		if sig != nil {
			return Undefined, sig
		}
		if ctx.Arg(0).IsUndefined() {
			return Str(numberToString(v.numVal())), nil
		}
		prec, sig := ip.intArg(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		if prec < 1 || prec > 100 {
			return Undefined, ip.throwRangeError("toPrecision() argument must be between 1 and 100")
		}
		f := v.numVal()
		if math.IsNaN(f) {
			return Str("NaN"), nil
		}
		return Str(strconv.FormatFloat(f, 'g', prec, 64)), nil
	})

	// Grouped formatting with an English locale; a full Intl surface is out
	// of scope but the common "1,234,567.89" case works.
	localePrinter := message.NewPrinter(language.English)
	ip.method(p, "toLocaleString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v, sig := numberPrimitive(ip, ctx, "toLocaleString")
		if sig != nil {
			return Undefined, sig
		}
		f := v.numVal()
		if math.IsNaN(f) {
			return Str("NaN"), nil
		}
		if math.IsInf(f, 0) {
			return Str(numberToString(f)), nil
		}
		return Str(localePrinter.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(3)))), nil
	})

	ip.ctor("Boolean", 1, r.BooleanProto, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		b := ToBoolean(ctx.Arg(0))
		if o := ctx.This.Obj(); o != nil && o != r.BooleanProto && o.Proto == r.BooleanProto {
			o.Primitive = Bool(b)
		}
		return Bool(b), nil
	})

	bp := r.BooleanProto
	ip.method(bp, "valueOf", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		return booleanPrimitive(ip, ctx, "valueOf")
	})
	ip.method(bp, "toString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v, sig := booleanPrimitive(ip, ctx, "toString")
		if sig != nil {
			return Undefined, sig
		}
		if v.boolVal() {
			return Str("true"), nil
		}
		return Str("false"), nil
	})
}

func numberPrimitive(ip *Interpreter, ctx *CallCtx, method string) (Value, *signal) {
	if ctx.This.Tag == VTNum {
		return ctx.This, nil
	}
	if o := ctx.This.Obj(); o != nil && o.Primitive.Tag == VTNum {
		return o.Primitive, nil
	}
	return Undefined, ip.throwTypeError("Number.prototype.%s called on incompatible receiver", method)
}

func booleanPrimitive(ip *Interpreter, ctx *CallCtx, method string) (Value, *signal) {
	if ctx.This.Tag == VTBool {
		return ctx.This, nil
	}
	if o := ctx.This.Obj(); o != nil && o.Primitive.Tag == VTBool {
		return o.Primitive, nil
	}
	return Undefined, ip.throwTypeError("Boolean.prototype.%s called on incompatible receiver", method)
}

// formatRadix renders a finite number in a non-decimal base. Integers are
// exact; fractions get up to 20 digits.
func formatRadix(f float64, radix int) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	neg := f < 0
	if neg {
		f = -f
	}
	intPart := math.Trunc(f)
	frac := f - intPart

	intStr := strconv.FormatInt(int64(intPart), radix)
	if intPart >= 1e18 {
		// FormatInt saturates; fall back to repeated division.
		intStr = bigIntRadix(intPart, radix)
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(intStr)
	if frac > 0 {
		b.WriteByte('.')
		for i := 0; i < 20 && frac > 0; i++ {
			frac *= float64(radix)
			d := int(frac)
			b.WriteByte("0123456789abcdefghijklmnopqrstuvwxyz"[d])
			frac -= float64(d)
		}
	}
	return b.String()
}

func bigIntRadix(f float64, radix int) string {
	if f < 1 {
		return "0"
	}
	var digits []byte
	for f >= 1 {
		d := int(math.Mod(f, float64(radix)))
		digits = append(digits, "0123456789abcdefghijklmnopqrstuvwxyz"[d])
		f = math.Trunc(f / float64(radix))
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
