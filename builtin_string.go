package volt

import (
	"strings"
	"sync"
	"unicode/utf16"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// String constructor and String.prototype. Index-based methods work in UTF-16
// code units, matching how the property protocol exposes length and indices.

var collatorOnce struct {
	sync.Once
	c *collate.Collator
}

func collator() *collate.Collator {
	collatorOnce.Do(func() {
		collatorOnce.c = collate.New(language.Und)
	})
	return collatorOnce.c
}

func utf16Units(s string) []uint16    { return utf16.Encode([]rune(s)) }
func unitsToString(u []uint16) string { return string(utf16.Decode(u)) }

func registerStringBuiltins(ip *Interpreter) {
	r := ip.realm

	stringCtor := ip.ctor("String", 1, r.StringProto, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s := ""
		if len(ctx.Args) > 0 {
			var sig *signal
			if s, sig = ip.toString(ctx.Arg(0)); sig != nil {
				return Undefined, sig
			}
		}
		// Under new, construct keeps the allocated instance; stamping its
		// primitive slot here is what makes it a wrapper.
		if o := ctx.This.Obj(); o != nil && o != r.StringProto && o.Proto == r.StringProto {
			o.Primitive = Str(s)
		}
		return Str(s), nil
	})

	ip.method(stringCtor, "fromCharCode", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		units := make([]uint16, len(ctx.Args))
		for i, a := range ctx.Args {
			n, sig := ip.toNumber(a)
			if sig != nil {
				return Undefined, sig
			}
			units[i] = uint16(toUint32(n))
		}
		return Str(unitsToString(units)), nil
	})

	p := r.StringProto

	ip.method(p, "valueOf", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		return stringPrimitive(ip, ctx, "valueOf")
	})
	ip.method(p, "toString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		return stringPrimitive(ip, ctx, "toString")
	})

	ip.method(p, "charAt", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		i, sig := ip.intArg(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		units := utf16Units(s)
		if i < 0 || i >= len(units) {
			return Str(""), nil
		}
		return Str(unitsToString(units[i : i+1])), nil
	})

	ip.method(p, "charCodeAt", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		i, sig := ip.intArg(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		units := utf16Units(s)
		if i < 0 || i >= len(units) {
			return NaN(), nil
		}
		return Num(float64(units[i])), nil
	})

	ip.method(p, "indexOf", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, needle, sig := stringAndArg(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		units, sub := utf16Units(s), utf16Units(needle)
		from := 0
		if !ctx.Arg(1).IsUndefined() {
			if from, sig = ip.intArg(ctx.Arg(1)); sig != nil {
				return Undefined, sig
			}
			from = clampInt(from, 0, len(units))
		}
		return Num(float64(unitsIndex(units, sub, from))), nil
	})

	ip.method(p, "lastIndexOf", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, needle, sig := stringAndArg(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		units, sub := utf16Units(s), utf16Units(needle)
		best := -1
		for i := 0; i+len(sub) <= len(units); i++ {
			if unitsHavePrefix(units[i:], sub) {
				best = i
			}
		}
		return Num(float64(best)), nil
	})

	ip.method(p, "includes", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, needle, sig := stringAndArg(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		return Bool(unitsIndex(utf16Units(s), utf16Units(needle), 0) >= 0), nil
	})

	ip.method(p, "slice", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		units := utf16Units(s)
		start, end, sig := ip.sliceRange(ctx.Arg(0), ctx.Arg(1), len(units))
		if sig != nil {
			return Undefined, sig
		}
		return Str(unitsToString(units[start:end])), nil
	})

	ip.method(p, "substring", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		units := utf16Units(s)
		start, sig := ip.absoluteIndex(ctx.Arg(0), len(units), 0)
		if sig != nil {
			return Undefined, sig
		}
		end := len(units)
		if !ctx.Arg(1).IsUndefined() {
			if end, sig = ip.absoluteIndex(ctx.Arg(1), len(units), len(units)); sig != nil {
				return Undefined, sig
			}
		}
		if start > end {
			start, end = end, start
		}
		return Str(unitsToString(units[start:end])), nil
	})

	ip.method(p, "split", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		limit := -1
		if !ctx.Arg(1).IsUndefined() {
			n, sig := ip.toNumber(ctx.Arg(1))
			if sig != nil {
				return Undefined, sig
			}
			limit = int(toUint32(n))
		}
		if isRegExpValue(ctx.Arg(0)) {
			return ip.regexpSplit(s, ctx.Arg(0).Obj(), limit)
		}
		if ctx.Arg(0).IsUndefined() {
			return ObjVal(ip.NewArray([]Value{Str(s)})), nil
		}
		sep, sig := ip.toString(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		var parts []string
		if sep == "" {
			units := utf16Units(s)
			for _, u := range units {
				parts = append(parts, unitsToString([]uint16{u}))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		elems := make([]Value, 0, len(parts))
		for _, part := range parts {
			if limit >= 0 && len(elems) >= limit {
				break
			}
			elems = append(elems, Str(part))
		}
		return ObjVal(ip.NewArray(elems)), nil
	})

	ip.method(p, "replace", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		if isRegExpValue(ctx.Arg(0)) {
			return ip.regexpReplace(s, ctx.Arg(0).Obj(), ctx.Arg(1))
		}
		pat, sig := ip.toString(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		idx := strings.Index(s, pat)
		if idx < 0 {
			return Str(s), nil
		}
		rep, sig := ip.replacementFor(ctx.Arg(1), pat, idx, s, nil)
		if sig != nil {
			return Undefined, sig
		}
		return Str(s[:idx] + rep + s[idx+len(pat):]), nil
	})

	ip.method(p, "match", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		re, sig := ip.regexpArgument(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		return ip.regexpMatch(s, re)
	})

	ip.method(p, "search", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		re, sig := ip.regexpArgument(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		return ip.regexpSearch(s, re)
	})

	ip.method(p, "concat", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		var b strings.Builder
		b.WriteString(s)
		for _, a := range ctx.Args {
			part, sig := ip.toString(a)
			if sig != nil {
				return Undefined, sig
			}
			b.WriteString(part)
		}
		return Str(b.String()), nil
	})

	ip.method(p, "repeat", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		n, sig := ip.toNumber(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		count := toInteger(n)
		if count < 0 || count > 1e7 {
			return Undefined, ip.throwRangeError("invalid repeat count")
		}
		return Str(strings.Repeat(s, int(count))), nil
	})

	ip.method(p, "trim", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		return Str(strings.Trim(s, jsWhitespace)), nil
	})

	ip.method(p, "toUpperCase", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		return Str(strings.ToUpper(s)), nil
	})

	ip.method(p, "toLowerCase", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := thisString(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		return Str(strings.ToLower(s)), nil
	})

	ip.method(p, "localeCompare", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, other, sig := stringAndArg(ip, ctx)
		if sig != nil {
			return Undefined, sig
		}
		return Num(float64(collator().CompareString(s, other))), nil
	})
}

// thisString coerces the receiver to a string, unwrapping String objects.
func thisString(ip *Interpreter, ctx *CallCtx) (string, *signal) {
	if ctx.This.Tag == VTStr {
		return ctx.This.strVal(), nil
	}
	if o := ctx.This.Obj(); o != nil && o.Primitive.Tag == VTStr {
		return o.Primitive.strVal(), nil
	}
	if ctx.This.IsNullish() {
		return "", ip.throwTypeError("String.prototype method called on null or undefined")
	}
	return ip.toString(ctx.This)
}

func stringPrimitive(ip *Interpreter, ctx *CallCtx, method string) (Value, *signal) {
	if ctx.This.Tag == VTStr {
		return ctx.This, nil
	}
	if o := ctx.This.Obj(); o != nil && o.Primitive.Tag == VTStr {
		return o.Primitive, nil
	}
	return Undefined, ip.throwTypeError("String.prototype.%s called on incompatible receiver", method)
}

func stringAndArg(ip *Interpreter, ctx *CallCtx) (string, string, *signal) {
	s, sig := thisString(ip, ctx)
	if sig != nil {
		return "", "", sig
	}
	arg, sig := ip.toString(ctx.Arg(0))
	if sig != nil {
		return "", "", sig
	}
	return s, arg, nil
}

func (ip *Interpreter) intArg(v Value) (int, *signal) {
	n, sig := ip.toNumber(v)
	if sig != nil {
		return 0, sig
	}
	return int(toInteger(n)), nil
}

// absoluteIndex is relativeIndex without negative wrapping (substring rules).
func (ip *Interpreter) absoluteIndex(v Value, length, dflt int) (int, *signal) {
	if v.IsUndefined() {
		return dflt, nil
	}
	n, sig := ip.toNumber(v)
	if sig != nil {
		return 0, sig
	}
	return int(clampFloat(toInteger(n), 0, float64(length))), nil
}

func unitsIndex(units, sub []uint16, from int) int {
	if len(sub) == 0 {
		return clampInt(from, 0, len(units))
	}
	for i := from; i+len(sub) <= len(units); i++ {
		if unitsHavePrefix(units[i:], sub) {
			return i
		}
	}
	return -1
}

func unitsHavePrefix(units, sub []uint16) bool {
	if len(sub) > len(units) {
		return false
	}
	for i := range sub {
		if units[i] != sub[i] {
			return false
		}
	}
	return true
}
