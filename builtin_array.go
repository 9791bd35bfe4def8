package volt

import (
	"math"
	"sort"
	"strings"
)

// Array constructor and Array.prototype. Methods operate on the dense element
// storage; calling them with a non-array receiver is a TypeError rather than
// the generic ToObject dance.

func registerArrayBuiltins(ip *Interpreter) {
	r := ip.realm

	arrayCtor := ip.ctor("Array", 1, r.ArrayProto, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		if len(ctx.Args) == 1 && ctx.Args[0].Tag == VTNum {
			f := ctx.Args[0].numVal()
			n := toUint32(f)
			if float64(n) != f {
				return Undefined, ip.throwRangeError("invalid array length")
			}
			return ObjVal(ip.NewArray(make([]Value, n))), nil
		}
		elems := make([]Value, len(ctx.Args))
		copy(elems, ctx.Args)
		return ObjVal(ip.NewArray(elems)), nil
	})

	ip.method(arrayCtor, "isArray", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		v := ctx.Arg(0)
		return Bool(v.Tag == VTObj && v.Obj().IsArray()), nil
	})

	p := r.ArrayProto

	ip.method(p, "push", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "push")
		if sig != nil {
			return Undefined, sig
		}
		a.SetElems(append(a.Elems(), ctx.Args...))
		return Num(float64(len(a.Elems()))), nil
	})

	ip.method(p, "pop", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "pop")
		if sig != nil {
			return Undefined, sig
		}
		xs := a.Elems()
		if len(xs) == 0 {
			return Undefined, nil
		}
		last := xs[len(xs)-1]
		a.SetElems(xs[:len(xs)-1])
		return last, nil
	})

	ip.method(p, "shift", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "shift")
		if sig != nil {
			return Undefined, sig
		}
		xs := a.Elems()
		if len(xs) == 0 {
			return Undefined, nil
		}
		first := xs[0]
		a.SetElems(append([]Value(nil), xs[1:]...))
		return first, nil
	})

	ip.method(p, "unshift", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "unshift")
		if sig != nil {
			return Undefined, sig
		}
		xs := make([]Value, 0, len(ctx.Args)+len(a.Elems()))
		xs = append(xs, ctx.Args...)
		xs = append(xs, a.Elems()...)
		a.SetElems(xs)
		return Num(float64(len(xs))), nil
	})

	ip.method(p, "slice", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "slice")
		if sig != nil {
			return Undefined, sig
		}
		xs := a.Elems()
		start, end, sig := ip.sliceRange(ctx.Arg(0), ctx.Arg(1), len(xs))
		if sig != nil {
			return Undefined, sig
		}
		out := append([]Value(nil), xs[start:end]...)
		return ObjVal(ip.NewArray(out)), nil
	})

	ip.method(p, "splice", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "splice")
		if sig != nil {
			return Undefined, sig
		}
		xs := a.Elems()
		start, sig := ip.relativeIndex(ctx.Arg(0), len(xs), 0)
		if sig != nil {
			return Undefined, sig
		}
		delCount := len(xs) - start
		if !ctx.Arg(1).IsUndefined() {
			n, sig := ip.toNumber(ctx.Arg(1))
			if sig != nil {
				return Undefined, sig
			}
			delCount = clampInt(int(toInteger(n)), 0, len(xs)-start)
		}
		removed := append([]Value(nil), xs[start:start+delCount]...)
		var inserted []Value
		if len(ctx.Args) > 2 {
			inserted = ctx.Args[2:]
		}
		out := make([]Value, 0, len(xs)-delCount+len(inserted))
		out = append(out, xs[:start]...)
		out = append(out, inserted...)
		out = append(out, xs[start+delCount:]...)
		a.SetElems(out)
		return ObjVal(ip.NewArray(removed)), nil
	})

	ip.method(p, "concat", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "concat")
		if sig != nil {
			return Undefined, sig
		}
		out := append([]Value(nil), a.Elems()...)
		for _, arg := range ctx.Args {
			if arg.Tag == VTObj && arg.Obj().IsArray() {
				out = append(out, arg.Obj().Elems()...)
			} else {
				out = append(out, arg)
			}
		}
		return ObjVal(ip.NewArray(out)), nil
	})

	ip.method(p, "join", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "join")
		if sig != nil {
			return Undefined, sig
		}
		sep := ","
		if !ctx.Arg(0).IsUndefined() {
			if sep, sig = ip.toString(ctx.Arg(0)); sig != nil {
				return Undefined, sig
			}
		}
		parts := make([]string, len(a.Elems()))
		for i, v := range a.Elems() {
			if v.IsNullish() {
				continue
			}
			s, sig := ip.toString(v)
			if sig != nil {
				return Undefined, sig
			}
			parts[i] = s
		}
		return Str(strings.Join(parts, sep)), nil
	})

	ip.method(p, "reverse", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "reverse")
		if sig != nil {
			return Undefined, sig
		}
		xs := a.Elems()
		for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
			xs[i], xs[j] = xs[j], xs[i]
		}
		return ctx.This, nil
	})

	ip.method(p, "indexOf", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "indexOf")
		if sig != nil {
			return Undefined, sig
		}
		xs := a.Elems()
		from := 0
		if !ctx.Arg(1).IsUndefined() {
			if from, sig = ip.relativeIndex(ctx.Arg(1), len(xs), 0); sig != nil {
				return Undefined, sig
			}
		}
		for i := from; i < len(xs); i++ {
			if strictEquals(xs[i], ctx.Arg(0)) {
				return Num(float64(i)), nil
			}
		}
		return Num(-1), nil
	})

	ip.method(p, "lastIndexOf", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "lastIndexOf")
		if sig != nil {
			return Undefined, sig
		}
		xs := a.Elems()
		for i := len(xs) - 1; i >= 0; i-- {
			if strictEquals(xs[i], ctx.Arg(0)) {
				return Num(float64(i)), nil
			}
		}
		return Num(-1), nil
	})

	ip.method(p, "forEach", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, cb, sig := arrayAndCallback(ip, ctx, "forEach")
		if sig != nil {
			return Undefined, sig
		}
		for i := 0; i < len(a.Elems()); i++ {
			if _, sig := ip.call(cb, ctx.Arg(1), []Value{a.Elems()[i], Num(float64(i)), ctx.This}); sig != nil {
				return Undefined, sig
			}
		}
		return Undefined, nil
	})

	ip.method(p, "map", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, cb, sig := arrayAndCallback(ip, ctx, "map")
		if sig != nil {
			return Undefined, sig
		}
		out := ip.NewArray(make([]Value, 0, len(a.Elems())))
		mark := ip.protect(ObjVal(out))
		defer ip.release(mark)
		for i := 0; i < len(a.Elems()); i++ {
			v, sig := ip.call(cb, ctx.Arg(1), []Value{a.Elems()[i], Num(float64(i)), ctx.This})
			if sig != nil {
				return Undefined, sig
			}
			out.SetElems(append(out.Elems(), v))
		}
		return ObjVal(out), nil
	})

	ip.method(p, "filter", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, cb, sig := arrayAndCallback(ip, ctx, "filter")
		if sig != nil {
			return Undefined, sig
		}
		out := ip.NewArray(nil)
		mark := ip.protect(ObjVal(out))
		defer ip.release(mark)
		for i := 0; i < len(a.Elems()); i++ {
			v := a.Elems()[i]
			keep, sig := ip.call(cb, ctx.Arg(1), []Value{v, Num(float64(i)), ctx.This})
			if sig != nil {
				return Undefined, sig
			}
			if ToBoolean(keep) {
				out.SetElems(append(out.Elems(), v))
			}
		}
		return ObjVal(out), nil
	})

	ip.method(p, "reduce", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, cb, sig := arrayAndCallback(ip, ctx, "reduce")
		if sig != nil {
			return Undefined, sig
		}
		i := 0
		var acc Value
		if len(ctx.Args) > 1 {
			acc = ctx.Arg(1)
		} else {
			if len(a.Elems()) == 0 {
				return Undefined, ip.throwTypeError("reduce of empty array with no initial value")
			}
			acc = a.Elems()[0]
			i = 1
		}
		for ; i < len(a.Elems()); i++ {
			mark := ip.protect(acc)
			v, sig := ip.call(cb, Undefined, []Value{acc, a.Elems()[i], Num(float64(i)), ctx.This})
			ip.release(mark)
			if sig != nil {
				return Undefined, sig
			}
			acc = v
		}
		return acc, nil
	})

	ip.method(p, "some", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, cb, sig := arrayAndCallback(ip, ctx, "some")
		if sig != nil {
			return Undefined, sig
		}
		for i := 0; i < len(a.Elems()); i++ {
			v, sig := ip.call(cb, ctx.Arg(1), []Value{a.Elems()[i], Num(float64(i)), ctx.This})
			if sig != nil {
				return Undefined, sig
			}
			if ToBoolean(v) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})

	ip.method(p, "every", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, cb, sig := arrayAndCallback(ip, ctx, "every")
		if sig != nil {
			return Undefined, sig
		}
		for i := 0; i < len(a.Elems()); i++ {
			v, sig := ip.call(cb, ctx.Arg(1), []Value{a.Elems()[i], Num(float64(i)), ctx.This})
			if sig != nil {
				return Undefined, sig
			}
			if !ToBoolean(v) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	})

	ip.method(p, "sort", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		a, sig := arrayThis(ip, ctx, "sort")
		if sig != nil {
			return Undefined, sig
		}
		var cmp Value
		if c := ctx.Arg(0); !c.IsUndefined() {
			if c.Tag != VTObj || !c.Obj().IsCallable() {
				return Undefined, ip.throwTypeError("sort comparator must be a function")
			}
			cmp = c
		}
		if sig := ip.sortElems(a, cmp); sig != nil {
			return Undefined, sig
		}
		return ctx.This, nil
	})

	ip.method(p, "toString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		join, sig := ip.getProp(ctx.This, "join")
		if sig != nil {
			return Undefined, sig
		}
		if join.Tag == VTObj && join.Obj().IsCallable() {
			return ip.call(join, ctx.This, nil)
		}
		return Str("[object Array]"), nil
	})
}

func arrayThis(ip *Interpreter, ctx *CallCtx, method string) (*Object, *signal) {
	o := ctx.This.Obj()
	if o == nil || !o.IsArray() {
		return nil, ip.throwTypeError("Array.prototype.%s called on non-array", method)
	}
	return o, nil
}

func arrayAndCallback(ip *Interpreter, ctx *CallCtx, method string) (*Object, Value, *signal) {
	a, sig := arrayThis(ip, ctx, method)
	if sig != nil {
		return nil, Undefined, sig
	}
	cb := ctx.Arg(0)
	if cb.Tag != VTObj || !cb.Obj().IsCallable() {
		return nil, Undefined, ip.throwTypeError("Array.prototype.%s callback must be a function", method)
	}
	return a, cb, nil
}

// sortElems orders in place. Undefined elements sink to the end; a throwing
// comparator aborts the sort with element order unspecified.
func (ip *Interpreter) sortElems(a *Object, cmp Value) *signal {
	xs := a.Elems()
	var caught *signal
	sort.SliceStable(xs, func(i, j int) bool {
		if caught != nil {
			return false
		}
		x, y := xs[i], xs[j]
		if x.IsUndefined() {
			return false
		}
		if y.IsUndefined() {
			return true
		}
		if cmp.Tag == VTObj {
			v, sig := ip.call(cmp, Undefined, []Value{x, y})
			if sig != nil {
				caught = sig
				return false
			}
			n, sig := ip.toNumber(v)
			if sig != nil {
				caught = sig
				return false
			}
			return n < 0
		}
		sx, sig := ip.toString(x)
		if sig != nil {
			caught = sig
			return false
		}
		sy, sig := ip.toString(y)
		if sig != nil {
			caught = sig
			return false
		}
		return sx < sy
	})
	return caught
}

/* ---------- index helpers shared with the string builtins ---------- */

// relativeIndex resolves a possibly negative index against length, clamping
// into [min, length].
func (ip *Interpreter) relativeIndex(v Value, length, min int) (int, *signal) {
	if v.IsUndefined() {
		return min, nil
	}
	n, sig := ip.toNumber(v)
	if sig != nil {
		return 0, sig
	}
	f := toInteger(n)
	if f < 0 {
		f += float64(length)
	}
	return clampInt(int(clampFloat(f, 0, float64(length))), min, length), nil
}

// sliceRange resolves (start, end) arguments for slice-style methods.
func (ip *Interpreter) sliceRange(startV, endV Value, length int) (int, int, *signal) {
	start, sig := ip.relativeIndex(startV, length, 0)
	if sig != nil {
		return 0, 0, sig
	}
	end := length
	if !endV.IsUndefined() {
		if end, sig = ip.relativeIndex(endV, length, 0); sig != nil {
			return 0, 0, sig
		}
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampFloat(f, lo, hi float64) float64 {
	if math.IsNaN(f) {
		return lo
	}
	return math.Min(math.Max(f, lo), hi)
}
