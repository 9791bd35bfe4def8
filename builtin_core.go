package volt

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// ConsoleOut and ConsoleErr are the sinks for console.log and console.error.
// Tests swap them for buffers.
var (
	ConsoleOut io.Writer = os.Stdout
	ConsoleErr io.Writer = os.Stderr
)

// newRealm builds the intrinsic object graph: the prototype chain roots, the
// global object, and every built-in. Allocation order matters only for the
// protos; everything after is plain property installation.
func newRealm(ip *Interpreter) *Realm {
	h := ip.heap
	r := &Realm{}
	// Builtins below reach protos through ip.realm, so publish it before
	// installing anything.
	ip.realm = r

	r.ObjectProto = newRawObject(h, ClassObject, nil)
	r.FunctionProto = newRawObject(h, ClassFunction, r.ObjectProto)
	r.FunctionProto.Native = func(_ *Interpreter, _ *CallCtx) (Value, *signal) {
		return Undefined, nil
	}
	r.ArrayProto = newRawObject(h, ClassArray, r.ObjectProto)
	r.StringProto = newRawObject(h, ClassObject, r.ObjectProto)
	r.NumberProto = newRawObject(h, ClassObject, r.ObjectProto)
	r.BooleanProto = newRawObject(h, ClassObject, r.ObjectProto)
	r.RegExpProto = newRawObject(h, ClassObject, r.ObjectProto)

	r.ErrorProto = newRawObject(h, ClassError, r.ObjectProto)
	r.TypeErrorProto = newErrorProto(h, r.ErrorProto, "TypeError")
	r.RangeErrorProto = newErrorProto(h, r.ErrorProto, "RangeError")
	r.ReferenceErrorProto = newErrorProto(h, r.ErrorProto, "ReferenceError")
	r.SyntaxErrorProto = newErrorProto(h, r.ErrorProto, "SyntaxError")

	r.GlobalObj = newRawObject(h, ClassObject, r.ObjectProto)

	registerGlobals(ip)
	registerErrorBuiltins(ip)
	registerObjectBuiltins(ip)
	registerFunctionBuiltins(ip)
	registerArrayBuiltins(ip)
	registerStringBuiltins(ip)
	registerNumberBuiltins(ip)
	registerMathBuiltins(ip)
	registerJSONBuiltins(ip)
	registerRegExpBuiltins(ip)
	return r
}

func newErrorProto(h *Heap, errorProto *Object, name string) *Object {
	p := newRawObject(h, ClassError, errorProto)
	defData(p, "name", Str(name))
	defData(p, "message", Str(""))
	return p
}

/* ---------- installation helpers ---------- */

// defData installs a writable, configurable, non-enumerable data property.
// All builtins use this so user for-in loops never see them.
func defData(o *Object, name string, v Value) {
	o.defineOwn(name, &Property{Value: v, Writable: true, Configurable: true})
}

// defConst installs a fully locked data property (undefined, NaN, Infinity).
func defConst(o *Object, name string, v Value) {
	o.defineOwn(name, &Property{Value: v})
}

// method builds a native function and installs it non-enumerably on o.
func (ip *Interpreter) method(o *Object, name string, arity int, fn NativeFn) *Object {
	m := ip.newNativeFunction(name, arity, fn)
	defData(o, name, ObjVal(m))
	return m
}

// ctor builds a native constructor: a function object whose prototype
// property points at proto, with proto.constructor linked back.
func (ip *Interpreter) ctor(name string, arity int, proto *Object, fn NativeFn) *Object {
	c := ip.DefineNative(name, arity, fn)
	c.defineOwn("prototype", &Property{Value: ObjVal(proto)})
	defData(proto, "constructor", ObjVal(c))
	// DefineNative installs enumerably; globals are non-enumerable in JS.
	ip.realm.GlobalObj.defineOwn(name, &Property{Value: ObjVal(c), Writable: true, Configurable: true})
	return c
}

/* ---------- globals ---------- */

func registerGlobals(ip *Interpreter) {
	g := ip.realm.GlobalObj

	defData(g, "globalThis", ObjVal(g))
	defConst(g, "undefined", Undefined)
	defConst(g, "NaN", NaN())
	defConst(g, "Infinity", Num(math.Inf(1)))

	console := ip.NewObject()
	writeTo := func(w io.Writer) NativeFn {
		return func(_ *Interpreter, ctx *CallCtx) (Value, *signal) {
			parts := make([]string, len(ctx.Args))
			for i, a := range ctx.Args {
				parts[i] = DisplayValue(a)
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
			return Undefined, nil
		}
	}
	ip.method(console, "log", 0, writeTo(ConsoleOut))
	ip.method(console, "info", 0, writeTo(ConsoleOut))
	ip.method(console, "warn", 0, writeTo(ConsoleErr))
	ip.method(console, "error", 0, writeTo(ConsoleErr))
	defData(g, "console", ObjVal(console))

	ip.defineGlobalFn("parseInt", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := ip.toString(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		radix := 0
		if !ctx.Arg(1).IsUndefined() {
			n, sig := ip.toNumber(ctx.Arg(1))
			if sig != nil {
				return Undefined, sig
			}
			radix = int(toInt32(n))
		}
		return Num(parseIntText(s, radix)), nil
	})
	ip.defineGlobalFn("parseFloat", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		s, sig := ip.toString(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		return Num(parseFloatText(s)), nil
	})
	ip.defineGlobalFn("isNaN", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		n, sig := ip.toNumber(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		return Bool(math.IsNaN(n)), nil
	})
	ip.defineGlobalFn("isFinite", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		n, sig := ip.toNumber(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		return Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	// gc() forces a full collection and reports heap counters, so scripts
	// (and tests) can observe reclamation directly.
	ip.defineGlobalFn("gc", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		ip.heap.Collect()
		st := ip.heap.Stats()
		o := ip.NewObject()
		o.setOwnData("allocated", Num(float64(st.Allocated)))
		o.setOwnData("freed", Num(float64(st.Freed)))
		o.setOwnData("live", Num(float64(st.Live)))
		o.setOwnData("collections", Num(float64(st.Collections)))
		return ObjVal(o), nil
	})
}

// defineGlobalFn is DefineNative with the non-enumerable flags JS gives
// built-in globals.
func (ip *Interpreter) defineGlobalFn(name string, arity int, fn NativeFn) *Object {
	o := ip.newNativeFunction(name, arity, fn)
	defData(ip.realm.GlobalObj, name, ObjVal(o))
	return o
}

/* ---------- Error constructors ---------- */

func registerErrorBuiltins(ip *Interpreter) {
	r := ip.realm
	defData(r.ErrorProto, "name", Str("Error"))
	defData(r.ErrorProto, "message", Str(""))
	ip.method(r.ErrorProto, "toString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o := ctx.This.Obj()
		if o == nil {
			return Undefined, ip.throwTypeError("Error.prototype.toString called on non-object")
		}
		name := "Error"
		if v, sig := ip.getProp(ctx.This, "name"); sig != nil {
			return Undefined, sig
		} else if !v.IsUndefined() {
			if name, sig = ip.toString(v); sig != nil {
				return Undefined, sig
			}
		}
		msg := ""
		if v, sig := ip.getProp(ctx.This, "message"); sig != nil {
			return Undefined, sig
		} else if !v.IsUndefined() {
			if msg, sig = ip.toString(v); sig != nil {
				return Undefined, sig
			}
		}
		if msg == "" {
			return Str(name), nil
		}
		if name == "" {
			return Str(msg), nil
		}
		return Str(name + ": " + msg), nil
	})

	newErrorCtor(ip, "Error", r.ErrorProto)
	newErrorCtor(ip, "TypeError", r.TypeErrorProto)
	newErrorCtor(ip, "RangeError", r.RangeErrorProto)
	newErrorCtor(ip, "ReferenceError", r.ReferenceErrorProto)
	newErrorCtor(ip, "SyntaxError", r.SyntaxErrorProto)
}

// newErrorCtor wires one error constructor. Calling it with or without new
// yields a fresh error object; construct keeps the returned object, so both
// paths agree.
func newErrorCtor(ip *Interpreter, name string, proto *Object) *Object {
	return ip.ctor(name, 1, proto, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		e := newRawObject(ip.heap, ClassError, proto)
		if !ctx.Arg(0).IsUndefined() {
			msg, sig := ip.toString(ctx.Arg(0))
			if sig != nil {
				return Undefined, sig
			}
			defData(e, "message", Str(msg))
		}
		return ObjVal(e), nil
	})
}

/* ---------- numeric text parsing ---------- */

const jsWhitespace = " \t\n\r\v\f\u00a0\u2028\u2029\ufeff"

func parseIntText(s string, radix int) float64 {
	s = strings.TrimLeft(s, jsWhitespace)
	sign := 1.0
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if radix == 16 || radix == 0 {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			radix = 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}
	acc := 0.0
	digits := 0
	for _, c := range s {
		d := digitValue(c)
		if d < 0 || d >= radix {
			break
		}
		acc = acc*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return math.NaN()
	}
	return sign * acc
}

func digitValue(c rune) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// parseFloatText consumes the longest prefix of s that reads as a decimal
// literal (including Infinity), NaN when there is none.
func parseFloatText(s string) float64 {
	s = strings.TrimLeft(s, jsWhitespace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i == start || (i == start+1 && s[start] == '.') {
		return math.NaN()
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return stringToNumber(strings.TrimLeft(s[:i], "+"))
}
