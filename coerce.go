// coerce.go — type conversion and equality.
//
// Conversions that can run script code (valueOf / toString on objects, the
// loose-equality ladder) take the interpreter and may surface a thrown value
// as a signal. The pure conversions (booleans, string↔number parsing) are
// plain functions.
package volt

import (
	"math"
	"strconv"
	"strings"
)

// ToBoolean implements the truthiness table: undefined, null, false, NaN,
// ±0 and "" are falsy; every object is truthy.
func ToBoolean(v Value) bool {
	switch v.Tag {
	case VTUndefined, VTNull:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTNum:
		f := v.Data.(float64)
		return f != 0 && !math.IsNaN(f)
	case VTStr:
		return v.Data.(string) != ""
	default:
		return true
	}
}

// toPrimitive converts an object to a primitive by trying valueOf then
// toString ("number" hint) or toString then valueOf ("string" hint).
// Primitives pass through untouched.
func (ip *Interpreter) toPrimitive(v Value, hint string) (Value, *signal) {
	if v.Tag != VTObj {
		return v, nil
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		fn, sig := ip.getProp(v, name)
		if sig != nil {
			return Undefined, sig
		}
		if !fn.IsObject() || !fn.Obj().IsCallable() {
			continue
		}
		res, sig := ip.call(fn, v, nil)
		if sig != nil {
			return Undefined, sig
		}
		if res.Tag != VTObj {
			return res, nil
		}
	}
	return Undefined, ip.throwTypeError("cannot convert object to primitive value")
}

// toNumber converts a value to a number.
func (ip *Interpreter) toNumber(v Value) (float64, *signal) {
	switch v.Tag {
	case VTUndefined:
		return math.NaN(), nil
	case VTNull:
		return 0, nil
	case VTBool:
		if v.Data.(bool) {
			return 1, nil
		}
		return 0, nil
	case VTNum:
		return v.Data.(float64), nil
	case VTStr:
		return stringToNumber(v.Data.(string)), nil
	default:
		prim, sig := ip.toPrimitive(v, "number")
		if sig != nil {
			return 0, sig
		}
		return ip.toNumber(prim)
	}
}

// toString converts a value to a string.
func (ip *Interpreter) toString(v Value) (string, *signal) {
	switch v.Tag {
	case VTUndefined:
		return "undefined", nil
	case VTNull:
		return "null", nil
	case VTBool:
		if v.Data.(bool) {
			return "true", nil
		}
		return "false", nil
	case VTNum:
		return numberToString(v.Data.(float64)), nil
	case VTStr:
		return v.Data.(string), nil
	default:
		prim, sig := ip.toPrimitive(v, "string")
		if sig != nil {
			return "", sig
		}
		return ip.toString(prim)
	}
}

// toPropertyKey converts a value to a property key string.
func (ip *Interpreter) toPropertyKey(v Value) (string, *signal) {
	return ip.toString(v)
}

// toObject wraps a primitive in an object or rejects null/undefined.
// Strings and numbers get a transient wrapper with the right prototype so
// member access like "abc".length works.
func (ip *Interpreter) toObject(v Value) (*Object, *signal) {
	switch v.Tag {
	case VTUndefined, VTNull:
		return nil, ip.throwTypeError("cannot convert %s to object", v.TypeOf())
	case VTObj:
		return v.Obj(), nil
	case VTStr:
		o := newRawObject(ip.heap, ClassObject, ip.realm.StringProto)
		o.Primitive = v
		return o, nil
	case VTNum:
		o := newRawObject(ip.heap, ClassObject, ip.realm.NumberProto)
		o.Primitive = v
		return o, nil
	default:
		o := newRawObject(ip.heap, ClassObject, ip.realm.ObjectProto)
		o.Primitive = v
		return o, nil
	}
}

// toInteger truncates toward zero, mapping NaN to 0.
func toInteger(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 0) || f == 0 {
		return f
	}
	return math.Trunc(f)
}

// toInt32 implements the modular int32 conversion used by array indexing
// and the bitwise-free subset of integer coercions.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

// toUint32 implements the modular uint32 conversion (array lengths).
func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(f)))
}

// stringToNumber parses a string numeric literal: optional whitespace, empty
// string is 0, "Infinity" forms, hex literals, otherwise decimal or NaN.
func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if s == "Infinity" || s == "+Infinity" {
		return math.Inf(1)
	}
	if s == "-Infinity" {
		return math.Inf(-1)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// numberToString renders a float the way script code expects: integral
// values without a fraction, shortest round-trip decimals, and exponent
// notation only for magnitudes >= 1e21 or < 1e-6.
func numberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go prints "1e+21"; script notation keeps the sign but drops a
		// leading zero in the exponent ("1e+21", "1.5e-7").
		if i := strings.IndexByte(s, 'e'); i >= 0 {
			mant, exp := s[:i], s[i+1:]
			sign := ""
			if exp[0] == '+' || exp[0] == '-' {
				sign, exp = string(exp[0]), exp[1:]
			}
			exp = strings.TrimLeft(exp, "0")
			if exp == "" {
				exp = "0"
			}
			return mant + "e" + sign + exp
		}
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// strictEquals implements the === comparison. No coercion: different tags
// never compare equal, NaN is unequal to itself, objects compare by identity.
func strictEquals(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTUndefined, VTNull:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTNum:
		return a.Data.(float64) == b.Data.(float64)
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	case VTObj:
		return a.Obj() == b.Obj()
	}
	return false
}

// looseEquals implements the == coercion ladder: null and undefined match
// each other only, number/string pairs compare numerically, booleans convert
// to numbers, and objects convert to primitives against primitives.
func (ip *Interpreter) looseEquals(a, b Value) (bool, *signal) {
	if a.Tag == b.Tag {
		return strictEquals(a, b), nil
	}
	switch {
	case a.IsNullish() && b.IsNullish():
		return true, nil
	case a.IsNullish() || b.IsNullish():
		return false, nil
	case a.Tag == VTNum && b.Tag == VTStr:
		return a.Data.(float64) == stringToNumber(b.Data.(string)), nil
	case a.Tag == VTStr && b.Tag == VTNum:
		return stringToNumber(a.Data.(string)) == b.Data.(float64), nil
	case a.Tag == VTBool:
		n := 0.0
		if a.Data.(bool) {
			n = 1.0
		}
		return ip.looseEquals(Num(n), b)
	case b.Tag == VTBool:
		n := 0.0
		if b.Data.(bool) {
			n = 1.0
		}
		return ip.looseEquals(a, Num(n))
	case a.Tag == VTObj && (b.Tag == VTNum || b.Tag == VTStr):
		prim, sig := ip.toPrimitive(a, "number")
		if sig != nil {
			return false, sig
		}
		return ip.looseEquals(prim, b)
	case b.Tag == VTObj && (a.Tag == VTNum || a.Tag == VTStr):
		prim, sig := ip.toPrimitive(b, "number")
		if sig != nil {
			return false, sig
		}
		return ip.looseEquals(a, prim)
	}
	return false, nil
}
