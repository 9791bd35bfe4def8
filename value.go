// value.go — the runtime value model.
//
// A Value is a small tagged sum covering every kind a Volt program can
// observe: undefined, null, booleans, IEEE-754 numbers, strings, and object
// references. Values are copied freely; only VTObj carries a reference, and
// that reference is a non-owning handle into the Heap (heap.go). Two Values
// holding the same *Object alias the same heap record.
//
// Strings are Go strings holding UTF-8; string builtins that need UTF-16
// code-unit semantics (charCodeAt, length) convert at the call site.
package volt

import (
	"math"
	"strconv"
)

// ValueTag enumerates all runtime kinds a Value may hold.
type ValueTag int

const (
	VTUndefined ValueTag = iota // no payload
	VTNull                      // no payload
	VTBool                      // bool
	VTNum                       // float64
	VTStr                       // string
	VTObj                       // *Object
)

// Value is the universal runtime carrier used by the interpreter.
// The tag determines which field of Data is valid.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Undefined and Null are the singleton absent values.
var (
	Undefined = Value{Tag: VTUndefined}
	Null      = Value{Tag: VTNull}
)

// Primitive constructors.
func Bool(b bool) Value      { return Value{Tag: VTBool, Data: b} }
func Num(f float64) Value    { return Value{Tag: VTNum, Data: f} }
func Int(n int) Value        { return Value{Tag: VTNum, Data: float64(n)} }
func Str(s string) Value     { return Value{Tag: VTStr, Data: s} }
func ObjVal(o *Object) Value { return Value{Tag: VTObj, Data: o} }
func NaN() Value             { return Value{Tag: VTNum, Data: math.NaN()} }

func (v Value) IsUndefined() bool { return v.Tag == VTUndefined }
func (v Value) IsNull() bool      { return v.Tag == VTNull }
func (v Value) IsNullish() bool   { return v.Tag == VTUndefined || v.Tag == VTNull }
func (v Value) IsObject() bool    { return v.Tag == VTObj }

// Obj returns the object reference or nil for non-object values.
func (v Value) Obj() *Object {
	if v.Tag != VTObj {
		return nil
	}
	return v.Data.(*Object)
}

func (v Value) boolVal() bool   { return v.Data.(bool) }
func (v Value) numVal() float64 { return v.Data.(float64) }
func (v Value) strVal() string  { return v.Data.(string) }

// TypeOf implements the typeof operator: note the historical "object" for
// null and "function" for callables.
func (v Value) TypeOf() string {
	switch v.Tag {
	case VTUndefined:
		return "undefined"
	case VTNull:
		return "object"
	case VTBool:
		return "boolean"
	case VTNum:
		return "number"
	case VTStr:
		return "string"
	case VTObj:
		if v.Obj().IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

// String renders a short debug representation. User-facing conversion lives
// in coerce.go (toString) and printer.go (REPL rendering).
func (v Value) String() string {
	switch v.Tag {
	case VTUndefined:
		return "undefined"
	case VTNull:
		return "null"
	case VTBool:
		return strconv.FormatBool(v.Data.(bool))
	case VTNum:
		return numberToString(v.Data.(float64))
	case VTStr:
		return strconv.Quote(v.Data.(string))
	case VTObj:
		return "<" + v.Obj().Class + ">"
	default:
		return "<unknown>"
	}
}

// SameValueZero-style identity used by strict equality on references.
func sameObject(a, b Value) bool {
	return a.Tag == VTObj && b.Tag == VTObj && a.Obj() == b.Obj()
}
