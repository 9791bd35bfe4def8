// object.go — the object model: property storage, descriptors, prototype
// links, arrays, and function payloads.
//
// An *Object is a heap record (heap.go) holding:
//   - a class tag (ClassObject, ClassArray, ClassFunction, ClassError, ...)
//     governing built-in behavior,
//   - an optional prototype link consulted by property lookup,
//   - a descriptor table keyed by string with insertion order preserved,
//   - for arrays, a dense element store addressed by canonical integer keys,
//   - for functions, either a script definition (params + body + captured
//     environment) or a native callable plus traced capture slots.
//
// This file is descriptor-level only: own-property read/write/delete/define,
// prototype-chain search, and key enumeration. The operations that can run
// script — getter/setter dispatch, calls, coercion — live on *Interpreter
// (interpreter_eval.go) because they re-enter the evaluator.
//
// Enumeration order: canonical integer-like keys first in ascending numeric
// order, then the remaining string keys in insertion order. for...in and
// Object.keys both rely on OwnKeys returning exactly this order.
package volt

import (
	"sort"
	"strconv"
)

// Class tags. The tag selects built-in behavior (array length handling,
// callability, Error stringification); it is not visible to scripts except
// through Object.prototype.toString.
const (
	ClassObject   = "Object"
	ClassArray    = "Array"
	ClassFunction = "Function"
	ClassError    = "Error"
	ClassRegExp   = "RegExp"
	ClassMath     = "Math"
	ClassJSON     = "JSON"
)

// Property is one descriptor slot: either a data property (Value + Writable)
// or an accessor (Getter/Setter function objects, either may be nil).
type Property struct {
	Value    Value
	Getter   *Object
	Setter   *Object
	Accessor bool

	Writable     bool
	Enumerable   bool
	Configurable bool
}

// FunDef is the script payload of a function object: parameter names, the
// body AST, and the environment captured at definition time. Arrow functions
// additionally capture `this` lexically.
type FunDef struct {
	Name     string
	Params   []string
	Body     S // a ("block", ...) node, or a bare expression when ExprBody
	Env      *Env
	Arrow    bool
	ExprBody bool  // arrow with expression body: evaluate and return Body
	This     Value // lexical this for arrows
	Src      *SourceRef
}

// CallCtx carries the invocation context handed to native functions.
type CallCtx struct {
	This Value
	Args []Value
	Fn   *Object // the function object being invoked (capture slots live here)
}

// Arg returns the i-th argument or Undefined when absent; JS callables never
// see an arity error.
func (c *CallCtx) Arg(i int) Value {
	if i < 0 || i >= len(c.Args) {
		return Undefined
	}
	return c.Args[i]
}

// NativeFn is the implementation signature for registered host functions.
// A non-nil signal is always a throw, flowing through the same completion
// channel as script exceptions.
type NativeFn func(ip *Interpreter, ctx *CallCtx) (Value, *signal)

// Object is the single heap-object representation. Which payload fields are
// meaningful depends on Class; unused ones stay nil.
type Object struct {
	gcHeader

	Class string
	Proto *Object

	props map[string]*Property
	keys  []string // insertion order of props

	elems []Value      // dense storage; ClassArray only
	holes map[int]bool // deleted element slots still within len(elems)

	// Callable payloads (ClassFunction).
	Def        *FunDef
	Native     NativeFn
	NativeName string
	Captured   []Value // traced slots for native closures (bind targets etc.)

	// Primitive holds the wrapped value for transient string/number wrapper
	// objects produced by member access on primitives.
	Primitive Value
}

// newRawObject builds an object of the given class/prototype and adopts it
// into the heap. Callers normally use the Interpreter constructors, which fill
// in realm prototypes.
func newRawObject(h *Heap, class string, proto *Object) *Object {
	o := &Object{Class: class, Proto: proto, props: map[string]*Property{}}
	h.adopt(o)
	return o
}

func (o *Object) IsCallable() bool { return o.Def != nil || o.Native != nil }
func (o *Object) IsArray() bool    { return o.Class == ClassArray }

// Trace visits every reference this object holds. The collector's
// correctness depends on this enumeration being exhaustive: prototype,
// property values and accessors, array elements, native capture slots, and a
// script function's captured environment.
func (o *Object) Trace(visit func(Collectible)) {
	if o.Proto != nil {
		visit(o.Proto)
	}
	for _, p := range o.props {
		if p.Accessor {
			if p.Getter != nil {
				visit(p.Getter)
			}
			if p.Setter != nil {
				visit(p.Setter)
			}
		} else if p.Value.Tag == VTObj {
			visit(p.Value.Obj())
		}
	}
	for _, e := range o.elems {
		if e.Tag == VTObj {
			visit(e.Obj())
		}
	}
	for _, c := range o.Captured {
		if c.Tag == VTObj {
			visit(c.Obj())
		}
	}
	if o.Def != nil {
		if o.Def.Env != nil {
			visit(o.Def.Env)
		}
		if o.Def.This.Tag == VTObj {
			visit(o.Def.This.Obj())
		}
	}
	if o.Primitive.Tag == VTObj {
		visit(o.Primitive.Obj())
	}
}

// Finalize drops payload references so the sweep breaks the object graph
// apart even if the host still holds a stale *Object.
func (o *Object) Finalize() {
	o.Proto = nil
	o.props = nil
	o.keys = nil
	o.elems = nil
	o.holes = nil
	o.Captured = nil
	o.Def = nil
	o.Native = nil
}

// ----------------------------------------------------------------------------
// Canonical integer keys
// ----------------------------------------------------------------------------

// arrayIndex reports whether key is a canonical array index ("0", "17", no
// leading zeros, below 2^32-1) and returns it.
func arrayIndex(key string) (int, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	if key == "0" {
		return 0, true
	}
	if key[0] == '0' {
		return 0, false
	}
	n := 0
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n < 0 || uint64(n) >= 1<<32-1 {
		return 0, false
	}
	return n, true
}

// ----------------------------------------------------------------------------
// Own-property access (no prototype walk, no script re-entry)
// ----------------------------------------------------------------------------

// getOwn returns the own descriptor for key. Array element and length slots
// are synthesized on the fly.
func (o *Object) getOwn(key string) (*Property, bool) {
	if o.IsArray() {
		if idx, ok := arrayIndex(key); ok {
			if idx < len(o.elems) && !o.holes[idx] {
				return &Property{Value: o.elems[idx], Writable: true, Enumerable: true, Configurable: true}, true
			}
			return nil, false
		}
		if key == "length" {
			return &Property{Value: Num(float64(len(o.elems))), Writable: true}, true
		}
	}
	p, ok := o.props[key]
	return p, ok
}

// hasOwn avoids descriptor synthesis where only existence matters.
func (o *Object) hasOwn(key string) bool {
	if o.IsArray() {
		if idx, ok := arrayIndex(key); ok {
			return idx < len(o.elems) && !o.holes[idx]
		}
		if key == "length" {
			return true
		}
	}
	_, ok := o.props[key]
	return ok
}

// SetOwn creates or overwrites an own data property with default flags. It
// is the host-facing way to publish values onto an object.
func (o *Object) SetOwn(key string, v Value) { o.setOwnData(key, v) }

// setOwnData creates or overwrites an own data property with default flags
// (writable/enumerable/configurable). Used for literal construction and
// builtin installation; the descriptor-honoring path is in builtin_object.go.
func (o *Object) setOwnData(key string, v Value) {
	if o.IsArray() {
		if idx, ok := arrayIndex(key); ok {
			o.setElem(idx, v)
			return
		}
		if key == "length" {
			o.setLength(v)
			return
		}
	}
	if p, ok := o.props[key]; ok {
		p.Value = v
		p.Getter, p.Setter, p.Accessor = nil, nil, false
		return
	}
	o.props[key] = &Property{Value: v, Writable: true, Enumerable: true, Configurable: true}
	o.keys = append(o.keys, key)
}

// defineOwn installs a fully specified descriptor, replacing any existing
// slot. Flag validation against an existing non-configurable descriptor is
// the caller's job (builtin_object.go).
func (o *Object) defineOwn(key string, p *Property) {
	if o.IsArray() {
		if idx, ok := arrayIndex(key); ok && !p.Accessor {
			o.setElem(idx, p.Value)
			return
		}
	}
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = p
}

// deleteOwn removes an own property. It reports false — without mutating —
// when the property exists but is non-configurable.
func (o *Object) deleteOwn(key string) bool {
	if o.IsArray() {
		if idx, ok := arrayIndex(key); ok {
			if idx < len(o.elems) {
				// Deleting an element leaves a hole: the slot stays
				// within length but no longer exists as a property.
				o.elems[idx] = Undefined
				if o.holes == nil {
					o.holes = map[int]bool{}
				}
				o.holes[idx] = true
			}
			return true
		}
		if key == "length" {
			return false
		}
	}
	p, ok := o.props[key]
	if !ok {
		return true
	}
	if !p.Configurable {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// findProp walks the prototype chain and returns the first descriptor for
// key, plus the object that owns it.
func (o *Object) findProp(key string) (*Property, *Object) {
	for cur := o; cur != nil; cur = cur.Proto {
		if p, ok := cur.getOwn(key); ok {
			return p, cur
		}
	}
	return nil, nil
}

// ----------------------------------------------------------------------------
// Array element store
// ----------------------------------------------------------------------------

func (o *Object) setElem(idx int, v Value) {
	for len(o.elems) <= idx {
		o.elems = append(o.elems, Undefined)
	}
	o.elems[idx] = v
	delete(o.holes, idx)
}

// setLength truncates or extends the dense store. Non-integer lengths are a
// RangeError; that check happens in the interpreter path before calling here.
func (o *Object) setLength(v Value) {
	n := 0
	if v.Tag == VTNum {
		n = int(v.numVal())
	}
	if n < 0 {
		n = 0
	}
	for len(o.elems) < n {
		o.elems = append(o.elems, Undefined)
	}
	o.elems = o.elems[:n]
	for i := range o.holes {
		if i >= n {
			delete(o.holes, i)
		}
	}
}

// Elems exposes the dense element slice (builtins mutate it directly).
func (o *Object) Elems() []Value { return o.elems }

// SetElems replaces the dense store wholesale; any former holes are gone.
func (o *Object) SetElems(xs []Value) { o.elems = xs; o.holes = nil }

// ----------------------------------------------------------------------------
// Enumeration
// ----------------------------------------------------------------------------

// OwnKeys returns own property keys in specification order: integer-like
// keys ascending, then string keys in insertion order. When enumerableOnly is
// set, non-enumerable slots are skipped.
func (o *Object) OwnKeys(enumerableOnly bool) []string {
	var idxKeys []int
	var strKeys []string
	if o.IsArray() {
		for i := range o.elems {
			if !o.holes[i] {
				idxKeys = append(idxKeys, i)
			}
		}
	}
	for _, k := range o.keys {
		p := o.props[k]
		if enumerableOnly && !p.Enumerable {
			continue
		}
		if i, ok := arrayIndex(k); ok && !o.IsArray() {
			idxKeys = append(idxKeys, i)
			continue
		}
		strKeys = append(strKeys, k)
	}
	sort.Ints(idxKeys)
	out := make([]string, 0, len(idxKeys)+len(strKeys))
	for _, i := range idxKeys {
		out = append(out, strconv.Itoa(i))
	}
	return append(out, strKeys...)
}

// EnumKeys returns the keys visited by for...in: own enumerable keys first,
// then the prototype chain's, skipping shadowed names.
func (o *Object) EnumKeys() []string {
	var out []string
	seen := map[string]bool{}
	for cur := o; cur != nil; cur = cur.Proto {
		for _, k := range cur.OwnKeys(true) {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
