// interpreter_ops.go — PRIVATE: expression evaluation, the property access
// protocol, calls and construction.
//
// Everything here follows the same contract as statement execution: a
// (Value, *signal) pair where a non-nil signal is an abrupt completion. The
// property protocol (getProp/setProp/deleteProp) is the single funnel for
// script-visible reads and writes, so accessor dispatch, prototype-chain
// search, primitive wrappers, and array length handling live in one place.
//
// Operator semantics follow the coercion tables in coerce.go: `+`
// concatenates after to-primitive when either side is a string, the other
// arithmetic operators go through to-number, and the relational operators
// compare strings lexicographically when both sides convert to strings.
//
// Concurrency model (isolates): a single *Interpreter is not re-entrant from
// multiple goroutines. All state touched here is per-interpreter; there are
// no package-level mutable singletons. For parallelism run one Interpreter
// per goroutine; Values never cross between them.
package volt

import (
	"math"
	"strings"
	"unicode/utf16"
)

// thisVal is the receiver of the innermost active frame; at top level it is
// the global object.
func (ip *Interpreter) thisVal() Value {
	if n := len(ip.thisStack); n > 0 {
		return ip.thisStack[n-1]
	}
	return ObjVal(ip.realm.GlobalObj)
}

// ─────────────────────────── expression dispatch ────────────────────────────

func (ip *Interpreter) eval(n S, env *Env, ref *SourceRef) (Value, *signal) {
	switch Tag(n) {
	case "num":
		return Num(n[1].(float64)), nil
	case "str":
		return Str(n[1].(string)), nil
	case "bool":
		return Bool(n[1].(bool)), nil
	case "null":
		return Null, nil
	case "undef":
		return Undefined, nil
	case "this":
		return ip.thisVal(), nil
	case "id":
		return ip.lookupName(n[1].(string), env)
	case "arr":
		return ip.evalArrayLiteral(n, env, ref)
	case "obj":
		return ip.evalObjectLiteral(n, env, ref)
	case "fn":
		return ip.evalFunctionExpr(n, env, ref)
	case "arrow":
		return ip.evalArrowExpr(n, env, ref)
	case "assign":
		return ip.evalAssign(n, env, ref)
	case "opassign":
		return ip.evalOpAssign(n, env, ref)
	case "update":
		return ip.evalUpdate(n, env, ref)
	case "cond":
		c, sig := ip.eval(n[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if ToBoolean(c) {
			return ip.eval(n[2].(S), env, ref)
		}
		return ip.eval(n[3].(S), env, ref)
	case "logic":
		return ip.evalLogic(n, env, ref)
	case "binop":
		return ip.evalBinop(n, env, ref)
	case "unop":
		return ip.evalUnop(n, env, ref)
	case "member":
		base, sig := ip.eval(n[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		return ip.getProp(base, n[2].(string))
	case "index":
		return ip.evalIndex(n, env, ref)
	case "call":
		return ip.evalCall(n, env, ref)
	case "new":
		return ip.evalNew(n, env, ref)
	case "seq":
		if _, sig := ip.eval(n[1].(S), env, ref); sig != nil {
			return Undefined, sig
		}
		return ip.eval(n[2].(S), env, ref)
	}
	panic("eval: unknown node tag " + Tag(n))
}

// ─────────────────────────── names and bindings ─────────────────────────────

func (ip *Interpreter) lookupName(name string, env *Env) (Value, *signal) {
	b, owner, ok := env.Lookup(name)
	if !ok {
		return Undefined, ip.throwReferenceError("%s is not defined", name)
	}
	if b != nil {
		return b.value, nil
	}
	// Global-object hit: run the access through the property protocol so
	// accessors fire.
	return ip.getProp(ObjVal(owner), name)
}

// assignName writes through the resolved binding; an unresolved name lands on
// the global object (sloppy-mode implicit global).
func (ip *Interpreter) assignName(name string, v Value, env *Env) *signal {
	b, owner, ok := env.Lookup(name)
	if !ok {
		ip.realm.GlobalObj.setOwnData(name, v)
		return nil
	}
	if b != nil {
		if !b.mutable {
			return ip.throwTypeError("assignment to constant variable %q", name)
		}
		b.value = v
		return nil
	}
	return ip.setProp(ObjVal(owner), name, v)
}

// ─────────────────────────────── literals ───────────────────────────────────

func (ip *Interpreter) evalArrayLiteral(n S, env *Env, ref *SourceRef) (Value, *signal) {
	arr := ip.NewArray(nil)
	mark := ip.protect(ObjVal(arr))
	defer ip.release(mark)
	for _, c := range n[1:] {
		v, sig := ip.eval(c.(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		arr.SetElems(append(arr.Elems(), v))
	}
	return ObjVal(arr), nil
}

func (ip *Interpreter) evalObjectLiteral(n S, env *Env, ref *SourceRef) (Value, *signal) {
	o := ip.NewObject()
	mark := ip.protect(ObjVal(o))
	defer ip.release(mark)
	for _, c := range n[1:] {
		entry := c.(S)
		key := entry[1].(S)[1].(string)
		switch Tag(entry) {
		case "prop":
			v, sig := ip.eval(entry[2].(S), env, ref)
			if sig != nil {
				return Undefined, sig
			}
			o.setOwnData(key, v)
		case "getter", "setter":
			fv, sig := ip.eval(entry[2].(S), env, ref)
			if sig != nil {
				return Undefined, sig
			}
			fn := fv.Obj()
			p, ok := o.getOwn(key)
			if !ok || !p.Accessor {
				p = &Property{Accessor: true, Enumerable: true, Configurable: true}
				o.defineOwn(key, p)
			}
			if Tag(entry) == "getter" {
				p.Getter = fn
			} else {
				p.Setter = fn
			}
		}
	}
	return ObjVal(o), nil
}

// ─────────────────────────────── functions ──────────────────────────────────

// makeFunction builds a script function object closing over env. Non-arrow
// functions get a fresh .prototype with a constructor back-link.
func (ip *Interpreter) makeFunction(name string, params S, body S, env *Env, ref *SourceRef, arrow bool, lexThis Value) *Object {
	var paramNames []string
	for _, p := range params[1:] {
		paramNames = append(paramNames, p.(string))
	}
	fo := newRawObject(ip.heap, ClassFunction, ip.realm.FunctionProto)
	fo.Def = &FunDef{
		Name:   name,
		Params: paramNames,
		Body:   body,
		Env:    env,
		Arrow:  arrow,
		This:   lexThis,
		Src:    ref,
	}
	fo.defineOwn("length", &Property{Value: Num(float64(len(paramNames))), Configurable: true})
	fo.defineOwn("name", &Property{Value: Str(name), Configurable: true})
	if !arrow {
		proto := newRawObject(ip.heap, ClassObject, ip.realm.ObjectProto)
		proto.defineOwn("constructor", &Property{Value: ObjVal(fo), Writable: true, Configurable: true})
		fo.defineOwn("prototype", &Property{Value: ObjVal(proto), Writable: true})
	}
	return fo
}

// evalFunctionExpr makes the closure; a named function expression can refer
// to itself through an extra immutable binding in its closure scope.
func (ip *Interpreter) evalFunctionExpr(n S, env *Env, ref *SourceRef) (Value, *signal) {
	name := n[1].(string)
	closureEnv := env
	if name != "" {
		closureEnv = NewEnv(ip.heap, env)
	}
	fn := ip.makeFunction(name, n[2].(S), n[3].(S), closureEnv, ref, false, Undefined)
	if name != "" {
		closureEnv.Declare(ip.heap, name, ObjVal(fn), false)
	}
	return ObjVal(fn), nil
}

func (ip *Interpreter) evalArrowExpr(n S, env *Env, ref *SourceRef) (Value, *signal) {
	fn := ip.makeFunction("", n[1].(S), n[2].(S), env, ref, true, ip.thisVal())
	fn.Def.ExprBody = n[3].(bool)
	return ObjVal(fn), nil
}

// ────────────────────────────── calls ───────────────────────────────────────

// evalCall evaluates callee and arguments. A member/index callee binds the
// base object as the receiver.
func (ip *Interpreter) evalCall(n S, env *Env, ref *SourceRef) (Value, *signal) {
	calleeNode := n[1].(S)
	this := Undefined
	var fn Value
	mark := len(ip.tmpRoots)
	defer ip.release(mark)

	switch Tag(calleeNode) {
	case "member":
		base, sig := ip.eval(calleeNode[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		ip.protect(base)
		f, sig := ip.getProp(base, calleeNode[2].(string))
		if sig != nil {
			return Undefined, sig
		}
		this, fn = base, f
	case "index":
		base, sig := ip.eval(calleeNode[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		ip.protect(base)
		kv, sig := ip.eval(calleeNode[2].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		key, sig := ip.toPropertyKey(kv)
		if sig != nil {
			return Undefined, sig
		}
		f, sig := ip.getProp(base, key)
		if sig != nil {
			return Undefined, sig
		}
		this, fn = base, f
	default:
		f, sig := ip.eval(calleeNode, env, ref)
		if sig != nil {
			return Undefined, sig
		}
		fn = f
	}
	ip.protect(fn)

	args, sig := ip.evalArgs(n[2:], env, ref)
	if sig != nil {
		return Undefined, sig
	}
	if fn.Tag != VTObj || !fn.Obj().IsCallable() {
		return Undefined, ip.throwTypeError("%s is not a function", describeCallee(calleeNode))
	}
	return ip.call(fn, this, args)
}

func describeCallee(n S) string {
	switch Tag(n) {
	case "id":
		return n[1].(string)
	case "member":
		return describeCallee(n[1].(S)) + "." + n[2].(string)
	}
	return "expression"
}

func (ip *Interpreter) evalArgs(nodes []any, env *Env, ref *SourceRef) ([]Value, *signal) {
	var args []Value
	for _, c := range nodes {
		v, sig := ip.eval(c.(S), env, ref)
		if sig != nil {
			return nil, sig
		}
		ip.protect(v)
		args = append(args, v)
	}
	return args, nil
}

// call invokes any callable value with an explicit receiver. It is the
// single entry point for script calls, native calls, and host Apply.
func (ip *Interpreter) call(fn Value, this Value, args []Value) (Value, *signal) {
	if fn.Tag != VTObj || !fn.Obj().IsCallable() {
		return Undefined, ip.throwTypeError("value is not a function")
	}
	if ip.depth >= maxCallDepth {
		return Undefined, ip.throwRangeError("maximum call stack size exceeded")
	}
	ip.depth++
	defer func() { ip.depth-- }()

	mark := ip.protect(fn)
	ip.protect(this)
	for _, a := range args {
		ip.protect(a)
	}
	defer ip.release(mark)

	f := fn.Obj()
	if f.Native != nil {
		return f.Native(ip, &CallCtx{This: this, Args: args, Fn: f})
	}

	def := f.Def
	frameEnv := NewEnv(ip.heap, def.Env)
	ip.pushEnv(frameEnv)
	defer ip.popEnv()

	recv := this
	if def.Arrow {
		recv = def.This
	} else if recv.IsNullish() {
		recv = ObjVal(ip.realm.GlobalObj)
	}
	ip.thisStack = append(ip.thisStack, recv)
	defer func() { ip.thisStack = ip.thisStack[:len(ip.thisStack)-1] }()

	for i, p := range def.Params {
		v := Undefined
		if i < len(args) {
			v = args[i]
		}
		frameEnv.Declare(ip.heap, p, v, true)
	}
	if !def.Arrow {
		argObj := ip.NewArray(append([]Value(nil), args...))
		frameEnv.Declare(ip.heap, "arguments", ObjVal(argObj), true)
	}

	if def.ExprBody {
		return ip.eval(def.Body, frameEnv, def.Src)
	}

	body := def.Body // ("block", stmt...)
	if sig := ip.hoistScope(body[1:], frameEnv, def.Src); sig != nil {
		return Undefined, sig
	}
	_, sig := ip.execStmts(body[1:], frameEnv, def.Src)
	if sig != nil {
		if sig.kind == sigReturn {
			return sig.val, nil
		}
		return Undefined, sig
	}
	return Undefined, nil
}

// evalNew implements `new F(args)`: allocate on F.prototype, call with the
// instance as receiver, keep the instance unless the body returned an
// object.
func (ip *Interpreter) evalNew(n S, env *Env, ref *SourceRef) (Value, *signal) {
	fn, sig := ip.eval(n[1].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	mark := ip.protect(fn)
	defer ip.release(mark)
	args, sig := ip.evalArgs(n[2:], env, ref)
	if sig != nil {
		return Undefined, sig
	}
	return ip.construct(fn, args)
}

func (ip *Interpreter) construct(fn Value, args []Value) (Value, *signal) {
	if fn.Tag != VTObj || !fn.Obj().IsCallable() {
		return Undefined, ip.throwTypeError("value is not a constructor")
	}
	f := fn.Obj()
	if f.Def != nil && f.Def.Arrow {
		return Undefined, ip.throwTypeError("arrow function is not a constructor")
	}

	proto := ip.realm.ObjectProto
	if p, _ := f.findProp("prototype"); p != nil && !p.Accessor && p.Value.Tag == VTObj {
		proto = p.Value.Obj()
	}
	inst := newRawObject(ip.heap, ClassObject, proto)
	mark := ip.protect(ObjVal(inst))
	defer ip.release(mark)

	res, sig := ip.call(fn, ObjVal(inst), args)
	if sig != nil {
		return Undefined, sig
	}
	if res.Tag == VTObj {
		return res, nil
	}
	return ObjVal(inst), nil
}

// ─────────────────────── property access protocol ───────────────────────────

// getProp reads base[key] with full semantics: primitive receivers resolve
// against their wrapper prototypes (plus string length/indexing), object
// receivers walk the prototype chain and dispatch getters with the original
// receiver as `this`.
func (ip *Interpreter) getProp(base Value, key string) (Value, *signal) {
	switch base.Tag {
	case VTUndefined, VTNull:
		return Undefined, ip.throwTypeError("cannot read property %q of %s", key, base.TypeOf())
	case VTStr:
		s := base.Data.(string)
		if key == "length" {
			return Num(float64(len(utf16.Encode([]rune(s))))), nil
		}
		if idx, ok := arrayIndex(key); ok {
			units := utf16.Encode([]rune(s))
			if idx < len(units) {
				return Str(string(utf16.Decode(units[idx : idx+1]))), nil
			}
			return Undefined, nil
		}
		return ip.protoGet(ip.realm.StringProto, key, base)
	case VTNum:
		return ip.protoGet(ip.realm.NumberProto, key, base)
	case VTBool:
		return ip.protoGet(ip.realm.BooleanProto, key, base)
	}

	o := base.Obj()
	p, _ := o.findProp(key)
	if p == nil {
		return Undefined, nil
	}
	if p.Accessor {
		if p.Getter == nil {
			return Undefined, nil
		}
		return ip.call(ObjVal(p.Getter), base, nil)
	}
	return p.Value, nil
}

func (ip *Interpreter) protoGet(proto *Object, key string, recv Value) (Value, *signal) {
	p, _ := proto.findProp(key)
	if p == nil {
		return Undefined, nil
	}
	if p.Accessor {
		if p.Getter == nil {
			return Undefined, nil
		}
		return ip.call(ObjVal(p.Getter), recv, nil)
	}
	return p.Value, nil
}

// setProp writes base[key] = v. Setters anywhere on the chain win; a
// read-only data property anywhere on the chain makes the write a silent
// no-op (sloppy mode); otherwise the write creates or updates an own data
// property on the receiver.
func (ip *Interpreter) setProp(base Value, key string, v Value) *signal {
	switch base.Tag {
	case VTUndefined, VTNull:
		return ip.throwTypeError("cannot set property %q of %s", key, base.TypeOf())
	case VTStr, VTNum, VTBool:
		// Property writes on primitives evaporate with the transient wrapper.
		return nil
	}
	o := base.Obj()

	if o.IsArray() && key == "length" {
		f, sig := ip.toNumber(v)
		if sig != nil {
			return sig
		}
		if f != math.Trunc(f) || f < 0 || math.IsNaN(f) || f > float64(1<<32-1) {
			return ip.throwRangeError("invalid array length")
		}
		o.setLength(Num(f))
		return nil
	}

	p, holder := o.findProp(key)
	if p != nil {
		if p.Accessor {
			if p.Setter == nil {
				return nil
			}
			_, sig := ip.call(ObjVal(p.Setter), base, []Value{v})
			return sig
		}
		if holder == o {
			if !p.Writable && !isArrayElemKey(o, key) {
				return nil
			}
			o.setOwnData(key, v)
			return nil
		}
		if !p.Writable {
			return nil
		}
	}
	o.setOwnData(key, v)
	return nil
}

func isArrayElemKey(o *Object, key string) bool {
	if !o.IsArray() {
		return false
	}
	_, ok := arrayIndex(key)
	return ok
}

// deleteProp removes base[key]; true means the property is gone (or never
// existed), false that a non-configurable property refused.
func (ip *Interpreter) deleteProp(base Value, key string) (bool, *signal) {
	if base.Tag != VTObj {
		if base.IsNullish() {
			return false, ip.throwTypeError("cannot delete property %q of %s", key, base.TypeOf())
		}
		return true, nil
	}
	return base.Obj().deleteOwn(key), nil
}

// hasProperty reports key existence on the whole prototype chain (`in`).
func hasProperty(o *Object, key string) bool {
	p, _ := o.findProp(key)
	return p != nil
}

// ─────────────────────────── assignment forms ───────────────────────────────

func (ip *Interpreter) evalAssign(n S, env *Env, ref *SourceRef) (Value, *signal) {
	target := n[1].(S)
	switch Tag(target) {
	case "id":
		v, sig := ip.eval(n[2].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if sig := ip.assignName(target[1].(string), v, env); sig != nil {
			return Undefined, sig
		}
		return v, nil
	case "member":
		base, sig := ip.eval(target[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		mark := ip.protect(base)
		defer ip.release(mark)
		v, sig := ip.eval(n[2].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if sig := ip.setProp(base, target[2].(string), v); sig != nil {
			return Undefined, sig
		}
		return v, nil
	case "index":
		base, sig := ip.eval(target[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		mark := ip.protect(base)
		defer ip.release(mark)
		kv, sig := ip.eval(target[2].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		ip.protect(kv)
		key, sig := ip.toPropertyKey(kv)
		if sig != nil {
			return Undefined, sig
		}
		v, sig := ip.eval(n[2].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if sig := ip.setProp(base, key, v); sig != nil {
			return Undefined, sig
		}
		return v, nil
	}
	return Undefined, ip.throwSyntaxError("invalid assignment target")
}

func (ip *Interpreter) evalOpAssign(n S, env *Env, ref *SourceRef) (Value, *signal) {
	op := n[1].(string)
	target := n[2].(S)
	mark := len(ip.tmpRoots)
	defer ip.release(mark)
	old, put, sig := ip.evalTargetRef(target, env, ref)
	if sig != nil {
		return Undefined, sig
	}
	ip.protect(old)
	rhs, sig := ip.eval(n[3].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	res, sig := ip.applyBinop(op, old, rhs)
	if sig != nil {
		return Undefined, sig
	}
	if sig := put(res); sig != nil {
		return Undefined, sig
	}
	return res, nil
}

// evalTargetRef reads the current value of an assignable target and returns
// a writer that stores back into the same slot (base and key evaluated only
// once). Values it pushes on the temporary-root stack stay live until the
// caller releases its own mark.
func (ip *Interpreter) evalTargetRef(target S, env *Env, ref *SourceRef) (Value, func(Value) *signal, *signal) {
	switch Tag(target) {
	case "id":
		name := target[1].(string)
		old, sig := ip.lookupName(name, env)
		if sig != nil {
			return Undefined, nil, sig
		}
		return old, func(v Value) *signal { return ip.assignName(name, v, env) }, nil
	case "member":
		base, sig := ip.eval(target[1].(S), env, ref)
		if sig != nil {
			return Undefined, nil, sig
		}
		ip.protect(base)
		key := target[2].(string)
		old, sig := ip.getProp(base, key)
		if sig != nil {
			return Undefined, nil, sig
		}
		return old, func(v Value) *signal { return ip.setProp(base, key, v) }, nil
	case "index":
		base, sig := ip.eval(target[1].(S), env, ref)
		if sig != nil {
			return Undefined, nil, sig
		}
		ip.protect(base)
		kv, sig := ip.eval(target[2].(S), env, ref)
		if sig != nil {
			return Undefined, nil, sig
		}
		key, sig := ip.toPropertyKey(kv)
		if sig != nil {
			return Undefined, nil, sig
		}
		old, sig := ip.getProp(base, key)
		if sig != nil {
			return Undefined, nil, sig
		}
		return old, func(v Value) *signal { return ip.setProp(base, key, v) }, nil
	}
	return Undefined, nil, ip.throwSyntaxError("invalid assignment target")
}

func (ip *Interpreter) evalUpdate(n S, env *Env, ref *SourceRef) (Value, *signal) {
	op := n[1].(string)
	prefix := n[2].(bool)
	mark := len(ip.tmpRoots)
	defer ip.release(mark)
	old, put, sig := ip.evalTargetRef(n[3].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	f, sig := ip.toNumber(old)
	if sig != nil {
		return Undefined, sig
	}
	delta := 1.0
	if op == "--" {
		delta = -1.0
	}
	next := Num(f + delta)
	if sig := put(next); sig != nil {
		return Undefined, sig
	}
	if prefix {
		return next, nil
	}
	return Num(f), nil
}

// ─────────────────────────────── operators ──────────────────────────────────

func (ip *Interpreter) evalLogic(n S, env *Env, ref *SourceRef) (Value, *signal) {
	l, sig := ip.eval(n[2].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	if n[1].(string) == "&&" {
		if !ToBoolean(l) {
			return l, nil
		}
	} else {
		if ToBoolean(l) {
			return l, nil
		}
	}
	return ip.eval(n[3].(S), env, ref)
}

func (ip *Interpreter) evalBinop(n S, env *Env, ref *SourceRef) (Value, *signal) {
	op := n[1].(string)
	l, sig := ip.eval(n[2].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	mark := ip.protect(l)
	r, sig := ip.eval(n[3].(S), env, ref)
	ip.release(mark)
	if sig != nil {
		return Undefined, sig
	}
	return ip.applyBinop(op, l, r)
}

func (ip *Interpreter) applyBinop(op string, l, r Value) (Value, *signal) {
	switch op {
	case "+":
		return ip.addValues(l, r)
	case "-", "*", "/", "%":
		a, sig := ip.toNumber(l)
		if sig != nil {
			return Undefined, sig
		}
		b, sig := ip.toNumber(r)
		if sig != nil {
			return Undefined, sig
		}
		switch op {
		case "-":
			return Num(a - b), nil
		case "*":
			return Num(a * b), nil
		case "/":
			return Num(a / b), nil
		default:
			return Num(math.Mod(a, b)), nil
		}
	case "<", "<=", ">", ">=":
		return ip.compareValues(op, l, r)
	case "==":
		eq, sig := ip.looseEquals(l, r)
		if sig != nil {
			return Undefined, sig
		}
		return Bool(eq), nil
	case "!=":
		eq, sig := ip.looseEquals(l, r)
		if sig != nil {
			return Undefined, sig
		}
		return Bool(!eq), nil
	case "===":
		return Bool(strictEquals(l, r)), nil
	case "!==":
		return Bool(!strictEquals(l, r)), nil
	case "instanceof":
		return ip.instanceOf(l, r)
	case "in":
		if r.Tag != VTObj {
			return Undefined, ip.throwTypeError("cannot use 'in' operator on %s", r.TypeOf())
		}
		key, sig := ip.toPropertyKey(l)
		if sig != nil {
			return Undefined, sig
		}
		return Bool(hasProperty(r.Obj(), key)), nil
	}
	panic("applyBinop: unknown operator " + op)
}

// addValues implements `+`: to-primitive both sides, concatenate when either
// is a string, otherwise numeric addition.
func (ip *Interpreter) addValues(l, r Value) (Value, *signal) {
	mark := ip.protect(l)
	ip.protect(r)
	defer ip.release(mark)
	lp, sig := ip.toPrimitive(l, "")
	if sig != nil {
		return Undefined, sig
	}
	ip.protect(lp)
	rp, sig := ip.toPrimitive(r, "")
	if sig != nil {
		return Undefined, sig
	}
	if lp.Tag == VTStr || rp.Tag == VTStr {
		ls, sig := ip.toString(lp)
		if sig != nil {
			return Undefined, sig
		}
		rs, sig := ip.toString(rp)
		if sig != nil {
			return Undefined, sig
		}
		return Str(ls + rs), nil
	}
	a, sig := ip.toNumber(lp)
	if sig != nil {
		return Undefined, sig
	}
	b, sig := ip.toNumber(rp)
	if sig != nil {
		return Undefined, sig
	}
	return Num(a + b), nil
}

// compareValues implements the relational operators: string comparison when
// both primitives are strings, numeric otherwise (NaN makes every comparison
// false).
func (ip *Interpreter) compareValues(op string, l, r Value) (Value, *signal) {
	mark := ip.protect(l)
	ip.protect(r)
	lp, sig := ip.toPrimitive(l, "number")
	if sig != nil {
		ip.release(mark)
		return Undefined, sig
	}
	rp, sig := ip.toPrimitive(r, "number")
	ip.release(mark)
	if sig != nil {
		return Undefined, sig
	}
	if lp.Tag == VTStr && rp.Tag == VTStr {
		a, b := lp.Data.(string), rp.Data.(string)
		var res bool
		switch op {
		case "<":
			res = strings.Compare(a, b) < 0
		case "<=":
			res = strings.Compare(a, b) <= 0
		case ">":
			res = strings.Compare(a, b) > 0
		default:
			res = strings.Compare(a, b) >= 0
		}
		return Bool(res), nil
	}
	a, sig := ip.toNumber(lp)
	if sig != nil {
		return Undefined, sig
	}
	b, sig := ip.toNumber(rp)
	if sig != nil {
		return Undefined, sig
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return Bool(false), nil
	}
	var res bool
	switch op {
	case "<":
		res = a < b
	case "<=":
		res = a <= b
	case ">":
		res = a > b
	default:
		res = a >= b
	}
	return Bool(res), nil
}

func (ip *Interpreter) instanceOf(l, r Value) (Value, *signal) {
	if r.Tag != VTObj || !r.Obj().IsCallable() {
		return Undefined, ip.throwTypeError("right-hand side of 'instanceof' is not callable")
	}
	p, _ := r.Obj().findProp("prototype")
	if p == nil || p.Accessor || p.Value.Tag != VTObj {
		return Undefined, ip.throwTypeError("function has non-object prototype in 'instanceof'")
	}
	target := p.Value.Obj()
	if l.Tag != VTObj {
		return Bool(false), nil
	}
	for cur := l.Obj().Proto; cur != nil; cur = cur.Proto {
		if cur == target {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func (ip *Interpreter) evalUnop(n S, env *Env, ref *SourceRef) (Value, *signal) {
	op := n[1].(string)
	operand := n[2].(S)

	switch op {
	case "typeof":
		// typeof tolerates unresolved identifiers.
		if Tag(operand) == "id" {
			if _, _, ok := env.Lookup(operand[1].(string)); !ok {
				return Str("undefined"), nil
			}
		}
		v, sig := ip.eval(operand, env, ref)
		if sig != nil {
			return Undefined, sig
		}
		return Str(v.TypeOf()), nil
	case "delete":
		switch Tag(operand) {
		case "member":
			base, sig := ip.eval(operand[1].(S), env, ref)
			if sig != nil {
				return Undefined, sig
			}
			ok, sig := ip.deleteProp(base, operand[2].(string))
			if sig != nil {
				return Undefined, sig
			}
			return Bool(ok), nil
		case "index":
			base, sig := ip.eval(operand[1].(S), env, ref)
			if sig != nil {
				return Undefined, sig
			}
			mark := ip.protect(base)
			defer ip.release(mark)
			kv, sig := ip.eval(operand[2].(S), env, ref)
			if sig != nil {
				return Undefined, sig
			}
			key, sig := ip.toPropertyKey(kv)
			if sig != nil {
				return Undefined, sig
			}
			ok, sig := ip.deleteProp(base, key)
			if sig != nil {
				return Undefined, sig
			}
			return Bool(ok), nil
		case "id":
			// Deleting a declared binding fails; an undeclared name is
			// vacuously deletable.
			name := operand[1].(string)
			if b, owner, ok := env.Lookup(name); ok {
				if b != nil {
					return Bool(false), nil
				}
				return Bool(owner.deleteOwn(name)), nil
			}
			return Bool(true), nil
		default:
			if _, sig := ip.eval(operand, env, ref); sig != nil {
				return Undefined, sig
			}
			return Bool(true), nil
		}
	}

	v, sig := ip.eval(operand, env, ref)
	if sig != nil {
		return Undefined, sig
	}
	switch op {
	case "-":
		f, sig := ip.toNumber(v)
		if sig != nil {
			return Undefined, sig
		}
		return Num(-f), nil
	case "+":
		f, sig := ip.toNumber(v)
		if sig != nil {
			return Undefined, sig
		}
		return Num(f), nil
	case "!":
		return Bool(!ToBoolean(v)), nil
	case "void":
		return Undefined, nil
	}
	panic("evalUnop: unknown operator " + op)
}

func (ip *Interpreter) evalIndex(n S, env *Env, ref *SourceRef) (Value, *signal) {
	base, sig := ip.eval(n[1].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	mark := ip.protect(base)
	defer ip.release(mark)
	kv, sig := ip.eval(n[2].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	key, sig := ip.toPropertyKey(kv)
	if sig != nil {
		return Undefined, sig
	}
	return ip.getProp(base, key)
}

// ───────────────────────── object constructors ──────────────────────────────

// NewObject allocates a plain object on Object.prototype.
func (ip *Interpreter) NewObject() *Object {
	return newRawObject(ip.heap, ClassObject, ip.realm.ObjectProto)
}

// NewArray allocates an array with the given dense elements (may be nil).
func (ip *Interpreter) NewArray(elems []Value) *Object {
	a := newRawObject(ip.heap, ClassArray, ip.realm.ArrayProto)
	a.SetElems(elems)
	return a
}

// NewError allocates an Error-class object with name and message set.
func (ip *Interpreter) NewError(proto *Object, name, message string) *Object {
	if proto == nil {
		proto = ip.realm.ErrorProto
	}
	o := newRawObject(ip.heap, ClassError, proto)
	o.setOwnData("name", Str(name))
	o.setOwnData("message", Str(message))
	return o
}
