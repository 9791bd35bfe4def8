// interpreter.go — public API surface for the Volt runtime.
//
// OVERVIEW
// ========
// Volt is an embeddable, tree-walking JavaScript engine. This file exposes the
// whole public surface: construction, evaluation entry points, host function
// registration, host-side calls into script values, and the GC controls. The
// evaluator itself lives in interpreter_exec.go (statements) and
// interpreter_ops.go (expressions and the property protocol); the object
// model, heap, and environments live in object.go, heap.go, and env.go.
//
// EXECUTION & SCOPING
// -------------------
// Script evaluates against a lexical chain of environments (env.go) rooted at
// a global scope backed by the global object: `var` and top-level function
// declarations become global-object properties, `let`/`const` live in a
// declarative table beside them. Entry points differ in which scope they
// target:
//   - EvalSource runs in a fresh child of the global scope, so top-level
//     `let` bindings are thrown away afterwards (`var` still reaches the
//     global object).
//   - EvalPersistentSource runs directly in the global scope (REPL style).
//
// COMPLETIONS AND ERRORS
// ----------------------
// Inside the evaluator, control flow is explicit: every eval/exec returns
// (Value, *signal) where a nil signal is normal completion and a non-nil one
// carries return/break/continue/throw. Script `throw` therefore never rides
// on Go panics, and `finally` can observe and override any completion kind.
//
// At the public boundary a throw that reaches the host becomes a
// *RuntimeError carrying the thrown value, rendered with a caret snippet
// (errors.go). Host-fatal conditions (evaluator bugs, malformed ASTs) panic
// internally and are recovered into plain errors by the Eval*/Apply wrappers.
//
// MEMORY
// ------
// All script-visible records live on the collected heap (heap.go). The
// interpreter registers itself as a root provider: the global object, the
// active environment stack, and a shadow stack of in-flight temporaries are
// the roots. Collection runs only at statement boundaries, so evaluator
// locals never hold the only reference to a live object when the collector
// looks. Hosts holding a Value across script calls pin it (Pin/Unpin on the
// heap) or park it on a global.
package volt

import (
	"fmt"
)

// sigKind discriminates abrupt completions.
type sigKind int

const (
	sigReturn sigKind = iota + 1
	sigBreak
	sigContinue
	sigThrow
)

// signal is an abrupt completion in flight. A nil *signal means normal
// completion. val carries the returned or thrown value; label is the target
// of a labeled break/continue ("" for the nearest enclosing loop).
type signal struct {
	kind  sigKind
	val   Value
	label string
}

func throwSig(v Value) *signal { return &signal{kind: sigThrow, val: v} }

// SourceRef identifies the compilation unit a function came from; used for
// error positions.
type SourceRef struct {
	Name  string
	Src   string
	Spans *SpanIndex
	Root  S // program node the spans were recorded against

	byNode map[*any]Span // lazy identity index, built on first spanOf
}

// spanOf resolves the span recorded for an AST node by identity, so function
// bodies resolve against their defining unit without path bookkeeping. The
// identity key is the address of the node's tag slot, stable for the life of
// the parsed tree.
func (r *SourceRef) spanOf(n S) (Span, bool) {
	if r.Spans == nil || len(n) == 0 {
		return Span{}, false
	}
	if r.byNode == nil {
		r.byNode = map[*any]Span{}
		var walk func(node S, path NodePath)
		walk = func(node S, path NodePath) {
			for ci := 1; ci < len(node); ci++ {
				if child, ok := node[ci].(S); ok {
					walk(child, append(path, ci-1))
				}
			}
			if sp, ok := r.Spans.Get(path); ok && len(node) > 0 {
				r.byNode[&node[0]] = sp
			}
		}
		if r.Root != nil {
			walk(r.Root, nil)
		}
	}
	sp, ok := r.byNode[&n[0]]
	return sp, ok
}

// RuntimeError is an uncaught script throw (or engine-raised error condition)
// surfaced to the host. Line/Col are 1-based; Thrown is the script value,
// valid only while the interpreter keeps it alive.
type RuntimeError struct {
	Msg    string
	Line   int
	Col    int
	Thrown Value
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("RUNTIME ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("RUNTIME ERROR: %s", e.Msg)
}

// Realm holds the intrinsic objects shared by everything evaluated in one
// interpreter: the global object and the built-in prototypes.
type Realm struct {
	GlobalObj *Object

	ObjectProto   *Object
	FunctionProto *Object
	ArrayProto    *Object
	StringProto   *Object
	NumberProto   *Object
	BooleanProto  *Object
	ErrorProto    *Object
	RegExpProto   *Object

	// Per-kind error prototypes, each chaining to ErrorProto.
	TypeErrorProto      *Object
	RangeErrorProto     *Object
	ReferenceErrorProto *Object
	SyntaxErrorProto    *Object
}

// maxCallDepth bounds script recursion; exceeding it throws a RangeError
// rather than exhausting the Go stack.
const maxCallDepth = 2500

// Interpreter is one isolated engine instance: heap, realm, global scope.
// It is not safe for concurrent use; run one per goroutine or serialize
// access externally.
type Interpreter struct {
	heap      *Heap
	realm     *Realm
	globalEnv *Env

	envStack  []*Env  // environments of active frames and blocks
	tmpRoots  []Value // shadow stack of in-flight temporaries
	thisStack []Value // receiver per active script frame

	srcStack []*SourceRef // innermost last; used for error positions
	depth    int          // current script call depth

	// Position of the most recently entered statement, for runtime error
	// reports (statement granularity).
	curLine int
	curCol  int
}

// NewInterpreter constructs an engine with a fresh heap, intrinsics, and
// global scope, and registers its roots with the collector.
func NewInterpreter() *Interpreter {
	ip := &Interpreter{heap: NewHeap()}
	ip.realm = newRealm(ip)
	ip.globalEnv = NewGlobalEnv(ip.heap, ip.realm.GlobalObj)
	ip.heap.AddRootProvider(func(visit func(Collectible)) {
		visit(ip.realm.GlobalObj)
		visit(ip.globalEnv)
		for _, e := range ip.envStack {
			visit(e)
		}
		for _, v := range ip.tmpRoots {
			if v.Tag == VTObj {
				visit(v.Obj())
			}
		}
		for _, v := range ip.thisStack {
			if v.Tag == VTObj {
				visit(v.Obj())
			}
		}
	})
	return ip
}

// Heap exposes the interpreter's heap for stats, pinning, and forced
// collection.
func (ip *Interpreter) Heap() *Heap { return ip.heap }

// Realm exposes the intrinsic objects (prototypes, global object).
func (ip *Interpreter) Realm() *Realm { return ip.realm }

// GlobalObject returns the global object; host code may set properties on it
// directly to publish values to scripts.
func (ip *Interpreter) GlobalObject() *Object { return ip.realm.GlobalObj }

// Collect forces a full garbage collection.
func (ip *Interpreter) Collect() { ip.heap.Collect() }

// EvalSource parses and evaluates src in a fresh child of the global scope.
// The result is the program's completion value (last expression statement).
func (ip *Interpreter) EvalSource(src string) (Value, error) {
	return ip.evalNamed("<eval>", src, false)
}

// EvalPersistentSource parses and evaluates src directly in the global scope,
// so top-level bindings persist across calls (REPL semantics).
func (ip *Interpreter) EvalPersistentSource(src string) (Value, error) {
	return ip.evalNamed("<repl>", src, true)
}

// EvalNamedSource is EvalPersistentSource with an explicit unit name used in
// error headers (typically a file path).
func (ip *Interpreter) EvalNamedSource(name, src string) (Value, error) {
	return ip.evalNamed(name, src, true)
}

func (ip *Interpreter) evalNamed(name, src string, persistent bool) (v Value, err error) {
	ast, spans, perr := ParseWithSpans(src)
	if perr != nil {
		return Undefined, WrapErrorWithName(perr, name, src)
	}
	ref := &SourceRef{Name: name, Src: src, Spans: spans, Root: ast}

	env := ip.globalEnv
	if !persistent {
		env = NewProgramEnv(ip.heap, ip.globalEnv)
	}

	defer ip.recoverFatal(&err)
	ip.srcStack = append(ip.srcStack, ref)
	defer func() { ip.srcStack = ip.srcStack[:len(ip.srcStack)-1] }()

	res, sig := ip.execProgram(ast, env, ref)
	if sig != nil {
		return Undefined, ip.signalToError(sig, ref)
	}
	return res, nil
}

// EvalAST evaluates an already-parsed program in the given environment. env
// nil means the global scope; ref may be nil, in which case runtime errors
// carry no source snippet.
func (ip *Interpreter) EvalAST(ast S, env *Env, ref *SourceRef) (v Value, err error) {
	if env == nil {
		env = ip.globalEnv
	}
	defer ip.recoverFatal(&err)
	if ref != nil {
		ip.srcStack = append(ip.srcStack, ref)
		defer func() { ip.srcStack = ip.srcStack[:len(ip.srcStack)-1] }()
	}
	res, sig := ip.execProgram(ast, env, ref)
	if sig != nil {
		return Undefined, ip.signalToError(sig, ref)
	}
	return res, nil
}

// Apply calls a script function value from the host. this may be Undefined.
func (ip *Interpreter) Apply(fn Value, this Value, args []Value) (v Value, err error) {
	defer ip.recoverFatal(&err)
	res, sig := ip.call(fn, this, args)
	if sig != nil {
		var ref *SourceRef
		if n := len(ip.srcStack); n > 0 {
			ref = ip.srcStack[n-1]
		}
		return Undefined, ip.signalToError(sig, ref)
	}
	return res, nil
}

// DefineNative publishes a host function as a global. The returned object can
// also be installed on prototypes by the caller.
func (ip *Interpreter) DefineNative(name string, arity int, fn NativeFn) *Object {
	o := ip.newNativeFunction(name, arity, fn)
	ip.realm.GlobalObj.setOwnData(name, ObjVal(o))
	return o
}

// newNativeFunction builds a callable object around a Go implementation.
func (ip *Interpreter) newNativeFunction(name string, arity int, fn NativeFn) *Object {
	o := newRawObject(ip.heap, ClassFunction, ip.realm.FunctionProto)
	o.Native = fn
	o.NativeName = name
	o.defineOwn("length", &Property{Value: Num(float64(arity)), Configurable: true})
	o.defineOwn("name", &Property{Value: Str(name), Configurable: true})
	return o
}

// recoverFatal converts an internal panic into a plain error at the public
// boundary. Script throws never travel this path.
func (ip *Interpreter) recoverFatal(err *error) {
	if r := recover(); r != nil {
		ip.envStack = ip.envStack[:0]
		ip.tmpRoots = ip.tmpRoots[:0]
		ip.thisStack = ip.thisStack[:0]
		ip.depth = 0
		*err = fmt.Errorf("volt: internal error: %v", r)
	}
}

// signalToError converts an escaping abrupt completion into a host error.
// Only throw can legally escape; anything else indicates a front-end defect
// and is reported the same way.
func (ip *Interpreter) signalToError(sig *signal, ref *SourceRef) error {
	if sig.kind != sigThrow {
		return &RuntimeError{Msg: fmt.Sprintf("illegal top-level %s", sigName(sig.kind))}
	}
	msg := ip.describeThrown(sig.val)
	re := &RuntimeError{Msg: msg, Thrown: sig.val, Line: ip.curLine, Col: ip.curCol}
	if ref != nil {
		return WrapErrorWithName(re, ref.Name, ref.Src)
	}
	return re
}

func sigName(k sigKind) string {
	switch k {
	case sigReturn:
		return "return"
	case sigBreak:
		return "break"
	case sigContinue:
		return "continue"
	default:
		return "throw"
	}
}

// describeThrown renders a thrown value for the host error message. Error
// objects render as "Name: message"; everything else through the printer.
func (ip *Interpreter) describeThrown(v Value) string {
	if v.Tag == VTObj && v.Obj().Class == ClassError {
		o := v.Obj()
		name := "Error"
		if pp, _ := o.findProp("name"); pp != nil && !pp.Accessor && pp.Value.Tag == VTStr {
			name = pp.Value.Data.(string)
		}
		msg := ""
		if pp, _ := o.findProp("message"); pp != nil && !pp.Accessor && pp.Value.Tag == VTStr {
			msg = pp.Value.Data.(string)
		}
		if msg == "" {
			return "uncaught " + name
		}
		return fmt.Sprintf("uncaught %s: %s", name, msg)
	}
	return "uncaught value: " + PrintValue(v)
}

// ─────────────────────────── root bookkeeping ───────────────────────────────

// protect pushes v on the temporary-root stack and returns a mark for
// release. Evaluator code protects any value it must hold across a child
// evaluation that can re-enter script.
func (ip *Interpreter) protect(v Value) int {
	ip.tmpRoots = append(ip.tmpRoots, v)
	return len(ip.tmpRoots) - 1
}

func (ip *Interpreter) release(mark int) {
	ip.tmpRoots = ip.tmpRoots[:mark]
}

func (ip *Interpreter) pushEnv(e *Env) {
	ip.envStack = append(ip.envStack, e)
}

func (ip *Interpreter) popEnv() {
	ip.envStack = ip.envStack[:len(ip.envStack)-1]
}

// ───────────────────────────── throw helpers ────────────────────────────────

// throwError builds an Error object on the given prototype and returns it as
// a throw signal.
func (ip *Interpreter) throwError(proto *Object, name, format string, args ...interface{}) *signal {
	o := newRawObject(ip.heap, ClassError, proto)
	o.setOwnData("name", Str(name))
	o.setOwnData("message", Str(fmt.Sprintf(format, args...)))
	return throwSig(ObjVal(o))
}

func (ip *Interpreter) throwTypeError(format string, args ...interface{}) *signal {
	return ip.throwError(ip.realm.TypeErrorProto, "TypeError", format, args...)
}

func (ip *Interpreter) throwRangeError(format string, args ...interface{}) *signal {
	return ip.throwError(ip.realm.RangeErrorProto, "RangeError", format, args...)
}

func (ip *Interpreter) throwReferenceError(format string, args ...interface{}) *signal {
	return ip.throwError(ip.realm.ReferenceErrorProto, "ReferenceError", format, args...)
}

func (ip *Interpreter) throwSyntaxError(format string, args ...interface{}) *signal {
	return ip.throwError(ip.realm.SyntaxErrorProto, "SyntaxError", format, args...)
}
