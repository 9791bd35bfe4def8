// interpreter_exec.go — PRIVATE: statement execution.
//
// Statement evaluation returns (Value, *signal). A nil signal is normal
// completion; the value is the statement's completion value (meaningful for
// expression statements and for blocks and try statements, which complete
// with their last inner value; EvalSource ultimately returns the program's).
// Abrupt completions flow outward as signals until a construct consumes them:
// loops consume break/continue, function calls consume return, try consumes
// throw, and `finally` may replace any of them with its own.
//
// Scoping per construct:
//   - Blocks get a fresh child environment; their own `function` declarations
//     are instantiated at block entry.
//   - Function and program bodies hoist `var` names (initialized undefined)
//     and function declarations before the first statement runs.
//   - for-loops with `let` headers re-create the bindings each iteration so
//     closures made in the body capture that iteration's values.
//
// GC safe points sit between statements (heap.maybeCollect). Evaluator code
// that must hold a value across a child evaluation protects it on the
// temporary-root stack (interpreter.go).
package volt

// execProgram runs a parsed program node in env, with hoisting, and returns
// the completion value of the last value-producing statement.
func (ip *Interpreter) execProgram(ast S, env *Env, ref *SourceRef) (Value, *signal) {
	if Tag(ast) != "program" {
		panic("execProgram: not a program node")
	}
	ip.pushEnv(env)
	defer ip.popEnv()

	if sig := ip.hoistScope(ast[1:], env, ref); sig != nil {
		return Undefined, sig
	}
	return ip.execStmts(ast[1:], env, ref)
}

func isStatementTag(tag string) bool {
	switch tag {
	case "nop", "var", "let", "const", "fndecl", "if", "while", "do",
		"for", "forin", "return", "throw", "break", "continue", "label":
		return true
	}
	return false
}

// noteStmt records the current statement's source position for runtime error
// reporting. Position tracking is statement-granular.
func (ip *Interpreter) noteStmt(n S, ref *SourceRef) {
	if ref == nil || ref.Spans == nil {
		return
	}
	if sp, ok := ref.spanOf(n); ok {
		ip.curLine, ip.curCol = lineColForOffset(ref.Src, sp.StartByte)
	}
}

// ───────────────────────────────── hoisting ─────────────────────────────────

// hoistScope performs function-scope hoisting over a statement list: every
// `var` name anywhere in the list (not crossing function boundaries) is
// declared undefined, and every top-level function declaration is
// instantiated. Existing bindings keep their values, so re-running a program
// in a persistent scope does not reset state.
func (ip *Interpreter) hoistScope(stmts []any, env *Env, ref *SourceRef) *signal {
	var names []string
	for _, c := range stmts {
		collectVarNames(c.(S), &names)
	}
	for _, nm := range names {
		if _, _, ok := env.LookupLocal(nm); !ok {
			env.DeclareVar(ip.heap, nm, Undefined)
		}
	}
	return ip.hoistFunctions(stmts, env, ref)
}

// hoistFunctions instantiates the function declarations appearing directly in
// a statement list. Blocks call this for their own level at entry.
func (ip *Interpreter) hoistFunctions(stmts []any, env *Env, ref *SourceRef) *signal {
	for _, c := range stmts {
		s := c.(S)
		if Tag(s) != "fndecl" {
			continue
		}
		name := s[1].(string)
		fn := ip.makeFunction(name, s[2].(S), s[3].(S), env, ref, false, Undefined)
		env.DeclareVar(ip.heap, name, ObjVal(fn))
	}
	return nil
}

// collectVarNames gathers `var` names from a statement subtree without
// descending into nested functions.
func collectVarNames(n S, out *[]string) {
	switch Tag(n) {
	case "var":
		for i := 1; i+1 < len(n); i += 2 {
			*out = append(*out, n[i].(string))
		}
	case "program", "block":
		for _, c := range n[1:] {
			collectVarNames(c.(S), out)
		}
	case "if":
		collectVarNames(n[2].(S), out)
		if len(n) > 3 {
			collectVarNames(n[3].(S), out)
		}
	case "while":
		collectVarNames(n[2].(S), out)
	case "do":
		collectVarNames(n[1].(S), out)
	case "for":
		collectVarNames(n[1].(S), out)
		collectVarNames(n[4].(S), out)
	case "forin":
		if n[1].(string) == "var" {
			*out = append(*out, n[2].(string))
		}
		collectVarNames(n[4].(S), out)
	case "label":
		collectVarNames(n[2].(S), out)
	case "try":
		collectVarNames(n[1].(S), out)
		if cb, ok := n[3].(S); ok {
			collectVarNames(cb, out)
		}
		if fb, ok := n[4].(S); ok {
			collectVarNames(fb, out)
		}
	}
}

// ──────────────────────────── statement dispatch ────────────────────────────

func (ip *Interpreter) execStmt(n S, env *Env, ref *SourceRef) (Value, *signal) {
	switch Tag(n) {
	case "nop", "fndecl":
		// fndecl is instantiated during hoisting.
		return Undefined, nil
	case "block":
		return ip.execBlock(n, env, ref)
	case "var":
		return ip.execVarDecl(n, env, ref)
	case "let", "const":
		return ip.execLexicalDecl(n, env, ref)
	case "if":
		return ip.execIf(n, env, ref)
	case "while":
		return ip.execWhile(n, env, ref, "")
	case "do":
		return ip.execDoWhile(n, env, ref, "")
	case "for":
		return ip.execFor(n, env, ref, "")
	case "forin":
		return ip.execForIn(n, env, ref, "")
	case "return":
		v, sig := ip.eval(n[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		return Undefined, &signal{kind: sigReturn, val: v}
	case "throw":
		v, sig := ip.eval(n[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		return Undefined, throwSig(v)
	case "break":
		return Undefined, &signal{kind: sigBreak, label: n[1].(string)}
	case "continue":
		return Undefined, &signal{kind: sigContinue, label: n[1].(string)}
	case "label":
		return ip.execLabeled(n, env, ref)
	case "try":
		return ip.execTry(n, env, ref)
	default:
		return ip.eval(n, env, ref)
	}
}

func (ip *Interpreter) execBlock(n S, env *Env, ref *SourceRef) (Value, *signal) {
	inner := NewEnv(ip.heap, env)
	ip.pushEnv(inner)
	defer ip.popEnv()
	if sig := ip.hoistFunctions(n[1:], inner, ref); sig != nil {
		return Undefined, sig
	}
	return ip.execStmts(n[1:], inner, ref)
}

// execStmts runs a statement list in an existing environment with safe
// points between statements. The pending completion value sits on the
// temporary-root stack so a collection at a statement boundary cannot
// reclaim it.
func (ip *Interpreter) execStmts(stmts []any, env *Env, ref *SourceRef) (Value, *signal) {
	result := Undefined
	slot := ip.protect(result)
	defer ip.release(slot)
	for _, c := range stmts {
		stmt := c.(S)
		ip.heap.maybeCollect()
		ip.noteStmt(stmt, ref)
		v, sig := ip.execStmt(stmt, env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if !isStatementTag(Tag(stmt)) {
			result = v
			ip.tmpRoots[slot] = v
		}
	}
	return result, nil
}

// execVarDecl assigns initializers; the names themselves were hoisted.
func (ip *Interpreter) execVarDecl(n S, env *Env, ref *SourceRef) (Value, *signal) {
	for i := 1; i+1 < len(n); i += 2 {
		name := n[i].(string)
		init := n[i+1].(S)
		if Tag(init) == "undef" {
			continue // hoisting already bound undefined; do not reset
		}
		v, sig := ip.eval(init, env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if sig := ip.assignName(name, v, env); sig != nil {
			return Undefined, sig
		}
	}
	return Undefined, nil
}

func (ip *Interpreter) execLexicalDecl(n S, env *Env, ref *SourceRef) (Value, *signal) {
	mutable := Tag(n) == "let"
	for i := 1; i+1 < len(n); i += 2 {
		name := n[i].(string)
		v, sig := ip.eval(n[i+1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if !env.Declare(ip.heap, name, v, mutable) {
			return Undefined, ip.throwSyntaxError("identifier %q has already been declared", name)
		}
	}
	return Undefined, nil
}

func (ip *Interpreter) execIf(n S, env *Env, ref *SourceRef) (Value, *signal) {
	cond, sig := ip.eval(n[1].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	if ToBoolean(cond) {
		return ip.execStmt(n[2].(S), env, ref)
	}
	if len(n) > 3 {
		return ip.execStmt(n[3].(S), env, ref)
	}
	return Undefined, nil
}

// loopSignal folds a body completion into loop control: (stop, propagate).
func loopSignal(sig *signal, label string) (stop bool, out *signal) {
	if sig == nil {
		return false, nil
	}
	switch sig.kind {
	case sigBreak:
		if sig.label == "" || sig.label == label {
			return true, nil
		}
		return true, sig
	case sigContinue:
		if sig.label == "" || sig.label == label {
			return false, nil
		}
		return true, sig
	default:
		return true, sig
	}
}

func (ip *Interpreter) execWhile(n S, env *Env, ref *SourceRef, label string) (Value, *signal) {
	for {
		ip.heap.maybeCollect()
		cond, sig := ip.eval(n[1].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if !ToBoolean(cond) {
			return Undefined, nil
		}
		_, bodySig := ip.execStmt(n[2].(S), env, ref)
		if stop, out := loopSignal(bodySig, label); stop {
			return Undefined, out
		}
	}
}

func (ip *Interpreter) execDoWhile(n S, env *Env, ref *SourceRef, label string) (Value, *signal) {
	for {
		ip.heap.maybeCollect()
		_, bodySig := ip.execStmt(n[1].(S), env, ref)
		if stop, out := loopSignal(bodySig, label); stop {
			return Undefined, out
		}
		cond, sig := ip.eval(n[2].(S), env, ref)
		if sig != nil {
			return Undefined, sig
		}
		if !ToBoolean(cond) {
			return Undefined, nil
		}
	}
}

// execFor runs the classic three-clause loop. A `let`/`const` header gets
// per-iteration bindings: the loop variables are copied into a fresh scope
// before each post-clause evaluation, so closures made in iteration i keep
// seeing iteration i's values.
func (ip *Interpreter) execFor(n S, env *Env, ref *SourceRef, label string) (Value, *signal) {
	init, cond, post, body := n[1].(S), n[2].(S), n[3].(S), n[4].(S)

	cur := env
	var letNames []string
	switch Tag(init) {
	case "let", "const":
		cur = NewEnv(ip.heap, env)
		ip.pushEnv(cur)
		defer ip.popEnv()
		if _, sig := ip.execLexicalDecl(init, cur, ref); sig != nil {
			return Undefined, sig
		}
		for i := 1; i+1 < len(init); i += 2 {
			letNames = append(letNames, init[i].(string))
		}
		if Tag(init) == "let" {
			next, sig := ip.copyLoopScope(cur, env, letNames)
			if sig != nil {
				return Undefined, sig
			}
			cur = next
			ip.envStack[len(ip.envStack)-1] = cur
		}
	case "nop":
	case "var":
		if _, sig := ip.execVarDecl(init, cur, ref); sig != nil {
			return Undefined, sig
		}
	default:
		if _, sig := ip.eval(init, cur, ref); sig != nil {
			return Undefined, sig
		}
	}

	for {
		ip.heap.maybeCollect()
		if Tag(cond) != "nop" {
			c, sig := ip.eval(cond, cur, ref)
			if sig != nil {
				return Undefined, sig
			}
			if !ToBoolean(c) {
				return Undefined, nil
			}
		}
		_, bodySig := ip.execStmt(body, cur, ref)
		if stop, out := loopSignal(bodySig, label); stop {
			return Undefined, out
		}
		if len(letNames) > 0 && Tag(init) == "let" {
			next, sig := ip.copyLoopScope(cur, env, letNames)
			if sig != nil {
				return Undefined, sig
			}
			cur = next
			ip.envStack[len(ip.envStack)-1] = cur
		}
		if Tag(post) != "nop" {
			if _, sig := ip.eval(post, cur, ref); sig != nil {
				return Undefined, sig
			}
		}
	}
}

// copyLoopScope builds a fresh child of outer holding new mutable bindings
// for the loop variables, seeded with their current values.
func (ip *Interpreter) copyLoopScope(from, outer *Env, names []string) (*Env, *signal) {
	next := NewEnv(ip.heap, outer)
	for _, nm := range names {
		b, _, ok := from.Lookup(nm)
		if !ok || b == nil {
			return nil, ip.throwReferenceError("%s is not defined", nm)
		}
		next.Declare(ip.heap, nm, b.value, true)
	}
	return next, nil
}

// execForIn enumerates the string keys of the object (own and inherited,
// enumerable, shadowed names once) in integer-first order. The key list is
// snapshotted before the first iteration; deletions during the walk simply
// skip keys that are gone.
func (ip *Interpreter) execForIn(n S, env *Env, ref *SourceRef, label string) (Value, *signal) {
	declKind := n[1].(string)
	name := n[2].(string)
	obj, sig := ip.eval(n[3].(S), env, ref)
	if sig != nil {
		return Undefined, sig
	}
	if obj.IsNullish() {
		return Undefined, nil
	}
	mark := ip.protect(obj)
	defer ip.release(mark)
	o, osig := ip.toObject(obj)
	if osig != nil {
		return Undefined, osig
	}
	keys := o.EnumKeys()

	if declKind == "var" {
		if _, _, ok := env.Lookup(name); !ok {
			env.DeclareVar(ip.heap, name, Undefined)
		}
	}
	for _, key := range keys {
		ip.heap.maybeCollect()
		if p, _ := o.findProp(key); p == nil {
			continue // deleted mid-walk
		}
		iterEnv := env
		switch declKind {
		case "let", "const":
			iterEnv = NewEnv(ip.heap, env)
			iterEnv.Declare(ip.heap, name, Str(key), declKind == "let")
			ip.pushEnv(iterEnv)
		default:
			if sig := ip.assignName(name, Str(key), env); sig != nil {
				return Undefined, sig
			}
		}
		_, bodySig := ip.execStmt(n[4].(S), iterEnv, ref)
		if iterEnv != env {
			ip.popEnv()
		}
		if stop, out := loopSignal(bodySig, label); stop {
			return Undefined, out
		}
	}
	return Undefined, nil
}

// execLabeled forwards the label into a directly-labeled loop so labeled
// continue works; any other statement just filters its own break.
func (ip *Interpreter) execLabeled(n S, env *Env, ref *SourceRef) (Value, *signal) {
	label := n[1].(string)
	body := n[2].(S)
	var sig *signal
	switch Tag(body) {
	case "while":
		_, sig = ip.execWhile(body, env, ref, label)
	case "do":
		_, sig = ip.execDoWhile(body, env, ref, label)
	case "for":
		_, sig = ip.execFor(body, env, ref, label)
	case "forin":
		_, sig = ip.execForIn(body, env, ref, label)
	default:
		_, sig = ip.execStmt(body, env, ref)
		if sig != nil && sig.kind == sigBreak && sig.label == label {
			sig = nil
		}
	}
	return Undefined, sig
}

// execTry implements try/catch/finally over signals. The statement completes
// with the value of whichever of the try or catch blocks ran last; the
// finally block contributes no value, but its own abrupt completion replaces
// whatever the try/catch produced, including a pending return or throw.
func (ip *Interpreter) execTry(n S, env *Env, ref *SourceRef) (Value, *signal) {
	catchParam := n[2].(string)
	catchBlock := n[3].(S)
	finallyBlock := n[4].(S)

	val, sig := ip.execBlock(n[1].(S), env, ref)

	if sig != nil && sig.kind == sigThrow && Tag(catchBlock) == "block" {
		mark := ip.protect(sig.val)
		catchEnv := NewEnv(ip.heap, env)
		catchEnv.Declare(ip.heap, catchParam, sig.val, true)
		ip.release(mark)
		ip.pushEnv(catchEnv)
		if hf := ip.hoistFunctions(catchBlock[1:], catchEnv, ref); hf != nil {
			val, sig = Undefined, hf
		} else {
			val, sig = ip.execStmts(catchBlock[1:], catchEnv, ref)
		}
		ip.popEnv()
	}

	if Tag(finallyBlock) == "block" {
		mark := ip.protect(val)
		if sig != nil && sig.val.Tag == VTObj {
			ip.protect(sig.val)
		}
		_, fsig := ip.execBlock(finallyBlock, env, ref)
		ip.release(mark)
		if fsig != nil {
			val, sig = Undefined, fsig // finally overrides the pending completion
		}
	}
	if sig != nil {
		return Undefined, sig
	}
	return val, nil
}
