// env.go — lexical environment records and binding cells.
//
// An Env maps identifier names to *binding cells and links to its enclosing
// record, forming a chain up to the global record. A binding is its own heap
// record, not a slot inside the Env's table: closures created in different
// scopes can hold references to the very same cell, and a mutation through
// one closure is visible through every other (the counter-closure behavior).
//
// The global record is object-backed: `var` and function declarations at the
// top level become properties of the global object, while top-level `let` and
// `const` stay in the record's own table. Every other record is declarative.
//
// Env and binding are both Collectible; a closure capturing an Env keeps the
// whole parent chain (and every cell in it) alive through reachability alone.
package volt

// binding is one named, mutable storage cell. mutable is false for const
// bindings; assignment checks it and raises a TypeError upstream.
type binding struct {
	gcHeader
	value   Value
	mutable bool
}

func (b *binding) Trace(visit func(Collectible)) {
	if b.value.Tag == VTObj {
		visit(b.value.Obj())
	}
}

func (b *binding) Finalize() { b.value = Undefined }

// Env is one lexical scope frame.
type Env struct {
	gcHeader
	parent  *Env
	names   map[string]*binding
	global  *Object // non-nil only on the object-backed global record
	varHost *Env    // program scopes forward var/function declarations here
}

// NewEnv creates a declarative record chained to parent (which may be nil
// only for the global record).
func NewEnv(h *Heap, parent *Env) *Env {
	e := &Env{parent: parent, names: map[string]*binding{}}
	h.adopt(e)
	return e
}

// NewGlobalEnv creates the outermost, object-backed record.
func NewGlobalEnv(h *Heap, globalObj *Object) *Env {
	e := NewEnv(h, nil)
	e.global = globalObj
	return e
}

// NewProgramEnv creates a program-level record chained to parent. Its own
// table holds top-level lexical bindings, which are discarded with the
// record, while var and function declarations forward to parent so they land
// on the enclosing var scope (the global record, for top-level programs).
func NewProgramEnv(h *Heap, parent *Env) *Env {
	e := NewEnv(h, parent)
	e.varHost = parent
	return e
}

func (e *Env) Trace(visit func(Collectible)) {
	if e.parent != nil {
		visit(e.parent)
	}
	for _, b := range e.names {
		visit(b)
	}
	if e.global != nil {
		visit(e.global)
	}
	if e.varHost != nil {
		visit(e.varHost)
	}
}

func (e *Env) Finalize() {
	e.parent = nil
	e.names = nil
	e.global = nil
	e.varHost = nil
}

// Declare creates a lexical binding in this record. It reports false when the
// name already exists here as an immutable binding (const redeclaration);
// mutable redeclaration overwrites, matching var/function laxity.
func (e *Env) Declare(h *Heap, name string, v Value, mutable bool) bool {
	if old, ok := e.names[name]; ok {
		if !old.mutable {
			return false
		}
		old.value = v
		old.mutable = mutable
		return true
	}
	b := &binding{value: v, mutable: mutable}
	h.adopt(b)
	e.names[name] = b
	return true
}

// DeclareVar performs a function-scoped (var/function) declaration: on the
// global record it lands on the global object, elsewhere it is an ordinary
// mutable binding.
func (e *Env) DeclareVar(h *Heap, name string, v Value) {
	if e.varHost != nil {
		e.varHost.DeclareVar(h, name, v)
		return
	}
	if e.global != nil {
		e.global.setOwnData(name, v)
		return
	}
	e.Declare(h, name, v, true)
}

// LookupLocal resolves name against this record only (its own table, or its
// backing object for the global record, or the var host for program
// records). Hoisting uses it to avoid resetting an already-bound var.
func (e *Env) LookupLocal(name string) (b *binding, owner *Object, ok bool) {
	if bind, hit := e.names[name]; hit {
		return bind, nil, true
	}
	if e.global != nil {
		if _, holder := e.global.findProp(name); holder != nil {
			return nil, e.global, true
		}
	}
	if e.varHost != nil {
		return e.varHost.LookupLocal(name)
	}
	return nil, nil, false
}

// Lookup resolves name against this record and its ancestors. Exactly one of
// the returns is meaningful: a binding cell for declarative hits, or the
// global object when the name resolved to one of its properties. ok is false
// when no record binds the name.
func (e *Env) Lookup(name string) (b *binding, owner *Object, ok bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if bind, hit := cur.names[name]; hit {
			return bind, nil, true
		}
		if cur.global != nil {
			if _, holder := cur.global.findProp(name); holder != nil {
				return nil, cur.global, true
			}
		}
	}
	return nil, nil, false
}

// Global walks to the chain's outermost record and returns its backing
// object (nil when the chain was built without one, as in unit tests).
func (e *Env) Global() *Object {
	cur := e
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur.global
}
