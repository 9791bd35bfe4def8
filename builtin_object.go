package volt

// Object constructor, Object.prototype, and the descriptor-level statics
// (defineProperty and friends). The __proto__ accessor also lives here; the
// evaluator itself never special-cases that name.

func registerObjectBuiltins(ip *Interpreter) {
	r := ip.realm

	objectCtor := ip.ctor("Object", 1, r.ObjectProto, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		arg := ctx.Arg(0)
		if arg.IsNullish() {
			return ObjVal(ip.NewObject()), nil
		}
		o, sig := ip.toObject(arg)
		if sig != nil {
			return Undefined, sig
		}
		return ObjVal(o), nil
	})

	ip.method(objectCtor, "keys", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := objArg(ip, ctx, 0, "Object.keys")
		if sig != nil {
			return Undefined, sig
		}
		keys := o.OwnKeys(true)
		elems := make([]Value, len(keys))
		for i, k := range keys {
			elems[i] = Str(k)
		}
		return ObjVal(ip.NewArray(elems)), nil
	})

	ip.method(objectCtor, "getOwnPropertyNames", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := objArg(ip, ctx, 0, "Object.getOwnPropertyNames")
		if sig != nil {
			return Undefined, sig
		}
		keys := o.OwnKeys(false)
		elems := make([]Value, len(keys))
		for i, k := range keys {
			elems[i] = Str(k)
		}
		return ObjVal(ip.NewArray(elems)), nil
	})

	ip.method(objectCtor, "create", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		var proto *Object
		switch arg := ctx.Arg(0); arg.Tag {
		case VTNull:
			proto = nil
		case VTObj:
			proto = arg.Obj()
		default:
			return Undefined, ip.throwTypeError("Object.create prototype must be an object or null")
		}
		o := newRawObject(ip.heap, ClassObject, proto)
		if props := ctx.Arg(1); !props.IsUndefined() {
			mark := ip.protect(ObjVal(o))
			sig := ip.definePropertiesFrom(o, props)
			ip.release(mark)
			if sig != nil {
				return Undefined, sig
			}
		}
		return ObjVal(o), nil
	})

	ip.method(objectCtor, "getPrototypeOf", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := objArg(ip, ctx, 0, "Object.getPrototypeOf")
		if sig != nil {
			return Undefined, sig
		}
		if o.Proto == nil {
			return Null, nil
		}
		return ObjVal(o.Proto), nil
	})

	ip.method(objectCtor, "setPrototypeOf", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := objArg(ip, ctx, 0, "Object.setPrototypeOf")
		if sig != nil {
			return Undefined, sig
		}
		if sig := setProtoChecked(ip, o, ctx.Arg(1)); sig != nil {
			return Undefined, sig
		}
		return ctx.Arg(0), nil
	})

	ip.method(objectCtor, "defineProperty", 3, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := objArg(ip, ctx, 0, "Object.defineProperty")
		if sig != nil {
			return Undefined, sig
		}
		key, sig := ip.toPropertyKey(ctx.Arg(1))
		if sig != nil {
			return Undefined, sig
		}
		if sig := ip.defineOneProperty(o, key, ctx.Arg(2)); sig != nil {
			return Undefined, sig
		}
		return ctx.Arg(0), nil
	})

	ip.method(objectCtor, "defineProperties", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := objArg(ip, ctx, 0, "Object.defineProperties")
		if sig != nil {
			return Undefined, sig
		}
		if sig := ip.definePropertiesFrom(o, ctx.Arg(1)); sig != nil {
			return Undefined, sig
		}
		return ctx.Arg(0), nil
	})

	ip.method(objectCtor, "getOwnPropertyDescriptor", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := objArg(ip, ctx, 0, "Object.getOwnPropertyDescriptor")
		if sig != nil {
			return Undefined, sig
		}
		key, sig := ip.toPropertyKey(ctx.Arg(1))
		if sig != nil {
			return Undefined, sig
		}
		p, ok := o.getOwn(key)
		if !ok {
			return Undefined, nil
		}
		return ObjVal(ip.descriptorObject(p)), nil
	})

	// Object.prototype methods.
	p := r.ObjectProto
	ip.method(p, "hasOwnProperty", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		key, sig := ip.toPropertyKey(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		o, sig := ip.toObject(ctx.This)
		if sig != nil {
			return Undefined, sig
		}
		return Bool(o.hasOwn(key)), nil
	})
	ip.method(p, "isPrototypeOf", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		arg := ctx.Arg(0)
		self := ctx.This.Obj()
		if self == nil || arg.Tag != VTObj {
			return Bool(false), nil
		}
		for q := arg.Obj().Proto; q != nil; q = q.Proto {
			if q == self {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})
	ip.method(p, "propertyIsEnumerable", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		key, sig := ip.toPropertyKey(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		o, sig := ip.toObject(ctx.This)
		if sig != nil {
			return Undefined, sig
		}
		prop, ok := o.getOwn(key)
		return Bool(ok && prop.Enumerable), nil
	})
	ip.method(p, "toString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		switch ctx.This.Tag {
		case VTUndefined:
			return Str("[object Undefined]"), nil
		case VTNull:
			return Str("[object Null]"), nil
		}
		o, sig := ip.toObject(ctx.This)
		if sig != nil {
			return Undefined, sig
		}
		class := o.Class
		if o.IsCallable() {
			class = "Function"
		}
		return Str("[object " + class + "]"), nil
	})
	ip.method(p, "valueOf", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := ip.toObject(ctx.This)
		if sig != nil {
			return Undefined, sig
		}
		return ObjVal(o), nil
	})

	// __proto__ as an ordinary accessor on Object.prototype, readable and
	// assignable like any inherited getter/setter pair.
	getter := ip.newNativeFunction("get __proto__", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o, sig := ip.toObject(ctx.This)
		if sig != nil {
			return Undefined, sig
		}
		if o.Proto == nil {
			return Null, nil
		}
		return ObjVal(o.Proto), nil
	})
	setter := ip.newNativeFunction("set __proto__", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		o := ctx.This.Obj()
		if o == nil {
			return Undefined, nil
		}
		// Non-object assignments are silently ignored, as on platforms.
		if v := ctx.Arg(0); v.Tag == VTObj || v.Tag == VTNull {
			if sig := setProtoChecked(ip, o, v); sig != nil {
				return Undefined, sig
			}
		}
		return Undefined, nil
	})
	p.defineOwn("__proto__", &Property{
		Getter: getter, Setter: setter, Accessor: true, Configurable: true,
	})
}

func objArg(ip *Interpreter, ctx *CallCtx, i int, who string) (*Object, *signal) {
	v := ctx.Arg(i)
	if v.Tag != VTObj {
		return nil, ip.throwTypeError("%s called on non-object", who)
	}
	return v.Obj(), nil
}

// setProtoChecked updates an object's prototype, rejecting chains that would
// loop back through the object itself.
func setProtoChecked(ip *Interpreter, o *Object, protoVal Value) *signal {
	var proto *Object
	switch protoVal.Tag {
	case VTNull:
		proto = nil
	case VTObj:
		proto = protoVal.Obj()
	default:
		return ip.throwTypeError("prototype must be an object or null")
	}
	for q := proto; q != nil; q = q.Proto {
		if q == o {
			return ip.throwTypeError("cyclic prototype chain")
		}
	}
	o.Proto = proto
	return nil
}

// defineOneProperty applies a descriptor object to o[key], enforcing the
// non-configurable redefinition rules.
func (ip *Interpreter) defineOneProperty(o *Object, key string, descVal Value) *signal {
	if descVal.Tag != VTObj {
		return ip.throwTypeError("property descriptor must be an object")
	}
	desc := descVal.Obj()

	np := &Property{}
	hasFlag := func(name string) (bool, bool, *signal) {
		if !hasProperty(desc, name) {
			return false, false, nil
		}
		v, sig := ip.getProp(descVal, name)
		if sig != nil {
			return false, false, sig
		}
		return ToBoolean(v), true, nil
	}

	w, hasW, sig := hasFlag("writable")
	if sig != nil {
		return sig
	}
	e, hasE, sig := hasFlag("enumerable")
	if sig != nil {
		return sig
	}
	c, hasC, sig := hasFlag("configurable")
	if sig != nil {
		return sig
	}
	np.Writable, np.Enumerable, np.Configurable = w, e, c

	hasValue := hasProperty(desc, "value")
	hasGet := hasProperty(desc, "get")
	hasSet := hasProperty(desc, "set")
	if (hasValue || hasW) && (hasGet || hasSet) {
		return ip.throwTypeError("descriptor cannot be both a data and an accessor descriptor")
	}

	if hasGet || hasSet {
		np.Accessor = true
		if hasGet {
			g, sig := ip.getProp(descVal, "get")
			if sig != nil {
				return sig
			}
			if !g.IsUndefined() {
				if g.Tag != VTObj || !g.Obj().IsCallable() {
					return ip.throwTypeError("getter must be a function")
				}
				np.Getter = g.Obj()
			}
		}
		if hasSet {
			s, sig := ip.getProp(descVal, "set")
			if sig != nil {
				return sig
			}
			if !s.IsUndefined() {
				if s.Tag != VTObj || !s.Obj().IsCallable() {
					return ip.throwTypeError("setter must be a function")
				}
				np.Setter = s.Obj()
			}
		}
	} else if hasValue {
		v, sig := ip.getProp(descVal, "value")
		if sig != nil {
			return sig
		}
		np.Value = v
	}

	old, exists := o.getOwn(key)
	if exists && !old.Configurable {
		// A non-configurable slot only tolerates a same-shape redefinition
		// that does not re-enable anything.
		if np.Accessor != old.Accessor || hasC && c || hasE && e != old.Enumerable {
			return ip.throwTypeError("cannot redefine property: %s", key)
		}
		if !old.Accessor {
			if hasW && w && !old.Writable {
				return ip.throwTypeError("cannot redefine property: %s", key)
			}
			if hasValue && !old.Writable && !strictEquals(np.Value, old.Value) {
				return ip.throwTypeError("cannot redefine property: %s", key)
			}
		} else if np.Getter != old.Getter || np.Setter != old.Setter {
			return ip.throwTypeError("cannot redefine property: %s", key)
		}
	}
	if exists && !np.Accessor && !hasValue {
		np.Value = old.Value
	}
	// Absent flags on a fresh property default to false; on an existing one
	// they keep their current setting.
	if exists {
		if !hasW {
			np.Writable = old.Writable
		}
		if !hasE {
			np.Enumerable = old.Enumerable
		}
		if !hasC {
			np.Configurable = old.Configurable
		}
	}
	o.defineOwn(key, np)
	return nil
}

func (ip *Interpreter) definePropertiesFrom(o *Object, propsVal Value) *signal {
	props, sig := ip.toObject(propsVal)
	if sig != nil {
		return sig
	}
	for _, k := range props.OwnKeys(true) {
		desc, sig := ip.getProp(ObjVal(props), k)
		if sig != nil {
			return sig
		}
		if sig := ip.defineOneProperty(o, k, desc); sig != nil {
			return sig
		}
	}
	return nil
}

// descriptorObject reflects a Property back into a script-visible object.
func (ip *Interpreter) descriptorObject(p *Property) *Object {
	d := ip.NewObject()
	if p.Accessor {
		if p.Getter != nil {
			d.setOwnData("get", ObjVal(p.Getter))
		} else {
			d.setOwnData("get", Undefined)
		}
		if p.Setter != nil {
			d.setOwnData("set", ObjVal(p.Setter))
		} else {
			d.setOwnData("set", Undefined)
		}
	} else {
		d.setOwnData("value", p.Value)
		d.setOwnData("writable", Bool(p.Writable))
	}
	d.setOwnData("enumerable", Bool(p.Enumerable))
	d.setOwnData("configurable", Bool(p.Configurable))
	return d
}
