package volt

// Function.prototype methods. Bound functions keep their target, receiver,
// and partial arguments in the function object's Captured slots so the
// collector can see them.

func registerFunctionBuiltins(ip *Interpreter) {
	p := ip.realm.FunctionProto

	ip.ctor("Function", 0, p, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		return Undefined, ip.throwTypeError("runtime function construction is not supported")
	})

	ip.method(p, "call", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		fn, sig := callableThis(ip, ctx, "call")
		if sig != nil {
			return Undefined, sig
		}
		var args []Value
		if len(ctx.Args) > 1 {
			args = ctx.Args[1:]
		}
		return ip.call(ObjVal(fn), ctx.Arg(0), args)
	})

	ip.method(p, "apply", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		fn, sig := callableThis(ip, ctx, "apply")
		if sig != nil {
			return Undefined, sig
		}
		var args []Value
		switch list := ctx.Arg(1); list.Tag {
		case VTUndefined, VTNull:
		case VTObj:
			o := list.Obj()
			n, sig := ip.lengthOf(o)
			if sig != nil {
				return Undefined, sig
			}
			args = make([]Value, n)
			for i := 0; i < n; i++ {
				v, sig := ip.getProp(list, numberToString(float64(i)))
				if sig != nil {
					return Undefined, sig
				}
				args[i] = v
			}
		default:
			return Undefined, ip.throwTypeError("apply argument list must be an object")
		}
		return ip.call(ObjVal(fn), ctx.Arg(0), args)
	})

	ip.method(p, "bind", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		target, sig := callableThis(ip, ctx, "bind")
		if sig != nil {
			return Undefined, sig
		}
		captured := make([]Value, 0, len(ctx.Args)+2)
		captured = append(captured, ObjVal(target), ctx.Arg(0))
		if len(ctx.Args) > 1 {
			captured = append(captured, ctx.Args[1:]...)
		}

		name := "bound " + functionName(target)
		bound := ip.newNativeFunction(name, 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
			slots := ctx.Fn.Captured
			args := make([]Value, 0, len(slots)-2+len(ctx.Args))
			args = append(args, slots[2:]...)
			args = append(args, ctx.Args...)
			return ip.call(slots[0], slots[1], args)
		})
		bound.Captured = captured
		return ObjVal(bound), nil
	})

	ip.method(p, "toString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		fn := ctx.This.Obj()
		if fn == nil || !fn.IsCallable() {
			return Undefined, ip.throwTypeError("Function.prototype.toString called on non-function")
		}
		name := functionName(fn)
		if name == "" {
			return Str("function () { [native code] }"), nil
		}
		return Str("function " + name + "() { [native code] }"), nil
	})
}

func callableThis(ip *Interpreter, ctx *CallCtx, method string) (*Object, *signal) {
	o := ctx.This.Obj()
	if o == nil || !o.IsCallable() {
		return nil, ip.throwTypeError("Function.prototype.%s called on non-function", method)
	}
	return o, nil
}

// lengthOf reads and clamps an object's length property to a non-negative
// element count.
func (ip *Interpreter) lengthOf(o *Object) (int, *signal) {
	v, sig := ip.getProp(ObjVal(o), "length")
	if sig != nil {
		return 0, sig
	}
	n, sig := ip.toNumber(v)
	if sig != nil {
		return 0, sig
	}
	f := toInteger(n)
	if f < 0 {
		return 0, nil
	}
	if f > 1<<31 {
		f = 1 << 31
	}
	return int(f), nil
}
