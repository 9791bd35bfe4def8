package volt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// JSON.parse and JSON.stringify. Parsing walks the decoder token stream so
// object key order survives; stringify detects cycles and supports the
// replacer and space parameters.

func registerJSONBuiltins(ip *Interpreter) {
	j := newRawObject(ip.heap, ClassJSON, ip.realm.ObjectProto)
	defData(ip.realm.GlobalObj, "JSON", ObjVal(j))

	ip.method(j, "parse", 2, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		text, sig := ip.toString(ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		v, err := ip.decodeJSONValue(dec)
		if err != nil {
			return Undefined, ip.throwError(ip.realm.SyntaxErrorProto, "SyntaxError", "invalid JSON: %v", err)
		}
		if _, err := dec.Token(); err == nil {
			return Undefined, ip.throwError(ip.realm.SyntaxErrorProto, "SyntaxError", "invalid JSON: trailing content")
		}
		if reviver := ctx.Arg(1); reviver.Tag == VTObj && reviver.Obj().IsCallable() {
			holder := ip.NewObject()
			holder.setOwnData("", v)
			mark := ip.protect(ObjVal(holder))
			defer ip.release(mark)
			return ip.reviveJSON(ObjVal(holder), "", reviver)
		}
		return v, nil
	})

	ip.method(j, "stringify", 3, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		st := &jsonStringifier{ip: ip, seen: map[*Object]bool{}}
		if r := ctx.Arg(1); r.Tag == VTObj {
			if r.Obj().IsCallable() {
				st.replacer = r
			} else if r.Obj().IsArray() {
				st.allow = map[string]bool{}
				for _, k := range r.Obj().Elems() {
					s, sig := ip.toString(k)
					if sig != nil {
						return Undefined, sig
					}
					st.allow[s] = true
				}
			}
		}
		switch space := ctx.Arg(2); space.Tag {
		case VTNum:
			n := clampInt(int(toInteger(space.numVal())), 0, 10)
			st.indent = strings.Repeat(" ", n)
		case VTStr:
			s := space.strVal()
			if len(s) > 10 {
				s = s[:10]
			}
			st.indent = s
		}
		out, present, sig := st.render(ctx.Arg(0), "", 0)
		if sig != nil {
			return Undefined, sig
		}
		if !present {
			return Undefined, nil
		}
		return Str(out), nil
	})
}

func (ip *Interpreter) decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Undefined, err
	}
	return ip.decodeJSONToken(dec, tok)
}

func (ip *Interpreter) decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Undefined, err
		}
		return Num(f), nil
	case json.Delim:
		switch t {
		case '[':
			arr := ip.NewArray(nil)
			mark := ip.protect(ObjVal(arr))
			defer ip.release(mark)
			for dec.More() {
				elem, err := ip.decodeJSONValue(dec)
				if err != nil {
					return Undefined, err
				}
				arr.SetElems(append(arr.Elems(), elem))
			}
			if _, err := dec.Token(); err != nil {
				return Undefined, err
			}
			return ObjVal(arr), nil
		case '{':
			obj := ip.NewObject()
			mark := ip.protect(ObjVal(obj))
			defer ip.release(mark)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Undefined, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Undefined, fmt.Errorf("object key is not a string")
				}
				v, err := ip.decodeJSONValue(dec)
				if err != nil {
					return Undefined, err
				}
				obj.setOwnData(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Undefined, err
			}
			return ObjVal(obj), nil
		}
	}
	return Undefined, fmt.Errorf("unexpected token %v", tok)
}

// reviveJSON walks the parsed tree bottom-up, replacing each value with the
// reviver's result and dropping properties it maps to undefined.
func (ip *Interpreter) reviveJSON(holder Value, key string, reviver Value) (Value, *signal) {
	val, sig := ip.getProp(holder, key)
	if sig != nil {
		return Undefined, sig
	}
	if o := val.Obj(); o != nil {
		if o.IsArray() {
			for i := range o.Elems() {
				k := numberToString(float64(i))
				nv, sig := ip.reviveJSON(val, k, reviver)
				if sig != nil {
					return Undefined, sig
				}
				o.Elems()[i] = nv
			}
		} else {
			for _, k := range o.OwnKeys(true) {
				nv, sig := ip.reviveJSON(val, k, reviver)
				if sig != nil {
					return Undefined, sig
				}
				if nv.IsUndefined() {
					o.deleteOwn(k)
				} else {
					o.setOwnData(k, nv)
				}
			}
		}
	}
	return ip.call(reviver, holder, []Value{Str(key), val})
}

type jsonStringifier struct {
	ip       *Interpreter
	seen     map[*Object]bool
	replacer Value           // callable replacer, if any
	allow    map[string]bool // key whitelist from an array replacer
	indent   string
}

// render returns the serialized text and whether the value is representable
// at all (undefined and functions are not).
func (st *jsonStringifier) render(v Value, key string, depth int) (string, bool, *signal) {
	ip := st.ip

	if o := v.Obj(); o != nil {
		toJSON, sig := ip.getProp(v, "toJSON")
		if sig != nil {
			return "", false, sig
		}
		if toJSON.Tag == VTObj && toJSON.Obj().IsCallable() {
			if v, sig = ip.call(toJSON, v, []Value{Str(key)}); sig != nil {
				return "", false, sig
			}
		}
	}
	if st.replacer.Tag == VTObj {
		var sig *signal
		if v, sig = ip.call(st.replacer, Undefined, []Value{Str(key), v}); sig != nil {
			return "", false, sig
		}
	}

	switch v.Tag {
	case VTUndefined:
		return "", false, nil
	case VTNull:
		return "null", true, nil
	case VTBool:
		if v.boolVal() {
			return "true", true, nil
		}
		return "false", true, nil
	case VTNum:
		f := v.numVal()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "null", true, nil
		}
		return numberToString(f), true, nil
	case VTStr:
		return quoteJSON(v.strVal()), true, nil
	}

	o := v.Obj()
	if o.IsCallable() {
		return "", false, nil
	}
	if !o.Primitive.IsUndefined() {
		// String/Number/Boolean wrappers serialize as their primitive.
		return st.render(o.Primitive, key, depth)
	}
	if st.seen[o] {
		return "", false, ip.throwTypeError("converting circular structure to JSON")
	}
	st.seen[o] = true
	defer delete(st.seen, o)

	if o.IsArray() {
		return st.renderArray(v, o, depth)
	}
	return st.renderObject(v, o, depth)
}

func (st *jsonStringifier) renderArray(v Value, o *Object, depth int) (string, bool, *signal) {
	parts := make([]string, 0, len(o.Elems()))
	for i := range o.Elems() {
		elem, sig := st.ip.getProp(v, numberToString(float64(i)))
		if sig != nil {
			return "", false, sig
		}
		s, present, sig := st.render(elem, numberToString(float64(i)), depth+1)
		if sig != nil {
			return "", false, sig
		}
		if !present {
			s = "null"
		}
		parts = append(parts, s)
	}
	return st.wrap("[", "]", parts, depth), true, nil
}

func (st *jsonStringifier) renderObject(v Value, o *Object, depth int) (string, bool, *signal) {
	var parts []string
	for _, k := range o.OwnKeys(true) {
		if st.allow != nil && !st.allow[k] {
			continue
		}
		pv, sig := st.ip.getProp(v, k)
		if sig != nil {
			return "", false, sig
		}
		s, present, sig := st.render(pv, k, depth+1)
		if sig != nil {
			return "", false, sig
		}
		if !present {
			continue
		}
		sep := ":"
		if st.indent != "" {
			sep = ": "
		}
		parts = append(parts, quoteJSON(k)+sep+s)
	}
	return st.wrap("{", "}", parts, depth), true, nil
}

func (st *jsonStringifier) wrap(open, close string, parts []string, depth int) string {
	if len(parts) == 0 {
		return open + close
	}
	if st.indent == "" {
		return open + strings.Join(parts, ",") + close
	}
	inner := strings.Repeat(st.indent, depth+1)
	outer := strings.Repeat(st.indent, depth)
	return open + "\n" + inner + strings.Join(parts, ",\n"+inner) + "\n" + outer + close
}

func quoteJSON(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
