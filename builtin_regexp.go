package volt

import (
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// RegExp objects carry their pattern and flags as data properties; the
// compiled machine lives in a process-wide cache keyed by pattern+flags, so
// regexp objects stay plain collectible Objects.

var regexpCache struct {
	sync.Mutex
	m map[string]*regexp2.Regexp
}

func compileRegexp(source, flags string) (*regexp2.Regexp, error) {
	key := flags + "/" + source
	regexpCache.Lock()
	defer regexpCache.Unlock()
	if re, ok := regexpCache.m[key]; ok {
		return re, nil
	}
	var opts regexp2.RegexOptions = regexp2.ECMAScript
	if strings.ContainsRune(flags, 'i') {
		opts |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		opts |= regexp2.Multiline
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, err
	}
	if regexpCache.m == nil {
		regexpCache.m = map[string]*regexp2.Regexp{}
	}
	regexpCache.m[key] = re
	return re, nil
}

func registerRegExpBuiltins(ip *Interpreter) {
	r := ip.realm

	ip.ctor("RegExp", 2, r.RegExpProto, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		source := ""
		flags := ""
		if pat := ctx.Arg(0); isRegExpValue(pat) {
			source = regexpSource(pat.Obj())
			flags = regexpFlags(pat.Obj())
			if !ctx.Arg(1).IsUndefined() {
				var sig *signal
				if flags, sig = ip.toString(ctx.Arg(1)); sig != nil {
					return Undefined, sig
				}
			}
		} else {
			if !pat.IsUndefined() {
				var sig *signal
				if source, sig = ip.toString(pat); sig != nil {
					return Undefined, sig
				}
			}
			if !ctx.Arg(1).IsUndefined() {
				var sig *signal
				if flags, sig = ip.toString(ctx.Arg(1)); sig != nil {
					return Undefined, sig
				}
			}
		}
		return ip.newRegExp(source, flags)
	})

	p := r.RegExpProto

	ip.method(p, "test", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		re, sig := regexpThis(ip, ctx, "test")
		if sig != nil {
			return Undefined, sig
		}
		res, sig := ip.regexpExec(re, ctx.Arg(0))
		if sig != nil {
			return Undefined, sig
		}
		return Bool(!res.IsNull()), nil
	})

	ip.method(p, "exec", 1, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		re, sig := regexpThis(ip, ctx, "exec")
		if sig != nil {
			return Undefined, sig
		}
		return ip.regexpExec(re, ctx.Arg(0))
	})

	ip.method(p, "toString", 0, func(ip *Interpreter, ctx *CallCtx) (Value, *signal) {
		re, sig := regexpThis(ip, ctx, "toString")
		if sig != nil {
			return Undefined, sig
		}
		return Str("/" + regexpSource(re) + "/" + regexpFlags(re)), nil
	})
}

// newRegExp validates flags, compiles the pattern, and builds the object.
func (ip *Interpreter) newRegExp(source, flags string) (Value, *signal) {
	seen := map[rune]bool{}
	for _, f := range flags {
		if (f != 'g' && f != 'i' && f != 'm') || seen[f] {
			return Undefined, ip.throwError(ip.realm.SyntaxErrorProto, "SyntaxError", "invalid regular expression flags %q", flags)
		}
		seen[f] = true
	}
	if _, err := compileRegexp(source, flags); err != nil {
		return Undefined, ip.throwError(ip.realm.SyntaxErrorProto, "SyntaxError", "invalid regular expression: %v", err)
	}
	o := newRawObject(ip.heap, ClassRegExp, ip.realm.RegExpProto)
	o.defineOwn("source", &Property{Value: Str(source)})
	o.defineOwn("flags", &Property{Value: Str(flags)})
	o.defineOwn("global", &Property{Value: Bool(seen['g'])})
	o.defineOwn("ignoreCase", &Property{Value: Bool(seen['i'])})
	o.defineOwn("multiline", &Property{Value: Bool(seen['m'])})
	o.defineOwn("lastIndex", &Property{Value: Num(0), Writable: true})
	return ObjVal(o), nil
}

func isRegExpValue(v Value) bool {
	return v.Tag == VTObj && v.Obj().Class == ClassRegExp
}

func regexpThis(ip *Interpreter, ctx *CallCtx, method string) (*Object, *signal) {
	o := ctx.This.Obj()
	if o == nil || o.Class != ClassRegExp {
		return nil, ip.throwTypeError("RegExp.prototype.%s called on non-regexp", method)
	}
	return o, nil
}

func regexpSource(o *Object) string {
	if p, ok := o.getOwn("source"); ok && p.Value.Tag == VTStr {
		return p.Value.strVal()
	}
	return ""
}

func regexpFlags(o *Object) string {
	if p, ok := o.getOwn("flags"); ok && p.Value.Tag == VTStr {
		return p.Value.strVal()
	}
	return ""
}

func regexpIsGlobal(o *Object) bool {
	return strings.ContainsRune(regexpFlags(o), 'g')
}

// regexpArgument coerces a string-method argument into a regexp object,
// compiling plain strings with no flags.
func (ip *Interpreter) regexpArgument(v Value) (*Object, *signal) {
	if isRegExpValue(v) {
		return v.Obj(), nil
	}
	source := ""
	if !v.IsUndefined() {
		var sig *signal
		if source, sig = ip.toString(v); sig != nil {
			return nil, sig
		}
	}
	rv, sig := ip.newRegExp(source, "")
	if sig != nil {
		return nil, sig
	}
	return rv.Obj(), nil
}

/* ---------- matching ---------- */

// reMatch is one match result with offsets in UTF-16 code units.
type reMatch struct {
	text   string
	index  int // start, UTF-16 units
	end    int
	groups []Value // captures; Undefined for non-participating groups
}

func (ip *Interpreter) findMatches(o *Object, s string, all bool, from int) ([]reMatch, *signal) {
	re, err := compileRegexp(regexpSource(o), regexpFlags(o))
	if err != nil {
		return nil, ip.throwError(ip.realm.SyntaxErrorProto, "SyntaxError", "invalid regular expression: %v", err)
	}
	runes := []rune(s)
	start := runeIndexForUnits(runes, from)
	m, rerr := re.FindRunesMatchStartingAt(runes, start)
	var out []reMatch
	for rerr == nil && m != nil {
		rm := reMatch{
			text:  m.String(),
			index: unitsLenOfRunes(runes[:m.Index]),
		}
		rm.end = rm.index + unitsLenOfRunes([]rune(rm.text))
		for gi, g := range m.Groups() {
			if gi == 0 {
				continue
			}
			if len(g.Captures) == 0 {
				rm.groups = append(rm.groups, Undefined)
			} else {
				rm.groups = append(rm.groups, Str(g.String()))
			}
		}
		out = append(out, rm)
		if !all {
			break
		}
		// Zero-width matches must advance or the scan never ends.
		next := m.Index + m.Length
		if m.Length == 0 {
			next++
		}
		if next > len(runes) {
			break
		}
		m, rerr = re.FindRunesMatchStartingAt(runes, next)
	}
	return out, nil
}

func runeIndexForUnits(runes []rune, units int) int {
	u := 0
	for i, r := range runes {
		if u >= units {
			return i
		}
		if r > 0xFFFF {
			u += 2
		} else {
			u++
		}
	}
	return len(runes)
}

func unitsLenOfRunes(runes []rune) int {
	u := 0
	for _, r := range runes {
		if r > 0xFFFF {
			u += 2
		} else {
			u++
		}
	}
	return u
}

// regexpExec implements RegExp.prototype.exec: a single match, from lastIndex
// when the g flag is set, updating lastIndex on the way out.
func (ip *Interpreter) regexpExec(o *Object, input Value) (Value, *signal) {
	s, sig := ip.toString(input)
	if sig != nil {
		return Undefined, sig
	}
	from := 0
	global := regexpIsGlobal(o)
	if global {
		li, sig := ip.getProp(ObjVal(o), "lastIndex")
		if sig != nil {
			return Undefined, sig
		}
		n, sig := ip.toNumber(li)
		if sig != nil {
			return Undefined, sig
		}
		from = int(toInteger(n))
		if from < 0 || from > len(utf16Units(s)) {
			o.setOwnData("lastIndex", Num(0))
			return Null, nil
		}
	}
	ms, sig := ip.findMatches(o, s, false, from)
	if sig != nil {
		return Undefined, sig
	}
	if len(ms) == 0 {
		if global {
			o.setOwnData("lastIndex", Num(0))
		}
		return Null, nil
	}
	m := ms[0]
	if global {
		o.setOwnData("lastIndex", Num(float64(m.end)))
	}
	return ObjVal(ip.matchResult(m, s)), nil
}

func (ip *Interpreter) matchResult(m reMatch, input string) *Object {
	elems := append([]Value{Str(m.text)}, m.groups...)
	arr := ip.NewArray(elems)
	arr.setOwnData("index", Num(float64(m.index)))
	arr.setOwnData("input", Str(input))
	return arr
}

/* ---------- String.prototype hooks ---------- */

func (ip *Interpreter) regexpMatch(s string, o *Object) (Value, *signal) {
	if !regexpIsGlobal(o) {
		return ip.regexpExec(o, Str(s))
	}
	ms, sig := ip.findMatches(o, s, true, 0)
	if sig != nil {
		return Undefined, sig
	}
	o.setOwnData("lastIndex", Num(0))
	if len(ms) == 0 {
		return Null, nil
	}
	elems := make([]Value, len(ms))
	for i, m := range ms {
		elems[i] = Str(m.text)
	}
	return ObjVal(ip.NewArray(elems)), nil
}

func (ip *Interpreter) regexpSearch(s string, o *Object) (Value, *signal) {
	ms, sig := ip.findMatches(o, s, false, 0)
	if sig != nil {
		return Undefined, sig
	}
	if len(ms) == 0 {
		return Num(-1), nil
	}
	return Num(float64(ms[0].index)), nil
}

func (ip *Interpreter) regexpSplit(s string, o *Object, limit int) (Value, *signal) {
	ms, sig := ip.findMatches(o, s, true, 0)
	if sig != nil {
		return Undefined, sig
	}
	units := utf16Units(s)
	var elems []Value
	push := func(v Value) bool {
		if limit >= 0 && len(elems) >= limit {
			return false
		}
		elems = append(elems, v)
		return true
	}
	prev := 0
	for _, m := range ms {
		if m.index == 0 && m.end == 0 {
			continue
		}
		if !push(Str(unitsToString(units[prev:m.index]))) {
			return ObjVal(ip.NewArray(elems)), nil
		}
		for _, g := range m.groups {
			if !push(g) {
				return ObjVal(ip.NewArray(elems)), nil
			}
		}
		prev = m.end
	}
	push(Str(unitsToString(units[prev:])))
	return ObjVal(ip.NewArray(elems)), nil
}

func (ip *Interpreter) regexpReplace(s string, o *Object, repl Value) (Value, *signal) {
	all := regexpIsGlobal(o)
	ms, sig := ip.findMatches(o, s, all, 0)
	if sig != nil {
		return Undefined, sig
	}
	if all {
		o.setOwnData("lastIndex", Num(0))
	}
	if len(ms) == 0 {
		return Str(s), nil
	}
	units := utf16Units(s)
	var b strings.Builder
	prev := 0
	for _, m := range ms {
		b.WriteString(unitsToString(units[prev:m.index]))
		rep, sig := ip.replacementFor(repl, m.text, m.index, s, m.groups)
		if sig != nil {
			return Undefined, sig
		}
		b.WriteString(rep)
		prev = m.end
	}
	b.WriteString(unitsToString(units[prev:]))
	return Str(b.String()), nil
}

// replacementFor resolves the replacement argument of String.prototype
// .replace: calling a function replacer, or expanding $-escapes in a string
// one.
func (ip *Interpreter) replacementFor(repl Value, matched string, index int, whole string, groups []Value) (string, *signal) {
	if repl.Tag == VTObj && repl.Obj().IsCallable() {
		args := append([]Value{Str(matched)}, groups...)
		args = append(args, Num(float64(index)), Str(whole))
		out, sig := ip.call(repl, Undefined, args)
		if sig != nil {
			return "", sig
		}
		return ip.toString(out)
	}
	tpl, sig := ip.toString(repl)
	if sig != nil {
		return "", sig
	}
	units := utf16Units(whole)
	var b strings.Builder
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		if c != '$' || i+1 >= len(tpl) {
			b.WriteByte(c)
			continue
		}
		i++
		switch d := tpl[i]; {
		case d == '$':
			b.WriteByte('$')
		case d == '&':
			b.WriteString(matched)
		case d == '`':
			b.WriteString(unitsToString(units[:index]))
		case d == '\'':
			b.WriteString(unitsToString(units[index+unitsLenOfRunes([]rune(matched)):]))
		case d >= '0' && d <= '9':
			n := int(d - '0')
			if i+1 < len(tpl) && tpl[i+1] >= '0' && tpl[i+1] <= '9' && (n*10+int(tpl[i+1]-'0')) <= len(groups) {
				n = n*10 + int(tpl[i+1]-'0')
				i++
			}
			if n >= 1 && n <= len(groups) {
				if g := groups[n-1]; g.Tag == VTStr {
					b.WriteString(g.strVal())
				}
			} else {
				b.WriteByte('$')
				b.WriteByte(d)
			}
		default:
			b.WriteByte('$')
			b.WriteByte(d)
		}
	}
	return b.String(), nil
}
