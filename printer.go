package volt

import (
	"strings"
	"unicode"
)

/* ---------- globals & tiny helpers ---------- */

var EnableColor = false // REPL-only; tests can leave this false
var MaxInlineWidth = 80 // width threshold for single-line arrays/objects

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

func colorize(s, c string) string {
	if !EnableColor {
		return s
	}
	return c + s + colorReset
}
func blue(s string) string  { return colorize(s, colorBlue) }
func green(s string) string { return colorize(s, colorGreen) }

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	rs := []rune(s)
	if !(unicode.IsLetter(rs[0]) || rs[0] == '_' || rs[0] == '$') {
		return false
	}
	for _, r := range rs[1:] {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$') {
			return false
		}
	}
	return true
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

/* ---------- small writer with indentation ---------- */

type out struct {
	b     *strings.Builder
	depth int
}

func (o *out) write(s string) { o.b.WriteString(s) }
func (o *out) nl()            { o.b.WriteByte('\n') }
func (o *out) pad() {
	for i := 0; i < o.depth; i++ {
		o.b.WriteString("  ")
	}
}
func (o *out) blue(s string)        { o.b.WriteString(blue(s)) }
func (o *out) withIndent(fn func()) { o.depth++; fn(); o.depth-- }

/* ---------- runtime value pretty-printer ---------- */

// PrintValue renders a runtime value the way a REPL would echo an
// evaluation result: strings quoted, nested objects expanded, cycles
// shown as [Circular]. Accessor properties are shown as [Getter]
// rather than invoked; rendering never re-enters script code.
func PrintValue(v Value) string {
	var b strings.Builder
	vp := valuePrinter{out: out{b: &b}, seen: map[*Object]bool{}}
	vp.writeValue(v)
	return b.String()
}

// DisplayValue is PrintValue except a top-level string prints raw,
// matching console.log behavior.
func DisplayValue(v Value) string {
	if v.Tag == VTStr {
		return v.Data.(string)
	}
	return PrintValue(v)
}

type valuePrinter struct {
	out  out
	seen map[*Object]bool
}

func (vp *valuePrinter) writeValue(v Value) {
	o := &vp.out
	switch v.Tag {
	case VTUndefined:
		o.write(green("undefined"))
	case VTNull:
		o.blue("null")
	case VTBool:
		if v.Data.(bool) {
			o.blue("true")
		} else {
			o.blue("false")
		}
	case VTNum:
		o.blue(numberToString(v.Data.(float64)))
	case VTStr:
		o.write(green(quoteString(v.Data.(string))))
	case VTObj:
		vp.writeObject(v.Data.(*Object))
	default:
		o.write("<unknown>")
	}
}

func (vp *valuePrinter) writeObject(obj *Object) {
	o := &vp.out
	if vp.seen[obj] {
		o.blue("[Circular]")
		return
	}
	vp.seen[obj] = true
	defer delete(vp.seen, obj)

	switch {
	case obj.Def != nil || obj.Native != nil:
		name := functionName(obj)
		if name == "" {
			o.write("[Function (anonymous)]")
		} else {
			o.write("[Function: " + name + "]")
		}
	case obj.Class == "Array":
		vp.writeArray(obj)
	case obj.Class == "Error":
		o.write(errorHeader(obj))
		vp.writeErrorExtras(obj)
	case obj.Class == "RegExp":
		if p, _ := obj.getOwn("source"); p != nil && !p.Accessor && p.Value.Tag == VTStr {
			flags := ""
			if f, _ := obj.getOwn("flags"); f != nil && !f.Accessor && f.Value.Tag == VTStr {
				flags = f.Value.Data.(string)
			}
			o.blue("/" + p.Value.Data.(string) + "/" + flags)
			return
		}
		o.write("[RegExp]")
	default:
		vp.writePlainObject(obj)
	}
}

func (vp *valuePrinter) writeArray(obj *Object) {
	o := &vp.out
	elems := obj.Elems()
	if line, ok := vp.arrayOneLine(obj); ok && len(line) <= MaxInlineWidth {
		o.write(line)
		return
	}
	o.write("[")
	o.nl()
	o.withIndent(func() {
		for i, it := range elems {
			o.pad()
			vp.writeValue(it)
			if i < len(elems)-1 {
				o.write(",")
			}
			o.nl()
		}
	})
	o.pad()
	o.write("]")
}

func (vp *valuePrinter) writePlainObject(obj *Object) {
	o := &vp.out
	keys := obj.EnumKeys()
	if line, ok := vp.objectOneLine(obj, keys); ok && len(line) <= MaxInlineWidth {
		o.write(line)
		return
	}
	o.write("{")
	o.nl()
	o.withIndent(func() {
		for i, k := range keys {
			o.pad()
			o.write(printKey(k) + ": ")
			vp.writeProperty(obj, k)
			if i < len(keys)-1 {
				o.write(",")
			}
			o.nl()
		}
	})
	o.pad()
	o.write("}")
}

func (vp *valuePrinter) writeProperty(obj *Object, key string) {
	p, _ := obj.getOwn(key)
	if p == nil {
		vp.out.write(green("undefined"))
		return
	}
	if p.Accessor {
		switch {
		case p.Getter != nil && p.Setter != nil:
			vp.out.write("[Getter/Setter]")
		case p.Getter != nil:
			vp.out.write("[Getter]")
		default:
			vp.out.write("[Setter]")
		}
		return
	}
	vp.writeValue(p.Value)
}

func (vp *valuePrinter) writeErrorExtras(obj *Object) {
	// own enumerable props beyond name/message, e.g. err.code = 42
	extra := []string{}
	for _, k := range obj.EnumKeys() {
		if k == "name" || k == "message" || k == "stack" {
			continue
		}
		extra = append(extra, k)
	}
	if len(extra) == 0 {
		return
	}
	o := &vp.out
	o.write(" {")
	for i, k := range extra {
		if i > 0 {
			o.write(",")
		}
		o.write(" " + printKey(k) + ": ")
		vp.writeProperty(obj, k)
	}
	o.write(" }")
}

/* ---------- single-line candidates ---------- */

func (vp *valuePrinter) arrayOneLine(obj *Object) (string, bool) {
	elems := obj.Elems()
	if len(elems) == 0 {
		return "[]", true
	}
	parts := make([]string, 0, len(elems))
	for _, it := range elems {
		if vp.isMultiline(it) {
			return "", false
		}
		var b strings.Builder
		inner := valuePrinter{out: out{b: &b}, seen: vp.seen}
		inner.writeValue(it)
		parts = append(parts, b.String())
	}
	return "[ " + strings.Join(parts, ", ") + " ]", true
}

func (vp *valuePrinter) objectOneLine(obj *Object, keys []string) (string, bool) {
	if len(keys) == 0 {
		return "{}", true
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		p, _ := obj.getOwn(k)
		if p != nil && !p.Accessor && vp.isMultiline(p.Value) {
			return "", false
		}
		var b strings.Builder
		inner := valuePrinter{out: out{b: &b}, seen: vp.seen}
		inner.writeProperty(obj, k)
		parts = append(parts, printKey(k)+": "+b.String())
	}
	return "{ " + strings.Join(parts, ", ") + " }", true
}

func (vp *valuePrinter) isMultiline(v Value) bool {
	if v.Tag != VTObj {
		return false
	}
	obj := v.Data.(*Object)
	if vp.seen[obj] {
		return false
	}
	switch {
	case obj.Def != nil || obj.Native != nil:
		return false
	case obj.Class == "Array":
		if len(obj.Elems()) == 0 {
			return false
		}
		vp.seen[obj] = true
		line, ok := vp.arrayOneLine(obj)
		delete(vp.seen, obj)
		return !ok || len(line) > MaxInlineWidth
	case obj.Class == "Error", obj.Class == "RegExp":
		return false
	default:
		keys := obj.EnumKeys()
		if len(keys) == 0 {
			return false
		}
		vp.seen[obj] = true
		line, ok := vp.objectOneLine(obj, keys)
		delete(vp.seen, obj)
		return !ok || len(line) > MaxInlineWidth
	}
}

func printKey(k string) string {
	if isIdent(k) {
		return k
	}
	return quoteString(k)
}

func functionName(obj *Object) string {
	if obj.Def != nil && obj.Def.Name != "" {
		return obj.Def.Name
	}
	if obj.NativeName != "" {
		return obj.NativeName
	}
	if p, _ := obj.getOwn("name"); p != nil && !p.Accessor && p.Value.Tag == VTStr {
		return p.Value.Data.(string)
	}
	return ""
}

// errorHeader renders "TypeError: msg" from data properties only so a
// hostile getter on name or message cannot run during printing.
func errorHeader(obj *Object) string {
	name := "Error"
	if p, _ := obj.findProp("name"); p != nil && !p.Accessor && p.Value.Tag == VTStr {
		name = p.Value.Data.(string)
	}
	msg := ""
	if p, _ := obj.findProp("message"); p != nil && !p.Accessor && p.Value.Tag == VTStr {
		msg = p.Value.Data.(string)
	}
	if msg == "" {
		return name
	}
	return name + ": " + msg
}
