// errors.go — user-facing error wrapping and caret-snippet rendering.
//
// Turns lexer/parser/runtime diagnostics into readable snippets with a caret
// under the offending column:
//
//	PARSE ERROR at 3:12: unexpected token ')'
//
//	   2 | var x = (1 + 2
//	   3 |              )
//	       |            ^
//	   4 | f(x);
//
// WrapErrorWithName recognizes *LexError (lexer.go), *ParseError (parser.go)
// and *RuntimeError (interpreter.go); anything else passes through unchanged.
// Coordinates are clamped to the source bounds so a bad location never breaks
// rendering. Output is plain text, no ANSI escapes.
package volt

import (
	"fmt"
	"strings"
)

// WrapErrorWithSource renders a caret snippet for lex/parse/runtime errors
// without a source name in the header.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName renders a caret snippet for recognized error kinds,
// prefixing "in <name>" when srcName is non-empty. Other errors are returned
// as-is.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		// Lex/parse Col are 0-based; render as 1-based.
		return fmt.Errorf("%s", prettyErrorString(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorString(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *RuntimeError:
		// RuntimeError is already 1-based.
		return fmt.Errorf("%s", prettyErrorString(src, "RUNTIME ERROR", srcName, e.Line, e.Col, e.Msg))
	default:
		return err
	}
}

// prettyErrorString builds the snippet: header, one line of context either
// side when available, and a caret under the 1-based column.
func prettyErrorString(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}

// lineColForOffset maps a byte offset into 1-based line and column numbers
// derived from the source text. Used when surfacing runtime errors from node
// spans.
func lineColForOffset(src string, off int) (int, int) {
	if off < 0 {
		off = 0
	}
	if off > len(src) {
		off = len(src)
	}
	line, col := 1, 1
	for i := 0; i < off; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
