package volt

import (
	"io"
	"strings"
	"testing"
)

func Test_Errors_Parse_Snippet_Has_Caret(t *testing.T) {
	src := "var a = 1;\nvar b = ;\nvar c = 3;"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected parse error")
	}
	wrapped := WrapErrorWithSource(err, src)
	out := wrapped.Error()
	if !strings.Contains(out, "PARSE ERROR at 2:") {
		t.Fatalf("missing header:\n%s", out)
	}
	for _, want := range []string{"   1 | var a = 1;", "   2 | var b = ;", "   3 | var c = 3;", "^"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	// Caret line sits under the error line.
	lines := strings.Split(out, "\n")
	for i, ln := range lines {
		if strings.Contains(ln, "var b = ;") {
			if i+1 >= len(lines) || !strings.Contains(lines[i+1], "^") {
				t.Fatalf("caret should follow the error line:\n%s", out)
			}
		}
	}
}

func Test_Errors_Named_Source_In_Header(t *testing.T) {
	src := "var = 1"
	_, err := Parse(src)
	out := WrapErrorWithName(err, "boot.js", src).Error()
	if !strings.Contains(out, "PARSE ERROR in boot.js at 1:") {
		t.Fatalf("header:\n%s", out)
	}
}

func Test_Errors_Lex_Error_Snippet(t *testing.T) {
	src := "var ok = 1\nvar bad = @"
	_, err := NewLexer(src).Lex()
	out := WrapErrorWithSource(err, src).Error()
	if !strings.Contains(out, "LEXICAL ERROR at 2:") {
		t.Fatalf("header:\n%s", out)
	}
}

func Test_Errors_Runtime_Error_Carries_Thrown_Value(t *testing.T) {
	ip := NewInterpreter()
	_, err := ip.EvalNamedSource("job.js", "var x = 1;\nmissing();\n")
	if err == nil {
		t.Fatal("expected runtime error")
	}
	out := err.Error()
	if !strings.Contains(out, "RUNTIME ERROR in job.js") {
		t.Fatalf("header:\n%s", out)
	}
	if !strings.Contains(out, "ReferenceError") {
		t.Fatalf("message should carry the error type:\n%s", out)
	}
	if !strings.Contains(out, "missing();") {
		t.Fatalf("snippet should show the line:\n%s", out)
	}
}

func Test_Errors_Unrecognized_Errors_Pass_Through(t *testing.T) {
	plain := &LexError{Line: 1, Col: 0, Msg: "m"}
	if got := WrapErrorWithSource(plain, "src").Error(); !strings.Contains(got, "LEXICAL ERROR") {
		t.Fatal("lex errors should be wrapped")
	}
	// Non-diagnostic errors come back unchanged.
	sentinel := io.EOF
	if WrapErrorWithSource(sentinel, "src") != sentinel {
		t.Fatal("unknown error types must pass through")
	}
}

func Test_Errors_LineCol_For_Offset(t *testing.T) {
	src := "ab\ncde\nf"
	cases := []struct{ off, line, col int }{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
		{99, 3, 2}, // clamped to end
	}
	for _, c := range cases {
		line, col := lineColForOffset(src, c.off)
		if line != c.line || col != c.col {
			t.Fatalf("offset %d: got %d:%d, want %d:%d", c.off, line, col, c.line, c.col)
		}
	}
}
