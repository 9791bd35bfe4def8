// debug_spans.go — debugging-only helpers for the span sidecar.
//
// Caret positioning depends on one invariant: the parser records exactly one
// span per AST node in post-order. VerifySpanIndexPostOrder re-walks a parsed
// tree and checks every node resolves through the index, reporting the first
// unbound path. The evaluator never calls into this file; it exists for tests
// and for hosts chasing a bad caret.
package volt

import (
	"fmt"
	"io"
	"os"
)

// DebuggingMode enables verbose span diagnostics. Picked up from VOLTDEBUG at
// process start; hosts and tests may also set it directly.
var DebuggingMode = os.Getenv("VOLTDEBUG") != ""

// VerifySpanIndexPostOrder walks the AST in post-order and confirms every
// node has a span. It returns the number of nodes visited and an error naming
// the first unbound path. When preview is positive and DebuggingMode is set,
// the first preview bindings are dumped to w (stderr if nil).
func VerifySpanIndexPostOrder(root S, si *SpanIndex, src string, preview int, w io.Writer) (int, error) {
	if w == nil {
		w = os.Stderr
	}
	visited := 0
	shown := 0
	var firstErr error

	var walk func(n S, path NodePath)
	walk = func(n S, path NodePath) {
		for i := 1; i < len(n); i++ {
			if child, ok := n[i].(S); ok {
				walk(child, append(path[:len(path):len(path)], i-1))
			}
		}
		visited++
		sp, ok := si.Get(path)
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("no span bound at path %v (tag %q)", path, Tag(n))
			}
			return
		}
		if DebuggingMode && shown < preview {
			shown++
			fmt.Fprintf(w, "span %v [%d:%d) %q\n", path, sp.StartByte, sp.EndByte, sliceSource(src, sp))
		}
	}
	walk(root, nil)
	return visited, firstErr
}

// sliceSource extracts the span's text, clamped and truncated for display.
func sliceSource(src string, sp Span) string {
	lo := clampInt(sp.StartByte, 0, len(src))
	hi := clampInt(sp.EndByte, lo, len(src))
	s := src[lo:hi]
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}
