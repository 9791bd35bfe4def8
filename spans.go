// spans.go — sidecar byte spans for S-expression ASTs.
//
// The AST (type S, parser.go) carries no position data of its own. Spans are
// kept in a sidecar index keyed by a structural address: a NodePath is a
// slice of child indexes from the root, where child index k addresses S[k+1]
// (S[0] is the node tag).
//
// The parser records one Span per finished node in post-order (children
// before parent) while building the tree; BuildSpanIndexPostOrder then walks
// the finished AST in the same order and binds each span to its path. The
// result is read-only and safe for concurrent reads.
//
// Spans are half-open byte intervals [StartByte, EndByte) into the UTF-8
// source. Line/column coordinates are derived on demand from the source text
// (errors.go).
package volt

import (
	"strconv"
	"strings"
)

// Span is a half-open byte interval [StartByte, EndByte) in the source text.
type Span struct {
	StartByte int // inclusive
	EndByte   int // exclusive
}

// NodePath is a stable structural address into an S-expression AST. Each
// element selects a child: path element k addresses S[k+1].
//
//	// ("call", callee, arg0, arg1)
//	path []int{0} → callee
//	path []int{2} → arg1
type NodePath []int

// SpanIndex maps NodePath → Span for one parsed program. It may be partial;
// Get reports false for unindexed nodes.
type SpanIndex struct {
	byPath map[string]Span
}

// Get returns the span recorded for the given path, if any. A nil index
// resolves nothing.
func (si *SpanIndex) Get(p NodePath) (Span, bool) {
	if si == nil {
		return Span{}, false
	}
	sp, ok := si.byPath[pathKey(p)]
	return sp, ok
}

// BuildSpanIndexPostOrder binds one span per AST node, consuming the
// postorder slice in the same children-first order the parser produced it.
// Extra spans are ignored; if the slice runs short the remaining nodes stay
// unindexed.
func BuildSpanIndexPostOrder(root S, postorder []Span) *SpanIndex {
	si := &SpanIndex{byPath: make(map[string]Span, len(postorder))}
	bindPostOrder(si, root, postorder)
	return si
}

// pathKey serializes a NodePath to a compact "a.b.c" map key.
func pathKey(p NodePath) string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, x := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(x))
	}
	return sb.String()
}

func bindPostOrder(si *SpanIndex, root S, postorder []Span) {
	i := 0
	var walk func(n S, path NodePath)
	walk = func(n S, path NodePath) {
		for ci := 1; ci < len(n); ci++ {
			if child, ok := n[ci].(S); ok {
				walk(child, append(path, ci-1))
			}
		}
		if i < len(postorder) {
			si.byPath[pathKey(path)] = postorder[i]
			i++
		}
	}
	walk(root, nil)
}
