// parser.go — recursive-descent parser producing S-expression ASTs.
//
// AST encoding
// ------------
// A node is `[]any{tagString, child0, child1, ...}` (type S). Children are
// either sub-nodes (S) or scalar payloads (string names, float64 numbers,
// bool flags). Scalars carry no spans; every S node gets exactly one Span
// appended in post-order (children before parent), which is what
// BuildSpanIndexPostOrder (spans.go) requires.
//
// Node inventory
// --------------
//
//	("program", stmt...)
//	("block", stmt...)
//	("var"|"let"|"const", name1, init1, name2, init2, ...)   inits may be ("undef")
//	("fndecl", name, params, block)
//	("if", cond, then [, else])
//	("while", cond, body)        ("do", body, cond)
//	("for", init, cond, post, body)                          empty parts are ("nop")
//	("forin", declKind, name, object, body)                  declKind "" | "var" | "let" | "const"
//	("return", expr)             ("throw", expr)
//	("break", label)             ("continue", label)         label "" if none
//	("label", name, stmt)
//	("try", block, catchParam, catchBlock, finallyBlock)     absent blocks are ("nop")
//	("nop")
//
//	("num", f) ("str", s) ("bool", b) ("null") ("undef") ("this") ("id", name)
//	("arr", elem...)
//	("obj", entry...)            entry: ("prop", key, expr) | ("getter", key, fn) | ("setter", key, fn)
//	("fn", name, params, block)  ("arrow", params, body, isExprBody)
//	("params", name...)
//	("regex", pattern, flags)    only via the RegExp constructor; no literal syntax
//	("assign", target, expr)     ("opassign", op, target, expr)
//	("update", op, isPrefix, target)
//	("cond", c, a, b)            ("logic", op, l, r)   ("binop", op, l, r)
//	("unop", op, e)              op: "-" "+" "!" "typeof" "void" "delete"
//	("member", obj, name)        ("index", obj, key)
//	("call", callee, arg...)     ("new", callee, arg...)
//	("seq", a, b)
//
// Statement termination follows the pragmatic subset of automatic semicolon
// insertion: a statement ends at ';', or before '}', EOF, or a token on a new
// line. return/break/continue/throw are newline-restricted.
package volt

import (
	"fmt"
)

// S is the AST node type: tag string first, then children.
type S = []any

// L builds a node without span bookkeeping. The parser itself always goes
// through mk/mkLeaf; L is for tests and synthesized trees.
func L(tag string, parts ...any) S { return append([]any{tag}, parts...) }

// Tag returns the node's tag string, or "" for malformed nodes.
func Tag(n S) string {
	if len(n) == 0 {
		return ""
	}
	t, _ := n[0].(string)
	return t
}

// ParseError reports a syntax error at a 1-based line and 0-based column.
// Incomplete marks an unterminated construct at EOF in interactive mode, so
// a REPL can prompt for continuation instead of failing.
type ParseError struct {
	Line       int
	Col        int
	Msg        string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// IsIncomplete reports whether err is a ParseError caused by premature EOF
// in interactive mode.
func IsIncomplete(err error) bool {
	if pe, ok := err.(*ParseError); ok {
		return pe.Incomplete
	}
	return false
}

// Parse parses a complete source string and returns its AST.
func Parse(src string) (S, error) {
	ast, _, err := parse(src, false, false)
	return ast, err
}

// ParseWithSpans parses like Parse and also returns the sidecar SpanIndex,
// with spans recorded in strict post-order.
func ParseWithSpans(src string) (S, *SpanIndex, error) {
	return parse(src, true, false)
}

// ParseInteractive parses in REPL-friendly mode: unterminated constructs at
// EOF produce a ParseError with Incomplete set.
func ParseInteractive(src string) (S, error) {
	ast, _, err := parse(src, false, true)
	return ast, err
}

func parse(src string, wantSpans, interactive bool) (S, *SpanIndex, error) {
	toks, err := NewLexer(src).Lex()
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks, src: src, interactive: interactive}
	ast, perr := p.program()
	if perr != nil {
		return nil, nil, perr
	}
	if !wantSpans {
		return ast, nil, nil
	}
	return ast, BuildSpanIndexPostOrder(ast, p.post), nil
}

type parser struct {
	toks        []Token
	i           int
	src         string
	interactive bool
	noIn        bool // suppress the `in` operator inside for-statement headers

	post []Span // one span per S node, appended post-order
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekAt(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	return Token{}, p.errHere(msg)
}

func (p *parser) errHere(msg string) error {
	g := p.peek()
	return &ParseError{
		Line:       g.Line,
		Col:        g.Col,
		Msg:        msg,
		Incomplete: p.interactive && g.Type == EOF,
	}
}

// newlineBefore reports whether the next token starts on a later line than
// the previous one; the restricted productions and statement termination
// both hinge on this.
func (p *parser) newlineBefore() bool {
	if p.i == 0 {
		return false
	}
	return p.peek().Line > p.prev().Line
}

// ───────────────────────────── span emission ────────────────────────────────
//
// All node construction goes through mk/mkLeaf, which append exactly one span
// per node in post-order. Token indexes address p.toks; a parent covers the
// byte range [startTok.StartByte, endTok.EndByte).

func (p *parser) spanByTok(startTok, endTok int) {
	if startTok >= 0 && endTok >= startTok && endTok < len(p.toks) {
		p.post = append(p.post, Span{
			StartByte: p.toks[startTok].StartByte,
			EndByte:   p.toks[endTok].EndByte,
		})
	} else {
		p.post = append(p.post, Span{})
	}
}

// mkLeaf builds a leaf whose span is the single token tok; tok<0 appends a
// placeholder span to keep post-order cardinality intact.
func (p *parser) mkLeaf(tag string, tok int, parts ...any) S {
	n := L(tag, parts...)
	p.spanByTok(tok, tok)
	return n
}

// mk builds a parent node after its children have been constructed.
func (p *parser) mk(tag string, startTok, endTok int, parts ...any) S {
	n := L(tag, parts...)
	p.spanByTok(startTok, endTok)
	return n
}

// ─────────────────────────────── statements ─────────────────────────────────

func (p *parser) program() (S, error) {
	st := p.i
	var stmts []any
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return p.mk("program", st, maxTok(st, p.i-1), stmts...), nil
}

func maxTok(a, b int) int {
	if b < a {
		return a
	}
	return b
}

// endStatement consumes a terminating ';' or accepts an implicit terminator
// ( '}' , EOF, or a line break before the next token).
func (p *parser) endStatement() error {
	if p.match(SEMI) {
		return nil
	}
	if p.peek().Type == RBRACE || p.atEnd() || p.newlineBefore() {
		return nil
	}
	return p.errHere(fmt.Sprintf("unexpected token %q (expected ';')", p.peek().Lexeme))
}

func (p *parser) statement() (S, error) {
	st := p.i
	switch p.peek().Type {
	case SEMI:
		p.i++
		return p.mkLeaf("nop", st), nil
	case LBRACE:
		return p.blockStatement()
	case VAR, LET, CONST:
		n, err := p.declStatement()
		if err != nil {
			return nil, err
		}
		return n, p.endStatement()
	case FUNCTION:
		return p.functionDecl()
	case IF:
		return p.ifStatement()
	case WHILE:
		return p.whileStatement()
	case DO:
		return p.doStatement()
	case FOR:
		return p.forStatement()
	case RETURN:
		p.i++
		if p.peek().Type == SEMI || p.peek().Type == RBRACE || p.atEnd() || p.newlineBefore() {
			arg := p.mkLeaf("undef", st)
			n := p.mk("return", st, p.i-1, arg)
			return n, p.endStatement()
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		n := p.mk("return", st, p.i-1, e)
		return n, p.endStatement()
	case THROW:
		p.i++
		if p.newlineBefore() {
			return nil, p.errHere("newline not allowed after 'throw'")
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		n := p.mk("throw", st, p.i-1, e)
		return n, p.endStatement()
	case BREAK, CONTINUE:
		kw := p.peek().Type
		p.i++
		label := ""
		if p.peek().Type == ID && !p.newlineBefore() {
			label = p.peek().Lexeme
			p.i++
		}
		tag := "break"
		if kw == CONTINUE {
			tag = "continue"
		}
		n := p.mk(tag, st, p.i-1, label)
		return n, p.endStatement()
	case TRY:
		return p.tryStatement()
	case ID:
		// Labeled statement: ID ':' stmt.
		if p.peekAt(1).Type == COLON {
			name := p.peek().Lexeme
			p.i += 2
			body, err := p.statement()
			if err != nil {
				return nil, err
			}
			return p.mk("label", st, p.i-1, name, body), nil
		}
	}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	return e, p.endStatement()
}

func (p *parser) blockStatement() (S, error) {
	st := p.i
	if _, err := p.need(LBRACE, "expected '{'"); err != nil {
		return nil, err
	}
	var stmts []any
	for p.peek().Type != RBRACE {
		if p.atEnd() {
			return nil, p.errHere("unterminated block (expected '}')")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.i++ // RBRACE
	return p.mk("block", st, p.i-1, stmts...), nil
}

// declStatement parses `var|let|const name [= expr] (, name [= expr])*` into
// a flat node of alternating name/init pairs.
func (p *parser) declStatement() (S, error) {
	st := p.i
	kw := p.peek()
	p.i++
	tag := map[TokenType]string{VAR: "var", LET: "let", CONST: "const"}[kw.Type]
	var parts []any
	for {
		nameTok, err := p.need(ID, "expected variable name")
		if err != nil {
			return nil, err
		}
		var init S
		if p.match(ASSIGN) {
			init, err = p.assignExpr()
			if err != nil {
				return nil, err
			}
		} else {
			if tag == "const" {
				return nil, p.errHere("missing initializer in const declaration")
			}
			init = p.mkLeaf("undef", -1)
		}
		parts = append(parts, nameTok.Lexeme, init)
		if !p.match(COMMA) {
			break
		}
	}
	return p.mk(tag, st, p.i-1, parts...), nil
}

func (p *parser) functionDecl() (S, error) {
	st := p.i
	p.i++ // FUNCTION
	nameTok, err := p.need(ID, "expected function name")
	if err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	return p.mk("fndecl", st, p.i-1, nameTok.Lexeme, params, body), nil
}

func (p *parser) paramList() (S, error) {
	st := p.i
	if _, err := p.need(LPAREN, "expected '(' before parameter list"); err != nil {
		return nil, err
	}
	var names []any
	if p.peek().Type != RPAREN {
		for {
			t, err := p.need(ID, "expected parameter name")
			if err != nil {
				return nil, err
			}
			names = append(names, t.Lexeme)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.need(RPAREN, "expected ')' after parameter list"); err != nil {
		return nil, err
	}
	return p.mk("params", st, p.i-1, names...), nil
}

func (p *parser) ifStatement() (S, error) {
	st := p.i
	p.i++ // IF
	if _, err := p.need(LPAREN, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RPAREN, "expected ')' after condition"); err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	if p.match(ELSE) {
		alt, err := p.statement()
		if err != nil {
			return nil, err
		}
		return p.mk("if", st, p.i-1, cond, then, alt), nil
	}
	return p.mk("if", st, p.i-1, cond, then), nil
}

func (p *parser) whileStatement() (S, error) {
	st := p.i
	p.i++ // WHILE
	if _, err := p.need(LPAREN, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RPAREN, "expected ')' after condition"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return p.mk("while", st, p.i-1, cond, body), nil
}

func (p *parser) doStatement() (S, error) {
	st := p.i
	p.i++ // DO
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(WHILE, "expected 'while' after do body"); err != nil {
		return nil, err
	}
	if _, err := p.need(LPAREN, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RPAREN, "expected ')' after condition"); err != nil {
		return nil, err
	}
	n := p.mk("do", st, p.i-1, body, cond)
	return n, p.endStatement()
}

// forStatement distinguishes the three-clause form from for...in by parsing
// the header with `in` suppressed and checking what follows the first clause.
func (p *parser) forStatement() (S, error) {
	st := p.i
	p.i++ // FOR
	if _, err := p.need(LPAREN, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	// for (var|let|const x in obj) / for (x in obj)
	declKind := ""
	switch p.peek().Type {
	case VAR, LET, CONST:
		if p.peekAt(1).Type == ID && p.peekAt(2).Type == IN {
			declKind = p.peek().Lexeme
			p.i++
		}
	case ID:
		if p.peekAt(1).Type == IN {
			// fall through with declKind ""
		}
	}
	if p.peek().Type == ID && p.peekAt(1).Type == IN {
		name := p.peek().Lexeme
		p.i += 2 // ID IN
		obj, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "expected ')' after for...in header"); err != nil {
			return nil, err
		}
		body, err := p.statement()
		if err != nil {
			return nil, err
		}
		return p.mk("forin", st, p.i-1, declKind, name, obj, body), nil
	}

	// Classic three-clause form.
	var init S
	var err error
	switch p.peek().Type {
	case SEMI:
		init = p.mkLeaf("nop", p.i)
	case VAR, LET, CONST:
		p.noIn = true
		init, err = p.declStatement()
		p.noIn = false
		if err != nil {
			return nil, err
		}
	default:
		p.noIn = true
		init, err = p.expression()
		p.noIn = false
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.need(SEMI, "expected ';' after for initializer"); err != nil {
		return nil, err
	}

	var cond S
	if p.peek().Type == SEMI {
		cond = p.mkLeaf("nop", p.i)
	} else {
		cond, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.need(SEMI, "expected ';' after for condition"); err != nil {
		return nil, err
	}

	var post S
	if p.peek().Type == RPAREN {
		post = p.mkLeaf("nop", p.i)
	} else {
		post, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.need(RPAREN, "expected ')' after for header"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return p.mk("for", st, p.i-1, init, cond, post, body), nil
}

func (p *parser) tryStatement() (S, error) {
	st := p.i
	p.i++ // TRY
	block, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	catchParam := ""
	var catchBlock, finallyBlock S
	if p.match(CATCH) {
		if _, err := p.need(LPAREN, "expected '(' after 'catch'"); err != nil {
			return nil, err
		}
		t, err := p.need(ID, "expected catch parameter name")
		if err != nil {
			return nil, err
		}
		catchParam = t.Lexeme
		if _, err := p.need(RPAREN, "expected ')' after catch parameter"); err != nil {
			return nil, err
		}
		catchBlock, err = p.blockStatement()
		if err != nil {
			return nil, err
		}
	} else {
		catchBlock = p.mkLeaf("nop", -1)
	}
	if p.match(FINALLY) {
		finallyBlock, err = p.blockStatement()
		if err != nil {
			return nil, err
		}
	} else {
		finallyBlock = p.mkLeaf("nop", -1)
	}
	if Tag(catchBlock) == "nop" && Tag(finallyBlock) == "nop" {
		return nil, p.errHere("try statement needs a catch or finally clause")
	}
	return p.mk("try", st, p.i-1, block, catchParam, catchBlock, finallyBlock), nil
}

// ─────────────────────────────── expressions ────────────────────────────────

// expression parses the full grammar including the comma operator.
func (p *parser) expression() (S, error) {
	st := p.i
	left, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	for p.match(COMMA) {
		right, err := p.assignExpr()
		if err != nil {
			return nil, err
		}
		left = p.mk("seq", st, p.i-1, left, right)
	}
	return left, nil
}

var compoundOps = map[TokenType]string{
	PLUS_EQ:  "+",
	MINUS_EQ: "-",
	STAR_EQ:  "*",
	SLASH_EQ: "/",
	PCT_EQ:   "%",
}

func (p *parser) assignExpr() (S, error) {
	// Arrow functions are detected before normal descent: `x => ...` or a
	// parenthesized parameter list followed by `=>`.
	if p.peek().Type == ID && p.peekAt(1).Type == ARROW {
		return p.arrowFromSingleParam()
	}
	if p.peek().Type == LPAREN && p.parenIsArrowHead() {
		return p.arrowFromParenParams()
	}

	st := p.i
	left, err := p.condExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == ASSIGN {
		if !assignable(left) {
			return nil, p.errHere("invalid assignment target")
		}
		p.i++
		right, err := p.assignExpr()
		if err != nil {
			return nil, err
		}
		return p.mk("assign", st, p.i-1, left, right), nil
	}
	if op, ok := compoundOps[p.peek().Type]; ok {
		if !assignable(left) {
			return nil, p.errHere("invalid assignment target")
		}
		p.i++
		right, err := p.assignExpr()
		if err != nil {
			return nil, err
		}
		return p.mk("opassign", st, p.i-1, op, left, right), nil
	}
	return left, nil
}

// parenIsArrowHead looks ahead from an LPAREN for the matching RPAREN
// immediately followed by '=>'.
func (p *parser) parenIsArrowHead() bool {
	depth := 0
	for j := p.i; j < len(p.toks); j++ {
		switch p.toks[j].Type {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
			if depth == 0 {
				return j+1 < len(p.toks) && p.toks[j+1].Type == ARROW
			}
		case EOF:
			return false
		}
	}
	return false
}

func (p *parser) arrowFromSingleParam() (S, error) {
	st := p.i
	params := p.mk("params", st, st, p.peek().Lexeme)
	p.i += 2 // ID ARROW
	return p.arrowBody(st, params)
}

func (p *parser) arrowFromParenParams() (S, error) {
	st := p.i
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ARROW, "expected '=>'"); err != nil {
		return nil, err
	}
	return p.arrowBody(st, params)
}

func (p *parser) arrowBody(st int, params S) (S, error) {
	if p.peek().Type == LBRACE {
		body, err := p.blockStatement()
		if err != nil {
			return nil, err
		}
		return p.mk("arrow", st, p.i-1, params, body, false), nil
	}
	body, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return p.mk("arrow", st, p.i-1, params, body, true), nil
}

func (p *parser) condExpr() (S, error) {
	st := p.i
	cond, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if !p.match(QUESTION) {
		return cond, nil
	}
	// The consequent allows `in` regardless of the enclosing for-header.
	savedNoIn := p.noIn
	p.noIn = false
	a, err := p.assignExpr()
	p.noIn = savedNoIn
	if err != nil {
		return nil, err
	}
	if _, err := p.need(COLON, "expected ':' in conditional expression"); err != nil {
		return nil, err
	}
	b, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return p.mk("cond", st, p.i-1, cond, a, b), nil
}

func (p *parser) orExpr() (S, error) {
	st := p.i
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.match(OR) {
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = p.mk("logic", st, p.i-1, "||", left, right)
	}
	return left, nil
}

func (p *parser) andExpr() (S, error) {
	st := p.i
	left, err := p.equalityExpr()
	if err != nil {
		return nil, err
	}
	for p.match(AND) {
		right, err := p.equalityExpr()
		if err != nil {
			return nil, err
		}
		left = p.mk("logic", st, p.i-1, "&&", left, right)
	}
	return left, nil
}

var equalityOps = map[TokenType]string{
	EQ:        "==",
	NEQ:       "!=",
	STRICT_EQ: "===",
	STRICT_NE: "!==",
}

func (p *parser) equalityExpr() (S, error) {
	st := p.i
	left, err := p.relationalExpr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := equalityOps[p.peek().Type]
		if !ok {
			return left, nil
		}
		p.i++
		right, err := p.relationalExpr()
		if err != nil {
			return nil, err
		}
		left = p.mk("binop", st, p.i-1, op, left, right)
	}
}

func (p *parser) relationalExpr() (S, error) {
	st := p.i
	left, err := p.additiveExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case LESS:
			op = "<"
		case LESS_EQ:
			op = "<="
		case GREATER:
			op = ">"
		case GREATER_EQ:
			op = ">="
		case INSTANCEOF:
			op = "instanceof"
		case IN:
			if p.noIn {
				return left, nil
			}
			op = "in"
		default:
			return left, nil
		}
		p.i++
		right, err := p.additiveExpr()
		if err != nil {
			return nil, err
		}
		left = p.mk("binop", st, p.i-1, op, left, right)
	}
}

func (p *parser) additiveExpr() (S, error) {
	st := p.i
	left, err := p.multiplicativeExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case PLUS:
			op = "+"
		case MINUS:
			op = "-"
		default:
			return left, nil
		}
		p.i++
		right, err := p.multiplicativeExpr()
		if err != nil {
			return nil, err
		}
		left = p.mk("binop", st, p.i-1, op, left, right)
	}
}

func (p *parser) multiplicativeExpr() (S, error) {
	st := p.i
	left, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case STAR:
			op = "*"
		case SLASH:
			op = "/"
		case PERCENT:
			op = "%"
		default:
			return left, nil
		}
		p.i++
		right, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		left = p.mk("binop", st, p.i-1, op, left, right)
	}
}

func (p *parser) unaryExpr() (S, error) {
	st := p.i
	var op string
	switch p.peek().Type {
	case MINUS:
		op = "-"
	case PLUS:
		op = "+"
	case BANG:
		op = "!"
	case TYPEOF:
		op = "typeof"
	case VOID:
		op = "void"
	case DELETE:
		op = "delete"
	case INC, DEC:
		uop := "++"
		if p.peek().Type == DEC {
			uop = "--"
		}
		p.i++
		target, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		if !assignable(target) {
			return nil, p.errHere("invalid increment/decrement target")
		}
		return p.mk("update", st, p.i-1, uop, true, target), nil
	default:
		return p.postfixExpr()
	}
	p.i++
	e, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	return p.mk("unop", st, p.i-1, op, e), nil
}

func (p *parser) postfixExpr() (S, error) {
	st := p.i
	e, err := p.callMemberExpr()
	if err != nil {
		return nil, err
	}
	// Postfix ++/-- is newline-restricted.
	if (p.peek().Type == INC || p.peek().Type == DEC) && !p.newlineBefore() {
		if !assignable(e) {
			return nil, p.errHere("invalid increment/decrement target")
		}
		op := "++"
		if p.peek().Type == DEC {
			op = "--"
		}
		p.i++
		return p.mk("update", st, p.i-1, op, false, e), nil
	}
	return e, nil
}

// callMemberExpr parses `new` chains, member access, indexing and calls.
func (p *parser) callMemberExpr() (S, error) {
	st := p.i
	var left S
	var err error
	if p.match(NEW) {
		callee, err := p.memberOnly()
		if err != nil {
			return nil, err
		}
		var args []any
		if p.peek().Type == LPAREN {
			args, err = p.argList()
			if err != nil {
				return nil, err
			}
		}
		left = p.mk("new", st, p.i-1, append([]any{callee}, args...)...)
	} else {
		left, err = p.primary()
		if err != nil {
			return nil, err
		}
	}
	return p.memberTail(st, left, true)
}

// memberOnly parses the callee of a `new` expression: member access binds to
// the constructor, a call argument list terminates it.
func (p *parser) memberOnly() (S, error) {
	st := p.i
	if p.match(NEW) {
		callee, err := p.memberOnly()
		if err != nil {
			return nil, err
		}
		var args []any
		if p.peek().Type == LPAREN {
			args, err = p.argList()
			if err != nil {
				return nil, err
			}
		}
		return p.mk("new", st, p.i-1, append([]any{callee}, args...)...), nil
	}
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	return p.memberTail(st, left, false)
}

func (p *parser) memberTail(st int, left S, allowCalls bool) (S, error) {
	for {
		switch {
		case p.match(PERIOD):
			t := p.peek()
			if t.Type != ID && !isKeywordToken(t.Type) {
				return nil, p.errHere("expected property name after '.'")
			}
			p.i++
			left = p.mk("member", st, p.i-1, left, t.Lexeme)
		case p.match(LBRACKET):
			savedNoIn := p.noIn
			p.noIn = false
			key, err := p.expression()
			p.noIn = savedNoIn
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RBRACKET, "expected ']' after index expression"); err != nil {
				return nil, err
			}
			left = p.mk("index", st, p.i-1, left, key)
		case allowCalls && p.peek().Type == LPAREN:
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			left = p.mk("call", st, p.i-1, append([]any{left}, args...)...)
		default:
			return left, nil
		}
	}
}

func isKeywordToken(tt TokenType) bool { return tt >= VAR && tt <= THROW }

func (p *parser) argList() ([]any, error) {
	if _, err := p.need(LPAREN, "expected '('"); err != nil {
		return nil, err
	}
	var args []any
	savedNoIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = savedNoIn }()
	if p.peek().Type != RPAREN {
		for {
			a, err := p.assignExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.need(RPAREN, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) primary() (S, error) {
	st := p.i
	t := p.peek()
	switch t.Type {
	case NUMBER:
		p.i++
		return p.mkLeaf("num", st, t.Literal.(float64)), nil
	case STRING:
		p.i++
		return p.mkLeaf("str", st, t.Literal.(string)), nil
	case TRUE:
		p.i++
		return p.mkLeaf("bool", st, true), nil
	case FALSE:
		p.i++
		return p.mkLeaf("bool", st, false), nil
	case NULL:
		p.i++
		return p.mkLeaf("null", st), nil
	case THIS:
		p.i++
		return p.mkLeaf("this", st), nil
	case ID:
		p.i++
		return p.mkLeaf("id", st, t.Lexeme), nil
	case LPAREN:
		p.i++
		savedNoIn := p.noIn
		p.noIn = false
		e, err := p.expression()
		p.noIn = savedNoIn
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return e, nil
	case LBRACKET:
		return p.arrayLiteral()
	case LBRACE:
		return p.objectLiteral()
	case FUNCTION:
		return p.functionExpr()
	}
	if t.Type == EOF {
		return nil, p.errHere("unexpected end of input")
	}
	return nil, p.errHere(fmt.Sprintf("unexpected token %q", t.Lexeme))
}

func (p *parser) functionExpr() (S, error) {
	st := p.i
	p.i++ // FUNCTION
	name := ""
	if p.peek().Type == ID {
		name = p.peek().Lexeme
		p.i++
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	return p.mk("fn", st, p.i-1, name, params, body), nil
}

func (p *parser) arrayLiteral() (S, error) {
	st := p.i
	p.i++ // LBRACKET
	var elems []any
	savedNoIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = savedNoIn }()
	for p.peek().Type != RBRACKET {
		if p.atEnd() {
			return nil, p.errHere("unterminated array literal")
		}
		if p.peek().Type == COMMA {
			// Elision hole.
			elems = append(elems, p.mkLeaf("undef", p.i))
			p.i++
			continue
		}
		e, err := p.assignExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RBRACKET, "expected ']' after array literal"); err != nil {
		return nil, err
	}
	return p.mk("arr", st, p.i-1, elems...), nil
}

func (p *parser) objectLiteral() (S, error) {
	st := p.i
	p.i++ // LBRACE
	var entries []any
	savedNoIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = savedNoIn }()
	for p.peek().Type != RBRACE {
		if p.atEnd() {
			return nil, p.errHere("unterminated object literal")
		}
		entry, err := p.objectEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RBRACE, "expected '}' after object literal"); err != nil {
		return nil, err
	}
	return p.mk("obj", st, p.i-1, entries...), nil
}

func (p *parser) objectEntry() (S, error) {
	st := p.i
	t := p.peek()

	// get/set accessors: contextual keywords, only when followed by another
	// property key rather than ':' or '('.
	if t.Type == ID && (t.Lexeme == "get" || t.Lexeme == "set") {
		next := p.peekAt(1).Type
		if next != COLON && next != COMMA && next != RBRACE && next != LPAREN {
			kind := t.Lexeme
			p.i++
			key, err := p.propertyKey()
			if err != nil {
				return nil, err
			}
			fn, err := p.accessorBody(st)
			if err != nil {
				return nil, err
			}
			tag := "getter"
			if kind == "set" {
				tag = "setter"
			}
			return p.mk(tag, st, p.i-1, key, fn), nil
		}
	}

	key, err := p.propertyKey()
	if err != nil {
		return nil, err
	}
	// Method shorthand: key(params) { body }.
	if p.peek().Type == LPAREN {
		fn, err := p.accessorBody(st)
		if err != nil {
			return nil, err
		}
		return p.mk("prop", st, p.i-1, key, fn), nil
	}
	if _, err := p.need(COLON, "expected ':' after property key"); err != nil {
		return nil, err
	}
	v, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return p.mk("prop", st, p.i-1, key, v), nil
}

// accessorBody parses `(params) { body }` into an anonymous fn node.
func (p *parser) accessorBody(st int) (S, error) {
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	body, err := p.blockStatement()
	if err != nil {
		return nil, err
	}
	return p.mk("fn", st, p.i-1, "", params, body), nil
}

func (p *parser) propertyKey() (S, error) {
	t := p.peek()
	st := p.i
	switch {
	case t.Type == ID || isKeywordToken(t.Type):
		p.i++
		return p.mkLeaf("str", st, t.Lexeme), nil
	case t.Type == STRING:
		p.i++
		return p.mkLeaf("str", st, t.Literal.(string)), nil
	case t.Type == NUMBER:
		p.i++
		return p.mkLeaf("str", st, numberToString(t.Literal.(float64))), nil
	}
	return nil, p.errHere("expected property key")
}

// assignable reports whether a node is a valid assignment target.
func assignable(n S) bool {
	switch Tag(n) {
	case "id", "member", "index":
		return true
	}
	return false
}
