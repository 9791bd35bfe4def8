// lexer.go — source text → token stream.
package volt

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	SEMI     // ";"
	COLON    // ":"
	COMMA    // ","
	PERIOD   // "."
	QUESTION // "?"
	ARROW    // "=>"

	// Operators
	PLUS       // "+"
	MINUS      // "-"
	STAR       // "*"
	SLASH      // "/"
	PERCENT    // "%"
	ASSIGN     // "="
	PLUS_EQ    // "+="
	MINUS_EQ   // "-="
	STAR_EQ    // "*="
	SLASH_EQ   // "/="
	PCT_EQ     // "%="
	EQ         // "=="
	NEQ        // "!="
	STRICT_EQ  // "==="
	STRICT_NE  // "!=="
	LESS       // "<"
	LESS_EQ    // "<="
	GREATER    // ">"
	GREATER_EQ // ">="
	AND        // "&&"
	OR         // "||"
	BANG       // "!"
	INC        // "++"
	DEC        // "--"

	// Literals & identifiers
	ID
	STRING
	NUMBER

	// Keywords
	VAR
	LET
	CONST
	FUNCTION
	RETURN
	IF
	ELSE
	WHILE
	DO
	FOR
	IN
	BREAK
	CONTINUE
	NEW
	DELETE
	TYPEOF
	INSTANCEOF
	VOID
	THIS
	NULL
	TRUE
	FALSE
	TRY
	CATCH
	FINALLY
	THROW
)

// Token is a lexical token with optional literal value. StartByte and EndByte
// are byte offsets into the source; the parser uses them to record node spans.
type Token struct {
	Type      TokenType
	Lexeme    string
	Literal   interface{} // float64 for NUMBER, string for STRING
	Line      int         // 1-based
	Col       int         // 0-based
	StartByte int
	EndByte   int
}

var keywords = map[string]TokenType{
	"var":        VAR,
	"let":        LET,
	"const":      CONST,
	"function":   FUNCTION,
	"return":     RETURN,
	"if":         IF,
	"else":       ELSE,
	"while":      WHILE,
	"do":         DO,
	"for":        FOR,
	"in":         IN,
	"break":      BREAK,
	"continue":   CONTINUE,
	"new":        NEW,
	"delete":     DELETE,
	"typeof":     TYPEOF,
	"instanceof": INSTANCEOF,
	"void":       VOID,
	"this":       THIS,
	"null":       NULL,
	"true":       TRUE,
	"false":      FALSE,
	"try":        TRY,
	"catch":      CATCH,
	"finally":    FINALLY,
	"throw":      THROW,
}

// LexError reports a malformed token with its 1-based line and 0-based column.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Lexer scans a source string into tokens in a single pass.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Lex scans the entire source and returns the token slice terminated by an
// EOF token, or the first malformed-token error.
func (l *Lexer) Lex() ([]Token, error) {
	for {
		l.skipSpaceAndComments()
		if l.isAtEnd() {
			break
		}
		l.start = l.cur
		l.tokStartLine, l.tokStartCol = l.line, l.col
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.start = l.cur
	l.tokStartLine, l.tokStartCol = l.line, l.col
	l.addToken(EOF, nil)
	return l.tokens, nil
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekN(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) match(expect byte) bool {
	if l.isAtEnd() || l.src[l.cur] != expect {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:      tt,
		Lexeme:    l.src[l.start:l.cur],
		Literal:   lit,
		Line:      l.tokStartLine,
		Col:       l.tokStartCol,
		StartByte: l.start,
		EndByte:   l.cur,
	})
}

func (l *Lexer) errf(format string, args ...interface{}) error {
	return &LexError{Line: l.tokStartLine, Col: l.tokStartCol, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) skipSpaceAndComments() {
	for !l.isAtEnd() {
		switch c := l.peek(); c {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekN(1) == '/' {
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
			} else if l.peekN(1) == '*' {
				l.advance()
				l.advance()
				for !l.isAtEnd() && !(l.peek() == '*' && l.peekN(1) == '/') {
					l.advance()
				}
				if !l.isAtEnd() {
					l.advance()
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanToken() error {
	c := l.advance()
	switch c {
	case '(':
		l.addToken(LPAREN, nil)
	case ')':
		l.addToken(RPAREN, nil)
	case '[':
		l.addToken(LBRACKET, nil)
	case ']':
		l.addToken(RBRACKET, nil)
	case '{':
		l.addToken(LBRACE, nil)
	case '}':
		l.addToken(RBRACE, nil)
	case ';':
		l.addToken(SEMI, nil)
	case ':':
		l.addToken(COLON, nil)
	case ',':
		l.addToken(COMMA, nil)
	case '?':
		l.addToken(QUESTION, nil)
	case '.':
		if isDigit(l.peek()) {
			return l.scanNumberTail()
		}
		l.addToken(PERIOD, nil)
	case '+':
		switch {
		case l.match('+'):
			l.addToken(INC, nil)
		case l.match('='):
			l.addToken(PLUS_EQ, nil)
		default:
			l.addToken(PLUS, nil)
		}
	case '-':
		switch {
		case l.match('-'):
			l.addToken(DEC, nil)
		case l.match('='):
			l.addToken(MINUS_EQ, nil)
		default:
			l.addToken(MINUS, nil)
		}
	case '*':
		if l.match('=') {
			l.addToken(STAR_EQ, nil)
		} else {
			l.addToken(STAR, nil)
		}
	case '/':
		if l.match('=') {
			l.addToken(SLASH_EQ, nil)
		} else {
			l.addToken(SLASH, nil)
		}
	case '%':
		if l.match('=') {
			l.addToken(PCT_EQ, nil)
		} else {
			l.addToken(PERCENT, nil)
		}
	case '=':
		switch {
		case l.match('='):
			if l.match('=') {
				l.addToken(STRICT_EQ, nil)
			} else {
				l.addToken(EQ, nil)
			}
		case l.match('>'):
			l.addToken(ARROW, nil)
		default:
			l.addToken(ASSIGN, nil)
		}
	case '!':
		if l.match('=') {
			if l.match('=') {
				l.addToken(STRICT_NE, nil)
			} else {
				l.addToken(NEQ, nil)
			}
		} else {
			l.addToken(BANG, nil)
		}
	case '<':
		if l.match('=') {
			l.addToken(LESS_EQ, nil)
		} else {
			l.addToken(LESS, nil)
		}
	case '>':
		if l.match('=') {
			l.addToken(GREATER_EQ, nil)
		} else {
			l.addToken(GREATER, nil)
		}
	case '&':
		if l.match('&') {
			l.addToken(AND, nil)
		} else {
			return l.errf("unexpected character '&'")
		}
	case '|':
		if l.match('|') {
			l.addToken(OR, nil)
		} else {
			return l.errf("unexpected character '|'")
		}
	case '"', '\'':
		return l.scanString(c)
	default:
		if isDigit(c) {
			return l.scanNumber(c)
		}
		if isIdentStart(c) {
			return l.scanIdent()
		}
		return l.errf("unexpected character %q", string(c))
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (l *Lexer) scanIdent() error {
	for !l.isAtEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	name := l.src[l.start:l.cur]
	if tt, ok := keywords[name]; ok {
		l.addToken(tt, nil)
		return nil
	}
	l.addToken(ID, nil)
	return nil
}

func (l *Lexer) scanNumber(first byte) error {
	if first == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		if !isHexDigit(l.peek()) {
			return l.errf("malformed hexadecimal literal")
		}
		for isHexDigit(l.peek()) {
			l.advance()
		}
		n, err := strconv.ParseUint(l.src[l.start+2:l.cur], 16, 64)
		if err != nil {
			return l.errf("malformed hexadecimal literal")
		}
		l.addToken(NUMBER, float64(n))
		return nil
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.scanExponentAndFinish()
}

// scanNumberTail handles literals beginning with '.', e.g. ".5".
func (l *Lexer) scanNumberTail() error {
	for isDigit(l.peek()) {
		l.advance()
	}
	return l.scanExponentAndFinish()
}

func (l *Lexer) scanExponentAndFinish() error {
	if l.peek() == 'e' || l.peek() == 'E' {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !isDigit(l.peek()) {
			return l.errf("malformed exponent in number literal")
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if isIdentStart(l.peek()) {
		return l.errf("identifier starts immediately after number literal")
	}
	f, err := strconv.ParseFloat(l.src[l.start:l.cur], 64)
	if err != nil {
		return l.errf("malformed number literal %q", l.src[l.start:l.cur])
	}
	l.addToken(NUMBER, f)
	return nil
}

func (l *Lexer) scanString(quote byte) error {
	var b strings.Builder
	for {
		if l.isAtEnd() {
			return l.errf("unterminated string literal")
		}
		c := l.advance()
		if c == quote {
			break
		}
		if c == '\n' {
			return l.errf("unterminated string literal")
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if l.isAtEnd() {
			return l.errf("unterminated string literal")
		}
		esc := l.advance()
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"', '`':
			b.WriteByte(esc)
		case '\n':
			// Line continuation: swallow the newline.
		case 'x':
			if l.cur+2 > len(l.src) || !isHexDigit(l.src[l.cur]) || !isHexDigit(l.src[l.cur+1]) {
				return l.errf("malformed \\x escape")
			}
			n, _ := strconv.ParseUint(l.src[l.cur:l.cur+2], 16, 32)
			l.advance()
			l.advance()
			b.WriteRune(rune(n))
		case 'u':
			if l.cur+4 > len(l.src) {
				return l.errf("malformed \\u escape")
			}
			for i := 0; i < 4; i++ {
				if !isHexDigit(l.src[l.cur+i]) {
					return l.errf("malformed \\u escape")
				}
			}
			n, _ := strconv.ParseUint(l.src[l.cur:l.cur+4], 16, 32)
			for i := 0; i < 4; i++ {
				l.advance()
			}
			b.WriteRune(rune(n))
		default:
			b.WriteByte(esc)
		}
	}
	l.addToken(STRING, b.String())
	return nil
}
