package glparse

import (
	"math"
	"strings"
)

// Lexer splits shader source into tokens. Errors are appended to the
// error list shared with the parser.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
	errs *ErrorList
	// opaque is set while the parser skips text it does not interpret.
	// Integers are not range checked then.
	opaque bool
}

// NewLexer returns a lexer over src reporting errors to errs.
func NewLexer(src string, errs *ErrorList) *Lexer {
	return &Lexer{src: src, line: 1, col: 1, errs: errs}
}

func (l *Lexer) location() Location {
	return Location{Offset: l.pos, Line: l.line, Col: l.col}
}

func (l *Lexer) advance() {
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) peek(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

// skipBlanks skips whitespace and block comments and reports whether
// a newline was crossed.
func (l *Lexer) skipBlanks() (newline bool) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			newline = true
			l.advance()
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.advance()
		case c == '/' && l.peek(1) == '*':
			start := l.location()
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.src[l.pos] == '*' && l.peek(1) == '/') {
				newline = newline || l.src[l.pos] == '\n'
				l.advance()
			}
			if l.pos >= len(l.src) {
				l.errs.Add(start, "unterminated block comment")
				return newline
			}
			l.advance()
			l.advance()
		default:
			return newline
		}
	}
	return newline
}

// Next returns the next token and whether a newline separates it from the previous one.
// At the end of input Next keeps returning a [TagEnd] token.
func (l *Lexer) Next() (tok Token, newline bool) {
	newline = l.skipBlanks()
	tok.Pos = l.location()
	if l.pos >= len(l.src) {
		tok.Tag = TagEnd
		return tok, newline
	}
	c := l.src[l.pos]
	switch {
	case isLetter(c):
		start := l.pos
		for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.advance()
		}
		tok.Text = l.src[start:l.pos]
		if kw, ok := keywords[tok.Text]; ok {
			tok.Tag = kw
		} else {
			tok.Tag = TagIdent
		}
		return tok, newline

	case isDigit(c) || c == '.' && isDigit(l.peek(1)):
		if text, ok := l.real(); ok {
			tok.Tag = TagReal
			tok.Text = text
			return tok, newline
		}
		tok.Tag = TagInt
		tok.Value = l.integer(tok.Pos)
		return tok, newline

	case c == '/' && l.peek(1) == '/':
		l.advance()
		l.advance()
		tok.Tag = TagLineComment
		return tok, newline
	}
	l.advance()
	switch c {
	case '#':
		tok.Tag = TagHash
	case '(':
		tok.Tag = TagLParen
	case ')':
		tok.Tag = TagRParen
	case '{':
		tok.Tag = TagLBrace
	case '}':
		tok.Tag = TagRBrace
	case '[':
		tok.Tag = TagLBracket
	case ']':
		tok.Tag = TagRBracket
	case ';':
		tok.Tag = TagSemicolon
	case '=':
		tok.Tag = TagAssign
	default:
		tok.Tag = TagUnexpected
		tok.Text = string(c)
	}
	return tok, newline
}

// real reads a number of the form digits[.digits][e[+-]digits] with an
// optional f or lf suffix. Plain integers are left unread and ok is false.
func (l *Lexer) real() (text string, ok bool) {
	i := l.pos
	for i < len(l.src) && isDigit(l.src[i]) {
		i++
	}
	isReal := false
	if i < len(l.src) && l.src[i] == '.' {
		isReal = true
		i++
		for i < len(l.src) && isDigit(l.src[i]) {
			i++
		}
	}
	if i < len(l.src) && (l.src[i] == 'e' || l.src[i] == 'E') {
		j := i + 1
		if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
			j++
		}
		if j < len(l.src) && isDigit(l.src[j]) {
			isReal = true
			i = j
			for i < len(l.src) && isDigit(l.src[i]) {
				i++
			}
		}
	}
	if !isReal {
		return "", false
	}
	switch {
	case i < len(l.src) && (l.src[i] == 'f' || l.src[i] == 'F'):
		i++
	case i+1 < len(l.src) && (l.src[i:i+2] == "lf" || l.src[i:i+2] == "LF"):
		i += 2
	}
	start := l.pos
	for l.pos < i {
		l.advance()
	}
	return l.src[start:l.pos], true
}

// integer reads a decimal integer. Values out of range are reported and clamped.
func (l *Lexer) integer(pos Location) int32 {
	var v int64
	overflow := false
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		if !overflow {
			v = v*10 + int64(l.src[l.pos]-'0')
			overflow = v > math.MaxInt32
		}
		l.advance()
	}
	if overflow {
		if l.opaque {
			return math.MaxInt32
		}
		l.errs.Add(pos, "integer too large")
		return math.MaxInt32
	}
	return int32(v)
}

// SkipLine skips the rest of the current line, including the newline,
// and returns the skipped text without surrounding whitespace.
func (l *Lexer) SkipLine() string {
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.advance()
	}
	text := l.src[start:l.pos]
	if l.pos < len(l.src) {
		l.advance()
	}
	return strings.TrimSpace(text)
}

func isLetter(c byte) bool { return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
