// Package glparse lexes and parses the declarations of GLSL shader stages.
//
// The grammar only covers what is needed to validate the channels of a stage:
//
//	program     = version { declaration | line-comment }
//	version     = '#' "version" integer [profile]
//	declaration = struct | channel | define | procedure
//	struct      = "struct" ident '{' { variable } '}' ';'
//	channel     = [layout] ["flat"] ("in" | "out" | "uniform") variable
//	layout      = "layout" '(' "location" '=' integer ')'
//	variable    = ident ident [ '[' ... ']' ] ';'
//	define      = '#' "define" ident ... end-of-line
//	procedure   = ident ident '(' ... ')' '{' ... '}'
//
// Procedure bodies are skipped. Errors do not stop parsing; all of them
// are returned together as an [ErrorList].
package glparse

// Parse parses the shader stage source src.
func Parse(src string) (*Program, error) {
	var p Parser
	p.Reset(src)
	prog := p.ParseProgram()
	return prog, p.Err()
}

// Parser is a recursive descent parser with one token of lookahead.
type Parser struct {
	lex     *Lexer
	tok     Token
	newline bool
	errs    ErrorList
}

// Reset prepares the parser to parse src, discarding previous errors.
func (p *Parser) Reset(src string) {
	p.errs = p.errs[:0]
	p.lex = NewLexer(src, &p.errs)
	p.next()
}

// Err returns the accumulated errors or nil.
func (p *Parser) Err() error { return p.errs.Err() }

// Errors returns the accumulated errors.
func (p *Parser) Errors() ErrorList { return p.errs }

func (p *Parser) next() {
	p.tok, p.newline = p.lex.Next()
}

// syncs reports whether t starts a declaration. Such tokens are never
// consumed on a mismatch so the next declaration parses cleanly.
func syncs(t Tag) bool {
	switch t {
	case TagStruct, TagLayout, TagFlat, TagIn, TagOut, TagUniform, TagHash, TagLineComment, TagEnd:
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs.Addf(p.tok.Pos, format, args...)
}

// expect consumes a token of kind t, reporting an error if the current token differs.
func (p *Parser) expect(t Tag) bool {
	if p.tok.Tag == t {
		p.next()
		return true
	}
	p.errorf("%s expected, found %s", t, p.tok)
	if !syncs(p.tok.Tag) {
		p.next()
	}
	return false
}

func (p *Parser) ident() string {
	if p.tok.Tag == TagIdent {
		name := p.tok.Text
		p.next()
		return name
	}
	p.errorf("identifier expected, found %s", p.tok)
	if !syncs(p.tok.Tag) {
		p.next()
	}
	return ""
}

func (p *Parser) integer() int {
	if p.tok.Tag == TagInt {
		v := p.tok.Value
		p.next()
		return int(v)
	}
	p.errorf("integer expected, found %s", p.tok)
	if !syncs(p.tok.Tag) {
		p.next()
	}
	return 0
}

// ParseProgram parses the whole source.
func (p *Parser) ParseProgram() *Program {
	prog := new(Program)
	p.expect(TagHash)
	p.expect(TagVersion)
	prog.Version = p.integer()
	if p.tok.Tag == TagIdent && !p.newline {
		prog.Profile = p.tok.Text
		p.next()
	}
	for p.tok.Tag != TagEnd {
		switch p.tok.Tag {
		case TagLineComment:
			p.lex.SkipLine()
			p.next()
		case TagStruct:
			prog.Decls = append(prog.Decls, p.parseStruct())
		case TagLayout, TagFlat, TagIn, TagOut, TagUniform:
			prog.Decls = append(prog.Decls, p.parseChannel())
		case TagHash:
			if d := p.parseDefine(); d != nil {
				prog.Decls = append(prog.Decls, d)
			}
		default:
			prog.Decls = append(prog.Decls, p.parseProcedure())
		}
	}
	return prog
}

func (p *Parser) parseStruct() *Struct {
	s := &Struct{Pos: p.tok.Pos}
	p.next() // struct
	s.Name = p.ident()
	p.expect(TagLBrace)
	for p.tok.Tag == TagIdent {
		s.Members = append(s.Members, p.parseVariable())
	}
	if p.expect(TagRBrace) {
		p.expect(TagSemicolon)
	}
	return s
}

func (p *Parser) parseChannel() *Channel {
	c := &Channel{Pos: p.tok.Pos, Location: -1}
	if p.tok.Tag == TagLayout {
		p.next()
		p.expect(TagLParen)
		p.expect(TagLocation)
		p.expect(TagAssign)
		c.Location = p.integer()
		p.expect(TagRParen)
	}
	if p.tok.Tag == TagFlat {
		c.Flat = true
		p.next()
	}
	switch p.tok.Tag {
	case TagIn:
		c.Dir = DirIn
	case TagOut:
		c.Dir = DirOut
	case TagUniform:
		c.Dir = DirUniform
	default:
		p.errorf("in, out or uniform expected, found %s", p.tok)
		return c
	}
	p.next()
	c.Var = p.parseVariable()
	return c
}

func (p *Parser) parseVariable() Variable {
	v := Variable{Pos: p.tok.Pos}
	v.Type = p.ident()
	v.Name = p.ident()
	if p.tok.Tag == TagLBracket {
		v.Array = true
		p.skipClause(TagLBracket, TagRBracket, false)
	}
	p.expect(TagSemicolon)
	return v
}

func (p *Parser) parseDefine() *Define {
	d := &Define{Pos: p.tok.Pos}
	p.next() // #
	if p.tok.Tag != TagDefine {
		p.errorf("define expected, found %s", p.tok)
		if !p.newline && p.tok.Tag != TagEnd {
			p.lex.SkipLine()
			p.next()
		}
		return nil
	}
	p.next()
	if p.tok.Tag != TagIdent || p.newline {
		p.errorf("identifier expected after define")
		return nil
	}
	d.Name = p.tok.Text
	d.Value = p.lex.SkipLine()
	p.next()
	return d
}

func (p *Parser) parseProcedure() *Procedure {
	proc := &Procedure{Pos: p.tok.Pos}
	proc.ReturnType = p.ident()
	proc.Name = p.ident()
	if p.tok.Tag != TagLParen {
		p.errorf("'(' expected, found %s", p.tok)
		p.skipStatement()
		return proc
	}
	p.skipClause(TagLParen, TagRParen, false)
	if p.tok.Tag != TagLBrace {
		p.errorf("'{' expected, found %s", p.tok)
		p.skipStatement()
		return proc
	}
	p.skipClause(TagLBrace, TagRBrace, true)
	return proc
}

// skipStatement skips past the next semicolon or up to the next declaration.
func (p *Parser) skipStatement() {
	for !syncs(p.tok.Tag) {
		semicolon := p.tok.Tag == TagSemicolon
		p.next()
		if semicolon {
			return
		}
	}
}

// skipClause skips from the current opening token to the matching closing token.
// If nested is false a second opening token is an error. Nested clauses are
// procedure bodies, whose contents are not interpreted.
func (p *Parser) skipClause(opening, closing Tag, nested bool) {
	p.lex.opaque = nested
	depth := 0
	for {
		switch p.tok.Tag {
		case TagEnd:
			p.lex.opaque = false
			p.errorf("unexpected end of file, %s expected", closing)
			return
		case TagLineComment:
			p.lex.SkipLine()
		case opening:
			if depth > 0 && !nested {
				p.errorf("clause cannot be nested")
			}
			depth++
		case closing:
			depth--
			if depth == 0 {
				p.lex.opaque = false
				p.next()
				return
			}
		}
		p.next()
	}
}
