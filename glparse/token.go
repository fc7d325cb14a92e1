package glparse

import (
	"strconv"
)

// Tag identifies the kind of a token.
type Tag uint8

const (
	TagEnd Tag = iota
	TagIdent
	TagInt
	TagReal
	TagLineComment
	// TagUnexpected is any character not otherwise recognized. Procedure bodies
	// are made of them and are skipped by the parser.
	TagUnexpected

	TagHash
	TagLParen
	TagRParen
	TagLBrace
	TagRBrace
	TagLBracket
	TagRBracket
	TagSemicolon
	TagAssign

	// Keywords.
	TagVersion
	TagLayout
	TagLocation
	TagFlat
	TagIn
	TagOut
	TagUniform
	TagStruct
	TagDefine
	tagEnd
)

var keywords = map[string]Tag{
	"version":  TagVersion,
	"layout":   TagLayout,
	"location": TagLocation,
	"flat":     TagFlat,
	"in":       TagIn,
	"out":      TagOut,
	"uniform":  TagUniform,
	"struct":   TagStruct,
	"define":   TagDefine,
}

var tagNames = [...]string{
	TagEnd:         "end of file",
	TagIdent:       "identifier",
	TagInt:         "integer",
	TagReal:        "real number",
	TagLineComment: "'//'",
	TagUnexpected:  "unexpected character",
	TagHash:        "'#'",
	TagLParen:      "'('",
	TagRParen:      "')'",
	TagLBrace:      "'{'",
	TagRBrace:      "'}'",
	TagLBracket:    "'['",
	TagRBracket:    "']'",
	TagSemicolon:   "';'",
	TagAssign:      "'='",
	TagVersion:     "version",
	TagLayout:      "layout",
	TagLocation:    "location",
	TagFlat:        "flat",
	TagIn:          "in",
	TagOut:         "out",
	TagUniform:     "uniform",
	TagStruct:      "struct",
	TagDefine:      "define",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) && tagNames[t] != "" {
		return tagNames[t]
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// IsKeyword reports whether t is a reserved word of the shader dialect.
func (t Tag) IsKeyword() bool { return t >= TagVersion && t < tagEnd }

// Location is a position in shader source. Line and Col are 1-based.
type Location struct {
	Offset    int
	Line, Col int
}

func (l Location) String() string {
	return strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Col)
}

// Token is a lexical token of shader source.
type Token struct {
	Tag Tag
	Pos Location
	// Text is the source text of identifiers, real numbers and unexpected characters.
	Text string
	// Value is the value of an integer token.
	Value int32
}

func (t Token) String() string {
	switch t.Tag {
	case TagIdent, TagUnexpected:
		return strconv.Quote(t.Text)
	case TagReal:
		return t.Text
	case TagInt:
		return strconv.Itoa(int(t.Value))
	}
	return t.Tag.String()
}
