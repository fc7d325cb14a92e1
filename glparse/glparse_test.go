package glparse_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/soypat/glshade/glparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerIntegerOverflow(t *testing.T) {
	var errs glparse.ErrorList
	lex := glparse.NewLexer("99999999999 12", &errs)
	tok, _ := lex.Next()
	assert.Equal(t, glparse.TagInt, tok.Tag)
	assert.Equal(t, int32(math.MaxInt32), tok.Value)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Msg, "too large")
	tok, _ = lex.Next()
	assert.Equal(t, int32(12), tok.Value, "lexing continues after overflow")
	assert.Len(t, errs, 1)
}

func TestLexerReals(t *testing.T) {
	var errs glparse.ErrorList
	lex := glparse.NewLexer("3.14159265358979 5000000000. 1e10 2.5E-3f .5 1.0lf 7 x.y", &errs)
	for _, want := range []string{"3.14159265358979", "5000000000.", "1e10", "2.5E-3f", ".5", "1.0lf"} {
		tok, _ := lex.Next()
		assert.Equal(t, glparse.TagReal, tok.Tag, want)
		assert.Equal(t, want, tok.Text)
	}
	tok, _ := lex.Next()
	assert.Equal(t, glparse.TagInt, tok.Tag)
	assert.Equal(t, int32(7), tok.Value)
	tok, _ = lex.Next()
	assert.Equal(t, glparse.TagIdent, tok.Tag)
	tok, _ = lex.Next()
	assert.Equal(t, glparse.TagUnexpected, tok.Tag, "member access dot")
	assert.Empty(t, errs)
}

func TestParseNumbersInBodies(t *testing.T) {
	const src = `#version 410
out vec4 fragment;
void main() {
	fragment = vec4(3.14159265358979, 5000000000. * 1., 1e-40, 1.0);
	uint mask = 4294967295u;
}
uniform float Gain;
`
	prog, err := glparse.Parse(src)
	require.NoError(t, err)
	assert.True(t, prog.Declares("Gain"), "parsing resumes after the body")

	_, err = glparse.Parse("#version 410\nuniform float x[99999999999];\nvoid main() { int y = 99999999999; }\n")
	require.Error(t, err)
	var list glparse.ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 1, "only the array size is checked")
	assert.Equal(t, 2, list[0].Pos.Line)

	_, err = glparse.Parse("#version 4.1\n")
	assert.ErrorContains(t, err, "integer expected, found 4.1")
}

func TestLexerTokens(t *testing.T) {
	const src = "#version 410 core\nuniform uniforms;// x\n  layout(location=3)[]{}"
	want := []struct {
		tag     glparse.Tag
		text    string
		newline bool
		line    int
	}{
		{glparse.TagHash, "", false, 1},
		{glparse.TagVersion, "version", false, 1},
		{glparse.TagInt, "", false, 1},
		{glparse.TagIdent, "core", false, 1},
		{glparse.TagUniform, "uniform", true, 2},
		{glparse.TagIdent, "uniforms", false, 2},
		{glparse.TagSemicolon, "", false, 2},
		{glparse.TagLineComment, "", false, 2},
	}
	var errs glparse.ErrorList
	lex := glparse.NewLexer(src, &errs)
	for i, w := range want {
		tok, newline := lex.Next()
		if tok.Tag != w.tag || tok.Text != w.text || newline != w.newline || tok.Pos.Line != w.line {
			t.Errorf("token %d: want %v %q nl=%v line %d, got %v %q nl=%v line %d", i, w.tag, w.text, w.newline, w.line, tok.Tag, tok.Text, newline, tok.Pos.Line)
		}
	}
	assert.Equal(t, "x", lex.SkipLine())
	wantTags := []glparse.Tag{
		glparse.TagLayout, glparse.TagLParen, glparse.TagLocation, glparse.TagAssign, glparse.TagInt,
		glparse.TagRParen, glparse.TagLBracket, glparse.TagRBracket, glparse.TagLBrace, glparse.TagRBrace,
		glparse.TagEnd, glparse.TagEnd,
	}
	for i, tag := range wantTags {
		tok, _ := lex.Next()
		if tok.Tag != tag {
			t.Errorf("tag %d: want %v, got %v", i, tag, tok.Tag)
		}
	}
	assert.Empty(t, errs)
}

func TestParse(t *testing.T) {
	const src = `#version 410 core
// Comment with ( unbalanced { braces
#define MAX_LIGHTS 4
struct Light {
	vec3 Color;
	float Intensity[4];
};
layout(location = 1) in vec3 Position;
flat out int Id;
uniform Light Lights[MAX_LIGHTS];
/* block
comment */
vec3 shade(vec3 n, Light l) {
	if (n.x > 0.5) {
		return l.Color * 2.0; // comment }
	}
	return vec3(0);
}
void main() {
	gl_Position = vec4(Position, 1.0);
}
`
	prog, err := glparse.Parse(src)
	require.NoError(t, err)
	assert.Equal(t, 410, prog.Version)
	assert.Equal(t, "core", prog.Profile)
	require.Len(t, prog.Decls, 7)

	def, ok := prog.Decls[0].(*glparse.Define)
	require.True(t, ok)
	assert.Equal(t, "MAX_LIGHTS", def.Name)
	assert.Equal(t, "4", def.Value)

	light, ok := prog.Struct("Light")
	require.True(t, ok)
	require.Len(t, light.Members, 2)
	assert.Equal(t, glparse.Variable{Type: "vec3", Name: "Color", Pos: light.Members[0].Pos}, light.Members[0])
	assert.True(t, light.Members[1].Array)

	chans := prog.Channels()
	require.Len(t, chans, 3)
	assert.Equal(t, glparse.DirIn, chans[0].Dir)
	assert.Equal(t, 1, chans[0].Location)
	assert.Equal(t, "Position", chans[0].Var.Name)
	assert.True(t, chans[1].Flat)
	assert.Equal(t, glparse.DirOut, chans[1].Dir)
	assert.Equal(t, -1, chans[1].Location)
	assert.Equal(t, glparse.DirUniform, chans[2].Dir)
	assert.Equal(t, "Light[]", chans[2].Var.TypeString())

	main, ok := prog.Decls[6].(*glparse.Procedure)
	require.True(t, ok)
	assert.Equal(t, "void", main.ReturnType)
	assert.Equal(t, "main", main.Name)
	assert.Equal(t, 19, main.Pos.Line)
	assert.True(t, prog.Declares("shade"))
}

func TestParseReportsAllErrors(t *testing.T) {
	const src = "#version 410\n" +
		"uniform float Foo\n" + // Missing semicolon.
		"uniform vec3 Bar;\n" +
		"unifrom vec3 Baz;\n" + // Misspelled keyword.
		"struct Light {\n" + // Never closed.
		"\tvec3 Color;\n"
	prog, err := glparse.Parse(src)
	require.Error(t, err)
	require.NotNil(t, prog)
	var list glparse.ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 3, err.Error())
	msg := err.Error()
	for _, loc := range []string{"3:1", "4:14", "7:1"} {
		assert.Contains(t, msg, loc+": ")
	}
	assert.True(t, strings.HasPrefix(msg, "3 shader syntax errors:"))
	// The well formed declaration is still parsed.
	assert.True(t, prog.Declares("Bar"))

	ctx := list.FormatWithContext(src)
	assert.Contains(t, ctx, "unifrom vec3 Baz;\n\t             ^")
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		src  string
		want string
	}{
		{"uniform float x;", "'#' expected"},
		{"#version 410\nuniform float x[[2]];", "clause cannot be nested"},
		{"#version 410\nvoid main() {\n\tfoo();\n", "unexpected end of file"},
		{"#version 410\n#extension GL_foo : enable\nuniform float x;", "define expected"},
		{"#version 410\nlayout(location = 0) vec3 x;", "in, out or uniform expected"},
		{"#version 410\nuniform float x;\n#define\n", "identifier expected after define"},
		{"#version 410\nin vec3 Position\n", "';' expected"},
		{"#version 410\nuniform int x[999999999999];", "integer too large"},
	} {
		_, err := glparse.Parse(test.src)
		if err == nil {
			t.Errorf("%q: expected error", test.src)
			continue
		}
		assert.Contains(t, err.Error(), test.want, test.src)
	}
}
