package glbind_test

import (
	"errors"
	"testing"

	"github.com/soypat/glshade/glbind"
	"github.com/soypat/glshade/glparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSrc = `#version 410
in vec3 Position;
uniform mat4 Model;
out vec3 Surface;
void main() {
	gl_Position = vec4(Position, 1.0) * Model;
	Surface = Position;
}
`

func mustParse(t *testing.T, src string) *glparse.Program {
	t.Helper()
	prog, err := glparse.Parse(src)
	require.NoError(t, err)
	return prog
}

func TestMergeLinksOutIn(t *testing.T) {
	frag := mustParse(t, `#version 410
in vec3 Surface;
uniform float Foo;
out vec4 color;
void main() { color = vec4(Surface * Foo, 1.0); }
`)
	v, err := glbind.NewValidator(mustParse(t, vertexSrc), frag)
	require.NoError(t, err)
	var names []string
	count := 0
	for _, c := range v.Channels() {
		names = append(names, c.Name)
		if c.Name == "Surface" {
			count++
			assert.True(t, c.Linked)
			assert.Equal(t, glparse.DirOut, c.Dir)
		}
	}
	assert.Equal(t, 1, count, "out/in pair must merge into one entry")
	assert.Equal(t, []string{"Position", "Model", "Surface", "Foo", "color"}, names)
	outs := v.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, "color", outs[0].Name)
}

func TestMergeTypeMismatch(t *testing.T) {
	frag := mustParse(t, "#version 410\nin vec4 Surface;\nout vec4 color;\n")
	_, err := glbind.NewValidator(mustParse(t, vertexSrc), frag)
	require.ErrorIs(t, err, glbind.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "Surface")
	assert.Contains(t, err.Error(), "vec3")
	assert.Contains(t, err.Error(), "vec4")

	frag = mustParse(t, "#version 410\nin vec3 Surface[2];\nout vec4 color;\n")
	_, err = glbind.NewValidator(mustParse(t, vertexSrc), frag)
	require.ErrorIs(t, err, glbind.ErrTypeMismatch, "array-ness must agree")
	assert.Contains(t, err.Error(), "vec3[]")
}

func TestMergeErrors(t *testing.T) {
	for _, frag := range []string{
		"#version 410\nuniform mat4 Model;\nout vec4 color;\n", // Duplicate uniform.
		"#version 410\nout vec3 Surface;\nout vec4 color;\n",   // Out twice.
	} {
		_, err := glbind.NewValidator(mustParse(t, vertexSrc), mustParse(t, frag))
		assert.ErrorIs(t, err, glbind.ErrDuplicate, frag)
	}
	_, err := glbind.NewValidator(mustParse(t, vertexSrc), mustParse(t, "#version 410\nin vec3 Surface;\n"))
	assert.ErrorIs(t, err, glbind.ErrNoOutput)
}

func TestStructExpansion(t *testing.T) {
	frag := mustParse(t, `#version 410
struct Light {
	vec3 Color;
	float Power[2];
};
uniform Light Light0;
out vec4 color;
`)
	v, err := glbind.NewValidator(mustParse(t, vertexSrc), frag)
	require.NoError(t, err)
	_, ok := v.Lookup("Light0")
	assert.False(t, ok, "struct channel itself is not an entry")
	c, ok := v.Lookup("Light0.Color")
	require.True(t, ok)
	assert.Equal(t, glparse.DirUniform, c.Dir)
	assert.Equal(t, "vec3", c.Var.Type)

	require.NoError(t, v.SetUniform("Light0.Power", "float", true, true))
	err = v.SetUniform("Light0.Power", "float", false, true)
	assert.ErrorIs(t, err, glbind.ErrNotArray)
	err = v.SetUniform("Light0.Color", "vec4", false, true)
	assert.ErrorIs(t, err, glbind.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "should be of type vec3")
}

func TestCheckInputs(t *testing.T) {
	frag := mustParse(t, "#version 410\nin vec3 Surface;\nuniform float Foo;\nout vec4 color;\n")
	v, err := glbind.NewValidator(mustParse(t, vertexSrc), frag)
	require.NoError(t, err)

	v.SetAttribute("Position")
	require.NoError(t, v.SetUniform("Model", "mat4", false, true))
	err = v.CheckInputs()
	var chErr *glbind.ChannelError
	require.True(t, errors.As(err, &chErr))
	assert.Equal(t, "Foo", chErr.Channel)
	assert.Equal(t, glbind.StageFragment, chErr.Stage)
	assert.ErrorIs(t, err, glbind.ErrMissingInput)
	assert.Equal(t, "fragment shader channel Foo has no input", err.Error())

	require.NoError(t, v.SetUniform("Foo", "float", false, true))
	require.NoError(t, v.CheckInputs())

	// Model is per draw only.
	require.NoError(t, v.Reset("Model", true))
	err = v.CheckInputs()
	require.True(t, errors.As(err, &chErr))
	assert.Equal(t, "Model", chErr.Channel)
	assert.Equal(t, glbind.StageVertex, chErr.Stage)

	// Bound with the wrong kind.
	v.SetAttribute("Model")
	err = v.CheckInputs()
	assert.ErrorIs(t, err, glbind.ErrWrongKind)
	assert.Contains(t, err.Error(), "vertex shader channel Model has wrong kind")
}

func TestSetChecks(t *testing.T) {
	v, err := glbind.NewValidator(mustParse(t, vertexSrc), mustParse(t, "#version 410\nin vec3 Surface;\nout vec4 color;\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, v.SetUniform("Nope", "float", false, true), glbind.ErrNotFound)
	assert.ErrorIs(t, v.SetUniform("Position", "vec3", false, true), glbind.ErrNotUniform)
	assert.NoError(t, v.SetUniform("Nope", "float", false, false), "unchecked set never fails")
	assert.True(t, v.IsBound("Nope"))
	assert.ErrorIs(t, v.Reset("Other", true), glbind.ErrNotFound)
	assert.NoError(t, v.Reset("Nope", false))
	assert.False(t, v.IsBound("Nope"))
}
