package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/soypat/glshade/glbind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShaders(t *testing.T, vertex, fragment string) (string, string) {
	dir := t.TempDir()
	vp, fp := filepath.Join(dir, "a.vert"), filepath.Join(dir, "a.frag")
	require.NoError(t, os.WriteFile(vp, []byte(vertex), 0o644))
	require.NoError(t, os.WriteFile(fp, []byte(fragment), 0o644))
	return vp, fp
}

const vertex = `#version 410 core
in vec3 Position;
uniform mat4 Model;
out vec3 SurfacePosition;
void main() {
	SurfacePosition = vec3(vec4(Position, 1.0) * Model);
}
`

func TestRun(t *testing.T) {
	vp, fp := writeShaders(t, vertex, `#version 410
in vec3 SurfacePosition;
out vec4 fragment;
void main() {
	fragment = vec4(SurfacePosition, 1.0);
}
`)
	var out strings.Builder
	require.NoError(t, run(&out, vp, fp))
	got := out.String()
	assert.Contains(t, got, "SurfacePosition")
	assert.Contains(t, got, "true")
	assert.Contains(t, got, "output: fragment")
}

func TestRunDiagnostics(t *testing.T) {
	vp, fp := writeShaders(t, vertex, "#version 410\nuniform float\nout vec4 color;\nuniform 3;\n")
	err := run(&strings.Builder{}, vp, fp)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, fp)
	assert.Contains(t, msg, "^", "errors point at the source")

	vp, fp = writeShaders(t, vertex, "#version 410\nin vec2 SurfacePosition;\nout vec4 fragment;\n")
	err = run(&strings.Builder{}, vp, fp)
	assert.ErrorIs(t, err, glbind.ErrTypeMismatch)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	out := termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii))
	report(out, errors.New("a.frag: 1 errors\n2 | uniform float\n  |              ^"))
	assert.Equal(t, "a.frag: 1 errors\n2 | uniform float\n  |              ^\n", buf.String())
}
