package glshade_test

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade"
	"github.com/soypat/glshade/glbind"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/gleval"
	"github.com/soypat/glshade/glexpr"
	"github.com/soypat/glshade/glparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = ms3.Vec{X: 1, Y: 1, Z: 1}

func lightings[T glbuild.Lighting](ls ...T) []glbuild.Lighting {
	out := make([]glbuild.Lighting, len(ls))
	for i := range ls {
		out[i] = ls[i]
	}
	return out
}

// validate runs generated sources through the parser and channel validator.
func validate(t *testing.T, src glbuild.Sources) *glbind.Validator {
	t.Helper()
	vert, err := glparse.Parse(src.Vertex)
	require.NoError(t, err, src.Vertex)
	frag, err := glparse.Parse(src.Fragment)
	require.NoError(t, err, src.Fragment)
	v, err := glbind.NewValidator(vert, frag)
	require.NoError(t, err)
	outs := v.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, glbuild.OutputFragment, outs[0].Name)
	return v
}

func TestParallelLightNormals(t *testing.T) {
	var bld glshade.Builder
	flat := bld.NewParallelLight(white, ms3.Vec{Z: -1}, glshade.WithImmission(func(this glexpr.Expr) glexpr.Expr {
		return glexpr.Field(this, "Color", glexpr.TypeColor3)
	}))
	mat := bld.NewUniformMaterial(0.5, 0, ms3.Vec{X: 1})
	require.NoError(t, bld.Err())

	prog := glbuild.NewDefaultProgrammer()
	src, err := prog.WriteShading(lightings(flat), lightings(mat))
	require.NoError(t, err)
	assert.Equal(t, []string{glbuild.AttribPosition}, src.Attributes)
	assert.NotContains(t, src.Vertex, "Normal")
	assert.NotContains(t, src.Fragment, "Normal")
	assert.Equal(t, 1, strings.Count(src.Fragment, "struct ParallelLight {"))
	assert.Equal(t, 1, strings.Count(src.Fragment, "struct UniformMaterial {"))
	validate(t, src)

	lit := bld.NewParallelLight(white, ms3.Vec{Z: -1}, glshade.WithRemission(func(this glexpr.Expr) glexpr.Expr {
		n := glexpr.Context(this, glexpr.SurfaceNormal)
		return glexpr.Mul(glexpr.Mul(n, n), glshade.MaterialCalc(glshade.CalcColor, glexpr.TypeColor3))
	}), glshade.WithImmission(func(this glexpr.Expr) glexpr.Expr {
		return glexpr.Field(this, "Color", glexpr.TypeColor3)
	}))
	src, err = prog.WriteShading(lightings(lit), lightings(mat))
	require.NoError(t, err)
	assert.Equal(t, []string{glbuild.AttribPosition, glbuild.AttribNormal}, src.Attributes)
	assert.Contains(t, src.Vertex, "in vec3 Normal;")
	assert.Contains(t, src.Vertex, "out vec3 VertexNormal;")
	assert.Contains(t, src.Fragment, "in vec3 VertexNormal;")
	assert.Contains(t, src.Fragment, "dot(SurfaceNormal, SurfaceNormal)")
	validate(t, src)
}

func TestAllLightsCompile(t *testing.T) {
	var bld glshade.Builder
	lights := lightings(
		bld.NewParallelLight(white, ms3.Vec{X: 1, Z: -1}),
		bld.NewParallelLight(ms3.Vec{X: 0.2, Y: 0.2, Z: 0.2}, ms3.Vec{Y: -1}),
		bld.NewPointLight(white, ms3.Vec{Z: 4}),
		bld.NewAmbientLight(ms3.Vec{X: 0.1, Y: 0.1, Z: 0.1}),
		bld.NewHemisphereLight(white, ms3.Vec{Z: 1}),
	)
	mats := lightings(
		bld.NewUniformMaterial(1, 0, white),
		bld.NewTranslucentMaterial(0.2, 1, glexpr.Vec4{X: 1, W: 0.25}),
	)
	require.NoError(t, bld.Err())
	src, err := glbuild.NewDefaultProgrammer().WriteShading(lights, mats)
	require.NoError(t, err)
	assert.True(t, src.Transparent)
	assert.True(t, src.Normals)
	assert.False(t, src.TextureUvs)
	for _, name := range []string{"ParallelLight0", "ParallelLight1", "PointLight0", "AmbientLight0", "HemisphereLight0", "UniformMaterial0", "TranslucentMaterial0"} {
		assert.Contains(t, src.Fragment, "uniform "+strings.TrimRight(name, "01")+" "+name+";")
	}
	assert.Equal(t, 1, strings.Count(src.Fragment, "struct ParallelLight {"))
	assert.Equal(t, 1, strings.Count(src.Fragment, "\tvec3 Direction;\n"))
	assert.Contains(t, src.Fragment, "LightToSurface = (SurfacePosition - PointLight0.Position);")
	assert.Contains(t, src.Fragment, "acos(dot(HemisphereLight0.Sky, SurfaceNormal))")
	assert.Contains(t, src.Fragment, "Color = TranslucentMaterial0.Col.xyz;")
	assert.Contains(t, src.Fragment, "Opacity = TranslucentMaterial0.Col.a;")
	// 5 lights for each of the 2 materials.
	assert.Equal(t, 10, strings.Count(src.Fragment, "fragment.rgb = white3 - (white3 - fragment.rgb) * (white3 - Remission);"))
	validate(t, src)
}

func TestRemittingMaterials(t *testing.T) {
	var bld glshade.Builder
	lights := lightings(
		bld.NewParallelLight(white, ms3.Vec{Z: -1}),
		bld.NewAmbientLight(ms3.Vec{X: 0.1, Y: 0.1, Z: 0.1}),
	)
	emissive := bld.NewEmissiveMaterial(glexpr.Vec4{X: 0.2, Y: 0.4, Z: 0.6, W: 0.5})
	diffuse := bld.NewDiffuseMaterial(glexpr.Vec4{X: 1, W: 1})
	specular := bld.NewSpecularMaterial(16, white)
	require.NoError(t, bld.Err())
	assert.True(t, emissive.SemiTransparent())
	assert.False(t, diffuse.SemiTransparent())
	assert.False(t, specular.SemiTransparent())

	prog := glbuild.NewDefaultProgrammer()
	src, err := prog.WriteShading(lights, lightings(specular))
	require.NoError(t, err)
	assert.True(t, src.Normals)
	assert.Contains(t, src.Fragment, "uniform vec3 CameraPosition;")
	assert.Contains(t, src.Fragment, "\tRemission = ((pow(max(dot(normalize((CameraPosition - SurfacePosition)), reflect((Direction), SurfaceNormal)), 0.), SpecularMaterial0.Shininess) * (Immission)) * (Color));\n")
	assert.NotContains(t, src.Fragment, "Remission = ((Immission) * Color);", "light remission is replaced")
	assert.Equal(t, 2, strings.Count(src.Fragment, "\tRemission = "))
	assert.Equal(t, 1, strings.Count(src.Fragment, "\tvec3 Remission;\n"))
	iImm := strings.Index(src.Fragment, "Immission = (max(")
	iRem := strings.Index(src.Fragment, "Remission = ((pow(")
	assert.True(t, iImm >= 0 && iImm < iRem, "material remission follows the light immission")
	validate(t, src)

	src, err = prog.WriteShading(lights, lightings(emissive, diffuse))
	require.NoError(t, err)
	assert.True(t, src.Transparent)
	assert.Contains(t, src.Fragment, "\tRemission = (Color);\n")
	assert.Contains(t, src.Fragment, "\tRemission = ((Immission) * (Color));\n")
	assert.Equal(t, 4, strings.Count(src.Fragment, "fragment.rgb = white3 - (white3 - fragment.rgb) * (white3 - Remission);"))
	validate(t, src)
}

func TestHostShadeRemittingMaterials(t *testing.T) {
	var bld glshade.Builder
	down := bld.NewParallelLight(white, ms3.Vec{Z: -1})
	gray := bld.NewParallelLight(ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, ms3.Vec{Z: -1})
	specular := bld.NewSpecularMaterial(2, ms3.Vec{X: 1, Y: 0.5, Z: 0.25})
	diffuse := bld.NewDiffuseMaterial(glexpr.Vec4{X: 1, W: 1})
	emissive := bld.NewEmissiveMaterial(glexpr.Vec4{X: 0.2, Y: 0.4, Z: 0.6, W: 0.5})
	require.NoError(t, bld.Err())
	up := ms3.Vec{Z: 1}

	sh, err := gleval.NewShader(lightings(down), lightings(specular), nil)
	require.NoError(t, err)
	// Light reflects straight into the camera.
	col, err := sh.Shade(gleval.Surface{Normal: up, Camera: ms3.Vec{Z: 5}})
	require.NoError(t, err)
	assert.InDelta(t, 1, col.X, 1e-5)
	assert.InDelta(t, 0.5, col.Y, 1e-5)
	assert.InDelta(t, 0.25, col.Z, 1e-5)
	// 45 degrees off the reflection: cos² = 1/2.
	col, err = sh.Shade(gleval.Surface{Normal: up, Camera: ms3.Vec{X: 5, Z: 5}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, col.X, 1e-5)
	assert.InDelta(t, 0.25, col.Y, 1e-5)

	sh, err = gleval.NewShader(lightings(gray), lightings(diffuse), nil)
	require.NoError(t, err)
	col, err = sh.Shade(gleval.Surface{Normal: up})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, col.X, 1e-6)
	assert.InDelta(t, 0, col.Y, 1e-6)

	sh, err = gleval.NewShader(lightings(gray), lightings(emissive), nil)
	require.NoError(t, err)
	col, err = sh.Shade(gleval.Surface{Normal: up})
	require.NoError(t, err)
	assert.InDelta(t, 0.2, col.X, 1e-6)
	assert.InDelta(t, 0.4, col.Y, 1e-6)
	assert.InDelta(t, 0.6, col.Z, 1e-6)
	assert.InDelta(t, 0.5, col.W, 1e-6)
}

type fakeTexture uint32

func (f fakeTexture) TextureName() uint32 { return uint32(f) }

func TestColorTextureMaterial(t *testing.T) {
	var bld glshade.Builder
	tex := fakeTexture(7)
	mat := bld.NewColorTextureMaterial(0.5, 0.5, tex)
	require.NoError(t, bld.Err())
	assert.Equal(t, glshade.TextureHandle(tex), mat.Texture())
	src, err := glbuild.NewDefaultProgrammer().WriteShading(lightings(bld.NewAmbientLight(white)), lightings(mat))
	require.NoError(t, err)
	assert.True(t, src.TextureUvs)
	assert.Equal(t, []string{glbuild.AttribPosition, glbuild.AttribTextureUv}, src.Attributes)
	require.Len(t, src.Textures, 1)
	assert.Equal(t, "ColorTextureMaterial0.Handle", src.Textures[0].Name)
	assert.Equal(t, tex, src.Textures[0].Handle)
	assert.Contains(t, src.Fragment, "sampler2D Handle;")
	assert.Contains(t, src.Fragment, "Color = texture(ColorTextureMaterial0.Handle, SurfaceTextureUv).rgb;")
	v := validate(t, src)
	_, ok := v.Lookup("ColorTextureMaterial0.Handle")
	assert.True(t, ok)
}

func TestBuilderErrors(t *testing.T) {
	bld := glshade.Builder{NoPanic: true}
	bld.NewParallelLight(white, ms3.Vec{})
	bld.NewUniformMaterial(2, 0, white)
	bld.NewTranslucentMaterial(0, 0, glexpr.Vec4{X: -1, W: 1})
	bld.NewColorTextureMaterial(0, 0, nil)
	bld.NewSpecularMaterial(0, white)
	err := bld.Err()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"zero length parallel light direction", "roughness 2 outside [0,1]", "negative translucent material color", "nil texture handle", "shininess 0 must be positive"} {
		assert.Contains(t, msg, want)
	}

	var panicking glshade.Builder
	assert.Panics(t, func() { panicking.NewHemisphereLight(white, ms3.Vec{}) })
}

func TestHostShadeMatchesLightModel(t *testing.T) {
	var bld glshade.Builder
	point := bld.NewPointLight(white, ms3.Vec{Z: 2})
	hemi := bld.NewHemisphereLight(ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, ms3.Vec{Z: 1})
	mat := bld.NewUniformMaterial(0, 0, ms3.Vec{X: 1, Y: 0.5, Z: 0})
	require.NoError(t, bld.Err())

	sh, err := gleval.NewShader(lightings(point), lightings(mat), nil)
	require.NoError(t, err)
	// Directly below the light at distance 2: 1/4 falloff, head on.
	col, err := sh.Shade(gleval.Surface{Normal: ms3.Vec{Z: 1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, col.X, 1e-6)
	assert.InDelta(t, 0.125, col.Y, 1e-6)
	assert.InDelta(t, 0, col.Z, 1e-6)
	assert.Equal(t, float32(1), col.W)

	sh, err = gleval.NewShader(lightings(hemi), lightings(mat), nil)
	require.NoError(t, err)
	// Normal at 90 degrees from the sky receives half.
	col, err = sh.Shade(gleval.Surface{Normal: ms3.Vec{X: 1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, col.X, 1e-5)

	point.SetPosition(ms3.Vec{Z: 1})
	assert.Equal(t, ms3.Vec{Z: 1}, point.Position())
	sh, err = gleval.NewShader(lightings(point), lightings(mat), nil)
	require.NoError(t, err)
	col, err = sh.Shade(gleval.Surface{Normal: ms3.Vec{Z: 1}})
	require.NoError(t, err)
	assert.InDelta(t, 1, col.X, 1e-6)
}

func TestHostShadeTexture(t *testing.T) {
	var bld glshade.Builder
	tex := fakeTexture(1)
	mat := bld.NewColorTextureMaterial(0, 0, tex)
	sample := func(handle any, uv ms2.Vec) glexpr.Vec4 {
		return glexpr.Vec4{X: uv.X, Y: math32.Abs(uv.Y), W: 1}
	}
	sh, err := gleval.NewShader(lightings(bld.NewAmbientLight(white)), lightings(mat), sample)
	require.NoError(t, err)
	col, err := sh.Shade(gleval.Surface{TextureUv: ms2.Vec{X: 0.5, Y: -0.25}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, col.X, 1e-6)
	assert.InDelta(t, 0.25, col.Y, 1e-6)
}
