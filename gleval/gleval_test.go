package gleval_test

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/gleval"
	"github.com/soypat/glshade/glexpr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func TestBlendAssociative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	col := func() gleval.Value {
		return gleval.Vec3(glexpr.TypeColor3, ms3.Vec{X: rng.Float32(), Y: rng.Float32(), Z: rng.Float32()})
	}
	for i := 0; i < 100; i++ {
		a, b, c := col(), col(), col()
		left := gleval.Blend(gleval.Blend(a, b), c)
		right := gleval.Blend(a, gleval.Blend(b, c))
		for k := 0; k < 3; k++ {
			assert.InDelta(t, left.V[k], right.V[k], tol)
		}
		// Blending with black is the identity.
		black := gleval.Blend(a, gleval.Value{T: glexpr.TypeColor3})
		for k := 0; k < 3; k++ {
			assert.InDelta(t, a.V[k], black.V[k], tol)
		}
	}
}

func TestEval(t *testing.T) {
	this := new(int)
	ev := gleval.Evaluator{
		This: this,
		Data: map[string]gleval.Value{
			"Power": gleval.Float(2),
		},
		Locals: map[string]gleval.Value{},
		Surface: map[string]gleval.Value{
			glexpr.SurfaceNormal:   gleval.Vec3(glexpr.TypeVec3, ms3.Vec{Z: 1}),
			glexpr.SurfacePosition: gleval.Vec3(glexpr.TypePoint3, ms3.Vec{X: 3, Y: 4}),
		},
	}
	inst := glexpr.This(this)
	normal := glexpr.Context(inst, glexpr.SurfaceNormal)
	pos := glexpr.Context(inst, glexpr.SurfacePosition)
	power := glexpr.Field(inst, "Power", glexpr.TypeFloat)
	for _, test := range []struct {
		e    glexpr.Expr
		want float32
	}{
		{glexpr.Mul(glexpr.Vec3(ms3.Vec{X: 1, Z: 2}), normal), 2},
		{glexpr.Mul(power, glexpr.Float(3)), 6},
		{glexpr.Distance(pos, glexpr.Point3(ms3.Vec{})), 5},
		{glexpr.Length(glexpr.Cross(glexpr.UnitX(), glexpr.UnitY())), 1},
		{glexpr.Cond(glexpr.Lt(power, glexpr.Float(1)), glexpr.Float(-1), glexpr.Float(1)), 1},
		{glexpr.Cond(glexpr.Gt(power, glexpr.Float(1)), glexpr.Float(-1), glexpr.Float(1)), -1},
		{glexpr.Max(glexpr.Neg(power), glexpr.Float(0)), 0},
		{glexpr.Math("Acos", glexpr.Float(-1)), math32.Pi},
		{glexpr.Math("Acosh", glexpr.Float(1)), 0},
		{glexpr.Math("Asinh", glexpr.Float(0)), 0},
		{glexpr.Math("Atanh", glexpr.Float(0.5)), 0.5493061},
		{glexpr.Field(glexpr.Operator("Add", normal, normal), "z", glexpr.TypeFloat), 2},
		{glexpr.Field(glexpr.New(glexpr.TypeVec3, glexpr.Float(7)), "y", glexpr.TypeFloat), 7},
	} {
		got, err := ev.Eval(test.e)
		require.NoError(t, err, test.e.String())
		assert.InDelta(t, test.want, got.V[0], tol, test.e.String())
	}

	_, err := ev.Eval(glexpr.Field(glexpr.This(new(int)), "Power", glexpr.TypeFloat))
	assert.ErrorContains(t, err, "foreign instance")
	_, err = ev.Eval(glexpr.Computed(inst, "Missing", glexpr.TypeFloat))
	assert.ErrorContains(t, err, "before assignment")
	_, err = ev.Eval(glexpr.Math("Frobnicate", power))
	assert.ErrorContains(t, err, "unknown math function")
}

type lamp struct {
	color ms3.Vec
	dir   ms3.Vec
}

func (l *lamp) LightingType() string { return "Lamp" }

func (l *lamp) AppendData(dst []glbuild.Data) []glbuild.Data {
	return append(dst,
		glbuild.Data{Name: "Color", Type: glexpr.TypeColor3, Value: l.color},
		glbuild.Data{Name: "Direction", Type: glexpr.TypeVec3, Value: l.dir},
	)
}

func (l *lamp) AppendCalcs(dst []glbuild.Calc) []glbuild.Calc {
	this := glexpr.This(l)
	mat := glexpr.Parameter(glexpr.MaterialParam, glexpr.TypeStruct)
	cos := glexpr.Max(glexpr.Mul(glexpr.Neg(glexpr.Field(this, "Direction", glexpr.TypeVec3)), glexpr.Context(this, glexpr.SurfaceNormal)), glexpr.Float(0))
	rem := glexpr.Mul(glexpr.Mul(cos, glexpr.Field(this, "Color", glexpr.TypeColor3)), glexpr.Computed(mat, "Color", glexpr.TypeColor3))
	return append(dst, glbuild.Calc{Name: glbuild.CalcRemission, Type: glexpr.TypeColor3, Expr: rem})
}

type paint struct {
	color   glexpr.Vec4
	texture any
}

func (p *paint) LightingType() string { return "Paint" }

func (p *paint) AppendData(dst []glbuild.Data) []glbuild.Data {
	dst = append(dst, glbuild.Data{Name: "Color", Type: glexpr.TypeColor4, Value: p.color})
	if p.texture != nil {
		dst = append(dst, glbuild.Data{Name: glbuild.TextureField, Type: glexpr.TypeTexture, Value: p.texture})
	}
	return dst
}

func (p *paint) AppendCalcs(dst []glbuild.Calc) []glbuild.Calc {
	this := glexpr.This(p)
	color := glexpr.Field(this, "Color", glexpr.TypeColor4)
	var c3 glexpr.Expr = glexpr.StripAlpha(color)
	if p.texture != nil {
		c3 = glexpr.Texture(this, glexpr.Context(this, glexpr.SurfaceTextureUv), true)
	}
	return append(dst,
		glbuild.Calc{Name: "Color", Type: glexpr.TypeColor3, Expr: c3},
		glbuild.Calc{Name: glbuild.CalcOpacity, Type: glexpr.TypeFloat, Expr: glexpr.Field(color, "a", glexpr.TypeFloat)},
	)
}

func TestShade(t *testing.T) {
	red := &paint{color: glexpr.Vec4{X: 1, W: 0.5}}
	lamps := []glbuild.Lighting{
		&lamp{color: ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, dir: ms3.Vec{Z: -1}},
		&lamp{color: ms3.Vec{X: 0.5, Y: 1, Z: 1}, dir: ms3.Vec{Z: -1}},
	}
	sh, err := gleval.NewShader(lamps, []glbuild.Lighting{red}, nil)
	require.NoError(t, err)

	col, err := sh.Shade(gleval.Surface{Normal: ms3.Vec{Z: 2}})
	require.NoError(t, err)
	// 1-(1-0.5)*(1-0.5) for red, nothing else passes the material.
	assert.InDelta(t, 0.75, col.X, tol)
	assert.InDelta(t, 0, col.Y, tol)
	assert.InDelta(t, 0.5, col.W, tol)

	// Facing away from both lamps.
	col, err = sh.Shade(gleval.Surface{Normal: ms3.Vec{Z: -1}})
	require.NoError(t, err)
	assert.Equal(t, glexpr.Vec4{W: 0.5}, col)

	surfs := make([]gleval.Surface, 4)
	colors := make([]glexpr.Vec4, 3)
	assert.Error(t, sh.Evaluate(surfs, colors))
	assert.Error(t, sh.Evaluate(nil, nil))
}

func TestShadeTexture(t *testing.T) {
	handle := "checker"
	sample := func(h any, uv ms2.Vec) glexpr.Vec4 {
		if h != handle {
			return glexpr.Vec4{}
		}
		return glexpr.Vec4{X: uv.X, Y: uv.Y, Z: 1, W: 1}
	}
	tex := &paint{color: glexpr.Vec4{W: 1}, texture: handle}
	sh, err := gleval.NewShader([]glbuild.Lighting{&lamp{color: ms3.Vec{X: 1, Y: 1, Z: 1}, dir: ms3.Vec{Z: -1}}}, []glbuild.Lighting{tex}, sample)
	require.NoError(t, err)
	col, err := sh.Shade(gleval.Surface{Normal: ms3.Vec{Z: 1}, TextureUv: ms2.Vec{X: 0.25, Y: 0.5}})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, col.X, tol)
	assert.InDelta(t, 0.5, col.Y, tol)
	assert.InDelta(t, 1, col.Z, tol)

	sh, err = gleval.NewShader(nil, []glbuild.Lighting{tex}, nil)
	require.NoError(t, err)
	_, err = sh.Shade(gleval.Surface{})
	assert.ErrorContains(t, err, "without sampler")
}
