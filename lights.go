package glshade

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/glexpr"
)

type lightKind uint8

const (
	kindParallel lightKind = iota
	kindPoint
	kindAmbient
	kindHemisphere
)

var lightTypes = [...]string{
	kindParallel:   "ParallelLight",
	kindPoint:      "PointLight",
	kindAmbient:    "AmbientLight",
	kindHemisphere: "HemisphereLight",
}

// Light is a light source. Every light computes its Direction, the direction
// in which light travels, its Immission, the light arriving at the surface, and
// the Remission, the light the current material sends back.
type Light struct {
	kind  lightKind
	color ms3.Vec
	// vec is the heading of parallel lights, the position of point lights
	// and the sky direction of hemisphere lights.
	vec       ms3.Vec
	immission LightExpr
	remission LightExpr
}

// LightExpr returns a computed property of the light instance this.
type LightExpr func(this glexpr.Expr) glexpr.Expr

// LightOption configures a light on construction.
type LightOption func(*Light)

// WithImmission replaces the default Immission of a light. The expression must be of type Color3.
func WithImmission(fn LightExpr) LightOption {
	return func(l *Light) { l.immission = fn }
}

// WithRemission replaces the default Remission of a light, which is
// the Immission multiplied componentwise with the material color.
// The expression must be of type Color3.
func WithRemission(fn LightExpr) LightOption {
	return func(l *Light) { l.remission = fn }
}

func (bld *Builder) newLight(kind lightKind, color, vec ms3.Vec, opts []LightOption) *Light {
	bld.checkColor(lightTypes[kind], color)
	l := &Light{kind: kind, color: color, vec: vec}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewParallelLight creates a light traveling in direction everywhere in space.
func (bld *Builder) NewParallelLight(color, direction ms3.Vec, opts ...LightOption) *Light {
	return bld.newLight(kindParallel, color, bld.unit("parallel light direction", direction), opts)
}

// NewPointLight creates a light originating at position whose intensity
// falls off with the squared distance.
func (bld *Builder) NewPointLight(color, position ms3.Vec, opts ...LightOption) *Light {
	return bld.newLight(kindPoint, color, position, opts)
}

// NewAmbientLight creates a light reaching every surface from any direction.
func (bld *Builder) NewAmbientLight(color ms3.Vec, opts ...LightOption) *Light {
	return bld.newLight(kindAmbient, color, ms3.Vec{}, opts)
}

// NewHemisphereLight creates a light uniformly coming from the hemisphere
// around the sky direction.
func (bld *Builder) NewHemisphereLight(color, sky ms3.Vec, opts ...LightOption) *Light {
	return bld.newLight(kindHemisphere, color, bld.unit("hemisphere sky direction", sky), opts)
}

// Color returns the color and intensity of the light.
func (l *Light) Color() ms3.Vec { return l.color }

// SetColor changes the light color. It takes effect the next frame.
func (l *Light) SetColor(c ms3.Vec) { l.color = c }

// Position returns the position of a point light.
func (l *Light) Position() ms3.Vec { return l.vec }

// SetPosition moves a point light. It has no effect on other lights.
func (l *Light) SetPosition(p ms3.Vec) {
	if l.kind == kindPoint {
		l.vec = p
	}
}

// LightingType implements [glbuild.Lighting].
func (l *Light) LightingType() string { return lightTypes[l.kind] }

// AppendData implements [glbuild.Lighting].
func (l *Light) AppendData(dst []glbuild.Data) []glbuild.Data {
	dst = append(dst, glbuild.Data{Name: "Color", Type: glexpr.TypeColor3, Value: l.color})
	switch l.kind {
	case kindParallel:
		dst = append(dst, glbuild.Data{Name: "Heading", Type: glexpr.TypeVec3, Value: l.vec})
	case kindPoint:
		dst = append(dst, glbuild.Data{Name: "Position", Type: glexpr.TypePoint3, Value: l.vec})
	case kindHemisphere:
		dst = append(dst, glbuild.Data{Name: "Sky", Type: glexpr.TypeVec3, Value: l.vec})
	}
	return dst
}

// AppendCalcs implements [glbuild.Lighting].
func (l *Light) AppendCalcs(dst []glbuild.Calc) []glbuild.Calc {
	this := glexpr.This(l)
	color := glexpr.Field(this, "Color", glexpr.TypeColor3)
	normal := glexpr.Context(this, glexpr.SurfaceNormal)
	direction := glexpr.ValueOf(glexpr.Computed(this, CalcDirection, glexpr.TypeVec3))
	// max(-Direction·SurfaceNormal, 0)
	incidence := glexpr.Max(glexpr.Mul(glexpr.Neg(direction), normal), glexpr.Float(0))

	var dir, imm glexpr.Expr
	switch l.kind {
	case kindParallel:
		dir = glexpr.Field(this, "Heading", glexpr.TypeVec3)
		imm = glexpr.Mul(incidence, color)
	case kindPoint:
		lts := glexpr.Sub(glexpr.Context(this, glexpr.SurfacePosition), glexpr.Field(this, "Position", glexpr.TypePoint3))
		dst = append(dst, glbuild.Calc{Name: CalcLightToSurface, Type: glexpr.TypeVec3, Expr: lts})
		ltsv := glexpr.ValueOf(glexpr.Computed(this, CalcLightToSurface, glexpr.TypeVec3))
		dir = glexpr.Normalize(ltsv)
		falloff := glexpr.Div(glexpr.Float(1), glexpr.Mul(ltsv, ltsv))
		imm = glexpr.Mul(glexpr.Mul(falloff, incidence), color)
	case kindAmbient:
		dir = glexpr.Vec3(ms3.Vec{})
		imm = color
	case kindHemisphere:
		dir = glexpr.Vec3(ms3.Vec{})
		angle := glexpr.Math("Acos", glexpr.Dot(glexpr.Field(this, "Sky", glexpr.TypeVec3), normal))
		imm = glexpr.Mul(glexpr.Sub(glexpr.Float(1), glexpr.Div(angle, glexpr.Float(math32.Pi))), color)
	}
	if l.immission != nil {
		imm = l.immission(this)
	}
	var rem glexpr.Expr = glexpr.Mul(glexpr.ValueOf(glexpr.Computed(this, CalcImmission, glexpr.TypeColor3)), MaterialCalc(CalcColor, glexpr.TypeColor3))
	if l.remission != nil {
		rem = l.remission(this)
	}
	return append(dst,
		glbuild.Calc{Name: CalcDirection, Type: glexpr.TypeVec3, Expr: dir},
		glbuild.Calc{Name: CalcImmission, Type: glexpr.TypeColor3, Expr: imm},
		glbuild.Calc{Name: glbuild.CalcRemission, Type: glexpr.TypeColor3, Expr: rem},
	)
}
