package glshade

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/glexpr"
)

// TextureHandle refers to a texture uploaded to the device, i.e. a *glrender.Texture.
type TextureHandle interface {
	TextureName() uint32
}

type materialKind uint8

const (
	kindUniform materialKind = iota
	kindTranslucent
	kindColorTexture
	kindEmissive
	kindDiffuse
	kindSpecular
)

var materialTypes = [...]string{
	kindUniform:      "UniformMaterial",
	kindTranslucent:  "TranslucentMaterial",
	kindColorTexture: "ColorTextureMaterial",
	kindEmissive:     "EmissiveMaterial",
	kindDiffuse:      "DiffuseMaterial",
	kindSpecular:     "SpecularMaterial",
}

// Material describes how a surface remits light. Every material computes
// Roughness, Metalness, Color and Opacity. Emissive, diffuse and specular
// materials also compute the Remission for each light themselves.
type Material struct {
	kind  materialKind
	rough float32
	metal float32
	color glexpr.Vec4
	tex   TextureHandle
	shiny float32
}

// NewUniformMaterial creates a material with the same properties anywhere on its surface.
// roughness is 0 for fully smooth and 1 for fully rough, metalness is 0 for non-metals and 1 for metals.
func (bld *Builder) NewUniformMaterial(roughness, metalness float32, color ms3.Vec) *Material {
	bld.checkMaterial(roughness, metalness)
	bld.checkColor("uniform material", color)
	return &Material{kind: kindUniform, rough: roughness, metal: metalness, color: glexpr.Vec4{X: color.X, Y: color.Y, Z: color.Z, W: 1}}
}

// NewTranslucentMaterial creates a uniform material whose alpha channel is its opacity.
func (bld *Builder) NewTranslucentMaterial(roughness, metalness float32, color glexpr.Vec4) *Material {
	bld.checkMaterial(roughness, metalness)
	bld.checkColor("translucent material", ms3.Vec{X: color.X, Y: color.Y, Z: color.Z})
	bld.checkUnitRange("translucent material alpha", color.W)
	return &Material{kind: kindTranslucent, rough: roughness, metal: metalness, color: color}
}

// NewColorTextureMaterial creates a material colored by the texture at the surface texture coordinates.
func (bld *Builder) NewColorTextureMaterial(roughness, metalness float32, tex TextureHandle) *Material {
	bld.checkMaterial(roughness, metalness)
	if tex == nil {
		bld.errorf("nil texture handle")
	}
	return &Material{kind: kindColorTexture, rough: roughness, metal: metalness, tex: tex}
}

// NewEmissiveMaterial creates a material displayed in its color regardless of
// the lights, although at least one light must be present.
func (bld *Builder) NewEmissiveMaterial(color glexpr.Vec4) *Material {
	bld.checkColor("emissive material", ms3.Vec{X: color.X, Y: color.Y, Z: color.Z})
	bld.checkUnitRange("emissive material alpha", color.W)
	return &Material{kind: kindEmissive, rough: 1, color: color}
}

// NewDiffuseMaterial creates a purely diffuse material of uniform color,
// remitting the light it receives tinted by its color.
func (bld *Builder) NewDiffuseMaterial(color glexpr.Vec4) *Material {
	bld.checkColor("diffuse material", ms3.Vec{X: color.X, Y: color.Y, Z: color.Z})
	bld.checkUnitRange("diffuse material alpha", color.W)
	return &Material{kind: kindDiffuse, rough: 1, color: color}
}

// NewSpecularMaterial creates the specular part of the Phong model. The
// reflection of each light is seen from the camera with a highlight whose
// sharpness grows with shininess, tinted by color.
func (bld *Builder) NewSpecularMaterial(shininess float32, color ms3.Vec) *Material {
	if !(shininess > 0) {
		bld.errorf("specular material shininess %g must be positive", shininess)
	}
	bld.checkColor("specular material", color)
	return &Material{kind: kindSpecular, color: glexpr.Vec4{X: color.X, Y: color.Y, Z: color.Z, W: 1}, shiny: shininess}
}

func (bld *Builder) checkMaterial(roughness, metalness float32) {
	bld.checkUnitRange("roughness", roughness)
	bld.checkUnitRange("metalness", metalness)
}

// Texture returns the texture of a color texture material, or nil.
func (m *Material) Texture() TextureHandle { return m.tex }

// SemiTransparent implements [glbuild.SemiTransparent].
func (m *Material) SemiTransparent() bool {
	switch m.kind {
	case kindTranslucent, kindEmissive, kindDiffuse:
		return m.color.W < 1
	}
	return false
}

// LightingType implements [glbuild.Lighting].
func (m *Material) LightingType() string { return materialTypes[m.kind] }

// AppendData implements [glbuild.Lighting].
func (m *Material) AppendData(dst []glbuild.Data) []glbuild.Data {
	dst = append(dst,
		glbuild.Data{Name: "Rough", Type: glexpr.TypeFloat, Value: m.rough},
		glbuild.Data{Name: "Metal", Type: glexpr.TypeFloat, Value: m.metal},
	)
	switch m.kind {
	case kindUniform:
		dst = append(dst, glbuild.Data{Name: "Col", Type: glexpr.TypeColor3, Value: ms3.Vec{X: m.color.X, Y: m.color.Y, Z: m.color.Z}})
	case kindSpecular:
		dst = append(dst,
			glbuild.Data{Name: "Col", Type: glexpr.TypeColor3, Value: ms3.Vec{X: m.color.X, Y: m.color.Y, Z: m.color.Z}},
			glbuild.Data{Name: "Shininess", Type: glexpr.TypeFloat, Value: m.shiny},
		)
	case kindTranslucent, kindEmissive, kindDiffuse:
		dst = append(dst, glbuild.Data{Name: "Col", Type: glexpr.TypeColor4, Value: m.color})
	case kindColorTexture:
		dst = append(dst, glbuild.Data{Name: glbuild.TextureField, Type: glexpr.TypeTexture, Value: m.tex})
	}
	return dst
}

// AppendCalcs implements [glbuild.Lighting].
func (m *Material) AppendCalcs(dst []glbuild.Calc) []glbuild.Calc {
	this := glexpr.This(m)
	var color, opacity glexpr.Expr = nil, glexpr.Float(1)
	switch m.kind {
	case kindUniform, kindSpecular:
		color = glexpr.Field(this, "Col", glexpr.TypeColor3)
	case kindTranslucent, kindEmissive, kindDiffuse:
		col := glexpr.Field(this, "Col", glexpr.TypeColor4)
		color = glexpr.StripAlpha(col)
		opacity = glexpr.Field(col, "a", glexpr.TypeFloat)
	case kindColorTexture:
		color = glexpr.Texture(this, glexpr.Context(this, glexpr.SurfaceTextureUv), true)
	}
	dst = append(dst,
		glbuild.Calc{Name: CalcRoughness, Type: glexpr.TypeFloat, Expr: glexpr.Field(this, "Rough", glexpr.TypeFloat)},
		glbuild.Calc{Name: CalcMetalness, Type: glexpr.TypeFloat, Expr: glexpr.Field(this, "Metal", glexpr.TypeFloat)},
		glbuild.Calc{Name: CalcColor, Type: glexpr.TypeColor3, Expr: color},
		glbuild.Calc{Name: glbuild.CalcOpacity, Type: glexpr.TypeFloat, Expr: opacity},
	)
	if rem := m.remission(this); rem != nil {
		dst = append(dst, glbuild.Calc{Name: glbuild.CalcRemission, Type: glexpr.TypeColor3, Expr: rem})
	}
	return dst
}

// remission returns the per light remission of materials that define it, or nil.
func (m *Material) remission(this glexpr.Expr) glexpr.Expr {
	color := glexpr.ValueOf(glexpr.Computed(this, CalcColor, glexpr.TypeColor3))
	immission := glexpr.ValueOf(LightCalc(CalcImmission, glexpr.TypeColor3))
	switch m.kind {
	case kindEmissive:
		return color
	case kindDiffuse:
		return glexpr.Mul(immission, color)
	case kindSpecular:
		// pow(max(toCamera·reflect(Direction, n), 0), Shininess)
		toCamera := glexpr.Normalize(glexpr.Sub(glexpr.Context(this, glexpr.CameraPosition), glexpr.Context(this, glexpr.SurfacePosition)))
		reflected := glexpr.Reflect(glexpr.ValueOf(LightCalc(CalcDirection, glexpr.TypeVec3)), glexpr.Context(this, glexpr.SurfaceNormal))
		highlight := glexpr.Math("Pow", glexpr.Max(glexpr.Dot(toCamera, reflected), glexpr.Float(0)), glexpr.Field(this, "Shininess", glexpr.TypeFloat))
		return glexpr.Mul(glexpr.Mul(highlight, immission), color)
	}
	return nil
}
