package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/glshade/glexpr"
)

// DefaultVersion is the GLSL version of generated shaders.
const DefaultVersion = 410

// Names of vertex attributes, transfer channels and the output channel
// used by generated shaders.
const (
	AttribPosition  = "Position"
	AttribNormal    = "Normal"
	AttribTextureUv = "TextureUv"
	VertexNormal    = "VertexNormal"
	UniformModel    = "Model"
	UniformView     = "View"
	UniformProj     = "Projection"
	OutputFragment  = "fragment"
	// TextureField is the name of the sampler field of texture-bearing materials.
	TextureField = "Handle"
)

// Names of computed properties with a fixed role in the fragment shader.
// A material computing Remission replaces the Remission of every light
// lighting it. That property is assigned once per light, after the light's
// other properties, and may read them through [glexpr.LightParam].
const (
	CalcRemission = "Remission"
	CalcOpacity   = "Opacity"
)

// Lighting is implemented by lights and materials. Instead of discovering
// data and computed properties at runtime each type lists them explicitly.
type Lighting interface {
	// LightingType returns the name of the type, used as GLSL struct name.
	LightingType() string
	// AppendData appends the data properties. These become the fields of the GLSL struct
	// and are uploaded as uniforms.
	AppendData(dst []Data) []Data
	// AppendCalcs appends the computed properties in the order they must be evaluated.
	AppendCalcs(dst []Calc) []Calc
}

// SemiTransparent is implemented by materials that may need blending.
type SemiTransparent interface {
	SemiTransparent() bool
}

// Data is a data property of a light or material.
type Data struct {
	Name  string
	Type  glexpr.Type
	Value any
}

// Calc is a computed property of a light or material.
type Calc struct {
	Name string
	Type glexpr.Type
	Expr glexpr.Expr
}

// Instance is a light or material as declared in the fragment shader.
type Instance struct {
	// Name is the uniform variable name, i.e. "PointLight0".
	Name     string
	Lighting Lighting
	Material bool
}

// TextureBinding names a sampler uniform and the texture handle that must be bound to it.
type TextureBinding struct {
	Name   string
	Handle any
}

// Sources is the result of shader generation.
type Sources struct {
	Vertex   string
	Fragment string
	// Attributes lists the vertex attributes the vertex shader consumes.
	Attributes []string
	Instances  []Instance
	// Transparent is set if any material is semi transparent.
	Transparent bool
	Textures    []TextureBinding
	// Normals and TextureUvs are set when the respective attribute is required.
	Normals, TextureUvs bool
}

// Programmer implements shader generation for lights and materials.
type Programmer struct {
	version int
	scratch []byte
	data    []Data
	calcs   []Calc
	// locals maps hashes of local variable names to their declared type.
	locals map[uint64]glexpr.Type
}

// NewDefaultProgrammer returns a Programmer generating GLSL 4.1 shaders.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		version: DefaultVersion,
		scratch: make([]byte, 0, 1024),
		locals:  make(map[uint64]glexpr.Type),
	}
}

// SetVersion sets the GLSL version written at the top of both stages.
func (p *Programmer) SetVersion(version int) error {
	if version < 330 {
		return fmt.Errorf("GLSL version %d not supported, need 330 or higher", version)
	}
	p.version = version
	return nil
}

// Version returns the GLSL version of generated shaders.
func (p *Programmer) Version() int { return p.version }

// WriteShading generates the vertex and fragment shaders that light the materials
// with the lights. Each material is combined with each light.
func (p *Programmer) WriteShading(lights, materials []Lighting) (src Sources, err error) {
	if len(materials) == 0 {
		return src, errors.New("at least one material required")
	}
	counts := make(map[string]int)
	for _, l := range lights {
		src.Instances = append(src.Instances, Instance{Name: nextInstanceName(counts, l), Lighting: l})
	}
	for _, m := range materials {
		src.Instances = append(src.Instances, Instance{Name: nextInstanceName(counts, m), Lighting: m, Material: true})
		if st, ok := m.(SemiTransparent); ok && st.SemiTransparent() {
			src.Transparent = true
		}
	}
	for _, inst := range src.Instances {
		p.data = inst.Lighting.AppendData(p.data[:0])
		for _, d := range p.data {
			if d.Type == glexpr.TypeTexture {
				if !inst.Material {
					return src, fmt.Errorf("light %s: texture property %q only allowed on materials", inst.Name, d.Name)
				}
				src.TextureUvs = true
				src.Textures = append(src.Textures, TextureBinding{Name: inst.Name + "." + SanitizeName(d.Name), Handle: d.Value})
			}
		}
		p.calcs = inst.Lighting.AppendCalcs(p.calcs[:0])
		for _, c := range p.calcs {
			src.Normals = src.Normals || glexpr.ReferencesContext(c.Expr, glexpr.SurfaceNormal)
			src.TextureUvs = src.TextureUvs || glexpr.ReferencesContext(c.Expr, glexpr.SurfaceTextureUv)
		}
	}
	src.Attributes = append(src.Attributes, AttribPosition)
	if src.Normals {
		src.Attributes = append(src.Attributes, AttribNormal)
	}
	if src.TextureUvs {
		src.Attributes = append(src.Attributes, AttribTextureUv)
	}
	src.Vertex = string(p.AppendVertexShader(nil, src.Normals, src.TextureUvs))
	frag, err := p.appendFragmentShader(nil, &src)
	if err != nil {
		return src, err
	}
	src.Fragment = string(frag)
	return src, nil
}

// WriteShadingTo is like [Programmer.WriteShading] but writes both stages to w, vertex stage first.
func (p *Programmer) WriteShadingTo(w io.Writer, lights, materials []Lighting) (n int, src Sources, err error) {
	src, err = p.WriteShading(lights, materials)
	if err != nil {
		return 0, src, err
	}
	n, err = io.WriteString(w, src.Vertex)
	if err != nil {
		return n, src, err
	}
	ngot, err := io.WriteString(w, src.Fragment)
	return n + ngot, src, err
}

func nextInstanceName(counts map[string]int, l Lighting) string {
	typ := l.LightingType()
	idx := counts[typ]
	counts[typ] = idx + 1
	return InstanceName(typ, idx)
}

// AppendVertexShader appends the vertex shader transforming positions and passing
// surface values on to the fragment stage.
func (p *Programmer) AppendVertexShader(b []byte, normals, textureUvs bool) []byte {
	b = p.appendVersion(b)
	b = AppendChannelDecl(b, "in", "vec3", AttribPosition)
	if normals {
		b = AppendChannelDecl(b, "in", "vec3", AttribNormal)
	}
	if textureUvs {
		b = AppendChannelDecl(b, "in", "vec2", AttribTextureUv)
	}
	b = AppendChannelDecl(b, "uniform", "mat4", UniformModel)
	b = AppendChannelDecl(b, "uniform", "mat4", UniformView)
	b = AppendChannelDecl(b, "uniform", "mat4", UniformProj)
	b = AppendChannelDecl(b, "out", "vec3", glexpr.SurfacePosition)
	if normals {
		b = AppendChannelDecl(b, "out", "vec3", VertexNormal)
	}
	if textureUvs {
		b = AppendChannelDecl(b, "out", "vec2", glexpr.SurfaceTextureUv)
	}
	b = append(b, "\nvoid main() {\n"...)
	b = append(b, "\tvec4 worldPosition = vec4(Position, 1.0) * Model;\n"...)
	b = append(b, "\tgl_Position = worldPosition * View * Projection;\n"...)
	b = append(b, "\tSurfacePosition = vec3(worldPosition);\n"...)
	if normals {
		b = append(b, "\tVertexNormal = Normal * mat3(Model);\n"...)
	}
	if textureUvs {
		b = append(b, "\tSurfaceTextureUv = TextureUv;\n"...)
	}
	return append(b, "}\n"...)
}

func (p *Programmer) appendFragmentShader(b []byte, src *Sources) (_ []byte, err error) {
	b = p.appendVersion(b)
	// One struct per distinct type.
	declared := make(map[string][]Data)
	for _, inst := range src.Instances {
		typ := SanitizeName(inst.Lighting.LightingType())
		p.data = inst.Lighting.AppendData(p.data[:0])
		if prev, ok := declared[typ]; ok {
			if !sameFields(prev, p.data) {
				return b, fmt.Errorf("instances of %s declare different data properties", typ)
			}
			continue
		}
		declared[typ] = append([]Data(nil), p.data...)
		b, err = AppendStructDecl(b, typ, p.data)
		if err != nil {
			return b, err
		}
	}
	b = append(b, '\n')
	b = AppendChannelDecl(b, "in", "vec3", glexpr.SurfacePosition)
	if src.Normals {
		b = AppendChannelDecl(b, "in", "vec3", VertexNormal)
	}
	if src.TextureUvs {
		b = AppendChannelDecl(b, "in", "vec2", glexpr.SurfaceTextureUv)
	}
	b = AppendChannelDecl(b, "uniform", "vec3", glexpr.CameraPosition)
	for _, inst := range src.Instances {
		b = AppendChannelDecl(b, "uniform", SanitizeName(inst.Lighting.LightingType()), inst.Name)
	}
	b = AppendChannelDecl(b, "out", "vec4", OutputFragment)

	b = append(b, "\nvoid main() {\n"...)
	clear(p.locals)
	for _, inst := range src.Instances {
		p.calcs = inst.Lighting.AppendCalcs(p.calcs[:0])
		for _, c := range p.calcs {
			if glexpr.ContextType(c.Name) != glexpr.TypeVoid {
				continue // Surface values are channels, not locals.
			}
			name := SanitizeName(c.Name)
			p.scratch = append(p.scratch[:0], name...)
			h := hash(p.scratch, 0)
			if prev, ok := p.locals[h]; ok {
				if prev.GLSL() != c.Type.GLSL() {
					return b, fmt.Errorf("%s: local %s declared as %s and %s", inst.Name, name, prev.GLSL(), c.Type.GLSL())
				}
				continue
			}
			p.locals[h] = c.Type
			b = append(b, '\t')
			b = append(b, c.Type.GLSL()...)
			b = append(b, ' ')
			b = append(b, name...)
			b = append(b, ";\n"...)
		}
	}
	if src.Normals {
		b = append(b, "\tvec3 SurfaceNormal = normalize(VertexNormal);\n"...)
	}
	b = append(b, "\tconst vec3 white3 = vec3(1.0, 1.0, 1.0);\n"...)
	b = append(b, "\tfragment = vec4(0.0, 0.0, 0.0, 1.0);\n"...)
	for _, mat := range src.Instances {
		if !mat.Material {
			continue
		}
		p.calcs = mat.Lighting.AppendCalcs(p.calcs[:0])
		matCalcs := make(map[string]bool, len(p.calcs))
		hasOpacity := false
		var remission *Calc
		for _, c := range p.calcs {
			if c.Name == CalcRemission {
				remission = &c
				continue
			}
			b, err = p.appendAssignment(b, Context{This: mat.Lighting, Name: mat.Name}, c)
			if err != nil {
				return b, fmt.Errorf("material %s: %w", mat.Name, err)
			}
			matCalcs[c.Name] = true
			hasOpacity = hasOpacity || c.Name == CalcOpacity
		}
		if hasOpacity {
			b = append(b, "\tfragment.a = min(fragment.a, Opacity);\n"...)
		}
		for _, light := range src.Instances {
			if light.Material {
				continue
			}
			p.calcs = light.Lighting.AppendCalcs(p.calcs[:0])
			lightCalcs := make(map[string]bool, len(p.calcs))
			hasRemission := remission != nil
			for _, c := range p.calcs {
				if c.Name == CalcRemission {
					if remission != nil {
						continue
					}
					hasRemission = true
				}
				if err = checkParamRefs(c.Expr, glexpr.MaterialParam, matCalcs); err != nil {
					return b, fmt.Errorf("light %s with material %s: %w", light.Name, mat.Name, err)
				}
				b, err = p.appendAssignment(b, Context{This: light.Lighting, Name: light.Name, AllowMaterial: true}, c)
				if err != nil {
					return b, fmt.Errorf("light %s: %w", light.Name, err)
				}
				lightCalcs[c.Name] = true
			}
			if !hasRemission {
				return b, fmt.Errorf("light %s has no %s property", light.Name, CalcRemission)
			}
			if remission != nil {
				if err = checkParamRefs(remission.Expr, glexpr.LightParam, lightCalcs); err != nil {
					return b, fmt.Errorf("material %s with light %s: %w", mat.Name, light.Name, err)
				}
				b, err = p.appendAssignment(b, Context{This: mat.Lighting, Name: mat.Name, AllowLight: true}, *remission)
				if err != nil {
					return b, fmt.Errorf("material %s: %w", mat.Name, err)
				}
			}
			b = append(b, "\tfragment.rgb = white3 - (white3 - fragment.rgb) * (white3 - Remission);\n"...)
		}
	}
	return append(b, "}\n"...), nil
}

func (p *Programmer) appendAssignment(b []byte, ctx Context, c Calc) (_ []byte, err error) {
	if c.Expr == nil {
		return b, fmt.Errorf("property %q has no expression", c.Name)
	}
	if got := c.Expr.Type().GLSL(); got != c.Type.GLSL() {
		return b, fmt.Errorf("property %q of type %s assigned expression of type %s", c.Name, c.Type, c.Expr.Type())
	}
	b = append(b, '\t')
	b = append(b, SanitizeName(c.Name)...)
	b = append(b, " = "...)
	b, err = AppendExpr(b, ctx, c.Expr)
	if err != nil {
		return b, fmt.Errorf("property %q: %w", c.Name, err)
	}
	return append(b, ";\n"...), nil
}

// checkParamRefs verifies every computed value e reads from the free
// parameter param is among calcs.
func checkParamRefs(e glexpr.Expr, param string, calcs map[string]bool) (err error) {
	glexpr.Walk(e, func(n glexpr.Expr) bool {
		m, ok := n.(*glexpr.Member)
		if err != nil || !ok || m.Kind != glexpr.MemberComputed {
			return err == nil
		}
		if p, ok := m.X.(*glexpr.Param); ok && p.Name == param && !calcs[m.Name] {
			err = fmt.Errorf("%s does not compute %q", param, m.Name)
		}
		return err == nil
	})
	return err
}

func sameFields(a, b []Data) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type.GLSL() != b[i].Type.GLSL() {
			return false
		}
	}
	return true
}

func (p *Programmer) appendVersion(b []byte) []byte {
	b = append(b, "#version "...)
	b = strconv.AppendInt(b, int64(p.version), 10)
	return append(b, "\n\n"...)
}

// SanitizeName removes characters not allowed in GLSL identifiers.
func SanitizeName(name string) string {
	if !strings.ContainsAny(name, "_`.") {
		return name
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '`', '.':
			return -1
		}
		return r
	}, name)
}

// InstanceName returns the name of the uniform variable of the index'th instance of typeName.
func InstanceName(typeName string, index int) string {
	return SanitizeName(typeName) + strconv.Itoa(index)
}

// AppendStructDecl appends a GLSL struct declaration with one field per data property.
func AppendStructDecl(b []byte, typename string, fields []Data) ([]byte, error) {
	b = append(b, "struct "...)
	b = append(b, typename...)
	b = append(b, " {\n"...)
	for _, f := range fields {
		glsl := f.Type.GLSL()
		if glsl == "" || f.Type == glexpr.TypeVoid {
			return b, fmt.Errorf("%s.%s: data property of type %s not allowed", typename, f.Name, f.Type)
		}
		b = append(b, '\t')
		b = append(b, glsl...)
		b = append(b, ' ')
		b = append(b, SanitizeName(f.Name)...)
		b = append(b, ";\n"...)
	}
	return append(b, "};\n"...), nil
}

// AppendChannelDecl appends a single channel declaration, i.e. "uniform mat4 Model;".
func AppendChannelDecl(b []byte, direction, typename, name string) []byte {
	b = append(b, direction...)
	b = append(b, ' ')
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, name...)
	return append(b, ";\n"...)
}

const decimalDigits = 9

// AppendFloat appends v with trailing zeros trimmed. neg and decimal
// replace the minus sign and decimal point.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
