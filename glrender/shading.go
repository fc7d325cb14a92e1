package glrender

import (
	"fmt"
	"log/slog"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glbind"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/glexpr"
	"github.com/soypat/glshade/glparse"
)

// Shading is a compiled shader program together with its channel network and
// the aspects applied around each draw.
type Shading struct {
	dev        *Device
	name       string
	program    uint32
	validator  *glbind.Validator
	aspects    []Aspect
	attributes []string
	// instances are the lights and materials of a generated shading.
	instances []glbuild.Instance
	uniforms  map[string]int32
	attribs   map[string]int32
	disposed  bool
}

// NewLightedShading generates, validates and compiles the shaders of materials lit by lights.
// A transparency aspect is always attached and one named texture aspect per texture
// bearing material.
func NewLightedShading(dev *Device, name string, lights, materials []glbuild.Lighting) (*Shading, error) {
	prog := glbuild.NewDefaultProgrammer()
	err := prog.SetVersion(dev.version)
	if err != nil {
		return nil, err
	}
	src, err := prog.WriteShading(lights, materials)
	if err != nil {
		return nil, fmt.Errorf("shading %q: %w", name, err)
	}
	aspects := []Aspect{&TransparencyAspect{Enabled: src.Transparent}}
	for _, tex := range src.Textures {
		handle, ok := tex.Handle.(TextureHandle)
		if !ok {
			return nil, fmt.Errorf("shading %q: %s is %T, not a texture handle", name, tex.Name, tex.Handle)
		}
		aspects = append(aspects, &NamedTextureAspect{Name: tex.Name, TextureAspect: TextureAspect{Handle: handle}})
	}
	s, err := NewShading(dev, name, src.Vertex, src.Fragment, aspects...)
	if err != nil {
		return nil, err
	}
	s.instances = src.Instances
	return s, nil
}

// NewShading parses, validates and compiles hand written shaders.
func NewShading(dev *Device, name, vertex, fragment string, aspects ...Aspect) (*Shading, error) {
	vprog, err := glparse.Parse(vertex)
	if err != nil {
		return nil, fmt.Errorf("shading %q: vertex stage: %w", name, err)
	}
	fprog, err := glparse.Parse(fragment)
	if err != nil {
		return nil, fmt.Errorf("shading %q: fragment stage: %w", name, err)
	}
	v, err := glbind.NewValidator(vprog, fprog)
	if err != nil {
		return nil, fmt.Errorf("shading %q: %w", name, err)
	}
	s := &Shading{
		dev:       dev,
		name:      name,
		validator: v,
		aspects:   aspects,
		uniforms:  make(map[string]int32),
		attribs:   make(map[string]int32),
	}
	for _, c := range vprog.Channels() {
		if c.Dir == glparse.DirIn {
			s.attributes = append(s.attributes, c.Var.Name)
		}
	}
	output := v.Outputs()[0].Name
	s.program, err = dev.compile(name, vertex, fragment, output)
	if err != nil {
		return nil, err
	}
	dev.log.Debug("shading created", slog.String("shading", name), slog.Int("aspects", len(aspects)), slog.Any("attributes", s.attributes))
	return s, nil
}

// Name returns the name given on construction.
func (s *Shading) Name() string { return s.name }

// Attributes returns the vertex attributes the shading consumes.
func (s *Shading) Attributes() []string { return s.attributes }

// Aspects returns the aspects applied around each draw.
func (s *Shading) Aspects() []Aspect { return s.aspects }

// Validator returns the channel network and binding state.
func (s *Shading) Validator() *glbind.Validator { return s.validator }

// Lighted reports whether the shading was generated from lights and materials.
func (s *Shading) Lighted() bool { return s.instances != nil }

// Transparent reports whether the shading enables blending.
func (s *Shading) Transparent() bool {
	for _, a := range s.aspects {
		if t, ok := a.(*TransparencyAspect); ok && t.Enabled {
			return true
		}
	}
	return false
}

// Bind makes the program current.
func (s *Shading) Bind() { s.dev.gl.UseProgram(s.program) }

// Unbind clears the current program.
func (s *Shading) Unbind() { s.dev.gl.UseProgram(0) }

func (s *Shading) uniformLocation(name string) int32 {
	loc, ok := s.uniforms[name]
	if !ok {
		loc = s.dev.gl.UniformLocation(s.program, name)
		s.uniforms[name] = loc
	}
	return loc
}

func (s *Shading) attribLocation(name string) int32 {
	loc, ok := s.attribs[name]
	if !ok {
		loc = s.dev.gl.AttribLocation(s.program, name)
		s.attribs[name] = loc
	}
	return loc
}

// Set binds a uniform value. If checked is set the uniform must exist in the
// channel network with a matching type. value is one of bool, int, int32,
// float32, float64, []float32, ms2.Vec, ms3.Vec, []ms3.Vec, glexpr.Vec4,
// ms2.Mat2, ms3.Mat3 or ms3.Mat4.
func (s *Shading) Set(name string, value any, checked bool) error {
	var (
		glsl  string
		array bool
		ints  int32
		dim   int
		mat   bool
		data  []float32
	)
	switch v := value.(type) {
	case bool:
		glsl = "bool"
		if v {
			ints = 1
		}
	case int:
		glsl, ints = "int", int32(v)
	case int32:
		glsl, ints = "int", v
	case float32:
		glsl, dim, data = "float", 1, []float32{v}
	case float64:
		glsl, dim, data = "float", 1, []float32{float32(v)}
	case []float32:
		glsl, dim, data, array = "float", 1, v, true
	case ms2.Vec:
		glsl, dim, data = "vec2", 2, []float32{v.X, v.Y}
	case ms3.Vec:
		glsl, dim, data = "vec3", 3, []float32{v.X, v.Y, v.Z}
	case []ms3.Vec:
		glsl, dim, array = "vec3", 3, true
		data = make([]float32, 0, 3*len(v))
		for _, e := range v {
			data = append(data, e.X, e.Y, e.Z)
		}
	case glexpr.Vec4:
		arr := v.Array()
		glsl, dim, data = "vec4", 4, arr[:]
	case ms2.Mat2:
		arr := v.Array()
		glsl, dim, mat, data = "mat2", 2, true, arr[:]
	case ms3.Mat3:
		arr := v.Array()
		glsl, dim, mat, data = "mat3", 3, true, arr[:]
	case ms3.Mat4:
		arr := v.Array()
		glsl, dim, mat, data = "mat4", 4, true, arr[:]
	default:
		return fmt.Errorf("shading %q: uniform %s: unsupported value type %T", s.name, name, value)
	}
	err := s.validator.SetUniform(name, glsl, array, checked)
	if err != nil {
		return err
	}
	loc := s.uniformLocation(name)
	if loc < 0 {
		return nil
	}
	switch {
	case data == nil:
		s.dev.gl.Uniform1i(loc, ints)
	case mat:
		s.dev.gl.UniformMatrixfv(loc, dim, data)
	default:
		s.dev.gl.Uniformfv(loc, dim, data)
	}
	return nil
}

// SetAttribute records the vertex attribute name as bound.
func (s *Shading) SetAttribute(name string) { s.validator.SetAttribute(name) }

// Reset removes the binding of name.
func (s *Shading) Reset(name string, assertExists bool) error {
	return s.validator.Reset(name, assertExists)
}

// CheckInputs verifies every input channel has a value of the right kind.
func (s *Shading) CheckInputs() error {
	err := s.validator.CheckInputs()
	if err != nil {
		return fmt.Errorf("shading %q: %w", s.name, err)
	}
	return nil
}

// Has reports whether the channel network contains name.
func (s *Shading) Has(name string) bool {
	_, ok := s.validator.Lookup(name)
	return ok
}

// SetParameters uploads the data properties of every light and material.
// Texture properties are bound by the texture aspects.
func (s *Shading) SetParameters() error {
	var data []glbuild.Data
	for _, inst := range s.instances {
		data = inst.Lighting.AppendData(data[:0])
		for _, d := range data {
			if d.Type == glexpr.TypeTexture {
				continue
			}
			val := d.Value
			if f, ok := val.(float64); ok {
				val = float32(f)
			}
			err := s.Set(inst.Name+"."+glbuild.SanitizeName(d.Name), val, true)
			if err != nil {
				return fmt.Errorf("shading %q: %w", s.name, err)
			}
		}
	}
	return nil
}

// Dispose queues the deletion of the program and the resources of its aspects.
func (s *Shading) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	prog := s.program
	s.dev.Invoke(func(gl GL) {
		if prog != 0 {
			gl.DeleteProgram(prog)
		}
	})
	for _, a := range s.aspects {
		a.Dispose(s.dev)
	}
}
