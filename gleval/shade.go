package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/glexpr"
)

// Surface holds the surface values of a single fragment.
type Surface struct {
	Position ms3.Vec
	// Normal need not be unit length, it is normalized before shading.
	Normal    ms3.Vec
	TextureUv ms2.Vec
	Camera    ms3.Vec
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("surface and color buffer length mismatch")
)

type instance struct {
	name  string
	l     glbuild.Lighting
	data  map[string]Value
	calcs []glbuild.Calc
	// remission of a material replacing the remission of lights, or nil.
	remission *glbuild.Calc
}

// Shader computes on the host the color a generated fragment shader computes
// for the same lights and materials.
type Shader struct {
	lights    []instance
	materials []instance
	locals    map[string]Value
	surface   map[string]Value
	sample    SampleFunc
}

// NewShader prepares the evaluation of materials lit by lights. sample
// may be nil if no material samples a texture.
func NewShader(lights, materials []glbuild.Lighting, sample SampleFunc) (*Shader, error) {
	if len(materials) == 0 {
		return nil, errors.New("at least one material required")
	}
	s := &Shader{
		locals:  make(map[string]Value),
		surface: make(map[string]Value, 4),
		sample:  sample,
	}
	counts := make(map[string]int)
	for i, ls := range [2][]glbuild.Lighting{lights, materials} {
		for _, l := range ls {
			typ := l.LightingType()
			inst := instance{name: glbuild.InstanceName(typ, counts[typ]), l: l, data: make(map[string]Value)}
			counts[typ]++
			for _, d := range l.AppendData(nil) {
				v, err := ValueOf(d.Type, d.Value)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", inst.name, d.Name, err)
				}
				inst.data[d.Name] = v
			}
			inst.calcs = l.AppendCalcs(nil)
			if i == 0 {
				s.lights = append(s.lights, inst)
				continue
			}
			for j, c := range inst.calcs {
				if c.Name == glbuild.CalcRemission {
					inst.remission = &c
					inst.calcs = append(inst.calcs[:j:j], inst.calcs[j+1:]...)
					break
				}
			}
			s.materials = append(s.materials, inst)
		}
	}
	return s, nil
}

// Shade returns the color of a fragment with the given surface values.
func (s *Shader) Shade(surf Surface) (glexpr.Vec4, error) {
	n := surf.Normal
	if l := ms3.Norm(n); l > 0 {
		n = ms3.Scale(1/l, n)
	}
	s.surface[glexpr.SurfacePosition] = Vec3(glexpr.TypePoint3, surf.Position)
	s.surface[glexpr.SurfaceNormal] = Vec3(glexpr.TypeVec3, n)
	s.surface[glexpr.CameraPosition] = Vec3(glexpr.TypePoint3, surf.Camera)
	s.surface[glexpr.SurfaceTextureUv] = Value{T: glexpr.TypeVec2, V: [4]float32{surf.TextureUv.X, surf.TextureUv.Y}}
	clear(s.locals)

	frag := Value{T: glexpr.TypeColor4, V: [4]float32{0, 0, 0, 1}}
	for _, mat := range s.materials {
		if err := s.run(mat, ""); err != nil {
			return frag.Vec4(), err
		}
		if op, ok := s.locals[glbuild.CalcOpacity]; ok {
			frag.V[3] = math32.Min(frag.V[3], op.V[0])
		}
		for _, light := range s.lights {
			skip := ""
			if mat.remission != nil {
				skip = glbuild.CalcRemission
			}
			if err := s.run(light, skip); err != nil {
				return frag.Vec4(), err
			}
			if mat.remission != nil {
				v, err := s.evaluator(mat).Eval(mat.remission.Expr)
				if err != nil {
					return frag.Vec4(), fmt.Errorf("%s.%s with %s: %w", mat.name, glbuild.CalcRemission, light.name, err)
				}
				s.locals[glbuild.CalcRemission] = v
			}
			rem, ok := s.locals[glbuild.CalcRemission]
			if !ok {
				return frag.Vec4(), fmt.Errorf("light %s has no %s property", light.name, glbuild.CalcRemission)
			}
			a := frag.V[3]
			frag = Blend(frag, rem)
			frag.V[3] = a
		}
	}
	return frag.Vec4(), nil
}

func (s *Shader) evaluator(inst instance) *Evaluator {
	return &Evaluator{
		This:    inst.l,
		Data:    inst.data,
		Locals:  s.locals,
		Surface: s.surface,
		Sample:  s.sample,
	}
}

// run evaluates the computed properties of inst except skip.
func (s *Shader) run(inst instance, skip string) error {
	ev := s.evaluator(inst)
	for _, c := range inst.calcs {
		if c.Name == skip || glexpr.ContextType(c.Name) != glexpr.TypeVoid {
			continue
		}
		v, err := ev.Eval(c.Expr)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", inst.name, c.Name, err)
		}
		s.locals[c.Name] = v
	}
	return nil
}

// Evaluate shades every surface and stores the resulting colors.
// surfs and colors must be of the same length.
func (s *Shader) Evaluate(surfs []Surface, colors []glexpr.Vec4) (err error) {
	if len(surfs) != len(colors) {
		return errMismatchBufferLength
	} else if len(surfs) == 0 {
		return errEmptyBuffers
	}
	for i := range surfs {
		colors[i], err = s.Shade(surfs[i])
		if err != nil {
			return fmt.Errorf("surface %d: %w", i, err)
		}
	}
	return nil
}
