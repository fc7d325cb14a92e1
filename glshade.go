// Package glshade provides the lights and materials of a scene. Each of them
// lists its data properties and its computed properties as expression trees
// from which package glbuild generates the shaders.
package glshade

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glexpr"
)

// epstol is used to check for badly conditioned directions before normalization.
const epstol = 6e-7

// Builder wraps light and material construction.
// Provides error handling strategies with panics or error accumulation.
type Builder struct {
	NoPanic   bool
	accumErrs []error
}

// Err returns the accumulated construction errors, if any.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) errorf(msg string, args ...any) {
	if !bld.NoPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (bld *Builder) unit(what string, v ms3.Vec) ms3.Vec {
	n := ms3.Norm(v)
	if n < epstol {
		bld.errorf("zero length %s", what)
		return v
	}
	return ms3.Scale(1/n, v)
}

func (bld *Builder) checkColor(what string, c ms3.Vec) {
	if c.X < 0 || c.Y < 0 || c.Z < 0 {
		bld.errorf("negative %s color component", what)
	}
}

func (bld *Builder) checkUnitRange(what string, v float32) {
	if v < 0 || v > 1 {
		bld.errorf("%s %g outside [0,1]", what, v)
	}
}

// MaterialCalc returns the computed property name of the material a light
// currently shades, for use in light expressions.
func MaterialCalc(name string, t glexpr.Type) *glexpr.Member {
	return glexpr.Computed(glexpr.Parameter(glexpr.MaterialParam, glexpr.TypeStruct), name, t)
}

// LightCalc returns the computed property name of the light currently lighting
// a material, for use in material remission expressions.
func LightCalc(name string, t glexpr.Type) *glexpr.Member {
	return glexpr.Computed(glexpr.Parameter(glexpr.LightParam, glexpr.TypeStruct), name, t)
}

// Names of the computed properties of lights and materials.
const (
	CalcDirection      = "Direction"
	CalcImmission      = "Immission"
	CalcLightToSurface = "LightToSurface"
	CalcRoughness      = "Roughness"
	CalcMetalness      = "Metalness"
	CalcColor          = "Color"
)
