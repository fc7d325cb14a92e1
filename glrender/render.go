package glrender

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/glbuild"
	"github.com/soypat/glshade/glexpr"
)

// Camera supplies the view of a frame.
type Camera interface {
	View() ms3.Mat4
	// Projection returns the projection matrix for the viewport aspect ratio width/height.
	Projection(aspect float32) ms3.Mat4
	Position() ms3.Vec
}

// Part is a surface placed in the scene.
type Part struct {
	Surface *Surface
	Model   ms3.Mat4
}

// Render draws the parts. Parts are grouped by shading. Groups with opaque shadings are
// drawn first, then the transparent ones, each in order of first appearance.
// Transparent parts are not sorted by distance to the camera.
func Render(dev *Device, parts []Part, cam Camera, width, height int, background glexpr.Vec4) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	dev.ExecutePending()
	dev.peak = dev.UnitsInUse()
	gl := dev.gl
	gl.Enable(CapDepthTest)
	gl.Viewport(width, height)
	gl.ClearColor(background.X, background.Y, background.Z, background.W)
	gl.Clear()

	var order []*Shading
	groups := make(map[*Shading][]Part)
	for _, p := range parts {
		if p.Surface == nil {
			return errors.New("part without surface")
		}
		s := p.Surface.shading
		if _, ok := groups[s]; !ok {
			order = append(order, s)
		}
		groups[s] = append(groups[s], p)
	}
	aspect := float32(width) / float32(height)
	for _, transparent := range [2]bool{false, true} {
		for _, s := range order {
			if s.Transparent() != transparent {
				continue
			}
			err := renderGroup(s, groups[s], cam, aspect)
			if err != nil {
				return err
			}
		}
	}
	err := gl.Err()
	if err != nil {
		return err
	}
	return dev.CheckAllTextureUnitsReleased()
}

func renderGroup(s *Shading, parts []Part, cam Camera, aspect float32) (err error) {
	s.Bind()
	defer s.Unbind()
	if s.Has(glbuild.UniformView) {
		err = s.Set(glbuild.UniformView, cam.View(), true)
	}
	if err == nil && s.Has(glbuild.UniformProj) {
		err = s.Set(glbuild.UniformProj, cam.Projection(aspect), true)
	}
	if err == nil && s.Has(glexpr.CameraPosition) {
		err = s.Set(glexpr.CameraPosition, cam.Position(), true)
	}
	if err == nil && s.Lighted() {
		err = s.SetParameters()
	}
	if err != nil {
		return err
	}

	applied := 0
	defer func() {
		for i := applied - 1; i >= 0; i-- {
			err = errors.Join(err, s.aspects[i].UnApply(s))
		}
	}()
	for _, a := range s.aspects {
		err = a.Apply(s)
		if err != nil {
			return fmt.Errorf("shading %q: %w", s.name, err)
		}
		applied++
	}
	for _, p := range parts {
		err = s.Set(glbuild.UniformModel, p.Model, true)
		if err != nil {
			return err
		}
		p.Surface.bindAttributes()
		err = s.CheckInputs()
		if err != nil {
			return err
		}
		p.Surface.Draw()
		err = s.Reset(glbuild.UniformModel, true)
		if err != nil {
			return err
		}
	}
	return nil
}
