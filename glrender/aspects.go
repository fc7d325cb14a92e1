package glrender

import "errors"

// Aspect is state applied around the draws of a shading.
type Aspect interface {
	Apply(s *Shading) error
	UnApply(s *Shading) error
	// Dispose queues the release of resources owned by the aspect.
	Dispose(dev *Device)
}

// TransparencyAspect enables alpha blending while applied.
type TransparencyAspect struct {
	Enabled bool
}

func (a *TransparencyAspect) Apply(s *Shading) error {
	if a.Enabled {
		s.dev.gl.Enable(CapBlend)
		s.dev.gl.BlendFunc(BlendSrcAlpha, BlendOneMinusSrcAlpha)
	}
	return nil
}

func (a *TransparencyAspect) UnApply(s *Shading) error {
	if a.Enabled {
		s.dev.gl.Disable(CapBlend)
	}
	return nil
}

func (a *TransparencyAspect) Dispose(*Device) {}

// TextureHandle refers to a texture object of the device.
type TextureHandle interface {
	TextureName() uint32
}

type targeter interface {
	TextureTarget() TextureTarget
}

func targetOf(h TextureHandle) TextureTarget {
	if t, ok := h.(targeter); ok {
		return t.TextureTarget()
	}
	return Texture2D
}

// TextureAspect binds a texture to a texture unit acquired while applied.
type TextureAspect struct {
	Handle TextureHandle
	// Owned textures are deleted when the aspect is disposed.
	Owned bool
	unit  int
	bound bool
}

var errTextureApplied = errors.New("texture aspect applied twice")

// Unit returns the texture unit while applied.
func (a *TextureAspect) Unit() int { return a.unit }

func (a *TextureAspect) Apply(s *Shading) error {
	if a.bound {
		return errTextureApplied
	}
	unit, err := s.dev.AcquireTextureUnit()
	if err != nil {
		return err
	}
	a.unit, a.bound = unit, true
	s.dev.gl.BindTexture(unit, targetOf(a.Handle), a.Handle.TextureName())
	return nil
}

func (a *TextureAspect) UnApply(s *Shading) error {
	if !a.bound {
		return ErrUnitNotAcquired
	}
	s.dev.gl.BindTexture(a.unit, targetOf(a.Handle), 0)
	a.bound = false
	return s.dev.ReleaseTextureUnit(a.unit)
}

func (a *TextureAspect) Dispose(dev *Device) {
	if !a.Owned {
		return
	}
	name := a.Handle.TextureName()
	dev.Invoke(func(gl GL) { gl.DeleteTexture(name) })
}

// NamedTextureAspect is a TextureAspect that also sets the sampler uniform Name to its unit.
type NamedTextureAspect struct {
	TextureAspect
	Name string
}

func (a *NamedTextureAspect) Apply(s *Shading) error {
	err := a.TextureAspect.Apply(s)
	if err != nil {
		return err
	}
	return s.Set(a.Name, int32(a.unit), false)
}

func (a *NamedTextureAspect) UnApply(s *Shading) error {
	err := s.Reset(a.Name, false)
	if err != nil {
		return err
	}
	return a.TextureAspect.UnApply(s)
}
