package glrender

import (
	"errors"
	"fmt"
	"slices"
)

// Attribute is an unrolled vertex attribute array.
type Attribute struct {
	Name string
	// Components is the per vertex dimension, i.e. 3 for positions.
	Components int
	Data       []float32
}

// Geometry provides the vertex data of a surface.
type Geometry interface {
	Attributes() []Attribute
	// Indices returns the 16 or 32 bit index buffer, or neither for a triangle list.
	Indices() (idx16 []uint16, idx32 []uint32)
}

// Mesh is a Geometry held in memory.
type Mesh struct {
	Attrs     []Attribute
	Indices16 []uint16
	Indices32 []uint32
}

func (m *Mesh) Attributes() []Attribute                   { return m.Attrs }
func (m *Mesh) Indices() (idx16 []uint16, idx32 []uint32) { return m.Indices16, m.Indices32 }

// Surface is geometry uploaded to the device for drawing with one shading.
type Surface struct {
	shading  *Shading
	vao      uint32
	buffers  []uint32
	attrs    []string
	count    int
	indexTyp IndexType
	indexBuf uint32
}

// NewSurface uploads the attributes of geo the shading consumes.
func NewSurface(s *Shading, geo Geometry) (*Surface, error) {
	attrs := geo.Attributes()
	vertices := -1
	for _, a := range attrs {
		if a.Components < 1 || a.Components > 4 || len(a.Data)%a.Components != 0 {
			return nil, fmt.Errorf("attribute %s: %d floats not a multiple of %d components", a.Name, len(a.Data), a.Components)
		}
		n := len(a.Data) / a.Components
		if vertices >= 0 && n != vertices {
			return nil, fmt.Errorf("attribute %s has %d vertices, want %d", a.Name, n, vertices)
		}
		vertices = n
	}
	if vertices <= 0 {
		return nil, errors.New("geometry has no vertices")
	}
	for _, name := range s.Attributes() {
		if !slices.ContainsFunc(attrs, func(a Attribute) bool { return a.Name == name }) {
			return nil, fmt.Errorf("shading %q requires attribute %s not provided by geometry", s.name, name)
		}
	}

	gl := s.dev.gl
	surf := &Surface{shading: s, count: vertices}
	surf.vao = gl.CreateVertexArray()
	gl.BindVertexArray(surf.vao)
	defer gl.BindVertexArray(0)
	for _, a := range attrs {
		if !slices.Contains(s.Attributes(), a.Name) {
			continue
		}
		buf, err := gl.CreateBuffer(ArrayBuffer, a.Data)
		if err != nil {
			surf.Dispose()
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		surf.buffers = append(surf.buffers, buf)
		surf.attrs = append(surf.attrs, a.Name)
		if loc := s.attribLocation(a.Name); loc >= 0 {
			gl.VertexAttrib(uint32(loc), a.Components, buf)
		}
	}
	idx16, idx32 := geo.Indices()
	var err error
	switch {
	case idx16 != nil && idx32 != nil:
		err = errors.New("both 16 and 32 bit indices provided")
	case idx16 != nil:
		surf.indexTyp, surf.count = IndexUint16, len(idx16)
		surf.indexBuf, err = gl.CreateBuffer(ElementArrayBuffer, idx16)
	case idx32 != nil:
		surf.indexTyp, surf.count = IndexUint32, len(idx32)
		surf.indexBuf, err = gl.CreateBuffer(ElementArrayBuffer, idx32)
	}
	if err != nil {
		surf.Dispose()
		return nil, err
	}
	return surf, nil
}

// Shading returns the shading the surface was uploaded for.
func (surf *Surface) Shading() *Shading { return surf.shading }

// bindAttributes records the uploaded attributes in the binding state.
func (surf *Surface) bindAttributes() {
	for _, name := range surf.attrs {
		surf.shading.SetAttribute(name)
	}
}

// Draw issues the draw call. The shading must be bound.
func (surf *Surface) Draw() {
	gl := surf.shading.dev.gl
	gl.BindVertexArray(surf.vao)
	if surf.indexTyp == IndexNone {
		gl.DrawArrays(surf.count)
	} else {
		gl.DrawElements(surf.count, surf.indexTyp, surf.indexBuf)
	}
	gl.BindVertexArray(0)
}

// Dispose queues deletion of the vertex array and buffers.
func (surf *Surface) Dispose() {
	vao, bufs, idx := surf.vao, surf.buffers, surf.indexBuf
	surf.shading.dev.Invoke(func(gl GL) {
		for _, b := range bufs {
			gl.DeleteBuffer(b)
		}
		if idx != 0 {
			gl.DeleteBuffer(idx)
		}
		gl.DeleteVertexArray(vao)
	})
}
