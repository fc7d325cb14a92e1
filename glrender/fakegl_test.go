package glrender_test

import (
	"errors"
	"fmt"

	"github.com/soypat/glshade/glrender"
)

// fakeGL records the commands issued to it.
type fakeGL struct {
	calls      []string
	compileErr error
	nextName   uint32
	uniforms   map[string]int32
	// units maps texture units to the bound texture.
	units     map[int]uint32
	maxBound  int
	textures  map[uint32][][]byte
	uploads   map[uint32]any
	deleted   []uint32
	uniformfv map[int32][]float32
	uniformi  map[int32]int32
}

var _ glrender.GL = (*fakeGL)(nil)

func newFakeGL() *fakeGL {
	return &fakeGL{
		uniforms:  make(map[string]int32),
		units:     make(map[int]uint32),
		textures:  make(map[uint32][][]byte),
		uploads:   make(map[uint32]any),
		uniformfv: make(map[int32][]float32),
		uniformi:  make(map[int32]int32),
	}
}

func (f *fakeGL) rec(format string, args ...any) { f.calls = append(f.calls, fmt.Sprintf(format, args...)) }

func (f *fakeGL) gen() uint32 {
	f.nextName++
	return f.nextName
}

func (f *fakeGL) CompileProgram(vertex, fragment, output string) (uint32, error) {
	if f.compileErr != nil {
		return 0, f.compileErr
	}
	p := f.gen()
	f.rec("compile %d %s", p, output)
	return p, nil
}

func (f *fakeGL) DeleteProgram(program uint32) {
	f.deleted = append(f.deleted, program)
	f.rec("deleteprogram %d", program)
}

func (f *fakeGL) UseProgram(program uint32) { f.rec("use %d", program) }

func (f *fakeGL) UniformLocation(program uint32, name string) int32 {
	key := fmt.Sprint(program, name)
	loc, ok := f.uniforms[key]
	if !ok {
		loc = int32(len(f.uniforms))
		f.uniforms[key] = loc
	}
	return loc
}

func (f *fakeGL) AttribLocation(program uint32, name string) int32 { return 0 }

func (f *fakeGL) Uniform1i(loc int32, v int32) { f.uniformi[loc] = v }

func (f *fakeGL) Uniformfv(loc int32, components int, v []float32) {
	f.uniformfv[loc] = append([]float32(nil), v...)
}

func (f *fakeGL) UniformMatrixfv(loc int32, dim int, v []float32) {
	f.uniformfv[loc] = append([]float32(nil), v...)
}

func (f *fakeGL) Enable(c glrender.Capability)  { f.rec("enable %d", c) }
func (f *fakeGL) Disable(c glrender.Capability) { f.rec("disable %d", c) }

func (f *fakeGL) BlendFunc(src, dst glrender.BlendFactor) { f.rec("blendfunc %d %d", src, dst) }

func (f *fakeGL) CreateTexture(target glrender.TextureTarget, width, height int, faces [][]byte) (uint32, error) {
	for _, face := range faces {
		if len(face) != 4*width*height {
			return 0, errors.New("bad face size")
		}
	}
	t := f.gen()
	f.textures[t] = faces
	return t, nil
}

func (f *fakeGL) DeleteTexture(texture uint32) {
	f.deleted = append(f.deleted, texture)
	f.rec("deletetexture %d", texture)
}

func (f *fakeGL) BindTexture(unit int, target glrender.TextureTarget, texture uint32) {
	if texture == 0 {
		delete(f.units, unit)
	} else {
		f.units[unit] = texture
	}
	f.maxBound = max(f.maxBound, len(f.units))
	f.rec("bindtexture %d %d", unit, texture)
}

func (f *fakeGL) CreateVertexArray() uint32     { return f.gen() }
func (f *fakeGL) DeleteVertexArray(vao uint32)  { f.deleted = append(f.deleted, vao) }
func (f *fakeGL) BindVertexArray(vao uint32)   {}

func (f *fakeGL) CreateBuffer(target glrender.BufferTarget, data any) (uint32, error) {
	b := f.gen()
	f.uploads[b] = data
	return b, nil
}

func (f *fakeGL) DeleteBuffer(buffer uint32) { f.deleted = append(f.deleted, buffer) }

func (f *fakeGL) VertexAttrib(loc uint32, components int, buffer uint32) {}

func (f *fakeGL) DrawArrays(count int) { f.rec("draw %d", count) }

func (f *fakeGL) DrawElements(count int, typ glrender.IndexType, indexBuffer uint32) {
	f.rec("drawelements %d %d", count, typ)
}

func (f *fakeGL) Viewport(width, height int)    { f.rec("viewport %d %d", width, height) }
func (f *fakeGL) ClearColor(r, g, b, a float32) {}
func (f *fakeGL) Clear()                        { f.rec("clear") }
func (f *fakeGL) Err() error                    { return nil }
