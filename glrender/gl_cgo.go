//go:build !tinygo && cgo

package glrender

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/soypat/glgl/v4.1-core/glgl"
)

// NativeGL returns the OpenGL 4.1 core implementation of [GL]. The context must be
// current and gl.Init called, as glshadeaux does.
func NativeGL() (GL, error) { return nativeGL{}, nil }

type nativeGL struct{}

func (nativeGL) CompileProgram(vertex, fragment, output string) (uint32, error) {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vertex + "\x00",
		Fragment: fragment + "\x00",
	})
	if err != nil {
		return 0, err
	}
	id := uint32(prog.ID())
	// Relink with the output channel bound to the default framebuffer color.
	gl.BindFragDataLocation(id, 0, gl.Str(output+"\x00"))
	gl.LinkProgram(id)
	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(id)
		return 0, fmt.Errorf("relink binding output %q failed", output)
	}
	return id, glgl.Err()
}

func (nativeGL) DeleteProgram(program uint32) { gl.DeleteProgram(program) }
func (nativeGL) UseProgram(program uint32)    { gl.UseProgram(program) }

func (nativeGL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (nativeGL) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (nativeGL) Uniform1i(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (nativeGL) Uniformfv(loc int32, components int, v []float32) {
	count := int32(len(v) / components)
	switch components {
	case 1:
		gl.Uniform1fv(loc, count, &v[0])
	case 2:
		gl.Uniform2fv(loc, count, &v[0])
	case 3:
		gl.Uniform3fv(loc, count, &v[0])
	case 4:
		gl.Uniform4fv(loc, count, &v[0])
	}
}

func (nativeGL) UniformMatrixfv(loc int32, dim int, v []float32) {
	count := int32(len(v) / (dim * dim))
	switch dim {
	case 2:
		gl.UniformMatrix2fv(loc, count, true, &v[0])
	case 3:
		gl.UniformMatrix3fv(loc, count, true, &v[0])
	case 4:
		gl.UniformMatrix4fv(loc, count, true, &v[0])
	}
}

func capability(c Capability) uint32 {
	if c == CapBlend {
		return gl.BLEND
	}
	return gl.DEPTH_TEST
}

func (nativeGL) Enable(c Capability)  { gl.Enable(capability(c)) }
func (nativeGL) Disable(c Capability) { gl.Disable(capability(c)) }

func blendFactor(f BlendFactor) uint32 {
	if f == BlendSrcAlpha {
		return gl.SRC_ALPHA
	}
	return gl.ONE_MINUS_SRC_ALPHA
}

func (nativeGL) BlendFunc(src, dst BlendFactor) { gl.BlendFunc(blendFactor(src), blendFactor(dst)) }

func textureTarget(t TextureTarget) uint32 {
	if t == TextureCubeMap {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func (nativeGL) CreateTexture(target TextureTarget, width, height int, faces [][]byte) (uint32, error) {
	want := 1
	if target == TextureCubeMap {
		want = 6
	}
	if len(faces) != want {
		return 0, fmt.Errorf("%d faces for texture target, want %d", len(faces), want)
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	tgt := textureTarget(target)
	gl.BindTexture(tgt, tex)
	gl.TexParameteri(tgt, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(tgt, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(tgt, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(tgt, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	for i, pix := range faces {
		face := tgt
		if target == TextureCubeMap {
			face = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(i)
		}
		gl.TexImage2D(face, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	}
	gl.BindTexture(tgt, 0)
	return tex, glgl.Err()
}

func (nativeGL) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (nativeGL) BindTexture(unit int, target TextureTarget, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(textureTarget(target), texture)
}

func (nativeGL) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (nativeGL) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }
func (nativeGL) BindVertexArray(vao uint32)   { gl.BindVertexArray(vao) }

func (nativeGL) CreateBuffer(target BufferTarget, data any) (uint32, error) {
	var size int
	switch d := data.(type) {
	case []float32:
		size = 4 * len(d)
	case []uint16:
		size = 2 * len(d)
	case []uint32:
		size = 4 * len(d)
	default:
		return 0, fmt.Errorf("unsupported buffer data %T", data)
	}
	if size == 0 {
		return 0, fmt.Errorf("empty buffer")
	}
	tgt := uint32(gl.ARRAY_BUFFER)
	if target == ElementArrayBuffer {
		tgt = gl.ELEMENT_ARRAY_BUFFER
	}
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(tgt, buf)
	gl.BufferData(tgt, size, gl.Ptr(data), gl.STATIC_DRAW)
	return buf, glgl.Err()
}

func (nativeGL) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (nativeGL) VertexAttrib(loc uint32, components int, buffer uint32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.VertexAttribPointer(loc, int32(components), gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(loc)
}

func (nativeGL) DrawArrays(count int) { gl.DrawArrays(gl.TRIANGLES, 0, int32(count)) }

func (nativeGL) DrawElements(count int, typ IndexType, indexBuffer uint32) {
	xtype := uint32(gl.UNSIGNED_SHORT)
	if typ == IndexUint32 {
		xtype = gl.UNSIGNED_INT
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, indexBuffer)
	gl.DrawElements(gl.TRIANGLES, int32(count), xtype, gl.PtrOffset(0))
}

func (nativeGL) Viewport(width, height int) { gl.Viewport(0, 0, int32(width), int32(height)) }

func (nativeGL) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (nativeGL) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT) }

func (nativeGL) Err() error { return glgl.Err() }
