package glrender

import "errors"

// Capability is an OpenGL server-side capability toggled with Enable and Disable.
type Capability uint8

const (
	CapDepthTest Capability = iota + 1
	CapBlend
)

// BlendFactor is a factor of the blending function.
type BlendFactor uint8

const (
	BlendSrcAlpha BlendFactor = iota + 1
	BlendOneMinusSrcAlpha
)

// TextureTarget is the kind of a texture object.
type TextureTarget uint8

const (
	Texture2D TextureTarget = iota + 1
	TextureCubeMap
)

// BufferTarget is the binding point of a buffer object.
type BufferTarget uint8

const (
	ArrayBuffer BufferTarget = iota + 1
	ElementArrayBuffer
)

// IndexType is the element type of an index buffer.
type IndexType uint8

const (
	IndexNone IndexType = iota
	IndexUint16
	IndexUint32
)

// GL is the subset of OpenGL the renderer needs. All methods must be called from
// the goroutine owning the graphics context. Use [Device.Invoke] from anywhere else.
type GL interface {
	// CompileProgram compiles and links a vertex and fragment stage. output is
	// the name of the fragment output bound to color number 0.
	CompileProgram(vertex, fragment, output string) (program uint32, err error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	// UniformLocation and AttribLocation return -1 if the program does not use name.
	UniformLocation(program uint32, name string) int32
	AttribLocation(program uint32, name string) int32

	Uniform1i(loc int32, v int32)
	// Uniformfv uploads a float or vector uniform (or array of them) of components dimension.
	Uniformfv(loc int32, components int, v []float32)
	// UniformMatrixfv uploads row major square matrices of dimension dim.
	UniformMatrixfv(loc int32, dim int, v []float32)

	Enable(c Capability)
	Disable(c Capability)
	BlendFunc(src, dst BlendFactor)

	// CreateTexture uploads RGBA8 pixel data. A cube map takes 6 faces, a 2D texture one.
	CreateTexture(target TextureTarget, width, height int, faces [][]byte) (uint32, error)
	DeleteTexture(texture uint32)
	// BindTexture activates unit and binds texture to it. Texture 0 unbinds.
	BindTexture(unit int, target TextureTarget, texture uint32)

	CreateVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)
	// CreateBuffer uploads data, one of []float32, []uint16 or []uint32.
	CreateBuffer(target BufferTarget, data any) (uint32, error)
	DeleteBuffer(buffer uint32)
	// VertexAttrib binds buffer as float attribute loc of the bound vertex array.
	VertexAttrib(loc uint32, components int, buffer uint32)

	DrawArrays(count int)
	DrawElements(count int, typ IndexType, indexBuffer uint32)

	Viewport(width, height int)
	ClearColor(r, g, b, a float32)
	// Clear clears the color and depth buffers.
	Clear()
	// Err returns the pending OpenGL errors.
	Err() error
}

var errNoCGO = errors.New("native OpenGL requires CGo and is not supported on TinyGo")
