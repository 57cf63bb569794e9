package graphics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Backend is the GPU driver a Device issues calls to. Implementations are
// not safe for concurrent use and must only be called from the goroutine
// owning the GPU context.
type Backend interface {
	Extensions() []string
	Info() Info
	// GetError returns and clears the driver error flag; 0 means no error.
	GetError() uint32

	CreateTexture(width, height int32) uint32
	UploadTexture(texture uint32, x, y, width, height int32, pixels []byte)
	DeleteTexture(texture uint32)

	// CompileShader returns the shader handle even when compilation fails,
	// together with the driver log.
	CompileShader(stage ShaderStage, source string) (shader uint32, log string, ok bool)
	LinkProgram(shaders ...uint32) (program uint32, log string, ok bool)
	DetachShader(program, shader uint32)
	DeleteShader(shader uint32)
	DeleteProgram(program uint32)

	CreateVertexArray(vertices []Vertex, indices []uint16, usage Usage) (vao, vbo, ibo uint32)
	UpdateVertexArray(vao, vbo, ibo uint32, vertices []Vertex, indices []uint16)
	DeleteVertexArray(vao uint32)
	DeleteBuffer(buffer uint32)

	Viewport(width, height int32)
	Clear(color mgl32.Vec4)
	Draw(call DrawCall)
}

// DrawCall draws Count indices of a vertex array with one texture bound to
// unit 0.
type DrawCall struct {
	Program     uint32
	VertexArray uint32
	Texture     uint32
	Count       int32
	Canvas      mgl32.Vec2
	Transform   mgl32.Mat4
}

// Info describes the graphics driver.
type Info struct {
	Version  string
	Vendor   string
	Renderer string
}

func (i Info) String() string {
	return fmt.Sprintf("OpenGL %s (%s, %s)", i.Version, i.Vendor, i.Renderer)
}

// UsageFrequency hints how often a buffer's contents change.
type UsageFrequency int

const (
	Stream UsageFrequency = iota
	Static
	Dynamic
)

// UsageNature hints how a buffer's contents are accessed.
type UsageNature int

const (
	Draw UsageNature = iota
	Read
	Copy
)

// Usage is the buffer usage hint of a vertex array.
type Usage struct {
	Frequency UsageFrequency
	Nature    UsageNature
}
