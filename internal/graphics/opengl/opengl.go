// Package opengl implements graphics.Backend on an OpenGL 4.1 core context.
// Every call must be made from the thread the context is current on.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"gers/internal/graphics"
)

type uniforms struct {
	canvas, matrix, texture int32
}

// Backend issues OpenGL calls.
type Backend struct {
	uniforms map[uint32]uniforms
}

var _ graphics.Backend = (*Backend)(nil)

// New loads the OpenGL function pointers of the current context.
func New() (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	// Counter-clockwise winding; sprites may be flipped so nothing is culled.
	gl.FrontFace(gl.CCW)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return &Backend{uniforms: make(map[uint32]uniforms)}, nil
}

func (b *Backend) Extensions() []string {
	var n, major int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	exts := make([]string, 0, n+1)
	for i := int32(0); i < n; i++ {
		exts = append(exts, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	// Non power of two textures are core since OpenGL 2.0 and core
	// profiles stop advertising the extension.
	if major >= 2 {
		exts = append(exts, graphics.NPOTExtension)
	}
	return exts
}

func (b *Backend) Info() graphics.Info {
	return graphics.Info{
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
	}
}

func (b *Backend) GetError() uint32 { return gl.GetError() }

// saveTexture returns a func restoring the current 2D texture binding, so
// editing a texture does not disturb whatever is bound for drawing.
func saveTexture() func() {
	var prev int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &prev)
	return func() { gl.BindTexture(gl.TEXTURE_2D, uint32(prev)) }
}

func (b *Backend) CreateTexture(width, height int32) uint32 {
	defer saveTexture()()
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return tex
}

func (b *Backend) UploadTexture(tex uint32, x, y, width, height int32, pixels []byte) {
	defer saveTexture()()
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (b *Backend) DeleteTexture(tex uint32) { gl.DeleteTextures(1, &tex) }

func (b *Backend) CompileShader(stage graphics.ShaderStage, source string) (uint32, string, bool) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == graphics.FragmentStage {
		kind = gl.FRAGMENT_SHADER
	}
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return shader, strings.TrimRight(log, "\x00"), false
	}
	return shader, "", true
}

func (b *Backend) LinkProgram(shaders ...uint32) (uint32, string, bool) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return program, strings.TrimRight(log, "\x00"), false
	}
	b.uniforms[program] = uniforms{
		canvas:  gl.GetUniformLocation(program, gl.Str(graphics.UniformCanvas+"\x00")),
		matrix:  gl.GetUniformLocation(program, gl.Str(graphics.UniformMatrix+"\x00")),
		texture: gl.GetUniformLocation(program, gl.Str(graphics.UniformTexture+"\x00")),
	}
	return program, "", true
}

func (b *Backend) DetachShader(program, shader uint32) { gl.DetachShader(program, shader) }

func (b *Backend) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (b *Backend) DeleteProgram(program uint32) {
	delete(b.uniforms, program)
	gl.DeleteProgram(program)
}

const (
	positionLoc = 0
	uvLoc       = 1
	colorLoc    = 2
)

func usageHint(u graphics.Usage) uint32 {
	hints := [3][3]uint32{
		graphics.Stream:  {graphics.Draw: gl.STREAM_DRAW, graphics.Read: gl.STREAM_READ, graphics.Copy: gl.STREAM_COPY},
		graphics.Static:  {graphics.Draw: gl.STATIC_DRAW, graphics.Read: gl.STATIC_READ, graphics.Copy: gl.STATIC_COPY},
		graphics.Dynamic: {graphics.Draw: gl.DYNAMIC_DRAW, graphics.Read: gl.DYNAMIC_READ, graphics.Copy: gl.DYNAMIC_COPY},
	}
	return hints[u.Frequency][u.Nature]
}

var vertexStride = int32(unsafe.Sizeof(graphics.Vertex{}))

func (b *Backend) CreateVertexArray(vertices []graphics.Vertex, indices []uint16, usage graphics.Usage) (vao, vbo, ibo uint32) {
	hint := usageHint(usage)
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*int(vertexStride), ptr(vertices), hint)

	var v graphics.Vertex
	gl.EnableVertexAttribArray(positionLoc)
	gl.VertexAttribPointer(positionLoc, 2, gl.FLOAT, false, vertexStride, gl.PtrOffset(int(unsafe.Offsetof(v.Position))))
	gl.EnableVertexAttribArray(uvLoc)
	gl.VertexAttribPointer(uvLoc, 2, gl.FLOAT, false, vertexStride, gl.PtrOffset(int(unsafe.Offsetof(v.UV))))
	gl.EnableVertexAttribArray(colorLoc)
	gl.VertexAttribPointer(colorLoc, 4, gl.FLOAT, false, vertexStride, gl.PtrOffset(int(unsafe.Offsetof(v.Color))))

	gl.GenBuffers(1, &ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, ptr(indices), hint)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return vao, vbo, ibo
}

func (b *Backend) UpdateVertexArray(vao, vbo, ibo uint32, vertices []graphics.Vertex, indices []uint16) {
	gl.BindVertexArray(vao)
	if len(vertices) > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*int(vertexStride), gl.Ptr(vertices))
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	}
	if len(indices) > 0 {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ibo)
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, len(indices)*2, gl.Ptr(indices))
	}
	gl.BindVertexArray(0)
}

func ptr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return gl.Ptr(s)
}

func (b *Backend) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

func (b *Backend) DeleteBuffer(buf uint32) { gl.DeleteBuffers(1, &buf) }

func (b *Backend) Viewport(width, height int32) { gl.Viewport(0, 0, width, height) }

func (b *Backend) Clear(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (b *Backend) Draw(call graphics.DrawCall) {
	u, ok := b.uniforms[call.Program]
	if !ok {
		return
	}
	gl.UseProgram(call.Program)
	gl.Uniform2f(u.canvas, call.Canvas.X(), call.Canvas.Y())
	gl.UniformMatrix4fv(u.matrix, 1, false, &call.Transform[0])
	gl.Uniform1i(u.texture, 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, call.Texture)
	gl.BindVertexArray(call.VertexArray)
	gl.DrawElements(gl.TRIANGLES, call.Count, gl.UNSIGNED_SHORT, gl.PtrOffset(0))

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
}
