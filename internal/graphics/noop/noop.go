// Package noop is a graphics.Backend without a GPU. It hands out handles
// the way a driver does, reusing the lowest free number, and records every
// call so tests and headless runs can inspect what would have been drawn.
package noop

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"gers/internal/graphics"
)

type pool struct {
	next uint32
	free []uint32
	live map[uint32]bool
}

func (p *pool) alloc() uint32 {
	if p.live == nil {
		p.live = make(map[uint32]bool)
	}
	var h uint32
	if len(p.free) > 0 {
		slices.Sort(p.free)
		h, p.free = p.free[0], p.free[1:]
	} else {
		p.next++
		h = p.next
	}
	p.live[h] = true
	return h
}

func (p *pool) release(h uint32) bool {
	if !p.live[h] {
		return false
	}
	delete(p.live, h)
	p.free = append(p.free, h)
	return true
}

type texture struct {
	w, h int32
	pix  []byte
}

// Backend records calls instead of issuing them.
type Backend struct {
	// Exts is reported by Extensions.
	Exts []string
	// CompileErrors makes compilation of a stage fail with the given log.
	CompileErrors map[graphics.ShaderStage]string
	// Errors are returned by successive GetError calls.
	Errors []uint32

	Calls []string
	Draws []graphics.DrawCall
	// DoubleDeletes counts deletions of handles that were not live.
	DoubleDeletes int

	textures, shaders, programs, arrays, buffers pool
	pixels                                       map[uint32]*texture
	vertices                                     map[uint32][]graphics.Vertex
	indices                                      map[uint32][]uint16
}

var _ graphics.Backend = (*Backend)(nil)

// New returns a backend reporting NPOT texture support.
func New() *Backend {
	return &Backend{
		Exts:     []string{graphics.NPOTExtension},
		pixels:   make(map[uint32]*texture),
		vertices: make(map[uint32][]graphics.Vertex),
		indices:  make(map[uint32][]uint16),
	}
}

func (b *Backend) record(format string, args ...any) {
	b.Calls = append(b.Calls, fmt.Sprintf(format, args...))
}

func (b *Backend) Extensions() []string { return b.Exts }

func (b *Backend) Info() graphics.Info {
	return graphics.Info{Version: "4.1 (noop)", Vendor: "gers", Renderer: "noop"}
}

func (b *Backend) GetError() uint32 {
	if len(b.Errors) == 0 {
		return 0
	}
	code := b.Errors[0]
	b.Errors = b.Errors[1:]
	return code
}

func (b *Backend) CreateTexture(width, height int32) uint32 {
	h := b.textures.alloc()
	b.pixels[h] = &texture{w: width, h: height, pix: make([]byte, int(width)*int(height)*4)}
	b.record("CreateTexture %d %dx%d", h, width, height)
	return h
}

func (b *Backend) UploadTexture(tex uint32, x, y, width, height int32, pixels []byte) {
	b.record("UploadTexture %d %d,%d %dx%d", tex, x, y, width, height)
	t, ok := b.pixels[tex]
	if !ok {
		return
	}
	row := int(width) * 4
	for j := 0; j < int(height); j++ {
		dst := ((int(y)+j)*int(t.w) + int(x)) * 4
		copy(t.pix[dst:dst+row], pixels[j*row:(j+1)*row])
	}
}

// Pixels returns the RGBA contents of a live texture.
func (b *Backend) Pixels(tex uint32) []byte {
	if t, ok := b.pixels[tex]; ok {
		return t.pix
	}
	return nil
}

func (b *Backend) DeleteTexture(tex uint32) {
	b.record("DeleteTexture %d", tex)
	if !b.textures.release(tex) {
		b.DoubleDeletes++
	}
	delete(b.pixels, tex)
}

func (b *Backend) CompileShader(stage graphics.ShaderStage, source string) (uint32, string, bool) {
	h := b.shaders.alloc()
	b.record("CompileShader %d %s", h, stage)
	if log, ok := b.CompileErrors[stage]; ok {
		return h, log, false
	}
	return h, "", true
}

func (b *Backend) LinkProgram(shaders ...uint32) (uint32, string, bool) {
	h := b.programs.alloc()
	b.record("LinkProgram %d %v", h, shaders)
	if log, ok := b.CompileErrors[graphics.LinkStage]; ok {
		return h, log, false
	}
	return h, "", true
}

func (b *Backend) DetachShader(program, shader uint32) {
	b.record("DetachShader %d %d", program, shader)
}

func (b *Backend) DeleteShader(shader uint32) {
	b.record("DeleteShader %d", shader)
	if !b.shaders.release(shader) {
		b.DoubleDeletes++
	}
}

func (b *Backend) DeleteProgram(program uint32) {
	b.record("DeleteProgram %d", program)
	if !b.programs.release(program) {
		b.DoubleDeletes++
	}
}

func (b *Backend) CreateVertexArray(vertices []graphics.Vertex, indices []uint16, usage graphics.Usage) (uint32, uint32, uint32) {
	vao, vbo, ibo := b.arrays.alloc(), b.buffers.alloc(), b.buffers.alloc()
	b.vertices[vbo] = slices.Clone(vertices)
	b.indices[ibo] = slices.Clone(indices)
	b.record("CreateVertexArray %d %d %d", vao, len(vertices), len(indices))
	return vao, vbo, ibo
}

func (b *Backend) UpdateVertexArray(vao, vbo, ibo uint32, vertices []graphics.Vertex, indices []uint16) {
	b.record("UpdateVertexArray %d %d %d", vao, len(vertices), len(indices))
	copy(b.vertices[vbo], vertices)
	copy(b.indices[ibo], indices)
}

// Vertices returns the contents of a live vertex buffer.
func (b *Backend) Vertices(vbo uint32) []graphics.Vertex { return b.vertices[vbo] }

// Indices returns the contents of a live index buffer.
func (b *Backend) Indices(ibo uint32) []uint16 { return b.indices[ibo] }

func (b *Backend) DeleteVertexArray(vao uint32) {
	b.record("DeleteVertexArray %d", vao)
	if !b.arrays.release(vao) {
		b.DoubleDeletes++
	}
}

func (b *Backend) DeleteBuffer(buf uint32) {
	b.record("DeleteBuffer %d", buf)
	if !b.buffers.release(buf) {
		b.DoubleDeletes++
	}
	delete(b.vertices, buf)
	delete(b.indices, buf)
}

func (b *Backend) Viewport(width, height int32) {
	b.record("Viewport %dx%d", width, height)
}

func (b *Backend) Clear(color mgl32.Vec4) {
	b.record("Clear %v", color)
}

func (b *Backend) Draw(call graphics.DrawCall) {
	b.record("Draw program=%d vao=%d texture=%d count=%d", call.Program, call.VertexArray, call.Texture, call.Count)
	b.Draws = append(b.Draws, call)
}

// Live returns the number of undeleted objects of each kind.
func (b *Backend) Live() (textures, programs, arrays, buffers int) {
	return len(b.textures.live), len(b.programs.live), len(b.arrays.live), len(b.buffers.live)
}
