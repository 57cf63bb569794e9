package graphics

import (
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
)

// BatchSize is the number of sprites drawn per draw call.
const BatchSize = 2048

type batchItem struct {
	pos, size mgl32.Vec2
	texture   uint32
	uv        [4]float32
	color     mgl32.Vec4
	matrix    mgl32.Mat4
}

// heldTextures are the texture references a batch keeps until its sprites
// are drawn. It lives outside the batch so a cleanup can release them once
// the batch is unreachable.
type heldTextures struct {
	refs []*resource
}

func (h *heldTextures) releaseAll() {
	for _, r := range h.refs {
		r.release()
	}
	clear(h.refs)
	h.refs = h.refs[:0]
}

// SpriteBatch collects textured quads and draws them in as few calls as
// possible. A new call starts whenever the texture changes or BatchSize
// sprites have been collected.
type SpriteBatch struct {
	device   *Device
	items    []batchItem
	vertices []Vertex
	indices  []uint16
	vao      *VertexArrayObject
	held     *heldTextures
	cleanup  runtime.Cleanup
}

// NewSpriteBatch allocates the batch's vertex array.
func NewSpriteBatch(d *Device) (*SpriteBatch, error) {
	vertices := make([]Vertex, BatchSize*4)
	for i := range vertices {
		vertices[i].Color = White
	}
	indices := make([]uint16, 0, BatchSize*6)
	for i := 0; i < BatchSize; i++ {
		indices = appendQuad(indices, uint16(i*4))
	}
	vao, err := NewVertexArrayObject(d, vertices, indices, Usage{Dynamic, Draw})
	if err != nil {
		return nil, err
	}
	b := &SpriteBatch{
		device:   d,
		items:    make([]batchItem, 0, BatchSize),
		vertices: make([]Vertex, 0, BatchSize*4),
		indices:  make([]uint16, 0, BatchSize*6),
		vao:      vao,
		held:     &heldTextures{},
	}
	b.cleanup = runtime.AddCleanup(b, (*heldTextures).releaseAll, b.held)
	return b, nil
}

func appendQuad(indices []uint16, first uint16) []uint16 {
	return append(indices, first, first+1, first+2, first, first+2, first+3)
}

// Add queues a w by h sprite at (x, y), transformed by t. Released textures
// are ignored.
func (b *SpriteBatch) Add(x, y, w, h float32, tex *Texture, t Transform2D) {
	b.AddTinted(x, y, w, h, tex, White, t)
}

// AddTinted is Add with a vertex color.
func (b *SpriteBatch) AddTinted(x, y, w, h float32, tex *Texture, color mgl32.Vec4, t Transform2D) {
	if tex == nil || tex.Released() {
		return
	}
	tex.res.retain()
	b.held.refs = append(b.held.refs, tex.res)
	b.items = append(b.items, batchItem{
		pos:     mgl32.Vec2{x, y},
		size:    mgl32.Vec2{w, h},
		texture: tex.handle,
		uv:      tex.UV(),
		color:   color,
		matrix:  t.Matrix(),
	})
}

// Len is the number of queued sprites.
func (b *SpriteBatch) Len() int { return len(b.items) }

// Draw draws and clears every queued sprite, returning the number of draw
// calls issued.
func (b *SpriteBatch) Draw(shader *Shader, t Transform2D) (int, error) {
	if err := shader.check(); err != nil {
		return 0, err
	}
	if err := b.vao.check(); err != nil {
		return 0, err
	}
	defer b.reset()

	m := t.Matrix()
	calls := 0
	var last uint32
	count := 0
	for i, item := range b.items {
		if count == BatchSize || (i > 0 && item.texture != last) {
			if err := b.flush(shader, last, m); err != nil {
				return calls, err
			}
			calls++
			count = 0
		}
		last = item.texture

		x, y := item.pos.X(), item.pos.Y()
		w, h := item.size.X(), item.size.Y()
		u0, v0, u1, v1 := item.uv[0], item.uv[1], item.uv[2], item.uv[3]
		b.vertices = append(b.vertices,
			Vertex{Position: transformPoint(item.matrix, mgl32.Vec2{x, y}), UV: mgl32.Vec2{u0, v0}, Color: item.color},
			Vertex{Position: transformPoint(item.matrix, mgl32.Vec2{x + w, y}), UV: mgl32.Vec2{u1, v0}, Color: item.color},
			Vertex{Position: transformPoint(item.matrix, mgl32.Vec2{x + w, y + h}), UV: mgl32.Vec2{u1, v1}, Color: item.color},
			Vertex{Position: transformPoint(item.matrix, mgl32.Vec2{x, y + h}), UV: mgl32.Vec2{u0, v1}, Color: item.color},
		)
		b.indices = appendQuad(b.indices, uint16(count*4))
		count++
	}
	if count > 0 {
		if err := b.flush(shader, last, m); err != nil {
			return calls, err
		}
		calls++
	}
	return calls, nil
}

func (b *SpriteBatch) flush(shader *Shader, texture uint32, m mgl32.Mat4) error {
	defer func() {
		b.vertices = b.vertices[:0]
		b.indices = b.indices[:0]
	}()
	if err := b.vao.Update(b.vertices, b.indices); err != nil {
		return err
	}
	b.device.draw(shader.program, b.vao.vao, texture, int32(len(b.indices)), m)
	return nil
}

func (b *SpriteBatch) reset() {
	b.held.releaseAll()
	b.items = b.items[:0]
	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
}

// Clear drops every queued sprite without drawing.
func (b *SpriteBatch) Clear() { b.reset() }

// Release frees the batch's vertex array and queued texture references.
func (b *SpriteBatch) Release() {
	b.cleanup.Stop()
	b.reset()
	b.vao.Release()
}
