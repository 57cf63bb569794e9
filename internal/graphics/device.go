// Package graphics owns the GPU resources scripts create: textures, shader
// programs and vertex arrays. Handles never delete their GPU object
// directly; releasing one queues a Destroy message that the Device acts on
// in Maintain, when the GPU context is known to be current.
package graphics

import (
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// NPOTExtension is the driver extension advertising non power of two
// texture support.
const NPOTExtension = "GL_ARB_texture_non_power_of_two"

type resourceKey struct {
	kind   ResourceKind
	handle uint32
}

// Device is the single owner of a GPU context.
type Device struct {
	backend    Backend
	extensions map[string]struct{}
	info       Info
	queue      *DestroyQueue

	// live maps every undeleted GPU object to the generation it was
	// created with; messages carrying another generation are stale.
	live map[resourceKey]uint64
	gen  uint64
	// buffers are the vertex and index buffers owned by each vertex array.
	buffers map[uint32][2]uint32

	width, height uint32
	log           *log.Logger
}

// NewDevice wraps backend. Extensions are queried once, here.
func NewDevice(backend Backend, logger *log.Logger) *Device {
	if logger == nil {
		logger = log.New(os.Stderr, "[gfx] ", log.LstdFlags)
	}
	d := &Device{
		backend:    backend,
		extensions: make(map[string]struct{}),
		info:       backend.Info(),
		queue:      &DestroyQueue{},
		live:       make(map[resourceKey]uint64),
		buffers:    make(map[uint32][2]uint32),
		width:      640,
		height:     480,
		log:        logger,
	}
	for _, ext := range backend.Extensions() {
		d.extensions[ext] = struct{}{}
	}
	d.debugAssertGL("device init")
	return d
}

func (d *Device) HasExtension(name string) bool {
	_, ok := d.extensions[name]
	return ok
}

// NPOTSupported reports whether textures may have non power of two sizes.
func (d *Device) NPOTSupported() bool { return d.HasExtension(NPOTExtension) }

func (d *Device) Info() Info { return d.info }

// SetViewport records the size of the surface draws map to.
func (d *Device) SetViewport(width, height uint32) {
	d.width, d.height = width, height
}

func (d *Device) Viewport() (width, height uint32) { return d.width, d.height }

// Pending returns the number of queued Destroy messages.
func (d *Device) Pending() int { return d.queue.Len() }

// track stamps a freshly created GPU object with a new generation.
func (d *Device) track(kind ResourceKind, handle uint32) Destroy {
	d.gen++
	d.live[resourceKey{kind, handle}] = d.gen
	return Destroy{Kind: kind, Handle: handle, Gen: d.gen}
}

// Maintain deletes every GPU object whose last handle has been released and
// returns how many were deleted. It must be called regularly with the GPU
// context current; objects queued in between stay allocated until then.
func (d *Device) Maintain() int {
	msgs := d.queue.Drain()
	deleted := 0
	for _, msg := range msgs {
		key := resourceKey{msg.Kind, msg.Handle}
		if gen, ok := d.live[key]; !ok || gen != msg.Gen {
			d.log.Printf("skipping stale destroy of %s", msg)
			continue
		}
		delete(d.live, key)
		switch msg.Kind {
		case TextureResource:
			d.backend.DeleteTexture(msg.Handle)
		case ShaderResource:
			d.backend.DeleteProgram(msg.Handle)
		case VertexArrayResource:
			d.backend.DeleteVertexArray(msg.Handle)
			if bufs, ok := d.buffers[msg.Handle]; ok {
				d.backend.DeleteBuffer(bufs[0])
				d.backend.DeleteBuffer(bufs[1])
				delete(d.buffers, msg.Handle)
			}
		}
		deleted++
	}
	if deleted > 0 {
		d.debugAssertGL("maintain")
	}
	return deleted
}

// Clear fills the whole viewport with color.
func (d *Device) Clear(color mgl32.Vec4) {
	d.backend.Viewport(int32(d.width), int32(d.height))
	d.backend.Clear(color)
	d.debugAssertGL("clear")
}

// Draw draws a vertex array with tex and shader.
func (d *Device) Draw(vao *VertexArrayObject, tex *Texture, shader *Shader, transform Transform2D) error {
	for _, o := range []*owner{&vao.owner, &tex.owner, &shader.owner} {
		if err := o.check(); err != nil {
			return err
		}
	}
	d.draw(shader.program, vao.vao, tex.handle, int32(vao.count), transform.Matrix())
	return nil
}

func (d *Device) draw(program, vao, texture uint32, count int32, m mgl32.Mat4) {
	d.backend.Viewport(int32(d.width), int32(d.height))
	d.backend.Draw(DrawCall{
		Program:     program,
		VertexArray: vao,
		Texture:     texture,
		Count:       count,
		Canvas:      mgl32.Vec2{float32(d.width), float32(d.height)},
		Transform:   m,
	})
	d.debugAssertGL("draw")
}

// Close deletes whatever is still queued. Objects with live handles are
// left to the driver, which frees them with the context.
func (d *Device) Close() {
	if n := d.Maintain(); n > 0 {
		d.log.Printf("released %d GPU objects on close", n)
	}
	if len(d.live) > 0 {
		d.log.Printf("%d GPU objects still referenced on close", len(d.live))
	}
}
