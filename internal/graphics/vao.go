package graphics

import "fmt"

// VertexArrayObject is a vertex buffer and a 16-bit index buffer bound
// together. Its capacity is fixed at creation.
type VertexArrayObject struct {
	owner
	device   *Device
	vao      uint32
	vbo, ibo uint32
	usage    Usage

	count       int
	maxVertices int
	maxIndices  int
}

// NewVertexArrayObject uploads vertices and indices with the given usage
// hint.
func NewVertexArrayObject(d *Device, vertices []Vertex, indices []uint16, usage Usage) (*VertexArrayObject, error) {
	vao, vbo, ibo := d.backend.CreateVertexArray(vertices, indices, usage)
	if err := d.glResult("create vertex array"); err != nil {
		d.backend.DeleteVertexArray(vao)
		d.backend.DeleteBuffer(vbo)
		d.backend.DeleteBuffer(ibo)
		return nil, err
	}
	d.buffers[vao] = [2]uint32{vbo, ibo}
	v := &VertexArrayObject{
		device:      d,
		vao:         vao,
		vbo:         vbo,
		ibo:         ibo,
		usage:       usage,
		count:       len(indices),
		maxVertices: len(vertices),
		maxIndices:  len(indices),
	}
	own(v, &v.owner, newResource(d.queue, d.track(VertexArrayResource, vao)))
	return v, nil
}

// Update overwrites the start of both buffers. The number of indices drawn
// becomes len(indices).
func (v *VertexArrayObject) Update(vertices []Vertex, indices []uint16) error {
	if err := v.check(); err != nil {
		return err
	}
	if len(vertices) > v.maxVertices {
		return &BufferOverflowError{Buffer: "vertex", Capacity: v.maxVertices, Len: len(vertices)}
	}
	if len(indices) > v.maxIndices {
		return &BufferOverflowError{Buffer: "index", Capacity: v.maxIndices, Len: len(indices)}
	}
	v.device.backend.UpdateVertexArray(v.vao, v.vbo, v.ibo, vertices, indices)
	v.count = len(indices)
	return v.device.glResult("update vertex array")
}

// Len is the number of indices drawn.
func (v *VertexArrayObject) Len() int { return v.count }

func (v *VertexArrayObject) String() string {
	return fmt.Sprintf("VertexArrayObject(%d, %d indices)", v.vao, v.count)
}
