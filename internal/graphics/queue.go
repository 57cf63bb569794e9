package graphics

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ResourceKind tags the GPU object a Destroy message refers to.
type ResourceKind int

const (
	TextureResource ResourceKind = iota
	ShaderResource
	VertexArrayResource
)

func (k ResourceKind) String() string {
	switch k {
	case TextureResource:
		return "texture"
	case ShaderResource:
		return "shader"
	default:
		return "vertex array"
	}
}

// Destroy instructs the device to delete one GPU object. Gen is the
// generation the device stamped on the object when it was created.
type Destroy struct {
	Kind   ResourceKind
	Handle uint32
	Gen    uint64
}

func (m Destroy) String() string {
	return fmt.Sprintf("%s %d (gen %d)", m.Kind, m.Handle, m.Gen)
}

// DestroyQueue is the deferred free list shared between a device and every
// resource it created. Any goroutine may Send; only the device drains it,
// and only while its GPU context is current.
type DestroyQueue struct {
	mu      sync.Mutex
	pending []Destroy
}

// Send enqueues msg. It never fails.
func (q *DestroyQueue) Send(msg Destroy) {
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	q.mu.Unlock()
}

// Drain removes and returns every pending message in FIFO order.
func (q *DestroyQueue) Drain() []Destroy {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func (q *DestroyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// resource is the GPU object behind one or more owners. The last owner to
// let go enqueues its Destroy message.
type resource struct {
	msg   Destroy
	queue *DestroyQueue
	refs  atomic.Int32
}

func newResource(q *DestroyQueue, msg Destroy) *resource {
	r := &resource{msg: msg, queue: q}
	r.refs.Store(1)
	return r
}

func (r *resource) retain() { r.refs.Add(1) }

func (r *resource) release() {
	if r.refs.Add(-1) == 0 {
		r.queue.Send(r.msg)
	}
}
