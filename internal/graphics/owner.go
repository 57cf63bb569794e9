package graphics

import (
	"runtime"
	"sync/atomic"
)

// owner is one reference to a resource. Handle types embed it to get an
// idempotent Release; a runtime cleanup releases the reference if the handle
// becomes unreachable first, so a handle dropped by the script heap still
// reaches the destroy queue.
type owner struct {
	res      *resource
	released atomic.Bool
	cleanup  runtime.Cleanup
}

// own attaches res to o, which must be embedded in *T.
func own[T any](handle *T, o *owner, res *resource) {
	o.res = res
	o.cleanup = runtime.AddCleanup(handle, (*resource).release, res)
}

// Release gives up this reference. The GPU object is deleted by the next
// Device.Maintain after its last reference is released. Further calls do
// nothing.
func (o *owner) Release() {
	if o.released.Swap(true) {
		return
	}
	o.cleanup.Stop()
	o.res.release()
}

// Released reports whether Release has been called.
func (o *owner) Released() bool { return o.released.Load() }

func (o *owner) check() error {
	if o.released.Load() {
		return ErrReleased
	}
	return nil
}
