package graphics

import (
	"errors"
	"fmt"
)

// ErrReleased is returned when a released resource is used.
var ErrReleased = errors.New("graphics resource already released")

// InvalidTextureSizeError reports a zero dimension, or a non power of two
// dimension on a device without NPOT support.
type InvalidTextureSizeError struct {
	Width, Height uint32
}

func (e *InvalidTextureSizeError) Error() string {
	return fmt.Sprintf("invalid texture size %dx%d", e.Width, e.Height)
}

// InvalidSubTextureError reports a sub rectangle that does not fit inside its
// source.
type InvalidSubTextureError struct {
	Outer, Inner Rect
}

func (e *InvalidSubTextureError) Error() string {
	return fmt.Sprintf("sub texture %s does not fit inside %s", e.Inner, e.Outer)
}

// InvalidImageDataError reports pixel data whose length is not width*height*4.
type InvalidImageDataError struct {
	Expected, Actual int
}

func (e *InvalidImageDataError) Error() string {
	return fmt.Sprintf("invalid image data: expected %d bytes, got %d", e.Expected, e.Actual)
}

// ShaderStage names the step of program creation that failed.
type ShaderStage int

const (
	VertexStage ShaderStage = iota
	FragmentStage
	LinkStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "link"
	}
}

// ShaderCompileError carries the driver's info log.
type ShaderCompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// GLError is a driver error code observed after an operation.
type GLError struct {
	Code uint32
	Op   string
}

func (e *GLError) Error() string {
	return fmt.Sprintf("OpenGL error 0x%x after %s", e.Code, e.Op)
}

// BufferOverflowError reports an update larger than the buffer it targets.
type BufferOverflowError struct {
	Buffer   string
	Capacity int
	Len      int
}

func (e *BufferOverflowError) Error() string {
	return fmt.Sprintf("%s buffer holds %d elements, got %d", e.Buffer, e.Capacity, e.Len)
}

// glResult checks the driver error flag after op. Checks only run in builds
// tagged gldebug.
func (d *Device) glResult(op string) error {
	if !debugGL {
		return nil
	}
	if code := d.backend.GetError(); code != 0 {
		return &GLError{Code: code, Op: op}
	}
	return nil
}

// debugAssertGL panics on an unexpected driver error in gldebug builds.
func (d *Device) debugAssertGL(op string) {
	if err := d.glResult(op); err != nil {
		panic(err)
	}
}
