package graphics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform2D positions, scales and rotates geometry around an anchor.
// Rotation is in radians.
type Transform2D struct {
	Pos    mgl32.Vec2
	Anchor mgl32.Vec2
	Scale  mgl32.Vec2
	Rot    float32
}

// Identity returns the transform that leaves geometry unchanged.
func Identity() Transform2D {
	return Transform2D{Scale: mgl32.Vec2{1, 1}}
}

// Matrix returns the transform as a 4x4 matrix: scale and rotate about the
// anchor, then translate by Pos.
func (t Transform2D) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Pos.X()+t.Anchor.X(), t.Pos.Y()+t.Anchor.Y(), 0).
		Mul4(mgl32.HomogRotate3DZ(t.Rot)).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), 1)).
		Mul4(mgl32.Translate3D(-t.Anchor.X(), -t.Anchor.Y(), 0))
}

// Apply transforms a single point.
func (t Transform2D) Apply(p mgl32.Vec2) mgl32.Vec2 {
	return transformPoint(t.Matrix(), p)
}

func transformPoint(m mgl32.Mat4, p mgl32.Vec2) mgl32.Vec2 {
	r := m.Mul4x1(mgl32.Vec4{p.X(), p.Y(), 0, 1})
	return mgl32.Vec2{r.X(), r.Y()}
}

func (t Transform2D) String() string {
	return fmt.Sprintf("Transform2D(pos=%v, anchor=%v, scale=%v, rot=%g)", t.Pos, t.Anchor, t.Scale, t.Rot)
}
