package graphics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the layout every vertex array uses: position at location 0,
// texture coordinates at 1 and color at 2.
type Vertex struct {
	Position mgl32.Vec2
	UV       mgl32.Vec2
	Color    mgl32.Vec4
}

// White is the default vertex color.
var White = mgl32.Vec4{1, 1, 1, 1}

func (v Vertex) String() string {
	return fmt.Sprintf("Vertex(pos=%v, uv=%v, color=%v)", v.Position, v.UV, v.Color)
}
