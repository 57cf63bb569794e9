package graphics

import (
	_ "embed"
	"fmt"
)

var (
	//go:embed shaders/sprite.vert
	spriteVert string
	//go:embed shaders/sprite.frag
	spriteFrag string
)

// Uniform names the sprite shader and every shader drawn through a Device
// must declare.
const (
	UniformCanvas  = "u_canvas"
	UniformMatrix  = "u_matrix"
	UniformTexture = "u_texture"
)

// Shader is a linked GPU program.
type Shader struct {
	owner
	program uint32
}

// NewShader compiles and links a program from vertex and fragment source.
// The stage objects are deleted whether or not linking succeeds.
func NewShader(d *Device, vertexSrc, fragmentSrc string) (*Shader, error) {
	b := d.backend
	vs, log, ok := b.CompileShader(VertexStage, vertexSrc)
	if !ok {
		b.DeleteShader(vs)
		return nil, &ShaderCompileError{Stage: VertexStage, Log: log}
	}
	fs, log, ok := b.CompileShader(FragmentStage, fragmentSrc)
	if !ok {
		b.DeleteShader(vs)
		b.DeleteShader(fs)
		return nil, &ShaderCompileError{Stage: FragmentStage, Log: log}
	}

	program, log, ok := b.LinkProgram(vs, fs)
	for _, s := range []uint32{vs, fs} {
		b.DetachShader(program, s)
		b.DeleteShader(s)
	}
	if !ok {
		b.DeleteProgram(program)
		return nil, &ShaderCompileError{Stage: LinkStage, Log: log}
	}
	if err := d.glResult("link program"); err != nil {
		b.DeleteProgram(program)
		return nil, err
	}

	s := &Shader{program: program}
	own(s, &s.owner, newResource(d.queue, d.track(ShaderResource, program)))
	return s, nil
}

// NewSpriteShader builds the default textured sprite program.
func NewSpriteShader(d *Device) (*Shader, error) {
	return NewShader(d, spriteVert, spriteFrag)
}

// Program returns the raw GPU handle.
func (s *Shader) Program() uint32 { return s.program }

func (s *Shader) String() string { return fmt.Sprintf("Shader(%d)", s.program) }
