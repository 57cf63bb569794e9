package graphics_test

import (
	"errors"
	"testing"

	"gers/internal/graphics"
)

func TestShaderCompileFailures(t *testing.T) {
	tests := []struct {
		stage graphics.ShaderStage
		log   string
	}{
		{graphics.VertexStage, "0:1: syntax error"},
		{graphics.FragmentStage, "0:3: undeclared identifier"},
		{graphics.LinkStage, "missing main"},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			d, b := newDevice(t)
			b.CompileErrors = map[graphics.ShaderStage]string{tt.stage: tt.log}

			s, err := graphics.NewSpriteShader(d)
			var ce *graphics.ShaderCompileError
			if !errors.As(err, &ce) || s != nil {
				t.Fatalf("got %v, %v", s, err)
			}
			if ce.Stage != tt.stage || ce.Log != tt.log {
				t.Fatalf("error %+v", ce)
			}
			if _, programs, _, _ := b.Live(); programs != 0 {
				t.Fatalf("%d programs leaked", programs)
			}
			if d.Pending() != 0 {
				t.Fatalf("failed shader queued %d messages", d.Pending())
			}
			if b.DoubleDeletes != 0 {
				t.Fatalf("%d double deletes", b.DoubleDeletes)
			}
		})
	}
}

func TestShaderStagesDeletedAfterLink(t *testing.T) {
	d, b := newDevice(t)
	s, err := graphics.NewSpriteShader(d)
	if err != nil {
		t.Fatal(err)
	}
	if _, programs, _, _ := b.Live(); programs != 1 {
		t.Fatalf("programs = %d", programs)
	}
	deletes := 0
	for _, c := range b.Calls {
		if len(c) > 12 && c[:12] == "DeleteShader" {
			deletes++
		}
	}
	if deletes != 2 {
		t.Fatalf("%d stage objects deleted, want 2", deletes)
	}

	s.Release()
	d.Maintain()
	if _, programs, _, _ := b.Live(); programs != 0 {
		t.Fatalf("program not deleted by Maintain")
	}
}
