package graphics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"gers/internal/graphics"
)

func TestSpriteBatchDrawCalls(t *testing.T) {
	d, b := newDevice(t)
	shader, _ := graphics.NewSpriteShader(d)
	red, _ := graphics.NewTextureFromColor(d, 1, 0, 0, 1)
	blue, _ := graphics.NewTextureFromColor(d, 0, 0, 1, 1)
	batch, err := graphics.NewSpriteBatch(d)
	if err != nil {
		t.Fatal(err)
	}
	defer batch.Release()

	tests := []struct {
		name    string
		sprites []*graphics.Texture
		counts  []int32
	}{
		{"same texture", []*graphics.Texture{red, red, red}, []int32{18}},
		{"texture switch", []*graphics.Texture{red, red, blue}, []int32{12, 6}},
		{"alternating", []*graphics.Texture{red, blue, red}, []int32{6, 6, 6}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.Draws = nil
			for i, tex := range tt.sprites {
				batch.Add(float32(i*10), 0, 8, 8, tex, graphics.Identity())
			}
			calls, err := batch.Draw(shader, graphics.Identity())
			if err != nil {
				t.Fatal(err)
			}
			if calls != len(tt.counts) || len(b.Draws) != len(tt.counts) {
				t.Fatalf("calls = %d, draws = %d, want %d", calls, len(b.Draws), len(tt.counts))
			}
			for i, want := range tt.counts {
				if b.Draws[i].Count != want {
					t.Errorf("draw %d count = %d, want %d", i, b.Draws[i].Count, want)
				}
			}
			if batch.Len() != 0 {
				t.Fatalf("batch holds %d sprites after Draw", batch.Len())
			}
		})
	}
}

func TestSpriteBatchSplitsAtBatchSize(t *testing.T) {
	d, b := newDevice(t)
	shader, _ := graphics.NewSpriteShader(d)
	tex, _ := graphics.NewTextureFromColor(d, 1, 1, 1, 1)
	batch, _ := graphics.NewSpriteBatch(d)
	defer batch.Release()

	for i := 0; i < graphics.BatchSize+1; i++ {
		batch.Add(0, 0, 1, 1, tex, graphics.Identity())
	}
	calls, err := batch.Draw(shader, graphics.Identity())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if b.Draws[0].Count != graphics.BatchSize*6 || b.Draws[1].Count != 6 {
		t.Fatalf("counts %d, %d", b.Draws[0].Count, b.Draws[1].Count)
	}
}

func TestSpriteBatchGeometry(t *testing.T) {
	d, b := newDevice(t)
	shader, _ := graphics.NewSpriteShader(d)
	tex, _ := graphics.NewTexture(d, 4, 4)
	half, _ := tex.Sub(graphics.Rect{X: 2, W: 2, H: 4})
	batch, _ := graphics.NewSpriteBatch(d)
	defer batch.Release()

	batch.Add(0, 0, 1, 1, tex, graphics.Identity())
	moved := graphics.Identity()
	moved.Pos = mgl32.Vec2{10, 20}
	batch.Add(0, 0, 2, 3, half, moved)
	if _, err := batch.Draw(shader, graphics.Identity()); err != nil {
		t.Fatal(err)
	}

	_, vbo, ibo := batch.VAO().Buffers()
	indices := b.Indices(ibo)
	want := []uint16{4, 5, 6, 4, 6, 7}
	for i, w := range want {
		if indices[6+i] != w {
			t.Fatalf("second quad indices %v, want %v", indices[6:12], want)
		}
	}

	v := b.Vertices(vbo)[4:8]
	corners := []mgl32.Vec2{{10, 20}, {12, 20}, {12, 23}, {10, 23}}
	for i, c := range corners {
		if !v[i].Position.ApproxEqual(c) {
			t.Errorf("vertex %d at %v, want %v", i, v[i].Position, c)
		}
	}
	if v[0].UV != (mgl32.Vec2{0.5, 0}) || v[2].UV != (mgl32.Vec2{1, 1}) {
		t.Errorf("uv %v..%v", v[0].UV, v[2].UV)
	}
}

func TestSpriteBatchKeepsTexturesUntilDraw(t *testing.T) {
	d, _ := newDevice(t)
	shader, _ := graphics.NewSpriteShader(d)
	tex, _ := graphics.NewTexture(d, 2, 2)
	batch, _ := graphics.NewSpriteBatch(d)
	defer batch.Release()

	batch.Add(0, 0, 2, 2, tex, graphics.Identity())
	tex.Release()
	if d.Pending() != 0 {
		t.Fatal("queued texture destroyed before the batch was drawn")
	}
	if _, err := batch.Draw(shader, graphics.Identity()); err != nil {
		t.Fatal(err)
	}
	if d.Pending() != 1 {
		t.Fatalf("pending = %d after Draw", d.Pending())
	}

	batch.Add(0, 0, 2, 2, tex, graphics.Identity())
	if batch.Len() != 0 {
		t.Fatal("released texture was queued")
	}
}
