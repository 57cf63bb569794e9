package noise

import (
	"math"
	"testing"
)

func TestHash2Deterministic(t *testing.T) {
	first := hash2(10, 20, 42)
	for i := 0; i < 100; i++ {
		if h := hash2(10, 20, 42); h != first {
			t.Fatalf("hash2 not deterministic: %d != %d", h, first)
		}
	}
	if hash2(1, 2, 42) == hash2(2, 1, 42) {
		t.Error("hash2 treats axes as interchangeable")
	}
	if hash2(1, 1, 100) == hash2(1, 1, 200) {
		t.Error("hash2 ignores the seed")
	}
}

func TestValueNoiseRange(t *testing.T) {
	n := NewValueNoise(7)
	for i := 0; i < 500; i++ {
		x, y := float64(i)*0.37, float64(i)*-1.13
		v := n.Sample(x, y)
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Fatalf("Sample(%v, %v) = %v out of [0,1]", x, y, v)
		}
	}
	// Lattice points take the lattice value of the first octave exactly
	// when only one octave is sampled.
	one := &ValueNoise{Seed: 3, Octaves: 1, Persistence: 0.5, Lacunarity: 2}
	if got, want := one.Sample(4, 5), latticeValue(4, 5, 3); got != want {
		t.Fatalf("lattice sample %v, want %v", got, want)
	}
	if (&ValueNoise{}).Sample(1, 1) != 0 {
		t.Fatal("zero octaves should sample 0")
	}
}

func TestValueNoiseFill(t *testing.T) {
	n := NewValueNoise(1)
	grid := n.Fill(4, 3, 8)
	if len(grid) != 12 {
		t.Fatalf("len = %d", len(grid))
	}
	if grid[1*4+2] != float32(n.Sample(2.0/8, 1.0/8)) {
		t.Fatal("Fill is not row major")
	}
}

func TestPoissonDiscSpacing(t *testing.T) {
	opts := DefaultPoissonOptions()
	opts.Seed = 12
	opts.MinDistance = 8
	p, err := NewPoissonDisc(opts)
	if err != nil {
		t.Fatal(err)
	}
	pts := p.Generate()
	if len(pts) < 20 || len(pts)%2 != 0 {
		t.Fatalf("generated %d components", len(pts))
	}
	for i := 0; i < len(pts); i += 2 {
		for j := i + 2; j < len(pts); j += 2 {
			if d := math.Hypot(pts[i]-pts[j], pts[i+1]-pts[j+1]); d <= 8 {
				t.Fatalf("points %d and %d are %v apart", i/2, j/2, d)
			}
		}
	}
	for i := 2; i < len(pts); i += 2 {
		if pts[i] < 10 || pts[i] > 90 || pts[i+1] < 10 || pts[i+1] > 90 {
			t.Fatalf("point (%v, %v) inside the padding", pts[i], pts[i+1])
		}
	}

	again := p.Generate()
	if len(again) != len(pts) || again[len(again)-1] != pts[len(pts)-1] {
		t.Fatal("same seed produced a different point set")
	}
}

func TestPoissonDiscOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*PoissonOptions)
	}{
		{"zero distance", func(o *PoissonOptions) { o.MinDistance = 0 }},
		{"zero width", func(o *PoissonOptions) { o.Width = 0 }},
		{"padding covers area", func(o *PoissonOptions) { o.PadX = 50 }},
	}
	for _, tt := range tests {
		opts := DefaultPoissonOptions()
		tt.modify(&opts)
		if _, err := NewPoissonDisc(opts); err != ErrPoissonOptions {
			t.Errorf("%s: got %v", tt.name, err)
		}
	}
}

func BenchmarkPoissonDisc(b *testing.B) {
	opts := DefaultPoissonOptions()
	opts.MinDistance = 4
	p, err := NewPoissonDisc(opts)
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		p.Generate()
	}
}
