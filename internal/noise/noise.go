// Package noise generates procedural noise for scripts: octave value noise
// and Poisson disc (blue noise) point sets.
package noise

import "math"

// ValueNoise is deterministic 2D value noise with multiple octaves. Lattice
// values come from an integer hash, so the same seed always yields the same
// field.
type ValueNoise struct {
	Seed        int64
	Octaves     int
	Persistence float64
	Lacunarity  float64
}

// NewValueNoise returns a four octave noise with the usual halving of
// amplitude per octave.
func NewValueNoise(seed int64) *ValueNoise {
	return &ValueNoise{Seed: seed, Octaves: 4, Persistence: 0.5, Lacunarity: 2}
}

// Sample returns the noise value at (x, y), in [0, 1].
func (n *ValueNoise) Sample(x, y float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := range n.Octaves {
		v := valueNoise2D(x*frequency, y*frequency, n.Seed+int64(i*131))
		sum += v * amplitude
		norm += amplitude
		amplitude *= n.Persistence
		frequency *= n.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Fill samples a width by height grid, row major, with lattice spacing
// 1/scale.
func (n *ValueNoise) Fill(width, height int, scale float64) []float32 {
	out := make([]float32, 0, width*height)
	for y := range height {
		for x := range width {
			out = append(out, float32(n.Sample(float64(x)/scale, float64(y)/scale)))
		}
	}
	return out
}

// fade is the smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// hash2 is a SplitMix64 style integer hash, stable across runs.
func hash2(x, y, seed int64) uint64 {
	v := uint64(x) + (uint64(y) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func latticeValue(x, y, seed int64) float64 {
	h := hash2(x, y, seed)
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x, y float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)

	fx := fade(x - x0)
	fy := fade(y - y0)

	ix, iy := int64(x0), int64(y0)
	v00 := latticeValue(ix, iy, seed)
	v10 := latticeValue(ix+1, iy, seed)
	v01 := latticeValue(ix, iy+1, seed)
	v11 := latticeValue(ix+1, iy+1, seed)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fy)
}
