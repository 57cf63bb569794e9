package noise

import (
	"errors"
	"math"
)

// PoissonOptions configures a PoissonDisc.
type PoissonOptions struct {
	Seed        uint32
	MinDistance uint32
	// Attempts is the number of candidates tried around a sample before
	// it is retired.
	Attempts int
	Width    uint32
	Height   uint32
	PadX     uint32
	PadY     uint32
}

// DefaultPoissonOptions samples a 100x100 area with unit spacing and a
// 10 unit border.
func DefaultPoissonOptions() PoissonOptions {
	return PoissonOptions{
		MinDistance: 1,
		Attempts:    30,
		Width:       100,
		Height:      100,
		PadX:        10,
		PadY:        10,
	}
}

// ErrPoissonOptions reports options that cannot produce a point set.
var ErrPoissonOptions = errors.New("noise: poisson disc needs a positive distance and area, and padding inside the area")

type point [2]int

// PoissonDisc produces blue noise: points no closer than MinDistance to each
// other, filling the area. A background grid of cells one point wide keeps
// the neighbor test local.
type PoissonDisc struct {
	opts     PoissonOptions
	cellSize float64
	gridW    int
	gridH    int
	grid     []int // sample index + 1, 0 when empty
	active   []point
	samples  []point
}

// NewPoissonDisc validates opts and places the first sample.
func NewPoissonDisc(opts PoissonOptions) (*PoissonDisc, error) {
	if opts.MinDistance == 0 || opts.Width == 0 || opts.Height == 0 ||
		2*opts.PadX >= opts.Width || 2*opts.PadY >= opts.Height {
		return nil, ErrPoissonOptions
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultPoissonOptions().Attempts
	}
	// A cell's diagonal is the minimum distance, so a cell holds at most
	// one sample.
	cell := float64(opts.MinDistance) / math.Sqrt2
	p := &PoissonDisc{
		opts:     opts,
		cellSize: cell,
		gridW:    int(math.Ceil(float64(opts.Width)/cell)) + 1,
		gridH:    int(math.Ceil(float64(opts.Height)/cell)) + 1,
	}
	p.grid = make([]int, p.gridW*p.gridH)
	return p, nil
}

func (p *PoissonDisc) cell(pt point) (int, int) {
	return int(float64(pt[0]) / p.cellSize), int(float64(pt[1]) / p.cellSize)
}

func (p *PoissonDisc) insert(pt point) {
	p.samples = append(p.samples, pt)
	p.active = append(p.active, pt)
	cx, cy := p.cell(pt)
	p.grid[cx+cy*p.gridW] = len(p.samples)
}

// candidate returns a point at a random distance between r and 2r from
// src, clamped into the padded area.
func (p *PoissonDisc) candidate(rng *xorshift, src point) point {
	angle := 2 * math.Pi * rng.float64()
	radius := float64(p.opts.MinDistance) * (rng.float64() + 1)
	x := float64(src[0]) + radius*math.Cos(angle)
	y := float64(src[1]) + radius*math.Sin(angle)
	return point{
		int(clamp(x, float64(p.opts.PadX), float64(p.opts.Width-p.opts.PadX))),
		int(clamp(y, float64(p.opts.PadY), float64(p.opts.Height-p.opts.PadY))),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// valid reports whether pt keeps its distance from every sample in the two
// cell neighborhood around it.
func (p *PoissonDisc) valid(pt point) bool {
	cx, cy := p.cell(pt)
	minD := float64(p.opts.MinDistance)
	for y := max(cy-2, 0); y <= min(cy+2, p.gridH-1); y++ {
		for x := max(cx-2, 0); x <= min(cx+2, p.gridW-1); x++ {
			idx := p.grid[x+y*p.gridW]
			if idx == 0 {
				continue
			}
			s := p.samples[idx-1]
			if math.Hypot(float64(s[0]-pt[0]), float64(s[1]-pt[1])) <= minD {
				return false
			}
		}
	}
	return true
}

// Generate runs the sampler to completion and returns the points as
// interleaved x, y pairs. The same options always give the same points.
func (p *PoissonDisc) Generate() []float64 {
	clear(p.grid)
	p.active = p.active[:0]
	p.samples = p.samples[:0]

	rng := newXorshift(p.opts.Seed)
	p.insert(point{
		int(rng.float64() * float64(p.opts.Width)),
		int(rng.float64() * float64(p.opts.Height)),
	})
	for len(p.active) > 0 {
		i := rng.intn(len(p.active))
		src := p.active[i]
		found := false
		for range p.opts.Attempts {
			pt := p.candidate(rng, src)
			if p.valid(pt) {
				p.insert(pt)
				found = true
			}
		}
		if !found {
			p.active = append(p.active[:i], p.active[i+1:]...)
		}
	}

	out := make([]float64, 0, 2*len(p.samples))
	for _, s := range p.samples {
		out = append(out, float64(s[0]), float64(s[1]))
	}
	return out
}
