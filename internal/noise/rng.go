package noise

// xorshift is a xorshift128 generator. Seeding spreads a 32 bit seed over
// the whole state so nearby seeds diverge immediately.
type xorshift struct {
	x, y, z, w uint32
}

func newXorshift(seed uint32) *xorshift {
	r := &xorshift{x: 1, y: seed, z: seed, w: seed}
	// Discard the first outputs: they still mirror the seed.
	for range 8 {
		r.next()
	}
	return r
}

func (r *xorshift) next() uint32 {
	t := r.x ^ (r.x << 11)
	r.x, r.y, r.z = r.y, r.z, r.w
	r.w = r.w ^ (r.w >> 19) ^ t ^ (t >> 8)
	return r.w
}

// float64 returns a value in [0, 1).
func (r *xorshift) float64() float64 {
	hi := uint64(r.next()) << 21
	lo := uint64(r.next()) >> 11
	return float64(hi|lo) / (1 << 53)
}

// intn returns a value in [0, n).
func (r *xorshift) intn(n int) int {
	return int(r.next() % uint32(n))
}
