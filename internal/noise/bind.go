package noise

import (
	_ "embed"

	"gers/internal/collections"
	"gers/internal/script"
)

// Module is the script module declaring the noise classes.
const Module = "gers.noise"

// Source is the script source of Module.
//
//go:embed scripts/noise.lua
var Source string

// Register binds PoissonDisc and ValueNoise on vm.
func Register(vm *script.VM) {
	m := vm.Module(Module)
	bindPoisson(m.Class("PoissonDisc"))
	bindValueNoise(m.Class("ValueNoise"))
}

func bindPoisson(cb *script.ClassBuilder) {
	cb.Construct("new()", func(c *script.Context) (any, error) {
		return NewPoissonDisc(DefaultPoissonOptions())
	})
	cb.Construct("new(_)", func(c *script.Context) (any, error) {
		opts := DefaultPoissonOptions()
		seed, err := c.Uint32(0)
		if err != nil {
			return nil, err
		}
		opts.Seed = seed
		return NewPoissonDisc(opts)
	})
	cb.Construct("new(_,_,_)", func(c *script.Context) (any, error) {
		opts := DefaultPoissonOptions()
		var err error
		if opts.Seed, err = c.Uint32(0); err != nil {
			return nil, err
		}
		if opts.Width, err = c.Uint32(1); err != nil {
			return nil, err
		}
		if opts.Height, err = c.Uint32(2); err != nil {
			return nil, err
		}
		return NewPoissonDisc(opts)
	})
	cb.Construct("new(_,_,_,_)", func(c *script.Context) (any, error) {
		opts := DefaultPoissonOptions()
		dst := []*uint32{&opts.Seed, &opts.MinDistance, &opts.Width, &opts.Height}
		for i, p := range dst {
			v, err := c.Uint32(i)
			if err != nil {
				return nil, err
			}
			*p = v
		}
		return NewPoissonDisc(opts)
	})
	cb.MutMethod("generate()", func(c *script.Context) error {
		p := c.Self().(*PoissonDisc)
		return c.ReturnInstance(collections.Module, collections.F64Array, collections.NewList(p.Generate()...))
	})
}

func bindValueNoise(cb *script.ClassBuilder) {
	cb.Construct("new(_)", func(c *script.Context) (any, error) {
		seed, err := c.Int(0)
		if err != nil {
			return nil, err
		}
		return NewValueNoise(int64(seed)), nil
	})
	cb.Construct("new(_,_,_,_)", func(c *script.Context) (any, error) {
		seed, err := c.Int(0)
		if err != nil {
			return nil, err
		}
		octaves, err := c.Int(1)
		if err != nil {
			return nil, err
		}
		if octaves < 1 {
			return nil, &script.ArgError{Method: "new(_,_,_,_)", Index: 1, Want: "at least one octave", Got: c.Arg(1).String()}
		}
		persistence, err := c.Number(2)
		if err != nil {
			return nil, err
		}
		lacunarity, err := c.Number(3)
		if err != nil {
			return nil, err
		}
		return &ValueNoise{Seed: int64(seed), Octaves: octaves, Persistence: persistence, Lacunarity: lacunarity}, nil
	})
	cb.Method("sample(_,_)", func(c *script.Context) error {
		x, err := c.Number(0)
		if err != nil {
			return err
		}
		y, err := c.Number(1)
		if err != nil {
			return err
		}
		c.ReturnNumber(c.Self().(*ValueNoise).Sample(x, y))
		return nil
	})
	cb.Method("fill(_,_,_)", func(c *script.Context) error {
		w, err := c.Int(0)
		if err != nil {
			return err
		}
		h, err := c.Int(1)
		if err != nil {
			return err
		}
		scale, err := c.Number(2)
		if err != nil {
			return err
		}
		if w < 0 || h < 0 || scale <= 0 {
			return &script.ArgError{Method: "fill(_,_,_)", Index: 2, Want: "a non-negative size and positive scale", Got: c.Arg(2).String()}
		}
		values := c.Self().(*ValueNoise).Fill(w, h, scale)
		return c.ReturnInstance(collections.Module, collections.F32Array, collections.NewList(values...))
	})
}
