// Package window opens the GLFW window a game runs in and translates its
// callbacks into game events.
package window

import (
	_ "embed"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"gers/internal/config"
	"gers/internal/game"
	"gers/internal/script"
)

// Module is the script module declaring WindowConf.
const Module = "gers.window"

// Source is the script source of Module.
//
//go:embed scripts/window.lua
var Source string

// Conf is the window a game asks for.
type Conf struct {
	Width, Height uint32
	Title         string
}

// DefaultConf is used when the game does not configure its window.
func DefaultConf() Conf {
	return Conf{Width: 512, Height: 512, Title: "Game Engine v" + config.Version}
}

// Override replaces the fields set in f.
func (c Conf) Override(f config.Window) Conf {
	if f.Width > 0 {
		c.Width = f.Width
	}
	if f.Height > 0 {
		c.Height = f.Height
	}
	if f.Title != "" {
		c.Title = f.Title
	}
	return c
}

// ScriptModule returns the builtin module for game.NewVM.
func ScriptModule() game.ScriptModule {
	return game.ScriptModule{Name: Module, Source: Source, Register: Register}
}

// Register binds the WindowConf class.
func Register(vm *script.VM) {
	cb := vm.Module(Module).Class("WindowConf")
	conf := func(c *script.Context) *Conf { return c.Self().(*Conf) }
	cb.Construct("new()", func(c *script.Context) (any, error) {
		d := DefaultConf()
		return &d, nil
	})
	cb.MutMethod("setSize(_,_)", func(c *script.Context) error {
		w, err := c.Uint32(0)
		if err != nil {
			return err
		}
		h, err := c.Uint32(1)
		if err != nil {
			return err
		}
		if w == 0 || h == 0 {
			return &script.ArgError{Method: "setSize(_,_)", Index: 0, Want: "a non-zero size", Got: fmt.Sprintf("%dx%d", w, h)}
		}
		conf(c).Width, conf(c).Height = w, h
		return nil
	})
	cb.MutMethod("setTitle(_)", func(c *script.Context) error {
		t, err := c.String(0)
		if err != nil {
			return err
		}
		conf(c).Title = t
		return nil
	})
	cb.Method("size()", func(c *script.Context) error {
		c.ReturnNumber(float64(conf(c).Width))
		c.ReturnNumber(float64(conf(c).Height))
		return nil
	})
	cb.Method("title()", func(c *script.Context) error {
		c.ReturnString(conf(c).Title)
		return nil
	})
}

// QueryConf calls Bootstrap.window() in module entry. A module without a
// Bootstrap, or whose window() returns nil, gets DefaultConf.
func QueryConf(vm *script.VM, entry string) (Conf, error) {
	conf := DefaultConf()
	err := vm.Enter(func() error {
		ref, err := vm.CallRef(entry, "Bootstrap", "window()")
		if errors.Is(err, script.ErrUnknownVariable) {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := ref.Call()
		if err != nil {
			return err
		}
		if v == lua.LNil {
			return nil
		}
		cell, ok := script.CellOf(v)
		if !ok {
			return fmt.Errorf("Bootstrap.window() returned %s, want a WindowConf", v.Type())
		}
		c, release, err := script.Borrow[*Conf](cell)
		if err != nil {
			return fmt.Errorf("Bootstrap.window(): %w", err)
		}
		defer release()
		conf = *c
		return nil
	})
	return conf, err
}
