package input

import (
	_ "embed"

	"gers/internal/script"
)

// Module is the script module holding Keyboard, Mouse and Input.
const Module = "gers.input"

// Source is the script source of Module.
//
//go:embed scripts/input.lua
var Source string

// Register binds the Input class. Its statics read s.
func Register(vm *script.VM, s *State) {
	query := func(fn func(Action) bool) script.ForeignFn {
		return func(c *script.Context) error {
			name, err := c.String(0)
			if err != nil {
				return err
			}
			c.ReturnBool(fn(Action(name)))
			return nil
		}
	}
	vm.Module(Module).Class("Input").
		Static("isActive(_)", query(s.IsActive)).
		Static("justPressed(_)", query(s.JustPressed)).
		Static("justReleased(_)", query(s.JustReleased))
}

// Hooks are the pinned calls that feed window events into the script-side
// Keyboard and Mouse tables.
type Hooks struct {
	KeyPress    *script.CallHandle
	KeyRelease  *script.CallHandle
	Char        *script.CallHandle
	ClearKeys   *script.CallHandle
	MousePos    *script.CallHandle
	MouseButton *script.CallHandle
	ClearMouse  *script.CallHandle
}

// Install leaks the Keyboard and Mouse hooks. Module must have been
// interpreted.
func Install(vm *script.VM) (*Hooks, error) {
	h := &Hooks{}
	hooks := []struct {
		variable, sig string
		dst           **script.CallHandle
	}{
		{"Keyboard", "setKeyPress_(_)", &h.KeyPress},
		{"Keyboard", "setKeyRelease_(_)", &h.KeyRelease},
		{"Keyboard", "pushChar_(_)", &h.Char},
		{"Keyboard", "clear_()", &h.ClearKeys},
		{"Mouse", "setPos_(_,_,_,_)", &h.MousePos},
		{"Mouse", "pushButton_(_,_)", &h.MouseButton},
		{"Mouse", "clear_()", &h.ClearMouse},
	}
	err := vm.Enter(func() error {
		for _, hk := range hooks {
			ref, err := vm.CallRef(Module, hk.variable, hk.sig)
			if err != nil {
				return err
			}
			if *hk.dst, err = ref.Leak(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.Release()
		return nil, err
	}
	return h, nil
}

// Release unpins every hook. It is safe on a partially installed set.
func (h *Hooks) Release() {
	for _, hk := range []*script.CallHandle{
		h.KeyPress, h.KeyRelease, h.Char, h.ClearKeys,
		h.MousePos, h.MouseButton, h.ClearMouse,
	} {
		hk.Release()
	}
}

// Clear resets the per-frame edges of Keyboard and Mouse.
func (h *Hooks) Clear() error {
	if _, err := h.ClearKeys.Call(); err != nil {
		return err
	}
	_, err := h.ClearMouse.Call()
	return err
}

// Key forwards a key press or release.
func (h *Hooks) Key(name string, pressed bool) error {
	hk := h.KeyRelease
	if pressed {
		hk = h.KeyPress
	}
	_, err := hk.Call(name)
	return err
}
