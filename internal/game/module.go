package game

import (
	_ "embed"
	"errors"
	"fmt"
	"log"

	lua "github.com/yuin/gopher-lua"

	"gers/internal/collections"
	"gers/internal/graphics"
	"gers/internal/input"
	"gers/internal/noise"
	"gers/internal/script"
)

// Module is the script module holding the Game table.
const Module = "gers.game"

// Source is the script source of Module.
//
//go:embed scripts/game.lua
var Source string

// ErrNoHandler is returned when the entry module never called Game.run.
var ErrNoHandler = errors.New("no game handler: the entry module must call Game.run(handler)")

// ScriptModule pairs a builtin script module with the natives it declares.
type ScriptModule struct {
	Name     string
	Source   string
	Register func(vm *script.VM)
}

// VMConfig configures NewVM.
type VMConfig struct {
	// Input is read by the Input foreign class.
	Input *input.State
	// Roots are searched for script modules that are not builtin.
	Roots []string
	// Modules are extra builtins, such as the window configuration.
	Modules []ScriptModule
	Output  *log.Logger
	Log     *log.Logger
	// Trace logs every call handle invocation and release to Log.
	Trace bool
}

// NewVM creates a VM with every engine module registered. Builtin modules
// are interpreted lazily, on first import.
func NewVM(cfg VMConfig) *script.VM {
	if cfg.Input == nil {
		cfg.Input = input.NewState()
	}
	mods := []ScriptModule{
		{collections.Module, collections.Source, collections.Register},
		{graphics.Module, graphics.Source, graphics.Register},
		{graphics.MathModule, graphics.MathSource, nil},
		{input.Module, input.Source, func(vm *script.VM) { input.Register(vm, cfg.Input) }},
		{noise.Module, noise.Source, noise.Register},
		{Module, Source, nil},
	}
	mods = append(mods, cfg.Modules...)

	builtins := script.Builtins{}
	for _, m := range mods {
		builtins[m.Name] = m.Source
	}
	loaders := script.Loaders{builtins}
	if len(cfg.Roots) > 0 {
		loaders = append(loaders, &script.FileLoader{Roots: cfg.Roots, Log: cfg.Log})
	}
	vm := script.NewVM(script.Config{Loader: loaders, Output: cfg.Output})
	for _, m := range mods {
		if m.Register != nil {
			m.Register(vm)
		}
	}
	if cfg.Trace && cfg.Log != nil {
		l := cfg.Log
		vm.SetTracer(func(ev script.TraceEvent) {
			l.Printf("handle %s %s", ev.Kind, ev.Signature)
		})
	}
	return vm
}

// Hooks are the pinned calls on the Game table and the script's handler.
// Init and Draw are nil when the handler does not define them.
type Hooks struct {
	DeltaTime    *script.CallHandle
	Control      *script.CallHandle
	ResetControl *script.CallHandle
	Init         *script.CallHandle
	Update       *script.CallHandle
	Draw         *script.CallHandle
}

// Release unpins every hook.
func (h *Hooks) Release() {
	for _, hk := range []*script.CallHandle{h.DeltaTime, h.Control, h.ResetControl, h.Init, h.Update, h.Draw} {
		hk.Release()
	}
}

func installHooks(vm *script.VM) (*Hooks, error) {
	h := &Hooks{}
	err := vm.Enter(func() error {
		if _, err := vm.Import(Module); err != nil {
			return err
		}
		for sig, dst := range map[string]**script.CallHandle{
			"deltaTime=(_)": &h.DeltaTime,
			"control_":      &h.Control,
			"control_=(_)":  &h.ResetControl,
		} {
			ref, err := vm.CallRef(Module, "Game", sig)
			if err != nil {
				return err
			}
			if *dst, err = ref.Leak(); err != nil {
				return err
			}
		}

		getHandler, err := vm.CallRef(Module, "Game", "handler_")
		if err != nil {
			return err
		}
		handler, err := getHandler.Call()
		if err != nil {
			return err
		}
		if handler == lua.LNil {
			return ErrNoHandler
		}
		for _, hk := range []struct {
			sig      string
			dst      **script.CallHandle
			required bool
		}{
			{"init()", &h.Init, false},
			{"update()", &h.Update, true},
			{"draw()", &h.Draw, false},
		} {
			sym := script.MustParseSignature(hk.sig)
			if !hk.required && !hasField(vm, handler, sym.Name) {
				continue
			}
			ref, err := vm.MakeCallRef(handler, sym)
			if err != nil {
				return fmt.Errorf("game handler: %w", err)
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

func hasField(vm *script.VM, v lua.LValue, name string) bool {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return true
	}
	return vm.L.GetField(tbl, name) != lua.LNil
}
