// Package script embeds the Lua VM the engine is scripted with. It owns the
// bridge between the two heaps: foreign classes whose instances live in the
// script heap, borrow-checked access to them from Go, and pinned call handles
// that let Go invoke script functions every frame.
package script

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Config configures a VM.
type Config struct {
	// Loader resolves modules imported with import("name").
	Loader Loader
	// Output receives print() output.
	Output *log.Logger
}

// TraceKind identifies a lifecycle event reported to a tracer.
type TraceKind int

const (
	TraceHandleCall TraceKind = iota
	TraceHandleRelease
	TraceClose
)

func (k TraceKind) String() string {
	switch k {
	case TraceHandleCall:
		return "call"
	case TraceHandleRelease:
		return "release"
	default:
		return "close"
	}
}

// TraceEvent is reported for every call handle invocation and release and
// when the VM starts closing.
type TraceEvent struct {
	Kind      TraceKind
	Signature string
}

// VM is one script runtime. It must only be used from the goroutine that
// created it.
type VM struct {
	L *lua.LState

	loader  Loader
	out     *log.Logger
	errMeta *lua.LTable
	pinned  *lua.LTable

	modules map[string]*ModuleBuilder
	classes map[string]*foreignClass
	envs    map[string]*lua.LTable
	loaded  map[string]bool
	loading map[string]bool

	handles    map[*CallHandle]struct{}
	nextHandle int

	// depth counts nested protected calls; scope advances each time the
	// outermost call context ends.
	depth int
	scope uint64

	closing bool
	closed  bool
	tracer  func(TraceEvent)
}

// NewVM creates a VM with the base, table, string and math libraries.
func NewVM(cfg Config) *VM {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	out := cfg.Output
	if out == nil {
		out = log.New(os.Stderr, "[lua] ", log.LstdFlags)
	}
	vm := &VM{
		L:       L,
		loader:  cfg.Loader,
		out:     out,
		modules: make(map[string]*ModuleBuilder),
		classes: make(map[string]*foreignClass),
		envs:    make(map[string]*lua.LTable),
		loaded:  make(map[string]bool),
		loading: make(map[string]bool),
		handles: make(map[*CallHandle]struct{}),
	}
	vm.errMeta = vm.newErrorMeta()
	vm.pinned = L.NewTable()
	L.SetGlobal("print", L.NewFunction(vm.luaPrint))
	return vm
}

// SetTracer installs fn to observe call handle traffic. Pass nil to remove.
func (vm *VM) SetTracer(fn func(TraceEvent)) { vm.tracer = fn }

func (vm *VM) trace(kind TraceKind, sig string) {
	if vm.tracer != nil {
		vm.tracer(TraceEvent{Kind: kind, Signature: sig})
	}
}

// Interpret runs source as the body of module. The module's top-level
// variables become visible to Variable and CallRef.
func (vm *VM) Interpret(module, source string) error {
	fn, err := vm.L.Load(strings.NewReader(source), module)
	if err != nil {
		return &Error{Kind: CompileError, Module: module, Message: err.Error()}
	}
	vm.L.SetFEnv(fn, vm.env(module))

	vm.loading[module] = true
	defer delete(vm.loading, module)
	if _, err := vm.call(fn, 0); err != nil {
		if err.Module == "" {
			err.Module = module
		}
		return err
	}
	vm.loaded[module] = true
	return nil
}

// Import loads module through the configured Loader unless it is already
// loaded, and returns its environment table.
func (vm *VM) Import(module string) (*lua.LTable, error) {
	if vm.loaded[module] || vm.loading[module] {
		return vm.envs[module], nil
	}
	if vm.loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, module)
	}
	src, err := vm.loader.Load(module)
	if err != nil {
		return nil, err
	}
	if err := vm.Interpret(module, src); err != nil {
		return nil, err
	}
	return vm.envs[module], nil
}

// Loaded reports whether module has been interpreted successfully.
func (vm *VM) Loaded(module string) bool { return vm.loaded[module] }

// Variable returns a top-level variable of a loaded module.
func (vm *VM) Variable(module, name string) (lua.LValue, error) {
	env, ok := vm.envs[module]
	if !ok {
		return lua.LNil, fmt.Errorf("%w: %s", ErrModuleNotFound, module)
	}
	v := env.RawGetString(name)
	if v == lua.LNil {
		return lua.LNil, fmt.Errorf("%w: %s.%s", ErrUnknownVariable, module, name)
	}
	return v, nil
}

// Enter runs fn as one call context. Call references made inside fn stay
// valid until fn returns; Leak them to keep them longer.
func (vm *VM) Enter(fn func() error) error {
	vm.depth++
	defer vm.leave()
	return fn()
}

func (vm *VM) leave() {
	vm.depth--
	if vm.depth == 0 {
		vm.scope++
	}
}

// LiveHandles returns the number of pinned call handles.
func (vm *VM) LiveHandles() int { return len(vm.handles) }

// Closing reports whether Close has been called.
func (vm *VM) Closing() bool { return vm.closing }

// Close tears the runtime down. Every call handle must have been released;
// closing with pinned handles is a lifetime violation and panics.
func (vm *VM) Close() {
	if vm.closed {
		return
	}
	vm.closing = true
	vm.trace(TraceClose, "")
	if n := len(vm.handles); n > 0 {
		sigs := make([]string, 0, n)
		for h := range vm.handles {
			sigs = append(sigs, h.ref.symbol.Signature)
		}
		sort.Strings(sigs)
		panic(fmt.Sprintf("script: VM closed with %d live call handle(s): %s", n, strings.Join(sigs, ", ")))
	}
	vm.L.Close()
	vm.closed = true
}

// call runs fn in protected mode, collecting the script stack on failure.
func (vm *VM) call(fn lua.LValue, nret int, args ...lua.LValue) ([]lua.LValue, *Error) {
	vm.depth++
	defer vm.leave()

	L := vm.L
	var frames []Frame
	var handler *lua.LFunction
	handler = L.NewFunction(func(L *lua.LState) int {
		frames = captureFrames(L, handler)
		L.Push(L.Get(1))
		return 1
	})

	top := L.GetTop()
	err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true, Handler: handler}, args...)
	if err != nil {
		return nil, wrapError(err, frames)
	}
	n := L.GetTop() - top
	rets := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		rets[i] = L.Get(top + i + 1)
	}
	L.Pop(n)
	return rets, nil
}

func captureFrames(L *lua.LState, self *lua.LFunction) []Frame {
	var frames []Frame
	for level := 0; ; level++ {
		dbg, ok := L.GetStack(level)
		if !ok {
			break
		}
		fn, err := L.GetInfo("Slnf", dbg, lua.LNil)
		if err != nil || fn == lua.LValue(self) {
			continue
		}
		frames = append(frames, Frame{
			Module:   dbg.Source,
			Line:     dbg.CurrentLine,
			Function: dbg.Name,
			Foreign:  dbg.What == "G",
		})
	}
	return frames
}

func (vm *VM) env(module string) *lua.LTable {
	if env, ok := vm.envs[module]; ok {
		return env
	}
	L := vm.L
	env := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__index", L.Get(lua.GlobalsIndex))
	L.SetMetatable(env, mt)

	api := L.NewTable()
	api.RawSetString("class", L.NewFunction(vm.luaForeignClass(module)))
	env.RawSetString("foreign", api)
	env.RawSetString("import", L.NewFunction(vm.luaImport))
	env.RawSetString("_MODULE", lua.LString(module))
	vm.envs[module] = env
	return env
}

func (vm *VM) luaImport(L *lua.LState) int {
	name := L.CheckString(1)
	env, err := vm.Import(name)
	if err != nil {
		L.RaiseError("import %s: %s", name, err.Error())
		return 0
	}
	L.Push(env)
	return 1
}

func (vm *VM) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	vm.out.Println(strings.Join(parts, "\t"))
	return 0
}

// protect runs a raw state operation that may raise outside of a protected
// call and converts the raise into an error.
func protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ae, ok := r.(*lua.ApiError); ok {
				err = wrapError(ae, nil)
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}
