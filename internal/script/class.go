package script

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// ForeignFn implements a foreign method. Returning an error raises it in the
// calling script as a foreign error.
type ForeignFn func(c *Context) error

// ConstructFn builds the native value of a new foreign instance.
type ConstructFn func(c *Context) (any, error)

type binding struct {
	kind      declKind
	symbol    FnSymbol
	mutable   bool
	fn        ForeignFn
	construct ConstructFn
}

func declKey(kind declKind, sig string) string {
	switch kind {
	case declConstruct:
		return "construct " + sig
	case declStatic:
		return "static " + sig
	default:
		return sig
	}
}

// ModuleBuilder collects the foreign classes a module may declare.
type ModuleBuilder struct {
	name    string
	classes map[string]*ClassBuilder
}

// Module returns the builder for module name, creating it on first use.
func (vm *VM) Module(name string) *ModuleBuilder {
	if m, ok := vm.modules[name]; ok {
		return m
	}
	m := &ModuleBuilder{name: name, classes: make(map[string]*ClassBuilder)}
	vm.modules[name] = m
	return m
}

// Class returns the builder for class name, creating it on first use.
func (m *ModuleBuilder) Class(name string) *ClassBuilder {
	if c, ok := m.classes[name]; ok {
		return c
	}
	c := &ClassBuilder{module: m.name, name: name, bindings: make(map[string]*binding)}
	m.classes[name] = c
	return c
}

// ClassBuilder registers the native side of one foreign class. Signatures use
// the "name(_,_)" form; each one must be matched by a declaration in the
// module's script source.
type ClassBuilder struct {
	module, name string
	bindings     map[string]*binding
}

func (c *ClassBuilder) add(kind declKind, sig string, b *binding) *ClassBuilder {
	sym := MustParseSignature(sig)
	if sym.Kind != MethodSymbol {
		panic(fmt.Sprintf("script: foreign signature %q of %s needs a parameter list", sig, c.name))
	}
	b.kind, b.symbol = kind, sym
	c.bindings[declKey(kind, sym.Signature)] = b
	return c
}

// Construct registers a constructor, called on the class: Class.new(...).
func (c *ClassBuilder) Construct(sig string, fn ConstructFn) *ClassBuilder {
	return c.add(declConstruct, sig, &binding{construct: fn})
}

// Method registers an instance method holding a shared borrow of the receiver.
func (c *ClassBuilder) Method(sig string, fn ForeignFn) *ClassBuilder {
	return c.add(declMethod, sig, &binding{fn: fn})
}

// MutMethod registers an instance method holding the exclusive borrow of the
// receiver.
func (c *ClassBuilder) MutMethod(sig string, fn ForeignFn) *ClassBuilder {
	return c.add(declMethod, sig, &binding{fn: fn, mutable: true})
}

// Static registers a function called on the class itself.
func (c *ClassBuilder) Static(sig string, fn ForeignFn) *ClassBuilder {
	return c.add(declStatic, sig, &binding{fn: fn})
}

// Declarations lists the declarations a script must make for this class, in
// a stable order.
func (c *ClassBuilder) Declarations() []string {
	out := make([]string, 0, len(c.bindings))
	for key := range c.bindings {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

type foreignClass struct {
	module, name string
	table        *lua.LTable
	meta         *lua.LTable
	methods      map[string]map[int]*binding
	statics      map[string]map[int]*binding
}

func classKey(module, name string) string { return module + "::" + name }

func (cls *foreignClass) owns(v lua.LValue) (*lua.LUserData, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok || ud.Metatable != lua.LValue(cls.meta) {
		return nil, false
	}
	return ud, true
}

func (vm *VM) luaForeignClass(module string) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		decls := L.CheckTable(2)
		cls, err := vm.bindClass(module, name, decls)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(cls.table)
		return 1
	}
}

// bindClass matches a script declaration list against the registered natives.
func (vm *VM) bindClass(module, name string, decls *lua.LTable) (*foreignClass, error) {
	if cls, ok := vm.classes[classKey(module, name)]; ok {
		return cls, nil
	}
	mb, ok := vm.modules[module]
	if !ok {
		return nil, fmt.Errorf("module '%s' has no foreign classes", module)
	}
	cb, ok := mb.classes[name]
	if !ok {
		return nil, fmt.Errorf("could not find foreign class %s in module '%s'", name, module)
	}

	L := vm.L
	cls := &foreignClass{
		module:  module,
		name:    name,
		table:   L.NewTable(),
		meta:    L.NewTable(),
		methods: make(map[string]map[int]*binding),
		statics: make(map[string]map[int]*binding),
	}
	for i := 1; i <= decls.Len(); i++ {
		decl, ok := decls.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, fmt.Errorf("declaration %d of class %s is not a string", i, name)
		}
		kind, sym, err := parseDecl(string(decl))
		if err != nil {
			return nil, err
		}
		b, ok := cb.bindings[declKey(kind, sym.Signature)]
		if !ok {
			return nil, fmt.Errorf("could not find foreign method '%s' for class %s in module '%s'", decl, name, module)
		}
		target := cls.statics
		if kind == declMethod {
			target = cls.methods
		}
		if target[sym.Name] == nil {
			target[sym.Name] = make(map[int]*binding)
		}
		target[sym.Name][sym.Arity] = b
	}

	for fname := range cls.methods {
		cls.table.RawSetString(fname, L.NewFunction(vm.dispatch(cls, fname)))
	}
	for fname := range cls.statics {
		cls.table.RawSetString(fname, L.NewFunction(vm.dispatch(cls, fname)))
	}
	cls.meta.RawSetString("__index", cls.table)
	cls.meta.RawSetString("__name", lua.LString(name))
	cls.meta.RawSetString("__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		L.Push(lua.LString(describeInstance(cls.name, ud)))
		return 1
	}))
	vm.classes[classKey(module, name)] = cls
	return cls, nil
}

func describeInstance(class string, ud *lua.LUserData) string {
	cell, ok := ud.Value.(*Cell)
	if !ok {
		return class
	}
	v, release, err := cell.Borrow()
	if err != nil {
		return class
	}
	defer release()
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return class + " instance"
}

// dispatch selects the overload of name matching the call's arity. A call
// whose first argument is an instance of cls goes to instance methods.
func (vm *VM) dispatch(cls *foreignClass, name string) lua.LGFunction {
	return func(L *lua.LState) int {
		top := L.GetTop()
		if ud, ok := cls.owns(L.Get(1)); ok {
			if b, ok := cls.methods[name][top-1]; ok {
				return vm.invoke(L, cls, b, ud, top-1)
			}
		}
		if b, ok := cls.statics[name][top]; ok {
			return vm.invoke(L, cls, b, nil, top)
		}
		L.RaiseError("%s does not implement '%s' with %d argument(s)", cls.name, name, arity(cls, name, L.Get(1), top))
		return 0
	}
}

func arity(cls *foreignClass, name string, first lua.LValue, top int) int {
	if _, ok := cls.owns(first); ok && cls.methods[name] != nil {
		return top - 1
	}
	return top
}

func (vm *VM) invoke(L *lua.LState, cls *foreignClass, b *binding, self *lua.LUserData, argc int) int {
	c := &Context{vm: vm, L: L, class: cls, argc: argc, first: 1}
	if self != nil {
		c.first = 2
		cell := self.Value.(*Cell)
		var (
			release func()
			err     error
		)
		if b.mutable {
			c.self, release, err = cell.BorrowMut()
		} else {
			c.self, release, err = cell.Borrow()
		}
		if err != nil {
			vm.raise(L, err)
			return 0
		}
		defer release()
		c.cell = cell
	}

	if b.kind == declConstruct {
		v, err := b.construct(c)
		if err != nil {
			vm.raise(L, err)
			return 0
		}
		L.Push(vm.wrap(cls, v))
		return 1
	}
	if err := b.fn(c); err != nil {
		vm.raise(L, err)
		return 0
	}
	for _, v := range c.results {
		L.Push(v)
	}
	return len(c.results)
}

func (vm *VM) wrap(cls *foreignClass, v any) *lua.LUserData {
	ud := vm.L.NewUserData()
	ud.Value = NewCell(cls.name, v)
	ud.Metatable = cls.meta
	return ud
}

// NewInstance wraps v as an instance of a foreign class that a loaded module
// has declared.
func (vm *VM) NewInstance(module, class string, v any) (*lua.LUserData, error) {
	cls, ok := vm.classes[classKey(module, class)]
	if !ok {
		return nil, fmt.Errorf("%w: %s in module '%s'", ErrClassNotLoaded, class, module)
	}
	return vm.wrap(cls, v), nil
}

// CellOf returns the cell behind a foreign instance value.
func CellOf(v lua.LValue) (*Cell, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	cell, ok := ud.Value.(*Cell)
	return cell, ok
}
