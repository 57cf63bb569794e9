package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// CallRef is a call target resolved inside one call context: a receiver and
// a compiled symbol. It stops working when that context ends unless it has
// been leaked into a CallHandle.
type CallRef struct {
	vm       *VM
	scope    uint64
	receiver lua.LValue
	symbol   FnSymbol
	fn       *lua.LFunction
}

// CallRef resolves signature against the module variable named variable.
func (vm *VM) CallRef(module, variable, signature string) (*CallRef, error) {
	recv, err := vm.Variable(module, variable)
	if err != nil {
		return nil, err
	}
	sym, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	return vm.MakeCallRef(recv, sym)
}

// MakeCallRef binds sym to receiver. Method symbols are looked up now, so a
// missing or mismatched method fails here rather than on first call.
func (vm *VM) MakeCallRef(receiver lua.LValue, sym FnSymbol) (*CallRef, error) {
	if vm.closing {
		return nil, fmt.Errorf("%w: VM is closing", ErrUnresolved)
	}
	switch receiver.(type) {
	case *lua.LTable, *lua.LUserData:
	default:
		return nil, fmt.Errorf("%w: %s on a %s receiver", ErrUnresolved, sym.Signature, receiver.Type())
	}
	ref := &CallRef{vm: vm, scope: vm.scope, receiver: receiver, symbol: sym}
	if sym.Kind != MethodSymbol {
		return ref, nil
	}

	var field lua.LValue
	if err := protect(func() { field = vm.L.GetField(receiver, sym.Name) }); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnresolved, sym.Signature, err)
	}
	fn, ok := field.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: receiver has no method %s", ErrUnresolved, sym.Signature)
	}
	if !fn.IsG && fn.Proto.IsVarArg == 0 && int(fn.Proto.NumParameters) != sym.Arity+1 {
		return nil, fmt.Errorf("%w: %s is defined with %d parameter(s) besides self",
			ErrUnresolved, sym.Signature, int(fn.Proto.NumParameters)-1)
	}
	ref.fn = fn
	return ref, nil
}

// Symbol returns the compiled symbol.
func (r *CallRef) Symbol() FnSymbol { return r.symbol }

// Call invokes the reference within the context it was made in.
func (r *CallRef) Call(args ...any) (lua.LValue, error) {
	if r.scope != r.vm.scope {
		return lua.LNil, fmt.Errorf("%w: %s", ErrStaleRef, r.symbol.Signature)
	}
	return r.invoke(args)
}

// Leak pins the reference so it outlives its call context. The returned
// handle must be released before the VM is closed.
func (r *CallRef) Leak() (*CallHandle, error) {
	vm := r.vm
	if r.scope != vm.scope {
		return nil, fmt.Errorf("%w: %s", ErrStaleRef, r.symbol.Signature)
	}
	vm.nextHandle++
	h := &CallHandle{ref: *r, id: vm.nextHandle}
	pin := vm.L.NewTable()
	pin.RawSetInt(1, r.receiver)
	if r.fn != nil {
		pin.RawSetInt(2, r.fn)
	}
	vm.pinned.RawSetInt(h.id, pin)
	vm.handles[h] = struct{}{}
	return h, nil
}

func (r *CallRef) invoke(args []any) (lua.LValue, error) {
	sym := r.symbol
	if len(args) != sym.Arity {
		return lua.LNil, fmt.Errorf("%s expects %d argument(s), got %d", sym.Signature, sym.Arity, len(args))
	}
	vals := make([]lua.LValue, 0, len(args)+1)
	vals = append(vals, r.receiver)
	for _, a := range args {
		v, err := ToValue(a)
		if err != nil {
			return lua.LNil, fmt.Errorf("%s: %w", sym.Signature, err)
		}
		vals = append(vals, v)
	}

	vm := r.vm
	switch sym.Kind {
	case GetterSymbol:
		var field lua.LValue
		if err := protect(func() { field = vm.L.GetField(r.receiver, sym.Name) }); err != nil {
			return lua.LNil, err
		}
		fn, ok := field.(*lua.LFunction)
		if !ok {
			return field, nil
		}
		return first(vm.call(fn, 1, r.receiver))
	case SetterSymbol:
		err := protect(func() { vm.L.SetField(r.receiver, sym.Name, vals[1]) })
		return lua.LNil, err
	default:
		return first(vm.call(r.fn, 1, vals...))
	}
}

func first(rets []lua.LValue, err *Error) (lua.LValue, error) {
	if err != nil {
		return lua.LNil, err
	}
	if len(rets) == 0 {
		return lua.LNil, nil
	}
	return rets[0], nil
}

// CallHandle is a pinned CallRef, valid across frames until released.
type CallHandle struct {
	ref      CallRef
	id       int
	released bool
}

// Signature returns the signature the handle was compiled from.
func (h *CallHandle) Signature() string { return h.ref.symbol.Signature }

// Call invokes the handle. Calling a released handle, or any handle once the
// VM has started closing, is a lifetime violation and panics.
func (h *CallHandle) Call(args ...any) (lua.LValue, error) {
	vm := h.ref.vm
	if vm.closing {
		panic(fmt.Sprintf("script: call handle %s invoked after VM teardown began", h.Signature()))
	}
	if h.released {
		panic(fmt.Sprintf("script: call handle %s invoked after release", h.Signature()))
	}
	vm.trace(TraceHandleCall, h.Signature())
	return h.ref.invoke(args)
}

// Release unpins the handle. Releasing twice is a no-op.
func (h *CallHandle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	vm := h.ref.vm
	if !vm.closed {
		vm.pinned.RawSetInt(h.id, lua.LNil)
	}
	delete(vm.handles, h)
	vm.trace(TraceHandleRelease, h.Signature())
}
