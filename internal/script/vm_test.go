package script

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

type counter struct{ n float64 }

const counterModule = `
Counter = foreign.class("Counter", {
  "construct new(_)",
  "value()",
  "add(_)",
  "add(_,_)",
  "absorb(_)",
  "static zero()",
})

function Counter:double()
  return self:value() * 2
end

Hooks = { calls = 0 }

function Hooks:tick(n)
  self.calls = self.calls + 1
  return n + 1
end

function Hooks:fail()
  local c = Counter.new(1)
  c:absorb(c)
end

function Hooks:boom()
  error("boom")
end
`

func newCounterVM(t *testing.T) *VM {
	t.Helper()
	vm := NewVM(Config{Output: log.New(&bytes.Buffer{}, "", 0)})
	vm.Module("test").Class("Counter").
		Construct("new(_)", func(c *Context) (any, error) {
			n, err := c.Number(0)
			if err != nil {
				return nil, err
			}
			return &counter{n: n}, nil
		}).
		Method("value()", func(c *Context) error {
			c.ReturnNumber(c.Self().(*counter).n)
			return nil
		}).
		MutMethod("add(_)", func(c *Context) error {
			n, err := c.Number(0)
			if err != nil {
				return err
			}
			c.Self().(*counter).n += n
			return nil
		}).
		MutMethod("add(_,_)", func(c *Context) error {
			a, err := c.Number(0)
			if err != nil {
				return err
			}
			b, err := c.Number(1)
			if err != nil {
				return err
			}
			c.Self().(*counter).n += a + b
			return nil
		}).
		MutMethod("absorb(_)", func(c *Context) error {
			other, release, err := BorrowMutArg[*counter](c, 0)
			if err != nil {
				return err
			}
			defer release()
			c.Self().(*counter).n += other.n
			return nil
		}).
		Static("zero()", func(c *Context) error {
			return c.ReturnInstance("test", "Counter", &counter{})
		})
	if err := vm.Interpret("test", counterModule); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	t.Cleanup(func() {
		if !vm.Closing() {
			vm.Close()
		}
	})
	return vm
}

func TestForeignClassDispatch(t *testing.T) {
	vm := newCounterVM(t)
	src := `
local c = Counter.new(2)
c:add(3)
c:add(1, 4)
result = c:double()
zero = Counter.zero():value()
`
	if err := vm.Interpret("test", src); err != nil {
		t.Fatal(err)
	}
	got, _ := vm.Variable("test", "result")
	if got != lua.LNumber(20) {
		t.Fatalf("result = %v, want 20", got)
	}
	zero, _ := vm.Variable("test", "zero")
	if zero != lua.LNumber(0) {
		t.Fatalf("zero = %v, want 0", zero)
	}
}

func TestForeignArityMismatch(t *testing.T) {
	vm := newCounterVM(t)
	err := vm.Interpret("test", `Counter.new(1):add(1, 2, 3)`)
	if err == nil || !strings.Contains(err.Error(), "add") {
		t.Fatalf("got %v, want arity error", err)
	}
}

func TestForeignDeclarationWithoutNative(t *testing.T) {
	vm := NewVM(Config{})
	vm.Module("m").Class("Thing").Method("a()", func(*Context) error { return nil })
	err := vm.Interpret("m", `Thing = foreign.class("Thing", {"a()", "b(_)"})`)
	if err == nil || !strings.Contains(err.Error(), "b(_)") {
		t.Fatalf("got %v, want missing foreign method error", err)
	}
	vm.Close()
}

func TestForeignBorrowViolationSurfacesAsScriptError(t *testing.T) {
	vm := newCounterVM(t)
	ref, err := vm.CallRef("test", "Hooks", "fail()")
	if err != nil {
		t.Fatal(err)
	}
	_, err = ref.Call()
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *Error", err)
	}
	var be *BorrowError
	if !errors.As(err, &be) || !be.Mutable {
		t.Fatalf("foreign payload = %v, want mutable *BorrowError", se.Foreign)
	}
}

func TestScriptErrorFrames(t *testing.T) {
	vm := newCounterVM(t)
	ref, err := vm.CallRef("test", "Hooks", "boom()")
	if err != nil {
		t.Fatal(err)
	}
	_, err = ref.Call()
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *Error", err)
	}
	if !strings.Contains(se.Message, "boom") || se.Kind != RuntimeError {
		t.Fatalf("unexpected error %+v", se)
	}
	for _, f := range se.Frames {
		if !f.Foreign && !strings.Contains(f.Module, "test") {
			t.Errorf("script frame from module %q", f.Module)
		}
	}
}

func TestCompileError(t *testing.T) {
	vm := NewVM(Config{})
	defer vm.Close()
	err := vm.Interpret("broken", "function (")
	var se *Error
	if !errors.As(err, &se) || se.Kind != CompileError || se.Module != "broken" {
		t.Fatalf("got %v, want compile error", err)
	}
	if vm.Loaded("broken") {
		t.Fatal("module marked loaded after compile error")
	}
}

func TestCallRefLifecycle(t *testing.T) {
	vm := newCounterVM(t)

	var h *CallHandle
	err := vm.Enter(func() error {
		ref, err := vm.CallRef("test", "Hooks", "tick(_)")
		if err != nil {
			return err
		}
		if v, err := ref.Call(1); err != nil || v != lua.LNumber(2) {
			t.Fatalf("call in context: %v %v", v, err)
		}
		h, err = ref.Leak()
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		v, err := h.Call(i)
		if err != nil || v != lua.LNumber(i+1) {
			t.Fatalf("frame %d: %v %v", i, v, err)
		}
	}
	if vm.LiveHandles() != 1 {
		t.Fatalf("live handles = %d, want 1", vm.LiveHandles())
	}
	h.Release()
	h.Release()
	if vm.LiveHandles() != 0 {
		t.Fatalf("live handles = %d after release", vm.LiveHandles())
	}
}

func TestCallRefStaleOutsideContext(t *testing.T) {
	vm := newCounterVM(t)
	var ref *CallRef
	_ = vm.Enter(func() error {
		var err error
		ref, err = vm.CallRef("test", "Hooks", "tick(_)")
		return err
	})
	if _, err := ref.Call(1); !errors.Is(err, ErrStaleRef) {
		t.Fatalf("call: got %v, want ErrStaleRef", err)
	}
	if _, err := ref.Leak(); !errors.Is(err, ErrStaleRef) {
		t.Fatalf("leak: got %v, want ErrStaleRef", err)
	}
}

func TestCallRefResolution(t *testing.T) {
	vm := newCounterVM(t)
	if _, err := vm.CallRef("test", "Hooks", "missing()"); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("missing method: %v", err)
	}
	if _, err := vm.CallRef("test", "Hooks", "tick(_,_)"); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("arity mismatch: %v", err)
	}
	if _, err := vm.CallRef("test", "Nope", "tick(_)"); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("unknown variable: %v", err)
	}
}

func TestGetterAndSetterHandles(t *testing.T) {
	vm := newCounterVM(t)
	var set, get *CallHandle
	err := vm.Enter(func() error {
		s, err := vm.CallRef("test", "Hooks", "calls=(_)")
		if err != nil {
			return err
		}
		g, err := vm.CallRef("test", "Hooks", "calls")
		if err != nil {
			return err
		}
		if set, err = s.Leak(); err != nil {
			return err
		}
		get, err = g.Leak()
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	defer set.Release()
	defer get.Release()

	if _, err := set.Call(41); err != nil {
		t.Fatal(err)
	}
	if v, err := get.Call(); err != nil || v != lua.LNumber(41) {
		t.Fatalf("get = %v %v", v, err)
	}
}

func TestCloseWithLiveHandlePanics(t *testing.T) {
	vm := newCounterVM(t)
	var h *CallHandle
	_ = vm.Enter(func() error {
		ref, err := vm.CallRef("test", "Hooks", "tick(_)")
		if err != nil {
			return err
		}
		h, err = ref.Leak()
		return err
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Close with a live handle did not panic")
			}
		}()
		vm.Close()
	}()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("handle call after teardown began did not panic")
			}
		}()
		_, _ = h.Call(1)
	}()
	h.Release()
}

func TestTracerOrdering(t *testing.T) {
	vm := newCounterVM(t)
	var events []TraceEvent
	vm.SetTracer(func(ev TraceEvent) { events = append(events, ev) })

	var h *CallHandle
	_ = vm.Enter(func() error {
		ref, err := vm.CallRef("test", "Hooks", "tick(_)")
		if err != nil {
			return err
		}
		h, err = ref.Leak()
		return err
	})
	_, _ = h.Call(1)
	h.Release()
	vm.Close()

	want := []TraceKind{TraceHandleCall, TraceHandleRelease, TraceClose}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Fatalf("event %d = %v, want %v", i, events[i].Kind, k)
		}
	}
}

func TestImport(t *testing.T) {
	vm := NewVM(Config{Loader: Builtins{
		"lib.math": `function square(x) return x * x end`,
	}})
	defer vm.Close()

	src := `
local m = import("lib.math")
result = m.square(7)
again = import("lib.math") == m
`
	if err := vm.Interpret("main", src); err != nil {
		t.Fatal(err)
	}
	if v, _ := vm.Variable("main", "result"); v != lua.LNumber(49) {
		t.Fatalf("result = %v", v)
	}
	if v, _ := vm.Variable("main", "again"); v != lua.LTrue {
		t.Fatalf("second import returned a different module")
	}
	if err := vm.Interpret("main", `import("lib.missing")`); err == nil {
		t.Fatal("import of a missing module succeeded")
	}
}

func TestPrintGoesToOutput(t *testing.T) {
	var buf bytes.Buffer
	vm := NewVM(Config{Output: log.New(&buf, "", 0)})
	defer vm.Close()
	if err := vm.Interpret("main", `print("hello", 1, true)`); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "hello\t1\ttrue" {
		t.Fatalf("output = %q", got)
	}
}
