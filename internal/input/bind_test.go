package input_test

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"gers/internal/input"
	"gers/internal/script"
)

func newVM(t *testing.T, s *input.State) (*script.VM, *input.Hooks) {
	t.Helper()
	vm := script.NewVM(script.Config{})
	input.Register(vm, s)
	t.Cleanup(vm.Close)
	if err := vm.Interpret(input.Module, input.Source); err != nil {
		t.Fatal(err)
	}
	h, err := input.Install(vm)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Release)
	return vm, h
}

func boolVar(t *testing.T, vm *script.VM, name string) bool {
	t.Helper()
	v, err := vm.Variable("main", name)
	if err != nil {
		t.Fatal(err)
	}
	return v == lua.LTrue
}

func TestKeyboardHooks(t *testing.T) {
	vm, h := newVM(t, input.NewState())
	if err := h.Key("A", true); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Char.Call("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.MousePos.Call(10, 20, 1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := h.MousePos.Call(12, 21, 2, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := h.MouseButton.Call(input.MouseLeft, true); err != nil {
		t.Fatal(err)
	}
	err := vm.Interpret("main", `
local input = import("gers.input")
local kb, mouse = input.Keyboard, input.Mouse
down = kb:isDown("A")
pressed = kb:isPressed("A")
typed = kb:text() == "a"
local x, y = mouse:pos()
local dx, dy = mouse:delta()
moved = x == 12 and y == 21 and dx == 3 and dy == 3
clicked = mouse:isPressed("Left") and mouse:isDown("Left")
`)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"down", "pressed", "typed", "moved", "clicked"} {
		if !boolVar(t, vm, name) {
			t.Errorf("%s = false", name)
		}
	}

	if err := h.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := h.Key("A", false); err != nil {
		t.Fatal(err)
	}
	err = vm.Interpret("main", `
local kb = import("gers.input").Keyboard
stillPressed = kb:isPressed("A")
released = kb:isReleased("A") and not kb:isDown("A")
`)
	if err != nil {
		t.Fatal(err)
	}
	if boolVar(t, vm, "stillPressed") || !boolVar(t, vm, "released") {
		t.Fatal("clear_ did not reset the frame edges")
	}
}

func TestInputStatics(t *testing.T) {
	s := input.NewState()
	s.BindKey("Space", "jump")
	vm, _ := newVM(t, s)
	s.HandleKey("Space", true)
	err := vm.Interpret("main", `
local Input = import("gers.input").Input
active = Input.isActive("jump")
pressed = Input.justPressed("jump")
released = Input.justReleased("jump")
other = Input.isActive("fire")
`)
	if err != nil {
		t.Fatal(err)
	}
	if !boolVar(t, vm, "active") || !boolVar(t, vm, "pressed") {
		t.Fatal("script does not see held action")
	}
	if boolVar(t, vm, "released") || boolVar(t, vm, "other") {
		t.Fatal("script sees edges that did not happen")
	}
}

func TestHooksReleasedBeforeClose(t *testing.T) {
	vm := script.NewVM(script.Config{})
	input.Register(vm, input.NewState())
	if err := vm.Interpret(input.Module, input.Source); err != nil {
		t.Fatal(err)
	}
	h, err := input.Install(vm)
	if err != nil {
		t.Fatal(err)
	}
	if vm.LiveHandles() != 7 {
		t.Fatalf("live handles = %d", vm.LiveHandles())
	}
	h.Release()
	h.Release()
	if vm.LiveHandles() != 0 {
		t.Fatalf("live handles after release = %d", vm.LiveHandles())
	}
	vm.Close()
}
