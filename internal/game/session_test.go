package game

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"gers/internal/config"
	"gers/internal/graphics"
	"gers/internal/graphics/noop"
	"gers/internal/input"
	"gers/internal/script"
)

type harness struct {
	s       *Session
	vm      *script.VM
	device  *graphics.Device
	backend *noop.Backend
	events  *Headless
	logs    *bytes.Buffer
}

func newHarness(t *testing.T, src string) *harness {
	t.Helper()
	limit := config.GetFPSLimit()
	config.SetFPSLimit(0)
	t.Cleanup(func() { config.SetFPSLimit(limit) })

	h, err := tryHarness(src)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.s.Close() })
	return h
}

func tryHarness(src string) (*harness, error) {
	state := input.NewState()
	if err := input.DefaultMap().Apply(state); err != nil {
		return nil, err
	}
	state.BindKey("Space", "jump")
	discard := log.New(io.Discard, "", 0)
	vm := NewVM(VMConfig{Input: state, Output: discard})
	if err := vm.Interpret("main", src); err != nil {
		vm.Close()
		return nil, err
	}
	b := noop.New()
	d := graphics.NewDevice(b, discard)
	ev := NewHeadless(320, 200)
	logs := &bytes.Buffer{}
	s, err := NewSession(vm, d, ev, state, Config{
		Title:  "test",
		Width:  320,
		Height: 200,
		Log:    log.New(logs, "", 0),
	})
	if err != nil {
		if n := vm.LiveHandles(); n != 0 {
			panic("failed session left handles pinned")
		}
		vm.Close()
		return nil, err
	}
	return &harness{s: s, vm: vm, device: d, backend: b, events: ev, logs: logs}, nil
}

func (h *harness) global(t *testing.T, name string) lua.LValue {
	t.Helper()
	v, err := h.vm.Variable("main", name)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func boolList(t *testing.T, v lua.LValue) []bool {
	t.Helper()
	tbl, ok := v.(*lua.LTable)
	if !ok {
		t.Fatalf("%v is not a table", v)
	}
	out := make([]bool, tbl.Len())
	for i := range out {
		out[i] = lua.LVAsBool(tbl.RawGetInt(i + 1))
	}
	return out
}

const basicGame = `
local game = import("gers.game")
local gfx = import("gers.graphics")
local input = import("gers.input")
local kb = input.Keyboard

released = {}
jumped = {}
updates, draws = 0, 0
dt = -1

local Handler = {}

function Handler:init()
  self.tex = gfx.Texture.fromColor(gfx.GraphicDevice.instance, 1, 1, 1, 1)
end

function Handler:update()
  updates = updates + 1
  dt = game.Game.deltaTime
  released[#released + 1] = kb:isReleased("A")
  jumped[#jumped + 1] = input.Input.justPressed("jump")
end

function Handler:draw()
  draws = draws + 1
  local device = gfx.GraphicDevice.instance
  device:clearScreen(0, 0, 0, 255)
end

game.Game.run(Handler)
`

func TestFramePhaseOrder(t *testing.T) {
	h := newHarness(t, basicGame)
	var calls []string
	h.vm.SetTracer(func(ev script.TraceEvent) {
		if ev.Kind == script.TraceHandleCall {
			calls = append(calls, ev.Signature)
		}
	})
	h.events.Push(Event{Kind: KeyInput, Key: "A", Pressed: true})
	h.s.Frame()

	want := []string{
		"clear_()", "clear_()",
		"setKeyPress_(_)",
		"deltaTime=(_)", "update()", "control_",
		"draw()",
		"maintain()",
	}
	if strings.Join(calls, " ") != strings.Join(want, " ") {
		t.Fatalf("calls:\n got %v\nwant %v", calls, want)
	}
	if h.events.Redraws != 1 || h.events.Swaps != 1 {
		t.Fatalf("redraws %d, swaps %d", h.events.Redraws, h.events.Swaps)
	}
	if dt := float64(h.global(t, "dt").(lua.LNumber)); dt < 0 {
		t.Fatalf("deltaTime = %v", dt)
	}
}

func TestReleasedReadableForOneFrame(t *testing.T) {
	h := newHarness(t, basicGame)
	h.events.Push(Event{Kind: KeyInput, Key: "A", Pressed: true}, Event{Kind: KeyInput, Key: "Space", Pressed: true})
	h.s.Frame()
	h.events.Push(Event{Kind: KeyInput, Key: "A", Pressed: false})
	h.s.Frame()
	h.s.Frame()

	released := boolList(t, h.global(t, "released"))
	if want := []bool{false, true, false}; !equal(released, want) {
		t.Fatalf("released per frame = %v, want %v", released, want)
	}
	jumped := boolList(t, h.global(t, "jumped"))
	if want := []bool{true, false, false}; !equal(jumped, want) {
		t.Fatalf("jump per frame = %v, want %v", jumped, want)
	}
	if !h.s.input.IsActive("jump") {
		t.Fatal("held action lost between frames")
	}
}

func equal(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCloseReleasesHandlesBeforeVM(t *testing.T) {
	h := newHarness(t, basicGame)
	h.s.Frame()
	live := h.vm.LiveHandles()
	if live == 0 {
		t.Fatal("no handles pinned")
	}
	update := h.s.gameHooks.Update

	var trace []script.TraceEvent
	h.vm.SetTracer(func(ev script.TraceEvent) { trace = append(trace, ev) })
	if err := h.s.Close(); err != nil {
		t.Fatal(err)
	}

	releases, closedAt := 0, -1
	for i, ev := range trace {
		switch ev.Kind {
		case script.TraceHandleRelease:
			if closedAt >= 0 {
				t.Fatalf("%s released after the VM started closing", ev.Signature)
			}
			releases++
		case script.TraceClose:
			closedAt = i
		case script.TraceHandleCall:
			t.Fatalf("%s invoked during teardown", ev.Signature)
		}
	}
	if releases != live || closedAt != len(trace)-1 {
		t.Fatalf("released %d of %d handles, close at %d of %d", releases, live, closedAt, len(trace))
	}
	if !errors.Is(h.s.Close(), ErrClosed) {
		t.Fatal("second Close did not report ErrClosed")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("calling a released handle did not panic")
		}
	}()
	update.Call()
}

func TestScriptErrorAbandonsFrame(t *testing.T) {
	h := newHarness(t, `
local game = import("gers.game")
local gfx = import("gers.graphics")
draws, frame = 0, 0
local Handler = {}
function Handler:update()
  frame = frame + 1
  if frame == 1 then
    local tex = gfx.Texture.new(gfx.GraphicDevice.instance, 4, 4)
    tex:release()
    error("boom")
  end
end
function Handler:draw()
  draws = draws + 1
end
game.Game.run(Handler)
`)
	h.s.Frame()
	if n := h.global(t, "draws"); n != lua.LNumber(0) {
		t.Fatalf("draw ran after update failed: draws = %v", n)
	}
	if h.device.Pending() != 0 {
		t.Fatal("maintain skipped after a failed frame")
	}
	if !strings.Contains(h.logs.String(), "boom") {
		t.Fatalf("error not logged: %q", h.logs.String())
	}

	h.s.Frame()
	if n := h.global(t, "draws"); n != lua.LNumber(1) {
		t.Fatalf("loop did not recover: draws = %v", n)
	}
	if h.s.Outcome() != Continue {
		t.Fatal("script error ended the session")
	}
}

func TestSessionInitErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"no handler", `local game = import("gers.game")`, ErrNoHandler.Error()},
		{"no update", `import("gers.game").Game.run({})`, "update()"},
		{"init fails", `
local H = {}
function H:init() error("cannot start") end
function H:update() end
import("gers.game").Game.run(H)
`, "cannot start"},
		{"draw without self", `
local H = {}
function H:update() end
function H.draw() end
import("gers.game").Game.run(H)
`, "draw()"},
	}
	for _, tt := range tests {
		_, err := tryHarness(tt.src)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: got %v, want error containing %q", tt.name, err, tt.want)
		}
	}
}

func TestControlRequests(t *testing.T) {
	const restartable = `
local game = import("gers.game")
local H = {}
function H:update()
  if wantRestart then game.Game.restart() end
end
game.Game.run(H)
`
	tests := []struct {
		name   string
		events []Event
		script string
		want   Outcome
	}{
		{"nothing", nil, "", Continue},
		{"window closed", []Event{{Kind: Closed}}, "", Quit},
		{"quit key", []Event{{Kind: KeyInput, Key: "Escape", Pressed: true}}, "", Quit},
		{"restart key", []Event{{Kind: KeyInput, Key: "F5", Pressed: true}}, "", Restart},
		{"script restart", nil, "wantRestart = true", Restart},
		{"close beats restart", []Event{{Kind: KeyInput, Key: "F5", Pressed: true}, {Kind: Closed}}, "", Quit},
	}
	for _, tt := range tests {
		h := newHarness(t, restartable+tt.script)
		h.events.Push(tt.events...)
		h.s.Frame()
		if got := h.s.Outcome(); got != tt.want {
			t.Errorf("%s: outcome %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestResizeEvents(t *testing.T) {
	h := newHarness(t, basicGame)
	if w, hh := h.device.Viewport(); w != 320 || hh != 200 {
		t.Fatalf("initial viewport %dx%d", w, hh)
	}
	h.events.Push(Event{Kind: Resized, Width: 0, Height: 0})
	h.s.Frame()
	if w, hh := h.device.Viewport(); w != 320 || hh != 200 {
		t.Fatalf("zero resize applied: %dx%d", w, hh)
	}
	h.events.Push(Event{Kind: Resized, Width: 800, Height: 600})
	h.s.Frame()
	if w, hh := h.device.Viewport(); w != 800 || hh != 600 {
		t.Fatalf("viewport %dx%d after resize", w, hh)
	}
	if h.events.Width != 800 || h.events.Height != 600 {
		t.Fatal("surface not resized")
	}
}

func TestMouseEvents(t *testing.T) {
	h := newHarness(t, `
local game = import("gers.game")
local mouse = import("gers.input").Mouse
local H = {}
function H:update()
  x, y = mouse:pos()
  dx, dy = mouse:delta()
  clicked = mouse:isPressed("Left")
  typed = import("gers.input").Keyboard:text()
end
game.Game.run(H)
`)
	h.events.Push(
		Event{Kind: CursorMoved, X: 10, Y: 10},
		Event{Kind: CursorMoved, X: 14, Y: 7},
		Event{Kind: MouseInput, Button: input.MouseLeft, Pressed: true},
		Event{Kind: CharReceived, Char: 'h'},
		Event{Kind: CharReceived, Char: 'é'},
	)
	h.s.Frame()
	num := func(name string) float64 { return float64(h.global(t, name).(lua.LNumber)) }
	if num("x") != 14 || num("y") != 7 || num("dx") != 4 || num("dy") != -3 {
		t.Fatalf("cursor (%v,%v) delta (%v,%v)", num("x"), num("y"), num("dx"), num("dy"))
	}
	if h.global(t, "clicked") != lua.LTrue {
		t.Fatal("click not seen")
	}
	if got := h.global(t, "typed").String(); got != "hé" {
		t.Fatalf("typed %q", got)
	}
}

func TestRun(t *testing.T) {
	h := newHarness(t, basicGame)
	if o := h.s.Run(3); o != Quit || h.s.Frames() != 3 {
		t.Fatalf("Run(3) = %s after %d frames", o, h.s.Frames())
	}

	h = newHarness(t, basicGame)
	go func() {
		time.Sleep(20 * time.Millisecond)
		h.s.RequestQuit()
	}()
	if o := h.s.Run(0); o != Quit {
		t.Fatalf("Run = %s", o)
	}
}

func TestFPSCounter(t *testing.T) {
	var c FPSCounter
	start := time.Unix(100, 0)
	for i := 0; i < 30; i++ {
		if c.Tick(start.Add(time.Duration(i) * 20 * time.Millisecond)) {
			t.Fatalf("rate reported after %d frames", i+1)
		}
	}
	if !c.Tick(start.Add(time.Second)) {
		t.Fatal("no rate after one second")
	}
	if c.FPS() != 31 {
		t.Fatalf("fps = %d", c.FPS())
	}
	if got := c.Title("demo"); got != "demo | 31 FPS" {
		t.Fatalf("title %q", got)
	}
}
