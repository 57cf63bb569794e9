package window

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"gers/internal/config"
	"gers/internal/game"
)

// Window is a GLFW window with a current OpenGL 4.1 core context. It
// implements game.EventSource: callbacks queue events during PollEvents and
// the session pops them with NextEvent.
type Window struct {
	win   *glfw.Window
	queue []game.Event
}

// Open creates the window and makes its context current. glfw.Init must
// have been called on the main thread.
func Open(conf Conf) (*Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	win, err := glfw.CreateWindow(int(conf.Width), int(conf.Height), conf.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()

	// The session paces frames itself unless vsync is configured.
	if config.GetVSync() {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &Window{win: win}
	w.setupCallbacks()
	return w, nil
}

func (w *Window) push(ev game.Event) { w.queue = append(w.queue, ev) }

func (w *Window) setupCallbacks() {
	w.win.SetCloseCallback(func(*glfw.Window) {
		w.push(game.Event{Kind: game.Closed})
	})
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.push(game.Event{Kind: game.Resized, Width: uint32(max(width, 0)), Height: uint32(max(height, 0))})
	})
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		name := KeyName(key)
		if name == "" || action == glfw.Repeat {
			return
		}
		w.push(game.Event{Kind: game.KeyInput, Key: name, Pressed: action == glfw.Press})
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		w.push(game.Event{Kind: game.MouseInput, Button: ButtonName(button), Pressed: action == glfw.Press})
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.push(game.Event{Kind: game.CursorMoved, X: x, Y: y})
	})
	w.win.SetCharCallback(func(_ *glfw.Window, char rune) {
		w.push(game.Event{Kind: game.CharReceived, Char: char})
	})
}

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.win.GetFramebufferSize()
	return uint32(max(width, 0)), uint32(max(height, 0))
}

func (w *Window) PollEvents() { glfw.PollEvents() }

func (w *Window) NextEvent() (game.Event, bool) {
	if len(w.queue) == 0 {
		return game.Event{}, false
	}
	ev := w.queue[0]
	w.queue = w.queue[1:]
	return ev, true
}

// RequestRedraw is a no-op: GLFW windows are redrawn every frame.
func (w *Window) RequestRedraw() {}

func (w *Window) SetTitle(title string) { w.win.SetTitle(title) }

// ResizeSurface is a no-op: the default framebuffer follows the window.
func (w *Window) ResizeSurface(width, height uint32) {}

func (w *Window) SwapBuffers() { w.win.SwapBuffers() }

// Destroy closes the window. The GL context goes with it.
func (w *Window) Destroy() { w.win.Destroy() }
