package game

import "fmt"

// EventKind identifies a window event.
type EventKind int

const (
	Closed EventKind = iota
	Resized
	KeyInput
	MouseInput
	CursorMoved
	CharReceived
)

func (k EventKind) String() string {
	switch k {
	case Closed:
		return "Closed"
	case Resized:
		return "Resized"
	case KeyInput:
		return "KeyInput"
	case MouseInput:
		return "MouseInput"
	case CursorMoved:
		return "CursorMoved"
	case CharReceived:
		return "CharReceived"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one OS event translated for the session. Only the fields of its
// Kind are set.
type Event struct {
	Kind EventKind

	Width, Height uint32 // Resized

	Key     string // KeyInput
	Button  string // MouseInput
	Pressed bool   // KeyInput, MouseInput

	X, Y float64 // CursorMoved

	Char rune // CharReceived
}

func (e Event) String() string {
	switch e.Kind {
	case Resized:
		return fmt.Sprintf("Resized(%d, %d)", e.Width, e.Height)
	case KeyInput:
		return fmt.Sprintf("KeyInput(%s, %v)", e.Key, e.Pressed)
	case MouseInput:
		return fmt.Sprintf("MouseInput(%s, %v)", e.Button, e.Pressed)
	case CursorMoved:
		return fmt.Sprintf("CursorMoved(%v, %v)", e.X, e.Y)
	case CharReceived:
		return fmt.Sprintf("CharReceived(%q)", e.Char)
	}
	return e.Kind.String()
}

// EventSource is the window the session runs in.
type EventSource interface {
	// PollEvents collects pending OS events without blocking.
	PollEvents()
	// NextEvent pops the oldest collected event.
	NextEvent() (Event, bool)
	RequestRedraw()
	SetTitle(title string)
	ResizeSurface(width, height uint32)
	SwapBuffers()
}

// Headless is an EventSource without a window. Events are queued with Push
// and handed out in order; everything else is recorded.
type Headless struct {
	queue []Event

	Title   string
	Width   uint32
	Height  uint32
	Redraws int
	Swaps   int
}

// NewHeadless returns a source whose surface is width by height.
func NewHeadless(width, height uint32) *Headless {
	return &Headless{Width: width, Height: height}
}

// Push queues events for the next frames.
func (h *Headless) Push(evs ...Event) { h.queue = append(h.queue, evs...) }

func (h *Headless) PollEvents() {}

func (h *Headless) NextEvent() (Event, bool) {
	if len(h.queue) == 0 {
		return Event{}, false
	}
	ev := h.queue[0]
	h.queue = h.queue[1:]
	return ev, true
}

func (h *Headless) RequestRedraw() { h.Redraws++ }

func (h *Headless) SetTitle(title string) { h.Title = title }

func (h *Headless) ResizeSurface(width, height uint32) { h.Width, h.Height = width, height }

func (h *Headless) SwapBuffers() { h.Swaps++ }
