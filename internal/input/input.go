// Package input tracks keyboard and mouse state for one game session. Keys
// and buttons are identified by name ("A", "Space", "Escape", "Left"), the
// same names scripts see, and are mapped to named actions.
package input

import (
	"sync"
)

// Action is a logical game action, not a physical key.
type Action string

// Actions the engine itself reacts to.
const (
	ActionQuit    Action = "quit"
	ActionRestart Action = "restart"
)

// Mouse button names.
const (
	MouseLeft   = "Left"
	MouseRight  = "Right"
	MouseMiddle = "Middle"
)

// State maps physical keys and buttons to actions and tracks which actions
// are held, just pressed and just released.
type State struct {
	mu sync.RWMutex

	keyToActions    map[string][]Action
	buttonToActions map[string][]Action

	current      map[Action]bool
	justPressed  map[Action]bool
	justReleased map[Action]bool
}

// NewState creates a State with no bindings.
func NewState() *State {
	return &State{
		keyToActions:    make(map[string][]Action),
		buttonToActions: make(map[string][]Action),
		current:         make(map[Action]bool),
		justPressed:     make(map[Action]bool),
		justReleased:    make(map[Action]bool),
	}
}

// BindKey binds a key to an action. A key can drive several actions and an
// action can be bound to several keys.
func (s *State) BindKey(key string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyToActions[key] = append(s.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key.
func (s *State) UnbindKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keyToActions, key)
}

// BindButton binds a mouse button to an action.
func (s *State) BindButton(button string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttonToActions[button] = append(s.buttonToActions[button], action)
}

// HandleKey records a key press or release. Keys without bindings are ignored.
func (s *State) HandleKey(key string, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.keyToActions[key], pressed)
}

// HandleButton records a mouse button press or release.
func (s *State) HandleButton(button string, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(s.buttonToActions[button], pressed)
}

func (s *State) apply(actions []Action, pressed bool) {
	for _, act := range actions {
		// Edges are detected when the event arrives.
		if pressed && !s.current[act] {
			s.justPressed[act] = true
		}
		if !pressed && s.current[act] {
			s.justReleased[act] = true
		}
		s.current[act] = pressed
	}
}

// ClearEdges resets the just pressed and just released flags. The session
// calls it at the start of every frame, before new events are drained.
func (s *State) ClearEdges() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.justPressed)
	clear(s.justReleased)
}

// IsActive reports whether the action is held down.
func (s *State) IsActive(action Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current[action]
}

// JustPressed reports whether the action was pressed this frame.
func (s *State) JustPressed(action Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.justPressed[action]
}

// JustReleased reports whether the action was released this frame.
func (s *State) JustReleased(action Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.justReleased[action]
}
