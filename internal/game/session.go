// Package game runs a scripted game: it installs the call handles the
// engine drives every frame, runs the frame phases in order and tears the
// handles down before the script VM.
package game

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"gers/internal/config"
	"gers/internal/graphics"
	"gers/internal/input"
	"gers/internal/profiling"
	"gers/internal/script"
)

// Outcome is what the main loop should do next.
type Outcome int32

const (
	Continue Outcome = iota
	Quit
	Restart
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Quit:
		return "quit"
	case Restart:
		return "restart"
	}
	return fmt.Sprintf("Outcome(%d)", int32(o))
}

// Config configures a Session.
type Config struct {
	// Title is the window title the FPS counter decorates.
	Title string
	// Width and Height are the initial surface size.
	Width, Height uint32
	Log           *log.Logger
}

// Session is one run of a game. Sessions must be used from the goroutine
// that owns the GPU context and the VM.
type Session struct {
	vm     *script.VM
	device *graphics.Device
	events EventSource
	input  *input.State
	log    *log.Logger
	title  string

	deviceHooks *graphics.DeviceHooks
	inputHooks  *input.Hooks
	gameHooks   *Hooks

	// control is written by RequestQuit from any goroutine and read at the
	// top of each loop iteration.
	control atomic.Int32

	cursor    [2]float64
	hasCursor bool
	lastFrame time.Time
	fps       FPSCounter
	limiter   *FPSLimiter
	frames    int
	closed    bool
}

// NewSession installs the device, input and game hooks on vm and runs the
// handler's init(). The entry module must already have called Game.run.
// On error every hook installed so far is released; vm and device stay
// with the caller.
func NewSession(vm *script.VM, device *graphics.Device, events EventSource, state *input.State, cfg Config) (*Session, error) {
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "[gers] ", log.LstdFlags)
	}
	s := &Session{
		vm:      vm,
		device:  device,
		events:  events,
		input:   state,
		log:     cfg.Log,
		title:   cfg.Title,
		limiter: NewFPSLimiter(),
	}
	if err := s.init(cfg); err != nil {
		s.releaseHooks()
		return nil, err
	}
	s.lastFrame = time.Now()
	return s, nil
}

func (s *Session) init(cfg Config) error {
	for _, m := range []string{graphics.Module, input.Module} {
		if _, err := s.vm.Import(m); err != nil {
			return err
		}
	}
	var err error
	if s.deviceHooks, err = graphics.Install(s.vm, s.device); err != nil {
		return fmt.Errorf("install graphics device: %w", err)
	}
	if s.inputHooks, err = input.Install(s.vm); err != nil {
		return fmt.Errorf("install input: %w", err)
	}
	if s.gameHooks, err = installHooks(s.vm); err != nil {
		return err
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		if _, err := s.deviceHooks.SetViewport.Call(cfg.Width, cfg.Height); err != nil {
			return err
		}
	}
	if s.gameHooks.Init != nil {
		if _, err := s.gameHooks.Init.Call(); err != nil {
			return fmt.Errorf("game init: %w", err)
		}
	}
	return nil
}

// VM returns the session's script VM.
func (s *Session) VM() *script.VM { return s.vm }

// Frames returns the number of frames run so far.
func (s *Session) Frames() int { return s.frames }

// RequestQuit asks the loop to stop before its next frame. It is safe to
// call from any goroutine.
func (s *Session) RequestQuit() { s.setControl(Quit) }

func (s *Session) setControl(o Outcome) {
	// Quit wins over a pending restart.
	for {
		cur := s.control.Load()
		if Outcome(cur) == Quit || s.control.CompareAndSwap(cur, int32(o)) {
			return
		}
	}
}

// Outcome returns the pending control request, or Continue.
func (s *Session) Outcome() Outcome { return Outcome(s.control.Load()) }

// Run runs frames until a quit or restart is requested, or until maxFrames
// frames have run when maxFrames is positive.
func (s *Session) Run(maxFrames int) Outcome {
	for {
		if o := s.Outcome(); o != Continue {
			return o
		}
		if maxFrames > 0 && s.frames >= maxFrames {
			return Quit
		}
		s.Frame()
		s.limiter.Wait()
	}
}

// Frame runs one frame: events, update, draw, then Maintain. A script error
// abandons the rest of the frame; Maintain still runs.
func (s *Session) Frame() {
	profiling.ResetFrame()
	start := time.Now()
	dt := start.Sub(s.lastFrame).Seconds()
	s.lastFrame = start

	if err := s.runPhases(dt); err != nil {
		script.LogError(s.log, fmt.Sprintf("frame %d", s.frames), err)
	}
	s.maintain()
	s.frames++

	if d := time.Since(start); config.GetSlowFrame() > 0 && d > config.GetSlowFrame() {
		s.log.Printf("Slow frame: %v. Top phases: %s", d, profiling.TopN(5))
	}
	if s.fps.Tick(time.Now()) {
		s.events.SetTitle(s.fps.Title(s.title))
	}
}

func (s *Session) runPhases(dt float64) error {
	if err := s.drainEvents(); err != nil {
		return err
	}
	if err := s.update(dt); err != nil {
		return err
	}
	return s.draw()
}

func (s *Session) drainEvents() error {
	defer profiling.Track(profiling.PhaseEvents)()

	// Edges from the previous frame stay readable until now.
	s.input.ClearEdges()
	if err := s.inputHooks.Clear(); err != nil {
		return err
	}

	s.events.PollEvents()
	for {
		ev, ok := s.events.NextEvent()
		if !ok {
			break
		}
		if err := s.dispatch(ev); err != nil {
			return fmt.Errorf("%s: %w", ev, err)
		}
	}

	switch {
	case s.input.JustPressed(input.ActionQuit):
		s.setControl(Quit)
	case s.input.JustPressed(input.ActionRestart):
		s.setControl(Restart)
	}
	return nil
}

func (s *Session) dispatch(ev Event) error {
	switch ev.Kind {
	case Closed:
		s.setControl(Quit)
	case Resized:
		// Minimized windows report a zero size.
		if ev.Width == 0 || ev.Height == 0 {
			return nil
		}
		s.events.ResizeSurface(ev.Width, ev.Height)
		_, err := s.deviceHooks.SetViewport.Call(ev.Width, ev.Height)
		return err
	case KeyInput:
		s.input.HandleKey(ev.Key, ev.Pressed)
		return s.inputHooks.Key(ev.Key, ev.Pressed)
	case MouseInput:
		s.input.HandleButton(ev.Button, ev.Pressed)
		_, err := s.inputHooks.MouseButton.Call(ev.Button, ev.Pressed)
		return err
	case CursorMoved:
		var dx, dy float64
		if s.hasCursor {
			dx, dy = ev.X-s.cursor[0], ev.Y-s.cursor[1]
		}
		s.cursor, s.hasCursor = [2]float64{ev.X, ev.Y}, true
		_, err := s.inputHooks.MousePos.Call(ev.X, ev.Y, dx, dy)
		return err
	case CharReceived:
		_, err := s.inputHooks.Char.Call(string(ev.Char))
		return err
	}
	return nil
}

func (s *Session) update(dt float64) error {
	defer profiling.Track(profiling.PhaseUpdate)()
	if _, err := s.gameHooks.DeltaTime.Call(dt); err != nil {
		return err
	}
	if _, err := s.gameHooks.Update.Call(); err != nil {
		return err
	}

	// Game.quit() and Game.restart() from the script.
	v, err := s.gameHooks.Control.Call()
	if err != nil {
		return err
	}
	if v == lua.LNil {
		return nil
	}
	switch lua.LVAsString(v) {
	case "quit":
		s.setControl(Quit)
	case "restart":
		s.setControl(Restart)
	default:
		return fmt.Errorf("unknown game control %q", v.String())
	}
	_, err = s.gameHooks.ResetControl.Call(nil)
	return err
}

func (s *Session) draw() error {
	defer profiling.Track(profiling.PhaseDraw)()
	s.events.RequestRedraw()
	if s.gameHooks.Draw != nil {
		if _, err := s.gameHooks.Draw.Call(); err != nil {
			return err
		}
	}
	stop := profiling.Track(profiling.PhaseSwap)
	s.events.SwapBuffers()
	stop()
	return nil
}

func (s *Session) maintain() {
	defer profiling.Track(profiling.PhaseMaintain)()
	if _, err := s.deviceHooks.Maintain.Call(); err != nil {
		script.LogError(s.log, "maintain", err)
	}
}

func (s *Session) releaseHooks() {
	if s.gameHooks != nil {
		s.gameHooks.Release()
	}
	if s.inputHooks != nil {
		s.inputHooks.Release()
	}
	if s.deviceHooks != nil {
		s.deviceHooks.Release()
	}
}

// ErrClosed is returned by Close on a session that was already closed.
var ErrClosed = errors.New("game session already closed")

// Close tears the session down: every call handle is released, then the VM
// is closed, then the GPU objects the script heap still owned are deleted
// and the device is closed.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.releaseHooks()
	s.vm.Close()

	// Instances dropped with the VM queue their GPU objects once collected.
	s.vm, s.gameHooks, s.inputHooks, s.deviceHooks = nil, nil, nil, nil
	runtime.GC()
	s.device.Close()
	return nil
}
