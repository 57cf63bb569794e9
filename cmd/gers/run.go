package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
	"github.com/xlab/closer"

	"gers/internal/config"
	"gers/internal/game"
	"gers/internal/graphics"
	"gers/internal/graphics/noop"
	"gers/internal/graphics/opengl"
	"gers/internal/input"
	"gers/internal/script"
	"gers/internal/window"
)

var (
	logger    = log.New(os.Stderr, "[gers] ", log.LstdFlags)
	luaLog    = log.New(os.Stderr, "[lua] ", log.LstdFlags)
	gfxLog    = log.New(os.Stderr, "[gfx] ", log.LstdFlags)
	scriptLog = log.New(os.Stderr, "[script] ", log.LstdFlags)
)

const entryModule = "main"

var runCmd = &cobra.Command{
	Use:   "run [flags] <main.lua>",
	Short: "Run a game",
	Long: `Run the game whose entry script is main.lua. Modules it imports are
looked up next to it and in the [script] paths of the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runGame,
}

func init() {
	runCmd.Flags().String("config", "", "engine configuration file (gers.toml)")
	runCmd.Flags().Bool("headless", false, "run without a window or GPU")
	runCmd.Flags().Int("frames", 0, "stop after this many frames (0 runs until quit)")
	runCmd.Flags().Bool("trace", false, "log call handle traffic")
}

// runner carries one invocation of `gers run` across restarts.
type runner struct {
	entry    string
	source   string
	file     *config.File
	actions  input.Map
	headless bool
	frames   int

	win     *window.Window
	current atomic.Pointer[game.Session]
	quit    atomic.Bool
}

func runGame(cmd *cobra.Command, args []string) error {
	r := &runner{entry: args[0]}
	var err error
	if r.headless, err = cmd.Flags().GetBool("headless"); err != nil {
		return err
	}
	if r.frames, err = cmd.Flags().GetInt("frames"); err != nil {
		return err
	}
	trace, err := cmd.Flags().GetBool("trace")
	if err != nil {
		return err
	}

	r.file = &config.File{}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if r.file, err = config.Load(path); err != nil {
			return err
		}
		r.file.Apply()
	}
	if trace {
		config.SetTrace(true)
	}
	if r.actions, err = r.loadActions(); err != nil {
		return err
	}
	src, err := os.ReadFile(r.entry)
	if err != nil {
		return fmt.Errorf("read entry script: %w", err)
	}
	r.source = string(src)

	done := make(chan struct{})
	// SIGINT and SIGTERM request a quit and wait for the ordered teardown.
	closer.Bind(func() {
		r.quit.Store(true)
		if s := r.current.Load(); s != nil {
			s.RequestQuit()
		}
		<-done
	})
	defer close(done)

	if !r.headless {
		if err := glfw.Init(); err != nil {
			return fmt.Errorf("init glfw: %w", err)
		}
		defer glfw.Terminate()
	}
	for !r.quit.Load() {
		outcome, err := r.runSession()
		if err != nil {
			return err
		}
		if outcome != game.Restart {
			break
		}
		logger.Println("restarting")
	}
	if r.win != nil {
		r.win.Destroy()
	}
	return nil
}

func (r *runner) loadActions() (input.Map, error) {
	if r.file.Input.Map == "" {
		return input.DefaultMap(), nil
	}
	return input.LoadMap(r.file.Input.Map)
}

func (r *runner) newVM(state *input.State) *script.VM {
	roots := append([]string{filepath.Dir(r.entry)}, r.file.Script.Paths...)
	return game.NewVM(game.VMConfig{
		Input:   state,
		Roots:   roots,
		Modules: []game.ScriptModule{window.ScriptModule()},
		Output:  luaLog,
		Log:     scriptLog,
		Trace:   config.GetTrace(),
	})
}

// runSession runs the entry script once, from a fresh VM, until it quits or
// asks for a restart.
func (r *runner) runSession() (game.Outcome, error) {
	state := input.NewState()
	if err := r.actions.Apply(state); err != nil {
		return game.Quit, err
	}
	vm := r.newVM(state)
	if err := vm.Interpret(entryModule, r.source); err != nil {
		script.LogError(logger, r.entry, err)
		vm.Close()
		return game.Quit, fmt.Errorf("%s failed to load", r.entry)
	}
	conf, err := window.QueryConf(vm, entryModule)
	if err != nil {
		vm.Close()
		return game.Quit, fmt.Errorf("window configuration: %w", err)
	}
	conf = conf.Override(r.file.Window)

	events, device, err := r.open(conf)
	if err != nil {
		vm.Close()
		return game.Quit, err
	}
	s, err := game.NewSession(vm, device, events, state, game.Config{
		Title:  conf.Title,
		Width:  conf.Width,
		Height: conf.Height,
		Log:    logger,
	})
	if err != nil {
		script.LogError(logger, "game init", err)
		vm.Close()
		device.Close()
		return game.Quit, fmt.Errorf("%s failed to start", r.entry)
	}
	r.current.Store(s)
	if r.quit.Load() {
		s.RequestQuit()
	}
	outcome := s.Run(r.frames)
	r.current.Store(nil)
	logger.Printf("session ended after %d frames: %s", s.Frames(), outcome)
	if err := s.Close(); err != nil {
		return game.Quit, err
	}
	return outcome, nil
}

// open returns the event source and device for conf. The window is opened
// on the first session and reused after restarts.
func (r *runner) open(conf window.Conf) (game.EventSource, *graphics.Device, error) {
	if r.headless {
		return game.NewHeadless(conf.Width, conf.Height), graphics.NewDevice(noop.New(), gfxLog), nil
	}
	if r.win == nil {
		win, err := window.Open(conf)
		if err != nil {
			return nil, nil, err
		}
		r.win = win
	} else {
		r.win.SetTitle(conf.Title)
	}
	backend, err := opengl.New()
	if err != nil {
		return nil, nil, err
	}
	device := graphics.NewDevice(backend, gfxLog)
	info := device.Info()
	logger.Printf("OpenGL %s on %s", info.Version, info.Renderer)
	return r.win, device, nil
}
