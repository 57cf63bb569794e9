package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// File is the decoded gers.toml:
//
//	[window]
//	width = 800
//	height = 600
//	title = "My Game"
//
//	[frame]
//	fps_limit = 144
//	vsync = false
//	slow_frame_ms = 20
//	trace = false
//
//	[input]
//	map = "actions.toml"
//
//	[script]
//	paths = ["scripts", "vendor"]
type File struct {
	Window Window `toml:"window"`
	Frame  Frame  `toml:"frame"`
	Input  struct {
		Map string `toml:"map"`
	} `toml:"input"`
	Script struct {
		Paths []string `toml:"paths"`
	} `toml:"script"`

	md toml.MetaData
}

// Window is the [window] section. Zero fields mean "not configured".
type Window struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	Title  string `toml:"title"`
}

// Frame is the [frame] section.
type Frame struct {
	FPSLimit    int  `toml:"fps_limit"`
	VSync       bool `toml:"vsync"`
	SlowFrameMS int  `toml:"slow_frame_ms"`
	Trace       bool `toml:"trace"`
}

// Parse decodes a configuration file body.
func Parse(data string) (*File, error) {
	f := &File{}
	md, err := toml.Decode(data, f)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	f.md = md
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("config: unknown key %s", keys[0])
	}
	return f, nil
}

// Load reads a configuration file.
func Load(path string) (*File, error) {
	f := &File{}
	md, err := toml.DecodeFile(path, f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	f.md = md
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %s", path, keys[0])
	}
	return f, nil
}

// Apply sets the package-level frame settings for every key present in the
// file. Keys left out keep their current values.
func (f *File) Apply() {
	if f.md.IsDefined("frame", "fps_limit") {
		SetFPSLimit(f.Frame.FPSLimit)
	}
	if f.md.IsDefined("frame", "vsync") {
		SetVSync(f.Frame.VSync)
	}
	if f.md.IsDefined("frame", "slow_frame_ms") {
		SetSlowFrame(time.Duration(f.Frame.SlowFrameMS) * time.Millisecond)
	}
	if f.md.IsDefined("frame", "trace") {
		SetTrace(f.Frame.Trace)
	}
}
