package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetFrameSettings(t *testing.T) {
	t.Helper()
	limit, vsync, slow, trace := GetFPSLimit(), GetVSync(), GetSlowFrame(), GetTrace()
	t.Cleanup(func() {
		SetFPSLimit(limit)
		SetVSync(vsync)
		SetSlowFrame(slow)
		SetTrace(trace)
	})
}

func TestSetFPSLimitClamps(t *testing.T) {
	resetFrameSettings(t)
	tests := []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{144, 144},
		{5000, 1000},
	}
	for _, tt := range tests {
		SetFPSLimit(tt.in)
		if got := GetFPSLimit(); got != tt.want {
			t.Errorf("SetFPSLimit(%d): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestApplyKeepsUndefinedKeys(t *testing.T) {
	resetFrameSettings(t)
	SetFPSLimit(60)
	SetSlowFrame(16 * time.Millisecond)

	f, err := Parse(`
[window]
width = 800
title = "demo"

[frame]
slow_frame_ms = 40
trace = true
`)
	if err != nil {
		t.Fatal(err)
	}
	f.Apply()
	if GetFPSLimit() != 60 {
		t.Fatalf("fps limit changed to %d without fps_limit", GetFPSLimit())
	}
	if GetSlowFrame() != 40*time.Millisecond || !GetTrace() {
		t.Fatalf("slow frame %v, trace %v", GetSlowFrame(), GetTrace())
	}
	if f.Window.Width != 800 || f.Window.Height != 0 || f.Window.Title != "demo" {
		t.Fatalf("window %+v", f.Window)
	}

	f, err = Parse("[frame]\nfps_limit = 0\n")
	if err != nil {
		t.Fatal(err)
	}
	f.Apply()
	if GetFPSLimit() != 0 {
		t.Fatal("explicit zero fps_limit ignored")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gers.toml")
	body := "[input]\nmap = \"actions.toml\"\n\n[script]\npaths = [\"scripts\", \"lib\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Input.Map != "actions.toml" || len(f.Script.Paths) != 2 {
		t.Fatalf("decoded %+v", f)
	}

	if _, err := Parse("[frame]\nfps = 3\n"); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("unknown key accepted: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("missing file loaded")
	}
}
