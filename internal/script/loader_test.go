package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseModulePath(t *testing.T) {
	p, err := ParseModulePath("gers.graphics")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("gers", "graphics.lua"); p.File != want {
		t.Fatalf("file = %q, want %q", p.File, want)
	}

	p, err = ParseModulePath("main")
	if err != nil || p.File != "main.lua" {
		t.Fatalf("got %+v %v", p, err)
	}
}

func TestParseModulePathErrors(t *testing.T) {
	tests := []struct {
		name    string
		kind    ModuleNameErrorKind
		pos     int
		snippet string
	}{
		{".foo", ModuleNameMissing, 0, "-->.foo"},
		{"foo..bar", ModuleNameMissing, 4, "foo.-->.bar"},
		{"foo bar", ModuleNameWhitespace, 3, "foo--> bar"},
		{"foo/bar", ModuleNameInvalidChar, 3, "foo-->/bar"},
		{"foo.", ModuleNameUnexpectedEnd, 3, "foo.<--"},
	}
	for _, tt := range tests {
		_, err := ParseModulePath(tt.name)
		var me *ModuleNameError
		if !errors.As(err, &me) {
			t.Fatalf("%q: got %v, want *ModuleNameError", tt.name, err)
		}
		if me.Kind != tt.kind || me.Pos != tt.pos || me.Snippet != tt.snippet {
			t.Errorf("%q: got %+v", tt.name, me)
		}
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "levels"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "levels", "intro.lua"), []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := Loaders{Builtins{"gers.core": "y = 2"}, &FileLoader{Roots: []string{t.TempDir(), dir}}}
	src, err := l.Load("levels.intro")
	if err != nil || src != "x = 1" {
		t.Fatalf("got %q %v", src, err)
	}
	if src, err := l.Load("gers.core"); err != nil || src != "y = 2" {
		t.Fatalf("got %q %v", src, err)
	}
	if _, err := l.Load("levels.missing"); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("got %v, want ErrModuleNotFound", err)
	}
	if _, err := l.Load("bad name"); errors.Is(err, ErrModuleNotFound) || err == nil {
		t.Fatalf("malformed name should not be reported as missing: %v", err)
	}
}
