package script

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// Loader resolves a module name to its source text. Implementations return
// an error wrapping ErrModuleNotFound when they do not know the module.
type Loader interface {
	Load(module string) (string, error)
}

// Builtins serves modules compiled into the binary.
type Builtins map[string]string

func (b Builtins) Load(module string) (string, error) {
	src, ok := b[module]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrModuleNotFound, module)
	}
	return src, nil
}

// Loaders tries each loader in order and returns the first hit.
type Loaders []Loader

func (ls Loaders) Load(module string) (string, error) {
	for _, l := range ls {
		src, err := l.Load(module)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrModuleNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrModuleNotFound, module)
}

// FileLoader maps dotted module names onto script files below its roots:
// "levels.intro" is looked up as "<root>/levels/intro.lua".
type FileLoader struct {
	Roots []string
	Log   *log.Logger
}

func (l *FileLoader) Load(module string) (string, error) {
	path, err := ParseModulePath(module)
	if err != nil {
		return "", err
	}
	for _, root := range l.Roots {
		full := filepath.Join(root, path.File)
		src, err := os.ReadFile(full)
		if err == nil {
			if l.Log != nil {
				l.Log.Printf("loaded module %s from %s", module, full)
			}
			return string(src), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("load module %s: %w", module, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrModuleNotFound, module)
}

// ModulePath is a validated module name and its relative script file.
type ModulePath struct {
	Name string
	File string
}

const (
	moduleDelimiter = '.'
	scriptExt       = ".lua"
)

// ModuleNameErrorKind classifies malformed module names.
type ModuleNameErrorKind int

const (
	ModuleNameMissing ModuleNameErrorKind = iota
	ModuleNameWhitespace
	ModuleNameInvalidChar
	ModuleNameUnexpectedEnd
)

// ModuleNameError points at the offending character of a module name.
type ModuleNameError struct {
	Kind    ModuleNameErrorKind
	Pos     int
	Snippet string
}

func (e *ModuleNameError) Error() string {
	var what string
	switch e.Kind {
	case ModuleNameMissing:
		what = "module name missing between delimiters"
	case ModuleNameWhitespace:
		what = "module name contains whitespace"
	case ModuleNameInvalidChar:
		what = "module name contains an invalid character"
	default:
		what = "module name ends unexpectedly"
	}
	return fmt.Sprintf("%s at %d: %s", what, e.Pos, e.Snippet)
}

// ParseModulePath validates name. Each dot separated part must be non-empty
// and made of ASCII letters, digits, '-' or '_'.
func ParseModulePath(name string) (ModulePath, error) {
	if name == "" {
		return ModulePath{}, &ModuleNameError{Kind: ModuleNameUnexpectedEnd, Snippet: "<--"}
	}
	var parts []string
	start := 0
	for pos, c := range name {
		switch {
		case c == moduleDelimiter:
			if pos == start {
				return ModulePath{}, moduleNameError(ModuleNameMissing, name, pos)
			}
			parts = append(parts, name[start:pos])
			start = pos + 1
		case c == ' ', c == '\t', c == '\r', c == '\n':
			return ModulePath{}, moduleNameError(ModuleNameWhitespace, name, pos)
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ModulePath{}, moduleNameError(ModuleNameInvalidChar, name, pos)
		}
	}
	if start == len(name) {
		return ModulePath{}, moduleNameError(ModuleNameUnexpectedEnd, name, len(name)-1)
	}
	parts = append(parts, name[start:]+scriptExt)
	return ModulePath{Name: name, File: filepath.Join(parts...)}, nil
}

func moduleNameError(kind ModuleNameErrorKind, name string, pos int) *ModuleNameError {
	var snippet string
	switch {
	case pos == 0:
		snippet = "-->" + name
	case pos == len(name)-1:
		snippet = name + "<--"
	default:
		snippet = name[:pos] + "-->" + name[pos:]
	}
	return &ModuleNameError{Kind: kind, Pos: pos, Snippet: snippet}
}
