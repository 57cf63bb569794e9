package script

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fatih/color"
	lua "github.com/yuin/gopher-lua"
)

var (
	ErrModuleNotFound   = errors.New("module not found")
	ErrUnknownVariable  = errors.New("unknown module variable")
	ErrUnresolved       = errors.New("function symbol could not be resolved")
	ErrStaleRef         = errors.New("call reference used outside the context it was made in")
	ErrClassNotLoaded   = errors.New("foreign class is not loaded")
	ErrUnsupportedValue = errors.New("value cannot be passed to the script runtime")
)

// ErrorKind separates failures to load code from failures while running it.
type ErrorKind int

const (
	RuntimeError ErrorKind = iota
	CompileError
)

func (k ErrorKind) String() string {
	if k == CompileError {
		return "compile error"
	}
	return "runtime error"
}

// Frame is one entry of a script call stack. Foreign frames are Go functions
// called from the script.
type Frame struct {
	Module   string
	Line     int
	Function string
	Foreign  bool
}

func (f Frame) String() string {
	fn := f.Function
	if fn == "" {
		fn = "<anonymous>"
	}
	if f.Foreign {
		return fmt.Sprintf("[foreign] %s", fn)
	}
	return fmt.Sprintf("%s:%d in %s", f.Module, f.Line, fn)
}

// Error is a script failure with the stack it unwound through.
type Error struct {
	Kind    ErrorKind
	Module  string
	Message string
	// Foreign is the Go error raised by a foreign method, if that is how the
	// script failed.
	Foreign error
	Frames  []Frame
}

func (e *Error) Error() string {
	if e.Module != "" && e.Kind == CompileError {
		return fmt.Sprintf("%s in %s: %s", e.Kind, e.Module, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Foreign }

// Trace formats the error message followed by one line per frame.
func (e *Error) Trace() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, f := range e.Frames {
		b.WriteString("\n  at ")
		b.WriteString(f.String())
	}
	return b.String()
}

var (
	errorHeader  = color.New(color.FgRed, color.Bold)
	scriptFrame  = color.New(color.FgYellow)
	foreignFrame = color.New(color.FgHiBlack)
)

// LogError writes err to l. Script errors are expanded frame by frame.
func LogError(l *log.Logger, context string, err error) {
	var se *Error
	if !errors.As(err, &se) {
		l.Printf("%s: %v", context, err)
		return
	}
	l.Printf("%s: %s", context, errorHeader.Sprint(se.Error()))
	if se.Foreign != nil {
		l.Printf("  caused by %T", se.Foreign)
	}
	for _, f := range se.Frames {
		if f.Foreign {
			l.Printf("  at %s", foreignFrame.Sprint(f.String()))
		} else {
			l.Printf("  at %s", scriptFrame.Sprint(f.String()))
		}
	}
}

// foreignError carries a Go error through the script as an error value.
type foreignError struct {
	err error
}

func (vm *VM) raise(L *lua.LState, err error) {
	ud := L.NewUserData()
	ud.Value = &foreignError{err: err}
	ud.Metatable = vm.errMeta
	L.Error(ud, 1)
}

func (vm *VM) newErrorMeta() *lua.LTable {
	mt := vm.L.NewTable()
	vm.L.SetField(mt, "__tostring", vm.L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		if fe, ok := ud.Value.(*foreignError); ok {
			L.Push(lua.LString(fe.err.Error()))
			return 1
		}
		L.Push(lua.LString("foreign error"))
		return 1
	}))
	vm.L.SetField(mt, "__name", lua.LString("ForeignError"))
	return mt
}

// wrapError turns a failed protected call into *Error.
func wrapError(err error, frames []Frame) *Error {
	se := &Error{Kind: RuntimeError, Frames: frames, Message: err.Error()}
	var ae *lua.ApiError
	if !errors.As(err, &ae) {
		return se
	}
	if ae.Type == lua.ApiErrorSyntax {
		se.Kind = CompileError
	}
	switch obj := ae.Object.(type) {
	case *lua.LUserData:
		if fe, ok := obj.Value.(*foreignError); ok {
			se.Foreign = fe.err
			se.Message = fe.err.Error()
		}
	case lua.LString:
		se.Message = string(obj)
	case nil:
	default:
		se.Message = obj.String()
	}
	return se
}
