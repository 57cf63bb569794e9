package script

import (
	"fmt"
	"math"

	"fortio.org/safecast"
	lua "github.com/yuin/gopher-lua"
)

// Context is handed to a foreign method for the duration of one call.
// Argument indices are zero based and exclude the receiver.
type Context struct {
	vm      *VM
	L       *lua.LState
	class   *foreignClass
	first   int
	argc    int
	self    any
	cell    *Cell
	results []lua.LValue
}

// ArgError reports a foreign method argument of the wrong type.
type ArgError struct {
	Method string
	Index  int
	Want   string
	Got    string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("%s: argument %d must be %s, got %s", e.Method, e.Index+1, e.Want, e.Got)
}

func (c *Context) VM() *VM { return c.vm }

// Arity is the number of arguments passed, excluding the receiver.
func (c *Context) Arity() int { return c.argc }

// Self returns the borrowed receiver of an instance method.
func (c *Context) Self() any { return c.self }

// SelfCell returns the cell of the receiver, nil for statics and constructors.
func (c *Context) SelfCell() *Cell { return c.cell }

// Arg returns argument i as a raw script value.
func (c *Context) Arg(i int) lua.LValue {
	if i < 0 || i >= c.argc {
		return lua.LNil
	}
	return c.L.Get(c.first + i)
}

func (c *Context) argError(i int, want string) *ArgError {
	return &ArgError{Method: c.class.name, Index: i, Want: want, Got: c.Arg(i).Type().String()}
}

// Number returns argument i as a float64.
func (c *Context) Number(i int) (float64, error) {
	n, ok := c.Arg(i).(lua.LNumber)
	if !ok {
		return 0, c.argError(i, "a number")
	}
	return float64(n), nil
}

// Float32 returns argument i as a float32.
func (c *Context) Float32(i int) (float32, error) {
	n, err := c.Number(i)
	if err != nil {
		return 0, err
	}
	return float32(n), nil
}

// Int returns argument i, which must be an integral number.
func (c *Context) Int(i int) (int, error) {
	n, err := c.Number(i)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, c.argError(i, "an integer")
	}
	v, err := safecast.Convert[int](n)
	if err != nil {
		return 0, c.argError(i, "an integer in range")
	}
	return v, nil
}

// Int32 returns argument i as an int32.
func (c *Context) Int32(i int) (int32, error) {
	n, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	v, err := safecast.Conv[int32](n)
	if err != nil {
		return 0, c.argError(i, "a 32-bit integer")
	}
	return v, nil
}

// Uint32 returns argument i as a uint32.
func (c *Context) Uint32(i int) (uint32, error) {
	n, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, c.argError(i, "a non-negative 32-bit integer")
	}
	return v, nil
}

// String returns argument i as a string.
func (c *Context) String(i int) (string, error) {
	s, ok := c.Arg(i).(lua.LString)
	if !ok {
		return "", c.argError(i, "a string")
	}
	return string(s), nil
}

// Bool returns the truthiness of argument i.
func (c *Context) Bool(i int) bool { return lua.LVAsBool(c.Arg(i)) }

// Cell returns the cell of foreign instance argument i.
func (c *Context) Cell(i int) (*Cell, error) {
	cell, ok := CellOf(c.Arg(i))
	if !ok {
		return nil, c.argError(i, "a foreign instance")
	}
	return cell, nil
}

// Return sets the values returned to the script.
func (c *Context) Return(vals ...lua.LValue) { c.results = append(c.results, vals...) }

// ReturnNumber returns a number to the script.
func (c *Context) ReturnNumber(n float64) { c.Return(lua.LNumber(n)) }

// ReturnString returns a string to the script.
func (c *Context) ReturnString(s string) { c.Return(lua.LString(s)) }

// ReturnBool returns a boolean to the script.
func (c *Context) ReturnBool(b bool) { c.Return(lua.LBool(b)) }

// ReturnInstance wraps v as an instance of a loaded foreign class and returns it.
func (c *Context) ReturnInstance(module, class string, v any) error {
	ud, err := c.vm.NewInstance(module, class, v)
	if err != nil {
		return err
	}
	c.Return(ud)
	return nil
}

// BorrowArg takes a shared borrow of foreign argument i as T.
func BorrowArg[T any](c *Context, i int) (T, func(), error) {
	cell, err := c.Cell(i)
	if err != nil {
		var zero T
		return zero, nop, err
	}
	return Borrow[T](cell)
}

// BorrowMutArg takes the exclusive borrow of foreign argument i as T.
func BorrowMutArg[T any](c *Context, i int) (T, func(), error) {
	cell, err := c.Cell(i)
	if err != nil {
		var zero T
		return zero, nop, err
	}
	return BorrowMut[T](cell)
}

// ToValue converts a Go primitive into a script value. Script values pass
// through unchanged.
func ToValue(v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case int:
		return lua.LNumber(x), nil
	case int8:
		return lua.LNumber(x), nil
	case int16:
		return lua.LNumber(x), nil
	case int32:
		return lua.LNumber(x), nil
	case int64:
		return lua.LNumber(x), nil
	case uint:
		return lua.LNumber(x), nil
	case uint8:
		return lua.LNumber(x), nil
	case uint16:
		return lua.LNumber(x), nil
	case uint32:
		return lua.LNumber(x), nil
	case uint64:
		return lua.LNumber(x), nil
	case float32:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	default:
		return lua.LNil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}
