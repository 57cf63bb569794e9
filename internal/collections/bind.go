package collections

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"fortio.org/safecast"
	lua "github.com/yuin/gopher-lua"

	"gers/internal/script"
)

// Module is the script module that declares the array classes.
const Module = "gers.collections"

// Number is the set of element types with a script array class.
type Number interface {
	uint8 | uint16 | uint32 | int8 | int16 | int32 | float32 | float64
}

// Class names of the typed arrays.
const (
	U8Array  = "U8Array"
	U16Array = "U16Array"
	U32Array = "U32Array"
	I8Array  = "I8Array"
	I16Array = "I16Array"
	I32Array = "I32Array"
	F32Array = "F32Array"
	F64Array = "F64Array"
)

// arrayDecls is the single source of both the native registration and the
// generated script declarations.
var arrayDecls = []string{
	"construct new()",
	"construct new(_)",
	"get(_)",
	"set(_,_)",
	"add(_)",
	"insert(_,_)",
	"removeAt(_)",
	"clear()",
	"count()",
	"iterate(_)",
	"iteratorValue(_)",
}

var classes = []string{U8Array, U16Array, U32Array, I8Array, I16Array, I32Array, F32Array, F64Array}

var stubTemplate = template.Must(template.New("arrays").Parse(`-- generated typed array classes
{{- range .Classes}}

{{.}} = foreign.class("{{.}}", {
{{- range $.Decls}}
  "{{.}}",
{{- end}}
})

function {{.}}:items()
  local cursor = nil
  return function()
    cursor = self:iterate(cursor)
    if cursor == false then
      return nil
    end
    return cursor, self:iteratorValue(cursor)
  end
end
{{- end}}
`))

// Source is the script source of Module.
var Source = generateSource()

func generateSource() string {
	var b strings.Builder
	err := stubTemplate.Execute(&b, struct {
		Classes []string
		Decls   []string
	}{classes, arrayDecls})
	if err != nil {
		panic(err)
	}
	return b.String()
}

// ElementError reports a script number that does not fit an array's element type.
type ElementError struct {
	Class string
	Value float64
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("%s cannot hold value %v", e.Class, e.Value)
}

// Register binds every typed array class on vm.
func Register(vm *script.VM) {
	m := vm.Module(Module)
	bindArray[uint8](m.Class(U8Array), U8Array)
	bindArray[uint16](m.Class(U16Array), U16Array)
	bindArray[uint32](m.Class(U32Array), U32Array)
	bindArray[int8](m.Class(I8Array), I8Array)
	bindArray[int16](m.Class(I16Array), I16Array)
	bindArray[int32](m.Class(I32Array), I32Array)
	bindArray[float32](m.Class(F32Array), F32Array)
	bindArray[float64](m.Class(F64Array), F64Array)
}

func convert[T Number](class string, n float64) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return T(n), nil
	}
	if n != math.Trunc(n) {
		return zero, &ElementError{Class: class, Value: n}
	}
	v, err := safecast.Convert[T](n)
	if err != nil {
		return zero, &ElementError{Class: class, Value: n}
	}
	return v, nil
}

func element[T Number](c *script.Context, class string, i int) (T, error) {
	n, err := c.Number(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return convert[T](class, n)
}

func listOf[T Number](c *script.Context) *List[T] { return c.Self().(*List[T]) }

func bindArray[T Number](cb *script.ClassBuilder, class string) {
	cb.Construct("new()", func(c *script.Context) (any, error) {
		return NewList[T](), nil
	})
	cb.Construct("new(_)", func(c *script.Context) (any, error) {
		tbl, ok := c.Arg(0).(*lua.LTable)
		if !ok {
			return nil, &script.ArgError{Method: class + ".new", Index: 0, Want: "a table", Got: c.Arg(0).Type().String()}
		}
		l := NewList[T]()
		for i := 1; i <= tbl.Len(); i++ {
			n, ok := tbl.RawGetInt(i).(lua.LNumber)
			if !ok {
				return nil, &script.ArgError{Method: class + ".new", Index: 0, Want: "a table of numbers", Got: tbl.RawGetInt(i).Type().String()}
			}
			v, err := convert[T](class, float64(n))
			if err != nil {
				return nil, err
			}
			l.Add(v)
		}
		return l, nil
	})
	cb.Method("get(_)", func(c *script.Context) error {
		index, err := c.Int(0)
		if err != nil {
			return err
		}
		v, err := listOf[T](c).Get(index)
		if err != nil {
			return err
		}
		c.ReturnNumber(float64(v))
		return nil
	})
	cb.MutMethod("set(_,_)", func(c *script.Context) error {
		index, err := c.Int(0)
		if err != nil {
			return err
		}
		v, err := element[T](c, class, 1)
		if err != nil {
			return err
		}
		return listOf[T](c).Set(index, v)
	})
	cb.MutMethod("add(_)", func(c *script.Context) error {
		v, err := element[T](c, class, 0)
		if err != nil {
			return err
		}
		listOf[T](c).Add(v)
		return nil
	})
	cb.MutMethod("insert(_,_)", func(c *script.Context) error {
		index, err := c.Int(0)
		if err != nil {
			return err
		}
		v, err := element[T](c, class, 1)
		if err != nil {
			return err
		}
		return listOf[T](c).Insert(index, v)
	})
	cb.MutMethod("removeAt(_)", func(c *script.Context) error {
		index, err := c.Int(0)
		if err != nil {
			return err
		}
		v, err := listOf[T](c).RemoveAt(index)
		if err != nil {
			return err
		}
		c.ReturnNumber(float64(v))
		return nil
	})
	cb.MutMethod("clear()", func(c *script.Context) error {
		listOf[T](c).Clear()
		return nil
	})
	cb.Method("count()", func(c *script.Context) error {
		c.ReturnNumber(float64(listOf[T](c).Len()))
		return nil
	})
	cb.Method("iterate(_)", func(c *script.Context) error {
		var prev *int
		if c.Arg(0) != lua.LNil {
			i, err := c.Int(0)
			if err != nil {
				return err
			}
			prev = &i
		}
		next, ok := listOf[T](c).Iterate(prev)
		if !ok {
			c.ReturnBool(false)
			return nil
		}
		c.ReturnNumber(float64(next))
		return nil
	})
	cb.Method("iteratorValue(_)", func(c *script.Context) error {
		index, err := c.Int(0)
		if err != nil {
			return err
		}
		v, err := listOf[T](c).IteratorValue(index)
		if err != nil {
			return err
		}
		c.ReturnNumber(float64(v))
		return nil
	})
}
