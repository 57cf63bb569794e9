package script

import "fmt"

// Cell holds a native value whose owner is the script heap. Native code
// reaches the value only through short-lived borrows: many shared borrows or
// one exclusive borrow at a time. Cells are not safe for concurrent use; they
// live on the VM thread.
type Cell struct {
	class string
	value any
	// >0: number of shared borrows, -1: exclusively borrowed
	state int
}

// NewCell wraps value for the foreign class named class.
func NewCell(class string, value any) *Cell {
	return &Cell{class: class, value: value}
}

// Class returns the foreign class name of the wrapped value.
func (c *Cell) Class() string { return c.class }

// BorrowError reports an aliasing violation on a Cell.
type BorrowError struct {
	Class   string
	Mutable bool
}

func (e *BorrowError) Error() string {
	if e.Mutable {
		return fmt.Sprintf("cannot borrow %s mutably: already borrowed", e.Class)
	}
	return fmt.Sprintf("cannot borrow %s: already mutably borrowed", e.Class)
}

// TypeError reports a cell whose value is not the type native code expected.
type TypeError struct {
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Want, e.Got)
}

// Borrow takes a shared borrow. The returned release function must be called
// exactly once; extra calls are ignored.
func (c *Cell) Borrow() (any, func(), error) {
	if c.state < 0 {
		return nil, nop, &BorrowError{Class: c.class}
	}
	c.state++
	return c.value, c.releaser(false), nil
}

// BorrowMut takes the exclusive borrow.
func (c *Cell) BorrowMut() (any, func(), error) {
	if c.state != 0 {
		return nil, nop, &BorrowError{Class: c.class, Mutable: true}
	}
	c.state = -1
	return c.value, c.releaser(true), nil
}

// Borrowed reports whether any borrow is outstanding.
func (c *Cell) Borrowed() bool { return c.state != 0 }

func (c *Cell) releaser(mutable bool) func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		if mutable {
			c.state = 0
		} else {
			c.state--
		}
	}
}

func nop() {}

// Borrow takes a shared borrow of c and asserts the wrapped value to T.
func Borrow[T any](c *Cell) (T, func(), error) {
	v, release, err := c.Borrow()
	return typed[T](c, v, release, err)
}

// BorrowMut takes the exclusive borrow of c and asserts the wrapped value to T.
func BorrowMut[T any](c *Cell) (T, func(), error) {
	v, release, err := c.BorrowMut()
	return typed[T](c, v, release, err)
}

func typed[T any](c *Cell, v any, release func(), err error) (T, func(), error) {
	var zero T
	if err != nil {
		return zero, release, err
	}
	t, ok := v.(T)
	if !ok {
		release()
		return zero, nop, &TypeError{Want: fmt.Sprintf("%T", zero), Got: c.class}
	}
	return t, release, nil
}
