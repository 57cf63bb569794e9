// Package collections provides the growable arrays scripts use to pass bulk
// data to the engine. One generic List backs every element type; the script
// classes U8Array..F64Array are generated from a single declaration table.
package collections

import "fmt"

// OutOfBoundsError reports an index outside [-size, size).
type OutOfBoundsError struct {
	Index int
	Size  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("index out of bounds: index %d, array size is %d", e.Index, e.Size)
}

// Offset converts a script index into a zero based offset. Negative indices
// count back from the end, so -1 is the last element.
func Offset(index, size int) (int, error) {
	if index < -size || index >= size {
		return 0, &OutOfBoundsError{Index: index, Size: size}
	}
	if index < 0 {
		return size + index, nil
	}
	return index, nil
}

// insertOffset is Offset for insertion points, which range over [0, size].
// -1 inserts after the last element.
func insertOffset(index, size int) (int, error) {
	if index < -size-1 || index > size {
		return 0, &OutOfBoundsError{Index: index, Size: size}
	}
	if index < 0 {
		return size + 1 + index, nil
	}
	return index, nil
}

// List is a growable sequence with script indexing rules.
type List[T any] struct {
	items []T
}

// NewList returns a list holding items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: items}
}

func (l *List[T]) Len() int { return len(l.items) }

// Items exposes the backing slice. It is invalidated by the next mutation.
func (l *List[T]) Items() []T { return l.items }

func (l *List[T]) Get(index int) (T, error) {
	i, err := Offset(index, len(l.items))
	if err != nil {
		var zero T
		return zero, err
	}
	return l.items[i], nil
}

func (l *List[T]) Set(index int, v T) error {
	i, err := Offset(index, len(l.items))
	if err != nil {
		return err
	}
	l.items[i] = v
	return nil
}

func (l *List[T]) Add(v T) { l.items = append(l.items, v) }

func (l *List[T]) Insert(index int, v T) error {
	i, err := insertOffset(index, len(l.items))
	if err != nil {
		return err
	}
	var zero T
	l.items = append(l.items, zero)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	return nil
}

func (l *List[T]) RemoveAt(index int) (T, error) {
	i, err := Offset(index, len(l.items))
	if err != nil {
		var zero T
		return zero, err
	}
	v := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return v, nil
}

func (l *List[T]) Clear() { l.items = l.items[:0] }

// Iterate implements the stateless iterator protocol. prev is nil on the
// first call. It returns the next index, or false when iteration is done.
func (l *List[T]) Iterate(prev *int) (int, bool) {
	if prev == nil {
		if len(l.items) == 0 {
			return 0, false
		}
		return 0, true
	}
	if *prev < 0 || *prev >= len(l.items)-1 {
		return 0, false
	}
	return *prev + 1, true
}

// IteratorValue returns the element at an index produced by Iterate.
func (l *List[T]) IteratorValue(index int) (T, error) {
	return l.Get(index)
}
