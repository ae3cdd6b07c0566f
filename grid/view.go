package grid

import (
	"fmt"
	"iter"
)

// View aliases a rectangle of a parent grid. Writes go straight to the parent.
// A view must not be used after the parent is resized.
type View[T any] struct {
	parent        Accessor[T]
	offset        Pos
	width, height int
}

func (v *View[T]) Width() int  { return v.width }
func (v *View[T]) Height() int { return v.height }

func (v *View[T]) HasPosition(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < v.width && p.Y < v.height
}

func (v *View[T]) At(p Pos) T {
	v.check(p)
	return v.parent.At(p.Add(v.offset))
}

func (v *View[T]) Set(p Pos, val T) {
	v.check(p)
	v.parent.Set(p.Add(v.offset), val)
}

func (v *View[T]) Begin() Pos {
	if v.width == 0 || v.height == 0 {
		return v.End()
	}
	return Pos{}
}
func (v *View[T]) End() Pos               { return Pos{X: 0, Y: v.height} }
func (v *View[T]) Next(p Pos) Pos         { return next(p, v.width, v.height) }
func (v *View[T]) All() iter.Seq2[Pos, T] { return all[T](v) }

// Sub returns a nested read-write view, relative to this view.
func (v *View[T]) Sub(offset Pos, w, h int) *View[T] {
	checkRect[T](v, offset, w, h)
	return &View[T]{parent: v, offset: offset, width: w, height: h}
}

func (v *View[T]) check(p Pos) {
	if !v.HasPosition(p) {
		panic(fmt.Sprintf("grid: position %v out of view range %dx%d", p, v.width, v.height))
	}
}

// ReadOnlyView aliases a rectangle of a parent grid without write access.
type ReadOnlyView[T any] struct {
	parent        Reader[T]
	offset        Pos
	width, height int
}

func (v *ReadOnlyView[T]) Width() int  { return v.width }
func (v *ReadOnlyView[T]) Height() int { return v.height }

func (v *ReadOnlyView[T]) HasPosition(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < v.width && p.Y < v.height
}

func (v *ReadOnlyView[T]) At(p Pos) T {
	if !v.HasPosition(p) {
		panic(fmt.Sprintf("grid: position %v out of view range %dx%d", p, v.width, v.height))
	}
	return v.parent.At(p.Add(v.offset))
}

func (v *ReadOnlyView[T]) Begin() Pos {
	if v.width == 0 || v.height == 0 {
		return v.End()
	}
	return Pos{}
}
func (v *ReadOnlyView[T]) End() Pos               { return Pos{X: 0, Y: v.height} }
func (v *ReadOnlyView[T]) Next(p Pos) Pos         { return next(p, v.width, v.height) }
func (v *ReadOnlyView[T]) All() iter.Seq2[Pos, T] { return all[T](v) }
