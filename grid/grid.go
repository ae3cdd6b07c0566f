// Package grid contains the dense 2D container every board is built on.
//
// Positions are addressed as (x, y) with 0 <= x < width and 0 <= y < height.
// Row 0 is the top of the board, y grows downward.
//
//	.	0 1 2 3
//	0	. . . .
//	1	. . . .
//	2	. . . .
package grid

import (
	"fmt"
	"iter"
)

// Pos is a cell position or an offset between two positions.
type Pos struct {
	X, Y int
}

func (p Pos) Add(o Pos) Pos { return Pos{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Pos) Sub(o Pos) Pos { return Pos{X: p.X - o.X, Y: p.Y - o.Y} }
func (p Pos) Neg() Pos      { return Pos{X: -p.X, Y: -p.Y} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Reader is the read side of a grid or a view.
type Reader[T any] interface {
	Width() int
	Height() int
	At(p Pos) T
	HasPosition(p Pos) bool
}

// Accessor is a Reader that can also be written.
type Accessor[T any] interface {
	Reader[T]
	Set(p Pos, v T)
}

// Grid owns its backing storage. Width()*Height() == len(cells) at all times.
type Grid[T any] struct {
	width, height int
	cells         []T
}

func New[T any](width, height int) *Grid[T] {
	g := &Grid[T]{}
	g.SetSize(width, height)
	return g
}

func NewFilled[T any](width, height int, fill T) *Grid[T] {
	g := &Grid[T]{}
	g.SetSizeFill(width, height, fill)
	return g
}

// SetSize reallocates the storage. Existing content is dropped.
func (g *Grid[T]) SetSize(width, height int) {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("grid: negative size %dx%d", width, height))
	}
	g.width, g.height = width, height
	g.cells = make([]T, width*height)
}

// SetSizeFill reallocates the storage and fills every cell with fill.
func (g *Grid[T]) SetSizeFill(width, height int, fill T) {
	g.SetSize(width, height)
	g.Fill(fill)
}

func (g *Grid[T]) Width() int  { return g.width }
func (g *Grid[T]) Height() int { return g.height }

func (g *Grid[T]) HasPosition(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

func (g *Grid[T]) index(p Pos) int {
	if !g.HasPosition(p) {
		panic(fmt.Sprintf("grid: position %v out of range %dx%d", p, g.width, g.height))
	}
	return p.Y*g.width + p.X
}

func (g *Grid[T]) At(p Pos) T      { return g.cells[g.index(p)] }
func (g *Grid[T]) Set(p Pos, v T)  { g.cells[g.index(p)] = v }
func (g *Grid[T]) AtXY(x, y int) T { return g.At(Pos{X: x, Y: y}) }

func (g *Grid[T]) Fill(v T) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Clone returns a deep copy with its own storage.
func (g *Grid[T]) Clone() *Grid[T] {
	c := &Grid[T]{width: g.width, height: g.height, cells: make([]T, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// CopyFrom resizes g to src and copies every cell.
func (g *Grid[T]) CopyFrom(src Reader[T]) {
	if g.width != src.Width() || g.height != src.Height() {
		g.SetSize(src.Width(), src.Height())
	}
	if s, ok := src.(*Grid[T]); ok {
		copy(g.cells, s.cells)
		return
	}
	for p := g.Begin(); p != g.End(); p = g.Next(p) {
		g.cells[p.Y*g.width+p.X] = src.At(p)
	}
}

// Begin is the first position in raster order, End() for an empty grid.
func (g *Grid[T]) Begin() Pos {
	if g.width == 0 || g.height == 0 {
		return g.End()
	}
	return Pos{}
}

// End is the sentinel returned by Next after the last cell.
func (g *Grid[T]) End() Pos { return Pos{X: 0, Y: g.height} }

// Next advances p in raster order: left to right, top to bottom.
func (g *Grid[T]) Next(p Pos) Pos { return next(p, g.width, g.height) }

// All yields every position and value in raster order.
func (g *Grid[T]) All() iter.Seq2[Pos, T] { return all[T](g) }

// Sub returns a read-write view of the w x h rectangle at offset.
func (g *Grid[T]) Sub(offset Pos, w, h int) *View[T] {
	checkRect(g, offset, w, h)
	return &View[T]{parent: g, offset: offset, width: w, height: h}
}

// SubRest returns a read-write view from offset to the bottom-right corner.
func (g *Grid[T]) SubRest(offset Pos) *View[T] {
	return g.Sub(offset, g.width-offset.X, g.height-offset.Y)
}

// ReadOnly returns a read-only view of the w x h rectangle at offset.
func (g *Grid[T]) ReadOnly(offset Pos, w, h int) *ReadOnlyView[T] {
	checkRect(g, offset, w, h)
	return &ReadOnlyView[T]{parent: g, offset: offset, width: w, height: h}
}

func next(p Pos, width, height int) Pos {
	p.X++
	if p.X >= width {
		p.X = 0
		p.Y++
	}
	if p.Y >= height {
		return Pos{X: 0, Y: height}
	}
	return p
}

func all[T any](r Reader[T]) iter.Seq2[Pos, T] {
	return func(yield func(Pos, T) bool) {
		for y := range r.Height() {
			for x := range r.Width() {
				p := Pos{X: x, Y: y}
				if !yield(p, r.At(p)) {
					return
				}
			}
		}
	}
}

func checkRect[T any](parent Reader[T], offset Pos, w, h int) {
	if w < 0 || h < 0 || offset.X < 0 || offset.Y < 0 ||
		offset.X+w > parent.Width() || offset.Y+h > parent.Height() {
		panic(fmt.Sprintf("grid: view %dx%d at %v does not fit %dx%d", w, h, offset, parent.Width(), parent.Height()))
	}
}
