// Package gravity moves blocks down a board.
//
// Every algorithm works in place on a grid or a view and reports what happened
// through Effects, so animation code never needs to know how blocks moved.
package gravity

import (
	"fmt"

	"blockfall/block"
	"blockfall/grid"
)

var (
	ErrInvalidArgument   = block.ErrInvalidArgument
	ErrDimensionMismatch = fmt.Errorf("%w: grid dimensions differ", ErrInvalidArgument)
)

// Effects receives one call per non-empty cell for every pass, bracketed by
// Start and Finish.
type Effects interface {
	Start()
	Stationary(p grid.Pos, id block.ID)
	Falling(from, to grid.Pos, id block.ID)
	Finish()
}

// NoEffects discards every callback.
type NoEffects struct{}

func (NoEffects) Start()                               {}
func (NoEffects) Stationary(grid.Pos, block.ID)        {}
func (NoEffects) Falling(grid.Pos, grid.Pos, block.ID) {}
func (NoEffects) Finish()                              {}

func orNone(fx Effects) Effects {
	if fx == nil {
		return NoEffects{}
	}
	return fx
}

func falling(fx Effects, from, to grid.Pos, id block.ID) {
	if from == to {
		panic(fmt.Sprintf("gravity: fall from %v to itself", from))
	}
	fx.Falling(from, to, id)
}

// MakeBlocksFall performs one discrete fall step. In every column the lowest
// empty cell receives the nearest block above it. It returns false once the
// board is settled, so it can be called every tick until then.
//
//	before   after
//	  .        .
//	  R        .
//	  .   ->   R
//	  R        R
//	  R        R
func MakeBlocksFall(g grid.Accessor[block.ID], fx Effects) bool {
	fx = orNone(fx)
	w, h := g.Width(), g.Height()

	// source row per column, -1 when nothing moves
	src := make([]int, w)
	dst := make([]int, w)
	moved := false
	for x := range w {
		src[x] = -1
		empty := -1
		for y := h - 1; y >= 0; y-- {
			if g.At(grid.Pos{X: x, Y: y}) == block.Empty {
				empty = y
				break
			}
		}
		if empty < 0 {
			continue
		}
		for y := empty - 1; y >= 0; y-- {
			if g.At(grid.Pos{X: x, Y: y}) != block.Empty {
				src[x], dst[x] = y, empty
				moved = true
				break
			}
		}
	}

	fx.Start()
	for y := range h {
		for x := range w {
			p := grid.Pos{X: x, Y: y}
			id := g.At(p)
			if id == block.Empty || y == src[x] {
				continue
			}
			fx.Stationary(p, id)
		}
	}
	for x := range w {
		if src[x] < 0 {
			continue
		}
		from, to := grid.Pos{X: x, Y: src[x]}, grid.Pos{X: x, Y: dst[x]}
		id := g.At(from)
		g.Set(to, id)
		g.Set(from, block.Empty)
		falling(fx, from, to, id)
	}
	fx.Finish()
	return moved
}

// Settle compacts every column in one pass, keeping the order of the blocks.
// It returns whether anything moved.
func Settle(g grid.Accessor[block.ID], fx Effects) bool {
	fx = orNone(fx)
	w, h := g.Width(), g.Height()
	moved := false

	fx.Start()
	for x := range w {
		write := h - 1
		for read := h - 1; read >= 0; read-- {
			from := grid.Pos{X: x, Y: read}
			id := g.At(from)
			if id == block.Empty {
				continue
			}
			to := grid.Pos{X: x, Y: write}
			if read != write {
				g.Set(to, id)
				g.Set(from, block.Empty)
				falling(fx, from, to, id)
				moved = true
			} else {
				fx.Stationary(from, id)
			}
			write--
		}
	}
	fx.Finish()
	return moved
}

// FallRows shifts rows down over fully empty rows, as left behind by a line
// clear. Rows with no empty row below them stay where they are. It returns the
// number of blocks that moved.
func FallRows(g grid.Accessor[block.ID], fx Effects) int {
	fx = orNone(fx)
	w, h := g.Width(), g.Height()
	cleared, moved := 0, 0

	fx.Start()
	for y := h - 1; y >= 0; y-- {
		if rowEmpty(g, y) {
			cleared++
			continue
		}
		for x := range w {
			from := grid.Pos{X: x, Y: y}
			id := g.At(from)
			if id == block.Empty {
				continue
			}
			if cleared == 0 {
				fx.Stationary(from, id)
				continue
			}
			to := grid.Pos{X: x, Y: y + cleared}
			g.Set(to, id)
			g.Set(from, block.Empty)
			falling(fx, from, to, id)
			moved++
		}
	}
	fx.Finish()
	return moved
}

// DrainAll drops every block out through the bottom of the board. The grid is
// empty when it returns; the fall is reported as moving each block one board
// height down. It returns the number of blocks drained.
func DrainAll(g grid.Accessor[block.ID], fx Effects) int {
	fx = orNone(fx)
	h := g.Height()
	n := 0

	fx.Start()
	for y := h - 1; y >= 0; y-- {
		for x := range g.Width() {
			from := grid.Pos{X: x, Y: y}
			id := g.At(from)
			if id == block.Empty {
				continue
			}
			g.Set(from, block.Empty)
			falling(fx, from, grid.Pos{X: x, Y: y + h}, id)
			n++
		}
	}
	fx.Finish()
	return n
}

// FallIn moves the blocks of incoming into the lowest empty run of each column
// of g, bottom block first. Incoming is seen as stacked right above the board:
// a block in incoming row y starts its fall at row y-height. Transferred cells
// are removed from incoming; blocks that do not fit stay there.
// It returns the number of transferred blocks.
func FallIn(g, incoming grid.Accessor[block.ID], fx Effects) (int, error) {
	if g.Width() != incoming.Width() || g.Height() != incoming.Height() {
		return 0, fmt.Errorf("%w: board %dx%d, incoming %dx%d", ErrDimensionMismatch,
			g.Width(), g.Height(), incoming.Width(), incoming.Height())
	}
	fx = orNone(fx)
	w, h := g.Width(), g.Height()

	fx.Start()
	for p := range cells(g) {
		fx.Stationary(p, g.At(p))
	}

	n := 0
	for x := range w {
		bottom := -1
		for y := h - 1; y >= 0; y-- {
			if g.At(grid.Pos{X: x, Y: y}) == block.Empty {
				bottom = y
				break
			}
		}
		if bottom < 0 {
			continue
		}
		top := bottom
		for top > 0 && g.At(grid.Pos{X: x, Y: top - 1}) == block.Empty {
			top--
		}

		dst := bottom
		for iy := h - 1; iy >= 0 && dst >= top; iy-- {
			src := grid.Pos{X: x, Y: iy}
			id := incoming.At(src)
			if id == block.Empty {
				continue
			}
			to := grid.Pos{X: x, Y: dst}
			g.Set(to, id)
			incoming.Set(src, block.Empty)
			falling(fx, grid.Pos{X: x, Y: iy - h}, to, id)
			dst--
			n++
		}
	}
	fx.Finish()
	return n, nil
}

// IsSettled reports whether no block has an empty cell below it.
func IsSettled(g grid.Reader[block.ID]) bool {
	for x := range g.Width() {
		seenEmpty := false
		for y := g.Height() - 1; y >= 0; y-- {
			id := g.At(grid.Pos{X: x, Y: y})
			if id == block.Empty {
				seenEmpty = true
			} else if seenEmpty {
				return false
			}
		}
	}
	return true
}

func rowEmpty(g grid.Reader[block.ID], y int) bool {
	for x := range g.Width() {
		if g.At(grid.Pos{X: x, Y: y}) != block.Empty {
			return false
		}
	}
	return true
}

// cells yields the non-empty positions of g in raster order.
func cells(g grid.Reader[block.ID]) func(func(grid.Pos) bool) {
	return func(yield func(grid.Pos) bool) {
		for y := range g.Height() {
			for x := range g.Width() {
				p := grid.Pos{X: x, Y: y}
				if g.At(p) != block.Empty && !yield(p) {
					return
				}
			}
		}
	}
}
