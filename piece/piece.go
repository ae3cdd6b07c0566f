// Package piece contains the falling pieces and the rules they move by.
//
// Three kinds of piece share the Mover capability: a two-cell Pair, a
// three-cell vertical Column and a Polyomino. They all collide against a
// board through Fits, which lets a piece hang partly above the top row
// without blocking it there.
package piece

import (
	"errors"
	"fmt"

	"blockfall/block"
	"blockfall/grid"
)

var (
	ErrInvalidArgument = block.ErrInvalidArgument
	ErrNegativeColumn  = fmt.Errorf("%w: negative piece column", ErrInvalidArgument)
	ErrNotColor        = fmt.Errorf("%w: piece blocks must be colors", ErrInvalidArgument)
	ErrNoShapes        = errors.New("no shape enabled")
)

// Cell is one block of a piece at its board position.
type Cell struct {
	Pos grid.Pos
	ID  block.ID
}

// Mover is what the player can do to any piece.
type Mover interface {
	MoveLeft(g grid.Reader[block.ID]) bool
	MoveRight(g grid.Reader[block.ID]) bool
	RotateLeft(g grid.Reader[block.ID]) bool
	RotateRight(g grid.Reader[block.ID]) bool
}

// Dropper is a Mover the board can also pull down and lock.
type Dropper interface {
	Mover
	MoveDown(g grid.Reader[block.ID]) bool
	Cells() []Cell
}

// Dir is one of the four unit offsets. y grows downward, so Up is (0,-1).
type Dir uint8

const (
	Up Dir = iota
	Right
	Down
	Left
)

var offsets = [4]grid.Pos{
	Up:    {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
}

func (d Dir) Offset() grid.Pos { return offsets[d&3] }

// CW is the next direction clockwise.
func (d Dir) CW() Dir  { return (d + 1) & 3 }
func (d Dir) CCW() Dir { return (d + 3) & 3 }

func (d Dir) String() string {
	return [4]string{"up", "right", "down", "left"}[d&3]
}

// Fits reports whether a piece may move from the before cells to the after
// cells. Cells may hang above the top row, but the move is rejected when it
// leaves more of them up there than before. Cells past the sides or the
// floor, and taken cells, always reject the move.
//
//	.	0 1 2
//	-1	. P .   <- above the board, allowed while the count does not grow
//	0	. P .
//	1	. X .
func Fits(g grid.Reader[block.ID], before, after []grid.Pos) bool {
	outBefore := 0
	for _, p := range before {
		if !g.HasPosition(p) {
			outBefore++
		}
	}
	outAfter := 0
	for _, p := range after {
		if p.X < 0 || p.X >= g.Width() || p.Y >= g.Height() {
			return false
		}
		if p.Y < 0 {
			outAfter++
			continue
		}
		if g.At(p) != block.Empty {
			return false
		}
	}
	return outAfter <= outBefore
}

// Lock writes cells into g. Cells outside the board are lost; lockedOut
// reports whether there were any.
func Lock(g grid.Accessor[block.ID], cells []Cell) (lockedOut bool) {
	for _, c := range cells {
		if !g.HasPosition(c.Pos) {
			lockedOut = true
			continue
		}
		g.Set(c.Pos, c.ID)
	}
	return lockedOut
}

// Positions returns the positions of cells.
func Positions(cells []Cell) []grid.Pos {
	ps := make([]grid.Pos, len(cells))
	for i, c := range cells {
		ps[i] = c.Pos
	}
	return ps
}

// DropDistance is how many rows p can fall before it lands.
func DropDistance(g grid.Reader[block.ID], p Dropper) int {
	ps := Positions(p.Cells())
	n := 0
	for {
		next := make([]grid.Pos, len(ps))
		for i, c := range ps {
			next[i] = c.Add(offsets[Down])
		}
		if !Fits(g, ps, next) {
			return n
		}
		ps = next
		n++
	}
}

// HardDrop moves p down until it lands and returns how many rows it fell.
func HardDrop(g grid.Reader[block.ID], p Dropper) int {
	n := 0
	for p.MoveDown(g) {
		n++
	}
	return n
}

func translate(ps []grid.Pos, d grid.Pos) []grid.Pos {
	out := make([]grid.Pos, len(ps))
	for i, p := range ps {
		out[i] = p.Add(d)
	}
	return out
}

func checkColors(ids ...block.ID) error {
	for _, id := range ids {
		if !id.IsColor() {
			return fmt.Errorf("%w: got %v", ErrNotColor, id)
		}
	}
	return nil
}
