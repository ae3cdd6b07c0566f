package piece

import (
	"fmt"

	"blockfall/block"
	"blockfall/grid"
)

// Column is a vertical stack of three blocks. Its shape never changes:
// rotating it cycles the colors through the three slots.
//
//	top     Anchor - 2
//	mid     Anchor - 1
//	bottom  Anchor
type Column struct {
	Anchor grid.Pos
	// blocks is bottom first
	blocks [3]block.ID
}

// NewColumn spawns a column in x with its bottom block on row 0 and the
// other two above the board.
func NewColumn(x int, bottom, mid, top block.ID) (*Column, error) {
	if x < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeColumn, x)
	}
	if err := checkColors(bottom, mid, top); err != nil {
		return nil, err
	}
	return &Column{Anchor: grid.Pos{X: x}, blocks: [3]block.ID{bottom, mid, top}}, nil
}

// Blocks returns the colors bottom first.
func (c *Column) Blocks() [3]block.ID { return c.blocks }

// RotateDown moves every color one slot toward the bottom. The bottom color
// wraps around to the top.
func (c *Column) RotateDown() {
	b := c.blocks
	c.blocks = [3]block.ID{b[1], b[2], b[0]}
}

// RotateUp undoes RotateDown.
func (c *Column) RotateUp() {
	b := c.blocks
	c.blocks = [3]block.ID{b[2], b[0], b[1]}
}

func (c *Column) positions() []grid.Pos {
	return []grid.Pos{c.Anchor, c.Anchor.Add(grid.Pos{Y: -1}), c.Anchor.Add(grid.Pos{Y: -2})}
}

func (c *Column) Cells() []Cell {
	ps := c.positions()
	cells := make([]Cell, 3)
	for i := range cells {
		cells[i] = Cell{Pos: ps[i], ID: c.blocks[i]}
	}
	return cells
}

func (c *Column) move(g grid.Reader[block.ID], d grid.Pos) bool {
	before := c.positions()
	if !Fits(g, before, translate(before, d)) {
		return false
	}
	c.Anchor = c.Anchor.Add(d)
	return true
}

func (c *Column) MoveLeft(g grid.Reader[block.ID]) bool  { return c.move(g, offsets[Left]) }
func (c *Column) MoveRight(g grid.Reader[block.ID]) bool { return c.move(g, offsets[Right]) }
func (c *Column) MoveDown(g grid.Reader[block.ID]) bool  { return c.move(g, offsets[Down]) }

// RotateLeft never collides: the cells stay where they are.
func (c *Column) RotateLeft(grid.Reader[block.ID]) bool {
	c.RotateUp()
	return true
}

func (c *Column) RotateRight(grid.Reader[block.ID]) bool {
	c.RotateDown()
	return true
}
