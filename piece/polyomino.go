package piece

import (
	"fmt"

	"blockfall/block"
	"blockfall/grid"
)

// Polyomino is a shape from the catalog at a board position.
type Polyomino struct {
	Anchor  grid.Pos
	Kind    Kind
	ID      block.ID
	rotates bool
	// offsets from Anchor in the current orientation
	offsets []grid.Pos
}

// NewPolyomino spawns k in column x with its top row on row 0.
func NewPolyomino(k Kind, x int) (*Polyomino, error) {
	if x < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeColumn, x)
	}
	if k >= numKinds {
		return nil, fmt.Errorf("%w: unknown shape %d", ErrInvalidArgument, k)
	}
	s := ShapeOf(k)
	top := 0
	for _, c := range s.Cells {
		top = min(top, c.Y)
	}
	return &Polyomino{
		Anchor:  grid.Pos{X: x, Y: -top},
		Kind:    k,
		ID:      s.Color,
		rotates: s.Rotates,
		offsets: s.Cells,
	}, nil
}

// SpawnColumn is the anchor column that centres k on a board width wide.
func SpawnColumn(k Kind, width int) int {
	lo, hi := 0, 0
	for _, c := range shapes[k].Cells {
		lo, hi = min(lo, c.X), max(hi, c.X)
	}
	return max((width-(hi-lo+1))/2-lo, 0)
}

func (p *Polyomino) positions() []grid.Pos {
	ps := make([]grid.Pos, len(p.offsets))
	for i, o := range p.offsets {
		ps[i] = p.Anchor.Add(o)
	}
	return ps
}

func (p *Polyomino) Cells() []Cell {
	cells := make([]Cell, len(p.offsets))
	for i, o := range p.offsets {
		cells[i] = Cell{Pos: p.Anchor.Add(o), ID: p.ID}
	}
	return cells
}

func (p *Polyomino) move(g grid.Reader[block.ID], d grid.Pos) bool {
	before := p.positions()
	if !Fits(g, before, translate(before, d)) {
		return false
	}
	p.Anchor = p.Anchor.Add(d)
	return true
}

func (p *Polyomino) MoveLeft(g grid.Reader[block.ID]) bool  { return p.move(g, offsets[Left]) }
func (p *Polyomino) MoveRight(g grid.Reader[block.ID]) bool { return p.move(g, offsets[Right]) }
func (p *Polyomino) MoveDown(g grid.Reader[block.ID]) bool  { return p.move(g, offsets[Down]) }

// RotateRight turns the piece 90 degrees clockwise about its anchor.
//
//	.	-1 0 1        .	-1 0 1
//	-1	 X O X        -1	 X O X
//	0	 O A O   ->   0	 X A O
//	1	 X X X        1	 X O X
func (p *Polyomino) RotateRight(g grid.Reader[block.ID]) bool {
	return p.rotate(g, func(o grid.Pos) grid.Pos { return grid.Pos{X: -o.Y, Y: o.X} })
}

func (p *Polyomino) RotateLeft(g grid.Reader[block.ID]) bool {
	return p.rotate(g, func(o grid.Pos) grid.Pos { return grid.Pos{X: o.Y, Y: -o.X} })
}

func (p *Polyomino) rotate(g grid.Reader[block.ID], turn func(grid.Pos) grid.Pos) bool {
	if !p.rotates {
		return false
	}
	turned := make([]grid.Pos, len(p.offsets))
	after := make([]grid.Pos, len(p.offsets))
	for i, o := range p.offsets {
		turned[i] = turn(o)
		after[i] = p.Anchor.Add(turned[i])
	}
	if !Fits(g, p.positions(), after) {
		return false
	}
	p.offsets = turned
	return true
}

// Ghost returns where the piece would land.
func (p *Polyomino) Ghost(g grid.Reader[block.ID]) []grid.Pos {
	return translate(p.positions(), grid.Pos{Y: DropDistance(g, p)})
}
