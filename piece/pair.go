package piece

import (
	"fmt"

	"blockfall/block"
	"blockfall/grid"
)

// Pair is a two-cell piece: Pivot sits at Anchor, Satellite one step away in
// direction Dir. The offset is a Dir, so it is always a unit vector.
//
//	Dir Up      Dir Right
//	  S
//	  P           P S
type Pair struct {
	Anchor    grid.Pos
	Dir       Dir
	Pivot     block.ID
	Satellite block.ID
}

// NewPair spawns a pair in column x with the pivot on row 0 and the
// satellite above the board.
func NewPair(x int, pivot, satellite block.ID) (*Pair, error) {
	if x < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeColumn, x)
	}
	if err := checkColors(pivot, satellite); err != nil {
		return nil, err
	}
	return &Pair{Anchor: grid.Pos{X: x}, Dir: Up, Pivot: pivot, Satellite: satellite}, nil
}

func (p *Pair) positions() []grid.Pos {
	return []grid.Pos{p.Anchor, p.Anchor.Add(p.Dir.Offset())}
}

func (p *Pair) Cells() []Cell {
	return []Cell{
		{Pos: p.Anchor, ID: p.Pivot},
		{Pos: p.Anchor.Add(p.Dir.Offset()), ID: p.Satellite},
	}
}

func (p *Pair) move(g grid.Reader[block.ID], d grid.Pos) bool {
	before := p.positions()
	if !Fits(g, before, translate(before, d)) {
		return false
	}
	p.Anchor = p.Anchor.Add(d)
	return true
}

func (p *Pair) MoveLeft(g grid.Reader[block.ID]) bool  { return p.move(g, offsets[Left]) }
func (p *Pair) MoveRight(g grid.Reader[block.ID]) bool { return p.move(g, offsets[Right]) }
func (p *Pair) MoveDown(g grid.Reader[block.ID]) bool  { return p.move(g, offsets[Down]) }

func (p *Pair) RotateLeft(g grid.Reader[block.ID]) bool  { return p.rotate(g, p.Dir.CCW()) }
func (p *Pair) RotateRight(g grid.Reader[block.ID]) bool { return p.rotate(g, p.Dir.CW()) }

// rotate turns the satellite to d. When the satellite's new cell is blocked
// the whole pair is kicked one step away from it and tried once more.
//
//	.	0 1 2         .	0 1 2
//	0	. S .         0	. . .
//	1	. P X   ->    1	P S X
func (p *Pair) rotate(g grid.Reader[block.ID], d Dir) bool {
	before := p.positions()
	off := d.Offset()
	if Fits(g, before, []grid.Pos{p.Anchor, p.Anchor.Add(off)}) {
		p.Dir = d
		return true
	}
	kicked := p.Anchor.Add(off.Neg())
	if Fits(g, before, []grid.Pos{kicked, kicked.Add(off)}) {
		p.Anchor, p.Dir = kicked, d
		return true
	}
	return false
}
