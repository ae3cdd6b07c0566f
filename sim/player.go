package sim

import (
	"log/slog"
	"math/rand/v2"

	"blockfall/board"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/script"
)

// player presses controls once per frame, before the board updates.
type player interface {
	step() error
}

func newPlayer(b board.Board, r *rand.Rand, l *slog.Logger) player {
	switch b := b.(type) {
	case *board.Puyo:
		return bot{script.NewBot(b, l)}
	case *board.Clicker:
		return &clicker{b: b}
	}
	return &dropper{b: b, r: r}
}

type bot struct{ *script.Bot }

func (b bot) step() error { return b.Step() }

// dropper shifts every piece a random number of columns, then drops it.
type dropper struct {
	b      board.Board
	r      *rand.Rand
	pieces int
	shifts int
	held   *input.Control
}

func (d *dropper) step() error {
	if d.held != nil {
		c := *d.held
		d.held = nil
		return d.b.HandleEvents(input.Release(c))
	}
	v := d.b.View()
	if v.Phase != board.Falling {
		return nil
	}
	if v.Pieces != d.pieces {
		d.pieces = v.Pieces
		d.shifts = d.r.IntN(v.Width+1) - v.Width/2
	}
	c := input.Drop
	switch {
	case d.shifts < 0:
		c = input.Left
		d.shifts++
	case d.shifts > 0:
		c = input.Right
		d.shifts--
	}
	d.held = &c
	return d.b.HandleEvents(input.Press(c))
}

// clicker pops the first group it finds, scanning from the top left.
type clicker struct {
	b *board.Clicker
}

func (c *clicker) step() error {
	b := c.b
	if b.Phase() != board.AwaitingPiece || b.HasEffects() {
		return nil
	}
	need := b.Settings().PopRequirement
	g := b.Grid()
	for y := range g.Height() {
		for x := range g.Width() {
			p := grid.Pos{X: x, Y: y}
			if !g.At(p).IsColor() {
				continue
			}
			if err := b.Select(p); err != nil {
				return err
			}
			if len(b.Selection()) >= need {
				return b.Pop()
			}
		}
	}
	return nil
}
