package board

import (
	"fmt"
	"log/slog"

	"blockfall/block"
	"blockfall/gravity"
	"blockfall/match"
	"blockfall/piece"
	"blockfall/settings"
)

// Columns drops vertical stacks of three. Straight runs of PopRequirement
// or more, in any of the four directions, pop.
type Columns struct {
	*base
	next *[3]block.ID
}

func NewColumns(s settings.Settings, l *slog.Logger) (*Columns, error) {
	b, err := newBase(s, l, s.PopRequirement)
	if err != nil {
		return nil, err
	}
	c := &Columns{base: b}
	b.rules = c
	return c, nil
}

func (c *Columns) IsReady() bool {
	return c.ready() == nil && c.phase != GameOver && c.next == nil
}

// PushColumn queues the next column, bottom block first.
func (c *Columns) PushColumn(bottom, mid, top block.ID) error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.phase == GameOver {
		return ErrGameOver
	}
	if c.next != nil {
		c.l.Warn("column rejected", slog.String("error", ErrPieceQueued.Error()))
		return ErrPieceQueued
	}
	for _, id := range []block.ID{bottom, mid, top} {
		if !id.IsColor() {
			return fmt.Errorf("%w: %s", piece.ErrNotColor, id)
		}
	}
	c.next = &[3]block.ID{bottom, mid, top}
	return nil
}

func (c *Columns) PushRandom() error {
	return c.PushColumn(c.randomColor(), c.randomColor(), c.randomColor())
}

func (c *Columns) nextPiece() piece.Dropper {
	if c.next == nil {
		return nil
	}
	col, err := piece.NewColumn(c.grid.Width()/2, c.next[0], c.next[1], c.next[2])
	c.next = nil
	if err != nil {
		c.l.Error("spawn", slog.String("error", err.Error()))
		return nil
	}
	return col
}

func (c *Columns) clear(wave int) Clear {
	t := &tally{PopMachine: c.pops}
	match.PopColumns(c.grid, c.settings.PopRequirement, t)
	return Clear{Cells: t.cells, Points: 10 * t.cells * wave}
}

func (c *Columns) settle() bool { return gravity.MakeBlocksFall(c.grid, c.falls) }

func (c *Columns) turnDone() {}

func (c *Columns) View() View {
	v := c.view()
	if c.next != nil {
		if col, err := piece.NewColumn(0, c.next[0], c.next[1], c.next[2]); err == nil {
			v.Next = col.Cells()
		}
	}
	return v
}
