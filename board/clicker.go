package board

import (
	"log/slog"
	"slices"

	"blockfall/block"
	"blockfall/gravity"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/match"
	"blockfall/piece"
	"blockfall/settings"
)

// Clicker has no falling piece. The player selects a connected group under
// the cursor and pops it if it is at least PopRequirement blocks. The game
// ends when no group is left to pop.
type Clicker struct {
	*base
	cursor    grid.Pos
	selector  match.Selector
	selection []grid.Pos
	wantsFill bool
}

func NewClicker(s settings.Settings, l *slog.Logger) (*Clicker, error) {
	b, err := newBase(s, l, s.PopRequirement)
	if err != nil {
		return nil, err
	}
	c := &Clicker{base: b, wantsFill: true}
	b.rules = c
	return c, nil
}

// IsReady reports whether the board is empty and waits for a new fill.
func (c *Clicker) IsReady() bool {
	return c.ready() == nil && c.phase == AwaitingPiece && c.wantsFill && len(c.fallIns) == 0
}

// PushRandom queues a full board of random colors.
func (c *Clicker) PushRandom() error {
	if err := c.ready(); err != nil {
		return err
	}
	fill := grid.New[block.ID](c.grid.Width(), c.grid.Height())
	for p := range fill.All() {
		fill.Set(p, c.randomColor())
	}
	if err := c.PushFallInBlocks(fill); err != nil {
		return err
	}
	c.wantsFill = false
	return nil
}

func (c *Clicker) Cursor() grid.Pos { return c.cursor }

// Selection is the group last selected, empty when nothing is.
func (c *Clicker) Selection() []grid.Pos { return c.selection }

// MoveCursor moves the cursor by d, clamped to the board.
func (c *Clicker) MoveCursor(d grid.Pos) {
	p := c.cursor.Add(d)
	p.X = min(max(p.X, 0), c.grid.Width()-1)
	p.Y = min(max(p.Y, 0), c.grid.Height()-1)
	c.cursor = p
}

// Select selects the group at p and moves the cursor there.
func (c *Clicker) Select(p grid.Pos) error {
	if err := c.ready(); err != nil {
		return err
	}
	if !c.grid.HasPosition(p) {
		return ErrOutOfBounds
	}
	if c.phase != AwaitingPiece || c.HasEffects() {
		return ErrBusy
	}
	c.cursor = p
	c.selector.Reset()
	c.selection = c.selector.Select(c.grid, p, c.selection[:0])
	return nil
}

// Pop removes the selected group. Groups below PopRequirement are refused.
func (c *Clicker) Pop() error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.phase != AwaitingPiece || c.HasEffects() {
		return ErrBusy
	}
	if len(c.selection) == 0 || len(c.selection) < c.settings.PopRequirement {
		return ErrUnpoppable
	}
	c.pops.SetWave(1)
	t := &tally{PopMachine: c.pops, threshold: c.settings.PopRequirement, wave: 1}
	match.Remove(c.grid, c.selection, t)
	c.selection = c.selection[:0]
	c.cleared(Clear{Cells: t.cells, Groups: 1, Wave: 1, Points: t.points})
	return nil
}

// idle reads the controls between turns. The cursor keys move the cursor;
// Select selects the group under it, or pops it when already selected.
func (c *Clicker) idle() {
	ctl := &c.controls
	moves := map[input.Control]grid.Pos{
		input.Left:  {X: -1},
		input.Right: {X: 1},
		input.Up:    {Y: -1},
		input.Down:  {Y: 1},
	}
	for k, d := range moves {
		if ctl.Pressed(k) {
			c.MoveCursor(d)
			c.selection = c.selection[:0]
		}
	}
	if !ctl.Pressed(input.Select) && !ctl.Pressed(input.Drop) {
		return
	}
	if slices.Contains(c.selection, c.cursor) {
		if err := c.Pop(); err != nil {
			c.l.Debug("pop refused", slog.String("error", err.Error()))
		}
		return
	}
	if err := c.Select(c.cursor); err != nil {
		c.l.Debug("select refused", slog.String("error", err.Error()))
	}
}

func (c *Clicker) nextPiece() piece.Dropper { return nil }

func (c *Clicker) clear(int) Clear { return Clear{} }

func (c *Clicker) settle() bool { return gravity.MakeBlocksFall(c.grid, c.falls) }

// turnDone ends the game when nothing can pop anymore. A cleared board asks
// for a new fill instead.
func (c *Clicker) turnDone() {
	c.selection = c.selection[:0]
	c.wantsFill = block.Count(c.grid) == 0
	if !c.wantsFill && !match.HasGroup(c.grid, c.settings.PopRequirement) {
		c.gameOver()
	}
}

func (c *Clicker) View() View {
	v := c.view()
	cursor := c.cursor
	v.Cursor = &cursor
	v.Selection = c.selection
	return v
}
