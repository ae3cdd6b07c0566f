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

// Puyo drops pairs of colored blocks. Groups of PopRequirement or more
// same-colored blocks pop, and every settle after a pop can start a chain.
type Puyo struct {
	*base
	next *[2]block.ID
}

func NewPuyo(s settings.Settings, l *slog.Logger) (*Puyo, error) {
	b, err := newBase(s, l, s.PopRequirement)
	if err != nil {
		return nil, err
	}
	p := &Puyo{base: b}
	b.rules = p
	return p, nil
}

// IsReady reports whether the board wants its next pair.
func (p *Puyo) IsReady() bool {
	return p.ready() == nil && p.phase != GameOver && p.next == nil
}

// PushFallingPiece queues the next pair. The pivot spawns on row 0 and the
// satellite above it.
func (p *Puyo) PushFallingPiece(pivot, satellite block.ID) error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.phase == GameOver {
		return ErrGameOver
	}
	if p.next != nil {
		p.l.Warn("pair rejected", slog.String("error", ErrPieceQueued.Error()))
		return ErrPieceQueued
	}
	if !pivot.IsColor() || !satellite.IsColor() {
		return fmt.Errorf("%w: %s, %s", piece.ErrNotColor, pivot, satellite)
	}
	p.next = &[2]block.ID{pivot, satellite}
	return nil
}

func (p *Puyo) PushRandom() error {
	return p.PushFallingPiece(p.randomColor(), p.randomColor())
}

func (p *Puyo) spawnColumn() int { return (p.grid.Width() - 1) / 2 }

func (p *Puyo) nextPiece() piece.Dropper {
	if p.next == nil {
		return nil
	}
	pair, err := piece.NewPair(p.spawnColumn(), p.next[0], p.next[1])
	p.next = nil
	if err != nil {
		p.l.Error("spawn", slog.String("error", err.Error()))
		return nil
	}
	return pair
}

func (p *Puyo) clear(wave int) Clear {
	t := &tally{PopMachine: p.pops, threshold: p.settings.PopRequirement, wave: wave}
	match.PopConnected(p.grid, p.settings.PopRequirement, t)
	return Clear{Cells: t.cells, Groups: t.groups, Points: t.points}
}

func (p *Puyo) settle() bool { return gravity.MakeBlocksFall(p.grid, p.falls) }

func (p *Puyo) turnDone() {}

func (p *Puyo) View() View {
	v := p.view()
	if p.next != nil {
		if pair, err := piece.NewPair(0, p.next[0], p.next[1]); err == nil {
			v.Next = pair.Cells()
		}
	}
	return v
}

// Pair returns a copy of the falling pair.
func (p *Puyo) Pair() (piece.Pair, bool) {
	pair, ok := p.active.(*piece.Pair)
	if !ok || pair == nil {
		return piece.Pair{}, false
	}
	return *pair, true
}
