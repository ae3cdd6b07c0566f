package board

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"blockfall/gravity"
	"blockfall/grid"
	"blockfall/match"
	"blockfall/piece"
	"blockfall/settings"
)

// lineScore is indexed by the number of rows cleared at once.
var lineScore = [...]int{0, 100, 300, 500, 800}

// Stacker drops polyominoes. Full rows clear and the rows above drop down
// by whole rows.
type Stacker struct {
	*base
	bag   *piece.Bag
	mask  piece.ShapeMask
	next  *piece.Kind
	rows  int
	lines int
	level int
}

func NewStacker(s settings.Settings, l *slog.Logger) (*Stacker, error) {
	b, err := newBase(s, l, 0)
	if err != nil {
		return nil, err
	}
	mask, err := s.ShapeMask()
	if err != nil {
		return nil, err
	}
	bag, err := piece.NewBag(mask, b.rand)
	if err != nil {
		return nil, err
	}
	st := &Stacker{base: b, bag: bag, mask: mask}
	b.rules = st
	st.setLevel()
	return st, nil
}

func (s *Stacker) IsReady() bool {
	return s.ready() == nil && s.phase != GameOver && s.next == nil
}

// PushPiece queues the next shape. It must be one of the enabled shapes.
func (s *Stacker) PushPiece(k piece.Kind) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.phase == GameOver {
		return ErrGameOver
	}
	if s.next != nil {
		s.l.Warn("piece rejected", slog.String("error", ErrPieceQueued.Error()))
		return ErrPieceQueued
	}
	if !s.mask.Has(k) {
		return fmt.Errorf("%w: shape %s is not enabled", ErrInvalidArgument, k)
	}
	s.next = &k
	return nil
}

// PushRandom queues the next shape from the bag.
func (s *Stacker) PushRandom() error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.PushPiece(s.bag.Peek()); err != nil {
		return err
	}
	s.bag.Draw()
	return nil
}

func (s *Stacker) Lines() int { return s.lines }
func (s *Stacker) Level() int { return s.level }

func (s *Stacker) nextPiece() piece.Dropper {
	if s.next == nil {
		return nil
	}
	k := *s.next
	s.next = nil
	p, err := piece.NewPolyomino(k, piece.SpawnColumn(k, s.grid.Width()))
	if err != nil {
		s.l.Error("spawn", slog.String("error", err.Error()))
		return nil
	}
	return p
}

func (s *Stacker) clear(int) Clear {
	t := &tally{PopMachine: s.pops}
	n := match.ClearRows(s.grid, t)
	if n == 0 {
		return Clear{}
	}
	s.rows = n
	s.lines += n
	points := lineScore[min(n, len(lineScore)-1)] * s.level
	s.setLevel()
	return Clear{Cells: t.cells, Groups: n, Points: points}
}

// settle drops the rows above the last cleared rows. Rows only move once
// per clear, so nothing is left to settle after that.
func (s *Stacker) settle() bool {
	if s.rows == 0 {
		return false
	}
	s.rows = 0
	return gravity.FallRows(s.grid, s.falls) > 0
}

func (s *Stacker) turnDone() {}

func (s *Stacker) setLevel() {
	level := s.lines/10 + 1
	if level == s.level {
		return
	}
	s.level = level
	s.interval = time.Duration(float64(setTime(level)) / s.settings.FallSpeed)
	s.l.Debug("level", slog.Int("level", level), slog.Duration("interval", s.interval))
}

// setTime is the time a piece takes to fall one row at a level. Based on
// https://tetris.wiki/Marathon
//
//	Time = (0.8-((Level-1)*0.007))^(Level-1)
func setTime(level int) time.Duration {
	switch {
	case level < 1:
		level = 1
	case level > 20:
		level = 20
	}
	seconds := math.Pow(0.8-float64(level-1)*0.007, float64(level-1))

	return time.Duration(seconds * float64(time.Second))
}

// Ghost is where the falling piece would land.
func (s *Stacker) Ghost() []grid.Pos {
	p, ok := s.active.(*piece.Polyomino)
	if !ok {
		return nil
	}
	return p.Ghost(s.grid)
}

func (s *Stacker) View() View {
	v := s.view()
	v.Ghost = s.Ghost()
	if s.next != nil {
		if p, err := piece.NewPolyomino(*s.next, 0); err == nil {
			v.Next = p.Cells()
		}
	}
	return v
}
