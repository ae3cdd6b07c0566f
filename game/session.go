package game

import (
	"log/slog"
	"time"

	"blockfall/board"
	"blockfall/input"
	"blockfall/scenario"
	"blockfall/versus"
)

// Solo is one board fed by a scenario.
type Solo struct {
	Board  board.Board
	Driver *scenario.Driver
}

func NewSolo(sc scenario.Scenario, l *slog.Logger) (*Solo, error) {
	b, err := board.New(sc.Settings, l)
	if err != nil {
		return nil, err
	}
	d, err := scenario.NewDriver(sc, b, l)
	if err != nil {
		return nil, err
	}
	return &Solo{Board: b, Driver: d}, nil
}

// Step deals what the scenario has due, then updates the board.
func (s *Solo) Step(dt time.Duration) error {
	if err := s.Driver.Step(dt); err != nil {
		return err
	}
	return s.Board.Update(dt)
}

func (s *Solo) HandleEvents(events ...input.Event) error { return s.Board.HandleEvents(events...) }
func (s *Solo) Views() []board.View                      { return []board.View{s.Board.View()} }
func (s *Solo) Done() bool                               { return s.Board.IsGameOver() }

// Duel is a versus match where the local player takes side 0.
type Duel struct {
	Match *versus.Match
}

func (d *Duel) Step(dt time.Duration) error { return d.Match.Step(dt) }

func (d *Duel) HandleEvents(events ...input.Event) error {
	return d.Match.HandleEvents(0, events...)
}

func (d *Duel) Views() []board.View {
	return []board.View{d.Match.Player(0).Board.View(), d.Match.Player(1).Board.View()}
}

func (d *Duel) Done() bool { return d.Match.Done() }
