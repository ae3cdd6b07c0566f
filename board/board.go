// Package board drives one game of any variant.
//
// A board owns its grid and both effect machines. Update is called once per
// frame and moves the turn along:
//
//	AwaitingPiece -> Falling -> Settling -> Matching -> Popping -> Settling ...
//	                                           |
//	                                           +-> AwaitingPiece
//
// While the pop or fall machine has effects pending, Update only advances
// them, so the grid never changes under a playing animation.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blockfall/block"
	"blockfall/effect"
	"blockfall/gravity"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/piece"
	"blockfall/settings"
)

var (
	ErrInvalidArgument   = block.ErrInvalidArgument
	ErrNotReady          = errors.New("board not set up")
	ErrGameOver          = errors.New("game over")
	ErrPieceQueued       = errors.New("a piece is already queued")
	ErrBusy              = errors.New("board is resolving a turn")
	ErrUnpoppable        = errors.New("selection too small to pop")
	ErrOutOfBounds       = fmt.Errorf("%w: position outside the board", ErrInvalidArgument)
	ErrNegativeColumn    = piece.ErrNegativeColumn
	ErrDimensionMismatch = gravity.ErrDimensionMismatch
)

type Phase uint8

const (
	AwaitingPiece Phase = iota
	Falling
	Settling
	Matching
	Popping
	GameOver
)

func (p Phase) String() string {
	switch p {
	case AwaitingPiece:
		return "awaiting-piece"
	case Falling:
		return "falling"
	case Settling:
		return "settling"
	case Matching:
		return "matching"
	case Popping:
		return "popping"
	case GameOver:
		return "game-over"
	}
	return fmt.Sprintf("phase(%d)", p)
}

// Clear describes one clearing pass. Listeners get it before the pop
// animation starts.
type Clear struct {
	// Cells is the number of blocks removed.
	Cells int
	// Groups is the number of separate groups, or rows for the stacker.
	Groups int
	// Wave is 1 for the first pass after a turn, 2 for the first chain...
	Wave   int
	Points int
}

// View is everything a renderer needs for one frame.
type View struct {
	Width, Height int
	// Cells is the render copy while animations play, the grid otherwise.
	Cells     grid.Reader[block.ID]
	Falling   []effect.FallRecord
	Flashes   []effect.Flash
	Fragments []effect.Fragment
	Glyphs    []effect.Glyph
	Piece     []piece.Cell
	Ghost     []grid.Pos
	// Next is the queued piece, positioned as if spawned in column 0.
	Next      []piece.Cell
	Cursor    *grid.Pos
	Selection []grid.Pos
	Phase     Phase
	Paused    bool
	Score     int
	Wave      int
	Pieces    int
}

type Board interface {
	Update(dt time.Duration) error
	HandleEvents(events ...input.Event) error
	IsReady() bool
	IsGameOver() bool
	// PushFallInBlocks queues blocks to drop in before the next piece. nil or
	// an empty grid only asks for a settle.
	PushFallInBlocks(g *block.Grid) error
	// PushRandom queues a random piece from the variant's palette or bag.
	PushRandom() error
	Grid() grid.Reader[block.ID]
	View() View
	Score() int
	Phase() Phase
	Pause()
	Resume()
	Paused() bool
	OnClear(f func(Clear))
	Settings() settings.Settings
}

// New builds the board for s.Variant.
func New(s settings.Settings, l *slog.Logger) (Board, error) {
	switch s.Variant {
	case settings.Puyo:
		return NewPuyo(s, l)
	case settings.Stacker:
		return NewStacker(s, l)
	case settings.Columns:
		return NewColumns(s, l)
	case settings.Clicker:
		return NewClicker(s, l)
	}
	return nil, fmt.Errorf("%w: %q", settings.ErrUnknownVariant, s.Variant)
}
