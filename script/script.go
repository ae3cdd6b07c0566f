// Package script plays puyo boards. It tries every placement of the falling
// pair on a copy of the grid and steers the pair to the best one, one control
// per frame.
package script

import (
	"log/slog"

	"blockfall/block"
	"blockfall/board"
	"blockfall/gravity"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/logging"
	"blockfall/match"
	"blockfall/piece"
)

// Placement is where the pivot lands and where the satellite sits around it.
type Placement struct {
	X   int
	Dir piece.Dir
}

// Outcome is what locking a pair at a placement leads to.
type Outcome struct {
	Placement Placement
	Waves     int
	Popped    int
	Score     int
}

const (
	waveWeight   = 1000
	popWeight    = 10
	groupWeight  = 3
	heightWeight = 4
	// deathWeight is taken off placements that fill a spawn cell
	deathWeight = 100_000
)

type popCounter struct {
	match.NoEffects
	n int
}

func (c *popCounter) Pop(grid.Pos, block.ID) { c.n++ }

// Evaluate locks the pair at pl on a copy of g, runs the chain and scores the
// resulting board. ok is false when the pair cannot land there.
func Evaluate(g grid.Reader[block.ID], threshold int, pivot, satellite block.ID, pl Placement) (Outcome, bool) {
	w, h := g.Width(), g.Height()
	sx := pl.X + pl.Dir.Offset().X
	if pl.X < 0 || pl.X >= w || sx < 0 || sx >= w {
		return Outcome{}, false
	}
	sim := grid.New[block.ID](w, h)
	sim.CopyFrom(g)

	// the lower block of a vertical pair lands first
	first, second := pivot, satellite
	fx, secondX := pl.X, sx
	if pl.Dir == piece.Down {
		first, second = satellite, pivot
	}
	if !drop(sim, fx, first) || !drop(sim, secondX, second) {
		return Outcome{}, false
	}

	out := Outcome{Placement: pl}
	var c popCounter
	for match.PopConnected(sim, threshold, &c) {
		out.Waves++
		gravity.MakeBlocksFall(sim, nil)
	}
	out.Popped = c.n
	out.Score = out.Waves*out.Waves*waveWeight + out.Popped*popWeight +
		groupWeight*groupScore(sim, threshold) - heightWeight*tallest(sim)
	spawn := grid.Pos{X: (w - 1) / 2}
	if sim.At(spawn) != block.Empty || sim.At(spawn.Add(grid.Pos{Y: 1})) != block.Empty {
		out.Score -= deathWeight
	}
	return out, true
}

// drop puts id on top of column x. It fails when the column is full.
func drop(g *block.Grid, x int, id block.ID) bool {
	for y := g.Height() - 1; y >= 0; y-- {
		p := grid.Pos{X: x, Y: y}
		if g.At(p) == block.Empty {
			g.Set(p, id)
			return true
		}
	}
	return false
}

// groupScore rewards groups that are close to popping.
func groupScore(g grid.Reader[block.ID], threshold int) int {
	var sel match.Selector
	var group []grid.Pos
	score := 0
	for y := range g.Height() {
		for x := range g.Width() {
			p := grid.Pos{X: x, Y: y}
			if sel.Explored(p) || !g.At(p).IsColor() {
				continue
			}
			group = sel.Select(g, p, group[:0])
			n := min(len(group), threshold-1)
			score += n * n
		}
	}
	return score
}

func tallest(g grid.Reader[block.ID]) int {
	for y := range g.Height() {
		for x := range g.Width() {
			if g.At(grid.Pos{X: x, Y: y}) != block.Empty {
				return g.Height() - y
			}
		}
	}
	return 0
}

// Best tries every placement and returns the highest scoring one. Ties keep
// the first placement found, scanning columns left to right.
func Best(g grid.Reader[block.ID], threshold int, pivot, satellite block.ID) Outcome {
	best := Outcome{Placement: Placement{X: (g.Width() - 1) / 2}, Score: -1 << 62}
	for x := range g.Width() {
		for _, d := range []piece.Dir{piece.Up, piece.Right, piece.Down, piece.Left} {
			o, ok := Evaluate(g, threshold, pivot, satellite, Placement{X: x, Dir: d})
			if ok && o.Score > best.Score {
				best = o
			}
		}
	}
	return best
}

// maxPresses bounds the controls spent on one pair before it is dropped
// where it is.
const maxPresses = 24

// Bot steers the falling pair of a puyo board. Step is called once per
// frame before the board's Update; it presses one control and releases it on
// the next frame.
type Bot struct {
	l       *slog.Logger
	b       *board.Puyo
	target  Outcome
	planned int
	presses int
	held    *input.Control
}

func NewBot(b *board.Puyo, l *slog.Logger) *Bot {
	return &Bot{l: logging.OrDiscard(l).With(slog.String("player", "bot")), b: b}
}

// Target is the placement chosen for the current pair.
func (bot *Bot) Target() Outcome { return bot.target }

func (bot *Bot) Step() error {
	if bot.held != nil {
		c := *bot.held
		bot.held = nil
		return bot.b.HandleEvents(input.Release(c))
	}
	pair, ok := bot.b.Pair()
	if !ok {
		return nil
	}
	if n := bot.b.Pieces(); n != bot.planned {
		s := bot.b.Settings()
		bot.target = Best(bot.b.Grid(), s.PopRequirement, pair.Pivot, pair.Satellite)
		bot.planned = n
		bot.presses = 0
		bot.l.Debug("plan",
			slog.Int("x", bot.target.Placement.X),
			slog.String("dir", bot.target.Placement.Dir.String()),
			slog.Int("waves", bot.target.Waves))
	}
	c := bot.next(pair)
	bot.presses++
	bot.held = &c
	return bot.b.HandleEvents(input.Press(c))
}

func (bot *Bot) next(pair piece.Pair) input.Control {
	want := bot.target.Placement
	switch {
	case bot.presses >= maxPresses:
		return input.Drop
	case pair.Dir == want.Dir.CCW():
		return input.RotateRight
	case pair.Dir != want.Dir:
		return input.RotateLeft
	case pair.Anchor.X < want.X:
		return input.Right
	case pair.Anchor.X > want.X:
		return input.Left
	}
	return input.Drop
}
