// Package versus runs two puyo boards against each other. Points scored on
// one side become glass blocks that fall on the other side.
package versus

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"blockfall/block"
	"blockfall/board"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/logging"
	"blockfall/script"
	"blockfall/settings"
)

const (
	// PointsPerGlass is the score that sends one glass block.
	PointsPerGlass = 70
	// HardChain is the wave from which a chain sends hard glass.
	HardChain = 3
	// maxDropRows bounds the glass that lands in one turn.
	maxDropRows = 5
)

var ErrNotPuyo = fmt.Errorf("%w: versus needs puyo settings", board.ErrInvalidArgument)

// Player is one side of a match.
type Player struct {
	Board *board.Puyo
	bot   *script.Bot

	pending int
	hard    bool
	carry   int

	sent     int
	received int
	longest  int
}

// IsBot reports whether the scripted opponent plays this side.
func (p *Player) IsBot() bool { return p.bot != nil }

// Pending is the glass waiting to fall on this side.
func (p *Player) Pending() int { return p.pending }

// Sent is the glass this side sent over, after offsets.
func (p *Player) Sent() int { return p.sent }

// Received is the glass that fell on this side.
func (p *Player) Received() int { return p.received }

// Longest is the longest chain of this side.
func (p *Player) Longest() int { return p.longest }

// Match is two boards fed from the same piece sequence.
type Match struct {
	l       *slog.Logger
	rand    *rand.Rand
	players [2]*Player
	elapsed time.Duration
	winner  int
	done    bool
}

// New starts a match. bots marks the sides played by the scripted opponent.
// Both boards share s, including the seed, so both sides see the same pairs.
func New(s settings.Settings, bots [2]bool, l *slog.Logger) (*Match, error) {
	if s.Variant != settings.Puyo {
		return nil, fmt.Errorf("%w: got %s", ErrNotPuyo, s.Variant)
	}
	if s.Seed == 0 {
		s.Seed = rand.Uint64()
	}
	l = logging.OrDiscard(l)
	m := &Match{
		l:      l.With(slog.String("mode", "versus")),
		rand:   rand.New(rand.NewPCG(s.Seed, s.Seed>>2|1)),
		winner: -1,
	}
	for i := range m.players {
		pl := l.With(slog.Int("side", i))
		b, err := board.NewPuyo(s, pl)
		if err != nil {
			return nil, err
		}
		p := &Player{Board: b}
		if bots[i] {
			p.bot = script.NewBot(b, pl)
		}
		b.OnClear(func(c board.Clear) { m.attack(i, c) })
		m.players[i] = p
	}
	return m, nil
}

func (m *Match) Player(i int) *Player { return m.players[i] }

// HandleEvents feeds the controls of a human side.
func (m *Match) HandleEvents(side int, events ...input.Event) error {
	if side < 0 || side > 1 {
		return fmt.Errorf("%w: side %d", board.ErrInvalidArgument, side)
	}
	return m.players[side].Board.HandleEvents(events...)
}

// attack turns the points of a clear into glass. Glass first cancels what
// is pending against the attacker; the rest goes to the opponent.
func (m *Match) attack(from int, c board.Clear) {
	p, o := m.players[from], m.players[1-from]
	p.longest = max(p.longest, c.Wave)
	p.carry += c.Points
	n := p.carry / PointsPerGlass
	p.carry %= PointsPerGlass

	offset := min(n, p.pending)
	p.pending -= offset
	n -= offset
	if n == 0 {
		return
	}
	o.pending += n
	p.sent += n
	if c.Wave >= HardChain {
		o.hard = true
	}
	m.l.Debug("attack", slog.Int("from", from), slog.Int("glass", n),
		slog.Int("offset", offset), slog.Int("wave", c.Wave))
}

// garbage builds the glass that falls on p this turn: full rows first, the
// rest spread over random columns above them.
func (m *Match) garbage(p *Player) *block.Grid {
	s := p.Board.Settings()
	w, h := s.Width, s.Height
	n := min(p.pending, w*min(maxDropRows, h))
	id := block.Glass
	if p.hard {
		id = block.HardGlass
	}
	g := grid.New[block.ID](w, h)
	rows, rest := n/w, n%w
	for y := h - rows; y < h; y++ {
		for x := range w {
			g.Set(grid.Pos{X: x, Y: y}, id)
		}
	}
	if rest > 0 {
		for _, x := range m.rand.Perm(w)[:rest] {
			g.Set(grid.Pos{X: x, Y: h - rows - 1}, id)
		}
	}
	p.pending -= n
	p.received += n
	if p.pending == 0 {
		p.hard = false
	}
	return g
}

// Step runs one frame of both boards: bots press their controls, boards
// that wait for a pair get their glass and the next pair, then both update.
func (m *Match) Step(dt time.Duration) error {
	if m.done {
		return nil
	}
	m.elapsed += dt
	var errs []error
	for i, p := range m.players {
		if err := m.step(p, dt); err != nil {
			errs = append(errs, fmt.Errorf("side %d: %w", i, err))
		}
	}
	m.settle()
	return errors.Join(errs...)
}

func (m *Match) step(p *Player, dt time.Duration) error {
	b := p.Board
	if p.bot != nil {
		if err := p.bot.Step(); err != nil {
			return err
		}
	}
	if b.IsReady() {
		if p.pending > 0 {
			if err := b.PushFallInBlocks(m.garbage(p)); err != nil {
				return err
			}
		}
		if err := b.PushRandom(); err != nil {
			return err
		}
	}
	return b.Update(dt)
}

func (m *Match) settle() {
	a, b := m.players[0].Board.IsGameOver(), m.players[1].Board.IsGameOver()
	if !a && !b {
		return
	}
	m.done = true
	switch {
	case a && !b:
		m.winner = 1
	case b && !a:
		m.winner = 0
	}
	m.l.Info("match over", slog.Int("winner", m.winner), slog.Duration("elapsed", m.elapsed))
}

// Done reports whether a side is over.
func (m *Match) Done() bool { return m.done }

// Winner is the side still standing, -1 while playing or on a draw.
func (m *Match) Winner() int { return m.winner }

func (m *Match) Elapsed() time.Duration { return m.elapsed }
