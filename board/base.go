package board

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"blockfall/block"
	"blockfall/effect"
	"blockfall/gravity"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/logging"
	"blockfall/piece"
	"blockfall/settings"
)

const (
	shiftDelay    = 170 * time.Millisecond
	shiftInterval = 50 * time.Millisecond
	// held Down divides the fall interval by softDrop
	softDrop = 12
	// mixed into the seed of the effects stream
	effectSeed = 0x9e3779b97f4a7c15
)

// rules is what a variant plugs into the shared turn loop.
type rules interface {
	// nextPiece takes the queued piece, nil when nothing is queued.
	nextPiece() piece.Dropper
	// clear runs the variant's detector once. Cells is 0 when nothing cleared.
	clear(wave int) Clear
	// settle runs one gravity step and reports whether anything moved.
	settle() bool
	// turnDone is called once the chain of a turn is over.
	turnDone()
}

// idler is implemented by variants that take input without a piece.
type idler interface {
	idle()
}

type base struct {
	l        *slog.Logger
	settings settings.Settings
	rand     *rand.Rand
	palette  []block.ID

	grid  *block.Grid
	falls *effect.FallMachine
	pops  *effect.PopMachine
	rules rules

	phase    Phase
	paused   bool
	controls input.Controls
	left     input.Repeater
	right    input.Repeater
	active   piece.Dropper
	interval time.Duration
	elapsed  time.Duration

	fallIns   []*block.Grid
	score     int
	wave      int
	pieces    int
	listeners []func(Clear)
}

// newBase validates s and sets up the grid and effect machines. glyphs is
// the threshold used for score glyphs, 0 to disable them.
func newBase(s settings.Settings, l *slog.Logger, glyphs int) (*base, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("board settings: %w", err)
	}
	palette, err := s.Palette()
	if err != nil {
		return nil, err
	}
	seed := s.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	// Pieces and animations draw from separate streams so that a seed deals
	// the same pieces whatever the effects consume.
	r := rand.New(rand.NewPCG(seed, seed>>1|1))
	fx := rand.New(rand.NewPCG(seed^effectSeed, seed>>3|1))
	g := grid.New[block.ID](s.Width, s.Height)
	return &base{
		l:        logging.OrDiscard(l).With(slog.String("variant", string(s.Variant))),
		settings: s,
		rand:     r,
		palette:  palette,
		grid:     g,
		falls:    effect.NewFallMachine(s.Width, s.Height, s.EffectSpeed, fx),
		pops:     effect.NewPopMachine(g, glyphs, fx),
		left:     input.Repeater{Delay: shiftDelay, Interval: shiftInterval},
		right:    input.Repeater{Delay: shiftDelay, Interval: shiftInterval},
		interval: time.Duration(float64(time.Second) / s.FallSpeed),
	}, nil
}

func (b *base) ready() error {
	if b == nil || b.grid == nil || b.rules == nil {
		return ErrNotReady
	}
	return nil
}

// Update advances the board by dt. Pop effects go first, then fall effects;
// only when neither is pending does the turn move on.
func (b *base) Update(dt time.Duration) error {
	if err := b.ready(); err != nil {
		return err
	}
	defer b.controls.Tick()

	if b.animate(dt) {
		return nil
	}
	switch b.phase {
	case AwaitingPiece:
		b.await()
	case Falling:
		if !b.paused {
			b.fall(dt)
		}
	case Settling:
		if !b.rules.settle() {
			b.phase = Matching
		}
	case Matching:
		b.match()
	case Popping:
		b.phase = Settling
	case GameOver:
	}
	return nil
}

func (b *base) animate(dt time.Duration) bool {
	if b.pops.HasEffects() {
		b.pops.Update(dt)
		return true
	}
	if b.falls.HasEffects() {
		b.falls.Update(dt)
		return true
	}
	return false
}

func (b *base) await() {
	if len(b.fallIns) > 0 {
		incoming := b.fallIns[0]
		b.fallIns = b.fallIns[1:]
		if incoming != nil {
			n, err := gravity.FallIn(b.grid, incoming, b.falls)
			if err != nil {
				// sizes were checked when the blocks were pushed
				b.l.Error("fall-in", slog.String("error", err.Error()))
			}
			b.l.Debug("fall-in", slog.Int("blocks", n), slog.Int("overflow", block.Count(incoming)))
		}
		b.phase = Settling
		return
	}
	if p := b.rules.nextPiece(); p != nil {
		b.spawn(p)
		return
	}
	if i, ok := b.rules.(idler); ok && !b.paused {
		i.idle()
	}
}

func (b *base) spawn(p piece.Dropper) {
	cells := piece.Positions(p.Cells())
	if !piece.Fits(b.grid, cells, cells) {
		b.l.Info("spawn blocked", slog.Int("pieces", b.pieces))
		b.gameOver()
		return
	}
	b.active = p
	b.pieces++
	b.elapsed = 0
	b.phase = Falling
}

// fall applies the controls to the active piece and lets it fall. The piece
// locks when the fall timer fires and it cannot move down.
func (b *base) fall(dt time.Duration) {
	c := &b.controls
	p := b.active
	for range b.left.Step(c.State(input.Left), dt) {
		p.MoveLeft(b.grid)
	}
	for range b.right.Step(c.State(input.Right), dt) {
		p.MoveRight(b.grid)
	}
	if c.Pressed(input.RotateLeft) {
		p.RotateLeft(b.grid)
	}
	if c.Pressed(input.RotateRight) || c.Pressed(input.Up) {
		p.RotateRight(b.grid)
	}
	if c.Pressed(input.Drop) {
		piece.HardDrop(b.grid, p)
		b.lock()
		return
	}

	interval := b.interval
	if c.Held(input.Down) {
		interval /= softDrop
	}
	b.elapsed += dt
	for b.elapsed >= interval {
		b.elapsed -= interval
		if !p.MoveDown(b.grid) {
			b.lock()
			return
		}
	}
}

func (b *base) lock() {
	cells := b.active.Cells()
	b.active = nil
	if piece.Lock(b.grid, cells) {
		b.l.Info("locked out", slog.Int("pieces", b.pieces))
		b.gameOver()
		return
	}
	b.phase = Settling
}

func (b *base) match() {
	b.pops.SetWave(b.wave + 1)
	c := b.rules.clear(b.wave + 1)
	if c.Cells == 0 {
		b.wave = 0
		b.rules.turnDone()
		if b.phase != GameOver {
			b.phase = AwaitingPiece
		}
		return
	}
	b.wave++
	c.Wave = b.wave
	b.cleared(c)
}

func (b *base) cleared(c Clear) {
	b.score += c.Points
	b.l.Debug("clear", slog.Int("cells", c.Cells), slog.Int("wave", c.Wave), slog.Int("points", c.Points))
	for _, f := range b.listeners {
		f(c)
	}
	b.phase = Popping
}

// gameOver drains the board out through the bottom.
func (b *base) gameOver() {
	b.active = nil
	b.fallIns = nil
	gravity.DrainAll(b.grid, b.falls)
	b.phase = GameOver
	b.l.Info("game over", slog.Int("score", b.score), slog.Int("pieces", b.pieces))
}

// HandleEvents feeds one batch of control events. The Pause control toggles
// the pause; everything else is read by the next Update.
func (b *base) HandleEvents(events ...input.Event) error {
	if err := b.ready(); err != nil {
		return err
	}
	if err := b.controls.Apply(events...); err != nil {
		b.l.Warn("events rejected", slog.String("error", err.Error()))
		return err
	}
	for _, e := range events {
		if e.Control == input.Pause && e.Pressed && b.controls.Pressed(input.Pause) {
			b.paused = !b.paused
		}
	}
	return nil
}

func (b *base) PushFallInBlocks(g *block.Grid) error {
	if err := b.ready(); err != nil {
		return err
	}
	if b.phase == GameOver {
		return ErrGameOver
	}
	if g == nil || g.Width() == 0 && g.Height() == 0 {
		b.fallIns = append(b.fallIns, nil)
		return nil
	}
	if g.Width() != b.grid.Width() || g.Height() != b.grid.Height() {
		err := fmt.Errorf("%w: board %dx%d, blocks %dx%d", ErrDimensionMismatch,
			b.grid.Width(), b.grid.Height(), g.Width(), g.Height())
		b.l.Warn("fall-in rejected", slog.String("error", err.Error()))
		return err
	}
	if block.Count(g) == 0 {
		b.fallIns = append(b.fallIns, nil)
		return nil
	}
	b.fallIns = append(b.fallIns, g.Clone())
	return nil
}

func (b *base) IsGameOver() bool { return b.ready() == nil && b.phase == GameOver }

func (b *base) Phase() Phase {
	if b == nil {
		return AwaitingPiece
	}
	return b.phase
}

func (b *base) Grid() grid.Reader[block.ID] { return b.grid }
func (b *base) Score() int                  { return b.score }
func (b *base) Pieces() int                 { return b.pieces }
func (b *base) Settings() settings.Settings { return b.settings }
func (b *base) Pause()                      { b.paused = true }
func (b *base) Resume()                     { b.paused = false }
func (b *base) Paused() bool                { return b.paused }
func (b *base) OnClear(f func(Clear))       { b.listeners = append(b.listeners, f) }

// HasEffects reports whether an animation is playing.
func (b *base) HasEffects() bool { return b.pops.HasEffects() || b.falls.HasEffects() }

// SkipEffects finishes every pending animation at once. Headless drivers use
// it to run games without a frame clock.
func (b *base) SkipEffects() {
	for b.pops.HasEffects() {
		b.pops.Update(time.Second)
	}
	b.falls.Skip()
}

func (b *base) view() View {
	v := View{
		Width:     b.grid.Width(),
		Height:    b.grid.Height(),
		Cells:     b.grid,
		Falling:   b.falls.Records(),
		Flashes:   b.pops.Flashes(),
		Fragments: b.pops.Fragments(),
		Glyphs:    b.pops.Glyphs(),
		Phase:     b.phase,
		Paused:    b.paused,
		Score:     b.score,
		Wave:      b.wave,
		Pieces:    b.pieces,
	}
	switch {
	case b.pops.HasEffects():
		v.Cells = b.pops.Render()
	case b.falls.HasEffects():
		v.Cells = b.falls.Render()
	}
	if b.active != nil {
		v.Piece = b.active.Cells()
	}
	return v
}

func (b *base) randomColor() block.ID { return block.Random(b.rand, b.palette) }

// tally counts what a detector pass removed and forwards it to the pop
// machine.
type tally struct {
	*effect.PopMachine
	threshold, wave int
	groups          int
	cells           int
	points          int
}

func (t *tally) Group(cells []grid.Pos, id block.ID) {
	t.points += effect.Score(len(cells), t.threshold, t.wave, t.groups)
	t.groups++
	t.PopMachine.Group(cells, id)
}

func (t *tally) Pop(p grid.Pos, id block.ID) {
	t.cells++
	t.PopMachine.Pop(p, id)
}
