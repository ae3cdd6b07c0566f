// Package game runs a session on a frame ticker in its own goroutine, so a
// terminal client can send controls and render snapshots concurrently.
package game

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"blockfall/block"
	"blockfall/board"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/logging"
)

// DefaultFPS is the frame rate of games built with New.
const DefaultFPS = 60

type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type wrappedTicker struct {
	ticker *time.Ticker
}

func newWrappedTicker(d time.Duration) *wrappedTicker {
	return &wrappedTicker{ticker: time.NewTicker(d)}
}

func (t *wrappedTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *wrappedTicker) Stop()                 { t.ticker.Stop() }
func (t *wrappedTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

// Session is what a game runs frame by frame.
type Session interface {
	Step(dt time.Duration) error
	HandleEvents(events ...input.Event) error
	// Views are the boards of the session, the local player's first.
	Views() []board.View
	Done() bool
}

type Game struct {
	// GameOverCh fires once when the session is done.
	GameOverCh chan bool
	// UpdateCh fires after frames that may have changed the views. It never
	// blocks the game: an update nobody reads yet is merged with the next.
	UpdateCh chan bool

	l        *slog.Logger
	actionCh chan input.Control
	doneCh   chan bool
	stopped  chan struct{}
	mu       sync.RWMutex
	session  Session
	ticker   Ticker
	frame    time.Duration
	tapped   []input.Control
}

func New(s Session, l *slog.Logger) *Game {
	frame := time.Second / DefaultFPS
	return NewConfigurableGame(s, newWrappedTicker(time.Hour), frame, l)
}

// NewConfigurableGame runs s on ticker, advancing it by frame on every tick.
func NewConfigurableGame(s Session, ticker Ticker, frame time.Duration, l *slog.Logger) *Game {
	return &Game{
		GameOverCh: make(chan bool, 1),
		UpdateCh:   make(chan bool, 1),
		l:          logging.OrDiscard(l),
		actionCh:   make(chan input.Control),
		doneCh:     make(chan bool, 1),
		stopped:    make(chan struct{}),
		session:    s,
		ticker:     ticker,
		frame:      frame,
	}
}

func (g *Game) Start() {
	g.notify()
	go g.listen()
}

func (g *Game) Stop() {
	g.ticker.Stop()
	select {
	case g.doneCh <- true:
	default:
	}
}

func (g *Game) GetUpdate() <-chan bool   { return g.UpdateCh }
func (g *Game) GetGameOver() <-chan bool { return g.GameOverCh }

// Tap presses c for one frame. Taps after the game ended are dropped.
func (g *Game) Tap(c input.Control) {
	select {
	case g.actionCh <- c:
	case <-g.stopped:
	}
}

// Read returns copies of the session views that are safe to keep.
func (g *Game) Read() []board.View {
	g.mu.RLock()
	defer g.mu.RUnlock()
	views := g.session.Views()
	for i, v := range views {
		views[i] = snapshot(v)
	}
	return views
}

func snapshot(v board.View) board.View {
	if v.Cells != nil {
		cells := grid.New[block.ID](v.Cells.Width(), v.Cells.Height())
		cells.CopyFrom(v.Cells)
		v.Cells = cells
	}
	v.Falling = slices.Clone(v.Falling)
	v.Flashes = slices.Clone(v.Flashes)
	v.Fragments = slices.Clone(v.Fragments)
	v.Glyphs = slices.Clone(v.Glyphs)
	v.Selection = slices.Clone(v.Selection)
	return v
}

func (g *Game) listen() {
	defer close(g.stopped)
	g.ticker.Reset(g.frame)
	for {
		select {
		case <-g.ticker.C():
			g.mu.Lock()
			err := g.session.Step(g.frame)
			g.release()
			done := g.session.Done()
			g.mu.Unlock()
			if err != nil {
				g.l.Warn("frame", slog.String("error", err.Error()))
			}
			if done {
				g.ticker.Stop()
				g.GameOverCh <- true
				g.notify()
				return
			}
			g.notify()
		case c := <-g.actionCh:
			if slices.Contains(g.tapped, c) {
				continue
			}
			g.mu.Lock()
			err := g.session.HandleEvents(input.Press(c))
			g.mu.Unlock()
			if err != nil {
				g.l.Warn("control", slog.String("error", err.Error()))
				continue
			}
			g.tapped = append(g.tapped, c)
		case <-g.doneCh:
			return
		}
	}
}

// release lets go of the controls tapped before the last frame.
func (g *Game) release() {
	if len(g.tapped) == 0 {
		return
	}
	events := make([]input.Event, len(g.tapped))
	for i, c := range g.tapped {
		events[i] = input.Release(c)
	}
	g.tapped = g.tapped[:0]
	if err := g.session.HandleEvents(events...); err != nil {
		g.l.Warn("release", slog.String("error", err.Error()))
	}
}

func (g *Game) notify() {
	select {
	case g.UpdateCh <- true:
	default:
	}
}
