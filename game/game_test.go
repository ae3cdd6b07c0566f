package game

import (
	"sync"
	"testing"
	"time"

	"blockfall/block"
	"blockfall/grid"
	"blockfall/input"
	"blockfall/scenario"
	"blockfall/settings"
	"blockfall/versus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTicker struct {
	ch          chan time.Time
	stop, reset bool
	mu          sync.Mutex
}

func newMockTicker() *mockTicker          { return &mockTicker{ch: make(chan time.Time)} }
func (m *mockTicker) C() <-chan time.Time { return m.ch }
func (m *mockTicker) Tick()               { m.ch <- time.Now() }
func (m *mockTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = true
}
func (m *mockTicker) Reset(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = true
}
func (m *mockTicker) isReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset
}
func (m *mockTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop
}

func newSolo(t *testing.T) *Solo {
	t.Helper()
	s, err := settings.Preset(settings.Puyo)
	require.NoError(t, err)
	s.Seed = 1
	solo, err := NewSolo(scenario.Scenario{Name: "test", Settings: s}, nil)
	require.NoError(t, err)
	return solo
}

func waitUpdate(t *testing.T, g *Game) {
	t.Helper()
	select {
	case <-g.UpdateCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update signal")
	}
}

// frame ticks once and waits for the frame to be done.
func frame(t *testing.T, ticker *mockTicker, g *Game) {
	t.Helper()
	ticker.Tick()
	waitUpdate(t, g)
}

func TestUpdateCh(t *testing.T) {
	ticker := newMockTicker()
	g := NewConfigurableGame(newSolo(t), ticker, 16*time.Millisecond, nil)
	g.Start()
	waitUpdate(t, g)
	frame(t, ticker, g)
	views := g.Read()
	require.Len(t, views, 1)
	assert.Len(t, views[0].Piece, 2, "the first pair spawned")
	g.Stop()
}

func TestStartStop(t *testing.T) {
	ticker := newMockTicker()
	g := NewConfigurableGame(newSolo(t), ticker, 16*time.Millisecond, nil)
	g.Start()
	waitUpdate(t, g)
	frame(t, ticker, g)
	assert.True(t, ticker.isReset())
	g.Stop()
	assert.True(t, ticker.isStopped())
}

func TestTap(t *testing.T) {
	ticker := newMockTicker()
	g := NewConfigurableGame(newSolo(t), ticker, 16*time.Millisecond, nil)
	g.Start()
	waitUpdate(t, g)
	frame(t, ticker, g)

	g.Tap(input.Drop)
	g.Tap(input.Drop)
	for i := 0; i < 200 && g.Read()[0].Pieces < 2; i++ {
		frame(t, ticker, g)
	}
	v := g.Read()[0]
	assert.Equal(t, 2, v.Pieces, "the drop locked the first pair long before it could fall")
	assert.Equal(t, 2, block.Count(v.Cells))
	g.Stop()
}

func TestReadIsACopy(t *testing.T) {
	ticker := newMockTicker()
	solo := newSolo(t)
	g := NewConfigurableGame(solo, ticker, 16*time.Millisecond, nil)
	g.Start()
	waitUpdate(t, g)
	frame(t, ticker, g)

	v := g.Read()[0]
	g.Tap(input.Drop)
	for i := 0; i < 200 && g.Read()[0].Pieces < 2; i++ {
		frame(t, ticker, g)
	}
	assert.Zero(t, block.Count(v.Cells), "the snapshot kept the empty board")
	g.Stop()
}

func TestGameOverCh(t *testing.T) {
	ticker := newMockTicker()
	solo := newSolo(t)
	s := solo.Board.Settings()
	require.NoError(t, solo.Board.PushFallInBlocks(grid.NewFilled(s.Width, s.Height, block.Glass)))

	g := NewConfigurableGame(solo, ticker, 16*time.Millisecond, nil)
	g.Start()
	waitUpdate(t, g)
	over := false
	for i := 0; i < 1000 && !over; i++ {
		frame(t, ticker, g)
		select {
		case <-g.GameOverCh:
			over = true
		default:
		}
	}
	require.True(t, over)
	assert.True(t, ticker.isStopped())
	g.Tap(input.Left)
}

func TestDuel(t *testing.T) {
	s, err := settings.Preset(settings.Puyo)
	require.NoError(t, err)
	s.Seed = 2
	m, err := versus.New(s, [2]bool{false, true}, nil)
	require.NoError(t, err)
	d := &Duel{Match: m}

	require.NoError(t, d.Step(16*time.Millisecond))
	require.NoError(t, d.HandleEvents(input.Press(input.Left)))
	views := d.Views()
	require.Len(t, views, 2)
	assert.Len(t, views[0].Piece, 2)
	assert.Len(t, views[1].Piece, 2)
	assert.False(t, d.Done())
}
