// Package client is the terminal front end: a keyboard driven lobby that
// plays solo or versus games locally and watches server matches.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"blockfall/board"
	"blockfall/game"
	"blockfall/input"
	"blockfall/logging"
	"blockfall/scenario"
	"blockfall/server"
	"blockfall/versus"

	"github.com/eiannone/keyboard"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

type clientState int

const (
	lobby clientState = iota
	playing
	watching
)

type state struct {
	current clientState
	mu      sync.Mutex
}

func (s *state) get() clientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *state) set(c clientState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

// blockGame is what the client needs from a running game.
type blockGame interface {
	Start()
	Stop()
	Tap(input.Control)
	Read() []board.View
	GetUpdate() <-chan bool
	GetGameOver() <-chan bool
}

type renderer interface {
	game(local, remote *board.View, pending [2]int)
	lobby([3]string)
	names(local, remote string)
	reset()
}

type Options struct {
	Scenario scenario.Scenario
	NoGhost  bool
	// Address of the spectator server.
	Address string
	Name    string
}

type Client struct {
	render  renderer
	options *Options
	logger  *slog.Logger
	kbCh    <-chan keyboard.KeyEvent
	state   *state

	newGame func(duel bool) (blockGame, error)
	dial    func(addr string) (*grpc.ClientConn, error)

	mu     sync.Mutex
	game   blockGame
	cancel context.CancelFunc
}

func New(w io.Writer, l *slog.Logger, o *Options) (*Client, error) {
	l = logging.OrDiscard(l)
	r, err := newRender(w, l, o.NoGhost, o.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load renderer: %w", err)
	}
	kb, err := keyboard.GetKeys(20)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}
	c := &Client{
		render:  r,
		options: o,
		logger:  l,
		kbCh:    kb,
		state:   &state{current: lobby},
		dial:    dial,
	}
	c.newGame = c.localGame
	return c, nil
}

func dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func (c *Client) localGame(duel bool) (blockGame, error) {
	if !duel {
		s, err := game.NewSolo(c.options.Scenario, c.logger)
		if err != nil {
			return nil, err
		}
		return game.New(s, c.logger), nil
	}
	m, err := versus.New(c.options.Scenario.Settings, [2]bool{false, true}, c.logger)
	if err != nil {
		return nil, err
	}
	return game.New(&game.Duel{Match: m}, c.logger), nil
}

// Start shows the lobby and serves the keyboard until the user quits.
func (c *Client) Start() {
	c.render.reset()
	c.render.lobby(defaultLobby())
	var wg sync.WaitGroup
	wg.Add(1)
	go c.listenKB(&wg)
	wg.Wait()
	c.stop()
}

// Close releases the keyboard opened by New.
func (c *Client) Close() error {
	return keyboard.Close()
}

func (c *Client) listenKB(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		event, ok := <-c.kbCh
		if !ok {
			c.logger.Error("Keyboard events channel closed unexpectedly")
			return
		}
		if event.Err != nil {
			c.logger.Error("keysEvents error", slog.String("error", event.Err.Error()))
			return
		}
		if event.Key == keyboard.KeyCtrlC {
			return
		}
		switch c.state.get() {
		case lobby:
			switch event.Rune {
			case 'p':
				c.play(false)
			case 'v':
				c.play(true)
			case 'w':
				c.watch()
			case 'q':
				return
			}
		case watching:
			if event.Rune == 'c' || event.Key == keyboard.KeyEsc {
				c.stop()
			}
		case playing:
			if event.Key == keyboard.KeyEsc {
				c.stop()
				continue
			}
			ctrl, ok := control(event)
			if !ok {
				continue
			}
			c.mu.Lock()
			g := c.game
			c.mu.Unlock()
			if g != nil {
				g.Tap(ctrl)
			}
		}
	}
}

// control maps a key to a board control.
func control(e keyboard.KeyEvent) (input.Control, bool) {
	switch {
	case e.Key == keyboard.KeyArrowLeft || e.Rune == 'a':
		return input.Left, true
	case e.Key == keyboard.KeyArrowRight || e.Rune == 'd':
		return input.Right, true
	case e.Key == keyboard.KeyArrowUp || e.Rune == 'w':
		return input.Up, true
	case e.Key == keyboard.KeyArrowDown || e.Rune == 's':
		return input.Down, true
	case e.Rune == 'q':
		return input.RotateLeft, true
	case e.Rune == 'e':
		return input.RotateRight, true
	case e.Key == keyboard.KeySpace:
		return input.Drop, true
	case e.Key == keyboard.KeyEnter:
		return input.Select, true
	case e.Rune == 'p':
		return input.Pause, true
	}
	return 0, false
}

// stop ends whatever runs and returns to the lobby.
func (c *Client) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Client) play(duel bool) {
	c.stop()
	g, err := c.newGame(duel)
	if err != nil {
		c.logger.Error("unable to start game", slog.String("error", err.Error()))
		c.render.lobby(errorMessage())
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.game, c.cancel = g, cancel
	c.mu.Unlock()

	c.state.set(playing)
	c.render.reset()
	if duel {
		c.render.names(c.options.Name, "bot")
	} else {
		c.render.names(c.options.Name, "")
	}
	go c.listenGame(ctx, g, duel)
}

func (c *Client) listenGame(ctx context.Context, g blockGame, duel bool) {
	defer func() {
		g.Stop()
		c.mu.Lock()
		c.game = nil
		c.mu.Unlock()
		c.state.set(lobby)
	}()
	g.Start()
	for {
		select {
		case <-ctx.Done():
			c.render.lobby(defaultLobby())
			return
		case <-g.GetUpdate():
			c.draw(g.Read())
		case <-g.GetGameOver():
			views := g.Read()
			c.draw(views)
			c.render.lobby(result(views, duel))
			return
		}
	}
}

func (c *Client) draw(views []board.View) {
	switch len(views) {
	case 0:
	case 1:
		c.render.game(&views[0], nil, [2]int{})
	default:
		c.render.game(&views[0], &views[1], [2]int{})
	}
}

// result picks the closing message. A duel is lost when the local board
// topped out, even if both did.
func result(views []board.View, duel bool) [3]string {
	if !duel || len(views) < 2 {
		return gameOver()
	}
	if views[0].Phase == board.GameOver {
		return youLost()
	}
	return youWon()
}

func (c *Client) watch() {
	c.stop()
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	c.state.set(watching)
	c.render.lobby(connecting())
	go func() {
		defer c.state.set(lobby)
		msg, err := c.listenMatch(ctx)
		if err != nil {
			c.logger.Error("unable to watch match", slog.String("error", err.Error()))
			c.render.lobby(errorMessage())
			return
		}
		c.render.lobby(msg)
	}()
}

// listenMatch renders the oldest match running on the server until it ends
// or ctx is cancelled.
func (c *Client) listenMatch(ctx context.Context) ([3]string, error) {
	conn, err := c.dial(c.options.Address)
	if err != nil {
		return [3]string{}, fmt.Errorf("unable to create gRPC client: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Error("unable to close gRPC client", slog.String("error", err.Error()))
		}
	}()
	sc := server.NewSpectatorClient(conn)

	list, err := sc.List(ctx)
	if err != nil {
		return cancelled(ctx, err)
	}
	var id string
	for _, m := range list.GetFields()["matches"].GetListValue().GetValues() {
		f := m.GetStructValue().GetFields()
		if !f["done"].GetBoolValue() {
			id = f["id"].GetStringValue()
			break
		}
	}
	if id == "" {
		return [3]string{"no matches running", "", "(p)lay  (v)ersus  (w)atch  (q)uit"}, nil
	}

	stream, err := sc.Watch(ctx, id)
	if err != nil {
		return cancelled(ctx, err)
	}
	c.render.reset()
	c.render.names("bot 1", "bot 2")
	var last server.Snapshot
	for {
		st, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.logger.Debug("stream.Recv() closed with EOF", slog.String("match", id))
				return watched(last), nil
			}
			return cancelled(ctx, err)
		}
		last, err = server.Decode(st)
		if err != nil {
			return [3]string{}, err
		}
		if len(last.Boards) == 2 && len(last.Pending) == 2 {
			c.render.game(&last.Boards[0], &last.Boards[1], [2]int{last.Pending[0], last.Pending[1]})
		}
		if last.Done {
			return watched(last), nil
		}
	}
}

func watched(s server.Snapshot) [3]string {
	if !s.Done {
		return defaultLobby()
	}
	w := "draw"
	if s.Winner >= 0 {
		w = fmt.Sprintf("bot %d won", s.Winner+1)
	}
	return [3]string{"match over: " + w, "", "(p)lay  (v)ersus  (w)atch  (q)uit"}
}

// cancelled turns a stream closed by the user back into the lobby.
func cancelled(ctx context.Context, err error) ([3]string, error) {
	if ctx.Err() != nil || status.Code(err) == codes.Canceled {
		return defaultLobby(), nil
	}
	return [3]string{}, err
}
