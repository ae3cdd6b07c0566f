// Package server runs headless versus matches and streams them to
// spectators over gRPC. Spectators only watch; no input travels back.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"blockfall/logging"
	"blockfall/settings"
	"blockfall/versus"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// linger keeps a finished match listed so spectators see the end.
	linger = 5 * time.Second
	// watchBuffer is how many frames a slow spectator may lag behind
	// before frames are skipped.
	watchBuffer = 8
)

type match struct {
	id      string
	started time.Time

	mu       sync.Mutex
	m        *versus.Match
	watchers map[chan *structpb.Struct]struct{}
	closed   bool
}

func (m *match) snapshot() (*structpb.Struct, error) {
	s := Snapshot{
		ID:      m.id,
		Elapsed: m.m.Elapsed(),
		Done:    m.m.Done(),
		Winner:  m.m.Winner(),
	}
	for i := range 2 {
		p := m.m.Player(i)
		s.Boards = append(s.Boards, p.Board.View())
		s.Pending = append(s.Pending, p.Pending())
	}
	return s.Encode()
}

// publish sends the current frame to every watcher. Full watchers skip it.
func (m *match) publish(l *slog.Logger) {
	if len(m.watchers) == 0 {
		return
	}
	st, err := m.snapshot()
	if err != nil {
		l.Error("snapshot", slog.String("error", err.Error()))
		return
	}
	for ch := range m.watchers {
		select {
		case ch <- st:
		default:
		}
	}
}

// Spectator keeps the running matches and serves them.
type Spectator struct {
	l        *slog.Logger
	settings settings.Settings
	frame    time.Duration

	mu      sync.Mutex
	matches map[string]*match
}

// New returns a server running matches with s at fps frames per second.
func New(s settings.Settings, fps int, l *slog.Logger) (*Spectator, error) {
	if s.Variant != settings.Puyo {
		return nil, fmt.Errorf("%w: got %s", versus.ErrNotPuyo, s.Variant)
	}
	if fps < 1 {
		return nil, fmt.Errorf("%w: fps must be > 0", settings.ErrInvalidArgument)
	}
	return &Spectator{
		l:        logging.OrDiscard(l),
		settings: s,
		frame:    time.Second / time.Duration(fps),
		matches:  make(map[string]*match),
	}, nil
}

// Spawn starts a bot against bot match and returns its id. The match runs
// until it is over or ctx is done.
func (t *Spectator) Spawn(ctx context.Context) (string, error) {
	id := uuid.New().String()
	l := t.l.With(slog.String("match", id))
	vm, err := versus.New(t.settings, [2]bool{true, true}, l)
	if err != nil {
		return "", err
	}
	m := &match{id: id, started: time.Now(), m: vm, watchers: make(map[chan *structpb.Struct]struct{})}

	t.mu.Lock()
	t.matches[id] = m
	t.mu.Unlock()
	l.Info("match started")

	go t.run(ctx, m, l)
	return id, nil
}

func (t *Spectator) run(ctx context.Context, m *match, l *slog.Logger) {
	ticker := time.NewTicker(t.frame)
	defer ticker.Stop()
	defer t.remove(m)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		m.mu.Lock()
		if err := m.m.Step(t.frame); err != nil {
			l.Warn("frame", slog.String("error", err.Error()))
		}
		m.publish(l)
		done := m.m.Done()
		m.mu.Unlock()
		if done {
			l.Info("match over", slog.Int("winner", m.m.Winner()))
			break
		}
	}
	select {
	case <-ctx.Done():
	case <-time.After(linger):
	}
}

// remove unlists m and ends its watch streams.
func (t *Spectator) remove(m *match) {
	t.mu.Lock()
	delete(t.matches, m.id)
	t.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for ch := range m.watchers {
		close(ch)
		delete(m.watchers, ch)
	}
}

// Keep runs n matches at all times until ctx is done.
func (t *Spectator) Keep(ctx context.Context, n int) error {
	check := time.NewTicker(time.Second)
	defer check.Stop()
	for {
		t.mu.Lock()
		missing := n - len(t.matches)
		t.mu.Unlock()
		for range missing {
			if _, err := t.Spawn(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-check.C:
		}
	}
}

func (t *Spectator) List(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	t.mu.Lock()
	matches := make([]*match, 0, len(t.matches))
	for _, m := range t.matches {
		matches = append(matches, m)
	}
	t.mu.Unlock()
	sort.Slice(matches, func(i, j int) bool { return matches[i].started.Before(matches[j].started) })

	list := make([]any, len(matches))
	for i, m := range matches {
		m.mu.Lock()
		list[i] = map[string]any{
			"id":         m.id,
			"elapsed_ms": m.m.Elapsed().Milliseconds(),
			"done":       m.m.Done(),
			"winner":     m.m.Winner(),
		}
		m.mu.Unlock()
	}
	return structpb.NewStruct(map[string]any{"matches": list})
}

func (t *Spectator) Watch(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	id := req.GetFields()["id"].GetStringValue()
	t.mu.Lock()
	m, ok := t.matches[id]
	t.mu.Unlock()
	if !ok {
		return status.Errorf(codes.NotFound, "match %q not found", id)
	}

	ch := make(chan *structpb.Struct, watchBuffer)
	m.mu.Lock()
	first, err := m.snapshot()
	if m.closed {
		close(ch)
	} else {
		m.watchers[ch] = struct{}{}
	}
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	defer func() {
		m.mu.Lock()
		delete(m.watchers, ch)
		m.mu.Unlock()
	}()

	if err := stream.Send(first); err != nil {
		return fmt.Errorf("failed to send snapshot: %w", err)
	}
	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(st); err != nil {
				return fmt.Errorf("failed to send snapshot: %w", err)
			}
		}
	}
}
