// Package scenario feeds a board: it deals the next piece whenever the board
// asks for one and pushes fall-in blocks at fixed game times.
package scenario

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"blockfall/block"
	"blockfall/board"
	"blockfall/logging"
	"blockfall/piece"
	"blockfall/settings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidArgument = block.ErrInvalidArgument
	ErrUnknown         = fmt.Errorf("%w: unknown scenario", ErrInvalidArgument)
)

// Event pushes Rows as fall-in blocks once the game clock reaches At. Rows
// are block runes, top row first, and may be fewer than the board height.
type Event struct {
	At   time.Duration `yaml:"at"`
	Rows []string      `yaml:"rows"`
}

type Scenario struct {
	Name     string            `yaml:"name"`
	Settings settings.Settings `yaml:"settings"`
	// Pieces are dealt in order before random pieces take over. Pairs are
	// written pivot first ("RB"), columns bottom first ("RGB"), shapes by
	// name ("T").
	Pieces []string `yaml:"pieces,omitempty"`
	Events []Event  `yaml:"events,omitempty"`
}

//go:embed builtin/*.yaml
var builtin embed.FS

// Builtin returns the embedded scenario called name.
func Builtin(name string) (Scenario, error) {
	f, err := builtin.Open(path.Join("builtin", name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Scenario{}, fmt.Errorf("%w: %q", ErrUnknown, name)
		}
		return Scenario{}, err
	}
	defer f.Close()
	return Load(f)
}

// Names lists the embedded scenarios.
func Names() []string {
	entries, _ := builtin.ReadDir("builtin")
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names
}

// Load decodes a scenario. Settings start from the preset of the named
// variant, so a file only lists what it changes.
func Load(r io.Reader) (Scenario, error) {
	var head struct {
		Settings struct {
			Variant settings.Variant `yaml:"variant"`
		} `yaml:"settings"`
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return Scenario{}, fmt.Errorf("decoding scenario: %w", err)
	}
	preset, err := settings.Preset(head.Settings.Variant)
	if err != nil {
		return Scenario{}, err
	}
	s := Scenario{Settings: preset}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Scenario{}, fmt.Errorf("decoding scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Validate checks the settings, every piece and every event against them.
func (s Scenario) Validate() error {
	if err := s.Settings.Validate(); err != nil {
		return err
	}
	for _, p := range s.Pieces {
		if _, err := parseDeal(s.Settings.Variant, p); err != nil {
			return err
		}
	}
	for i, e := range s.Events {
		if _, err := parseRows(s.Settings, e.Rows); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

type deal struct {
	ids  []block.ID
	kind piece.Kind
}

func parseDeal(v settings.Variant, s string) (deal, error) {
	var n int
	switch v {
	case settings.Puyo:
		n = 2
	case settings.Columns:
		n = 3
	case settings.Stacker:
		k, err := piece.ParseKind(s)
		return deal{kind: k}, err
	default:
		return deal{}, fmt.Errorf("%w: %s boards take no pieces", ErrInvalidArgument, v)
	}
	runes := []rune(s)
	if len(runes) != n {
		return deal{}, fmt.Errorf("%w: %q needs %d blocks", ErrInvalidArgument, s, n)
	}
	var d deal
	for _, r := range runes {
		id, err := block.ParseRune(r)
		if err != nil {
			return deal{}, err
		}
		if !id.IsColor() {
			return deal{}, fmt.Errorf("%w: %q", piece.ErrNotColor, s)
		}
		d.ids = append(d.ids, id)
	}
	return d, nil
}

func (d deal) push(b board.Board) error {
	switch b := b.(type) {
	case *board.Puyo:
		return b.PushFallingPiece(d.ids[0], d.ids[1])
	case *board.Columns:
		return b.PushColumn(d.ids[0], d.ids[1], d.ids[2])
	case *board.Stacker:
		return b.PushPiece(d.kind)
	}
	return b.PushRandom()
}

// parseRows builds a board-sized grid, padding missing rows on top.
func parseRows(s settings.Settings, rows []string) (*block.Grid, error) {
	if len(rows) > s.Height {
		return nil, fmt.Errorf("%w: %d rows on a board %d high", ErrInvalidArgument, len(rows), s.Height)
	}
	pad := make([]string, s.Height-len(rows))
	for i := range pad {
		pad[i] = strings.Repeat(".", s.Width)
	}
	g, err := block.ParseRows(append(pad, rows...)...)
	if err != nil {
		return nil, err
	}
	if g.Width() != s.Width {
		return nil, fmt.Errorf("%w: rows are %d wide, board is %d", ErrInvalidArgument, g.Width(), s.Width)
	}
	return g, nil
}

type event struct {
	at     time.Duration
	blocks *block.Grid
}

// Driver runs a scenario against one board.
type Driver struct {
	l       *slog.Logger
	b       board.Board
	deals   []deal
	events  []event
	elapsed time.Duration
	dealt   int
}

func NewDriver(s Scenario, b board.Board, l *slog.Logger) (*Driver, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{l: logging.OrDiscard(l).With(slog.String("scenario", s.Name)), b: b}
	for _, p := range s.Pieces {
		dl, _ := parseDeal(s.Settings.Variant, p)
		d.deals = append(d.deals, dl)
	}
	for _, e := range s.Events {
		g, _ := parseRows(s.Settings, e.Rows)
		d.events = append(d.events, event{at: e.At, blocks: g})
	}
	slices.SortStableFunc(d.events, func(a, b event) int { return int(a.at - b.at) })
	return d, nil
}

// Step advances the scenario clock by dt, pushes the events that are due and
// deals a piece if the board is ready for one.
func (d *Driver) Step(dt time.Duration) error {
	if d.b.IsGameOver() {
		return nil
	}
	d.elapsed += dt
	for len(d.events) > 0 && d.events[0].at <= d.elapsed {
		e := d.events[0]
		d.events = d.events[1:]
		if err := d.b.PushFallInBlocks(e.blocks); err != nil {
			return fmt.Errorf("event at %s: %w", e.at, err)
		}
		d.l.Debug("event", slog.Duration("at", e.at), slog.Int("blocks", block.Count(e.blocks)))
	}
	if !d.b.IsReady() {
		return nil
	}
	if d.dealt < len(d.deals) {
		dl := d.deals[d.dealt]
		d.dealt++
		return dl.push(d.b)
	}
	return d.b.PushRandom()
}

// Elapsed is the scenario clock.
func (d *Driver) Elapsed() time.Duration { return d.elapsed }

// Pending is the number of events not pushed yet.
func (d *Driver) Pending() int { return len(d.events) }
