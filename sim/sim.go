// Package sim plays many headless games and sums them up. Puyo games are
// played by the scripted opponent; the other variants by simple players that
// move each piece at random before dropping it.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"blockfall/board"
	"blockfall/logging"
	"blockfall/scenario"
	"blockfall/settings"

	"github.com/cheggaaa/pb/v3"
	"github.com/kamstrup/intmap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// frame is the simulated frame time.
const frame = time.Second / 60

var ErrInvalidArgument = board.ErrInvalidArgument

type Options struct {
	Settings settings.Settings
	Games    int
	Workers  int
	// MaxPieces ends a game after that many pieces, 0 for no limit.
	MaxPieces int
	// MaxFrames ends a game that runs too long, 0 for the default.
	MaxFrames int
	// Progress receives the progress bar. Nil hides it.
	Progress io.Writer
}

func (o Options) Validate() error {
	var errs []error
	if err := o.Settings.Validate(); err != nil {
		errs = append(errs, err)
	}
	if o.Games < 1 {
		errs = append(errs, fmt.Errorf("%w: games must be > 0", ErrInvalidArgument))
	}
	if o.Workers < 0 || o.MaxPieces < 0 || o.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("%w: workers and limits can't be negative", ErrInvalidArgument))
	}
	return errors.Join(errs...)
}

// Game is the outcome of one simulated game.
type Game struct {
	Seed   uint64 `yaml:"seed"`
	Score  int    `yaml:"score"`
	Pieces int    `yaml:"pieces"`
	Clears int    `yaml:"clears"`
	Frames int    `yaml:"frames"`
	Over   bool   `yaml:"over"`
	// Chains holds the length of every chain, in waves.
	Chains []int `yaml:"chains,flow"`
}

type headless interface {
	board.Board
	SkipEffects()
	Pieces() int
}

// Play runs one game to its end or to the limits of o.
func Play(o Options, seed uint64, l *slog.Logger) (Game, error) {
	s := o.Settings
	s.Seed = seed
	b, err := board.New(s, l)
	if err != nil {
		return Game{}, err
	}
	h, ok := b.(headless)
	if !ok {
		return Game{}, fmt.Errorf("%w: %T can't run headless", ErrInvalidArgument, b)
	}
	d, err := scenario.NewDriver(scenario.Scenario{Name: "sim", Settings: s}, b, l)
	if err != nil {
		return Game{}, err
	}
	p := newPlayer(b, rand.New(rand.NewPCG(seed, seed>>3|1)), l)

	g := Game{Seed: seed}
	b.OnClear(func(c board.Clear) {
		g.Clears++
		if c.Wave <= 1 || len(g.Chains) == 0 {
			g.Chains = append(g.Chains, c.Wave)
			return
		}
		g.Chains[len(g.Chains)-1] = c.Wave
	})

	maxFrames := o.MaxFrames
	if maxFrames == 0 {
		maxFrames = 1_000_000
	}
	for ; g.Frames < maxFrames && !b.IsGameOver(); g.Frames++ {
		if o.MaxPieces > 0 && h.Pieces() >= o.MaxPieces && b.Phase() == board.AwaitingPiece {
			break
		}
		if err := d.Step(frame); err != nil {
			return g, err
		}
		if err := p.step(); err != nil {
			return g, err
		}
		if err := b.Update(frame); err != nil {
			return g, err
		}
		h.SkipEffects()
	}
	g.Score = b.Score()
	g.Pieces = h.Pieces()
	g.Over = b.IsGameOver()
	return g, nil
}

// Run plays o.Games games over o.Workers goroutines. Game i is seeded with
// the settings seed plus i, so a run is reproducible when the seed is set.
func Run(o Options, l *slog.Logger) (*Report, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	l = logging.OrDiscard(l)
	workers := max(1, min(o.Workers, o.Games))
	seed := o.Settings.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	bar := pb.StartNew(o.Games)
	if o.Progress != nil {
		bar.SetWriter(o.Progress)
	} else {
		bar.SetWriter(io.Discard)
	}

	games := make([]Game, o.Games)
	errs := make([]error, o.Games)
	next := make(chan int)
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range next {
				games[i], errs[i] = Play(o, seed+uint64(i), nil)
				bar.Increment()
			}
		}()
	}
	for i := range o.Games {
		next <- i
	}
	close(next)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	r := Summarize(o.Settings.Variant, games)
	r.Seed = seed
	r.Elapsed = used
	l.Info("simulation done", slog.Int("games", o.Games), slog.Int("workers", workers),
		slog.Duration("elapsed", used))
	return r, nil
}

// Summary describes one measure across games.
type Summary struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
	Min    float64 `yaml:"min"`
	Median float64 `yaml:"median"`
	P90    float64 `yaml:"p90"`
	Max    float64 `yaml:"max"`
}

func summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	slices.Sort(x)
	var s Summary
	s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		s.StdDev = 0
	}
	s.Min, s.Max = floats.Min(x), floats.Max(x)
	s.Median = stat.Quantile(0.5, stat.Empirical, x, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, x, nil)
	return s
}

type Report struct {
	Variant  settings.Variant `yaml:"variant"`
	Seed     uint64           `yaml:"seed"`
	Games    int              `yaml:"games"`
	GameOver int              `yaml:"game_over"`
	Elapsed  time.Duration    `yaml:"elapsed"`
	Score    Summary          `yaml:"score"`
	Pieces   Summary          `yaml:"pieces"`
	Chains   Summary          `yaml:"chains"`
	// ChainCounts maps a chain length to how many chains had it.
	ChainCounts map[int]int `yaml:"chain_counts"`
	Results     []Game      `yaml:"results,omitempty"`
}

// Summarize builds the report of games.
func Summarize(v settings.Variant, games []Game) *Report {
	r := &Report{Variant: v, Games: len(games), ChainCounts: map[int]int{}}
	var scores, pieces, chains []float64
	counts := intmap.New[int, int](16)
	longest := 0
	for _, g := range games {
		if g.Over {
			r.GameOver++
		}
		scores = append(scores, float64(g.Score))
		pieces = append(pieces, float64(g.Pieces))
		for _, c := range g.Chains {
			chains = append(chains, float64(c))
			n, _ := counts.Get(c)
			counts.Put(c, n+1)
			longest = max(longest, c)
		}
	}
	for c := 1; c <= longest; c++ {
		if n, ok := counts.Get(c); ok {
			r.ChainCounts[c] = n
		}
	}
	r.Score = summarize(scores)
	r.Pieces = summarize(pieces)
	r.Chains = summarize(chains)
	r.Results = games
	return r
}
