// Package block defines the cell values stored in a board.
package block

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"blockfall/grid"
)

// ID is a closed enumeration of cell values.
type ID uint8

const (
	Empty ID = iota
	Red
	Blue
	Green
	Magenta
	Yellow
	Glass
	HardGlass
)

// MaxColors is the number of playable colors.
const MaxColors = 5

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidColorCount = fmt.Errorf("%w: color count must be between 1 and %d", ErrInvalidArgument, MaxColors)
	ErrInvalidRune       = fmt.Errorf("%w: unknown block rune", ErrInvalidArgument)
)

var colors = [MaxColors]ID{Red, Blue, Green, Magenta, Yellow}

var names = [...]string{
	Empty:     "empty",
	Red:       "red",
	Blue:      "blue",
	Green:     "green",
	Magenta:   "magenta",
	Yellow:    "yellow",
	Glass:     "glass",
	HardGlass: "hard-glass",
}

// runes are the one-letter codes used by snapshots, tests and the terminal.
var runes = [...]rune{
	Empty:     '.',
	Red:       'R',
	Blue:      'B',
	Green:     'G',
	Magenta:   'M',
	Yellow:    'Y',
	Glass:     'g',
	HardGlass: 'h',
}

// IsColor reports whether the value takes part in matches.
func (id ID) IsColor() bool { return id >= Red && id <= Yellow }

// IsSpecial reports whether the value only decays.
func (id ID) IsSpecial() bool { return id == Glass || id == HardGlass }

// Decay is the value a cell takes after being hit once.
// HardGlass -> Glass -> Empty, anything else -> Empty.
func (id ID) Decay() ID {
	if id == HardGlass {
		return Glass
	}
	return Empty
}

func (id ID) String() string {
	if int(id) < len(names) {
		return names[id]
	}
	return fmt.Sprintf("block(%d)", id)
}

func (id ID) Rune() rune {
	if int(id) < len(runes) {
		return runes[id]
	}
	return '?'
}

func ParseRune(r rune) (ID, error) {
	for id, c := range runes {
		if c == r {
			return ID(id), nil
		}
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidRune, r)
}

// Palette returns the first n colors.
func Palette(n int) ([]ID, error) {
	if n < 1 || n > MaxColors {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidColorCount, n)
	}
	p := make([]ID, n)
	copy(p, colors[:n])
	return p, nil
}

// Random picks a color from palette.
func Random(r *rand.Rand, palette []ID) ID {
	return palette[r.IntN(len(palette))]
}

// Grid is a board of block values.
type Grid = grid.Grid[ID]

// ParseRows builds a grid from equal-length rows of block runes, top row first.
//
//	ParseRows(
//		"..R",
//		"GGR",
//	)
func ParseRows(rows ...string) (*Grid, error) {
	if len(rows) == 0 {
		return grid.New[ID](0, 0), nil
	}
	w := len([]rune(rows[0]))
	g := grid.New[ID](w, len(rows))
	for y, row := range rows {
		rs := []rune(row)
		if len(rs) != w {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidArgument, y, len(rs), w)
		}
		for x, r := range rs {
			id, err := ParseRune(r)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", y, err)
			}
			g.Set(grid.Pos{X: x, Y: y}, id)
		}
	}
	return g, nil
}

// MustParseRows is ParseRows for literals known to be valid.
func MustParseRows(rows ...string) *Grid {
	g, err := ParseRows(rows...)
	if err != nil {
		panic(err)
	}
	return g
}

// FormatRows renders g as rows of block runes, top row first.
func FormatRows(g grid.Reader[ID]) []string {
	rows := make([]string, g.Height())
	var sb strings.Builder
	for y := range g.Height() {
		sb.Reset()
		for x := range g.Width() {
			sb.WriteRune(g.At(grid.Pos{X: x, Y: y}).Rune())
		}
		rows[y] = sb.String()
	}
	return rows
}

// Count returns the number of non-empty cells.
func Count(g grid.Reader[ID]) int {
	n := 0
	for y := range g.Height() {
		for x := range g.Width() {
			if g.At(grid.Pos{X: x, Y: y}) != Empty {
				n++
			}
		}
	}
	return n
}
