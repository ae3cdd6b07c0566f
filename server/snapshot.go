package server

import (
	"errors"
	"fmt"
	"time"

	"blockfall/block"
	"blockfall/board"
	"blockfall/grid"
	"blockfall/piece"

	"google.golang.org/protobuf/types/known/structpb"
)

var ErrBadSnapshot = errors.New("malformed snapshot")

// Snapshot is one frame of a match as spectators see it. Boards carry the
// grid, the falling piece and the counters; effects are not sent.
type Snapshot struct {
	ID      string
	Elapsed time.Duration
	Done    bool
	Winner  int
	Boards  []board.View
	Pending []int
}

func (s Snapshot) Encode() (*structpb.Struct, error) {
	boards := make([]any, len(s.Boards))
	for i, v := range s.Boards {
		pending := 0
		if i < len(s.Pending) {
			pending = s.Pending[i]
		}
		boards[i] = encodeView(v, pending)
	}
	return structpb.NewStruct(map[string]any{
		"id":         s.ID,
		"elapsed_ms": s.Elapsed.Milliseconds(),
		"done":       s.Done,
		"winner":     s.Winner,
		"boards":     boards,
	})
}

func encodeView(v board.View, pending int) map[string]any {
	rows := []any{}
	if v.Cells != nil {
		for _, r := range block.FormatRows(v.Cells) {
			rows = append(rows, r)
		}
	}
	cells := []any{}
	for _, c := range v.Piece {
		cells = append(cells, map[string]any{"x": c.Pos.X, "y": c.Pos.Y, "block": string(c.ID.Rune())})
	}
	return map[string]any{
		"width":   v.Width,
		"height":  v.Height,
		"rows":    rows,
		"piece":   cells,
		"phase":   int(v.Phase),
		"score":   v.Score,
		"wave":    v.Wave,
		"pieces":  v.Pieces,
		"pending": pending,
	}
}

// Decode reads a snapshot written by Encode.
func Decode(st *structpb.Struct) (Snapshot, error) {
	m := st.AsMap()
	s := Snapshot{
		ID:      str(m["id"]),
		Elapsed: time.Duration(num(m["elapsed_ms"])) * time.Millisecond,
		Winner:  num(m["winner"]),
	}
	s.Done, _ = m["done"].(bool)
	boards, _ := m["boards"].([]any)
	for i, b := range boards {
		fields, ok := b.(map[string]any)
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: board %d", ErrBadSnapshot, i)
		}
		v, err := decodeView(fields)
		if err != nil {
			return Snapshot{}, fmt.Errorf("board %d: %w", i, err)
		}
		s.Boards = append(s.Boards, v)
		s.Pending = append(s.Pending, num(fields["pending"]))
	}
	return s, nil
}

func decodeView(m map[string]any) (board.View, error) {
	v := board.View{
		Width:  num(m["width"]),
		Height: num(m["height"]),
		Phase:  board.Phase(num(m["phase"])),
		Score:  num(m["score"]),
		Wave:   num(m["wave"]),
		Pieces: num(m["pieces"]),
	}
	raw, _ := m["rows"].([]any)
	rows := make([]string, len(raw))
	for i, r := range raw {
		rows[i] = str(r)
	}
	cells, err := block.ParseRows(rows...)
	if err != nil {
		return board.View{}, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if cells.Width() != v.Width || cells.Height() != v.Height {
		return board.View{}, fmt.Errorf("%w: rows don't match %dx%d", ErrBadSnapshot, v.Width, v.Height)
	}
	v.Cells = cells

	raw, _ = m["piece"].([]any)
	for _, c := range raw {
		f, _ := c.(map[string]any)
		r := []rune(str(f["block"]))
		if len(r) != 1 {
			return board.View{}, fmt.Errorf("%w: piece cell %v", ErrBadSnapshot, c)
		}
		id, err := block.ParseRune(r[0])
		if err != nil {
			return board.View{}, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
		}
		v.Piece = append(v.Piece, piece.Cell{Pos: grid.Pos{X: num(f["x"]), Y: num(f["y"])}, ID: id})
	}
	return v, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// num reads a JSON number; structpb keeps every number as a float64.
func num(v any) int {
	f, _ := v.(float64)
	return int(f)
}
