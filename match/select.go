package match

import (
	"blockfall/block"
	"blockfall/grid"
)

// Selector finds connected groups of one color. The explored grid is kept
// between calls, so scanning a whole board visits every cell once.
//
// The zero value is ready to use.
type Selector struct {
	explored *grid.Grid[bool]
}

// Select appends to dst the group connected to start and returns it, in
// breadth-layer order with start first. A neighbour joins when it is inside
// the board, holds the same color as start and was not explored yet. Nothing
// is appended when start is not a color or was already explored.
func (s *Selector) Select(g grid.Reader[block.ID], start grid.Pos, dst []grid.Pos) []grid.Pos {
	s.fit(g)
	id := g.At(start)
	if !id.IsColor() || s.explored.At(start) {
		return dst
	}

	s.explored.Set(start, true)
	dst = append(dst, start)
	for i := len(dst) - 1; i < len(dst); i++ {
		for _, d := range neighbours {
			n := dst[i].Add(d)
			if !g.HasPosition(n) || s.explored.At(n) || g.At(n) != id {
				continue
			}
			s.explored.Set(n, true)
			dst = append(dst, n)
		}
	}
	return dst
}

// Explored reports whether p was reached by an earlier Select.
func (s *Selector) Explored(p grid.Pos) bool {
	return s.explored != nil && s.explored.HasPosition(p) && s.explored.At(p)
}

// Reset forgets every explored cell.
func (s *Selector) Reset() {
	if s.explored != nil {
		s.explored.Fill(false)
	}
}

func (s *Selector) fit(g grid.Reader[block.ID]) {
	if s.explored == nil {
		s.explored = grid.New[bool](g.Width(), g.Height())
		return
	}
	if s.explored.Width() != g.Width() || s.explored.Height() != g.Height() {
		s.explored.SetSize(g.Width(), g.Height())
	}
}

// SelectConnected returns the group connected to start.
func SelectConnected(g grid.Reader[block.ID], start grid.Pos) []grid.Pos {
	var s Selector
	return s.Select(g, start, nil)
}
