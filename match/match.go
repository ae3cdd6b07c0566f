// Package match finds and clears groups of blocks.
//
// Every detector works in two passes: the cells to remove are marked from a
// snapshot of the board, then the marks are applied. A cell marked more than
// once is still removed once.
package match

import (
	"iter"

	"blockfall/block"
	"blockfall/grid"
)

// Effects receives the cells removed by one detector pass.
type Effects interface {
	Start()
	Pop(p grid.Pos, id block.ID)
	// Decay reports a special block hit by a neighbouring clear. from is the
	// value before the hit.
	Decay(p grid.Pos, from block.ID)
	Finish()
}

// GroupEffects is implemented by effects that also want to see each
// threshold group as a whole. Group is called before the member cells pop.
type GroupEffects interface {
	Group(cells []grid.Pos, id block.ID)
}

type NoEffects struct{}

func (NoEffects) Start()                     {}
func (NoEffects) Pop(grid.Pos, block.ID)     {}
func (NoEffects) Decay(grid.Pos, block.ID)   {}
func (NoEffects) Finish()                    {}
func (NoEffects) Group([]grid.Pos, block.ID) {}

func orNone(fx Effects) Effects {
	if fx == nil {
		return NoEffects{}
	}
	return fx
}

var neighbours = [4]grid.Pos{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// PopConnected removes every connected group of at least threshold cells and
// decays the special blocks next to them. It reports whether anything was
// removed.
func PopConnected(g grid.Accessor[block.ID], threshold int, fx Effects) bool {
	fx = orNone(fx)
	threshold = max(threshold, 1)
	marked := grid.New[bool](g.Width(), g.Height())
	gfx, _ := fx.(GroupEffects)

	var sel Selector
	var group []grid.Pos
	var groups [][]grid.Pos
	for p := range positions(g) {
		if sel.Explored(p) || !g.At(p).IsColor() {
			continue
		}
		group = sel.Select(g, p, group[:0])
		if len(group) < threshold {
			continue
		}
		for _, c := range group {
			marked.Set(c, true)
		}
		groups = append(groups, append([]grid.Pos(nil), group...))
	}
	if len(groups) == 0 {
		return false
	}

	fx.Start()
	if gfx != nil {
		for _, cells := range groups {
			gfx.Group(cells, g.At(cells[0]))
		}
	}
	apply(g, marked, fx)
	fx.Finish()
	return true
}

// PopColumns removes every straight run of at least threshold equal colors.
// Runs are searched in six scan families: rows, columns, and the two
// diagonals, each diagonal started once from the top edge and once from a
// side edge.
//
//	R R R        . . .
//	R R R   ->   . . .
//	R R R        . . .
func PopColumns(g grid.Accessor[block.ID], threshold int, fx Effects) bool {
	fx = orNone(fx)
	threshold = max(threshold, 1)
	w, h := g.Width(), g.Height()
	marked := grid.New[bool](w, h)

	down, right := grid.Pos{X: 0, Y: 1}, grid.Pos{X: 1, Y: 0}
	downRight, downLeft := grid.Pos{X: 1, Y: 1}, grid.Pos{X: -1, Y: 1}
	found := false
	for y := range h {
		found = scanRun(g, grid.Pos{X: 0, Y: y}, right, threshold, marked) || found
	}
	for x := range w {
		found = scanRun(g, grid.Pos{X: x, Y: 0}, down, threshold, marked) || found
	}
	for x := range w {
		found = scanRun(g, grid.Pos{X: x, Y: 0}, downRight, threshold, marked) || found
	}
	for y := 1; y < h; y++ {
		found = scanRun(g, grid.Pos{X: 0, Y: y}, downRight, threshold, marked) || found
	}
	for x := w - 1; x >= 0; x-- {
		found = scanRun(g, grid.Pos{X: x, Y: 0}, downLeft, threshold, marked) || found
	}
	for y := 1; y < h; y++ {
		found = scanRun(g, grid.Pos{X: w - 1, Y: y}, downLeft, threshold, marked) || found
	}
	if !found {
		return false
	}

	fx.Start()
	apply(g, marked, fx)
	fx.Finish()
	return true
}

// scanRun walks from start along dir and marks every run of at least
// threshold equal colors. A run is flushed when the color changes, when it
// meets an empty or special cell, and at the board edge.
func scanRun(g grid.Reader[block.ID], start, dir grid.Pos, threshold int, marked *grid.Grid[bool]) bool {
	found := false
	runStart, runLen := start, 0
	runID := block.Empty

	flush := func() {
		if runLen < threshold {
			return
		}
		found = true
		p := runStart
		for range runLen {
			marked.Set(p, true)
			p = p.Add(dir)
		}
	}

	p := start
	for ; g.HasPosition(p); p = p.Add(dir) {
		id := g.At(p)
		if id.IsColor() && id == runID {
			runLen++
			continue
		}
		flush()
		runID, runStart, runLen = id, p, 0
		if id.IsColor() {
			runLen = 1
		}
	}
	flush()
	return found
}

// ClearRows removes every row without an empty cell and returns how many
// rows were removed. Rows above are not moved; see gravity.FallRows.
func ClearRows(g grid.Accessor[block.ID], fx Effects) int {
	fx = orNone(fx)
	var rows []int
	for y := range g.Height() {
		full := g.Width() > 0
		for x := range g.Width() {
			if g.At(grid.Pos{X: x, Y: y}) == block.Empty {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, y)
		}
	}
	if len(rows) == 0 {
		return 0
	}

	fx.Start()
	for _, y := range rows {
		for x := range g.Width() {
			p := grid.Pos{X: x, Y: y}
			fx.Pop(p, g.At(p))
			g.Set(p, block.Empty)
		}
	}
	fx.Finish()
	return len(rows)
}

// Remove pops the given cells as one group, decaying the special blocks next
// to them.
func Remove(g grid.Accessor[block.ID], cells []grid.Pos, fx Effects) {
	if len(cells) == 0 {
		return
	}
	fx = orNone(fx)
	marked := grid.New[bool](g.Width(), g.Height())
	for _, p := range cells {
		marked.Set(p, true)
	}
	fx.Start()
	if gfx, ok := fx.(GroupEffects); ok {
		gfx.Group(cells, g.At(cells[0]))
	}
	apply(g, marked, fx)
	fx.Finish()
}

// HasGroup reports whether g holds a connected group of at least size cells.
func HasGroup(g grid.Reader[block.ID], size int) bool {
	var sel Selector
	var group []grid.Pos
	for p := range positions(g) {
		if sel.Explored(p) || !g.At(p).IsColor() {
			continue
		}
		group = sel.Select(g, p, group[:0])
		if len(group) >= size {
			return true
		}
	}
	return false
}

// apply pops the marked cells in raster order, then decays every special
// block next to at least one of them. A special block decays once per pass
// however many of its neighbours were removed.
func apply(g grid.Accessor[block.ID], marked *grid.Grid[bool], fx Effects) {
	decay := grid.New[bool](g.Width(), g.Height())
	for p, m := range marked.All() {
		if !m {
			continue
		}
		for _, d := range neighbours {
			n := p.Add(d)
			if g.HasPosition(n) && !marked.At(n) && g.At(n).IsSpecial() {
				decay.Set(n, true)
			}
		}
	}
	for p, m := range marked.All() {
		if !m {
			continue
		}
		fx.Pop(p, g.At(p))
		g.Set(p, block.Empty)
	}
	for p, d := range decay.All() {
		if !d {
			continue
		}
		id := g.At(p)
		fx.Decay(p, id)
		g.Set(p, id.Decay())
	}
}

// positions yields every position of g in raster order.
func positions(g grid.Reader[block.ID]) iter.Seq[grid.Pos] {
	return func(yield func(grid.Pos) bool) {
		for y := range g.Height() {
			for x := range g.Width() {
				if !yield(grid.Pos{X: x, Y: y}) {
					return
				}
			}
		}
	}
}
