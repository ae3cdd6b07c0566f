// Package effect animates what the gravity and match algorithms did to a
// board.
//
// Each machine keeps its own render copy of the board. The logical board may
// only be changed again once HasEffects reports false; the board drivers
// enforce that.
package effect

import (
	"math/rand/v2"
	"time"

	"blockfall/block"
	"blockfall/grid"
)

// FallRecord is one block in flight.
type FallRecord struct {
	ID       block.ID
	From, To grid.Pos
	// Progress is the distance travelled so far, in cells.
	Progress float64
	// Rate is the fall speed in cells per second.
	Rate float64
}

// Distance is the full travel of the record, in cells.
func (r FallRecord) Distance() float64 { return float64(r.To.Y - r.From.Y) }

// Y is the current row of the block, fractional while it falls.
func (r FallRecord) Y() float64 { return float64(r.From.Y) + r.Progress }

// FallMachine implements gravity.Effects.
type FallMachine struct {
	render  *block.Grid
	records []FallRecord
	rates   []float64
	speed   float64
}

// Jitter is the largest relative deviation of a column's fall rate.
const Jitter = 0.25

// NewFallMachine returns a machine for a width x height board. speed is the
// base fall rate in cells per second; every column gets its own multiplier
// drawn from r so that columns land out of step.
func NewFallMachine(width, height int, speed float64, r *rand.Rand) *FallMachine {
	m := &FallMachine{
		render: grid.New[block.ID](width, height),
		rates:  make([]float64, width),
		speed:  speed,
	}
	for x := range m.rates {
		m.rates[x] = 1
		if r != nil {
			m.rates[x] += (r.Float64()*2 - 1) * Jitter
		}
	}
	return m
}

func (m *FallMachine) Start() {
	m.render.Fill(block.Empty)
	m.records = m.records[:0]
}

func (m *FallMachine) Stationary(p grid.Pos, id block.ID) {
	if m.render.HasPosition(p) {
		m.render.Set(p, id)
	}
}

func (m *FallMachine) Falling(from, to grid.Pos, id block.ID) {
	x := min(max(to.X, 0), len(m.rates)-1)
	rate := m.speed
	if x >= 0 {
		rate *= m.rates[x]
	}
	m.records = append(m.records, FallRecord{ID: id, From: from, To: to, Rate: rate})
}

func (m *FallMachine) Finish() {}

// Update advances every record by dt. A record that has covered its distance
// is dropped and its block committed into the render copy.
func (m *FallMachine) Update(dt time.Duration) {
	s := dt.Seconds()
	kept := m.records[:0]
	for _, r := range m.records {
		r.Progress += s * r.Rate
		if r.Progress >= r.Distance() {
			if m.render.HasPosition(r.To) {
				m.render.Set(r.To, r.ID)
			}
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
}

func (m *FallMachine) HasEffects() bool { return len(m.records) > 0 }

// Render is the board as drawn: stationary and landed blocks only. Blocks in
// flight are listed by Records.
func (m *FallMachine) Render() grid.Reader[block.ID] { return m.render }

func (m *FallMachine) Records() []FallRecord { return m.records }

// Skip lands every record at once.
func (m *FallMachine) Skip() {
	for _, r := range m.records {
		if m.render.HasPosition(r.To) {
			m.render.Set(r.To, r.ID)
		}
	}
	m.records = m.records[:0]
}
