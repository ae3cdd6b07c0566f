package effect

import (
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"blockfall/block"
	"blockfall/grid"
)

const (
	FlashTime    = 150 * time.Millisecond
	FragmentTime = 600 * time.Millisecond
	GlyphTime    = time.Second

	// fragment motion, in cells and seconds
	fragmentSpeed   = 6.0
	fragmentGravity = 30.0
	glyphRise       = 1.5
)

// Flash marks a popped cell before it bursts.
type Flash struct {
	Pos       grid.Pos
	ID        block.ID
	Remaining time.Duration
}

// Fragment is a quarter of a popped block flying off.
type Fragment struct {
	X, Y      float64
	VX, VY    float64
	ID        block.ID
	Remaining time.Duration
}

// Shade goes from 1 at launch to 0 when the fragment expires.
func (f Fragment) Shade() float64 {
	return max(0, float64(f.Remaining)/float64(FragmentTime))
}

// Glyph is a floating score delta.
type Glyph struct {
	X, Y float64
	Text string
	// Delay keeps the glyph hidden until the flash of its group is over.
	Delay     time.Duration
	Remaining time.Duration
}

func (g Glyph) Visible() bool { return g.Delay <= 0 }

// corner launch bands, in radians, for the top-left, top-right,
// bottom-right and bottom-left quarter of a block. y grows downward.
var corners = [4]struct {
	dx, dy float64
	angle  float64
}{
	{-0.25, -0.25, 3 * math.Pi / 4},
	{0.25, -0.25, math.Pi / 4},
	{0.25, 0.25, -math.Pi / 4},
	{-0.25, 0.25, -3 * math.Pi / 4},
}

const band = math.Pi / 8

// PopMachine implements match.Effects and match.GroupEffects.
type PopMachine struct {
	source    grid.Reader[block.ID]
	render    *block.Grid
	r         *rand.Rand
	flashes   []Flash
	fragments []Fragment
	glyphs    []Glyph

	// glyphs are only spawned when threshold > 0
	threshold int
	wave      int
	order     int
}

// NewPopMachine returns a machine mirroring source. Pass threshold 0 to
// disable score glyphs.
func NewPopMachine(source grid.Reader[block.ID], threshold int, r *rand.Rand) *PopMachine {
	if r == nil {
		r = rand.New(rand.NewPCG(1, 1))
	}
	m := &PopMachine{
		source:    source,
		render:    grid.New[block.ID](source.Width(), source.Height()),
		r:         r,
		threshold: threshold,
		wave:      1,
	}
	m.render.CopyFrom(source)
	return m
}

// SetWave sets the chain number used by the next score glyphs.
func (m *PopMachine) SetWave(wave int) { m.wave = max(wave, 1) }

func (m *PopMachine) Start() {
	m.render.CopyFrom(m.source)
	m.order = 0
}

func (m *PopMachine) Group(cells []grid.Pos, _ block.ID) {
	if m.threshold <= 0 || len(cells) == 0 {
		return
	}
	var cx, cy float64
	for _, p := range cells {
		cx += float64(p.X) + 0.5
		cy += float64(p.Y) + 0.5
	}
	n := float64(len(cells))
	points := Score(len(cells), m.threshold, m.wave, m.order)
	m.order++
	m.glyphs = append(m.glyphs, Glyph{
		X:         cx / n,
		Y:         cy / n,
		Text:      "+" + strconv.Itoa(points),
		Delay:     FlashTime,
		Remaining: GlyphTime,
	})
}

func (m *PopMachine) Pop(p grid.Pos, id block.ID) {
	m.flashes = append(m.flashes, Flash{Pos: p, ID: id, Remaining: FlashTime})
	m.render.Set(p, block.Empty)
}

func (m *PopMachine) Decay(p grid.Pos, from block.ID) {
	m.render.Set(p, from.Decay())
}

func (m *PopMachine) Finish() {}

// Update advances every record by dt and drops the expired ones. An expired
// flash bursts into four fragments, which start moving on the next update.
func (m *PopMachine) Update(dt time.Duration) {
	s := dt.Seconds()

	fragments := m.fragments[:0]
	for _, f := range m.fragments {
		f.Remaining -= dt
		if f.Remaining <= 0 {
			continue
		}
		f.VY += fragmentGravity * s
		f.X += f.VX * s
		f.Y += f.VY * s
		fragments = append(fragments, f)
	}
	m.fragments = fragments

	flashes := m.flashes[:0]
	for _, f := range m.flashes {
		f.Remaining -= dt
		if f.Remaining > 0 {
			flashes = append(flashes, f)
			continue
		}
		m.burst(f)
	}
	m.flashes = flashes

	glyphs := m.glyphs[:0]
	for _, g := range m.glyphs {
		if g.Delay > 0 {
			g.Delay -= dt
			glyphs = append(glyphs, g)
			continue
		}
		g.Remaining -= dt
		if g.Remaining <= 0 {
			continue
		}
		g.Y -= glyphRise * s
		glyphs = append(glyphs, g)
	}
	m.glyphs = glyphs
}

func (m *PopMachine) burst(f Flash) {
	cx, cy := float64(f.Pos.X)+0.5, float64(f.Pos.Y)+0.5
	for _, c := range corners {
		a := c.angle + (m.r.Float64()*2-1)*band
		m.fragments = append(m.fragments, Fragment{
			X:         cx + c.dx,
			Y:         cy + c.dy,
			VX:        math.Cos(a) * fragmentSpeed,
			VY:        -math.Sin(a) * fragmentSpeed,
			ID:        f.ID,
			Remaining: FragmentTime,
		})
	}
}

func (m *PopMachine) HasEffects() bool {
	return len(m.flashes) > 0 || len(m.fragments) > 0 || len(m.glyphs) > 0
}

// Render is the board as drawn while pops play: popped cells are already
// empty and decayed cells already show their new value.
func (m *PopMachine) Render() grid.Reader[block.ID] { return m.render }

func (m *PopMachine) Flashes() []Flash      { return m.flashes }
func (m *PopMachine) Fragments() []Fragment { return m.fragments }
func (m *PopMachine) Glyphs() []Glyph       { return m.glyphs }

// Score is the value of clearing one group of size cells. Every cell beyond
// threshold is worth double and the chain wave multiplies the total. Each
// later group of the same pass adds half of it again.
//
//	Score(4, 4, 1, 0) == 40
//	Score(5, 4, 2, 1) == 180
func Score(size, threshold, wave, order int) int {
	extra := max(size-max(threshold, 0), 0)
	base := 10*size + 10*extra
	return base * max(wave, 1) * (order + 2) / 2
}
