package effect

import (
	"math/rand/v2"
	"testing"
	"time"

	"blockfall/block"
	"blockfall/gravity"
	"blockfall/grid"
	"blockfall/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ gravity.Effects    = (*FallMachine)(nil)
	_ match.Effects      = (*PopMachine)(nil)
	_ match.GroupEffects = (*PopMachine)(nil)
)

func TestFallMachineLandsBlocks(t *testing.T) {
	g := block.MustParseRows(
		"R.",
		"..",
		"..",
		"GB",
	)
	m := NewFallMachine(2, 4, 10, rand.New(rand.NewPCG(1, 2)))

	require.True(t, gravity.MakeBlocksFall(g, m))
	require.True(t, m.HasEffects())
	require.Len(t, m.Records(), 1)
	rec := m.Records()[0]
	assert.Equal(t, grid.Pos{X: 0, Y: 0}, rec.From)
	assert.Equal(t, grid.Pos{X: 0, Y: 2}, rec.To)
	assert.Equal(t, 2.0, rec.Distance())

	// the render copy holds the stationary blocks only
	assert.Equal(t, []string{"..", "..", "..", "GB"}, block.FormatRows(m.Render()))

	m.Update(10 * time.Millisecond)
	assert.True(t, m.HasEffects())
	assert.Greater(t, m.Records()[0].Y(), 0.0)

	for range 100 {
		if !m.HasEffects() {
			break
		}
		m.Update(50 * time.Millisecond)
	}
	assert.False(t, m.HasEffects())
	assert.Equal(t, block.FormatRows(g), block.FormatRows(m.Render()))
}

func TestFallMachineColumnRates(t *testing.T) {
	m := NewFallMachine(8, 2, 10, rand.New(rand.NewPCG(3, 4)))
	for x := range 8 {
		m.Falling(grid.Pos{X: x, Y: 0}, grid.Pos{X: x, Y: 1}, block.Red)
	}
	distinct := map[float64]bool{}
	for _, r := range m.Records() {
		assert.InDelta(t, 10, r.Rate, 10*Jitter)
		distinct[r.Rate] = true
	}
	assert.Greater(t, len(distinct), 1, "columns should not share one rate")

	fixed := NewFallMachine(3, 2, 10, nil)
	fixed.Falling(grid.Pos{X: 0, Y: 0}, grid.Pos{X: 0, Y: 1}, block.Red)
	assert.Equal(t, 10.0, fixed.Records()[0].Rate)
}

func TestFallMachineDrainLeavesRender(t *testing.T) {
	g := block.MustParseRows("RG")
	m := NewFallMachine(2, 1, 100, nil)
	gravity.DrainAll(g, m)
	assert.Len(t, m.Records(), 2)
	m.Skip()
	assert.False(t, m.HasEffects())
	assert.Zero(t, block.Count(m.Render()))
}

func TestPopMachineLifecycle(t *testing.T) {
	// .	0 1 2
	// 0	R R g
	// 1	R R B
	g := block.MustParseRows(
		"RRg",
		"RRB",
	)
	m := NewPopMachine(g, 4, rand.New(rand.NewPCG(5, 6)))
	m.SetWave(2)

	require.True(t, match.PopConnected(g, 4, m))
	assert.Equal(t, []string{"...", "..B"}, block.FormatRows(g))
	assert.Equal(t, block.FormatRows(g), block.FormatRows(m.Render()))
	assert.Len(t, m.Flashes(), 4)
	assert.Empty(t, m.Fragments())
	require.Len(t, m.Glyphs(), 1)
	glyph := m.Glyphs()[0]
	assert.Equal(t, "+80", glyph.Text)
	assert.False(t, glyph.Visible())
	assert.InDelta(t, 1.0, glyph.X, 1e-9)
	assert.InDelta(t, 1.0, glyph.Y, 1e-9)

	m.Update(FlashTime)
	assert.Empty(t, m.Flashes())
	assert.Len(t, m.Fragments(), 16)
	for _, f := range m.Fragments() {
		assert.Equal(t, block.Red, f.ID)
		assert.InDelta(t, 1.0, f.Shade(), 1e-9)
	}
	assert.True(t, m.HasEffects())

	m.Update(FragmentTime / 2)
	for _, f := range m.Fragments() {
		assert.InDelta(t, 0.5, f.Shade(), 1e-9)
	}
	assert.True(t, m.Glyphs()[0].Visible())

	m.Update(GlyphTime)
	assert.False(t, m.HasEffects())
}

func TestFragmentsFlyOutward(t *testing.T) {
	g := block.MustParseRows("R")
	m := NewPopMachine(g, 0, rand.New(rand.NewPCG(7, 8)))
	match.Remove(g, []grid.Pos{{X: 0, Y: 0}}, m)
	assert.Empty(t, m.Glyphs(), "glyphs are disabled without a threshold")

	m.Update(FlashTime)
	require.Len(t, m.Fragments(), 4)
	f := m.Fragments()
	// top-left, top-right, bottom-right, bottom-left
	assert.Less(t, f[0].VX, 0.0)
	assert.Less(t, f[0].VY, 0.0)
	assert.Greater(t, f[1].VX, 0.0)
	assert.Less(t, f[1].VY, 0.0)
	assert.Greater(t, f[2].VX, 0.0)
	assert.Greater(t, f[2].VY, 0.0)
	assert.Less(t, f[3].VX, 0.0)
	assert.Greater(t, f[3].VY, 0.0)

	vy := f[0].VY
	m.Update(100 * time.Millisecond)
	assert.Greater(t, m.Fragments()[0].VY, vy, "gravity pulls fragments down")
}

func TestPopMachineDecaysRender(t *testing.T) {
	g := block.MustParseRows("RRh")
	m := NewPopMachine(g, 0, nil)
	require.True(t, match.PopConnected(g, 2, m))
	assert.Equal(t, []string{"..g"}, block.FormatRows(m.Render()))
}

func TestScore(t *testing.T) {
	tests := []struct {
		size, threshold, wave, order int
		want                         int
	}{
		{4, 4, 1, 0, 40},
		{5, 4, 1, 0, 60},
		{4, 4, 2, 0, 80},
		{4, 4, 1, 1, 60},
		{5, 4, 2, 1, 180},
		{4, 4, 0, 0, 40},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.size, tt.threshold, tt.wave, tt.order), "%+v", tt)
	}
}
