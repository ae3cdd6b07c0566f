package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPosition(t *testing.T) {
	g := New[int](4, 3)
	for y := range 3 {
		for x := range 4 {
			p := Pos{X: x, Y: y}
			assert.True(t, g.HasPosition(p), "%v should be inside", p)
			assert.NotPanics(t, func() { g.Set(p, x+y) })
		}
	}

	outside := []Pos{{-1, 0}, {0, -1}, {4, 0}, {0, 3}, {4, 3}, {-1, -1}, {100, 1}}
	for _, p := range outside {
		assert.False(t, g.HasPosition(p), "%v should be outside", p)
		assert.Panics(t, func() { g.At(p) }, "indexing %v should panic", p)
	}
}

func TestSetSizeFill(t *testing.T) {
	g := New[string](2, 2)
	g.Set(Pos{1, 1}, "x")
	g.SetSizeFill(3, 1, "o")
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 1, g.Height())
	for _, v := range g.All() {
		assert.Equal(t, "o", v)
	}
}

func TestRasterOrder(t *testing.T) {
	g := New[int](3, 2)
	var got []Pos
	for p := g.Begin(); p != g.End(); p = g.Next(p) {
		got = append(got, p)
	}
	want := []Pos{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}
	assert.Equal(t, want, got)
	assert.Equal(t, g.End(), g.Next(Pos{2, 1}))

	empty := New[int](0, 0)
	assert.Equal(t, empty.End(), empty.Begin())
}

func TestViewAliasesParent(t *testing.T) {
	// .	0 1 2 3
	// 0	. . . .
	// 1	. V V .
	// 2	. V V .
	g := New[int](4, 3)
	v := g.Sub(Pos{1, 1}, 2, 2)

	v.Set(Pos{0, 0}, 7)
	assert.Equal(t, 7, g.At(Pos{1, 1}))

	g.Set(Pos{2, 2}, 9)
	assert.Equal(t, 9, v.At(Pos{1, 1}))

	assert.False(t, v.HasPosition(Pos{2, 0}))
	assert.Panics(t, func() { v.At(Pos{2, 0}) })

	ro := g.ReadOnly(Pos{1, 1}, 2, 2)
	assert.Equal(t, 7, ro.At(Pos{0, 0}))

	rest := g.SubRest(Pos{2, 1})
	assert.Equal(t, 2, rest.Width())
	assert.Equal(t, 2, rest.Height())
	assert.Equal(t, 9, rest.At(Pos{0, 1}))

	nested := v.Sub(Pos{1, 1}, 1, 1)
	nested.Set(Pos{}, 3)
	assert.Equal(t, 3, g.At(Pos{2, 2}))
}

func TestViewMustFit(t *testing.T) {
	g := New[int](3, 3)
	assert.Panics(t, func() { g.Sub(Pos{2, 2}, 2, 1) })
	assert.Panics(t, func() { g.ReadOnly(Pos{-1, 0}, 1, 1) })
	assert.NotPanics(t, func() { g.SubRest(Pos{3, 3}) })
}

func TestCloneAndCopy(t *testing.T) {
	g := New[int](2, 2)
	g.Set(Pos{0, 1}, 5)
	c := g.Clone()
	c.Set(Pos{0, 1}, 6)
	assert.Equal(t, 5, g.At(Pos{0, 1}))

	d := New[int](1, 1)
	d.CopyFrom(g.Sub(Pos{0, 1}, 2, 1))
	require.Equal(t, 2, d.Width())
	assert.Equal(t, 5, d.At(Pos{0, 0}))
}
