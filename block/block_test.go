package block

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecay(t *testing.T) {
	tests := []struct {
		in, want ID
	}{
		{HardGlass, Glass},
		{Glass, Empty},
		{Empty, Empty},
		{Red, Empty},
		{Yellow, Empty},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Decay())
		})
	}
}

func TestClassification(t *testing.T) {
	for id := Empty; id <= HardGlass; id++ {
		assert.False(t, id.IsColor() && id.IsSpecial(), "%v is both color and special", id)
	}
	assert.False(t, Empty.IsColor())
	assert.False(t, Empty.IsSpecial())
	assert.True(t, Magenta.IsColor())
	assert.True(t, HardGlass.IsSpecial())
}

func TestPalette(t *testing.T) {
	p, err := Palette(3)
	require.NoError(t, err)
	assert.Equal(t, []ID{Red, Blue, Green}, p)

	for _, n := range []int{0, -1, MaxColors + 1} {
		_, err := Palette(n)
		assert.ErrorIs(t, err, ErrInvalidColorCount)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		assert.Contains(t, p, Random(r, p))
	}
}

func TestParseFormatRows(t *testing.T) {
	rows := []string{
		"..R",
		"gGh",
	}
	g, err := ParseRows(rows...)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 2, g.Height())
	assert.Equal(t, rows, FormatRows(g))
	assert.Equal(t, 4, Count(g))

	_, err = ParseRows("..", "...")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParseRows("x")
	assert.ErrorIs(t, err, ErrInvalidRune)
}
