package sim

import (
	"bytes"
	"strings"
	"testing"

	"blockfall/settings"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preset(t *testing.T, v settings.Variant) settings.Settings {
	t.Helper()
	s, err := settings.Preset(v)
	require.NoError(t, err)
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		o    Options
	}{
		{"no games", Options{Settings: preset(t, settings.Puyo)}},
		{"negative workers", Options{Settings: preset(t, settings.Puyo), Games: 1, Workers: -1}},
		{"bad settings", Options{Games: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.o.Validate(), ErrInvalidArgument)
		})
	}
}

func TestPlay(t *testing.T) {
	t.Run("puyo stops at the piece limit", func(t *testing.T) {
		t.Parallel()
		g, err := Play(Options{Settings: preset(t, settings.Puyo), MaxPieces: 10}, 5, nil)
		require.NoError(t, err)
		assert.False(t, g.Over)
		assert.Equal(t, 10, g.Pieces)
		assert.Equal(t, uint64(5), g.Seed)
	})

	t.Run("stacker tops out", func(t *testing.T) {
		t.Parallel()
		g, err := Play(Options{Settings: preset(t, settings.Stacker), MaxFrames: 200_000}, 5, nil)
		require.NoError(t, err)
		assert.True(t, g.Over, "random drops fill the well")
		assert.Positive(t, g.Pieces)
	})

	t.Run("columns", func(t *testing.T) {
		t.Parallel()
		g, err := Play(Options{Settings: preset(t, settings.Columns), MaxPieces: 20}, 5, nil)
		require.NoError(t, err)
		assert.Positive(t, g.Pieces)
	})

	t.Run("clicker pops groups", func(t *testing.T) {
		t.Parallel()
		g, err := Play(Options{Settings: preset(t, settings.Clicker), MaxFrames: 5_000}, 5, nil)
		require.NoError(t, err)
		assert.Positive(t, g.Clears)
		assert.Positive(t, g.Score)
		assert.Zero(t, g.Pieces, "nothing falls on a clicker board")
	})
}

func TestSummarize(t *testing.T) {
	r := Summarize(settings.Puyo, []Game{
		{Score: 100, Pieces: 10, Chains: []int{1, 2, 1}, Over: true},
		{Score: 300, Pieces: 30, Chains: []int{3}},
	})
	assert.Equal(t, 2, r.Games)
	assert.Equal(t, 1, r.GameOver)
	assert.InDelta(t, 200, r.Score.Mean, 1e-9)
	assert.InDelta(t, 100, r.Score.Min, 1e-9)
	assert.InDelta(t, 300, r.Score.Max, 1e-9)
	assert.InDelta(t, 141.42, r.Score.StdDev, 0.01)
	assert.InDelta(t, 1.75, r.Chains.Mean, 1e-9)
	assert.Equal(t, map[int]int{1: 2, 2: 1, 3: 1}, r.ChainCounts)

	empty := Summarize(settings.Puyo, nil)
	assert.Zero(t, empty.Score)
	assert.Empty(t, empty.ChainCounts)
}

func TestRun(t *testing.T) {
	s := preset(t, settings.Puyo)
	s.Seed = 9
	var progress bytes.Buffer
	r, err := Run(Options{Settings: s, Games: 4, Workers: 2, MaxPieces: 5, Progress: &progress}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Games)
	assert.Equal(t, uint64(9), r.Seed)
	require.Len(t, r.Results, 4)
	for i, g := range r.Results {
		assert.Equal(t, uint64(9+i), g.Seed)
		assert.Equal(t, 5, g.Pieces)
	}

	again, err := Run(Options{Settings: s, Games: 4, Workers: 3, MaxPieces: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, r.Score, again.Score, "seeded runs repeat")
}

func TestEncode(t *testing.T) {
	r := Summarize(settings.Puyo, []Game{{Score: 40, Pieces: 3, Chains: []int{1}}})
	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, r.Encode(&buf, compress))
		if !compress {
			assert.Contains(t, buf.String(), "variant: puyo")
		}
		back, err := ReadReport(&buf, compress)
		require.NoError(t, err)
		assert.Equal(t, r.Score, back.Score)
		assert.Equal(t, r.ChainCounts, back.ChainCounts)
	}
}

func TestTable(t *testing.T) {
	r := Summarize(settings.Puyo, []Game{{Score: 12_345, Pieces: 3, Chains: []int{1, 2}}})
	table := r.Table()
	assert.Contains(t, table, "12,345", "numbers are grouped")
	assert.Contains(t, table, "2-chains")

	lines := strings.Split(strings.TrimSuffix(table, "\n"), "\n")
	for _, l := range lines {
		assert.Equal(t, runewidth.StringWidth(lines[0]), runewidth.StringWidth(l), l)
	}
}
