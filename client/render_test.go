package client

import (
	"strings"
	"testing"

	"blockfall/block"
	"blockfall/board"
	"blockfall/effect"
	"blockfall/grid"
	"blockfall/logging"
	"blockfall/piece"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	redCell  = "\x1b[7m\x1b[31m[]\x1b[0m"
	blueCell = "\x1b[7m\x1b[34m[]\x1b[0m"
)

func testView() *board.View {
	// +------+
	// |  Y   |  piece
	// |  B   |
	// |  []  |  ghost
	// |  []  |
	// |R   R |
	// |RB  RR|
	// +------+
	return &board.View{
		Width:  6,
		Height: 6,
		Cells: block.MustParseRows(
			"......",
			"......",
			"......",
			"......",
			"R...R.",
			"RB..RR",
		),
		Piece: []piece.Cell{
			{Pos: grid.Pos{X: 2, Y: 0}, ID: block.Yellow},
			{Pos: grid.Pos{X: 2, Y: 1}, ID: block.Blue},
		},
		Ghost:  []grid.Pos{{X: 2, Y: 4}, {X: 2, Y: 5}},
		Next:   []piece.Cell{{Pos: grid.Pos{X: 0, Y: 0}, ID: block.Red}, {Pos: grid.Pos{X: 0, Y: 1}, ID: block.Blue}},
		Phase:  board.Falling,
		Score:  120,
		Pieces: 4,
	}
}

// tallView is testView with room for the whole sidebar.
func tallView() *board.View {
	v := testView()
	v.Height = 12
	v.Cells = grid.New[block.ID](6, 12)
	return v
}

func emptyStack(w, h int) [][]string {
	want := make([][]string, h)
	for y := range want {
		want[y] = make([]string, w)
		for x := range want[y] {
			want[y][x] = empty
		}
	}
	return want
}

func TestStack(t *testing.T) {
	want := emptyStack(6, 6)
	want[0][2] = paint(block.Yellow)
	want[1][2] = blueCell
	want[4][0] = redCell
	want[4][4] = redCell
	want[5][0] = redCell
	want[5][1] = blueCell
	want[5][4] = redCell
	want[5][5] = redCell
	want[4][2] = ghost
	want[5][2] = ghost

	assert.Equal(t, want, stack(testView(), false))

	t.Run("ghost can be hidden", func(t *testing.T) {
		got := stack(testView(), true)
		assert.Equal(t, empty, got[4][2])
		assert.Equal(t, empty, got[5][2])
	})

	t.Run("nil view", func(t *testing.T) {
		assert.Nil(t, stack(nil, false))
	})
}

func TestStackEffects(t *testing.T) {
	v := &board.View{
		Width:  3,
		Height: 3,
		Cells:  block.MustParseRows("...", "...", "..R"),
		Falling: []effect.FallRecord{
			{ID: block.Blue, From: grid.Pos{X: 0, Y: 0}, To: grid.Pos{X: 0, Y: 2}, Progress: 1.4},
		},
		Flashes:   []effect.Flash{{Pos: grid.Pos{X: 2, Y: 2}, ID: block.Red}},
		Fragments: []effect.Fragment{{X: 1.2, Y: 0.9, ID: block.Red}, {X: 9, Y: 9}},
		Cursor:    &grid.Pos{X: 1, Y: 2},
	}
	want := emptyStack(3, 3)
	want[1][0] = blueCell
	want[2][2] = flash
	want[1][1] = spark
	want[2][1] = cursor

	assert.Equal(t, want, stack(v, false))
}

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		v    *board.View
		want [3]string
	}{
		{
			name: "pair",
			v:    testView(),
			want: [3]string{redCell + empty + empty, blueCell + empty + empty, empty + empty + empty},
		},
		{
			name: "piece spawned above the board",
			v: &board.View{Next: []piece.Cell{
				{Pos: grid.Pos{X: 0, Y: -2}, ID: block.Red},
				{Pos: grid.Pos{X: 1, Y: -2}, ID: block.Red},
				{Pos: grid.Pos{X: 2, Y: -1}, ID: block.Blue},
			}},
			want: [3]string{redCell + redCell + empty, empty + empty + blueCell, empty + empty + empty},
		},
		{
			name: "nil view",
			want: [3]string{empty + empty + empty, empty + empty + empty, empty + empty + empty},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, next(tt.v))
		})
	}
}

func TestRows(t *testing.T) {
	local, remote := tallView(), tallView()
	td := &templateData{Local: local, Remote: remote, Pending: [2]int{0, 12}}

	got := rows(td)
	require.Len(t, got, local.Height+1)
	width := visible(got[0])
	for i, r := range got {
		assert.Equal(t, width, visible(r), "row %d", i)
	}
	assert.Contains(t, got[6], "score  120")
	assert.Contains(t, got[9], "glass  12")
	assert.Contains(t, got[12], "+------------+")

	assert.Nil(t, rows(&templateData{}))
}

func TestVisible(t *testing.T) {
	assert.Equal(t, 2, visible(redCell))
	assert.Equal(t, 4, visible(redCell+"ab"))
	assert.Equal(t, redCell+"   ", pad(redCell, 5))
	assert.Equal(t, "abcdef", pad("abcdef", 3))
}

func TestStatusLine(t *testing.T) {
	v := testView()
	v.Glyphs = []effect.Glyph{{Text: "+40"}, {Text: "x2", Delay: 1}}
	got := statusLine(&templateData{Local: v})
	assert.Contains(t, got, "+40")
	assert.NotContains(t, got, "x2")
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		do   func(r *render)
		want []string
	}{
		{
			name: "solo game",
			do:   func(r *render) { r.game(testView(), nil, [2]int{}) },
			want: []string{resetPos, "Blockfall", "score  120", "\r\n"},
		},
		{
			name: "versus game",
			do: func(r *render) {
				r.names("local", "bot")
				r.game(tallView(), tallView(), [2]int{3, 0})
			},
			want: []string{"    local <- vs -> bot", "glass  3"},
		},
		{
			name: "default lobby message",
			do:   func(r *render) { r.lobby(defaultLobby()) },
			want: []string{"\033[10;9H", "Welcome to Blockfall", "(p)lay"},
		},
		{
			name: "you won lobby message",
			do:   func(r *render) { r.lobby(youWon()) },
			want: []string{"You Won!"},
		},
		{
			name: "error lobby message",
			do:   func(r *render) { r.lobby(errorMessage()) },
			want: []string{"something went wrong"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := &strings.Builder{}
			r, err := newRender(w, logging.Discard(), false, "local")
			require.NoError(t, err)
			tt.do(r)
			for _, s := range tt.want {
				assert.Contains(t, w.String(), s)
			}
		})
	}
}

func TestVs(t *testing.T) {
	tests := []struct {
		name     string
		lName    string
		rName    string
		expected string
	}{
		{"short names", "Al", "Bob", "        Al <- vs -> Bob       "},
		{"long names", "Alexandria", "Bartholomew", " Alexandri <- vs -> Bartholom "},
		{"exact names", "Nineteen9", "TwentyTw0", " Nineteen9 <- vs -> TwentyTw0 "},
		{"empty names", "", "", "           <- vs ->           "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, vs(tt.lName, tt.rName))
		})
	}
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "  ab  ", center("ab", 6))
	assert.Equal(t, " abc  ", center("abc", 6))
	assert.Equal(t, "abc", center("abcdef", 3))
}
