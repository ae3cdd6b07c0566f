package piece

import (
	"math/rand/v2"
	"testing"

	"blockfall/block"
	"blockfall/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Dropper = (*Pair)(nil)
	_ Dropper = (*Column)(nil)
	_ Dropper = (*Polyomino)(nil)
)

func TestFits(t *testing.T) {
	// .	0 1 2
	// 0	. . .
	// 1	. X .
	g := block.MustParseRows(
		"...",
		".R.",
	)
	tests := []struct {
		name          string
		before, after []grid.Pos
		want          bool
	}{
		{
			name:   "free cells",
			before: []grid.Pos{{X: 0, Y: 0}},
			after:  []grid.Pos{{X: 0, Y: 1}},
			want:   true,
		},
		{
			name:   "occupied",
			before: []grid.Pos{{X: 1, Y: 0}},
			after:  []grid.Pos{{X: 1, Y: 1}},
		},
		{
			name:   "more cells outside",
			before: []grid.Pos{{X: 0, Y: 0}},
			after:  []grid.Pos{{X: -1, Y: 0}},
		},
		{
			name:   "same count outside the top",
			before: []grid.Pos{{X: 0, Y: -1}, {X: 0, Y: 0}},
			after:  []grid.Pos{{X: 2, Y: -1}, {X: 2, Y: 0}},
			want:   true,
		},
		{
			name:   "through the floor while entering from the top",
			before: []grid.Pos{{X: 0, Y: -1}, {X: 0, Y: 1}},
			after:  []grid.Pos{{X: 0, Y: 0}, {X: 0, Y: 2}},
		},
		{
			name:   "off the side above the board",
			before: []grid.Pos{{X: 0, Y: -2}, {X: 0, Y: -1}},
			after:  []grid.Pos{{X: -1, Y: -2}, {X: -1, Y: -1}},
		},
		{
			name:   "fewer cells outside",
			before: []grid.Pos{{X: 0, Y: -2}, {X: 0, Y: -1}},
			after:  []grid.Pos{{X: 0, Y: -1}, {X: 0, Y: 0}},
			want:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Fits(g, tt.before, tt.after))
		})
	}
}

func TestDir(t *testing.T) {
	for d := Up; d <= Left; d++ {
		o := d.Offset()
		assert.Equal(t, 1, abs(o.X)+abs(o.Y), "%v is not a unit offset", d)
		assert.Equal(t, d, d.CW().CCW())
	}
	assert.Equal(t, Up, Left.CW())
	assert.Equal(t, Left, Up.CCW())
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestLock(t *testing.T) {
	g := grid.New[block.ID](2, 2)
	out := Lock(g, []Cell{{grid.Pos{X: 0, Y: 1}, block.Red}, {grid.Pos{X: 0, Y: 0}, block.Blue}})
	assert.False(t, out)
	assert.Equal(t, []string{"B.", "R."}, block.FormatRows(g))

	out = Lock(g, []Cell{{grid.Pos{X: 1, Y: 0}, block.Red}, {grid.Pos{X: 1, Y: -1}, block.Blue}})
	assert.True(t, out)
	assert.Equal(t, []string{"BR", "R."}, block.FormatRows(g))
}

func TestNewPieceErrors(t *testing.T) {
	_, err := NewPair(-1, block.Red, block.Blue)
	assert.ErrorIs(t, err, ErrNegativeColumn)
	assert.ErrorIs(t, err, block.ErrInvalidArgument)

	_, err = NewPair(0, block.Glass, block.Blue)
	assert.ErrorIs(t, err, ErrNotColor)

	_, err = NewColumn(-2, block.Red, block.Red, block.Red)
	assert.ErrorIs(t, err, ErrNegativeColumn)

	_, err = NewPolyomino(T, -1)
	assert.ErrorIs(t, err, ErrNegativeColumn)
	_, err = NewPolyomino(numKinds, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPairMoves(t *testing.T) {
	g := grid.New[block.ID](3, 3)
	p, err := NewPair(1, block.Red, block.Blue)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{grid.Pos{X: 1, Y: 0}, block.Red}, {grid.Pos{X: 1, Y: -1}, block.Blue}}, p.Cells())

	assert.True(t, p.MoveLeft(g))
	assert.False(t, p.MoveLeft(g), "left wall")
	assert.True(t, p.MoveDown(g))
	assert.True(t, p.MoveDown(g))
	assert.False(t, p.MoveDown(g), "floor")
	assert.Equal(t, grid.Pos{X: 0, Y: 2}, p.Anchor)

	assert.True(t, p.RotateRight(g))
	assert.Equal(t, Right, p.Dir)
	assert.True(t, p.RotateRight(g))
	assert.Equal(t, Down, p.Dir)
	assert.Equal(t, grid.Pos{X: 0, Y: 1}, p.Anchor, "kicked up off the floor")
}

func TestPairWallKick(t *testing.T) {
	// .	0 1 2
	// 0	. S .
	// 1	. P X
	g := block.MustParseRows(
		"...",
		"..R",
	)
	p := &Pair{Anchor: grid.Pos{X: 1, Y: 1}, Dir: Up, Pivot: block.Green, Satellite: block.Blue}

	require.True(t, p.RotateRight(g))
	assert.Equal(t, Right, p.Dir)
	assert.Equal(t, grid.Pos{X: 0, Y: 1}, p.Anchor, "anchor moves by the negated new offset")
	for _, c := range p.Cells() {
		assert.Equal(t, block.Empty, g.At(c.Pos))
	}
}

func TestPairKickFails(t *testing.T) {
	// .	0 1 2
	// 0	. S .
	// 1	X P X
	g := block.MustParseRows(
		"...",
		"R.R",
	)
	p := &Pair{Anchor: grid.Pos{X: 1, Y: 1}, Dir: Up, Pivot: block.Green, Satellite: block.Blue}
	before := *p
	assert.False(t, p.RotateRight(g))
	assert.False(t, p.RotateLeft(g))
	assert.Equal(t, before, *p)
}

func TestColumnRotateDown(t *testing.T) {
	c, err := NewColumn(0, block.Red, block.Green, block.Blue)
	require.NoError(t, err)
	// Built bottom to top as red, green, blue. Each block moves one slot down
	// and the bottom one wraps to the top, so this reads bottom=green,
	// mid=blue, top=red. Labelling the result top=green, bottom=red would
	// move the blocks up instead.
	c.RotateDown()
	assert.Equal(t, [3]block.ID{block.Green, block.Blue, block.Red}, c.Blocks())

	c.RotateUp()
	assert.Equal(t, [3]block.ID{block.Red, block.Green, block.Blue}, c.Blocks())

	for range 3 {
		c.RotateDown()
	}
	assert.Equal(t, [3]block.ID{block.Red, block.Green, block.Blue}, c.Blocks())
}

func TestColumnEntersFromAbove(t *testing.T) {
	// .	0 1
	// 0	. X
	// 1	. .
	g := block.MustParseRows(
		".R",
		"..",
	)
	c, err := NewColumn(0, block.Red, block.Green, block.Blue)
	require.NoError(t, err)
	cells := c.Cells()
	assert.Equal(t, grid.Pos{X: 0, Y: 0}, cells[0].Pos)
	assert.Equal(t, grid.Pos{X: 0, Y: -2}, cells[2].Pos)

	assert.False(t, c.MoveRight(g), "blocked by the stack")
	assert.True(t, c.MoveDown(g))
	assert.False(t, c.MoveRight(g), "the stack still blocks the mid block")
	assert.False(t, c.MoveDown(g), "floor")

	assert.True(t, c.RotateRight(g))
	assert.Equal(t, block.Green, c.Cells()[0].ID)
}

func TestPolyominoSpawn(t *testing.T) {
	for _, k := range AllShapes.Kinds() {
		p, err := NewPolyomino(k, SpawnColumn(k, 10))
		require.NoError(t, err)
		top, left, right := 100, 100, -100
		for _, c := range p.Cells() {
			top = min(top, c.Pos.Y)
			left = min(left, c.Pos.X)
			right = max(right, c.Pos.X)
		}
		assert.Zero(t, top, "%v spawns on the top row", k)
		assert.InDelta(t, 10-1-right, left, 1, "%v is centred", k)
		assert.Equal(t, ShapeOf(k).Color, p.ID)
	}
}

func TestPolyominoRotation(t *testing.T) {
	g := grid.New[block.ID](5, 5)
	p := &Polyomino{Anchor: grid.Pos{X: 2, Y: 2}, Kind: T, ID: block.Magenta, rotates: true, offsets: ShapeOf(T).Cells}

	assert.True(t, p.RotateRight(g))
	assert.ElementsMatch(t, []grid.Pos{{X: 2, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 3}}, Positions(p.Cells()))

	assert.True(t, p.RotateLeft(g))
	assert.ElementsMatch(t, []grid.Pos{{X: 2, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}}, Positions(p.Cells()))

	for range 4 {
		require.True(t, p.RotateRight(g))
	}
	assert.ElementsMatch(t, []grid.Pos{{X: 2, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}}, Positions(p.Cells()))
}

func TestPolyominoRotationBlocked(t *testing.T) {
	// .	0 1 2
	// 0	. O .
	// 1	O A O
	// 2	. X .
	g := block.MustParseRows(
		"...",
		"...",
		".R.",
	)
	p := &Polyomino{Anchor: grid.Pos{X: 1, Y: 1}, Kind: T, ID: block.Magenta, rotates: true, offsets: ShapeOf(T).Cells}
	assert.False(t, p.RotateRight(g))
	assert.False(t, p.RotateLeft(g))
}

func TestPolyominoRotationAgainstWall(t *testing.T) {
	g := grid.New[block.ID](3, 3)
	// vertical T against the left wall, bump to the right. Either turn
	// swings a cell past the wall and there is no kick.
	p := &Polyomino{Anchor: grid.Pos{X: 0, Y: 1}, Kind: T, ID: block.Magenta, rotates: true,
		offsets: []grid.Pos{{X: 0, Y: -1}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}}
	assert.False(t, p.RotateLeft(g))
	assert.False(t, p.RotateRight(g))

	p.Anchor.X = 1
	assert.True(t, p.RotateRight(g))
}

func TestFixedShapesNeverRotate(t *testing.T) {
	g := grid.New[block.ID](10, 10)
	for _, k := range []Kind{O, Plus} {
		p, err := NewPolyomino(k, 4)
		require.NoError(t, err)
		p.Anchor.Y = 4
		before := Positions(p.Cells())
		assert.False(t, p.RotateRight(g), "%v", k)
		assert.False(t, p.RotateLeft(g), "%v", k)
		assert.Equal(t, before, Positions(p.Cells()))
	}
}

func TestDropDistanceAndGhost(t *testing.T) {
	// .	0 1 2 3
	// 0	O O O O
	// 1	. . . .
	// 2	. . . .
	// 3	. . R .
	g := block.MustParseRows(
		"....",
		"....",
		"....",
		"..R.",
	)
	p, err := NewPolyomino(I, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, DropDistance(g, p))
	assert.ElementsMatch(t, []grid.Pos{{X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}}, p.Ghost(g))

	assert.Equal(t, 2, HardDrop(g, p))
	assert.Zero(t, DropDistance(g, p))
}

func TestShapeMask(t *testing.T) {
	assert.Len(t, Tetrominoes.Kinds(), 7)
	assert.Len(t, AllShapes.Kinds(), int(numKinds))
	m := MaskOf(I3, Plus)
	assert.True(t, m.Has(Plus))
	assert.False(t, m.Has(I))
	assert.Equal(t, []Kind{I3, Plus}, m.Kinds())

	k, err := ParseKind("plus")
	require.NoError(t, err)
	assert.Equal(t, Plus, k)
	_, err = ParseKind("hexomino")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBag(t *testing.T) {
	t.Run("deals every shape once before refilling", func(t *testing.T) {
		t.Parallel()
		bag, err := NewBag(Tetrominoes, rand.New(rand.NewPCG(1, 2)))
		require.NoError(t, err)
		assert.Equal(t, 7, bag.Len())
		seen := map[Kind]bool{}
		for range 7 {
			seen[bag.Draw()] = true
		}
		assert.Len(t, seen, 7)
		assert.Zero(t, bag.Len())
		bag.Draw()
		assert.Equal(t, 6, bag.Len())
	})

	t.Run("first draw is never S, Z or O", func(t *testing.T) {
		t.Parallel()
		for seed := range uint64(50) {
			bag, err := NewBag(Tetrominoes, rand.New(rand.NewPCG(seed, seed)))
			require.NoError(t, err)
			assert.NotContains(t, []Kind{S, Z, O}, bag.Draw())
		}
	})

	t.Run("peek matches draw", func(t *testing.T) {
		t.Parallel()
		bag, err := NewBag(AllShapes, rand.New(rand.NewPCG(3, 4)))
		require.NoError(t, err)
		for range 30 {
			k := bag.Peek()
			assert.Equal(t, k, bag.Draw())
		}
	})

	t.Run("empty mask", func(t *testing.T) {
		t.Parallel()
		_, err := NewBag(0, rand.New(rand.NewPCG(1, 1)))
		assert.ErrorIs(t, err, ErrNoShapes)
	})
}
