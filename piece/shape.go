package piece

import (
	"fmt"
	"strings"

	"blockfall/block"
	"blockfall/grid"
)

// Kind names a shape of the catalog.
type Kind uint8

const (
	I Kind = iota
	O
	T
	S
	Z
	J
	L
	I3
	V3
	Domino
	Plus
	numKinds
)

// Shape is a polyomino in its spawn orientation. Cells are offsets from the
// rotation anchor (0,0).
type Shape struct {
	Kind    Kind
	Name    string
	Cells   []grid.Pos
	Color   block.ID
	Rotates bool
}

// The diagrams show the spawn orientation, A is the anchor.
var shapes = [numKinds]Shape{
	/*
		.	-1 0 1 2
		0	 O A O O
	*/
	I: {Name: "I", Color: block.Blue, Rotates: true,
		Cells: []grid.Pos{{X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}},
	/*
		.	0 1
		0	A O
		1	O O
	*/
	O: {Name: "O", Color: block.Yellow,
		Cells: []grid.Pos{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}},
	/*
		.	-1 0 1
		-1	 X O X
		0	 O A O
	*/
	T: {Name: "T", Color: block.Magenta, Rotates: true,
		Cells: []grid.Pos{{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}},
	/*
		.	-1 0 1
		-1	 X O O
		0	 O A X
	*/
	S: {Name: "S", Color: block.Green, Rotates: true,
		Cells: []grid.Pos{{X: 0, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 0}}},
	/*
		.	-1 0 1
		-1	 O O X
		0	 X A O
	*/
	Z: {Name: "Z", Color: block.Red, Rotates: true,
		Cells: []grid.Pos{{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 0, Y: 0}, {X: 1, Y: 0}}},
	/*
		.	-1 0 1
		-1	 O X X
		0	 O A O
	*/
	J: {Name: "J", Color: block.Blue, Rotates: true,
		Cells: []grid.Pos{{X: -1, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}},
	/*
		.	-1 0 1
		-1	 X X O
		0	 O A O
	*/
	L: {Name: "L", Color: block.Yellow, Rotates: true,
		Cells: []grid.Pos{{X: 1, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}},
	/*
		.	-1 0 1
		0	 O A O
	*/
	I3: {Name: "I3", Color: block.Green, Rotates: true,
		Cells: []grid.Pos{{X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}},
	/*
		.	0 1
		-1	O X
		0	A O
	*/
	V3: {Name: "V3", Color: block.Red, Rotates: true,
		Cells: []grid.Pos{{X: 0, Y: -1}, {X: 0, Y: 0}, {X: 1, Y: 0}}},
	/*
		.	0 1
		0	A O
	*/
	Domino: {Name: "Domino", Color: block.Magenta, Rotates: true,
		Cells: []grid.Pos{{X: 0, Y: 0}, {X: 1, Y: 0}}},
	/*
		.	-1 0 1
		-1	 X O X
		0	 O A O
		1	 X O X
	*/
	Plus: {Name: "Plus", Color: block.Red,
		Cells: []grid.Pos{{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}},
}

func init() {
	for k := range shapes {
		shapes[k].Kind = Kind(k)
	}
}

// ShapeOf returns the catalog entry for k.
func ShapeOf(k Kind) Shape {
	s := shapes[k]
	s.Cells = append([]grid.Pos(nil), s.Cells...)
	return s
}

func (k Kind) String() string {
	if k < numKinds {
		return shapes[k].Name
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind looks a shape up by name.
func ParseKind(name string) (Kind, error) {
	for k := range shapes {
		if strings.EqualFold(shapes[k].Name, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown shape %q", ErrInvalidArgument, name)
}

// ShapeMask enables a subset of the catalog, one bit per Kind.
type ShapeMask uint16

const (
	Tetrominoes ShapeMask = 1<<I | 1<<O | 1<<T | 1<<S | 1<<Z | 1<<J | 1<<L
	AllShapes   ShapeMask = 1<<numKinds - 1
)

func MaskOf(kinds ...Kind) ShapeMask {
	var m ShapeMask
	for _, k := range kinds {
		m |= 1 << k
	}
	return m
}

func (m ShapeMask) Has(k Kind) bool { return k < numKinds && m&(1<<k) != 0 }

// Kinds lists the enabled shapes in catalog order.
func (m ShapeMask) Kinds() []Kind {
	var ks []Kind
	for k := range numKinds {
		if m.Has(k) {
			ks = append(ks, k)
		}
	}
	return ks
}
