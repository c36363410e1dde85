package game

import "math/rand"

// Point is a cell offset relative to a piece's board position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Piece is one falling tetromino: an ordered list of rotation states and a
// position on the board. The shape currently in effect is always
// rotations[rotationIndex % len(rotations)].
type Piece struct {
	Kind          string
	Rotations     [][]Point
	RotationIndex int
	Position      Point
	Color         int
}

// CurrentShape returns the cell offsets of the active rotation state.
func (p *Piece) CurrentShape() []Point {
	return p.Rotations[p.RotationIndex%len(p.Rotations)]
}

// Rotate advances to the next rotation state. Validity is the caller's
// problem; see Session.RotateCurrent.
func (p *Piece) Rotate() {
	p.RotationIndex = (p.RotationIndex + 1) % len(p.Rotations)
}

// Clone deep-copies the rotation tables and position so a speculative move
// can be validated without touching the committed piece.
func (p *Piece) Clone() *Piece {
	rotations := make([][]Point, len(p.Rotations))
	for i, shape := range p.Rotations {
		rotations[i] = make([]Point, len(shape))
		copy(rotations[i], shape)
	}
	return &Piece{
		Kind:          p.Kind,
		Rotations:     rotations,
		RotationIndex: p.RotationIndex,
		Position:      p.Position,
		Color:         p.Color,
	}
}

// catalog holds the 7 canonical tetrominoes with their spawn positions.
var catalog = []Piece{
	{Kind: "I", Color: 1, Position: Point{4, 1}, Rotations: [][]Point{
		{{0, -1}, {0, 0}, {0, 1}, {0, 2}},
		{{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
	}},
	{Kind: "J", Color: 2, Position: Point{4, 1}, Rotations: [][]Point{
		{{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
		{{0, -1}, {0, 0}, {0, 1}, {1, -1}},
		{{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
		{{-1, 1}, {0, -1}, {0, 0}, {0, 1}},
	}},
	{Kind: "L", Color: 3, Position: Point{4, 1}, Rotations: [][]Point{
		{{-1, 0}, {0, 0}, {1, 0}, {1, -1}},
		{{0, -1}, {0, 0}, {0, 1}, {1, 1}},
		{{-1, 1}, {-1, 0}, {0, 0}, {1, 0}},
		{{-1, -1}, {0, -1}, {0, 0}, {0, 1}},
	}},
	{Kind: "O", Color: 4, Position: Point{4, 0}, Rotations: [][]Point{
		{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	}},
	{Kind: "S", Color: 5, Position: Point{4, 0}, Rotations: [][]Point{
		{{0, 0}, {1, 0}, {-1, 1}, {0, 1}},
		{{0, -1}, {0, 0}, {1, 0}, {1, 1}},
	}},
	{Kind: "T", Color: 6, Position: Point{4, 0}, Rotations: [][]Point{
		{{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
		{{0, -1}, {0, 0}, {1, 0}, {0, 1}},
		{{0, -1}, {-1, 0}, {0, 0}, {1, 0}},
		{{0, -1}, {-1, 0}, {0, 0}, {0, 1}},
	}},
	{Kind: "Z", Color: 7, Position: Point{4, 0}, Rotations: [][]Point{
		{{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
		{{1, -1}, {0, 0}, {1, 0}, {0, 1}},
	}},
}

// NewRandomPiece draws uniformly from the catalog. The rotation index is
// pre-set to a large multiple of the rotation count; clients that tracked
// rotation by raw index relied on this offset, so it is kept for wire
// compatibility.
func NewRandomPiece() *Piece {
	p := catalog[rand.Intn(len(catalog))].Clone()
	p.RotationIndex = len(p.Rotations) * 1000
	return p
}
