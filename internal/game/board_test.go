package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRow(b *Board, y, value int) {
	for x := 0; x < BoardCols; x++ {
		b.Fill(x, y, value)
	}
}

func TestFillBounds(t *testing.T) {
	b := NewBoard()
	b.Fill(-1, 0, 1)
	b.Fill(BoardCols, 0, 1)
	b.Fill(0, -1, 1)
	b.Fill(0, BoardRows, 1)
	for y := 0; y < BoardRows; y++ {
		for x := 0; x < BoardCols; x++ {
			assert.Zero(t, b.CellAt(x, y))
		}
	}

	b.Fill(3, 5, 7)
	assert.Equal(t, 7, b.CellAt(3, 5))
}

func TestLineIsFull(t *testing.T) {
	b := NewBoard()
	assert.False(t, b.LineIsFull(19))

	fillRow(b, 19, 1)
	assert.True(t, b.LineIsFull(19))

	b.Fill(4, 19, 0)
	assert.False(t, b.LineIsFull(19))

	// Penalty filler never counts as clearable content.
	fillRow(b, 18, PenaltyCell)
	assert.False(t, b.LineIsFull(18))
}

func TestClearFullLinesShiftsDown(t *testing.T) {
	b := NewBoard()
	// A distinctive partial row that should survive, shifted down by 2.
	b.Fill(0, 17, 3)
	b.Fill(9, 17, 5)
	fillRow(b, 18, 1)
	fillRow(b, 19, 1)

	require.Equal(t, 2, b.ClearFullLines())

	for x := 0; x < BoardCols; x++ {
		assert.Zero(t, b.CellAt(x, 0))
		assert.Zero(t, b.CellAt(x, 1))
	}
	assert.Equal(t, 3, b.CellAt(0, 19))
	assert.Equal(t, 5, b.CellAt(9, 19))
	for x := 1; x < 9; x++ {
		assert.Zero(t, b.CellAt(x, 19))
	}
}

func TestClearFullLinesNonContiguous(t *testing.T) {
	b := NewBoard()
	fillRow(b, 17, 2)
	b.Fill(0, 18, 1) // partial row between the two full ones
	fillRow(b, 19, 4)

	require.Equal(t, 2, b.ClearFullLines())

	// Only the partial row's cell remains, now at the bottom.
	assert.Equal(t, 1, b.CellAt(0, 19))
	for y := 0; y < 19; y++ {
		for x := 0; x < BoardCols; x++ {
			assert.Zero(t, b.CellAt(x, y))
		}
	}
}

func TestClearFullLinesNothingToClear(t *testing.T) {
	b := NewBoard()
	b.Fill(0, 19, 1)
	assert.Zero(t, b.ClearFullLines())
	assert.Equal(t, 1, b.CellAt(0, 19))
}

func TestPenaltyRowsAreIndestructible(t *testing.T) {
	b := NewBoard()
	require.True(t, b.AddPenalty(2))
	assert.Zero(t, b.ClearFullLines())
	for y := 18; y < BoardRows; y++ {
		for x := 0; x < BoardCols; x++ {
			assert.Equal(t, PenaltyCell, b.CellAt(x, y))
		}
	}
}

func TestAddPenaltyOnEmptyBoard(t *testing.T) {
	b := NewBoard()
	require.True(t, b.AddPenalty(3))
	for y := 0; y < BoardRows; y++ {
		for x := 0; x < BoardCols; x++ {
			if y >= BoardRows-3 {
				assert.Equal(t, PenaltyCell, b.CellAt(x, y))
			} else {
				assert.Zero(t, b.CellAt(x, y))
			}
		}
	}
}

func TestAddPenaltyShiftsStackUp(t *testing.T) {
	b := NewBoard()
	b.Fill(4, 19, 6)
	require.True(t, b.AddPenalty(2))
	assert.Equal(t, 6, b.CellAt(4, 17))
	assert.Equal(t, PenaltyCell, b.CellAt(4, 18))
	assert.Equal(t, PenaltyCell, b.CellAt(4, 19))
}

func TestAddPenaltyFailsWithoutRoom(t *testing.T) {
	b := NewBoard()
	b.Fill(2, 1, 5)
	before := b.GridCopy()

	require.False(t, b.AddPenalty(2))
	assert.Equal(t, before, b.GridCopy(), "failed penalty must not mutate the board")
}

func TestAddPenaltyStacks(t *testing.T) {
	b := NewBoard()
	require.True(t, b.AddPenalty(2))
	require.True(t, b.AddPenalty(2))
	for y := 16; y < BoardRows; y++ {
		assert.Equal(t, PenaltyCell, b.CellAt(0, y))
	}
	assert.Zero(t, b.CellAt(0, 15))
}
