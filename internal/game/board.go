package game

// Board dimensions and reserved cell values. 0 is empty, 1..7 are locked
// piece colors, GhostCell marks the landing projection in private
// snapshots, PenaltyCell is indestructible filler pushed in by rivals.
const (
	BoardRows = 20
	BoardCols = 10

	GhostCell   = 9
	PenaltyCell = -1
)

// Board is one player's playfield. Dimensions never change; only cell
// contents do. It is owned by exactly one session and must be accessed
// under that session's lock.
type Board struct {
	grid [][]int
}

func NewBoard() *Board {
	grid := make([][]int, BoardRows)
	for y := range grid {
		grid[y] = make([]int, BoardCols)
	}
	return &Board{grid: grid}
}

// GridCopy returns a deep copy for snapshot rendering.
func (b *Board) GridCopy() [][]int {
	out := make([][]int, len(b.grid))
	for y, row := range b.grid {
		out[y] = make([]int, len(row))
		copy(out[y], row)
	}
	return out
}

// Grid exposes the raw grid for shadow snapshots and tests. Callers must
// not mutate it.
func (b *Board) Grid() [][]int {
	return b.grid
}

// Fill writes one cell if it is in bounds and no-ops otherwise. Locking a
// piece that still pokes above the visible area calls this with y < 0 and
// those cells must be skipped, not written.
func (b *Board) Fill(x, y, value int) {
	if x >= 0 && x < BoardCols && y >= 0 && y < BoardRows {
		b.grid[y][x] = value
	}
}

// CellAt returns the value at (x, y); callers guarantee bounds.
func (b *Board) CellAt(x, y int) int {
	return b.grid[y][x]
}

func (b *Board) lineIsEmpty(y int) bool {
	for _, cell := range b.grid[y] {
		if cell != 0 {
			return false
		}
	}
	return true
}

// LineIsFull reports whether every cell of row y holds a locked color.
// Penalty cells do not count: a row of filler must never be clearable.
func (b *Board) LineIsFull(y int) bool {
	for _, cell := range b.grid[y] {
		if cell <= 0 {
			return false
		}
	}
	return true
}

// ClearFullLines removes every full row and shifts the rows above down,
// inserting empty rows at the top. Rows are scanned bottom-up; each time a
// contiguous run of full rows ends, the run is cleared and the scan
// restarts, so full rows that only become contiguous after a shift are
// still caught. Returns the total number of rows removed.
func (b *Board) ClearFullLines() int {
	total := 0
	run := []int{}
	for y := BoardRows - 1; y >= 0; y-- {
		if b.LineIsFull(y) {
			run = append(run, y)
			total++
		} else if len(run) > 0 {
			b.removeLines(run)
			run = run[:0]
			y = BoardRows // restart scan from the bottom
		}
	}
	if len(run) > 0 {
		b.removeLines(run)
	}
	return total
}

func (b *Board) removeLines(lines []int) {
	drop := make(map[int]bool, len(lines))
	for _, y := range lines {
		drop[y] = true
	}
	kept := make([][]int, 0, BoardRows)
	for y, row := range b.grid {
		if !drop[y] {
			kept = append(kept, row)
		}
	}
	grid := make([][]int, 0, BoardRows)
	for i := 0; i < BoardRows-len(kept); i++ {
		grid = append(grid, make([]int, BoardCols))
	}
	b.grid = append(grid, kept...)
}

// AddPenalty shifts the whole stack up by n rows and fills the bottom n
// rows with indestructible filler. All-or-nothing: if any of the top n
// rows already holds content the board has no room, nothing is mutated and
// false is returned. That failure is the caller's elimination signal.
func (b *Board) AddPenalty(n int) bool {
	if n <= 0 {
		return true
	}
	if n >= BoardRows {
		return false
	}
	for y := 0; y < n; y++ {
		if !b.lineIsEmpty(y) {
			return false
		}
	}
	for y := 0; y < BoardRows-n; y++ {
		copy(b.grid[y], b.grid[y+n])
	}
	for y := BoardRows - n; y < BoardRows; y++ {
		for x := range b.grid[y] {
			b.grid[y][x] = PenaltyCell
		}
	}
	return true
}
