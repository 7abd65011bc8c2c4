package engine

import "github.com/corvidchess/corvid/internal/board"

// Search-wide constants shared by the searcher, move orderer, and
// transposition table.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores the principal variation being built at each ply of the
// current search.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}
