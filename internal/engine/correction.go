package engine

import (
	"github.com/corvidchess/corvid/internal/board"
)

// Corrected-eval history, indexed by (side to move, pawn structure hash)
// rather than the full position hash: a given pawn skeleton recurs across
// many piece placements and middlegame plans, so the correction
// generalizes better keyed on pawns alone.
const (
	corrHistSize   = 16384
	corrHistGrain  = 256
	corrHistWeightMax = 256
	// Bounds the largest correction a single pawn structure can carry.
	corrHistMaxValue = 32 * corrHistGrain
)

// CorrectionHistory adjusts static evaluation based on search results.
// When the search discovers the static eval was wrong for a given pawn
// structure, the error is recorded and applied to the static eval of
// future positions sharing that structure.
type CorrectionHistory struct {
	table [2][corrHistSize]int32
}

// NewCorrectionHistory creates a new correction history table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

func corrHistIndex(pawnKey uint64) uint64 {
	return pawnKey % corrHistSize
}

// Correct applies the stored correction to a static evaluation.
func (ch *CorrectionHistory) Correct(side board.Color, pawnKey uint64, eval int) int {
	entry := ch.table[side][corrHistIndex(pawnKey)]
	return eval + int(entry)/corrHistGrain
}

// Update records a correction based on the difference between the search
// result and the static evaluation for the position just searched, as a
// weighted average: the deeper the search, the more weight the new sample
// gets, up to a cap of 16 (of 256).
func (ch *CorrectionHistory) Update(side board.Color, pawnKey uint64, bestScore, staticEval, depth int) {
	if depth < 1 {
		return
	}

	scaledDiff := int32(bestScore-staticEval) * corrHistGrain
	newWeight := int32(depth + 1)
	if newWeight > 16 {
		newWeight = 16
	}
	oldWeight := int32(corrHistWeightMax) - newWeight

	idx := corrHistIndex(pawnKey)
	old := ch.table[side][idx]
	updated := (old*oldWeight + scaledDiff*newWeight) / corrHistWeightMax

	if updated > corrHistMaxValue {
		updated = corrHistMaxValue
	} else if updated < -corrHistMaxValue {
		updated = -corrHistMaxValue
	}

	ch.table[side][idx] = updated
}

// Clear resets all correction values.
func (ch *CorrectionHistory) Clear() {
	for side := range ch.table {
		for i := range ch.table[side] {
			ch.table[side][i] = 0
		}
	}
}

// Age scales down all correction values between root searches.
func (ch *CorrectionHistory) Age() {
	for side := range ch.table {
		for i := range ch.table[side] {
			ch.table[side][i] /= 2
		}
	}
}
