package engine

import "github.com/corvidchess/corvid/internal/board"

// PawnEntry stores cached pawn structure evaluation, plus the per-color
// bitboard/file facts that are expensive to rederive (passed pawns, files
// with no own pawn) but depend only on pawn placement, not on the rest of
// the position. King-distance and path-clearance terms still need the live
// position and are computed fresh around the cached passed-pawn bitboard.
type PawnEntry struct {
	Key     uint64
	MgScore int16 // Middlegame score
	EgScore int16 // Endgame score

	PassedPawns    [2]board.Bitboard // passed pawns per color
	NoOwnPawnFiles [2]uint8          // bit i set: color has no pawn on file i
}

// PawnTable is a hash table for caching pawn structure evaluations.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a new pawn hash table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	entrySize := 28
	numEntries := (sizeMB * 1024 * 1024) / entrySize

	// Round down to power of 2
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}

	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe looks up a pawn structure evaluation in the hash table.
// Returns the middlegame and endgame scores if found.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.Key == key {
		return int(entry.MgScore), int(entry.EgScore), true
	}
	return 0, 0, false
}

// Store saves a pawn structure evaluation in the hash table.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	entry := &pt.entries[key&pt.mask]
	entry.Key = key
	entry.MgScore = int16(mg)
	entry.EgScore = int16(eg)
}

// ProbeFeatures looks up the cached passed-pawn bitboards and no-own-pawn
// file masks for key, reporting whether the entry (identified by Key) is
// present.
func (pt *PawnTable) ProbeFeatures(key uint64) (passed [2]board.Bitboard, noOwnPawnFiles [2]uint8, found bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.Key == key {
		return entry.PassedPawns, entry.NoOwnPawnFiles, true
	}
	return [2]board.Bitboard{}, [2]uint8{}, false
}

// StoreFeatures saves the passed-pawn bitboards and no-own-pawn file masks
// for key, leaving the slot's mg/eg score as it is. Probe and ProbeFeatures
// both trust the one shared Key, so a slot is consistent only once Store and
// StoreFeatures have both been called for the same key; evaluation's
// pawnFacts makes both calls together on a miss.
func (pt *PawnTable) StoreFeatures(key uint64, passed [2]board.Bitboard, noOwnPawnFiles [2]uint8) {
	entry := &pt.entries[key&pt.mask]
	entry.Key = key
	entry.PassedPawns = passed
	entry.NoOwnPawnFiles = noOwnPawnFiles
}

// Clear clears the pawn hash table.
func (pt *PawnTable) Clear() {
	for i := range pt.entries {
		pt.entries[i] = PawnEntry{}
	}
}
