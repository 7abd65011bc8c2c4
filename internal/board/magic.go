package board

// Sliding-piece attack lookup via fancy magic bitboards: each square
// gets a pre-computed multiplier that hashes the relevant occupancy
// bits into a dense index over a per-square slice of a shared attack
// table, trading a multiply+shift for a full ray walk on every query.

// slider holds one square's magic-hashing parameters plus the slice of
// the shared attack table it hashes into.
type slider struct {
	mask   Bitboard // relevant occupancy bits (board edges excluded)
	magic  uint64
	shift  uint8
	offset uint32
}

var (
	bishopSliders [64]slider
	rookSliders   [64]slider

	// Sized to the worst case over all squares and occupancy subsets;
	// bishopMagicConstants/rookMagicConstants below guarantee every
	// square's occupancy subsets hash without collision into its slice.
	bishopAttackTable [5248]Bitboard
	rookAttackTable   [102400]Bitboard
)

// bishopMagicConstants and rookMagicConstants are known-good magic
// multipliers, one per square, found by the standard random-candidate
// search (try a sparse random uint64, verify it produces a collision-
// free hash over every occupancy subset of the square's mask, keep the
// first one that works). They are treated as fixed data here rather
// than regenerated at init time: regenerating them would require the
// same randomized search loop and there is nothing to gain by
// re-deriving numbers that are already verified correct.
var bishopMagicConstants = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicConstants = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

// initMagics fills bishopSliders/rookSliders and their backing attack
// tables. Both pieces follow the same recipe (build the edge-trimmed
// mask, enumerate every occupancy subset of that mask via the standard
// "subset of a subset" walk, and pre-compute the ray attack for each),
// so one generic driver builds both rather than duplicating the loop.
func initMagics() {
	buildSliderTable(bishopSliders[:], bishopAttackTable[:], bishopMagicConstants, bishopEdgeMask, rayBishopAttacks)
	buildSliderTable(rookSliders[:], rookAttackTable[:], rookMagicConstants, rookEdgeMask, rayRookAttacks)
}

func buildSliderTable(sliders []slider, table []Bitboard, magics [64]uint64, maskOf func(Square) Bitboard, raysOf func(Square, Bitboard) Bitboard) {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := maskOf(sq)
		bits := mask.PopCount()

		sliders[sq] = slider{
			mask:   mask,
			magic:  magics[sq],
			shift:  uint8(64 - bits),
			offset: offset,
		}

		subsets := 1 << bits
		for i := 0; i < subsets; i++ {
			occ := occupancySubset(i, mask)
			idx := (uint64(occ) * magics[sq]) >> (64 - bits)
			table[offset+uint32(idx)] = raysOf(sq, occ)
		}
		offset += uint32(subsets)
	}
}

// occupancySubset maps index (0..2^popcount(mask)-1) to the occupancy
// bitboard formed by that subset of mask's bits, via the usual
// "peel the lowest bit, test one index bit at a time" walk.
func occupancySubset(index int, mask Bitboard) Bitboard {
	var occ Bitboard
	for i := 0; mask != 0; i++ {
		sq := mask.PopLSB()
		if index&(1<<i) != 0 {
			occ = occ.Set(sq)
		}
	}
	return occ
}

// bishopEdgeMask returns the bishop's relevant occupancy squares for
// sq: a blocker on rank 1/8 or file a/h still stops the ray, but its
// presence never changes which index we need to distinguish, so
// trimming it shrinks the table without changing any attack it
// produces.
func bishopEdgeMask(sq Square) Bitboard {
	return rayBishopAttacks(sq, Empty) & ^(Rank1 | Rank8 | FileA | FileH)
}

func rookEdgeMask(sq Square) Bitboard {
	file, rank := sq.File(), sq.Rank()
	var mask Bitboard
	for f := 1; f < 7; f++ {
		if f != file {
			mask = mask.Set(NewSquare(f, rank))
		}
	}
	for r := 1; r < 7; r++ {
		if r != rank {
			mask = mask.Set(NewSquare(file, r))
		}
	}
	return mask
}

// rayBishopAttacks walks all four diagonal rays from sq, stopping at
// (and including) the first occupied square in each direction. Used
// only during table construction; runtime queries go through
// getBishopAttacks instead.
func rayBishopAttacks(sq Square, occupied Bitboard) Bitboard {
	var attacks Bitboard
	file, rank := sq.File(), sq.Rank()
	for _, d := range [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}} {
		for f, r := file+d[0], rank+d[1]; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d[0], r+d[1] {
			s := NewSquare(f, r)
			attacks = attacks.Set(s)
			if occupied.IsSet(s) {
				break
			}
		}
	}
	return attacks
}

// rayRookAttacks is rayBishopAttacks's orthogonal counterpart, walking
// the four cardinal rays instead of the four diagonals.
func rayRookAttacks(sq Square, occupied Bitboard) Bitboard {
	var attacks Bitboard
	file, rank := sq.File(), sq.Rank()
	for _, d := range [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}} {
		for f, r := file+d[0], rank+d[1]; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d[0], r+d[1] {
			s := NewSquare(f, r)
			attacks = attacks.Set(s)
			if occupied.IsSet(s) {
				break
			}
		}
	}
	return attacks
}

// getBishopAttacks hashes occupied through sq's magic to an index into
// the shared bishop attack table.
func getBishopAttacks(sq Square, occupied Bitboard) Bitboard {
	s := &bishopSliders[sq]
	idx := ((uint64(occupied) & uint64(s.mask)) * s.magic) >> s.shift
	return bishopAttackTable[s.offset+uint32(idx)]
}

// getRookAttacks is the rook equivalent of getBishopAttacks.
func getRookAttacks(sq Square, occupied Bitboard) Bitboard {
	s := &rookSliders[sq]
	idx := ((uint64(occupied) & uint64(s.mask)) * s.magic) >> s.shift
	return rookAttackTable[s.offset+uint32(idx)]
}
