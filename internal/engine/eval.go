// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/corvidchess/corvid/internal/board"
)

// Piece values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// phaseWeight feeds the tapered blend: minors count 1, rooks 2, queens 4,
// summing to maxPhase with full material on the board.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

// Passed pawn bonus by relative rank (0 = own back rank).
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	passedPawnConnectedBonus = 20 // another passer on an adjacent file
	passedPawnProtectedBonus = 15 // defended by own pawn
	passedPawnFreePathBonus  = 30 // nothing in front on its file
)

// Mobility weights per piece type.
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0}
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

// King-zone attacker weight per attacking piece type.
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0}

const (
	pawnShieldBonus      = 10  // per shield pawn still in place
	pawnShieldMissing    = -15 // per shield file with no own pawn at all
	openFileNearKing     = -20
	semiOpenFileNearKing = -10
)

const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
	backwardPawnMgPenalty = -15
	backwardPawnEgPenalty = -10
)

const (
	knightOutpostMg          = 25
	knightOutpostEg          = 15
	knightOutpostProtectedMg = 15
	knightOutpostProtectedEg = 10
	bishopOutpostMg          = 15
	bishopOutpostEg          = 10
)

const tempoBonus = 10

const (
	hangingPiecePenalty = -40 // attacked and undefended
	threatByPawnBonus   = 25
	threatByMinorBonus  = 20 // minor attacking a rook or queen
	loosePiecePenalty   = -10 // undefended, a target waiting to happen
)

// King tropism weight per piece type.
var tropismWeight = [6]int{0, 3, 2, 2, 5, 0}

// kingDistanceBonus rewards king proximity, indexed by 7-distance.
var kingDistanceBonus = [8]int{0, 0, 10, 20, 30, 40, 50, 60}

const passedPawnUnstoppableBonus = 200 // enemy king can no longer catch it

const (
	rookOn7thMg          = 30
	rookOn7thEg          = 40
	rookOn7thWithPawnsMg = 15 // enemy pawns still on their 2nd rank
	rookOn7thWithPawnsEg = 20
	doubleRooksOn7thMg   = 50
	doubleRooksOn7thEg   = 60

	connectedRooksMg = 10
	connectedRooksEg = 15

	doubledRooksOnFileMg = 20
	doubledRooksOnFileEg = 25
)

const (
	spaceSquareBonus     = 2
	spaceBehindPawnBonus = 3
	spaceMinPieces       = 3
)

// spaceZones covers the central files on each side's own half plus the
// middle, per color.
var spaceZones = [2]board.Bitboard{
	(board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank2 | board.Rank3 | board.Rank4 | board.Rank5),
	(board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank4 | board.Rank5 | board.Rank6 | board.Rank7),
}

const (
	badBishopPenaltyMg = -5 // per own pawn fixed on the bishop's color
	badBishopPenaltyEg = -10

	trappedBishopPenaltyMg = -80
	trappedBishopPenaltyEg = -50

	trappedRookPenaltyMg = -50
	trappedRookPenaltyEg = -25

	knightRimPenaltyMg    = -15
	knightRimPenaltyEg    = -10
	knightCornerPenaltyMg = -30
	knightCornerPenaltyEg = -20
)

const (
	lightSquares board.Bitboard = 0x55AA55AA55AA55AA
	darkSquares  board.Bitboard = ^lightSquares
)

var (
	rimSquares    = board.FileA | board.FileH | board.Rank1 | board.Rank8
	cornerSquares = board.SquareBB(board.A1) | board.SquareBB(board.H1) |
		board.SquareBB(board.A8) | board.SquareBB(board.H8)
)

// Piece-square tables, written the way they are conventionally published:
// rank 8 on the first line, rank 1 on the last. pstSquare below maps a
// square into that layout.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var psts = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST,
}

// pstSquare maps sq into the rank-8-first table layout: white squares are
// flipped vertically (a1 reads the last line), black squares read the
// table as written, which gives both sides the same values on mirrored
// squares.
func pstSquare(c board.Color, sq board.Square) board.Square {
	if c == board.White {
		return sq.Mirror()
	}
	return sq
}

// score carries the middlegame and endgame halves of one evaluation term.
// Terms are accumulated separately and blended once by game phase.
type score struct {
	mg, eg int
}

func (s score) plus(o score) score  { return score{s.mg + o.mg, s.eg + o.eg} }
func (s score) minus(o score) score { return score{s.mg - o.mg, s.eg - o.eg} }

// both evaluates one term for each color and returns white minus black,
// so the per-term helpers never deal with sign flipping.
func both(term func(board.Color) score) score {
	return term(board.White).minus(term(board.Black))
}

// Evaluate returns the static evaluation from the side to move's
// perspective, with no pawn-structure caching.
func Evaluate(pos *board.Position) int {
	return evaluate(pos, nil)
}

// EvaluateWithPawnTable is Evaluate with the pawn-structure terms served
// from (and written back to) the pawn hash table.
func EvaluateWithPawnTable(pos *board.Position, pawnTable *PawnTable) int {
	return evaluate(pos, pawnTable)
}

func evaluate(pos *board.Position, pt *PawnTable) int {
	total, phase := materialAndPST(pos)

	passed, noPawnFiles := pawnFacts(pos, pt)
	total = total.plus(both(func(c board.Color) score { return passedPawns(pos, passed[c], c) }))
	total = total.plus(cachedPawnStructure(pos, pt))
	total = total.plus(both(func(c board.Color) score { return rookFiles(pos, noPawnFiles, c) }))

	total = total.plus(both(func(c board.Color) score { return mobility(pos, c) }))
	total = total.plus(both(func(c board.Color) score { return bishopPair(pos, c) }))
	total = total.plus(both(func(c board.Color) score { return rookCoordination(pos, c) }))
	total = total.plus(both(func(c board.Color) score { return outposts(pos, c) }))
	total = total.plus(both(func(c board.Color) score { return threats(pos, c) }))
	total = total.plus(both(func(c board.Color) score { return trappedPieces(pos, c) }))

	// Middlegame-only terms: king danger, tropism and space all fade out
	// as material leaves the board.
	total.mg += kingSafety(pos, board.White) - kingSafety(pos, board.Black)
	total.mg += kingTropism(pos, board.White) - kingTropism(pos, board.Black)
	total.mg += spaceControl(pos, board.White) - spaceControl(pos, board.Black)

	if phase > maxPhase {
		phase = maxPhase
	}
	v := (total.mg*phase + total.eg*(maxPhase-phase)) / maxPhase
	v += tempoBonus

	if pos.SideToMove == board.Black {
		return -v
	}
	return v
}

// materialAndPST sums material and piece-square values for both sides and
// accumulates the game phase in the same pass.
func materialAndPST(pos *board.Position) (score, int) {
	var total score
	phase := 0

	for c := board.White; c <= board.Black; c++ {
		var side score
		for pt := board.Pawn; pt <= board.King; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				sq := pstSquare(c, bb.PopLSB())
				if pt == board.King {
					side.mg += kingMidgamePST[sq]
					side.eg += kingEndgamePST[sq]
				} else {
					v := pieceValues[pt] + psts[pt][sq]
					side.mg += v
					side.eg += v
				}
				phase += phaseWeight[pt]
			}
		}
		if c == board.White {
			total = total.plus(side)
		} else {
			total = total.minus(side)
		}
	}

	return total, phase
}

// EvaluateMaterial returns the bare material balance from the side to
// move's perspective, the cheap bound quiescence checks before paying for
// a full evaluation.
func EvaluateMaterial(pos *board.Position) int {
	v := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		v += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		v -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -v
	}
	return v
}

// adjacentFilesMask returns the file masks either side of file.
func adjacentFilesMask(file int) board.Bitboard {
	var m board.Bitboard
	if file > 0 {
		m |= board.FileMask[file-1]
	}
	if file < 7 {
		m |= board.FileMask[file+1]
	}
	return m
}

// ranksAhead returns every rank strictly in front of sq from c's point
// of view.
func ranksAhead(sq board.Square, c board.Color) board.Bitboard {
	var m board.Bitboard
	if c == board.White {
		for r := sq.Rank() + 1; r < 8; r++ {
			m |= board.RankMask[r]
		}
	} else {
		for r := 0; r < sq.Rank(); r++ {
			m |= board.RankMask[r]
		}
	}
	return m
}

// frontSpan returns the squares directly ahead of sq on its own file.
func frontSpan(sq board.Square, c board.Color) board.Bitboard {
	bb := board.SquareBB(sq)
	if c == board.White {
		return bb.NorthFill() &^ bb
	}
	return bb.SouthFill() &^ bb
}

// pushSquare returns the square one step ahead of sq for a c-colored
// pawn; the result is invalid past either back rank.
func pushSquare(sq board.Square, c board.Color) board.Square {
	if c == board.White {
		return sq + 8
	}
	return sq - 8
}

// isPassedPawn reports whether the c-colored pawn on sq has no enemy pawn
// ahead of it on its own or either adjacent file.
func isPassedPawn(pos *board.Position, sq board.Square, c board.Color) bool {
	file := sq.File()
	zone := (board.FileMask[file] | adjacentFilesMask(file)) & ranksAhead(sq, c)
	return pos.Pieces[c.Other()][board.Pawn]&zone == 0
}

// computePawnFacts derives the cacheable pawn-placement facts: the
// passed-pawn set and the files holding no own pawn, per color.
func computePawnFacts(pos *board.Position) (passed [2]board.Bitboard, noPawnFiles [2]uint8) {
	for c := board.White; c <= board.Black; c++ {
		var filesWithPawn uint8
		for bb := pos.Pieces[c][board.Pawn]; bb != 0; {
			sq := bb.PopLSB()
			filesWithPawn |= 1 << uint(sq.File())
			if isPassedPawn(pos, sq, c) {
				passed[c] |= board.SquareBB(sq)
			}
		}
		noPawnFiles[c] = ^filesWithPawn
	}
	return passed, noPawnFiles
}

// pawnFacts serves computePawnFacts through the pawn hash table when one
// is available.
func pawnFacts(pos *board.Position, pt *PawnTable) ([2]board.Bitboard, [2]uint8) {
	if pt != nil {
		if passed, noPawnFiles, ok := pt.ProbeFeatures(pos.PawnKey); ok {
			return passed, noPawnFiles
		}
	}
	passed, noPawnFiles := computePawnFacts(pos)
	if pt != nil {
		// A miss claims the slot for this key, so the pawnStructure total
		// is written with the features and cachedPawnStructure's probe
		// never returns the scores of another key or unset ones.
		s := both(func(c board.Color) score { return pawnStructure(pos, c) })
		pt.Store(pos.PawnKey, s.mg, s.eg)
		pt.StoreFeatures(pos.PawnKey, passed, noPawnFiles)
	}
	return passed, noPawnFiles
}

// passedPawns scores c's passed pawns: the rank bonus plus support,
// connection and free-path terms, and the endgame king-race terms that
// depend on the live position rather than pawn placement alone.
func passedPawns(pos *board.Position, passed board.Bitboard, c board.Color) score {
	var s score
	friendly := pos.Pieces[c][board.Pawn]
	them := c.Other()
	ourKing := pos.KingSquare[c]
	theirKing := pos.KingSquare[them]

	for bb := passed; bb != 0; {
		sq := bb.PopLSB()
		relRank := sq.RelativeRank(c)
		file := sq.File()

		bonus := passedPawnBonus[relRank]
		egExtra := 0

		promoRank := 7
		if c == board.Black {
			promoRank = 0
		}
		promoSq := board.NewSquare(file, promoRank)

		// Own king near the pawn supports the march; enemy king far from
		// the promotion square can't stop it.
		egExtra += kingDistanceBonus[7-min(chebyshevDistance(ourKing, sq), 7)]
		egExtra += kingDistanceBonus[min(chebyshevDistance(theirKing, promoSq), 7)]

		if board.PawnAttacks(sq, them)&friendly != 0 {
			bonus += passedPawnProtectedBonus
		}
		if passed&adjacentFilesMask(file) != 0 {
			bonus += passedPawnConnectedBonus
		}

		pathClear := frontSpan(sq, c)&pos.AllOccupied == 0
		if pathClear {
			bonus += passedPawnFreePathBonus
		}

		if pathClear && relRank >= 4 {
			toGo := 7 - relRank
			tempo := 0
			if pos.SideToMove == c {
				tempo = 1
			}
			if chebyshevDistance(theirKing, sq) > toGo+1-tempo {
				egExtra += passedPawnUnstoppableBonus
			}
		}

		s.mg += bonus
		s.eg += bonus*3/2 + egExtra
	}
	return s
}

// frontPawn returns the most advanced pawn of a same-file group.
func frontPawn(onFile board.Bitboard, c board.Color) board.Square {
	if c == board.White {
		return onFile.MSB()
	}
	return onFile.LSB()
}

// pawnStructure scores c's structural pawn defects: doubled, isolated and
// backward pawns. It reads only pawn placement, so the white-minus-black
// total is cacheable by pawn key.
func pawnStructure(pos *board.Position, c board.Color) score {
	var s score
	pawns := pos.Pieces[c][board.Pawn]
	enemyPawns := pos.Pieces[c.Other()][board.Pawn]

	for bb := pawns; bb != 0; {
		sq := bb.PopLSB()
		file := sq.File()

		// Doubled: charged once per file, against the front pawn.
		onFile := pawns & board.FileMask[file]
		if onFile.PopCount() > 1 && sq == frontPawn(onFile, c) {
			s.mg += doubledPawnMgPenalty
			s.eg += doubledPawnEgPenalty
		}

		adjacent := pawns & adjacentFilesMask(file)
		if adjacent == 0 {
			s.mg += isolatedPawnMgPenalty
			s.eg += isolatedPawnEgPenalty
			continue
		}

		// Backward: every neighbor has advanced past this pawn and its
		// stop square is covered by an enemy pawn, so it can't catch up.
		if sq.RelativeRank(c) > 1 && adjacent&ranksAhead(sq, c) == adjacent {
			stop := pushSquare(sq, c)
			if stop.IsValid() && board.PawnAttacks(stop, c)&enemyPawns != 0 {
				s.mg += backwardPawnMgPenalty
				s.eg += backwardPawnEgPenalty
			}
		}
	}
	return s
}

// cachedPawnStructure serves the white-minus-black pawnStructure total
// through the pawn hash table.
func cachedPawnStructure(pos *board.Position, pt *PawnTable) score {
	if pt != nil {
		if mg, eg, ok := pt.Probe(pos.PawnKey); ok {
			return score{mg, eg}
		}
	}
	s := both(func(c board.Color) score { return pawnStructure(pos, c) })
	if pt != nil {
		pt.Store(pos.PawnKey, s.mg, s.eg)
	}
	return s
}

// rookFiles rewards c's rooks on open and semi-open files, read off the
// cached no-own-pawn file masks.
func rookFiles(pos *board.Position, noPawnFiles [2]uint8, c board.Color) score {
	var s score
	them := c.Other()

	for bb := pos.Pieces[c][board.Rook]; bb != 0; {
		file := bb.PopLSB().File()
		if noPawnFiles[c]&(1<<uint(file)) == 0 {
			continue // own pawn on the file
		}
		if noPawnFiles[them]&(1<<uint(file)) != 0 {
			s.mg += rookOpenFileMg
			s.eg += rookOpenFileEg
		} else {
			s.mg += rookSemiOpenFileMg
			s.eg += rookSemiOpenFileEg
		}
	}
	return s
}

// mobility counts each of c's pieces' moves to squares that are neither
// occupied by own pieces nor covered by enemy pawns.
func mobility(pos *board.Position, c board.Color) score {
	var s score
	occupied := pos.AllOccupied
	blocked := pieceAttacksBB(pos, c.Other(), board.Pawn, occupied) | pos.Occupied[c]

	for pt := board.Knight; pt <= board.Queen; pt++ {
		for bb := pos.Pieces[c][pt]; bb != 0; {
			sq := bb.PopLSB()
			var attacks board.Bitboard
			switch pt {
			case board.Knight:
				attacks = board.KnightAttacks(sq)
			case board.Bishop:
				attacks = board.BishopAttacks(sq, occupied)
			case board.Rook:
				attacks = board.RookAttacks(sq, occupied)
			case board.Queen:
				attacks = board.QueenAttacks(sq, occupied)
			}
			n := (attacks &^ blocked).PopCount()
			s.mg += mobilityMgWeight[pt] * n
			s.eg += mobilityEgWeight[pt] * n
		}
	}
	return s
}

// kingSafety returns a middlegame safety term for c's king: enemy pieces
// bearing on the king zone, scaled up when they come in numbers, plus the
// state of the pawn shield and the files around the king.
func kingSafety(pos *board.Position, c board.Color) int {
	occupied := pos.AllOccupied
	them := c.Other()
	kingSq := pos.KingSquare[c]

	// King zone: the king's neighborhood, extended one rank toward the
	// enemy.
	zone := board.KingAttacks(kingSq) | board.SquareBB(kingSq)
	if c == board.White {
		zone |= zone.North()
	} else {
		zone |= zone.South()
	}

	attackers := 0
	weight := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		for bb := pos.Pieces[them][pt]; bb != 0; {
			sq := bb.PopLSB()
			var attacks board.Bitboard
			switch pt {
			case board.Knight:
				attacks = board.KnightAttacks(sq)
			case board.Bishop:
				attacks = board.BishopAttacks(sq, occupied)
			case board.Rook:
				attacks = board.RookAttacks(sq, occupied)
			case board.Queen:
				attacks = board.QueenAttacks(sq, occupied)
			}
			if attacks&zone != 0 {
				attackers++
				weight += attackerWeight[pt]
			}
		}
	}
	if attackers >= 2 {
		weight = weight * attackers / 2
	}
	v := -weight

	// Pawn shield and file state on the king's file and neighbors.
	ownPawns := pos.Pieces[c][board.Pawn]
	enemyPawns := pos.Pieces[them][board.Pawn]
	shieldRank := 1
	if c == board.Black {
		shieldRank = 6
	}

	kingFile := kingSq.File()
	for f := kingFile - 1; f <= kingFile+1; f++ {
		if f < 0 || f > 7 {
			continue
		}
		fileMask := board.FileMask[f]

		if ownPawns&fileMask&board.RankMask[shieldRank] != 0 {
			v += pawnShieldBonus
		} else if ownPawns&fileMask == 0 {
			v += pawnShieldMissing
		}

		if ownPawns&fileMask == 0 {
			if enemyPawns&fileMask == 0 {
				v += openFileNearKing
			} else {
				v += semiOpenFileNearKing
			}
		}
	}

	return v
}

// kingTropism rewards c's pieces for closing in on the enemy king.
func kingTropism(pos *board.Position, c board.Color) int {
	theirKing := pos.KingSquare[c.Other()]
	v := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		for bb := pos.Pieces[c][pt]; bb != 0; {
			dist := chebyshevDistance(bb.PopLSB(), theirKing)
			if dist < 7 {
				v += tropismWeight[pt] * (7 - dist)
			}
		}
	}
	return v
}

func bishopPair(pos *board.Position, c board.Color) score {
	if pos.Pieces[c][board.Bishop].PopCount() >= 2 {
		return score{bishopPairMgBonus, bishopPairEgBonus}
	}
	return score{}
}

// rookCoordination scores c's rook patterns: rooks on the enemy's second
// rank, rooks defending each other, and rooks doubled on one file.
func rookCoordination(pos *board.Position, c board.Color) score {
	var s score
	rooks := pos.Pieces[c][board.Rook]
	them := c.Other()

	seventh, enemyHome := board.Rank7, board.Rank7
	if c == board.Black {
		seventh, enemyHome = board.Rank2, board.Rank2
	}

	if on7th := (rooks & seventh).PopCount(); on7th > 0 {
		s.mg += rookOn7thMg * on7th
		s.eg += rookOn7thEg * on7th
		if pos.Pieces[them][board.Pawn]&enemyHome != 0 {
			s.mg += rookOn7thWithPawnsMg * on7th
			s.eg += rookOn7thWithPawnsEg * on7th
		}
		if on7th >= 2 {
			s.mg += doubleRooksOn7thMg
			s.eg += doubleRooksOn7thEg
		}
	}

	if rooks.PopCount() >= 2 {
		pair := rooks
		sq1 := pair.PopLSB()
		sq2 := pair.PopLSB()
		if board.RookAttacks(sq1, pos.AllOccupied).IsSet(sq2) {
			s.mg += connectedRooksMg
			s.eg += connectedRooksEg
			if sq1.File() == sq2.File() {
				s.mg += doubledRooksOnFileMg
				s.eg += doubledRooksOnFileEg
			}
		}
	}

	return s
}

// outposts rewards c's minors sitting on squares no enemy pawn can ever
// attack, on the ranks where an outpost actually cramps the opponent.
func outposts(pos *board.Position, c board.Color) score {
	var s score
	ownPawns := pos.Pieces[c][board.Pawn]
	enemyPawns := pos.Pieces[c.Other()][board.Pawn]

	outpostRanks := board.RankMask[3] | board.RankMask[4] | board.RankMask[5]
	if c == board.Black {
		outpostRanks = board.RankMask[2] | board.RankMask[3] | board.RankMask[4]
	}

	// A square is an outpost when no enemy pawn stands ahead of it on an
	// adjacent file, so none can ever advance to attack it.
	isOutpost := func(sq board.Square) bool {
		return enemyPawns&adjacentFilesMask(sq.File())&ranksAhead(sq, c) == 0
	}

	for bb := pos.Pieces[c][board.Knight] & outpostRanks; bb != 0; {
		sq := bb.PopLSB()
		if !isOutpost(sq) {
			continue
		}
		s.mg += knightOutpostMg
		s.eg += knightOutpostEg
		if board.PawnAttacks(sq, c.Other())&ownPawns != 0 {
			s.mg += knightOutpostProtectedMg
			s.eg += knightOutpostProtectedEg
		}
	}

	for bb := pos.Pieces[c][board.Bishop] & outpostRanks; bb != 0; {
		if isOutpost(bb.PopLSB()) {
			s.mg += bishopOutpostMg
			s.eg += bishopOutpostEg
		}
	}

	return s
}

// threats scores the tactical balance for c: penalties for c's hanging
// and loose pieces, bonuses for c's pawns and minors attacking enemy
// pieces above their weight.
func threats(pos *board.Position, c board.Color) score {
	var s score
	occupied := pos.AllOccupied
	them := c.Other()

	ourAttacks := sideAttacksBB(pos, c, occupied)
	enemyAttacks := sideAttacksBB(pos, them, occupied)

	ourPieces := pos.Occupied[c] &^ board.SquareBB(pos.KingSquare[c])
	hanging := (ourPieces & enemyAttacks &^ ourAttacks).PopCount()
	s.mg += hanging * hangingPiecePenalty
	s.eg += hanging * (hangingPiecePenalty * 3 / 2)

	loose := (ourPieces &^ ourAttacks).PopCount()
	s.mg += loose * loosePiecePenalty

	enemyPieces := pos.Occupied[them] &^ board.SquareBB(pos.KingSquare[them])

	pawnHits := (enemyPieces & pieceAttacksBB(pos, c, board.Pawn, occupied) &^ pos.Pieces[them][board.Pawn]).PopCount()
	s.mg += pawnHits * threatByPawnBonus
	s.eg += pawnHits * threatByPawnBonus

	minorAttacks := pieceAttacksBB(pos, c, board.Knight, occupied) | pieceAttacksBB(pos, c, board.Bishop, occupied)
	majors := pos.Pieces[them][board.Rook] | pos.Pieces[them][board.Queen]
	minorHits := (majors & minorAttacks).PopCount()
	s.mg += minorHits * threatByMinorBonus
	s.eg += minorHits * threatByMinorBonus

	return s
}

// nonPawnPieceCount counts c's knights, bishops, rooks and queens.
func nonPawnPieceCount(pos *board.Position, c board.Color) int {
	n := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		n += pos.Pieces[c][pt].PopCount()
	}
	return n
}

// spaceControl returns a middlegame term for the central squares c
// controls behind and alongside its pawn chain. It only applies while c
// still has enough pieces to use the space.
func spaceControl(pos *board.Position, c board.Color) int {
	if nonPawnPieceCount(pos, c) < spaceMinPieces {
		return 0
	}

	ownPawns := pos.Pieces[c][board.Pawn]
	enemyPawnAttacks := pieceAttacksBB(pos, c.Other(), board.Pawn, pos.AllOccupied)
	safe := spaceZones[c] &^ enemyPawnAttacks

	pawnControl := pieceAttacksBB(pos, c, board.Pawn, pos.AllOccupied)
	behindPawns := ownPawns.SouthFill()
	if c == board.Black {
		behindPawns = ownPawns.NorthFill()
	}

	controlled := (pawnControl | behindPawns) & safe
	behind := controlled & behindPawns

	return controlled.PopCount()*spaceSquareBonus + behind.PopCount()*spaceBehindPawnBonus
}

// bishopTraps lists, per color, the (bishop square, pawn, pawn) patterns
// that shut a bishop out of play behind an enemy pawn pair.
var bishopTraps = [2][2][3]board.Square{
	{{board.A6, board.B7, board.B5}, {board.H6, board.G7, board.G5}},
	{{board.A3, board.B2, board.B4}, {board.H3, board.G2, board.G4}},
}

// rookTraps lists, per color, the king-area / rook-corner pattern where a
// rook is boxed in by its own uncastled king.
var rookTraps = [2][2]struct {
	kings board.Bitboard
	rooks board.Bitboard
	right board.CastlingRights
}{
	{
		{board.SquareBB(board.F1) | board.SquareBB(board.G1),
			board.SquareBB(board.G1) | board.SquareBB(board.H1), board.WhiteKingSideCastle},
		{board.SquareBB(board.B1) | board.SquareBB(board.C1) | board.SquareBB(board.D1),
			board.SquareBB(board.A1) | board.SquareBB(board.B1), board.WhiteQueenSideCastle},
	},
	{
		{board.SquareBB(board.F8) | board.SquareBB(board.G8),
			board.SquareBB(board.G8) | board.SquareBB(board.H8), board.BlackKingSideCastle},
		{board.SquareBB(board.B8) | board.SquareBB(board.C8) | board.SquareBB(board.D8),
			board.SquareBB(board.A8) | board.SquareBB(board.B8), board.BlackQueenSideCastle},
	},
}

// trappedPieces penalizes c's pieces with nowhere to go: bad bishops,
// pattern-trapped bishops and rooks, and knights stuck on the rim.
func trappedPieces(pos *board.Position, c board.Color) score {
	var s score
	ownPawns := pos.Pieces[c][board.Pawn]
	enemyPawns := pos.Pieces[c.Other()][board.Pawn]

	for bb := pos.Pieces[c][board.Bishop]; bb != 0; {
		sq := bb.PopLSB()

		sameColor := lightSquares
		if darkSquares.IsSet(sq) {
			sameColor = darkSquares
		}
		if blocking := (ownPawns & sameColor).PopCount(); blocking >= 3 {
			s.mg += badBishopPenaltyMg * blocking
			s.eg += badBishopPenaltyEg * blocking
		}

		for _, trap := range bishopTraps[c] {
			if sq == trap[0] && enemyPawns.IsSet(trap[1]) && enemyPawns.IsSet(trap[2]) {
				s.mg += trappedBishopPenaltyMg
				s.eg += trappedBishopPenaltyEg
			}
		}
	}

	kingBB := board.SquareBB(pos.KingSquare[c])
	rooks := pos.Pieces[c][board.Rook]
	for _, trap := range rookTraps[c] {
		if kingBB&trap.kings != 0 && rooks&trap.rooks != 0 &&
			pos.CastlingRights&trap.right == 0 {
			s.mg += trappedRookPenaltyMg
			s.eg += trappedRookPenaltyEg
		}
	}

	for bb := pos.Pieces[c][board.Knight] & rimSquares; bb != 0; {
		sq := bb.PopLSB()
		if cornerSquares.IsSet(sq) {
			s.mg += knightCornerPenaltyMg
			s.eg += knightCornerPenaltyEg
			continue
		}
		if (board.KnightAttacks(sq) &^ pos.Occupied[c]).PopCount() <= 3 {
			s.mg += knightRimPenaltyMg
			s.eg += knightRimPenaltyEg
		}
	}

	return s
}

// pieceAttacksBB returns the union of squares attacked by every c-colored
// piece of type pt.
func pieceAttacksBB(pos *board.Position, c board.Color, pt board.PieceType, occupied board.Bitboard) board.Bitboard {
	if pt == board.Pawn {
		pawns := pos.Pieces[c][board.Pawn]
		if c == board.White {
			return pawns.NorthEast() | pawns.NorthWest()
		}
		return pawns.SouthEast() | pawns.SouthWest()
	}

	var attacks board.Bitboard
	for bb := pos.Pieces[c][pt]; bb != 0; {
		sq := bb.PopLSB()
		switch pt {
		case board.Knight:
			attacks |= board.KnightAttacks(sq)
		case board.Bishop:
			attacks |= board.BishopAttacks(sq, occupied)
		case board.Rook:
			attacks |= board.RookAttacks(sq, occupied)
		case board.Queen:
			attacks |= board.QueenAttacks(sq, occupied)
		case board.King:
			attacks |= board.KingAttacks(sq)
		}
	}
	return attacks
}

// sideAttacksBB returns every square c attacks with any piece, king
// included.
func sideAttacksBB(pos *board.Position, c board.Color, occupied board.Bitboard) board.Bitboard {
	attacks := pieceAttacksBB(pos, c, board.Pawn, occupied)
	for pt := board.Knight; pt <= board.King; pt++ {
		attacks |= pieceAttacksBB(pos, c, pt, occupied)
	}
	return attacks
}

// chebyshevDistance is the number of king moves between two squares.
func chebyshevDistance(sq1, sq2 board.Square) int {
	df := sq1.File() - sq2.File()
	if df < 0 {
		df = -df
	}
	dr := sq1.Rank() - sq2.Rank()
	if dr < 0 {
		dr = -dr
	}
	return max(df, dr)
}

// SEE statically evaluates the exchange started by m: the net material
// outcome once every profitable recapture on the target square has been
// played out, from the moving side's perspective.
func SEE(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	var gain int
	if m.IsEnPassant() {
		gain = PawnValue
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0
		}
		gain = pieceValues[victim.Type()]
	}
	if m.IsPromotion() {
		gain += pieceValues[m.Promotion()] - PawnValue
	}

	return seeSwap(pos, to, from, attacker, gain)
}

// seeSwap runs the swap algorithm: alternate sides keep capturing on
// target with their least valuable attacker, then the gain list is folded
// back assuming each side stops the moment continuing loses material.
func seeSwap(pos *board.Position, target, excludeFrom board.Square, firstAttacker board.Piece, initialGain int) int {
	var gain [32]int
	d := 0
	gain[d] = initialGain

	occupied := pos.AllOccupied &^ board.SquareBB(excludeFrom)
	attackerValue := pieceValues[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		d++
		gain[d] = attackerValue - gain[d-1]
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}

		sq, piece := leastValuableAttacker(pos, target, side, occupied)
		if sq == board.NoSquare {
			break
		}

		// Removing the attacker can expose an x-ray attacker behind it;
		// the next leastValuableAttacker call sees it through the reduced
		// occupancy.
		occupied &^= board.SquareBB(sq)
		attackerValue = pieceValues[piece.Type()]
		side = side.Other()
	}

	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

// leastValuableAttacker finds side's cheapest piece attacking target
// under the given occupancy, walking piece types from pawn up.
func leastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	for pt := board.Pawn; pt <= board.King; pt++ {
		var reach board.Bitboard
		switch pt {
		case board.Pawn:
			reach = board.PawnAttacks(target, side.Other())
		case board.Knight:
			reach = board.KnightAttacks(target)
		case board.Bishop:
			reach = board.BishopAttacks(target, occupied)
		case board.Rook:
			reach = board.RookAttacks(target, occupied)
		case board.Queen:
			reach = board.BishopAttacks(target, occupied) | board.RookAttacks(target, occupied)
		case board.King:
			reach = board.KingAttacks(target)
		}
		if attackers := pos.Pieces[side][pt] & reach & occupied; attackers != 0 {
			return attackers.LSB(), board.NewPiece(pt, side)
		}
	}
	return board.NoSquare, board.NoPiece
}
