package engine

import (
	"github.com/corvidchess/corvid/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for good captures
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	BadCaptureBase  = -100000  // Losing captures
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Rows step by 10 per victim (pawn 15 up to queen 55); within a row the
// score drops as the attacker gets more valuable, knight and bishop alike.
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0},       // King can't be captured
}

// All history tables share one bounded-gravity update rule:
// h += bonus - h*|bonus|/historyMax. A table entry asymptotically approaches
// the sign and magnitude of repeated bonuses without ever overflowing, so no
// separate clamp is needed to keep values in [-historyMax, historyMax].
const (
	historyMax      = 16384
	historyBonusCap = 1536
)

func historyBonus(depth int) int {
	b := depth * depth
	if b > historyBonusCap {
		b = historyBonusCap
	}
	return b
}

func applyGravity(cur *int, bonus int) {
	*cur += bonus - (*cur)*iabs(bonus)/historyMax
}

func iabs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PieceToHistory is a continuation-history slice for one preceding
// (piece, to) pair.
type PieceToHistory [12][64]int

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// Butterfly history heuristic (indexed by [from][to])
	history [64][64]int

	// Counter move heuristic (indexed by [piece][to])
	counterMoves [12][64]board.Move

	// Capture history (indexed by [attackerPiece][toSquare][capturedPieceType])
	captureHistory [12][64][6]int

	// Countermove history (indexed by [prevPiece][prevTo][movePiece][moveTo])
	countermoveHistory [12][64][12][64]int

	// Continuation history, one table per preceding (piece, to): contHist1
	// is indexed by the move one ply back, contHist2 by the move two plies
	// back.
	contHist1 [12][64]PieceToHistory
	contHist2 [12][64]PieceToHistory

	// Threats history: quiet move ordering bonus keyed on whether the
	// moving piece started on, or lands on, a square the opponent attacks.
	threatHistory [2][2][12][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets all move-ordering tables for a new game (per-search resets
// use ClearTransient and AgeHistory).
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}
	mo.history = [64][64]int{}
	mo.captureHistory = [12][64][6]int{}
	mo.countermoveHistory = [12][64][12][64]int{}
	mo.contHist1 = [12][64]PieceToHistory{}
	mo.contHist2 = [12][64]PieceToHistory{}
	mo.threatHistory = [2][2][12][64]int{}
}

// ScoreMoves assigns scores to moves for ordering.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		scores[i] = mo.scoreMove(pos, move, ply, ttMove)
	}

	return scores
}

// ScoreMovesWithCounter assigns scores including counter-move, CMH, threats
// history, and continuation history bonuses.
func (mo *MoveOrderer) ScoreMovesWithCounter(pos *board.Position, moves *board.MoveList, ply int, ttMove, prevMove board.Move, threatened board.Bitboard, contTables ...*PieceToHistory) []int {
	scores := make([]int, moves.Len())
	counterMove := mo.GetCounterMove(prevMove, pos)

	var prevPiece board.Piece = board.NoPiece
	if prevMove != board.NoMove {
		prevPiece = pos.PieceAt(prevMove.To())
	}

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		scores[i] = mo.scoreMove(pos, move, ply, ttMove)

		if move == counterMove && scores[i] < KillerScore2 {
			scores[i] = KillerScore2 - 10000 // Just below second killer
		}

		if !move.IsCapture() && !move.IsPromotion() && move != ttMove {
			movePiece := pos.PieceAt(move.From())
			cmhScore := mo.GetCountermoveHistoryScore(prevMove, prevPiece, movePiece, move.To())
			scores[i] += cmhScore / 2

			fromThreatened := threatened.IsSet(move.From())
			toThreatened := threatened.IsSet(move.To())
			scores[i] += mo.GetThreatsHistoryScore(fromThreatened, toThreatened, movePiece, move.To()) / 4

			for _, ct := range contTables {
				if ct != nil {
					scores[i] += ct[movePiece][move.To()] / 2
				}
			}
		}
	}

	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	// TT move gets highest priority
	if m == ttMove {
		return TTMoveScore
	}

	from := m.From()
	to := m.To()

	// Captures: MVV-LVA within a tier, but the tier itself is decided by
	// static exchange evaluation: a capture that loses
	// material once all recaptures are played out (SEE < 0) is a "bad
	// tactical" and sorts below killers and quiet history, not alongside
	// genuinely winning captures, even though MVV-LVA alone would rank
	// QxP the same whether or not a pawn recaptures the queen.
	if m.IsCapture() {
		attackerPiece := pos.PieceAt(from)
		if attackerPiece == board.NoPiece {
			return GoodCaptureBase // Safety check
		}
		attacker := attackerPiece.Type()

		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			capturedPiece := pos.PieceAt(to)
			if capturedPiece == board.NoPiece {
				// Safety check - shouldn't happen but prevents panic
				return GoodCaptureBase
			}
			victim = capturedPiece.Type()
		}

		// Bounds check for safety (victim should be < King for captures)
		if victim >= board.King || attacker > board.King {
			return GoodCaptureBase
		}

		tactical := mvvLva[victim][attacker]*1000 + mo.GetCaptureHistoryScore(attackerPiece, to, victim)/4

		if SEE(pos, m) < 0 {
			return BadCaptureBase + tactical
		}
		return GoodCaptureBase + tactical
	}

	// Promotions (non-capture)
	if m.IsPromotion() {
		return GoodCaptureBase - 1000 + int(m.Promotion())*100
	}

	// Killer moves
	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}

	// History heuristic for quiet moves
	return mo.history[from][to]
}

// SortMoves sorts moves by their scores (descending).
func SortMoves(moves *board.MoveList, scores []int) {
	// Simple selection sort (sufficient for ~40 moves)
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			// Swap moves
			moves.Swap(i, best)
			// Swap scores
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// ClearTransient resets the ply-scoped tables (killers, countermove) that
// only make sense relative to the current search's root. Long-lived
// history tables are left for AgeHistory to damp instead of erase.
func (mo *MoveOrderer) ClearTransient() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}
}

// AgeHistory divides every persistent history table by a constant between
// root searches, damping stale signal from earlier moves in the game
// without discarding it the way a full Clear would.
func (mo *MoveOrderer) AgeHistory() {
	const ageDivisor = 2
	for f := range mo.history {
		for t := range mo.history[f] {
			mo.history[f][t] /= ageDivisor
		}
	}
	for p := range mo.captureHistory {
		for t := range mo.captureHistory[p] {
			for v := range mo.captureHistory[p][t] {
				mo.captureHistory[p][t][v] /= ageDivisor
			}
		}
	}
	for pp := range mo.countermoveHistory {
		for pt := range mo.countermoveHistory[pp] {
			for mp := range mo.countermoveHistory[pp][pt] {
				for mt := range mo.countermoveHistory[pp][pt][mp] {
					mo.countermoveHistory[pp][pt][mp][mt] /= ageDivisor
				}
			}
		}
	}
	for p := range mo.contHist1 {
		for t := range mo.contHist1[p] {
			table := &mo.contHist1[p][t]
			for pp := range table {
				for tt := range table[pp] {
					table[pp][tt] /= ageDivisor
				}
			}
		}
	}
	for p := range mo.contHist2 {
		for t := range mo.contHist2[p] {
			table := &mo.contHist2[p][t]
			for pp := range table {
				for tt := range table[pp] {
					table[pp][tt] /= ageDivisor
				}
			}
		}
	}
	for a := range mo.threatHistory {
		for b := range mo.threatHistory[a] {
			for p := range mo.threatHistory[a][b] {
				for t := range mo.threatHistory[a][b][p] {
					mo.threatHistory[a][b][p][t] /= ageDivisor
				}
			}
		}
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory updates the butterfly history score for a move.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int, isGood bool) {
	bonus := historyBonus(depth)
	if !isGood {
		bonus = -bonus
	}
	applyGravity(&mo.history[m.From()][m.To()], bonus)
}

// UpdateCounterMove updates the counter move table.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, counterMove board.Move, pos *board.Position) {
	if prevMove == board.NoMove {
		return
	}

	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}

	mo.counterMoves[piece][prevMove.To()] = counterMove
}

// GetCounterMove returns the counter move for a previous move.
func (mo *MoveOrderer) GetCounterMove(prevMove board.Move, pos *board.Position) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}

	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}

	return mo.counterMoves[piece][prevMove.To()]
}

// GetHistoryScore returns the history score for a move.
// Used for history pruning in search.
func (mo *MoveOrderer) GetHistoryScore(m board.Move) int {
	return mo.history[m.From()][m.To()]
}

// UpdateCaptureHistory updates the capture history for a move.
func (mo *MoveOrderer) UpdateCaptureHistory(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType, depth int, isGood bool) {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return
	}
	bonus := historyBonus(depth)
	if !isGood {
		bonus = -bonus
	}
	applyGravity(&mo.captureHistory[attackerPiece][toSq][capturedType], bonus)
}

// GetCaptureHistoryScore returns the capture history score for a capture move.
func (mo *MoveOrderer) GetCaptureHistoryScore(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType) int {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return 0
	}
	return mo.captureHistory[attackerPiece][toSq][capturedType]
}

// UpdateCountermoveHistory updates the countermove history for a quiet move.
func (mo *MoveOrderer) UpdateCountermoveHistory(prevMove, goodMove board.Move, prevPiece, movePiece board.Piece, depth int, isGood bool) {
	if prevMove == board.NoMove || prevPiece == board.NoPiece || movePiece == board.NoPiece {
		return
	}

	prevTo := prevMove.To()
	moveTo := goodMove.To()
	bonus := historyBonus(depth)
	if !isGood {
		bonus = -bonus
	}
	applyGravity(&mo.countermoveHistory[prevPiece][prevTo][movePiece][moveTo], bonus)
}

// GetCountermoveHistoryScore returns the CMH score for a move given the previous move.
func (mo *MoveOrderer) GetCountermoveHistoryScore(prevMove board.Move, prevPiece, movePiece board.Piece, moveTo board.Square) int {
	if prevMove == board.NoMove || prevPiece == board.NoPiece || movePiece == board.NoPiece {
		return 0
	}
	return mo.countermoveHistory[prevPiece][prevMove.To()][movePiece][moveTo]
}

// GetContinuationHistoryTable1 returns the 1-ply-back continuation table for
// a (piece, to) pair, for the child node to index by its own (piece, to).
func (mo *MoveOrderer) GetContinuationHistoryTable1(piece board.Piece, to board.Square) *PieceToHistory {
	return &mo.contHist1[piece][to]
}

// GetContinuationHistoryTable2 returns the 2-ply-back continuation table.
func (mo *MoveOrderer) GetContinuationHistoryTable2(piece board.Piece, to board.Square) *PieceToHistory {
	return &mo.contHist2[piece][to]
}

// UpdateContinuationHistory updates one continuation-history table entry.
func UpdateContinuationHistory(table *PieceToHistory, piece board.Piece, to board.Square, depth int, isGood bool) {
	if table == nil {
		return
	}
	bonus := historyBonus(depth)
	if !isGood {
		bonus = -bonus
	}
	applyGravity(&table[piece][to], bonus)
}

// GetThreatsHistoryScore returns the threats history score for a quiet move.
func (mo *MoveOrderer) GetThreatsHistoryScore(fromThreatened, toThreatened bool, piece board.Piece, to board.Square) int {
	if piece == board.NoPiece {
		return 0
	}
	return mo.threatHistory[b2i(fromThreatened)][b2i(toThreatened)][piece][to]
}

// UpdateThreatsHistory updates the threats history for a quiet move.
func (mo *MoveOrderer) UpdateThreatsHistory(fromThreatened, toThreatened bool, piece board.Piece, to board.Square, depth int, isGood bool) {
	if piece == board.NoPiece {
		return
	}
	bonus := historyBonus(depth)
	if !isGood {
		bonus = -bonus
	}
	applyGravity(&mo.threatHistory[b2i(fromThreatened)][b2i(toThreatened)][piece][to], bonus)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
