package engine

import (
	"math"
	"sync/atomic"

	"github.com/corvidchess/corvid/internal/board"
)

// LMR reduction table - precomputed logarithmic reductions
// Based on Stockfish's formula: 21.46 * log(depth) * log(moveCount) / 1024
var lmrReductions [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrReductions[d][m] = int(21.46 * math.Log(float64(d)) * math.Log(float64(m)) / 1024.0)
		}
	}
}

// SearchStack stores per-ply search state for continuation history tracking.
// Ported from Stockfish's Stack structure.
type SearchStack struct {
	currentMove           board.Move
	movedPiece            board.Piece
	moveTo                board.Square
	continuationHistory1  *PieceToHistory
	continuationHistory2  *PieceToHistory
	statScore             int
	reduction             int
	cutoffCnt             int
}

// Searcher drives a single-threaded iterative-deepening search: one search
// instance per OS thread, cooperating with its caller through a single
// shared atomic abort flag, with no goroutines on the search path.
type Searcher struct {
	pos     *board.Position
	orderer *MoveOrderer

	nodes uint64
	pv    PVTable

	undoStack   [MaxPly]board.UndoInfo
	evalStack   [MaxPly]int
	searchStack [MaxPly]SearchStack

	// Position history for repetition detection. Pre-allocated buffer
	// avoids allocation per move in negamax.
	posHistoryBuffer [768]uint64
	posHistoryLen    int
	rootPosHashes    []uint64

	tt          *TranspositionTable
	pawnTable   *PawnTable
	corrHistory *CorrectionHistory
	stopFlag    *atomic.Bool

	depth int

	// Optimism tracking (Stockfish evaluate.cpp): material scaling term
	// based on a running average of root scores.
	optimism [2]int
	avgScore int

	// Width of the current iteration's aspiration window, used to scale
	// LMR (Stockfish search.cpp).
	rootDelta int

	// selDepth tracks the deepest ply reached this SearchDepth call,
	// across extensions and quiescence.
	selDepth int
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable, pawnTable *PawnTable) *Searcher {
	return &Searcher{
		orderer:     NewMoveOrderer(),
		tt:          tt,
		pawnTable:   pawnTable,
		corrHistory: NewCorrectionHistory(),
		stopFlag:    &atomic.Bool{},
	}
}

// Nodes returns the number of nodes searched.
func (w *Searcher) Nodes() uint64 {
	return w.nodes
}

// StopFlag returns the searcher's abort flag, shared with the caller so it
// can request early termination.
func (w *Searcher) StopFlag() *atomic.Bool {
	return w.stopFlag
}

// Reset resets the searcher for a new search.
func (w *Searcher) Reset() {
	w.nodes = 0
	w.orderer.ClearTransient()
	w.orderer.AgeHistory()
	w.corrHistory.Age()
	w.avgScore = -Infinity
	w.optimism[0] = 0
	w.optimism[1] = 0
}

// ClearAll fully zeroes the orderer and correction history, for a new
// game ("ucinewgame") rather than just ageing them between moves of the
// same game.
func (w *Searcher) ClearAll() {
	w.orderer.Clear()
	w.corrHistory.Clear()
}

// UpdateOptimism calculates optimism for the current iteration based on avgScore.
// Should be called before each depth in iterative deepening.
func (w *Searcher) UpdateOptimism() {
	avg := w.avgScore
	if avg == -Infinity {
		w.optimism[0] = 0
		w.optimism[1] = 0
		return
	}

	us := 0
	if w.pos.SideToMove == board.Black {
		us = 1
	}

	absAvg := avg
	if absAvg < 0 {
		absAvg = -absAvg
	}
	w.optimism[us] = (142 * avg) / (absAvg + 91)
	w.optimism[1-us] = -w.optimism[us]
}

// UpdateAvgScore updates the running average score after each iteration.
func (w *Searcher) UpdateAvgScore(score int) {
	if w.avgScore == -Infinity {
		w.avgScore = score
	} else {
		w.avgScore = (score + w.avgScore) / 2
	}
}

// SetRootHistory sets the position history from the game (for repetition detection).
func (w *Searcher) SetRootHistory(hashes []uint64) {
	w.rootPosHashes = make([]uint64, len(hashes))
	copy(w.rootPosHashes, hashes)
}

// InitSearch initializes the searcher for a new search on pos.
func (w *Searcher) InitSearch(pos *board.Position) {
	w.pos = pos

	rootLen := len(w.rootPosHashes)
	if rootLen > 640 {
		rootLen = 640
		copy(w.posHistoryBuffer[:rootLen], w.rootPosHashes[len(w.rootPosHashes)-640:])
	} else {
		copy(w.posHistoryBuffer[:rootLen], w.rootPosHashes)
	}
	w.posHistoryBuffer[rootLen] = w.pos.Hash
	w.posHistoryLen = rootLen + 1
}

// Pos returns the current position (for debugging).
func (w *Searcher) Pos() *board.Position {
	return w.pos
}

// SearchDepth performs a full search at the given depth and returns the
// best move and score found.
func (w *Searcher) SearchDepth(depth, alpha, beta int) (board.Move, int) {
	w.depth = depth
	w.selDepth = 0

	score := w.negamax(depth, 0, alpha, beta, board.NoMove, board.NoMove, false, true)

	var bestMove board.Move
	if w.pv.length[0] > 0 {
		bestMove = w.pv.moves[0][0]
	}

	if bestMove == board.NoMove && !w.stopFlag.Load() {
		moves := w.pos.GenerateLegalMoves()
		if moves.Len() > 0 {
			bestMove = moves.Get(0)
		}
	}

	return bestMove, score
}

// evaluate returns the static evaluation using the cached pawn structure.
func (w *Searcher) evaluate() int {
	return EvaluateWithPawnTable(w.pos, w.pawnTable)
}

// stopped returns true if search should stop.
func (w *Searcher) stopped() bool {
	return w.stopFlag.Load()
}

// SelDepth returns the deepest ply reached by the most recent SearchDepth
// call, including quiescence and extensions.
func (w *Searcher) SelDepth() int {
	return w.selDepth
}

// GetPV returns the principal variation from the last search.
func (w *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, w.pv.length[0])
	for i := 0; i < w.pv.length[0]; i++ {
		pv[i] = w.pv.moves[0][i]
	}
	return pv
}

// isDraw checks for draw by repetition or 50-move rule.
func (w *Searcher) isDraw() bool {
	if w.pos.HalfMoveClock >= 100 {
		return true
	}

	if w.pos.IsInsufficientMaterial() {
		return true
	}

	if w.posHistoryLen > 0 {
		currentHash := w.pos.Hash
		count := 0
		for i := 0; i < w.posHistoryLen; i++ {
			if w.posHistoryBuffer[i] == currentHash {
				count++
				if count >= 2 {
					return true
				}
			}
		}
	}

	return false
}

// threatenedSquares returns the squares the side not to move attacks,
// used to key quiet-move ordering and threat detection.
func (w *Searcher) threatenedSquares() board.Bitboard {
	pos := w.pos
	return sideAttacksBB(pos, pos.SideToMove.Other(), pos.AllOccupied)
}

// negamax implements the negamax algorithm with alpha-beta pruning.
// excludedMove is used for singular extension search - if not NoMove, this move will be skipped.
// cutNode indicates expected node type: true if we expect a beta cutoff (most children are cut-nodes).
// tryNull gates null-move pruning so the null child and its verification
// search can't stack a second pass on top of the first.
func (w *Searcher) negamax(depth, ply int, alpha, beta int, prevMove, excludedMove board.Move, cutNode, tryNull bool) int {
	if ply >= MaxPly-1 {
		return w.evaluate()
	}

	if w.nodes&4095 == 0 && w.stopFlag.Load() {
		return 0
	}

	w.nodes++
	w.pv.length[ply] = ply
	if ply > w.selDepth {
		w.selDepth = ply
	}

	if ply > 0 && w.isDraw() {
		return 0
	}

	// Mate-distance pruning: a mate found from here can never beat one
	// already proven closer to the root, so the window collapses near
	// forced-mate scores.
	if ply > 0 {
		if a := -MateScore + ply; a > alpha {
			alpha = a
		}
		if b := MateScore - ply; b < beta {
			beta = b
		}
		if alpha >= beta {
			return alpha
		}
	}

	// Probe transposition table
	var ttMove board.Move
	ttPv := false
	ttEntry, found := w.tt.Probe(w.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		ttPv = ttEntry.IsPV

		if ttMove != board.NoMove && !w.pos.PseudoLegal(ttMove) {
			ttMove = board.NoMove
		}

		if int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				if ply == 0 && ttMove != board.NoMove {
					w.pv.moves[0][0] = ttMove
					w.pv.length[0] = 1
				}
				return score
			case TTLowerBound:
				if score > alpha {
					alpha = score
				}
			case TTUpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				if ply == 0 && ttMove != board.NoMove {
					w.pv.moves[0][0] = ttMove
					w.pv.length[0] = 1
				}
				return score
			}
		}
	}

	// Quiescence search at depth 0
	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}

	inCheck := w.pos.InCheck()

	// Internal Iterative Reductions (IIR) - Stockfish approach
	if depth >= 4 && ttMove == board.NoMove && !inCheck {
		depth -= 2
	}

	extension := 0
	if inCheck {
		extension = 1
	}

	if EnableThreatExt && extension == 0 && depth >= threatExtensionMinDepth && ply > 0 {
		if w.detectSeriousThreats() {
			extension = 1
		}
	}

	rawEval := w.evaluate()
	staticEval := w.corrHistory.Correct(w.pos.SideToMove, w.pos.PawnKey, rawEval)
	w.evalStack[ply] = staticEval

	improving := false
	if ply >= 2 {
		improving = staticEval > w.evalStack[ply-2]
	}

	opponentWorsening := false
	if ply >= 1 {
		opponentWorsening = staticEval > -w.evalStack[ply-1]
	}

	if EnableHindsightDepth && ply >= 1 {
		priorReduction := w.searchStack[ply-1].reduction
		if priorReduction >= 3 && !opponentWorsening {
			depth++
		}
		if priorReduction >= 2 && depth >= 2 {
			evalSum := staticEval + w.evalStack[ply-1]
			if evalSum > 173 {
				depth--
			}
		}
	}

	if ply+2 < MaxPly {
		w.searchStack[ply+2].cutoffCnt = 0
	}

	// Reverse Futility Pruning
	if EnableRFP && !inCheck && depth <= 6 && ply > 0 && !ttPv {
		rfpMargin := 80 * depth
		if !improving {
			rfpMargin -= 20
		}
		if staticEval-rfpMargin >= beta {
			return beta
		}
	}

	// Razoring
	if EnableRazoring && depth <= 5 && !inCheck && ply > 0 && !ttPv {
		razorMargin := 485 + 281*depth*depth
		if staticEval+razorMargin <= alpha {
			score := w.quiescence(ply, alpha, beta)
			if score <= alpha {
				return score
			}
		}
	}

	// Null Move Pruning
	if EnableNMP && tryNull && !inCheck && depth >= 3 && ply > 0 && !ttPv &&
		staticEval >= beta && w.pos.HasNonPawnMaterial() {
		R := 7 + depth/3
		if R > depth-1 {
			R = depth - 1
		}

		nullUndo := w.pos.MakeNullMove()
		nullScore := -w.negamax(depth-1-R, ply+1, -beta, -beta+1, board.NoMove, board.NoMove, !cutNode, false)
		w.pos.UnmakeNullMove(nullUndo)

		if nullScore >= beta {
			if depth < nmpVerifyDepth {
				return nullScore
			}
			// Zugzwang guard: at high depth, confirm the fail-high with a
			// reduced search of the real position, null move disabled.
			verified := w.negamax(depth-1-R, ply, beta-1, beta, prevMove, board.NoMove, cutNode, false)
			if verified >= beta {
				return verified
			}
		}
	}

	// Probcut
	if EnableProbcut && depth >= probcutDepth && !inCheck && ply > 0 && abs(beta) < MateScore-100 {
		adaptiveMargin := 235
		if improving {
			adaptiveMargin -= 63
		}
		probcutBeta := beta + adaptiveMargin

		evalDiff := staticEval - beta
		probcutSearchDepth := depth - 5 - evalDiff/315
		if probcutSearchDepth < 1 {
			probcutSearchDepth = 1
		}
		if probcutSearchDepth > depth {
			probcutSearchDepth = depth
		}

		captures := w.pos.GenerateCaptures()
		for i := 0; i < captures.Len(); i++ {
			capture := captures.Get(i)
			if SEE(w.pos, capture) < 0 {
				continue
			}

			undo := w.pos.MakeMove(capture)
			if !undo.Valid {
				w.pos.UnmakeMove(capture, undo)
				continue
			}

			score := -w.negamax(probcutSearchDepth, ply+1, -probcutBeta, -probcutBeta+1, capture, board.NoMove, !cutNode, true)
			w.pos.UnmakeMove(capture, undo)

			if score >= probcutBeta {
				return score
			}
		}
	}

	// Multi-Cut
	if EnableMulticut && depth >= multicutDepth && !inCheck && ply > 0 && abs(beta) < MateScore-100 {
		mcMoves := w.pos.GenerateLegalMoves()
		threatened := w.threatenedSquares()
		mcScores := w.orderer.ScoreMovesWithCounter(w.pos, mcMoves, ply, ttMove, prevMove, threatened)

		mcCutoffs := 0
		mcSearched := 0
		mcSearchDepth := depth - 4
		if mcSearchDepth < 1 {
			mcSearchDepth = 1
		}

		for i := 0; i < mcMoves.Len() && mcSearched < multicutMoves; i++ {
			PickMove(mcMoves, mcScores, i)
			move := mcMoves.Get(i)

			undo := w.pos.MakeMove(move)
			if !undo.Valid {
				w.pos.UnmakeMove(move, undo)
				continue
			}
			mcSearched++

			score := -w.negamax(mcSearchDepth, ply+1, -beta, -beta+1, move, board.NoMove, !cutNode, true)
			w.pos.UnmakeMove(move, undo)

			if score >= beta {
				mcCutoffs++
				if mcCutoffs >= multicutRequired {
					return beta
				}
			}
		}
	}

	pruneQuietMoves := false
	if EnableFutilityPruning && depth <= 5 && !inCheck && ply > 0 {
		futilityMargin := []int{0, 200, 300, 500, 700, 900}
		if staticEval+futilityMargin[depth] <= alpha {
			pruneQuietMoves = true
		}
	}

	// Singular Extensions
	singularExtension := 0
	if EnableSingularExt && depth >= 6 && ttMove != board.NoMove && excludedMove == board.NoMove && found {
		if int(ttEntry.Depth) >= depth-3 && (ttEntry.Flag == TTLowerBound || ttEntry.Flag == TTExact) {
			isPvNode := alpha < beta-1
			margin := 53
			if ttPv && !isPvNode {
				margin = 128
			}
			ttValue := AdjustScoreFromTT(int(ttEntry.Score), ply)
			singularBeta := ttValue - margin*depth/60

			singularDepth := (depth - 1) / 2
			singularScore := w.negamax(singularDepth, ply, singularBeta-1, singularBeta, prevMove, ttMove, cutNode, false)

			if singularScore < singularBeta {
				ttCapture := ttMove.IsCapture()

				doubleMargin := -4
				if isPvNode {
					doubleMargin += 199
				}
				if !ttCapture {
					doubleMargin -= 201
				}

				tripleMargin := 73
				if isPvNode {
					tripleMargin += 302
				}
				if !ttCapture {
					tripleMargin -= 248
				}
				if ttPv {
					tripleMargin += 90
				}

				singularExtension = 1
				if singularScore < singularBeta-doubleMargin {
					singularExtension = 2
				}
				if singularScore < singularBeta-tripleMargin {
					singularExtension = 3
				}
			} else {
				ttValue := AdjustScoreFromTT(int(ttEntry.Score), ply)
				if ttValue >= beta {
					singularExtension = -3
				} else if cutNode {
					singularExtension = -2
				}
			}
		}
	}

	// Generate moves
	moves := w.pos.GenerateLegalMoves()

	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	threatened := w.threatenedSquares()
	var cont1, cont2 *PieceToHistory
	if ply >= 1 && w.searchStack[ply-1].continuationHistory1 != nil {
		cont1 = w.searchStack[ply-1].continuationHistory1
	}
	if ply >= 2 && w.searchStack[ply-2].continuationHistory1 != nil {
		cont2 = w.searchStack[ply-2].continuationHistory1
	}
	scores := w.orderer.ScoreMovesWithCounter(w.pos, moves, ply, ttMove, prevMove, threatened, cont1, cont2)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	movesSearched := 0

	var quietsTried [64]board.Move
	quietsTriedCount := 0
	var capturesTried [64]board.Move
	capturesTriedCount := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if move == excludedMove {
			continue
		}

		isCapture := move.IsCapture()
		isPromotion := move.IsPromotion()

		if EnableFutilityPruning && pruneQuietMoves && !isCapture && !isPromotion && bestMove != board.NoMove {
			continue
		}

		if EnableSEEPruning && isCapture && depth <= 7 && !inCheck && movesSearched > 0 {
			seeThreshold := -20 * depth
			if SEE(w.pos, move) < seeThreshold {
				continue
			}
		}

		if EnableLMP && depth <= 7 && !inCheck && movesSearched > 0 && !isCapture && !isPromotion && move != ttMove {
			threshold := lmpThreshold[depth]
			if !improving {
				threshold = threshold * 2 / 3
			}
			if movesSearched >= threshold {
				continue
			}
		}

		if EnableHistoryPruning && depth <= 3 && !inCheck && movesSearched > 0 && !isCapture && !isPromotion && move != ttMove {
			if w.orderer.GetHistoryScore(move) < historyPruningThreshold {
				continue
			}
		}

		movingPiece := w.pos.PieceAt(move.From())
		moveTo := move.To()

		if movingPiece == board.NoPiece || movingPiece.Color() != w.pos.SideToMove {
			continue
		}

		w.undoStack[ply] = w.pos.MakeMove(move)
		if !w.undoStack[ply].Valid {
			w.pos.UnmakeMove(move, w.undoStack[ply])
			continue
		}

		w.searchStack[ply].currentMove = move
		w.searchStack[ply].movedPiece = movingPiece
		w.searchStack[ply].moveTo = moveTo
		w.searchStack[ply].continuationHistory1 = w.orderer.GetContinuationHistoryTable1(movingPiece, moveTo)
		w.searchStack[ply].continuationHistory2 = w.orderer.GetContinuationHistoryTable2(movingPiece, moveTo)

		w.posHistoryBuffer[w.posHistoryLen] = w.pos.Hash
		w.posHistoryLen++
		movesSearched++

		if isCapture {
			if capturesTriedCount < len(capturesTried) {
				capturesTried[capturesTriedCount] = move
				capturesTriedCount++
			}
		} else if !isPromotion {
			if quietsTriedCount < len(quietsTried) {
				quietsTried[quietsTriedCount] = move
				quietsTriedCount++
			}
		}

		var score int
		newDepth := depth - 1 + extension

		if move == ttMove && singularExtension != 0 {
			newDepth += singularExtension
		}

		// Late Move Reduction (LMR)
		if movesSearched > 4 && depth >= 3 && !inCheck && !isCapture && !isPromotion {
			d := depth
			if d > 63 {
				d = 63
			}
			m := movesSearched
			if m > 63 {
				m = 63
			}
			reduction := lmrReductions[d][m]

			if w.rootDelta > 0 && w.rootDelta < Infinity {
				delta := beta - alpha
				reduction -= delta * 608 / w.rootDelta
			}

			if !improving {
				reduction++
			}
			if move == ttMove {
				reduction -= 2
			}
			if ttPv {
				reduction--
			}

			if cutNode {
				extra := 3372
				if ttMove == board.NoMove {
					extra += 997
				}
				reduction += extra / 1024
			}

			isPvNode := alpha < beta-1
			allNode := !isPvNode && !cutNode
			if allNode && depth > 2 {
				reduction += reduction / (depth + 1)
			}

			if ply+1 < MaxPly {
				cutoffCnt := w.searchStack[ply+1].cutoffCnt
				if cutoffCnt > 1 {
					extra := 120
					if cutoffCnt > 2 {
						extra += 1024
					}
					if cutoffCnt > 3 {
						extra += 100
					}
					if allNode {
						extra += 1024
					}
					reduction += extra / 1024
				}
			}

			mainHist := w.orderer.history[move.From()][move.To()]
			contHist0 := 0
			contHist1 := 0
			if ply >= 1 && w.searchStack[ply-1].continuationHistory1 != nil {
				contHist0 = w.searchStack[ply-1].continuationHistory1[movingPiece][moveTo]
			}
			if ply >= 2 && w.searchStack[ply-2].continuationHistory1 != nil {
				contHist1 = w.searchStack[ply-2].continuationHistory1[movingPiece][moveTo]
			}

			statScore := 2*mainHist + contHist0 + contHist1
			w.searchStack[ply].statScore = statScore

			reduction -= statScore * 850 / 8192
			reduction -= movesSearched * 73 / 1024

			if reduction < 1 {
				reduction = 1
			}

			reducedDepth := newDepth - reduction
			if reducedDepth < 1 {
				reducedDepth = 1
			}

			w.searchStack[ply].reduction = reduction

			score = -w.negamax(reducedDepth, ply+1, -alpha-1, -alpha, move, board.NoMove, !cutNode, true)

			if score > alpha {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, move, board.NoMove, false, true)
			}
		} else if movesSearched == 1 {
			score = -w.negamax(newDepth, ply+1, -beta, -alpha, move, board.NoMove, false, true)
		} else {
			score = -w.negamax(newDepth, ply+1, -alpha-1, -alpha, move, board.NoMove, !cutNode, true)
			if score > alpha && score < beta {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, move, board.NoMove, false, true)
			}
		}

		w.posHistoryLen--
		w.pos.UnmakeMove(move, w.undoStack[ply])

		if w.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				w.pv.moves[ply][ply] = move
				for j := ply + 1; j < w.pv.length[ply+1]; j++ {
					w.pv.moves[ply][j] = w.pv.moves[ply+1][j]
				}
				w.pv.length[ply] = w.pv.length[ply+1]
			}
		}

		// Beta cutoff
		if score >= beta {
			isPvNode := alpha < beta-1
			if extension < 2 || isPvNode {
				w.searchStack[ply].cutoffCnt++
			}

			if ply == 0 && bestMove != board.NoMove {
				w.pv.moves[0][0] = bestMove
				w.pv.length[0] = 1
			}

			w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove, isPvNode)

			if isCapture {
				w.rewardCapture(move, depth, true)
			} else {
				w.orderer.UpdateKillers(move, ply)
				w.orderer.UpdateHistory(move, depth, true)
				w.orderer.UpdateCounterMove(prevMove, move, w.pos)

				if prevMove != board.NoMove {
					prevPiece := w.pos.PieceAt(prevMove.To())
					w.orderer.UpdateCountermoveHistory(prevMove, move, prevPiece, movingPiece, depth, true)
				}

				fromThreatened := threatened.IsSet(move.From())
				toThreatened := threatened.IsSet(move.To())
				w.orderer.UpdateThreatsHistory(fromThreatened, toThreatened, movingPiece, moveTo, depth, true)

				w.updateContinuationHistories(ply, movingPiece, moveTo, depth, true)
			}

			// History malus: everything else tried at this node failed to
			// cut, so it gets the negative side of the gravity update.
			for j := 0; j < quietsTriedCount; j++ {
				if quietsTried[j] == move {
					continue
				}
				w.orderer.UpdateHistory(quietsTried[j], depth, false)
			}
			for j := 0; j < capturesTriedCount; j++ {
				if capturesTried[j] == move {
					continue
				}
				w.rewardCapture(capturesTried[j], depth, false)
			}

			return score
		}
	}

	if bestMove == board.NoMove && moves.Len() > 0 {
		bestMove = moves.Get(0)
		if bestScore == -Infinity {
			bestScore = alpha
		}
	}

	if flag == TTExact && !inCheck && depth >= 2 {
		w.corrHistory.Update(w.pos.SideToMove, w.pos.PawnKey, bestScore, rawEval, depth)
	}

	isPV := flag == TTExact
	w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove, isPV)

	return bestScore
}

// rewardCapture applies a capture-history gravity update for a tried capture.
func (w *Searcher) rewardCapture(move board.Move, depth int, isGood bool) {
	attackerPiece := w.pos.PieceAt(move.From())
	var capturedType board.PieceType
	if move.IsEnPassant() {
		capturedType = board.Pawn
	} else {
		capturedPiece := w.pos.PieceAt(move.To())
		if capturedPiece != board.NoPiece {
			capturedType = capturedPiece.Type()
		}
	}
	w.orderer.UpdateCaptureHistory(attackerPiece, move.To(), capturedType, depth, isGood)
}

// quiescence searches captures to avoid horizon effect.
func (w *Searcher) quiescence(ply int, alpha, beta int) int {
	return w.quiescenceInternal(ply, 0, alpha, beta)
}

// quiescenceInternal is the internal quiescence search with qPly tracking.
func (w *Searcher) quiescenceInternal(ply, qPly int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || qPly > maxQuiescencePly {
		return w.evaluate()
	}
	if ply > w.selDepth {
		w.selDepth = ply
	}

	if w.stopFlag.Load() {
		return 0
	}

	w.nodes++
	originalAlpha := alpha

	var ttMove board.Move
	ttEntry, ttHit := w.tt.Probe(w.pos.Hash)
	if ttHit {
		ttMove = ttEntry.BestMove
		if ttMove != board.NoMove && !w.pos.PseudoLegal(ttMove) {
			ttMove = board.NoMove
		}
		if ttEntry.Depth >= 0 {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	inCheck := w.pos.InCheck()

	var standPat, bestValue int
	var bestMove board.Move

	if inCheck {
		bestValue = -MateScore + ply
		standPat = bestValue
	} else {
		lazyEval := EvaluateMaterial(w.pos)
		if lazyEval-lazyEvalMargin >= beta {
			return beta
		}
		if lazyEval+lazyEvalMargin <= alpha {
			return alpha
		}

		standPat = w.evaluate()
		bestValue = standPat

		if standPat >= beta {
			w.tt.Store(w.pos.Hash, 0, AdjustScoreToTT(standPat, ply), TTLowerBound, board.NoMove, false)
			return beta
		}

		if standPat > alpha {
			alpha = standPat
		}

		if standPat+QueenValue < alpha {
			return alpha
		}
	}

	var moves *board.MoveList
	if inCheck {
		moves = w.pos.GenerateLegalMoves()
	} else {
		moves = w.pos.GenerateCaptures()
	}

	scores := w.orderer.ScoreMoves(w.pos, moves, ply, ttMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if !inCheck && move.IsCapture() {
			captureValue := qsCaptureValue(w.pos, move)
			futilityBase := standPat + 351

			if standPat+captureValue+200 < alpha && !move.IsPromotion() {
				if captureValue+futilityBase > bestValue {
					bestValue = captureValue + futilityBase
				}
				continue
			}

			seeValue := SEE(w.pos, move)
			if seeValue < 0 {
				continue
			}

			if futilityBase+seeValue <= alpha {
				if futilityBase > bestValue {
					bestValue = futilityBase
				}
				continue
			}
		}

		undo := w.pos.MakeMove(move)
		if !undo.Valid {
			w.pos.UnmakeMove(move, undo)
			continue
		}

		score := -w.quiescenceInternal(ply+1, qPly+1, -beta, -alpha)
		w.pos.UnmakeMove(move, undo)

		if score > bestValue {
			bestValue = score
			bestMove = move

			if score > alpha {
				alpha = score
				if score >= beta {
					break
				}
			}
		}
	}

	if inCheck && bestValue == -MateScore+ply {
		return -MateScore + ply
	}

	var ttFlag TTFlag
	if bestValue >= beta {
		ttFlag = TTLowerBound
	} else if bestValue > originalAlpha {
		ttFlag = TTExact
	} else {
		ttFlag = TTUpperBound
	}
	w.tt.Store(w.pos.Hash, 0, AdjustScoreToTT(bestValue, ply), ttFlag, bestMove, false)

	return bestValue
}

// qsCaptureValue returns the material value of a capture for QS pruning.
func qsCaptureValue(pos *board.Position, move board.Move) int {
	var value int
	if move.IsEnPassant() {
		value = PawnValue
	} else {
		captured := pos.PieceAt(move.To())
		if captured != board.NoPiece {
			value = pieceValues[captured.Type()]
		}
	}
	if move.IsPromotion() {
		value += pieceValues[move.Promotion()] - PawnValue
	}
	return value
}

// detectSeriousThreats checks if the opponent has serious threats against
// our pieces: a valuable piece hanging outright, or a queen or rook
// attacked by something cheaper.
func (w *Searcher) detectSeriousThreats() bool {
	pos := w.pos
	us := pos.SideToMove
	them := us.Other()
	occupied := pos.AllOccupied

	var byType [6]board.Bitboard
	for pt := board.Pawn; pt <= board.Queen; pt++ {
		byType[pt] = pieceAttacksBB(pos, them, pt, occupied)
	}
	enemyAttacks := byType[board.Pawn] | byType[board.Knight] | byType[board.Bishop] |
		byType[board.Rook] | byType[board.Queen]

	ourDefenses := sideAttacksBB(pos, us, occupied)
	ourPieces := pos.Occupied[us] &^ board.SquareBB(pos.KingSquare[us])

	for hanging := ourPieces & enemyAttacks &^ ourDefenses; hanging != 0; {
		sq := hanging.PopLSB()
		if piece := pos.PieceAt(sq); piece != board.NoPiece &&
			pieceValues[piece.Type()] >= threatExtensionThreshold {
			return true
		}
	}

	cheaperThanQueen := byType[board.Pawn] | byType[board.Knight] | byType[board.Bishop] | byType[board.Rook]
	if pos.Pieces[us][board.Queen]&cheaperThanQueen != 0 {
		return true
	}

	cheaperThanRook := byType[board.Pawn] | byType[board.Knight] | byType[board.Bishop]
	return pos.Pieces[us][board.Rook]&cheaperThanRook != 0
}

// updateContinuationHistories updates the 1-ply and 2-ply continuation
// history tables.
func (w *Searcher) updateContinuationHistories(ply int, piece board.Piece, toSq board.Square, depth int, isGood bool) {
	if ply >= 1 {
		ss := &w.searchStack[ply-1]
		if ss.currentMove != board.NoMove {
			UpdateContinuationHistory(ss.continuationHistory1, piece, toSq, depth, isGood)
		}
	}
	if ply >= 2 {
		ss := &w.searchStack[ply-2]
		if ss.currentMove != board.NoMove {
			UpdateContinuationHistory(ss.continuationHistory2, piece, toSq, depth, isGood)
		}
	}
}
