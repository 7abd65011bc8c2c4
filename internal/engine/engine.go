package engine

import (
	"sync/atomic"
	"time"

	"github.com/corvidchess/corvid/internal/board"
)

// SearchInfo contains information about the current search, reported to
// the UCI layer after every completed iteration.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
}

// aspirationBaseWindow and aspirationMaxWindow bound the aspiration-window
// re-search loop. Widening by doubling from base to max takes at most
// log2(max/base)+2 re-searches before the window opens fully.
const (
	aspirationBaseWindow = 12
	aspirationMinDepth   = 5
	aspirationMaxWindow  = 1536
)

// Engine drives iterative deepening over a single Searcher: one search
// instance per OS thread, polling one shared atomic abort flag that only
// Stop sets. Time and node limits are checked between iterations only; an
// iteration already under way is not interrupted when they run out.
type Engine struct {
	searcher  *Searcher
	tt        *TranspositionTable
	pawnTable *PawnTable
	stopFlag  atomic.Bool

	seldepth int

	// Position history for repetition detection, supplied by the UCI
	// layer from the "position ... moves ..." command.
	rootPosHashes []uint64

	// OnInfo is invoked after every completed iteration.
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table
// size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	pawnTable := NewPawnTable(4)

	e := &Engine{
		tt:        tt,
		pawnTable: pawnTable,
	}
	e.searcher = NewSearcher(tt, pawnTable)
	return e
}

// ResizeHash replaces the transposition table with one of the given size,
// discarding prior search data.
func (e *Engine) ResizeHash(sizeMB int) {
	log.Debugf("resizing transposition table to %d MB", sizeMB)
	e.tt = NewTranspositionTable(sizeMB)
	e.searcher.tt = e.tt
}

// SetPositionHistory sets the position history for repetition detection.
// Must be called before Search()/SearchWithUCILimits() with hashes from
// the game's move history.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = make([]uint64, len(hashes))
	copy(e.rootPosHashes, hashes)
	e.searcher.SetRootHistory(hashes)
}

// Stop requests the current search to unwind at its next poll point.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear resets the transposition table and all history tables, as done
// between games ("ucinewgame").
func (e *Engine) Clear() {
	e.tt.Clear()
	e.pawnTable.Clear()
	e.searcher.ClearAll()
}

// Perft counts leaf nodes at the given depth, a move-generation debugging
// aid outside the UCI protocol proper.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}
	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// Search finds the best move for the given position under a fixed depth,
// using the wall-clock-unbounded default limits.
func (e *Engine) Search(pos *board.Position) board.Move {
	return e.SearchWithLimits(pos, SearchLimits{Depth: 6})
}

// SearchWithLimits drives iterative deepening to satisfy plain depth/
// node/movetime limits, independent of UCI's wtime/btime controls.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	var deadline time.Time
	start := time.Now()
	if limits.MoveTime > 0 {
		deadline = start.Add(limits.MoveTime)
	}

	maxDepth := MaxPly
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	shouldStop := func() bool {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return true
		}
		if limits.Nodes > 0 && e.searcher.Nodes() >= limits.Nodes {
			return true
		}
		return false
	}

	move, _ := e.iterativeDeepen(pos, maxDepth, start, shouldStop)
	return move
}

// SearchWithUCILimits drives iterative deepening under UCI time controls
// (wtime/btime/winc/binc/movestogo), delegating budget allocation to the
// TimeManager.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	maxDepth := MaxPly
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}
	if limits.Infinite {
		maxDepth = MaxPly
	}

	start := time.Now()
	shouldStop := func() bool {
		if tm.ShouldStop() {
			return true
		}
		if limits.Nodes > 0 && e.searcher.Nodes() >= limits.Nodes {
			return true
		}
		return false
	}

	move, _ := e.iterativeDeepenTimed(pos, maxDepth, start, shouldStop, tm, limits.Infinite)
	return move
}

// iterativeDeepen runs the root driver without move-stability based early
// stopping, for depth/movetime/node-limited searches.
func (e *Engine) iterativeDeepen(pos *board.Position, maxDepth int, start time.Time, shouldStop func() bool) (board.Move, int) {
	return e.iterativeDeepenTimed(pos, maxDepth, start, shouldStop, nil, false)
}

// iterativeDeepenTimed is the shared root driver for both entry points.
// tm, when non-nil, additionally drives stability-based early stopping
// between iterations.
func (e *Engine) iterativeDeepenTimed(pos *board.Position, maxDepth int, start time.Time, shouldStop func() bool, tm *TimeManager, infinite bool) (board.Move, int) {
	e.stopFlag.Store(false)
	e.tt.NewSearch()
	e.searcher.Reset()
	e.searcher.stopFlag = &e.stopFlag
	e.searcher.InitSearch(pos)

	// The game may already be drawn where we stand (third occurrence of
	// this position, 50-move rule, or bare kings). A move still has to be
	// produced, but the reported score is 0.
	rootDraw := e.rootIsDraw(pos)

	var bestMove board.Move
	var bestScore int
	var bestPV []board.Move

	var lastBestMove board.Move
	stability := 0

	score := 0
	for depth := 1; depth <= maxDepth; depth++ {
		if e.stopFlag.Load() || shouldStop() {
			break
		}

		e.searcher.UpdateOptimism()
		move, s := e.aspirationSearch(depth, score)

		if e.stopFlag.Load() {
			break
		}
		if shouldStop() && depth > 1 {
			// The limit ran out while this iteration was searching; its
			// result is not used and the previous iteration's move stands.
			break
		}

		score = s
		e.searcher.UpdateAvgScore(score)

		if move != board.NoMove {
			bestMove = move
			bestScore = score
			if rootDraw {
				bestScore = 0
			}
			bestPV = e.searcher.GetPV()

			if move == lastBestMove {
				stability++
			} else {
				stability = 0
			}
			lastBestMove = move
		}

		e.seldepth = e.searcher.SelDepth()
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				SelDepth: e.seldepth,
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(start),
				PV:       bestPV,
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > MateScore-100 || bestScore < -MateScore+100 {
			break
		}

		if tm != nil && !infinite {
			tm.AdjustForStability(stability)
			if tm.PastOptimum() && stability >= 4 {
				break
			}
		}
	}

	if bestMove == board.NoMove {
		if moves := pos.GenerateLegalMoves(); moves.Len() > 0 {
			bestMove = moves.Get(0)
		}
	}

	return bestMove, bestScore
}

// rootIsDraw reports whether the game is drawn at the root itself: the
// current position's third occurrence in the game history, the 50-move
// rule, or insufficient material. Repetitions below the root are handled
// inside negamax; the root never checks itself there because it still has
// to produce a move.
func (e *Engine) rootIsDraw(pos *board.Position) bool {
	if pos.HalfMoveClock >= 100 || pos.IsInsufficientMaterial() {
		return true
	}
	count := 0
	for _, h := range e.rootPosHashes {
		if h == pos.Hash {
			count++
		}
	}
	return count >= 3
}

// aspirationSearch searches a narrow window around the previous
// iteration's score, doubling and re-searching on fail-high/fail-low until
// the result lands inside the window or the window has opened to
// (-inf, +inf). A fail-high re-searches one ply shallower (the refutation
// is cheap to confirm); a fail-low re-searches at full depth before a
// lower score is trusted.
func (e *Engine) aspirationSearch(depth, guess int) (board.Move, int) {
	if depth < aspirationMinDepth {
		return e.searcher.SearchDepth(depth, -Infinity, Infinity)
	}

	window := aspirationBaseWindow
	alpha := guess - window
	beta := guess + window
	searchDepth := depth
	e.searcher.rootDelta = beta - alpha

	var move board.Move
	var score int
	for {
		if alpha < -Infinity {
			alpha = -Infinity
		}
		if beta > Infinity {
			beta = Infinity
		}

		move, score = e.searcher.SearchDepth(searchDepth, alpha, beta)

		if e.stopFlag.Load() {
			return move, score
		}

		if score <= alpha {
			log.Debugf("aspiration fail-low at depth %d: score=%d alpha=%d, widening", depth, score, alpha)
			beta = (alpha + beta) / 2
			alpha = score - window
			searchDepth = depth
		} else if score >= beta {
			log.Debugf("aspiration fail-high at depth %d: score=%d beta=%d, widening", depth, score, beta)
			beta = score + window
			if searchDepth > 1 {
				searchDepth--
			}
		} else {
			return move, score
		}

		window *= 2
		e.searcher.rootDelta = beta - alpha
		if window > aspirationMaxWindow {
			alpha, beta = -Infinity, Infinity
		}
	}
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
