package engine

import (
	"time"

	"github.com/corvidchess/corvid/internal/board"
)

// UCILimits mirrors the subset of the UCI "go" command's parameters
// that affect how long a search is allowed to run.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime: remaining clock for each color
	Inc       [2]time.Duration // winc, binc: increment awarded per move made
	MovesToGo int              // moves left until the next time control, 0 = sudden death
	MoveTime  time.Duration    // movetime: fixed budget for this move, overrides everything else
	Depth     int              // depth: search depth cap
	Nodes     uint64           // node-count cap
	Infinite  bool             // search until "stop", ignoring the clock
	Ponder    bool
}

// TimeManager converts one "go" command's limits into a concrete
// optimum/maximum budget for the current move, and tracks how much of
// that budget iterative deepening has spent so far.
type TimeManager struct {
	target  time.Duration // time we'd like to stop around, absent instability
	ceiling time.Duration // hard cap that ShouldStop enforces regardless of target
	started time.Time
}

// NewTimeManager returns a manager with no budget set; call Init
// before using it for a search.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the optimum/maximum budget for one move and starts the
// clock. us is the side about to move, ply the current game ply — both
// feed the sudden-death moves-to-go estimate when the GUI doesn't
// supply one.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.started = time.Now()

	if limits.MoveTime > 0 {
		tm.target = limits.MoveTime
		tm.ceiling = limits.MoveTime
		return
	}

	if limits.Infinite || limits.Time[us] == 0 {
		tm.target = time.Hour
		tm.ceiling = time.Hour
		return
	}

	remaining := limits.Time[us]
	inc := limits.Inc[us]
	mtg := movesToGo(limits.MovesToGo, ply)

	target := remaining/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		// Early moves are usually still in book-like territory for a
		// human opponent; hold a little time in reserve rather than
		// spending the full per-move share immediately.
		target = target * 85 / 100
	}

	tm.target = clampDuration(target, 10*time.Millisecond, remaining)
	tm.ceiling = clampDuration(movesCeiling(tm.target, remaining), 50*time.Millisecond, remaining)
}

// movesToGo estimates how many moves remain until a sudden-death clock
// effectively resets, when the GUI doesn't supply an explicit count.
// The estimate shrinks as the game goes on (ply/4) since fewer moves
// typically remain the deeper a game is, bounded to a sane range.
func movesToGo(explicit, ply int) int {
	if explicit > 0 {
		return explicit
	}
	mtg := 50 - ply/4
	switch {
	case mtg < 10:
		return 10
	case mtg > 50:
		return 50
	default:
		return mtg
	}
}

// movesCeiling picks the maximum time allowed for this move: 5x the
// target, or 80% of whatever's left, whichever is smaller — so a
// single move can search longer than its "fair share" when the
// position demands it, without ever risking the clock.
func movesCeiling(target, remaining time.Duration) time.Duration {
	fromTarget := target * 5
	fromRemaining := remaining * 8 / 10
	if fromTarget < fromRemaining {
		return fromTarget
	}
	return fromRemaining
}

// clampDuration bounds d to [min, 95% of remaining], never below min.
func clampDuration(d, min, remaining time.Duration) time.Duration {
	if safety := remaining * 95 / 100; d > safety {
		d = safety
	}
	if d < min {
		d = min
	}
	return d
}

// Elapsed reports how long the current search has been running.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.started)
}

// OptimumTime is the budget iterative deepening should try to respect
// between depth increments.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.target
}

// MaximumTime is the hard budget ShouldStop enforces.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.ceiling
}

// ShouldStop reports whether the hard time ceiling has been reached.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.ceiling
}

// PastOptimum reports whether the soft target has been reached; the
// search loop uses this to decide whether starting another iteration
// is still worthwhile.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.target
}

// stabilityFactor scales down the optimum target when the root best
// move has held for several consecutive iterations in a row — a
// stable PV rarely improves enough to justify searching it longer.
var stabilityFactor = []struct {
	minStreak int
	percent   int64
}{
	{6, 40},
	{4, 60},
	{2, 80},
}

// AdjustForStability shrinks the optimum target once the best move
// has stayed the same for stability consecutive root iterations.
func (tm *TimeManager) AdjustForStability(stability int) {
	for _, f := range stabilityFactor {
		if stability >= f.minStreak {
			tm.target = tm.target * time.Duration(f.percent) / 100
			return
		}
	}
}

// AdjustForInstability grows the optimum target, capped at the hard
// ceiling, when the root best move has been changing between recent
// iterations — the position likely needs more time to settle.
func (tm *TimeManager) AdjustForInstability(changes int) {
	percent := int64(100)
	switch {
	case changes >= 4:
		percent = 200
	case changes >= 2:
		percent = 150
	}
	if grown := tm.target * time.Duration(percent) / 100; grown <= tm.ceiling {
		tm.target = grown
	} else {
		tm.target = tm.ceiling
	}
}
