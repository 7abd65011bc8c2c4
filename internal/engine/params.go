package engine

// Search enhancement toggles and tuning constants. Each whole-node or
// move-loop pruning technique the negamax core applies gets one Enable
// flag here so a single location documents which heuristics are live.
const (
	EnableRFP             = true // Reverse futility pruning
	EnableRazoring        = true
	EnableNMP             = true // Null-move pruning
	EnableProbcut         = true
	EnableMulticut        = true
	EnableFutilityPruning = true // Futility pruning on quiet moves
	EnableSEEPruning      = true // SEE-based capture pruning
	EnableLMP             = true // Late move pruning (move-count based)
	EnableHistoryPruning  = true
	EnableSingularExt     = true // Singular extensions
	EnableThreatExt       = true // Extend when opponent has serious threats
	EnableHindsightDepth  = true // Adjust depth based on the parent's LMR
)

const (
	probcutDepth  = 5
	multicutDepth = 6
	multicutMoves = 6
	// multicutRequired is the number of cutting moves among multicutMoves
	// sampled that proves the node would fail high regardless of which
	// move is searched to full depth.
	multicutRequired = 3
)

// nmpVerifyDepth is the depth from which a null-move fail-high is no
// longer trusted on its own: at or above it, a reduced null-less search
// of the real position must confirm the cutoff, guarding the deep
// endgame lines where zugzwang makes the free-move assumption wrong.
const nmpVerifyDepth = 10

// threatExtensionMinDepth gates detectSeriousThreats() behind a depth floor
// so the extra attack-map computation only runs where it can still change
// the outcome of an already-deep line.
const threatExtensionMinDepth = 5

// threatExtensionThreshold is the minimum piece value (see pieceValues) a
// hanging piece must have before its threat counts as "serious".
const threatExtensionThreshold = BishopValue

// lmpThreshold[depth] bounds how many quiet moves get searched at or below
// that depth before late move pruning skips the rest. Index 0 is unused;
// depths beyond the table length fall outside the depth <= 7 gate and are
// never move-count pruned.
var lmpThreshold = [8]int{0, 5, 8, 13, 20, 29, 40, 53}

// historyPruningThreshold is the butterfly-history floor below which a
// late quiet move is skipped outright at shallow depth.
const historyPruningThreshold = -2048

// lazyEvalMargin bounds the cheap material-only quiescence pre-check
// (EvaluateMaterial) before falling back to the full tapered Evaluate.
const lazyEvalMargin = 800

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
