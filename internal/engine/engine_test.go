package engine

import (
	"testing"
	"time"

	"github.com/corvidchess/corvid/internal/board"
)

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 4, MoveTime: 2 * time.Second})
	if move == board.NoMove {
		t.Error("Search returned NoMove for starting position")
	}
	t.Logf("Best move: %s", move.String())
}

// TestSearchDeterminism checks that the same FEN and depth return the
// same bestmove and score across independent searches; the core is
// single-threaded with no randomness in its heuristics.
func TestSearchDeterminism(t *testing.T) {
	const fen = board.StartFEN

	var moves [2]board.Move
	var scores [2]int
	for i := 0; i < 2; i++ {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		eng := NewEngine(16)
		eng.OnInfo = func(info SearchInfo) {
			scores[i] = info.Score
		}
		moves[i] = eng.SearchWithLimits(pos, SearchLimits{Depth: 6, MoveTime: 5 * time.Second})
	}

	if moves[0] != moves[1] {
		t.Errorf("search is not deterministic: run1=%s run2=%s", moves[0].String(), moves[1].String())
	}
	if scores[0] != scores[1] {
		t.Errorf("search score is not deterministic: run1=%d run2=%d", scores[0], scores[1])
	}
}

func TestSearchMultiplePositions(t *testing.T) {
	eng := NewEngine(16)

	positions := []string{
		board.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3", // Italian Game
		"8/8/8/4k3/8/4K3/4P3/8 w - - 0 1",                                  // KP endgame
	}

	for i, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("Failed to parse position %d: %v", i, err)
		}

		move := eng.SearchWithLimits(pos, SearchLimits{Depth: 5, MoveTime: 300 * time.Millisecond})
		if move == board.NoMove {
			if !pos.InCheck() || pos.GenerateLegalMoves().Len() > 0 {
				t.Errorf("Position %d: Search returned NoMove", i)
			}
		} else {
			t.Logf("Position %d: best move = %s", i, move.String())
		}
	}
}

// TestMateDetection runs a shallow search on a position with a forced
// short mate and checks the engine doesn't blunder it away.
func TestMateDetection(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	eng := NewEngine(16)
	move := eng.SearchWithLimits(pos, SearchLimits{Depth: 3, MoveTime: 5 * time.Second})
	if move == board.NoMove {
		t.Fatal("expected a move, got NoMove")
	}

	undo := pos.MakeMove(move)
	mated := pos.IsCheckmate()
	pos.UnmakeMove(move, undo)
	if !mated {
		t.Errorf("expected the mating move a1a8, got %s", move)
	}
}

func TestPawnHashTable(t *testing.T) {
	pt := NewPawnTable(1) // 1MB

	pos := board.NewPosition()

	_, _, found := pt.Probe(pos.PawnKey)
	if found {
		t.Error("Expected cache miss on first probe")
	}

	pt.Store(pos.PawnKey, -15, -20)

	mg, eg, found := pt.Probe(pos.PawnKey)
	if !found {
		t.Error("Expected cache hit after store")
	}
	if mg != -15 || eg != -20 {
		t.Errorf("Wrong values: got mg=%d, eg=%d, want -15, -20", mg, eg)
	}

	oldKey := pos.PawnKey
	move := board.NewMove(board.E2, board.E4)
	undo := pos.MakeMove(move)
	if pos.PawnKey == oldKey {
		t.Error("PawnKey should change when pawn moves")
	}

	pos.UnmakeMove(move, undo)
	if pos.PawnKey != oldKey {
		t.Error("PawnKey should be restored on unmake")
	}
}

func TestHistoryGravityBounds(t *testing.T) {
	mo := NewMoveOrderer()
	m := board.NewMove(board.E2, board.E4)

	for i := 0; i < 10000; i++ {
		mo.UpdateHistory(m, 20, i%2 == 0)
		v := mo.GetHistoryScore(m)
		if v > historyMax || v < -historyMax {
			t.Fatalf("history value %d escaped bounds [-%d, %d]", v, historyMax, historyMax)
		}
	}
}

func TestTranspositionTableInvariant(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0xDEADBEEFCAFEBABE)
	mv := board.NewMove(board.E2, board.E4)

	tt.Store(hash, 10, 55, TTExact, mv, true)
	entry, found := tt.Probe(hash)
	if !found {
		t.Fatal("expected probe to find the just-inserted entry")
	}
	if entry.Hash != hash || entry.BestMove != mv {
		t.Errorf("round-tripped entry mismatch: got hash=%x move=%s", entry.Hash, entry.BestMove)
	}
}

func TestRepetitionDraw(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	hashes := []uint64{pos.Hash}
	moves := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}
	for _, mstr := range moves {
		mv, err := board.ParseMove(mstr, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", mstr, err)
		}
		pos.MakeMove(mv)
		hashes = append(hashes, pos.Hash)
	}

	eng.SetPositionHistory(hashes)
	var reportedScore int
	eng.OnInfo = func(info SearchInfo) {
		reportedScore = info.Score
	}
	eng.SearchWithLimits(pos, SearchLimits{Depth: 4, MoveTime: 2 * time.Second})

	if reportedScore != 0 {
		t.Errorf("expected cp 0 from a threefold-repeated position, got %d", reportedScore)
	}
}
