package board

import "testing"

// perftNodes counts leaf positions reached after exactly depth plies
// of fully legal play from p, the standard way to cross-check a move
// generator: any bug in special-move handling (castling rights,
// promotion, en passant, pins) shows up as a wrong node count at some
// depth even though individual moves look plausible in isolation.
func perftNodes(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}
	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return int64(moves.Len())
	}
	var nodes int64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := p.MakeMove(m)
		nodes += perftNodes(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

type perftCase struct {
	depth int
	nodes int64
	// long marks a case expensive enough (tens of millions of leaf
	// nodes or more) that it's only worth running outside -short.
	long bool
}

func runPerftSuite(t *testing.T, fen string, cases []perftCase) {
	t.Helper()
	pos := NewPosition()
	if fen != "" {
		var err error
		pos, err = ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
	}

	for _, tc := range cases {
		tc := tc
		t.Run("", func(t *testing.T) {
			if tc.long && testing.Short() {
				t.Skipf("skipping depth %d (%d nodes) in -short mode", tc.depth, tc.nodes)
			}
			if got := perftNodes(pos, tc.depth); got != tc.nodes {
				t.Errorf("perft(depth=%d) = %d, want %d", tc.depth, got, tc.nodes)
			}
		})
	}
}

// TestPerftStartingPosition walks the standard position to depth 6,
// the deepest case this module asserts on; https://www.chessprogramming.org/Perft_Results
// is the canonical source for these counts.
func TestPerftStartingPosition(t *testing.T) {
	runPerftSuite(t, "", []perftCase{
		{depth: 1, nodes: 20},
		{depth: 2, nodes: 400},
		{depth: 3, nodes: 8902},
		{depth: 4, nodes: 197281},
		{depth: 5, nodes: 4865609, long: true},
		{depth: 6, nodes: 119060324, long: true},
	})
}

// TestPerftKiwipete exercises the "Kiwipete" position, which packs
// castling (both sides, both directions), promotions and en passant
// into one middlegame-like position rather than the quiet starting
// array.
func TestPerftKiwipete(t *testing.T) {
	const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	runPerftSuite(t, kiwipete, []perftCase{
		{depth: 1, nodes: 48},
		{depth: 2, nodes: 2039},
		{depth: 3, nodes: 97862},
		{depth: 4, nodes: 4085603},
		{depth: 5, nodes: 193690690, long: true},
	})
}

// TestPerftPosition3 is the CPW "position 3" endgame, chosen for its
// dense concentration of en passant opportunities and discovered
// checks along open files.
func TestPerftPosition3(t *testing.T) {
	const position3 = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	runPerftSuite(t, position3, []perftCase{
		{depth: 1, nodes: 14},
		{depth: 2, nodes: 191},
		{depth: 3, nodes: 2812},
		{depth: 4, nodes: 43238},
		{depth: 5, nodes: 674624, long: true},
		{depth: 6, nodes: 11030083, long: true},
	})
}

// TestPerftEnPassantPin covers a case general perft counts can pass
// by accident: a black pawn capturing en passant would remove the
// only blocker between its own king and a rook on the same rank, so
// the capture must be filtered out as leaving the king in check even
// though it isn't a king move.
func TestPerftEnPassantPin(t *testing.T) {
	const fen = "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1"
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); m.IsEnPassant() {
			t.Errorf("en passant move %v should be illegal: it exposes the king pinned along rank 4", m)
		}
	}

	runPerftSuite(t, fen, []perftCase{
		{depth: 1, nodes: 6},
		{depth: 2, nodes: 94},
	})
}
