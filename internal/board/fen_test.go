package board

import "testing"

// TestFENRoundTrip parses a FEN, formats it back, and requires the exact
// input string: any field the parser drops or the formatter rewrites
// differently shows up as a diff here.
func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"8/8/8/4k3/8/4K3/4P3/8 w - - 12 47",
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Errorf("ParseFEN(%q): %v", fen, err)
			continue
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("round trip mismatch:\n in: %s\nout: %s", fen, got)
		}
	}
}

// TestFENRoundTripAfterMoves checks the round trip on positions reached
// by play rather than parsed directly, so the incrementally-maintained
// fields (castling rights, en passant, clocks) feed the formatter.
func TestFENRoundTripAfterMoves(t *testing.T) {
	pos := NewPosition()
	for _, mstr := range []string{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4"} {
		mv, err := ParseMove(mstr, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", mstr, err)
		}
		pos.MakeMove(mv)

		fen := pos.ToFEN()
		reparsed, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q) after %s: %v", fen, mstr, err)
		}
		if reparsed.Hash != pos.Hash {
			t.Errorf("after %s: reparsed hash %x != live hash %x (fen %q)", mstr, reparsed.Hash, pos.Hash, fen)
		}
		if got := reparsed.ToFEN(); got != fen {
			t.Errorf("after %s: second round trip mismatch:\n in: %s\nout: %s", mstr, fen, got)
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",   // 7 ranks
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1", // bad side
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KZkq - 0 1", // bad castling
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9 0 1", // bad ep square
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",  // rank overflow
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); err == nil {
			t.Errorf("ParseFEN(%q): expected error, got nil", fen)
		}
	}
}

// TestParseFENCheckers verifies that a position parsed mid-check reports
// InCheck immediately, without waiting for a move to refresh Checkers.
func TestParseFENCheckers(t *testing.T) {
	pos, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !pos.InCheck() {
		t.Error("expected white to be in check from the queen on h4")
	}
	if !pos.IsCheckmate() {
		t.Error("expected checkmate (fool's mate)")
	}
}
