package board

import "testing"

// checkBitboardAgreement rebuilds the occupancy boards from the piece
// bitboards and verifies the incrementally-maintained copies match, and
// that no square is claimed by two piece bitboards at once.
func checkBitboardAgreement(t *testing.T, p *Position, context string) {
	t.Helper()

	var occ [2]Bitboard
	var all Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			if bb&all != 0 {
				t.Errorf("%s: piece bitboards overlap at %v", context, bb&all)
			}
			occ[c] |= bb
			all |= bb
		}
	}

	if occ[White] != p.Occupied[White] || occ[Black] != p.Occupied[Black] {
		t.Errorf("%s: Occupied out of sync with Pieces", context)
	}
	if all != p.AllOccupied {
		t.Errorf("%s: AllOccupied out of sync with Pieces", context)
	}
	if p.Pieces[White][King] != SquareBB(p.KingSquare[White]) ||
		p.Pieces[Black][King] != SquareBB(p.KingSquare[Black]) {
		t.Errorf("%s: KingSquare out of sync with king bitboards", context)
	}
}

// TestMakeUnmakeSoundness plays every legal move in a set of positions
// and checks, after each MakeMove, that the bitboards still agree with
// each other and that the incrementally-updated Zobrist keys match a
// from-scratch recomputation; after UnmakeMove the position must be
// byte-for-byte what it was.
func TestMakeUnmakeSoundness(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1pppp/8/8/3pP3/5N2/PPPP1PPP/RNBQKB1R b KQkq e3 0 3",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		before := *pos

		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)

			undo := pos.MakeMove(m)
			if !undo.Valid {
				t.Errorf("%s: MakeMove(%s) rejected a legal move", fen, m)
				continue
			}

			checkBitboardAgreement(t, pos, fen+" after "+m.String())
			if got := pos.ComputeHash(); got != pos.Hash {
				t.Errorf("%s after %s: incremental hash %x != recomputed %x", fen, m, pos.Hash, got)
			}
			if got := pos.ComputePawnKey(); got != pos.PawnKey {
				t.Errorf("%s after %s: incremental pawn key %x != recomputed %x", fen, m, pos.PawnKey, got)
			}

			pos.UnmakeMove(m, undo)
			if *pos != before {
				t.Errorf("%s: position not restored after make/unmake of %s", fen, m)
			}
		}
	}
}

// TestNullMoveRoundTrip checks the null-move pair restores the position
// exactly, including the en passant square it has to clear.
func TestNullMoveRoundTrip(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/8/3pP3/5N2/PPPP1PPP/RNBQKB1R b KQkq e3 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := *pos

	undo := pos.MakeNullMove()
	if pos.SideToMove != before.SideToMove.Other() {
		t.Error("null move did not flip side to move")
	}
	if pos.EnPassant != NoSquare {
		t.Error("null move did not clear the en passant square")
	}
	if got := pos.ComputeHash(); got != pos.Hash {
		t.Errorf("after null move: incremental hash %x != recomputed %x", pos.Hash, got)
	}

	pos.UnmakeNullMove(undo)
	if *pos != before {
		t.Error("position not restored after null make/unmake")
	}
}

// TestMoveEncoding verifies the packed representation survives a trip
// through its accessors for every flag class the generator emits.
func TestMoveEncoding(t *testing.T) {
	cases := []struct {
		m        Move
		from, to Square
		str      string
	}{
		{NewMove(E2, E3), E2, E3, "e2e3"},
		{NewDoublePush(E2, E4), E2, E4, "e2e4"},
		{NewCapture(D4, E5), D4, E5, "d4e5"},
		{NewKingCastle(E1, G1), E1, G1, "e1g1"},
		{NewQueenCastle(E8, C8), E8, C8, "e8c8"},
		{NewEnPassant(E5, D6), E5, D6, "e5d6"},
		{NewPromotion(E7, E8, Queen, false), E7, E8, "e7e8q"},
		{NewPromotion(A2, B1, Knight, true), A2, B1, "a2b1n"},
	}

	for _, tc := range cases {
		if tc.m.From() != tc.from || tc.m.To() != tc.to {
			t.Errorf("%s: from/to decoded as %s%s", tc.str, tc.m.From(), tc.m.To())
		}
		if got := tc.m.String(); got != tc.str {
			t.Errorf("String() = %q, want %q", got, tc.str)
		}
	}

	if !NewPromotion(A2, B1, Knight, true).IsCapture() {
		t.Error("promotion capture not reported as capture")
	}
	if NewPromotion(E7, E8, Queen, false).IsCapture() {
		t.Error("quiet promotion reported as capture")
	}
	if got := NewPromotion(E7, E8, Rook, false).Promotion(); got != Rook {
		t.Errorf("Promotion() = %v, want rook", got)
	}
	if !NewEnPassant(E5, D6).IsCapture() {
		t.Error("en passant not reported as capture")
	}
	if NoMove.String() != "0000" {
		t.Errorf("NoMove.String() = %q, want 0000", NoMove.String())
	}
}
