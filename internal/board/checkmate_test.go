package board

import "testing"

// TestEndgamePositions exercises IsCheckmate/IsStalemate against hand-picked
// rook and queen endgames where the verdict depends on
// GenerateLegalMoves correctly excluding king moves that walk back
// into an attacked square.
func TestEndgamePositions(t *testing.T) {
	cases := []struct {
		name      string
		fen       string
		checkmate bool
		stalemate bool
	}{
		{
			name:      "back rank mate, pawns seal the escape",
			fen:       "R6k/6pp/8/8/8/8/8/K7 b - - 0 1",
			checkmate: true,
		},
		{
			name:      "king captures the checking rook",
			fen:       "6Rk/8/8/8/8/8/8/K7 b - - 0 1",
			checkmate: false,
		},
		{
			name:      "classic stalemate, black has no legal move but isn't in check",
			fen:       "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
			stalemate: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
			}

			legal := pos.GenerateLegalMoves()
			if got := pos.HasLegalMoves(); got != (legal.Len() > 0) {
				t.Errorf("HasLegalMoves() = %v but GenerateLegalMoves returned %d moves", got, legal.Len())
			}

			if got := pos.IsCheckmate(); got != tc.checkmate {
				t.Errorf("IsCheckmate() = %v, want %v (checkers=%v, legal moves=%d)",
					got, tc.checkmate, pos.Checkers, legal.Len())
			}
			if got := pos.IsStalemate(); got != tc.stalemate {
				t.Errorf("IsStalemate() = %v, want %v (checkers=%v, legal moves=%d)",
					got, tc.stalemate, pos.Checkers, legal.Len())
			}
		})
	}
}
