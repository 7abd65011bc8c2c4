// Package board implements chess board representation using bitboards.
package board

import "fmt"

// Square identifies one of the 64 board squares using Little-Endian
// Rank-File Mapping: a1 is 0, h1 is 7, a8 is 56, h8 is 63. The file
// occupies the low 3 bits, the rank the next 3.
type Square uint8

// NoSquare is an out-of-range sentinel used for "no en passant target"
// and similar absent-square cases, rather than a pointer/bool pair.
const NoSquare Square = 64

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

// NewSquare builds a square from a 0-indexed file and rank
// (a=0..h=7, 1st rank=0..8th rank=7).
func NewSquare(file, rank int) Square {
	return Square(rank<<3 | file)
}

// File reports the square's file: 0 for the a-file through 7 for h.
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank reports the square's rank: 0 for the 1st rank through 7 for the 8th.
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// IsValid reports whether sq names one of the 64 real squares, as
// opposed to NoSquare or another out-of-range value.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Mirror flips a square across the board's horizontal midline, e.g.
// e1 becomes e8. Used to reuse one side's tables for the other.
func (sq Square) Mirror() Square {
	return sq ^ 56
}

// RelativeRank reorients Rank so 0 is always the side's own back rank
// and 7 the far rank, letting pawn-advance and passed-pawn logic stay
// color-agnostic.
func (sq Square) RelativeRank(c Color) int {
	if c == Black {
		return 7 - sq.Rank()
	}
	return sq.Rank()
}

// String renders sq in algebraic notation ("e4"), or "-" for NoSquare
// or any other invalid value.
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// ParseSquare is the inverse of String: it reads algebraic notation
// such as "e4" and reports an error for anything that isn't exactly
// that shape.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}
	return NewSquare(file, rank), nil
}
