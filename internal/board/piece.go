package board

// Color distinguishes the two sides.
type Color uint8

// NoColor marks "neither side" for an empty or invalid piece.
const NoColor Color = 2

const (
	White Color = iota
	Black
)

// Other flips White<->Black; only meaningful for White or Black.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType is a chess piece kind, independent of color.
type PieceType uint8

// NoPieceType marks an empty square's piece type.
const NoPieceType PieceType = 6

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

func (pt PieceType) String() string {
	names := [...]string{"Pawn", "Knight", "Bishop", "Rook", "Queen", "King"}
	if pt >= NoPieceType {
		return "None"
	}
	return names[pt]
}

// Char returns the lowercase FEN letter for the piece type.
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "pnbrqk"[pt]
}

// PieceValue gives the material value in centipawns, indexed by
// PieceType (King's entry is a placeholder, never summed into score).
var PieceValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

// Piece packs a PieceType and a Color into one byte: value =
// type + 6*color, so White's six pieces occupy 0-5 and Black's 6-11.
type Piece uint8

// NoPiece marks an empty square.
const NoPiece Piece = 12

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// NewPiece combines a type and color into a Piece, or NoPiece if
// either input is out of range.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(c)*6 + Piece(pt)
}

// Type extracts the PieceType, or NoPieceType for NoPiece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color extracts the Color, or NoColor for NoPiece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// Value returns the piece's material value in centipawns.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}

// String renders the piece as its FEN letter: uppercase for white,
// lowercase for black, a space for NoPiece.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string("PNBRQKpnbrqk"[p])
}

// PieceFromChar is the inverse of String, mapping a FEN letter to the
// Piece it denotes ('P'..'K', 'p'..'k'), or NoPiece for anything else.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}
