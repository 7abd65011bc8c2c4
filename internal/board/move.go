package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-15: flag, one of the Flag* constants below.
//
// The 4-bit flag space distinguishes quiet moves, double pushes, both
// castle sides, plain captures, en passant, and the four promotion pieces
// both quiet and capturing, so move class never needs to be re-derived
// from board state once a Move exists.
type Move uint16

// Move flags (bits 12-15).
const (
	FlagQuiet uint16 = iota
	FlagDoublePush
	FlagKingCastle
	FlagQueenCastle
	FlagCapture
	FlagEnPassant
	_ // reserved
	_ // reserved
	FlagKnightPromo
	FlagBishopPromo
	FlagRookPromo
	FlagQueenPromo
	FlagKnightPromoCapture
	FlagBishopPromoCapture
	FlagRookPromoCapture
	FlagQueenPromoCapture
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

func pack(from, to Square, flag uint16) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

// NewMove creates a quiet move.
func NewMove(from, to Square) Move {
	return pack(from, to, FlagQuiet)
}

// NewDoublePush creates a double pawn push.
func NewDoublePush(from, to Square) Move {
	return pack(from, to, FlagDoublePush)
}

// NewCapture creates a non-special capture.
func NewCapture(from, to Square) Move {
	return pack(from, to, FlagCapture)
}

// NewKingCastle creates a kingside castling move (king's movement only).
func NewKingCastle(from, to Square) Move {
	return pack(from, to, FlagKingCastle)
}

// NewQueenCastle creates a queenside castling move (king's movement only).
func NewQueenCastle(from, to Square) Move {
	return pack(from, to, FlagQueenCastle)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return pack(from, to, FlagEnPassant)
}

// promoFlags maps promotion piece type (Knight..Queen) to its flag,
// indexed [isCapture][promo-Knight].
var promoFlags = [2][4]uint16{
	{FlagKnightPromo, FlagBishopPromo, FlagRookPromo, FlagQueenPromo},
	{FlagKnightPromoCapture, FlagBishopPromoCapture, FlagRookPromoCapture, FlagQueenPromoCapture},
}

// NewPromotion creates a (possibly capturing) promotion move.
func NewPromotion(from, to Square, promo PieceType, isCapture bool) Move {
	idx := 0
	if isCapture {
		idx = 1
	}
	return pack(from, to, promoFlags[idx][promo-Knight])
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the 4-bit move flag.
func (m Move) Flag() uint16 {
	return uint16(m>>12) & 0xF
}

// IsPromotion returns true if this move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Flag() >= FlagKnightPromo
}

// Promotion returns the promotion piece type. Only valid if IsPromotion().
func (m Move) Promotion() PieceType {
	f := m.Flag()
	if f >= FlagKnightPromoCapture {
		return PieceType(f-FlagKnightPromoCapture) + Knight
	}
	return PieceType(f-FlagKnightPromo) + Knight
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	f := m.Flag()
	return f == FlagKingCastle || f == FlagQueenCastle
}

// IsKingCastle returns true if this is a kingside castle.
func (m Move) IsKingCastle() bool {
	return m.Flag() == FlagKingCastle
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsDoublePush returns true if this is a double pawn push.
func (m Move) IsDoublePush() bool {
	return m.Flag() == FlagDoublePush
}

// IsCapture returns true if this move captures a piece (including en
// passant and promo-captures). The flag alone determines this; no board
// state lookup is needed.
func (m Move) IsCapture() bool {
	switch m.Flag() {
	case FlagCapture, FlagEnPassant,
		FlagKnightPromoCapture, FlagBishopPromoCapture, FlagRookPromoCapture, FlagQueenPromoCapture:
		return true
	}
	return false
}

// IsQuiet returns true if this is not a capture or promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := []byte{'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()-Knight])
	}

	return s
}

// ParseMove parses a UCI format move string against a position, recovering
// the flag the position's state implies (capture, en passant, castle, ...).
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()
	isCapture := !pos.IsEmpty(to)

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo, isCapture), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		if to > from {
			return NewKingCastle(from, to), nil
		}
		return NewQueenCastle(from, to), nil
	}

	if pt == Pawn && to == pos.EnPassant {
		return NewEnPassant(from, to), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewDoublePush(from, to), nil
	}

	if isCapture {
		return NewCapture(from, to), nil
	}

	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo stores information needed to undo a move.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Valid          bool
}
