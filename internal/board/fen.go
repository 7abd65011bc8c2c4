package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a Position from a FEN record. The placement, side,
// castling and en passant fields are required; the two clocks are
// optional and default to 0 and 1.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("invalid FEN %q: want at least 4 fields, have %d", fen, len(fields))
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare

	if err := parsePlacement(pos, fields[0]); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move %q", fields[1])
	}

	if err := parseCastling(pos, fields[2]); err != nil {
		return nil, err
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square %q", fields[3])
		}
		pos.EnPassant = sq
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("invalid half-move clock %q", fields[4])
		}
		pos.HalfMoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, fmt.Errorf("invalid full-move number %q", fields[5])
		}
		pos.FullMoveNumber = n
	}

	pos.updateOccupied()
	pos.findKings()
	pos.UpdateCheckers()
	pos.Hash = pos.ComputeHash()
	pos.PawnKey = pos.ComputePawnKey()

	return pos, nil
}

// parsePlacement fills the piece bitboards from the first FEN field,
// which lists ranks 8 down to 1 separated by '/', each rank a mix of
// piece letters and empty-run digits that must account for exactly 8
// files.
func parsePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid placement %q: want 8 ranks, have %d", placement, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
			default:
				piece := PieceFromChar(c)
				if piece == NoPiece {
					return fmt.Errorf("invalid piece character %q in rank %d", c, rank+1)
				}
				if file > 7 {
					return fmt.Errorf("rank %d overflows past the h-file", rank+1)
				}
				pos.setPiece(piece, NewSquare(file, rank))
				file++
			}
		}
		if file != 8 {
			return fmt.Errorf("rank %d covers %d files, want 8", rank+1, file)
		}
	}

	return nil
}

// parseCastling reads the third FEN field into CastlingRights.
func parseCastling(pos *Position, castling string) error {
	if castling == "-" {
		pos.CastlingRights = NoCastling
		return nil
	}

	flags := map[byte]CastlingRights{
		'K': WhiteKingSideCastle,
		'Q': WhiteQueenSideCastle,
		'k': BlackKingSideCastle,
		'q': BlackQueenSideCastle,
	}
	for i := 0; i < len(castling); i++ {
		flag, ok := flags[castling[i]]
		if !ok {
			return fmt.Errorf("invalid castling character %q", castling[i])
		}
		pos.CastlingRights |= flag
	}
	return nil
}

// ToFEN formats the position as a 6-field FEN record, the inverse of
// ParseFEN.
func (p *Position) ToFEN() string {
	var sb strings.Builder
	p.writePlacement(&sb)

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}

// writePlacement emits the rank-8-first placement field, collapsing runs
// of empty squares into digits.
func (p *Position) writePlacement(sb *strings.Builder) {
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
}

// ComputeHash rederives the Zobrist hash from the board state. MakeMove
// maintains Hash incrementally; this is the from-scratch version the
// incremental one must always agree with.
func (p *Position) ComputeHash() uint64 {
	var hash uint64

	for bb := p.AllOccupied; bb != 0; {
		sq := bb.PopLSB()
		piece := p.PieceAt(sq)
		hash ^= zobristPiece[piece.Color()][piece.Type()][sq]
	}

	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}
	hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	return hash
}

// ComputePawnKey rederives the pawn-structure key: the piece keys of the
// pawns alone, so positions sharing a pawn skeleton collide on purpose.
func (p *Position) ComputePawnKey() uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for bb := p.Pieces[c][Pawn]; bb != 0; {
			key ^= zobristPiece[c][Pawn][bb.PopLSB()]
		}
	}
	return key
}
