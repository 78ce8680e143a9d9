package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-13: promotion piece (0=Knight, 1=Bishop, 2=Rook, 3=Queen)
// bits 14-15: flags (0=normal, 1=promotion, 2=en passant, 3=castling)
type Move uint16

// Move flags
const (
	FlagNormal    uint16 = 0 << 14
	FlagPromotion uint16 = 1 << 14
	FlagEnPassant uint16 = 2 << 14
	FlagCastling  uint16 = 3 << 14
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion creates a promotion move. promo must be Knight..Queen.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | Move(FlagPromotion)
}

// NewEnPassant creates an en passant capture.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagEnPassant)
}

// NewCastling creates a castling move expressed as the king's movement.
func NewCastling(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagCastling)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move flag.
func (m Move) Flag() uint16 {
	return uint16(m) & 0xC000
}

// Promotion returns the promotion piece type. Only meaningful when IsPromotion.
func (m Move) Promotion() PieceType {
	return PieceType((m>>12)&3) + Knight
}

func (m Move) IsPromotion() bool {
	return m.Flag() == FlagPromotion
}

func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// String returns the UCI form of the move, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// ParseMove parses a UCI move against pos. Castling and en passant flags are
// inferred from the piece on the origin square.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %q", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

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
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}

	switch piece.Type() {
	case King:
		if abs(to.File()-from.File()) == 2 && from.Rank() == to.Rank() {
			return NewCastling(from, to), nil
		}
	case Pawn:
		if to == pos.EnPassant && from.File() != to.File() {
			return NewEnPassant(from, to), nil
		}
	}

	return NewMove(from, to), nil
}

// CastlingRookSquares returns the rook's origin and destination for a
// castling king move from -> to.
func CastlingRookSquares(from, to Square) (rookFrom, rookTo Square) {
	if to > from {
		return NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
	}
	return NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
}

// EnPassantVictim returns the square of the pawn taken by an en passant
// capture landing on to.
func EnPassantVictim(mover Color, to Square) Square {
	if mover == White {
		return to - 8
	}
	return to + 8
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
