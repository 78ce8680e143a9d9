package board

import "strings"

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c >= NoColor {
		return "none"
	}
	return [...]string{"white", "black"}[c]
}

// PieceType is a colorless piece kind. The ordinals are stable: the feature
// encoder uses them directly as class offsets.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

func (pt PieceType) String() string {
	if pt >= NoPieceType {
		return "none"
	}
	return [...]string{"pawn", "knight", "bishop", "rook", "queen", "king"}[pt]
}

// Char returns the lowercase FEN letter for the piece type.
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "pnbrqk"[pt]
}

// Piece is a colored piece, encoded as pieceType + color*6.
type Piece uint8

const (
	WhitePawn Piece = 0
	WhiteRook Piece = 3
	WhiteKing Piece = 5

	NoPiece Piece = 12
)

// pieceChars holds the FEN letter of every Piece, White first.
const pieceChars = "PNBRQKpnbrqk"

// NewPiece combines a type and a color. Out of range input yields NoPiece.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

// Type returns the kind of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the owner of the piece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// String returns the FEN letter, uppercase for White.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return pieceChars[p : p+1]
}

// PieceFromChar converts a FEN letter to a Piece.
func PieceFromChar(c byte) Piece {
	if i := strings.IndexByte(pieceChars, c); i >= 0 {
		return Piece(i)
	}
	return NoPiece
}
