// Package board provides the position model the feature encoder reads from:
// squares, pieces, moves, FEN and a mailbox position with make/unmake.
package board

import "fmt"

// Square is a board cell, 0-63, little-endian rank-file: A1=0, H1=7, A8=56, H8=63.
type Square uint8

// Named squares. Anything else is built with NewSquare or ParseSquare.
const (
	A1 = Square(0)
	B1 = Square(1)
	C1 = Square(2)
	D1 = Square(3)
	E1 = Square(4)
	F1 = Square(5)
	G1 = Square(6)
	H1 = Square(7)
	A2 = Square(8)
	D2 = Square(11)
	E2 = Square(12)
	E3 = Square(20)
	E4 = Square(28)
	D5 = Square(35)
	E5 = Square(36)
	D6 = Square(43)
	A7 = Square(48)
	E7 = Square(52)
	A8 = Square(56)
	D8 = Square(59)
	E8 = Square(60)
	H8 = Square(63)

	NoSquare = Square(64)
)

// File returns the file of the square (0=a, 7=h).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank of the square (0=first rank, 7=eighth rank).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{"abcdefgh"[sq.File()], "12345678"[sq.Rank()]})
}

// NewSquare builds a square from 0-indexed file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	return NewSquare(file, rank), nil
}

// BackRank returns the first rank of c (0 for White, 7 for Black).
func BackRank(c Color) int {
	if c == White {
		return 0
	}
	return 7
}
