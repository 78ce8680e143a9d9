package nnue

import "github.com/hailam/shallownnue/internal/board"

// Input layer dimensions.
const (
	NumPieceClasses = 12 // 6 piece types x {own, enemy}
	NumSquares      = 64

	// InputSize is the length of the feature vector.
	InputSize = NumPieceClasses * NumSquares // 768

	enemyOffset = 6
)

// Orient maps sq into the canonical frame of perspective. White sees the
// board as is; Black sees it reflected through the centre (sq -> 63-sq), so
// each side's own back rank lands on the first rank of the feature space.
func Orient(sq board.Square, perspective board.Color) int {
	if perspective == board.White {
		return int(sq)
	}
	return 63 - int(sq)
}

// PieceIndex returns the feature class of a piece type: its ordinal for own
// pieces, ordinal+6 for enemy pieces.
func PieceIndex(pt board.PieceType, own bool) int {
	if own {
		return int(pt)
	}
	return int(pt) + enemyOffset
}

// FeatureIndex composes a piece class and an already oriented square into an
// input index in [0, InputSize).
func FeatureIndex(pt board.PieceType, own bool, oriented int) int {
	return PieceIndex(pt, own)*NumSquares + oriented
}

// Feature returns the input index of a piece of color c on sq, as seen from
// perspective.
func Feature(pt board.PieceType, c board.Color, sq board.Square, perspective board.Color) int {
	return FeatureIndex(pt, c == perspective, Orient(sq, perspective))
}

// ActiveFeatures returns the input indices of every piece on b, in square
// order, as seen from perspective.
func ActiveFeatures(b Board, perspective board.Color) []int {
	active := make([]int, 0, 32)
	for sq := board.A1; sq <= board.H8; sq++ {
		piece := b.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		active = append(active, Feature(piece.Type(), piece.Color(), sq, perspective))
	}
	return active
}
