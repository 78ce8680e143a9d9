package nnue

import (
	"fmt"

	"github.com/hailam/shallownnue/internal/board"
)

// Board is the read-only view of a position the encoder needs.
// *board.Position satisfies it.
type Board interface {
	PieceAt(sq board.Square) board.Piece
}

// Sign says whether a delta switches a feature on or off.
type Sign int8

const (
	Remove Sign = -1
	Place  Sign = 1
)

func (s Sign) String() string {
	if s == Place {
		return "place"
	}
	return "remove"
}

// Delta is a single change to one input feature.
type Delta struct {
	Index int
	Sign  Sign
}

// Kind names a move shape.
type Kind uint8

const (
	KindQuiet Kind = iota
	KindPromotion
	KindPromotionCapture
	KindCapture
	KindCastle
)

func (k Kind) String() string {
	switch k {
	case KindQuiet:
		return "quiet"
	case KindPromotion:
		return "promotion"
	case KindPromotionCapture:
		return "promotion-capture"
	case KindCapture:
		return "capture"
	case KindCastle:
		return "castle"
	default:
		return "unknown"
	}
}

// Classification is the set of feature changes a move causes. The set of
// implementations is closed: Quiet, Promotion, PromotionCapture, Capture and
// Castle. Every shape touches pairwise distinct indices.
type Classification interface {
	Kind() Kind
	// Deltas returns the shape's deltas in application order.
	Deltas() []Delta
	classification()
}

// Quiet: place mover on destination, remove mover from source.
type Quiet struct{ D [2]Delta }

// Promotion: remove pawn from source, place promoted piece on destination.
type Promotion struct{ D [2]Delta }

// PromotionCapture: remove captured piece, place promoted piece on
// destination, remove pawn from source.
type PromotionCapture struct{ D [3]Delta }

// Capture: remove captured piece, place mover on destination, remove mover
// from source. For en passant the captured piece sits behind the destination.
type Capture struct{ D [3]Delta }

// Castle: remove king, place king, remove rook, place rook.
type Castle struct{ D [4]Delta }

func (Quiet) Kind() Kind            { return KindQuiet }
func (Promotion) Kind() Kind        { return KindPromotion }
func (PromotionCapture) Kind() Kind { return KindPromotionCapture }
func (Capture) Kind() Kind          { return KindCapture }
func (Castle) Kind() Kind           { return KindCastle }

func (c Quiet) Deltas() []Delta            { return c.D[:] }
func (c Promotion) Deltas() []Delta        { return c.D[:] }
func (c PromotionCapture) Deltas() []Delta { return c.D[:] }
func (c Capture) Deltas() []Delta          { return c.D[:] }
func (c Castle) Deltas() []Delta           { return c.D[:] }

func (Quiet) classification()            {}
func (Promotion) classification()        {}
func (PromotionCapture) classification() {}
func (Capture) classification()          {}
func (Castle) classification()           {}

// Classify derives the feature changes of m, played by mover on b, in the
// mover's own perspective. b must be the position before the move.
func Classify(b Board, m board.Move, mover board.Color) (Classification, error) {
	return ClassifyFor(b, m, mover, mover)
}

// ClassifyFor is Classify with the encoding perspective chosen freely.
// Ownership and orientation of every delta are relative to perspective, so
// a vector encoded for one side can follow the moves of both.
func ClassifyFor(b Board, m board.Move, mover, perspective board.Color) (Classification, error) {
	from, to := m.From(), m.To()

	piece := b.PieceAt(from)
	if piece == board.NoPiece {
		return nil, fmt.Errorf("%w: %s: no piece on %s", ErrInconsistentBoard, m, from)
	}
	if piece.Color() != mover {
		return nil, fmt.Errorf("%w: %s: %s on %s does not belong to %s", ErrInconsistentBoard, m, piece, from, mover)
	}

	target := b.PieceAt(to)
	if target != board.NoPiece && target.Color() == mover {
		return nil, fmt.Errorf("%w: %s: %s lands on own %s", ErrIllegalMove, m, piece, target)
	}

	at := func(pt board.PieceType, c board.Color, sq board.Square, s Sign) Delta {
		return Delta{Index: Feature(pt, c, sq, perspective), Sign: s}
	}
	pt := piece.Type()
	enemy := mover.Other()

	if isCastle(piece, m, mover) {
		if pt != board.King {
			return nil, fmt.Errorf("%w: %s: castling with %s", ErrInconsistentBoard, m, piece)
		}
		rookFrom, rookTo := board.CastlingRookSquares(from, to)
		if b.PieceAt(rookFrom) != board.NewPiece(board.Rook, mover) {
			return nil, fmt.Errorf("%w: %s: no rook on %s", ErrInconsistentBoard, m, rookFrom)
		}
		if target != board.NoPiece || b.PieceAt(rookTo) != board.NoPiece {
			return nil, fmt.Errorf("%w: %s: castling path occupied", ErrInconsistentBoard, m)
		}
		return Castle{D: [4]Delta{
			at(board.King, mover, from, Remove),
			at(board.King, mover, to, Place),
			at(board.Rook, mover, rookFrom, Remove),
			at(board.Rook, mover, rookTo, Place),
		}}, nil
	}

	if m.IsPromotion() {
		if pt != board.Pawn {
			return nil, fmt.Errorf("%w: %s: promoting %s", ErrInconsistentBoard, m, piece)
		}
		promo := m.Promotion()
		if target != board.NoPiece {
			return PromotionCapture{D: [3]Delta{
				at(target.Type(), enemy, to, Remove),
				at(promo, mover, to, Place),
				at(board.Pawn, mover, from, Remove),
			}}, nil
		}
		return Promotion{D: [2]Delta{
			at(board.Pawn, mover, from, Remove),
			at(promo, mover, to, Place),
		}}, nil
	}

	if target != board.NoPiece {
		return Capture{D: [3]Delta{
			at(target.Type(), enemy, to, Remove),
			at(pt, mover, to, Place),
			at(pt, mover, from, Remove),
		}}, nil
	}

	if m.IsEnPassant() || (pt == board.Pawn && from.File() != to.File()) {
		if pt != board.Pawn {
			return nil, fmt.Errorf("%w: %s: en passant with %s", ErrInconsistentBoard, m, piece)
		}
		victim := board.EnPassantVictim(mover, to)
		if b.PieceAt(victim) != board.NewPiece(board.Pawn, enemy) {
			return nil, fmt.Errorf("%w: %s: no pawn to take en passant on %s", ErrInconsistentBoard, m, victim)
		}
		return Capture{D: [3]Delta{
			at(board.Pawn, enemy, victim, Remove),
			at(board.Pawn, mover, to, Place),
			at(board.Pawn, mover, from, Remove),
		}}, nil
	}

	return Quiet{D: [2]Delta{
		at(pt, mover, to, Place),
		at(pt, mover, from, Remove),
	}}, nil
}

// isCastle recognises castling by flag or by shape: the king travelling two
// files along its own back rank.
func isCastle(piece board.Piece, m board.Move, mover board.Color) bool {
	if m.IsCastling() {
		return true
	}
	if piece.Type() != board.King {
		return false
	}
	from, to := m.From(), m.To()
	if from.Rank() != board.BackRank(mover) || to.Rank() != from.Rank() {
		return false
	}
	d := to.File() - from.File()
	return d == 2 || d == -2
}
