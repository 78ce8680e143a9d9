package nnue

import "errors"

var (
	// ErrIllegalMove is returned when a move lands on a piece of the mover's
	// own color. Nothing is classified and no state changes.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInconsistentBoard is returned when the board does not hold the
	// pieces the move requires, e.g. an empty source square. It means the
	// caller passed a move that does not belong to the position.
	ErrInconsistentBoard = errors.New("board inconsistent with move")

	// ErrModelLoad is returned when network weights are missing or invalid.
	ErrModelLoad = errors.New("model load failed")

	// ErrEvaluation is returned by the network when it is handed an input it
	// cannot evaluate.
	ErrEvaluation = errors.New("evaluation failed")

	ErrStackFull  = errors.New("delta stack full")
	ErrStackEmpty = errors.New("delta stack empty")
)
