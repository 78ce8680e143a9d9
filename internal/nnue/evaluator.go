// Package nnue encodes chess positions as a sparse 768-feature input vector
// and keeps that vector current move by move for a shallow neural evaluator.
//
// A move is first classified against the position it is played from
// (Classify), producing a fixed set of place/remove deltas. The deltas are
// applied to a Vector before the oracle is queried and reverted afterwards,
// so evaluating every child of a node never re-encodes the whole board.
package nnue

import "github.com/hailam/shallownnue/internal/board"

// Evaluator scores moves from one position. It owns its board copy and its
// vector and must be used from a single goroutine; give each search branch
// its own Evaluator.
type Evaluator struct {
	oracle Oracle
	pos    *board.Position
	vec    *Vector
}

// NewEvaluator returns an evaluator set to the starting position.
func NewEvaluator(oracle Oracle) *Evaluator {
	e := &Evaluator{oracle: oracle, vec: &Vector{}}
	e.SetBoard(board.NewPosition())
	return e
}

// LoadEvaluator loads a network and wraps it in an evaluator.
// If weightsFile is empty, uses random weights for testing.
func LoadEvaluator(weightsFile string) (*Evaluator, *Network, error) {
	if weightsFile == "" {
		net := NewNetwork(DefaultHiddenSize)
		net.InitRandom(12345)
		return NewEvaluator(net), net, nil
	}

	net, err := LoadNetwork(weightsFile)
	if err != nil {
		return nil, nil, err
	}
	return NewEvaluator(net), net, nil
}

// SetBoard replaces the position and rebuilds the vector from scratch, from
// the side to move's perspective. pos is copied.
func (e *Evaluator) SetBoard(pos *board.Position) {
	e.pos = pos.Copy()
	e.vec.Resync(e.pos, e.pos.SideToMove)
}

// Forward scores the position after m without playing it: the move's deltas
// are applied, the oracle is queried and the deltas are reverted. The score
// is from the mover's point of view.
//
// Classification errors leave the vector untouched. Oracle errors are
// returned as is, after the vector has been restored.
func (e *Evaluator) Forward(m board.Move) (int, error) {
	c, err := Classify(e.pos, m, e.pos.SideToMove)
	if err != nil {
		return 0, err
	}

	e.vec.Apply(c)
	score, err := e.oracle.Evaluate(e.vec.Values())
	e.vec.Revert(c)

	return score, err
}

// Evaluate scores the current position itself.
func (e *Evaluator) Evaluate() (int, error) {
	return e.oracle.Evaluate(e.vec.Values())
}

// Vector returns a snapshot of the current encoding.
func (e *Evaluator) Vector() *Vector {
	return e.vec.Clone()
}

// Position returns a copy of the current position.
func (e *Evaluator) Position() *board.Position {
	return e.pos.Copy()
}
