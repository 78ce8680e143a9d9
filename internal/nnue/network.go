package nnue

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Network dimensions and scaling.
const (
	DefaultHiddenSize = 256
	MaxHiddenSize     = 4096

	// The network is trained on pawn units; scores are reported in centipawns
	// and clamped to the int16 range the search stores.
	OutputScale = 100
	MaxScore    = math.MaxInt16
)

// Network is a shallow dense evaluator: InputSize -> Hidden (clipped ReLU) -> 1.
// It is read-only once built, so one Network can serve many evaluators.
type Network struct {
	Hidden int

	// Layer 1, stored row per input feature so sparse inputs touch
	// contiguous memory.
	L1Weights []float32 // InputSize * Hidden
	L1Bias    []float32 // Hidden

	// Output layer
	OutputWeights []float32 // Hidden
	OutputBias    float32
}

// NewNetwork creates a network with zero weights (must load weights or init random).
func NewNetwork(hidden int) *Network {
	return &Network{
		Hidden:        hidden,
		L1Weights:     make([]float32, InputSize*hidden),
		L1Bias:        make([]float32, hidden),
		OutputWeights: make([]float32, hidden),
	}
}

// ClippedReLU clamps x to [0, 1].
func ClippedReLU(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Evaluate runs the forward pass over a full feature vector and returns the
// score in centipawns for the encoded side.
func (n *Network) Evaluate(features []float32) (int, error) {
	if len(features) != InputSize {
		return 0, fmt.Errorf("%w: input length %d, want %d", ErrEvaluation, len(features), InputSize)
	}

	acc := make([]float32, n.Hidden)
	copy(acc, n.L1Bias)

	// Inputs are almost all zero; skip them.
	for i, x := range features {
		if x == 0 {
			continue
		}
		row := n.L1Weights[i*n.Hidden : (i+1)*n.Hidden]
		for j, w := range row {
			acc[j] += x * w
		}
	}

	out := n.OutputBias
	for j, a := range acc {
		out += ClippedReLU(a) * n.OutputWeights[j]
	}

	if math.IsNaN(float64(out)) {
		return 0, fmt.Errorf("%w: network produced NaN", ErrEvaluation)
	}

	score := math.Round(float64(out) * OutputScale)
	return int(math.Max(-MaxScore, math.Min(MaxScore, score))), nil
}

// Fingerprint identifies the weights. Cached scores are keyed by it so a new
// model never reads another model's results.
func (n *Network) Fingerprint() uint64 {
	d := xxhash.New()
	// writes to a hash cannot fail
	_ = n.writeTo(d)
	return d.Sum64()
}

// InitRandom initializes weights with small random values (for testing only).
func (n *Network) InitRandom(seed int64) {
	// LCG for reproducibility
	state := uint64(seed)
	next := func(scale float32) float32 {
		state = state*6364136223846793005 + 1442695040888963407
		return (float32(state>>40)/float32(1<<24) - 0.5) * scale
	}

	for i := range n.L1Weights {
		n.L1Weights[i] = next(0.25)
	}
	for i := range n.L1Bias {
		n.L1Bias[i] = next(0.1)
	}
	for i := range n.OutputWeights {
		n.OutputWeights[i] = next(1)
	}
	n.OutputBias = next(0.1)
}
