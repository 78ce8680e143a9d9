package nnue

// Oracle scores an encoded position. Implementations must not modify
// features and must be deterministic for a fixed input.
type Oracle interface {
	Evaluate(features []float32) (int, error)
}

// OracleFunc adapts a plain function to Oracle.
type OracleFunc func(features []float32) (int, error)

func (f OracleFunc) Evaluate(features []float32) (int, error) {
	return f(features)
}
