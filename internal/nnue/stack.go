package nnue

// MaxPly bounds the number of classifications a Stack can hold.
const MaxPly = 128

// Stack chains classifications over one vector with strict last-in
// first-out reverts, mirroring make/unmake along a search path.
type Stack struct {
	vec     *Vector
	applied [MaxPly]Classification
	top     int
}

// NewStack returns a stack driving vec.
func NewStack(vec *Vector) *Stack {
	return &Stack{vec: vec}
}

// Push applies c and records it.
func (s *Stack) Push(c Classification) error {
	if s.top >= MaxPly {
		return ErrStackFull
	}
	s.vec.Apply(c)
	s.applied[s.top] = c
	s.top++
	return nil
}

// Pop reverts the most recently pushed classification.
func (s *Stack) Pop() error {
	if s.top == 0 {
		return ErrStackEmpty
	}
	s.top--
	s.vec.Revert(s.applied[s.top])
	s.applied[s.top] = nil
	return nil
}

// Unwind pops everything, returning the vector to its state before the
// first Push.
func (s *Stack) Unwind() {
	for s.top > 0 {
		_ = s.Pop()
	}
}

// Depth returns the number of outstanding classifications.
func (s *Stack) Depth() int {
	return s.top
}

// Vector returns the vector the stack drives.
func (s *Stack) Vector() *Vector {
	return s.vec
}
