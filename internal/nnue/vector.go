package nnue

import "github.com/hailam/shallownnue/internal/board"

// Vector is the dense input of the network: one activation per feature,
// each 0 or 1. The zero value is an empty board.
//
// Apply and Revert set values directly instead of counting, which is sound
// because no classification touches the same index twice.
type Vector struct {
	v [InputSize]float32
}

// NewVector returns a vector encoding b from perspective.
func NewVector(b Board, perspective board.Color) *Vector {
	vec := &Vector{}
	vec.Resync(b, perspective)
	return vec
}

// Apply switches the features changed by c.
func (vec *Vector) Apply(c Classification) {
	vec.set(c, false)
}

// Revert undoes Apply(c). It restores the vector exactly as long as c was
// the last classification applied.
func (vec *Vector) Revert(c Classification) {
	vec.set(c, true)
}

func (vec *Vector) set(c Classification, invert bool) {
	for _, d := range c.Deltas() {
		on := d.Sign == Place
		if invert {
			on = !on
		}
		if on {
			vec.v[d.Index] = 1
		} else {
			vec.v[d.Index] = 0
		}
	}
}

// Resync rebuilds the vector from the pieces on b, seen from perspective.
func (vec *Vector) Resync(b Board, perspective board.Color) {
	vec.Reset()
	for _, idx := range ActiveFeatures(b, perspective) {
		vec.v[idx] = 1
	}
}

// Reset clears every feature.
func (vec *Vector) Reset() {
	vec.v = [InputSize]float32{}
}

// Clone returns an independent copy, e.g. for a separate search branch.
func (vec *Vector) Clone() *Vector {
	c := *vec
	return &c
}

// Equal reports whether both vectors hold the same activations.
func (vec *Vector) Equal(other *Vector) bool {
	return vec.v == other.v
}

// At returns the activation of feature idx.
func (vec *Vector) At(idx int) float32 {
	return vec.v[idx]
}

// Values exposes the activations for the oracle. Callers must not retain
// the slice across Apply/Revert.
func (vec *Vector) Values() []float32 {
	return vec.v[:]
}

// Active returns the set feature indices in ascending order.
func (vec *Vector) Active() []int {
	active := make([]int, 0, 32)
	for i, x := range vec.v {
		if x != 0 {
			active = append(active, i)
		}
	}
	return active
}

// Count returns the number of set features.
func (vec *Vector) Count() int {
	n := 0
	for _, x := range vec.v {
		if x != 0 {
			n++
		}
	}
	return n
}
