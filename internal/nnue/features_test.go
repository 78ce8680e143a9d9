package nnue

import (
	"testing"

	"github.com/hailam/shallownnue/internal/board"
)

func TestOrient(t *testing.T) {
	for sq := board.A1; sq <= board.H8; sq++ {
		if got := Orient(sq, board.White); got != int(sq) {
			t.Errorf("Orient(%s, White) = %d, want %d", sq, got, sq)
		}
		if got := Orient(sq, board.Black); got != 63-int(sq) {
			t.Errorf("Orient(%s, Black) = %d, want %d", sq, got, 63-int(sq))
		}
	}

	if Orient(board.H8, board.Black) != int(board.A1) {
		t.Errorf("h8 should map to a1 for Black")
	}
}

func TestPieceIndex(t *testing.T) {
	for pt := board.Pawn; pt <= board.King; pt++ {
		own := PieceIndex(pt, true)
		if own < 0 || own > 5 {
			t.Errorf("PieceIndex(%s, own) = %d, out of [0,5]", pt, own)
		}
		if enemy := PieceIndex(pt, false); enemy != own+6 {
			t.Errorf("PieceIndex(%s, enemy) = %d, want %d", pt, enemy, own+6)
		}
	}

	if PieceIndex(board.King, false) != 11 || PieceIndex(board.King, true) != 5 {
		t.Errorf("king classes wrong")
	}
	if PieceIndex(board.Bishop, false) != 8 || PieceIndex(board.Bishop, true) != 2 {
		t.Errorf("bishop classes wrong")
	}
}

func TestFeatureIndexInjective(t *testing.T) {
	seen := make(map[int]bool, InputSize)
	for pt := board.Pawn; pt <= board.King; pt++ {
		for _, own := range []bool{true, false} {
			for sq := 0; sq < NumSquares; sq++ {
				idx := FeatureIndex(pt, own, sq)
				if idx < 0 || idx >= InputSize {
					t.Fatalf("FeatureIndex(%s, %v, %d) = %d out of range", pt, own, sq, idx)
				}
				if seen[idx] {
					t.Fatalf("FeatureIndex(%s, %v, %d) = %d collides", pt, own, sq, idx)
				}
				seen[idx] = true
			}
		}
	}
	if len(seen) != InputSize {
		t.Errorf("covered %d indices, want %d", len(seen), InputSize)
	}
}

func TestActiveFeaturesStartPosition(t *testing.T) {
	pos := board.NewPosition()

	white := ActiveFeatures(pos, board.White)
	black := ActiveFeatures(pos, board.Black)
	if len(white) != 32 || len(black) != 32 {
		t.Fatalf("got %d/%d features, want 32", len(white), len(black))
	}

	// The start position is symmetric under the point reflection only up to
	// king/queen placement, so compare class counts instead of indices.
	count := func(features []int) [NumPieceClasses]int {
		var c [NumPieceClasses]int
		for _, f := range features {
			c[f/NumSquares]++
		}
		return c
	}
	if count(white) != count(black) {
		t.Errorf("class counts differ between perspectives: %v vs %v", count(white), count(black))
	}

	// White's e2 pawn is an own pawn on 12 for White, an enemy pawn on 51 for Black.
	if !contains(white, 12) {
		t.Errorf("white perspective misses own pawn on e2")
	}
	if !contains(black, FeatureIndex(board.Pawn, false, 51)) {
		t.Errorf("black perspective misses enemy pawn on e2")
	}
}

func contains(s []int, x int) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}
