package nnue

import (
	"errors"
	"testing"

	"github.com/hailam/shallownnue/internal/board"
)

// countingOracle scores a position by the number of own pieces minus enemy
// pieces and remembers every input it saw.
type countingOracle struct {
	calls int
	last  []int
}

func (o *countingOracle) Evaluate(features []float32) (int, error) {
	o.calls++
	o.last = o.last[:0]
	score := 0
	for i, x := range features {
		if x == 0 {
			continue
		}
		o.last = append(o.last, i)
		if i < enemyOffset*NumSquares {
			score++
		} else {
			score--
		}
	}
	return score, nil
}

func TestForwardRestoresVector(t *testing.T) {
	oracle := &countingOracle{}
	e := NewEvaluator(oracle)
	before := e.Vector()

	pos := e.Position()
	for _, s := range []string{"e2e4", "g1f3", "b1c3"} {
		score, err := e.Forward(mustParse(t, s, pos))
		if err != nil {
			t.Fatalf("Forward(%s): %v", s, err)
		}
		if score != 0 {
			t.Errorf("Forward(%s) = %d, want 0 for an even position", s, score)
		}
		if !e.Vector().Equal(before) {
			t.Fatalf("Forward(%s) left the vector modified", s)
		}
	}

	// The oracle saw the post-move encoding: e4 set, e2 clear.
	m := mustParse(t, "e2e4", pos)
	if _, err := e.Forward(m); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if !contains(oracle.last, 28) || contains(oracle.last, 12) {
		t.Errorf("oracle input did not reflect e2e4: %v", oracle.last)
	}

	// Repeated evaluation is stable.
	a, _ := e.Forward(m)
	b, _ := e.Forward(m)
	if a != b {
		t.Errorf("repeated Forward differs: %d vs %d", a, b)
	}
	if e.Vector().At(28) != 0 {
		t.Errorf("e4 still set after Forward")
	}
}

func TestForwardCapture(t *testing.T) {
	e := NewEvaluator(&countingOracle{})
	e.SetBoard(mustFEN(t, "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2"))

	score, err := e.Forward(mustParse(t, "e4d5", e.Position()))
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if score != 1 {
		t.Errorf("score after winning a pawn = %d, want 1", score)
	}
}

func TestForwardPropagatesOracleError(t *testing.T) {
	boom := errors.New("device lost")
	e := NewEvaluator(OracleFunc(func([]float32) (int, error) {
		return 0, boom
	}))
	before := e.Vector()

	_, err := e.Forward(board.NewMove(board.E2, board.E4))
	if err != boom {
		t.Fatalf("Forward error = %v, want the oracle's error unchanged", err)
	}
	if !e.Vector().Equal(before) {
		t.Errorf("vector not restored after oracle failure")
	}
}

func TestSetBoardUsesSideToMove(t *testing.T) {
	e := NewEvaluator(&countingOracle{})
	pos := mustFEN(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	e.SetBoard(pos)

	// Black to move: the white pawn on e4 (28) is an enemy pawn on 35.
	vec := e.Vector()
	if vec.At(FeatureIndex(board.Pawn, false, 35)) != 1 {
		t.Errorf("enemy pawn on e4 missing from black's encoding")
	}
	if !vec.Equal(NewVector(pos, board.Black)) {
		t.Errorf("SetBoard encoding differs from NewVector(pos, Black)")
	}

	score, err := e.Forward(mustParse(t, "e7e5", pos))
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
}

func TestLoadEvaluatorRandom(t *testing.T) {
	e, net, err := LoadEvaluator("")
	if err != nil {
		t.Fatalf("LoadEvaluator: %v", err)
	}
	if net.Hidden != DefaultHiddenSize {
		t.Errorf("hidden = %d, want %d", net.Hidden, DefaultHiddenSize)
	}
	if _, err := e.Forward(board.NewMove(board.E2, board.E4)); err != nil {
		t.Errorf("Forward: %v", err)
	}

	if _, _, err := LoadEvaluator("/nonexistent/model.snue"); !errors.Is(err, ErrModelLoad) {
		t.Errorf("LoadEvaluator on missing file = %v, want ErrModelLoad", err)
	}
}
