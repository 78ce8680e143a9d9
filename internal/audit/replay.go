package audit

import (
	"fmt"

	"github.com/freeeve/pgn/v3"

	"github.com/hailam/shallownnue/internal/board"
	"github.com/hailam/shallownnue/internal/nnue"
)

// Stages at which a ply can fail the audit.
const (
	StageParse    = "parse"
	StageClassify = "classify"
	StageApply    = "apply"
	StageRevert   = "revert"
	StageChained  = "chained"
	StageForward  = "forward"
)

// pgn marks castling moves with this flag.
const pgnCastleFlag = 4

// Mismatch describes the first ply of a game that failed a check.
type Mismatch struct {
	Game  int
	Ply   int
	FEN   string // position before the move
	Move  string
	Stage string
	Err   error
}

// Rejected reports whether the game's input was refused, as opposed to
// incremental and full encodings disagreeing.
func (m Mismatch) Rejected() bool {
	return m.Stage == StageParse || m.Stage == StageClassify
}

func (m Mismatch) String() string {
	s := fmt.Sprintf("game %d ply %d %s (%s): %s", m.Game, m.Ply, m.Move, m.FEN, m.Stage)
	if m.Err != nil {
		s += ": " + m.Err.Error()
	}
	return s
}

// GameResult is the outcome of replaying one game.
type GameResult struct {
	Game      int
	Plies     int
	Evaluated int
	ByKind    map[string]int
	Mismatch  *Mismatch
}

// ReplayGame plays moves from start and checks, at every ply, that the
// mover's deltas take the pre-move encoding to the post-move encoding, that
// reverting them restores the pre-move encoding, and that vectors kept from
// both fixed perspectives stay equal to a full resync. With a non-nil oracle
// each move is also scored through an Evaluator and compared with scoring
// the resynced child directly.
//
// Replay stops at the first failing ply.
func ReplayGame(game int, start *board.Position, moves []string, oracle nnue.Oracle) GameResult {
	res := GameResult{Game: game, ByKind: make(map[string]int)}
	pos := start.Copy()

	chained := [2]*nnue.Vector{
		board.White: nnue.NewVector(pos, board.White),
		board.Black: nnue.NewVector(pos, board.Black),
	}
	var eval *nnue.Evaluator
	if oracle != nil {
		eval = nnue.NewEvaluator(oracle)
	}

	fail := func(ply int, fen, move, stage string, err error) GameResult {
		res.Mismatch = &Mismatch{Game: game, Ply: ply, FEN: fen, Move: move, Stage: stage, Err: err}
		return res
	}

	for ply, s := range moves {
		fen := pos.ToFEN()
		m, err := board.ParseMove(s, pos)
		if err != nil {
			return fail(ply, fen, s, StageParse, err)
		}
		us := pos.SideToMove

		vec := nnue.NewVector(pos, us)
		before := vec.Clone()

		c, err := nnue.Classify(pos, m, us)
		if err != nil {
			return fail(ply, fen, s, StageClassify, err)
		}

		var forward int
		if eval != nil {
			eval.SetBoard(pos)
			forward, err = eval.Forward(m)
			if err != nil {
				return fail(ply, fen, s, StageForward, err)
			}
		}

		for _, p := range []board.Color{board.White, board.Black} {
			fc, err := nnue.ClassifyFor(pos, m, us, p)
			if err != nil {
				return fail(ply, fen, s, StageChained, err)
			}
			chained[p].Apply(fc)
		}

		vec.Apply(c)
		pos.MakeMove(m)
		res.ByKind[c.Kind().String()]++

		child := nnue.NewVector(pos, us)
		if !vec.Equal(child) {
			return fail(ply, fen, s, StageApply, nil)
		}
		vec.Revert(c)
		if !vec.Equal(before) {
			return fail(ply, fen, s, StageRevert, nil)
		}
		for _, p := range []board.Color{board.White, board.Black} {
			if !chained[p].Equal(nnue.NewVector(pos, p)) {
				return fail(ply, fen, s, StageChained, fmt.Errorf("%s perspective diverged", p))
			}
		}

		if eval != nil {
			direct, err := oracle.Evaluate(child.Values())
			if err != nil {
				return fail(ply, fen, s, StageForward, err)
			}
			if direct != forward {
				return fail(ply, fen, s, StageForward, fmt.Errorf("forward scored %d, direct %d", forward, direct))
			}
			res.Evaluated++
		}
		res.Plies++
	}
	return res
}

// mvToUCI converts a decoded PGN move to UCI notation. Castling is
// normalized to the king's two-file step.
func mvToUCI(mv pgn.Mv) string {
	from := board.Square(mv.From)
	to := board.Square(mv.To)

	if mv.Flags == pgnCastleFlag {
		if to > from {
			to = from + 2
		} else {
			to = from - 2
		}
	}

	uci := from.String() + to.String()
	switch mv.Promo {
	case pgn.PromoQueen:
		uci += "q"
	case pgn.PromoRook:
		uci += "r"
	case pgn.PromoBishop:
		uci += "b"
	case pgn.PromoKnight:
		uci += "n"
	}
	return uci
}
