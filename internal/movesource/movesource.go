// Package movesource supplies legal moves for a position. Legality is not
// this module's concern, so generation is delegated to dragontoothmg and
// its moves are translated into board.Move through their UCI text.
package movesource

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/shallownnue/internal/board"
)

// LegalMoves returns every legal move of pos.
func LegalMoves(pos *board.Position) ([]board.Move, error) {
	dt := dragontoothmg.ParseFen(pos.ToFEN())
	generated := dt.GenerateLegalMoves()

	moves := make([]board.Move, 0, len(generated))
	for i := range generated {
		text := generated[i].String()
		m, err := board.ParseMove(text, pos)
		if err != nil {
			return nil, fmt.Errorf("translate %s in %s: %w", text, pos.ToFEN(), err)
		}
		moves = append(moves, m)
	}
	return moves, nil
}
