package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string. The clock fields are optional.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	pos := &Position{}
	pos.Clear()

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		pos.EnPassant = sq
	}

	clocks := []struct {
		name string
		dst  *int
	}{
		{"half-move clock", &pos.HalfMoveClock},
		{"full-move number", &pos.FullMoveNumber},
	}
	for i, field := range parts[4:] {
		if i >= len(clocks) {
			break
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %s", clocks[i].name, field)
		}
		*clocks[i].dst = n
	}

	pos.Hash = pos.ComputeHash()
	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("invalid piece character: %c", c)
			}
			pos.Squares[NewSquare(file, rank)] = piece
			file++
		}

		if file != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		pos.CastlingRights = NoCastling
		return nil
	}

	for _, c := range castling {
		i := strings.IndexRune("KQkq", c)
		if i < 0 {
			return fmt.Errorf("invalid castling character: %c", c)
		}
		pos.CastlingRights |= 1 << i
	}
	return nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.Squares[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if p.SideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.CastlingRights, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)

	return sb.String()
}
