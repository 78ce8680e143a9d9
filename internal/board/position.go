package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// CanCastle reports whether c may still castle on the given wing.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	bit := WhiteKingSideCastle
	if !kingSide {
		bit = WhiteQueenSideCastle
	}
	if c == Black {
		bit <<= 2
	}
	return cr&bit != 0
}

// castlingMask clears rights when a king or rook leaves (or a rook is taken
// on) its home square.
var castlingMask = func() [64]CastlingRights {
	var m [64]CastlingRights
	for i := range m {
		m[i] = AllCastling
	}
	m[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	m[H1] &^= WhiteKingSideCastle
	m[A1] &^= WhiteQueenSideCastle
	m[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	m[H8] &^= BlackKingSideCastle
	m[A8] &^= BlackQueenSideCastle
	return m
}()

// Position is a mailbox chess position. It carries no legality knowledge:
// MakeMove trusts the caller to pass a move that is legal in the position.
type Position struct {
	Squares [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // target square, NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int

	// Zobrist hash, kept current by MakeMove/UnmakeMove
	Hash uint64
}

// UndoInfo stores what MakeMove destroys.
type UndoInfo struct {
	CapturedPiece  Piece
	CapturedSquare Square
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
}

// NewPosition returns the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy returns a deep copy of the position.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return p.Squares[sq]
}

// IsEmpty reports whether sq holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.PieceAt(sq) == NoPiece
}

// KingSquare returns the square of c's king, or NoSquare.
func (p *Position) KingSquare(c Color) Square {
	king := NewPiece(King, c)
	for sq := A1; sq <= H8; sq++ {
		if p.Squares[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	for sq := range p.Squares {
		p.Squares[sq] = NoPiece
	}
}

// Validate checks the invariants the encoder depends on.
func (p *Position) Validate() error {
	var kings [2]int
	for sq := A1; sq <= H8; sq++ {
		piece := p.Squares[sq]
		if piece == NoPiece {
			continue
		}
		if piece > NoPiece {
			return fmt.Errorf("corrupt piece %d on %s", piece, sq)
		}
		switch piece.Type() {
		case King:
			kings[piece.Color()]++
		case Pawn:
			if sq.Rank() == 0 || sq.Rank() == 7 {
				return fmt.Errorf("pawn on back rank at %s", sq)
			}
		}
	}
	if kings[White] != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if kings[Black] != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	return nil
}

// MakeMove applies m and returns the information UnmakeMove needs.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CapturedSquare: NoSquare,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
	}

	us := p.SideToMove
	from, to := m.From(), m.To()
	piece := p.Squares[from]

	if m.IsEnPassant() {
		undo.CapturedSquare = EnPassantVictim(us, to)
	} else if p.Squares[to] != NoPiece {
		undo.CapturedSquare = to
	}
	if undo.CapturedSquare != NoSquare {
		undo.CapturedPiece = p.Squares[undo.CapturedSquare]
		p.Squares[undo.CapturedSquare] = NoPiece
	}

	p.Squares[from] = NoPiece
	if m.IsPromotion() {
		p.Squares[to] = NewPiece(m.Promotion(), us)
	} else {
		p.Squares[to] = piece
	}

	if m.IsCastling() {
		rookFrom, rookTo := CastlingRookSquares(from, to)
		p.Squares[rookTo] = p.Squares[rookFrom]
		p.Squares[rookFrom] = NoPiece
	}

	p.CastlingRights &= castlingMask[from] & castlingMask[to]

	p.EnPassant = NoSquare
	if piece.Type() == Pawn && abs(int(to)-int(from)) == 16 {
		p.EnPassant = Square((int(from) + int(to)) / 2)
	}

	if piece.Type() == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = us.Other()
	p.Hash = p.ComputeHash()

	return undo
}

// UnmakeMove takes back m using the undo returned by MakeMove.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	us := p.SideToMove.Other()
	from, to := m.From(), m.To()

	if m.IsCastling() {
		rookFrom, rookTo := CastlingRookSquares(from, to)
		p.Squares[rookFrom] = p.Squares[rookTo]
		p.Squares[rookTo] = NoPiece
	}

	moved := p.Squares[to]
	if m.IsPromotion() {
		moved = NewPiece(Pawn, us)
	}
	p.Squares[from] = moved
	p.Squares[to] = NoPiece

	if undo.CapturedPiece != NoPiece {
		p.Squares[undo.CapturedSquare] = undo.CapturedPiece
	}

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}
}

// String renders the board with rank 8 on top.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.Squares[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}
