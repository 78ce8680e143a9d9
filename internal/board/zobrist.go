package board

// Zobrist keys, generated once from a fixed seed so hashes are stable across
// runs. The evaluation cache persists them, so the seed must not change.
var (
	zobristPiece      [12][64]uint64
	zobristEnPassant  [8]uint64
	zobristCastling   [16]uint64
	zobristSideToMove uint64
)

func init() {
	rng := prng{state: 0x98F107A2BEEF1234}

	for pc := WhitePawn; pc < NoPiece; pc++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[pc][sq] = rng.next()
		}
	}
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// xorshift64*
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// ComputeHash computes the Zobrist hash of the position from scratch.
func (p *Position) ComputeHash() uint64 {
	var hash uint64
	for sq := A1; sq <= H8; sq++ {
		if pc := p.Squares[sq]; pc < NoPiece {
			hash ^= zobristPiece[pc][sq]
		}
	}
	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}
	hash ^= zobristCastling[p.CastlingRights&AllCastling]
	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	return hash
}
