package board

import "testing"

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q) failed: %v", fen, err)
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("FEN round trip:\n got  %s\n want %s", got, fen)
		}
		if err := pos.Validate(); err != nil {
			t.Errorf("Validate(%q): %v", fen, err)
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq -",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); err == nil {
			t.Errorf("ParseFEN(%q) succeeded, want error", fen)
		}
	}
}

func TestMakeUnmakeRestoresPosition(t *testing.T) {
	cases := []struct {
		fen  string
		move string
	}{
		{StartFEN, "e2e4"},
		{StartFEN, "g1f3"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1"},
		{"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8c8"},
		{"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3", "e5d6"},
		{"1n5k/P7/8/8/8/8/8/K7 w - - 0 1", "a7b8q"},
		{"4k3/8/8/8/8/8/3p4/4K3 b - - 0 1", "d2d1n"},
	}

	for _, tc := range cases {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		before := *pos

		m, err := ParseMove(tc.move, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", tc.move, err)
		}
		undo := pos.MakeMove(m)
		if pos.Hash != pos.ComputeHash() {
			t.Errorf("%s: incremental hash out of date", tc.move)
		}
		if pos.SideToMove == before.SideToMove {
			t.Errorf("%s: side to move not switched", tc.move)
		}
		pos.UnmakeMove(m, undo)

		if *pos != before {
			t.Errorf("%s: unmake did not restore position\n got  %s\n want %s", tc.move, pos.ToFEN(), before.ToFEN())
		}
	}
}

func TestMakeMoveSpecials(t *testing.T) {
	t.Run("Castling moves rook", func(t *testing.T) {
		pos, _ := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		m, _ := ParseMove("e1c1", pos)
		if !m.IsCastling() {
			t.Fatalf("e1c1 not parsed as castling")
		}
		pos.MakeMove(m)
		if pos.PieceAt(C1) != WhiteKing || pos.PieceAt(D1) != WhiteRook || !pos.IsEmpty(A1) {
			t.Errorf("unexpected board after O-O-O: %s", pos.ToFEN())
		}
		if pos.CastlingRights.CanCastle(White, true) || pos.CastlingRights.CanCastle(White, false) {
			t.Errorf("white castling rights not cleared: %s", pos.CastlingRights)
		}
		if !pos.CastlingRights.CanCastle(Black, true) {
			t.Errorf("black castling rights lost")
		}
	})

	t.Run("En passant removes victim", func(t *testing.T) {
		pos, _ := ParseFEN("rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3")
		m, _ := ParseMove("e5d6", pos)
		if !m.IsEnPassant() {
			t.Fatalf("e5d6 not parsed as en passant")
		}
		pos.MakeMove(m)
		if !pos.IsEmpty(D5) || pos.PieceAt(D6) != WhitePawn {
			t.Errorf("unexpected board after exd6: %s", pos.ToFEN())
		}
	})

	t.Run("Double push sets en passant", func(t *testing.T) {
		pos := NewPosition()
		m, _ := ParseMove("e2e4", pos)
		pos.MakeMove(m)
		if pos.EnPassant != E3 {
			t.Errorf("en passant = %s, want e3", pos.EnPassant)
		}
	})
}

func TestParseMove(t *testing.T) {
	pos := NewPosition()

	m, err := ParseMove("e2e4", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if m.From() != E2 || m.To() != E4 || m.Flag() != FlagNormal {
		t.Errorf("e2e4 decoded as from=%s to=%s flag=%x", m.From(), m.To(), m.Flag())
	}
	if m.String() != "e2e4" {
		t.Errorf("String() = %s", m.String())
	}

	promo := NewPromotion(A7, A8, Queen)
	if promo.String() != "a7a8q" || promo.Promotion() != Queen {
		t.Errorf("promotion encoded as %s / %s", promo, promo.Promotion())
	}

	for _, s := range []string{"e2", "e2e9", "e3e4", "e7e8k"} {
		if _, err := ParseMove(s, pos); err == nil {
			t.Errorf("ParseMove(%q) succeeded, want error", s)
		}
	}
}
