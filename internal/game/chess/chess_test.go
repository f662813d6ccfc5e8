package chess

import (
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/stretchr/testify/require"

	"github.com/park285/pixelcv-arcade/internal/game"
)

func sq(t *testing.T, s string) int {
	t.Helper()
	idx, err := ParseSquare(s)
	require.NoError(t, err)
	return idx
}

func mv(t *testing.T, from, to string) game.Move {
	t.Helper()
	return game.Move{From: sq(t, from), To: sq(t, to)}
}

func mustFEN(t *testing.T, fen string) (game.Board, game.Side) {
	t.Helper()
	b, side, err := FromFEN(fen)
	require.NoError(t, err)
	return b, side
}

func play(t *testing.T, b game.Board, side game.Side, from, to string) game.Board {
	t.Helper()
	v := Variant{}
	m, ok := game.FindMove(v.GenerateMoves(b, side), mv(t, from, to))
	require.Truef(t, ok, "%s%s not legal", from, to)
	return v.ApplyMove(b, side, m)
}

func TestInitialLayout(t *testing.T) {
	b := Variant{}.NewBoard()
	require.Equal(t, game.Cell('r'), b.Cells[0])
	require.Equal(t, game.Cell('k'), b.Cells[4])
	require.Equal(t, game.Cell('p'), b.Cells[15])
	require.Equal(t, game.Cell('P'), b.Cells[48])
	require.Equal(t, game.Cell('K'), b.Cells[60])
	require.Equal(t, 32, 64-b.Count(game.Empty))
	require.Zero(t, Material(b))
}

func TestOpeningMoveCountMatchesReferenceLibrary(t *testing.T) {
	v := Variant{}
	b := v.NewBoard()
	ref := nchess.NewGame()
	require.Len(t, v.GenerateMoves(b, game.Player), len(ref.ValidMoves()))

	b = play(t, b, game.Player, "e2", "e4")
	opt, err := nchess.FEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	require.NoError(t, err)
	ref = nchess.NewGame(opt)
	require.Len(t, v.GenerateMoves(b, game.AI), len(ref.ValidMoves()))
}

func TestFENRoundTrip(t *testing.T) {
	v := Variant{}
	b := play(t, v.NewBoard(), game.Player, "e2", "e4")
	fen, err := v.FEN(b, game.AI)
	require.NoError(t, err)
	require.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", fen)

	back, side := mustFEN(t, fen)
	require.Equal(t, game.AI, side)
	require.True(t, b.Equal(back))
}

func TestPieceGeometryAgreesWithReferenceLibrary(t *testing.T) {
	fen := "r3k2r/ppp2ppp/2n5/3pp3/2B1P1b1/5N2/PPPP1PPP/R3K2R w KQkq - 0 1"
	b, _ := mustFEN(t, fen)
	opt, err := nchess.FEN(fen)
	require.NoError(t, err)
	board := nchess.NewGame(opt).Position().Board()
	for idx := 0; idx < Size*Size; idx++ {
		row, col := b.RowCol(idx)
		piece := board.Piece(nchess.NewSquare(nchess.File(col), nchess.Rank(Size-1-row)))
		if piece == nchess.NoPiece {
			require.Equal(t, game.Empty, b.Cells[idx], Square(idx))
			continue
		}
		require.NotEqual(t, game.Empty, b.Cells[idx], Square(idx))
	}
}

func TestCastlingMovesRook(t *testing.T) {
	v := Variant{}
	b, _ := mustFEN(t, "r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	m, ok := game.FindMove(v.GenerateMoves(b, game.Player), mv(t, "e1", "g1"))
	require.True(t, ok)
	require.Equal(t, game.SpecialCastling, m.Special)
	next := v.ApplyMove(b, game.Player, m)
	require.Equal(t, game.Cell('K'), next.Cells[sq(t, "g1")])
	require.Equal(t, game.Cell('R'), next.Cells[sq(t, "f1")])
	require.Equal(t, game.Empty, next.Cells[sq(t, "h1")])
	require.Zero(t, next.Castling&(game.CastleWhiteKing|game.CastleWhiteQueen))
	require.NotZero(t, next.Castling&game.CastleBlackKing)

	next = play(t, b, game.Player, "a1", "b1")
	require.Zero(t, next.Castling&game.CastleWhiteQueen)
	require.NotZero(t, next.Castling&game.CastleWhiteKing)
}

func TestEnPassantCapture(t *testing.T) {
	v := Variant{}
	b, _ := mustFEN(t, "4k3/3p4/8/4P3/8/8/8/4K3 b - - 0 1")
	b = play(t, b, game.AI, "d7", "d5")
	require.Equal(t, sq(t, "d6"), b.EnPassant)

	m, ok := game.FindMove(v.GenerateMoves(b, game.Player), mv(t, "e5", "d6"))
	require.True(t, ok)
	require.Equal(t, game.SpecialEnPassant, m.Special)
	require.Equal(t, []int{sq(t, "d5")}, m.Captures)
	next := v.ApplyMove(b, game.Player, m)
	require.Equal(t, game.Empty, next.Cells[sq(t, "d5")])
	require.Equal(t, -1, next.EnPassant)
}

func TestPromotionToQueen(t *testing.T) {
	v := Variant{}
	b, _ := mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	m, ok := game.FindMove(v.GenerateMoves(b, game.Player), mv(t, "a7", "a8"))
	require.True(t, ok)
	require.Equal(t, game.SpecialPromotion, m.Special)
	require.Equal(t, "a7a8q", v.Notation(b, m))
	require.Equal(t, game.Cell('Q'), v.ApplyMove(b, game.Player, m).Cells[sq(t, "a8")])
}

func TestPawnCheckOnly(t *testing.T) {
	b, _ := mustFEN(t, "4k3/8/8/8/8/8/3p4/4K3 w - - 0 1")
	require.True(t, InCheck(b, game.Player))

	rook, _ := mustFEN(t, "4k3/8/8/8/8/8/8/r3K3 w - - 0 1")
	require.False(t, InCheck(rook, game.Player))
}

func TestMovesIntoPawnCheckAreDropped(t *testing.T) {
	v := Variant{}
	b, _ := mustFEN(t, "4k3/8/8/8/8/3p4/8/4K3 w - - 0 1")
	for _, m := range v.GenerateMoves(b, game.Player) {
		require.NotEqual(t, sq(t, "e2"), m.To, "king may not step next to the pawn's attack")
		require.NotEqual(t, sq(t, "c2"), m.To)
	}
}

func TestMissingKingIsDecisive(t *testing.T) {
	v := Variant{}
	b := v.NewBoard()
	b.Cells[4] = game.Empty

	require.Equal(t, game.WinFor(game.Player), v.Status(b, game.AI))
	require.Empty(t, v.GenerateMoves(b, game.AI))

	fast := v.Evaluate(b, game.Player, 3)
	slow := v.Evaluate(b, game.Player, 1)
	require.GreaterOrEqual(t, fast, game.WinScore)
	require.Greater(t, fast, slow)
	require.Equal(t, -fast, v.Evaluate(b, game.AI, 3))
}

func TestNoMovesPolicy(t *testing.T) {
	v := Variant{}
	// Every king step lands on a pawn-attacked square, the king itself is safe.
	stalemate, _ := mustFEN(t, "k7/P7/PP6/8/8/8/8/7K b - - 0 1")
	require.False(t, InCheck(stalemate, game.AI))
	require.Empty(t, v.GenerateMoves(stalemate, game.AI))
	require.Equal(t, game.DrawStatus(), v.Status(stalemate, game.AI))
	require.Zero(t, game.Score(v, stalemate, game.AI, game.Player, 2))

	mated, _ := mustFEN(t, "k7/PP6/PP6/8/8/8/8/7K b - - 0 1")
	require.True(t, InCheck(mated, game.AI))
	require.Empty(t, v.GenerateMoves(mated, game.AI))
	require.Equal(t, game.WinFor(game.Player), v.Status(mated, game.AI))
	// material alone favours white but says nothing about the mate
	require.Less(t, v.Evaluate(mated, game.Player, 2), game.WinScore)
	require.Equal(t, game.WinScore+2, game.Score(v, mated, game.AI, game.Player, 2))
	require.Equal(t, -game.WinScore-2, game.Score(v, mated, game.AI, game.AI, 2))
}

func TestEvaluateMaterial(t *testing.T) {
	v := Variant{}
	b := v.NewBoard()
	b.Cells[sq(t, "d8")] = game.Empty
	require.Equal(t, 9, v.Evaluate(b, game.Player, 2))
	require.Equal(t, -9, v.Evaluate(b, game.AI, 2))
}

func TestSquareNames(t *testing.T) {
	require.Equal(t, "a8", Square(0))
	require.Equal(t, "h1", Square(63))
	require.Equal(t, "e2", Square(52))
	_, err := ParseSquare("z9")
	require.Error(t, err)
}
