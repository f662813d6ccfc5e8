package search

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/game/checkers"
	"github.com/park285/pixelcv-arcade/internal/game/chess"
	"github.com/park285/pixelcv-arcade/internal/game/tictactoe"
)

func tttBoard(layout string) game.Board {
	b := tictactoe.Variant{}.NewBoard()
	for i, ch := range layout {
		switch ch {
		case 'X':
			b.Cells[i] = tictactoe.X
		case 'O':
			b.Cells[i] = tictactoe.O
		}
	}
	return b
}

func TestBlocksImmediateThreat(t *testing.T) {
	v := tictactoe.Variant{}
	res := Minimax(v, tttBoard("XX..O...."), game.AI, 4)
	require.Equal(t, 2, res.Move.To)
}

func TestTakesWinOverBlock(t *testing.T) {
	v := tictactoe.Variant{}
	res := AlphaBeta(v, tttBoard("XX.OO...X"), game.AI, 9)
	require.Equal(t, 5, res.Move.To)
	require.GreaterOrEqual(t, res.Score, game.WinScore)
}

// TestFullDepthSecondMoverNeverLoses tries every line X can play against the
// full-depth engine.
func TestFullDepthSecondMoverNeverLoses(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive")
	}
	v := tictactoe.Variant{}
	var games int
	var walk func(b game.Board)
	walk = func(b game.Board) {
		st := v.Status(b, game.Player)
		if st.Terminal() {
			require.NotEqual(t, game.WinFor(game.Player), st, "engine lost:\n%s", b)
			games++
			return
		}
		for _, m := range v.GenerateMoves(b, game.Player) {
			after := v.ApplyMove(b, game.Player, m)
			if st := v.Status(after, game.AI); st.Terminal() {
				require.NotEqual(t, game.WinFor(game.Player), st, "engine lost:\n%s", after)
				games++
				continue
			}
			reply := AlphaBeta(v, after, game.AI, 9)
			require.False(t, reply.Move.IsNone())
			walk(v.ApplyMove(after, game.AI, reply.Move))
		}
	}
	walk(v.NewBoard())
	require.Greater(t, games, 0)
}

func TestCenterOpeningReplies(t *testing.T) {
	v := tictactoe.Variant{}
	b := v.ApplyMove(v.NewBoard(), game.Player, game.Move{From: game.Placement, To: 4})
	require.Len(t, v.GenerateMoves(b, game.AI), 8)
	res := AlphaBeta(v, b, game.AI, 9)
	require.Contains(t, []int{0, 2, 6, 8}, res.Move.To, "only corner replies hold the draw")
	require.Zero(t, res.Score)
}

func TestDeterministic(t *testing.T) {
	for _, v := range []game.Variant{tictactoe.Variant{}, chess.Variant{}, checkers.Variant{}} {
		b := v.NewBoard()
		first := Minimax(v, b, game.Player, 2)
		for i := 0; i < 3; i++ {
			again := Minimax(v, b, game.Player, 2)
			require.True(t, first.Move.Same(again.Move), v.ID())
			require.Equal(t, first.Score, again.Score)
		}
	}
}

// TestAlphaBetaAgreesWithMinimax compares both searches on positions reached
// by random play.
func TestAlphaBetaAgreesWithMinimax(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cases := []struct {
		v     game.Variant
		depth int
	}{
		{tictactoe.Variant{}, 5},
		{chess.Variant{}, 2},
		{checkers.Variant{}, 3},
	}
	for _, tc := range cases {
		for trial := 0; trial < 8; trial++ {
			b := tc.v.NewBoard()
			side := game.Player
			plies := rng.Intn(6)
			for i := 0; i < plies; i++ {
				moves := tc.v.GenerateMoves(b, side)
				if len(moves) == 0 {
					break
				}
				b = tc.v.ApplyMove(b, side, moves[rng.Intn(len(moves))])
				side = side.Opponent()
			}
			if tc.v.Status(b, side).Terminal() {
				continue
			}
			plain := Minimax(tc.v, b, side, tc.depth)
			pruned := AlphaBeta(tc.v, b, side, tc.depth)
			require.True(t, plain.Move.Same(pruned.Move), "%s trial %d", tc.v.ID(), trial)
			require.Equal(t, plain.Score, pruned.Score)
			require.LessOrEqual(t, pruned.Nodes, plain.Nodes)
		}
	}
}

func TestChessPrefersFasterKingCapture(t *testing.T) {
	v := chess.Variant{}
	b, side, err := chess.FromFEN("4k3/8/8/8/8/8/8/R3K2R w - - 0 1")
	require.NoError(t, err)
	b.Cells[4] = game.Empty
	// Black king already gone: terminal for any depth.
	require.True(t, v.Status(b, side).Terminal())
	res := AlphaBeta(v, b, side, 3)
	require.True(t, res.Move.IsNone())

	b, side, err = chess.FromFEN("k7/8/8/8/8/8/8/R3K3 w - - 0 1")
	require.NoError(t, err)
	res = AlphaBeta(v, b, side, 3)
	require.Equal(t, "a1a8", v.Notation(b, res.Move))
	require.Equal(t, game.WinScore+2, res.Score)
}

func TestChessWinsHangingQueen(t *testing.T) {
	v := chess.Variant{}
	b, side, err := chess.FromFEN("4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	require.NoError(t, err)
	res := Minimax(v, b, side, 1)
	require.Equal(t, "d1d5", v.Notation(b, res.Move))
}

func TestNoMoveSentinel(t *testing.T) {
	v := tictactoe.Variant{}
	res := Minimax(v, tttBoard("XOXXOOOXX"), game.AI, 3)
	require.True(t, res.Move.IsNone())
	require.Zero(t, res.Score)
}

func TestZeroDepthIsStaticScore(t *testing.T) {
	v := tictactoe.Variant{}
	b := tttBoard("X...O....")
	for _, res := range []Result{Minimax(v, b, game.AI, 0), AlphaBeta(v, b, game.AI, 0)} {
		require.True(t, res.Move.IsNone())
		require.Equal(t, v.Evaluate(b, game.AI, 0), res.Score)
		require.Zero(t, res.Depth)
	}

	res := Minimax(v, tttBoard("XXX.OO..."), game.AI, 0)
	require.True(t, res.Move.IsNone())
	require.Equal(t, -game.WinScore, res.Score)
}

func TestSearcherRandomMove(t *testing.T) {
	v := checkers.Variant{}
	b := v.NewBoard()
	always := New(WithRandomMoveChance(1), WithRandSeed(1), WithLogger(zap.NewNop()))
	res, err := always.Search(context.Background(), v, b, game.AI)
	require.NoError(t, err)
	require.True(t, res.Random)
	_, ok := game.FindMove(v.GenerateMoves(b, game.AI), res.Move)
	require.True(t, ok)

	never := New(WithRandomMoveChance(0), WithMaxDepth(2))
	res, err = never.Search(context.Background(), v, b, game.AI)
	require.NoError(t, err)
	require.False(t, res.Random)
	require.True(t, res.Move.Same(AlphaBeta(v, b, game.AI, 2).Move))
}

func TestSearcherRandomChanceRate(t *testing.T) {
	v := tictactoe.Variant{}
	s := New(WithRandomMoveChance(0.15), WithMaxDepth(1), WithRandSeed(42))
	random := 0
	const n = 2000
	for i := 0; i < n; i++ {
		res, err := s.Search(context.Background(), v, v.NewBoard(), game.AI)
		require.NoError(t, err)
		if res.Random {
			random++
		}
	}
	require.InDelta(t, 0.15, float64(random)/n, 0.04)
}

func TestSearcherHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Search(ctx, chess.Variant{}, chess.Variant{}.NewBoard(), game.Player)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearcherClampsOptions(t *testing.T) {
	s := New(WithRandomMoveChance(3), WithMaxDepth(-1))
	require.Equal(t, 1.0, s.RandomMoveChance())
	require.Equal(t, DefaultMaxDepth, s.MaxDepth())
}
