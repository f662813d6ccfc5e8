package selfplay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/pixelcv-arcade/internal/game"
	_ "github.com/park285/pixelcv-arcade/internal/game/chess"
	_ "github.com/park285/pixelcv-arcade/internal/game/tictactoe"
	"github.com/park285/pixelcv-arcade/internal/search"
)

func preset(t *testing.T, gameID, level string) search.Preset {
	t.Helper()
	p, err := search.GetPreset(gameID, level)
	require.NoError(t, err)
	return p
}

func TestPerfectTicTacToeIsAlwaysDrawn(t *testing.T) {
	v, err := game.Lookup("tictactoe")
	require.NoError(t, err)
	expert := preset(t, "tictactoe", "expert")

	var seen []int
	sum, err := Run(context.Background(), Config{Variant: v, A: expert, B: expert, Games: 2, Seed: 1}, func(r GameResult) {
		seen = append(seen, r.N)
	})
	require.NoError(t, err)
	require.Equal(t, 2, sum.Draws)
	require.Equal(t, []int{1, 2}, seen)
	require.True(t, sum.Games[0].AFirst)
	require.False(t, sum.Games[1].AFirst)
	for _, g := range sum.Games {
		require.Equal(t, 9, g.Plies)
		require.False(t, g.Capped)
		require.Zero(t, g.Randoms)
	}
}

func TestStrongBeatsRandom(t *testing.T) {
	v, err := game.Lookup("tictactoe")
	require.NoError(t, err)
	expert := preset(t, "tictactoe", "expert")
	random := search.Preset{Game: "tictactoe", Name: "random", RandomMoveChance: 1, MaxDepth: 1}

	sum, err := Run(context.Background(), Config{Variant: v, A: expert, B: random, Games: 6, Seed: 7}, nil)
	require.NoError(t, err)
	require.Zero(t, sum.WinsB)
	require.Equal(t, 6, sum.WinsA+sum.Draws)
}

func TestPlyCapAdjudicatesDraw(t *testing.T) {
	v, err := game.Lookup("chess")
	require.NoError(t, err)
	easy := preset(t, "chess", "easy")

	sum, err := Run(context.Background(), Config{Variant: v, A: easy, B: easy, Games: 1, PlyCap: 2}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Draws)
	require.True(t, sum.Games[0].Capped)
	require.Equal(t, 2, sum.Games[0].Plies)
}

func TestRunValidates(t *testing.T) {
	_, err := Run(context.Background(), Config{}, nil)
	require.Error(t, err)

	v, _ := game.Lookup("tictactoe")
	_, err = Run(context.Background(), Config{Variant: v}, nil)
	require.ErrorIs(t, err, ErrNoGames)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, Config{Variant: v, A: preset(t, "tictactoe", "hard"), B: preset(t, "tictactoe", "hard"), Games: 1}, nil)
	require.ErrorIs(t, err, context.Canceled)
}
