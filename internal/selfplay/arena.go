// Package selfplay pits two engine presets against each other.
package selfplay

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/search"
)

// DefaultPlyCap adjudicates a draw when a game runs this long.
const DefaultPlyCap = 200

var ErrNoGames = errors.New("selfplay: games must be positive")

type Config struct {
	Variant game.Variant
	A, B    search.Preset
	Games   int
	Seed    int64
	PlyCap  int
	Logger  *zap.Logger
}

// GameResult is one finished game. AFirst reports whether A moved first.
type GameResult struct {
	N       int
	AFirst  bool
	Winner  string // "a", "b" or "" for a draw
	Plies   int
	Capped  bool
	Randoms int
}

type Summary struct {
	WinsA, WinsB, Draws int
	Games               []GameResult
}

// Run plays cfg.Games games, swapping colors every game so neither preset
// always moves first. onGame, if set, sees each result as it finishes.
func Run(ctx context.Context, cfg Config, onGame func(GameResult)) (Summary, error) {
	if cfg.Variant == nil {
		return Summary{}, fmt.Errorf("selfplay: nil variant")
	}
	if cfg.Games <= 0 {
		return Summary{}, ErrNoGames
	}
	if cfg.PlyCap <= 0 {
		cfg.PlyCap = DefaultPlyCap
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var sum Summary
	for i := 0; i < cfg.Games; i++ {
		seed := cfg.Seed + int64(i)*2
		a := search.New(search.WithPreset(cfg.A), search.WithRandSeed(seed), search.WithLogger(cfg.Logger))
		b := search.New(search.WithPreset(cfg.B), search.WithRandSeed(seed+1), search.WithLogger(cfg.Logger))
		aFirst := i%2 == 0

		engines := map[game.Side]*search.Searcher{game.Player: a, game.AI: b}
		if !aFirst {
			engines = map[game.Side]*search.Searcher{game.Player: b, game.AI: a}
		}

		res, err := playOne(ctx, cfg.Variant, engines, cfg.PlyCap)
		if err != nil {
			return sum, fmt.Errorf("game %d: %w", i+1, err)
		}
		res.N = i + 1
		res.AFirst = aFirst
		if res.Winner != "" {
			// playOne reports the winning side as "player"/"ai"
			res.Winner = label(res.Winner == game.Player.String(), aFirst)
		}
		switch res.Winner {
		case "a":
			sum.WinsA++
		case "b":
			sum.WinsB++
		default:
			sum.Draws++
		}
		sum.Games = append(sum.Games, res)
		cfg.Logger.Debug("selfplay_game",
			zap.Int("n", res.N),
			zap.String("winner", res.Winner),
			zap.Int("plies", res.Plies),
			zap.Bool("capped", res.Capped),
		)
		if onGame != nil {
			onGame(res)
		}
	}
	return sum, nil
}

func label(playerWon, aFirst bool) string {
	if playerWon == aFirst {
		return "a"
	}
	return "b"
}

func playOne(ctx context.Context, v game.Variant, engines map[game.Side]*search.Searcher, plyCap int) (GameResult, error) {
	b := v.NewBoard()
	side := game.Player
	var out GameResult
	for out.Plies < plyCap {
		if st := v.Status(b, side); st.Terminal() {
			if st.Outcome == game.Win {
				out.Winner = st.Winner.String()
			}
			return out, nil
		}
		res, err := engines[side].Search(ctx, v, b, side)
		if err != nil {
			return out, err
		}
		if res.Move.IsNone() {
			// a side that cannot move loses
			out.Winner = side.Opponent().String()
			return out, nil
		}
		if res.Random {
			out.Randoms++
		}
		b = v.ApplyMove(b, side, res.Move)
		side = side.Opponent()
		out.Plies++
	}
	if st := v.Status(b, side); st.Outcome == game.Win {
		out.Winner = st.Winner.String()
		return out, nil
	}
	out.Capped = true
	return out, nil
}
