// Package search picks engine moves with depth-limited minimax.
package search

import (
	"context"
	"math"

	"github.com/park285/pixelcv-arcade/internal/game"
)

const (
	inf = math.MaxInt32

	// ctxCheckMask sets how often, in nodes, the context is polled.
	ctxCheckMask = 1<<10 - 1
)

// Result is the chosen move and its score from the mover's point of view.
// Random is set when the move came from the random-move chance instead of
// the tree search.
type Result struct {
	Move   game.Move
	Score  int
	Depth  int
	Nodes  int
	Random bool
}

type tree struct {
	ctx       context.Context
	err       error
	v         game.Variant
	root      game.Side
	alphaBeta bool
	nodes     int
}

// Minimax searches depth plies with plain minimax and returns the first move
// with the best score. It returns game.NoMove when side has no legal move or
// depth is zero; the score is then the static score of b.
func Minimax(v game.Variant, b game.Board, side game.Side, depth int) Result {
	res, _ := run(context.Background(), v, b, side, depth, false)
	return res
}

// AlphaBeta returns the same move as Minimax while visiting fewer nodes.
func AlphaBeta(v game.Variant, b game.Board, side game.Side, depth int) Result {
	res, _ := run(context.Background(), v, b, side, depth, true)
	return res
}

func run(ctx context.Context, v game.Variant, b game.Board, side game.Side, depth int, prune bool) (Result, error) {
	if depth < 0 {
		depth = 0
	}
	t := &tree{ctx: ctx, v: v, root: side, alphaBeta: prune}
	if depth == 0 {
		return Result{Move: game.NoMove, Score: game.Score(v, b, side, side, 0), Nodes: 1}, nil
	}
	moves := v.GenerateMoves(b, side)
	if len(moves) == 0 {
		return Result{Move: game.NoMove, Score: game.Score(v, b, side, side, depth), Depth: depth, Nodes: 1}, nil
	}

	best := Result{Move: moves[0], Score: -inf, Depth: depth}
	for _, m := range moves {
		child := v.ApplyMove(b, side, m)
		// A child equal to the current best cannot replace it, so the
		// window starts at best; strict > keeps the first best move.
		alpha := best.Score
		s := t.node(child, side.Opponent(), depth-1, alpha, inf)
		if t.err != nil {
			return Result{Move: game.NoMove, Depth: depth, Nodes: t.nodes}, t.err
		}
		if s > best.Score {
			best.Move = m
			best.Score = s
		}
	}
	best.Nodes = t.nodes + 1
	return best, nil
}

// node returns the score of b from the root side's point of view with
// toMove on turn.
func (t *tree) node(b game.Board, toMove game.Side, depth, alpha, beta int) int {
	t.nodes++
	if t.err != nil {
		return 0
	}
	if t.nodes&ctxCheckMask == 0 {
		if err := t.ctx.Err(); err != nil {
			t.err = err
			return 0
		}
	}
	if depth <= 0 {
		return game.Score(t.v, b, toMove, t.root, 0)
	}
	if st := t.v.Status(b, toMove); st.Terminal() {
		return game.TerminalScore(st, t.root, depth)
	}

	maximizing := toMove == t.root
	moves := t.v.GenerateMoves(b, toMove)
	best := inf
	if maximizing {
		best = -inf
	}
	for _, m := range moves {
		s := t.node(t.v.ApplyMove(b, toMove, m), toMove.Opponent(), depth-1, alpha, beta)
		if maximizing {
			best = max(best, s)
			alpha = max(alpha, best)
		} else {
			best = min(best, s)
			beta = min(beta, best)
		}
		if t.alphaBeta && alpha >= beta {
			break
		}
	}
	return best
}
