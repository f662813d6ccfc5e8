package search

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/game"
)

const (
	DefaultMaxDepth         = 3
	DefaultRandomMoveChance = 0.15
)

// Searcher wraps the tree search with the engine's personality: a depth
// limit and a chance of playing a random legal move instead.
type Searcher struct {
	maxDepth   int
	randChance float64
	alphaBeta  bool
	logger     *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

type Option func(*Searcher)

func WithMaxDepth(d int) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.maxDepth = d
		}
	}
}

// WithRandomMoveChance sets the probability, clamped to [0,1], of replacing
// the searched move with a uniformly random legal move.
func WithRandomMoveChance(p float64) Option {
	return func(s *Searcher) {
		s.randChance = clamp01(p)
	}
}

func WithAlphaBeta(enabled bool) Option {
	return func(s *Searcher) { s.alphaBeta = enabled }
}

func WithRandSeed(seed int64) Option {
	return func(s *Searcher) { s.rand = rand.New(rand.NewSource(seed)) }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPreset applies a difficulty preset's depth and random-move chance.
func WithPreset(p Preset) Option {
	return func(s *Searcher) {
		WithMaxDepth(p.MaxDepth)(s)
		WithRandomMoveChance(p.RandomMoveChance)(s)
	}
}

func New(opts ...Option) *Searcher {
	s := &Searcher{
		maxDepth:   DefaultMaxDepth,
		randChance: DefaultRandomMoveChance,
		alphaBeta:  true,
		logger:     zap.NewNop(),
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Searcher) MaxDepth() int              { return s.maxDepth }
func (s *Searcher) RandomMoveChance() float64 { return s.randChance }

// Search picks side's move on b. It returns game.NoMove with a nil error when
// no legal move exists.
func (s *Searcher) Search(ctx context.Context, v game.Variant, b game.Board, side game.Side) (Result, error) {
	if v == nil {
		return Result{}, fmt.Errorf("search: nil variant")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	started := time.Now()

	if s.randChance > 0 {
		moves := v.GenerateMoves(b, side)
		if len(moves) == 0 {
			return Result{Move: game.NoMove}, nil
		}
		if idx, ok := s.rollRandom(len(moves)); ok {
			s.logger.Debug("ai_random_move",
				zap.String("game", v.ID()),
				zap.String("move", moves[idx].String()),
				zap.Float64("chance", s.randChance),
			)
			return Result{Move: moves[idx], Random: true, Nodes: 1}, nil
		}
	}

	res, err := run(ctx, v, b, side, s.maxDepth, s.alphaBeta)
	if err != nil {
		return Result{}, fmt.Errorf("search %s: %w", v.ID(), err)
	}
	s.logger.Debug("ai_search",
		zap.String("game", v.ID()),
		zap.String("move", res.Move.String()),
		zap.Int("score", res.Score),
		zap.Int("depth", res.Depth),
		zap.Int("nodes", res.Nodes),
		zap.Bool("alpha_beta", s.alphaBeta),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

func (s *Searcher) rollRandom(n int) (int, bool) {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	if s.rand.Float64() >= s.randChance {
		return 0, false
	}
	return s.rand.Intn(n), true
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
