// Package session runs one game between the human and the engine: it owns
// the board, validates the human's moves, schedules the engine's reply and
// reports the final result.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/search"
)

const DefaultAIDelay = 500 * time.Millisecond

type State uint8

const (
	Idle State = iota
	PlayerTurn
	AITurn
	Terminal
)

func (s State) String() string {
	switch s {
	case PlayerTurn:
		return "player_turn"
	case AITurn:
		return "ai_turn"
	case Terminal:
		return "terminal"
	default:
		return "idle"
	}
}

// Chooser picks the engine's move. *search.Searcher implements it.
type Chooser interface {
	Search(ctx context.Context, v game.Variant, b game.Board, side game.Side) (search.Result, error)
}

var (
	ErrNilVariant   = errors.New("session: variant is required")
	ErrNilChooser   = errors.New("session: chooser is required")
	ErrGameMismatch = errors.New("session: snapshot belongs to another game")
)

type Config struct {
	ID      string
	Variant game.Variant
	Chooser Chooser
	// AIDelay paces the engine's reply. Zero selects DefaultAIDelay; a
	// negative value replies without delay.
	AIDelay   time.Duration
	Scheduler Scheduler
	Now       func() time.Time
	OnGameEnd func(Result)
	OnChange  func(Event)
	Logger    *zap.Logger
}

type Session struct {
	cfg    Config
	id     string
	delay  time.Duration
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	board     game.Board
	toMove    game.Side
	status    game.Status
	moves     int
	startedAt time.Time
	endedAt   time.Time
	recorder  *Recorder
	result    *Result

	// gen invalidates scheduled and in-flight engine turns.
	gen          uint64
	pending      Task
	cancelSearch context.CancelFunc
	closed       bool

	// seq numbers events; outbox holds callbacks not yet delivered.
	seq    uint64
	outbox []delivery
	emitMu sync.Mutex
}

func New(cfg Config) (*Session, error) {
	if cfg.Variant == nil {
		return nil, ErrNilVariant
	}
	if cfg.Chooser == nil {
		return nil, ErrNilChooser
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimerScheduler{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	delay := cfg.AIDelay
	switch {
	case delay == 0:
		delay = DefaultAIDelay
	case delay < 0:
		delay = 0
	}
	s := &Session{
		cfg:    cfg,
		id:     id,
		delay:  delay,
		logger: logger.With(zap.String("session_id", id), zap.String("game", cfg.Variant.ID())),
		state:  Idle,
		board:  cfg.Variant.NewBoard(),
		toMove: game.Player,
		status: game.Ongoing,
	}
	s.recorder = NewRecorder(cfg.Now())
	return s, nil
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Variant() game.Variant { return s.cfg.Variant }

// Start begins a fresh game with the human to move.
func (s *Session) Start() {
	s.restart(EventStarted)
}

// Reset abandons the current game from any state and starts over.
func (s *Session) Reset() {
	s.restart(EventReset)
}

func (s *Session) restart(kind EventKind) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.invalidateLocked()
	now := s.cfg.Now()
	s.board = s.cfg.Variant.NewBoard()
	s.toMove = game.Player
	s.status = game.Ongoing
	s.moves = 0
	s.startedAt = now
	s.endedAt = time.Time{}
	s.result = nil
	s.recorder.Reset(now)
	s.state = PlayerTurn
	s.queueLocked([]Event{s.eventLocked(kind, nil)}, nil)
	s.mu.Unlock()

	s.logger.Debug("session_restart", zap.String("kind", string(kind)))
	s.flush()
}

// SubmitMove plays the human's move. Moves that are not legal right now are
// ignored and false is returned; nothing changes.
func (s *Session) SubmitMove(m game.Move) bool {
	s.mu.Lock()
	if s.closed || s.state != PlayerTurn {
		s.mu.Unlock()
		return false
	}
	legal, ok := game.FindMove(s.cfg.Variant.GenerateMoves(s.board, game.Player), m)
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("move_ignored", zap.Int("from", m.From), zap.Int("to", m.To))
		return false
	}
	s.queueLocked(s.applyLocked(game.Player, legal, false))
	s.mu.Unlock()

	s.flush()
	return true
}

// applyLocked plays m for side, records it, and moves the state machine on.
func (s *Session) applyLocked(side game.Side, m game.Move, random bool) ([]Event, *Result) {
	v := s.cfg.Variant
	before := s.board
	after := v.ApplyMove(before, side, m)
	rec := s.recorder.Record(v, before, after, side, m, random, s.cfg.Now())
	s.board = after
	s.moves++
	s.toMove = side.Opponent()

	var result *Result
	st := v.Status(after, s.toMove)
	switch {
	case st.Terminal():
		result = s.finishLocked(st)
	case s.toMove == game.AI:
		s.state = AITurn
		s.scheduleLocked()
	default:
		s.state = PlayerTurn
	}
	events := []Event{s.eventLocked(EventMove, &rec)}
	if result != nil {
		events = append(events, s.eventLocked(EventEnded, nil))
	}
	return events, result
}

func (s *Session) scheduleLocked() {
	gen := s.gen
	s.pending = s.cfg.Scheduler.AfterFunc(s.delay, func() { s.aiTurn(gen) })
}

// aiTurn runs the engine outside the lock and applies its move only if the
// game was not reset or closed meanwhile.
func (s *Session) aiTurn(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.state != AITurn {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	board := s.board.Clone()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelSearch = cancel
	s.mu.Unlock()

	res, err := s.cfg.Chooser.Search(ctx, s.cfg.Variant, board, game.AI)
	cancel()

	s.mu.Lock()
	if s.closed || gen != s.gen || s.state != AITurn {
		s.mu.Unlock()
		return
	}
	s.cancelSearch = nil
	move := res.Move
	if err != nil {
		s.logger.Warn("ai_search_failed", zap.Error(err))
		move = game.NoMove
		if moves := s.cfg.Variant.GenerateMoves(s.board, game.AI); len(moves) > 0 {
			move = moves[0]
		}
	}
	if !move.IsNone() {
		if legal, ok := game.FindMove(s.cfg.Variant.GenerateMoves(s.board, game.AI), move); ok {
			move = legal
		} else {
			s.logger.Error("ai_move_illegal", zap.String("move", move.String()))
			move = game.NoMove
		}
	}

	var (
		events []Event
		result *Result
	)
	if move.IsNone() {
		st := s.cfg.Variant.Status(s.board, game.AI)
		if !st.Terminal() {
			// A stuck engine loses.
			st = game.WinFor(game.Player)
		}
		result = s.finishLocked(st)
		events = []Event{s.eventLocked(EventEnded, nil)}
	} else {
		s.logger.Debug("ai_move",
			zap.String("move", move.String()),
			zap.Int("score", res.Score),
			zap.Bool("random", res.Random),
		)
		events, result = s.applyLocked(game.AI, move, res.Random)
	}
	s.queueLocked(events, result)
	s.mu.Unlock()

	s.flush()
}

func (s *Session) finishLocked(st game.Status) *Result {
	s.status = st
	s.state = Terminal
	s.endedAt = s.cfg.Now()
	r := s.buildResultLocked()
	s.result = &r
	s.logger.Info("game_ended",
		zap.String("status", st.String()),
		zap.Int("moves", s.moves),
		zap.Int("time_seconds", r.TimeSeconds),
	)
	return &r
}

// invalidateLocked drops every pending or in-flight engine turn.
func (s *Session) invalidateLocked() {
	s.gen++
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	if s.cancelSearch != nil {
		s.cancelSearch()
		s.cancelSearch = nil
	}
}

// Close tears the session down. Scheduled engine turns are discarded and
// further calls are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.invalidateLocked()
	s.closed = true
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Board() game.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

func (s *Session) Status() game.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) ToMove() game.Side {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toMove
}

// MoveCount is the number of moves applied by both sides.
func (s *Session) MoveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

func (s *Session) Moves() []MoveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Records()
}

// LegalMoves lists the human's moves, or nil when it is not their turn.
func (s *Session) LegalMoves() []game.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PlayerTurn {
		return nil
	}
	return s.cfg.Variant.GenerateMoves(s.board, game.Player)
}

// Result returns the final result once the game is over.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}
