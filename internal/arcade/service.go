package arcade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/domain"
	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/search"
	"github.com/park285/pixelcv-arcade/internal/session"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownGame       = errors.New("unknown game")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrSessionLimit      = errors.New("too many active sessions")
	ErrInvalidUser       = errors.New("user id is required")
	ErrServiceClosed     = errors.New("arcade service closed")
)

const (
	DefaultMaxSessionsPerUser = 3
	defaultHistoryLimit       = 10
	maxHistoryLimit           = 100
	persistTimeout            = 10 * time.Second
)

// Report is the scoring backend's answer for a finished game.
type Report struct {
	PointsEarned int
	Message      string
	Achievements []string
}

// Reporter submits finished games to the scoring backend.
type Reporter interface {
	Report(ctx context.Context, userID string, res session.Result) (Report, error)
}

// Publisher fans session events out to live viewers.
type Publisher interface {
	Publish(ctx context.Context, userID string, ev session.Event) error
}

// PresetTuner may replace a preset with parameters served remotely.
type PresetTuner interface {
	Tune(ctx context.Context, p search.Preset) (search.Preset, error)
}

type Options struct {
	Store      SessionStore
	Repository Repository
	Reporter   Reporter
	Publisher  Publisher
	Tuner      PresetTuner
	Scheduler  session.Scheduler
	Now        func() time.Time

	// AIDelay overrides the preset delay when positive.
	AIDelay            time.Duration
	DefaultDifficulty  string
	MaxSessionsPerUser int

	// NewChooser builds the engine for a preset. Defaults to an alpha-beta
	// search.Searcher.
	NewChooser func(p search.Preset) session.Chooser
}

// View is a read-only picture of one session.
type View struct {
	SessionID    string
	UserID       string
	GameID       string
	Difficulty   string
	State        session.State
	Status       game.Status
	Board        game.Board
	ToMove       game.Side
	LegalMoves   []game.Move
	Moves        []session.MoveRecord
	Result       *session.Result
	PointsEarned int
	Message      string
	Achievements []string
	Accepted     bool
}

type entry struct {
	sess       *session.Session
	userID     string
	difficulty string

	saveMu  sync.Mutex
	version int64

	mu     sync.Mutex
	report *Report
}

type Service struct {
	opts   Options
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
	closed   bool
}

func NewService(opts Options, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Repository == nil {
		opts.Repository = NewMemoryRepository()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxSessionsPerUser <= 0 {
		opts.MaxSessionsPerUser = DefaultMaxSessionsPerUser
	}
	if strings.TrimSpace(opts.DefaultDifficulty) == "" {
		opts.DefaultDifficulty = "medium"
	}
	if opts.NewChooser == nil {
		opts.NewChooser = func(p search.Preset) session.Chooser {
			return search.New(search.WithPreset(p), search.WithAlphaBeta(true), search.WithLogger(logger))
		}
	}
	return &Service{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*entry),
	}, nil
}

// StartSession opens a new game for userID. The human always moves first.
func (s *Service) StartSession(ctx context.Context, userID, gameID, difficulty string) (View, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return View{}, ErrInvalidUser
	}
	v, err := game.Lookup(gameID)
	if err != nil {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if strings.TrimSpace(difficulty) == "" {
		difficulty = s.opts.DefaultDifficulty
	}
	preset, err := s.resolvePreset(ctx, v.ID(), difficulty)
	if err != nil {
		return View{}, err
	}

	stored, err := s.storedSessions(ctx, userID)
	if err != nil {
		return View{}, err
	}

	e, err := s.newEntry("", userID, preset, v)
	if err != nil {
		return View{}, err
	}
	if err := s.register(e, stored); err != nil {
		e.sess.Close()
		return View{}, err
	}
	e.sess.Start()

	s.logger.Info("session_start",
		zap.String("session_id", e.sess.ID()),
		zap.String("user_id", userID),
		zap.String("game", v.ID()),
		zap.String("difficulty", preset.Name),
	)
	return s.view(e, false), nil
}

// SubmitMove plays the human's move. Illegal moves leave the session as it
// was and come back with Accepted false.
func (s *Service) SubmitMove(ctx context.Context, sessionID string, from, to int) (View, error) {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	accepted := e.sess.SubmitMove(game.Move{From: from, To: to})
	return s.view(e, accepted), nil
}

func (s *Service) ResetSession(ctx context.Context, sessionID string) (View, error) {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	e.mu.Lock()
	e.report = nil
	e.mu.Unlock()
	e.sess.Reset()
	return s.view(e, false), nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (View, error) {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.view(e, false), nil
}

// EndSession closes the session and forgets its snapshot. An unfinished game
// is abandoned without a result.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	e.sess.Close()
	s.mu.Lock()
	delete(s.sessions, e.sess.ID())
	s.mu.Unlock()
	if err := s.opts.Store.Delete(ctx, e.sess.ID(), e.userID); err != nil {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	s.logger.Info("session_end", zap.String("session_id", e.sess.ID()), zap.String("user_id", e.userID))
	return nil
}

// History returns the user's finished games, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*domain.GameRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.opts.Repository.GetRecentGames(ctx, userID, limit)
}

// Profile returns the user's aggregate stats. Users without games get an
// empty level 1 profile.
func (s *Service) Profile(ctx context.Context, userID string) (*domain.PlayerProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	p, err := s.opts.Repository.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.PlayerProfile{UserID: userID, Level: 1, Rank: RankTitle(1)}
	}
	return p, nil
}

// Sessions lists the ids of sessions held in memory.
func (s *Service) Sessions() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Sweep evicts finished sessions from memory. Their snapshots stay in the
// store until the TTL expires.
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		if e.sess.State() == session.Terminal {
			e.sess.Close()
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.sessions = map[string]*entry{}
	s.mu.Unlock()

	for _, e := range entries {
		e.sess.Close()
	}
	return multierr.Combine(s.opts.Store.Close(), s.opts.Repository.Close())
}

func (s *Service) resolvePreset(ctx context.Context, gameID, difficulty string) (search.Preset, error) {
	preset, err := search.GetPreset(gameID, difficulty)
	if errors.Is(err, search.ErrUnknownDifficulty) {
		return search.Preset{}, fmt.Errorf("%w: %s", ErrUnknownDifficulty, difficulty)
	}
	if err != nil {
		return search.Preset{}, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if s.opts.Tuner != nil {
		tuned, terr := s.opts.Tuner.Tune(ctx, preset)
		switch {
		case terr != nil:
			s.logger.Warn("preset_tune_failed", zap.String("game", gameID), zap.String("difficulty", preset.Name), zap.Error(terr))
		case search.ValidatePreset(tuned) != nil:
			s.logger.Warn("preset_tune_invalid", zap.String("game", gameID), zap.String("difficulty", preset.Name))
		default:
			preset = tuned
		}
	}
	if s.opts.AIDelay > 0 {
		preset.AIDelay = s.opts.AIDelay
	}
	return preset, nil
}

func (s *Service) newEntry(id, userID string, preset search.Preset, v game.Variant) (*entry, error) {
	e := &entry{userID: userID, difficulty: preset.Name}
	delay := preset.AIDelay
	if delay == 0 {
		delay = -1
	}
	sess, err := session.New(session.Config{
		ID:        id,
		Variant:   v,
		Chooser:   s.opts.NewChooser(preset),
		AIDelay:   delay,
		Scheduler: s.opts.Scheduler,
		Now:       s.opts.Now,
		OnChange:  func(ev session.Event) { s.onChange(e, ev) },
		OnGameEnd: func(res session.Result) { s.onGameEnd(e, res) },
		Logger:    s.logger,
	})
	if err != nil {
		return nil, err
	}
	e.sess = sess
	return e, nil
}

// register adds e unless its user already has MaxSessionsPerUser unfinished
// sessions. The in-memory count is taken under the same lock as the insert;
// stored lists unfinished sessions found in the store.
func (s *Service) register(e *entry, stored map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	active := 0
	for _, other := range s.sessions {
		if other.userID == e.userID && other.sess.State() != session.Terminal {
			active++
		}
	}
	for id := range stored {
		if _, ok := s.sessions[id]; !ok {
			active++
		}
	}
	if active >= s.opts.MaxSessionsPerUser {
		return fmt.Errorf("%w: %d of %d", ErrSessionLimit, active, s.opts.MaxSessionsPerUser)
	}
	s.sessions[e.sess.ID()] = e
	return nil
}

// lookup finds a live session, restoring it from the store after a restart.
func (s *Service) lookup(ctx context.Context, sessionID string) (*entry, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrServiceClosed
	}
	if ok {
		return e, nil
	}

	rec, err := s.opts.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	v, err := game.Lookup(rec.Snapshot.GameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, rec.Snapshot.GameID)
	}
	preset, err := s.resolvePreset(ctx, v.ID(), rec.Difficulty)
	if err != nil {
		return nil, err
	}
	e, err = s.newEntry(rec.Snapshot.ID, rec.UserID, preset, v)
	if err != nil {
		return nil, err
	}
	e.version = rec.Version

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	if cur, ok := s.sessions[sessionID]; ok {
		s.mu.Unlock()
		return cur, nil
	}
	s.sessions[sessionID] = e
	s.mu.Unlock()

	if err := e.sess.Restore(rec.Snapshot); err != nil {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		e.sess.Close()
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	s.logger.Info("session_restored",
		zap.String("session_id", sessionID),
		zap.String("user_id", rec.UserID),
		zap.String("state", rec.Snapshot.State),
	)
	return e, nil
}

// storedSessions returns the user's unfinished sessions that exist only in
// the store, e.g. from before a restart.
func (s *Service) storedSessions(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.opts.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	stored := make(map[string]bool, len(ids))
	for _, id := range ids {
		s.mu.RLock()
		_, live := s.sessions[id]
		s.mu.RUnlock()
		if live {
			continue
		}
		rec, err := s.opts.Store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}
		if rec != nil && rec.Snapshot.State != session.Terminal.String() {
			stored[id] = true
		}
	}
	return stored, nil
}

func (s *Service) onChange(e *entry, ev session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	s.persist(ctx, e)
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.Publish(ctx, e.userID, ev); err != nil {
			s.logger.Warn("event_publish_failed",
				zap.String("session_id", ev.SessionID),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
		}
	}
}

// persist saves the session's current snapshot. Events arrive one at a time
// in order; the snapshot is taken fresh so the newest version wins.
func (s *Service) persist(ctx context.Context, e *entry) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	snap, err := e.sess.Snapshot()
	if err != nil {
		s.logger.Error("session_snapshot_failed", zap.String("session_id", e.sess.ID()), zap.Error(err))
		return
	}
	e.version++
	rec := &StoredSession{
		UserID:     e.userID,
		Difficulty: e.difficulty,
		Version:    e.version,
		Snapshot:   snap,
		UpdatedAt:  s.opts.Now(),
	}
	if err := s.opts.Store.Save(ctx, rec); err != nil {
		if errors.Is(err, ErrStaleSnapshot) {
			s.logger.Debug("session_snapshot_stale", zap.String("session_id", snap.ID), zap.Int64("version", rec.Version))
			return
		}
		s.logger.Warn("session_snapshot_save_failed", zap.String("session_id", snap.ID), zap.Error(err))
	}
}

// onGameEnd reports the result, stores the game and updates the profile.
func (s *Service) onGameEnd(e *entry, res session.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rep := Report{PointsEarned: LocalPoints(e.difficulty, res.Outcome)}
	if s.opts.Reporter != nil {
		got, err := s.opts.Reporter.Report(ctx, e.userID, res)
		if err != nil {
			s.logger.Warn("result_report_failed",
				zap.String("session_id", res.SessionID),
				zap.String("user_id", e.userID),
				zap.Error(err),
			)
		} else {
			rep = got
		}
	}
	e.mu.Lock()
	e.report = &rep
	e.mu.Unlock()

	rec := s.gameRecord(e, res, rep)
	id, err := s.opts.Repository.InsertGame(ctx, rec)
	if errors.Is(err, ErrDuplicateGame) {
		s.logger.Info("game_record_duplicate", zap.String("session_id", res.SessionID))
		return
	}
	if err != nil {
		s.logger.Error("game_record_insert_failed", zap.String("session_id", res.SessionID), zap.Error(err))
		return
	}
	prev, err := s.opts.Repository.GetProfile(ctx, e.userID)
	if err != nil {
		s.logger.Error("profile_load_failed", zap.String("user_id", e.userID), zap.Error(err))
		return
	}
	profile := ApplyGame(prev, rec)
	if err := s.opts.Repository.UpsertProfile(ctx, profile); err != nil {
		s.logger.Error("profile_upsert_failed", zap.String("user_id", e.userID), zap.Error(err))
		return
	}
	s.logger.Info("game_recorded",
		zap.Int64("game_record_id", id),
		zap.String("session_id", res.SessionID),
		zap.String("user_id", e.userID),
		zap.String("outcome", res.Outcome),
		zap.Int("points_earned", rep.PointsEarned),
		zap.Int("total_points", profile.Points),
		zap.String("rank", profile.Rank),
	)
}

func (s *Service) gameRecord(e *entry, res session.Result, rep Report) *domain.GameRecord {
	v := e.sess.Variant()
	board := e.sess.Board()
	moves := e.sess.Moves()
	log := make([]string, 0, len(moves))
	for _, m := range moves {
		log = append(log, m.Notation)
	}
	cells := make([]string, 0, board.Len())
	for _, c := range board.Strings() {
		if c == nil {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, *c)
	}
	var fen string
	if f, ok := v.(game.FENer); ok {
		if got, err := f.FEN(board, e.sess.ToMove()); err == nil {
			fen = got
		}
	}
	started, ended := s.opts.Now(), s.opts.Now()
	if snap, err := e.sess.Snapshot(); err == nil {
		started, ended = snap.StartedAt, snap.EndedAt
	}
	return &domain.GameRecord{
		SessionID:    res.SessionID,
		UserID:       e.userID,
		GameID:       res.GameID,
		Difficulty:   e.difficulty,
		Outcome:      res.Outcome,
		Won:          res.Won,
		Score:        res.Score,
		Moves:        res.Moves,
		MovesLog:     log,
		FinalBoard:   cells,
		FEN:          fen,
		PointsEarned: rep.PointsEarned,
		StartedAt:    started,
		EndedAt:      ended,
		Duration:     ended.Sub(started),
	}
}

func (s *Service) view(e *entry, accepted bool) View {
	sess := e.sess
	out := View{
		SessionID:  sess.ID(),
		UserID:     e.userID,
		GameID:     sess.Variant().ID(),
		Difficulty: e.difficulty,
		State:      sess.State(),
		Status:     sess.Status(),
		Board:      sess.Board(),
		ToMove:     sess.ToMove(),
		LegalMoves: sess.LegalMoves(),
		Moves:      sess.Moves(),
		Accepted:   accepted,
	}
	if res, ok := sess.Result(); ok {
		out.Result = &res
	}
	e.mu.Lock()
	if e.report != nil {
		out.PointsEarned = e.report.PointsEarned
		out.Message = e.report.Message
		out.Achievements = append([]string(nil), e.report.Achievements...)
	}
	e.mu.Unlock()
	return out
}
