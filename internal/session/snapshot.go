package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/park285/pixelcv-arcade/internal/game"
)

// Snapshot is the serialisable state of a session.
type Snapshot struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	State     string          `json:"state"`
	Board     json.RawMessage `json:"board"`
	ToMove    game.Side       `json:"to_move"`
	Outcome   game.Outcome    `json:"outcome"`
	Winner    game.Side       `json:"winner,omitempty"`
	MoveCount int             `json:"move_count"`
	Moves     []MoveRecord    `json:"moves"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at,omitzero"`
	// Seq is the last event number handed out.
	Seq uint64 `json:"seq,omitempty"`
}

func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, err := s.board.EncodeState()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:        s.id,
		GameID:    s.cfg.Variant.ID(),
		State:     s.state.String(),
		Board:     board,
		ToMove:    s.toMove,
		Outcome:   s.status.Outcome,
		Winner:    s.status.Winner,
		MoveCount: s.moves,
		Moves:     s.recorder.Records(),
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
		Seq:       s.seq,
	}, nil
}

func parseState(name string) (State, error) {
	for _, st := range []State{Idle, PlayerTurn, AITurn, Terminal} {
		if st.String() == name {
			return st, nil
		}
	}
	return Idle, fmt.Errorf("session: unknown state %q", name)
}

// Restore loads snap into the session. A snapshot taken during the engine's
// turn schedules the engine again.
func (s *Session) Restore(snap Snapshot) error {
	if snap.GameID != s.cfg.Variant.ID() {
		return fmt.Errorf("%w: %s", ErrGameMismatch, snap.GameID)
	}
	state, err := parseState(snap.State)
	if err != nil {
		return err
	}
	board, err := game.DecodeState(snap.Board)
	if err != nil {
		return fmt.Errorf("session: restore: %w", err)
	}
	ref := s.cfg.Variant.NewBoard()
	if board.Width != ref.Width || board.Height != ref.Height {
		return fmt.Errorf("session: restore: board is %dx%d, want %dx%d", board.Width, board.Height, ref.Width, ref.Height)
	}
	if !snap.ToMove.Valid() {
		return fmt.Errorf("session: restore: invalid side to move %d", snap.ToMove)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.invalidateLocked()
	s.id = snap.ID
	s.board = board
	s.toMove = snap.ToMove
	s.status = game.Status{Outcome: snap.Outcome, Winner: snap.Winner}
	s.moves = snap.MoveCount
	s.startedAt = snap.StartedAt
	s.endedAt = snap.EndedAt
	s.recorder.restore(snap.StartedAt, snap.Moves)
	if snap.Seq > s.seq {
		s.seq = snap.Seq
	}
	s.state = state
	s.result = nil
	if state == Terminal {
		r := s.buildResultLocked()
		s.result = &r
	}
	if state == AITurn {
		s.scheduleLocked()
	}
	s.mu.Unlock()
	return nil
}
