package session

import (
	"time"

	"github.com/park285/pixelcv-arcade/internal/game"
)

type EventKind string

const (
	EventStarted EventKind = "session_started"
	EventMove    EventKind = "move_applied"
	EventEnded   EventKind = "game_ended"
	EventReset   EventKind = "session_reset"
)

// Event describes a state change. OnChange runs outside the session lock,
// one call at a time, in Seq order.
type Event struct {
	Seq       uint64      `json:"seq"`
	SessionID string      `json:"session_id"`
	GameID    string      `json:"game_id"`
	Kind      EventKind   `json:"kind"`
	State     string      `json:"state"`
	Outcome   string      `json:"outcome"`
	Move      *MoveRecord `json:"move,omitempty"`
	Board     game.Board  `json:"board"`
	At        time.Time   `json:"at"`
}

func (s *Session) eventLocked(kind EventKind, rec *MoveRecord) Event {
	s.seq++
	return Event{
		Seq:       s.seq,
		SessionID: s.id,
		GameID:    s.cfg.Variant.ID(),
		Kind:      kind,
		State:     s.state.String(),
		Outcome:   outcomeName(s.status),
		Move:      rec,
		Board:     s.board.Clone(),
		At:        s.cfg.Now(),
	}
}

// delivery is one queued OnChange or OnGameEnd call.
type delivery struct {
	event  *Event
	result *Result
}

func (s *Session) queueLocked(events []Event, result *Result) {
	for i := range events {
		s.outbox = append(s.outbox, delivery{event: &events[i]})
	}
	if result != nil {
		s.outbox = append(s.outbox, delivery{result: result})
	}
}

// flush delivers queued callbacks in queue order. Only one goroutine
// delivers at a time; a caller that finds delivery busy leaves its entries
// to the goroutine already draining, which also covers callbacks that call
// back into the session.
func (s *Session) flush() {
	for {
		if !s.emitMu.TryLock() {
			return
		}
		for {
			s.mu.Lock()
			batch := s.outbox
			s.outbox = nil
			s.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, d := range batch {
				s.deliver(d)
			}
		}
		s.emitMu.Unlock()

		s.mu.Lock()
		idle := len(s.outbox) == 0
		s.mu.Unlock()
		if idle {
			return
		}
	}
}

func (s *Session) deliver(d delivery) {
	switch {
	case d.event != nil && s.cfg.OnChange != nil:
		s.cfg.OnChange(*d.event)
	case d.result != nil && s.cfg.OnGameEnd != nil:
		s.cfg.OnGameEnd(*d.result)
	}
}
