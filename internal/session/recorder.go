package session

import (
	"time"

	"github.com/park285/pixelcv-arcade/internal/game"
)

// MoveRecord is one applied move in the shape the scoring backend stores in
// training_data.moves_sequence. BoardState is the position before the move.
type MoveRecord struct {
	Ply        int        `json:"ply"`
	From       int        `json:"from"`
	To         int        `json:"to"`
	Notation   string     `json:"notation,omitempty"`
	Piece      string     `json:"piece"`
	Captures   []int      `json:"captures,omitempty"`
	Special    string     `json:"special,omitempty"`
	Side       string     `json:"side"`
	Random     bool       `json:"random,omitempty"`
	Timestamp  int64      `json:"timestamp"`
	BoardState game.Board `json:"board_state"`
}

// Recorder is an append-only move log. Timestamps are milliseconds since
// the game started and never decrease. It is not safe for concurrent use;
// the owning Session serialises access.
type Recorder struct {
	started time.Time
	last    int64
	records []MoveRecord
}

func NewRecorder(started time.Time) *Recorder {
	return &Recorder{started: started}
}

// Reset clears the log and restarts the clock.
func (r *Recorder) Reset(started time.Time) {
	r.started = started
	r.last = 0
	r.records = nil
}

// Record appends m, played by side, which turned before into after.
func (r *Recorder) Record(v game.Variant, before, after game.Board, side game.Side, m game.Move, random bool, at time.Time) MoveRecord {
	ts := at.Sub(r.started).Milliseconds()
	if ts < r.last {
		ts = r.last
	}
	r.last = ts

	piece := before.At(m.From)
	if m.IsPlacement() {
		piece = after.At(m.To)
	}
	rec := MoveRecord{
		Ply:        len(r.records) + 1,
		From:       m.From,
		To:         m.To,
		Notation:   v.Notation(before, m),
		Piece:      piece.String(),
		Captures:   append([]int(nil), m.Captures...),
		Special:    m.Special.String(),
		Side:       side.String(),
		Random:     random,
		Timestamp:  ts,
		BoardState: before.Clone(),
	}
	r.records = append(r.records, rec)
	return rec
}

// Records returns a copy of the log.
func (r *Recorder) Records() []MoveRecord {
	out := make([]MoveRecord, len(r.records))
	copy(out, r.records)
	return out
}

// restore replaces the log, used when a session is rebuilt from a snapshot.
func (r *Recorder) restore(started time.Time, records []MoveRecord) {
	r.started = started
	r.records = append([]MoveRecord(nil), records...)
	r.last = 0
	if n := len(records); n > 0 {
		r.last = records[n-1].Timestamp
	}
}
