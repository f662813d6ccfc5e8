package backend

import "encoding/json"

// GameSubmitRequest is the body of POST /games/submit.
type GameSubmitRequest struct {
	GameID      string          `json:"game_id"`
	Score       int             `json:"score"`
	Won         bool            `json:"won"`
	Moves       int             `json:"moves"`
	TimeSeconds int             `json:"time_seconds"`
	GameData    json.RawMessage `json:"game_data,omitempty"`

	// UserID is forwarded in a header so a service token can submit on a
	// user's behalf.
	UserID string `json:"-"`
}

type GameSubmitResponse struct {
	Success      bool     `json:"success"`
	PointsEarned int      `json:"points_earned"`
	SessionID    int64    `json:"session_id"`
	Message      string   `json:"message"`
	Achievements []string `json:"achievements"`
}

// AIParameters is the tunable part of a difficulty level. Older backends
// call the random-move chance error_chance.
type AIParameters struct {
	ErrorChance      *float64 `json:"error_chance,omitempty"`
	RandomMoveChance *float64 `json:"random_move_chance,omitempty"`
	MaxDepth         *int     `json:"max_depth,omitempty"`
	AIDelayMillis    *int     `json:"ai_delay_ms,omitempty"`
}

type AIParametersResponse struct {
	GameID     string       `json:"game_id"`
	Difficulty string       `json:"difficulty"`
	Parameters AIParameters `json:"parameters"`
}

// Chance returns the random-move chance, preferring the newer field.
func (p AIParameters) Chance() (float64, bool) {
	switch {
	case p.RandomMoveChance != nil:
		return *p.RandomMoveChance, true
	case p.ErrorChance != nil:
		return *p.ErrorChance, true
	}
	return 0, false
}

type errorBody struct {
	Detail string `json:"detail"`
}
