package arcadedto

import "time"

type GameRecord struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	GameID       string    `json:"game_id"`
	Difficulty   string    `json:"difficulty"`
	Outcome      string    `json:"outcome"`
	Won          bool      `json:"won"`
	Moves        int       `json:"moves"`
	MovesLog     []string  `json:"moves_log"`
	FEN          string    `json:"fen,omitempty"`
	PointsEarned int       `json:"points_earned"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMS   int64     `json:"duration_ms"`
}
