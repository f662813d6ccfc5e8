package arcadedto

type StartSessionRequest struct {
	UserID     string `json:"user_id"`
	GameID     string `json:"game_id"`
	Difficulty string `json:"difficulty,omitempty"`
}

// MoveRequest carries board indices. From is omitted for placement games.
type MoveRequest struct {
	From *int `json:"from,omitempty"`
	To   *int `json:"to"`
}

type SessionResponse struct {
	Session *SessionState `json:"session"`
}

type GamesResponse struct {
	Games []GameInfo `json:"games"`
}

type HistoryResponse struct {
	UserID string        `json:"user_id"`
	Games  []*GameRecord `json:"games"`
}

type ProfileResponse struct {
	Profile *PlayerProfile `json:"profile"`
}
