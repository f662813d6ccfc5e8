package arcadedto

type Move struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Notation string `json:"notation,omitempty"`
	Captures []int  `json:"captures,omitempty"`
	Special  string `json:"special,omitempty"`
}

type MoveRecord struct {
	Ply       int    `json:"ply"`
	Side      string `json:"side"`
	Notation  string `json:"notation"`
	Piece     string `json:"piece"`
	Random    bool   `json:"random,omitempty"`
	Timestamp int64  `json:"timestamp_ms"`
}

type Board struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Cells  []*string `json:"cells"`
}

type Result struct {
	Outcome      string   `json:"outcome"`
	Won          bool     `json:"won"`
	Moves        int      `json:"moves"`
	TimeSeconds  int      `json:"time_seconds"`
	PointsEarned int      `json:"points_earned"`
	Message      string   `json:"message,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type SessionState struct {
	SessionID  string       `json:"session_id"`
	UserID     string       `json:"user_id"`
	GameID     string       `json:"game_id"`
	Title      string       `json:"title"`
	Difficulty string       `json:"difficulty"`
	State      string       `json:"state"`
	Outcome    string       `json:"outcome"`
	StatusText string       `json:"status_text"`
	ToMove     string       `json:"to_move"`
	Board      Board        `json:"board"`
	LegalMoves []Move       `json:"legal_moves"`
	History    []MoveRecord `json:"history"`
	Result     *Result      `json:"result,omitempty"`
	Accepted   *bool        `json:"accepted,omitempty"`
}

type GameInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Difficulties []string `json:"difficulties"`
}
