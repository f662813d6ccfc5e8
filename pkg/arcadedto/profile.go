package arcadedto

import "time"

type PlayerProfile struct {
	UserID         string     `json:"user_id"`
	GamesPlayed    int        `json:"games_played"`
	Wins           int        `json:"wins"`
	Losses         int        `json:"losses"`
	Draws          int        `json:"draws"`
	Streak         int        `json:"streak"`
	StreakType     string     `json:"streak_type,omitempty"`
	BestStreak     int        `json:"best_streak"`
	Points         int        `json:"points"`
	Level          int        `json:"level"`
	Rank           string     `json:"rank"`
	LastGame       string     `json:"last_game,omitempty"`
	LastDifficulty string     `json:"last_difficulty,omitempty"`
	LastPlayedAt   *time.Time `json:"last_played_at,omitempty"`
}
