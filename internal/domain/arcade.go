package domain

import "time"

// GameRecord is a finished arcade game.
type GameRecord struct {
	ID           int64
	SessionID    string
	UserID       string
	GameID       string
	Difficulty   string
	Outcome      string
	Won          bool
	Score        int
	Moves        int
	MovesLog     []string
	FinalBoard   []string
	FEN          string
	PointsEarned int
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// PlayerProfile aggregates a user's arcade results across games.
type PlayerProfile struct {
	UserID         string
	GamesPlayed    int
	Wins           int
	Losses         int
	Draws          int
	Streak         int
	StreakType     string
	BestStreak     int
	Points         int
	Level          int
	Rank           string
	LastGame       string
	LastDifficulty string
	LastPlayedAt   time.Time
	UpdatedAt      time.Time
	CreatedAt      time.Time
}
